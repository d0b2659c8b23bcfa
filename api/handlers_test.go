package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/poiesic/payermatch"
	"github.com/poiesic/payermatch/ai/mock"
	"github.com/poiesic/payermatch/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	users := []core.User{
		{ID: "u1", Name: "John Smith"},
		{ID: "u2", Name: "Emma Brown"},
	}
	txns := []core.Transaction{
		{ID: "tx1", Description: "From John Smith for Deel, ref ABC123", Amount: decimal.NewNullDecimal(decimal.RequireFromString("100"))},
		{ID: "tx2", Description: "Transfer from Emma Brown for Deel"},
		{ID: "tx3", Description: ""},
	}

	svc, err := payermatch.Open(context.Background(),
		payermatch.WithProvider(mock.NewMockProvider()),
		payermatch.WithRecords(users, txns),
		payermatch.WithPoolSize(2),
	)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })

	server, err := NewServer(svc)
	require.NoError(t, err)
	return server
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t).Handler(), http.MethodGet, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMatchTransaction(t *testing.T) {
	h := newTestServer(t).Handler()

	t.Run("match", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/transactions/tx1")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		resp := decode[matchResponse](t, rec)
		require.NotEmpty(t, resp.Users)
		assert.Equal(t, "u1", resp.Users[0].ID)
		assert.Equal(t, 100.0, resp.Users[0].MatchMetric)
		assert.Equal(t, len(resp.Users), resp.TotalNumberOfMatches)
	})

	t.Run("empty description", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/transactions/tx3")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"users":[],"total_number_of_matches":0}`, rec.Body.String())
	})

	t.Run("unknown transaction", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/transactions/nonexistent_id")
		require.Equal(t, http.StatusNotFound, rec.Code)
		resp := decode[errorResponse](t, rec)
		assert.Equal(t, "Transaction with ID nonexistent_id not found", resp.Detail)
	})

	t.Run("invalid threshold", func(t *testing.T) {
		for _, target := range []string{"/transactions/tx1?threshold=101", "/transactions/tx1?threshold=high", "/transactions/tx1?threshold=55.5"} {
			rec := do(t, h, http.MethodPost, target)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, target)
		}
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/transactions/tx1")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestSemanticSearch(t *testing.T) {
	h := newTestServer(t).Handler()

	t.Run("identical description", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/transactions/semantic_search/Transfer%20from%20Emma%20Brown%20for%20Deel?threshold=0.99")
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decode[searchResponse](t, rec)
		require.Len(t, resp.Transactions, 1)
		assert.Equal(t, "tx2", resp.Transactions[0].ID)
		assert.Equal(t, 1.0, resp.Transactions[0].Embedding)
		require.NotNil(t, resp.Transactions[0].Description)
		assert.Equal(t, "Transfer from Emma Brown for Deel", *resp.Transactions[0].Description)
		assert.Nil(t, resp.Transactions[0].Amount)
		assert.Positive(t, resp.TotalNumberOfTokensUsed)
	})

	t.Run("without description", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/transactions/semantic_search/From%20John%20Smith%20for%20Deel,%20ref%20ABC123?threshold=0.99&include_description=false")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "description")
		assert.NotContains(t, rec.Body.String(), "amount")
	})

	t.Run("blank query", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/transactions/semantic_search/%20%20")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Query string cannot be empty", decode[errorResponse](t, rec).Detail)
	})

	t.Run("missing query", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/transactions/semantic_search/")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid parameters", func(t *testing.T) {
		for _, q := range []string{"threshold=1.5", "threshold=x", "limit=0", "limit=101", "preprocess=maybe", "include_description=2"} {
			rec := do(t, h, http.MethodPost, "/transactions/semantic_search/payment?"+q)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, q)
		}
	})
}

func TestTransactionsWithUsers(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := do(t, h, http.MethodGet, "/transactions/transactions_with_users")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[[]transactionUsersResponse](t, rec)
	require.Len(t, resp, 2)

	assert.Equal(t, "tx1", resp[0].TransactionID)
	require.NotNil(t, resp[0].Amount)
	assert.Equal(t, 100.0, *resp[0].Amount)
	require.NotEmpty(t, resp[0].PossibleUsers)
	assert.Equal(t, "John Smith", resp[0].PossibleUsers[0].Name)

	assert.Equal(t, "tx2", resp[1].TransactionID)
	assert.Nil(t, resp[1].Amount)
	assert.Contains(t, rec.Body.String(), `"amount":null`)
	require.NotEmpty(t, resp[1].PossibleUsers)
	assert.Equal(t, "u2", resp[1].PossibleUsers[0].ID)

	rec = do(t, h, http.MethodGet, "/transactions/transactions_with_users?threshold=-1")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

type failingService struct{}

func (failingService) MatchTransaction(context.Context, string, float64) (*payermatch.MatchResult, error) {
	return nil, errors.New("boom")
}

func (failingService) TransactionsWithUsers(context.Context, float64) ([]payermatch.TransactionUsers, error) {
	panic("unexpected")
}

func (failingService) SemanticSearch(context.Context, string, payermatch.SearchParams) (*payermatch.SearchResult, error) {
	return nil, errors.New("embedding host unreachable")
}

func TestInternalErrors(t *testing.T) {
	server, err := NewServer(failingService{})
	require.NoError(t, err)
	h := server.Handler()

	rec := do(t, h, http.MethodPost, "/transactions/tx1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decode[errorResponse](t, rec).Detail)

	rec = do(t, h, http.MethodPost, "/transactions/semantic_search/payment")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = do(t, h, http.MethodGet, "/transactions/transactions_with_users")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestNewServer_Options(t *testing.T) {
	_, err := NewServer(nil)
	assert.Error(t, err)

	_, err = NewServer(failingService{}, WithMatchThreshold(150))
	assert.Error(t, err)

	server, err := NewServer(failingService{}, WithMatchThreshold(80), WithLogger(nil))
	require.NoError(t, err)
	assert.Equal(t, 80, server.matchThreshold)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	server := newTestServer(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- server.ListenAndServe(ctx, "127.0.0.1:0") }()

	cancel()
	assert.NoError(t, <-done)
}
