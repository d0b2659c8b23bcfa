package api

import (
	"github.com/poiesic/payermatch"
	"github.com/poiesic/payermatch/core"
)

type matchedUser struct {
	ID          string  `json:"id"`
	MatchMetric float64 `json:"match_metric"`
}

type matchResponse struct {
	Users                []matchedUser `json:"users"`
	TotalNumberOfMatches int           `json:"total_number_of_matches"`
}

type searchHit struct {
	ID          string   `json:"id"`
	Embedding   float64  `json:"embedding"`
	Description *string  `json:"description,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
}

type searchResponse struct {
	Transactions            []searchHit `json:"transactions"`
	TotalNumberOfTokensUsed int         `json:"total_number_of_tokens_used"`
}

type possibleUser struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	MatchMetric float64 `json:"match_metric"`
}

type transactionUsersResponse struct {
	TransactionID string         `json:"transaction_id"`
	Description   string         `json:"description"`
	Amount        *float64       `json:"amount"`
	PossibleUsers []possibleUser `json:"possible_users"`
	TotalMatches  int            `json:"total_matches"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func newMatchResponse(result *payermatch.MatchResult) matchResponse {
	resp := matchResponse{
		Users:                make([]matchedUser, 0, len(result.Users)),
		TotalNumberOfMatches: result.Total,
	}
	for _, u := range result.Users {
		resp.Users = append(resp.Users, matchedUser{ID: u.ID, MatchMetric: u.Score})
	}
	return resp
}

func newSearchResponse(result *payermatch.SearchResult) searchResponse {
	resp := searchResponse{
		Transactions:            make([]searchHit, 0, len(result.Transactions)),
		TotalNumberOfTokensUsed: result.TokensUsed,
	}
	for _, t := range result.Transactions {
		hit := searchHit{ID: t.ID, Embedding: t.Similarity}
		if t.HasDetails {
			desc := t.Description
			hit.Description = &desc
			hit.Amount = amountPtr(t)
		}
		resp.Transactions = append(resp.Transactions, hit)
	}
	return resp
}

func amountPtr(t core.SimilarTransaction) *float64 {
	if !t.Amount.Valid {
		return nil
	}
	f, _ := t.Amount.Decimal.Float64()
	return &f
}

func newTransactionUsersResponse(items []payermatch.TransactionUsers) []transactionUsersResponse {
	resp := make([]transactionUsersResponse, 0, len(items))
	for _, item := range items {
		entry := transactionUsersResponse{
			TransactionID: item.Transaction.ID,
			Description:   item.Transaction.Description,
			PossibleUsers: make([]possibleUser, 0, len(item.Users)),
			TotalMatches:  item.Total,
		}
		if amount, ok := item.Transaction.AmountFloat(); ok {
			entry.Amount = &amount
		}
		for _, u := range item.Users {
			entry.PossibleUsers = append(entry.PossibleUsers, possibleUser{ID: u.ID, Name: u.Name, MatchMetric: u.Score})
		}
		resp = append(resp, entry)
	}
	return resp
}
