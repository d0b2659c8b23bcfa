// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package payermatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/payermatch/ai"
	"github.com/poiesic/payermatch/ai/openai"
	"github.com/poiesic/payermatch/core"
	"github.com/poiesic/payermatch/ingestion"
	"github.com/poiesic/payermatch/matching"
	"github.com/poiesic/payermatch/search"
	"github.com/poiesic/payermatch/storage"
	"github.com/poiesic/payermatch/storage/badger"
	"github.com/poiesic/payermatch/warmup"
)

// MatchResult lists the users a single transaction plausibly came from.
type MatchResult struct {
	Users []core.UserMatch
	Total int
}

// TransactionUsers pairs a transaction with its plausible users.
type TransactionUsers struct {
	Transaction core.Transaction
	Users       []core.UserMatch
	Total       int
}

// SearchParams controls a semantic search.
type SearchParams struct {
	Threshold          float64 // minimum cosine similarity, 0 to 1
	Limit              int     // 1 to 100
	Preprocess         bool
	IncludeDescription bool
}

// DefaultSearchParams returns the parameters used when a caller sets none.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Threshold:          search.DefaultThreshold,
		Limit:              20,
		Preprocess:         true,
		IncludeDescription: true,
	}
}

// SearchResult holds semantic search hits and the tokens spent finding them.
type SearchResult struct {
	Transactions []core.SimilarTransaction
	TokensUsed   int
}

// Service answers matching and search queries over an imported data set.
// Records are snapshotted on Open; the service is safe for concurrent use.
type Service struct {
	backend      *badger.Backend
	users        storage.UserRepository
	transactions storage.TransactionRepository
	provider     ai.AIProvider
	matcher      *matching.UserMatcher
	engine       *search.Engine
	pool         *ants.Pool
	logger       *slog.Logger

	// snapshot used for semantic search and batch matching
	txnByID map[string]core.Transaction
	txnIDs  []string

	closeOnce sync.Once
}

// Open creates a Service: it opens the record store, imports the configured
// data, and prepares the matcher and search engine.
func Open(ctx context.Context, opts ...Option) (*Service, error) {
	o := defaultOptions()

	// Apply options
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	logger := o.logger.With("component", "service")

	backend, err := badger.OpenBackend(o.dbPath, o.dbPath == "")
	if err != nil {
		return nil, err
	}

	s := &Service{
		backend:      backend,
		users:        badger.NewUserRepository(backend),
		transactions: badger.NewTransactionRepository(backend),
		logger:       logger,
	}

	if err := s.init(ctx, o); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Service) init(ctx context.Context, o *options) error {
	importer, err := ingestion.NewImporter(s.users, s.transactions, ingestion.WithLogger(o.logger))
	if err != nil {
		return err
	}
	switch {
	case o.haveRecords:
		if _, err := importer.ImportRecords(ctx, o.users, o.transactions); err != nil {
			return err
		}
	case o.usersPath != "" || o.transactionsPath != "":
		if _, err := importer.Import(ctx, o.usersPath, o.transactionsPath); err != nil {
			return err
		}
	}

	s.provider = o.provider
	if s.provider == nil {
		if s.provider, err = openai.NewProvider(o.aiConfig); err != nil {
			return fmt.Errorf("creating AI provider: %w", err)
		}
	}

	users, err := s.users.AllUsers(ctx)
	if err != nil {
		return err
	}
	byID := make(map[string]core.User, len(users))
	for _, u := range users {
		byID[u.ID] = *u
	}
	matcherOpts := []matching.Option{matching.WithLogger(o.logger)}
	if o.weights != nil {
		matcherOpts = append(matcherOpts, matching.WithWeights(*o.weights))
	}
	if s.matcher, err = matching.NewUserMatcher(byID, matcherOpts...); err != nil {
		return err
	}

	s.engine, err = search.NewEngine(s.provider,
		search.WithLogger(o.logger),
		search.WithCacheCapacity(o.cacheCapacity),
		search.WithPoolSize(o.poolSize),
	)
	if err != nil {
		return err
	}

	if s.pool, err = ants.NewPool(o.poolSize); err != nil {
		return err
	}

	txns, err := s.transactions.AllTransactions(ctx)
	if err != nil {
		return err
	}
	s.txnByID = make(map[string]core.Transaction, len(txns))
	s.txnIDs = make([]string, 0, len(txns))
	for _, t := range txns {
		s.txnByID[t.ID] = *t
		s.txnIDs = append(s.txnIDs, t.ID)
	}
	slices.Sort(s.txnIDs)

	s.logger.Info("service ready",
		"users", len(users),
		"transactions", len(txns),
		"dimensions", s.engine.Dimensions())
	return nil
}

// MatchTransaction returns the users whose names match the description of
// the transaction with the given ID at or above threshold (0 to 100).
// Unknown IDs return an error wrapping storage.ErrNotFound.
func (s *Service) MatchTransaction(ctx context.Context, id string, threshold float64) (*MatchResult, error) {
	if err := core.ValidateMatchThreshold(threshold); err != nil {
		return nil, err
	}

	txn, err := s.transactions.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	users := s.matcher.FindMatchingUsers(txn.Description, threshold)
	return &MatchResult{Users: users, Total: len(users)}, nil
}

// TransactionsWithUsers matches every transaction that has a description
// and returns them ordered by transaction ID.
func (s *Service) TransactionsWithUsers(ctx context.Context, threshold float64) ([]TransactionUsers, error) {
	if err := core.ValidateMatchThreshold(threshold); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(s.txnIDs))
	for _, id := range s.txnIDs {
		if strings.TrimSpace(s.txnByID[id].Description) != "" {
			ids = append(ids, id)
		}
	}

	results := make([]TransactionUsers, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			txn := s.txnByID[id]
			users := s.matcher.FindMatchingUsers(txn.Description, threshold)
			results[i] = TransactionUsers{Transaction: txn, Users: users, Total: len(users)}
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, err
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.logger.Debug("matched all transactions", "transactions", len(results), "threshold", threshold)
	return results, nil
}

// SemanticSearch finds transactions whose descriptions are semantically
// similar to query.
func (s *Service) SemanticSearch(ctx context.Context, query string, params SearchParams) (*SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if err := core.ValidateSimilarityThreshold(params.Threshold); err != nil {
		return nil, err
	}
	if params.Limit < 1 || params.Limit > 100 {
		return nil, ErrInvalidLimit
	}

	hits, tokens, err := s.engine.FindSimilarTransactions(ctx, query, s.txnByID, search.SearchOptions{
		Threshold:          params.Threshold,
		IncludeDescription: params.IncludeDescription,
		Preprocess:         params.Preprocess,
		Limit:              params.Limit,
	})
	if err != nil {
		return nil, err
	}
	return &SearchResult{Transactions: hits, TokensUsed: tokens}, nil
}

// WarmCache embeds every stored description so later searches hit the
// cache. Progress is written to progress when it is not nil.
func (s *Service) WarmCache(ctx context.Context, config *warmup.Config, progress io.Writer) (warmup.Result, error) {
	warmer, err := warmup.NewWarmer(s.transactions, s.engine, config, progress, warmup.WithLogger(s.logger))
	if err != nil {
		return warmup.Result{}, err
	}
	return warmer.Run(ctx)
}

// CacheStats returns the embedding cache counters.
func (s *Service) CacheStats() search.CacheStats {
	return s.engine.CacheStats()
}

// Counts returns the number of imported users and transactions.
func (s *Service) Counts(ctx context.Context) (users, transactions int, err error) {
	if users, err = s.users.CountUsers(ctx); err != nil {
		return 0, 0, err
	}
	if transactions, err = s.transactions.CountTransactions(ctx); err != nil {
		return 0, 0, err
	}
	return users, transactions, nil
}

// Close releases the worker pools, the AI provider and the record store.
func (s *Service) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		if s.pool != nil {
			s.pool.Release()
		}
		if s.engine != nil {
			s.engine.Close()
		}
		if s.provider != nil {
			if err := s.provider.Close(); err != nil {
				s.logger.Error("error closing AI provider", "err", err)
			}
		}
		if err := s.users.Close(); err != nil {
			s.logger.Error("error closing user repository", "err", err)
		}
		if err := s.transactions.Close(); err != nil {
			s.logger.Error("error closing transaction repository", "err", err)
		}
		if err := s.backend.Close(); err != nil {
			s.logger.Error("error closing backend storage", "err", err)
			closeErr = err
		}
	})
	return closeErr
}
