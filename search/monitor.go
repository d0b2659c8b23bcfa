package search

import "github.com/poiesic/payermatch/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
// Hooks may be called from multiple goroutines.
type SearchMonitor interface {
	Start(query string)
	AfterQueryEmbedding(tokens int)
	TransactionScored(id string, similarity float64)
	Finish(results []core.SimilarTransaction, tokens int)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                            {}
func (n *noopMonitor) AfterQueryEmbedding(_ int)                 {}
func (n *noopMonitor) TransactionScored(_ string, _ float64)     {}
func (n *noopMonitor) Finish(_ []core.SimilarTransaction, _ int) {}
