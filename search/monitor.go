package search

import "github.com/poiesic/corpus/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterQueryEmbedding(vector []float32)
	AfterVectorSearch(ids []uint64, scores []float32)
	AfterNodeRetrieval(nodes []*core.Node)
	DroppedStaleMatch(id uint64)
	Finish(results []*core.ScoredNode)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                          {}
func (n *noopMonitor) AfterQueryEmbedding(_ []float32)         {}
func (n *noopMonitor) AfterVectorSearch(_ []uint64, _ []float32) {}
func (n *noopMonitor) AfterNodeRetrieval(_ []*core.Node)       {}
func (n *noopMonitor) DroppedStaleMatch(_ uint64)              {}
func (n *noopMonitor) Finish(_ []*core.ScoredNode)             {}
