package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
)

// Searcher runs semantic queries over the indexed corpus: the query is
// embedded with the same model as the indexed nodes, matched against the
// vector store, and the hits are hydrated into full nodes from the document
// store.
type Searcher struct {
	docs     storage.DocumentStore
	vectors  storage.VectorStore
	embedder ai.Embedder
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	docs storage.DocumentStore,
	vectors storage.VectorStore,
	embedder ai.Embedder,
	opts ...Option,
) (*Searcher, error) {
	if docs == nil {
		return nil, ErrDocumentStoreRequired
	}
	if vectors == nil {
		return nil, ErrVectorStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		docs:     docs,
		vectors:  vectors,
		embedder: embedder,
		logger:   slog.Default().With("component", "searcher"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Query returns up to topK nodes most similar to the query text, ranked by
// descending similarity score.
func (s *Searcher) Query(ctx context.Context, query string, topK int) ([]*core.ScoredNode, error) {
	return s.QueryWithMonitor(ctx, query, topK, nil)
}

// QueryWithMonitor runs a query with monitoring. The monitor receives
// callbacks at each stage of the search process.
func (s *Searcher) QueryWithMonitor(ctx context.Context, query string, topK int, monitor SearchMonitor) ([]*core.ScoredNode, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if topK <= 0 {
		return nil, ErrInvalidTopK
	}

	monitor.Start(query)

	// Queries embed through the same model and normalization as indexed
	// nodes so scores are comparable.
	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}
	embedding = ai.NormalizeVector(embedding)
	monitor.AfterQueryEmbedding(embedding)

	matches, err := s.vectors.Search(ctx, embedding, topK)
	if err != nil {
		s.logger.Error("error querying vector store", "err", err)
		return nil, err
	}

	ids := make([]uint64, 0, len(matches))
	scores := make([]float32, 0, len(matches))
	scoreByID := make(map[core.ID]float32, len(matches))
	orderedIDs := make([]core.ID, 0, len(matches))
	for _, match := range matches {
		ids = append(ids, uint64(match.Id))
		scores = append(scores, match.Score)
		scoreByID[match.Id] = match.Score
		orderedIDs = append(orderedIDs, match.Id)
	}
	monitor.AfterVectorSearch(ids, scores)

	if len(orderedIDs) == 0 {
		return []*core.ScoredNode{}, nil
	}

	nodes, err := s.docs.GetNodes(ctx, orderedIDs...)
	if err != nil {
		s.logger.Error("error retrieving nodes", "count", len(orderedIDs), "err", err)
		return nil, err
	}
	monitor.AfterNodeRetrieval(nodes)

	// A vector hit with no document-store counterpart is a store asymmetry;
	// skip it rather than fail the query, and let startup reconciliation
	// clean it up.
	found := make(map[core.ID]*core.Node, len(nodes))
	for _, node := range nodes {
		found[node.Id] = node
	}

	results := make([]*core.ScoredNode, 0, len(orderedIDs))
	for _, id := range orderedIDs {
		node, ok := found[id]
		if !ok {
			s.logger.Warn("vector match has no document record, skipping", "id", id)
			monitor.DroppedStaleMatch(uint64(id))
			continue
		}
		results = append(results, &core.ScoredNode{Node: node, Score: scoreByID[id]})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	monitor.Finish(results)
	return results, nil
}
