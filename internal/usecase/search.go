package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"supportrag/internal/adapter/retriever"
	"supportrag/internal/domain"
	"supportrag/internal/port"
)

// SearchUseCase answers a question with the closest indexed chunks.
type SearchUseCase struct {
	embedder          port.Embedder
	index             port.VectorIndex
	collection        string
	mmrReranker       *retriever.MMRReranker
	minScoreThreshold float64 // Filter results below this score (0 = disabled)
}

// NewSearchUseCase creates a new search use case. A nil reranker keeps the
// index order.
func NewSearchUseCase(
	embedder port.Embedder,
	index port.VectorIndex,
	collection string,
	mmrReranker *retriever.MMRReranker,
	minScoreThreshold float64,
) *SearchUseCase {
	return &SearchUseCase{
		embedder:          embedder,
		index:             index,
		collection:        collection,
		mmrReranker:       mmrReranker,
		minScoreThreshold: minScoreThreshold,
	}
}

// Search embeds the query and returns up to limit diversified hits.
func (u *SearchUseCase) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("empty query")
	}
	if limit <= 0 {
		limit = 5
	}

	vectors, err := u.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: got %d vectors for the query", domain.ErrEmbedding, len(vectors))
	}

	fetch := limit
	if u.mmrReranker != nil {
		fetch = limit * 2
	}
	candidates, err := u.index.Search(ctx, u.collection, vectors[0], fetch)
	if err != nil {
		return nil, fmt.Errorf("failed to search collection %s: %w", u.collection, err)
	}

	if u.minScoreThreshold > 0 {
		candidates = u.filterByThreshold(candidates)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	if u.mmrReranker != nil {
		return u.mmrReranker.Rerank(candidates, limit), nil
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// filterByThreshold removes results below the minimum score threshold.
func (u *SearchUseCase) filterByThreshold(results []domain.SearchResult) []domain.SearchResult {
	filtered := make([]domain.SearchResult, 0, len(results))
	for _, r := range results {
		if r.Score >= u.minScoreThreshold {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
