package memstore

import (
	"context"
	"fmt"
	"sync"

	"supportrag/internal/adapter/store"
	"supportrag/internal/domain"
)

type collection struct {
	vectorSize int
	points     map[string]domain.IndexedPoint
}

// MemoryIndex is an in-process vector index.
type MemoryIndex struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		collections: make(map[string]*collection),
	}
}

func (s *MemoryIndex) DeleteCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	delete(s.collections, name)
	return nil
}

func (s *MemoryIndex) CreateCollection(_ context.Context, name string, vectorSize int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if vectorSize <= 0 {
		return fmt.Errorf("%w: invalid vector size %d", domain.ErrIndexMutation, vectorSize)
	}
	if _, ok := s.collections[name]; ok {
		return fmt.Errorf("%w: collection %s already exists", domain.ErrIndexMutation, name)
	}
	s.collections[name] = &collection{
		vectorSize: vectorSize,
		points:     make(map[string]domain.IndexedPoint),
	}
	return nil
}

func (s *MemoryIndex) Upsert(_ context.Context, name string, points []domain.IndexedPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("%w: %w: %s", domain.ErrIndexMutation, domain.ErrCollectionNotFound, name)
	}
	for _, p := range points {
		if len(p.Vector) != c.vectorSize {
			return fmt.Errorf("%w: vector dimension mismatch: expected %d, got %d",
				domain.ErrIndexMutation, c.vectorSize, len(p.Vector))
		}
	}
	for _, p := range points {
		c.points[p.ID.String()] = p
	}
	return nil
}

func (s *MemoryIndex) Search(_ context.Context, name string, query []float32, limit int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}

	results := make([]domain.SearchResult, 0, len(c.points))
	for _, p := range c.points {
		results = append(results, domain.SearchResult{
			ID:      p.ID,
			Score:   store.CosineSimilarity(query, p.Vector),
			Payload: p.Payload,
		})
	}
	return store.TopK(results, limit), nil
}

func (s *MemoryIndex) Count(_ context.Context, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	return len(c.points), nil
}

// Points returns a copy of every point in a collection, for inspection.
func (s *MemoryIndex) Points(name string) []domain.IndexedPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil
	}
	points := make([]domain.IndexedPoint, 0, len(c.points))
	for _, p := range c.points {
		points = append(points, p)
	}
	return points
}
