package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"supportrag/internal/domain"
	"supportrag/internal/port"
)

// fakeConverter returns canned blocks per path.
type fakeConverter struct {
	mu     sync.Mutex
	docs   map[string][]domain.Block
	calls  int
	active int
	peak   int
}

func newFakeConverter() *fakeConverter {
	return &fakeConverter{docs: make(map[string][]domain.Block)}
}

func (c *fakeConverter) Convert(ctx context.Context, path string) (domain.ConvertedDocument, error) {
	c.mu.Lock()
	c.calls++
	c.active++
	if c.active > c.peak {
		c.peak = c.active
	}
	blocks, ok := c.docs[path]
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.active--
		c.mu.Unlock()
	}()

	if !ok {
		return domain.ConvertedDocument{}, fmt.Errorf("%w: unreadable %s", domain.ErrConversion, path)
	}
	return domain.ConvertedDocument{
		SchemaName: "SupportDocument",
		Version:    "1.0.0",
		Name:       path,
		Blocks:     blocks,
	}, nil
}

// flakyEmbedder fails the listed call numbers (1-based).
type flakyEmbedder struct {
	port.Embedder
	failOn map[int]bool
	calls  int
}

func (e *flakyEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.failOn[e.calls] {
		return nil, fmt.Errorf("%w: provider unavailable", domain.ErrEmbedding)
	}
	return e.Embedder.Embed(ctx, texts)
}

// failingUpsertIndex rejects every upsert after the first n.
type failingUpsertIndex struct {
	port.VectorIndex
	allowed int
	upserts int
}

var errUpsertRejected = errors.New("upsert rejected")

func (x *failingUpsertIndex) Upsert(ctx context.Context, name string, points []domain.IndexedPoint) error {
	x.upserts++
	if x.upserts > x.allowed {
		return fmt.Errorf("%w: %w", domain.ErrIndexMutation, errUpsertRejected)
	}
	return x.VectorIndex.Upsert(ctx, name, points)
}
