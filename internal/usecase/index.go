package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"supportrag/config"
	"supportrag/internal/domain"
	"supportrag/internal/logger"
	"supportrag/internal/port"
)

// pointNamespace seeds deterministic point ids.
var pointNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("supportrag/points"))

// IndexProgressFunc is called after every batch.
type IndexProgressFunc func(processed, total int)

// IndexUseCase rebuilds the vector collection from decomposed documents.
type IndexUseCase struct {
	embedder   port.Embedder
	index      port.VectorIndex
	chunker    port.Chunker
	collection string
	batchSize  int
	idStrategy string
	log        *logger.Logger
}

// IndexOptions configures an IndexUseCase.
type IndexOptions struct {
	Collection string
	BatchSize  int
	IDStrategy string // config.IDStrategySequential or config.IDStrategyDeterministic
}

// NewIndexUseCase creates a new index use case.
func NewIndexUseCase(
	embedder port.Embedder,
	index port.VectorIndex,
	chunker port.Chunker,
	opts IndexOptions,
	log *logger.Logger,
) *IndexUseCase {
	if log == nil {
		log = logger.Nop()
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	idStrategy := opts.IDStrategy
	if idStrategy == "" {
		idStrategy = config.IDStrategySequential
	}
	return &IndexUseCase{
		embedder:   embedder,
		index:      index,
		chunker:    chunker,
		collection: opts.Collection,
		batchSize:  batchSize,
		idStrategy: idStrategy,
		log:        log,
	}
}

// IndexResult contains the results of an indexing operation.
type IndexResult struct {
	Documents      int
	ChunksCreated  int
	PointsIndexed  int
	BatchesSkipped int
	ChunksSkipped  int
}

// RebuildCollection drops the collection if it exists and creates it empty.
func (u *IndexUseCase) RebuildCollection(ctx context.Context) error {
	err := u.index.DeleteCollection(ctx, u.collection)
	switch {
	case err == nil:
		u.log.Info("deleted collection", "collection", u.collection)
	case errors.Is(err, domain.ErrCollectionNotFound):
		u.log.Debug("collection did not exist", "collection", u.collection)
	default:
		return fmt.Errorf("failed to delete collection: %w", err)
	}

	if err := u.index.CreateCollection(ctx, u.collection, u.embedder.Dimension()); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	u.log.Info("created collection", "collection", u.collection, "dimension", u.embedder.Dimension())
	return nil
}

// ChunkAll chunks every document of the batch in local path order.
func (u *IndexUseCase) ChunkAll(batch domain.ProcessedBatch) []domain.Chunk {
	paths := make([]string, 0, len(batch.Documents))
	for path := range batch.Documents {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var chunks []domain.Chunk
	for _, path := range paths {
		chunks = append(chunks, u.chunker.Chunk(batch.Documents[path])...)
	}
	return chunks
}

// BuildIndex embeds chunks batch by batch and upserts them. A batch whose
// embedding fails is logged and skipped; an upsert failure aborts the run.
func (u *IndexUseCase) BuildIndex(ctx context.Context, chunks []domain.Chunk, progress IndexProgressFunc) (*IndexResult, error) {
	result := &IndexResult{ChunksCreated: len(chunks)}

	for start := 0; start < len(chunks); start += u.batchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		end := start + u.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := u.embedder.Embed(ctx, texts)
		if err == nil && len(vectors) != len(batch) {
			err = fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrEmbedding, len(vectors), len(batch))
		}
		if err != nil {
			u.log.Warn("skipping batch after embedding failure", "offset", start, "size", len(batch), "error", err)
			result.BatchesSkipped++
			result.ChunksSkipped += len(batch)
			if progress != nil {
				progress(end, len(chunks))
			}
			continue
		}

		points := make([]domain.IndexedPoint, len(batch))
		for i, c := range batch {
			payload, err := c.Payload()
			if err != nil {
				return result, fmt.Errorf("failed to build payload: %w", err)
			}
			points[i] = domain.IndexedPoint{
				ID:      u.pointID(start+i, c),
				Vector:  vectors[i],
				Payload: payload,
			}
		}

		if err := u.index.Upsert(ctx, u.collection, points); err != nil {
			return result, fmt.Errorf("failed to upsert batch at offset %d: %w", start, err)
		}
		result.PointsIndexed += len(points)
		u.log.Debug("indexed batch", "offset", start, "size", len(points))

		if progress != nil {
			progress(end, len(chunks))
		}
	}

	return result, nil
}

func (u *IndexUseCase) pointID(seq int, c domain.Chunk) domain.PointID {
	if u.idStrategy == config.IDStrategyDeterministic {
		return domain.UUIDPointID(DeterministicPointID(c).String())
	}
	return domain.NumericID(uint64(seq))
}

// DeterministicPointID derives a stable UUIDv5 from a chunk's position in
// its document, so re-indexing the same documents yields the same ids.
func DeterministicPointID(c domain.Chunk) uuid.UUID {
	section := -1
	if c.Metadata.SectionIndex != nil {
		section = *c.Metadata.SectionIndex
	}
	name := fmt.Sprintf("%s|%s|%d|%d", c.Metadata.LocalPath, c.Metadata.ChunkType, section, c.Metadata.ChunkIndex)
	return uuid.NewSHA1(pointNamespace, []byte(name))
}

// Run rebuilds the collection and indexes every chunk of the batch.
func (u *IndexUseCase) Run(ctx context.Context, batch domain.ProcessedBatch, progress IndexProgressFunc) (*IndexResult, error) {
	if err := u.RebuildCollection(ctx); err != nil {
		return nil, err
	}

	chunks := u.ChunkAll(batch)
	u.log.Info("chunked documents", "documents", len(batch.Documents), "chunks", len(chunks))

	result, err := u.BuildIndex(ctx, chunks, progress)
	if result != nil {
		result.Documents = len(batch.Documents)
	}
	if err != nil {
		return result, err
	}
	u.log.Info("index complete", "points", result.PointsIndexed, "skipped_batches", result.BatchesSkipped)
	return result, nil
}
