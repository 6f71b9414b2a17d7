package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.etcd.io/bbolt"

	"supportrag/internal/domain"
)

// SchemaVersion is written into every collection's metadata.
// Increment this when making breaking changes to the storage format.
const SchemaVersion = 1

var bucketCollections = []byte("collections")

// collectionBucketPrefix keeps point buckets apart from the metadata bucket.
const collectionBucketPrefix = "points:"

// BoltIndex is a file-backed vector index. Each collection is a bucket of
// JSON-encoded points; search is brute force cosine similarity.
type BoltIndex struct {
	db *bbolt.DB
	mu sync.RWMutex
}

// CollectionInfo is the stored description of a collection.
type CollectionInfo struct {
	SchemaVersion int    `json:"schema_version"`
	VectorSize    int    `json:"vector_size"`
	Distance      string `json:"distance"`
}

type storedPoint struct {
	ID      domain.PointID `json:"id"`
	Vector  []float32      `json:"v"`
	Payload map[string]any `json:"p,omitempty"`
}

func NewBoltIndex(path string) (*BoltIndex, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCollections)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create collections bucket: %w", err)
	}

	return &BoltIndex{db: db}, nil
}

func (s *BoltIndex) Close() error {
	return s.db.Close()
}

func pointsBucket(name string) []byte {
	return []byte(collectionBucketPrefix + name)
}

func (s *BoltIndex) collectionInfo(tx *bbolt.Tx, name string) (CollectionInfo, error) {
	var info CollectionInfo
	data := tx.Bucket(bucketCollections).Get([]byte(name))
	if data == nil {
		return info, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return info, fmt.Errorf("corrupt collection info for %s: %w", name, err)
	}
	return info, nil
}

// Info returns the stored description of a collection.
func (s *BoltIndex) Info(name string) (CollectionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var info CollectionInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		info, err = s.collectionInfo(tx, name)
		return err
	})
	return info, err
}

func (s *BoltIndex) DeleteCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := s.collectionInfo(tx, name); err != nil {
			return err
		}
		if err := tx.DeleteBucket(pointsBucket(name)); err != nil && err != bbolt.ErrBucketNotFound {
			return fmt.Errorf("%w: %w", domain.ErrIndexMutation, err)
		}
		return tx.Bucket(bucketCollections).Delete([]byte(name))
	})
}

func (s *BoltIndex) CreateCollection(_ context.Context, name string, vectorSize int) error {
	if vectorSize <= 0 {
		return fmt.Errorf("%w: invalid vector size %d", domain.ErrIndexMutation, vectorSize)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketCollections)
		if meta.Get([]byte(name)) != nil {
			return fmt.Errorf("%w: collection %s already exists", domain.ErrIndexMutation, name)
		}
		if _, err := tx.CreateBucket(pointsBucket(name)); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrIndexMutation, err)
		}

		data, err := json.Marshal(CollectionInfo{
			SchemaVersion: SchemaVersion,
			VectorSize:    vectorSize,
			Distance:      "Cosine",
		})
		if err != nil {
			return err
		}
		return meta.Put([]byte(name), data)
	})
}

func (s *BoltIndex) Upsert(_ context.Context, name string, points []domain.IndexedPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bbolt.Tx) error {
		info, err := s.collectionInfo(tx, name)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrIndexMutation, err)
		}
		b := tx.Bucket(pointsBucket(name))
		if b == nil {
			return fmt.Errorf("%w: points bucket missing for %s", domain.ErrIndexMutation, name)
		}

		for _, p := range points {
			if len(p.Vector) != info.VectorSize {
				return fmt.Errorf("%w: vector dimension mismatch: expected %d, got %d",
					domain.ErrIndexMutation, info.VectorSize, len(p.Vector))
			}

			data, err := json.Marshal(storedPoint{ID: p.ID, Vector: p.Vector, Payload: p.Payload})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(p.ID.String()), data); err != nil {
				return fmt.Errorf("%w: %w", domain.ErrIndexMutation, err)
			}
		}
		return nil
	})
}

func (s *BoltIndex) Search(_ context.Context, name string, query []float32, limit int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []domain.SearchResult
	err := s.db.View(func(tx *bbolt.Tx) error {
		info, err := s.collectionInfo(tx, name)
		if err != nil {
			return err
		}
		if len(query) != info.VectorSize {
			return fmt.Errorf("query dimension mismatch: expected %d, got %d", info.VectorSize, len(query))
		}

		b := tx.Bucket(pointsBucket(name))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var p storedPoint
			if err := json.Unmarshal(v, &p); err != nil {
				return nil // Skip corrupted entries
			}
			results = append(results, domain.SearchResult{
				ID:      p.ID,
				Score:   CosineSimilarity(query, p.Vector),
				Payload: p.Payload,
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return TopK(results, limit), nil
}

func (s *BoltIndex) Count(_ context.Context, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		if _, err := s.collectionInfo(tx, name); err != nil {
			return err
		}
		if b := tx.Bucket(pointsBucket(name)); b != nil {
			count = b.Stats().KeyN
		}
		return nil
	})
	return count, err
}
