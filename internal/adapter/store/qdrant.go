package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"supportrag/internal/domain"
)

// QdrantIndex is a minimal REST client to Qdrant.
type QdrantIndex struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type QdrantConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

func NewQdrantIndex(cfg QdrantConfig) *QdrantIndex {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &QdrantIndex{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type qdrantStatusError struct {
	method string
	path   string
	status int
	body   string
}

func (e *qdrantStatusError) Error() string {
	return fmt.Sprintf("qdrant %s %s failed: status %d: %s", e.method, e.path, e.status, e.body)
}

func isNotFound(err error) bool {
	var se *qdrantStatusError
	return errors.As(err, &se) && se.status == http.StatusNotFound
}

func (q *QdrantIndex) collectionPath(name string) string {
	return "/collections/" + url.PathEscape(name)
}

func (q *QdrantIndex) DeleteCollection(ctx context.Context, name string) error {
	err := q.do(ctx, http.MethodDelete, q.collectionPath(name), nil, nil)
	if isNotFound(err) {
		return fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("%w: delete collection %s: %w", domain.ErrIndexMutation, name, err)
	}
	return nil
}

func (q *QdrantIndex) CreateCollection(ctx context.Context, name string, vectorSize int) error {
	if vectorSize <= 0 {
		return fmt.Errorf("%w: invalid vector size %d", domain.ErrIndexMutation, vectorSize)
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}
	if err := q.do(ctx, http.MethodPut, q.collectionPath(name), body, nil); err != nil {
		return fmt.Errorf("%w: create collection %s: %w", domain.ErrIndexMutation, name, err)
	}
	return nil
}

func (q *QdrantIndex) Upsert(ctx context.Context, name string, points []domain.IndexedPoint) error {
	if len(points) == 0 {
		return nil
	}
	body := map[string]any{"points": points}
	if err := q.do(ctx, http.MethodPut, q.collectionPath(name)+"/points?wait=true", body, nil); err != nil {
		return fmt.Errorf("%w: upsert %d points: %w", domain.ErrIndexMutation, len(points), err)
	}
	return nil
}

func (q *QdrantIndex) Search(ctx context.Context, name string, query []float32, limit int) ([]domain.SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}
	req := map[string]any{
		"vector":       query,
		"limit":        limit,
		"with_payload": true,
	}
	var resp struct {
		Result []domain.SearchResult `json:"result"`
	}
	if err := q.do(ctx, http.MethodPost, q.collectionPath(name)+"/points/search", req, &resp); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
		}
		return nil, err
	}
	return resp.Result, nil
}

func (q *QdrantIndex) Count(ctx context.Context, name string) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := q.do(ctx, http.MethodPost, q.collectionPath(name)+"/points/count", map[string]any{"exact": true}, &resp); err != nil {
		if isNotFound(err) {
			return 0, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
		}
		return 0, err
	}
	return resp.Result.Count, nil
}

func (q *QdrantIndex) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, q.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &qdrantStatusError{method: method, path: path, status: resp.StatusCode, body: string(data)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
