package domain

import "errors"

var (
	// ErrAuthentication aborts the run before any crawl or fetch.
	ErrAuthentication = errors.New("authentication failed")
	// ErrFetch is a transient network failure for a single URL or asset.
	ErrFetch = errors.New("fetch failed")
	// ErrConversion is a failed document conversion.
	ErrConversion = errors.New("conversion failed")
	// ErrEmbedding is a failed embedding request for one batch.
	ErrEmbedding = errors.New("embedding failed")
	// ErrIndexMutation is a failed create/delete/upsert against the vector index.
	ErrIndexMutation = errors.New("index mutation failed")
	// ErrCollectionNotFound is returned when deleting or searching a missing collection.
	ErrCollectionNotFound = errors.New("collection not found")
)
