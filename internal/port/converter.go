package port

import (
	"context"

	"supportrag/internal/domain"
)

// DocumentConverter turns a local file into ordered, labeled text blocks.
type DocumentConverter interface {
	Convert(ctx context.Context, path string) (domain.ConvertedDocument, error)
}
