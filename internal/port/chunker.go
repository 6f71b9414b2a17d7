package port

import "supportrag/internal/domain"

type Chunker interface {
	Chunk(doc domain.DecomposedDocument) []domain.Chunk
}
