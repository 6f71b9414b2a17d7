package chunker

import (
	"path/filepath"
	"strings"

	"supportrag/internal/adapter/analyzer"
	"supportrag/internal/domain"
	"supportrag/internal/port"
)

// sentenceSep is the literal delimiter text is split on. Abbreviations and
// decimals followed by a space are split too.
const sentenceSep = ". "

// SentenceChunker packs ". "-separated sentences into chunks that stay within
// a token budget.
type SentenceChunker struct {
	maxTokens int
	tokenizer port.Tokenizer
}

func NewSentenceChunker(maxTokens int, tokenizer port.Tokenizer) *SentenceChunker {
	return &SentenceChunker{
		maxTokens: maxTokens,
		tokenizer: tokenizer,
	}
}

// ChunkText greedily accumulates sentences until the next one would push the
// chunk past maxTokens, then closes the chunk by joining its sentences with
// ". " and appending ".". A sentence that alone exceeds the budget becomes
// its own oversized chunk. Empty text yields no chunks.
func (c *SentenceChunker) ChunkText(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []string
	var current []string
	currentTokens := 0

	for _, sentence := range strings.Split(text, sentenceSep) {
		// the joiner is counted with its sentence so the running total
		// bounds the token count of the joined chunk
		tokens := c.tokenizer.CountTokens(sentence + sentenceSep)

		if len(current) > 0 && currentTokens+tokens > c.maxTokens {
			chunks = append(chunks, joinSentences(current))
			current = []string{sentence}
			currentTokens = tokens
			continue
		}
		current = append(current, sentence)
		currentTokens += tokens
	}

	if len(current) > 0 {
		chunks = append(chunks, joinSentences(current))
	}
	return chunks
}

func joinSentences(sentences []string) string {
	return strings.Join(sentences, sentenceSep) + "."
}

// Chunk produces the full_text group followed by one group per section that
// has both a header and content.
func (c *SentenceChunker) Chunk(doc domain.DecomposedDocument) []domain.Chunk {
	base := domain.ChunkMetadata{
		SourceURL:      doc.SourcePageURL,
		PDFURL:         doc.AssetURL,
		Filename:       filepath.Base(doc.LocalPath),
		LocalPath:      doc.LocalPath,
		TotalSections:  len(doc.Content.Sections),
		TotalWords:     analyzer.WordCount(doc.Content.FullText),
		DocMetadata:    doc.Metadata.DocMetadata,
		ProcessingTime: doc.Metadata.ProcessingTime,
	}

	var chunks []domain.Chunk
	chunks = c.appendGroup(chunks, base, domain.ChunkTypeFullText, c.ChunkText(doc.Content.FullText))

	for i, section := range doc.Content.Sections {
		if section.Header == "" || len(section.Content) == 0 {
			continue
		}
		text := section.Header + ": " + strings.Join(section.Content, " ")

		meta := base
		meta.SectionHeader = section.Header
		idx := i
		meta.SectionIndex = &idx
		chunks = c.appendGroup(chunks, meta, domain.ChunkTypeSection, c.ChunkText(text))
	}
	return chunks
}

func (c *SentenceChunker) appendGroup(chunks []domain.Chunk, base domain.ChunkMetadata, chunkType string, texts []string) []domain.Chunk {
	for i, text := range texts {
		meta := base
		meta.ChunkType = chunkType
		meta.ChunkIndex = i
		meta.TotalChunks = len(texts)
		meta.ChunkWords = analyzer.WordCount(text)
		meta.ChunkTokens = c.tokenizer.CountTokens(text)
		chunks = append(chunks, domain.Chunk{Text: text, Metadata: meta})
	}
	return chunks
}
