package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportrag/internal/adapter/analyzer"
	"supportrag/internal/domain"
)

func newChunker(maxTokens int) *SentenceChunker {
	return NewSentenceChunker(maxTokens, analyzer.NewTokenizer())
}

func TestChunkText_PacksSentences(t *testing.T) {
	c := newChunker(7)

	chunks := c.ChunkText("a b c. d e f. g h i. j k l")
	assert.Equal(t, []string{"a b c. d e f.", "g h i. j k l."}, chunks)
}

func TestChunkText_OversizedSentenceStandsAlone(t *testing.T) {
	c := newChunker(2)

	chunks := c.ChunkText("a b c. d")
	require.Len(t, chunks, 2)
	assert.Equal(t, "a b c.", chunks[0])
	assert.Equal(t, "d.", chunks[1])
}

func TestChunkText_Empty(t *testing.T) {
	c := newChunker(10)
	assert.Empty(t, c.ChunkText(""))
	assert.Empty(t, c.ChunkText("   "))
}

func TestChunkText_TokenBound(t *testing.T) {
	tok := analyzer.NewTokenizer()
	c := NewSentenceChunker(12, tok)

	var sentences []string
	for i := 0; i < 40; i++ {
		sentences = append(sentences, strings.Repeat("word ", i%5+1)+"end")
	}
	text := strings.Join(sentences, ". ")

	chunks := c.ChunkText(text)
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, tok.CountTokens(chunk), 12, chunk)
	}
}

func TestChunkText_ReconstructsSentences(t *testing.T) {
	c := newChunker(5)
	text := "Install the agent. Open the console. Ends with a dot. Restart the service"

	var got []string
	for _, chunk := range c.ChunkText(text) {
		require.True(t, strings.HasSuffix(chunk, "."))
		got = append(got, strings.Split(strings.TrimSuffix(chunk, "."), ". ")...)
	}
	assert.Equal(t, strings.Split(text, ". "), got)
}

func TestChunk_GroupsAndMetadata(t *testing.T) {
	c := newChunker(8191)
	doc := domain.DecomposedDocument{
		LocalPath:     "downloaded_pdfs/guide.pdf",
		SourcePageURL: "https://example.test/en/guide",
		AssetURL:      "https://example.test/files/guide.pdf",
		Content: domain.DocumentContent{
			FullText: "Setup. Install the agent",
			Sections: []domain.Section{
				{Header: "", Content: []string{"orphan"}},
				{Header: "Setup", Content: []string{"Install the agent"}},
				{Header: "Empty"},
			},
		},
		Metadata: domain.DocumentMetadata{ProcessingTime: "0.10s"},
	}

	chunks := c.Chunk(doc)
	require.Len(t, chunks, 2)

	full := chunks[0]
	assert.Equal(t, "Setup. Install the agent.", full.Text)
	assert.Equal(t, domain.ChunkTypeFullText, full.Metadata.ChunkType)
	assert.Equal(t, "guide.pdf", full.Metadata.Filename)
	assert.Equal(t, 3, full.Metadata.TotalSections)
	assert.Equal(t, 4, full.Metadata.TotalWords)
	assert.Equal(t, 0, full.Metadata.ChunkIndex)
	assert.Equal(t, 1, full.Metadata.TotalChunks)
	assert.Nil(t, full.Metadata.SectionIndex)

	section := chunks[1]
	assert.Equal(t, "Setup: Install the agent.", section.Text)
	assert.Equal(t, domain.ChunkTypeSection, section.Metadata.ChunkType)
	assert.Equal(t, "Setup", section.Metadata.SectionHeader)
	require.NotNil(t, section.Metadata.SectionIndex)
	assert.Equal(t, 1, *section.Metadata.SectionIndex)
	assert.Equal(t, 4, section.Metadata.ChunkWords)
	assert.Equal(t, doc.AssetURL, section.Metadata.PDFURL)
}

func TestChunk_GroupIndicesAreContiguous(t *testing.T) {
	c := newChunker(3)
	doc := domain.DecomposedDocument{
		LocalPath: "a.pdf",
		Content: domain.DocumentContent{
			FullText: "one two. three four. five six",
		},
	}

	chunks := c.Chunk(doc)
	require.Len(t, chunks, 3)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Metadata.ChunkIndex)
		assert.Equal(t, 3, chunk.Metadata.TotalChunks)
	}
}
