package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportrag/internal/adapter/fs"
	"supportrag/internal/adapter/store"
	"supportrag/internal/domain"
)

func header(text string) domain.Block {
	return domain.Block{Label: domain.LabelSectionHeader, Text: text}
}
func text(t string) domain.Block { return domain.Block{Label: domain.LabelText, Text: t} }

func TestBuildContent_Sections(t *testing.T) {
	blocks := []domain.Block{
		{Label: domain.LabelTitle, Text: "Guide"},
		text("intro"),
		header("Install"),
		text("download"),
		{Label: domain.LabelListItem, Text: "run it"},
		header("Empty"),
		header("Configure"),
		text("edit the file"),
	}

	content := BuildContent(blocks)

	assert.Equal(t, "Guide intro Install download run it Empty Configure edit the file", content.FullText)
	assert.Len(t, content.RawTexts, len(blocks))
	assert.Equal(t, []domain.Section{
		{Header: "Install", Content: []string{"download", "run it"}},
		{Header: "Empty", Content: []string{}},
		{Header: "Configure", Content: []string{"edit the file"}},
	}, content.Sections)

	// every non-header block after the first header lands in exactly one section
	count := 0
	for _, s := range content.Sections {
		count += len(s.Content)
	}
	assert.Equal(t, 3, count)
}

func TestBuildContent_NoHeaders(t *testing.T) {
	content := BuildContent([]domain.Block{text("one"), text("two")})
	assert.Empty(t, content.Sections)
	assert.Equal(t, "one two", content.FullText)

	empty := BuildContent(nil)
	assert.Equal(t, "", empty.FullText)
	assert.NotNil(t, empty.Sections)
}

// setupAssets writes the named files under a fresh asset directory.
func setupAssets(t *testing.T, names ...string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "downloaded_pdfs")
	require.NoError(t, os.MkdirAll(dir, 0755))
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("%PDF"), 0644))
	}
	return dir
}

func newDecomposer(conv *fakeConverter, dir string, workers int) *DecomposeUseCase {
	u := NewDecomposeUseCase(conv, fs.NewWalker([]string{"**/*.pdf"}, nil), store.NewJSONArtifactStore(), dir, workers, nil)
	u.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return u
}

func TestDecompose_Metadata(t *testing.T) {
	dir := setupAssets(t, "guide.pdf")
	path := filepath.Join(dir, "guide.pdf")
	conv := newFakeConverter()
	conv.docs[path] = []domain.Block{header("Setup"), text("Install the agent now")}

	u := newDecomposer(conv, dir, 1)
	doc, err := u.Decompose(context.Background(), path, domain.AssetRecord{
		SourcePageURL: "https://example.test/en/guide",
		AssetURL:      "https://example.test/files/guide.pdf",
	})
	require.NoError(t, err)

	assert.Equal(t, path, doc.LocalPath)
	assert.Equal(t, "https://example.test/en/guide", doc.SourcePageURL)
	assert.Equal(t, "guide.pdf", doc.Metadata.Filename)
	assert.Equal(t, 5, doc.Metadata.WordCount)
	assert.Equal(t, 1, doc.Metadata.SectionCount)
	assert.Equal(t, "SupportDocument", doc.Metadata.DocMetadata.SchemaName)
	assert.Equal(t, "2024-05-01T12:00:00Z", doc.Metadata.ProcessingTime)
}

func TestDecomposeAll_SkipsMissingAndFailed(t *testing.T) {
	dir := setupAssets(t, "ok.pdf", "broken.pdf")
	ok := filepath.Join(dir, "ok.pdf")
	conv := newFakeConverter()
	conv.docs[ok] = []domain.Block{text("fine")}

	mapping := domain.AssetMapping{
		ok:                               {SourcePageURL: "p1", AssetURL: "a1"},
		filepath.Join(dir, "broken.pdf"): {SourcePageURL: "p1", AssetURL: "a2"},
		filepath.Join(dir, "gone.pdf"):   {SourcePageURL: "p2", AssetURL: "a3"},
	}

	var progressed []string
	u := newDecomposer(conv, dir, 2)
	batch, err := u.DecomposeAll(context.Background(), mapping, func(done, total int, path string, err error) {
		assert.Equal(t, 2, total)
		progressed = append(progressed, path)
	})
	require.NoError(t, err)

	assert.Equal(t, 2, conv.calls, "missing file is never converted")
	assert.Len(t, progressed, 2)
	require.Len(t, batch.Documents, 1)
	assert.Equal(t, "fine", batch.Documents[ok].Content.FullText)
	assert.Equal(t, 1, batch.Metadata.TotalDocuments)
	assert.Equal(t, "1/3", batch.Metadata.SuccessRate)
}

func TestDecomposeAll_BoundedPool(t *testing.T) {
	var names []string
	for i := 0; i < 20; i++ {
		names = append(names, fmt.Sprintf("doc%02d.pdf", i))
	}
	dir := setupAssets(t, names...)

	conv := newFakeConverter()
	mapping := domain.AssetMapping{}
	for _, n := range names {
		path := filepath.Join(dir, n)
		conv.docs[path] = []domain.Block{header(n), text("body of " + n)}
		mapping[path] = domain.AssetRecord{AssetURL: "https://example.test/" + n}
	}

	u := newDecomposer(conv, dir, 3)
	batch, err := u.DecomposeAll(context.Background(), mapping, nil)
	require.NoError(t, err)

	assert.Len(t, batch.Documents, 20)
	assert.Equal(t, "20/20", batch.Metadata.SuccessRate)
	assert.LessOrEqual(t, conv.peak, 3)
	for path, doc := range batch.Documents {
		assert.Equal(t, path, doc.LocalPath)
		assert.Equal(t, mapping[path].AssetURL, doc.AssetURL)
	}
}

func TestDecompose_RunPersistsArtifact(t *testing.T) {
	dir := setupAssets(t, "a.pdf")
	path := filepath.Join(dir, "a.pdf")
	conv := newFakeConverter()
	conv.docs[path] = []domain.Block{header("Title"), text("body")}

	u := newDecomposer(conv, dir, 1)
	artifact := filepath.Join(t.TempDir(), "processed_pdfs.json")
	_, err := u.Run(context.Background(), domain.AssetMapping{path: {AssetURL: "a"}}, artifact, nil)
	require.NoError(t, err)

	var loaded domain.ProcessedBatch
	require.NoError(t, store.NewJSONArtifactStore().Load(artifact, &loaded))
	assert.Equal(t, "1/1", loaded.Metadata.SuccessRate)
	assert.Equal(t, []domain.Section{{Header: "Title", Content: []string{"body"}}}, loaded.Documents[path].Content.Sections)
}

func TestDecomposeAll_Cancelled(t *testing.T) {
	dir := setupAssets(t, "a.pdf")
	conv := newFakeConverter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	u := newDecomposer(conv, dir, 1)
	_, err := u.DecomposeAll(ctx, domain.AssetMapping{filepath.Join(dir, "a.pdf"): {}}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
