package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportrag/internal/adapter/assets"
	"supportrag/internal/adapter/crawler"
	"supportrag/internal/adapter/session/sessiontest"
	"supportrag/internal/adapter/store"
	"supportrag/internal/domain"
)

const site = "https://example.test"

func TestCrawlUseCase_LoginFailureAborts(t *testing.T) {
	s := sessiontest.New().HTML(site+"/en", sessiontest.Links("/en/a"))
	s.LoginErr = errors.New("bad credentials")

	c := crawler.New(s, crawler.NewScopeRule(site, "en", nil), crawler.Options{}, nil)
	u := NewCrawlUseCase(s, c, store.NewJSONArtifactStore(), nil)

	artifact := filepath.Join(t.TempDir(), "crawled_urls.json")
	_, err := u.Run(context.Background(), CrawlRequest{
		LoginURL:     site + "/login",
		Email:        "agent@example.test",
		Password:     "wrong",
		Seed:         site + "/en",
		ArtifactPath: artifact,
	}, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAuthentication))
	assert.Empty(t, s.Gets(), "no page is fetched after a failed login")
	assert.NoFileExists(t, artifact)
}

func TestCrawlThenFetch(t *testing.T) {
	s := sessiontest.New().
		HTML(site+"/en", sessiontest.Links("/en/a", "/en/b", "/de/c")).
		HTML(site+"/en/a", sessiontest.Links("/files/guide.pdf", "/en")).
		HTML(site+"/en/b", sessiontest.Links("/files/notes.PDF", "/files/guide.pdf")).
		HTML(site+"/files/guide.pdf", "%PDF-guide").
		HTML(site+"/files/notes.PDF", "%PDF-notes")

	artifacts := store.NewJSONArtifactStore()
	dir := t.TempDir()
	crawledPath := filepath.Join(dir, "crawled_urls.json")
	mappingPath := filepath.Join(dir, "pdf_sources.json")
	assetDir := filepath.Join(dir, "downloaded_pdfs")

	c := crawler.New(s, crawler.NewScopeRule(site, "en", nil), crawler.Options{}, nil)
	crawl := NewCrawlUseCase(s, c, artifacts, nil)
	pages, err := crawl.Run(context.Background(), CrawlRequest{
		LoginURL:     site + "/login",
		Seed:         site + "/en",
		ArtifactPath: crawledPath,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{site + "/en", site + "/en/a", site + "/en/b"}, pages)

	var saved []string
	require.NoError(t, artifacts.Load(crawledPath, &saved))
	assert.Equal(t, pages, saved)

	f := assets.NewFetcher(s, assets.Options{OutputDir: assetDir, Extension: ".pdf"}, nil)
	fetch := NewFetchUseCase(f, artifacts, nil)
	mapping, err := fetch.Run(context.Background(), saved, mappingPath, nil)
	require.NoError(t, err)

	guide := filepath.Join(assetDir, "guide.pdf")
	require.Contains(t, mapping, guide)
	// guide.pdf is linked from two pages; the later page wins
	assert.Equal(t, site+"/en/b", mapping[guide].SourcePageURL)
	assert.Contains(t, mapping, filepath.Join(assetDir, "notes.PDF"))

	var loaded domain.AssetMapping
	require.NoError(t, artifacts.Load(mappingPath, &loaded))
	assert.Equal(t, site+"/files/guide.pdf", loaded[guide].AssetURL)
	assert.FileExists(t, guide)
}
