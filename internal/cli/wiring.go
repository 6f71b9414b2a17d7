package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"supportrag/config"
	"supportrag/internal/adapter/analyzer"
	"supportrag/internal/adapter/assets"
	"supportrag/internal/adapter/chunker"
	"supportrag/internal/adapter/converter"
	"supportrag/internal/adapter/crawler"
	"supportrag/internal/adapter/embedding"
	"supportrag/internal/adapter/fs"
	"supportrag/internal/adapter/memstore"
	"supportrag/internal/adapter/retriever"
	"supportrag/internal/adapter/session"
	"supportrag/internal/adapter/store"
	"supportrag/internal/domain"
	"supportrag/internal/port"
	"supportrag/internal/usecase"
)

// pipeline holds the adapters shared by the stage commands.
type pipeline struct {
	cfg       *config.Config
	root      string
	artifacts *store.JSONArtifactStore
	session   *session.HTTPSession
	loggedIn  bool
}

func newPipeline() *pipeline {
	return &pipeline{
		cfg:       GetConfig(),
		root:      GetRootDir(),
		artifacts: store.NewJSONArtifactStore(),
	}
}

func (p *pipeline) artifactPath(name string) string {
	return p.cfg.ArtifactPath(p.root, name)
}

// httpSession returns the shared session, creating it on first use.
func (p *pipeline) httpSession() (*session.HTTPSession, error) {
	if p.session != nil {
		return p.session, nil
	}
	s, err := session.NewHTTPSession(p.cfg.Site.UserAgent, p.cfg.Crawl.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	p.session = s
	return s, nil
}

func (p *pipeline) loginRequest() (usecase.CrawlRequest, error) {
	req := usecase.CrawlRequest{
		LoginURL:     p.cfg.Site.LoginURL,
		Seed:         p.cfg.Site.SeedURL,
		ArtifactPath: p.artifactPath(p.cfg.Artifacts.CrawledURLs),
	}
	if req.LoginURL == "" {
		return req, nil
	}
	email, password, err := p.cfg.Credentials()
	if err != nil {
		return req, err
	}
	req.Email = email
	req.Password = password
	return req, nil
}

func (p *pipeline) crawlUseCase() (*usecase.CrawlUseCase, error) {
	s, err := p.httpSession()
	if err != nil {
		return nil, err
	}
	rule := crawler.NewScopeRule(p.cfg.Site.Domain, p.cfg.Site.Locale, p.cfg.Crawl.Excludes)
	c := crawler.New(s, rule, crawler.Options{
		Timeout:   p.cfg.Crawl.Timeout,
		PageDelay: p.cfg.Crawl.PageDelay,
		MaxPages:  p.cfg.Crawl.MaxPages,
	}, GetLogger())
	return usecase.NewCrawlUseCase(s, c, p.artifacts, GetLogger()), nil
}

// ensureLogin authenticates the shared session once per process.
func (p *pipeline) ensureLogin(ctx context.Context) error {
	if p.loggedIn {
		return nil
	}
	req, err := p.loginRequest()
	if err != nil {
		return err
	}
	if req.LoginURL != "" {
		uc, err := p.crawlUseCase()
		if err != nil {
			return err
		}
		if err := uc.Login(ctx, req.LoginURL, req.Email, req.Password); err != nil {
			return err
		}
	}
	p.loggedIn = true
	return nil
}

func (p *pipeline) fetchUseCase() (*usecase.FetchUseCase, error) {
	s, err := p.httpSession()
	if err != nil {
		return nil, err
	}
	f := assets.NewFetcher(s, assets.Options{
		OutputDir:  p.cfg.AssetDir(p.root),
		Extension:  p.cfg.NormalizedExtension(),
		Timeout:    p.cfg.Fetch.Timeout,
		AssetDelay: p.cfg.Fetch.AssetDelay,
		PageDelay:  p.cfg.Fetch.PageDelay,
	}, GetLogger())
	return usecase.NewFetchUseCase(f, p.artifacts, GetLogger()), nil
}

func (p *pipeline) decomposeUseCase() *usecase.DecomposeUseCase {
	conv := converter.NewDispatch(
		converter.NewPDFConverter(p.cfg.Decompose.HeaderFontRatio, p.cfg.Decompose.MaxHeaderWords),
		converter.NewHTMLConverter(),
	)
	walker := fs.NewWalker(p.cfg.Decompose.Includes, nil)
	return usecase.NewDecomposeUseCase(conv, walker, p.artifacts, p.cfg.AssetDir(p.root), p.cfg.DecomposeWorkers(), GetLogger())
}

// tokenizer returns the configured token counter. When the BPE encoding
// cannot be loaded it falls back to the word heuristic.
func (p *pipeline) tokenizer() (port.Tokenizer, error) {
	switch p.cfg.Chunk.Tokenizer {
	case "tiktoken", "":
		tok, err := analyzer.NewBPETokenizer(p.cfg.Chunk.Encoding)
		if err != nil {
			GetLogger().Warn("falling back to word tokenizer", "encoding", p.cfg.Chunk.Encoding, "error", err)
			return analyzer.NewTokenizer(), nil
		}
		return tok, nil
	case "words":
		return analyzer.NewTokenizer(), nil
	default:
		return nil, fmt.Errorf("unsupported chunk tokenizer: %s", p.cfg.Chunk.Tokenizer)
	}
}

func (p *pipeline) embedder() (port.Embedder, error) {
	e := p.cfg.Embedding
	opts := embedding.Options{
		Model:     e.Model,
		BaseURL:   e.BaseURL,
		Dimension: e.Dimension,
		BatchSize: e.BatchSize,
		Timeout:   e.Timeout,
	}

	switch e.Provider {
	case "openai":
		return embedding.NewOpenAIEmbedder(e.APIKeyEnv, opts)
	case "ollama":
		return embedding.NewOllamaEmbedder(opts), nil
	case "mock":
		return embedding.NewMockEmbedder(e.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", e.Provider)
	}
}

// vectorIndex opens the configured index. The returned close function is
// always safe to call.
func (p *pipeline) vectorIndex() (port.VectorIndex, func(), error) {
	switch p.cfg.Index.Provider {
	case "qdrant":
		q := store.NewQdrantIndex(store.QdrantConfig{
			URL:    strings.TrimSpace(os.Getenv(p.cfg.Index.URLEnv)),
			APIKey: os.Getenv(p.cfg.Index.APIKeyEnv),
		})
		return q, func() {}, nil
	case "bolt":
		b, err := store.NewBoltIndex(p.cfg.BoltPath(p.root))
		if err != nil {
			return nil, func() {}, err
		}
		return b, func() { b.Close() }, nil
	case "memory":
		return memstore.NewMemoryIndex(), func() {}, nil
	default:
		return nil, func() {}, fmt.Errorf("unsupported index provider: %s", p.cfg.Index.Provider)
	}
}

func (p *pipeline) indexUseCase(index port.VectorIndex) (*usecase.IndexUseCase, error) {
	emb, err := p.embedder()
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	tok, err := p.tokenizer()
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer: %w", err)
	}
	return usecase.NewIndexUseCase(emb, index, chunker.NewSentenceChunker(p.cfg.Chunk.MaxTokens, tok), usecase.IndexOptions{
		Collection: p.cfg.Index.Collection,
		BatchSize:  p.cfg.Embedding.BatchSize,
		IDStrategy: p.cfg.Index.IDStrategy,
	}, GetLogger()), nil
}

func (p *pipeline) searchUseCase(index port.VectorIndex, withMMR bool) (*usecase.SearchUseCase, error) {
	emb, err := p.embedder()
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	var mmr *retriever.MMRReranker
	if withMMR {
		mmr = retriever.NewMMRReranker(p.cfg.Search.MMRLambda, p.cfg.Search.DedupJaccard, analyzer.NewTokenizer())
	}
	return usecase.NewSearchUseCase(emb, index, p.cfg.Index.Collection, mmr, p.cfg.Search.MinScore), nil
}

func (p *pipeline) loadPages() ([]string, error) {
	var pages []string
	path := p.artifactPath(p.cfg.Artifacts.CrawledURLs)
	if err := p.artifacts.Load(path, &pages); err != nil {
		return nil, fmt.Errorf("failed to load %s (run 'supportrag crawl' first): %w", path, err)
	}
	return pages, nil
}

func (p *pipeline) loadMapping() (domain.AssetMapping, error) {
	var mapping domain.AssetMapping
	path := p.artifactPath(p.cfg.Artifacts.AssetMap)
	if err := p.artifacts.Load(path, &mapping); err != nil {
		return nil, fmt.Errorf("failed to load %s (run 'supportrag fetch' first): %w", path, err)
	}
	return mapping, nil
}

func (p *pipeline) loadProcessed() (domain.ProcessedBatch, error) {
	var batch domain.ProcessedBatch
	path := p.artifactPath(p.cfg.Artifacts.Processed)
	if err := p.artifacts.Load(path, &batch); err != nil {
		return batch, fmt.Errorf("failed to load %s (run 'supportrag decompose' first): %w", path, err)
	}
	return batch, nil
}
