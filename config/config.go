package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the pipeline.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Crawl     CrawlConfig     `yaml:"crawl"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Decompose DecomposeConfig `yaml:"decompose"`
	Chunk     ChunkConfig     `yaml:"chunk"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Search    SearchConfig    `yaml:"search"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SiteConfig describes the documentation site and its login.
type SiteConfig struct {
	SeedURL     string `yaml:"seed_url"`
	LoginURL    string `yaml:"login_url"`
	Domain      string `yaml:"domain"` // URL prefix every crawled page must start with
	Locale      string `yaml:"locale"` // e.g. "en": page path contains /en/ or ends with /en
	EmailEnv    string `yaml:"email_env"`
	PasswordEnv string `yaml:"password_env"`
	UserAgent   string `yaml:"user_agent"`
}

// CrawlConfig holds crawling configuration.
type CrawlConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	PageDelay time.Duration `yaml:"page_delay"`
	MaxPages  int           `yaml:"max_pages"` // 0 = unlimited
	Excludes  []string      `yaml:"excludes"`  // doublestar globs over the URL path
}

// FetchConfig holds asset download configuration.
type FetchConfig struct {
	Extension  string        `yaml:"extension"`
	OutputDir  string        `yaml:"output_dir"`
	Timeout    time.Duration `yaml:"timeout"`
	AssetDelay time.Duration `yaml:"asset_delay"`
	PageDelay  time.Duration `yaml:"page_delay"`
}

// DecomposeConfig holds document conversion configuration.
type DecomposeConfig struct {
	Workers         int      `yaml:"workers"`  // 0 = 75% of available CPUs
	Includes        []string `yaml:"includes"` // doublestar globs relative to fetch.output_dir
	HeaderFontRatio float64  `yaml:"header_font_ratio"`
	MaxHeaderWords  int      `yaml:"max_header_words"`
}

// ChunkConfig holds chunking configuration.
type ChunkConfig struct {
	MaxTokens int    `yaml:"max_tokens"`
	Tokenizer string `yaml:"tokenizer"` // "tiktoken" or "words"
	Encoding  string `yaml:"encoding"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string        `yaml:"provider"` // "openai", "ollama", "mock"
	Model     string        `yaml:"model"`
	APIKeyEnv string        `yaml:"api_key_env"` // Environment variable for API key
	BaseURL   string        `yaml:"base_url"`
	Dimension int           `yaml:"dimension"`
	BatchSize int           `yaml:"batch_size"`
	Timeout   time.Duration `yaml:"timeout"`
}

// IndexConfig holds vector index configuration.
type IndexConfig struct {
	Provider   string `yaml:"provider"` // "qdrant", "bolt", "memory"
	Collection string `yaml:"collection"`
	URLEnv     string `yaml:"url_env"`
	APIKeyEnv  string `yaml:"api_key_env"`
	BoltPath   string `yaml:"bolt_path"`
	IDStrategy string `yaml:"id_strategy"` // "sequential" or "deterministic"
}

// SearchConfig holds query-time configuration.
type SearchConfig struct {
	Limit        int     `yaml:"limit"`
	MinScore     float64 `yaml:"min_score"` // drop hits below this cosine similarity (0 = disabled)
	MMRLambda    float64 `yaml:"mmr_lambda"`
	DedupJaccard float64 `yaml:"dedup_jaccard"`
}

// ArtifactsConfig names the intermediate files written between stages.
type ArtifactsConfig struct {
	Dir         string `yaml:"dir"`
	CrawledURLs string `yaml:"crawled_urls"`
	AssetMap    string `yaml:"asset_map"`
	Processed   string `yaml:"processed"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
	Mode  string `yaml:"mode"`
}

// Sequential and deterministic point id strategies.
const (
	IDStrategySequential    = "sequential"
	IDStrategyDeterministic = "deterministic"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			EmailEnv:    "SUPPORT_EMAIL",
			PasswordEnv: "SUPPORT_PASSWORD",
			Locale:      "en",
			UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		},
		Crawl: CrawlConfig{
			Timeout: 10 * time.Second,
		},
		Fetch: FetchConfig{
			Extension:  ".pdf",
			OutputDir:  "downloaded_pdfs",
			Timeout:    60 * time.Second,
			AssetDelay: time.Second,
			PageDelay:  2 * time.Second,
		},
		Decompose: DecomposeConfig{
			Includes:        []string{"**/*.pdf", "**/*.html", "**/*.htm"},
			HeaderFontRatio: 1.2,
			MaxHeaderWords:  16,
		},
		Chunk: ChunkConfig{
			MaxTokens: 8191,
			Tokenizer: "tiktoken",
			Encoding:  "cl100k_base",
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
			BatchSize: 100,
			Timeout:   60 * time.Second,
		},
		Index: IndexConfig{
			Provider:   "qdrant",
			Collection: "SupportDocs",
			URLEnv:     "QDRANT_URL",
			APIKeyEnv:  "QDRANT_API_KEY",
			BoltPath:   "index.db",
			IDStrategy: IDStrategySequential,
		},
		Search: SearchConfig{
			Limit:        5,
			MMRLambda:    0.7,
			DedupJaccard: 0.8,
		},
		Artifacts: ArtifactsConfig{
			Dir:         ".",
			CrawledURLs: "crawled_urls.json",
			AssetMap:    "pdf_sources.json",
			Processed:   "processed_pdfs.json",
		},
		Logging: LoggingConfig{
			Level: "info",
			Mode:  "development",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for supportrag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "supportrag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".supportrag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadEnv loads .env files from dir into the process environment. Variables
// already set are left alone; a missing file is not an error.
func LoadEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return godotenv.Load(path)
}

// ApplyEnv overrides file settings with environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("COLLECTION_NAME"); v != "" {
		c.Index.Collection = v
	}
	if v := os.Getenv("SUPPORT_SEED_URL"); v != "" {
		c.Site.SeedURL = v
	}
}

// Credentials returns the login email and password from the environment.
func (c *Config) Credentials() (string, string, error) {
	email := os.Getenv(c.Site.EmailEnv)
	password := os.Getenv(c.Site.PasswordEnv)
	if email == "" || password == "" {
		return "", "", fmt.Errorf("%s or %s not found in environment variables", c.Site.EmailEnv, c.Site.PasswordEnv)
	}
	return email, password, nil
}

// ValidateSite checks the settings the crawl and fetch stages need.
func (c *Config) ValidateSite() error {
	var errs []error
	if c.Site.SeedURL == "" {
		errs = append(errs, errors.New("site.seed_url is required"))
	}
	if c.Site.Domain == "" {
		errs = append(errs, errors.New("site.domain is required"))
	}
	if c.Fetch.Extension == "" {
		errs = append(errs, errors.New("fetch.extension is required"))
	}
	return errors.Join(errs...)
}

// ValidateIndex checks the settings the index and search stages need.
func (c *Config) ValidateIndex() error {
	var errs []error
	if c.Index.Collection == "" {
		errs = append(errs, errors.New("index.collection is required"))
	}
	if c.Embedding.Dimension <= 0 {
		errs = append(errs, errors.New("embedding.dimension must be positive"))
	}
	switch c.Index.IDStrategy {
	case IDStrategySequential, IDStrategyDeterministic:
	default:
		errs = append(errs, fmt.Errorf("unsupported index.id_strategy: %s", c.Index.IDStrategy))
	}
	if c.Index.Provider == "qdrant" && os.Getenv(c.Index.URLEnv) == "" {
		errs = append(errs, fmt.Errorf("%s not found in environment variables", c.Index.URLEnv))
	}
	return errors.Join(errs...)
}

// DecomposeWorkers returns the configured worker count, defaulting to 75% of
// the available CPUs.
func (c *Config) DecomposeWorkers() int {
	if c.Decompose.Workers > 0 {
		return c.Decompose.Workers
	}
	n := runtime.NumCPU() * 3 / 4
	if n < 1 {
		n = 1
	}
	return n
}

// ArtifactPath resolves an artifact file name against the artifacts dir.
func (c *Config) ArtifactPath(root, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	dir := c.Artifacts.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	return filepath.Join(dir, name)
}

// AssetDir resolves fetch.output_dir against root.
func (c *Config) AssetDir(root string) string {
	if filepath.IsAbs(c.Fetch.OutputDir) {
		return c.Fetch.OutputDir
	}
	return filepath.Join(root, c.Fetch.OutputDir)
}

// BoltPath resolves index.bolt_path against root.
func (c *Config) BoltPath(root string) string {
	return c.ArtifactPath(root, c.Index.BoltPath)
}

// NormalizedExtension returns fetch.extension lower-cased with a leading dot.
func (c *Config) NormalizedExtension() string {
	ext := strings.ToLower(strings.TrimSpace(c.Fetch.Extension))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
