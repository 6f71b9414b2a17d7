package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Chunk.MaxTokens != 8191 {
		t.Errorf("expected MaxTokens=8191, got %d", cfg.Chunk.MaxTokens)
	}
	if cfg.Embedding.BatchSize != 100 {
		t.Errorf("expected BatchSize=100, got %d", cfg.Embedding.BatchSize)
	}
	if cfg.Embedding.Dimension != 1536 {
		t.Errorf("expected Dimension=1536, got %d", cfg.Embedding.Dimension)
	}
	if cfg.Crawl.Timeout != 10*time.Second {
		t.Errorf("expected crawl timeout 10s, got %s", cfg.Crawl.Timeout)
	}
	if cfg.Index.IDStrategy != IDStrategySequential {
		t.Errorf("expected sequential ids, got %s", cfg.Index.IDStrategy)
	}
	if cfg.Search.Limit != 5 {
		t.Errorf("expected search limit 5, got %d", cfg.Search.Limit)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "supportrag.yaml")

	content := `
site:
  seed_url: https://docs.example.test/en
  domain: https://docs.example.test
crawl:
  timeout: 3s
  excludes: ["**/logout"]
chunk:
  max_tokens: 256
index:
  provider: bolt
  id_strategy: deterministic
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Chunk.MaxTokens != 256 {
		t.Errorf("expected MaxTokens=256, got %d", cfg.Chunk.MaxTokens)
	}
	if cfg.Crawl.Timeout != 3*time.Second {
		t.Errorf("expected crawl timeout 3s, got %s", cfg.Crawl.Timeout)
	}
	if len(cfg.Crawl.Excludes) != 1 || cfg.Crawl.Excludes[0] != "**/logout" {
		t.Errorf("unexpected excludes: %v", cfg.Crawl.Excludes)
	}
	if cfg.Index.Provider != "bolt" {
		t.Errorf("expected provider bolt, got %s", cfg.Index.Provider)
	}
	// untouched sections keep their defaults
	if cfg.Embedding.BatchSize != 100 {
		t.Errorf("expected BatchSize=100, got %d", cfg.Embedding.BatchSize)
	}
	if err := cfg.ValidateSite(); err != nil {
		t.Errorf("expected valid site config, got %v", err)
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ".supportrag"), 0755); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(tmpDir, ".supportrag", "config.yaml")

	content := `
embedding:
  batch_size: 16
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Embedding.BatchSize != 16 {
		t.Errorf("expected BatchSize=16, got %d", cfg.Embedding.BatchSize)
	}
}

func TestValidateSite_Missing(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.ValidateSite(); err == nil {
		t.Error("expected error for missing seed_url and domain")
	}
}

func TestValidateIndex(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Index.Provider = "memory"
	if err := cfg.ValidateIndex(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.Index.IDStrategy = "random"
	if err := cfg.ValidateIndex(); err == nil {
		t.Error("expected error for unknown id strategy")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("COLLECTION_NAME", "Docs2")
	cfg := DefaultConfig()
	cfg.ApplyEnv()
	if cfg.Index.Collection != "Docs2" {
		t.Errorf("expected collection from env, got %s", cfg.Index.Collection)
	}
}

func TestLoadEnv(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, ".env"), []byte("SUPPORTRAG_TEST_VAR=loaded\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SUPPORTRAG_TEST_VAR", "")
	os.Unsetenv("SUPPORTRAG_TEST_VAR")

	if err := LoadEnv(tmpDir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("SUPPORTRAG_TEST_VAR"); got != "loaded" {
		t.Errorf("expected loaded, got %q", got)
	}

	if err := LoadEnv(t.TempDir()); err != nil {
		t.Errorf("missing .env should not fail: %v", err)
	}
}

func TestCredentials(t *testing.T) {
	cfg := DefaultConfig()
	t.Setenv(cfg.Site.EmailEnv, "")
	t.Setenv(cfg.Site.PasswordEnv, "")
	if _, _, err := cfg.Credentials(); err == nil {
		t.Error("expected error when credentials are missing")
	}

	t.Setenv(cfg.Site.EmailEnv, "a@example.test")
	t.Setenv(cfg.Site.PasswordEnv, "secret")
	email, password, err := cfg.Credentials()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if email != "a@example.test" || password != "secret" {
		t.Errorf("unexpected credentials %q %q", email, password)
	}
}

func TestArtifactPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Artifacts.Dir = "out"
	path := cfg.ArtifactPath("/home/user/project", "crawled_urls.json")
	expected := filepath.Join("/home/user/project", "out", "crawled_urls.json")
	if path != expected {
		t.Errorf("expected %s, got %s", expected, path)
	}
}

func TestNormalizedExtension(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Fetch.Extension = "PDF"
	if got := cfg.NormalizedExtension(); got != ".pdf" {
		t.Errorf("expected .pdf, got %s", got)
	}
}
