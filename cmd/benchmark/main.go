package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"
	"time"

	"supportrag/config"
	"supportrag/internal/adapter/analyzer"
	"supportrag/internal/adapter/chunker"
	"supportrag/internal/adapter/embedding"
	"supportrag/internal/adapter/store"
	"supportrag/internal/domain"
	"supportrag/internal/port"
)

// Self-retrieval benchmark: sample chunks from processed_pdfs.json, search the
// collection with each chunk's leading sentence and check the source document
// comes back.
func main() {
	dir := flag.String("dir", ".", "Directory holding supportrag.yaml and the artifacts")
	samples := flag.Int("n", 20, "Number of chunks to sample")
	topK := flag.Int("k", 5, "Results per query")
	seed := flag.Int64("seed", 1, "Sampling seed")
	flag.Parse()

	if err := config.LoadEnv(*dir); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyEnv()

	var batch domain.ProcessedBatch
	processed := cfg.ArtifactPath(*dir, cfg.Artifacts.Processed)
	if err := store.NewJSONArtifactStore().Load(processed, &batch); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", processed, err)
		os.Exit(1)
	}

	embedder, index, closeIndex, err := setup(cfg, *dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search not available: %v\n", err)
		os.Exit(1)
	}
	defer closeIndex()

	ctx := context.Background()
	count, err := index.Count(ctx, cfg.Index.Collection)
	if err != nil || count == 0 {
		fmt.Fprintf(os.Stderr, "Collection %s is empty or missing - run 'supportrag index' first\n", cfg.Index.Collection)
		os.Exit(1)
	}

	chunks := sampleChunks(batch, cfg.Chunk.MaxTokens, *samples, *seed)

	fmt.Println("SELF-RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Collection: %s (%d points, %s)\n", cfg.Index.Collection, count, cfg.Index.Provider)
	fmt.Printf("Model: %s (%s), dimension %d\n", embedder.ModelName(), cfg.Embedding.Provider, embedder.Dimension())
	fmt.Printf("Queries: %d, top-k: %d\n\n", len(chunks), *topK)

	var hits1, hitsK int
	var totalTop float64
	var latencies []time.Duration

	for _, c := range chunks {
		query := leadingSentence(c.Text)
		start := time.Now()
		vecs, err := embedder.Embed(ctx, []string{query})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Embedding error: %v\n", err)
			os.Exit(1)
		}
		results, err := index.Search(ctx, cfg.Index.Collection, vecs[0], *topK)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
			os.Exit(1)
		}
		latencies = append(latencies, time.Since(start))

		rank := -1
		for i, r := range results {
			if r.PayloadString("pdf_url") == c.Metadata.PDFURL {
				rank = i
				break
			}
		}
		if rank == 0 {
			hits1++
		}
		if rank >= 0 {
			hitsK++
		}
		if len(results) > 0 {
			totalTop += results[0].Score
		}

		status := "MISS"
		if rank >= 0 {
			status = fmt.Sprintf("HIT@%d", rank+1)
		}
		fmt.Printf("[%-6s] %s: %s\n", status, c.Metadata.Filename, preview(query))
	}

	n := float64(len(chunks))
	if n == 0 {
		fmt.Println("No chunks to sample.")
		return
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Hit@1:              %.2f\n", float64(hits1)/n)
	fmt.Printf("  Hit@%d:              %.2f\n", *topK, float64(hitsK)/n)
	fmt.Printf("  Avg top-1 score:    %.3f\n", totalTop/n)
	fmt.Printf("  Median latency:     %s\n", latencies[len(latencies)/2])
}

func setup(cfg *config.Config, dir string) (port.Embedder, port.VectorIndex, func(), error) {
	var embedder port.Embedder
	var err error

	opts := embedding.Options{
		Model:     cfg.Embedding.Model,
		BaseURL:   cfg.Embedding.BaseURL,
		Dimension: cfg.Embedding.Dimension,
		Timeout:   cfg.Embedding.Timeout,
	}
	switch cfg.Embedding.Provider {
	case "ollama":
		embedder = embedding.NewOllamaEmbedder(opts)
	case "openai":
		embedder, err = embedding.NewOpenAIEmbedder(cfg.Embedding.APIKeyEnv, opts)
	case "mock":
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimension)
	default:
		return nil, nil, nil, fmt.Errorf("unsupported provider: %s", cfg.Embedding.Provider)
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("embedder init failed: %w", err)
	}

	switch cfg.Index.Provider {
	case "qdrant":
		q := store.NewQdrantIndex(store.QdrantConfig{
			URL:    os.Getenv(cfg.Index.URLEnv),
			APIKey: os.Getenv(cfg.Index.APIKeyEnv),
		})
		return embedder, q, func() {}, nil
	case "bolt":
		b, err := store.NewBoltIndex(cfg.BoltPath(dir))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("bolt index failed: %w", err)
		}
		return embedder, b, func() { b.Close() }, nil
	default:
		return nil, nil, nil, fmt.Errorf("index provider %s cannot be benchmarked out of process", cfg.Index.Provider)
	}
}

// sampleChunks chunks every document with the word tokenizer and picks n
// full_text chunks at random.
func sampleChunks(batch domain.ProcessedBatch, maxTokens, n int, seed int64) []domain.Chunk {
	chk := chunker.NewSentenceChunker(maxTokens, analyzer.NewTokenizer())

	paths := make([]string, 0, len(batch.Documents))
	for p := range batch.Documents {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var pool []domain.Chunk
	for _, p := range paths {
		for _, c := range chk.Chunk(batch.Documents[p]) {
			if c.Metadata.ChunkType == domain.ChunkTypeFullText && strings.TrimSpace(c.Text) != "." {
				pool = append(pool, c)
			}
		}
	}

	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if n < len(pool) {
		pool = pool[:n]
	}
	return pool
}

func leadingSentence(text string) string {
	if i := strings.Index(text, ". "); i > 0 {
		return text[:i+1]
	}
	return text
}

func preview(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > 80 {
		return s[:80] + "..."
	}
	return s
}
