package cli

import (
	"context"
	"fmt"
	"time"

	"supportrag/internal/domain"
	"supportrag/internal/usecase"
)

func (p *pipeline) crawl(ctx context.Context) ([]string, error) {
	if err := p.cfg.ValidateSite(); err != nil {
		return nil, err
	}
	req, err := p.loginRequest()
	if err != nil {
		return nil, err
	}
	uc, err := p.crawlUseCase()
	if err != nil {
		return nil, err
	}

	fmt.Printf("Crawling %s...\n", req.Seed)
	bar := newSpinner("Crawling")
	pages, err := uc.Run(ctx, req, func(visited, pending int, current string) {
		bar.Describe(fmt.Sprintf("[cyan]Crawling[reset] %d queued", pending))
		_ = bar.Add(1)
	})
	_ = bar.Finish()
	fmt.Println()
	if err != nil {
		return nil, fmt.Errorf("crawl failed: %w", err)
	}
	p.loggedIn = req.LoginURL != ""

	fmt.Printf("Crawl complete: %d pages -> %s\n", len(pages), req.ArtifactPath)
	return pages, nil
}

func (p *pipeline) fetch(ctx context.Context, pages []string) (domain.AssetMapping, error) {
	if err := p.cfg.ValidateSite(); err != nil {
		return nil, err
	}
	if err := p.ensureLogin(ctx); err != nil {
		return nil, err
	}
	uc, err := p.fetchUseCase()
	if err != nil {
		return nil, err
	}

	artifact := p.artifactPath(p.cfg.Artifacts.AssetMap)
	bar := newProgressBar(len(pages), "Fetching")
	start := time.Now()
	mapping, err := uc.Run(ctx, pages, artifact, func(processed, total int, page string, found int) {
		_ = bar.Set(processed)
		bar.Describe(etaDescription("Fetching", start, processed, total))
	})
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}

	fmt.Printf("Fetch complete: %d documents -> %s\n", len(mapping), artifact)
	return mapping, nil
}

func (p *pipeline) decompose(ctx context.Context, mapping domain.AssetMapping) (domain.ProcessedBatch, error) {
	uc := p.decomposeUseCase()
	artifact := p.artifactPath(p.cfg.Artifacts.Processed)

	fmt.Printf("Decomposing %d documents with %d workers...\n", len(mapping), p.cfg.DecomposeWorkers())
	bar := newProgressBar(len(mapping), "Decomposing")
	start := time.Now()
	batch, err := uc.Run(ctx, mapping, artifact, func(done, total int, path string, err error) {
		if bar.GetMax() != total {
			bar.ChangeMax(total)
		}
		_ = bar.Set(done)
		bar.Describe(etaDescription("Decomposing", start, done, total))
	})
	if err != nil {
		return batch, fmt.Errorf("decomposition failed: %w", err)
	}
	_ = bar.Finish()

	fmt.Printf("Decomposition complete: %s documents -> %s\n", batch.Metadata.SuccessRate, artifact)
	return batch, nil
}

func (p *pipeline) index(ctx context.Context, batch domain.ProcessedBatch) (*usecase.IndexResult, error) {
	if err := p.cfg.ValidateIndex(); err != nil {
		return nil, err
	}
	idx, closeIndex, err := p.vectorIndex()
	if err != nil {
		return nil, fmt.Errorf("failed to open vector index: %w", err)
	}
	defer closeIndex()

	uc, err := p.indexUseCase(idx)
	if err != nil {
		return nil, err
	}

	bar := newProgressBar(0, "Embedding")
	start := time.Now()
	result, err := uc.Run(ctx, batch, func(processed, total int) {
		if bar.GetMax() != total {
			bar.ChangeMax(total)
		}
		_ = bar.Set(processed)
		bar.Describe(etaDescription("Embedding", start, processed, total))
	})
	if err != nil {
		return result, fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Printf("\nIndexing complete:\n")
	fmt.Printf("  Collection:      %s (%s)\n", p.cfg.Index.Collection, p.cfg.Index.Provider)
	fmt.Printf("  Documents:       %d\n", result.Documents)
	fmt.Printf("  Chunks created:  %d\n", result.ChunksCreated)
	fmt.Printf("  Points indexed:  %d\n", result.PointsIndexed)
	if result.BatchesSkipped > 0 {
		fmt.Printf("  Skipped batches: %d (%d chunks)\n", result.BatchesSkipped, result.ChunksSkipped)
	}
	return result, nil
}
