package usecase

import (
	"context"
	"fmt"

	"supportrag/internal/adapter/assets"
	"supportrag/internal/domain"
	"supportrag/internal/logger"
	"supportrag/internal/port"
)

// FetchUseCase downloads the documents linked from crawled pages.
type FetchUseCase struct {
	fetcher   *assets.Fetcher
	artifacts port.ArtifactStore
	log       *logger.Logger
}

func NewFetchUseCase(fetcher *assets.Fetcher, artifacts port.ArtifactStore, log *logger.Logger) *FetchUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &FetchUseCase{
		fetcher:   fetcher,
		artifacts: artifacts,
		log:       log,
	}
}

// Run fetches the assets of every page and persists the merged mapping to
// artifactPath (skipped when empty).
func (u *FetchUseCase) Run(ctx context.Context, pages []string, artifactPath string, progress assets.ProgressFunc) (domain.AssetMapping, error) {
	mapping, err := u.fetcher.FetchAll(ctx, pages, progress)
	if err != nil {
		return mapping, err
	}
	u.log.Info("fetch complete", "pages", len(pages), "assets", len(mapping))

	if artifactPath != "" {
		if err := u.artifacts.Save(artifactPath, mapping); err != nil {
			return mapping, fmt.Errorf("failed to save asset mapping: %w", err)
		}
	}
	return mapping, nil
}
