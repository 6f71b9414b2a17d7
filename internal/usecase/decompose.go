package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"supportrag/internal/adapter/analyzer"
	"supportrag/internal/domain"
	"supportrag/internal/logger"
	"supportrag/internal/port"
)

// DecomposeProgressFunc is called after every attempted document.
type DecomposeProgressFunc func(done, total int, path string, err error)

// DecomposeUseCase converts downloaded documents into text and sections.
type DecomposeUseCase struct {
	converter port.DocumentConverter
	walker    port.FileWalker
	artifacts port.ArtifactStore
	assetDir  string
	workers   int
	log       *logger.Logger
	now       func() time.Time
}

func NewDecomposeUseCase(
	converter port.DocumentConverter,
	walker port.FileWalker,
	artifacts port.ArtifactStore,
	assetDir string,
	workers int,
	log *logger.Logger,
) *DecomposeUseCase {
	if log == nil {
		log = logger.Nop()
	}
	if workers < 1 {
		workers = 1
	}
	return &DecomposeUseCase{
		converter: converter,
		walker:    walker,
		artifacts: artifacts,
		assetDir:  assetDir,
		workers:   workers,
		log:       log,
		now:       time.Now,
	}
}

// Decompose converts one document and groups its blocks into sections.
func (u *DecomposeUseCase) Decompose(ctx context.Context, localPath string, rec domain.AssetRecord) (domain.DecomposedDocument, error) {
	converted, err := u.converter.Convert(ctx, localPath)
	if err != nil {
		return domain.DecomposedDocument{}, err
	}

	content := BuildContent(converted.Blocks)
	return domain.DecomposedDocument{
		LocalPath:     localPath,
		SourcePageURL: rec.SourcePageURL,
		AssetURL:      rec.AssetURL,
		Content:       content,
		Metadata: domain.DocumentMetadata{
			Filename:       filepath.Base(localPath),
			DocMetadata:    converted,
			ProcessingTime: u.timestamp(),
			WordCount:      analyzer.WordCount(content.FullText),
			SectionCount:   len(content.Sections),
		},
	}, nil
}

func (u *DecomposeUseCase) timestamp() string {
	return u.now().Format(time.RFC3339Nano)
}

// BuildContent scans blocks in order. A header closes the open section when
// that section has a header and opens a new one; any other block is appended
// to the open section. Blocks before the first header belong to no section.
func BuildContent(blocks []domain.Block) domain.DocumentContent {
	rawTexts := make([]string, 0, len(blocks))
	sections := make([]domain.Section, 0)
	current := domain.Section{Content: []string{}}

	for _, b := range blocks {
		rawTexts = append(rawTexts, b.Text)
		if b.IsHeader() {
			if current.Header != "" {
				sections = append(sections, current)
			}
			current = domain.Section{Header: b.Text, Content: []string{}}
			continue
		}
		current.Content = append(current.Content, b.Text)
	}
	if current.Header != "" {
		sections = append(sections, current)
	}

	return domain.DocumentContent{
		FullText: strings.Join(rawTexts, " "),
		Sections: sections,
		RawTexts: rawTexts,
	}
}

// DecomposeAll converts every mapped document that exists on disk using a
// fixed-size worker pool. Per-document failures are logged and left out of
// the batch; the success rate counts them against the whole mapping.
func (u *DecomposeUseCase) DecomposeAll(ctx context.Context, mapping domain.AssetMapping, progress DecomposeProgressFunc) (domain.ProcessedBatch, error) {
	paths, err := u.existing(mapping)
	if err != nil {
		return domain.ProcessedBatch{}, err
	}

	results := make([]*domain.DecomposedDocument, len(paths))
	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.workers)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			doc, err := u.Decompose(gctx, path, mapping[path])
			if err != nil {
				u.log.Warn("failed to decompose document", "path", path, "error", err)
			} else {
				results[i] = &doc
				u.log.Debug("decomposed document", "path", path, "sections", doc.Metadata.SectionCount)
			}

			mu.Lock()
			done++
			if progress != nil {
				progress(done, len(paths), path, err)
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.ProcessedBatch{}, err
	}

	documents := make(map[string]domain.DecomposedDocument, len(results))
	for _, doc := range results {
		if doc != nil {
			documents[doc.LocalPath] = *doc
		}
	}

	return domain.ProcessedBatch{
		Metadata: domain.BatchMetadata{
			TotalDocuments: len(documents),
			ProcessingTime: u.timestamp(),
			SuccessRate:    fmt.Sprintf("%d/%d", len(documents), len(mapping)),
		},
		Documents: documents,
	}, nil
}

// existing returns the mapped paths found by walking the asset directory,
// sorted for a stable processing order.
func (u *DecomposeUseCase) existing(mapping domain.AssetMapping) ([]string, error) {
	files, err := u.walker.Walk(u.assetDir)
	if err != nil {
		return nil, fmt.Errorf("failed to walk asset directory: %w", err)
	}

	onDisk := make(map[string]struct{}, len(files))
	for _, f := range files {
		onDisk[filepath.Clean(f.Path)] = struct{}{}
	}

	paths := make([]string, 0, len(mapping))
	for path := range mapping {
		if _, ok := onDisk[filepath.Clean(path)]; !ok {
			u.log.Warn("mapped document not found on disk", "path", path)
			continue
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

// Run decomposes the mapping and persists the batch to artifactPath (skipped
// when empty).
func (u *DecomposeUseCase) Run(ctx context.Context, mapping domain.AssetMapping, artifactPath string, progress DecomposeProgressFunc) (domain.ProcessedBatch, error) {
	batch, err := u.DecomposeAll(ctx, mapping, progress)
	if err != nil {
		return batch, err
	}
	u.log.Info("decomposition complete", "documents", batch.Metadata.TotalDocuments, "success_rate", batch.Metadata.SuccessRate)

	if artifactPath != "" {
		if err := u.artifacts.Save(artifactPath, batch); err != nil {
			return batch, fmt.Errorf("failed to save processed documents: %w", err)
		}
	}
	return batch, nil
}
