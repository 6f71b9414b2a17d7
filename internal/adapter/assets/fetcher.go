package assets

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"supportrag/internal/domain"
	"supportrag/internal/logger"
	"supportrag/internal/port"
)

// ProgressFunc is called after each page has been processed.
type ProgressFunc func(processed, total int, page string, found int)

// Fetcher downloads the documents linked from crawled pages.
type Fetcher struct {
	session      port.Session
	outputDir    string
	ext          string
	timeout      time.Duration
	assetLimiter *rate.Limiter
	pageLimiter  *rate.Limiter
	log          *logger.Logger
}

// Options configures a Fetcher.
type Options struct {
	OutputDir  string
	Extension  string
	Timeout    time.Duration
	AssetDelay time.Duration
	PageDelay  time.Duration
}

func NewFetcher(session port.Session, opts Options, log *logger.Logger) *Fetcher {
	if log == nil {
		log = logger.Nop()
	}
	return &Fetcher{
		session:      session,
		outputDir:    opts.OutputDir,
		ext:          opts.Extension,
		timeout:      opts.Timeout,
		assetLimiter: newLimiter(opts.AssetDelay),
		pageLimiter:  newLimiter(opts.PageDelay),
		log:          log.With("component", "fetcher"),
	}
}

func newLimiter(every time.Duration) *rate.Limiter {
	if every <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(every), 1)
}

// FetchAll downloads the assets of every page and merges the per-page
// mappings in page order. A local path seen on a later page replaces the
// earlier record.
func (f *Fetcher) FetchAll(ctx context.Context, pages []string, progress ProgressFunc) (domain.AssetMapping, error) {
	all := make(domain.AssetMapping)
	for i, page := range pages {
		if err := f.pageLimiter.Wait(ctx); err != nil {
			return all, err
		}
		mapping, err := f.FetchAssets(ctx, page)
		if err != nil {
			return all, err
		}
		for path := range mapping {
			if prev, ok := all[path]; ok && prev.SourcePageURL != page {
				f.log.Warn("local path collision, keeping latest record",
					"path", path, "previous_source", prev.SourcePageURL, "source", page)
			}
		}
		all.Merge(mapping)
		if progress != nil {
			progress(i+1, len(pages), page, len(mapping))
		}
	}
	return all, nil
}

// FetchAssets downloads every asset linked from pageURL into the output
// directory. Page and asset failures are logged and skipped; the only error
// returned is context cancellation or an unusable output directory.
func (f *Fetcher) FetchAssets(ctx context.Context, pageURL string) (domain.AssetMapping, error) {
	if err := os.MkdirAll(f.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	mapping := make(domain.AssetMapping)
	links, err := f.locate(ctx, pageURL)
	if err != nil {
		if ctx.Err() != nil {
			return mapping, ctx.Err()
		}
		f.log.Warn("failed to process page", "url", pageURL, "error", err)
		return mapping, nil
	}

	for _, assetURL := range links {
		name, ok := LocalName(assetURL)
		if !ok {
			continue
		}
		if err := f.assetLimiter.Wait(ctx); err != nil {
			return mapping, err
		}
		localPath := filepath.Join(f.outputDir, name)

		f.log.Info("downloading asset", "url", assetURL)
		if err := f.download(ctx, assetURL, localPath); err != nil {
			if ctx.Err() != nil {
				return mapping, ctx.Err()
			}
			f.log.Warn("failed to download asset", "url", assetURL, "error", err)
			continue
		}
		mapping[localPath] = domain.AssetRecord{
			LocalPath:     localPath,
			SourcePageURL: pageURL,
			AssetURL:      assetURL,
		}
	}
	return mapping, nil
}

func (f *Fetcher) locate(ctx context.Context, pageURL string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	resp, err := f.session.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if !resp.OK() {
		return nil, fmt.Errorf("%w: status code %d", domain.ErrFetch, resp.StatusCode)
	}
	return Locate(resp.Body, base, f.ext)
}

// download streams the asset body into a temp file and renames it over
// localPath once the copy completes.
func (f *Fetcher) download(ctx context.Context, assetURL, localPath string) error {
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	resp, err := f.session.Get(ctx, assetURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if !resp.OK() {
		return fmt.Errorf("%w: status code %d", domain.ErrFetch, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(localPath), ".download-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", domain.ErrFetch, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, localPath); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func (f *Fetcher) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, f.timeout)
}
