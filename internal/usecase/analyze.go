package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"supportrag/internal/adapter/assets"
	"supportrag/internal/adapter/crawler"
	"supportrag/internal/domain"
	"supportrag/internal/logger"
	"supportrag/internal/port"
)

// PageAnalysis is what a single page offers the crawl and fetch stages.
type PageAnalysis struct {
	URL        string                `json:"url"`
	Links      []string              `json:"links"`
	InScope    []string              `json:"in_scope"`
	Assets     []string              `json:"assets"`
	Inspection assets.PageInspection `json:"inspection"`
}

// AnalyzeUseCase inspects one page to explain why the crawler or fetcher
// finds (or misses) its documents.
type AnalyzeUseCase struct {
	session port.Session
	rule    *crawler.ScopeRule
	ext     string
	timeout time.Duration
	log     *logger.Logger
}

func NewAnalyzeUseCase(session port.Session, rule *crawler.ScopeRule, ext string, timeout time.Duration, log *logger.Logger) *AnalyzeUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &AnalyzeUseCase{
		session: session,
		rule:    rule,
		ext:     ext,
		timeout: timeout,
		log:     log,
	}
}

// Analyze fetches pageURL once and reports its links, the links the scope
// rule keeps, the downloadable assets and other document-related elements.
func (u *AnalyzeUseCase) Analyze(ctx context.Context, pageURL string) (PageAnalysis, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return PageAnalysis{}, fmt.Errorf("invalid page url: %w", err)
	}
	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	resp, err := u.session.Get(ctx, pageURL)
	if err != nil {
		return PageAnalysis{}, err
	}
	defer resp.Body.Close()
	if !resp.OK() {
		return PageAnalysis{}, fmt.Errorf("%w: status code %d", domain.ErrFetch, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return PageAnalysis{}, fmt.Errorf("%w: %v", domain.ErrFetch, err)
	}

	result := PageAnalysis{URL: pageURL}
	if result.Links, err = crawler.ExtractLinks(bytes.NewReader(body), base); err != nil {
		return result, err
	}
	for _, l := range result.Links {
		if u.rule == nil || u.rule.Allows(l) {
			result.InScope = append(result.InScope, l)
		}
	}
	if result.Assets, err = assets.Locate(bytes.NewReader(body), base, u.ext); err != nil {
		return result, err
	}
	if result.Inspection, err = assets.Inspect(bytes.NewReader(body)); err != nil {
		return result, err
	}

	u.log.Debug("page analyzed", "url", pageURL, "links", len(result.Links), "assets", len(result.Assets))
	return result, nil
}
