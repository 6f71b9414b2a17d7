package crawler

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"supportrag/internal/domain"
	"supportrag/internal/logger"
	"supportrag/internal/port"
)

// ProgressFunc is called after every visited page.
type ProgressFunc func(visited, pending int, current string)

// Crawler walks a site breadth-first from a seed URL.
type Crawler struct {
	session  port.Session
	rule     *ScopeRule
	timeout  time.Duration
	limiter  *rate.Limiter
	maxPages int
	log      *logger.Logger
}

// Options configures a Crawler.
type Options struct {
	Timeout   time.Duration // per-page fetch timeout
	PageDelay time.Duration // minimum spacing between page fetches
	MaxPages  int           // 0 = unlimited
}

func New(session port.Session, rule *ScopeRule, opts Options, log *logger.Logger) *Crawler {
	if log == nil {
		log = logger.Nop()
	}
	limit := rate.Inf
	if opts.PageDelay > 0 {
		limit = rate.Every(opts.PageDelay)
	}
	return &Crawler{
		session:  session,
		rule:     rule,
		timeout:  opts.Timeout,
		limiter:  rate.NewLimiter(limit, 1),
		maxPages: opts.MaxPages,
		log:      log.With("component", "crawler"),
	}
}

// Crawl visits every in-scope page reachable from seed and returns the
// visited URLs in visit order. Fetch failures count as pages with no links.
// The only error returned is context cancellation.
func (c *Crawler) Crawl(ctx context.Context, seed string, progress ProgressFunc) ([]string, error) {
	frontier := NewFrontier()
	if c.rule.Allows(seed) {
		frontier.Push(seed)
	} else {
		c.log.Warn("seed is out of scope", "url", seed)
	}

	for {
		if err := ctx.Err(); err != nil {
			return frontier.VisitedURLs(), err
		}
		if c.maxPages > 0 && frontier.VisitedCount() >= c.maxPages {
			c.log.Info("page limit reached", "max_pages", c.maxPages)
			break
		}
		current, ok := frontier.Pop()
		if !ok {
			break
		}
		if frontier.Visited(current) {
			continue
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return frontier.VisitedURLs(), err
		}
		c.log.Debug("crawling", "url", current)
		links, err := c.fetchLinks(ctx, current)
		if err != nil {
			c.log.Warn("failed to crawl page", "url", current, "error", err)
		}
		frontier.MarkVisited(current)

		for _, link := range links {
			if !c.rule.Allows(link) || frontier.Visited(link) {
				continue
			}
			frontier.Push(link)
		}
		if progress != nil {
			progress(frontier.VisitedCount(), frontier.Pending(), current)
		}
	}

	c.log.Info("crawling finished", "pages", frontier.VisitedCount())
	return frontier.VisitedURLs(), nil
}

func (c *Crawler) fetchLinks(ctx context.Context, pageURL string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.session.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !resp.OK() {
		return nil, fmt.Errorf("%w: status code %d", domain.ErrFetch, resp.StatusCode)
	}
	links, err := ExtractLinks(resp.Body, base)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetch, err)
	}
	return links, nil
}
