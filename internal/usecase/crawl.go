package usecase

import (
	"context"
	"fmt"
	"net/url"

	"supportrag/internal/adapter/crawler"
	"supportrag/internal/logger"
	"supportrag/internal/port"
)

// CrawlUseCase logs in and collects the in-scope pages of the site.
type CrawlUseCase struct {
	session   port.Session
	crawler   *crawler.Crawler
	artifacts port.ArtifactStore
	log       *logger.Logger
}

func NewCrawlUseCase(
	session port.Session,
	crawler *crawler.Crawler,
	artifacts port.ArtifactStore,
	log *logger.Logger,
) *CrawlUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &CrawlUseCase{
		session:   session,
		crawler:   crawler,
		artifacts: artifacts,
		log:       log,
	}
}

// CrawlRequest describes one crawl run.
type CrawlRequest struct {
	LoginURL     string // empty skips the login step
	Email        string
	Password     string
	Seed         string
	ArtifactPath string // empty skips persisting
}

// Login authenticates the shared session. The session keeps its cookies for
// the fetch stage.
func (u *CrawlUseCase) Login(ctx context.Context, loginURL, email, password string) error {
	form := url.Values{}
	form.Set("email", email)
	form.Set("password", password)
	if err := u.session.Login(ctx, loginURL, form); err != nil {
		return err
	}
	u.log.Info("logged in", "url", loginURL)
	return nil
}

// Run logs in, crawls from the seed and persists the visited URLs.
// A login failure aborts before any page is fetched.
func (u *CrawlUseCase) Run(ctx context.Context, req CrawlRequest, progress crawler.ProgressFunc) ([]string, error) {
	if req.LoginURL != "" {
		if err := u.Login(ctx, req.LoginURL, req.Email, req.Password); err != nil {
			return nil, err
		}
	}

	visited, err := u.crawler.Crawl(ctx, req.Seed, progress)
	if err != nil {
		return visited, err
	}
	u.log.Info("crawl complete", "pages", len(visited))

	if req.ArtifactPath != "" {
		if visited == nil {
			visited = []string{}
		}
		if err := u.artifacts.Save(req.ArtifactPath, visited); err != nil {
			return visited, fmt.Errorf("failed to save crawled urls: %w", err)
		}
	}
	return visited, nil
}
