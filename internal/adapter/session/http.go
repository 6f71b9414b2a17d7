package session

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"supportrag/internal/domain"
	"supportrag/internal/port"
)

// HTTPSession is a cookie-carrying HTTP client that logs in once and reuses
// its cookies for every later request.
type HTTPSession struct {
	client       *http.Client
	userAgent    string
	loginTimeout time.Duration
}

// NewHTTPSession creates a session. loginTimeout bounds Login only; Get
// requests are bounded by the caller's context, so crawl and fetch can
// apply their own deadlines to the whole body read.
func NewHTTPSession(userAgent string, loginTimeout time.Duration) (*HTTPSession, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &HTTPSession{
		client:       &http.Client{Jar: jar},
		userAgent:    userAgent,
		loginTimeout: loginTimeout,
	}, nil
}

// Login posts credentials as a form. Any transport error or non-2xx response
// is reported as domain.ErrAuthentication.
func (s *HTTPSession) Login(ctx context.Context, loginURL string, credentials url.Values) error {
	if s.loginTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.loginTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, strings.NewReader(credentials.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAuthentication, err)
	}
	s.setHeaders(req)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAuthentication, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status code %d", domain.ErrAuthentication, resp.StatusCode)
	}
	return nil
}

// Get fetches rawURL with the session cookies.
func (s *HTTPSession) Get(ctx context.Context, rawURL string) (*port.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetch, err)
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetch, err)
	}
	return &port.Response{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Body:       resp.Body,
	}, nil
}

func (s *HTTPSession) setHeaders(req *http.Request) {
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
}
