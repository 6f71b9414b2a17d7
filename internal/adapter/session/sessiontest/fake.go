// Package sessiontest provides an in-memory port.Session for tests.
package sessiontest

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"supportrag/internal/domain"
	"supportrag/internal/port"
)

// Page is a canned response.
type Page struct {
	Status int
	Body   string
	Err    error
}

// Session serves canned pages keyed by URL. Unknown URLs return 404.
type Session struct {
	mu       sync.Mutex
	pages    map[string]Page
	gets     []string
	LoginErr error
}

func New() *Session {
	return &Session{pages: make(map[string]Page)}
}

// HTML registers a 200 page.
func (s *Session) HTML(u, body string) *Session {
	return s.Set(u, Page{Status: 200, Body: body})
}

func (s *Session) Set(u string, p Page) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[u] = p
	return s
}

func (s *Session) Login(ctx context.Context, loginURL string, credentials url.Values) error {
	if s.LoginErr != nil {
		return fmt.Errorf("%w: %v", domain.ErrAuthentication, s.LoginErr)
	}
	return nil
}

func (s *Session) Get(ctx context.Context, u string) (*port.Response, error) {
	s.mu.Lock()
	s.gets = append(s.gets, u)
	p, ok := s.pages[u]
	s.mu.Unlock()

	if !ok {
		p = Page{Status: 404, Body: "not found"}
	}
	if p.Err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetch, p.Err)
	}
	return &port.Response{
		URL:        u,
		StatusCode: p.Status,
		Body:       io.NopCloser(strings.NewReader(p.Body)),
	}, nil
}

// Gets returns every URL requested so far, in order.
func (s *Session) Gets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.gets))
	copy(out, s.gets)
	return out
}

// Links renders a minimal HTML page with one anchor per href.
func Links(hrefs ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, h := range hrefs {
		fmt.Fprintf(&b, `<a href="%s">link</a>`, h)
	}
	b.WriteString("</body></html>")
	return b.String()
}
