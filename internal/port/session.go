package port

import (
	"context"
	"io"
	"net/url"
)

// Session is an authenticated HTTP session shared by the crawl and fetch stages.
type Session interface {
	// Login posts the credentials form to loginURL. A failure is fatal to the run.
	Login(ctx context.Context, loginURL string, credentials url.Values) error

	// Get fetches url. Callers must close the response body.
	Get(ctx context.Context, url string) (*Response, error)
}

// Response is the subset of an HTTP response the pipeline needs.
type Response struct {
	URL        string
	StatusCode int
	Body       io.ReadCloser
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
