package session

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportrag/internal/domain"
)

func newLoginServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/en/login", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("email") != "user@example.test" || r.PostForm.Get("password") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "abc", Path: "/"})
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/en/private", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("sid"); err != nil || c.Value != "abc" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = io.WriteString(w, "welcome")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPSession_LoginCarriesCookies(t *testing.T) {
	srv := newLoginServer(t)
	s, err := NewHTTPSession("test-agent", 5*time.Second)
	require.NoError(t, err)

	ctx := context.Background()
	err = s.Login(ctx, srv.URL+"/en/login", url.Values{"email": {"user@example.test"}, "password": {"secret"}})
	require.NoError(t, err)

	resp, err := s.Get(ctx, srv.URL+"/en/private")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.True(t, resp.OK())
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "welcome", string(body))
}

func TestHTTPSession_LoginFailure(t *testing.T) {
	srv := newLoginServer(t)
	s, err := NewHTTPSession("", 5*time.Second)
	require.NoError(t, err)

	err = s.Login(context.Background(), srv.URL+"/en/login", url.Values{"email": {"x"}, "password": {"y"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAuthentication))
}

func TestHTTPSession_GetConnectionError(t *testing.T) {
	s, err := NewHTTPSession("", time.Second)
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "http://127.0.0.1:1/unreachable")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFetch))
}

// slowBody writes the first half of body, flushes, waits, then writes the rest.
func slowBody(body string, pause time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		half := len(body) / 2
		_, _ = io.WriteString(w, body[:half])
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		time.Sleep(pause)
		_, _ = io.WriteString(w, body[half:])
	}
}

func TestHTTPSession_LoginTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(300 * time.Millisecond):
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	s, err := NewHTTPSession("", 50*time.Millisecond)
	require.NoError(t, err)

	err = s.Login(context.Background(), srv.URL+"/en/login", url.Values{"email": {"x"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAuthentication))
}

func TestHTTPSession_GetNotBoundByLoginTimeout(t *testing.T) {
	srv := httptest.NewServer(slowBody("%PDF-slow-body", 300*time.Millisecond))
	t.Cleanup(srv.Close)

	s, err := NewHTTPSession("", 100*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := s.Get(ctx, srv.URL+"/files/slow.pdf")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-slow-body", string(body))
}
