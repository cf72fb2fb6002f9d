package yfinance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/econlab/regdata/internal/infra"
)

// session holds the crumb that quoteSummary requires. The crumb is bound to
// a cookie set by cookieURL, which lives in the client's cookie jar.
type session struct {
	mu        sync.Mutex
	client    *infra.Client
	cookieURL string
	api       *api
	crumb     string
}

// Crumb returns the cached crumb, fetching a new cookie and crumb if needed.
func (s *session) Crumb(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.crumb != "" {
		return s.crumb, nil
	}

	// fc.yahoo.com answers 404 but still sets the cookie.
	if _, err := s.client.Get(ctx, s.cookieURL, nil, nil); err != nil {
		var httpErr *infra.ErrHTTP
		if !errors.As(err, &httpErr) {
			return "", fmt.Errorf("yahoo cookie: %w", err)
		}
	}

	body, err := s.client.Get(ctx, s.api.baseURL+"/v1/test/getcrumb", nil, map[string]string{"Accept": "text/plain"})
	if err != nil {
		return "", fmt.Errorf("yahoo crumb: %w", err)
	}
	crumb := strings.TrimSpace(string(body))
	if crumb == "" || strings.ContainsAny(crumb, "<{ ") {
		return "", fmt.Errorf("yahoo crumb: unexpected response %q", truncate(crumb, 64))
	}
	s.crumb = crumb
	return crumb, nil
}

// Reset drops the cached crumb so the next call starts a new session.
func (s *session) Reset() {
	s.mu.Lock()
	s.crumb = ""
	s.mu.Unlock()
}

// isAuthError reports whether err means the crumb or cookie was rejected.
func isAuthError(err error) bool {
	var httpErr *infra.ErrHTTP
	if !errors.As(err, &httpErr) {
		return false
	}
	return httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
