package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/seenimoa/sovwatch/internal/infra"
)

// KindHTTP serves datasets from a base URL.
const KindHTTP = "http"

const defaultHTTPTimeout = 30 * time.Second

// HTTPStore reads datasets from static files behind a base URL, such as a
// raw.githubusercontent.com data folder.
type HTTPStore struct {
	baseURL string
	client  *http.Client
	limiter *infra.RateLimiter
}

// NewHTTPStore creates a store rooted at baseURL. rateLimit is in requests
// per second; 0 disables limiting.
func NewHTTPStore(baseURL string, timeout time.Duration, rateLimit int) (*HTTPStore, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: unsupported scheme %q", baseURL, u.Scheme)
	}
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/") + "/",
		client: &http.Client{
			Timeout: timeout,
		},
		limiter: infra.PerSecond(rateLimit),
	}, nil
}

func newHTTPFromOptions(_ context.Context, opts Options) (Store, error) {
	return NewHTTPStore(opts.BaseURL, opts.Timeout, opts.RateLimit)
}

// Info implements Store.
func (s *HTTPStore) Info() StoreInfo {
	return StoreInfo{Kind: KindHTTP, Location: s.baseURL, Description: "static files over HTTP"}
}

// URL returns the address of a dataset.
func (s *HTTPStore) URL(name string) string {
	return s.baseURL + url.PathEscape(name)
}

// Open implements Store. 404 and 403 (what raw file hosts answer for a
// missing path) are reported as *NotFoundError.
func (s *HTTPStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(name), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden:
		resp.Body.Close()
		return nil, &NotFoundError{Name: name, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: HTTP %d: %s", name, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp.Body, nil
}

// Ping checks that the base URL host answers. Static hosts commonly return
// 4xx for a directory listing, so only transport errors and 5xx count.
func (s *HTTPStore) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.baseURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("http store ping: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("http store ping: HTTP %d", resp.StatusCode)
	}
	return nil
}
