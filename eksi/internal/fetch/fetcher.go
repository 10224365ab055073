// Package fetch retrieves rendered topic pages. The plain HTTP client is the
// default; a headless-Chrome client with stealth patches is available for
// deployments where the origin serves an anti-bot challenge page.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Result contains the outcome of a page fetch.
type Result struct {
	Body       []byte
	FinalURL   string // URL after redirects
	StatusCode int
}

// Client fetches one URL and returns the rendered HTML plus the final URL.
type Client interface {
	Fetch(ctx context.Context, url string) (*Result, error)
}

// Config configures the HTTP client.
type Config struct {
	Timeout  time.Duration `yaml:"timeout"`   // HTTP timeout. Default: 30s.
	MaxBytes int64         `yaml:"max_bytes"` // Max response body size. Default: 10MB.
	// UserAgent sent with requests.
	UserAgent string `yaml:"user_agent"`
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10 * 1024 * 1024 // 10MB
	}
	if c.UserAgent == "" {
		c.UserAgent = "eksirss/1.0"
	}
}

// HTTP performs plain HTTP fetches with a redirect cap.
type HTTP struct {
	client *http.Client
	config Config
}

// NewHTTP creates an HTTP fetch client.
func NewHTTP(cfg Config) *HTTP {
	cfg.defaults()
	return &HTTP{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				if s := req.URL.Scheme; s != "http" && s != "https" {
					return fmt.Errorf("redirect to unsupported scheme %q", s)
				}
				return nil
			},
		},
		config: cfg,
	}
}

// Fetch retrieves a URL, following redirects, and reports the final URL.
// Non-2xx statuses are errors: the extractors need a rendered topic page,
// not an error document.
func (h *HTTP) Fetch(ctx context.Context, url string) (*Result, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("fetch: unsupported scheme in %q", url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: new request: %w", err)
	}
	req.Header.Set("User-Agent", h.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Result{FinalURL: resp.Request.URL.String(), StatusCode: resp.StatusCode},
			fmt.Errorf("fetch: http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, h.config.MaxBytes))
	if err != nil {
		return nil, fmt.Errorf("fetch: read body: %w", err)
	}

	return &Result{
		Body:       body,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
	}, nil
}
