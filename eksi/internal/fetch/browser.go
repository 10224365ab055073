package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// BrowserConfig configures the headless-Chrome client.
type BrowserConfig struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome via launcher.
	RemoteURL string

	// NavTimeout bounds navigation plus page load. Default: 30s.
	NavTimeout time.Duration

	Logger *slog.Logger
}

func (c *BrowserConfig) defaults() {
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Browser fetches pages through headless Chrome with stealth patches
// applied, for origins that serve an anti-bot challenge to plain HTTP
// clients. Chrome is launched lazily on the first fetch and reused.
type Browser struct {
	cfg     BrowserConfig
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// NewBrowser creates a Browser client. Chrome is not started until the
// first Fetch call.
func NewBrowser(cfg BrowserConfig) *Browser {
	cfg.defaults()
	return &Browser{cfg: cfg}
}

// Fetch opens a stealth tab, navigates, waits for load, and serialises the
// rendered DOM. A rendered page counts as status 200: Chrome does not
// surface the HTTP status of the main document through this path.
func (b *Browser) Fetch(ctx context.Context, url string) (*Result, error) {
	br, err := b.ensureBrowser()
	if err != nil {
		return nil, err
	}

	page, err := stealth.Page(br)
	if err != nil {
		return nil, fmt.Errorf("fetch: stealth page: %w", err)
	}
	defer page.Close()

	navCtx, cancel := context.WithTimeout(ctx, b.cfg.NavTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(url); err != nil {
		return nil, fmt.Errorf("fetch: navigate %s: %w", url, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		b.cfg.Logger.Warn("fetch: wait load timeout", "url", url, "error", err)
	}

	res, err := page.Context(navCtx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return nil, fmt.Errorf("fetch: serialise DOM: %w", err)
	}

	info, err := page.Context(navCtx).Info()
	if err != nil {
		return nil, fmt.Errorf("fetch: page info: %w", err)
	}

	return &Result{
		Body:       []byte(res.Value.Str()),
		FinalURL:   info.URL,
		StatusCode: 200,
	}, nil
}

// Close shuts down Chrome if it was started.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	if b.browser != nil {
		b.browser.Close()
		b.browser = nil
	}
	if b.lnch != nil {
		b.lnch.Cleanup()
		b.lnch = nil
	}
	return nil
}

func (b *Browser) ensureBrowser() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("fetch: browser client is closed")
	}
	if b.browser != nil {
		return b.browser, nil
	}

	var wsURL string
	if b.cfg.RemoteURL != "" {
		wsURL = b.cfg.RemoteURL
		b.cfg.Logger.Info("fetch: connecting to remote chrome", "url", wsURL)
	} else {
		l := launcher.New().Headless(true)
		// Anti-detection flag.
		l = l.Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("fetch: launch chrome: %w", err)
		}
		wsURL = u
		b.lnch = l
		b.cfg.Logger.Info("fetch: launched local chrome", "url", wsURL)
	}

	br := rod.New().ControlURL(wsURL)
	if err := br.Connect(); err != nil {
		return nil, fmt.Errorf("fetch: connect chrome: %w", err)
	}
	b.browser = br
	return br, nil
}
