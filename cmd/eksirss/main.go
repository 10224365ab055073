package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hazyhaar/eksirss/eksi"
	"github.com/hazyhaar/eksirss/shield"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"
)

//go:embed templates
var templatesFS embed.FS

var pages = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

func main() {
	host := env("HOST", "0.0.0.0")
	port := env("PORT", "5000")
	configPath := env("CONFIG", "")
	mcpTransport := env("MCP_TRANSPORT", "")
	logLevel := env("LOG_LEVEL", "info")

	// Logging.
	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	// MCP stdio owns stdout; logs must not corrupt the JSON-RPC stream.
	logOut := os.Stdout
	if mcpTransport == "stdio" {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := &eksi.Config{}
	if configPath != "" {
		var err error
		cfg, err = eksi.LoadConfigFile(configPath)
		if err != nil {
			slog.Error("config", "path", configPath, "error", err)
			os.Exit(1)
		}
	}
	applyEnv(cfg)

	svc, err := eksi.Open(*cfg, logger)
	if err != nil {
		slog.Error("service", "error", err)
		os.Exit(1)
	}
	defer svc.Close()

	// MCP stdio mode: serve tools over stdin/stdout instead of HTTP.
	if mcpTransport == "stdio" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "eksirss",
			Version: "1.0.0",
		}, nil)
		svc.RegisterMCP(mcpSrv)
		slog.Info("MCP stdio starting")
		if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
			slog.Error("MCP stdio", "error", err)
			os.Exit(1)
		}
		return
	}

	// Router.
	r := chi.NewRouter()
	for _, mw := range shield.DefaultStack() {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		subs, err := svc.Subscriptions()
		if err != nil {
			renderError(w, 500, err)
			return
		}
		render(w, 200, "index.html", map[string]any{"Subscriptions": subs})
	})

	r.Post("/add", func(w http.ResponseWriter, r *http.Request) {
		topic := r.FormValue("topic")
		if _, err := svc.Subscribe(r.Context(), topic); err != nil {
			switch {
			case errors.Is(err, eksi.ErrInvalidInput), errors.Is(err, eksi.ErrTopicNotFound):
				renderError(w, 400, err)
			default:
				renderError(w, 500, err)
			}
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})

	r.Get("/remove/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Unsubscribe(chi.URLParam(r, "id")); err != nil {
			renderError(w, 500, err)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})

	r.Get("/feed/topic/{id}.xml", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		feed, err := svc.TopicFeed(r.Context(), svc.TopicURL(id), id, 0)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeFeed(w, feed)
	})

	r.Get("/feed/search/{term}.xml", func(w http.ResponseWriter, r *http.Request) {
		feed, err := svc.SearchFeed(r.Context(), chi.URLParam(r, "term"))
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeFeed(w, feed)
	})

	r.Get("/all.xml", func(w http.ResponseWriter, r *http.Request) {
		feed, err := svc.CombinedFeed(r.Context())
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeFeed(w, feed)
	})

	// HTTP server.
	srv := &http.Server{
		Addr:              host + ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// applyEnv lets the environment override file-based configuration.
func applyEnv(cfg *eksi.Config) {
	if v := os.Getenv("BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("DATA_FILE"); v != "" {
		cfg.SubscriptionsFile = v
	}
	if v := os.Getenv("FETCH_LOG_DB"); v != "" {
		cfg.FetchLogDB = v
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CacheTTL = d
		}
	}
	if v := os.Getenv("MAX_PAGES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxPages = n
		}
	}
	if v := os.Getenv("BROWSER"); v == "1" || v == "true" {
		cfg.Browser.Enabled = true
	}
	if v := os.Getenv("BROWSER_URL"); v != "" {
		cfg.Browser.RemoteURL = v
	}
}

// --- Helpers ---

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeFeed(w http.ResponseWriter, feed *eksi.Feed) {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	if err := eksi.WriteFeed(w, feed); err != nil {
		slog.Error("write feed", "error", err)
	}
}

func render(w http.ResponseWriter, code int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("render", "template", name, "error", err)
	}
}

func renderError(w http.ResponseWriter, code int, err error) {
	render(w, code, "error.html", map[string]any{"Error": err.Error()})
}
