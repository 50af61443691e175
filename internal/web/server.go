package web

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hpungsan/objdb/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

const shutdownTimeout = 5 * time.Second

// NewServer creates the HTTP server for the snapshot browser.
// An empty addr falls back to cfg.WebAddr.
func NewServer(db *sql.DB, cfg *config.Config, version, addr string, logger *slog.Logger) (*http.Server, error) {
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}

	renderer, err := NewRenderer(templateSub, version, logger)
	if err != nil {
		return nil, err
	}

	h := &Handlers{
		db:       db,
		cfg:      cfg,
		renderer: renderer,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/snapshots", http.StatusFound)
	})
	mux.HandleFunc("GET /snapshots", h.HandleList)
	mux.HandleFunc("GET /snapshots/{id}", h.HandleDetail)
	mux.HandleFunc("GET /snapshots/{id}/objects/{object}", h.HandleObject)
	mux.HandleFunc("GET /snapshots/{id}/document", h.HandleDocument)
	mux.HandleFunc("DELETE /snapshots/{id}", h.HandleDelete)
	mux.HandleFunc("POST /snapshots/purge", h.HandlePurge)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticSub)))

	if addr == "" && cfg != nil {
		addr = cfg.WebAddr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           securityHeaders(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// Run serves until SIGINT/SIGTERM, then shuts down gracefully.
func Run(srv *http.Server, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return serve(ctx, srv, logger)
}

// serve runs srv until ctx is done.
func serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("snapshot browser running", "url", "http://"+srv.Addr)
	if host := srv.Addr; strings.HasPrefix(host, "0.0.0.0") || strings.HasPrefix(host, "[::]") || strings.HasPrefix(host, ":") {
		logger.Warn("server is binding to all interfaces and may be accessible from the network", "addr", srv.Addr)
	}

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

