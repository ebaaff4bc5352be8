// Package server assembles all HTTP handlers and starts the server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/bh-premnath-git/bhui-sub000/internal/catalog"
	"github.com/bh-premnath-git/bhui-sub000/internal/config"
	"github.com/bh-premnath-git/bhui-sub000/internal/handler"
	"github.com/bh-premnath-git/bhui-sub000/internal/render"
	"github.com/bh-premnath-git/bhui-sub000/internal/session"
	"github.com/bh-premnath-git/bhui-sub000/internal/wire"
)

// Config holds server configuration.
type Config struct {
	Port            int
	Schemas         *catalog.Registry
	Sessions        *session.Manager
	Options         render.Options
	CleanupInterval time.Duration
	ShutdownTimeout time.Duration
}

// NewRouter registers every route.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(handler.RequestID, handler.Recovery, handler.Logging)

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	sh := handler.NewSchemaHandler(cfg.Schemas, cfg.Options)
	r.Route("/v1/schemas", func(r chi.Router) {
		r.Get("/", sh.ListSchemas)
		r.Get("/{name}", sh.GetSchema)
		r.Post("/{name}/resolve", sh.Resolve)
		r.Post("/{name}/defaults", sh.Defaults)
		r.Post("/{name}/validate", sh.Validate)
		r.Post("/{name}/render", sh.Render)
	})

	r.Method(http.MethodGet, "/v1/forms/ws", wire.NewHandler(cfg.Schemas, cfg.Sessions, cfg.Options))
	return r
}

// Run starts the HTTP server and the session janitor, and shuts both down
// when ctx is done.
func Run(ctx context.Context, cfg Config) error {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Info().Str("addr", addr).Strs("schemas", cfg.Schemas.Names()).Msg("starting server")

	server := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go cfg.Sessions.Run(ctx, cfg.CleanupInterval)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("server shutdown")
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// FromConfig loads the schema catalog and builds the server configuration
// described by c.
func FromConfig(c config.Config) (Config, error) {
	reg := catalog.NewRegistry(c.ResolverCacheSize)
	if _, err := reg.LoadDir(c.SchemaDir); err != nil {
		return Config{}, fmt.Errorf("loading schemas: %w", err)
	}
	return Config{
		Port:            c.Port,
		Schemas:         reg,
		Sessions:        session.NewManager(c.Sessions.MaxAge, c.Sessions.Idle),
		Options:         c.Render,
		CleanupInterval: c.Sessions.CleanupInterval,
	}, nil
}
