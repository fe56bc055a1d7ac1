package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/api/handlers"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/api/middleware"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/config"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/vectorstore"
)

// Deps are the services the HTTP layer dispatches to.
type Deps struct {
	Documents handlers.DocumentService
	Videos    handlers.VideoService
	Webhooks  handlers.WebhookRecorder
	Vectors   vectorstore.Store
	Checks    map[string]handlers.Check
}

type Router struct {
	mux     *chi.Mux
	cfg     *config.Config
	deps    Deps
	limiter *middleware.RateLimiter
}

func NewRouter(cfg *config.Config, deps Deps) *Router {
	return &Router{
		mux:     chi.NewRouter(),
		cfg:     cfg,
		deps:    deps,
		limiter: middleware.NewRateLimiter(float64(cfg.Server.RateLimitRPS), cfg.Server.RateLimitBurst),
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.Server.AllowedOrigins))

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.deps.Checks)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	r.Route("/api/v1", func(r chi.Router) {
		// Called by the video API with its own bearer token, not on behalf of an owner.
		webhookH := handlers.NewVideoWebhookHandler(rt.deps.Webhooks, rt.cfg.VideoAPI.WebhookSecret)
		r.Post("/videos/complete", webhookH.Complete)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireOwner)
			r.Use(rt.limiter.Limit)

			docH := handlers.NewDocumentHandler(rt.deps.Documents)
			r.Route("/documents", func(r chi.Router) {
				r.Post("/", docH.Upload)
				r.Get("/", docH.List)
				r.Get("/{id}", docH.Get)
				r.Delete("/{id}", docH.Delete)
			})

			videoH := handlers.NewVideoHandler(rt.deps.Videos)
			r.Route("/videos", func(r chi.Router) {
				r.Post("/", videoH.Create)
				r.Get("/", videoH.List)
				r.Get("/{id}", videoH.Get)
				r.Delete("/{id}", videoH.Delete)
			})

			libraryH := handlers.NewLibraryHandler(rt.deps.Vectors)
			r.Post("/library/search", libraryH.Search)
		})
	})

	return r
}

// SweepVisitors drops idle rate limiter state until ctx is done.
func (rt *Router) SweepVisitors(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rt.limiter.Sweep(every)
		}
	}
}
