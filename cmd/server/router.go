package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ayush/nebula-feed/internal/auth"
	"github.com/ayush/nebula-feed/internal/config"
	"github.com/ayush/nebula-feed/internal/feed"
	"github.com/ayush/nebula-feed/internal/httpx"
	"github.com/ayush/nebula-feed/internal/metrics"
	"github.com/ayush/nebula-feed/internal/middleware"
)

type routerDeps struct {
	log      *slog.Logger
	cfg      *config.Config
	metrics  *metrics.Metrics
	sessions middleware.SessionResolver
	auth     *auth.Handler
	feed     *feed.Handler
	stream   http.Handler
	ready    func(ctx context.Context) error
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestInfo)
	r.Use(middleware.Logger(d.log, d.metrics))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Session(d.sessions, d.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{auth.SessionHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := d.ready(ctx); err != nil {
			d.log.WarnContext(r.Context(), "server.not_ready", "err", err)
			httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Method(http.MethodGet, "/metrics", d.metrics.Handler())

	requireSession := middleware.RequireSession(d.log)

	r.Route("/api", func(r chi.Router) {
		// Auth routes (public)
		r.Post("/register", d.auth.Register)
		r.Post("/login", d.auth.Login)
		r.Post("/logout", d.auth.Logout)
		r.With(requireSession).Get("/me", d.auth.Me)

		r.Route("/profile/{id}", func(r chi.Router) {
			r.Get("/", d.feed.GetProfile)
			r.Put("/", d.feed.UpdateProfile)
			r.Get("/avatar", d.feed.GetAvatar)
			r.Put("/avatar", d.feed.PutAvatar)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", d.feed.ListPosts)
			r.Post("/", d.feed.CreatePost)
			r.Get("/user/{userId}", d.feed.ListUserPosts)
			r.Method(http.MethodGet, "/stream", d.stream)
		})

		// Admin routes (capability checked per operation)
		r.Route("/admin", func(r chi.Router) {
			r.Get("/users", d.feed.ListAccounts)
			r.Get("/audit", d.feed.ListAudit)
		})
	})

	return r
}
