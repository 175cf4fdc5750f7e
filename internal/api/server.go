package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/ryanbastic/go-pagegrid/internal/editor"
	"github.com/ryanbastic/go-pagegrid/internal/hook"
	"github.com/ryanbastic/go-pagegrid/internal/media"
	"github.com/ryanbastic/go-pagegrid/internal/metrics"
	"github.com/ryanbastic/go-pagegrid/internal/render"
	"github.com/ryanbastic/go-pagegrid/internal/service"
)

// Deps are the components the HTTP server is built from. Uploader and
// MediaDir may be empty to disable uploads; Notifier and Backends may be
// nil.
type Deps struct {
	Logger      *slog.Logger
	Pages       *service.PageService
	Sessions    *editor.Manager
	Renderer    *render.Renderer
	Hooks       *hook.Registry
	Notifier    *hook.Notifier
	Uploader    *media.Uploader
	MediaDir    string
	Backends    map[string]Pinger
	CORSOrigins []string
}

// NewServer creates an HTTP server with all routes configured.
func NewServer(d Deps) http.Handler {
	mux := chi.NewRouter()

	mux.Use(RequestID)
	mux.Use(Logging(d.Logger))
	mux.Use(Recovery(d.Logger))
	mux.Use(metrics.Metrics)

	config := huma.DefaultConfig("pagegrid", "1.0.0")
	config.Info.Description = "Grid page builder: pages, editing sessions and publish hooks."
	api := humachi.New(mux, config)

	pages := NewPageHandler(d.Pages, d.Renderer, d.Logger)
	sessions := NewSessionHandler(d.Sessions, d.Pages, d.Renderer, d.Logger)

	registerPageRoutes(api, pages)
	registerSessionRoutes(api, sessions)
	registerHookRoutes(api, NewHookHandler(d.Hooks, d.Notifier, d.Logger))
	registerHealthRoutes(api, NewHealthHandler(d.Backends, d.Logger))

	live := NewLiveHandler(d.Sessions, d.Pages, d.Renderer, d.CORSOrigins, d.Logger)
	mux.Get("/v1/sessions/{session_id}/live", live.ServeHTTP)
	mux.Get("/p/{slug}", pages.ServePublic)

	if d.Uploader != nil {
		mux.Post("/v1/media", NewMediaHandler(d.Uploader, d.Logger).Upload)
	}
	if d.MediaDir != "" {
		mux.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(d.MediaDir))))
	}
	mux.Handle("/metrics", promhttp.Handler())

	c := cors.New(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
	})
	return c.Handler(mux)
}
