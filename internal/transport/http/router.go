package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/promo-claim/internal/config"
	"github.com/promo-claim/internal/transport/http/handler"
	appmiddleware "github.com/promo-claim/internal/transport/http/middleware"
)

// NewRouter builds and returns the kiosk router. Background work started here
// stops when ctx is done.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", handler.DeviceHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	proxies, err := appmiddleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		slog.Warn("ignoring invalid TRUSTED_PROXIES entries", "err", err)
	}
	// 1 submit/second per tablet, burst of 3.
	submitRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(1), 3, proxies)

	healthH := handler.NewHealthHandler()
	formH := handler.NewFormHandler(deps.Forms, deps.Handoff)
	previewH := handler.NewPreviewHandler(deps.Previews)
	resultH := handler.NewResultHandler(deps.Results, deps.Handoff)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)

		r.Post("/stores/{storeID}/forms", formH.Open)
		r.Route("/forms/{formID}", func(r chi.Router) {
			r.Get("/", formH.Get)
			r.Put("/fields", formH.UpdateFields)
			r.Put("/photo", formH.UploadPhoto)
			r.Post("/terms", formH.AcceptTerms)
			r.With(submitRL.Limit).Post("/submit", formH.Submit)
			r.Delete("/", formH.Delete)
		})

		r.Get("/previews/{previewID}", previewH.Get)
		r.Get("/result", resultH.Get)
	})

	return r
}
