package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dheekshanaveen/agentic-lending-systems/internal/handlers"
	"github.com/dheekshanaveen/agentic-lending-systems/internal/middleware"
)

// Options configures the router. A nil Gatherer serves the default registry.
type Options struct {
	AllowedOrigins []string
	JWTSecret      []byte
	Gatherer       prometheus.Gatherer
	Logger         *slog.Logger
}

func RegisterRouter(h *handlers.Handler, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.CORSMiddleware(opts.AllowedOrigins))
	r.Use(middleware.LoggingMiddleware(opts.Logger))

	metricsHandler := promhttp.Handler()
	if opts.Gatherer != nil {
		metricsHandler = promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})
	}
	r.Get("/healthz", handlers.Healthz)
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	// Public status view (token required via query param)
	r.Get("/api/v1/kyc-status/{app_id}", h.GetSharedStatus)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(opts.JWTSecret, opts.Logger))
		r.Post("/apply", h.CreateApplication)
		r.Post("/apply/bulk", h.BulkUploadApplications)
		r.Get("/apply/{app_id}", h.GetApplication)

		r.Post("/agent/ocr/both", h.VerifyBoth)
		r.Post("/agent/ocr/{doc_type}", h.VerifyDocument)
		r.Get("/agent/kyc/{app_id}", h.GetKYCStatus)

		r.Post("/api/v1/kyc/{app_id}/share-link", h.GenerateShareLink)
		r.Get("/api/v1/kyc/{app_id}/qrcode", h.GetStatusQRCode)
	})
	return r
}
