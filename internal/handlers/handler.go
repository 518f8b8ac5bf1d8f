package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dheekshanaveen/agentic-lending-systems/internal/kyc"
	"github.com/dheekshanaveen/agentic-lending-systems/internal/metrics"
	"github.com/dheekshanaveen/agentic-lending-systems/internal/models"
	"github.com/dheekshanaveen/agentic-lending-systems/internal/ocr"
	"github.com/dheekshanaveen/agentic-lending-systems/internal/repository"
)

// FieldAssistant fills fields the extractor left empty.
type FieldAssistant interface {
	FillMissing(ctx context.Context, ocrText string, f models.ExtractedFields) (models.ExtractedFields, bool, error)
}

// Deps wires a Handler. Assistant and Metrics are optional.
type Deps struct {
	Store      repository.Store
	Engine     ocr.Engine
	Extractor  *kyc.Extractor
	Reconciler *kyc.Reconciler
	Assistant  FieldAssistant
	Metrics    *metrics.Metrics
	Logger     *slog.Logger

	ShareSecret     []byte
	FrontendBaseURL string
	MaxUploadBytes  int64
	OCRTimeout      time.Duration
}

type Handler struct {
	store      repository.Store
	engine     ocr.Engine
	extractor  *kyc.Extractor
	reconciler *kyc.Reconciler
	assistant  FieldAssistant
	metrics    *metrics.Metrics
	logger     *slog.Logger

	shareSecret     []byte
	frontendBaseURL string
	maxUploadBytes  int64
	ocrTimeout      time.Duration
	now             func() time.Time
}

func New(d Deps) *Handler {
	h := &Handler{
		store:           d.Store,
		engine:          d.Engine,
		extractor:       d.Extractor,
		reconciler:      d.Reconciler,
		assistant:       d.Assistant,
		metrics:         d.Metrics,
		logger:          d.Logger,
		shareSecret:     d.ShareSecret,
		frontendBaseURL: d.FrontendBaseURL,
		maxUploadBytes:  d.MaxUploadBytes,
		ocrTimeout:      d.OCRTimeout,
		now:             time.Now,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.extractor == nil {
		h.extractor = kyc.NewExtractor(kyc.WithRegionRecognizer(d.Engine), kyc.WithLogger(h.logger))
	}
	if h.reconciler == nil {
		h.reconciler = kyc.NewReconciler(h.extractor.Profiles())
	}
	if h.maxUploadBytes <= 0 {
		h.maxUploadBytes = 10 << 20
	}
	if h.frontendBaseURL == "" {
		h.frontendBaseURL = "http://localhost:3000"
	}
	return h
}

func writeJSONResp(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSONResp(w, status, map[string]any{"status": code, "message": msg})
}

// Healthz is the liveness probe.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSONResp(w, http.StatusOK, map[string]string{"status": "ok"})
}
