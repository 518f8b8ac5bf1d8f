package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/dheekshanaveen/agentic-lending-systems/internal/kyc"
	"github.com/dheekshanaveen/agentic-lending-systems/internal/models"
	"github.com/dheekshanaveen/agentic-lending-systems/internal/repository"
)

// Multipart field names per document type on /agent/ocr/both.
var uploadFields = []struct {
	field   string
	docType models.DocumentType
}{
	{"aadhaar_document", models.DocumentAadhaar},
	{"pan_document", models.DocumentPAN},
}

type documentOutcome struct {
	Parsed        models.ExtractedFields      `json:"parsed"`
	MatchResults  models.ReconciliationResult `json:"match_results"`
	KYCStatus     models.Status               `json:"kyc_status"`
	Message       string                      `json:"message"`
	OCREngine     string                      `json:"ocr_engine"`
	OCRConfidence float64                     `json:"ocr_confidence"`
	LLMAssisted   bool                        `json:"llm_assisted"`
	Error         string                      `json:"error,omitempty"`
}

type overall struct {
	CombinedKYCStatus  models.Status   `json:"combined_kyc_status"`
	IndividualStatuses []models.Status `json:"individual_statuses"`
}

type upload struct {
	docType models.DocumentType
	content []byte
}

// VerifyBoth: POST /agent/ocr/both
// multipart/form-data with "app_id" and optional "aadhaar_document", "pan_document"
func (h *Handler) VerifyBoth(w http.ResponseWriter, r *http.Request) {
	appID, ok := h.parseUploadForm(w, r)
	if !ok {
		return
	}

	var uploads []upload
	for _, f := range uploadFields {
		content, present, err := readUpload(r, f.field)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Bad_Request", err.Error())
			return
		}
		if present {
			uploads = append(uploads, upload{docType: f.docType, content: content})
		}
	}
	if len(uploads) == 0 {
		h.metrics.IncrementCombined(string(models.StatusUnknown))
		writeJSONResp(w, http.StatusBadRequest, map[string]any{
			"error":   "No documents provided. Provide at least aadhaar_document or pan_document.",
			"overall": overall{CombinedKYCStatus: models.StatusUnknown, IndividualStatuses: []models.Status{}},
		})
		return
	}

	rec, ok := h.loadTrustedRecord(w, r, appID)
	if !ok {
		return
	}

	outcomes := make([]documentOutcome, len(uploads))
	g, ctx := errgroup.WithContext(r.Context())
	for i, u := range uploads {
		g.Go(func() error {
			out, err := h.verifyOne(ctx, appID, u, rec)
			outcomes[i] = out
			return err
		})
	}
	if err := g.Wait(); err != nil {
		h.logger.Error("verification failed", "app_id", appID, "error", err)
		writeError(w, http.StatusInternalServerError, "Server_Error", "database error")
		return
	}

	results := make([]models.ReconciliationResult, len(outcomes))
	byType := make(map[models.DocumentType]documentOutcome, len(outcomes))
	for i, o := range outcomes {
		results[i] = o.MatchResults
		byType[uploads[i].docType] = o
	}
	combined := kyc.Aggregate(results...)
	h.metrics.IncrementCombined(string(combined.Status))
	if err := h.store.UpdateStatus(r.Context(), appID, combined.Status); err != nil {
		h.logger.Warn("application status not updated", "app_id", appID, "error", err)
	}

	writeJSONResp(w, http.StatusOK, map[string]any{
		"app_id":  appID,
		"results": byType,
		"overall": overall{CombinedKYCStatus: combined.Status, IndividualStatuses: combined.Statuses},
	})
}

// VerifyDocument: POST /agent/ocr/{doc_type}
// multipart/form-data with "app_id" and "document"
func (h *Handler) VerifyDocument(w http.ResponseWriter, r *http.Request) {
	docType, ok := models.ParseDocumentType(chi.URLParam(r, "doc_type"))
	if !ok {
		writeError(w, http.StatusNotFound, "Not_Found", "unsupported document type")
		return
	}
	appID, ok := h.parseUploadForm(w, r)
	if !ok {
		return
	}
	content, present, err := readUpload(r, "document")
	if err != nil || !present {
		msg := "missing file field 'document'"
		if err != nil {
			msg = err.Error()
		}
		writeError(w, http.StatusBadRequest, "Bad_Request", msg)
		return
	}
	rec, ok := h.loadTrustedRecord(w, r, appID)
	if !ok {
		return
	}

	out, err := h.verifyOne(r.Context(), appID, upload{docType: docType, content: content}, rec)
	if err != nil {
		h.logger.Error("verification failed", "app_id", appID, "error", err)
		writeError(w, http.StatusInternalServerError, "Server_Error", "database error")
		return
	}
	h.refreshApplicationStatus(r.Context(), appID)

	writeJSONResp(w, http.StatusOK, map[string]any{
		"app_id":        appID,
		"document_type": docType,
		"result":        out,
	})
}

// verifyOne runs OCR, extraction, the optional LLM fill and reconciliation
// for one upload and stores the outcome. OCR failures are reported in the
// outcome as a rejection; only persistence errors are returned.
func (h *Handler) verifyOne(ctx context.Context, appID string, u upload, rec models.TrustedRecord) (documentOutcome, error) {
	logger := h.logger.With("app_id", appID, "doc_type", u.docType)
	ocrCtx := ctx
	if h.ocrTimeout > 0 {
		var cancel context.CancelFunc
		ocrCtx, cancel = context.WithTimeout(ctx, h.ocrTimeout)
		defer cancel()
	}

	out := documentOutcome{OCREngine: h.engine.Name()}
	start := time.Now()
	doc, err := h.engine.Recognize(ocrCtx, u.content)
	h.metrics.ObserveOCRLatency(h.engine.Name(), time.Since(start))

	var fields models.ExtractedFields
	var result models.ReconciliationResult
	if err != nil {
		logger.Warn("ocr failed", "error", err)
		fields = models.ExtractedFields{DocumentType: u.docType}
		result = models.ReconciliationResult{
			DocumentType: u.docType,
			Verdicts:     []models.FieldVerdict{},
			FailedFields: []string{},
			Status:       models.StatusRejected,
			Message:      "OCR failed: " + err.Error(),
		}
		out.Error = err.Error()
	} else {
		fields = h.extractor.ExtractFields(ocrCtx, doc, u.docType)
		fields, out.LLMAssisted = h.assist(ocrCtx, doc.Text, fields, logger)
		result = h.reconciler.Reconcile(fields, rec)
		out.OCRConfidence = doc.Confidence
	}

	out.Parsed = fields
	out.MatchResults = result
	out.KYCStatus = result.Status
	out.Message = result.Message

	h.metrics.ObserveVerification(string(u.docType), string(result.Status), result.FailedFields)
	logger.Info("document verified", "status", result.Status, "failed_fields", result.FailedFields, "name_source", fields.NameSource)

	data := models.NewKYCData(appID, fields, out.OCREngine, out.OCRConfidence, out.LLMAssisted)
	if err := h.store.SaveVerification(ctx, data, models.NewKYCResult(appID, result)); err != nil {
		return out, fmt.Errorf("save %s verification: %w", u.docType, err)
	}
	return out, nil
}

// assist asks the LLM for missing fields. Its answers pass the same
// validation as extracted values; failures leave fields unchanged.
func (h *Handler) assist(ctx context.Context, text string, f models.ExtractedFields, logger *slog.Logger) (models.ExtractedFields, bool) {
	if h.assistant == nil {
		return f, false
	}
	filled, ok, err := h.assistant.FillMissing(ctx, text, f)
	if err != nil {
		logger.Warn("llm assist failed", "error", err)
		return f, false
	}
	if !ok {
		return f, false
	}
	filled = h.extractor.Sanitize(filled)
	if filled.Name == "" {
		filled.NameSource = f.NameSource
	}
	return filled, filled != f
}

// refreshApplicationStatus folds the latest stored result per document into
// the application status.
func (h *Handler) refreshApplicationStatus(ctx context.Context, appID string) {
	rows, err := h.store.LatestResults(ctx, appID)
	if err != nil {
		h.logger.Warn("latest results unavailable", "app_id", appID, "error", err)
		return
	}
	combined := kyc.Aggregate(resultsFromRows(rows)...)
	if err := h.store.UpdateStatus(ctx, appID, combined.Status); err != nil {
		h.logger.Warn("application status not updated", "app_id", appID, "error", err)
	}
}

func (h *Handler) parseUploadForm(w http.ResponseWriter, r *http.Request) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Bad_Request", "failed to parse form or file too large")
		return "", false
	}
	appID := strings.TrimSpace(r.FormValue("app_id"))
	if appID == "" {
		writeError(w, http.StatusBadRequest, "Bad_Request", "app_id is required")
		return "", false
	}
	return appID, true
}

func (h *Handler) loadTrustedRecord(w http.ResponseWriter, r *http.Request, appID string) (models.TrustedRecord, bool) {
	rec, err := h.store.TrustedRecord(r.Context(), appID)
	if errors.Is(err, repository.ErrApplicationNotFound) {
		writeError(w, http.StatusNotFound, "Not_Found", "Invalid application ID")
		return rec, false
	}
	if err != nil {
		h.logger.Error("trusted record lookup failed", "app_id", appID, "error", err)
		writeError(w, http.StatusInternalServerError, "Server_Error", "database error")
		return rec, false
	}
	return rec, true
}

// readUpload returns the bytes of the named file field. A missing field is
// not an error.
func readUpload(r *http.Request, field string) ([]byte, bool, error) {
	file, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("invalid file field %q", field)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil || len(content) == 0 {
		return nil, false, fmt.Errorf("failed to read uploaded file %q", field)
	}
	return content, true, nil
}
