package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dheekshanaveen/agentic-lending-systems/internal/kyc"
	"github.com/dheekshanaveen/agentic-lending-systems/internal/models"
	"github.com/dheekshanaveen/agentic-lending-systems/internal/repository"
)

type kycStatusResp struct {
	AppID             string             `json:"app_id"`
	ApplicationStatus models.Status      `json:"application_status"`
	Documents         []models.KYCResult `json:"documents"`
	Overall           overall            `json:"overall"`
}

// GetKYCStatus: GET /agent/kyc/{app_id}
// Latest stored result per document plus their combined status.
func (h *Handler) GetKYCStatus(w http.ResponseWriter, r *http.Request) {
	app, ok := h.loadApplication(w, r)
	if !ok {
		return
	}
	resp, err := h.kycStatus(r, app)
	if err != nil {
		h.logger.Error("kyc status lookup failed", "app_id", app.AppID, "error", err)
		writeError(w, http.StatusInternalServerError, "Server_Error", "database error")
		return
	}
	writeJSONResp(w, http.StatusOK, resp)
}

func (h *Handler) kycStatus(r *http.Request, app models.Application) (kycStatusResp, error) {
	rows, err := h.store.LatestResults(r.Context(), app.AppID)
	if err != nil {
		return kycStatusResp{}, err
	}
	combined := kyc.Aggregate(resultsFromRows(rows)...)
	return kycStatusResp{
		AppID:             app.AppID,
		ApplicationStatus: app.Status,
		Documents:         rows,
		Overall:           overall{CombinedKYCStatus: combined.Status, IndividualStatuses: combined.Statuses},
	}, nil
}

func (h *Handler) loadApplication(w http.ResponseWriter, r *http.Request) (models.Application, bool) {
	appID := strings.TrimSpace(chi.URLParam(r, "app_id"))
	if appID == "" {
		writeError(w, http.StatusBadRequest, "Bad_Request", "missing app_id")
		return models.Application{}, false
	}
	app, err := h.store.GetApplication(r.Context(), appID)
	if errors.Is(err, repository.ErrApplicationNotFound) {
		writeError(w, http.StatusNotFound, "Not_Found", "Invalid application ID")
		return app, false
	}
	if err != nil {
		h.logger.Error("application lookup failed", "app_id", appID, "error", err)
		writeError(w, http.StatusInternalServerError, "Server_Error", "database error")
		return app, false
	}
	return app, true
}

// resultsFromRows rebuilds the verdict summaries the aggregator needs.
func resultsFromRows(rows []models.KYCResult) []models.ReconciliationResult {
	out := make([]models.ReconciliationResult, len(rows))
	for i, row := range rows {
		out[i] = models.ReconciliationResult{
			DocumentType: row.DocumentType,
			FailedFields: row.FailedFieldList(),
			Status:       row.KYCStatus,
			Message:      row.Message,
		}
	}
	return out
}
