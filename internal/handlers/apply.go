package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dheekshanaveen/agentic-lending-systems/internal/models"
	"github.com/dheekshanaveen/agentic-lending-systems/internal/repository"
)

// Intake date layouts, tried after separators are normalized to '-'.
var intakeDateLayouts = []string{
	"2006-1-2",
	"2-1-2006",
}

var dateSepRe = regexp.MustCompile(`[/\s.]`)

var errBadDOB = errors.New("DOB must be in one of: YYYY-MM-DD, DD-MM-YYYY, DD/MM/YYYY or YYYY/MM/DD")

type applicationReq struct {
	Name          string  `json:"name"`
	DOB           string  `json:"dob"`
	Phone         string  `json:"phone"`
	Email         string  `json:"email"`
	AadhaarNumber string  `json:"aadhaar_number"`
	PAN           string  `json:"pan"`
	Address       string  `json:"address"`
	Income        float64 `json:"income"`
	LoanAmount    float64 `json:"loan_amount"`
	LoanTenure    int     `json:"loan_tenure"`
}

// parseIntakeDOB accepts YYYY-MM-DD, DD-MM-YYYY, DD/MM/YYYY and YYYY/MM/DD.
func parseIntakeDOB(s string) (time.Time, error) {
	s = dateSepRe.ReplaceAllString(strings.TrimSpace(s), "-")
	for _, layout := range intakeDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errBadDOB
}

func (req applicationReq) toApplication() (models.Application, error) {
	var missing []string
	if strings.TrimSpace(req.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(req.DOB) == "" {
		missing = append(missing, "dob")
	}
	if strings.TrimSpace(req.AadhaarNumber) == "" {
		missing = append(missing, "aadhaar_number")
	}
	if strings.TrimSpace(req.Address) == "" {
		missing = append(missing, "address")
	}
	if len(missing) > 0 {
		return models.Application{}, fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	dob, err := parseIntakeDOB(req.DOB)
	if err != nil {
		return models.Application{}, err
	}
	return models.Application{
		AppID:      uuid.NewString(),
		Name:       strings.TrimSpace(req.Name),
		DOB:        dob,
		Phone:      strings.TrimSpace(req.Phone),
		Email:      strings.TrimSpace(req.Email),
		Aadhaar:    strings.TrimSpace(req.AadhaarNumber),
		PAN:        strings.ToUpper(strings.TrimSpace(req.PAN)),
		Address:    strings.TrimSpace(req.Address),
		Income:     req.Income,
		LoanAmount: req.LoanAmount,
		LoanTenure: req.LoanTenure,
		Status:     models.StatusPending,
	}, nil
}

// CreateApplication: POST /apply
func (h *Handler) CreateApplication(w http.ResponseWriter, r *http.Request) {
	var req applicationReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad_Request", "invalid JSON body")
		return
	}
	app, err := req.toApplication()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Bad_Request", err.Error())
		return
	}
	if err := h.store.CreateApplication(r.Context(), &app); err != nil {
		if errors.Is(err, repository.ErrDuplicateApplication) {
			writeError(w, http.StatusConflict, "Conflict", "application already exists")
			return
		}
		h.logger.Error("create application failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Server_Error", "database error")
		return
	}
	h.logger.Info("application received", "app_id", app.AppID)
	writeJSONResp(w, http.StatusCreated, map[string]any{
		"application_id": app.AppID,
		"status":         "Application Received",
	})
}

// GetApplication: GET /apply/{app_id}
func (h *Handler) GetApplication(w http.ResponseWriter, r *http.Request) {
	app, ok := h.loadApplication(w, r)
	if !ok {
		return
	}
	writeJSONResp(w, http.StatusOK, app)
}
