package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/dheekshanaveen/agentic-lending-systems/internal/models"
)

const bulkUploadLimit = 50 << 20

var requiredCSVHeaders = []string{"name", "dob", "phone", "email", "aadhaar_number", "pan", "address", "income", "loan_amount", "loan_tenure"}

// BulkUploadApplications: POST /apply/bulk
// multipart/form-data with a CSV file in "applications_csv". An optional
// app_id column keeps caller ids; rows whose id already exists are skipped.
func (h *Handler) BulkUploadApplications(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, bulkUploadLimit)
	if err := r.ParseMultipartForm(bulkUploadLimit); err != nil {
		writeError(w, http.StatusBadRequest, "Bad_Request", "failed to parse form")
		return
	}

	file, header, available, err := csvUpload(r)
	if err != nil {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{
			"error":               "applications_csv file is required",
			"expected_field":      "applications_csv",
			"available_file_keys": available,
		})
		return
	}
	defer file.Close()

	apps, err := readApplicationsCSV(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Bad_Request", err.Error())
		return
	}

	inserted, err := h.store.CreateApplications(r.Context(), apps)
	if err != nil {
		h.logger.Error("bulk upload failed", "file", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "Server_Error", "failed to import applications")
		return
	}
	duplicates := len(apps) - inserted
	h.logger.Info("bulk upload imported", "file", header.Filename, "inserted", inserted, "duplicates", duplicates)

	writeJSONResp(w, http.StatusOK, map[string]any{
		"message":            fmt.Sprintf("Successfully imported %d records. Skipped %d duplicates.", inserted, duplicates),
		"inserted":           inserted,
		"duplicates_skipped": duplicates,
		"file":               header.Filename,
	})
}

// csvUpload prefers "applications_csv", then a few common names, then the
// first file field of the form.
func csvUpload(r *http.Request) (multipart.File, *multipart.FileHeader, []string, error) {
	available := []string{}
	if r.MultipartForm != nil {
		for k := range r.MultipartForm.File {
			available = append(available, k)
		}
	}
	for _, name := range []string{"applications_csv", "applicationsCsv", "csv", "file", "upload"} {
		for _, k := range available {
			if strings.EqualFold(k, name) {
				f, hdr, err := r.FormFile(k)
				return f, hdr, available, err
			}
		}
	}
	if len(available) > 0 {
		f, hdr, err := r.FormFile(available[0])
		return f, hdr, available, err
	}
	return nil, nil, available, http.ErrMissingFile
}

// readApplicationsCSV parses and validates every row before anything is stored.
func readApplicationsCSV(src io.Reader) ([]models.Application, error) {
	reader := csv.NewReader(src)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // allow variable-length; we'll validate

	headers, err := reader.Read()
	if err != nil {
		return nil, errors.New("unable to read CSV header")
	}
	col := make(map[string]int, len(headers))
	for i, hd := range headers {
		col[strings.TrimSpace(strings.ToLower(hd))] = i
	}
	var missing []string
	for _, req := range requiredCSVHeaders {
		if _, ok := col[req]; !ok {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("invalid CSV format, missing columns: %s", strings.Join(missing, ", "))
	}

	var apps []models.Application
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d", line)
		}
		if len(rec) != len(headers) {
			return nil, fmt.Errorf("row %d does not match header length", line)
		}
		get := func(name string) string {
			if i, ok := col[name]; ok {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}

		req := applicationReq{
			Name:          get("name"),
			DOB:           get("dob"),
			Phone:         get("phone"),
			Email:         get("email"),
			AadhaarNumber: get("aadhaar_number"),
			PAN:           get("pan"),
			Address:       get("address"),
		}
		if req.Income, err = parseAmount(get("income")); err != nil {
			return nil, fmt.Errorf("row %d: invalid income", line)
		}
		if req.LoanAmount, err = parseAmount(get("loan_amount")); err != nil {
			return nil, fmt.Errorf("row %d: invalid loan_amount", line)
		}
		if s := get("loan_tenure"); s != "" {
			if req.LoanTenure, err = strconv.Atoi(s); err != nil {
				return nil, fmt.Errorf("row %d: invalid loan_tenure", line)
			}
		}

		app, err := req.toApplication()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		if id := get("app_id"); id != "" {
			if _, err := uuid.Parse(id); err != nil {
				return nil, fmt.Errorf("row %d: app_id must be a UUID", line)
			}
			app.AppID = id
		}
		apps = append(apps, app)
	}
	if len(apps) == 0 {
		return nil, errors.New("CSV has no rows")
	}
	return apps, nil
}

func parseAmount(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
