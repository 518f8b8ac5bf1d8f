package models

// Status is the outcome of reconciling one document or a whole request.
type Status string

const (
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	StatusUnknown  Status = "UNKNOWN"
	StatusPending  Status = "PENDING"
)

// Field names as they appear in failure lists and messages.
const (
	FieldName           = "name"
	FieldDOB            = "dob"
	FieldDocumentNumber = "document_number"
	FieldAddress        = "address"
)

// FieldVerdict is the comparison outcome for a single field.
type FieldVerdict struct {
	Field   string `json:"field"`
	Matched bool   `json:"matched"`
	Method  string `json:"method"`
	Score   int    `json:"score,omitempty"`
}

// ReconciliationResult is built once per document per verification run.
type ReconciliationResult struct {
	DocumentType DocumentType   `json:"document_type"`
	Verdicts     []FieldVerdict `json:"verdicts"`
	FailedFields []string       `json:"failed_fields"`
	Status       Status         `json:"status"`
	Message      string         `json:"message"`
}

// Verdict returns the verdict for field, if it was evaluated.
func (r ReconciliationResult) Verdict(field string) (FieldVerdict, bool) {
	for _, v := range r.Verdicts {
		if v.Field == field {
			return v, true
		}
	}
	return FieldVerdict{}, false
}

// CombinedVerificationResult folds the per-document results of one request.
type CombinedVerificationResult struct {
	Results  []ReconciliationResult `json:"results"`
	Statuses []Status               `json:"statuses"`
	Status   Status                 `json:"status"`
}
