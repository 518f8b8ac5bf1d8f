package kyc

import (
	"strings"
	"time"

	"github.com/dheekshanaveen/agentic-lending-systems/internal/models"
)

// Default match thresholds on the 0-100 similarity scale.
const (
	DefaultNameThreshold    = 70
	DefaultAddressThreshold = 60
)

// Comparison methods reported in field verdicts.
const (
	MethodRatio        = "levenshtein_ratio"
	MethodPartialRatio = "levenshtein_partial_ratio"
	MethodDateEqual    = "date_equal"
	MethodExactNumber  = "normalized_equal"
)

// Reconciler compares extracted fields against the applicant's trusted record.
type Reconciler struct {
	profiles         Profiles
	nameThreshold    int
	addressThreshold int
}

// ReconcilerOption customizes a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithThresholds overrides the name and address match thresholds. Values
// outside 1..100 are ignored.
func WithThresholds(name, address int) ReconcilerOption {
	return func(r *Reconciler) {
		if name > 0 && name <= 100 {
			r.nameThreshold = name
		}
		if address > 0 && address <= 100 {
			r.addressThreshold = address
		}
	}
}

// NewReconciler builds a Reconciler. A nil profiles map uses DefaultProfiles.
func NewReconciler(profiles Profiles, opts ...ReconcilerOption) *Reconciler {
	if profiles == nil {
		profiles = DefaultProfiles()
	}
	r := &Reconciler{
		profiles:         profiles,
		nameThreshold:    DefaultNameThreshold,
		addressThreshold: DefaultAddressThreshold,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Reconcile evaluates name, dob, document number and address in that order,
// skipping fields the document type does not carry. Missing or malformed
// values never match.
func (r *Reconciler) Reconcile(f models.ExtractedFields, rec models.TrustedRecord) models.ReconciliationResult {
	p := r.profiles.Lookup(f.DocumentType)

	verdicts := make([]models.FieldVerdict, 0, 4)
	failed := make([]string, 0, 4)
	add := func(v models.FieldVerdict) {
		verdicts = append(verdicts, v)
		if !v.Matched {
			failed = append(failed, v.Field)
		}
	}

	if p.reconciles(models.FieldName) {
		score := Ratio(f.Name, rec.Name)
		add(models.FieldVerdict{Field: models.FieldName, Method: MethodRatio, Score: score, Matched: score >= r.nameThreshold})
	}
	if p.reconciles(models.FieldDOB) {
		add(models.FieldVerdict{Field: models.FieldDOB, Method: MethodDateEqual, Matched: sameDate(f.DateOfBirth, rec.DateOfBirth)})
	}
	if p.reconciles(models.FieldDocumentNumber) {
		trusted := rec.DocumentNumbers[p.TrustedNumberField]
		add(models.FieldVerdict{Field: models.FieldDocumentNumber, Method: MethodExactNumber, Matched: sameNumber(f.DocumentNumber, trusted)})
	}
	if p.reconciles(models.FieldAddress) {
		score := PartialRatio(rec.Address, f.Address)
		add(models.FieldVerdict{Field: models.FieldAddress, Method: MethodPartialRatio, Score: score, Matched: score >= r.addressThreshold})
	}

	res := models.ReconciliationResult{
		DocumentType: f.DocumentType,
		Verdicts:     verdicts,
		FailedFields: failed,
		Status:       models.StatusApproved,
		Message:      "All fields matched",
	}
	if len(failed) > 0 {
		res.Status = models.StatusRejected
		res.Message = "Mismatch in: " + strings.Join(failed, ", ")
	}
	return res
}

func sameDate(extracted string, trusted time.Time) bool {
	if extracted == "" || trusted.IsZero() {
		return false
	}
	d, err := time.Parse(dobLayout, strings.TrimSpace(extracted))
	if err != nil {
		return false
	}
	ty, tm, td := trusted.Date()
	return d.Year() == ty && d.Month() == tm && d.Day() == td
}

func sameNumber(a, b string) bool {
	a, b = compact(a), compact(b)
	return a != "" && a == b
}
