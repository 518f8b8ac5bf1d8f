package kyc

import "github.com/dheekshanaveen/agentic-lending-systems/internal/models"

// Aggregate folds per-document results into one status: UNKNOWN when nothing
// was verified, APPROVED only when every document was approved.
func Aggregate(results ...models.ReconciliationResult) models.CombinedVerificationResult {
	out := models.CombinedVerificationResult{
		Results:  append([]models.ReconciliationResult{}, results...),
		Statuses: make([]models.Status, 0, len(results)),
		Status:   models.StatusUnknown,
	}
	if len(results) == 0 {
		return out
	}
	out.Status = models.StatusApproved
	for _, r := range results {
		out.Statuses = append(out.Statuses, r.Status)
		if r.Status != models.StatusApproved {
			out.Status = models.StatusRejected
		}
	}
	return out
}
