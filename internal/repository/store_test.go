package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dheekshanaveen/agentic-lending-systems/internal/models"
)

func TestLatestPerDocument(t *testing.T) {
	rows := []models.KYCResult{
		{ID: 5, DocumentType: models.DocumentPAN, KYCStatus: models.StatusApproved},
		{ID: 4, DocumentType: models.DocumentAadhaar, KYCStatus: models.StatusRejected},
		{ID: 3, DocumentType: models.DocumentPAN, KYCStatus: models.StatusRejected},
		{ID: 1, DocumentType: models.DocumentAadhaar, KYCStatus: models.StatusApproved},
	}

	got := latestPerDocument(rows)

	assert.Len(t, got, 2)
	assert.Equal(t, uint(4), got[0].ID)
	assert.Equal(t, models.DocumentAadhaar, got[0].DocumentType)
	assert.Equal(t, uint(5), got[1].ID)
	assert.Empty(t, latestPerDocument(nil))
}
