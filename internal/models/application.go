package models

import (
	"strings"
	"time"
)

// Application is the loan applicant's intake record. Its identity fields are
// the trusted side of every document reconciliation.
type Application struct {
	AppID      string    `gorm:"primaryKey;column:app_id;size:36" json:"application_id"`
	Name       string    `gorm:"not null" json:"name"`
	DOB        time.Time `gorm:"type:date;not null" json:"dob"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email"`
	Aadhaar    string    `gorm:"size:14;index" json:"aadhaar"`
	PAN        string    `gorm:"size:10;index" json:"pan"`
	Address    string    `json:"address"`
	Income     float64   `json:"income"`
	LoanAmount float64   `json:"loan_amount"`
	LoanTenure int       `json:"loan_tenure"`
	Status     Status    `gorm:"size:16;default:PENDING" json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// TrustedRecord exposes the applicant's identity fields to the reconciler.
func (a Application) TrustedRecord() TrustedRecord {
	nums := map[DocumentType]string{}
	if s := strings.TrimSpace(a.Aadhaar); s != "" {
		nums[DocumentAadhaar] = s
	}
	if s := strings.TrimSpace(a.PAN); s != "" {
		nums[DocumentPAN] = s
	}
	return TrustedRecord{
		Name:            a.Name,
		DateOfBirth:     a.DOB,
		Phone:           a.Phone,
		Email:           a.Email,
		DocumentNumbers: nums,
		Address:         a.Address,
	}
}

// KYCData is a snapshot of what was extracted from one document in one run.
// Rows are only ever appended.
type KYCData struct {
	ID               uint         `gorm:"primaryKey" json:"id"`
	AppID            string       `gorm:"size:36;index;not null" json:"application_id"`
	DocumentType     DocumentType `gorm:"size:16;not null" json:"document_type"`
	ExtractedName    string       `json:"extracted_name"`
	ExtractedDOB     string       `json:"extracted_dob"`
	ExtractedNumber  string       `json:"extracted_number"`
	ExtractedAddress string       `json:"extracted_address"`
	NameSource       string       `gorm:"size:32" json:"name_source"`
	OCREngine        string       `gorm:"size:32" json:"ocr_engine"`
	OCRConfidence    float64      `json:"ocr_confidence"`
	LLMAssisted      bool         `json:"llm_assisted"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

func (KYCData) TableName() string { return "kyc_data" }

// KYCResult is the stored verdict for one document in one run.
type KYCResult struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	AppID        string       `gorm:"size:36;index;not null" json:"application_id"`
	DocumentType DocumentType `gorm:"size:16;not null" json:"document_type"`
	KYCStatus    Status       `gorm:"size:16;not null" json:"kyc_status"`
	FailedFields string       `json:"failed_fields"`
	Message      string       `json:"message"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// NewKYCData snapshots extracted fields for persistence.
func NewKYCData(appID string, f ExtractedFields, engine string, confidence float64, llmAssisted bool) KYCData {
	return KYCData{
		AppID:            appID,
		DocumentType:     f.DocumentType,
		ExtractedName:    f.Name,
		ExtractedDOB:     f.DateOfBirth,
		ExtractedNumber:  f.DocumentNumber,
		ExtractedAddress: f.Address,
		NameSource:       f.NameSource,
		OCREngine:        engine,
		OCRConfidence:    confidence,
		LLMAssisted:      llmAssisted,
	}
}

// NewKYCResult converts a reconciliation result into its stored form.
func NewKYCResult(appID string, r ReconciliationResult) KYCResult {
	return KYCResult{
		AppID:        appID,
		DocumentType: r.DocumentType,
		KYCStatus:    r.Status,
		FailedFields: strings.Join(r.FailedFields, ","),
		Message:      r.Message,
	}
}

// FailedFieldList splits the stored failure list back out.
func (r KYCResult) FailedFieldList() []string {
	if r.FailedFields == "" {
		return []string{}
	}
	return strings.Split(r.FailedFields, ",")
}
