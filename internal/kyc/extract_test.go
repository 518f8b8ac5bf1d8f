package kyc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dheekshanaveen/agentic-lending-systems/internal/models"
)

const aadhaarText = "GOVERNMENT OF INDIA\n" +
	"Unique Identification Authority\n" +
	"\n" +
	"Photo\n" +
	"John A Smith\n" +
	"DOB 11/12/2006\n" +
	"MALE\n" +
	"1234 5678 9012"

func TestExtractFields_Aadhaar(t *testing.T) {
	e := NewExtractor()

	f := e.ExtractFields(context.Background(), models.NewRecognizedDocument(aadhaarText, nil), models.DocumentAadhaar)

	assert.Equal(t, models.DocumentAadhaar, f.DocumentType)
	assert.Equal(t, "John A Smith", f.Name)
	assert.Equal(t, StrategyDOBWindow, f.NameSource)
	assert.Equal(t, "11/12/2006", f.DateOfBirth)
	assert.Equal(t, "1234 5678 9012", f.DocumentNumber)
	assert.Equal(t, "", f.Address)
}

func TestExtractAndReconcile_EndToEnd(t *testing.T) {
	e := NewExtractor()
	r := NewReconciler(nil)
	rec := trustedRecord()

	f := e.ExtractFields(context.Background(), models.NewRecognizedDocument(aadhaarText, nil), models.DocumentAadhaar)
	res := r.Reconcile(f, rec)

	name, _ := res.Verdict(models.FieldName)
	dob, _ := res.Verdict(models.FieldDOB)
	num, _ := res.Verdict(models.FieldDocumentNumber)
	addr, _ := res.Verdict(models.FieldAddress)
	assert.True(t, name.Matched)
	assert.True(t, dob.Matched)
	assert.True(t, num.Matched)
	assert.False(t, addr.Matched)
	assert.Equal(t, models.StatusRejected, res.Status)
	assert.Equal(t, "Mismatch in: address", res.Message)
}

func TestExtractFields_NoDOBMeansDOBNeverMatches(t *testing.T) {
	e := NewExtractor()
	doc := models.NewRecognizedDocument("GOVERNMENT OF INDIA\nJohn A Smith\n1234 5678 9012", nil)

	f := e.ExtractFields(context.Background(), doc, models.DocumentAadhaar)
	res := NewReconciler(nil).Reconcile(f, trustedRecord())

	assert.Empty(t, f.DateOfBirth)
	assert.Contains(t, res.FailedFields, models.FieldDOB)
}

func TestExtractFields_PANWithoutRecognizer(t *testing.T) {
	text := "INCOME TAX DEPARTMENT GOVT. OF INDIA\nJOHN A SMITH\nFATHER SMITH\n11/12/2006\nPermanent Account Number\nABCDE 1234 F"
	e := NewExtractor()

	f := e.ExtractFields(context.Background(), models.NewRecognizedDocument(text, nil), models.DocumentPAN)
	res := NewReconciler(nil).Reconcile(f, trustedRecord())

	assert.Equal(t, "JOHN A SMITH", f.Name)
	assert.Equal(t, "11/12/2006", f.DateOfBirth)
	assert.Equal(t, "ABCDE1234F", f.DocumentNumber)
	assert.Equal(t, models.StatusApproved, res.Status)
}

func TestExtractFields_SplitsTextWhenLinesMissing(t *testing.T) {
	doc := models.RecognizedDocument{Text: aadhaarText}

	f := NewExtractor().ExtractFields(context.Background(), doc, models.DocumentAadhaar)

	assert.Equal(t, "John A Smith", f.Name)
}

func TestSanitize(t *testing.T) {
	e := NewExtractor()

	got := e.Sanitize(models.ExtractedFields{
		DocumentType:   models.DocumentPAN,
		Name:           "  Ravi   Kumar ",
		DateOfBirth:    "1-2-1990",
		DocumentNumber: "abcde 1234 f",
		Address:        " a   b ",
	})
	assert.Equal(t, "Ravi Kumar", got.Name)
	assert.Equal(t, "01/02/1990", got.DateOfBirth)
	assert.Equal(t, "ABCDE1234F", got.DocumentNumber)
	assert.Equal(t, "a b", got.Address)

	bad := e.Sanitize(models.ExtractedFields{
		DocumentType:   models.DocumentPAN,
		Name:           "INCOME TAX DEPARTMENT",
		DateOfBirth:    "31/02/1990",
		DocumentNumber: "12345",
	})
	assert.Empty(t, bad.Name)
	assert.Empty(t, bad.DateOfBirth)
	assert.Empty(t, bad.DocumentNumber)
}

func TestExtractFields_GluedDOBMarkerResolvesName(t *testing.T) {
	doc := models.NewRecognizedDocument("GOVERNMENT OF INDIA\nxx\nJohn A Smith\nDOB11/12/2006\nMALE", nil)

	f := NewExtractor().ExtractFields(context.Background(), doc, models.DocumentAadhaar)

	assert.Equal(t, "11/12/2006", f.DateOfBirth)
	assert.Equal(t, "John A Smith", f.Name)
	assert.Equal(t, StrategyDOBWindow, f.NameSource)
}

func TestExtractFields_DoesNotModifyInput(t *testing.T) {
	tokens := []models.Token{{Text: "ＩＮＣＯＭＥ", Left: 10, Top: 10, Width: 50, Height: 10}}
	doc := models.RecognizedDocument{Text: "ＩＮＣＯＭＥ TAX DEPARTMENT\nJOHN A SMITH", Tokens: tokens}

	NewExtractor().ExtractFields(context.Background(), doc, models.DocumentPAN)

	assert.Equal(t, "ＩＮＣＯＭＥ", tokens[0].Text)
	assert.Equal(t, "ＩＮＣＯＭＥ", doc.Tokens[0].Text)
	assert.Nil(t, doc.Lines)
}

func TestWithLines_KeepsDocumentMetadata(t *testing.T) {
	doc := models.RecognizedDocument{Text: "a\r\nb", Width: 640, Height: 400, Confidence: 0.87}

	got := withLines(doc)

	assert.Equal(t, []string{"a", "b"}, got.Lines)
	assert.Equal(t, 640, got.Width)
	assert.Equal(t, 400, got.Height)
	assert.InDelta(t, 0.87, got.Confidence, 1e-9)
	assert.Nil(t, doc.Lines)
}
