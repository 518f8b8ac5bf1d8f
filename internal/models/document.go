package models

import (
	"image"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// DocumentType identifies which identity document a recognized text came from.
type DocumentType string

const (
	DocumentAadhaar DocumentType = "aadhaar"
	DocumentPAN     DocumentType = "pan"
)

// ParseDocumentType accepts the lower-case type names used in URLs and form fields.
func ParseDocumentType(s string) (DocumentType, bool) {
	switch DocumentType(strings.ToLower(strings.TrimSpace(s))) {
	case DocumentAadhaar:
		return DocumentAadhaar, true
	case DocumentPAN:
		return DocumentPAN, true
	}
	return "", false
}

// Token is one recognized word and its box on the source image, in pixels.
type Token struct {
	Text   string `json:"text"`
	Left   int    `json:"left"`
	Top    int    `json:"top"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Bounds returns the token box as an image rectangle.
func (t Token) Bounds() image.Rectangle {
	return image.Rect(t.Left, t.Top, t.Left+t.Width, t.Top+t.Height)
}

// RecognizedDocument is what an OCR engine produced for one uploaded image.
// Tokens, Image and the dimensions are optional; without them only the
// line-based extraction strategies run.
type RecognizedDocument struct {
	Text   string      `json:"text"`
	Lines  []string    `json:"lines"`
	Tokens []Token     `json:"tokens,omitempty"`
	Width  int         `json:"width,omitempty"`
	Height int         `json:"height,omitempty"`
	// Confidence is the engine's mean word confidence in [0,1], 0 if unknown.
	Confidence float64     `json:"confidence,omitempty"`
	Image      image.Image `json:"-"`
}

// NewRecognizedDocument normalizes raw engine text (NFKC, LF line endings) and
// splits it into lines. Empty lines are kept so line indices stay stable.
func NewRecognizedDocument(text string, tokens []Token) RecognizedDocument {
	text = norm.NFKC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	tokens = append([]Token(nil), tokens...)
	for i := range tokens {
		tokens[i].Text = norm.NFKC.String(tokens[i].Text)
	}
	return RecognizedDocument{
		Text:   text,
		Lines:  strings.Split(text, "\n"),
		Tokens: tokens,
	}
}

// WithImage attaches the decoded source image, used for region re-recognition.
func (d RecognizedDocument) WithImage(img image.Image) RecognizedDocument {
	d.Image = img
	if img != nil {
		b := img.Bounds()
		d.Width, d.Height = b.Dx(), b.Dy()
	}
	return d
}

// ExtractedFields holds the identity fields read off one document. An empty
// string means the field was not found.
type ExtractedFields struct {
	DocumentType   DocumentType `json:"document_type"`
	Name           string       `json:"name"`
	DateOfBirth    string       `json:"dob"` // DD/MM/YYYY
	DocumentNumber string       `json:"document_number"`
	Address        string       `json:"address"`
	NameSource     string       `json:"name_source,omitempty"`
}

// TrustedRecord is the applicant's own intake data that documents are checked against.
type TrustedRecord struct {
	Name            string                  `json:"name"`
	DateOfBirth     time.Time               `json:"dob"`
	Phone           string                  `json:"phone,omitempty"`
	Email           string                  `json:"email,omitempty"`
	DocumentNumbers map[DocumentType]string `json:"document_numbers"`
	Address         string                  `json:"address"`
}
