// Package kyc reads identity fields out of recognized document text and
// reconciles them against an applicant's intake record.
//
// Everything here is synchronous and free of shared state. The only call out
// of the package is the optional RegionRecognizer, made at most once per
// document.
package kyc

import (
	"context"
	"log/slog"

	"github.com/dheekshanaveen/agentic-lending-systems/internal/models"
)

// Extractor turns a RecognizedDocument into ExtractedFields.
type Extractor struct {
	profiles   Profiles
	recognizer RegionRecognizer
	logger     *slog.Logger
}

// ExtractorOption customizes an Extractor.
type ExtractorOption func(*Extractor)

// WithProfiles replaces the built-in document profiles.
func WithProfiles(ps Profiles) ExtractorOption {
	return func(e *Extractor) {
		if ps != nil {
			e.profiles = ps
		}
	}
}

// WithRegionRecognizer enables the region strategy.
func WithRegionRecognizer(r RegionRecognizer) ExtractorOption {
	return func(e *Extractor) { e.recognizer = r }
}

// WithLogger sets the logger used for strategy diagnostics.
func WithLogger(l *slog.Logger) ExtractorOption {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		profiles: DefaultProfiles(),
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Profiles returns the profiles the extractor was built with.
func (e *Extractor) Profiles() Profiles { return e.profiles }

// ExtractFields never fails: fields that cannot be found are left empty.
func (e *Extractor) ExtractFields(ctx context.Context, doc models.RecognizedDocument, docType models.DocumentType) models.ExtractedFields {
	p := e.profiles.Lookup(docType)
	doc = withLines(doc)

	dob, dobLine := FindDOB(doc.Lines, doc.Text)
	name, source := ResolveName(ctx, NameInput{Doc: doc, DOBLine: dobLine, Profile: p}, e.strategies(p))

	f := models.ExtractedFields{
		DocumentType:   docType,
		Name:           name,
		NameSource:     source,
		DateOfBirth:    dob,
		DocumentNumber: FindDocumentNumber(doc.Text, p),
		Address:        FindAddress(doc.Text),
	}
	e.logger.Debug("fields extracted",
		"doc_type", docType,
		"name_source", source,
		"has_name", f.Name != "",
		"has_dob", f.DateOfBirth != "",
		"has_number", f.DocumentNumber != "",
		"has_address", f.Address != "",
	)
	return f
}

// withLines splits the text of a document built without lines. The copy keeps
// the engine's dimensions and confidence and never shares the token slice.
func withLines(doc models.RecognizedDocument) models.RecognizedDocument {
	if len(doc.Lines) > 0 || doc.Text == "" {
		return doc
	}
	rebuilt := models.NewRecognizedDocument(doc.Text, doc.Tokens)
	rebuilt.Width, rebuilt.Height, rebuilt.Confidence = doc.Width, doc.Height, doc.Confidence
	return rebuilt.WithImage(doc.Image)
}

func (e *Extractor) strategies(p *Profile) []NameStrategy {
	out := make([]NameStrategy, 0, len(p.NameStrategies))
	for _, s := range p.NameStrategies {
		switch s {
		case StrategyDOBWindow:
			out = append(out, dobWindow{})
		case StrategyHeader:
			out = append(out, headerLine{})
		case StrategyRegion:
			if e.recognizer != nil {
				out = append(out, regionBelowAnchor{recognizer: e.recognizer, logger: e.logger})
			}
		}
	}
	return out
}

// Sanitize clears any field of f that violates the extraction invariants:
// a date that is not a real DD/MM/YYYY date, a number of the wrong shape or a
// name that does not look like one. Used for values from less trusted
// sources such as the LLM assist.
func (e *Extractor) Sanitize(f models.ExtractedFields) models.ExtractedFields {
	p := e.profiles.Lookup(f.DocumentType)
	if f.DateOfBirth != "" {
		f.DateOfBirth, _ = NormalizeDate(f.DateOfBirth)
	}
	if f.DocumentNumber != "" {
		if p.NumberLayout == "" {
			f.DocumentNumber = ""
		} else {
			f.DocumentNumber, _ = p.NormalizeNumber(f.DocumentNumber)
		}
	}
	if f.Name != "" {
		f.Name, _ = validName(f.Name, p)
	}
	f.Address = collapseSpaces(f.Address)
	return f
}
