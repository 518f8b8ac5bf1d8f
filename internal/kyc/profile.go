package kyc

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dheekshanaveen/agentic-lending-systems/internal/models"
)

// Name strategy identifiers, usable in profile files.
const (
	StrategyDOBWindow = "dob_window"
	StrategyHeader    = "header"
	StrategyRegion    = "region"
)

// Profile carries everything that differs between document types.
type Profile struct {
	Type models.DocumentType

	// NumberPattern finds the number in its printed form on upper-cased text.
	NumberPattern *regexp.Regexp
	// LoosePattern tolerates whitespace the OCR engine put between characters.
	LoosePattern *regexp.Regexp
	// NumberLayout is the compact shape of a valid number: 'A' is a letter,
	// '9' a digit. It drives validation and OCR confusion repair.
	NumberLayout string
	// TokenFallback enables scanning every alphanumeric token of layout length.
	TokenFallback bool
	// FormatNumber renders a compact, validated number in canonical form.
	FormatNumber func(compact string) string

	HeaderPhrase string
	AnchorPhrase string
	RejectWords  []string

	NameStrategies     []string
	ReconciledFields   []string
	TrustedNumberField models.DocumentType
}

// Profiles indexes profiles by document type.
type Profiles map[models.DocumentType]*Profile

// Lookup returns the profile for t, or a bare profile that runs only the
// layout-independent extractors when t is unknown.
func (ps Profiles) Lookup(t models.DocumentType) *Profile {
	if p, ok := ps[t]; ok && p != nil {
		return p
	}
	return &Profile{
		Type:               t,
		NameStrategies:     []string{StrategyDOBWindow},
		ReconciledFields:   allFields(),
		TrustedNumberField: t,
	}
}

func allFields() []string {
	return []string{models.FieldName, models.FieldDOB, models.FieldDocumentNumber, models.FieldAddress}
}

// DefaultProfiles returns the built-in Aadhaar and PAN profiles.
func DefaultProfiles() Profiles {
	return Profiles{
		models.DocumentAadhaar: {
			Type:          models.DocumentAadhaar,
			NumberPattern: regexp.MustCompile(`\b\d{4}\s\d{4}\s\d{4}\b`),
			LoosePattern:  regexp.MustCompile(`(?:^|[^\d])(\d(?:[ \t]*\d){11})(?:[^\d]|$)`),
			NumberLayout:  "999999999999",
			FormatNumber: func(c string) string {
				return c[0:4] + " " + c[4:8] + " " + c[8:12]
			},
			HeaderPhrase: "GOVERNMENT OF INDIA",
			RejectWords: []string{
				"GOVERNMENT", "INDIA", "UNIQUE", "AUTHORITY", "AADHAAR", "ENROLMENT",
				"FATHER", "MOTHER", "HUSBAND", "MALE", "FEMALE", "DOB", "BIRTH", "YEAR",
				"ADDRESS", "NAME",
			},
			NameStrategies:     []string{StrategyDOBWindow, StrategyHeader},
			ReconciledFields:   allFields(),
			TrustedNumberField: models.DocumentAadhaar,
		},
		models.DocumentPAN: {
			Type:          models.DocumentPAN,
			NumberPattern: regexp.MustCompile(`\b[A-Z]{5}[0-9]{4}[A-Z]\b`),
			LoosePattern:  regexp.MustCompile(`\b([A-Z](?:[ \t]*[A-Z]){4}[ \t]*[0-9](?:[ \t]*[0-9]){3}[ \t]*[A-Z])\b`),
			NumberLayout:  "AAAAA9999A",
			TokenFallback: true,
			FormatNumber:  func(c string) string { return c },
			HeaderPhrase:  "INCOME TAX",
			AnchorPhrase:  "INCOME TAX",
			RejectWords: []string{
				"INCOME", "TAX", "DEPARTMENT", "GOVT", "GOVERNMENT", "INDIA", "PERMANENT",
				"ACCOUNT", "NUMBER", "CARD", "SIGNATURE", "FATHER", "NAME", "DATE", "BIRTH",
			},
			// The father's name sits next to the DOB on PAN cards, so the DOB
			// window is not used here.
			NameStrategies:     []string{StrategyRegion, StrategyHeader},
			ReconciledFields:   []string{models.FieldName, models.FieldDOB, models.FieldDocumentNumber},
			TrustedNumberField: models.DocumentPAN,
		},
	}
}

// reconciles reports whether field is compared for this document type.
func (p *Profile) reconciles(field string) bool {
	for _, f := range p.ReconciledFields {
		if f == field {
			return true
		}
	}
	return false
}

// profileOverride is the YAML shape of one profile's tunables. Number
// patterns stay code-defined.
type profileOverride struct {
	HeaderPhrase       *string  `yaml:"header_phrase"`
	AnchorPhrase       *string  `yaml:"anchor_phrase"`
	RejectWords        []string `yaml:"reject_words"`
	NameStrategies     []string `yaml:"name_strategies"`
	ReconciledFields   []string `yaml:"reconciled_fields"`
	TrustedNumberField string   `yaml:"trusted_number_field"`
}

type profileFile struct {
	Profiles map[string]profileOverride `yaml:"profiles"`
}

// LoadProfiles reads overrides from a YAML file on top of DefaultProfiles.
// An empty path returns the defaults.
func LoadProfiles(path string) (Profiles, error) {
	if path == "" {
		return DefaultProfiles(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles file: %w", err)
	}
	return ParseProfiles(data)
}

// ParseProfiles applies YAML overrides to DefaultProfiles.
func ParseProfiles(data []byte) (Profiles, error) {
	var f profileFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	ps := DefaultProfiles()
	for name, o := range f.Profiles {
		t, ok := models.ParseDocumentType(name)
		if !ok {
			return nil, fmt.Errorf("profile %q: unknown document type", name)
		}
		p := ps[t]
		if o.HeaderPhrase != nil {
			p.HeaderPhrase = strings.ToUpper(strings.TrimSpace(*o.HeaderPhrase))
		}
		if o.AnchorPhrase != nil {
			p.AnchorPhrase = strings.ToUpper(strings.TrimSpace(*o.AnchorPhrase))
		}
		if o.RejectWords != nil {
			p.RejectWords = make([]string, 0, len(o.RejectWords))
			for _, w := range o.RejectWords {
				p.RejectWords = append(p.RejectWords, strings.ToUpper(strings.TrimSpace(w)))
			}
		}
		if o.NameStrategies != nil {
			for _, s := range o.NameStrategies {
				switch s {
				case StrategyDOBWindow, StrategyHeader, StrategyRegion:
				default:
					return nil, fmt.Errorf("profile %q: unknown name strategy %q", name, s)
				}
			}
			p.NameStrategies = o.NameStrategies
		}
		if o.ReconciledFields != nil {
			for _, fld := range o.ReconciledFields {
				switch fld {
				case models.FieldName, models.FieldDOB, models.FieldDocumentNumber, models.FieldAddress:
				default:
					return nil, fmt.Errorf("profile %q: unknown field %q", name, fld)
				}
			}
			p.ReconciledFields = o.ReconciledFields
		}
		if o.TrustedNumberField != "" {
			nt, ok := models.ParseDocumentType(o.TrustedNumberField)
			if !ok {
				return nil, fmt.Errorf("profile %q: unknown trusted number field %q", name, o.TrustedNumberField)
			}
			p.TrustedNumberField = nt
		}
	}
	return ps, nil
}
