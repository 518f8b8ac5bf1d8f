package kyc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dheekshanaveen/agentic-lending-systems/internal/models"
)

func TestParseProfiles(t *testing.T) {
	data := []byte(`
profiles:
  pan:
    header_phrase: "income tax department"
    name_strategies: [header]
    reconciled_fields: [name, document_number]
    trusted_number_field: aadhaar
  aadhaar:
    reject_words: [guardian]
`)
	ps, err := ParseProfiles(data)
	require.NoError(t, err)

	pan := ps[models.DocumentPAN]
	assert.Equal(t, "INCOME TAX DEPARTMENT", pan.HeaderPhrase)
	assert.Equal(t, "INCOME TAX", pan.AnchorPhrase)
	assert.Equal(t, []string{StrategyHeader}, pan.NameStrategies)
	assert.Equal(t, []string{models.FieldName, models.FieldDocumentNumber}, pan.ReconciledFields)
	assert.Equal(t, models.DocumentAadhaar, pan.TrustedNumberField)
	assert.Equal(t, "AAAAA9999A", pan.NumberLayout)

	assert.Equal(t, []string{"GUARDIAN"}, ps[models.DocumentAadhaar].RejectWords)
}

func TestParseProfiles_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "unknown document", yaml: "profiles:\n  passport:\n    header_phrase: X\n"},
		{name: "unknown strategy", yaml: "profiles:\n  pan:\n    name_strategies: [guess]\n"},
		{name: "unknown field", yaml: "profiles:\n  pan:\n    reconciled_fields: [photo]\n"},
		{name: "unknown number field", yaml: "profiles:\n  pan:\n    trusted_number_field: gst\n"},
		{name: "malformed yaml", yaml: "profiles: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProfiles([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadProfiles(t *testing.T) {
	ps, err := LoadProfiles("")
	require.NoError(t, err)
	assert.Len(t, ps, 2)

	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profiles:\n  aadhaar:\n    header_phrase: uidai\n"), 0o600))
	ps, err = LoadProfiles(path)
	require.NoError(t, err)
	assert.Equal(t, "UIDAI", ps[models.DocumentAadhaar].HeaderPhrase)

	_, err = LoadProfiles(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultProfilesAreIndependent(t *testing.T) {
	a := DefaultProfiles()
	a[models.DocumentPAN].HeaderPhrase = "changed"
	assert.Equal(t, "INCOME TAX", DefaultProfiles()[models.DocumentPAN].HeaderPhrase)
}
