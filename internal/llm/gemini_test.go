package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dheekshanaveen/agentic-lending-systems/internal/models"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripCodeFences(tt.in))
	}
}

func TestExtractBalanced(t *testing.T) {
	got, ok := extractBalanced(`Sure! {"a": {"b": 1}} trailing }`, '{', '}')
	require.True(t, ok)
	assert.Equal(t, `{"a": {"b": 1}}`, got)

	_, ok = extractBalanced("no json here", '{', '}')
	assert.False(t, ok)
}

func TestParseFields(t *testing.T) {
	vals, err := parseFields("```json\n{\"name\": \" Ravi Kumar \", \"dob\": null, \"document_number\": \"null\", \"age\": 34}\n```")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "Ravi Kumar", "age": "34"}, vals)

	_, err = parseFields("   ")
	assert.Error(t, err)
	_, err = parseFields("not json")
	assert.Error(t, err)
}

func TestBuildPrompt(t *testing.T) {
	p := buildPrompt(models.DocumentPAN, []string{"name", "dob"}, "INCOME TAX DEPARTMENT")
	assert.Contains(t, p, "Indian PAN card")
	assert.Contains(t, p, `"name", "dob"`)
	assert.Contains(t, p, "INCOME TAX DEPARTMENT")
	assert.NotContains(t, p, "[TEXT]")
}

func TestFillMissing(t *testing.T) {
	var prompt string
	a := NewWithGenerator(func(_ context.Context, p string) (string, error) {
		prompt = p
		return `{"name": "Ravi Kumar", "dob": "12/03/1990", "document_number": "ZZZZZ9999Z"}`, nil
	}, 0, nil)

	in := models.ExtractedFields{DocumentType: models.DocumentPAN, DocumentNumber: "ABCDE1234F"}
	out, filled, err := a.FillMissing(context.Background(), "some text", in)
	require.NoError(t, err)

	assert.True(t, filled)
	assert.Equal(t, "Ravi Kumar", out.Name)
	assert.Equal(t, NameSource, out.NameSource)
	assert.Equal(t, "12/03/1990", out.DateOfBirth)
	assert.Equal(t, "ABCDE1234F", out.DocumentNumber, "existing values are kept")
	assert.Empty(t, out.Address)
	assert.NotContains(t, prompt, `"document_number"`)
}

func TestFillMissing_NothingToDo(t *testing.T) {
	called := false
	a := NewWithGenerator(func(context.Context, string) (string, error) {
		called = true
		return "{}", nil
	}, 0, nil)

	full := models.ExtractedFields{Name: "A B", DateOfBirth: "01/01/1990", DocumentNumber: "X", Address: "Y"}
	out, filled, err := a.FillMissing(context.Background(), "text", full)
	require.NoError(t, err)
	assert.False(t, filled)
	assert.Equal(t, full, out)

	_, filled, err = a.FillMissing(context.Background(), "  ", models.ExtractedFields{})
	require.NoError(t, err)
	assert.False(t, filled)
	assert.False(t, called)
}

func TestFillMissing_GeneratorError(t *testing.T) {
	a := NewWithGenerator(func(context.Context, string) (string, error) {
		return "", errors.New("quota")
	}, 0, nil)

	in := models.ExtractedFields{DocumentType: models.DocumentAadhaar}
	out, filled, err := a.FillMissing(context.Background(), "text", in)
	assert.Error(t, err)
	assert.False(t, filled)
	assert.Equal(t, in, out)
	assert.NoError(t, a.Close())
}

func TestFillMissing_NeverFillsAddress(t *testing.T) {
	var prompt string
	a := NewWithGenerator(func(_ context.Context, p string) (string, error) {
		prompt = p
		return `{"name": "Ravi Kumar", "address": "12 MG Road, Bengaluru"}`, nil
	}, 0, nil)

	in := models.ExtractedFields{DocumentType: models.DocumentAadhaar, DateOfBirth: "12/03/1990", DocumentNumber: "1234 5678 9012"}
	out, filled, err := a.FillMissing(context.Background(), "GOVERNMENT OF INDIA", in)
	require.NoError(t, err)

	assert.True(t, filled)
	assert.Equal(t, "Ravi Kumar", out.Name)
	assert.Empty(t, out.Address)
	assert.NotContains(t, prompt, `"address"`)

	called := false
	b := NewWithGenerator(func(context.Context, string) (string, error) {
		called = true
		return `{"address": "x"}`, nil
	}, 0, nil)
	only := models.ExtractedFields{Name: "A B", DateOfBirth: "01/01/1990", DocumentNumber: "X"}
	out, filled, err = b.FillMissing(context.Background(), "text", only)
	require.NoError(t, err)
	assert.False(t, filled)
	assert.False(t, called)
	assert.Empty(t, out.Address)
}
