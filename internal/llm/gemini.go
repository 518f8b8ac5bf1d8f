// Package llm asks Gemini for identity fields the rule-based extractor missed.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/dheekshanaveen/agentic-lending-systems/internal/models"
)

const DefaultModel = "gemini-2.0-flash-lite"

// NameSource marks a name that came from the model.
const NameSource = "llm"

// GenerateFunc sends a prompt and returns the raw model text.
type GenerateFunc func(ctx context.Context, prompt string) (string, error)

// Assistant fills empty extracted fields from raw OCR text.
type Assistant struct {
	generate GenerateFunc
	timeout  time.Duration
	logger   *slog.Logger
	closer   func() error
}

// New creates a Gemini-backed Assistant.
func New(ctx context.Context, apiKey, model string, timeout time.Duration, logger *slog.Logger) (*Assistant, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("missing GEMINI_API_KEY")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to init Gemini client: %w", err)
	}
	gm := client.GenerativeModel(model)
	// Ask Gemini to return JSON only
	gm.GenerationConfig = genai.GenerationConfig{ResponseMIMEType: "application/json"}

	a := NewWithGenerator(func(ctx context.Context, prompt string) (string, error) {
		resp, err := gm.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return "", fmt.Errorf("gemini generation failed: %w", err)
		}
		return responseText(resp)
	}, timeout, logger)
	a.closer = client.Close
	return a, nil
}

// NewWithGenerator builds an Assistant around any text generator.
func NewWithGenerator(gen GenerateFunc, timeout time.Duration, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{generate: gen, timeout: timeout, logger: logger}
}

func (a *Assistant) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer()
}

// FillMissing asks for the fields of f that are empty and copies back only
// those. The address is never requested: without a printed address marker it
// must stay empty. The boolean reports whether any field was filled. Callers must
// validate the returned values; nothing here checks their shape.
func (a *Assistant) FillMissing(ctx context.Context, ocrText string, f models.ExtractedFields) (models.ExtractedFields, bool, error) {
	missing := missingFields(f)
	if len(missing) == 0 || strings.TrimSpace(ocrText) == "" {
		return f, false, nil
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	raw, err := a.generate(ctx, buildPrompt(f.DocumentType, missing, ocrText))
	if err != nil {
		return f, false, err
	}
	vals, err := parseFields(raw)
	if err != nil {
		return f, false, err
	}

	filled := false
	set := func(dst *string, key string) {
		if *dst == "" && vals[key] != "" {
			*dst = vals[key]
			filled = true
		}
	}
	set(&f.Name, models.FieldName)
	set(&f.DateOfBirth, models.FieldDOB)
	set(&f.DocumentNumber, models.FieldDocumentNumber)
	if filled && f.NameSource == "" && f.Name != "" {
		f.NameSource = NameSource
	}
	a.logger.Debug("llm assist", "doc_type", f.DocumentType, "requested", missing, "filled", filled)
	return f, filled, nil
}

func missingFields(f models.ExtractedFields) []string {
	var out []string
	if f.Name == "" {
		out = append(out, models.FieldName)
	}
	if f.DateOfBirth == "" {
		out = append(out, models.FieldDOB)
	}
	if f.DocumentNumber == "" {
		out = append(out, models.FieldDocumentNumber)
	}
	return out
}

func buildPrompt(docType models.DocumentType, fields []string, ocrText string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = fmt.Sprintf("%q", f)
	}
	prompt := `You are an expert data extraction assistant. Extract fields from the following raw OCR text of an Indian [DOC] card and return them as one JSON object.

Rules:
1. The required fields are: [FIELDS].
2. "name" is the card holder's name, never a parent's name or a department heading.
3. "dob" must be formatted as DD/MM/YYYY.
4. "document_number" is the card number exactly as printed.
5. If a field cannot be found in the text, its value must be null. Do not guess.
6. Your entire response must be ONLY the JSON object.

Here is the raw text:
"""
[TEXT]
"""`
	r := strings.NewReplacer("[DOC]", strings.ToUpper(string(docType)), "[FIELDS]", strings.Join(quoted, ", "), "[TEXT]", ocrText)
	return r.Replace(prompt)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return "", errors.New("empty response from Gemini")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		} else {
			sb.WriteString(fmt.Sprint(part))
		}
	}
	return sb.String(), nil
}

// parseFields reads a model reply into trimmed string values. Nulls and
// missing keys come back as empty strings.
func parseFields(reply string) (map[string]string, error) {
	s := strings.TrimSpace(reply)
	if s == "" {
		return nil, errors.New("no text in Gemini response")
	}
	s = stripCodeFences(s)
	if candidate, ok := extractBalanced(s, '{', '}'); ok {
		s = candidate
	}

	var tmp map[string]any
	if err := json.Unmarshal([]byte(s), &tmp); err != nil {
		return nil, fmt.Errorf("failed to parse Gemini JSON: %w", err)
	}
	out := make(map[string]string, len(tmp))
	for k, v := range tmp {
		switch t := v.(type) {
		case nil:
		case string:
			if t = strings.TrimSpace(t); t != "" && !strings.EqualFold(t, "null") {
				out[k] = t
			}
		default:
			b, _ := json.Marshal(t)
			out[k] = strings.TrimSpace(string(b))
		}
	}
	return out, nil
}

// stripCodeFences removes surrounding Markdown code fences like ```json ... ```.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimSpace(strings.TrimPrefix(s, "```"))
	// a short first line is a language tag
	if i := strings.IndexByte(s, '\n'); i != -1 {
		if first := strings.TrimSpace(s[:i]); len(first) < 20 && !strings.ContainsAny(first, "{[") {
			s = s[i+1:]
		}
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func extractBalanced(s string, open, close rune) (string, bool) {
	start := -1
	depth := 0
	for i, r := range s {
		switch r {
		case open:
			if depth == 0 {
				start = i
			}
			depth++
		case close:
			if depth > 0 {
				depth--
				if depth == 0 && start != -1 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}
