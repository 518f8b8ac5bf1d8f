package kyc

import (
	"context"
	"regexp"
	"strings"

	"github.com/dheekshanaveen/agentic-lending-systems/internal/models"
)

var nameShapeRe = regexp.MustCompile(`^[A-Za-z][A-Za-z .]{2,}$`)

// NameInput is what every name strategy gets to look at.
type NameInput struct {
	Doc     models.RecognizedDocument
	DOBLine int // -1 when the DOB was not found on a marker line
	Profile *Profile
}

// NameStrategy is one tier of the name resolution pipeline.
type NameStrategy interface {
	Name() string
	ResolveName(ctx context.Context, in NameInput) (string, bool)
}

// ResolveName runs strategies in order and returns the first name found
// together with the strategy that produced it.
func ResolveName(ctx context.Context, in NameInput, strategies []NameStrategy) (name, source string) {
	for _, s := range strategies {
		if n, ok := s.ResolveName(ctx, in); ok {
			return n, s.Name()
		}
	}
	return "", ""
}

// dobWindow looks for the name on the lines around the DOB line: one line
// away first, then two, above before below.
type dobWindow struct{}

func (dobWindow) Name() string { return StrategyDOBWindow }

func (dobWindow) ResolveName(_ context.Context, in NameInput) (string, bool) {
	if in.DOBLine < 0 || in.DOBLine >= len(in.Doc.Lines) {
		return "", false
	}
	for _, off := range []int{-1, 1, -2, 2} {
		i := in.DOBLine + off
		if i < 0 || i >= len(in.Doc.Lines) {
			continue
		}
		if n, ok := validName(in.Doc.Lines[i], in.Profile); ok {
			return n, true
		}
	}
	return "", false
}

// headerLine takes the first non-empty line after the issuer header.
type headerLine struct{}

func (headerLine) Name() string { return StrategyHeader }

func (headerLine) ResolveName(_ context.Context, in NameInput) (string, bool) {
	if in.Profile == nil || in.Profile.HeaderPhrase == "" {
		return "", false
	}
	phrase := strings.ToUpper(in.Profile.HeaderPhrase)
	lines := in.Doc.Lines
	for i, ln := range lines {
		if !strings.Contains(strings.ToUpper(ln), phrase) {
			continue
		}
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == "" {
				continue
			}
			return validName(lines[j], in.Profile)
		}
		return "", false
	}
	return "", false
}

// validName trims s and accepts it if it looks like a person's name and
// contains none of the profile's label words.
func validName(s string, p *Profile) (string, bool) {
	s = collapseSpaces(s)
	if !nameShapeRe.MatchString(s) {
		return "", false
	}
	if p != nil && hasRejectWord(s, p.RejectWords) {
		return "", false
	}
	return s, true
}

func hasRejectWord(s string, words []string) bool {
	if len(words) == 0 {
		return false
	}
	for _, w := range strings.Fields(strings.ToUpper(strings.ReplaceAll(s, ".", " "))) {
		for _, r := range words {
			if w == r {
				return true
			}
		}
	}
	return false
}
