package kyc

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
)

const (
	dobLayout       = "02/01/2006"
	maxAddressLines = 6
)

var (
	// OCR often glues the marker to the date ("DOB11/12/2006"), so the
	// marker only has to be followed by a non-letter.
	dobMarkerRe = regexp.MustCompile(`(?i)\bD\.?\s?O\.?\s?B(?:[^A-Za-z]|$)|\bDATE\s+OF\s+BIRTH\b`)
	dateRe      = regexp.MustCompile(`(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{4})`)
	exactDateRe = regexp.MustCompile(`^(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{4})$`)
	addressRe   = regexp.MustCompile(`(?i)\baddress\b[ \t]*[:\-]?`)
	alnumRe     = regexp.MustCompile(`[A-Z0-9]+`)
	spaceRe     = regexp.MustCompile(`\s+`)
)

// FindDOB returns the first valid date of birth as DD/MM/YYYY and the index
// of the marker line it was read from. Lines carrying a DOB marker are tried
// first; otherwise the first valid date anywhere in text is returned with
// index -1.
func FindDOB(lines []string, text string) (string, int) {
	for i, ln := range lines {
		if !dobMarkerRe.MatchString(ln) {
			continue
		}
		if d, ok := firstDate(ln); ok {
			return d, i
		}
	}
	if d, ok := firstDate(text); ok {
		return d, -1
	}
	return "", -1
}

// firstDate returns the first valid date in s. Matches running into other
// digits are part of a longer number and are skipped.
func firstDate(s string) (string, bool) {
	for _, m := range dateRe.FindAllStringSubmatchIndex(s, -1) {
		if m[0] > 0 && isDigit(s[m[0]-1]) || m[1] < len(s) && isDigit(s[m[1]]) {
			continue
		}
		if d, ok := normalizeDate(s[m[2]:m[3]], s[m[4]:m[5]], s[m[6]:m[7]]); ok {
			return d, true
		}
	}
	return "", false
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func normalizeDate(day, month, year string) (string, bool) {
	if len(day) == 1 {
		day = "0" + day
	}
	if len(month) == 1 {
		month = "0" + month
	}
	s := fmt.Sprintf("%s/%s/%s", day, month, year)
	if _, err := time.Parse(dobLayout, s); err != nil {
		return "", false
	}
	return s, true
}

// NormalizeDate canonicalizes a single date string such as "1-2-1990" to
// DD/MM/YYYY. It fails on anything that is not exactly one valid date.
func NormalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	m := exactDateRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return normalizeDate(m[1], m[2], m[3])
}

// FindDocumentNumber looks for the profile's number shape in three passes:
// the printed pattern, a whitespace-tolerant pattern and finally, when the
// profile allows it, single tokens with OCR look-alike characters repaired.
// The result is in canonical form, or empty.
func FindDocumentNumber(text string, p *Profile) string {
	if p == nil || p.NumberLayout == "" {
		return ""
	}
	up := strings.ToUpper(text)
	if p.NumberPattern != nil {
		for _, m := range p.NumberPattern.FindAllString(up, -1) {
			if n, ok := p.NormalizeNumber(m); ok {
				return n
			}
		}
	}
	if p.LoosePattern != nil {
		for _, m := range p.LoosePattern.FindAllStringSubmatch(up, -1) {
			if n, ok := p.NormalizeNumber(m[len(m)-1]); ok {
				return n
			}
		}
	}
	if p.TokenFallback {
		for _, tok := range alnumRe.FindAllString(up, -1) {
			if len(tok) != len(p.NumberLayout) {
				continue
			}
			if n, ok := p.NormalizeNumber(p.repair(tok)); ok {
				return n
			}
		}
	}
	return ""
}

// NormalizeNumber strips whitespace, upper-cases and validates s against the
// profile layout, returning the canonical rendering.
func (p *Profile) NormalizeNumber(s string) (string, bool) {
	c := compact(s)
	if c == "" || len(c) != len(p.NumberLayout) {
		return "", false
	}
	for i, r := range c {
		switch p.NumberLayout[i] {
		case 'A':
			if r < 'A' || r > 'Z' {
				return "", false
			}
		case '9':
			if r < '0' || r > '9' {
				return "", false
			}
		}
	}
	if p.FormatNumber == nil {
		return c, true
	}
	return p.FormatNumber(c), true
}

var (
	toLetter = map[byte]byte{'0': 'O', '1': 'I', '2': 'Z', '5': 'S', '6': 'G', '8': 'B'}
	toDigit  = map[byte]byte{'O': '0', 'D': '0', 'Q': '0', 'I': '1', 'L': '1', 'Z': '2', 'S': '5', 'G': '6', 'B': '8'}
)

// repair swaps characters commonly confused by OCR into the class the layout
// expects at each position.
func (p *Profile) repair(tok string) string {
	b := []byte(tok)
	for i := range b {
		switch p.NumberLayout[i] {
		case 'A':
			if r, ok := toLetter[b[i]]; ok {
				b[i] = r
			}
		case '9':
			if r, ok := toDigit[b[i]]; ok {
				b[i] = r
			}
		}
	}
	return string(b)
}

func compact(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, s)
}

// FindAddress returns the text following the first "address" marker, up to
// six lines, joined into one line. No marker yields "".
func FindAddress(text string) string {
	loc := addressRe.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	lines := strings.Split(text[loc[1]:], "\n")
	if len(lines) > maxAddressLines {
		lines = lines[:maxAddressLines]
	}
	parts := make([]string, 0, len(lines))
	for _, ln := range lines {
		if ln = strings.TrimSpace(ln); ln != "" {
			parts = append(parts, ln)
		}
	}
	return collapseSpaces(strings.Join(parts, " "))
}

func collapseSpaces(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
