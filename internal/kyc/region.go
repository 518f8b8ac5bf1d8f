package kyc

import (
	"context"
	"image"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dheekshanaveen/agentic-lending-systems/internal/models"
)

// Crop geometry relative to the anchor box, as fractions of the image size.
const (
	cropTopGap      = 0.01
	cropDepth       = 0.22
	cropLeftMargin  = 0.02
	cropRightMargin = 0.55

	minCropWidth  = 20
	minCropHeight = 8

	// extra tokens an anchor run may span beyond the words of the phrase
	anchorSlack = 2
)

var (
	regionJunkRe  = regexp.MustCompile(`[^A-Za-z\s.&\-']`)
	regionShapeRe = regexp.MustCompile(`^[A-Za-z][A-Za-z .&'\-]{2,}$`)
)

// RegionRecognizer re-runs recognition on a sub-rectangle of an image and
// returns a single line of text.
type RegionRecognizer interface {
	RecognizeRegion(ctx context.Context, img image.Image, r image.Rectangle) (string, error)
}

// RegionRecognizerFunc adapts a function to RegionRecognizer.
type RegionRecognizerFunc func(ctx context.Context, img image.Image, r image.Rectangle) (string, error)

func (f RegionRecognizerFunc) RecognizeRegion(ctx context.Context, img image.Image, r image.Rectangle) (string, error) {
	return f(ctx, img, r)
}

// regionBelowAnchor reads the name from the strip printed under the anchor
// phrase. It calls the recognizer at most once.
type regionBelowAnchor struct {
	recognizer RegionRecognizer
	logger     *slog.Logger
}

func (regionBelowAnchor) Name() string { return StrategyRegion }

func (s regionBelowAnchor) ResolveName(ctx context.Context, in NameInput) (string, bool) {
	if s.recognizer == nil || in.Profile == nil || in.Profile.AnchorPhrase == "" {
		return "", false
	}
	doc := in.Doc
	if doc.Image == nil || len(doc.Tokens) == 0 {
		return "", false
	}
	anchor, ok := FindAnchor(doc.Tokens, in.Profile.AnchorPhrase)
	if !ok {
		s.logger.Debug("region anchor not found", "anchor", in.Profile.AnchorPhrase)
		return "", false
	}
	crop, ok := CropBelow(anchor, doc.Image.Bounds())
	if !ok {
		s.logger.Debug("region crop too small", "anchor", anchor.String())
		return "", false
	}
	raw, err := s.recognizer.RecognizeRegion(ctx, doc.Image, crop)
	if err != nil {
		s.logger.Warn("region recognition failed", "error", err, "crop", crop.String())
		return "", false
	}
	name := CleanRegionName(raw)
	if !regionShapeRe.MatchString(name) || hasRejectWord(name, in.Profile.RejectWords) {
		s.logger.Debug("region text rejected", "text", raw)
		return "", false
	}
	return name, true
}

// FindAnchor locates phrase among adjacent tokens, case-insensitively and
// tolerating the engine splitting or merging words. It returns the union of
// the boxes of the shortest matching run, preferring the earliest.
func FindAnchor(tokens []models.Token, phrase string) (image.Rectangle, bool) {
	want := strings.ToUpper(strings.TrimSpace(phrase))
	if want == "" {
		return image.Rectangle{}, false
	}
	wantTight := strings.ReplaceAll(want, " ", "")
	maxRun := len(strings.Fields(want)) + anchorSlack

	for n := 1; n <= maxRun; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			run := tokens[i : i+n]
			words := make([]string, n)
			for k, t := range run {
				words[k] = strings.ToUpper(strings.TrimSpace(t.Text))
			}
			spaced := strings.Join(words, " ")
			tight := strings.Join(words, "")
			if !strings.Contains(spaced, want) && !strings.Contains(tight, wantTight) {
				continue
			}
			r := run[0].Bounds()
			for _, t := range run[1:] {
				r = r.Union(t.Bounds())
			}
			return r, true
		}
	}
	return image.Rectangle{}, false
}

// CropBelow derives the strip under anchor where the holder's name is printed,
// clamped to bounds. Strips too small to hold a line of text are rejected.
func CropBelow(anchor, bounds image.Rectangle) (image.Rectangle, bool) {
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, false
	}
	r := image.Rect(
		anchor.Min.X-int(cropLeftMargin*w),
		anchor.Max.Y+int(cropTopGap*h),
		anchor.Max.X+int(cropRightMargin*w),
		anchor.Max.Y+int(cropDepth*h),
	).Intersect(bounds)
	if r.Dx() < minCropWidth || r.Dy() < minCropHeight {
		return image.Rectangle{}, false
	}
	return r, true
}

// CleanRegionName strips everything but name characters, collapses spaces and
// fixes case word by word: single letters are initials, other words are
// capitalized.
func CleanRegionName(s string) string {
	s = collapseSpaces(regionJunkRe.ReplaceAllString(s, " "))
	if s == "" {
		return ""
	}
	title := cases.Title(language.Und)
	words := strings.Fields(s)
	for i, w := range words {
		if len(w) == 1 {
			words[i] = strings.ToUpper(w)
			continue
		}
		words[i] = title.String(w)
	}
	return strings.Join(words, " ")
}
