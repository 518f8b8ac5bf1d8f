package googlevision

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"strings"

	vision "cloud.google.com/go/vision/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"

	"github.com/dheekshanaveen/agentic-lending-systems/internal/models"
	"github.com/dheekshanaveen/agentic-lending-systems/internal/ocr"
)

const EngineName = "vision"

// Client runs Google Cloud Vision text detection.
type Client struct {
	client *vision.ImageAnnotatorClient
	logger *slog.Logger
}

// New creates a Vision client. With an empty credentialsFile the ambient
// application default credentials are used.
func New(ctx context.Context, credentialsFile string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var (
		client *vision.ImageAnnotatorClient
		err    error
	)
	if credentialsFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credentialsFile))
	} else {
		client, err = vision.NewImageAnnotatorClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to init Vision client: %w", err)
	}
	return &Client{client: client, logger: logger}, nil
}

func (c *Client) Name() string { return EngineName }

func (c *Client) Close() error { return c.client.Close() }

// Recognize detects text and word boxes in an uploaded image.
func (c *Client) Recognize(ctx context.Context, content []byte) (models.RecognizedDocument, error) {
	anns, err := c.client.DetectTexts(ctx, &visionpb.Image{Content: content}, nil, 0)
	if err != nil {
		return models.RecognizedDocument{}, fmt.Errorf("vision text detection: %w", err)
	}
	doc, err := documentFromAnnotations(anns)
	if err != nil {
		return models.RecognizedDocument{}, err
	}

	// Vision accepts formats the stdlib cannot decode; region reads are then skipped.
	img, derr := ocr.Decode(content)
	if derr != nil {
		c.logger.Warn("vision: image not decodable locally", "error", derr)
		return doc, nil
	}
	c.logger.Debug("vision: text detected", "tokens", len(doc.Tokens), "lines", len(doc.Lines))
	return doc.WithImage(img), nil
}

// RecognizeRegion crops img to r and returns the detected text on one line.
func (c *Client) RecognizeRegion(ctx context.Context, img image.Image, r image.Rectangle) (string, error) {
	crop, err := ocr.CropPNG(img, r)
	if err != nil {
		return "", err
	}
	anns, err := c.client.DetectTexts(ctx, &visionpb.Image{Content: crop}, nil, 0)
	if err != nil {
		return "", fmt.Errorf("vision region detection: %w", err)
	}
	if len(anns) == 0 || strings.TrimSpace(anns[0].GetDescription()) == "" {
		return "", ocr.ErrNoText
	}
	return strings.Join(strings.Fields(anns[0].GetDescription()), " "), nil
}

// documentFromAnnotations maps a DetectTexts response: the first annotation
// is the full text, the rest are single words.
func documentFromAnnotations(anns []*visionpb.EntityAnnotation) (models.RecognizedDocument, error) {
	if len(anns) == 0 || strings.TrimSpace(anns[0].GetDescription()) == "" {
		return models.RecognizedDocument{}, ocr.ErrNoText
	}
	tokens := make([]models.Token, 0, len(anns)-1)
	var confSum float64
	var confN int
	for _, a := range anns[1:] {
		text := strings.TrimSpace(a.GetDescription())
		if text == "" {
			continue
		}
		tok, ok := tokenBox(a.GetBoundingPoly().GetVertices())
		if !ok {
			continue
		}
		tok.Text = text
		tokens = append(tokens, tok)
		if c := a.GetConfidence(); c > 0 {
			confSum += float64(c)
			confN++
		}
	}
	doc := models.NewRecognizedDocument(anns[0].GetDescription(), tokens)
	if confN > 0 {
		doc.Confidence = confSum / float64(confN)
	}
	return doc, nil
}

// tokenBox reduces a bounding polygon to its axis-aligned box.
func tokenBox(vs []*visionpb.Vertex) (models.Token, bool) {
	if len(vs) == 0 {
		return models.Token{}, false
	}
	minX, minY := int32(math.MaxInt32), int32(math.MaxInt32)
	maxX, maxY := int32(math.MinInt32), int32(math.MinInt32)
	for _, v := range vs {
		x, y := v.GetX(), v.GetY()
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
	}
	return models.Token{
		Left:   int(minX),
		Top:    int(minY),
		Width:  int(maxX - minX),
		Height: int(maxY - minY),
	}, true
}
