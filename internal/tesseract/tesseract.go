// Package tesseract drives a local tesseract binary as an OCR engine.
package tesseract

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/dheekshanaveen/agentic-lending-systems/internal/models"
	"github.com/dheekshanaveen/agentic-lending-systems/internal/ocr"
)

const EngineName = "tesseract"

const (
	psmBlock      = 6 // uniform block of text
	psmSingleLine = 7
	wordLevel     = 5
)

type Config struct {
	Bin         string
	Lang        string
	TessdataDir string
}

// Engine runs tesseract on temporary image files.
type Engine struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Engine {
	return NewWithRunner(cfg, execRunner{}, logger)
}

func NewWithRunner(cfg Config, runner Runner, logger *slog.Logger) *Engine {
	if cfg.Bin == "" {
		cfg.Bin = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cfg: cfg, runner: runner, logger: logger}
}

func (e *Engine) Name() string { return EngineName }

// Recognize reads the full text, then the word boxes from TSV output.
func (e *Engine) Recognize(ctx context.Context, content []byte) (models.RecognizedDocument, error) {
	img, err := ocr.Decode(content)
	if err != nil {
		return models.RecognizedDocument{}, err
	}
	path, cleanup, err := writeTemp(content)
	if err != nil {
		return models.RecognizedDocument{}, err
	}
	defer cleanup()

	out, errb, err := e.runner.Run(ctx, e.cfg.Bin, e.logger, e.args(path, psmBlock)...)
	if err != nil {
		return models.RecognizedDocument{}, fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	text := strings.TrimSpace(string(out))
	if text == "" {
		return models.RecognizedDocument{}, ocr.ErrNoText
	}

	var tokens []models.Token
	var conf float64
	tsv, errb, err := e.runner.Run(ctx, e.cfg.Bin, e.logger, append(e.args(path, psmBlock), "tsv")...)
	if err != nil {
		e.logger.Warn("tesseract TSV failed, continuing without word boxes", "error", err, "stderr", truncate(string(errb), 512))
	} else {
		tokens, conf = parseTSV(string(tsv))
	}

	doc := models.NewRecognizedDocument(text, tokens).WithImage(img)
	doc.Confidence = conf
	return doc, nil
}

// RecognizeRegion reads r of img as a single text line.
func (e *Engine) RecognizeRegion(ctx context.Context, img image.Image, r image.Rectangle) (string, error) {
	crop, err := ocr.CropPNG(img, r)
	if err != nil {
		return "", err
	}
	path, cleanup, err := writeTemp(crop)
	if err != nil {
		return "", err
	}
	defer cleanup()

	out, errb, err := e.runner.Run(ctx, e.cfg.Bin, e.logger, e.args(path, psmSingleLine)...)
	if err != nil {
		return "", fmt.Errorf("tesseract region: %w: %s", err, truncate(string(errb), 512))
	}
	line := strings.Join(strings.Fields(string(out)), " ")
	if line == "" {
		return "", ocr.ErrNoText
	}
	return line, nil
}

// tesseract <file> stdout -l <lang> --psm <n> [--tessdata-dir <dir>]
func (e *Engine) args(path string, psm int) []string {
	args := []string{path, "stdout", "-l", e.cfg.Lang, "--psm", strconv.Itoa(psm)}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	return args
}

func writeTemp(content []byte) (string, func(), error) {
	f, err := os.CreateTemp("", "kyc-ocr-*.png")
	if err != nil {
		return "", nil, fmt.Errorf("create temp image: %w", err)
	}
	cleanup := func() { _ = os.Remove(f.Name()) }
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("write temp image: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp image: %w", err)
	}
	return f.Name(), cleanup, nil
}

// parseTSV extracts word boxes and the mean word confidence (0..1) from
// tesseract TSV output. Columns: level page block par line word left top
// width height conf text.
func parseTSV(out string) ([]models.Token, float64) {
	var tokens []models.Token
	var sum float64
	var n int
	for i, ln := range strings.Split(out, "\n") {
		if i == 0 || ln == "" {
			continue
		}
		cols := strings.Split(strings.TrimRight(ln, "\r"), "\t")
		if len(cols) < 12 {
			continue
		}
		if lvl, err := strconv.Atoi(cols[0]); err != nil || lvl != wordLevel {
			continue
		}
		text := strings.TrimSpace(cols[11])
		if text == "" {
			continue
		}
		nums := make([]int, 4)
		ok := true
		for k := range nums {
			v, err := strconv.Atoi(cols[6+k])
			if err != nil {
				ok = false
				break
			}
			nums[k] = v
		}
		if !ok {
			continue
		}
		tokens = append(tokens, models.Token{Text: text, Left: nums[0], Top: nums[1], Width: nums[2], Height: nums[3]})
		if c, err := strconv.ParseFloat(cols[10], 64); err == nil && c >= 0 {
			sum += c
			n++
		}
	}
	if n == 0 {
		return tokens, 0
	}
	return tokens, sum / float64(n) / 100
}
