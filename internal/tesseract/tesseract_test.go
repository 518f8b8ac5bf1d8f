package tesseract

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"log/slog"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dheekshanaveen/agentic-lending-systems/internal/models"
	"github.com/dheekshanaveen/agentic-lending-systems/internal/ocr"
)

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t1000\t600\t-1\t\n" +
	"4\t1\t1\t1\t1\t0\t100\t50\t300\t30\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t100\t50\t90\t30\t96.5\tINCOME\n" +
	"5\t1\t1\t1\t1\t2\t200\t50\t50\t30\t91.5\tTAX\n" +
	"5\t1\t1\t1\t1\t3\t260\t52\t140\t28\t-1\t \n"

type stubRunner struct {
	calls [][]string
	text  string
	tsv   string
	err   error
}

func (s *stubRunner) Run(_ context.Context, _ string, _ *slog.Logger, args ...string) ([]byte, []byte, error) {
	s.calls = append(s.calls, args)
	if s.err != nil {
		return nil, []byte("boom"), s.err
	}
	if slices.Contains(args, "tsv") {
		return []byte(s.tsv), nil, nil
	}
	return []byte(s.text), nil, nil
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1000, 600))))
	return buf.Bytes()
}

func TestParseTSV(t *testing.T) {
	tokens, conf := parseTSV(sampleTSV)

	require.Len(t, tokens, 2)
	assert.Equal(t, models.Token{Text: "INCOME", Left: 100, Top: 50, Width: 90, Height: 30}, tokens[0])
	assert.Equal(t, "TAX", tokens[1].Text)
	assert.InDelta(t, 0.94, conf, 1e-9)
}

func TestParseTSV_Garbage(t *testing.T) {
	tokens, conf := parseTSV("header\nnot\ttsv\n")
	assert.Empty(t, tokens)
	assert.Zero(t, conf)
}

func TestRecognize(t *testing.T) {
	r := &stubRunner{text: "INCOME TAX DEPARTMENT\nRAVI KUMAR\n", tsv: sampleTSV}
	e := NewWithRunner(Config{Lang: "eng", TessdataDir: "/tessdata"}, r, nil)

	doc, err := e.Recognize(context.Background(), pngBytes(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"INCOME TAX DEPARTMENT", "RAVI KUMAR"}, doc.Lines)
	assert.Len(t, doc.Tokens, 2)
	assert.Equal(t, 1000, doc.Width)
	assert.NotNil(t, doc.Image)
	require.Len(t, r.calls, 2)
	assert.Equal(t, []string{"stdout", "-l", "eng", "--psm", "6", "--tessdata-dir", "/tessdata"}, r.calls[0][1:])
	assert.Equal(t, "tsv", r.calls[1][len(r.calls[1])-1])
}

func TestRecognize_Errors(t *testing.T) {
	e := NewWithRunner(Config{}, &stubRunner{err: errors.New("exit status 1")}, nil)
	_, err := e.Recognize(context.Background(), pngBytes(t))
	assert.Error(t, err)

	e = NewWithRunner(Config{}, &stubRunner{text: "  \n"}, nil)
	_, err = e.Recognize(context.Background(), pngBytes(t))
	assert.ErrorIs(t, err, ocr.ErrNoText)

	_, err = e.Recognize(context.Background(), []byte("not an image"))
	assert.Error(t, err)
}

func TestRecognizeRegion(t *testing.T) {
	r := &stubRunner{text: "RAVI  KUMAR\n\n"}
	e := NewWithRunner(Config{}, r, nil)
	img := image.NewGray(image.Rect(0, 0, 1000, 600))

	line, err := e.RecognizeRegion(context.Background(), img, image.Rect(80, 86, 800, 212))
	require.NoError(t, err)
	assert.Equal(t, "RAVI KUMAR", line)
	require.Len(t, r.calls, 1)
	assert.Contains(t, r.calls[0], "7")
}
