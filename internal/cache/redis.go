// Package cache memoizes OCR results in Redis, keyed by the uploaded bytes.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dheekshanaveen/agentic-lending-systems/internal/metrics"
	"github.com/dheekshanaveen/agentic-lending-systems/internal/models"
	"github.com/dheekshanaveen/agentic-lending-systems/internal/ocr"
)

const keyPrefix = "kyc:ocr:"

// Lookup results reported to metrics.
const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultError = "error"
)

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

// CachedEngine wraps an ocr.Engine. Redis failures degrade to a direct call.
type CachedEngine struct {
	next    ocr.Engine
	client  redis.UniversalClient
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewCachedEngine(next ocr.Engine, client redis.UniversalClient, ttl time.Duration, m *metrics.Metrics, logger *slog.Logger) *CachedEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedEngine{next: next, client: client, ttl: ttl, metrics: m, logger: logger}
}

func (c *CachedEngine) Name() string { return c.next.Name() }

func (c *CachedEngine) Recognize(ctx context.Context, content []byte) (models.RecognizedDocument, error) {
	key := Key(c.next.Name(), content)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var doc models.RecognizedDocument
		uerr := json.Unmarshal(raw, &doc)
		if uerr == nil {
			c.metrics.IncrementCacheLookup(ResultHit)
			return c.attachImage(doc, content), nil
		}
		c.logger.Warn("ocr cache: corrupt entry", "key", key, "error", uerr)
		c.metrics.IncrementCacheLookup(ResultError)
	case errors.Is(err, redis.Nil):
		c.metrics.IncrementCacheLookup(ResultMiss)
	default:
		c.logger.Warn("ocr cache: lookup failed", "error", err)
		c.metrics.IncrementCacheLookup(ResultError)
	}

	doc, err := c.next.Recognize(ctx, content)
	if err != nil {
		return doc, err
	}
	if b, merr := json.Marshal(doc); merr == nil {
		if serr := c.client.Set(ctx, key, b, c.ttl).Err(); serr != nil {
			c.logger.Warn("ocr cache: store failed", "error", serr)
		}
	}
	return doc, nil
}

// RecognizeRegion is never cached; crops depend on the anchor found per call.
func (c *CachedEngine) RecognizeRegion(ctx context.Context, img image.Image, r image.Rectangle) (string, error) {
	return c.next.RecognizeRegion(ctx, img, r)
}

// attachImage restores the decoded image, which is not serialized.
func (c *CachedEngine) attachImage(doc models.RecognizedDocument, content []byte) models.RecognizedDocument {
	img, err := ocr.Decode(content)
	if err != nil {
		return doc
	}
	return doc.WithImage(img)
}

// Key derives the cache key from the engine name and image bytes.
func Key(engine string, content []byte) string {
	h := sha256.New()
	h.Write([]byte(engine))
	h.Write([]byte{0})
	h.Write(content)
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}
