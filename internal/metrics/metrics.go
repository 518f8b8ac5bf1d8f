package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for document verification.
type Metrics struct {
	// Per-document verdicts by document type and status
	Verifications *prometheus.CounterVec

	// Field mismatches by document type and field
	FieldMismatches *prometheus.CounterVec

	// Combined request outcomes
	CombinedStatus *prometheus.CounterVec

	// OCR latency by engine
	OCRLatency *prometheus.HistogramVec

	// OCR cache lookups by result ("hit", "miss", "error")
	CacheLookups *prometheus.CounterVec
}

// New creates a Metrics instance registered with the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the collectors with reg. Tests pass a fresh registry.
func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Verifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_verifications_total",
			Help: "Document verifications by document type and status",
		}, []string{"doc_type", "status"}),

		FieldMismatches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_field_mismatches_total",
			Help: "Fields that failed reconciliation by document type and field",
		}, []string{"doc_type", "field"}),

		CombinedStatus: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_combined_status_total",
			Help: "Combined verification outcomes per request",
		}, []string{"status"}),

		OCRLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kyc_ocr_duration_seconds",
			Help:    "Duration of OCR calls by engine",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"engine"}),

		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_ocr_cache_lookups_total",
			Help: "OCR cache lookups by result",
		}, []string{"result"}),
	}
}

// ObserveVerification records one document verdict and its failed fields.
func (m *Metrics) ObserveVerification(docType, status string, failed []string) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(docType, status).Inc()
	for _, f := range failed {
		m.FieldMismatches.WithLabelValues(docType, f).Inc()
	}
}

// IncrementCombined records a combined request outcome.
func (m *Metrics) IncrementCombined(status string) {
	if m != nil {
		m.CombinedStatus.WithLabelValues(status).Inc()
	}
}

// ObserveOCRLatency records the duration of one OCR call.
func (m *Metrics) ObserveOCRLatency(engine string, d time.Duration) {
	if m != nil {
		m.OCRLatency.WithLabelValues(engine).Observe(d.Seconds())
	}
}

// IncrementCacheLookup records an OCR cache lookup result.
func (m *Metrics) IncrementCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}
