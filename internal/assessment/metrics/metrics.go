package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the assessment engine.
type Metrics struct {
	// Semi-structured columns that failed to decode, by field
	DecodeFailures *prometheus.CounterVec

	// Records read, by detected schema ("flattened", "legacy")
	SchemaReads *prometheus.CounterVec

	// Patterns attached to assessments, by pattern and source ("supplied", "computed")
	PatternsResolved *prometheus.CounterVec

	// Read-through cache lookups, by result ("hit", "miss", "error")
	CacheLookups *prometheus.CounterVec
}

// New creates a Metrics instance registered on reg. A nil reg registers on the
// default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		DecodeFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "flowcare_assessment_decode_failures_total",
			Help: "Semi-structured assessment columns that could not be decoded",
		}, []string{"field"}),

		SchemaReads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "flowcare_assessment_schema_reads_total",
			Help: "Assessment records reconstructed, by storage schema",
		}, []string{"schema"}),

		PatternsResolved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "flowcare_assessment_patterns_total",
			Help: "Patterns attached to assessments, by pattern and whether it was computed",
		}, []string{"pattern", "source"}),

		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "flowcare_assessment_cache_lookups_total",
			Help: "Assessment read cache lookups by result",
		}, []string{"result"}),
	}
}

// IncrementDecodeFailure records a column that degraded to an empty sequence.
func (m *Metrics) IncrementDecodeFailure(field string) {
	if m != nil {
		m.DecodeFailures.WithLabelValues(field).Inc()
	}
}

// IncrementSchemaRead records a reconstruction by schema.
func (m *Metrics) IncrementSchemaRead(schema string) {
	if m != nil {
		m.SchemaReads.WithLabelValues(schema).Inc()
	}
}

// IncrementPattern records a pattern attached to an assessment.
func (m *Metrics) IncrementPattern(pattern string, computed bool) {
	if m != nil {
		source := "supplied"
		if computed {
			source = "computed"
		}
		m.PatternsResolved.WithLabelValues(pattern, source).Inc()
	}
}

// IncrementCacheLookup records a cache lookup result.
func (m *Metrics) IncrementCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}
