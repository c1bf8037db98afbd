// Package legacy routes stored assessments to the right reconstruction path.
//
// The assessments table has held two shapes over time: an early one that kept
// every answer inside a single assessment_data JSON blob, and the current one
// with a column per answer. The schema is resolved once per record and the
// record is rebuilt by the matching path. Nothing is migrated here.
package legacy

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"

	"flowcare/internal/assessment/classifier"
	"flowcare/internal/assessment/codec"
	"flowcare/internal/assessment/metrics"
	"flowcare/internal/assessment/models"
	"flowcare/internal/assessment/transform"
)

// SchemaVersion identifies the storage shape of a record.
type SchemaVersion int

const (
	SchemaFlattened SchemaVersion = iota
	SchemaLegacy
)

func (v SchemaVersion) String() string {
	if v == SchemaLegacy {
		return "legacy"
	}
	return "flattened"
}

// DetectSchema reports SchemaLegacy for records with a non-blank blob column.
func DetectSchema(rec *models.StorageRecord) SchemaVersion {
	if rec != nil && rec.AssessmentData != nil && strings.TrimSpace(*rec.AssessmentData) != "" {
		return SchemaLegacy
	}
	return SchemaFlattened
}

const fieldBlob = "assessment_data"

// Adapter reconstructs API views from storage records of either schema.
type Adapter struct {
	codec   *codec.Codec
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Adapter)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Adapter) {
		a.metrics = m
	}
}

// NewAdapter constructs an Adapter decoding columns through c.
func NewAdapter(c *codec.Codec, opts ...Option) *Adapter {
	a := &Adapter{codec: c, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Reconstruct rebuilds the API view of rec. A nil record yields nil.
func (a *Adapter) Reconstruct(rec *models.StorageRecord) *View {
	if rec == nil {
		return nil
	}
	schema := DetectSchema(rec)
	a.metrics.IncrementSchemaRead(schema.String())

	switch schema {
	case SchemaLegacy:
		return NewLegacyView(a.reconstructLegacy(rec))
	default:
		return NewFlattenedView(transform.ToAPI(a.codec, rec))
	}
}

// reconstructLegacy rebuilds the nested view. Each piece of the blob is
// decoded on its own so one bad sub-field cannot blank the others. Pieces the
// blob lacks fall back to the flattened columns of the same row.
func (a *Adapter) reconstructLegacy(rec *models.StorageRecord) *models.LegacyAssessment {
	blob := a.parseObject(*rec.AssessmentData, fieldBlob, rec.ID)
	group := map[string]json.RawMessage{}
	if raw, ok := present(blob, "symptoms"); ok {
		group = a.parseObject(string(raw), fieldBlob+".symptoms", rec.ID)
	}

	data := models.LegacyData{
		Age:            scalar(blob, "age", rec.Age),
		Pattern:        scalar(blob, "pattern", rec.Pattern),
		CycleLength:    scalar(blob, "cycleLength", rec.CycleLength),
		PeriodDuration: scalar(blob, "periodDuration", rec.PeriodDuration),
		FlowHeaviness:  scalar(blob, "flowHeaviness", rec.FlowHeaviness),
		PainLevel:      scalar(blob, "painLevel", rec.PainLevel),
		Symptoms: models.LegacySymptoms{
			Physical: codec.DecodeSequence[string](a.codec,
				pick(group, "physical", rec.PhysicalSymptoms), fieldBlob+".symptoms.physical", rec.ID),
			Emotional: codec.DecodeSequence[string](a.codec,
				pick(group, "emotional", rec.EmotionalSymptoms), fieldBlob+".symptoms.emotional", rec.ID),
			Other: codec.DecodeFreeTextOrSequence(pick(group, "other", rec.OtherSymptoms)),
		},
		Recommendations: transform.NormalizeRecommendations(
			codec.DecodeSequence[models.Recommendation](a.codec,
				pick(blob, "recommendations", rec.Recommendations), fieldBlob+".recommendations", rec.ID)),
	}

	if data.Pattern == nil {
		pattern, _ := classifier.Resolve(nil, classifier.Inputs{
			Age:            data.Age,
			CycleLength:    data.CycleLength,
			PeriodDuration: data.PeriodDuration,
			FlowHeaviness:  data.FlowHeaviness,
			PainLevel:      data.PainLevel,
		})
		data.Pattern = &pattern
	}

	return &models.LegacyAssessment{
		ID:             rec.ID,
		UserID:         rec.UserID,
		CreatedAt:      rec.CreatedAt,
		AssessmentData: data,
	}
}

// parseObject decodes a JSON object, degrading to an empty object on failure.
// The blob is sometimes double-encoded (a JSON string holding the object).
func (a *Adapter) parseObject(text, field, recordID string) map[string]json.RawMessage {
	data := []byte(text)
	if t := bytes.TrimSpace(data); len(t) > 0 && t[0] == '"' {
		var inner string
		if err := json.Unmarshal(t, &inner); err == nil {
			data = []byte(inner)
		}
	}
	out := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &out); err != nil || out == nil {
		a.logger.Warn("failed to parse legacy assessment data",
			"field", field,
			"record_id", recordID,
			"raw", text,
			"error", err,
		)
		a.metrics.IncrementDecodeFailure(field)
		return map[string]json.RawMessage{}
	}
	return out
}

// pick returns the blob value for key in a form the codec accepts, or the
// fallback column when the blob does not carry it. String values are treated
// as encoded text; anything else is passed on as JSON.
func pick(fields map[string]json.RawMessage, key string, fallback *string) any {
	raw, ok := present(fields, key)
	if !ok {
		return fallback
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return raw
}

// scalar returns the blob's answer for key, falling back to the column.
func scalar(fields map[string]json.RawMessage, key string, fallback *string) *string {
	raw, ok := present(fields, key)
	if !ok {
		return fallback
	}
	var b models.Band
	if err := json.Unmarshal(raw, &b); err != nil {
		return fallback
	}
	return b.Text()
}

func present(fields map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := fields[key]
	if !ok {
		return nil, false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, false
	}
	return raw, true
}
