package transform

import (
	"flowcare/internal/assessment/classifier"
	"flowcare/internal/assessment/codec"
	"flowcare/internal/assessment/models"
)

// Column names used when reporting decode failures.
const (
	FieldPhysicalSymptoms  = "physical_symptoms"
	FieldEmotionalSymptoms = "emotional_symptoms"
	FieldOtherSymptoms     = "other_symptoms"
	FieldRecommendations   = "recommendations"
)

// ToAPI maps a flattened storage record to its API view. A nil record maps to
// nil; every other input produces a record whose list fields are non-nil.
func ToAPI(c *codec.Codec, rec *models.StorageRecord) *models.Assessment {
	if rec == nil {
		return nil
	}

	physical := codec.DecodeSequence[string](c, rec.PhysicalSymptoms, FieldPhysicalSymptoms, rec.ID)
	emotional := codec.DecodeSequence[string](c, rec.EmotionalSymptoms, FieldEmotionalSymptoms, rec.ID)
	other := codec.DecodeFreeTextOrSequence(rec.OtherSymptoms)
	recs := codec.DecodeSequence[models.Recommendation](c, rec.Recommendations, FieldRecommendations, rec.ID)

	out := &models.Assessment{
		ID:        rec.ID,
		UserID:    rec.UserID,
		CreatedAt: rec.CreatedAt,

		Age:            rec.Age,
		Pattern:        rec.Pattern,
		CycleLength:    rec.CycleLength,
		PeriodDuration: rec.PeriodDuration,
		FlowHeaviness:  rec.FlowHeaviness,
		PainLevel:      rec.PainLevel,

		PhysicalSymptoms:  physical,
		EmotionalSymptoms: emotional,
		OtherSymptoms:     other,
		Recommendations:   NormalizeRecommendations(recs),
	}

	if out.Pattern == nil {
		pattern, _ := classifier.Resolve(nil, InputsOf(rec))
		out.Pattern = &pattern
	}

	if out.PhysicalSymptoms == nil {
		out.PhysicalSymptoms = []string{}
	}
	if out.EmotionalSymptoms == nil {
		out.EmotionalSymptoms = []string{}
	}
	if out.OtherSymptoms == nil {
		out.OtherSymptoms = []string{}
	}
	if out.Recommendations == nil {
		out.Recommendations = []models.Recommendation{}
	}
	return out
}

// NormalizeRecommendations coerces legacy string recommendations into
// {title, description} entries.
//
// Only arrays whose first entry is a string are coerced, and then only their
// string entries: object entries in a string-led array are kept as stored. An
// array that starts with an object is returned as stored, string entries
// included. Mixed arrays are therefore not normalized uniformly; existing rows
// depend on that asymmetry and it is kept deliberately.
func NormalizeRecommendations(recs []models.Recommendation) []models.Recommendation {
	if len(recs) == 0 {
		return recs
	}
	if _, ok := recs[0].RawString(); !ok {
		return recs
	}
	out := make([]models.Recommendation, len(recs))
	for i, r := range recs {
		if s, ok := r.RawString(); ok {
			out[i] = models.Recommendation{Title: s}
			continue
		}
		out[i] = r
	}
	return out
}

// InputsOf extracts classifier inputs from a storage record.
func InputsOf(rec *models.StorageRecord) classifier.Inputs {
	return classifier.Inputs{
		Age:            rec.Age,
		CycleLength:    rec.CycleLength,
		PeriodDuration: rec.PeriodDuration,
		FlowHeaviness:  rec.FlowHeaviness,
		PainLevel:      rec.PainLevel,
	}
}
