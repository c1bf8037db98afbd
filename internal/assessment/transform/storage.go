// Package transform maps assessments between their API and storage shapes.
package transform

import (
	"flowcare/internal/assessment/codec"
	"flowcare/internal/assessment/models"
)

// ToStorage maps an inbound payload to a storage record.
//
// Scalars are copied through as given, including empty and zero values.
// Identifier and timestamps are left for the caller to assign.
func ToStorage(p models.Payload) models.StorageRecord {
	rec := models.StorageRecord{
		Age:            p.Age.Text(),
		Pattern:        p.Pattern.Text(),
		CycleLength:    p.CycleLength.Text(),
		PeriodDuration: p.PeriodDuration.Text(),
		FlowHeaviness:  p.FlowHeaviness.Text(),
		PainLevel:      p.PainLevel.Text(),

		PhysicalSymptoms:  codec.EncodeSymptoms(p.PhysicalSymptoms),
		EmotionalSymptoms: codec.EncodeSymptoms(p.EmotionalSymptoms),
		OtherSymptoms:     codec.EncodeFreeTextOrSequence(p.OtherSymptoms),
	}
	if p.Recommendations != nil {
		rec.Recommendations = codec.EncodeSequence([]models.Recommendation(*p.Recommendations))
	}
	return rec
}
