package models

import (
	"encoding/json"
	"time"
)

// StorageRecord is a persisted assessment row.
//
// Flattened rows carry the four semi-structured columns as encoded JSON text.
// Legacy rows carry everything below the scalars inside AssessmentData.
type StorageRecord struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	Age            *string `json:"age"`
	Pattern        *string `json:"pattern"`
	CycleLength    *string `json:"cycle_length"`
	PeriodDuration *string `json:"period_duration"`
	FlowHeaviness  *string `json:"flow_heaviness"`
	PainLevel      *string `json:"pain_level"`

	PhysicalSymptoms  *string `json:"physical_symptoms"`
	EmotionalSymptoms *string `json:"emotional_symptoms"`
	OtherSymptoms     *string `json:"other_symptoms"`
	Recommendations   *string `json:"recommendations"`

	AssessmentData *string `json:"assessment_data,omitempty"`
}

// UnmarshalJSON decodes a row, keeping numeric scalar literals such as
// "pain_level": 0 as their text the same way Band does.
func (r *StorageRecord) UnmarshalJSON(data []byte) error {
	type row StorageRecord
	aux := struct {
		*row
		Age            *Band `json:"age"`
		Pattern        *Band `json:"pattern"`
		CycleLength    *Band `json:"cycle_length"`
		PeriodDuration *Band `json:"period_duration"`
		FlowHeaviness  *Band `json:"flow_heaviness"`
		PainLevel      *Band `json:"pain_level"`
	}{row: (*row)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Age = aux.Age.Text()
	r.Pattern = aux.Pattern.Text()
	r.CycleLength = aux.CycleLength.Text()
	r.PeriodDuration = aux.PeriodDuration.Text()
	r.FlowHeaviness = aux.FlowHeaviness.Text()
	r.PainLevel = aux.PainLevel.Text()
	return nil
}
