package models

import "time"

// Assessment is the normalized API view of a flattened record.
//
// The four list fields are never nil once produced by the storage transform.
// There is deliberately no updated_at field.
type Assessment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	Age            *string `json:"age"`
	Pattern        *string `json:"pattern"`
	CycleLength    *string `json:"cycle_length"`
	PeriodDuration *string `json:"period_duration"`
	FlowHeaviness  *string `json:"flow_heaviness"`
	PainLevel      *string `json:"pain_level"`

	PhysicalSymptoms  []string         `json:"physical_symptoms"`
	EmotionalSymptoms []string         `json:"emotional_symptoms"`
	OtherSymptoms     []string         `json:"other_symptoms"`
	Recommendations   []Recommendation `json:"recommendations"`
}

// LegacyAssessment is the nested view reconstructed from a row that still
// keeps its detail in the assessment_data blob.
type LegacyAssessment struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	CreatedAt      time.Time  `json:"created_at"`
	AssessmentData LegacyData `json:"assessment_data"`
}

// LegacyData mirrors the blob layout, camelCase keys included.
type LegacyData struct {
	Age             *string          `json:"age"`
	Pattern         *string          `json:"pattern"`
	CycleLength     *string          `json:"cycleLength"`
	PeriodDuration  *string          `json:"periodDuration"`
	FlowHeaviness   *string          `json:"flowHeaviness"`
	PainLevel       *string          `json:"painLevel"`
	Symptoms        LegacySymptoms   `json:"symptoms"`
	Recommendations []Recommendation `json:"recommendations"`
}

// LegacySymptoms groups the symptom lists of the legacy blob.
type LegacySymptoms struct {
	Physical  []string `json:"physical"`
	Emotional []string `json:"emotional"`
	Other     []string `json:"other"`
}
