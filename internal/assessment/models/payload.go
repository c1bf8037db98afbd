package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	dErrors "flowcare/pkg/domain-errors"
)

// Payload is an inbound assessment submission.
//
// Clients send either flattened snake_case fields or camelCase fields nested
// under assessment_data. Both spellings are accepted at every level; flattened
// values win when both are present.
type Payload struct {
	Age            *Band
	Pattern        *Band
	CycleLength    *Band
	PeriodDuration *Band
	FlowHeaviness  *Band
	PainLevel      *Band

	PhysicalSymptoms  SymptomList
	EmotionalSymptoms SymptomList
	OtherSymptoms     SymptomList
	Recommendations   *RecommendationList
}

// requiredBands lists the answers every submission must carry, by wire name.
var requiredBands = []string{"age", "cycle_length", "period_duration", "flow_heaviness", "pain_level"}

// Validate checks that every required answer is present and non-blank.
func (p *Payload) Validate() error {
	if p == nil {
		return dErrors.New(dErrors.CodeValidation, "assessment payload is required")
	}
	values := map[string]*Band{
		"age":             p.Age,
		"cycle_length":    p.CycleLength,
		"period_duration": p.PeriodDuration,
		"flow_heaviness":  p.FlowHeaviness,
		"pain_level":      p.PainLevel,
	}
	var missing []string
	for _, name := range requiredBands {
		if b := values[name]; b == nil || strings.TrimSpace(string(*b)) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return dErrors.New(dErrors.CodeValidation, "missing required fields: "+strings.Join(missing, ", "))
	}
	if p.Pattern != nil && *p.Pattern != "" {
		if _, err := ParsePattern(string(*p.Pattern)); err != nil {
			return err
		}
	}
	return nil
}

func (p *Payload) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var out Payload
	if err := out.fill(fields); err != nil {
		return err
	}

	if raw, ok := lookup(fields, "assessment_data", "assessmentData"); ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(raw, &inner); err != nil {
			return fmt.Errorf("assessment_data: %w", err)
		}
		var nested Payload
		if err := nested.fill(inner); err != nil {
			return fmt.Errorf("assessment_data: %w", err)
		}
		if err := nested.fillSymptomGroup(inner); err != nil {
			return fmt.Errorf("assessment_data: %w", err)
		}
		out.mergeAbsent(nested)
	}

	*p = out
	return nil
}

func (p Payload) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Age               *Band               `json:"age,omitempty"`
		Pattern           *Band               `json:"pattern,omitempty"`
		CycleLength       *Band               `json:"cycle_length,omitempty"`
		PeriodDuration    *Band               `json:"period_duration,omitempty"`
		FlowHeaviness     *Band               `json:"flow_heaviness,omitempty"`
		PainLevel         *Band               `json:"pain_level,omitempty"`
		PhysicalSymptoms  SymptomList         `json:"physical_symptoms"`
		EmotionalSymptoms SymptomList         `json:"emotional_symptoms"`
		OtherSymptoms     SymptomList         `json:"other_symptoms"`
		Recommendations   *RecommendationList `json:"recommendations,omitempty"`
	}{
		p.Age, p.Pattern, p.CycleLength, p.PeriodDuration, p.FlowHeaviness, p.PainLevel,
		p.PhysicalSymptoms, p.EmotionalSymptoms, p.OtherSymptoms, p.Recommendations,
	})
}

func (p *Payload) fill(fields map[string]json.RawMessage) error {
	bands := []struct {
		dst   **Band
		names []string
	}{
		{&p.Age, []string{"age"}},
		{&p.Pattern, []string{"pattern"}},
		{&p.CycleLength, []string{"cycle_length", "cycleLength"}},
		{&p.PeriodDuration, []string{"period_duration", "periodDuration"}},
		{&p.FlowHeaviness, []string{"flow_heaviness", "flowHeaviness"}},
		{&p.PainLevel, []string{"pain_level", "painLevel"}},
	}
	for _, b := range bands {
		raw, ok := lookup(fields, b.names...)
		if !ok {
			continue
		}
		var v Band
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("%s: %w", b.names[0], err)
		}
		*b.dst = &v
	}

	lists := []struct {
		dst   *SymptomList
		names []string
	}{
		{&p.PhysicalSymptoms, []string{"physical_symptoms", "physicalSymptoms"}},
		{&p.EmotionalSymptoms, []string{"emotional_symptoms", "emotionalSymptoms"}},
		{&p.OtherSymptoms, []string{"other_symptoms", "otherSymptoms"}},
	}
	for _, l := range lists {
		raw, ok := lookup(fields, l.names...)
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, l.dst); err != nil {
			return fmt.Errorf("%s: %w", l.names[0], err)
		}
	}

	if raw, ok := lookup(fields, "recommendations"); ok {
		var recs RecommendationList
		if err := json.Unmarshal(raw, &recs); err != nil {
			return fmt.Errorf("recommendations: %w", err)
		}
		p.Recommendations = &recs
	}
	return nil
}

// fillSymptomGroup reads the legacy {symptoms: {physical, emotional, other}}
// grouping used inside assessment_data.
func (p *Payload) fillSymptomGroup(fields map[string]json.RawMessage) error {
	raw, ok := lookup(fields, "symptoms")
	if !ok {
		return nil
	}
	var group map[string]json.RawMessage
	if err := json.Unmarshal(raw, &group); err != nil {
		return fmt.Errorf("symptoms: %w", err)
	}
	lists := []struct {
		dst  *SymptomList
		name string
	}{
		{&p.PhysicalSymptoms, "physical"},
		{&p.EmotionalSymptoms, "emotional"},
		{&p.OtherSymptoms, "other"},
	}
	for _, l := range lists {
		if !l.dst.IsAbsent() {
			continue
		}
		v, ok := lookup(group, l.name)
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, l.dst); err != nil {
			return fmt.Errorf("symptoms.%s: %w", l.name, err)
		}
	}
	return nil
}

func (p *Payload) mergeAbsent(other Payload) {
	for _, pair := range []struct{ dst, src **Band }{
		{&p.Age, &other.Age},
		{&p.Pattern, &other.Pattern},
		{&p.CycleLength, &other.CycleLength},
		{&p.PeriodDuration, &other.PeriodDuration},
		{&p.FlowHeaviness, &other.FlowHeaviness},
		{&p.PainLevel, &other.PainLevel},
	} {
		if *pair.dst == nil {
			*pair.dst = *pair.src
		}
	}
	for _, pair := range []struct{ dst, src *SymptomList }{
		{&p.PhysicalSymptoms, &other.PhysicalSymptoms},
		{&p.EmotionalSymptoms, &other.EmotionalSymptoms},
		{&p.OtherSymptoms, &other.OtherSymptoms},
	} {
		if pair.dst.IsAbsent() {
			*pair.dst = *pair.src
		}
	}
	if p.Recommendations == nil {
		p.Recommendations = other.Recommendations
	}
}

// lookup returns the first non-null value stored under any of names.
func lookup(fields map[string]json.RawMessage, names ...string) (json.RawMessage, bool) {
	for _, name := range names {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		if t := bytes.TrimSpace(raw); len(t) == 0 || bytes.Equal(t, []byte("null")) {
			continue
		}
		return raw, true
	}
	return nil, false
}
