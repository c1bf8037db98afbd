// Package classifier assigns a clinical pattern to an assessment.
package classifier

import "flowcare/internal/assessment/models"

// Inputs are the scalar answers the classifier reads. Nil answers match no rule.
type Inputs struct {
	Age            *string
	CycleLength    *string
	PeriodDuration *string
	FlowHeaviness  *string
	PainLevel      *string
}

// Classify maps answers to a pattern. This is pure domain logic.
// Rule priority (first match wins):
//  1. Age under 18 - developing
//  2. Cycle length irregular, short or long - irregular
//  3. Heavy flow or 8+ day period - heavy
//  4. Severe or debilitating pain - pain
//  5. Otherwise - regular
func Classify(in Inputs) models.Pattern {
	// Rule 1: developing cycles take precedence over every symptom
	if is(in.Age, models.AgeUnder13, models.Age13To17) {
		return models.PatternDeveloping
	}

	// Rule 2: irregular cycle length
	if is(in.CycleLength, models.CycleIrregular, models.CycleLessThan21, models.Cycle36To40) {
		return models.PatternIrregular
	}

	// Rule 3: heavy bleeding
	if is(in.FlowHeaviness, models.FlowHeavy, models.FlowVeryHeavy) || is(in.PeriodDuration, models.DurationEightPlus) {
		return models.PatternHeavy
	}

	// Rule 4: pain
	if is(in.PainLevel, models.PainSevere, models.PainDebilitating) {
		return models.PatternPain
	}

	return models.PatternRegular
}

// Resolve returns the supplied pattern verbatim when present, otherwise the
// classifier's answer. computed reports which path was taken. A supplied
// pattern is never checked against the rules.
func Resolve(supplied *string, in Inputs) (pattern string, computed bool) {
	if supplied != nil {
		return *supplied, false
	}
	return string(Classify(in)), true
}

func is(value *string, candidates ...string) bool {
	if value == nil {
		return false
	}
	for _, c := range candidates {
		if *value == c {
			return true
		}
	}
	return false
}
