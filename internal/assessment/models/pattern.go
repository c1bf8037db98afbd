package models

import (
	dErrors "flowcare/pkg/domain-errors"
)

// Pattern is the clinical classification assigned to an assessment.
// Invariant: the value must be one of the five supported patterns.
type Pattern string

const (
	PatternRegular    Pattern = "regular"
	PatternIrregular  Pattern = "irregular"
	PatternHeavy      Pattern = "heavy"
	PatternPain       Pattern = "pain"
	PatternDeveloping Pattern = "developing"
)

var validPatterns = map[Pattern]bool{
	PatternRegular:    true,
	PatternIrregular:  true,
	PatternHeavy:      true,
	PatternPain:       true,
	PatternDeveloping: true,
}

// ParsePattern constructs a Pattern from external input.
func ParsePattern(s string) (Pattern, error) {
	p := Pattern(s)
	if !p.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unsupported pattern: "+s)
	}
	return p, nil
}

// IsValid reports whether the pattern is one of the supported labels.
func (p Pattern) IsValid() bool {
	return validPatterns[p]
}

func (p Pattern) String() string {
	return string(p)
}

// Band values that drive classification. Other band values exist on the wire
// (e.g. "26-30", "moderate") but carry no classification weight.
const (
	AgeUnder13 = "under-13"
	Age13To17  = "13-17"

	CycleIrregular    = "irregular"
	CycleLessThan21   = "less-than-21"
	Cycle36To40       = "36-40"
	DurationEightPlus = "8-plus"

	FlowHeavy     = "heavy"
	FlowVeryHeavy = "very-heavy"

	PainSevere       = "severe"
	PainDebilitating = "debilitating"
)
