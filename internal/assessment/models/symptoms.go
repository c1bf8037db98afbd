package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type symptomKind int

const (
	symptomAbsent symptomKind = iota
	symptomFreeText
	symptomSequence
)

// SymptomList is the inbound shape of a symptom field: absent, a free-text
// string, or a sequence of strings. Use Sequence to get the normalized form.
type SymptomList struct {
	kind  symptomKind
	text  string
	items []string
}

// FreeText builds a SymptomList holding a bare string.
func FreeText(s string) SymptomList {
	return SymptomList{kind: symptomFreeText, text: s}
}

// Sequence builds a SymptomList holding a list of strings.
func Sequence(items ...string) SymptomList {
	if items == nil {
		items = []string{}
	}
	return SymptomList{kind: symptomSequence, items: items}
}

// IsAbsent reports whether the field was not supplied at all.
func (l SymptomList) IsAbsent() bool { return l.kind == symptomAbsent }

// IsFreeText reports whether the field was supplied as a bare string.
func (l SymptomList) IsFreeText() bool { return l.kind == symptomFreeText }

// Text returns the free-text value; empty for other variants.
func (l SymptomList) Text() string { return l.text }

// Items returns the sequence value; nil for other variants.
func (l SymptomList) Items() []string { return l.items }

// Sequence normalizes the union into a sequence. A blank free-text value and
// an absent field both normalize to an empty sequence.
func (l SymptomList) Sequence() []string {
	switch l.kind {
	case symptomFreeText:
		if t := strings.TrimSpace(l.text); t != "" {
			return []string{t}
		}
		return []string{}
	case symptomSequence:
		return append([]string{}, l.items...)
	default:
		return []string{}
	}
}

func (l *SymptomList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*l = SymptomList{}
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*l = FreeText(s)
	case trimmed[0] == '[':
		var items []string
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return fmt.Errorf("symptoms must be a list of strings: %w", err)
		}
		*l = Sequence(items...)
	default:
		return fmt.Errorf("symptoms must be a string or a list of strings")
	}
	return nil
}

func (l SymptomList) MarshalJSON() ([]byte, error) {
	switch l.kind {
	case symptomFreeText:
		return json.Marshal(l.text)
	case symptomSequence:
		return json.Marshal(l.items)
	default:
		return []byte("null"), nil
	}
}
