package models

import (
	"bytes"
	"encoding/json"
)

// Recommendation is a single piece of advice attached to an assessment.
//
// Older rows stored recommendations as bare strings. Entries that are not
// {title, description} objects are carried verbatim in raw and re-emitted
// unchanged, so a mixed legacy array survives a round trip untouched.
type Recommendation struct {
	Title       string `json:"title"`
	Description string `json:"description"`

	raw json.RawMessage
}

// RawRecommendation builds an un-normalized entry from its JSON encoding.
func RawRecommendation(raw json.RawMessage) Recommendation {
	return Recommendation{raw: append(json.RawMessage{}, raw...)}
}

// IsRaw reports whether the entry was not a {title, description} object.
func (r Recommendation) IsRaw() bool { return r.raw != nil }

// Raw returns the verbatim encoding of an un-normalized entry.
func (r Recommendation) Raw() json.RawMessage { return r.raw }

// RawString returns the value of an un-normalized entry that is a plain string.
func (r Recommendation) RawString() (string, bool) {
	if len(r.raw) == 0 || r.raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(r.raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func (r *Recommendation) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var obj struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		}
		if err := json.Unmarshal(trimmed, &obj); err == nil {
			*r = Recommendation{Title: obj.Title, Description: obj.Description}
			return nil
		}
	}
	*r = RawRecommendation(trimmed)
	return nil
}

func (r Recommendation) MarshalJSON() ([]byte, error) {
	if r.raw != nil {
		return r.raw, nil
	}
	return json.Marshal(struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}{r.Title, r.Description})
}

// RecommendationList is the inbound recommendations field. A bare string is
// accepted and becomes a single un-normalized entry.
type RecommendationList []Recommendation

func (l *RecommendationList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		if s == "" {
			*l = RecommendationList{}
			return nil
		}
		*l = RecommendationList{RawRecommendation(trimmed)}
		return nil
	}
	var items []Recommendation
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return err
	}
	if items == nil {
		items = []Recommendation{}
	}
	*l = items
	return nil
}
