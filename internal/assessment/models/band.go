package models

import (
	"bytes"
	"encoding/json"
)

// Band is a scalar assessment answer such as "13-17" or "heavy".
//
// Inbound payloads occasionally carry numeric literals (pain_level: 0). The
// literal text is kept as-is; shape validation belongs to the caller.
type Band string

func (b *Band) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*b = Band(s)
		return nil
	}
	*b = Band(trimmed)
	return nil
}

// BandOf returns a pointer to a Band holding s.
func BandOf(s string) *Band {
	b := Band(s)
	return &b
}

// Text converts an optional band to an optional column value. Nil stays nil
// and the empty band stays a non-nil empty string.
func (b *Band) Text() *string {
	if b == nil {
		return nil
	}
	s := string(*b)
	return &s
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
