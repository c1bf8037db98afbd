// Package codec converts semi-structured assessment fields between their
// in-memory sequences and the JSON text stored in flat columns.
//
// Decoding never fails: malformed persisted data degrades to an empty
// sequence, is logged with the field and record id, and is counted.
package codec

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lib/pq"

	"flowcare/internal/assessment/metrics"
	"flowcare/internal/assessment/models"
)

// Codec carries the logging and metrics capabilities used when a column
// cannot be decoded. The zero value is not usable; construct with New.
type Codec struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Codec)

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Codec) {
		c.metrics = m
	}
}

// New constructs a Codec. A nil logger discards decode diagnostics.
func New(logger *slog.Logger, opts ...Option) *Codec {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Codec{logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DecodeSequence decodes a stored column into a sequence of T.
//
// raw may be nil, encoded text (string, *string, []byte, json.RawMessage) or a
// native sequence ([]T, []any, pq.StringArray) from stores that support array
// columns. Empty or null input yields an empty sequence. Elements of the wrong
// type are dropped, so ["bloating",1] decodes to ["bloating"]. Input that is
// not an array at all is reported and yields an empty sequence.
func DecodeSequence[T any](c *Codec, raw any, field, recordID string) []T {
	items, err := decodeSequence[T](raw)
	if err != nil {
		c.reportDecodeFailure(field, recordID, raw, err)
		return []T{}
	}
	return items
}

func decodeSequence[T any](raw any) ([]T, error) {
	switch v := raw.(type) {
	case nil:
		return []T{}, nil
	case []T:
		if v == nil {
			return []T{}, nil
		}
		return v, nil
	case *string:
		if v == nil {
			return []T{}, nil
		}
		return parseSequence[T]([]byte(*v))
	case string:
		return parseSequence[T]([]byte(v))
	case json.RawMessage:
		return parseSequence[T](v)
	case []byte:
		return parseSequence[T](v)
	case pq.StringArray:
		return fromNative[T]([]string(v))
	case []string:
		return fromNative[T](v)
	case []any:
		return fromNative[T](v)
	default:
		return nil, fmt.Errorf("unsupported column type %T", raw)
	}
}

// parseSequence decodes an encoded array. Elements that do not decode as T
// are dropped and the rest are kept; input that is not an array is an error.
func parseSequence[T any](data []byte) ([]T, error) {
	if len(data) == 0 {
		return []T{}, nil
	}
	var out []T
	err := json.Unmarshal(data, &out)
	if err == nil {
		if out == nil {
			return []T{}, nil
		}
		return out, nil
	}

	var elems []json.RawMessage
	if json.Unmarshal(data, &elems) != nil {
		return nil, err
	}
	out = make([]T, 0, len(elems))
	for _, e := range elems {
		if string(e) == "null" {
			continue
		}
		var item T
		if json.Unmarshal(e, &item) == nil {
			out = append(out, item)
		}
	}
	return out, nil
}

// fromNative converts an already-decoded sequence into []T.
func fromNative[T any](v any) ([]T, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return parseSequence[T](data)
}

// DecodeFreeTextOrSequence decodes the other_symptoms column, which older
// rows stored as a bare string and newer rows as an encoded sequence.
//
// Encoded sequences keep only their string elements. An encoded non-empty
// string becomes a one-element sequence. Text that is not JSON at all is
// trimmed and, if anything is left, wrapped as a one-element sequence.
func DecodeFreeTextOrSequence(raw any) []string {
	var text string
	switch v := raw.(type) {
	case nil:
		return []string{}
	case *string:
		if v == nil {
			return []string{}
		}
		text = *v
	case string:
		text = v
	case []byte:
		text = string(v)
	case json.RawMessage:
		text = string(v)
	case pq.StringArray:
		return append([]string{}, v...)
	case []string:
		return append([]string{}, v...)
	case []any:
		return stringsOnly(v)
	default:
		return []string{}
	}
	if text == "" {
		return []string{}
	}

	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err == nil {
		switch v := parsed.(type) {
		case []any:
			return stringsOnly(v)
		case string:
			if v != "" {
				return []string{v}
			}
		}
		return []string{}
	}

	if trimmed := strings.TrimSpace(text); trimmed != "" {
		return []string{trimmed}
	}
	return []string{}
}

func stringsOnly(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// EncodeSequence encodes a sequence for storage. A nil sequence is stored as
// NULL; an empty one is stored as "[]".
func EncodeSequence[T any](value []T) *string {
	if value == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	s := string(data)
	return &s
}

// EncodeSymptoms encodes a physical or emotional symptom field. Absent and
// blank free-text values are stored as NULL; everything else is stored as a
// sequence.
func EncodeSymptoms(value models.SymptomList) *string {
	switch {
	case value.IsAbsent():
		return nil
	case value.IsFreeText() && value.Text() == "":
		return nil
	}
	return EncodeSequence(value.Sequence())
}

// EncodeFreeTextOrSequence encodes the other_symptoms field.
//
// Empty strings and empty sequences both collapse to NULL, so "nothing
// recorded" and "explicitly empty" are indistinguishable once stored.
func EncodeFreeTextOrSequence(value models.SymptomList) *string {
	switch {
	case value.IsAbsent():
		return nil
	case value.IsFreeText():
		if t := strings.TrimSpace(value.Text()); t != "" {
			return EncodeSequence([]string{t})
		}
		return nil
	}
	if len(value.Items()) == 0 {
		return nil
	}
	return EncodeSequence(value.Items())
}

func (c *Codec) reportDecodeFailure(field, recordID string, raw any, err error) {
	if c == nil {
		return
	}
	c.logger.Warn("failed to decode assessment field",
		"field", field,
		"record_id", recordID,
		"raw", rawText(raw),
		"error", err,
	)
	c.metrics.IncrementDecodeFailure(field)
}

func rawText(raw any) string {
	switch v := raw.(type) {
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case string:
		return v
	case []byte:
		return string(v)
	case json.RawMessage:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
