package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexID is an identifier that arrives from the upstream API as either a JSON
// string or a JSON number, not guaranteed consistent even within one response.
// It is normalized to its canonical string form once, at the decode boundary.
// The zero value ("") means "no identifier supplied"; "0" is a legal id.
type FlexID string

// UnmarshalJSON accepts a string, a number or null. It never returns an
// error: anything that is not a usable identifier normalizes to "".
func (f *FlexID) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		*f = ""
		return nil
	}

	*f = FlexID(NormalizeID(v))
	return nil
}

func (f FlexID) String() string {
	return string(f)
}

// IsZero reports whether no identifier was supplied.
func (f FlexID) IsZero() bool {
	return f == ""
}

// NormalizeID returns the canonical string form of an identifier regardless
// of its wire representation. Numbers are formatted without a trailing ".0"
// so that 42, 42.0 and "42" all normalize to "42". Nil and non-scalar values
// normalize to "", which never matches a real id.
func NormalizeID(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case FlexID:
		return string(t)
	case json.Number:
		return normalizeNumeric(string(t))
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}

// IDsEqual reports whether two identifiers refer to the same entity once
// both are normalized. An empty (missing) identifier matches nothing,
// including another empty identifier.
func IDsEqual(a, b any) bool {
	na := NormalizeID(a)
	if na == "" {
		return false
	}

	return na == NormalizeID(b)
}

func normalizeNumeric(s string) string {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(i, 10)
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	return s
}

// FlexFloat is a numeric value that may arrive as a JSON number or a numeric
// string. Unparseable values are kept as invalid instead of failing the
// record; invalid prices fail price filters and sort as zero.
type FlexFloat struct {
	Val   float64
	Valid bool
}

// Float returns a valid FlexFloat.
func Float(v float64) FlexFloat {
	return FlexFloat{Val: v, Valid: true}
}

// ParseFlexFloat converts a decoded JSON scalar into a FlexFloat.
func ParseFlexFloat(v any) FlexFloat {
	switch t := v.(type) {
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return Float(f)
		}
	case float64:
		return Float(t)
	case int:
		return Float(float64(t))
	case int64:
		return Float(float64(t))
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return Float(f)
		}
	}

	return FlexFloat{}
}

// UnmarshalJSON accepts a number or a numeric string. It never returns an
// error: unparseable values decode as invalid.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		*f = FlexFloat{}
		return nil
	}

	*f = ParseFlexFloat(v)
	return nil
}

func (f FlexFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}

	return json.Marshal(f.Val)
}

// Or returns the value, or def when the value is invalid.
func (f FlexFloat) Or(def float64) float64 {
	if !f.Valid {
		return def
	}

	return f.Val
}
