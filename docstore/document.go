package docstore

import (
	"math"
	"time"
)

// Managed document keys.
const (
	FieldID        = "id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// TimeLayout is the layout used to store timestamps.
const TimeLayout = time.RFC3339Nano

// Document is a stored record.
type Document map[string]any

// Clone returns a shallow copy of d. Values are scalars, so the copy is
// independent of d.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// ID returns the document identifier.
func (d Document) ID() string {
	return d.String(FieldID)
}

// String returns the string stored under key, or "".
func (d Document) String(key string) string {
	if s, ok := d[key].(string); ok {
		return s
	}
	return ""
}

// Int64 returns the integer stored under key, or 0.
// Backends decode numbers differently, so every numeric kind is accepted.
func (d Document) Int64(key string) int64 {
	if n, ok := toFloat(d[key]); ok {
		return int64(n)
	}
	return 0
}

// Bool returns the boolean stored under key, or false.
func (d Document) Bool(key string) bool {
	b, _ := d[key].(bool)
	return b
}

// Time parses the timestamp stored under key. Missing or malformed
// values yield the zero time.
func (d Document) Time(key string) time.Time {
	s := d.String(key)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// SetTime stores t under key, or nil when t is zero.
func (d Document) SetTime(key string, t time.Time) {
	if t.IsZero() {
		d[key] = nil
		return
	}
	d[key] = t.UTC().Format(TimeLayout)
}

// Equal reports whether d and other hold the same values. A missing key and
// a nil value are equivalent.
func (d Document) Equal(other Document) bool {
	for k, v := range d {
		if !ValuesEqual(v, other[k]) {
			return false
		}
	}
	for k, v := range other {
		if _, ok := d[k]; !ok && v != nil {
			return false
		}
	}
	return true
}

// ValuesEqual compares two scalar values. Numbers compare by value whatever
// their Go type.
func ValuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		if math.IsNaN(n) {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
