package docstore

import (
	"fmt"
	"strings"
)

// Condition is a single equality predicate.
type Condition struct {
	Field string
	Value any
}

// Filter is a conjunction of equality conditions. The zero Filter matches
// every document.
type Filter struct {
	conds []Condition
}

// Eq matches documents whose field equals value. A nil value matches
// documents where the field is missing or null.
func Eq(field string, value any) Filter {
	return Filter{conds: []Condition{{Field: field, Value: value}}}
}

// ID matches the document with the given identifier.
func ID(id string) Filter {
	return Eq(FieldID, id)
}

// All matches every document.
func All() Filter {
	return Filter{}
}

// And matches documents matching every filter.
func And(filters ...Filter) Filter {
	var out Filter
	for _, f := range filters {
		out.conds = append(out.conds, f.conds...)
	}
	return out
}

// IsZero reports whether f matches everything.
func (f Filter) IsZero() bool {
	return len(f.conds) == 0
}

// Conditions returns the equality conditions of f in construction order.
func (f Filter) Conditions() []Condition {
	return append([]Condition(nil), f.conds...)
}

// Fields returns the field names referenced by f.
func (f Filter) Fields() []string {
	out := make([]string, len(f.conds))
	for i, c := range f.conds {
		out[i] = c.Field
	}
	return out
}

// IDValue returns the identifier when f is exactly an ID filter.
func (f Filter) IDValue() (string, bool) {
	if len(f.conds) != 1 || f.conds[0].Field != FieldID {
		return "", false
	}
	id, ok := f.conds[0].Value.(string)
	return id, ok
}

// Match evaluates f against doc.
func (f Filter) Match(doc Document) bool {
	for _, c := range f.conds {
		if !ValuesEqual(doc[c.Field], c.Value) {
			return false
		}
	}
	return true
}

// Equal reports whether f and g hold the same conditions in the same order.
func (f Filter) Equal(g Filter) bool {
	if len(f.conds) != len(g.conds) {
		return false
	}
	for i := range f.conds {
		if f.conds[i].Field != g.conds[i].Field || !ValuesEqual(f.conds[i].Value, g.conds[i].Value) {
			return false
		}
	}
	return true
}

func (f Filter) String() string {
	if f.IsZero() {
		return "{}"
	}
	parts := make([]string, len(f.conds))
	for i, c := range f.conds {
		parts[i] = fmt.Sprintf("%s == %v", c.Field, c.Value)
	}
	return "{" + strings.Join(parts, " AND ") + "}"
}
