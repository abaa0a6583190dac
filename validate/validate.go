// Package validate accumulates the outcome of a single save attempt.
//
// A [Validate] collects global ("action") errors and per-field errors. It is
// created by the caller, handed to a service's Save, populated while that
// call runs and inspected afterwards. Services only append to it; they never
// reset it, so reusing one value across saves accumulates errors.
package validate

import (
	"strings"
)

// Validate holds global and per-field validation errors.
// The zero value is ready to use.
type Validate struct {
	actionErrors []string
	fieldErrors  map[string][]string
	fields       []string
}

// New returns an empty Validate.
func New() *Validate {
	return &Validate{}
}

// AddActionError records an error that is not tied to a single field.
func (v *Validate) AddActionError(message string) {
	v.actionErrors = append(v.actionErrors, message)
}

// AddFieldError appends message to the errors recorded for field.
// Messages keep insertion order and duplicates are kept.
func (v *Validate) AddFieldError(field, message string) {
	if v.fieldErrors == nil {
		v.fieldErrors = make(map[string][]string)
	}
	if _, seen := v.fieldErrors[field]; !seen {
		v.fields = append(v.fields, field)
	}
	v.fieldErrors[field] = append(v.fieldErrors[field], message)
}

// HasErrors reports whether any action or field error was recorded.
func (v *Validate) HasErrors() bool {
	return v.HasActionErrors() || v.HasFieldErrors()
}

// HasActionErrors reports whether a global error was recorded.
func (v *Validate) HasActionErrors() bool {
	return len(v.actionErrors) > 0
}

// HasFieldErrors reports whether at least one field has a message.
func (v *Validate) HasFieldErrors() bool {
	for _, msgs := range v.fieldErrors {
		if len(msgs) > 0 {
			return true
		}
	}
	return false
}

// HasFieldError reports whether field has at least one message.
func (v *Validate) HasFieldError(field string) bool {
	return len(v.fieldErrors[field]) > 0
}

// FieldErrors returns a copy of the per-field messages.
func (v *Validate) FieldErrors() map[string][]string {
	out := make(map[string][]string, len(v.fieldErrors))
	for field, msgs := range v.fieldErrors {
		out[field] = append([]string(nil), msgs...)
	}
	return out
}

// FieldError returns the messages recorded for field, or nil.
func (v *Validate) FieldError(field string) []string {
	msgs := v.fieldErrors[field]
	if len(msgs) == 0 {
		return nil
	}
	return append([]string(nil), msgs...)
}

// Fields returns the names of fields with errors in first-seen order.
func (v *Validate) Fields() []string {
	return append([]string(nil), v.fields...)
}

// ActionErrors returns a copy of the global errors.
func (v *Validate) ActionErrors() []string {
	return append([]string(nil), v.actionErrors...)
}

// Merge appends every error held by other into v.
func (v *Validate) Merge(other *Validate) {
	if other == nil {
		return
	}
	v.actionErrors = append(v.actionErrors, other.actionErrors...)
	for _, field := range other.fields {
		for _, msg := range other.fieldErrors[field] {
			v.AddFieldError(field, msg)
		}
	}
}

// Err returns nil when no errors were recorded, otherwise an *Error
// snapshot of the current state.
func (v *Validate) Err() error {
	if !v.HasErrors() {
		return nil
	}
	return &Error{
		Actions: v.ActionErrors(),
		Fields:  v.FieldErrors(),
		order:   v.Fields(),
	}
}

// Error is the error form of a failed Validate.
type Error struct {
	Actions []string
	Fields  map[string][]string
	order   []string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("tether: validation failed")
	for _, msg := range e.Actions {
		b.WriteString("; ")
		b.WriteString(msg)
	}
	for _, field := range e.order {
		for _, msg := range e.Fields[field] {
			b.WriteString("; ")
			b.WriteString(field)
			b.WriteString(": ")
			b.WriteString(msg)
		}
	}
	return b.String()
}
