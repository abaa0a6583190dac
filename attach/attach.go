// Package attach adds attachment semantics to entity services: an entity
// refers to a related record by identifier, the reference is required and
// becomes immutable once stored, and attached entities can be queried and
// deleted by the related identifier.
package attach

import (
	"context"

	"github.com/jacentio/tether/docstore"
	"github.com/jacentio/tether/entity"
	"github.com/jacentio/tether/service"
	"github.com/jacentio/tether/validate"
)

// Field describes the attachment reference of an entity type.
type Field[E entity.Entity] struct {
	// Name is the stored field name.
	Name string

	// Get reads the reference from an entity.
	Get func(E) string

	// NotSet is reported when the reference is empty.
	NotSet string

	// Changed is reported when a stored reference is modified.
	Changed string
}

// Attach exposes attachment queries over a service.
type Attach[E entity.Entity] struct {
	base  *service.Service[E]
	field Field[E]
}

// New registers the reference rule for field on base.
func New[E entity.Entity](base *service.Service[E], field Field[E]) *Attach[E] {
	a := &Attach[E]{base: base, field: field}
	base.Use(a.check)
	return a
}

// Service returns the underlying entity service.
func (a *Attach[E]) Service() *service.Service[E] {
	return a.base
}

// Field returns the attachment field.
func (a *Attach[E]) Field() Field[E] {
	return a.field
}

// Collection returns the name of the attached entities' collection.
func (a *Attach[E]) Collection() string {
	return a.base.Collection()
}

// FilterBy matches entities attached to id.
func (a *Attach[E]) FilterBy(id string) docstore.Filter {
	return docstore.Eq(a.field.Name, id)
}

// CountBy counts entities attached to id.
func (a *Attach[E]) CountBy(ctx context.Context, id string) (int64, error) {
	return a.base.Count(ctx, a.FilterBy(id))
}

// FindBy returns a lazy cursor over entities attached to id.
func (a *Attach[E]) FindBy(ctx context.Context, id string) *service.Cursor[E] {
	return a.base.Find(ctx, a.FilterBy(id))
}

// DeleteBy removes every entity attached to id.
func (a *Attach[E]) DeleteBy(ctx context.Context, id string) (docstore.DeleteResult, error) {
	return a.base.Delete(ctx, a.FilterBy(id))
}

// DetachFrom removes the entities attached to a deleted record and reports
// how many were removed.
func (a *Attach[E]) DetachFrom(ctx context.Context, id string) (int64, error) {
	res, err := a.DeleteBy(ctx, id)
	return res.DeletedCount, err
}

// check requires the reference on new entities and forbids changing a
// stored one. The stored document is the reference point, so an identical
// re-save passes.
func (a *Attach[E]) check(_ context.Context, e E, original E, persisted bool, v *validate.Validate) error {
	value := a.field.Get(e)
	if !persisted {
		if value == "" {
			v.AddFieldError(a.field.Name, a.field.NotSet)
		}
		return nil
	}

	stored := a.field.Get(original)
	switch {
	case stored == "" && value == "":
		v.AddFieldError(a.field.Name, a.field.NotSet)
	case stored != value:
		v.AddFieldError(a.field.Name, a.field.Changed)
	}
	return nil
}
