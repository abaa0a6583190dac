package attach

import (
	"context"

	"github.com/jacentio/tether/docstore"
	"github.com/jacentio/tether/entity"
	"github.com/jacentio/tether/service"
)

// FieldNamePrincipalID is the stored name of the principal reference.
const FieldNamePrincipalID = "principalId"

// Principal reference messages.
const (
	MessagePrincipalNotSet  = "主体未设置"
	MessagePrincipalChanged = "主体不可更改"
)

// PrincipalAttached is implemented by entities that belong to a principal.
type PrincipalAttached interface {
	PrincipalID() string
	SetPrincipalID(id string)
}

// PrincipalAttachedEntity is an entity that belongs to a principal.
type PrincipalAttachedEntity interface {
	entity.Entity
	PrincipalAttached
}

// PrincipalField returns the attachment field for principalId.
func PrincipalField[E PrincipalAttachedEntity]() Field[E] {
	return Field[E]{
		Name:    FieldNamePrincipalID,
		Get:     func(e E) string { return e.PrincipalID() },
		NotSet:  MessagePrincipalNotSet,
		Changed: MessagePrincipalChanged,
	}
}

// Principal is the principal specialization of Attach.
type Principal[E PrincipalAttachedEntity] struct {
	*Attach[E]
}

// NewPrincipal registers the principal reference rule on base.
func NewPrincipal[E PrincipalAttachedEntity](base *service.Service[E]) *Principal[E] {
	return &Principal[E]{Attach: New(base, PrincipalField[E]())}
}

// FilterByPrincipalID matches entities owned by principalID.
func (p *Principal[E]) FilterByPrincipalID(principalID string) docstore.Filter {
	return p.FilterBy(principalID)
}

// CountByPrincipalID counts entities owned by principalID.
func (p *Principal[E]) CountByPrincipalID(ctx context.Context, principalID string) (int64, error) {
	return p.CountBy(ctx, principalID)
}

// FindByPrincipalID returns a lazy cursor over entities owned by principalID.
func (p *Principal[E]) FindByPrincipalID(ctx context.Context, principalID string) *service.Cursor[E] {
	return p.FindBy(ctx, principalID)
}

// DeleteByPrincipalID removes every entity owned by principalID.
func (p *Principal[E]) DeleteByPrincipalID(ctx context.Context, principalID string) (docstore.DeleteResult, error) {
	return p.DeleteBy(ctx, principalID)
}
