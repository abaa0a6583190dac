// Package user defines the principal-owned entities and their services.
package user

import (
	"context"
	"log/slog"

	"github.com/jacentio/tether/attach"
	"github.com/jacentio/tether/docstore"
	"github.com/jacentio/tether/entity"
	"github.com/jacentio/tether/service"
	"github.com/jacentio/tether/validate"
)

// Default collection names.
const (
	CollectionPrincipals = "principals"
	CollectionAuthTypes  = "auth_types"
)

// FieldNameSource is the stored name of an AuthTypeEntity's source.
const FieldNameSource = "source"

// Source messages.
const (
	MessageSourceNotSet  = "认证类型未设置"
	MessageSourceInvalid = "认证类型无效"
)

// PrincipalEntity is an entity owned by a principal.
type PrincipalEntity struct {
	entity.Base
	principalID string
}

func (e *PrincipalEntity) PrincipalID() string { return e.principalID }

func (e *PrincipalEntity) SetPrincipalID(id string) { e.principalID = id }

// AuthTypeEntity is a principal: one authentication method.
type AuthTypeEntity struct {
	entity.Base
	source AuthType
}

func (e *AuthTypeEntity) Source() AuthType { return e.source }

func (e *AuthTypeEntity) SetSource(t AuthType) { e.source = t }

// PrincipalSchema maps PrincipalEntity documents.
var PrincipalSchema = entity.Schema[*PrincipalEntity]{
	Collection: CollectionPrincipals,
	New:        func() *PrincipalEntity { return &PrincipalEntity{} },
	Encode: func(e *PrincipalEntity, doc docstore.Document) {
		if e.principalID == "" {
			doc[attach.FieldNamePrincipalID] = nil
			return
		}
		doc[attach.FieldNamePrincipalID] = e.principalID
	},
	Decode: func(doc docstore.Document, e *PrincipalEntity) error {
		e.principalID = doc.String(attach.FieldNamePrincipalID)
		return nil
	},
}

// AuthTypeSchema maps AuthTypeEntity documents.
var AuthTypeSchema = entity.Schema[*AuthTypeEntity]{
	Collection: CollectionAuthTypes,
	New:        func() *AuthTypeEntity { return &AuthTypeEntity{} },
	Encode: func(e *AuthTypeEntity, doc docstore.Document) {
		if e.source == "" {
			doc[FieldNameSource] = nil
			return
		}
		doc[FieldNameSource] = string(e.source)
	},
	Decode: func(doc docstore.Document, e *AuthTypeEntity) error {
		e.source = AuthType(doc.String(FieldNameSource))
		return nil
	},
}

// NewPrincipalService returns the principal-attached service for
// PrincipalEntity.
func NewPrincipalService(coll docstore.Collection, logger *slog.Logger) *attach.Principal[*PrincipalEntity] {
	base := service.New(coll, PrincipalSchema, service.WithLogger[*PrincipalEntity](logger))
	return attach.NewPrincipal(base)
}

// NewAuthTypeService returns the service for AuthTypeEntity. Sources are
// required and must be known.
func NewAuthTypeService(coll docstore.Collection, logger *slog.Logger) *service.Service[*AuthTypeEntity] {
	return service.New(coll, AuthTypeSchema,
		service.WithLogger[*AuthTypeEntity](logger),
		service.WithValidation[*AuthTypeEntity](ValidateSource),
	)
}

// ValidateSource requires a known source.
func ValidateSource(_ context.Context, e *AuthTypeEntity, _ *AuthTypeEntity, _ bool, v *validate.Validate) error {
	switch {
	case e.source == "":
		v.AddFieldError(FieldNameSource, MessageSourceNotSet)
	case !e.source.Valid():
		v.AddFieldError(FieldNameSource, MessageSourceInvalid)
	}
	return nil
}

// RegisterCascade detaches principal-owned entities when their
// AuthTypeEntity is deleted.
func RegisterCascade(reg *attach.Registry, principals *attach.Principal[*PrincipalEntity], authTypes *service.Service[*AuthTypeEntity]) {
	reg.Register(authTypes.Collection(), principals)
}
