// Package entity defines the identity and bookkeeping shared by stored
// records, and the hand-written schemas that map them to documents.
package entity

import (
	"time"

	"github.com/jacentio/tether/docstore"
)

// Entity is a record with a store-assigned identifier.
type Entity interface {
	ID() string
	SetID(id string)
	Persisted() bool
	CreatedAt() time.Time
	UpdatedAt() time.Time
	SetTimestamps(created, updated time.Time)
}

// Base carries the identifier and timestamps. A pointer to a struct
// embedding Base implements Entity.
type Base struct {
	id        string
	createdAt time.Time
	updatedAt time.Time
}

func (b *Base) ID() string { return b.id }

func (b *Base) SetID(id string) { b.id = id }

// Persisted reports whether the entity has been assigned an identifier.
func (b *Base) Persisted() bool { return b.id != "" }

func (b *Base) CreatedAt() time.Time { return b.createdAt }

func (b *Base) UpdatedAt() time.Time { return b.updatedAt }

func (b *Base) SetTimestamps(created, updated time.Time) {
	b.createdAt = created
	b.updatedAt = updated
}

// Same reports whether a and b are the same persisted record.
func Same(a, b Entity) bool {
	return a.Persisted() && b.Persisted() && a.ID() == b.ID()
}

// EncodeBase writes the managed fields of e into doc.
func EncodeBase(e Entity, doc docstore.Document) {
	if id := e.ID(); id != "" {
		doc[docstore.FieldID] = id
	}
	doc.SetTime(docstore.FieldCreatedAt, e.CreatedAt())
	doc.SetTime(docstore.FieldUpdatedAt, e.UpdatedAt())
}

// DecodeBase reads the managed fields of doc into e.
func DecodeBase(doc docstore.Document, e Entity) {
	e.SetID(doc.ID())
	e.SetTimestamps(doc.Time(docstore.FieldCreatedAt), doc.Time(docstore.FieldUpdatedAt))
}
