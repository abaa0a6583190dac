package entity

import (
	"fmt"

	"github.com/jacentio/tether/docstore"
)

// Schema maps one entity type to its stored document form.
type Schema[E Entity] struct {
	// Collection is the default collection name.
	Collection string

	// New returns an empty entity to decode into.
	New func() E

	// Encode writes the entity's own fields. Managed fields are added by
	// the schema.
	Encode func(E, docstore.Document)

	// Decode reads the entity's own fields.
	Decode func(docstore.Document, E) error
}

// ToDocument encodes e including its managed fields.
func (s Schema[E]) ToDocument(e E) docstore.Document {
	doc := docstore.Document{}
	if s.Encode != nil {
		s.Encode(e, doc)
	}
	EncodeBase(e, doc)
	return doc
}

// FromDocument decodes doc into a new entity.
func (s Schema[E]) FromDocument(doc docstore.Document) (E, error) {
	e := s.New()
	DecodeBase(doc, e)
	if s.Decode != nil {
		if err := s.Decode(doc, e); err != nil {
			var zero E
			return zero, fmt.Errorf("decode %s %s: %w", s.Collection, doc.ID(), err)
		}
	}
	return e, nil
}
