// Package service provides generic persistence and validation for entities
// stored in a docstore collection.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jacentio/tether/docstore"
	"github.com/jacentio/tether/entity"
	"github.com/jacentio/tether/validate"
)

// Validation checks an entity before it is written. original is the stored
// version and is only meaningful when persisted is true. Problems are
// recorded in v; a returned error aborts the save.
type Validation[E entity.Entity] func(ctx context.Context, e E, original E, persisted bool, v *validate.Validate) error

// Option configures a Service.
type Option[E entity.Entity] func(*Service[E])

// WithValidation registers a validation run on every save.
func WithValidation[E entity.Entity](fn Validation[E]) Option[E] {
	return func(s *Service[E]) {
		s.validations = append(s.validations, fn)
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger[E entity.Entity](logger *slog.Logger) Option[E] {
	return func(s *Service[E]) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock[E entity.Entity](now func() time.Time) Option[E] {
	return func(s *Service[E]) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides identifier generation for new entities.
func WithIDGenerator[E entity.Entity](gen func() string) Option[E] {
	return func(s *Service[E]) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// Service stores entities of one type in one collection.
type Service[E entity.Entity] struct {
	coll        docstore.Collection
	schema      entity.Schema[E]
	validations []Validation[E]
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
}

// New creates a service over coll.
func New[E entity.Entity](coll docstore.Collection, schema entity.Schema[E], opts ...Option[E]) *Service[E] {
	s := &Service[E]{
		coll:   coll,
		schema: schema,
		logger: slog.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Use registers an additional validation.
func (s *Service[E]) Use(fn Validation[E]) {
	s.validations = append(s.validations, fn)
}

// Collection returns the name of the backing collection.
func (s *Service[E]) Collection() string {
	return s.coll.Name()
}

// Save validates and writes e. A nil v is replaced by an internal
// validator whose messages are discarded.
//
// The zero E is returned with a nil error when validation fails or when a
// persisted entity has no changes; errors are reserved for store failures.
func (s *Service[E]) Save(ctx context.Context, e E, v *validate.Validate) (E, error) {
	var zero E
	if v == nil {
		v = validate.New()
	}

	var (
		original  E
		stored    docstore.Document
		persisted bool
	)
	if id := e.ID(); id != "" {
		doc, err := s.coll.FindOne(ctx, docstore.ID(id))
		switch {
		case errors.Is(err, docstore.ErrNotFound):
			// Preset id that has never been stored.
		case err != nil:
			return zero, s.storeErr("load", err)
		default:
			original, err = s.schema.FromDocument(doc)
			if err != nil {
				return zero, s.storeErr("load", err)
			}
			stored = doc
			persisted = true
		}
	}

	for _, fn := range s.validations {
		if err := fn(ctx, e, original, persisted, v); err != nil {
			return zero, err
		}
	}
	if v.HasErrors() {
		s.logger.Debug("save rejected by validation",
			"collection", s.coll.Name(),
			"id", e.ID(),
			"fields", v.Fields(),
		)
		return zero, nil
	}

	if !persisted {
		return s.insert(ctx, e)
	}

	if s.schema.ToDocument(e).Equal(stored) {
		s.logger.Debug("save skipped, entity unchanged",
			"collection", s.coll.Name(),
			"id", e.ID(),
		)
		return zero, nil
	}
	return s.replace(ctx, e)
}

func (s *Service[E]) insert(ctx context.Context, e E) (E, error) {
	var zero E
	prevID := e.ID()
	prevCreated, prevUpdated := e.CreatedAt(), e.UpdatedAt()

	if prevID == "" {
		e.SetID(s.newID())
	}
	now := s.now().UTC()
	e.SetTimestamps(now, now)

	if err := s.coll.Insert(ctx, s.schema.ToDocument(e)); err != nil {
		e.SetID(prevID)
		e.SetTimestamps(prevCreated, prevUpdated)
		return zero, s.storeErr("insert", err)
	}

	s.logger.Info("entity created", "collection", s.coll.Name(), "id", e.ID())
	return e, nil
}

func (s *Service[E]) replace(ctx context.Context, e E) (E, error) {
	var zero E
	prevCreated, prevUpdated := e.CreatedAt(), e.UpdatedAt()

	e.SetTimestamps(prevCreated, s.now().UTC())
	if err := s.coll.Replace(ctx, e.ID(), s.schema.ToDocument(e)); err != nil {
		e.SetTimestamps(prevCreated, prevUpdated)
		return zero, s.storeErr("replace", err)
	}

	s.logger.Info("entity updated", "collection", s.coll.Name(), "id", e.ID())
	return e, nil
}

// FindByID returns the entity with the given id. A missing entity is not
// an error.
func (s *Service[E]) FindByID(ctx context.Context, id string) (E, bool, error) {
	if id == "" {
		var zero E
		return zero, false, nil
	}
	return s.FindOne(ctx, docstore.ID(id))
}

// FindOne returns the first entity matching f.
func (s *Service[E]) FindOne(ctx context.Context, f docstore.Filter) (E, bool, error) {
	var zero E
	doc, err := s.coll.FindOne(ctx, f)
	if errors.Is(err, docstore.ErrNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, s.storeErr("find", err)
	}
	e, err := s.schema.FromDocument(doc)
	if err != nil {
		return zero, false, s.storeErr("find", err)
	}
	return e, true, nil
}

// Find returns a lazy cursor over entities matching f.
func (s *Service[E]) Find(ctx context.Context, f docstore.Filter) *Cursor[E] {
	return newCursor(s, s.coll.Find(ctx, f))
}

// Count returns the number of entities matching f.
func (s *Service[E]) Count(ctx context.Context, f docstore.Filter) (int64, error) {
	n, err := s.coll.Count(ctx, f)
	if err != nil {
		return 0, s.storeErr("count", err)
	}
	return n, nil
}

// DeleteByID removes the entity with the given id.
func (s *Service[E]) DeleteByID(ctx context.Context, id string) (docstore.DeleteResult, error) {
	return s.Delete(ctx, docstore.ID(id))
}

// Delete removes every entity matching f.
func (s *Service[E]) Delete(ctx context.Context, f docstore.Filter) (docstore.DeleteResult, error) {
	res, err := s.coll.Delete(ctx, f)
	if err != nil {
		return docstore.DeleteResult{}, s.storeErr("delete", err)
	}
	s.logger.Info("entities deleted",
		"collection", s.coll.Name(),
		"filter", f.String(),
		"count", res.DeletedCount,
	)
	return res, nil
}

func (s *Service[E]) storeErr(op string, err error) error {
	return &StoreError{Op: op, Collection: s.coll.Name(), Err: err}
}
