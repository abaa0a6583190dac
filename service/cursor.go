package service

import (
	"context"
	"iter"

	"github.com/jacentio/tether/docstore"
	"github.com/jacentio/tether/entity"
)

// Cursor iterates lazily over entities. Documents are fetched and decoded
// one at a time as Next is called.
type Cursor[E entity.Entity] struct {
	svc *Service[E]
	cur docstore.Cursor
	e   E
	err error
}

func newCursor[E entity.Entity](svc *Service[E], cur docstore.Cursor) *Cursor[E] {
	return &Cursor[E]{svc: svc, cur: cur}
}

// Next advances to the next entity.
func (c *Cursor[E]) Next(ctx context.Context) bool {
	var zero E
	if c.err != nil {
		return false
	}
	if !c.cur.Next(ctx) {
		c.e = zero
		if err := c.cur.Err(); err != nil {
			c.err = c.svc.storeErr("find", err)
		}
		return false
	}
	e, err := c.svc.schema.FromDocument(c.cur.Document())
	if err != nil {
		c.e = zero
		c.err = c.svc.storeErr("find", err)
		return false
	}
	c.e = e
	return true
}

// Entity returns the current entity.
func (c *Cursor[E]) Entity() E { return c.e }

// Err returns the error that stopped iteration, if any.
func (c *Cursor[E]) Err() error { return c.err }

// Close releases the underlying store cursor.
func (c *Cursor[E]) Close(ctx context.Context) error {
	return c.cur.Close(ctx)
}

// First returns the first entity and closes the cursor.
func (c *Cursor[E]) First(ctx context.Context) (E, bool, error) {
	defer c.Close(ctx)
	if c.Next(ctx) {
		return c.e, true, nil
	}
	var zero E
	return zero, false, c.err
}

// All drains the cursor and closes it.
func (c *Cursor[E]) All(ctx context.Context) ([]E, error) {
	defer c.Close(ctx)
	var out []E
	for c.Next(ctx) {
		out = append(out, c.e)
	}
	return out, c.err
}

// Seq returns the remaining entities as an iterator. A store error is
// yielded once as the final pair. The cursor is closed when iteration
// stops.
func (c *Cursor[E]) Seq(ctx context.Context) iter.Seq2[E, error] {
	return func(yield func(E, error) bool) {
		defer c.Close(ctx)
		for c.Next(ctx) {
			if !yield(c.e, nil) {
				return
			}
		}
		if c.err != nil {
			var zero E
			yield(zero, c.err)
		}
	}
}
