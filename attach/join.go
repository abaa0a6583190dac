package attach

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jacentio/tether/docstore"
	"github.com/jacentio/tether/entity"
	"github.com/jacentio/tether/service"
)

// Finder looks up related records by identifier.
type Finder[P any] interface {
	FindByID(ctx context.Context, id string) (P, bool, error)
}

// Joined pairs an entity with its principal. Found is false when the
// reference is empty or dangling.
type Joined[E, P any] struct {
	Entity    E
	Principal P
	Found     bool
}

// JoinCursor iterates lazily over joined pairs. Each step reads one entity
// and performs one principal lookup.
type JoinCursor[E PrincipalAttachedEntity, P any] struct {
	cur     *service.Cursor[E]
	related Finder[P]
	cache   *lru.Cache[string, lookup[P]]
	joined  Joined[E, P]
	err     error
}

type lookup[P any] struct {
	p     P
	found bool
}

// FindWithPrincipal pairs every entity matching f with its principal from
// related. The zero filter matches all entities.
func FindWithPrincipal[E PrincipalAttachedEntity, P entity.Entity](ctx context.Context, s *Principal[E], related Finder[P], f docstore.Filter) *JoinCursor[E, P] {
	return &JoinCursor[E, P]{
		cur:     s.Service().Find(ctx, f),
		related: related,
	}
}

// Cached remembers up to size principal lookups, so entities sharing a
// principal cost one lookup between them. Cached pairs share the same P
// value. Call it before the first Next; size <= 0 disables the cache.
func (c *JoinCursor[E, P]) Cached(size int) *JoinCursor[E, P] {
	if size <= 0 {
		c.cache = nil
		return c
	}
	cache, err := lru.New[string, lookup[P]](size)
	if err == nil {
		c.cache = cache
	}
	return c
}

// Next advances to the next pair.
func (c *JoinCursor[E, P]) Next(ctx context.Context) bool {
	if c.err != nil {
		return false
	}
	c.joined = Joined[E, P]{}
	if !c.cur.Next(ctx) {
		c.err = c.cur.Err()
		return false
	}

	e := c.cur.Entity()
	j := Joined[E, P]{Entity: e}
	if id := e.PrincipalID(); id != "" {
		l, err := c.lookup(ctx, id)
		if err != nil {
			c.err = fmt.Errorf("find principal %s: %w", id, err)
			return false
		}
		j.Principal, j.Found = l.p, l.found
	}
	c.joined = j
	return true
}

func (c *JoinCursor[E, P]) lookup(ctx context.Context, id string) (lookup[P], error) {
	if c.cache != nil {
		if l, ok := c.cache.Get(id); ok {
			return l, nil
		}
	}
	p, ok, err := c.related.FindByID(ctx, id)
	if err != nil {
		return lookup[P]{}, err
	}
	l := lookup[P]{p: p, found: ok}
	if c.cache != nil {
		c.cache.Add(id, l)
	}
	return l, nil
}

// Joined returns the current pair.
func (c *JoinCursor[E, P]) Joined() Joined[E, P] { return c.joined }

// Err returns the error that stopped iteration, if any.
func (c *JoinCursor[E, P]) Err() error { return c.err }

// Close releases the underlying cursor.
func (c *JoinCursor[E, P]) Close(ctx context.Context) error {
	return c.cur.Close(ctx)
}

// First returns the first pair and closes the cursor.
func (c *JoinCursor[E, P]) First(ctx context.Context) (Joined[E, P], bool, error) {
	defer c.Close(ctx)
	if c.Next(ctx) {
		return c.joined, true, nil
	}
	return Joined[E, P]{}, false, c.err
}

// All drains the cursor and closes it.
func (c *JoinCursor[E, P]) All(ctx context.Context) ([]Joined[E, P], error) {
	defer c.Close(ctx)
	var out []Joined[E, P]
	for c.Next(ctx) {
		out = append(out, c.joined)
	}
	return out, c.err
}
