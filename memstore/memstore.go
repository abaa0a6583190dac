// Package memstore provides an in-memory docstore backend.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/jacentio/tether/docstore"
)

// DB is a set of named in-memory collections.
type DB struct {
	mu          sync.Mutex
	collections map[string]*Collection
}

// New creates an empty DB.
func New() *DB {
	return &DB{collections: make(map[string]*Collection)}
}

// Collection returns the named collection, creating it on first use.
func (db *DB) Collection(name string) *Collection {
	db.mu.Lock()
	defer db.mu.Unlock()
	c, ok := db.collections[name]
	if !ok {
		c = NewCollection(name)
		db.collections[name] = c
	}
	return c
}

// Drop removes every collection.
func (db *DB) Drop() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.collections = make(map[string]*Collection)
}

// Collection is an insertion-ordered in-memory collection.
type Collection struct {
	name string

	mu    sync.RWMutex
	order []string
	docs  map[string]docstore.Document
}

var _ docstore.Collection = (*Collection)(nil)

// NewCollection creates an empty collection.
func NewCollection(name string) *Collection {
	return &Collection{
		name: name,
		docs: make(map[string]docstore.Document),
	}
}

func (c *Collection) Name() string { return c.name }

func (c *Collection) Insert(ctx context.Context, doc docstore.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id := doc.ID()
	if id == "" {
		return fmt.Errorf("memstore: insert into %s: document has no id", c.name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.docs[id]; exists {
		return docstore.ErrAlreadyExists
	}
	c.docs[id] = doc.Clone()
	c.order = append(c.order, id)
	return nil
}

func (c *Collection) Replace(ctx context.Context, id string, doc docstore.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.docs[id]; !exists {
		return docstore.ErrNotFound
	}
	stored := doc.Clone()
	stored[docstore.FieldID] = id
	c.docs[id] = stored
	return nil
}

func (c *Collection) FindOne(ctx context.Context, f docstore.Filter) (docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if id, ok := f.IDValue(); ok {
		doc, exists := c.docs[id]
		if !exists {
			return nil, docstore.ErrNotFound
		}
		return doc.Clone(), nil
	}
	for _, id := range c.order {
		if doc := c.docs[id]; f.Match(doc) {
			return doc.Clone(), nil
		}
	}
	return nil, docstore.ErrNotFound
}

// Find snapshots the matching ids and resolves each document as the
// cursor advances, so documents removed mid-iteration are skipped.
func (c *Collection) Find(ctx context.Context, f docstore.Filter) docstore.Cursor {
	c.mu.RLock()
	ids := append([]string(nil), c.order...)
	c.mu.RUnlock()
	return &cursor{coll: c, filter: f, ids: ids}
}

func (c *Collection) Count(ctx context.Context, f docstore.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	var n int64
	for _, id := range c.order {
		if f.Match(c.docs[id]) {
			n++
		}
	}
	return n, nil
}

func (c *Collection) Delete(ctx context.Context, f docstore.Filter) (docstore.DeleteResult, error) {
	if err := ctx.Err(); err != nil {
		return docstore.DeleteResult{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.order[:0]
	var deleted int64
	for _, id := range c.order {
		if f.Match(c.docs[id]) {
			delete(c.docs, id)
			deleted++
			continue
		}
		kept = append(kept, id)
	}
	c.order = kept
	return docstore.DeleteResult{DeletedCount: deleted}, nil
}

// Len returns the number of stored documents.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

type cursor struct {
	coll   *Collection
	filter docstore.Filter
	ids    []string
	pos    int
	cur    docstore.Document
	err    error
	closed bool
}

func (c *cursor) Next(ctx context.Context) bool {
	if c.closed || c.err != nil {
		return false
	}
	if err := ctx.Err(); err != nil {
		c.err = err
		return false
	}
	for c.pos < len(c.ids) {
		id := c.ids[c.pos]
		c.pos++

		c.coll.mu.RLock()
		doc, ok := c.coll.docs[id]
		c.coll.mu.RUnlock()
		if ok && c.filter.Match(doc) {
			c.cur = doc.Clone()
			return true
		}
	}
	c.cur = nil
	return false
}

func (c *cursor) Document() docstore.Document { return c.cur }

func (c *cursor) Err() error { return c.err }

func (c *cursor) Close(context.Context) error {
	c.closed = true
	c.cur = nil
	c.ids = nil
	return nil
}
