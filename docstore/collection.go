package docstore

import "context"

// Collection is one logical collection of documents.
type Collection interface {
	// Name returns the collection (table) name.
	Name() string

	// Insert stores a new document. Returns ErrAlreadyExists when a document
	// with the same id is present.
	Insert(ctx context.Context, doc Document) error

	// Replace overwrites the document with the given id.
	// Returns ErrNotFound when it does not exist.
	Replace(ctx context.Context, id string, doc Document) error

	// FindOne returns the first matching document, or ErrNotFound.
	FindOne(ctx context.Context, f Filter) (Document, error)

	// Find returns a lazy cursor over matching documents in store order.
	// Errors opening the query surface through Cursor.Err.
	Find(ctx context.Context, f Filter) Cursor

	// Count returns the number of matching documents.
	Count(ctx context.Context, f Filter) (int64, error)

	// Delete removes every matching document.
	Delete(ctx context.Context, f Filter) (DeleteResult, error)
}

// Cursor iterates over query results. Callers must Close it.
type Cursor interface {
	// Next advances to the next document, fetching from the store as needed.
	Next(ctx context.Context) bool

	// Document returns the current document.
	Document() Document

	// Err returns the error that stopped iteration, if any.
	Err() error

	// Close releases the cursor.
	Close(ctx context.Context) error
}

// DeleteResult reports the outcome of a Delete.
type DeleteResult struct {
	DeletedCount int64
}

// SliceCursor is a Cursor over documents already in memory.
type SliceCursor struct {
	docs []Document
	pos  int
	err  error
}

// NewSliceCursor returns a cursor over docs. A non-nil err is reported by
// Err without yielding any document.
func NewSliceCursor(docs []Document, err error) *SliceCursor {
	return &SliceCursor{docs: docs, pos: -1, err: err}
}

func (c *SliceCursor) Next(ctx context.Context) bool {
	if c.err != nil {
		return false
	}
	if err := ctx.Err(); err != nil {
		c.err = err
		return false
	}
	if c.pos+1 >= len(c.docs) {
		c.pos = len(c.docs)
		return false
	}
	c.pos++
	return true
}

func (c *SliceCursor) Document() Document {
	if c.pos < 0 || c.pos >= len(c.docs) {
		return nil
	}
	return c.docs[c.pos]
}

func (c *SliceCursor) Err() error {
	return c.err
}

func (c *SliceCursor) Close(context.Context) error {
	c.docs = nil
	c.pos = 0
	return nil
}
