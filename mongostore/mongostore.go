// Package mongostore provides a MongoDB backend for docstore collections.
//
// Document ids are stored in the _id field. Legacy documents keyed by an
// ObjectID are read back with the hex form of the id, and a hex id matches
// either the string or the ObjectID form.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jacentio/tether/docstore"
)

const mongoIDField = "_id"

// Cursor interface for mocking
type Cursor interface {
	Next(ctx context.Context) bool
	Decode(v interface{}) error
	Err() error
	Close(ctx context.Context) error
}

// SingleResult interface for mocking
type SingleResult interface {
	Decode(v interface{}) error
}

// CollectionAPI interface for mocking
type CollectionAPI interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) SingleResult
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (Cursor, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

// mongoCollection adapts *mongo.Collection to CollectionAPI
type mongoCollection struct {
	*mongo.Collection
}

var _ CollectionAPI = (*mongoCollection)(nil)

func (m *mongoCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) SingleResult {
	return m.Collection.FindOne(ctx, filter, opts...)
}

func (m *mongoCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (Cursor, error) {
	cursor, err := m.Collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	return cursor, nil
}

// MongoDB holds the MongoDB client and database
type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// Connect creates a new MongoDB connection and verifies it with a ping.
func Connect(ctx context.Context, uri, dbName string, maxPoolSize uint64, logger *slog.Logger) (*MongoDB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	if maxPoolSize > 0 {
		clientOptions.SetMaxPoolSize(maxPoolSize)
	}
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info("connected to MongoDB", "database", dbName)

	return &MongoDB{
		Client:   client,
		Database: client.Database(dbName),
	}, nil
}

// Collection returns the named collection of the connected database.
func (m *MongoDB) Collection(name string) *Collection {
	return New(m.Database).Collection(name)
}

// HealthCheck performs a health check on the MongoDB connection
func (m *MongoDB) HealthCheck(ctx context.Context) error {
	return m.Client.Ping(ctx, nil)
}

// Close closes the MongoDB connection
func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

// DB opens collections of one database.
type DB struct {
	db *mongo.Database
}

// New wraps a database handle.
func New(db *mongo.Database) *DB {
	return &DB{db: db}
}

// Collection returns the named collection.
func (d *DB) Collection(name string) *Collection {
	return NewCollection(name, &mongoCollection{Collection: d.db.Collection(name)})
}

// Collection is a docstore.Collection over one MongoDB collection.
type Collection struct {
	name string
	coll CollectionAPI
}

// NewCollection wraps coll, which is normally a *mongo.Collection adapter.
func NewCollection(name string, coll CollectionAPI) *Collection {
	return &Collection{name: name, coll: coll}
}

var _ docstore.Collection = (*Collection)(nil)

func (c *Collection) Name() string { return c.name }

func (c *Collection) Insert(ctx context.Context, doc docstore.Document) error {
	if doc.ID() == "" {
		return fmt.Errorf("mongostore: insert into %s: document has no id", c.name)
	}
	_, err := c.coll.InsertOne(ctx, toBSON(doc))
	if mongo.IsDuplicateKeyError(err) {
		return docstore.ErrAlreadyExists
	}
	return err
}

func (c *Collection) Replace(ctx context.Context, id string, doc docstore.Document) error {
	// _id is immutable; leaving it out keeps the stored form.
	replacement := toBSON(doc)
	delete(replacement, mongoIDField)

	res, err := c.coll.ReplaceOne(ctx, bson.D{{Key: mongoIDField, Value: idValue(id)}}, replacement)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (c *Collection) FindOne(ctx context.Context, f docstore.Filter) (docstore.Document, error) {
	var m bson.M
	err := c.coll.FindOne(ctx, filterBSON(f)).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromBSON(m), nil
}

// Find defers the query until the first call to Next.
func (c *Collection) Find(ctx context.Context, f docstore.Filter) docstore.Cursor {
	return &cursor{coll: c.coll, filter: filterBSON(f)}
}

func (c *Collection) Count(ctx context.Context, f docstore.Filter) (int64, error) {
	return c.coll.CountDocuments(ctx, filterBSON(f))
}

func (c *Collection) Delete(ctx context.Context, f docstore.Filter) (docstore.DeleteResult, error) {
	res, err := c.coll.DeleteMany(ctx, filterBSON(f))
	if err != nil {
		return docstore.DeleteResult{}, err
	}
	return docstore.DeleteResult{DeletedCount: res.DeletedCount}, nil
}

// filterBSON translates a docstore filter into a MongoDB query document.
func filterBSON(f docstore.Filter) bson.D {
	out := bson.D{}
	for _, c := range f.Conditions() {
		key, value := c.Field, c.Value
		if key == docstore.FieldID {
			key = mongoIDField
			if s, ok := value.(string); ok {
				value = idValue(s)
			}
		}
		out = append(out, bson.E{Key: key, Value: value})
	}
	return out
}

// idValue matches id, or its ObjectID form when id is valid hex.
func idValue(id string) any {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return id
	}
	return bson.M{"$in": bson.A{id, oid}}
}

// toBSON converts a document for storage, moving id to _id.
func toBSON(doc docstore.Document) bson.M {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		if k == docstore.FieldID {
			out[mongoIDField] = v
			continue
		}
		out[k] = v
	}
	return out
}

// fromBSON converts a stored document back, moving _id to id.
func fromBSON(m bson.M) docstore.Document {
	doc := make(docstore.Document, len(m))
	for k, v := range m {
		if k == mongoIDField {
			switch id := v.(type) {
			case string:
				doc[docstore.FieldID] = id
			case primitive.ObjectID:
				doc[docstore.FieldID] = id.Hex()
			default:
				doc[docstore.FieldID] = fmt.Sprint(id)
			}
			continue
		}
		doc[k] = v
	}
	return doc
}

// cursor opens the underlying mongo cursor lazily.
type cursor struct {
	coll   CollectionAPI
	filter bson.D
	mc     Cursor
	cur    docstore.Document
	err    error
	closed bool
}

func (c *cursor) Next(ctx context.Context) bool {
	if c.closed || c.err != nil {
		return false
	}
	if c.mc == nil {
		mc, err := c.coll.Find(ctx, c.filter)
		if err != nil {
			c.err = err
			return false
		}
		c.mc = mc
	}
	if !c.mc.Next(ctx) {
		c.err = c.mc.Err()
		c.cur = nil
		return false
	}
	var m bson.M
	if err := c.mc.Decode(&m); err != nil {
		c.err = fmt.Errorf("decode document: %w", err)
		return false
	}
	c.cur = fromBSON(m)
	return true
}

func (c *cursor) Document() docstore.Document { return c.cur }

func (c *cursor) Err() error { return c.err }

func (c *cursor) Close(ctx context.Context) error {
	c.closed = true
	c.cur = nil
	if c.mc == nil {
		return nil
	}
	return c.mc.Close(ctx)
}
