package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/tether/docstore"
)

// API is the subset of the DynamoDB client used by the store.
// *dynamodb.Client satisfies it.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	dynamodb.ScanAPIClient
}

var _ API = (*dynamodb.Client)(nil)

// Store provides DynamoDB-backed collections.
type Store struct {
	client API
	config Config
}

// New creates a new Store instance.
func New(client API, config Config) *Store {
	config.validate()
	return &Store{
		client: client,
		config: config,
	}
}

// Config returns the validated configuration.
func (s *Store) Config() Config {
	return s.config
}

// Collection returns the collection stored in the given table.
func (s *Store) Collection(table string) *Collection {
	return &Collection{store: s, table: table}
}

// Collection is a docstore.Collection over one DynamoDB table.
type Collection struct {
	store *Store
	table string
}

var _ docstore.Collection = (*Collection)(nil)

func (c *Collection) Name() string { return c.table }

const insertCondition = "attribute_not_exists(#id) OR attribute_exists(#ttl)"

// Insert creates a new item, failing if a live item holds the id. A
// soft-deleted item with the same id is overwritten.
func (c *Collection) Insert(ctx context.Context, doc docstore.Document) error {
	if doc.ID() == "" {
		return fmt.Errorf("store: insert into %s: document has no id", c.table)
	}
	item, err := marshalDocument(doc)
	if err != nil {
		return err
	}

	nowISO := time.Now().UTC().Format(docstore.TimeLayout)
	item[attrVersion] = &types.AttributeValueMemberN{Value: "1"}
	if _, ok := doc[docstore.FieldCreatedAt].(string); !ok {
		item[docstore.FieldCreatedAt] = &types.AttributeValueMemberS{Value: nowISO}
	}
	if _, ok := doc[docstore.FieldUpdatedAt].(string); !ok {
		item[docstore.FieldUpdatedAt] = &types.AttributeValueMemberS{Value: nowISO}
	}
	delete(item, attrTTL)

	_, err = c.store.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(c.table),
		Item:                     item,
		ConditionExpression:      aws.String(insertCondition),
		ExpressionAttributeNames: map[string]string{"#id": attrID, "#ttl": attrTTL},
	})
	return mapConditionError(err, docstore.ErrAlreadyExists)
}

// Replace overwrites the attributes of a live item and bumps its version.
func (c *Collection) Replace(ctx context.Context, id string, doc docstore.Document) error {
	item, err := marshalDocument(doc)
	if err != nil {
		return err
	}
	updateExpr, exprNames, exprValues := updateExpression(item)

	_, err = c.store.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(c.table),
		Key:                       idKey(id),
		UpdateExpression:          aws.String(updateExpr),
		ConditionExpression:       aws.String(ActiveCondition()),
		ExpressionAttributeNames:  mergeExpr(exprNames, TTLFilterNames(), map[string]string{"#id": attrID}),
		ExpressionAttributeValues: exprValues,
	})
	return mapConditionError(err, docstore.ErrNotFound)
}

// FindOne returns the first live item matching f. ID filters use GetItem.
func (c *Collection) FindOne(ctx context.Context, f docstore.Filter) (docstore.Document, error) {
	if id, ok := f.IDValue(); ok {
		return c.get(ctx, id)
	}

	cur := c.Find(ctx, f)
	defer cur.Close(ctx)
	if cur.Next(ctx) {
		return cur.Document(), nil
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return nil, docstore.ErrNotFound
}

// get retrieves an item by id, returning ErrNotFound if deleted or missing.
func (c *Collection) get(ctx context.Context, id string) (docstore.Document, error) {
	result, err := c.store.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(c.table),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(c.store.config.ConsistentRead),
	})
	if err != nil {
		return nil, err
	}
	if result.Item == nil {
		return nil, docstore.ErrNotFound
	}

	// Check if item is deleted (has expired TTL)
	if IsDeleted(result.Item) {
		return nil, docstore.ErrNotFound
	}

	return unmarshalItem(result.Item)
}

// Find scans the table lazily. The first page is requested on the first
// call to Next.
func (c *Collection) Find(ctx context.Context, f docstore.Filter) docstore.Cursor {
	input, err := c.scanInput(f)
	if err != nil {
		return docstore.NewSliceCursor(nil, err)
	}
	return &scanCursor{
		paginator: dynamodb.NewScanPaginator(c.store.client, input),
	}
}

// Count scans the table and sums the per-page match counts.
func (c *Collection) Count(ctx context.Context, f docstore.Filter) (int64, error) {
	input, err := c.scanInput(f)
	if err != nil {
		return 0, err
	}
	input.Select = types.SelectCount

	var total int64
	paginator := dynamodb.NewScanPaginator(c.store.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, err
		}
		total += int64(page.Count)
	}
	return total, nil
}

// Delete soft-deletes every live item matching f by setting its TTL.
// Items already marked by a concurrent delete are not counted.
func (c *Collection) Delete(ctx context.Context, f docstore.Filter) (docstore.DeleteResult, error) {
	var ids []string
	if id, ok := f.IDValue(); ok {
		ids = []string{id}
	} else {
		input, err := c.scanInput(f)
		if err != nil {
			return docstore.DeleteResult{}, err
		}
		input.ProjectionExpression = aws.String("#id")
		input.ExpressionAttributeNames = mergeExpr(input.ExpressionAttributeNames, map[string]string{"#id": attrID})

		paginator := dynamodb.NewScanPaginator(c.store.client, input)
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				return docstore.DeleteResult{}, err
			}
			for _, raw := range page.Items {
				if v, ok := raw[attrID].(*types.AttributeValueMemberS); ok {
					ids = append(ids, v.Value)
				}
			}
		}
	}

	var result docstore.DeleteResult
	for _, id := range ids {
		marked, err := c.SetTTL(ctx, id, time.Now().Unix())
		if err != nil {
			return result, err
		}
		if marked {
			result.DeletedCount++
		}
	}
	return result, nil
}

// SetTTL marks a live item for deletion at ttl (unix seconds) and bumps its
// version so concurrent replaces fail. It reports false when the item is
// missing or already marked.
func (c *Collection) SetTTL(ctx context.Context, id string, ttl int64) (bool, error) {
	_, err := c.store.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(c.table),
		Key:                 idKey(id),
		UpdateExpression:    aws.String("SET #ttl = :ttl, #version = if_not_exists(#version, :zero) + :one"),
		ConditionExpression: aws.String(ActiveCondition()),
		ExpressionAttributeNames: map[string]string{
			"#id":      attrID,
			"#ttl":     attrTTL,
			"#version": attrVersion,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ttl": &types.AttributeValueMemberN{
				Value: strconv.FormatInt(ttl, 10),
			},
			":zero": &types.AttributeValueMemberN{Value: "0"},
			":one":  &types.AttributeValueMemberN{Value: "1"},
		},
	})

	// Condition failure - missing or already has TTL (already deleted)
	if isConditionFailed(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// scanInput builds a Scan over live items matching f.
func (c *Collection) scanInput(f docstore.Filter) (*dynamodb.ScanInput, error) {
	expr, names, values, err := filterExpression(f)
	if err != nil {
		return nil, err
	}

	// Merge TTL filter with any existing filter
	filterExpr := TTLFilterExpr()
	if expr != "" {
		filterExpr = fmt.Sprintf("(%s) AND (%s)", expr, filterExpr)
	}

	input := &dynamodb.ScanInput{
		TableName:                 aws.String(c.table),
		FilterExpression:          aws.String(filterExpr),
		ExpressionAttributeNames:  mergeExpr(TTLFilterNames(), names),
		ExpressionAttributeValues: mergeExpr(TTLFilterValues(), values),
		ConsistentRead:            aws.Bool(c.store.config.ConsistentRead),
	}
	if c.store.config.PageSize > 0 {
		input.Limit = aws.Int32(c.store.config.PageSize)
	}
	return input, nil
}

// scanCursor walks Scan pages on demand.
type scanCursor struct {
	paginator *dynamodb.ScanPaginator
	page      []map[string]types.AttributeValue
	cur       docstore.Document
	err       error
	closed    bool
}

func (c *scanCursor) Next(ctx context.Context) bool {
	if c.closed || c.err != nil {
		return false
	}
	for len(c.page) == 0 {
		if !c.paginator.HasMorePages() {
			c.cur = nil
			return false
		}
		out, err := c.paginator.NextPage(ctx)
		if err != nil {
			c.err = err
			return false
		}
		c.page = out.Items
	}

	raw := c.page[0]
	c.page = c.page[1:]
	doc, err := unmarshalItem(raw)
	if err != nil {
		c.err = err
		return false
	}
	c.cur = doc
	return true
}

func (c *scanCursor) Document() docstore.Document { return c.cur }

func (c *scanCursor) Err() error { return c.err }

func (c *scanCursor) Close(context.Context) error {
	c.closed = true
	c.page = nil
	c.cur = nil
	return nil
}
