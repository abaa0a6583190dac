package store

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/tether/docstore"
)

// Store-managed attributes.
const (
	attrID      = docstore.FieldID
	attrVersion = "version"
	attrTTL     = "ttl"
)

// isManaged reports whether an attribute is owned by the store.
func isManaged(name string) bool {
	return name == attrID || name == attrVersion || name == attrTTL
}

// marshalDocument converts a document into a DynamoDB item.
func marshalDocument(doc docstore.Document) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(map[string]any(doc))
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return item, nil
}

// unmarshalItem converts a DynamoDB item into a document, dropping the
// store-managed version and ttl attributes.
func unmarshalItem(raw map[string]types.AttributeValue) (docstore.Document, error) {
	var m map[string]any
	if err := attributevalue.UnmarshalMap(raw, &m); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	doc := docstore.Document(m)
	if doc == nil {
		doc = docstore.Document{}
	}
	delete(doc, attrVersion)
	delete(doc, attrTTL)
	return doc, nil
}

// idKey builds the primary key for an id.
func idKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrID: &types.AttributeValueMemberS{Value: id},
	}
}

// filterExpression translates a docstore filter into a DynamoDB filter
// expression. An empty expression means no filtering.
func filterExpression(f docstore.Filter) (string, map[string]string, map[string]types.AttributeValue, error) {
	conds := f.Conditions()
	if len(conds) == 0 {
		return "", nil, nil, nil
	}

	var clauses []string
	names := make(map[string]string)
	values := make(map[string]types.AttributeValue)
	for i, c := range conds {
		nameKey := fmt.Sprintf("#f%d", i)
		names[nameKey] = c.Field

		if c.Value == nil {
			values[":null"] = &types.AttributeValueMemberS{Value: "NULL"}
			clauses = append(clauses, fmt.Sprintf("(attribute_not_exists(%s) OR attribute_type(%s, :null))", nameKey, nameKey))
			continue
		}

		av, err := attributevalue.Marshal(c.Value)
		if err != nil {
			return "", nil, nil, fmt.Errorf("%w: %s: %v", docstore.ErrUnsupportedFilter, c.Field, err)
		}
		valueKey := fmt.Sprintf(":f%d", i)
		values[valueKey] = av
		clauses = append(clauses, fmt.Sprintf("%s = %s", nameKey, valueKey))
	}

	return strings.Join(clauses, " AND "), names, values, nil
}

// updateExpression builds the SET clauses for replacing an item's
// attributes. Attributes are visited in sorted order so the generated
// expression is deterministic.
func updateExpression(item map[string]types.AttributeValue) (string, map[string]string, map[string]types.AttributeValue) {
	keys := make([]string, 0, len(item))
	for k := range item {
		if isManaged(k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var setClauses []string
	exprNames := map[string]string{"#version": attrVersion}
	exprValues := map[string]types.AttributeValue{
		":zero": &types.AttributeValueMemberN{Value: "0"},
		":one":  &types.AttributeValueMemberN{Value: "1"},
	}
	for i, k := range keys {
		nameKey := fmt.Sprintf("#attr%d", i)
		valueKey := fmt.Sprintf(":val%d", i)
		exprNames[nameKey] = k
		exprValues[valueKey] = item[k]
		setClauses = append(setClauses, fmt.Sprintf("%s = %s", nameKey, valueKey))
	}
	setClauses = append(setClauses, "#version = if_not_exists(#version, :zero) + :one")

	return "SET " + strings.Join(setClauses, ", "), exprNames, exprValues
}
