// Package docstore defines the document store boundary used by entity services.
//
// A backend implements [Collection] for one logical collection of documents.
// Three backends ship with tether:
//
//   - memstore: in-memory, insertion ordered, used by tests and the CLI
//   - store: DynamoDB, with TTL based soft deletes
//   - mongostore: MongoDB
//
// # Documents
//
// A [Document] is a flat map of scalar values. The key [FieldID] holds the
// identifier. Backends may persist extra bookkeeping attributes (version,
// ttl) but never return them to callers.
//
// # Filters
//
// Filters are opaque predicates built with [Eq], [ID] and [And]. The zero
// [Filter] matches every document. Backends translate filters into their own
// query language; only equality on scalar fields is supported.
//
// # Errors
//
//   - [ErrNotFound] - no document matched
//   - [ErrAlreadyExists] - insert with an identifier already in use
//   - [ErrConcurrentModification] - conditional write lost a race
//   - [ErrUnsupportedFilter] - backend cannot express the filter
package docstore
