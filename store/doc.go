// Package store provides a DynamoDB backend for docstore collections.
//
// Each collection maps to one DynamoDB table keyed by a string "id"
// attribute. Documents are marshalled with the attributevalue package.
//
// # Managed Attributes
//
// The store maintains a few attributes on every item that are never handed
// back to callers:
//
//   - version: incremented on every write
//   - ttl: set when the item is deleted
//
// # Deletes
//
// Deletes are soft: the item's ttl is set to the current time and DynamoDB
// removes it asynchronously. Reads filter such items out, so a deleted item
// is invisible immediately. Setting ttl produces a MODIFY record on the
// table's stream, which the stream package uses to detach dependent
// entities.
//
// # Queries
//
// Find and Count run a Scan with a filter expression generated from the
// docstore filter and merged with the TTL filter. Find pages lazily: a page
// is only requested once the cursor has consumed the previous one.
//
// # Configuration
//
// Use [DefaultConfig] for strongly consistent reads with DynamoDB's default
// page size:
//
//	s := store.New(client, store.DefaultConfig())
//	principals := s.Collection("principals")
package store
