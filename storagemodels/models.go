/*
 * Copyright © 2025 Ragamala Labs, All rights reserved.
 */

package storagemodels

// QueryParams defines one index scan against the catalog table.
type QueryParams struct {
	// Index selects the secondary index ("gsi1".."gsi6"); empty means the primary key.
	Index string
	// PartitionValue is the exact partition key value for the chosen index.
	PartitionValue string
	// SortPrefix optionally constrains the sort key with a begins_with match.
	SortPrefix string
	// Descending reverses the sort-key traversal order. Popularity-ranked
	// slots are scanned descending so the highest scores come first.
	Descending bool
	// Limit caps the page size. The repository passes it through; ceilings
	// are the caller's contract.
	Limit int32
	// Cursor resumes a prior scan. Opaque to callers.
	Cursor string
}

// Page is one page of a paginated query result.
type Page[T any] struct {
	Items []T
	// NextCursor is defined only when HasMore is true.
	NextCursor string
	HasMore    bool
}
