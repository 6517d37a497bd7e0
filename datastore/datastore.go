/*
 * Copyright © 2025 Ragamala Labs, All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/go-openapi/strfmt"

	"github.com/ragamala/catalogstore/keys"
	"github.com/ragamala/catalogstore/storagemodels"
)

// Creatable is implemented by entities that receive creation-time defaults
// (assigned id, timestamps, version 1, creator as first editor) before the
// conditional write.
type Creatable interface {
	PrepareForCreate(id string, now strfmt.DateTime)
}

// Repository is the generic data-access contract for one entity type. Row
// encoding and decoding belong exclusively to implementations; callers deal
// in typed entities and key tuples from the key codec.
//
// In the changes maps accepted by Update and UpdateIf, a nil value removes
// the attribute.
type Repository[T any] interface {
	// Create writes a new row, failing with ErrConflict if the key exists.
	Create(ctx context.Context, entity T) (*T, error)

	// Put writes a row unconditionally. Used for immutable version snapshots.
	Put(ctx context.Context, entity T) error

	// PutIf replaces a row only when its field equals expect, failing with
	// ErrConflict when the condition is lost. Used to flip the latest row
	// during version creation.
	PutIf(ctx context.Context, entity T, field string, expect any) (*T, error)

	// Get reads one row by its exact key.
	Get(ctx context.Context, key keys.KeyTuple) (*T, error)

	// GetLatest reads the authoritative latest row for a versioned entity id.
	GetLatest(ctx context.Context, id string) (*T, error)

	// Update merges changes into an existing row, failing with ErrNotFound
	// if the row is absent.
	Update(ctx context.Context, key keys.KeyTuple, changes map[string]any) (*T, error)

	// UpdateIf merges changes only when the row's field equals expect,
	// failing with ErrConflict when the condition is lost.
	UpdateIf(ctx context.Context, key keys.KeyTuple, changes map[string]any, field string, expect any) (*T, error)

	// Delete removes one row. Irreversible.
	Delete(ctx context.Context, key keys.KeyTuple) error

	// DeleteAllVersions removes the latest row and every historical version
	// of a versioned entity id.
	DeleteAllVersions(ctx context.Context, id string) error

	// Query performs one index scan and returns a page with an opaque cursor.
	Query(ctx context.Context, params *storagemodels.QueryParams) (*storagemodels.Page[T], error)

	// BatchGet reads many rows by exact key, returning them keyed by
	// partition key value. Callers reassemble their own ordering.
	BatchGet(ctx context.Context, tuples []keys.KeyTuple) (map[string]*T, error)

	// IncrementCounters atomically adds deltas to numeric attributes.
	IncrementCounters(ctx context.Context, key keys.KeyTuple, deltas map[string]int64) error
}
