/*
 * Copyright © 2025 Ragamala Labs, All rights reserved.
 */

// Package mock provides an in-memory Repository implementation for testing
// the managers that compose the repository. It stores raw attribute maps and
// mimics the table's write semantics: immutable pk/sk, conditional creates,
// attribute-level updates, and index scans over the gsi attributes.
package mock

import (
	"context"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"

	"github.com/ragamala/catalogstore/datastore"
	"github.com/ragamala/catalogstore/errors"
	"github.com/ragamala/catalogstore/keys"
	"github.com/ragamala/catalogstore/registry"
	"github.com/ragamala/catalogstore/storagemodels"
)

const kindAttr = "entityKind"

// Store is an in-memory implementation of datastore.Repository[T].
type Store[T any] struct {
	mu      sync.RWMutex
	rows    map[string]map[string]types.AttributeValue
	binding registry.Binding[T]
	cursors *storagemodels.CursorCodec
	now     func() time.Time

	// error injection for failure-path tests
	createErr error
	queryErr  error
}

// New creates a mock store for type T. The type must have a registered key
// binding, same as the DynamoDB store.
func New[T any]() *Store[T] {
	binding, ok := registry.GetBinding[T]()
	if !ok {
		panic("mock: no key binding registered")
	}
	return &Store[T]{
		rows:    make(map[string]map[string]types.AttributeValue),
		binding: binding,
		cursors: storagemodels.NewCursorCodec([]byte("mock-cursor-secret")),
		now:     time.Now,
	}
}

// WithClock overrides the time source.
func (s *Store[T]) WithClock(now func() time.Time) *Store[T] {
	s.now = now
	return s
}

// FailCreate makes the next Create calls return err.
func (s *Store[T]) FailCreate(err error) *Store[T] {
	s.createErr = err
	return s
}

// FailQuery makes the next Query calls return err.
func (s *Store[T]) FailQuery(err error) *Store[T] {
	s.queryErr = err
	return s
}

// Len reports the number of stored rows.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

func rowID(pk, sk string) string { return pk + "|" + sk }

func (s *Store[T]) marshalRow(entity *T) (map[string]types.AttributeValue, keys.KeyTuple, error) {
	tuple, err := s.binding.Keys(entity)
	if err != nil {
		return nil, keys.KeyTuple{}, err
	}
	av, err := attributevalue.MarshalMap(entity)
	if err != nil {
		return nil, keys.KeyTuple{}, err
	}
	for name, value := range tuple.Attributes() {
		av[name] = &types.AttributeValueMemberS{Value: value}
	}
	av[kindAttr] = &types.AttributeValueMemberS{Value: string(s.binding.Kind)}
	return av, tuple, nil
}

// Create implements conditional creation.
func (s *Store[T]) Create(ctx context.Context, entity T) (*T, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if c, ok := any(&entity).(datastore.Creatable); ok {
		c.PrepareForCreate(uuid.NewString(), strfmt.DateTime(s.now().UTC()))
	}
	av, tuple, err := s.marshalRow(&entity)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := rowID(tuple.PK, tuple.SK)
	if _, exists := s.rows[id]; exists {
		return nil, errors.NewConflictError(string(s.binding.Kind), tuple.PK)
	}
	s.rows[id] = av
	return &entity, nil
}

// Put overwrites unconditionally.
func (s *Store[T]) Put(ctx context.Context, entity T) error {
	av, tuple, err := s.marshalRow(&entity)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[rowID(tuple.PK, tuple.SK)] = av
	return nil
}

// PutIf replaces a row only when its field equals expect.
func (s *Store[T]) PutIf(ctx context.Context, entity T, field string, expect any) (*T, error) {
	av, tuple, err := s.marshalRow(&entity)
	if err != nil {
		return nil, err
	}
	expected, err := attributevalue.Marshal(expect)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := rowID(tuple.PK, tuple.SK)
	current, exists := s.rows[id]
	if !exists || !reflect.DeepEqual(current[field], expected) {
		return nil, errors.NewConflictErrorf(string(s.binding.Kind), tuple.PK,
			"conditional replace lost: %s != %v", field, expect)
	}
	s.rows[id] = av
	return &entity, nil
}

// Get reads one row by exact key. The row is decoded while the lock is held
// so concurrent updates cannot mutate it mid-read.
func (s *Store[T]) Get(ctx context.Context, key keys.KeyTuple) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	av, exists := s.rows[rowID(key.PK, key.SK)]
	if !exists {
		return nil, errors.NewNotFoundError(string(s.binding.Kind), key.PK+keys.Delimiter+key.SK)
	}
	result := new(T)
	if err := attributevalue.UnmarshalMap(av, result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetLatest reads the authoritative latest row for an id.
func (s *Store[T]) GetLatest(ctx context.Context, id string) (*T, error) {
	tuple, err := keys.LatestKey(s.binding.Kind, id)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, tuple)
}

func (s *Store[T]) applyChanges(av map[string]types.AttributeValue, changes map[string]any) error {
	for field, value := range changes {
		if value == nil {
			delete(av, field)
			continue
		}
		marshaled, err := attributevalue.Marshal(value)
		if err != nil {
			return err
		}
		av[field] = marshaled
	}
	return nil
}

// Update merges changes into an existing row.
func (s *Store[T]) Update(ctx context.Context, key keys.KeyTuple, changes map[string]any) (*T, error) {
	if len(changes) == 0 {
		return nil, errors.NewValidationError("changes", "no updates provided")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	av, exists := s.rows[rowID(key.PK, key.SK)]
	if !exists {
		return nil, errors.NewNotFoundError(string(s.binding.Kind), key.PK)
	}
	if err := s.applyChanges(av, changes); err != nil {
		return nil, err
	}
	result := new(T)
	if err := attributevalue.UnmarshalMap(av, result); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateIf merges changes when field equals expect, mirroring a conditional
// write.
func (s *Store[T]) UpdateIf(ctx context.Context, key keys.KeyTuple, changes map[string]any, field string, expect any) (*T, error) {
	if len(changes) == 0 {
		return nil, errors.NewValidationError("changes", "no updates provided")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	av, exists := s.rows[rowID(key.PK, key.SK)]
	if !exists {
		return nil, errors.NewConflictErrorf(string(s.binding.Kind), key.PK, "conditional update lost: row absent")
	}
	expected, err := attributevalue.Marshal(expect)
	if err != nil {
		return nil, err
	}
	if !reflect.DeepEqual(av[field], expected) {
		return nil, errors.NewConflictErrorf(string(s.binding.Kind), key.PK,
			"conditional update lost: %s != %v", field, expect)
	}
	if err := s.applyChanges(av, changes); err != nil {
		return nil, err
	}
	result := new(T)
	if err := attributevalue.UnmarshalMap(av, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes one row.
func (s *Store[T]) Delete(ctx context.Context, key keys.KeyTuple) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, rowID(key.PK, key.SK))
	return nil
}

// DeleteAllVersions removes every row in the entity's partition.
func (s *Store[T]) DeleteAllVersions(ctx context.Context, id string) error {
	partition, err := keys.Partition(s.binding.Kind, id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for rid := range s.rows {
		if strings.HasPrefix(rid, partition+"|") {
			delete(s.rows, rid)
		}
	}
	return nil
}

// Query scans the chosen index attributes, sorts by the index sort key, and
// paginates with the same opaque cursor scheme as the DynamoDB store.
func (s *Store[T]) Query(ctx context.Context, params *storagemodels.QueryParams) (*storagemodels.Page[T], error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	if params.PartitionValue == "" {
		return nil, errors.NewValidationError("partitionValue", "partition value is required")
	}
	pkName, skName, err := keys.IndexAttrNames(params.Index)
	if err != nil {
		return nil, err
	}

	type match struct {
		sk string
		av map[string]types.AttributeValue
	}
	s.mu.RLock()
	var matches []match
	for _, av := range s.rows {
		pkAttr, ok := av[pkName].(*types.AttributeValueMemberS)
		if !ok || pkAttr.Value != params.PartitionValue {
			continue
		}
		skAttr, ok := av[skName].(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		if params.SortPrefix != "" && !strings.HasPrefix(skAttr.Value, params.SortPrefix) {
			continue
		}
		matches = append(matches, match{sk: skAttr.Value, av: av})
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if params.Descending {
			return matches[i].sk > matches[j].sk
		}
		return matches[i].sk < matches[j].sk
	})

	start := 0
	if params.Cursor != "" {
		startKey, err := s.cursors.Decode(params.Cursor, params.PartitionValue)
		if err != nil {
			return nil, err
		}
		lastSK := ""
		if attr, ok := startKey[skName].(*types.AttributeValueMemberS); ok {
			lastSK = attr.Value
		}
		for i, m := range matches {
			if m.sk == lastSK {
				start = i + 1
				break
			}
		}
	}

	end := len(matches)
	if params.Limit > 0 && start+int(params.Limit) < end {
		end = start + int(params.Limit)
	}

	page := &storagemodels.Page[T]{Items: make([]T, 0, end-start)}
	for _, m := range matches[start:end] {
		var entity T
		if err := attributevalue.UnmarshalMap(m.av, &entity); err != nil {
			return nil, err
		}
		page.Items = append(page.Items, entity)
	}
	if end < len(matches) {
		lastKey := map[string]types.AttributeValue{
			skName: &types.AttributeValueMemberS{Value: matches[end-1].sk},
		}
		token, err := s.cursors.Encode(lastKey, params.PartitionValue)
		if err != nil {
			return nil, err
		}
		page.NextCursor = token
		page.HasMore = true
	}
	return page, nil
}

// BatchGet reads many rows by exact key, keyed by partition key value.
func (s *Store[T]) BatchGet(ctx context.Context, tuples []keys.KeyTuple) (map[string]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make(map[string]*T, len(tuples))
	for _, t := range tuples {
		av, exists := s.rows[rowID(t.PK, t.SK)]
		if !exists {
			continue
		}
		entity := new(T)
		if err := attributevalue.UnmarshalMap(av, entity); err != nil {
			return nil, err
		}
		results[t.PK] = entity
	}
	return results, nil
}

// IncrementCounters adds deltas to numeric attributes of an existing row.
func (s *Store[T]) IncrementCounters(ctx context.Context, key keys.KeyTuple, deltas map[string]int64) error {
	if len(deltas) == 0 {
		return errors.NewValidationError("deltas", "no counters provided")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	av, exists := s.rows[rowID(key.PK, key.SK)]
	if !exists {
		return errors.NewNotFoundError(string(s.binding.Kind), key.PK)
	}
	for field, delta := range deltas {
		current := int64(0)
		if attr, ok := av[field].(*types.AttributeValueMemberN); ok {
			parsed, err := strconv.ParseInt(attr.Value, 10, 64)
			if err != nil {
				return err
			}
			current = parsed
		}
		av[field] = &types.AttributeValueMemberN{Value: strconv.FormatInt(current+delta, 10)}
	}
	return nil
}
