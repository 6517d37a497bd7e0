/*
 * Copyright © 2025 Ragamala Labs, All rights reserved.
 */

package registry

import (
	"strconv"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"

	"github.com/ragamala/catalogstore/errors"
)

// MergeChanges applies an attribute-level changes map to a copy of the
// entity, using the same encoding as the stored row. A nil value removes the
// attribute.
func MergeChanges[T any](entity *T, changes map[string]any) (*T, error) {
	av, err := attributevalue.MarshalMap(entity)
	if err != nil {
		return nil, err
	}
	for field, value := range changes {
		if value == nil {
			delete(av, field)
			continue
		}
		marshaled, err := attributevalue.Marshal(value)
		if err != nil {
			return nil, errors.NewValidationError(field, err.Error())
		}
		av[field] = marshaled
	}
	merged := new(T)
	if err := attributevalue.UnmarshalMap(av, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// IndexDelta adds the GSI slot attributes that differ between the old and
// merged entity to the changes map, clearing slots that became empty. Content
// edits stay consistent with the listings derived from them.
func IndexDelta[T any](before, after *T, changes map[string]any) error {
	binding, ok := GetBinding[T]()
	if !ok {
		return errors.ErrNoBinding
	}
	oldTuple, err := binding.Keys(before)
	if err != nil {
		return err
	}
	newTuple, err := binding.Keys(after)
	if err != nil {
		return err
	}
	for i := range newTuple.GSI {
		if oldTuple.GSI[i] == newTuple.GSI[i] {
			continue
		}
		n := strconv.Itoa(i + 1)
		if newTuple.GSI[i].PK == "" {
			changes["gsi"+n+"pk"] = nil
			changes["gsi"+n+"sk"] = nil
			continue
		}
		changes["gsi"+n+"pk"] = newTuple.GSI[i].PK
		changes["gsi"+n+"sk"] = newTuple.GSI[i].SK
	}
	return nil
}
