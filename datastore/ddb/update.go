/*
 * Copyright © 2025 Ragamala Labs, All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/ragamala/catalogstore/errors"
	"github.com/ragamala/catalogstore/keys"
)

// buildUpdate turns a changes map into an update expression. A nil value
// removes the attribute; everything else is set.
func buildUpdate(changes map[string]any) (expression.UpdateBuilder, error) {
	if len(changes) == 0 {
		return expression.UpdateBuilder{}, errors.NewValidationError("changes", "no updates provided")
	}
	var update expression.UpdateBuilder
	for field, value := range changes {
		if value == nil {
			update = update.Remove(expression.Name(field))
			continue
		}
		update = update.Set(expression.Name(field), expression.Value(value))
	}
	return update, nil
}

func (s *Store[T]) updateItem(ctx context.Context, key keys.KeyTuple, update expression.UpdateBuilder, cond expression.ConditionBuilder) (*T, error) {
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(cond).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build update expression: %w", err)
	}

	out, err := s.client.UpdateItem(ctx, &sdk.UpdateItemInput{
		TableName:                 &s.table,
		Key:                       primaryKeyAttrs(key),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, err
	}

	result := new(T)
	if err := attributevalue.UnmarshalMap(out.Attributes, result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal updated item: %w", err)
	}
	return result, nil
}

// Update merges changes into an existing row. Fails with ErrNotFound when
// the row is absent.
func (s *Store[T]) Update(ctx context.Context, key keys.KeyTuple, changes map[string]any) (*T, error) {
	update, err := buildUpdate(changes)
	if err != nil {
		return nil, err
	}
	result, err := s.updateItem(ctx, key, update, expression.AttributeExists(expression.Name("pk")))
	if err != nil {
		if isConditionalFailure(err) {
			return nil, errors.NewNotFoundError(string(s.binding.Kind), key.PK)
		}
		return nil, storageErr("Update", err)
	}
	s.logger.Debug("row updated",
		zap.String("kind", string(s.binding.Kind)),
		zap.String("pk", key.PK),
		zap.String("sk", key.SK))
	return result, nil
}

// UpdateIf merges changes only when the row exists and its field equals
// expect. A lost condition surfaces as ErrConflict so callers can detect
// concurrent writers instead of silently overwriting them.
func (s *Store[T]) UpdateIf(ctx context.Context, key keys.KeyTuple, changes map[string]any, field string, expect any) (*T, error) {
	update, err := buildUpdate(changes)
	if err != nil {
		return nil, err
	}
	cond := expression.AttributeExists(expression.Name("pk")).
		And(expression.Name(field).Equal(expression.Value(expect)))
	result, err := s.updateItem(ctx, key, update, cond)
	if err != nil {
		if isConditionalFailure(err) {
			return nil, errors.NewConflictErrorf(string(s.binding.Kind), key.PK,
				"conditional update lost: %s != %v", field, expect)
		}
		return nil, storageErr("UpdateIf", err)
	}
	return result, nil
}

// IncrementCounters atomically adds deltas to numeric attributes of an
// existing row. Counter bumps are not edits: updatedAt stays untouched.
func (s *Store[T]) IncrementCounters(ctx context.Context, key keys.KeyTuple, deltas map[string]int64) error {
	if len(deltas) == 0 {
		return errors.NewValidationError("deltas", "no counters provided")
	}
	var update expression.UpdateBuilder
	for field, delta := range deltas {
		update = update.Add(expression.Name(field), expression.Value(delta))
	}
	_, err := s.updateItem(ctx, key, update, expression.AttributeExists(expression.Name("pk")))
	if err != nil {
		if isConditionalFailure(err) {
			return errors.NewNotFoundError(string(s.binding.Kind), key.PK)
		}
		return storageErr("IncrementCounters", err)
	}
	return nil
}
