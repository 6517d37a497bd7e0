/*
 * Copyright © 2025 Ragamala Labs, All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/ragamala/catalogstore/errors"
	"github.com/ragamala/catalogstore/keys"
	"github.com/ragamala/catalogstore/storagemodels"
)

// storageErr wraps a backend failure, surfacing the service error code when
// the SDK provides one.
func storageErr(op string, err error) error {
	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		return errors.NewStorageError(op+" ("+apiErr.ErrorCode()+")", err)
	}
	return errors.NewStorageError(op, err)
}

// Query performs one index scan described by params and returns a page.
// Ordering follows the sort key ascending unless params say otherwise.
func (s *Store[T]) Query(ctx context.Context, params *storagemodels.QueryParams) (*storagemodels.Page[T], error) {
	if params.PartitionValue == "" {
		return nil, errors.NewValidationError("partitionValue", "partition value is required")
	}
	pkName, skName, err := keys.IndexAttrNames(params.Index)
	if err != nil {
		return nil, err
	}

	keyCond := expression.Key(pkName).Equal(expression.Value(params.PartitionValue))
	if params.SortPrefix != "" {
		keyCond = keyCond.And(expression.Key(skName).BeginsWith(params.SortPrefix))
	}
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build key condition: %w", err)
	}

	startKey, err := s.cursors.Decode(params.Cursor, params.PartitionValue)
	if err != nil {
		return nil, err
	}

	input := &sdk.QueryInput{
		TableName:                 &s.table,
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(!params.Descending),
		ExclusiveStartKey:         startKey,
	}
	if params.Index != "" {
		input.IndexName = aws.String(params.Index)
	}
	if params.Limit > 0 {
		input.Limit = aws.Int32(params.Limit)
	}

	out, err := s.client.Query(ctx, input)
	if err != nil {
		return nil, storageErr("Query", err)
	}

	page := &storagemodels.Page[T]{Items: make([]T, 0, len(out.Items))}
	for _, item := range out.Items {
		var entity T
		if err := attributevalue.UnmarshalMap(item, &entity); err != nil {
			return nil, fmt.Errorf("failed to unmarshal item: %w", err)
		}
		page.Items = append(page.Items, entity)
	}

	if len(out.LastEvaluatedKey) > 0 {
		token, err := s.cursors.Encode(out.LastEvaluatedKey, params.PartitionValue)
		if err != nil {
			return nil, err
		}
		page.NextCursor = token
		page.HasMore = true
	}
	return page, nil
}

// BatchGet reads up to the backend's batch ceiling per round trip,
// retrying unprocessed keys. Results are keyed by partition key value;
// absent rows are simply missing from the map.
func (s *Store[T]) BatchGet(ctx context.Context, tuples []keys.KeyTuple) (map[string]*T, error) {
	results := make(map[string]*T, len(tuples))
	if len(tuples) == 0 {
		return results, nil
	}

	const batchSize = 100
	for start := 0; start < len(tuples); start += batchSize {
		end := start + batchSize
		if end > len(tuples) {
			end = len(tuples)
		}
		requested := make([]map[string]types.AttributeValue, 0, end-start)
		for _, t := range tuples[start:end] {
			requested = append(requested, primaryKeyAttrs(t))
		}

		pending := map[string]types.KeysAndAttributes{
			s.table: {Keys: requested},
		}
		for attempt := 0; len(pending) > 0; attempt++ {
			if attempt >= maxBatchAttempts {
				return nil, errors.NewStorageError("BatchGet", fmt.Errorf("unprocessed keys after %d attempts", attempt))
			}
			out, err := s.client.BatchGetItem(ctx, &sdk.BatchGetItemInput{RequestItems: pending})
			if err != nil {
				return nil, storageErr("BatchGet", err)
			}
			for _, item := range out.Responses[s.table] {
				entity := new(T)
				if err := attributevalue.UnmarshalMap(item, entity); err != nil {
					return nil, fmt.Errorf("failed to unmarshal item: %w", err)
				}
				pk, ok := item["pk"].(*types.AttributeValueMemberS)
				if !ok {
					return nil, errors.NewInvalidKeyError(string(s.binding.Kind), "row missing string pk attribute")
				}
				results[pk.Value] = entity
			}
			pending = out.UnprocessedKeys
		}
	}
	return results, nil
}
