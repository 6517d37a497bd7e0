/*
 * Copyright © 2025 Ragamala Labs, All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ragamala/catalogstore/datastore"
	"github.com/ragamala/catalogstore/errors"
	"github.com/ragamala/catalogstore/keys"
	"github.com/ragamala/catalogstore/registry"
	"github.com/ragamala/catalogstore/storagemodels"
)

// kindAttr tags every row with its entity kind.
const kindAttr = "entityKind"

// Store implements datastore.Repository[T] on a single DynamoDB table with
// six overloaded GSIs.
type Store[T any] struct {
	client  *sdk.Client
	table   string
	binding registry.Binding[T]
	cursors *storagemodels.CursorCodec
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures a Store.
type Option[T any] func(*Store[T])

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger[T any](logger *zap.Logger) Option[T] {
	return func(s *Store[T]) { s.logger = logger }
}

// WithCursorCodec sets the pagination cursor codec. Defaults to a codec with
// a random per-process secret.
func WithCursorCodec[T any](c *storagemodels.CursorCodec) Option[T] {
	return func(s *Store[T]) { s.cursors = c }
}

// WithClock overrides the time source, for tests.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(s *Store[T]) { s.now = now }
}

// New constructs a Store for type T. The type must have a registered key
// binding.
func New[T any](client *sdk.Client, table string, opts ...Option[T]) (*Store[T], error) {
	binding, ok := registry.GetBinding[T]()
	if !ok {
		return nil, fmt.Errorf("%w: %T", errors.ErrNoBinding, *new(T))
	}
	s := &Store[T]{
		client:  client,
		table:   table,
		binding: binding,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cursors == nil {
		s.cursors = storagemodels.NewCursorCodec(nil)
	}
	return s, nil
}

// NewClient initializes a DynamoDB client from the ambient AWS configuration.
func NewClient(ctx context.Context, region string) (*sdk.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return sdk.NewFromConfig(cfg), nil
}

// NewClientWithEndpoint initializes a DynamoDB client against an explicit
// endpoint, for local development tables.
func NewClientWithEndpoint(ctx context.Context, region, endpoint string) (*sdk.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return sdk.NewFromConfig(cfg, func(o *sdk.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	}), nil
}

// NewClientWithStaticCredentials initializes a DynamoDB client from explicit
// credentials, for environments without an ambient credential chain.
func NewClientWithStaticCredentials(ctx context.Context, accessKey, secretKey, region string) (*sdk.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return sdk.NewFromConfig(cfg), nil
}

// marshalRow encodes an entity plus its key tuple into one table row.
// Key attributes are owned here; unused GSI slots are omitted entirely.
func (s *Store[T]) marshalRow(entity *T) (map[string]types.AttributeValue, keys.KeyTuple, error) {
	tuple, err := s.binding.Keys(entity)
	if err != nil {
		return nil, keys.KeyTuple{}, err
	}
	av, err := attributevalue.MarshalMap(entity)
	if err != nil {
		return nil, keys.KeyTuple{}, fmt.Errorf("failed to marshal entity: %w", err)
	}
	for name, value := range tuple.Attributes() {
		av[name] = &types.AttributeValueMemberS{Value: value}
	}
	av[kindAttr] = &types.AttributeValueMemberS{Value: string(s.binding.Kind)}
	return av, tuple, nil
}

// Create writes a new row, assigning an id and creation metadata when the
// entity opts in. Fails with ErrConflict if the key already exists.
func (s *Store[T]) Create(ctx context.Context, entity T) (*T, error) {
	if c, ok := any(&entity).(datastore.Creatable); ok {
		c.PrepareForCreate(uuid.NewString(), strfmt.DateTime(s.now().UTC()))
	}

	av, tuple, err := s.marshalRow(&entity)
	if err != nil {
		return nil, err
	}

	cond, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("pk"))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build condition: %w", err)
	}

	_, err = s.client.PutItem(ctx, &sdk.PutItemInput{
		TableName:                 &s.table,
		Item:                      av,
		ConditionExpression:       cond.Condition(),
		ExpressionAttributeNames:  cond.Names(),
		ExpressionAttributeValues: cond.Values(),
	})
	if err != nil {
		if isConditionalFailure(err) {
			return nil, errors.NewConflictError(string(s.binding.Kind), tuple.PK)
		}
		return nil, storageErr("Create", err)
	}

	s.logger.Debug("row created",
		zap.String("kind", string(s.binding.Kind)),
		zap.String("pk", tuple.PK),
		zap.String("sk", tuple.SK))
	return &entity, nil
}

// Put writes a row unconditionally. Version snapshots use this: rewriting an
// orphan snapshot left by an interrupted flip is harmless because version
// content is immutable once superseded.
func (s *Store[T]) Put(ctx context.Context, entity T) error {
	av, _, err := s.marshalRow(&entity)
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &sdk.PutItemInput{
		TableName: &s.table,
		Item:      av,
	})
	if err != nil {
		return storageErr("Put", err)
	}
	return nil
}

// PutIf replaces a row only while its field still equals expect. The flip of
// a latest row during version creation rides on this: two racing editors both
// snapshot, but only one replacement wins.
func (s *Store[T]) PutIf(ctx context.Context, entity T, field string, expect any) (*T, error) {
	av, tuple, err := s.marshalRow(&entity)
	if err != nil {
		return nil, err
	}

	cond, err := expression.NewBuilder().
		WithCondition(expression.Name(field).Equal(expression.Value(expect))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build condition: %w", err)
	}

	_, err = s.client.PutItem(ctx, &sdk.PutItemInput{
		TableName:                 &s.table,
		Item:                      av,
		ConditionExpression:       cond.Condition(),
		ExpressionAttributeNames:  cond.Names(),
		ExpressionAttributeValues: cond.Values(),
	})
	if err != nil {
		if isConditionalFailure(err) {
			return nil, errors.NewConflictErrorf(string(s.binding.Kind), tuple.PK,
				"conditional replace lost: %s != %v", field, expect)
		}
		return nil, storageErr("PutIf", err)
	}
	return &entity, nil
}

// Get reads one row by exact key. Primary-key reads are strongly consistent.
func (s *Store[T]) Get(ctx context.Context, key keys.KeyTuple) (*T, error) {
	out, err := s.client.GetItem(ctx, &sdk.GetItemInput{
		TableName:      &s.table,
		Key:            primaryKeyAttrs(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, storageErr("Get", err)
	}
	if out.Item == nil {
		return nil, errors.NewNotFoundError(string(s.binding.Kind), key.PK+keys.Delimiter+key.SK)
	}
	result := new(T)
	if err := attributevalue.UnmarshalMap(out.Item, result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return result, nil
}

// GetLatest reads the authoritative latest row for a versioned entity id.
func (s *Store[T]) GetLatest(ctx context.Context, id string) (*T, error) {
	tuple, err := keys.LatestKey(s.binding.Kind, id)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, tuple)
}

// Delete removes one row.
func (s *Store[T]) Delete(ctx context.Context, key keys.KeyTuple) error {
	_, err := s.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName: &s.table,
		Key:       primaryKeyAttrs(key),
	})
	if err != nil {
		return storageErr("Delete", err)
	}
	s.logger.Debug("row deleted",
		zap.String("kind", string(s.binding.Kind)),
		zap.String("pk", key.PK),
		zap.String("sk", key.SK))
	return nil
}

// DeleteAllVersions removes the latest row and all historical versions of an
// entity id. Irreversible.
func (s *Store[T]) DeleteAllVersions(ctx context.Context, id string) error {
	partition, err := keys.Partition(s.binding.Kind, id)
	if err != nil {
		return err
	}

	keyCond := expression.Key("pk").Equal(expression.Value(partition))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return fmt.Errorf("failed to build key condition: %w", err)
	}

	var toDelete []map[string]types.AttributeValue
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Query(ctx, &sdk.QueryInput{
			TableName:                 &s.table,
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ProjectionExpression:      aws.String("pk, sk"),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return storageErr("DeleteAllVersions", err)
		}
		for _, item := range out.Items {
			toDelete = append(toDelete, map[string]types.AttributeValue{
				"pk": item["pk"],
				"sk": item["sk"],
			})
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	const batchSize = 25
	for start := 0; start < len(toDelete); start += batchSize {
		end := start + batchSize
		if end > len(toDelete) {
			end = len(toDelete)
		}
		requests := make([]types.WriteRequest, 0, end-start)
		for _, key := range toDelete[start:end] {
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: key},
			})
		}
		unprocessed := map[string][]types.WriteRequest{s.table: requests}
		for attempt := 0; len(unprocessed) > 0; attempt++ {
			if attempt >= maxBatchAttempts {
				return errors.NewStorageError("DeleteAllVersions", fmt.Errorf("unprocessed delete requests after %d attempts", attempt))
			}
			out, err := s.client.BatchWriteItem(ctx, &sdk.BatchWriteItemInput{RequestItems: unprocessed})
			if err != nil {
				return storageErr("DeleteAllVersions", err)
			}
			unprocessed = out.UnprocessedItems
		}
	}

	s.logger.Debug("entity deleted with history",
		zap.String("kind", string(s.binding.Kind)),
		zap.String("id", id),
		zap.Int("rows", len(toDelete)))
	return nil
}

const maxBatchAttempts = 5

func primaryKeyAttrs(key keys.KeyTuple) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: key.PK},
		"sk": &types.AttributeValueMemberS{Value: key.SK},
	}
}

// isConditionalFailure reports whether err is DynamoDB rejecting a
// conditional write.
func isConditionalFailure(err error) bool {
	var cfe *types.ConditionalCheckFailedException
	if stderrors.As(err, &cfe) {
		return true
	}
	// BatchWriteItem and transactional paths surface the same condition
	// through a generic API error code.
	var txc *types.TransactionCanceledException
	return stderrors.As(err, &txc)
}
