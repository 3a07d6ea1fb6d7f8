package robin

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	// MaxBatchSize is the maximum number of items allowed in a DynamoDB batch operation.
	MaxBatchSize = 25
)

// Table contains DynamoDB table configuration.
type Table struct {
	TableName     string        // Main table name
	LookupIndex   string        // Name of the direct-lookup GSI (gsi1 attributes)
	ActivityIndex string        // Name of the per-user activity GSI (gsi2 attributes)
	KeyDelimiter  string        // Delimiter joining key tag and id components. Default is '#'.
	PaginationTTL time.Duration // TTL for pagination cursors stored in table
}

// NewTable creates a new Table with default configuration.
func NewTable(tableName string) *Table {
	return &Table{
		TableName:     tableName,
		LookupIndex:   DefaultLookupIndex,
		ActivityIndex: DefaultActivityIndex,
		KeyDelimiter:  DefaultKeyDelimiter,
		PaginationTTL: 24 * time.Hour,
	}
}

// DeriveKeys derives the key set for the entity kind using the table's
// configured delimiter.
func (t *Table) DeriveKeys(kind Kind, attrs Attributes) (*KeySet, error) {
	return deriveKeys(kind, attrs, t.KeyDelimiter)
}

// MarshalPut marshals the entity into a put item request. The derived
// primary key addresses the record; a repeated put with identical keys
// overwrites the stored item.
func (t *Table) MarshalPut(e Entity, opts ...func(*WriteOptions)) (*dynamodb.PutItemInput, error) {
	rec, err := NewRecord(e, func(wo *WriteOptions) {
		wo.KeyDelimiter = t.KeyDelimiter
		wo.apply(opts)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal item: %w", err)
	}

	return &dynamodb.PutItemInput{
		TableName: aws.String(t.TableName),
		Item:      item,
	}, nil
}

// MarshalBatch marshals the entities into batch write put requests, chunked
// in sizes of 25 or less.
func (t *Table) MarshalBatch(entities []Entity, opts ...func(*WriteOptions)) ([]*dynamodb.BatchWriteItemInput, error) {
	var batches []*dynamodb.BatchWriteItemInput

	for i := 0; i < len(entities); i += MaxBatchSize {
		end := i + MaxBatchSize
		if end > len(entities) {
			end = len(entities)
		}

		var writeRequests []types.WriteRequest
		for _, e := range entities[i:end] {
			input, err := t.MarshalPut(e, opts...)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal %s: %w", e.EntityKind(), err)
			}

			writeRequests = append(writeRequests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: input.Item},
			})
		}

		batches = append(batches, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				t.TableName: writeRequests,
			},
		})
	}

	return batches, nil
}

// primaryKey derives the primary key attribute map for the entity kind.
func (t *Table) primaryKey(kind Kind, attrs Attributes) (Item, error) {
	keys, err := deriveKeys(kind, attrs, t.KeyDelimiter)
	if err != nil {
		return nil, err
	}

	return Item{
		AttributeNamePartition: &types.AttributeValueMemberS{Value: keys.Primary.Partition},
		AttributeNameSort:      &types.AttributeValueMemberS{Value: keys.Primary.Sort},
	}, nil
}

// MarshalGet marshals the entity coordinates into a get item request
// addressing the derived primary key.
func (t *Table) MarshalGet(kind Kind, attrs Attributes) (*dynamodb.GetItemInput, error) {
	key, err := t.primaryKey(kind, attrs)
	if err != nil {
		return nil, err
	}

	return &dynamodb.GetItemInput{
		TableName: aws.String(t.TableName),
		Key:       key,
	}, nil
}

// MarshalDelete marshals the entity coordinates into a delete item request.
// Removing the primary record also removes its secondary index projections,
// which are derived from the same item.
func (t *Table) MarshalDelete(kind Kind, attrs Attributes) (*dynamodb.DeleteItemInput, error) {
	key, err := t.primaryKey(kind, attrs)
	if err != nil {
		return nil, err
	}

	return &dynamodb.DeleteItemInput{
		TableName: aws.String(t.TableName),
		Key:       key,
	}, nil
}

// Update describes changes to an entity's mutable display fields. Identity
// and key components are never updatable; a nil field is left untouched.
type Update struct {
	DisplayName *string // User display name
	Title       *string // Post title
	Content     *string // Post or Comment body
}

// fields returns the data attribute paths the update touches, validated
// against the entity kind's mutable set.
func (u Update) fields(kind Kind) (map[string]*string, error) {
	set := map[string]*string{}

	add := func(name string, value *string, allowed bool) error {
		if value == nil {
			return nil
		}
		if !allowed {
			return &ValidationError{Kind: kind, Field: name, Reason: "not a mutable field for this kind"}
		}
		set[name] = value
		return nil
	}

	if err := add("display_name", u.DisplayName, kind == KindUser); err != nil {
		return nil, err
	}
	if err := add("title", u.Title, kind == KindPost); err != nil {
		return nil, err
	}
	if err := add("content", u.Content, kind == KindPost || kind == KindComment); err != nil {
		return nil, err
	}

	if len(set) == 0 {
		return nil, &ValidationError{Kind: kind, Field: "Update", Reason: "no mutable fields set"}
	}
	return set, nil
}

// MarshalUpdate marshals an update request touching only the entity's
// mutable display fields plus its modification timestamps. The request is
// conditioned on the record existing so an update can never create a
// phantom record.
func (t *Table) MarshalUpdate(kind Kind, attrs Attributes, upd Update, opts ...func(*WriteOptions)) (*dynamodb.UpdateItemInput, error) {
	key, err := t.primaryKey(kind, attrs)
	if err != nil {
		return nil, err
	}

	fields, err := upd.fields(kind)
	if err != nil {
		return nil, err
	}

	options := newWriteOptions(opts...)
	now := options.Updated
	if now.IsZero() {
		now = options.Tick()
	}

	set := expression.Set(expression.Name(AttributeNameUpdated), expression.Value(now))
	set = set.Set(DataAttribute(AttributeNameUpdated), expression.Value(now))
	for name, value := range fields {
		set = set.Set(DataAttribute(name), expression.Value(*value))
	}

	expr, err := expression.NewBuilder().
		WithUpdate(set).
		WithCondition(expression.AttributeExists(expression.Name(AttributeNamePartition))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	return &dynamodb.UpdateItemInput{
		TableName:                 aws.String(t.TableName),
		Key:                       key,
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}, nil
}
