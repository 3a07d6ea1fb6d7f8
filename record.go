package robin

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Clock is a function type that returns the current time for dependency injection.
type Clock func() time.Time

// DefaultClock returns the current UTC time.
func DefaultClock() time.Time {
	return time.Now().UTC()
}

// Item is an alias for the dynamodb attribute value map.
type Item = map[string]types.AttributeValue

// Attribute names of the stored record envelope.
const (
	AttributeNamePartition         = "pk"
	AttributeNameSort              = "sk"
	AttributeNameKind              = "kind"
	AttributeNameCreated           = "created_at"
	AttributeNameUpdated           = "updated_at"
	AttributeNameExpires           = "expires"
	AttributeNameData              = "data"
	AttributeNameLookupPartition   = "gsi1_pk"
	AttributeNameLookupSort        = "gsi1_sk"
	AttributeNameActivityPartition = "gsi2_pk"
	AttributeNameActivitySort      = "gsi2_sk"
)

// Record is the stored envelope for every item in the table. The pk/sk pair
// is the derived primary key; the gsi pairs are present only when the entity
// participates in that index's access pattern. Kind discriminates the entity
// family and is carried alongside the keys but never read during key
// derivation. The entity itself is stored under the data attribute.
//
// For example, a post P1 by user U1 with one comment and one like:
//
//	| pk      | sk                     | kind    |
//	| ======= | ====================== | ======= |
//	| USER#U1 | POST#<ts>#P1           | post    |
//	| POST#P1 | COMMENT#<ts>#C1        | comment |
//	| POST#P1 | LIKE#USER#U2           | like    |
//
// This layout serves the primary access patterns directly: a user's posts
// are a sort-prefix query on the user partition, and a post's comments and
// likes are sort-prefix queries on the post partition.
type Record struct {
	PK        string    `dynamodbav:"pk"`
	SK        string    `dynamodbav:"sk"`
	Kind      Kind      `dynamodbav:"kind"`
	CreatedAt time.Time `dynamodbav:"created_at"`
	UpdatedAt time.Time `dynamodbav:"updated_at"`
	Expires   time.Time `dynamodbav:"expires,unixtime"`
	Data      any       `dynamodbav:"data,omitempty"`
	GSI1PK    string    `dynamodbav:"gsi1_pk,omitempty"`
	GSI1SK    string    `dynamodbav:"gsi1_sk,omitempty"`
	GSI2PK    string    `dynamodbav:"gsi2_pk,omitempty"`
	GSI2SK    string    `dynamodbav:"gsi2_sk,omitempty"`
}

// WriteOptions configures record envelope construction.
type WriteOptions struct {
	Tick         Clock         // Function to get current time for timestamps
	Created      time.Time     // Creation timestamp override
	Updated      time.Time     // Modification timestamp override
	TimeToLive   time.Duration // The lifetime of the record, if positive
	KeyDelimiter string        // Delimiter joining key tag and id components
}

func (wo *WriteOptions) apply(opts []func(*WriteOptions)) {
	for _, opt := range opts {
		opt(wo)
	}
}

func newWriteOptions(opts ...func(*WriteOptions)) WriteOptions {
	options := WriteOptions{
		Tick:         DefaultClock,
		KeyDelimiter: DefaultKeyDelimiter,
	}
	options.apply(opts)
	return options
}

// NewRecord derives the complete key set for e and wraps the entity in the
// stored envelope. Timestamps default to the entity's own CreatedAt when it
// carries one, falling back to the configured clock.
func NewRecord(e Entity, opts ...func(*WriteOptions)) (*Record, error) {
	options := newWriteOptions(opts...)

	attrs := e.KeyAttributes()
	keys, err := deriveKeys(e.EntityKind(), attrs, options.KeyDelimiter)
	if err != nil {
		return nil, err
	}

	created := options.Created
	if created.IsZero() {
		created = attrs.CreatedAt
	}
	if created.IsZero() {
		created = options.Tick()
	}
	updated := options.Updated
	if updated.IsZero() {
		updated = created
	}

	rec := &Record{
		PK:        keys.Primary.Partition,
		SK:        keys.Primary.Sort,
		Kind:      e.EntityKind(),
		CreatedAt: created,
		UpdatedAt: updated,
		Data:      e,
	}

	for _, idx := range keys.Secondary {
		switch idx.IndexName {
		case DefaultLookupIndex:
			rec.GSI1PK, rec.GSI1SK = idx.Partition, idx.Sort
		case DefaultActivityIndex:
			rec.GSI2PK, rec.GSI2SK = idx.Partition, idx.Sort
		}
	}

	if options.TimeToLive > 0 {
		rec.Expires = created.Add(options.TimeToLive)
	}

	return rec, nil
}

// UnmarshalRecord extracts the data payload of item into out and unmarshals
// the envelope itself. Returns an error when the data attribute is missing.
func UnmarshalRecord(item Item, out any) (*Record, error) {
	var rec Record
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}

	data, ok := item[AttributeNameData]
	if !ok {
		return nil, fmt.Errorf("data attribute not found")
	}
	if err := attributevalue.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal data: %w", err)
	}

	return &rec, nil
}

// UnmarshalTableKey extracts the partition and sort key strings from a
// DynamoDB item. Returns an error if either key is missing.
func UnmarshalTableKey(item Item) (partition, sort string, err error) {
	var (
		pk, pkexists = item[AttributeNamePartition]
		sk, skexists = item[AttributeNameSort]
	)

	if !pkexists || !skexists {
		return "", "", fmt.Errorf("partition and sort keys not found")
	}

	if err := attributevalue.Unmarshal(pk, &partition); err != nil {
		return "", "", fmt.Errorf("failed to unmarshal partition key: %w", err)
	}
	if err := attributevalue.Unmarshal(sk, &sort); err != nil {
		return "", "", fmt.Errorf("failed to unmarshal sort key: %w", err)
	}

	return partition, sort, nil
}

// UnmarshalList applies UnmarshalRecord to each item and appends the decoded
// values to out. This function is usually called to extract query results.
func UnmarshalList[T any](items []Item, out *[]T) ([]Record, error) {
	var records []Record

	for i, item := range items {
		var value T
		rec, err := UnmarshalRecord(item, &value)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal item %d: %w", i, err)
		}
		*out = append(*out, value)
		records = append(records, *rec)
	}

	return records, nil
}
