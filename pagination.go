package robin

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func init() {
	// Register DynamoDB types with gob
	gob.Register(map[string]types.AttributeValue{})
	gob.Register(&types.AttributeValueMemberS{})
	gob.Register(&types.AttributeValueMemberN{})
	gob.Register(&types.AttributeValueMemberB{})
	gob.Register(&types.AttributeValueMemberSS{})
	gob.Register(&types.AttributeValueMemberNS{})
	gob.Register(&types.AttributeValueMemberBS{})
	gob.Register(&types.AttributeValueMemberM{})
	gob.Register(&types.AttributeValueMemberL{})
	gob.Register(&types.AttributeValueMemberNULL{})
	gob.Register(&types.AttributeValueMemberBOOL{})
}

// Paginator handles pagination by converting last evaluated keys into string
// cursors for clients, and in turn converting client cursors into start keys
// to continue paging of query results.
type Paginator interface {
	// PageCursor generates a string token from the provided start key.
	// Implementors should return an empty token if the start key is nil or empty.
	PageCursor(ctx context.Context, lastkey Item) (string, error)
	// StartKey generates a dynamodb start key from the provided cursor.
	// Implementors should return a nil item if the cursor is an empty string.
	StartKey(ctx context.Context, cursor string) (Item, error)
}

// TablePaginator implements Paginator by storing start keys in the same
// table, under the reserved cursor kind, with the table's pagination TTL.
type TablePaginator struct {
	table  *Table
	client DynamoDBClient
}

// Paginator returns a Paginator that stores cursors in this table.
func (t *Table) Paginator(client DynamoDBClient) Paginator {
	return &TablePaginator{table: t, client: client}
}

// pageCursor is the in-table record holding a gob encoded last evaluated key.
type pageCursor struct {
	ID  string `dynamodbav:"id"`
	Key []byte `dynamodbav:"key"`
}

func (c *pageCursor) EntityKind() Kind { return kindCursor }

func (c *pageCursor) KeyAttributes() Attributes {
	return Attributes{ID: c.ID}
}

// PageCursor stores the last evaluated key as a cursor record and returns
// the opaque token addressing it. If lastkey is nil or empty, an empty
// string is returned.
func (t *TablePaginator) PageCursor(ctx context.Context, lastkey Item) (string, error) {
	if len(lastkey) == 0 {
		return "", nil
	}

	cursor, err := generateCursor()
	if err != nil {
		return "", fmt.Errorf("failed to generate cursor: %w", err)
	}

	keyData, err := attributevalue.MarshalMap(lastkey)
	if err != nil {
		return "", fmt.Errorf("failed to marshal last key: %w", err)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(keyData); err != nil {
		return "", fmt.Errorf("failed to encode last key: %w", err)
	}

	putInput, err := t.table.MarshalPut(&pageCursor{ID: cursor, Key: buf.Bytes()}, func(wo *WriteOptions) {
		wo.TimeToLive = t.table.PaginationTTL
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal page cursor: %w", err)
	}

	if _, err := t.client.PutItem(ctx, putInput); err != nil {
		return "", fmt.Errorf("failed to store page cursor: %w", err)
	}

	return cursor, nil
}

// StartKey retrieves the cursor record referenced by cursor and decodes the
// stored start key. A missing or expired cursor yields a nil key.
func (t *TablePaginator) StartKey(ctx context.Context, cursor string) (Item, error) {
	if cursor == "" {
		return nil, nil
	}

	getInput, err := t.table.MarshalGet(kindCursor, Attributes{ID: cursor})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal get request: %w", err)
	}

	result, err := t.client.GetItem(ctx, getInput)
	if err != nil {
		return nil, fmt.Errorf("failed to get page cursor: %w", err)
	}

	if result.Item == nil {
		// Cursor not found or expired
		return nil, nil
	}

	var stored pageCursor
	if _, err := UnmarshalRecord(result.Item, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal page cursor: %w", err)
	}

	if len(stored.Key) == 0 {
		return nil, nil
	}

	var keyData map[string]types.AttributeValue
	if err := gob.NewDecoder(bytes.NewBuffer(stored.Key)).Decode(&keyData); err != nil {
		return nil, fmt.Errorf("failed to decode last key: %w", err)
	}

	return keyData, nil
}

// generateCursor creates a unique cursor string using current time and random bytes.
func generateCursor() (string, error) {
	timestamp := time.Now().UnixNano()

	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}

	combined := fmt.Sprintf("%d_%s", timestamp, base64.URLEncoding.EncodeToString(randomBytes))
	return base64.URLEncoding.EncodeToString([]byte(combined)), nil
}
