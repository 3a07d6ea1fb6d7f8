package robin

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Mock DynamoDB client for testing. Items are stored in memory under the
// concatenated pk/sk; queryFn can be set to script Query responses.
type mockDynamoDBClient struct {
	items   map[string]map[string]types.AttributeValue
	queryFn func(params *dynamodb.QueryInput) (*dynamodb.QueryOutput, error)
}

func newMockDynamoDBClient() *mockDynamoDBClient {
	return &mockDynamoDBClient{
		items: make(map[string]map[string]types.AttributeValue),
	}
}

func (m *mockDynamoDBClient) itemKey(item map[string]types.AttributeValue) string {
	pk := item[AttributeNamePartition].(*types.AttributeValueMemberS).Value
	sk := item[AttributeNameSort].(*types.AttributeValueMemberS).Value
	return pk + "|" + sk
}

func (m *mockDynamoDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.items[m.itemKey(params.Item)] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDynamoDBClient) BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	for _, requests := range params.RequestItems {
		for _, request := range requests {
			if request.PutRequest != nil {
				m.items[m.itemKey(request.PutRequest.Item)] = request.PutRequest.Item
			}
		}
	}
	return &dynamodb.BatchWriteItemOutput{}, nil
}

func (m *mockDynamoDBClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if m.queryFn != nil {
		return m.queryFn(params)
	}
	return &dynamodb.QueryOutput{
		Items: []map[string]types.AttributeValue{},
	}, nil
}

func (m *mockDynamoDBClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if item, exists := m.items[m.itemKey(params.Key)]; exists {
		return &dynamodb.GetItemOutput{Item: item}, nil
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (m *mockDynamoDBClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	delete(m.items, m.itemKey(params.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (m *mockDynamoDBClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return &dynamodb.UpdateItemOutput{}, nil
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	av, ok := item[name].(*types.AttributeValueMemberS)
	if !ok {
		return ""
	}
	return av.Value
}

// Tests for table operations

func TestTableMarshalPut(t *testing.T) {
	table := NewTable("content-table")
	post := &Post{
		ID:        "p1",
		OwnerID:   "u1",
		Title:     "Hello",
		Content:   "First post!",
		CreatedAt: testCreatedAt,
		UpdatedAt: testCreatedAt,
	}

	input, err := table.MarshalPut(post)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if *input.TableName != "content-table" {
		t.Errorf("table name = %q, want %q", *input.TableName, "content-table")
	}
	if got := stringAttr(input.Item, AttributeNamePartition); got != "USER#u1" {
		t.Errorf("pk = %q, want %q", got, "USER#u1")
	}
	wantSort := "POST#" + OrderingKey(testCreatedAt) + "#p1"
	if got := stringAttr(input.Item, AttributeNameSort); got != wantSort {
		t.Errorf("sk = %q, want %q", got, wantSort)
	}
	if got := stringAttr(input.Item, AttributeNameKind); got != string(KindPost) {
		t.Errorf("kind = %q, want %q", got, KindPost)
	}
	if got := stringAttr(input.Item, AttributeNameLookupPartition); got != "POST#p1" {
		t.Errorf("gsi1_pk = %q, want %q", got, "POST#p1")
	}

	t.Run("invalid entity", func(t *testing.T) {
		_, err := table.MarshalPut(&Post{ID: "p1", CreatedAt: testCreatedAt})
		if err == nil {
			t.Error("expected error for post without owner")
		}
	})
}

func TestTableMarshalPut_DataAttribute(t *testing.T) {
	table := NewTable("content-table")
	user := &User{ID: "u1", Email: "u1@example.com", DisplayName: "Alice", CreatedAt: testCreatedAt, UpdatedAt: testCreatedAt}

	input, err := table.MarshalPut(user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, ok := input.Item[AttributeNameData].(*types.AttributeValueMemberM)
	if !ok {
		t.Fatal("expected a data map attribute")
	}
	if got := stringAttr(data.Value, "display_name"); got != "Alice" {
		t.Errorf("data.display_name = %q, want %q", got, "Alice")
	}

	var decoded User
	if _, err := UnmarshalRecord(input.Item, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded != *user {
		t.Errorf("round trip = %+v, want %+v", decoded, *user)
	}
}

func TestTableMarshalBatch(t *testing.T) {
	table := NewTable("content-table")

	entities := make([]Entity, 0, 30)
	for i := 0; i < 30; i++ {
		entities = append(entities, &Like{
			UserID:    "u1",
			PostID:    string(rune('a' + i)),
			CreatedAt: testCreatedAt,
		})
	}

	batches, err := table.MarshalBatch(entities)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(batches) != 2 {
		t.Fatalf("batch count = %d, want 2", len(batches))
	}
	if n := len(batches[0].RequestItems["content-table"]); n != MaxBatchSize {
		t.Errorf("first batch size = %d, want %d", n, MaxBatchSize)
	}
	if n := len(batches[1].RequestItems["content-table"]); n != 5 {
		t.Errorf("second batch size = %d, want 5", n)
	}
}

func TestTableMarshalGet(t *testing.T) {
	table := NewTable("content-table")

	input, err := table.MarshalGet(KindUser, Attributes{ID: "u1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := stringAttr(input.Key, AttributeNamePartition); got != "USER#u1" {
		t.Errorf("pk = %q, want %q", got, "USER#u1")
	}
	if got := stringAttr(input.Key, AttributeNameSort); got != "USER#u1" {
		t.Errorf("sk = %q, want %q", got, "USER#u1")
	}

	t.Run("missing attributes", func(t *testing.T) {
		if _, err := table.MarshalGet(KindLike, Attributes{UserID: "u1"}); err == nil {
			t.Error("expected error for like without post id")
		}
	})
}

func TestTableMarshalDelete(t *testing.T) {
	table := NewTable("content-table")

	input, err := table.MarshalDelete(KindLike, Attributes{UserID: "u1", PostID: "p1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := stringAttr(input.Key, AttributeNamePartition); got != "POST#p1" {
		t.Errorf("pk = %q, want %q", got, "POST#p1")
	}
	if got := stringAttr(input.Key, AttributeNameSort); got != "LIKE#USER#u1" {
		t.Errorf("sk = %q, want %q", got, "LIKE#USER#u1")
	}
}

func TestTableMarshalUpdate(t *testing.T) {
	table := NewTable("content-table")
	title := "Updated title"
	content := "Updated body"

	t.Run("post title and content", func(t *testing.T) {
		input, err := table.MarshalUpdate(KindPost,
			Attributes{ID: "p1", OwnerID: "u1", CreatedAt: testCreatedAt},
			Update{Title: &title, Content: &content},
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if input.UpdateExpression == nil {
			t.Fatal("expected an update expression")
		}
		if input.ConditionExpression == nil {
			t.Fatal("expected a condition expression")
		}
		if got := stringAttr(input.Key, AttributeNamePartition); got != "USER#u1" {
			t.Errorf("pk = %q, want %q", got, "USER#u1")
		}
	})

	t.Run("rejects field foreign to the kind", func(t *testing.T) {
		_, err := table.MarshalUpdate(KindUser, Attributes{ID: "u1"}, Update{Title: &title})
		if err == nil {
			t.Error("expected error updating title on a user")
		}
	})

	t.Run("rejects empty update", func(t *testing.T) {
		_, err := table.MarshalUpdate(KindUser, Attributes{ID: "u1"}, Update{})
		if err == nil {
			t.Error("expected error for update with no fields")
		}
	})

	t.Run("comment content", func(t *testing.T) {
		_, err := table.MarshalUpdate(KindComment,
			Attributes{ID: "c1", PostID: "p1", CreatedAt: testCreatedAt},
			Update{Content: &content},
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestTableCustomConfiguration(t *testing.T) {
	table := &Table{
		TableName:     "custom-table",
		LookupIndex:   "by-identity",
		ActivityIndex: "by-actor",
		KeyDelimiter:  "/",
		PaginationTTL: time.Hour,
	}

	keys, err := table.DeriveKeys(KindPost, Attributes{ID: "p1", OwnerID: "u1", CreatedAt: testCreatedAt})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if keys.Primary.Partition != "USER/u1" {
		t.Errorf("partition = %q, want %q", keys.Primary.Partition, "USER/u1")
	}

	input, err := table.MarshalPattern(PatternPostByID, Params{ID: "p1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *input.IndexName != "by-identity" {
		t.Errorf("index name = %q, want %q", *input.IndexName, "by-identity")
	}
}

func TestTablePutGetRoundTrip(t *testing.T) {
	table := NewTable("content-table")
	client := newMockDynamoDBClient()
	ctx := context.Background()

	user := &User{ID: "u1", Email: "u1@example.com", DisplayName: "Alice", CreatedAt: testCreatedAt, UpdatedAt: testCreatedAt}

	putInput, err := table.MarshalPut(user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := client.PutItem(ctx, putInput); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	getInput, err := table.MarshalGet(KindUser, Attributes{ID: "u1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, err := client.GetItem(ctx, getInput)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var stored User
	rec, err := UnmarshalRecord(result.Item, &stored)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored != *user {
		t.Errorf("stored = %+v, want %+v", stored, *user)
	}
	if rec.Kind != KindUser {
		t.Errorf("kind = %q, want %q", rec.Kind, KindUser)
	}
}
