package robin

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

func fixedClock(ts time.Time) Clock {
	return func() time.Time { return ts }
}

// sequenceIDs returns an id source yielding id-1, id-2, ...
func sequenceIDs() func() string {
	var n int
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestRepository(client DynamoDBClient) *Repository {
	return NewRepository(client, NewTable("content-table"),
		WithClock(fixedClock(testCreatedAt)),
		WithIDSource(sequenceIDs()),
	)
}

func TestRepositoryCreateUser(t *testing.T) {
	client := newMockDynamoDBClient()
	repo := newTestRepository(client)
	ctx := context.Background()

	user, err := repo.CreateUser(ctx, "alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "id-1" {
		t.Errorf("id = %q, want %q", user.ID, "id-1")
	}
	if !user.CreatedAt.Equal(testCreatedAt) {
		t.Errorf("created at = %v, want clock time", user.CreatedAt)
	}

	stored, err := repo.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Email != "alice@example.com" || stored.DisplayName != "Alice" {
		t.Errorf("stored = %+v", stored)
	}

	t.Run("empty email", func(t *testing.T) {
		_, err := repo.CreateUser(ctx, "", "Bob")
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

func TestRepositoryGetUser_NotFound(t *testing.T) {
	repo := newTestRepository(newMockDynamoDBClient())

	_, err := repo.GetUser(context.Background(), "missing")
	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestRepositoryFindUserByEmail(t *testing.T) {
	client := newMockDynamoDBClient()
	repo := newTestRepository(client)
	ctx := context.Background()

	user, err := repo.CreateUser(ctx, "alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The mock has no index support; serve the stored item when the query
	// targets the lookup index with the expected email key.
	client.queryFn = func(params *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
		if params.IndexName == nil || *params.IndexName != DefaultLookupIndex {
			t.Fatalf("query index = %v, want lookup index", params.IndexName)
		}
		item := client.items["USER#id-1|USER#id-1"]
		return &dynamodb.QueryOutput{Items: []Item{item}}, nil
	}

	found, err := repo.FindUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found.ID != user.ID {
		t.Errorf("found id = %q, want %q", found.ID, user.ID)
	}

	t.Run("not found", func(t *testing.T) {
		client.queryFn = func(params *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			return &dynamodb.QueryOutput{}, nil
		}
		_, err := repo.FindUserByEmail(ctx, "nobody@example.com")
		if !errors.Is(err, ErrItemNotFound) {
			t.Fatalf("expected ErrItemNotFound, got %v", err)
		}
	})
}

func TestRepositoryPosts(t *testing.T) {
	client := newMockDynamoDBClient()
	repo := newTestRepository(client)
	ctx := context.Background()

	post, err := repo.CreatePost(ctx, "u1", "Hello", "First post!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if post.OwnerID != "u1" {
		t.Errorf("owner = %q, want %q", post.OwnerID, "u1")
	}

	t.Run("get by id", func(t *testing.T) {
		client.queryFn = func(params *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			if params.IndexName == nil || *params.IndexName != DefaultLookupIndex {
				t.Fatalf("query index = %v, want lookup index", params.IndexName)
			}
			for _, item := range client.items {
				if stringAttr(item, AttributeNameLookupPartition) == "POST#"+post.ID {
					return &dynamodb.QueryOutput{Items: []Item{item}}, nil
				}
			}
			return &dynamodb.QueryOutput{}, nil
		}

		got, err := repo.GetPost(ctx, post.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Title != "Hello" {
			t.Errorf("title = %q, want %q", got.Title, "Hello")
		}
	})

	t.Run("edit", func(t *testing.T) {
		if err := repo.EditPost(ctx, post, "Updated", "Edited body"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if post.Title != "Updated" || post.Content != "Edited body" {
			t.Errorf("post = %+v", post)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := repo.DeletePost(ctx, post); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(client.items) != 0 {
			t.Errorf("expected empty table, have %d items", len(client.items))
		}
	})
}

func TestRepositoryComments(t *testing.T) {
	client := newMockDynamoDBClient()
	repo := newTestRepository(client)
	ctx := context.Background()

	comment, err := repo.AddComment(ctx, "p1", "u2", "Nice post")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comment.PostID != "p1" || comment.AuthorID != "u2" {
		t.Errorf("comment = %+v", comment)
	}

	if err := repo.EditComment(ctx, comment, "Better comment"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comment.Content != "Better comment" {
		t.Errorf("content = %q", comment.Content)
	}

	if err := repo.DeleteComment(ctx, comment); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.items) != 0 {
		t.Errorf("expected empty table, have %d items", len(client.items))
	}
}

func TestRepositoryLikes(t *testing.T) {
	client := newMockDynamoDBClient()
	repo := newTestRepository(client)
	ctx := context.Background()

	t.Run("repeat likes collapse to one record", func(t *testing.T) {
		if _, err := repo.LikePost(ctx, "u1", "p1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := repo.LikePost(ctx, "u1", "p1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(client.items) != 1 {
			t.Errorf("item count = %d, want 1", len(client.items))
		}
	})

	t.Run("unlike removes the record", func(t *testing.T) {
		if err := repo.UnlikePost(ctx, "u1", "p1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(client.items) != 0 {
			t.Errorf("item count = %d, want 0", len(client.items))
		}
	})
}

func TestRepositoryListPostsByUser(t *testing.T) {
	client := newMockDynamoDBClient()
	repo := newTestRepository(client)
	ctx := context.Background()

	table := repo.Table()
	var items []Item
	for i := 0; i < 3; i++ {
		input, err := table.MarshalPut(&Post{
			ID:        fmt.Sprintf("p%d", i),
			OwnerID:   "u1",
			Title:     fmt.Sprintf("Post %d", i),
			CreatedAt: testCreatedAt.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		items = append(items, input.Item)
	}

	t.Run("single page", func(t *testing.T) {
		client.queryFn = func(params *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			return &dynamodb.QueryOutput{Items: items}, nil
		}

		page, err := repo.ListPostsByUser(ctx, "u1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(page.Items) != 3 {
			t.Fatalf("item count = %d, want 3", len(page.Items))
		}
		if page.Items[0].Title != "Post 0" {
			t.Errorf("first title = %q", page.Items[0].Title)
		}
		if page.NextCursor != "" {
			t.Errorf("cursor = %q, want empty on final page", page.NextCursor)
		}
	})

	t.Run("paged with cursor", func(t *testing.T) {
		client.queryFn = func(params *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			if params.ExclusiveStartKey != nil {
				return &dynamodb.QueryOutput{Items: items[2:]}, nil
			}
			lastKey := Item{
				AttributeNamePartition: items[1][AttributeNamePartition],
				AttributeNameSort:      items[1][AttributeNameSort],
			}
			return &dynamodb.QueryOutput{Items: items[:2], LastEvaluatedKey: lastKey}, nil
		}

		first, err := repo.ListPostsByUser(ctx, "u1", WithPageLimit(2))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(first.Items) != 2 {
			t.Fatalf("first page count = %d, want 2", len(first.Items))
		}
		if first.NextCursor == "" {
			t.Fatal("expected a continuation cursor")
		}

		second, err := repo.ListPostsByUser(ctx, "u1", WithPageCursor(first.NextCursor))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(second.Items) != 1 {
			t.Fatalf("second page count = %d, want 1", len(second.Items))
		}
		if second.Items[0].ID != "p2" {
			t.Errorf("second page id = %q, want %q", second.Items[0].ID, "p2")
		}
		if second.NextCursor != "" {
			t.Errorf("cursor = %q, want empty on final page", second.NextCursor)
		}
	})

	t.Run("newest first flips scan direction", func(t *testing.T) {
		var sawBackward bool
		client.queryFn = func(params *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			sawBackward = params.ScanIndexForward != nil && !*params.ScanIndexForward
			return &dynamodb.QueryOutput{}, nil
		}

		if _, err := repo.ListPostsByUser(ctx, "u1", WithNewestFirst()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !sawBackward {
			t.Error("expected a backward scan")
		}
	})
}

func TestRepositoryListLikesForPost(t *testing.T) {
	client := newMockDynamoDBClient()
	repo := newTestRepository(client)
	ctx := context.Background()

	var items []Item
	for _, userID := range []string{"u1", "u2"} {
		input, err := repo.Table().MarshalPut(&Like{UserID: userID, PostID: "p1", CreatedAt: testCreatedAt})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		items = append(items, input.Item)
	}

	client.queryFn = func(params *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
		return &dynamodb.QueryOutput{Items: items}, nil
	}

	page, err := repo.ListLikesForPost(ctx, "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("item count = %d, want 2", len(page.Items))
	}
	if page.Items[0].UserID != "u1" || page.Items[1].UserID != "u2" {
		t.Errorf("likes = %+v", page.Items)
	}
}
