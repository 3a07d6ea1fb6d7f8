package robin

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"
)

// DynamoDBClient interface for easier testing and connection management.
type DynamoDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// Repository executes entity operations against a DynamoDB table using the
// derived key sets. It owns no retry or throttle handling; transport
// failures surface wrapped from the underlying client.
type Repository struct {
	client DynamoDBClient
	table  *Table
	tick   Clock
	newID  func() string
}

// NewRepository creates a repository over the given client and table.
func NewRepository(client DynamoDBClient, table *Table, opts ...func(*Repository)) *Repository {
	r := &Repository{
		client: client,
		table:  table,
		tick:   DefaultClock,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithClock overrides the repository clock.
func WithClock(tick Clock) func(*Repository) {
	return func(r *Repository) { r.tick = tick }
}

// WithIDSource overrides the identifier generator used by Create operations.
func WithIDSource(fn func() string) func(*Repository) {
	return func(r *Repository) { r.newID = fn }
}

// Table returns the table configuration the repository operates on.
func (r *Repository) Table() *Table { return r.table }

func (r *Repository) put(ctx context.Context, e Entity) error {
	input, err := r.table.MarshalPut(e, func(wo *WriteOptions) {
		wo.Tick = r.tick
	})
	if err != nil {
		return err
	}
	if _, err := r.client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("failed to put %s: %w", e.EntityKind(), err)
	}
	return nil
}

func (r *Repository) delete(ctx context.Context, kind Kind, attrs Attributes) error {
	input, err := r.table.MarshalDelete(kind, attrs)
	if err != nil {
		return err
	}
	if _, err := r.client.DeleteItem(ctx, input); err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	return nil
}

func (r *Repository) update(ctx context.Context, kind Kind, attrs Attributes, upd Update) error {
	input, err := r.table.MarshalUpdate(kind, attrs, upd, func(wo *WriteOptions) {
		wo.Tick = r.tick
	})
	if err != nil {
		return err
	}
	if _, err := r.client.UpdateItem(ctx, input); err != nil {
		return fmt.Errorf("failed to update %s: %w", kind, err)
	}
	return nil
}

// queryOne runs a pattern query expecting at most one record and decodes it
// into out. Returns ErrItemNotFound when the query matches nothing.
func (r *Repository) queryOne(ctx context.Context, pattern string, params Params, out any) error {
	input, err := r.table.MarshalPattern(pattern, params, func(qo *QueryOptions) {
		qo.Limit = 1
	})
	if err != nil {
		return err
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", pattern, err)
	}
	if len(result.Items) == 0 {
		return ErrItemNotFound
	}

	if _, err := UnmarshalRecord(result.Items[0], out); err != nil {
		return fmt.Errorf("failed to unmarshal %s result: %w", pattern, err)
	}
	return nil
}

// CreateUser mints and stores a new user. Email must be non-empty since it
// serves the userByEmail lookup.
func (r *Repository) CreateUser(ctx context.Context, email, displayName string) (*User, error) {
	if email == "" {
		return nil, &ValidationError{Kind: KindUser, Field: "Email", Reason: "must not be empty"}
	}

	now := r.tick()
	user := &User{
		ID:          r.newID(),
		Email:       email,
		DisplayName: displayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.put(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser retrieves a user by identifier. Returns ErrItemNotFound when no
// such user exists.
func (r *Repository) GetUser(ctx context.Context, id string) (*User, error) {
	input, err := r.table.MarshalGet(KindUser, Attributes{ID: id})
	if err != nil {
		return nil, err
	}

	result, err := r.client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if len(result.Item) == 0 {
		return nil, ErrItemNotFound
	}

	var user User
	if _, err := UnmarshalRecord(result.Item, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &user, nil
}

// FindUserByEmail retrieves a user through the userByEmail lookup pattern.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	if err := r.queryOne(ctx, PatternUserByEmail, Params{Email: email}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SetDisplayName updates a user's display name.
func (r *Repository) SetDisplayName(ctx context.Context, userID, displayName string) error {
	return r.update(ctx, KindUser, Attributes{ID: userID}, Update{DisplayName: &displayName})
}

// DeleteUser removes the user's primary record along with the index
// projections derived from it.
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	return r.delete(ctx, KindUser, Attributes{ID: id})
}

// CreatePost mints and stores a new post owned by ownerID.
func (r *Repository) CreatePost(ctx context.Context, ownerID, title, content string) (*Post, error) {
	now := r.tick()
	post := &Post{
		ID:        r.newID(),
		OwnerID:   ownerID,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.put(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// GetPost retrieves a post by identifier through the postById lookup
// pattern; the primary key alone cannot address a post without its owner
// and creation instant.
func (r *Repository) GetPost(ctx context.Context, id string) (*Post, error) {
	var post Post
	if err := r.queryOne(ctx, PatternPostByID, Params{ID: id}, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// EditPost updates the post's title and content, then reflects the change
// on the given record.
func (r *Repository) EditPost(ctx context.Context, post *Post, title, content string) error {
	err := r.update(ctx, KindPost, post.KeyAttributes(), Update{Title: &title, Content: &content})
	if err != nil {
		return err
	}

	post.Title = title
	post.Content = content
	post.UpdatedAt = r.tick()
	return nil
}

// DeletePost removes the post's primary record.
func (r *Repository) DeletePost(ctx context.Context, post *Post) error {
	return r.delete(ctx, KindPost, post.KeyAttributes())
}

// ListPostsByUser pages through a user's posts in sort key order.
func (r *Repository) ListPostsByUser(ctx context.Context, userID string, opts ...func(*ListOptions)) (*Page[Post], error) {
	return listPattern[Post](ctx, r, PatternPostsByUser, Params{UserID: userID}, opts)
}

// AddComment mints and stores a comment on the given post.
func (r *Repository) AddComment(ctx context.Context, postID, authorID, content string) (*Comment, error) {
	comment := &Comment{
		ID:        r.newID(),
		PostID:    postID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: r.tick(),
	}
	if err := r.put(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// EditComment updates the comment body, then reflects the change on the
// given record.
func (r *Repository) EditComment(ctx context.Context, comment *Comment, content string) error {
	err := r.update(ctx, KindComment, comment.KeyAttributes(), Update{Content: &content})
	if err != nil {
		return err
	}

	comment.Content = content
	return nil
}

// DeleteComment removes the comment's primary record.
func (r *Repository) DeleteComment(ctx context.Context, comment *Comment) error {
	return r.delete(ctx, KindComment, comment.KeyAttributes())
}

// ListCommentsForPost pages through a post's comments in chronological order.
func (r *Repository) ListCommentsForPost(ctx context.Context, postID string, opts ...func(*ListOptions)) (*Page[Comment], error) {
	return listPattern[Comment](ctx, r, PatternCommentsForPost, Params{PostID: postID}, opts)
}

// ListCommentsByAuthor pages through a user's comments across all posts.
func (r *Repository) ListCommentsByAuthor(ctx context.Context, authorID string, opts ...func(*ListOptions)) (*Page[Comment], error) {
	return listPattern[Comment](ctx, r, PatternCommentsByAuthor, Params{AuthorID: authorID}, opts)
}

// LikePost records that userID liked postID. The derived keys depend only
// on the (user, post) pair, so repeating the call overwrites the prior
// record instead of duplicating it.
func (r *Repository) LikePost(ctx context.Context, userID, postID string) (*Like, error) {
	like := &Like{UserID: userID, PostID: postID, CreatedAt: r.tick()}
	if err := r.put(ctx, like); err != nil {
		return nil, err
	}
	return like, nil
}

// UnlikePost removes the like record for the (user, post) pair.
func (r *Repository) UnlikePost(ctx context.Context, userID, postID string) error {
	return r.delete(ctx, KindLike, Attributes{UserID: userID, PostID: postID})
}

// ListLikesForPost pages through a post's likes.
func (r *Repository) ListLikesForPost(ctx context.Context, postID string, opts ...func(*ListOptions)) (*Page[Like], error) {
	return listPattern[Like](ctx, r, PatternLikesForPost, Params{PostID: postID}, opts)
}

// ListLikesByUser pages through the posts a user has liked.
func (r *Repository) ListLikesByUser(ctx context.Context, userID string, opts ...func(*ListOptions)) (*Page[Like], error) {
	return listPattern[Like](ctx, r, PatternLikesByUser, Params{UserID: userID}, opts)
}

// ListOptions configures repository listing operations.
type ListOptions struct {
	Limit       int    // Maximum number of items per page
	Cursor      string // Opaque cursor from a previous page
	NewestFirst bool   // If true, lists in reverse chronological order
}

// WithPageLimit caps the number of items returned per page.
func WithPageLimit(n int) func(*ListOptions) {
	return func(lo *ListOptions) { lo.Limit = n }
}

// WithPageCursor continues a listing from a previous page's cursor.
func WithPageCursor(cursor string) func(*ListOptions) {
	return func(lo *ListOptions) { lo.Cursor = cursor }
}

// WithNewestFirst lists in reverse chronological order.
func WithNewestFirst() func(*ListOptions) {
	return func(lo *ListOptions) { lo.NewestFirst = true }
}

// Page holds one page of listing results. NextCursor is empty when no
// further pages remain.
type Page[T any] struct {
	Items      []T
	NextCursor string
}

// listPattern resolves a named access pattern, runs the query, and converts
// the last evaluated key into an opaque cursor for the next page.
func listPattern[T any](ctx context.Context, r *Repository, pattern string, params Params, opts []func(*ListOptions)) (*Page[T], error) {
	var options ListOptions
	for _, opt := range opts {
		opt(&options)
	}

	paginator := r.table.Paginator(r.client)

	startKey, err := paginator.StartKey(ctx, options.Cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cursor: %w", err)
	}

	input, err := r.table.MarshalPattern(pattern, params, func(qo *QueryOptions) {
		qo.Limit = options.Limit
		qo.StartKey = startKey
		qo.SortDescending = options.NewestFirst
	})
	if err != nil {
		return nil, err
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", pattern, err)
	}

	page := &Page[T]{}
	if _, err := UnmarshalList(result.Items, &page.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s results: %w", pattern, err)
	}

	cursor, err := paginator.PageCursor(ctx, result.LastEvaluatedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to store cursor: %w", err)
	}
	page.NextCursor = cursor

	return page, nil
}
