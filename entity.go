package robin

import (
	"time"

	"github.com/google/uuid"
)

// Entity is implemented by every record kind stored in the table. The kind
// selects the key-derivation scheme and the attributes feed it; keys are
// never derived from anything outside the entity's own attributes.
type Entity interface {
	EntityKind() Kind
	KeyAttributes() Attributes
}

// User is an account record. Email is unique across users and serves the
// userByEmail lookup.
type User struct {
	ID          string    `dynamodbav:"id" json:"id"`
	Email       string    `dynamodbav:"email" json:"email"`
	DisplayName string    `dynamodbav:"display_name" json:"display_name"`
	CreatedAt   time.Time `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt   time.Time `dynamodbav:"updated_at" json:"updated_at"`
}

// NewUser mints a user record with a fresh identifier.
func NewUser(email, displayName string) *User {
	now := DefaultClock()
	return &User{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: displayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (u *User) EntityKind() Kind { return KindUser }

func (u *User) KeyAttributes() Attributes {
	return Attributes{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}

// Post is a content record owned by a user. Its sort key embeds the creation
// instant so a user's posts list chronologically.
type Post struct {
	ID        string    `dynamodbav:"id" json:"id"`
	OwnerID   string    `dynamodbav:"owner_id" json:"owner_id"`
	Title     string    `dynamodbav:"title" json:"title"`
	Content   string    `dynamodbav:"content" json:"content"`
	CreatedAt time.Time `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt time.Time `dynamodbav:"updated_at" json:"updated_at"`
}

// NewPost mints a post record with a fresh identifier.
func NewPost(ownerID, title, content string) *Post {
	now := DefaultClock()
	return &Post{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (p *Post) EntityKind() Kind { return KindPost }

func (p *Post) KeyAttributes() Attributes {
	return Attributes{ID: p.ID, OwnerID: p.OwnerID, CreatedAt: p.CreatedAt}
}

// Comment is a reply attached to a post.
type Comment struct {
	ID        string    `dynamodbav:"id" json:"id"`
	PostID    string    `dynamodbav:"post_id" json:"post_id"`
	AuthorID  string    `dynamodbav:"author_id" json:"author_id"`
	Content   string    `dynamodbav:"content" json:"content"`
	CreatedAt time.Time `dynamodbav:"created_at" json:"created_at"`
}

// NewComment mints a comment record with a fresh identifier.
func NewComment(postID, authorID, content string) *Comment {
	return &Comment{
		ID:        uuid.NewString(),
		PostID:    postID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: DefaultClock(),
	}
}

func (c *Comment) EntityKind() Kind { return KindComment }

func (c *Comment) KeyAttributes() Attributes {
	return Attributes{ID: c.ID, PostID: c.PostID, AuthorID: c.AuthorID, CreatedAt: c.CreatedAt}
}

// Like marks a post as liked by a user. It is identified by the ordered
// (user, post) pair; re-issuing the same pair overwrites the prior record.
type Like struct {
	UserID    string    `dynamodbav:"user_id" json:"user_id"`
	PostID    string    `dynamodbav:"post_id" json:"post_id"`
	CreatedAt time.Time `dynamodbav:"created_at" json:"created_at"`
}

// NewLike builds a like record for the (user, post) pair.
func NewLike(userID, postID string) *Like {
	return &Like{UserID: userID, PostID: postID, CreatedAt: DefaultClock()}
}

func (l *Like) EntityKind() Kind { return KindLike }

func (l *Like) KeyAttributes() Attributes {
	return Attributes{UserID: l.UserID, PostID: l.PostID, CreatedAt: l.CreatedAt}
}
