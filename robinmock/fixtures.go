package robinmock

import (
	"fmt"

	"github.com/swapkats/robin"
)

// Fixture is a declarative test record. Exactly one of the entity fields
// must be set, matching Kind; Entity validates the shape and returns the
// populated entity.
type Fixture struct {
	Kind    robin.Kind     `json:"kind"`
	User    *robin.User    `json:"user,omitempty"`
	Post    *robin.Post    `json:"post,omitempty"`
	Comment *robin.Comment `json:"comment,omitempty"`
	Like    *robin.Like    `json:"like,omitempty"`
}

// Entity returns the fixture's populated entity, validating that the set
// field matches the declared kind.
func (f Fixture) Entity() (robin.Entity, error) {
	var entity robin.Entity

	switch f.Kind {
	case robin.KindUser:
		if f.User == nil {
			return nil, fmt.Errorf("fixture kind %q has no user field", f.Kind)
		}
		entity = f.User
	case robin.KindPost:
		if f.Post == nil {
			return nil, fmt.Errorf("fixture kind %q has no post field", f.Kind)
		}
		entity = f.Post
	case robin.KindComment:
		if f.Comment == nil {
			return nil, fmt.Errorf("fixture kind %q has no comment field", f.Kind)
		}
		entity = f.Comment
	case robin.KindLike:
		if f.Like == nil {
			return nil, fmt.Errorf("fixture kind %q has no like field", f.Kind)
		}
		entity = f.Like
	default:
		return nil, fmt.Errorf("unknown fixture kind %q", f.Kind)
	}

	// Reject fixtures whose keys cannot be derived before they reach the
	// table, so seeding failures point at the data and not the write.
	if _, err := robin.DeriveKeys(entity.EntityKind(), entity.KeyAttributes()); err != nil {
		return nil, fmt.Errorf("invalid fixture: %w", err)
	}

	return entity, nil
}

// UserFixture builds a user fixture.
func UserFixture(user robin.User) Fixture {
	return Fixture{Kind: robin.KindUser, User: &user}
}

// PostFixture builds a post fixture.
func PostFixture(post robin.Post) Fixture {
	return Fixture{Kind: robin.KindPost, Post: &post}
}

// CommentFixture builds a comment fixture.
func CommentFixture(comment robin.Comment) Fixture {
	return Fixture{Kind: robin.KindComment, Comment: &comment}
}

// LikeFixture builds a like fixture.
func LikeFixture(like robin.Like) Fixture {
	return Fixture{Kind: robin.KindLike, Like: &like}
}

// Entities converts a list of fixtures into entities, failing on the first
// invalid fixture.
func Entities(fixtures ...Fixture) ([]robin.Entity, error) {
	entities := make([]robin.Entity, 0, len(fixtures))
	for i, fixture := range fixtures {
		entity, err := fixture.Entity()
		if err != nil {
			return nil, fmt.Errorf("fixture at index %d: %w", i, err)
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
