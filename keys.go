package robin

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultKeyDelimiter joins a key tag and its identifier components.
	DefaultKeyDelimiter = "#"

	// DefaultLookupIndex is the secondary index serving direct lookups
	// (user by email, post by id).
	DefaultLookupIndex = "lookup-index"

	// DefaultActivityIndex is the secondary index serving per-user activity
	// listings (comments and likes by author).
	DefaultActivityIndex = "activity-index"
)

// Kind discriminates the entity families sharing the table keyspace. Each
// kind owns a reserved key tag so that records of different kinds can never
// collide on a full primary key.
type Kind string

const (
	KindUser    Kind = "user"
	KindPost    Kind = "post"
	KindComment Kind = "comment"
	KindLike    Kind = "like"

	// kindCursor backs pagination cursors stored alongside entity records.
	kindCursor Kind = "cursor"
)

// Tag returns the reserved key tag for the kind. Unregistered kinds return
// the empty string.
func (k Kind) Tag() string {
	switch k {
	case KindUser:
		return "USER"
	case KindPost:
		return "POST"
	case KindComment:
		return "COMMENT"
	case KindLike:
		return "LIKE"
	case kindCursor:
		return "CURSOR"
	default:
		return ""
	}
}

// Attributes carries the logical fields key derivation reads. Only the
// fields required by the entity kind being derived need to be set; see
// each kind's documentation for its required set.
type Attributes struct {
	ID        string    // entity identifier (User, Post, Comment)
	OwnerID   string    // owning user of a Post
	PostID    string    // parent post of a Comment or Like
	AuthorID  string    // authoring user of a Comment
	UserID    string    // issuing user of a Like
	Email     string    // unique email of a User
	CreatedAt time.Time // creation instant, embedded in ordering keys
}

// KeyPair is a partition/sort string pair addressing a record on the
// primary key or on one secondary index.
type KeyPair struct {
	Partition string
	Sort      string
}

// IndexKey is a key pair projected onto a named secondary index.
type IndexKey struct {
	IndexName string
	KeyPair
}

// KeySet is the complete set of keys a record is stored under: exactly one
// primary key and zero or more secondary index projections.
type KeySet struct {
	Primary   KeyPair
	Secondary []IndexKey
}

// Index returns the key pair projected onto the named secondary index, or
// false when the key set does not participate in that index.
func (ks *KeySet) Index(name string) (KeyPair, bool) {
	for _, idx := range ks.Secondary {
		if idx.IndexName == name {
			return idx.KeyPair, true
		}
	}
	return KeyPair{}, false
}

// OrderingKeyWidth is the fixed digit count of an ordering key encoding.
// The width is documented here because lexicographic comparison of encoded
// keys is only chronological while all keys share it.
const OrderingKeyWidth = 13

// maxOrderingMillis is the largest epoch-millisecond value representable in
// OrderingKeyWidth digits (year 2286).
const maxOrderingMillis = 1e13 - 1

// OrderingKey encodes ts as zero-padded epoch milliseconds so that ascending
// string comparison equals chronological order. The encoding is stable for a
// given instant and monotonic for strictly increasing timestamps within the
// encodable range; DeriveKeys rejects timestamps outside it.
func OrderingKey(ts time.Time) string {
	return fmt.Sprintf("%0*d", OrderingKeyWidth, ts.UnixMilli())
}

func orderingTimeValid(ts time.Time) bool {
	ms := ts.UnixMilli()
	return ms >= 0 && ms <= maxOrderingMillis
}

// joinKey concatenates key components with the configured delimiter.
func joinKey(delim string, parts ...string) string {
	return strings.Join(parts, delim)
}

// DeriveKeys maps an entity kind and its logical attributes to the exact key
// tuple(s) used to store or retrieve it, using the default key delimiter.
// The primary key is always derived; secondary projections are derived only
// when the attributes they read are present. A ValidationError is returned
// when a required attribute is absent, empty, or outside the ordering key
// range. No partial results: either the complete key set is returned or an
// error is.
func DeriveKeys(kind Kind, attrs Attributes) (*KeySet, error) {
	return deriveKeys(kind, attrs, DefaultKeyDelimiter)
}

func deriveKeys(kind Kind, attrs Attributes, delim string) (*KeySet, error) {
	scheme, ok := keySchemes[kind]
	if !ok {
		return nil, &ValidationError{Kind: kind, Field: "Kind", Reason: "unregistered entity kind"}
	}
	if delim == "" {
		delim = DefaultKeyDelimiter
	}
	return scheme.deriveKeys(attrs, delim)
}

// keyScheme derives the key set for one entity kind. Schemes are pure: same
// attributes always yield the same keys.
type keyScheme interface {
	deriveKeys(attrs Attributes, delim string) (*KeySet, error)
}

var keySchemes = map[Kind]keyScheme{
	KindUser:    userKeys{},
	KindPost:    postKeys{},
	KindComment: commentKeys{},
	KindLike:    likeKeys{},
	kindCursor:  cursorKeys{},
}

// userKeys derives User keys. Required: ID. The lookup index projection is
// derived only when Email is set, since the email attribute serves no other
// access pattern.
//
//	primary: USER#<id> / USER#<id>
//	lookup:  USER#<email> / USER#<email>
type userKeys struct{}

func (userKeys) deriveKeys(attrs Attributes, delim string) (*KeySet, error) {
	if attrs.ID == "" {
		return nil, &ValidationError{Kind: KindUser, Field: "ID", Reason: "must not be empty"}
	}

	self := joinKey(delim, KindUser.Tag(), attrs.ID)
	keys := &KeySet{Primary: KeyPair{Partition: self, Sort: self}}

	if attrs.Email != "" {
		email := joinKey(delim, KindUser.Tag(), attrs.Email)
		keys.Secondary = append(keys.Secondary, IndexKey{
			IndexName: DefaultLookupIndex,
			KeyPair:   KeyPair{Partition: email, Sort: email},
		})
	}

	return keys, nil
}

// postKeys derives Post keys. Required: ID, OwnerID and an encodable
// CreatedAt; the sort key embeds the ordering key so that a user's posts
// list chronologically.
//
//	primary: USER#<ownerID> / POST#<ts13>#<id>
//	lookup:  POST#<id> / POST#<id>
type postKeys struct{}

func (postKeys) deriveKeys(attrs Attributes, delim string) (*KeySet, error) {
	if attrs.ID == "" {
		return nil, &ValidationError{Kind: KindPost, Field: "ID", Reason: "must not be empty"}
	}
	if attrs.OwnerID == "" {
		return nil, &ValidationError{Kind: KindPost, Field: "OwnerID", Reason: "must not be empty"}
	}
	if !orderingTimeValid(attrs.CreatedAt) {
		return nil, &ValidationError{Kind: KindPost, Field: "CreatedAt", Reason: "timestamp outside ordering key range"}
	}

	self := joinKey(delim, KindPost.Tag(), attrs.ID)
	return &KeySet{
		Primary: KeyPair{
			Partition: joinKey(delim, KindUser.Tag(), attrs.OwnerID),
			Sort:      joinKey(delim, KindPost.Tag(), OrderingKey(attrs.CreatedAt), attrs.ID),
		},
		Secondary: []IndexKey{{
			IndexName: DefaultLookupIndex,
			KeyPair:   KeyPair{Partition: self, Sort: self},
		}},
	}, nil
}

// commentKeys derives Comment keys. Required: ID, PostID and an encodable
// CreatedAt. The activity index projection is derived only when AuthorID is
// set.
//
//	primary:  POST#<postID> / COMMENT#<ts13>#<id>
//	activity: USER#<authorID> / COMMENT#<ts13>#<id>
type commentKeys struct{}

func (commentKeys) deriveKeys(attrs Attributes, delim string) (*KeySet, error) {
	if attrs.ID == "" {
		return nil, &ValidationError{Kind: KindComment, Field: "ID", Reason: "must not be empty"}
	}
	if attrs.PostID == "" {
		return nil, &ValidationError{Kind: KindComment, Field: "PostID", Reason: "must not be empty"}
	}
	if !orderingTimeValid(attrs.CreatedAt) {
		return nil, &ValidationError{Kind: KindComment, Field: "CreatedAt", Reason: "timestamp outside ordering key range"}
	}

	sort := joinKey(delim, KindComment.Tag(), OrderingKey(attrs.CreatedAt), attrs.ID)
	keys := &KeySet{
		Primary: KeyPair{
			Partition: joinKey(delim, KindPost.Tag(), attrs.PostID),
			Sort:      sort,
		},
	}

	if attrs.AuthorID != "" {
		keys.Secondary = append(keys.Secondary, IndexKey{
			IndexName: DefaultActivityIndex,
			KeyPair: KeyPair{
				Partition: joinKey(delim, KindUser.Tag(), attrs.AuthorID),
				Sort:      sort,
			},
		})
	}

	return keys, nil
}

// likeKeys derives Like keys. Required: UserID and PostID. Every key
// component is derived from the (user, post) pair alone, so re-deriving for
// the same pair is byte-identical and a repeated put overwrites rather than
// duplicates.
//
//	primary:  POST#<postID> / LIKE#USER#<userID>
//	activity: USER#<userID> / LIKE#POST#<postID>
type likeKeys struct{}

func (likeKeys) deriveKeys(attrs Attributes, delim string) (*KeySet, error) {
	if attrs.UserID == "" {
		return nil, &ValidationError{Kind: KindLike, Field: "UserID", Reason: "must not be empty"}
	}
	if attrs.PostID == "" {
		return nil, &ValidationError{Kind: KindLike, Field: "PostID", Reason: "must not be empty"}
	}

	return &KeySet{
		Primary: KeyPair{
			Partition: joinKey(delim, KindPost.Tag(), attrs.PostID),
			Sort:      joinKey(delim, KindLike.Tag(), KindUser.Tag(), attrs.UserID),
		},
		Secondary: []IndexKey{{
			IndexName: DefaultActivityIndex,
			KeyPair: KeyPair{
				Partition: joinKey(delim, KindUser.Tag(), attrs.UserID),
				Sort:      joinKey(delim, KindLike.Tag(), KindPost.Tag(), attrs.PostID),
			},
		}},
	}, nil
}

// cursorKeys derives pagination cursor keys. Required: ID.
type cursorKeys struct{}

func (cursorKeys) deriveKeys(attrs Attributes, delim string) (*KeySet, error) {
	if attrs.ID == "" {
		return nil, &ValidationError{Kind: kindCursor, Field: "ID", Reason: "must not be empty"}
	}

	self := joinKey(delim, kindCursor.Tag(), attrs.ID)
	return &KeySet{Primary: KeyPair{Partition: self, Sort: self}}, nil
}
