package robin

import (
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Registered access pattern names. Each pattern maps a named query shape to
// the key condition serving it, against either the primary key or one of the
// two secondary indexes.
const (
	PatternUserByID         = "userById"
	PatternUserByEmail      = "userByEmail"
	PatternPostsByUser      = "postsByUser"
	PatternPostByID         = "postById"
	PatternCommentsForPost  = "commentsForPost"
	PatternCommentsByAuthor = "commentsByAuthor"
	PatternLikesForPost     = "likesForPost"
	PatternLikesByUser      = "likesByUser"
)

// Params supplies the named parameters a registered access pattern reads.
// Only the fields the pattern requires need to be set.
type Params struct {
	ID       string // entity identifier (userById, postById)
	UserID   string // partition owner (postsByUser, likesByUser)
	PostID   string // parent post (commentsForPost, likesForPost)
	AuthorID string // comment author (commentsByAuthor)
	Email    string // user email (userByEmail)
}

// KeyQuery is the resolved form of a named access pattern: the index it
// targets and the key condition selecting its records. An empty IndexName
// targets the table's primary key.
type KeyQuery struct {
	Pattern      string
	IndexName    string
	KeyCondition expression.KeyConditionBuilder
}

// patternRule derives the key condition for one registered pattern.
type patternRule struct {
	index string
	build func(p Params, delim string) (expression.KeyConditionBuilder, error)
}

// indexKeyNames returns the partition/sort attribute names addressed by
// queries against the given logical index.
func indexKeyNames(index string) (partition, sort string) {
	switch index {
	case DefaultLookupIndex:
		return AttributeNameLookupPartition, AttributeNameLookupSort
	case DefaultActivityIndex:
		return AttributeNameActivityPartition, AttributeNameActivitySort
	default:
		return AttributeNamePartition, AttributeNameSort
	}
}

func requireParam(kind Kind, field, value, pattern string) error {
	if value == "" {
		return &ValidationError{Kind: kind, Field: field, Reason: fmt.Sprintf("required by pattern %s", pattern)}
	}
	return nil
}

// partitionEquals builds a key condition selecting a single partition.
func partitionEquals(index, key string) expression.KeyConditionBuilder {
	partition, _ := indexKeyNames(index)
	return expression.Key(partition).Equal(expression.Value(key))
}

// partitionWithSortPrefix builds a key condition selecting records in a
// partition whose sort key begins with the given tag prefix.
func partitionWithSortPrefix(index, key, prefix string) expression.KeyConditionBuilder {
	partition, sortName := indexKeyNames(index)
	return expression.Key(partition).Equal(expression.Value(key)).
		And(expression.Key(sortName).BeginsWith(prefix))
}

var accessPatterns = map[string]patternRule{
	PatternUserByID: {
		build: func(p Params, d string) (expression.KeyConditionBuilder, error) {
			if err := requireParam(KindUser, "ID", p.ID, PatternUserByID); err != nil {
				return expression.KeyConditionBuilder{}, err
			}
			self := joinKey(d, KindUser.Tag(), p.ID)
			return expression.Key(AttributeNamePartition).Equal(expression.Value(self)).
				And(expression.Key(AttributeNameSort).Equal(expression.Value(self))), nil
		},
	},
	PatternUserByEmail: {
		index: DefaultLookupIndex,
		build: func(p Params, d string) (expression.KeyConditionBuilder, error) {
			if err := requireParam(KindUser, "Email", p.Email, PatternUserByEmail); err != nil {
				return expression.KeyConditionBuilder{}, err
			}
			return partitionEquals(DefaultLookupIndex, joinKey(d, KindUser.Tag(), p.Email)), nil
		},
	},
	PatternPostsByUser: {
		build: func(p Params, d string) (expression.KeyConditionBuilder, error) {
			if err := requireParam(KindPost, "UserID", p.UserID, PatternPostsByUser); err != nil {
				return expression.KeyConditionBuilder{}, err
			}
			return partitionWithSortPrefix("", joinKey(d, KindUser.Tag(), p.UserID), KindPost.Tag()+d), nil
		},
	},
	PatternPostByID: {
		index: DefaultLookupIndex,
		build: func(p Params, d string) (expression.KeyConditionBuilder, error) {
			if err := requireParam(KindPost, "ID", p.ID, PatternPostByID); err != nil {
				return expression.KeyConditionBuilder{}, err
			}
			return partitionEquals(DefaultLookupIndex, joinKey(d, KindPost.Tag(), p.ID)), nil
		},
	},
	PatternCommentsForPost: {
		build: func(p Params, d string) (expression.KeyConditionBuilder, error) {
			if err := requireParam(KindComment, "PostID", p.PostID, PatternCommentsForPost); err != nil {
				return expression.KeyConditionBuilder{}, err
			}
			return partitionWithSortPrefix("", joinKey(d, KindPost.Tag(), p.PostID), KindComment.Tag()+d), nil
		},
	},
	PatternCommentsByAuthor: {
		index: DefaultActivityIndex,
		build: func(p Params, d string) (expression.KeyConditionBuilder, error) {
			if err := requireParam(KindComment, "AuthorID", p.AuthorID, PatternCommentsByAuthor); err != nil {
				return expression.KeyConditionBuilder{}, err
			}
			return partitionWithSortPrefix(DefaultActivityIndex, joinKey(d, KindUser.Tag(), p.AuthorID), KindComment.Tag()+d), nil
		},
	},
	PatternLikesForPost: {
		build: func(p Params, d string) (expression.KeyConditionBuilder, error) {
			if err := requireParam(KindLike, "PostID", p.PostID, PatternLikesForPost); err != nil {
				return expression.KeyConditionBuilder{}, err
			}
			return partitionWithSortPrefix("", joinKey(d, KindPost.Tag(), p.PostID), KindLike.Tag()+d), nil
		},
	},
	PatternLikesByUser: {
		index: DefaultActivityIndex,
		build: func(p Params, d string) (expression.KeyConditionBuilder, error) {
			if err := requireParam(KindLike, "UserID", p.UserID, PatternLikesByUser); err != nil {
				return expression.KeyConditionBuilder{}, err
			}
			return partitionWithSortPrefix(DefaultActivityIndex, joinKey(d, KindUser.Tag(), p.UserID), KindLike.Tag()+d), nil
		},
	},
}

// DataAttribute returns a name builder addressing a field of the stored
// data payload, for use in filter and condition expressions.
func DataAttribute(name string) expression.NameBuilder {
	return expression.Name(AttributeNameData + "." + name)
}

// PatternNames returns the registered access pattern names in sorted order.
func PatternNames() []string {
	names := make([]string, 0, len(accessPatterns))
	for name := range accessPatterns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveAccessPattern maps a named access pattern and its parameters to the
// index and key condition serving it, using the default key delimiter. An
// UnknownPatternError is returned for unregistered names; a ValidationError
// when a required parameter is missing. Resolution has no side effects.
func ResolveAccessPattern(name string, params Params) (*KeyQuery, error) {
	return resolveAccessPattern(name, params, DefaultKeyDelimiter)
}

func resolveAccessPattern(name string, params Params, delim string) (*KeyQuery, error) {
	rule, ok := accessPatterns[name]
	if !ok {
		return nil, &UnknownPatternError{Pattern: name}
	}
	if delim == "" {
		delim = DefaultKeyDelimiter
	}

	cond, err := rule.build(params, delim)
	if err != nil {
		return nil, err
	}

	return &KeyQuery{Pattern: name, IndexName: rule.index, KeyCondition: cond}, nil
}

// QueryOptions configures pattern-resolved query requests.
type QueryOptions struct {
	Limit          int                         // Maximum number of items to return
	StartKey       Item                        // Exclusive start key for pagination
	SortDescending bool                        // If true, scans backward (newest first)
	Filter         expression.ConditionBuilder // Optional filter on non-key attributes
}

// MarshalQuery builds a query request from a resolved key query.
func (t *Table) MarshalQuery(kq *KeyQuery, opts ...func(*QueryOptions)) (*dynamodb.QueryInput, error) {
	var options QueryOptions
	for _, opt := range opts {
		opt(&options)
	}

	builder := expression.NewBuilder().WithKeyCondition(kq.KeyCondition)
	if options.Filter.IsSet() {
		builder = builder.WithFilter(options.Filter)
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(t.TableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(!options.SortDescending),
	}

	if options.Filter.IsSet() {
		input.FilterExpression = expr.Filter()
	}

	// Map the logical index onto this table's configured index names.
	switch kq.IndexName {
	case "":
	case DefaultLookupIndex:
		input.IndexName = aws.String(t.LookupIndex)
	case DefaultActivityIndex:
		input.IndexName = aws.String(t.ActivityIndex)
	default:
		input.IndexName = aws.String(kq.IndexName)
	}

	if options.Limit > 0 {
		input.Limit = aws.Int32(int32(options.Limit))
	}

	if options.StartKey != nil {
		input.ExclusiveStartKey = options.StartKey
	}

	return input, nil
}

// MarshalPattern resolves a named access pattern against this table and
// builds the query request for it.
func (t *Table) MarshalPattern(name string, params Params, opts ...func(*QueryOptions)) (*dynamodb.QueryInput, error) {
	kq, err := resolveAccessPattern(name, params, t.KeyDelimiter)
	if err != nil {
		return nil, err
	}
	return t.MarshalQuery(kq, opts...)
}
