// Package robin maps a social data model onto a single DynamoDB table,
// built on the AWS SDK for Go v2.
//
// The library derives composite partition and sort keys for users, posts,
// comments, and likes, resolves named access patterns into key condition
// expressions, and performs standard CRUD operations against a table with
// a fixed schema.
//
// # Key Concepts
//
// Every entity kind owns a key scheme: a set of rules that derive the
// primary key pair and any secondary index projections from the entity's
// identifying attributes. Derivation is deterministic, so the same
// attributes always yield the same keys.
//
// The library uses a single-table design with the following schema:
//   - pk (partition key): owning entity key (TAG#id)
//   - sk (sort key): item key within the partition (TAG#...)
//   - kind: entity kind discriminator
//   - gsi1_pk / gsi1_sk: lookup-index keys (identity lookups)
//   - gsi2_pk / gsi2_sk: activity-index keys (per-user activity)
//
// Items that sort chronologically embed a 13-digit zero-padded millisecond
// timestamp in their sort key, so lexicographic order matches time order.
//
// # Basic Usage
//
//	table := robin.NewTable("social-content")
//	repo := robin.NewRepository(ddb, table)
//
//	user, err := repo.CreateUser(ctx, "alice@example.com", "Alice")
//	post, err := repo.CreatePost(ctx, user.ID, "Hello", "First post!")
//
// Key derivation is also available directly:
//
//	keys, err := table.DeriveKeys(robin.KindPost, robin.Attributes{
//	    ID:        "p1",
//	    OwnerID:   "u1",
//	    CreatedAt: createdAt,
//	})
//
// # Querying
//
// Read paths are expressed as named access patterns, each of which resolves
// to a key condition on the table or one of its indexes:
//
//	input, err := table.MarshalPattern(robin.PatternPostsByUser,
//	    robin.Params{UserID: "u1"})
//	result, err := ddb.Query(ctx, input)
//
// # Pagination
//
// Built-in pagination support stores cursors in the same table:
//
//	paginator := table.Paginator(ddb)
//	cursor, err := paginator.PageCursor(ctx, lastEvaluatedKey)
//	startKey, err := paginator.StartKey(ctx, cursor)
package robin
