package robinmock

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// SeedFromJSON reads a JSON array of fixtures and persists them to the
// table. Each element carries a "kind" discriminator and the matching
// entity object:
//
//	[
//	  {"kind": "user", "user": {"id": "u1", "email": "u1@example.com"}},
//	  {"kind": "post", "post": {"id": "p1", "owner_id": "u1",
//	    "created_at": "2024-03-15T10:30:00Z"}},
//	  {"kind": "like", "like": {"user_id": "u1", "post_id": "p1"}}
//	]
//
// Returns the number of items saved and any errors generated.
func (s *Seeder) SeedFromJSON(ctx context.Context, r io.Reader) (int, error) {
	var fixtures []Fixture
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&fixtures); err != nil {
		return 0, fmt.Errorf("failed to parse JSON document: %w", err)
	}

	return s.SeedFixtures(ctx, fixtures...)
}
