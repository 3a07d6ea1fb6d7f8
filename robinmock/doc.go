// Package robinmock provides testing utilities for the robin library.
//
// This package includes:
//   - Expectation-based mock DynamoDB client for unit testing
//   - Local DynamoDB integration utilities
//   - Declarative entity fixtures with JSON seeding
//   - Integration test utilities with automatic cleanup
//
// # Mock Client
//
// The MockClient provides an expectation-based mock implementation where you set
// expectations for specific operations:
//
//	mock := robinmock.NewMockClient(t)
//
//	// Set expectation for PutItem
//	mock.PutFunc = func(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
//		// Verify the operation parameters
//		return &dynamodb.PutItemOutput{}, nil
//	}
//
//	// Use mock in your tests
//	table := robin.NewTable("test-table")
//	putInput, _ := table.MarshalPut(user)
//	_, err := mock.PutItem(ctx, putInput)
//
// # Fixtures
//
// Fixtures describe test records declaratively; their keys are validated
// before any write is attempted:
//
//	fixtures := []robinmock.Fixture{
//		robinmock.UserFixture(robin.User{ID: "u1", Email: "u1@example.com"}),
//		robinmock.PostFixture(robin.Post{ID: "p1", OwnerID: "u1", CreatedAt: now}),
//		robinmock.LikeFixture(robin.Like{UserID: "u1", PostID: "p1"}),
//	}
//
//	seeder := robinmock.NewSeeder(client, tableName)
//	count, err := seeder.SeedFixtures(ctx, fixtures...)
//
// The same shape is accepted as JSON through Seeder.SeedFromJSON, which is
// convenient for bulk test data kept in files.
//
// # Local DynamoDB Integration
//
// For integration testing with DynamoDB Local:
//
//	// Create a local client
//	client := robinmock.NewLocalClient(8000)
//
//	// Run a test with an isolated table
//	robinmock.WithIsolatedTable(t, client, func(tableName string) {
//		table := robin.NewTable(tableName)
//		repo := robin.NewRepository(client, table)
//		// ... test against the live table
//	})
//
// RunIntegrationTest combines availability checks, unique table creation,
// and cleanup:
//
//	robinmock.RunIntegrationTest(t, nil, func(local *robinmock.LocalDynamoDB, tableName string) {
//		// ... test with local.Client and tableName
//	})
//
// Integration helpers skip automatically when DynamoDB Local is not
// reachable, and in -short mode.
package robinmock
