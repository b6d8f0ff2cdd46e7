package integration

import (
	"context"
	"os"
	"testing"

	"github.com/ersonp/lei-resolver/internal/infrastructure/config"
	"github.com/ersonp/lei-resolver/internal/infrastructure/vectordb/qdrant"
)

const (
	testQdrantHost = "localhost"
	testQdrantPort = 6334
	testCollection = "lei_integration_test"
	testVectorSize = 4
)

var testRepo *qdrant.Repository

func TestMain(m *testing.M) {
	// Skip if INTEGRATION_TEST is not set
	if os.Getenv("INTEGRATION_TEST") != "1" {
		os.Exit(0)
	}

	cfg := config.QdrantConfig{
		Host:       testQdrantHost,
		Port:       testQdrantPort,
		Collection: testCollection,
	}

	var err error
	testRepo, err = qdrant.NewRepository(cfg)
	if err != nil {
		panic("failed to create repository: " + err.Error())
	}

	// Ensure clean collection
	ctx := context.Background()
	_ = testRepo.DeleteCollection(ctx)
	if err := testRepo.EnsureCollection(ctx, testVectorSize); err != nil {
		panic("failed to create collection: " + err.Error())
	}

	code := m.Run()

	_ = testRepo.DeleteCollection(ctx)
	testRepo.Close()

	os.Exit(code)
}

// resetCollection recreates the test collection between tests.
func resetCollection(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	if err := testRepo.DeleteCollection(ctx); err != nil {
		t.Fatalf("failed to delete collection: %v", err)
	}
	if err := testRepo.EnsureCollection(ctx, testVectorSize); err != nil {
		t.Fatalf("failed to create collection: %v", err)
	}
}
