package storage

import (
	"context"
	"os"
	"testing"

	"recruit-matcher/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 需要设置 TEST_DATABASE_URL 才会运行。
func TestPGStoreAppendAndList(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	store, err := NewPGStore(ctx, dsn, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(ctx))

	collection := "test_" + uuid.NewString()
	id, err := store.Append(ctx, collection, map[string]any{"candidate_id": "c1"})
	require.NoError(t, err)

	docs, err := store.ListAll(ctx, collection)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, id, docs[0].ID)
	assert.Equal(t, "c1", docs[0].Fields["candidate_id"])
	assert.False(t, docs[0].CreatedAt.IsZero())

	require.NoError(t, store.Put(ctx, model.Document{ID: id, Collection: collection, Fields: map[string]any{"candidate_id": "c2"}}))
	docs, err = store.ListAll(ctx, collection)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "c2", docs[0].Fields["candidate_id"])
}
