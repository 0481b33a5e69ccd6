package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"recruit-matcher/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/datatypes"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "data", "recruit.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreAppendAndListAll(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	ctx := context.Background()
	firstID, err := store.Append(ctx, model.CollectionRecommendations, map[string]any{"candidate_id": "c1"})
	require.NoError(t, err)
	secondID, err := store.Append(ctx, model.CollectionRecommendations, map[string]any{"candidate_id": "c2"})
	require.NoError(t, err)
	_, err = store.Append(ctx, model.CollectionCandidates, map[string]any{"full_name": "Other"})
	require.NoError(t, err)

	assert.NotEqual(t, firstID, secondID)

	docs, err := store.ListAll(ctx, model.CollectionRecommendations)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, firstID, docs[0].ID)
	assert.Equal(t, "c1", docs[0].Fields["candidate_id"])
	assert.Equal(t, model.CollectionRecommendations, docs[0].Collection)
	assert.True(t, docs[0].CreatedAt.Equal(base.Add(time.Minute)))
	assert.Equal(t, secondID, docs[1].ID)
}

func TestStoreListAllEmptyCollection(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	docs, err := store.ListAll(context.Background(), model.CollectionCandidates)
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestStorePutOverwritesBody(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	doc := model.Document{ID: "cand-1", Collection: model.CollectionCandidates, Fields: map[string]any{
		"full_name": "Jo",
		"skills":    []string{"Welding"},
	}}
	require.NoError(t, store.Put(ctx, doc))

	doc.Fields["full_name"] = "Jo Smith"
	require.NoError(t, store.Put(ctx, doc))

	docs, err := store.ListAll(ctx, model.CollectionCandidates)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "cand-1", docs[0].ID)
	assert.Equal(t, "Jo Smith", docs[0].Fields["full_name"])
	assert.Equal(t, []any{"Welding"}, docs[0].Fields["skills"])
}

func TestStoreListAllSkipsUndecodableRows(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	store, err := NewStore(filepath.Join(t.TempDir(), "recruit.db"), zap.New(core))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, model.Document{ID: "good", Collection: model.CollectionCandidates, Fields: map[string]any{
		"full_name": "Jo",
	}}))
	now := time.Now().UTC()
	require.NoError(t, store.db.Create(&documentRow{
		ID:         "broken",
		Collection: model.CollectionCandidates,
		Body:       datatypes.JSON(`{"full_name":`),
		CreatedAt:  now,
		UpdatedAt:  now,
	}).Error)

	docs, err := store.ListAll(ctx, model.CollectionCandidates)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "good", docs[0].ID)

	entries := logs.FilterMessage("skip undecodable document").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "broken", entries[0].ContextMap()["id"])
}
