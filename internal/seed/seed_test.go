package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"recruit-matcher/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `
hiring_requests:
  - id: r1
    job_title: Driver
    quantity: 2
    status: pending
    deadline: 2026-12-01
candidates:
  - id: c1
    full_name: Ann
    skills: [Safe Driving, First Aid]
    verified: true
    available: true
  - full_name: Generated
`

func TestLoad(t *testing.T) {
	t.Parallel()

	docs, err := Load(strings.NewReader(fixture))
	require.NoError(t, err)
	require.Len(t, docs, 3)

	// candidates sort before hiring_requests
	assert.Equal(t, "c1", docs[0].ID)
	assert.Equal(t, model.CollectionCandidates, docs[0].Collection)
	assert.Equal(t, []any{"Safe Driving", "First Aid"}, docs[0].Fields["skills"])
	assert.NotContains(t, docs[0].Fields, "id")

	assert.NotEmpty(t, docs[1].ID)
	assert.Equal(t, "Generated", docs[1].Fields["full_name"])

	assert.Equal(t, "r1", docs[2].ID)
	assert.Equal(t, 2, docs[2].Fields["quantity"])
	assert.Equal(t, "2026-12-01", docs[2].Fields["deadline"])
}

func TestLoadRejectsUnknownCollection(t *testing.T) {
	t.Parallel()

	_, err := Load(strings.NewReader("jobs:\n  - id: x\n"))
	require.ErrorIs(t, err, ErrUnknownCollection)
}

func TestLoadRejectsNonStringID(t *testing.T) {
	t.Parallel()

	_, err := Load(strings.NewReader("candidates:\n  - id: 12\n    full_name: Ann\n"))
	require.Error(t, err)
}

func TestLoadEmpty(t *testing.T) {
	t.Parallel()

	docs, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o600))

	docs, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, docs, 3)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestApply(t *testing.T) {
	t.Parallel()

	docs := []model.Document{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	ok := &stubPutter{}
	n, err := Apply(context.Background(), ok, docs)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"a", "b", "c"}, ok.ids)

	failing := &stubPutter{failOn: "b"}
	n, err = Apply(context.Background(), failing, docs)
	require.Error(t, err)
	assert.Equal(t, 1, n)
}

func TestNormalizeTimes(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	instant := time.Date(2026, 12, 1, 9, 30, 0, 0, time.UTC)

	assert.Equal(t, "2026-12-01", normalize(day))
	assert.Equal(t, "2026-12-01T09:30:00Z", normalize(instant))
	assert.Equal(t, []any{"2026-12-01"}, normalize([]any{day}))
	assert.Equal(t, map[string]any{"at": "2026-12-01"}, normalize(map[string]any{"at": day}))
}

// --- stubs ---

type stubPutter struct {
	ids    []string
	failOn string
}

func (s *stubPutter) Put(_ context.Context, doc model.Document) error {
	if doc.ID == s.failOn {
		return errors.New("disk full")
	}
	s.ids = append(s.ids, doc.ID)
	return nil
}
