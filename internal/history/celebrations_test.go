package history

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenPath_CreatesAndMigrates(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "kudos.db")

	db, err := OpenPath(dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	n, err := Count(db)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestOpenPath_Idempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "kudos.db")

	db1, err := OpenPath(dbPath)
	require.NoError(t, err)
	require.NoError(t, db1.Close())

	db2, err := OpenPath(dbPath)
	require.NoError(t, err)
	defer func() { _ = db2.Close() }()

	_, err = Count(db2)
	require.NoError(t, err)
}

func TestInsertAndRecent(t *testing.T) {
	db, err := OpenPath(filepath.Join(t.TempDir(), "kudos.db"))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	first := &Celebration{
		Kind:      "git_commit",
		SessionID: "sess-1",
		Intensity: "medium",
		XPAwarded: 25,
		XPTotal:   25,
	}
	require.NoError(t, Insert(db, first))
	require.NotEmpty(t, first.UUID)
	require.NotZero(t, first.ID)
	require.False(t, first.CreatedAt.IsZero())

	second := &Celebration{
		Kind:        "git_push",
		SessionID:   "sess-1",
		Intensity:   "epic",
		XPAwarded:   100,
		XPTotal:     125,
		Achievement: "First Push",
	}
	require.NoError(t, Insert(db, second))

	rows, err := Recent(db, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Most recent first.
	require.Equal(t, "git_push", rows[0].Kind)
	require.Equal(t, "First Push", rows[0].Achievement)
	require.Equal(t, 125, rows[0].XPTotal)
	require.Equal(t, "git_commit", rows[1].Kind)

	n, err := Count(db)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestRecent_LimitAndDefault(t *testing.T) {
	db, err := OpenPath(filepath.Join(t.TempDir(), "kudos.db"))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	for range 25 {
		require.NoError(t, Insert(db, &Celebration{Kind: "post_tool_use", Intensity: "mini", XPAwarded: 5}))
	}

	rows, err := Recent(db, 5)
	require.NoError(t, err)
	require.Len(t, rows, 5)

	rows, err = Recent(db, 0)
	require.NoError(t, err)
	require.Len(t, rows, 20)
}

func TestInsert_PreservesCallerUUID(t *testing.T) {
	db, err := OpenPath(filepath.Join(t.TempDir(), "kudos.db"))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	c := &Celebration{UUID: "fixed-uuid", Kind: "task_completed", Intensity: "medium"}
	require.NoError(t, Insert(db, c))

	rows, err := Recent(db, 1)
	require.NoError(t, err)
	require.Equal(t, "fixed-uuid", rows[0].UUID)
}

func TestIsRetryableError(t *testing.T) {
	require.True(t, isRetryableError(errBusy{}))
	require.False(t, isRetryableError(errPlain{}))
}

type errBusy struct{}

func (errBusy) Error() string { return "SQLITE_BUSY: database is locked" }

type errPlain struct{}

func (errPlain) Error() string { return "UNIQUE constraint failed: celebrations.uuid" }
