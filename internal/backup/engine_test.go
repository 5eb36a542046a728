package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sappho-media/sappho/internal/store"
	"github.com/sappho-media/sappho/internal/testutil"
)

// newTestEngine creates an engine over a real SQLite database file in a
// temp tree. The covers directory starts absent.
func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	root := t.TempDir()
	dbPath := filepath.Join(root, "sappho.db")
	seedDatabase(t, dbPath)

	return NewEngine(
		filepath.Join(root, "backups"),
		dbPath,
		filepath.Join(root, "covers"),
		testutil.Logger(),
	)
}

// seedDatabase creates a SQLite database at path with a few rows, so a
// restored copy is distinguishable from an empty database.
func seedDatabase(t *testing.T, path string) {
	t.Helper()

	st, err := store.New(path)
	require.NoError(t, err)

	_, err = st.DB().Exec(`CREATE TABLE IF NOT EXISTS media (id INTEGER PRIMARY KEY, title TEXT)`)
	require.NoError(t, err)
	for _, title := range []string{"Fragment 31", "Fragment 94", "Ode to Aphrodite"} {
		_, err = st.DB().Exec(`INSERT INTO media (title) VALUES (?)`, title)
		require.NoError(t, err)
	}

	require.NoError(t, st.Checkpoint(context.Background()))
	require.NoError(t, st.Close())
}

// countMediaRows opens the database at path and counts the seeded rows.
func countMediaRows(t *testing.T, path string) int {
	t.Helper()

	st, err := store.New(path)
	require.NoError(t, err)
	defer st.Close()

	var n int
	require.NoError(t, st.DB().QueryRow(`SELECT COUNT(*) FROM media`).Scan(&n))
	return n
}

func TestEngine_GuardSingleFlight(t *testing.T) {
	e := newTestEngine(t)

	require.True(t, e.TryBegin())
	require.True(t, e.Busy())
	require.False(t, e.TryBegin(), "second TryBegin must fail while busy")

	e.End()
	require.False(t, e.Busy())
	require.True(t, e.TryBegin(), "guard must be reusable after End")
	e.End()
}

func TestEngine_Dir(t *testing.T) {
	e := newTestEngine(t)
	require.NotEmpty(t, e.Dir())

	// The directory is created lazily by listing and building, not by the
	// constructor.
	_, err := os.Stat(e.Dir())
	require.True(t, os.IsNotExist(err))
}
