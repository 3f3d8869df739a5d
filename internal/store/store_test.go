package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_ReachesCurrentVersion(t *testing.T) {
	s := createTestStore(t)

	v, err := s.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion(), v)
	assert.Equal(t, 5, v)

	tables := []string{"tournaments", "events", "fencers", "event_fencers", "pools"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		assert.NoError(t, err, "table %q missing", table)
	}
}

func TestOpen_CreatesIndexes(t *testing.T) {
	s := createTestStore(t)

	indexes := []string{
		"idx_events_by_tournament",
		"idx_fencers_by_name",
		"idx_fencers_by_fencing_id",
		"idx_event_fencers_by_event",
		"idx_pools_by_event",
		"idx_pools_by_stage",
	}
	for _, idx := range indexes {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='index' AND name=?",
			idx,
		).Scan(&name)
		assert.NoError(t, err, "index %q missing", idx)
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(), Tournaments, tournamentRecord(t, "t1", "Open")))
	require.NoError(t, s.Close())

	for i := 0; i < 3; i++ {
		obs := &recordingObserver{}
		s, err := Open(path, WithObserver(obs))
		require.NoError(t, err, "Open() iteration %d", i)
		assert.Empty(t, obs.applied, "reopen must not re-apply steps")
		assert.Equal(t, []int{5}, obs.versions)
		s.Close()
	}

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, 1, countRows(t, s, "tournaments"))
}

func TestOpen_UpgradesOlderFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	old, err := Open(path, WithMigrations(Migrations[:2]))
	require.NoError(t, err)
	require.NoError(t, old.Put(context.Background(), Tournaments, tournamentRecord(t, "t1", "Open")))
	v, err := old.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	require.NoError(t, old.Close())

	obs := &recordingObserver{}
	s, err := Open(path, WithObserver(obs))
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, []int{3, 4, 5}, obs.applied)
	data, err := s.Get(context.Background(), Tournaments, Key{"t1"})
	require.NoError(t, err)
	assert.Equal(t, "Open", decodeDoc(t, data).Name)
}

func TestOpen_ResumesAfterPartialStep(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	old, err := Open(path, WithMigrations(Migrations[:2]))
	require.NoError(t, err)
	// Simulate a crash after v3's table was created but before user_version moved.
	_, err = old.DB().Exec(Migrations[2].Statements()[0])
	require.NoError(t, err)
	require.NoError(t, old.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	v, err := s.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestOpen_MigrationFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	broken := append([]Migration{}, Migrations...)
	broken = append(broken, Migration{
		Version:     6,
		Name:        "broken",
		Collections: []CollectionDef{{Name: "bad name", Key: []string{"id"}}},
	})

	_, err := Open(path, WithMigrations(broken))
	require.Error(t, err)
	assert.True(t, IsMigration(err))

	// Steps before the failing one stay applied.
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()
	v, err := s.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)
	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestMigrationStatements_AreIdempotent(t *testing.T) {
	for _, m := range Migrations {
		for _, stmt := range m.Statements() {
			assert.Contains(t, stmt, "IF NOT EXISTS", "v%d: %s", m.Version, stmt)
		}
	}

	s := createTestStore(t)
	for _, m := range Migrations {
		for _, stmt := range m.Statements() {
			_, err := s.DB().Exec(stmt)
			assert.NoError(t, err, "re-running v%d", m.Version)
		}
	}
}

func TestMigrations_AscendingVersions(t *testing.T) {
	for i := 1; i < len(Migrations); i++ {
		assert.Greater(t, Migrations[i].Version, Migrations[i-1].Version)
	}
}

type recordingObserver struct {
	applied   []int
	versions  []int
	committed int
	aborted   int
	scopes    []string
}

func (o *recordingObserver) TransactionFinished(scope string, committed bool, _ time.Duration) {
	o.scopes = append(o.scopes, scope)
	if committed {
		o.committed++
	} else {
		o.aborted++
	}
}

func (o *recordingObserver) MigrationApplied(v int) { o.applied = append(o.applied, v) }
func (o *recordingObserver) SchemaVersion(v int)    { o.versions = append(o.versions, v) }
