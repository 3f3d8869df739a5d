package repository

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/piste/internal/model"
	"github.com/roach88/piste/internal/store"
	"github.com/roach88/piste/internal/testutil"
)

type synced struct {
	collection string
	id         string
}

type recordingSyncer struct {
	mu    sync.Mutex
	calls []synced
}

func (s *recordingSyncer) TrySync(_ context.Context, collection, id string, _ any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, synced{collection, id})
}

func (s *recordingSyncer) count(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.collection == collection {
			n++
		}
	}
	return n
}

type fixture struct {
	repos *Repositories
	store *store.Store
	clock *testutil.Clock
	sync  *recordingSyncer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "piste.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	f := &fixture{
		store: st,
		clock: testutil.NewClock(),
		sync:  &recordingSyncer{},
	}
	f.repos = New(st, WithClock(f.clock), WithSyncer(f.sync))
	return f
}

func (f *fixture) tournament(t *testing.T, id string) model.Tournament {
	t.Helper()
	tr, err := f.repos.Tournaments.Save(context.Background(), model.Tournament{ID: id, Name: "Open " + id})
	require.NoError(t, err)
	return tr
}

func (f *fixture) event(t *testing.T, id, tournamentID string) model.Event {
	t.Helper()
	e, err := f.repos.Events.Save(context.Background(), model.Event{
		ID:           id,
		TournamentID: tournamentID,
		Name:         "Senior epee",
		Weapon:       "epee",
		RuleID:       "standard",
	})
	require.NoError(t, err)
	return e
}

func (f *fixture) fencer(t *testing.T, id, last, first string) model.Fencer {
	t.Helper()
	fc, err := f.repos.Fencers.Save(context.Background(), model.Fencer{ID: id, LastName: last, FirstName: first})
	require.NoError(t, err)
	return fc
}
