package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/piste/internal/ident"
	"github.com/roach88/piste/internal/model"
	"github.com/roach88/piste/internal/store"
	"github.com/roach88/piste/internal/testutil"
)

func TestTournamentSave_New(t *testing.T) {
	f := newFixture(t)
	f.repos = New(f.store, WithClock(f.clock), WithSyncer(f.sync), WithIDs(ident.NewFixedGenerator("t-1")))
	ctx := context.Background()

	saved, err := f.repos.Tournaments.Save(ctx, model.Tournament{Name: "Challenge Martini", Synchronized: true})
	require.NoError(t, err)

	assert.Equal(t, "t-1", saved.ID)
	assert.Equal(t, model.StatusDraft, saved.Status)
	assert.False(t, saved.Synchronized)
	assert.Equal(t, testutil.Epoch, saved.CreatedAt)
	assert.Equal(t, testutil.Epoch, saved.UpdatedAt)

	got, err := f.repos.Tournaments.Get(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, saved, got)
	assert.Equal(t, 1, f.sync.count("tournaments"))
}

func TestTournamentSave_UpsertKeepsCreatedAt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.tournament(t, "t-1")
	first.Name = "Renamed"
	first.CreatedAt = first.CreatedAt.AddDate(-1, 0, 0)

	second, err := f.repos.Tournaments.Save(ctx, first)
	require.NoError(t, err)

	assert.Equal(t, "t-1", second.ID)
	assert.Equal(t, "Renamed", second.Name)
	assert.Equal(t, testutil.Epoch, second.CreatedAt)
	assert.True(t, second.UpdatedAt.After(second.CreatedAt))
}

func TestTournamentSave_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.repos.Tournaments.Save(context.Background(), model.Tournament{})
	require.Error(t, err)
	assert.True(t, store.IsValidation(err))
	assert.Zero(t, f.sync.count("tournaments"))
}

func TestTournamentGet_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.repos.Tournaments.Get(context.Background(), "missing")
	assert.True(t, store.IsNotFound(err))
}

func TestTournamentSetStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.tournament(t, "t-1")

	_, err := f.repos.Tournaments.SetStatus(ctx, "t-1", model.StatusCompleted)
	require.Error(t, err)
	assert.True(t, store.IsValidation(err), "draft cannot jump to completed")

	tr, err := f.repos.Tournaments.SetStatus(ctx, "t-1", model.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, tr.Status)

	tr, err = f.repos.Tournaments.SetStatus(ctx, "t-1", model.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, tr.Status)

	_, err = f.repos.Tournaments.SetStatus(ctx, "t-1", model.StatusDraft)
	assert.True(t, store.IsValidation(err))

	_, err = f.repos.Tournaments.SetStatus(ctx, "missing", model.StatusActive)
	assert.True(t, store.IsNotFound(err))
}

func TestTournamentList(t *testing.T) {
	f := newFixture(t)
	f.tournament(t, "b")
	f.tournament(t, "a")

	list, err := f.repos.Tournaments.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
}

func TestTournamentSave_NewMustStartAsDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, status := range []model.TournamentStatus{model.StatusActive, model.StatusCompleted} {
		_, err := f.repos.Tournaments.Save(ctx, model.Tournament{ID: "t-" + string(status), Name: "Open", Status: status})
		require.Error(t, err, status)
		assert.True(t, store.IsValidation(err), status)

		_, err = f.repos.Tournaments.Get(ctx, "t-"+string(status))
		assert.True(t, store.IsNotFound(err), status)
	}

	saved, err := f.repos.Tournaments.Save(ctx, model.Tournament{ID: "t-draft", Name: "Open", Status: model.StatusDraft})
	require.NoError(t, err)
	assert.Equal(t, model.StatusDraft, saved.Status)
}

func TestTournamentSetStatus_NoWayBackToDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.tournament(t, "t-1")

	_, err := f.repos.Tournaments.SetStatus(ctx, "t-1", model.StatusActive)
	require.NoError(t, err)

	_, err = f.repos.Tournaments.SetStatus(ctx, "t-1", model.StatusDraft)
	require.Error(t, err)
	assert.True(t, store.IsValidation(err))

	got, err := f.repos.Tournaments.Get(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, got.Status)
}

func TestTournamentDelete_Cascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.tournament(t, "t-1")
	f.tournament(t, "t-2")
	f.event(t, "e-1", "t-1")
	f.event(t, "e-2", "t-1")
	f.event(t, "e-3", "t-2")
	f.fencer(t, "f-1", "Dupont", "Marie")

	_, err := f.repos.Registrations.Register(ctx, "e-1", "f-1")
	require.NoError(t, err)
	_, err = f.repos.Registrations.Register(ctx, "e-3", "f-1")
	require.NoError(t, err)
	_, err = f.repos.Pools.ReplaceStage(ctx, "e-2", "s-1", []model.Pool{{FencerIDs: []string{"f-1"}}})
	require.NoError(t, err)

	require.NoError(t, f.repos.Tournaments.Delete(ctx, "t-1"))

	_, err = f.repos.Tournaments.Get(ctx, "t-1")
	assert.True(t, store.IsNotFound(err))
	events, err := f.repos.Events.ListByTournament(ctx, "t-1")
	require.NoError(t, err)
	assert.Empty(t, events)
	links, err := f.repos.Registrations.ListByEvent(ctx, "e-1")
	require.NoError(t, err)
	assert.Empty(t, links)
	pools, err := f.repos.Pools.ListByEvent(ctx, "e-2")
	require.NoError(t, err)
	assert.Empty(t, pools)

	// The other tournament is untouched.
	links, err = f.repos.Registrations.ListByEvent(ctx, "e-3")
	require.NoError(t, err)
	assert.Len(t, links, 1)

	_, err = f.repos.Fencers.Get(ctx, "f-1")
	assert.NoError(t, err, "fencers are not owned by tournaments")
}

func TestTournamentDelete_FailureAfterChildrenRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.tournament(t, "t-1")
	f.event(t, "e-1", "t-1")
	f.event(t, "e-2", "t-1")
	f.fencer(t, "f-1", "Dupont", "Marie")

	_, err := f.repos.Registrations.Register(ctx, "e-1", "f-1")
	require.NoError(t, err)
	_, err = f.repos.Pools.ReplaceStage(ctx, "e-2", "s-1", []model.Pool{{FencerIDs: []string{"f-1"}}})
	require.NoError(t, err)

	// Every child row is gone by the time the tournament row itself is
	// deleted, so failing that last statement exercises the rollback.
	_, err = f.store.DB().ExecContext(ctx, `CREATE TRIGGER block_tournament_delete
		BEFORE DELETE ON tournaments
		BEGIN SELECT RAISE(ABORT, 'tournament delete blocked'); END`)
	require.NoError(t, err)

	err = f.repos.Tournaments.Delete(ctx, "t-1")
	require.Error(t, err)
	assert.True(t, store.IsAborted(err))

	_, err = f.repos.Tournaments.Get(ctx, "t-1")
	assert.NoError(t, err)
	events, err := f.repos.Events.ListByTournament(ctx, "t-1")
	require.NoError(t, err)
	assert.Len(t, events, 2)
	links, err := f.repos.Registrations.ListByEvent(ctx, "e-1")
	require.NoError(t, err)
	assert.Len(t, links, 1)
	pools, err := f.repos.Pools.ListByEvent(ctx, "e-2")
	require.NoError(t, err)
	assert.Len(t, pools, 1)
}

func TestTournamentDelete_MissingLeavesNothingBehind(t *testing.T) {
	f := newFixture(t)

	err := f.repos.Tournaments.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, store.IsNotFound(err))
	assert.True(t, store.IsAborted(err))
}
