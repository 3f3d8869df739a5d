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

func TestFencerSave_NormalizesNames(t *testing.T) {
	f := newFixture(t)

	saved, err := f.repos.Fencers.Save(context.Background(), model.Fencer{
		ID:          "f-1",
		LastName:    "  dupont ",
		FirstName:   "Marie",
		Nationality: "fra",
	})
	require.NoError(t, err)

	assert.Equal(t, "dupont", saved.LastName)
	assert.Equal(t, "DUPONT Marie", saved.DisplayName)
	assert.Equal(t, "FRA", saved.Nationality)
	assert.Equal(t, 1, f.sync.count("fencers"))
}

func TestFencerSave_ResolvesByFencingID(t *testing.T) {
	f := newFixture(t)
	f.repos = New(f.store, WithClock(f.clock), WithSyncer(f.sync), WithIDs(ident.NewFixedGenerator("gen-1")))
	ctx := context.Background()

	original, err := f.repos.Fencers.Save(ctx, model.Fencer{LastName: "Dupont", FirstName: "Marie", FencingID: "FRA-123"})
	require.NoError(t, err)
	assert.Equal(t, "gen-1", original.ID)
	assert.Equal(t, testutil.Epoch, original.CreatedAt)

	updated, err := f.repos.Fencers.Save(ctx, model.Fencer{
		ID:        "client-generated",
		LastName:  "Dupont",
		FirstName: "Marie",
		FencingID: "FRA-123",
		Club:      "CE Paris",
	})
	require.NoError(t, err)

	assert.Equal(t, "gen-1", updated.ID)
	assert.Equal(t, original.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "CE Paris", updated.Club)
	assert.True(t, updated.UpdatedAt.After(original.UpdatedAt))

	all, err := f.repos.Fencers.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	_, err = f.repos.Fencers.Get(ctx, "client-generated")
	assert.True(t, store.IsNotFound(err))
}

func TestFencerSave_UpsertByIDWithoutFencingID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.fencer(t, "f-1", "Martin", "Paul")
	second, err := f.repos.Fencers.Save(ctx, model.Fencer{ID: "f-1", LastName: "Martin", FirstName: "Pierre"})
	require.NoError(t, err)

	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, "MARTIN Pierre", second.DisplayName)
}

func TestFencerSave_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.repos.Fencers.Save(context.Background(), model.Fencer{ID: "f-1"})
	assert.True(t, store.IsValidation(err))
}

func TestFencerFindByFencingID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.repos.Fencers.Save(ctx, model.Fencer{ID: "f-1", LastName: "Dupont", FencingID: "FRA-1"})
	require.NoError(t, err)

	got, err := f.repos.Fencers.FindByFencingID(ctx, "FRA-1")
	require.NoError(t, err)
	assert.Equal(t, "f-1", got.ID)

	_, err = f.repos.Fencers.FindByFencingID(ctx, "FRA-2")
	assert.True(t, store.IsNotFound(err))

	_, err = f.repos.Fencers.FindByFencingID(ctx, "")
	assert.True(t, store.IsValidation(err))
}

func TestFencerList_ByName(t *testing.T) {
	f := newFixture(t)
	f.fencer(t, "f-1", "Martin", "Paul")
	f.fencer(t, "f-2", "Dupont", "Zoe")
	f.fencer(t, "f-3", "Dupont", "Anne")

	list, err := f.repos.Fencers.List(context.Background())
	require.NoError(t, err)

	var ids []string
	for _, fc := range list {
		ids = append(ids, fc.ID)
	}
	assert.Equal(t, []string{"f-3", "f-2", "f-1"}, ids)
}

func TestFencerLookupAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fencer(t, "f-1", "Martin", "Paul")
	f.fencer(t, "f-2", "Dupont", "Anne")

	require.NoError(t, f.repos.Fencers.Delete(ctx, "f-2"))

	found, err := f.repos.Fencers.Lookup(ctx, []string{"f-1", "f-2", "f-1", ""})
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Contains(t, found, "f-1")
}
