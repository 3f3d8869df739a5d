package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunTransaction_CommitsAllWrites(t *testing.T) {
	obs := &recordingObserver{}
	s := createTestStore(t, WithObserver(obs))
	ctx := context.Background()

	err := s.RunTransaction(ctx, []Collection{Tournaments, Pools}, func(ctx context.Context, tx *Tx) error {
		if err := tx.Put(ctx, Tournaments, tournamentRecord(t, "t1", "Open")); err != nil {
			return err
		}
		return tx.Put(ctx, Pools, poolRecord(t, "p1", "e1", "s1"))
	})
	require.NoError(t, err)

	assert.Equal(t, 1, countRows(t, s, "tournaments"))
	assert.Equal(t, 1, countRows(t, s, "pools"))
	assert.Equal(t, 1, obs.committed)
	assert.Equal(t, []string{"pools,tournaments"}, obs.scopes)
}

func TestRunTransaction_RollsBackOnError(t *testing.T) {
	obs := &recordingObserver{}
	s := createTestStore(t, WithObserver(obs))
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, Tournaments, tournamentRecord(t, "t0", "Before")))

	boom := errors.New("boom")
	err := s.RunTransaction(ctx, []Collection{Tournaments}, func(ctx context.Context, tx *Tx) error {
		if err := tx.Put(ctx, Tournaments, tournamentRecord(t, "t1", "Open")); err != nil {
			return err
		}
		if err := tx.Delete(ctx, Tournaments, Key{"t0"}); err != nil {
			return err
		}
		return boom
	})
	require.Error(t, err)
	assert.True(t, IsAborted(err))
	assert.ErrorIs(t, err, boom)

	data, err := s.Get(ctx, Tournaments, Key{"t0"})
	require.NoError(t, err, "prior state must be preserved")
	assert.Equal(t, "Before", decodeDoc(t, data).Name)
	_, err = s.Get(ctx, Tournaments, Key{"t1"})
	assert.True(t, IsNotFound(err))
	assert.Equal(t, 1, obs.aborted)
}

func TestRunTransaction_OutOfScopeAborts(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	err := s.RunTransaction(ctx, []Collection{Tournaments}, func(ctx context.Context, tx *Tx) error {
		if err := tx.Put(ctx, Tournaments, tournamentRecord(t, "t1", "Open")); err != nil {
			return err
		}
		return tx.Put(ctx, Pools, poolRecord(t, "p1", "e1", "s1"))
	})
	require.Error(t, err)
	assert.True(t, IsAborted(err))
	assert.True(t, IsValidation(err))
	assert.Equal(t, 0, countRows(t, s, "tournaments"))
}

func TestRunTransaction_NotFoundInsideIsStillVisible(t *testing.T) {
	s := createTestStore(t)

	err := s.RunTransaction(context.Background(), []Collection{Events}, func(ctx context.Context, tx *Tx) error {
		_, err := tx.Get(ctx, Events, Key{"missing"})
		return err
	})
	assert.True(t, IsAborted(err))
	assert.True(t, IsNotFound(err))
}

func TestRunTransaction_RejectsEmptyOrUnknownScope(t *testing.T) {
	s := createTestStore(t)
	noop := func(context.Context, *Tx) error { return nil }

	err := s.RunTransaction(context.Background(), nil, noop)
	assert.True(t, IsValidation(err))

	err = s.RunTransaction(context.Background(), []Collection{"widgets"}, noop)
	assert.True(t, IsValidation(err))
}

func TestRunTransaction_DeleteByIndexWithWrites(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, Pools, poolRecord(t, "old1", "e1", "s1")))
	require.NoError(t, s.Put(ctx, Pools, poolRecord(t, "old2", "e1", "s1")))
	require.NoError(t, s.Put(ctx, Pools, poolRecord(t, "keep", "e1", "s2")))

	// A failing replacement leaves the old pools in place.
	err := s.RunTransaction(ctx, []Collection{Pools}, func(ctx context.Context, tx *Tx) error {
		if _, err := tx.DeleteByIndex(ctx, Pools, IndexByStage, "s1"); err != nil {
			return err
		}
		return tx.Put(ctx, Pools, Record{Key: Key{"new1"}})
	})
	require.Error(t, err)
	assert.Equal(t, 3, countRows(t, s, "pools"))

	err = s.RunTransaction(ctx, []Collection{Pools}, func(ctx context.Context, tx *Tx) error {
		if _, err := tx.DeleteByIndex(ctx, Pools, IndexByStage, "s1"); err != nil {
			return err
		}
		return tx.Put(ctx, Pools, poolRecord(t, "new1", "e1", "s1"))
	})
	require.NoError(t, err)

	docs, err := s.GetAllByIndex(ctx, Pools, IndexByStage, "s1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "new1", decodeDoc(t, docs[0]).ID)
	_, err = s.Get(ctx, Pools, Key{"keep"})
	assert.NoError(t, err)
}
