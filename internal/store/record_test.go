package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGet_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, Tournaments, tournamentRecord(t, "t1", "Open")))

	data, err := s.Get(ctx, Tournaments, Key{"t1"})
	require.NoError(t, err)
	assert.Equal(t, doc{ID: "t1", Name: "Open"}, decodeDoc(t, data))
}

func TestPut_Upserts(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, Pools, poolRecord(t, "p1", "e1", "s1")))
	require.NoError(t, s.Put(ctx, Pools, poolRecord(t, "p1", "e1", "s2")))

	assert.Equal(t, 1, countRows(t, s, "pools"))
	docs, err := s.GetAllByIndex(ctx, Pools, IndexByStage, "s2")
	require.NoError(t, err)
	require.Len(t, docs, 1, "index column must follow the upsert")
	docs, err = s.GetAllByIndex(ctx, Pools, IndexByStage, "s1")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestGet_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Get(context.Background(), Tournaments, Key{"missing"})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, CodeNotFound, serr.Code)
	assert.Equal(t, Tournaments, serr.Collection)
}

func TestOps_RejectBadRequests(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "nope", Key{"x"})
	assert.True(t, IsValidation(err))

	_, err = s.Get(ctx, EventFencers, Key{"e1"})
	assert.True(t, IsValidation(err), "composite key needs both parts")

	err = s.Put(ctx, Tournaments, Record{Key: Key{""}, Data: []byte("{}")})
	assert.True(t, IsValidation(err))

	err = s.Put(ctx, Tournaments, Record{Key: Key{"t1"}})
	assert.True(t, IsValidation(err))

	_, err = s.GetAllByIndex(ctx, Pools, "by_colour", "red")
	assert.True(t, IsValidation(err))

	_, err = s.GetAllByIndex(ctx, Fencers, IndexByName, "a", "b", "c")
	assert.True(t, IsValidation(err))
}

func TestGetAll_EmptyIsNotNil(t *testing.T) {
	s := createTestStore(t)

	docs, err := s.GetAll(context.Background(), Tournaments)
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestGetAll_OrderedByKey(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, s.Put(ctx, Tournaments, tournamentRecord(t, id, id)))
	}

	docs, err := s.GetAll(ctx, Tournaments)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "a", decodeDoc(t, docs[0]).ID)
	assert.Equal(t, "b", decodeDoc(t, docs[1]).ID)
	assert.Equal(t, "c", decodeDoc(t, docs[2]).ID)
}

func TestGetAllByIndex_CompositePrefix(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	put := func(id, last, first string) {
		rec := tournamentRecord(t, id, last+" "+first)
		rec.Fields = map[string]string{"last_name": last, "first_name": first}
		require.NoError(t, s.Put(ctx, Fencers, rec))
	}
	put("f1", "Dupont", "Marie")
	put("f2", "Dupont", "Anne")
	put("f3", "Martin", "Paul")

	docs, err := s.GetAllByIndex(ctx, Fencers, IndexByName, "Dupont")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "f2", decodeDoc(t, docs[0]).ID, "ordered by first name within surname")

	docs, err = s.GetAllByIndex(ctx, Fencers, IndexByName, "Dupont", "Marie")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "f1", decodeDoc(t, docs[0]).ID)
}

func TestDelete_MissingIsNoop(t *testing.T) {
	s := createTestStore(t)
	assert.NoError(t, s.Delete(context.Background(), Tournaments, Key{"ghost"}))
}

func TestDeleteByIndex_OnlyMatchingRecords(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, Pools, poolRecord(t, "p1", "e1", "s1")))
	require.NoError(t, s.Put(ctx, Pools, poolRecord(t, "p2", "e1", "s1")))
	require.NoError(t, s.Put(ctx, Pools, poolRecord(t, "p3", "e1", "s2")))

	n, err := s.DeleteByIndex(ctx, Pools, IndexByStage, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	count, err := s.CountByIndex(ctx, Pools, IndexByEvent, "e1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
