package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/piste/internal/model"
)

func fencerMap(ids ...string) map[string]model.Fencer {
	m := make(map[string]model.Fencer, len(ids))
	for _, id := range ids {
		m[id] = model.Fencer{ID: id, LastName: id}
	}
	return m
}

// fourPool is a complete pool of four: a beats everyone, b beats c and d,
// c beats d.
func fourPool(t *testing.T) model.Pool {
	t.Helper()
	p := model.Pool{ID: "p-1", FencerIDs: []string{"a", "b", "c", "d"}}
	require.NoError(t, p.SetBout(0, 1, 10, 7))
	require.NoError(t, p.SetBout(0, 2, 10, 5))
	require.NoError(t, p.SetBout(0, 3, 10, 3))
	require.NoError(t, p.SetBout(1, 2, 10, 8))
	require.NoError(t, p.SetBout(1, 3, 8, 2))
	require.NoError(t, p.SetBout(2, 3, 7, 5))
	return p
}

func TestComputePoolStats_FourFencerPool(t *testing.T) {
	stats := ComputePoolStats([]model.Pool{fourPool(t)}, fencerMap("a", "b", "c", "d"))
	require.Len(t, stats, 4)

	wantV := []int{3, 2, 1, 0}
	wantTS := []int{30, 25, 20, 10}
	wantTR := []int{15, 20, 25, 25}
	wantInd := []int{15, 5, -5, -15}
	wantRatio := []float64{1, 2.0 / 3.0, 1.0 / 3.0, 0}

	for i, s := range stats {
		assert.Equal(t, wantV[i], s.V, "V[%d]", i)
		assert.Equal(t, 3, s.Matches)
		assert.Equal(t, wantTS[i], s.TS, "TS[%d]", i)
		assert.Equal(t, wantTR[i], s.TR, "TR[%d]", i)
		assert.Equal(t, wantInd[i], s.Ind, "Ind[%d]", i)
		assert.InDelta(t, wantRatio[i], s.WinRatio, 1e-12, "ratio[%d]", i)
		assert.Equal(t, "p-1", s.PoolID)
	}

	assert.True(t, stats[0].Beat(stats[1]))
	assert.False(t, stats[1].Beat(stats[0]))
}

func TestComputePoolStats_SingleFencerPool(t *testing.T) {
	p := model.Pool{ID: "solo", FencerIDs: []string{"a"}, Results: model.NewResults(1)}

	stats := ComputePoolStats([]model.Pool{p}, fencerMap("a"))
	require.Len(t, stats, 1)
	assert.Equal(t, 0, stats[0].Matches)
	assert.Equal(t, 0.0, stats[0].WinRatio)
}

func TestComputePoolStats_SkipsUnknownFencers(t *testing.T) {
	stats := ComputePoolStats([]model.Pool{fourPool(t)}, fencerMap("a", "c"))

	require.Len(t, stats, 2)
	assert.Equal(t, "a", stats[0].FencerID())
	assert.Equal(t, "c", stats[1].FencerID())
	assert.Equal(t, 20, stats[1].TS, "stale links still count as opponents")
}

func TestComputePoolStats_DegradesOnMalformedInput(t *testing.T) {
	assert.Empty(t, ComputePoolStats(nil, nil))

	ragged := model.Pool{ID: "bad", FencerIDs: []string{"a", "b"}, Results: [][]*model.Score{{nil, nil}}}
	stats := ComputePoolStats([]model.Pool{ragged}, fencerMap("a", "b"))
	assert.NotNil(t, stats)
	assert.Empty(t, stats)

	stats = ComputePoolStats([]model.Pool{ragged, fourPool(t)}, fencerMap("a", "b", "c", "d"))
	assert.Len(t, stats, 4, "well-formed pools still count")
}

func TestComputePoolStats_UnfencedBouts(t *testing.T) {
	p := model.Pool{ID: "p", FencerIDs: []string{"a", "b", "c"}}
	require.NoError(t, p.SetBout(0, 1, 5, 2))

	stats := ComputePoolStats([]model.Pool{p}, fencerMap("a", "b", "c"))
	require.Len(t, stats, 3)
	assert.Equal(t, 1, stats[0].V)
	assert.InDelta(t, 0.5, stats[0].WinRatio, 1e-12)
	assert.Equal(t, 0, stats[2].TS)
	assert.Equal(t, 0, stats[2].TR)
}

func TestSummarizePool(t *testing.T) {
	p := fourPool(t)
	p.FencerIDs = []string{"a", "b", "c", "d"}

	sum := SummarizePool(p)
	require.Len(t, sum, 4)
	assert.Equal(t, model.PoolStat{FencerID: "a", Victories: 3, Scored: 30, Received: 15, Indicator: 15, Place: 1}, sum[0])
	assert.Equal(t, 4, sum[3].Place)

	assert.Empty(t, SummarizePool(model.Pool{FencerIDs: []string{"a"}}))
}
