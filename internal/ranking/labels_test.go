package ranking

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/piste/internal/model"
)

func seeds(n int) []SeededFencer {
	out := make([]SeededFencer, n)
	for i := range out {
		out[i] = SeededFencer{FencerStat: FencerStat{Fencer: model.Fencer{ID: fmt.Sprintf("s%d", i+1)}}, Seed: i + 1}
	}
	return out
}

// eightTable plays a full table of eight: s1, s5, s2, s6 win the first
// round, s1 and s6 the semifinals, s6 the final.
func eightTable(t *testing.T) model.Bracket {
	t.Helper()
	b := BuildBracket(seeds(8))
	require.NoError(t, b.RecordWinner(0, 0, "s1"))
	require.NoError(t, b.RecordWinner(0, 1, "s5"))
	require.NoError(t, b.RecordWinner(0, 2, "s2"))
	require.NoError(t, b.RecordWinner(0, 3, "s6"))
	require.NoError(t, b.RecordWinner(1, 0, "s1"))
	require.NoError(t, b.RecordWinner(1, 1, "s6"))
	require.NoError(t, b.RecordWinner(2, 0, "s6"))
	return b
}

func TestResolveEliminationLabels_ThreeRounds(t *testing.T) {
	labels := ResolveEliminationLabels(eightTable(t))

	assert.Equal(t, map[string]Label{
		"s6": LabelGold,
		"s1": LabelSilver,
		"s5": LabelBronze,
		"s2": LabelBronze,
		"s8": RoundOf(8),
		"s4": RoundOf(8),
		"s7": RoundOf(8),
		"s3": RoundOf(8),
	}, labels)
}

func TestResolveEliminationLabels_FourRounds(t *testing.T) {
	b := BuildBracket(seeds(16))
	for m, match := range b[0] {
		require.NoError(t, b.RecordWinner(0, m, match.FencerA))
	}
	for m, match := range b[1] {
		require.NoError(t, b.RecordWinner(1, m, match.FencerA))
	}

	labels := ResolveEliminationLabels(b)
	assert.Len(t, labels, 12)
	assert.Equal(t, RoundOf(16), labels["s16"])
	assert.Equal(t, RoundOf(8), labels["s8"])
	_, active := labels["s1"]
	assert.False(t, active, "fencers still in the table have no label")
}

func TestResolveEliminationLabels_Partial(t *testing.T) {
	b := eightTable(t)
	b[2][0].Winner = ""

	labels := ResolveEliminationLabels(b)
	assert.NotContains(t, labels, "s1")
	assert.NotContains(t, labels, "s6")
	assert.Equal(t, LabelBronze, labels["s5"])
	assert.Len(t, labels, 6)
}

func TestResolveEliminationLabels_ByesAndEmpty(t *testing.T) {
	assert.Empty(t, ResolveEliminationLabels(nil))
	assert.Empty(t, ResolveEliminationLabels(BuildBracket(seeds(5))), "byes eliminate nobody")

	solo := BuildBracket(seeds(1))
	assert.Equal(t, map[string]Label{"s1": LabelGold}, ResolveEliminationLabels(solo))
}

func TestLabelPrecedence(t *testing.T) {
	ordered := []Label{LabelGold, LabelSilver, LabelBronze, RoundOf(4), RoundOf(8), RoundOf(16), RoundOf(32), RoundOf(64), "Repechage", LabelPoolOnly}
	for i := 1; i < len(ordered); i++ {
		assert.Less(t, ordered[i-1].Precedence(), ordered[i].Precedence(), "%s before %s", ordered[i-1], ordered[i])
	}
	assert.Equal(t, LabelPoolOnly.Precedence(), Label("").Precedence())
}

func TestLabelRoundSize(t *testing.T) {
	assert.Equal(t, 32, RoundOf(32).RoundSize())
	assert.Equal(t, 0, LabelGold.RoundSize())
	assert.Equal(t, 0, Label("Round of x").RoundSize())
}
