package ranking

import (
	"math"
	"math/bits"
	"strconv"
	"strings"

	"github.com/roach88/piste/internal/model"
)

// Label is a fencer's placement in the elimination phase.
type Label string

const (
	LabelGold     Label = "Gold"
	LabelSilver   Label = "Silver"
	LabelBronze   Label = "Bronze"
	LabelPoolOnly Label = "pool-only"

	roundPrefix = "Round of "
)

// RoundOf returns the label of the stage with size entrants.
func RoundOf(size int) Label {
	return Label(roundPrefix + strconv.Itoa(size))
}

// RoundSize returns N for a "Round of N" label, or 0.
func (l Label) RoundSize() int {
	s, ok := strings.CutPrefix(string(l), roundPrefix)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// Precedence returns the sort position of l: Gold, Silver, Bronze, then
// round labels from the smallest stage up, then pool-only.
func (l Label) Precedence() int {
	switch l {
	case LabelGold:
		return 0
	case LabelSilver:
		return 1
	case LabelBronze:
		return 2
	case LabelPoolOnly, "":
		return math.MaxInt
	}
	if n := l.RoundSize(); n > 0 {
		return 3 + bits.Len(uint(n))
	}
	return math.MaxInt - 1
}

// ResolveEliminationLabels labels every fencer eliminated in b, plus the
// winner of a decided final. Fencers still in contention, and fencers who
// only advanced on byes so far, get no entry.
func ResolveEliminationLabels(b model.Bracket) map[string]Label {
	labels := make(map[string]Label)
	total := len(b)
	if total == 0 {
		return labels
	}

	assign := func(id string, l Label) {
		if id == "" {
			return
		}
		if _, done := labels[id]; !done {
			labels[id] = l
		}
	}

	if final := b[total-1]; len(final) > 0 && final[0].Decided() {
		assign(final[0].Winner, LabelGold)
		assign(final[0].Loser(), LabelSilver)
	}

	last := total - 1
	if total >= 2 {
		for _, m := range b[total-2] {
			if m.Decided() {
				assign(m.Loser(), LabelBronze)
			}
		}
		last = total - 2
	}

	for r := 0; r < last; r++ {
		l := RoundOf(1 << (total - r))
		for _, m := range b[r] {
			if m.Decided() {
				assign(m.Loser(), l)
			}
		}
	}
	return labels
}
