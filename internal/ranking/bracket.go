package ranking

import "github.com/roach88/piste/internal/model"

// SeedOrder returns the bracket positions of seeds 1..size for a table of
// size entrants, so that seed 1 meets seed size, and the two top seeds can
// only meet in the final. size must be a power of two.
//
//	SeedOrder(8) // [1 8 4 5 2 7 3 6]
func SeedOrder(size int) []int {
	order := []int{1}
	for len(order) < size {
		sum := 2*len(order) + 1
		next := make([]int, 0, 2*len(order))
		for _, s := range order {
			next = append(next, s, sum-s)
		}
		order = next
	}
	return order
}

// tableSize returns the smallest power of two holding n entrants, at
// least 2.
func tableSize(n int) int {
	size := 2
	for size < n {
		size <<= 1
	}
	return size
}

// BuildBracket lays seeded qualifiers out in a single-elimination table.
// Seeds beyond the field are byes: the present fencer is recorded as the
// winner and already placed in the next round. Later rounds start empty.
func BuildBracket(seeded []SeededFencer) model.Bracket {
	n := len(seeded)
	if n == 0 {
		return nil
	}
	bySeed := make(map[int]string, n)
	for i, s := range seeded {
		seed := s.Seed
		if seed <= 0 {
			seed = i + 1
		}
		bySeed[seed] = s.Fencer.ID
	}

	size := tableSize(n)
	rounds := 0
	for m := size; m > 1; m >>= 1 {
		rounds++
	}

	b := make(model.Bracket, rounds)
	for r, matches := 0, size/2; r < rounds; r, matches = r+1, matches/2 {
		b[r] = make(model.Round, matches)
	}

	order := SeedOrder(size)
	for m := range b[0] {
		b[0][m] = model.Match{
			FencerA: bySeed[order[2*m]],
			FencerB: bySeed[order[2*m+1]],
		}
	}

	for m, match := range b[0] {
		var present string
		switch {
		case match.FencerA != "" && match.FencerB == "":
			present = match.FencerA
		case match.FencerB != "" && match.FencerA == "":
			present = match.FencerB
		default:
			continue
		}
		_ = b.RecordWinner(0, m, present)
	}
	return b
}
