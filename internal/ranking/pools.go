package ranking

import (
	"github.com/roach88/piste/internal/model"
	"github.com/roach88/piste/internal/rules"
)

// PoolCount returns how many pools n fencers are split into: enough pools
// of at most poolSize, merged while the smallest pool would fall under
// minPoolSize.
func PoolCount(n, poolSize, minPoolSize int) int {
	if n <= 0 {
		return 0
	}
	if poolSize <= 0 {
		return 1
	}
	count := (n + poolSize - 1) / poolSize
	for count > 1 && n/count < minPoolSize {
		count--
	}
	return count
}

// SnakeSeed deals seeded fencers into poolCount pools in serpentine order:
// the first row left to right, the next right to left, and so on, so every
// pool gets a comparable spread of seeds.
func SnakeSeed(fencerIDs []string, poolCount int) [][]string {
	if poolCount <= 0 || len(fencerIDs) == 0 {
		return nil
	}
	if poolCount > len(fencerIDs) {
		poolCount = len(fencerIDs)
	}
	pools := make([][]string, poolCount)
	for i, id := range fencerIDs {
		row, col := i/poolCount, i%poolCount
		if row%2 == 1 {
			col = poolCount - 1 - col
		}
		pools[col] = append(pools[col], id)
	}
	return pools
}

// BuildPools splits seeded fencer ids into the pools of one stage using
// rule's sizing. Pools come back numbered from 1 with empty result sheets
// and no id; the repository assigns ids on write.
func BuildPools(eventID, stageID string, seeded []string, rule rules.Rule) []model.Pool {
	groups := SnakeSeed(seeded, PoolCount(len(seeded), rule.PoolSize, rule.MinPoolSize))
	pools := make([]model.Pool, len(groups))
	for i, ids := range groups {
		pools[i] = model.Pool{
			EventID:   eventID,
			StageID:   stageID,
			Number:    i + 1,
			FencerIDs: ids,
			Results:   model.NewResults(len(ids)),
		}
	}
	return pools
}
