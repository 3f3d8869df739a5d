package repository

import (
	"context"

	"github.com/roach88/piste/internal/model"
	"github.com/roach88/piste/internal/store"
)

// PoolRepository persists pools. Pools belong to one stage of one event
// and are replaced a whole stage at a time.
type PoolRepository struct {
	*deps
}

func poolRecord(p model.Pool) (store.Record, error) {
	data, err := encode(p)
	if err != nil {
		return store.Record{}, err
	}
	return store.Record{
		Key:    store.Key{p.ID},
		Fields: map[string]string{"event_id": p.EventID, "stage_id": p.StageID},
		Data:   data,
	}, nil
}

// ReplaceStage removes every pool of stageID and writes pools in its place,
// in one transaction. Pools of other stages are untouched. The event must
// exist and the stage must not belong to another event.
func (r *PoolRepository) ReplaceStage(ctx context.Context, eventID, stageID string, pools []model.Pool) ([]model.Pool, error) {
	pools, err := clone(pools)
	if err != nil {
		return nil, err
	}
	for i := range pools {
		p := &pools[i]
		p.EventID = eventID
		p.StageID = stageID
		if p.Number == 0 {
			p.Number = i + 1
		}
		if p.Results == nil {
			p.Results = model.NewResults(len(p.FencerIDs))
		}
		if err := p.Validate(); err != nil {
			return nil, store.Validation("replace stage", store.Pools, "%v", err)
		}
		if p.ID == "" {
			p.ID = r.ids.Generate()
		}
	}

	var removed int64
	scope := []store.Collection{store.Events, store.Pools}
	err = r.st.RunTransaction(ctx, scope, func(ctx context.Context, tx *store.Tx) error {
		if _, err := tx.Get(ctx, store.Events, store.Key{eventID}); err != nil {
			return err
		}

		current, err := loadByIndex[model.Pool](ctx, tx, store.Pools, store.IndexByStage, stageID)
		if err != nil {
			return err
		}
		for _, p := range current {
			if p.EventID != eventID {
				return store.Validation("replace stage", store.Pools, "stage %s belongs to event %s", stageID, p.EventID)
			}
		}

		if removed, err = tx.DeleteByIndex(ctx, store.Pools, store.IndexByStage, stageID); err != nil {
			return err
		}

		now := r.clock.Now()
		for i := range pools {
			pools[i].CreatedAt = now
			pools[i].UpdatedAt = now
			rec, err := poolRecord(pools[i])
			if err != nil {
				return err
			}
			if err := tx.Put(ctx, store.Pools, rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.log.Debug("stage pools replaced",
		"event_id", eventID, "stage_id", stageID, "removed", removed, "written", len(pools))

	ws := make([]written, len(pools))
	for i, p := range pools {
		ws[i] = written{store.Pools, p.ID, p}
	}
	r.flush(ctx, ws)
	return pools, nil
}

// Get returns the pool with id.
func (r *PoolRepository) Get(ctx context.Context, id string) (model.Pool, error) {
	return load[model.Pool](ctx, r.st, store.Pools, id)
}

// ListByStage returns the pools of one stage ordered by id.
func (r *PoolRepository) ListByStage(ctx context.Context, stageID string) ([]model.Pool, error) {
	return loadByIndex[model.Pool](ctx, r.st, store.Pools, store.IndexByStage, stageID)
}

// ListByEvent returns every pool of an event, across stages.
func (r *PoolRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Pool, error) {
	return loadByIndex[model.Pool](ctx, r.st, store.Pools, store.IndexByEvent, eventID)
}

// SaveResults replaces the result sheet and cached stats of an unlocked
// pool.
func (r *PoolRepository) SaveResults(ctx context.Context, id string, results [][]*model.Score, stats []model.PoolStat) (model.Pool, error) {
	results, err := clone(results)
	if err != nil {
		return model.Pool{}, err
	}
	stats, err = clone(stats)
	if err != nil {
		return model.Pool{}, err
	}
	return r.update(ctx, "save results", id, func(p *model.Pool) error {
		if p.Locked {
			return store.Validation("save results", store.Pools, "pool %s is locked", id)
		}
		n := len(p.FencerIDs)
		if len(results) != n {
			return store.Validation("save results", store.Pools, "got %d result rows for %d fencers", len(results), n)
		}
		for i, row := range results {
			if len(row) != n {
				return store.Validation("save results", store.Pools, "row %d has %d cells, want %d", i, len(row), n)
			}
		}
		p.Results = results
		p.Stats = stats
		return nil
	})
}

// Lock freezes a pool's results.
func (r *PoolRepository) Lock(ctx context.Context, id string) (model.Pool, error) {
	return r.update(ctx, "lock", id, func(p *model.Pool) error {
		p.Locked = true
		return nil
	})
}

func (r *PoolRepository) update(ctx context.Context, op, id string, fn func(*model.Pool) error) (model.Pool, error) {
	var p model.Pool
	err := r.st.RunTransaction(ctx, []store.Collection{store.Pools}, func(ctx context.Context, tx *store.Tx) error {
		var err error
		if p, err = load[model.Pool](ctx, tx, store.Pools, id); err != nil {
			return err
		}
		if err := fn(&p); err != nil {
			return err
		}
		p.UpdatedAt = r.clock.Now()

		rec, err := poolRecord(p)
		if err != nil {
			return err
		}
		return tx.Put(ctx, store.Pools, rec)
	})
	if err != nil {
		return model.Pool{}, err
	}

	r.log.Debug("pool updated", "op", op, "pool_id", id)
	r.flush(ctx, []written{{store.Pools, p.ID, p}})
	return p, nil
}
