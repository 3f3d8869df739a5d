package repository

import (
	"context"
	"sort"

	"github.com/roach88/piste/internal/model"
	"github.com/roach88/piste/internal/store"
)

// FencerRepository persists fencers.
type FencerRepository struct {
	*deps
}

func fencerRecord(f model.Fencer) (store.Record, error) {
	data, err := encode(f)
	if err != nil {
		return store.Record{}, err
	}
	return store.Record{
		Key: store.Key{f.ID},
		Fields: map[string]string{
			"last_name":  f.LastName,
			"first_name": f.FirstName,
			"fencing_id": f.FencingID,
		},
		Data: data,
	}, nil
}

// Save upserts f. When f carries a federation id that is already stored,
// the existing record is updated in place: its id and creation time win
// over whatever the caller supplied.
func (r *FencerRepository) Save(ctx context.Context, f model.Fencer) (model.Fencer, error) {
	f, err := clone(f)
	if err != nil {
		return model.Fencer{}, err
	}
	if err := f.Validate(); err != nil {
		return model.Fencer{}, store.Validation("save", store.Fencers, "%v", err)
	}
	f = f.Normalize()

	err = r.st.RunTransaction(ctx, []store.Collection{store.Fencers}, func(ctx context.Context, tx *store.Tx) error {
		now := r.clock.Now()

		prev, found, err := r.resolve(ctx, tx, f)
		if err != nil {
			return err
		}
		if found {
			if prev.ID != f.ID && f.ID != "" {
				r.log.Debug("fencer resolved by federation id",
					"fencing_id", f.FencingID, "given_id", f.ID, "fencer_id", prev.ID)
			}
			f.ID = prev.ID
			f.CreatedAt = prev.CreatedAt
		} else {
			if f.ID == "" {
				f.ID = r.ids.Generate()
			}
			f.CreatedAt = now
		}
		f.UpdatedAt = now
		f.Synchronized = false

		rec, err := fencerRecord(f)
		if err != nil {
			return err
		}
		return tx.Put(ctx, store.Fencers, rec)
	})
	if err != nil {
		return model.Fencer{}, err
	}

	r.flush(ctx, []written{{store.Fencers, f.ID, f}})
	return f, nil
}

// resolve finds the stored record f updates: by federation id first, then
// by id.
func (r *FencerRepository) resolve(ctx context.Context, rd reader, f model.Fencer) (model.Fencer, bool, error) {
	if f.FencingID != "" {
		matches, err := loadByIndex[model.Fencer](ctx, rd, store.Fencers, store.IndexByFencingID, f.FencingID)
		if err != nil {
			return model.Fencer{}, false, err
		}
		if len(matches) > 0 {
			return matches[0], true, nil
		}
	}
	if f.ID == "" {
		return model.Fencer{}, false, nil
	}
	prev, err := load[model.Fencer](ctx, rd, store.Fencers, f.ID)
	switch {
	case err == nil:
		return prev, true, nil
	case store.IsNotFound(err):
		return model.Fencer{}, false, nil
	}
	return model.Fencer{}, false, err
}

// Get returns the fencer with id.
func (r *FencerRepository) Get(ctx context.Context, id string) (model.Fencer, error) {
	return load[model.Fencer](ctx, r.st, store.Fencers, id)
}

// FindByFencingID returns the fencer holding a federation licence.
func (r *FencerRepository) FindByFencingID(ctx context.Context, fencingID string) (model.Fencer, error) {
	if fencingID == "" {
		return model.Fencer{}, store.Validation("find", store.Fencers, "fencing id is required")
	}
	matches, err := loadByIndex[model.Fencer](ctx, r.st, store.Fencers, store.IndexByFencingID, fencingID)
	if err != nil {
		return model.Fencer{}, err
	}
	if len(matches) == 0 {
		return model.Fencer{}, store.NotFound("find", store.Fencers, store.Key{fencingID})
	}
	return matches[0], nil
}

// List returns every fencer ordered by last name, first name, then id.
func (r *FencerRepository) List(ctx context.Context) ([]model.Fencer, error) {
	fencers, err := loadAll[model.Fencer](ctx, r.st, store.Fencers)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(fencers, func(i, j int) bool {
		a, b := fencers[i], fencers[j]
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		return a.ID < b.ID
	})
	return fencers, nil
}

// Lookup returns the fencers with the given ids, keyed by id. Unknown ids
// are left out.
func (r *FencerRepository) Lookup(ctx context.Context, ids []string) (map[string]model.Fencer, error) {
	out := make(map[string]model.Fencer, len(ids))
	for _, id := range ids {
		if _, done := out[id]; done || id == "" {
			continue
		}
		f, err := r.Get(ctx, id)
		if store.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[id] = f
	}
	return out, nil
}

// Delete removes a fencer. Registrations referencing it are left in place
// and ignored by the ranking.
func (r *FencerRepository) Delete(ctx context.Context, id string) error {
	return r.st.RunTransaction(ctx, []store.Collection{store.Fencers}, func(ctx context.Context, tx *store.Tx) error {
		return tx.Delete(ctx, store.Fencers, store.Key{id})
	})
}
