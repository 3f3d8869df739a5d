package repository

import (
	"context"

	"github.com/roach88/piste/internal/model"
	"github.com/roach88/piste/internal/store"
)

// TournamentRepository persists tournaments.
type TournamentRepository struct {
	*deps
}

func tournamentRecord(t model.Tournament) (store.Record, error) {
	data, err := encode(t)
	if err != nil {
		return store.Record{}, err
	}
	return store.Record{Key: store.Key{t.ID}, Data: data}, nil
}

// Save upserts t and returns the stored copy. A new tournament starts as a
// draft; changing the status of an existing one must follow the lifecycle.
func (r *TournamentRepository) Save(ctx context.Context, t model.Tournament) (model.Tournament, error) {
	t, err := clone(t)
	if err != nil {
		return model.Tournament{}, err
	}
	if err := t.Validate(); err != nil {
		return model.Tournament{}, store.Validation("save", store.Tournaments, "%v", err)
	}
	if t.ID == "" {
		t.ID = r.ids.Generate()
	}

	err = r.st.RunTransaction(ctx, []store.Collection{store.Tournaments}, func(ctx context.Context, tx *store.Tx) error {
		now := r.clock.Now()
		prev, err := load[model.Tournament](ctx, tx, store.Tournaments, t.ID)
		switch {
		case err == nil:
			t.CreatedAt = prev.CreatedAt
			if t.Status == "" {
				t.Status = prev.Status
			}
			if !prev.Status.CanTransition(t.Status) {
				return store.Validation("save", store.Tournaments, "cannot move from %s to %s", prev.Status, t.Status)
			}
		case store.IsNotFound(err):
			t.CreatedAt = now
			if t.Status == "" {
				t.Status = model.StatusDraft
			}
			if t.Status != model.StatusDraft {
				return store.Validation("save", store.Tournaments, "new tournament must start as %s, got %s", model.StatusDraft, t.Status)
			}
		default:
			return err
		}
		t.UpdatedAt = now
		t.Synchronized = false

		rec, err := tournamentRecord(t)
		if err != nil {
			return err
		}
		return tx.Put(ctx, store.Tournaments, rec)
	})
	if err != nil {
		return model.Tournament{}, err
	}

	r.flush(ctx, []written{{store.Tournaments, t.ID, t}})
	return t, nil
}

// Get returns the tournament with id.
func (r *TournamentRepository) Get(ctx context.Context, id string) (model.Tournament, error) {
	return load[model.Tournament](ctx, r.st, store.Tournaments, id)
}

// List returns every tournament ordered by id.
func (r *TournamentRepository) List(ctx context.Context) ([]model.Tournament, error) {
	return loadAll[model.Tournament](ctx, r.st, store.Tournaments)
}

// SetStatus moves a tournament along its lifecycle.
func (r *TournamentRepository) SetStatus(ctx context.Context, id string, status model.TournamentStatus) (model.Tournament, error) {
	if !status.Valid() {
		return model.Tournament{}, store.Validation("set status", store.Tournaments, "unknown status %q", status)
	}

	var t model.Tournament
	err := r.st.RunTransaction(ctx, []store.Collection{store.Tournaments}, func(ctx context.Context, tx *store.Tx) error {
		var err error
		if t, err = load[model.Tournament](ctx, tx, store.Tournaments, id); err != nil {
			return err
		}
		if !t.Status.CanTransition(status) {
			return store.Validation("set status", store.Tournaments, "cannot move from %s to %s", t.Status, status)
		}
		t.Status = status
		t.UpdatedAt = r.clock.Now()
		t.Synchronized = false

		rec, err := tournamentRecord(t)
		if err != nil {
			return err
		}
		return tx.Put(ctx, store.Tournaments, rec)
	})
	if err != nil {
		return model.Tournament{}, err
	}

	r.flush(ctx, []written{{store.Tournaments, t.ID, t}})
	return t, nil
}

// Delete removes a tournament together with its events and their
// registrations and pools. The whole cascade is one transaction: either
// everything is gone or nothing is.
func (r *TournamentRepository) Delete(ctx context.Context, id string) error {
	scope := []store.Collection{store.Tournaments, store.Events, store.EventFencers, store.Pools}
	return r.st.RunTransaction(ctx, scope, func(ctx context.Context, tx *store.Tx) error {
		if _, err := tx.Get(ctx, store.Tournaments, store.Key{id}); err != nil {
			return err
		}

		events, err := loadByIndex[model.Event](ctx, tx, store.Events, store.IndexByTournament, id)
		if err != nil {
			return err
		}
		for _, e := range events {
			if err := deleteEventTree(ctx, tx, e.ID); err != nil {
				return err
			}
		}

		r.log.Debug("tournament deleted", "tournament_id", id, "events", len(events))
		return tx.Delete(ctx, store.Tournaments, store.Key{id})
	})
}
