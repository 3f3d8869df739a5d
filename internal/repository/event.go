package repository

import (
	"context"

	"github.com/roach88/piste/internal/model"
	"github.com/roach88/piste/internal/store"
)

// EventRepository persists events.
type EventRepository struct {
	*deps
}

func eventRecord(e model.Event) (store.Record, error) {
	data, err := encode(e)
	if err != nil {
		return store.Record{}, err
	}
	return store.Record{
		Key:    store.Key{e.ID},
		Fields: map[string]string{"tournament_id": e.TournamentID},
		Data:   data,
	}, nil
}

// Save upserts e. The owning tournament must exist. FencerCount is derived
// from the registrations and any value supplied by the caller is ignored.
func (r *EventRepository) Save(ctx context.Context, e model.Event) (model.Event, error) {
	e, err := clone(e)
	if err != nil {
		return model.Event{}, err
	}
	if err := e.Validate(); err != nil {
		return model.Event{}, store.Validation("save", store.Events, "%v", err)
	}
	if e.ID == "" {
		e.ID = r.ids.Generate()
	}
	if e.Nature == "" {
		e.Nature = model.NatureIndividual
	}

	scope := []store.Collection{store.Tournaments, store.Events, store.EventFencers}
	err = r.st.RunTransaction(ctx, scope, func(ctx context.Context, tx *store.Tx) error {
		if _, err := tx.Get(ctx, store.Tournaments, store.Key{e.TournamentID}); err != nil {
			return err
		}

		now := r.clock.Now()
		prev, err := load[model.Event](ctx, tx, store.Events, e.ID)
		switch {
		case err == nil:
			e.CreatedAt = prev.CreatedAt
		case store.IsNotFound(err):
			e.CreatedAt = now
		default:
			return err
		}

		count, err := tx.CountByIndex(ctx, store.EventFencers, store.IndexByEvent, e.ID)
		if err != nil {
			return err
		}
		e.FencerCount = count
		e.UpdatedAt = now
		e.Synchronized = false

		rec, err := eventRecord(e)
		if err != nil {
			return err
		}
		return tx.Put(ctx, store.Events, rec)
	})
	if err != nil {
		return model.Event{}, err
	}

	r.flush(ctx, []written{{store.Events, e.ID, e}})
	return e, nil
}

// Get returns the event with id.
func (r *EventRepository) Get(ctx context.Context, id string) (model.Event, error) {
	return load[model.Event](ctx, r.st, store.Events, id)
}

// ListByTournament returns the events of one tournament ordered by id.
func (r *EventRepository) ListByTournament(ctx context.Context, tournamentID string) ([]model.Event, error) {
	return loadByIndex[model.Event](ctx, r.st, store.Events, store.IndexByTournament, tournamentID)
}

// SaveLiveRanking replaces the cached standing of an event.
func (r *EventRepository) SaveLiveRanking(ctx context.Context, id string, ranking []model.LiveRankEntry) (model.Event, error) {
	ranking, err := clone(ranking)
	if err != nil {
		return model.Event{}, err
	}
	return r.update(ctx, "save live ranking", id, func(e *model.Event) error {
		e.LiveRanking = ranking
		return nil
	})
}

// SaveBracket replaces the elimination bracket of an event after checking
// its shape.
func (r *EventRepository) SaveBracket(ctx context.Context, id string, b model.Bracket) (model.Event, error) {
	b, err := clone(b)
	if err != nil {
		return model.Event{}, err
	}
	if err := b.Validate(); err != nil {
		return model.Event{}, store.Validation("save bracket", store.Events, "%v", err)
	}
	return r.update(ctx, "save bracket", id, func(e *model.Event) error {
		e.DETree = b
		return nil
	})
}

// SetStep records the wizard position of an event.
func (r *EventRepository) SetStep(ctx context.Context, id string, step int) (model.Event, error) {
	if step < 0 {
		return model.Event{}, store.Validation("set step", store.Events, "step must not be negative, got %d", step)
	}
	return r.update(ctx, "set step", id, func(e *model.Event) error {
		e.CurrentStep = step
		return nil
	})
}

// update applies fn to the stored event inside one transaction.
func (r *EventRepository) update(ctx context.Context, op, id string, fn func(*model.Event) error) (model.Event, error) {
	var e model.Event
	err := r.st.RunTransaction(ctx, []store.Collection{store.Events}, func(ctx context.Context, tx *store.Tx) error {
		var err error
		if e, err = load[model.Event](ctx, tx, store.Events, id); err != nil {
			return err
		}
		if err := fn(&e); err != nil {
			return err
		}
		e.UpdatedAt = r.clock.Now()
		e.Synchronized = false

		rec, err := eventRecord(e)
		if err != nil {
			return err
		}
		return tx.Put(ctx, store.Events, rec)
	})
	if err != nil {
		return model.Event{}, err
	}

	r.log.Debug("event updated", "op", op, "event_id", id)
	r.flush(ctx, []written{{store.Events, e.ID, e}})
	return e, nil
}

// Delete removes an event with its registrations and pools in one
// transaction.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	scope := []store.Collection{store.Events, store.EventFencers, store.Pools}
	return r.st.RunTransaction(ctx, scope, func(ctx context.Context, tx *store.Tx) error {
		if _, err := tx.Get(ctx, store.Events, store.Key{id}); err != nil {
			return err
		}
		return deleteEventTree(ctx, tx, id)
	})
}

// deleteEventTree removes an event and everything indexed under it.
func deleteEventTree(ctx context.Context, tx *store.Tx, eventID string) error {
	if _, err := tx.DeleteByIndex(ctx, store.EventFencers, store.IndexByEvent, eventID); err != nil {
		return err
	}
	if _, err := tx.DeleteByIndex(ctx, store.Pools, store.IndexByEvent, eventID); err != nil {
		return err
	}
	return tx.Delete(ctx, store.Events, store.Key{eventID})
}
