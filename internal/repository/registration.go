package repository

import (
	"context"
	"time"

	"github.com/roach88/piste/internal/model"
	"github.com/roach88/piste/internal/store"
)

// EventFencerRepository persists registrations and keeps each event's
// fencer count in step with them.
type EventFencerRepository struct {
	*deps
}

func linkRecord(l model.EventFencerLink) (store.Record, error) {
	data, err := encode(l)
	if err != nil {
		return store.Record{}, err
	}
	return store.Record{Key: store.Key{l.EventID, l.FencerID}, Data: data}, nil
}

// Register links fencers into an event. Registering an existing pair is a
// no-op that keeps the original registration time. The event's
// FencerCount is recounted in the same transaction.
func (r *EventFencerRepository) Register(ctx context.Context, eventID string, fencerIDs ...string) (model.Event, error) {
	if len(fencerIDs) == 0 {
		return model.Event{}, store.Validation("register", store.EventFencers, "no fencers to register")
	}

	var (
		event model.Event
		added []model.EventFencerLink
	)
	scope := []store.Collection{store.Events, store.Fencers, store.EventFencers}
	err := r.st.RunTransaction(ctx, scope, func(ctx context.Context, tx *store.Tx) error {
		var err error
		if event, err = load[model.Event](ctx, tx, store.Events, eventID); err != nil {
			return err
		}

		now := r.clock.Now()
		for _, fid := range fencerIDs {
			if _, err := tx.Get(ctx, store.Fencers, store.Key{fid}); err != nil {
				return err
			}
			linked, err := exists(ctx, tx, store.EventFencers, eventID, fid)
			if err != nil {
				return err
			}
			if linked {
				continue
			}
			link := model.EventFencerLink{EventID: eventID, FencerID: fid, RegisteredAt: now}
			rec, err := linkRecord(link)
			if err != nil {
				return err
			}
			if err := tx.Put(ctx, store.EventFencers, rec); err != nil {
				return err
			}
			added = append(added, link)
		}

		return recount(ctx, tx, &event, now)
	})
	if err != nil {
		return model.Event{}, err
	}

	ws := make([]written, 0, len(added)+1)
	for _, l := range added {
		ws = append(ws, written{store.EventFencers, l.EventID + "/" + l.FencerID, l})
	}
	ws = append(ws, written{store.Events, event.ID, event})
	r.flush(ctx, ws)
	return event, nil
}

// Unregister removes one registration and recounts the event.
func (r *EventFencerRepository) Unregister(ctx context.Context, eventID, fencerID string) (model.Event, error) {
	var event model.Event
	scope := []store.Collection{store.Events, store.EventFencers}
	err := r.st.RunTransaction(ctx, scope, func(ctx context.Context, tx *store.Tx) error {
		var err error
		if event, err = load[model.Event](ctx, tx, store.Events, eventID); err != nil {
			return err
		}
		if err := tx.Delete(ctx, store.EventFencers, store.Key{eventID, fencerID}); err != nil {
			return err
		}
		return recount(ctx, tx, &event, r.clock.Now())
	})
	if err != nil {
		return model.Event{}, err
	}

	r.flush(ctx, []written{{store.Events, event.ID, event}})
	return event, nil
}

// ListByEvent returns the registrations of one event ordered by fencer id.
func (r *EventFencerRepository) ListByEvent(ctx context.Context, eventID string) ([]model.EventFencerLink, error) {
	return loadByIndex[model.EventFencerLink](ctx, r.st, store.EventFencers, store.IndexByEvent, eventID)
}

// recount sets FencerCount from the registrations visible in tx and writes
// the event back.
func recount(ctx context.Context, tx *store.Tx, e *model.Event, now time.Time) error {
	n, err := tx.CountByIndex(ctx, store.EventFencers, store.IndexByEvent, e.ID)
	if err != nil {
		return err
	}
	e.FencerCount = n
	e.UpdatedAt = now
	e.Synchronized = false

	rec, err := eventRecord(*e)
	if err != nil {
		return err
	}
	return tx.Put(ctx, store.Events, rec)
}
