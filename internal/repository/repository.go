// Package repository maps the piste records onto store collections.
//
// Every repository owns the values it persists: input is deep-copied before
// it is validated or written, so later mutation by the caller never reaches
// the store. Writes stamp UpdatedAt, keep the original CreatedAt and ID on
// upsert, and clear the Synchronized flag. Committed writes are then handed
// to the configured syncer, whose failures never reach the caller.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mitchellh/copystructure"

	"github.com/roach88/piste/internal/ident"
	"github.com/roach88/piste/internal/store"
	"github.com/roach88/piste/internal/syncer"
)

// Clock supplies write timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Option configures the repositories.
type Option func(*deps)

// WithClock sets the timestamp source.
func WithClock(c Clock) Option {
	return func(d *deps) {
		if c != nil {
			d.clock = c
		}
	}
}

// WithIDs sets the id generator used for new records.
func WithIDs(g ident.Generator) Option {
	return func(d *deps) {
		if g != nil {
			d.ids = g
		}
	}
}

// WithSyncer sets the collaborator notified after each committed write.
func WithSyncer(s syncer.Syncer) Option {
	return func(d *deps) {
		if s != nil {
			d.sync = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *deps) {
		if l != nil {
			d.log = l
		}
	}
}

// deps is shared by every repository of one Repositories value.
type deps struct {
	st    *store.Store
	clock Clock
	ids   ident.Generator
	sync  syncer.Syncer
	log   *slog.Logger
}

// Repositories bundles one repository per collection over a single store.
type Repositories struct {
	Tournaments   *TournamentRepository
	Events        *EventRepository
	Fencers       *FencerRepository
	Registrations *EventFencerRepository
	Pools         *PoolRepository
}

// New builds the repositories over st.
func New(st *store.Store, opts ...Option) *Repositories {
	d := &deps{
		st:    st,
		clock: systemClock{},
		ids:   ident.UUIDv7Generator{},
		sync:  syncer.Nop{},
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return &Repositories{
		Tournaments:   &TournamentRepository{d},
		Events:        &EventRepository{d},
		Fencers:       &FencerRepository{d},
		Registrations: &EventFencerRepository{d},
		Pools:         &PoolRepository{d},
	}
}

// reader is satisfied by both *store.Store and *store.Tx.
type reader interface {
	Get(ctx context.Context, c store.Collection, key store.Key) ([]byte, error)
	GetAll(ctx context.Context, c store.Collection) ([][]byte, error)
	GetAllByIndex(ctx context.Context, c store.Collection, index string, values ...string) ([][]byte, error)
}

// written is one committed record waiting to be synced.
type written struct {
	collection store.Collection
	id         string
	doc        any
}

// flush hands committed records to the syncer, in write order.
func (d *deps) flush(ctx context.Context, ws []written) {
	for _, w := range ws {
		d.sync.TrySync(ctx, string(w.collection), w.id, w.doc)
	}
}

// clone deep-copies v so the caller and the store never share structure.
func clone[T any](v T) (T, error) {
	c, err := copystructure.Copy(v)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("clone %T: %w", v, err)
	}
	return c.(T), nil
}

func encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return data, nil
}

func decode[T any](c store.Collection, data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode %s record: %w", c, err)
	}
	return v, nil
}

// load fetches and decodes one record.
func load[T any](ctx context.Context, r reader, c store.Collection, key ...string) (T, error) {
	data, err := r.Get(ctx, c, store.Key(key))
	if err != nil {
		var zero T
		return zero, err
	}
	return decode[T](c, data)
}

// exists reports whether a record is present, propagating any other error.
func exists(ctx context.Context, r reader, c store.Collection, key ...string) (bool, error) {
	_, err := r.Get(ctx, c, store.Key(key))
	switch {
	case err == nil:
		return true, nil
	case store.IsNotFound(err):
		return false, nil
	}
	return false, err
}

func decodeAll[T any](c store.Collection, docs [][]byte) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, data := range docs {
		v, err := decode[T](c, data)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func loadAll[T any](ctx context.Context, r reader, c store.Collection) ([]T, error) {
	docs, err := r.GetAll(ctx, c)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](c, docs)
}

func loadByIndex[T any](ctx context.Context, r reader, c store.Collection, index string, values ...string) ([]T, error) {
	docs, err := r.GetAllByIndex(ctx, c, index, values...)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](c, docs)
}
