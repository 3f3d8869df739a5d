// Package syncer hands committed records to a remote backend on a
// best-effort basis. Nothing here participates in store transactions and
// no failure is ever returned to the writer.
package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Outcomes reported to Observer.SyncAttempt.
const (
	OutcomePublished = "published"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

// Syncer is called after a write commits. Implementations must not block
// on the network and must not return errors.
type Syncer interface {
	TrySync(ctx context.Context, collection, id string, doc any)
}

// Observer receives one call per sync attempt.
type Observer interface {
	SyncAttempt(collection, outcome string)
}

type nopObserver struct{}

func (nopObserver) SyncAttempt(string, string) {}

// Nop discards every record. It is the default when no remote is
// configured.
type Nop struct{}

func (Nop) TrySync(context.Context, string, string, any) {}

// Publisher is the subset of *nats.Conn the NATS syncer uses.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Envelope is the message body published for every record.
type Envelope struct {
	Collection string          `json:"collection"`
	ID         string          `json:"id"`
	SentAt     time.Time       `json:"sent_at"`
	Doc        json.RawMessage `json:"doc"`
}

// Option configures a NATS syncer.
type Option func(*NATS)

// WithLogger sets the logger used for failed attempts.
func WithLogger(l *slog.Logger) Option {
	return func(s *NATS) {
		if l != nil {
			s.log = l
		}
	}
}

// WithObserver sets the attempt observer.
func WithObserver(o Observer) Option {
	return func(s *NATS) {
		if o != nil {
			s.obs = o
		}
	}
}

// WithClock overrides the envelope timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *NATS) {
		if now != nil {
			s.now = now
		}
	}
}

// NATS publishes each record on "<prefix>.<collection>". Publish on a NATS
// connection only buffers the message, so TrySync never waits on the
// network.
type NATS struct {
	pub    Publisher
	conn   *nats.Conn
	prefix string
	log    *slog.Logger
	obs    Observer
	now    func() time.Time
}

// New wraps an existing publisher.
func New(pub Publisher, prefix string, opts ...Option) *NATS {
	s := &NATS{
		pub:    pub,
		prefix: prefix,
		log:    slog.Default(),
		obs:    nopObserver{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect dials url. The connection keeps retrying in the background, so a
// backend that is down at startup does not fail the caller.
func Connect(url, prefix string, opts ...Option) (*NATS, error) {
	conn, err := nats.Connect(url,
		nats.Name("piste"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	s := New(conn, prefix, opts...)
	s.conn = conn
	return s, nil
}

// Subject returns the subject records of collection are published on.
func (s *NATS) Subject(collection string) string {
	return s.prefix + "." + collection
}

// TrySync publishes doc. Failures are logged and counted, never returned.
func (s *NATS) TrySync(ctx context.Context, collection, id string, doc any) {
	if ctx.Err() != nil {
		s.obs.SyncAttempt(collection, OutcomeSkipped)
		return
	}

	body, err := json.Marshal(doc)
	if err != nil {
		s.fail(collection, id, fmt.Errorf("encode doc: %w", err))
		return
	}
	data, err := json.Marshal(Envelope{
		Collection: collection,
		ID:         id,
		SentAt:     s.now().UTC(),
		Doc:        body,
	})
	if err != nil {
		s.fail(collection, id, fmt.Errorf("encode envelope: %w", err))
		return
	}

	if err := s.pub.Publish(s.Subject(collection), data); err != nil {
		s.fail(collection, id, err)
		return
	}
	s.obs.SyncAttempt(collection, OutcomePublished)
}

func (s *NATS) fail(collection, id string, err error) {
	s.log.Warn("sync attempt failed",
		"collection", collection,
		"id", id,
		"error", err)
	s.obs.SyncAttempt(collection, OutcomeFailed)
}

// Close drains the connection opened by Connect.
func (s *NATS) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Drain()
}
