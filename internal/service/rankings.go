// Package service runs the ranking pipeline against stored events.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/roach88/piste/internal/model"
	"github.com/roach88/piste/internal/ranking"
	"github.com/roach88/piste/internal/repository"
	"github.com/roach88/piste/internal/rules"
	"github.com/roach88/piste/internal/store"
)

// fallbackRule sizes pools for events whose rule id is not in the rulebook.
var fallbackRule = rules.Rule{ID: "fallback", PoolSize: 7, MinPoolSize: 3}

// Option configures Rankings.
type Option func(*Rankings)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Rankings) {
		if l != nil {
			r.log = l
		}
	}
}

// WithRulebook sets the rulebook event rule ids resolve against.
func WithRulebook(b *rules.Rulebook) Option {
	return func(r *Rankings) {
		if b != nil {
			r.rules = b
		}
	}
}

// WithCutoffRatio sets the qualification share used when an event's rule
// does not define one.
func WithCutoffRatio(ratio float64) Option {
	return func(r *Rankings) {
		if ratio > 0 && ratio <= 1 {
			r.cutoff = ratio
		}
	}
}

// Rankings draws pools, seeds brackets and maintains live rankings.
type Rankings struct {
	repos  *repository.Repositories
	rules  *rules.Rulebook
	cutoff float64
	log    *slog.Logger
}

// NewRankings creates the service over repos.
func NewRankings(repos *repository.Repositories, opts ...Option) *Rankings {
	r := &Rankings{
		repos:  repos,
		rules:  rules.Default(),
		cutoff: ranking.DefaultCutoffRatio,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rule returns the rule an event is played under.
func (r *Rankings) Rule(e model.Event) rules.Rule {
	if rule, ok := r.rules.Lookup(e.RuleID); ok {
		return rule
	}
	return fallbackRule
}

// CutoffRatio returns the qualification share for an event.
func (r *Rankings) CutoffRatio(e model.Event) float64 {
	return r.Rule(e).Cutoff(r.cutoff)
}

// DrawPools splits the registered fencers of an event into the pools of a
// stage, replacing any pools the stage had. Fencers are seeded by their
// registration seed, unseeded ones last in id order.
func (r *Rankings) DrawPools(ctx context.Context, eventID, stageID string) ([]model.Pool, error) {
	e, err := r.repos.Events.Get(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("draw pools: %w", err)
	}
	links, err := r.repos.Registrations.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("draw pools: %w", err)
	}

	sort.SliceStable(links, func(i, j int) bool {
		a, b := links[i], links[j]
		switch {
		case a.Seed == b.Seed:
			return a.FencerID < b.FencerID
		case a.Seed == 0:
			return false
		case b.Seed == 0:
			return true
		}
		return a.Seed < b.Seed
	})
	seeded := make([]string, len(links))
	for i, l := range links {
		seeded[i] = l.FencerID
	}

	pools, err := r.repos.Pools.ReplaceStage(ctx, eventID, stageID, ranking.BuildPools(eventID, stageID, seeded, r.Rule(e)))
	if err != nil {
		return nil, fmt.Errorf("draw pools: %w", err)
	}
	r.log.Info("pools drawn", "event_id", eventID, "stage_id", stageID, "pools", len(pools), "fencers", len(seeded))
	return pools, nil
}

// RecordPool stores a pool's result sheet together with its summary.
func (r *Rankings) RecordPool(ctx context.Context, poolID string, results [][]*model.Score) (model.Pool, error) {
	p, err := r.repos.Pools.Get(ctx, poolID)
	if err != nil {
		return model.Pool{}, fmt.Errorf("record pool: %w", err)
	}
	p.Results = results
	p, err = r.repos.Pools.SaveResults(ctx, poolID, results, ranking.SummarizePool(p))
	if err != nil {
		return model.Pool{}, fmt.Errorf("record pool: %w", err)
	}
	return p, nil
}

// Standings aggregates a stage of an event without writing anything. A
// stage drawn for another event is a validation error.
func (r *Rankings) Standings(ctx context.Context, eventID, stageID string) ([]ranking.FencerStat, error) {
	pools, err := r.repos.Pools.ListByStage(ctx, stageID)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, p := range pools {
		if p.EventID != eventID {
			return nil, store.Validation("standings", store.Pools, "stage %s belongs to event %s, not %s", stageID, p.EventID, eventID)
		}
		ids = append(ids, p.FencerIDs...)
	}
	fencers, err := r.repos.Fencers.Lookup(ctx, ids)
	if err != nil {
		return nil, err
	}
	return ranking.ComputePoolStats(pools, fencers), nil
}

// Qualify seeds the elimination table of an event from a pool stage and
// stores it as the event's bracket.
func (r *Rankings) Qualify(ctx context.Context, eventID, stageID string) ([]ranking.SeededFencer, model.Bracket, error) {
	e, err := r.repos.Events.Get(ctx, eventID)
	if err != nil {
		return nil, nil, fmt.Errorf("qualify: %w", err)
	}
	stats, err := r.Standings(ctx, eventID, stageID)
	if err != nil {
		return nil, nil, fmt.Errorf("qualify: %w", err)
	}

	seeded := ranking.SelectQualifiers(stats, r.CutoffRatio(e))
	b := ranking.BuildBracket(seeded)
	if len(b) == 0 {
		return seeded, nil, nil
	}
	if _, err := r.repos.Events.SaveBracket(ctx, eventID, b); err != nil {
		return nil, nil, fmt.Errorf("qualify: %w", err)
	}
	r.log.Info("bracket seeded", "event_id", eventID, "stage_id", stageID, "qualifiers", len(seeded), "rounds", len(b))
	return seeded, b, nil
}

// Refresh recomputes the standing of an event from a pool stage and its
// bracket, caches it on the event and returns it. When the pool data cannot
// be read the standing is empty and the cache is left alone; asking for a
// stage of another event and failing to write the cache are returned.
func (r *Rankings) Refresh(ctx context.Context, eventID, stageID string) ([]ranking.RankedFencer, error) {
	e, err := r.repos.Events.Get(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("refresh ranking: %w", err)
	}

	stats, err := r.Standings(ctx, eventID, stageID)
	if store.IsValidation(err) {
		return nil, fmt.Errorf("refresh ranking: %w", err)
	}
	if err != nil {
		r.log.Warn("ranking input unavailable",
			"event_id", eventID,
			"stage_id", stageID,
			"error", err)
		return []ranking.RankedFencer{}, nil
	}

	final := ranking.ComposeFinalRanking(stats, e.DETree)
	if _, err := r.repos.Events.SaveLiveRanking(ctx, eventID, ranking.ToLiveRanking(final)); err != nil {
		return nil, fmt.Errorf("refresh ranking: %w", err)
	}
	r.log.Debug("live ranking refreshed", "event_id", eventID, "fencers", len(final))
	return final, nil
}
