package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/piste/internal/ident"
	"github.com/roach88/piste/internal/model"
	"github.com/roach88/piste/internal/ranking"
	"github.com/roach88/piste/internal/repository"
	"github.com/roach88/piste/internal/service"
	"github.com/roach88/piste/internal/store"
	"github.com/roach88/piste/internal/testutil"
)

// Fixed ids of the records a scenario runs under.
const (
	TournamentID = "scenario-tournament"
	EventID      = "scenario-event"
	StageID      = "pools"
)

// Result is the outcome of one scenario run.
type Result struct {
	// Pass is true when every expectation held.
	Pass bool `json:"pass"`

	// Errors lists the failed expectations.
	Errors []string `json:"errors,omitempty"`

	Qualifiers []ranking.SeededFencer `json:"qualifiers"`
	Bracket    model.Bracket          `json:"bracket,omitempty"`
	Standings  []ranking.RankedFencer `json:"standings"`
}

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Run plays a scenario on a fresh in-memory store with a deterministic
// clock, then evaluates its expectations. Errors are returned only when the
// scenario cannot be played; unmet expectations are reported in Result.
func Run(ctx context.Context, sc *Scenario) (*Result, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in scenarios

	st, err := store.OpenContext(ctx, ":memory:", store.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	repos := repository.New(st,
		repository.WithClock(testutil.NewClock()),
		repository.WithIDs(ident.UUIDv7Generator{}),
		repository.WithLogger(logger),
	)
	opts := []service.Option{service.WithLogger(logger)}
	if sc.CutoffRatio > 0 {
		opts = append(opts, service.WithCutoffRatio(sc.CutoffRatio))
	}
	svc := service.NewRankings(repos, opts...)

	if err := seed(ctx, repos, sc); err != nil {
		return nil, err
	}

	for _, ps := range sc.Pools {
		sheet := model.Pool{FencerIDs: ps.Fencers}
		for _, b := range ps.Bouts {
			i, j := slices.Index(ps.Fencers, b.Left), slices.Index(ps.Fencers, b.Right)
			if err := sheet.SetBout(i, j, b.Score[0], b.Score[1]); err != nil {
				return nil, fmt.Errorf("pool %s: %w", ps.ID, err)
			}
		}
		if sheet.Results == nil {
			sheet.Results = model.NewResults(len(ps.Fencers))
		}
		if _, err := svc.RecordPool(ctx, ps.ID, sheet.Results); err != nil {
			return nil, err
		}
	}

	result := &Result{Pass: true}
	result.Qualifiers, result.Bracket, err = svc.Qualify(ctx, EventID, StageID)
	if err != nil {
		return nil, err
	}

	if len(sc.Bracket) > 0 {
		for i, w := range sc.Bracket {
			if err := result.Bracket.RecordWinner(w.Round, w.Match, w.Winner); err != nil {
				return nil, fmt.Errorf("bracket[%d]: %w", i, err)
			}
		}
		if _, err := repos.Events.SaveBracket(ctx, EventID, result.Bracket); err != nil {
			return nil, err
		}
	}

	if result.Standings, err = svc.Refresh(ctx, EventID, StageID); err != nil {
		return nil, err
	}

	evaluate(result, sc.Expect)
	return result, nil
}

// seed writes the tournament, event, fencers, registrations and empty
// pools of a scenario.
func seed(ctx context.Context, repos *repository.Repositories, sc *Scenario) error {
	rule := sc.Rule
	if rule == "" {
		rule = "standard"
	}
	if _, err := repos.Tournaments.Save(ctx, model.Tournament{ID: TournamentID, Name: sc.Name}); err != nil {
		return err
	}
	if _, err := repos.Events.Save(ctx, model.Event{ID: EventID, TournamentID: TournamentID, Name: sc.Name, RuleID: rule}); err != nil {
		return err
	}

	ids := make([]string, len(sc.Fencers))
	for i, f := range sc.Fencers {
		if _, err := repos.Fencers.Save(ctx, model.Fencer{
			ID:        f.ID,
			LastName:  f.LastName,
			FirstName: f.FirstName,
			FencingID: f.FencingID,
		}); err != nil {
			return err
		}
		ids[i] = f.ID
	}
	if _, err := repos.Registrations.Register(ctx, EventID, ids...); err != nil {
		return err
	}

	pools := make([]model.Pool, len(sc.Pools))
	for i, ps := range sc.Pools {
		pools[i] = model.Pool{ID: ps.ID, FencerIDs: ps.Fencers}
	}
	_, err := repos.Pools.ReplaceStage(ctx, EventID, StageID, pools)
	return err
}

func evaluate(r *Result, want Expectation) {
	if want.Qualifiers != nil {
		got := make([]string, len(r.Qualifiers))
		for i, q := range r.Qualifiers {
			got[i] = q.Fencer.ID
		}
		if !slices.Equal(got, want.Qualifiers) {
			r.addError("qualifiers: got %v, want %v", got, want.Qualifiers)
		}
	}

	got := make([]string, len(r.Standings))
	labels := make(map[string]string, len(r.Standings))
	for i, s := range r.Standings {
		got[i] = s.Fencer.ID
		labels[s.Fencer.ID] = string(s.Label)
	}
	if want.Order != nil && !slices.Equal(got, want.Order) {
		r.addError("order: got %v, want %v", got, want.Order)
	}
	for _, id := range sortedKeys(want.Labels) {
		if labels[id] != want.Labels[id] {
			r.addError("label of %s: got %q, want %q", id, labels[id], want.Labels[id])
		}
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
