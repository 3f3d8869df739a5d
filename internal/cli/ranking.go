package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/piste/internal/model"
	"github.com/roach88/piste/internal/ranking"
)

// Standing is the payload of the ranking command.
type Standing []ranking.RankedFencer

func (s Standing) renderText(w io.Writer) error {
	if len(s) == 0 {
		_, err := fmt.Fprintln(w, "No ranking yet.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tFENCER\tPLACE\tV/M\tTS\tTR\tIND\tPOOL")
	for _, r := range s {
		rank := strconv.Itoa(r.Rank)
		if r.Eliminated {
			rank += "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%d\t%d\t%+d\t%d\n",
			rank, displayName(r.Fencer), r.Label, r.V, r.Matches, r.TS, r.TR, r.Ind, r.PoolRank)
	}
	return tw.Flush()
}

// Seeding is the payload of the qualify command.
type Seeding struct {
	Qualifiers []ranking.SeededFencer `json:"qualifiers"`
	Bracket    model.Bracket          `json:"bracket"`
}

func (s Seeding) renderText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEED\tFENCER\tV/M\tIND\tTS")
	for _, q := range s.Qualifiers {
		fmt.Fprintf(tw, "%d\t%s\t%d/%d\t%+d\t%d\n", q.Seed, displayName(q.Fencer), q.V, q.Matches, q.Ind, q.TS)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(s.Bracket) > 0 {
		fmt.Fprintln(w)
		return BracketView(s.Bracket).renderText(w)
	}
	return nil
}

func displayName(f model.Fencer) string {
	if f.DisplayName != "" {
		return f.DisplayName
	}
	return f.ID
}

// NewQualifyCommand creates the qualify command.
func NewQualifyCommand(rootOpts *RootOptions) *cobra.Command {
	var stageID string

	cmd := &cobra.Command{
		Use:   "qualify <event-id>",
		Short: "Seed the elimination table from the pool results",
		Long: `Rank the pool stage, keep the qualifying share of the field (the
event rule's cutoff_ratio, else the configured one) and lay the qualifiers
out in the elimination table. The table replaces the event's bracket.

Example:
  piste qualify e1 --stage e1-pools`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				seeded, b, err := a.rankings.Qualify(ctx, args[0], stageOrDefault(stageID, args[0]))
				if err != nil {
					return a.out.Fail("failed to qualify", err)
				}
				return a.out.Success(Seeding{Qualifiers: seeded, Bracket: b})
			})
		},
	}
	cmd.Flags().StringVar(&stageID, "stage", "", "pool stage id (default <event-id>-pools)")
	return cmd
}

// NewRankingCommand creates the ranking command.
func NewRankingCommand(rootOpts *RootOptions) *cobra.Command {
	var stageID string

	cmd := &cobra.Command{
		Use:   "ranking <event-id>",
		Short: "Refresh and print the live ranking of an event",
		Long: `Compose the standing of an event from its pool stage and elimination
table, store it as the event's live ranking and print it. Eliminated
fencers are marked with *.

Example:
  piste ranking e1 --stage e1-pools --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				standing, err := a.rankings.Refresh(ctx, args[0], stageOrDefault(stageID, args[0]))
				if err != nil {
					return a.out.Fail("failed to refresh ranking", err)
				}
				return a.out.Success(Standing(standing))
			})
		},
	}
	cmd.Flags().StringVar(&stageID, "stage", "", "pool stage id (default <event-id>-pools)")
	return cmd
}
