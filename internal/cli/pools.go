package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/piste/internal/model"
)

// PoolSheets is the payload of the pools commands.
type PoolSheets []model.Pool

func (ps PoolSheets) renderText(w io.Writer) error {
	if len(ps) == 0 {
		_, err := fmt.Fprintln(w, "No pools.")
		return err
	}
	for i, p := range ps {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := renderSheet(w, p); err != nil {
			return err
		}
	}
	return nil
}

// renderSheet prints a pool as the usual score grid: row i, column j holds
// the touches of fencer i against j, prefixed with V for a win.
func renderSheet(w io.Writer, p model.Pool) error {
	state := ""
	if p.Locked {
		state = " (locked)"
	}
	fmt.Fprintf(w, "Pool %d  %s%s\n", p.Number, p.ID, state)

	header := make([]string, len(p.FencerIDs))
	for j := range p.FencerIDs {
		header[j] = fmt.Sprintf("%3d", j+1)
	}
	fmt.Fprintf(w, "    %-20s %s\n", "", strings.Join(header, " "))

	for i, id := range p.FencerIDs {
		cells := make([]string, len(p.FencerIDs))
		for j := range p.FencerIDs {
			var s *model.Score
			if i < len(p.Results) && j < len(p.Results[i]) {
				s = p.Results[i][j]
			}
			switch {
			case i == j:
				cells[j] = "  #"
			case s == nil:
				cells[j] = "  ."
			case s.Victory:
				cells[j] = fmt.Sprintf("%3s", "V"+strconv.Itoa(s.Touches))
			default:
				cells[j] = fmt.Sprintf("%3d", s.Touches)
			}
		}
		fmt.Fprintf(w, "%3d %-20s %s\n", i+1, id, strings.Join(cells, " "))
	}
	return nil
}

// NewPoolsCommand creates the pools command group.
func NewPoolsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pools",
		Short: "Draw pools and record pool bouts",
	}
	cmd.AddCommand(newPoolsDrawCommand(rootOpts))
	cmd.AddCommand(newPoolsListCommand(rootOpts))
	cmd.AddCommand(newPoolsBoutCommand(rootOpts))
	cmd.AddCommand(newPoolsLockCommand(rootOpts))
	return cmd
}

func newPoolsDrawCommand(rootOpts *RootOptions) *cobra.Command {
	var stageID string

	cmd := &cobra.Command{
		Use:   "draw <event-id>",
		Short: "Split the registered fencers into pools",
		Long: `Distribute the fencers registered in an event over the pools of a stage,
serpentine by seed. Pools previously drawn for the stage are replaced.

Example:
  piste pools draw e1 --stage e1-pools-1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				pools, err := a.rankings.DrawPools(ctx, args[0], stageOrDefault(stageID, args[0]))
				if err != nil {
					return a.out.Fail("failed to draw pools", err)
				}
				return a.out.Success(PoolSheets(pools))
			})
		},
	}
	cmd.Flags().StringVar(&stageID, "stage", "", "stage id (default <event-id>-pools)")
	return cmd
}

func newPoolsListCommand(rootOpts *RootOptions) *cobra.Command {
	var stageID string

	cmd := &cobra.Command{
		Use:   "list <event-id>",
		Short: "Show the pool sheets of an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				var pools []model.Pool
				var err error
				if stageID != "" {
					pools, err = a.repos.Pools.ListByStage(ctx, stageID)
				} else {
					pools, err = a.repos.Pools.ListByEvent(ctx, args[0])
				}
				if err != nil {
					return a.out.Fail("failed to list pools", err)
				}
				return a.out.Success(PoolSheets(pools))
			})
		},
	}
	cmd.Flags().StringVar(&stageID, "stage", "", "only this stage")
	return cmd
}

func newPoolsBoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bout <pool-id> <fencer-id> <fencer-id> <touches> <touches>",
		Short: "Record one pool bout",
		Long: `Record the score of a bout between two fencers of a pool, then
refresh the pool summary. The fencer with more touches wins.

Example:
  piste pools bout p1 f1 f4 5 3`,
		Args: cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			left, err := strconv.Atoi(args[3])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid touches", err)
			}
			right, err := strconv.Atoi(args[4])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid touches", err)
			}
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				p, err := a.repos.Pools.Get(ctx, args[0])
				if err != nil {
					return a.out.Fail("failed to load pool", err)
				}
				i, j := slices.Index(p.FencerIDs, args[1]), slices.Index(p.FencerIDs, args[2])
				if i < 0 || j < 0 {
					return NewExitError(ExitFailure, fmt.Sprintf("%s vs %s is not a bout of pool %s", args[1], args[2], p.ID))
				}
				if err := p.SetBout(i, j, left, right); err != nil {
					return WrapExitError(ExitFailure, "invalid bout", err)
				}
				p, err = a.rankings.RecordPool(ctx, p.ID, p.Results)
				if err != nil {
					return a.out.Fail("failed to record bout", err)
				}
				return a.out.Success(PoolSheets{p})
			})
		},
	}
}

func newPoolsLockCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lock <pool-id>",
		Short: "Lock a finished pool against further edits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				p, err := a.repos.Pools.Lock(ctx, args[0])
				if err != nil {
					return a.out.Fail("failed to lock pool", err)
				}
				return a.out.Success(PoolSheets{p})
			})
		},
	}
}

// stageOrDefault names the single pool stage of an event when no stage
// was given.
func stageOrDefault(stageID, eventID string) string {
	if stageID != "" {
		return stageID
	}
	return eventID + "-pools"
}
