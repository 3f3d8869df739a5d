package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/piste/internal/model"
	"github.com/roach88/piste/internal/ranking"
)

// BracketView prints an elimination table round by round.
type BracketView model.Bracket

func (b BracketView) renderText(w io.Writer) error {
	if len(b) == 0 {
		_, err := fmt.Fprintln(w, "No elimination table.")
		return err
	}
	for r, round := range b {
		size := 2 * len(round)
		name := string(ranking.RoundOf(size))
		switch size {
		case 2:
			name = "Final"
		case 4:
			name = "Semi-finals"
		}
		fmt.Fprintf(w, "Round %d  %s\n", r, name)
		for m, match := range round {
			fmt.Fprintf(w, "  %2d  %-16s vs %-16s %s\n", m, slot(match.FencerA), slot(match.FencerB), winner(match))
		}
	}
	return nil
}

func slot(id string) string {
	if id == "" {
		return "-"
	}
	return id
}

func winner(m model.Match) string {
	if m.Winner == "" {
		return ""
	}
	return "-> " + m.Winner
}

// NewBracketCommand creates the bracket command group.
func NewBracketCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bracket",
		Short: "Show and score the elimination table",
	}
	cmd.AddCommand(newBracketShowCommand(rootOpts))
	cmd.AddCommand(newBracketWinCommand(rootOpts))
	return cmd
}

func newBracketShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <event-id>",
		Short: "Print the elimination table of an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				e, err := a.repos.Events.Get(ctx, args[0])
				if err != nil {
					return a.out.Fail("failed to load event", err)
				}
				return a.out.Success(BracketView(e.DETree))
			})
		},
	}
}

func newBracketWinCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "win <event-id> <round> <match> <fencer-id>",
		Short: "Record the winner of an elimination match",
		Long: `Record the winner of match <match> in round <round> (both counted from
0) and advance the fencer into the next round.

Example:
  piste bracket win e1 0 3 f7`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			round, err := strconv.Atoi(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid round", err)
			}
			match, err := strconv.Atoi(args[2])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid match", err)
			}
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				e, err := a.repos.Events.Get(ctx, args[0])
				if err != nil {
					return a.out.Fail("failed to load event", err)
				}
				if err := e.DETree.RecordWinner(round, match, args[3]); err != nil {
					return WrapExitError(ExitFailure, "invalid result", err)
				}
				e, err = a.repos.Events.SaveBracket(ctx, e.ID, e.DETree)
				if err != nil {
					return a.out.Fail("failed to save bracket", err)
				}
				return a.out.Success(BracketView(e.DETree))
			})
		},
	}
}
