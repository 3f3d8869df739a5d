package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/piste/internal/model"
)

// TournamentList is the text/json payload of tournament list.
type TournamentList []model.Tournament

func (l TournamentList) renderText(w io.Writer) error {
	if len(l) == 0 {
		_, err := fmt.Fprintln(w, "No tournaments.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tDATES\tLOCATION")
	for _, t := range l {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Name, t.Status, dateRange(t.StartDate, t.EndDate), t.Location)
	}
	return tw.Flush()
}

func dateRange(start, end string) string {
	switch {
	case start == "":
		return "-"
	case end == "" || end == start:
		return start
	}
	return start + ".." + end
}

// NewTournamentCommand creates the tournament command group.
func NewTournamentCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tournament",
		Short: "Manage tournaments",
	}
	cmd.AddCommand(newTournamentCreateCommand(rootOpts))
	cmd.AddCommand(newTournamentListCommand(rootOpts))
	cmd.AddCommand(newTournamentStatusCommand(rootOpts))
	cmd.AddCommand(newTournamentDeleteCommand(rootOpts))
	return cmd
}

func newTournamentCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var t model.Tournament
	var start, end string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create or update a tournament",
		Long: `Create a tournament, or update it when --id names an existing one.

Dates accept YYYY-MM-DD or plain English ("next saturday", "in 2 weeks").

Example:
  piste tournament create --name "Spring Open" --start 2026-04-11 --end 2026-04-12`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				var err error
				if t.StartDate, err = parseDate(start, a.now()); err != nil {
					return WrapExitError(ExitFailure, "invalid --start", err)
				}
				if t.EndDate, err = parseDate(end, a.now()); err != nil {
					return WrapExitError(ExitFailure, "invalid --end", err)
				}
				saved, err := a.repos.Tournaments.Save(ctx, t)
				if err != nil {
					return a.out.Fail("failed to save tournament", err)
				}
				a.out.VerboseLog("saved tournament %s", saved.ID)
				if a.out.Format == "json" {
					return a.out.Success(saved)
				}
				return a.out.Success(fmt.Sprintf("tournament %s (%s) %s", saved.ID, saved.Name, saved.Status))
			})
		},
	}

	cmd.Flags().StringVar(&t.ID, "id", "", "tournament id (generated when empty)")
	cmd.Flags().StringVar(&t.Name, "name", "", "tournament name (required)")
	cmd.Flags().StringVar(&t.Organizer, "organizer", "", "organizing club")
	cmd.Flags().StringVar(&t.Location, "location", "", "venue")
	cmd.Flags().StringVar(&start, "start", "", "first day")
	cmd.Flags().StringVar(&end, "end", "", "last day")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newTournamentListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tournaments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				ts, err := a.repos.Tournaments.List(ctx)
				if err != nil {
					return a.out.Fail("failed to list tournaments", err)
				}
				return a.out.Success(TournamentList(ts))
			})
		},
	}
}

func newTournamentStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <tournament-id> <draft|active|completed>",
		Short: "Move a tournament through its lifecycle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				t, err := a.repos.Tournaments.SetStatus(ctx, args[0], model.TournamentStatus(args[1]))
				if err != nil {
					return a.out.Fail("failed to change status", err)
				}
				if a.out.Format == "json" {
					return a.out.Success(t)
				}
				return a.out.Success(fmt.Sprintf("tournament %s is %s", t.ID, t.Status))
			})
		},
	}
}

func newTournamentDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <tournament-id>",
		Short: "Delete a tournament with its events, registrations and pools",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				if err := a.repos.Tournaments.Delete(ctx, args[0]); err != nil {
					return a.out.Fail("failed to delete tournament", err)
				}
				if a.out.Format == "json" {
					return a.out.Success(map[string]string{"deleted": args[0]})
				}
				return a.out.Success(fmt.Sprintf("deleted tournament %s", args[0]))
			})
		},
	}
}
