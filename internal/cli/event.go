package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/piste/internal/model"
)

// EventList is the payload of event list.
type EventList []model.Event

func (l EventList) renderText(w io.Writer) error {
	if len(l) == 0 {
		_, err := fmt.Fprintln(w, "No events.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tWEAPON\tCATEGORY\tRULE\tFENCERS\tSTEP")
	for _, e := range l {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n", e.ID, e.Name, e.Weapon, e.Category, e.RuleID, e.FencerCount, e.CurrentStep)
	}
	return tw.Flush()
}

// NewEventCommand creates the event command group.
func NewEventCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Manage events and registrations",
	}
	cmd.AddCommand(newEventCreateCommand(rootOpts))
	cmd.AddCommand(newEventListCommand(rootOpts))
	cmd.AddCommand(newEventRegisterCommand(rootOpts))
	cmd.AddCommand(newEventUnregisterCommand(rootOpts))
	cmd.AddCommand(newEventDeleteCommand(rootOpts))
	return cmd
}

func newEventCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var e model.Event
	var nature, start string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create or update an event of a tournament",
		Long: `Create an event inside an existing tournament, or update it when --id
names an existing one. --rule selects the rulebook entry the event is
fenced under.

Example:
  piste event create --tournament t1 --name "Senior men epee" --weapon epee --rule standard --start "saturday 9am"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				var err error
				if e.StartTime, err = parseTime(start, a.now()); err != nil {
					return WrapExitError(ExitFailure, "invalid --start", err)
				}
				e.Nature = model.Nature(nature)
				if e.RuleID != "" {
					rule := a.rankings.Rule(e)
					if rule.ID != e.RuleID {
						a.log.Warn("rule not in rulebook, using fallback pool sizes", "rule_id", e.RuleID)
					} else if e.Nature == "" {
						e.Nature = rule.Nature
					}
				}

				saved, err := a.repos.Events.Save(ctx, e)
				if err != nil {
					return a.out.Fail("failed to save event", err)
				}
				if a.out.Format == "json" {
					return a.out.Success(saved)
				}
				return a.out.Success(fmt.Sprintf("event %s (%s) in tournament %s", saved.ID, saved.Name, saved.TournamentID))
			})
		},
	}

	cmd.Flags().StringVar(&e.ID, "id", "", "event id (generated when empty)")
	cmd.Flags().StringVar(&e.TournamentID, "tournament", "", "tournament id (required)")
	cmd.Flags().StringVar(&e.Name, "name", "", "event name")
	cmd.Flags().StringVar(&e.Weapon, "weapon", "", "foil, epee or sabre")
	cmd.Flags().StringVar(&e.Category, "category", "", "age or level category")
	cmd.Flags().StringVar(&e.RuleID, "rule", "standard", "rulebook id")
	cmd.Flags().StringVar(&nature, "nature", "", "individual or team (defaults to the rule's)")
	cmd.Flags().StringVar(&start, "start", "", "start time")
	_ = cmd.MarkFlagRequired("tournament")
	return cmd
}

func newEventListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <tournament-id>",
		Short: "List the events of a tournament",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				es, err := a.repos.Events.ListByTournament(ctx, args[0])
				if err != nil {
					return a.out.Fail("failed to list events", err)
				}
				return a.out.Success(EventList(es))
			})
		},
	}
}

func newEventRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "register <event-id> <fencer-id>...",
		Short: "Register fencers into an event",
		Long: `Register fencers into an event. Registering a fencer twice is a no-op.

Example:
  piste event register e1 f1 f2 f3`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				e, err := a.repos.Registrations.Register(ctx, args[0], args[1:]...)
				if err != nil {
					return a.out.Fail("failed to register fencers", err)
				}
				if a.out.Format == "json" {
					return a.out.Success(map[string]any{"event_id": e.ID, "fencer_count": e.FencerCount})
				}
				return a.out.Success(fmt.Sprintf("event %s: %s registered", e.ID, formatCount(e.FencerCount, "fencer")))
			})
		},
	}
}

func newEventUnregisterCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unregister <event-id> <fencer-id>",
		Short: "Remove a fencer from an event",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				e, err := a.repos.Registrations.Unregister(ctx, args[0], args[1])
				if err != nil {
					return a.out.Fail("failed to unregister fencer", err)
				}
				if a.out.Format == "json" {
					return a.out.Success(map[string]any{"event_id": e.ID, "fencer_count": e.FencerCount})
				}
				return a.out.Success(fmt.Sprintf("event %s: %s registered", e.ID, formatCount(e.FencerCount, "fencer")))
			})
		},
	}
}

func newEventDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <event-id>",
		Short: "Delete an event with its registrations and pools",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				if err := a.repos.Events.Delete(ctx, args[0]); err != nil {
					return a.out.Fail("failed to delete event", err)
				}
				if a.out.Format == "json" {
					return a.out.Success(map[string]string{"deleted": args[0]})
				}
				return a.out.Success(fmt.Sprintf("deleted event %s", args[0]))
			})
		},
	}
}
