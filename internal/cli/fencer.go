package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/piste/internal/model"
)

// FencerEntry is one fencer of an import file.
type FencerEntry struct {
	ID          string `yaml:"id,omitempty"`
	LastName    string `yaml:"last_name"`
	FirstName   string `yaml:"first_name,omitempty"`
	FencingID   string `yaml:"fencing_id,omitempty"`
	Club        string `yaml:"club,omitempty"`
	Nationality string `yaml:"nationality,omitempty"`
	BirthDate   string `yaml:"birth_date,omitempty"`
}

// FencerFile is the import file layout:
//
//	fencers:
//	  - {last_name: Arnaud, first_name: Lea, fencing_id: "FRA-1001"}
type FencerFile struct {
	Fencers []FencerEntry `yaml:"fencers"`
}

// loadFencerFile reads an import file, rejecting unknown fields.
func loadFencerFile(path string) (*FencerFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fencer file: %w", err)
	}
	defer f.Close()

	var file FencerFile
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &file, nil
}

// ImportResult reports a fencer import.
type ImportResult struct {
	Imported []model.Fencer `json:"imported"`
	EventID  string         `json:"event_id,omitempty"`
	Count    int            `json:"fencer_count,omitempty"`
}

func (r ImportResult) renderText(w io.Writer) error {
	for _, f := range r.Imported {
		fmt.Fprintf(w, "%s\t%s\n", f.ID, f.DisplayName)
	}
	if r.EventID != "" {
		_, err := fmt.Fprintf(w, "Imported %s into event %s (%d registered)\n", formatCount(len(r.Imported), "fencer"), r.EventID, r.Count)
		return err
	}
	_, err := fmt.Fprintf(w, "Imported %s\n", formatCount(len(r.Imported), "fencer"))
	return err
}

// FencerList is the payload of fencer list.
type FencerList []model.Fencer

func (l FencerList) renderText(w io.Writer) error {
	if len(l) == 0 {
		_, err := fmt.Fprintln(w, "No fencers.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tFENCING ID\tCLUB\tNAT")
	for _, f := range l {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", f.ID, f.DisplayName, f.FencingID, f.Club, f.Nationality)
	}
	return tw.Flush()
}

// NewFencerCommand creates the fencer command group.
func NewFencerCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fencer",
		Short: "Manage fencers",
	}
	cmd.AddCommand(newFencerImportCommand(rootOpts))
	cmd.AddCommand(newFencerListCommand(rootOpts))
	return cmd
}

func newFencerImportCommand(rootOpts *RootOptions) *cobra.Command {
	var eventID string

	cmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import fencers from YAML",
		Long: `Upsert the fencers of a YAML file. A fencer whose fencing_id is already
known updates that record instead of creating a new one.

With --event the imported fencers are also registered into the event.

Example:
  piste fencer import ./entries.yaml --event e1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := loadFencerFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load fencers", err)
			}
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				result := ImportResult{Imported: make([]model.Fencer, 0, len(file.Fencers))}
				for i, entry := range file.Fencers {
					f, err := a.repos.Fencers.Save(ctx, model.Fencer{
						ID:          entry.ID,
						LastName:    entry.LastName,
						FirstName:   entry.FirstName,
						FencingID:   entry.FencingID,
						Club:        entry.Club,
						Nationality: entry.Nationality,
						BirthDate:   entry.BirthDate,
					})
					if err != nil {
						return a.out.Fail(fmt.Sprintf("failed to import fencers[%d]", i), err)
					}
					a.out.VerboseLog("imported %s (%s)", f.ID, f.DisplayName)
					result.Imported = append(result.Imported, f)
				}

				if eventID != "" {
					ids := make([]string, len(result.Imported))
					for i, f := range result.Imported {
						ids[i] = f.ID
					}
					e, err := a.repos.Registrations.Register(ctx, eventID, ids...)
					if err != nil {
						return a.out.Fail("failed to register fencers", err)
					}
					result.EventID = e.ID
					result.Count = e.FencerCount
				}
				return a.out.Success(result)
			})
		},
	}

	cmd.Flags().StringVar(&eventID, "event", "", "register the imported fencers into this event")
	return cmd
}

func newFencerListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List fencers by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				fs, err := a.repos.Fencers.List(ctx)
				if err != nil {
					return a.out.Fail("failed to list fencers", err)
				}
				return a.out.Success(FencerList(fs))
			})
		},
	}
}
