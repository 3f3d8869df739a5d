package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/piste/internal/store"
)

// MigrateResult reports the schema state after opening the store.
type MigrateResult struct {
	Database      string `json:"database"`
	SchemaVersion int    `json:"schema_version"`
	Latest        int    `json:"latest"`
}

func (r MigrateResult) renderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s: schema version %d (latest %d)\n", r.Database, r.SchemaVersion, r.Latest)
	return err
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Long: `Open the database, applying any pending schema migrations, and print
the resulting schema version.

Example:
  piste migrate --db ./club.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				v, err := a.store.Version(ctx)
				if err != nil {
					return a.out.Fail("failed to read schema version", err)
				}
				return a.out.Success(MigrateResult{
					Database:      a.cfg.DBPath,
					SchemaVersion: v,
					Latest:        store.CurrentVersion(),
				})
			})
		},
	}
}
