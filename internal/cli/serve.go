package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/librarydesk/internal/entrypoint"
)

func newServeCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, background workers and the reminder scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return entrypoint.Run(cmd.Context(), rt.cfg, rt.version)
		},
	}
}

func newInitCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the schema, seed default settings and the default admin",
		Long: `Create the schema, seed default settings and the default admin.

Running it again on an initialised database changes nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := rt.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Bootstrap(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database ready at %s\n", rt.cfg.Database.Path)
			return nil
		},
	}
}
