// Package cli implements the librarydesk command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrlokans/librarydesk/internal/config"
	"github.com/mrlokans/librarydesk/internal/entrypoint"
)

// ConfigLoader builds the configuration for a command run.
type ConfigLoader func() *config.Config

type runtime struct {
	version string
	load    ConfigLoader
	cfg     *config.Config
}

// NewRootCommand returns the librarydesk command with all subcommands.
func NewRootCommand(version string, load ConfigLoader) *cobra.Command {
	rt := &runtime{version: version, load: load}

	root := &cobra.Command{
		Use:   "librarydesk",
		Short: "Librarydesk manages a small library's catalogue, members and loans",
		Long: `Librarydesk manages a small library's catalogue, members and loans.
It serves a JSON API for the front desk and provides maintenance commands
for administrators.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			rt.cfg = rt.load()
			return entrypoint.SetupLogging(rt.cfg.Log)
		},
	}

	root.AddCommand(
		newServeCommand(rt),
		newInitCommand(rt),
		newUserCommand(rt),
		newExportCommand(rt),
		newImportCommand(rt),
		newAuditCommand(rt),
		newKeygenCommand(),
	)
	return root
}

// openApp opens the database and services for a maintenance command.
func (rt *runtime) openApp() (*entrypoint.App, error) {
	return entrypoint.NewApp(rt.cfg)
}
