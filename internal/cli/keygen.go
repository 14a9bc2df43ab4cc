package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/librarydesk/internal/auth"
	"github.com/mrlokans/librarydesk/internal/crypto"
)

func newKeygenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a session secret and a settings encryption key",
		Args:  cobra.NoArgs,
		// Needs no configuration or logging.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := auth.GenerateSessionSecret()
			if err != nil {
				return err
			}
			key, err := crypto.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "AUTH_SESSION_SECRET=%s\n", secret)
			fmt.Fprintf(cmd.OutOrStdout(), "SETTINGS_ENCRYPTION_KEY=%s\n", key)
			return nil
		},
	}
}
