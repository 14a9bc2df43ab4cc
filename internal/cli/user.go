package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/librarydesk/internal/auth"
	"github.com/mrlokans/librarydesk/internal/entities"
)

func newUserCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage staff accounts",
	}
	cmd.AddCommand(newUserCreateCommand(rt), newUserResetPasswordCommand(rt))
	return cmd
}

func newUserCreateCommand(rt *runtime) *cobra.Command {
	var username, password, role, email string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account as the system actor",
		Example: `  librarydesk user create --username alice --role admin
  librarydesk user create --username bob --password 's3cret-pass' --email bob@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := resolvePassword(cmd, password)
			if err != nil {
				return err
			}

			app, err := rt.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			user, err := app.Auth.CreateUser(cmd.Context(), auth.SystemActor, username, email, pw, entities.UserRole(role))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s account %q (id %d)\n", user.Role, user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "login name (required)")
	cmd.Flags().StringVar(&password, "password", "", "initial password, prompted for when omitted")
	cmd.Flags().StringVar(&role, "role", string(entities.UserRoleStaff), "admin or staff")
	cmd.Flags().StringVar(&email, "email", "", "address for password notifications")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newUserResetPasswordCommand(rt *runtime) *cobra.Command {
	var admin, username, password string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password and require a change at next login",
		Long: `Set a new password and require a change at next login.

With --admin the reset is performed and audited as that admin account,
otherwise as the system actor.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := resolvePassword(cmd, password)
			if err != nil {
				return err
			}

			app, err := rt.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			actor := auth.SystemActor
			if admin != "" {
				actor = auth.Actor{Username: admin, Role: entities.UserRoleAdmin}
			}
			if err := app.Auth.AdminResetPassword(cmd.Context(), actor, username, pw); err != nil {
				return fmt.Errorf("reset password for %q: %w", username, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password for %q reset, a change is required at next login\n", username)
			return nil
		},
	}

	cmd.Flags().StringVar(&admin, "admin", "", "admin account performing the reset")
	cmd.Flags().StringVar(&username, "username", "", "account to reset (required)")
	cmd.Flags().StringVar(&password, "password", "", "new password, prompted for when omitted")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}
