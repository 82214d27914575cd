package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the admin session",
		Long:  "Clears the session flag from the CLI state file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer w.close()

			if !w.ctrl.Snapshot().LoggedIn {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
				return err
			}
			if err := w.ctrl.Logout(); err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), "✓ Logged out.")
			return err
		},
	}
}
