// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var logoutAll bool

// logoutCmd represents the logout command for clearing authentication state.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove saved credentials and tokens",
	Long: `The logout command clears authentication state from the local system and notifies
the server to invalidate the current session (best-effort).

This command removes:
- Access and refresh tokens from the OS keychain
- The stored login state

With --all the saved worksheet database connection is removed as well.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			// Local credentials are cleared even when the server is unreachable.
			if err := a.auth.Logout(cmd.Context()); err != nil {
				return err
			}
			if logoutAll {
				if err := a.km.ClearAll(); err != nil {
					return err
				}
			}
			pterm.Success.Println("Credentials and tokens have been removed")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "Also remove the saved worksheet database connection")
}
