package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"mathnb/cli/internal/auth"
)

// whoamiCmd shows the account the stored credentials belong to.
var whoamiCmd = &cobra.Command{
	Use:     "whoami",
	Aliases: []string{"me"},
	Short:   "Show current authenticated account",
	Long: `The whoami command displays the currently authenticated account. The session is
validated with the server; an expired access token is refreshed once. When the server
cannot be reached, the last known account is shown.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			ctx := cmd.Context()
			if ok, err := a.auth.IsLoggedIn(); err != nil || !ok {
				printNotLoggedIn()
				return nil
			}

			if userData, err := a.auth.GetUserData(ctx); err == nil {
				if id := identityOf(userData); id != "" {
					pterm.Printf("Current user: %s\n", id)
					return nil
				}
			}
			if account, ok, err := a.auth.WhoAmI(ctx); err == nil && ok {
				pterm.Printf("Current user: %s\n", account)
				return nil
			}
			if st, err := auth.LoadState(a.km); err == nil && st.Account != "" {
				pterm.Printf("Current user: %s (offline)\n", st.Account)
				return nil
			}
			printNotLoggedIn()
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

func printNotLoggedIn() {
	pterm.Println("You're not logged in yet.")
	pterm.Println("   Run 'mathnb login' to get started.")
}
