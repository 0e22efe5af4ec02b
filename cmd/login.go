// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"mathnb/cli/internal/backend"
)

// loginTimeout bounds the whole device-link flow.
const loginTimeout = 5 * time.Minute

// loginCmd represents the login command for device authentication.
// It prints a link the user opens in a browser, then polls the server until
// the device is authorized and stores the tokens in the OS keychain.
var loginCmd = &cobra.Command{
	Use:     "login",
	Aliases: []string{"auth"},
	Short:   "Authenticate via browser and link this device",
	Long: `The login command starts a device authentication flow. It prints a link that must be
opened in a browser to complete authentication, then polls the server until the device is
authorized. Tokens are stored in the OS keychain.

Saving, opening and listing worksheets on the server requires a login. If already logged
in with valid credentials, the flow is skipped.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			ctx := cmd.Context()
			if account, ok, _ := a.auth.WhoAmI(ctx); ok {
				pterm.Printf("Already logged in as %s\n", account)
				return nil
			}
			if _, err := a.deviceLogin(ctx); err != nil {
				return err
			}
			showLoginGreeting(ctx, a)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

// deviceLogin runs the device-link flow and returns the authorized account.
func (a *app) deviceLogin(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	authURL, deviceID, pollEvery, err := a.auth.StartLogin(ctx)
	if err != nil {
		return "", fmt.Errorf("starting login: %w", err)
	}
	pterm.Println("Open this link to complete login:")
	pterm.Printf("%s\n\n", authURL)

	// The link is printed as well, in case no browser can be started.
	openBrowser(authURL)

	stop := startInlineSpinner(os.Stdout, "Waiting for verification", []string{"|", "/", "-", "\\"}, 120*time.Millisecond)
	account, err := a.auth.WaitForLogin(ctx, deviceID, time.Duration(pollEvery)*time.Second)
	stop()

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, backend.ErrDeviceLinkExpired):
		return "", errors.New("the login link expired; run 'mathnb login' again")
	case errors.Is(err, context.DeadlineExceeded):
		return "", errors.New("login timed out; cleaned up")
	default:
		return "", err
	}
}

// openBrowser attempts to open the provided URL in the user's default browser.
// The process is started but not awaited.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	_ = cmd.Start()
}

// showLoginGreeting prints who logged in, falling back to a generic message.
func showLoginGreeting(ctx context.Context, a *app) {
	if userData, err := a.auth.GetUserData(ctx); err == nil {
		if id := identityOf(userData); id != "" {
			pterm.Success.Printfln("Logged in as %s", id)
			return
		}
	}
	pterm.Success.Println("Login successful!")
}

// identityOf picks the most readable identifier from /me user data.
func identityOf(userData map[string]any) string {
	for _, k := range []string{"email", "user_id", "id"} {
		if v, ok := userData[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
