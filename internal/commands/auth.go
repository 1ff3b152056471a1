// Package commands implements the CLI commands.
package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/liftlog/liftlog-cli/internal/appctx"
	"github.com/liftlog/liftlog-cli/internal/output"
)

// NewAuthCmd creates the auth command group.
func NewAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication",
		Long:  "Manage LiftLog authentication including login, logout, refresh, and status.",
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthStatusCmd(),
		newAuthRefreshCmd(),
	)

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with LiftLog",
		Long:  "Log in with email and password and store the resulting token pair.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())

			if email == "" {
				fmt.Print("Email: ")
				if _, err := fmt.Fscanln(cmd.InOrStdin(), &email); err != nil {
					return output.ErrUsage("Email is required")
				}
			}

			password := os.Getenv("LIFTLOG_PASSWORD")
			if password == "" {
				fmt.Print("Password: ")
				raw, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Println()
				if err != nil {
					return output.ErrUsageHint("Could not read password", err.Error())
				}
				password = strings.TrimSpace(string(raw))
			}
			if password == "" {
				return output.ErrUsage("Password is required")
			}

			if err := app.Auth.Login(cmd.Context(), email, password); err != nil {
				return err
			}

			fmt.Println("Authentication successful!")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (prompted if omitted)")

	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			app.Auth.Logout()
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())

			creds, err := app.Auth.Current()
			if err != nil {
				fmt.Println("Not authenticated.")
				fmt.Println("Run: liftlog auth login")
				return nil
			}

			fmt.Printf("Authenticated against %s\n", app.Config.BaseURL)
			if creds.ExpiresAt > 0 {
				expiry := time.UnixMilli(creds.ExpiresAt)
				if creds.Expired(0) {
					fmt.Printf("Access token expired at %s\n", expiry.Format(time.RFC3339))
				} else {
					fmt.Printf("Access token valid until %s\n", expiry.Format(time.RFC3339))
				}
			}
			if !creds.Refreshable() {
				fmt.Println("No refresh token: expiry will require a new login.")
			}
			if app.Auth.Store().UsingKeyring() {
				fmt.Println("Storage: system keyring")
			} else {
				fmt.Println("Storage: credentials file")
			}
			return nil
		},
	}
}

func newAuthRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Force a token refresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())

			creds, err := app.Auth.Refresh(cmd.Context())
			if err != nil {
				return err
			}

			expiry := time.UnixMilli(creds.ExpiresAt)
			fmt.Printf("Token refreshed, valid until %s\n", expiry.Format(time.RFC3339))
			return nil
		},
	}
}
