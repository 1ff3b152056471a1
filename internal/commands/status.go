package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/liftlog/liftlog-cli/internal/appctx"
)

// NewStatusCmd creates the status command: connectivity probe plus auth state.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check API reachability and authentication",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())

			if app.Probe.Reachable(cmd.Context()) {
				fmt.Printf("API reachable at %s\n", app.Config.BaseURL)
			} else {
				fmt.Printf("API unreachable at %s (offline?)\n", app.Config.BaseURL)
			}

			if app.Auth.IsAuthenticated() {
				fmt.Println("Authenticated: yes")
			} else {
				fmt.Println("Authenticated: no (run: liftlog auth login)")
			}
			return nil
		},
	}
}
