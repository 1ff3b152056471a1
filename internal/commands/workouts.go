package commands

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/liftlog/liftlog-cli/internal/appctx"
	"github.com/liftlog/liftlog-cli/internal/dateparse"
	"github.com/liftlog/liftlog-cli/internal/output"
	"github.com/liftlog/liftlog-cli/internal/urlarg"
)

// NewWorkoutsCmd creates the workouts command group.
func NewWorkoutsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workouts",
		Short: "Work with workouts",
	}

	cmd.AddCommand(
		newWorkoutsListCmd(),
		newWorkoutsShowCmd(),
	)

	return cmd
}

func newWorkoutsListCmd() *cobra.Command {
	var (
		jqFilter string
		since    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workouts",
		Long: `List workouts, newest first.

The --since filter accepts natural language dates: "yesterday",
"last monday", "2 weeks ago", "-7", or a literal YYYY-MM-DD.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())

			path := "/workouts"
			if since != "" {
				path += "?since=" + url.QueryEscape(dateparse.Parse(since))
			}

			resp, err := app.Client.Get(cmd.Context(), path)
			if err != nil {
				return err
			}
			return output.RenderFiltered(cmd.OutOrStdout(), resp.Data, app.Format(), jqFilter)
		},
	}

	cmd.Flags().StringVar(&jqFilter, "jq", "", "Filter the response through a jq expression")
	cmd.Flags().StringVar(&since, "since", "", "Only workouts on or after this date")

	return cmd
}

func newWorkoutsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|url>",
		Short: "Show one workout",
		Long:  "Show one workout by ID, or by a pasted app URL.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())

			id := urlarg.ExtractID(args[0])
			resp, err := app.Client.Get(cmd.Context(), fmt.Sprintf("/workouts/%s", id))
			if err != nil {
				return err
			}
			return output.Render(cmd.OutOrStdout(), resp.Data, app.Format())
		},
	}
}
