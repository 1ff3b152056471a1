// Package cli wires configuration, authentication, and the API client into
// the root cobra command.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/liftlog/liftlog-cli/internal/appctx"
	"github.com/liftlog/liftlog-cli/internal/commands"
	"github.com/liftlog/liftlog-cli/internal/config"
	"github.com/liftlog/liftlog-cli/internal/output"
	"github.com/liftlog/liftlog-cli/internal/version"
)

// NewRootCmd creates the root cobra command.
func NewRootCmd() *cobra.Command {
	var flags appctx.GlobalFlags

	cmd := &cobra.Command{
		Use:           "liftlog",
		Short:         "Command-line interface for LiftLog",
		Long:          "liftlog is a CLI tool for interacting with the LiftLog fitness API: workouts, exercises, and your profile.",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip setup for help and version commands
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}

			cfg, err := config.Load(config.FlagOverrides{
				BaseURL: flags.BaseURL,
				Timeout: flags.Timeout,
				Format:  flags.Format,
			})
			if err != nil {
				return err
			}

			if _, err := output.ParseFormat(cfg.Format); err != nil {
				return err
			}

			app := appctx.NewApp(cfg, flags)
			cmd.SetContext(appctx.WithApp(cmd.Context(), app))
			return nil
		},
	}

	registerGlobalFlags(cmd.PersistentFlags(), &flags)

	return cmd
}

// registerGlobalFlags declares the flags shared by every command.
func registerGlobalFlags(fs *pflag.FlagSet, flags *appctx.GlobalFlags) {
	fs.StringVar(&flags.BaseURL, "base-url", "", "LiftLog API base URL")
	fs.DurationVar(&flags.Timeout, "timeout", 0, "Per-request timeout (e.g. 10s)")
	fs.StringVarP(&flags.Format, "format", "f", "", "Output format: json, yaml, or raw")
	fs.CountVarP(&flags.Verbose, "verbose", "v", "Verbose output (debug logging)")
}

// Execute runs the root command.
func Execute() {
	cmd := NewRootCmd()

	cmd.AddCommand(commands.NewAuthCmd())
	cmd.AddCommand(commands.NewAPICmd())
	cmd.AddCommand(commands.NewStatusCmd())
	cmd.AddCommand(commands.NewWorkoutsCmd())

	if err := cmd.Execute(); err != nil {
		apiErr := output.AsError(err)
		fmt.Fprintf(os.Stderr, "Error: %s\n", apiErr.Error())
		os.Exit(apiErr.ExitCode())
	}
}
