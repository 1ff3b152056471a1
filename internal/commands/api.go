package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"

	"github.com/liftlog/liftlog-cli/internal/api"
	"github.com/liftlog/liftlog-cli/internal/appctx"
	"github.com/liftlog/liftlog-cli/internal/output"
)

// NewAPICmd creates the api command for raw API access.
func NewAPICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "api <verb> <path>",
		Short: "Raw API access",
		Long:  "Make raw API requests to any LiftLog endpoint. Useful for operations not covered by dedicated commands.",
	}

	cmd.AddCommand(
		newAPIVerbCmd("get", "GET request to API", false),
		newAPIVerbCmd("post", "POST request to API", true),
		newAPIVerbCmd("put", "PUT request to API", true),
		newAPIVerbCmd("delete", "DELETE request to API", false),
	)

	return cmd
}

func newAPIVerbCmd(verb, short string, requiresData bool) *cobra.Command {
	var data string
	var jqFilter string
	var retry bool

	method := map[string]string{
		"get": "GET", "post": "POST", "put": "PUT", "delete": "DELETE",
	}[verb]

	cmd := &cobra.Command{
		Use:   verb + " <path>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			path := args[0]

			var body any
			if data != "" {
				if err := json.Unmarshal([]byte(data), &body); err != nil {
					return output.ErrUsageHint(
						"Invalid JSON data",
						fmt.Sprintf("JSON parse error: %v", err),
					)
				}
			} else if requiresData {
				return output.ErrUsage("--data is required")
			}

			resp, err := doWithOptionalRetry(cmd.Context(), app, method, path, body, retry)
			if err != nil {
				return err
			}

			return output.RenderFiltered(cmd.OutOrStdout(), resp.Data, app.Format(), jqFilter)
		},
	}

	if requiresData {
		cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body (required)")
	} else {
		cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	}
	cmd.Flags().StringVar(&jqFilter, "jq", "", "Filter the response through a jq expression")
	cmd.Flags().BoolVar(&retry, "retry", false, "Retry transient failures with exponential backoff")

	return cmd
}

// doWithOptionalRetry issues the request, optionally retrying transient
// failures. Retry policy lives here, above the client boundary: the client
// itself only ever retries the single refresh-and-retry cycle on 401.
func doWithOptionalRetry(ctx context.Context, app *appctx.App, method, path string, body any, retry bool) (*api.Response, error) {
	if !retry {
		return app.Client.Do(ctx, method, path, body)
	}

	var resp *api.Response
	operation := func() error {
		var err error
		resp, err = app.Client.Do(ctx, method, path, body)
		if err == nil {
			return nil
		}
		if cerr := output.AsClientError(err); cerr != nil && !cerr.Retryable() {
			return backoff.Permanent(err)
		}
		app.Logger.Debug().Err(err).Msg("transient failure, backing off")
		return err
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 500 * time.Millisecond
	exp.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(exp, ctx)); err != nil {
		return nil, err
	}
	return resp, nil
}
