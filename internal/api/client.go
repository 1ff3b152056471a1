// Package api provides the authenticated HTTP client for the LiftLog API.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/liftlog/liftlog-cli/internal/auth"
	"github.com/liftlog/liftlog-cli/internal/config"
	"github.com/liftlog/liftlog-cli/internal/output"
)

// Client is the public entry point for API requests. It wires the executor,
// the auth manager, and the credential store into the retry-on-401 protocol:
// attach token, execute, on 401 refresh once (single-flight), retry once.
type Client struct {
	cfg    *config.Config
	exec   *Executor
	auth   *auth.Manager
	logger zerolog.Logger
}

// NewClient creates a new API client.
func NewClient(cfg *config.Config, authMgr *auth.Manager, logger zerolog.Logger) *Client {
	httpClient := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = config.DefaultRequestTimeout
	}

	return &Client{
		cfg:    cfg,
		exec:   NewExecutor(httpClient, timeout, logger),
		auth:   authMgr,
		logger: logger,
	}
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, body)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

// Do executes one request with auth header injection and the single
// refresh-and-retry cycle. Any error other than an auth expiry with a
// credential present is returned to the caller unchanged; retrying
// network, timeout, validation, or server failures is the caller's call.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	url := c.buildURL(path)

	creds, err := c.auth.EnsureFresh(ctx)
	if err != nil {
		cerr := output.AsClientError(err)
		if cerr != nil && cerr.Kind == output.KindAuthExpired && !c.auth.IsAuthenticated() {
			// No credential at all: the request goes out unauthenticated
			// and a 401 is surfaced as-is below.
			creds = nil
		} else {
			return nil, err
		}
	}

	token := ""
	if creds != nil {
		token = creds.AccessToken
	}

	resp, err := c.exec.Do(ctx, method, url, body, token)
	if err == nil {
		return resp, nil
	}

	cerr := output.AsClientError(err)
	if cerr == nil || cerr.Kind != output.KindAuthExpired || creds == nil {
		return nil, err
	}

	// The server rejected a token we believed fresh. Refresh once; all
	// concurrent 401s share the same in-flight refresh.
	c.logger.Debug().Str("method", method).Str("url", url).Msg("401, refreshing and retrying once")
	fresh, rerr := c.auth.Refresh(ctx)
	if rerr != nil {
		return nil, rerr
	}

	// Exactly one retry. A second 401 surfaces to the caller as-is.
	return c.exec.Do(ctx, method, url, body, fresh.AccessToken)
}

func (c *Client) buildURL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return config.NormalizeBaseURL(c.cfg.BaseURL) + path
}
