package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/liftlog/liftlog-cli/internal/config"
)

// Probe issues a short, bounded health check so callers can decide whether
// to degrade to offline behavior. A true result is a heuristic, not a
// guarantee that any subsequent request will succeed.
type Probe struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	logger     zerolog.Logger
}

// NewProbe creates a reachability probe against the configured base URL.
func NewProbe(cfg *config.Config, logger zerolog.Logger) *Probe {
	timeout := cfg.ProbeTimeout
	if timeout <= 0 {
		timeout = config.DefaultProbeTimeout
	}
	return &Probe{
		httpClient: &http.Client{},
		baseURL:    config.NormalizeBaseURL(cfg.BaseURL),
		timeout:    timeout,
		logger:     logger,
	}
}

// Reachable reports whether the API answers at all. False on transport
// failure, timeout, or a 5xx status. Any other completed response counts
// as online, 4xx included: a server that rejects the probe is still up.
func (p *Probe) Reachable(ctx context.Context) bool {
	rctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(rctx, http.MethodGet, p.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Debug().Err(err).Msg("probe failed")
		return false
	}
	defer resp.Body.Close()

	p.logger.Debug().Int("status", resp.StatusCode).Msg("probe response")
	return resp.StatusCode < 500
}
