// Package auth provides credential storage and token refresh for the
// LiftLog API.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/liftlog/liftlog-cli/internal/config"
	"github.com/liftlog/liftlog-cli/internal/output"
)

// Manager owns the stored credential and serializes refresh attempts so
// that concurrent expiry observations trigger exactly one call to the
// refresh endpoint.
type Manager struct {
	cfg        *config.Config
	store      *Store
	httpClient *http.Client
	logger     zerolog.Logger

	refresh singleflight.Group
}

// NewManager creates a new auth manager.
func NewManager(cfg *config.Config, store *Store, httpClient *http.Client, logger zerolog.Logger) *Manager {
	if store == nil {
		store = NewStore(config.GlobalConfigDir())
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Manager{
		cfg:        cfg,
		store:      store,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (m *Manager) origin() string {
	return config.NormalizeBaseURL(m.cfg.BaseURL)
}

func (m *Manager) buffer() time.Duration {
	if m.cfg.RefreshBuffer > 0 {
		return m.cfg.RefreshBuffer
	}
	return DefaultRefreshBuffer
}

// Current returns the stored credentials without refreshing.
// If LIFTLOG_TOKEN is set, it is used directly without storage.
func (m *Manager) Current() (*Credentials, error) {
	if token := os.Getenv("LIFTLOG_TOKEN"); token != "" {
		return &Credentials{AccessToken: token}, nil
	}
	creds, err := m.store.Load(m.origin())
	if err != nil {
		return nil, output.ErrAuthExpired("Not authenticated")
	}
	return creds, nil
}

// IsAuthenticated checks if there are credentials to work with.
func (m *Manager) IsAuthenticated() bool {
	creds, err := m.Current()
	return err == nil && creds.AccessToken != ""
}

// EnsureFresh returns credentials usable for a request, refreshing first
// when the stored ones expire within the buffer. No network call happens
// for a still-fresh credential.
func (m *Manager) EnsureFresh(ctx context.Context) (*Credentials, error) {
	if token := os.Getenv("LIFTLOG_TOKEN"); token != "" {
		return &Credentials{AccessToken: token}, nil
	}

	creds, err := m.store.Load(m.origin())
	if err != nil {
		return nil, output.ErrAuthExpired("Not authenticated")
	}
	if !creds.Expired(m.buffer()) {
		return creds, nil
	}
	return m.sharedRefresh(ctx, creds)
}

// Refresh forces a token refresh. Concurrent callers share a single
// in-flight refresh call and its outcome.
func (m *Manager) Refresh(ctx context.Context) (*Credentials, error) {
	if os.Getenv("LIFTLOG_TOKEN") != "" {
		return nil, output.ErrAuthExpired("LIFTLOG_TOKEN is not refreshable")
	}

	creds, err := m.store.Load(m.origin())
	if err != nil {
		return nil, output.ErrAuthExpired("Not authenticated")
	}
	return m.sharedRefresh(ctx, creds)
}

// sharedRefresh funnels all refresh attempts for the origin through one
// single-flight call. Every caller that observes the in-flight refresh
// receives the same outcome; none retries independently.
func (m *Manager) sharedRefresh(ctx context.Context, observed *Credentials) (*Credentials, error) {
	v, err, shared := m.refresh.Do(m.origin(), func() (any, error) {
		// The refresh outlives any single caller: one request being
		// cancelled must not cancel the refresh other waiters depend on.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.requestTimeout())
		defer cancel()
		return m.doRefresh(rctx, observed)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		m.logger.Debug().Msg("refresh joined in-flight call")
	}
	return v.(*Credentials), nil
}

func (m *Manager) requestTimeout() time.Duration {
	if m.cfg.RequestTimeout > 0 {
		return m.cfg.RequestTimeout
	}
	return config.DefaultRequestTimeout
}

func (m *Manager) doRefresh(ctx context.Context, observed *Credentials) (*Credentials, error) {
	origin := m.origin()

	// Re-read under the single-flight guard: a refresh that completed just
	// before we were admitted already rotated the token.
	creds, err := m.store.Load(origin)
	if err != nil {
		return nil, output.ErrAuthExpired("Not authenticated")
	}
	if creds.AccessToken != observed.AccessToken && !creds.Expired(m.buffer()) {
		return creds, nil
	}

	if !creds.Refreshable() {
		// Without a refresh token, expiry forces a full re-login.
		_ = m.store.Delete(origin)
		return nil, output.ErrAuthExpired("No refresh token available")
	}

	m.logger.Debug().Str("origin", origin).Msg("refreshing access token")

	body, err := json.Marshal(map[string]string{"refresh_token": creds.RefreshToken})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, origin+"/auth/refresh", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		// Transient transport failure: keep the stored (expired) credential
		// so a later attempt can retry instead of forcing a re-login.
		return nil, output.ClassifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		cerr := output.Classify(resp.StatusCode, respBody)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			// Definitive rejection: the refresh token is no longer usable.
			_ = m.store.Delete(origin)
			if cerr.Kind != output.KindAuthExpired {
				cerr = output.ErrAuthExpired("Session expired")
			}
			m.logger.Debug().Int("status", resp.StatusCode).Msg("refresh rejected, credentials cleared")
			return nil, cerr
		}
		return nil, cerr
	}

	var tokenResp struct {
		AccessToken  string `json:"access_token"`
		TokenType    string `json:"token_type"`
		ExpiresIn    int64  `json:"expires_in"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, err
	}

	creds.AccessToken = tokenResp.AccessToken
	if tokenResp.RefreshToken != "" {
		creds.RefreshToken = tokenResp.RefreshToken
	}
	if tokenResp.ExpiresIn > 0 {
		creds.ExpiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second).UnixMilli()
	}

	if err := m.store.Save(origin, creds); err != nil {
		return nil, err
	}

	m.logger.Debug().Msg("access token refreshed")
	return creds, nil
}

// Login exchanges email/password for a token pair and persists it.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	origin := m.origin()

	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, origin+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return output.ClassifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		cerr := output.Classify(resp.StatusCode, respBody)
		if resp.StatusCode == http.StatusUnauthorized {
			// A login rejection is bad credentials, not an expired session.
			return output.ErrInvalidLogin()
		}
		return cerr
	}

	var tokenResp struct {
		AccessToken  string `json:"access_token"`
		TokenType    string `json:"token_type"`
		ExpiresIn    int64  `json:"expires_in"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return err
	}

	creds := &Credentials{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
	}
	if tokenResp.ExpiresIn > 0 {
		creds.ExpiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second).UnixMilli()
	}

	return m.store.Save(origin, creds)
}

// Logout removes stored credentials. Best-effort.
func (m *Manager) Logout() {
	_ = m.store.Delete(m.origin())
}

// Store returns the credential store.
func (m *Manager) Store() *Store {
	return m.store
}
