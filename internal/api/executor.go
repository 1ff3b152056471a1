package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/liftlog/liftlog-cli/internal/output"
	"github.com/liftlog/liftlog-cli/internal/version"
)

// Response wraps an API response.
type Response struct {
	Data       json.RawMessage
	StatusCode int
	Headers    http.Header
}

// UnmarshalData unmarshals the response data into the given value.
// A 204 or empty-body response leaves v untouched.
func (r *Response) UnmarshalData(v any) error {
	if len(r.Data) == 0 {
		return nil
	}
	return json.Unmarshal(r.Data, v)
}

// Executor sends one HTTP request with a bounded timeout and interprets the
// response or failure through the classifier. It never retries; retry
// policy lives one level up in Client.
type Executor struct {
	httpClient *http.Client
	timeout    time.Duration
	logger     zerolog.Logger
}

// NewExecutor creates a request executor with the given per-request timeout.
func NewExecutor(httpClient *http.Client, timeout time.Duration, logger zerolog.Logger) *Executor {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Executor{
		httpClient: httpClient,
		timeout:    timeout,
		logger:     logger,
	}
}

// Do executes a single request. The bearer header is attached only when a
// token is supplied. Non-2xx statuses and transport failures come back as
// classified *output.Error values.
func (e *Executor) Do(ctx context.Context, method, url string, body any, token string) (*Response, error) {
	rctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		bodyReader = strings.NewReader(string(bodyBytes))
	}

	req, err := http.NewRequestWithContext(rctx, method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	e.logger.Debug().Str("method", method).Str("url", url).Msg("request")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, output.ClassifyTransport(err)
	}
	defer resp.Body.Close()

	e.logger.Debug().Int("status", resp.StatusCode).Msg("response")

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, output.ClassifyTransport(err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		// 204 and empty bodies yield an empty decoded value; no JSON parse.
		if resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
			return &Response{StatusCode: resp.StatusCode, Headers: resp.Header}, nil
		}
		return &Response{
			Data:       respBody,
			StatusCode: resp.StatusCode,
			Headers:    resp.Header,
		}, nil
	}

	return nil, output.Classify(resp.StatusCode, respBody)
}
