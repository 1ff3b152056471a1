package output

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyStatusTable(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   Kind
	}{
		{"401 is auth expired", 401, "", KindAuthExpired},
		{"401 ignores body content", 401, `{"message":"totally fine"}`, KindAuthExpired},
		{"422 is validation", 422, `{"detail":"name must not be empty"}`, KindValidation},
		{"500 is server", 500, "", KindServer},
		{"503 is server", 503, "", KindServer},
		{"404 is unknown", 404, "", KindUnknown},
		{"418 is unknown", 418, "", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Classify(tt.status, []byte(tt.body))
			require.NotNil(t, err)
			assert.Equal(t, tt.want, err.Kind)
			assert.Equal(t, tt.status, err.HTTPStatus)
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	a := Classify(503, []byte(`{"message":"try later"}`))
	b := Classify(503, []byte(`{"message":"try later"}`))
	assert.Equal(t, a.Kind, b.Kind)
	assert.Equal(t, a.Message, b.Message)
	assert.Equal(t, a.Code, b.Code)
}

func TestClassifyServerProvidedCodeAndMessage(t *testing.T) {
	err := Classify(409, []byte(`{"code":"conflict","message":"workout already exists"}`))
	assert.Equal(t, KindUnknown, err.Kind)
	assert.Equal(t, "conflict", err.Code)
	assert.Equal(t, "workout already exists", err.Message)
}

func TestClassifyFallsBackToStatusText(t *testing.T) {
	err := Classify(404, nil)
	assert.Equal(t, "Not Found", err.Message)

	err = Classify(404, []byte(`not json at all`))
	assert.Equal(t, "Not Found", err.Message)
}

func TestClassifyValidationDetailList(t *testing.T) {
	body := `{"detail":[{"msg":"field required"},{"msg":"value too long"}]}`
	err := Classify(422, []byte(body))
	assert.Equal(t, KindValidation, err.Kind)
	assert.Equal(t, "field required; value too long", err.Message)
}

func TestClassifyTransportTimeout(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"deadline exceeded", context.DeadlineExceeded},
		{"cancellation", context.Canceled},
		{"wrapped deadline", fmt.Errorf("request: %w", context.DeadlineExceeded)},
		{"url timeout", &url.Error{Op: "Get", URL: "https://api.liftlog.fit", Err: timeoutError{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cerr := ClassifyTransport(tt.err)
			assert.Equal(t, KindTimeout, cerr.Kind)
			assert.ErrorIs(t, cerr, tt.err)
		})
	}
}

func TestClassifyTransportNetwork(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"dns failure", &net.DNSError{Err: "no such host", Name: "api.liftlog.fit"}},
		{"connection refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}},
		{"connection reset", &net.OpError{Op: "read", Err: syscall.ECONNRESET}},
		{"wrapped in url error", &url.Error{Op: "Get", URL: "x", Err: &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cerr := ClassifyTransport(tt.err)
			assert.Equal(t, KindNetwork, cerr.Kind)
		})
	}
}

func TestClassifyTransportUnknownPreservesCause(t *testing.T) {
	cause := errors.New("something odd")
	cerr := ClassifyTransport(cause)
	assert.Equal(t, KindUnknown, cerr.Kind)
	assert.ErrorIs(t, cerr, cause)
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, ExitValidation},
		{KindAuthExpired, ExitAuth},
		{KindNetwork, ExitNetwork},
		{KindTimeout, ExitTimeout},
		{KindServer, ExitServer},
		{KindUnknown, ExitUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExitCodeFor(tt.kind), "kind %s", tt.kind)
	}
}

func TestRetryable(t *testing.T) {
	assert.True(t, (&Error{Kind: KindNetwork}).Retryable())
	assert.True(t, (&Error{Kind: KindTimeout}).Retryable())
	assert.True(t, (&Error{Kind: KindServer}).Retryable())
	assert.False(t, (&Error{Kind: KindAuthExpired}).Retryable())
	assert.False(t, (&Error{Kind: KindValidation}).Retryable())
	assert.False(t, (&Error{Kind: KindUnknown}).Retryable())
}

func TestAsError(t *testing.T) {
	orig := &Error{Kind: KindServer, Message: "boom"}
	assert.Same(t, orig, AsError(orig))
	assert.Same(t, orig, AsError(fmt.Errorf("wrapped: %w", orig)))

	converted := AsError(errors.New("plain"))
	assert.Equal(t, KindUnknown, converted.Kind)
	assert.Equal(t, "plain", converted.Message)
}

// timeoutError implements net.Error with Timeout() == true.
type timeoutError struct{}

func (timeoutError) Error() string   { return "timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }
