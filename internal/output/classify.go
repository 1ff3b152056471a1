package output

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// Classify maps an HTTP response status and body to a typed Error.
// It is a pure function: deterministic for the same input, no I/O.
//
//	401        -> AuthExpired (regardless of body)
//	422        -> Validation
//	>= 500     -> Server
//	other !2xx -> Unknown, carrying the server code/message when present
func Classify(status int, body []byte) *Error {
	code, message := parseErrorBody(body)

	switch {
	case status == http.StatusUnauthorized:
		return &Error{
			Kind:       KindAuthExpired,
			HTTPStatus: status,
			Code:       code,
			Message:    "Session expired",
			Hint:       "Run: liftlog auth login",
		}
	case status == http.StatusUnprocessableEntity:
		if message == "" {
			message = "Request rejected by server validation"
		}
		return &Error{
			Kind:       KindValidation,
			HTTPStatus: status,
			Code:       code,
			Message:    message,
		}
	case status >= 500:
		if message == "" {
			message = http.StatusText(status)
		}
		return &Error{
			Kind:       KindServer,
			HTTPStatus: status,
			Code:       code,
			Message:    message,
		}
	default:
		if message == "" {
			message = http.StatusText(status)
			if message == "" {
				message = "Request failed"
			}
		}
		return &Error{
			Kind:       KindUnknown,
			HTTPStatus: status,
			Code:       code,
			Message:    message,
		}
	}
}

// ClassifyTransport maps a transport-level failure (no HTTP response) to a
// typed Error. Deadline expiry and cancellation are Timeout; DNS failures,
// refused connections, and socket resets are Network; anything else is
// Unknown with the cause preserved for diagnostics.
func ClassifyTransport(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Kind: KindTimeout, Message: "Request timed out", Cause: err}
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &Error{Kind: KindTimeout, Message: "Request timed out", Cause: err}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{Kind: KindNetwork, Message: "DNS lookup failed", Cause: err}
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return &Error{Kind: KindNetwork, Message: "Connection failed", Cause: err}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &Error{Kind: KindNetwork, Message: "Connection failed", Cause: err}
	}

	return &Error{Kind: KindUnknown, Message: "Request failed", Cause: err}
}

// parseErrorBody extracts a server-provided error code and message from a
// response body. The API reports failures as {"code", "message"},
// {"error": ...}, or FastAPI-style {"detail": ...} where detail may be a
// string or a list of field errors.
func parseErrorBody(body []byte) (code, message string) {
	if len(body) == 0 {
		return "", ""
	}

	var payload struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
		Detail  json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", ""
	}

	code = payload.Code
	switch {
	case payload.Message != "":
		message = payload.Message
	case payload.Error != "":
		message = payload.Error
	case len(payload.Detail) > 0:
		message = parseDetail(payload.Detail)
	}
	return code, message
}

func parseDetail(detail json.RawMessage) string {
	var s string
	if err := json.Unmarshal(detail, &s); err == nil {
		return s
	}

	// Field-error list: report the messages joined.
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(detail, &items); err == nil {
		var msgs []string
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
