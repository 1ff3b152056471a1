// Package output provides the client error taxonomy, HTTP failure
// classification, and JSON/YAML output rendering for the CLI.
package output

// Kind categorizes a client failure for upstream retry/offline decisions.
type Kind string

const (
	KindNetwork     Kind = "network"
	KindTimeout     Kind = "timeout"
	KindAuthExpired Kind = "auth_expired"
	KindValidation  Kind = "validation"
	KindServer      Kind = "server"
	KindUnknown     Kind = "unknown"
)

// Exit codes by failure kind, plus usage errors.
const (
	ExitOK         = 0 // Success
	ExitUsage      = 1 // Invalid arguments or flags
	ExitValidation = 2 // Server rejected the request body (422)
	ExitAuth       = 3 // Session expired, login required
	ExitNetwork    = 4 // Connection/DNS failure
	ExitTimeout    = 5 // Request deadline exceeded
	ExitServer     = 6 // Server error (5xx)
	ExitUnknown    = 7 // Anything else
)

// ExitCodeFor returns the exit code for a failure kind.
func ExitCodeFor(kind Kind) int {
	switch kind {
	case KindValidation:
		return ExitValidation
	case KindAuthExpired:
		return ExitAuth
	case KindNetwork:
		return ExitNetwork
	case KindTimeout:
		return ExitTimeout
	case KindServer:
		return ExitServer
	default:
		return ExitUnknown
	}
}
