// Package urlarg parses LiftLog web app URLs into resource IDs.
// This allows users to paste URLs from the browser as command arguments.
package urlarg

import (
	"net/url"
	"regexp"
	"strings"
)

// Parsed represents components extracted from a LiftLog URL.
type Parsed struct {
	Type string // "workouts" or "exercises"
	ID   string
}

// Matches /workouts/123, /exercises/45, and the nested
// /workouts/123/exercises/45 form (the last segment pair wins).
var pathPattern = regexp.MustCompile(`/(workouts|exercises)/(\d+)\b`)

// IsURL reports whether the input looks like a LiftLog app or API URL.
func IsURL(input string) bool {
	return Parse(input) != nil
}

// Parse extracts the resource type and ID from a LiftLog URL.
// Returns nil if the input is not a URL or carries no recognizable resource.
func Parse(input string) *Parsed {
	if !strings.HasPrefix(input, "http://") && !strings.HasPrefix(input, "https://") {
		return nil
	}
	u, err := url.Parse(input)
	if err != nil {
		return nil
	}

	matches := pathPattern.FindAllStringSubmatch(u.Path, -1)
	if len(matches) == 0 {
		return nil
	}
	last := matches[len(matches)-1]
	return &Parsed{Type: last[1], ID: last[2]}
}

// ExtractID extracts the primary ID from an argument. URLs yield their
// resource ID; anything else is returned as-is and assumed to be an ID.
func ExtractID(arg string) string {
	if parsed := Parse(arg); parsed != nil {
		return parsed.ID
	}
	return arg
}
