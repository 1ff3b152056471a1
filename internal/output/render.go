package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/itchyny/gojq"
	"gopkg.in/yaml.v3"
)

// Format selects the output rendering for response payloads.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatRaw  Format = "raw"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatYAML, FormatRaw:
		return Format(s), nil
	case "":
		return FormatJSON, nil
	default:
		return "", ErrUsage(fmt.Sprintf("Unknown format %q (use json, yaml, or raw)", s))
	}
}

// Render writes data to w in the requested format. Empty data renders
// nothing, so 204 responses stay silent.
func Render(w io.Writer, data json.RawMessage, format Format) error {
	if len(data) == 0 {
		return nil
	}

	switch format {
	case FormatRaw:
		_, err := w.Write(append(data, '\n'))
		return err
	case FormatYAML:
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		return yaml.NewEncoder(w).Encode(v)
	default:
		var buf any
		if err := json.Unmarshal(data, &buf); err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(buf)
	}
}

// ApplyFilter runs a jq expression over data and returns the JSON-encoded
// results, one per line.
func ApplyFilter(filter string, data json.RawMessage) ([]json.RawMessage, error) {
	query, err := gojq.Parse(filter)
	if err != nil {
		return nil, ErrUsageHint("Invalid jq filter", err.Error())
	}

	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}

	var results []json.RawMessage
	iter := query.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return nil, ErrUsageHint("jq filter failed", err.Error())
		}
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		results = append(results, encoded)
	}
	return results, nil
}

// RenderFiltered applies an optional jq filter and renders the results.
func RenderFiltered(w io.Writer, data json.RawMessage, format Format, filter string) error {
	if filter == "" {
		return Render(w, data, format)
	}
	results, err := ApplyFilter(filter, data)
	if err != nil {
		return err
	}
	for _, r := range results {
		if err := Render(w, r, format); err != nil {
			return err
		}
	}
	return nil
}
