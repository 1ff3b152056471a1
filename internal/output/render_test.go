package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	for _, valid := range []string{"json", "yaml", "raw"} {
		f, err := ParseFormat(valid)
		require.NoError(t, err)
		assert.Equal(t, Format(valid), f)
	}

	_, err = ParseFormat("xml")
	require.Error(t, err)
	assert.Equal(t, ExitUnknown, AsError(err).ExitCode())
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, json.RawMessage(`{"id":1,"title":"Leg day"}`), FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"title": "Leg day"`)
}

func TestRenderYAML(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, json.RawMessage(`{"id":1,"title":"Leg day"}`), FormatYAML)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "title: Leg day")
}

func TestRenderRaw(t *testing.T) {
	var buf bytes.Buffer
	data := json.RawMessage(`{"id":1}`)
	err := Render(&buf, data, FormatRaw)
	require.NoError(t, err)
	assert.Equal(t, `{"id":1}`+"\n", buf.String())
}

func TestRenderEmptyDataIsSilent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, nil, FormatJSON))
	assert.Empty(t, buf.String())
}

func TestApplyFilter(t *testing.T) {
	data := json.RawMessage(`[{"id":1,"title":"a"},{"id":2,"title":"b"}]`)

	results, err := ApplyFilter(".[] | .id", data)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "1", string(results[0]))
	assert.Equal(t, "2", string(results[1]))
}

func TestApplyFilterInvalid(t *testing.T) {
	_, err := ApplyFilter(".[", json.RawMessage(`[]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid jq filter")
}

func TestRenderFiltered(t *testing.T) {
	var buf bytes.Buffer
	data := json.RawMessage(`[{"id":1},{"id":2}]`)
	err := RenderFiltered(&buf, data, FormatRaw, ".[] | .id")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{"1", "2"}, lines)
}
