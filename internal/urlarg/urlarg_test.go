package urlarg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType string
		wantID   string
	}{
		{"workout url", "https://app.liftlog.fit/workouts/123", "workouts", "123"},
		{"exercise url", "https://app.liftlog.fit/exercises/45", "exercises", "45"},
		{"nested exercise", "https://app.liftlog.fit/workouts/123/exercises/45", "exercises", "45"},
		{"trailing slash", "https://app.liftlog.fit/workouts/123/", "workouts", "123"},
		{"query string", "https://app.liftlog.fit/workouts/123?tab=sets", "workouts", "123"},
		{"local dev", "http://localhost:3000/workouts/7", "workouts", "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Parse(tt.input)
			require.NotNil(t, p)
			assert.Equal(t, tt.wantType, p.Type)
			assert.Equal(t, tt.wantID, p.ID)
		})
	}
}

func TestParseRejects(t *testing.T) {
	for _, input := range []string{
		"123",
		"workouts/123",
		"https://app.liftlog.fit/settings",
		"https://app.liftlog.fit/workouts/abc",
		"not a url",
		"",
	} {
		assert.Nil(t, Parse(input), "input %q", input)
	}
}

func TestExtractID(t *testing.T) {
	assert.Equal(t, "123", ExtractID("https://app.liftlog.fit/workouts/123"))
	assert.Equal(t, "456", ExtractID("456"))
	assert.Equal(t, "bench press", ExtractID("bench press"))
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://app.liftlog.fit/workouts/123"))
	assert.False(t, IsURL("123"))
}
