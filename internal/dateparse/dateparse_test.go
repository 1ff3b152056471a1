package dateparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Wednesday 2026-08-19.
var ref = time.Date(2026, 8, 19, 14, 30, 0, 0, time.UTC)

func TestParseFrom(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"today", "2026-08-19"},
		{"yesterday", "2026-08-18"},
		{"last week", "2026-08-12"},
		{"last month", "2026-07-19"},
		{"monday", "2026-08-17"},
		{"last monday", "2026-08-17"},
		{"wednesday", "2026-08-12"}, // same weekday means a full week back
		{"fri", "2026-08-14"},
		{"-3", "2026-08-16"},
		{"-0", "2026-08-19"},
		{"3 days ago", "2026-08-16"},
		{"1 day ago", "2026-08-18"},
		{"2 weeks ago", "2026-08-05"},
		{"2w ago", "2026-08-05"},
		{"2026-01-15", "2026-01-15"},
		{"  Yesterday  ", "2026-08-18"},
		{"garbage", "garbage"},
		{"-abc", "-abc"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFrom(tt.input, ref))
		})
	}
}

func TestParseUsesCurrentTime(t *testing.T) {
	assert.Equal(t, time.Now().Format("2006-01-02"), Parse("today"))
}
