package timeparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/open-builders/giveaway-discord-bot/internal/common/errors"
)

var now = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func TestParseUnits(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"90m", 90 * time.Minute, true},
		{"1w2d", 9 * 24 * time.Hour, true},
		{"1d 12h", 36 * time.Hour, true},
		{"30S", 30 * time.Second, true},
		{"1y", 0, false},
		{"h", 0, false},
		{"", 0, false},
		{"260w", 260 * 7 * 24 * time.Hour, true},
		{"261w", 0, false},
		{"99999999999w", 0, false},
		{"99999999999999999999s", 0, false},
		{"260w 260w", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseUnits(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse(t *testing.T) {
	p := &Parser{}

	got, err := p.Parse("2h", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(2*time.Hour), got)

	future := now.Add(48 * time.Hour).Unix()
	got, err = p.Parse(" 1778061600 ", now)
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1778061600, 0).UTC(), got)
	assert.Equal(t, future, got.Unix())

	got, err = p.Parse("1h30m", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(90*time.Minute), got)
}

func TestParseRejects(t *testing.T) {
	p := &Parser{}
	for _, in := range []string{"", "soon-ish", "0", "0s", "1000", "99999999999w", "9223372036854775807", "2000000h"} {
		_, err := p.Parse(in, now)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation), in)
	}
}
