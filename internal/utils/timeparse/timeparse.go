// Package timeparse turns user input into a giveaway end time.
package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sho0pi/naturaltime"

	apperrors "github.com/open-builders/giveaway-discord-bot/internal/common/errors"
)

const day = 24 * time.Hour

// MaxAhead bounds how far in the future an end time may be.
const MaxAhead = 5 * 365 * day

var (
	unitDuration = regexp.MustCompile(`^(?:\d+\s*[wdhms]\s*)+$`)
	unitPart     = regexp.MustCompile(`(\d+)\s*([wdhms])`)
)

var units = map[string]time.Duration{
	"w": 7 * day,
	"d": day,
	"h": time.Hour,
	"m": time.Minute,
	"s": time.Second,
}

// Parser accepts, in order: unix seconds, a unit duration such as "1w2d"
// or "90m", natural language ("next friday at 18:00"), and Go durations.
type Parser struct {
	natural *naturaltime.Parser
}

func New() (*Parser, error) {
	p, err := naturaltime.New()
	if err != nil {
		return nil, err
	}
	return &Parser{natural: p}, nil
}

// Parse resolves input against now. Times that are not after now are rejected.
func (p *Parser) Parse(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, apperrors.NewValidationError("end", "must not be empty")
	}

	t, ok := p.resolve(strings.ToLower(input), now)
	if !ok {
		return time.Time{}, apperrors.NewValidationError("end", "could not parse time "+strconv.Quote(input))
	}
	if !t.After(now) {
		return time.Time{}, apperrors.NewValidationError("end", "must be in the future")
	}
	if t.After(now.Add(MaxAhead)) {
		return time.Time{}, apperrors.NewValidationError("end", "must be within 5 years")
	}
	return t, nil
}

func (p *Parser) resolve(input string, now time.Time) (time.Time, bool) {
	if secs, err := strconv.ParseInt(input, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), true
	}
	if d, ok := ParseUnits(input); ok {
		return now.Add(d), true
	}
	if p.natural != nil {
		if t, err := p.natural.ParseDate(input, now); err == nil && t != nil {
			return *t, true
		}
	}
	if d, err := time.ParseDuration(input); err == nil {
		return now.Add(d), true
	}
	return time.Time{}, false
}

// ParseUnits parses durations written with w/d/h/m/s units, e.g. "1w 2d".
// Totals above MaxAhead are rejected.
func ParseUnits(input string) (time.Duration, bool) {
	input = strings.ToLower(strings.TrimSpace(input))
	if !unitDuration.MatchString(input) {
		return 0, false
	}
	var total time.Duration
	for _, m := range unitPart.FindAllStringSubmatch(input, -1) {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, false
		}
		unit := units[m[2]]
		if n > int64(MaxAhead/unit) {
			return 0, false
		}
		total += time.Duration(n) * unit
		if total > MaxAhead {
			return 0, false
		}
	}
	return total, true
}
