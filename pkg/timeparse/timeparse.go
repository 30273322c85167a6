// Package timeparse turns a free-text delivery time ("in 2 hours", "tomorrow
// 9am", "2026-11-01 18:30") into an absolute moment in the future.
package timeparse

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/textremind/pkg/domain"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// DisplayLayout is the layout used to echo a parsed time back to the user.
const DisplayLayout = "Monday, January 2, 2006 3:04 PM MST"

var layouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Parser resolves delivery times relative to a reference moment.
type Parser struct {
	w *when.Parser
}

// New creates a parser with the English and common rule sets.
func New() *Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Parser{w: w}
}

// Future resolves text to a moment strictly after now.
// Time-of-day expressions that already passed today roll over to tomorrow.
func (p *Parser) Future(text string, now time.Time) (time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, domain.ErrUnparseableTime
	}

	if t, ok := parseAbsolute(text, now.Location()); ok {
		if !t.After(now) {
			return time.Time{}, fmt.Errorf("%w: %s", domain.ErrPastTime, t.Format(DisplayLayout))
		}
		return t, nil
	}

	r, err := p.w.Parse(text, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", domain.ErrUnparseableTime, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("%w: %q", domain.ErrUnparseableTime, text)
	}
	if r.Time.After(now) {
		return r.Time, nil
	}

	// Only a time of day moves along with the reference date.
	tomorrow := now.Add(24 * time.Hour)
	r2, err := p.w.Parse(text, tomorrow)
	if err == nil && r2 != nil && r2.Time.Equal(r.Time.Add(24*time.Hour)) && r2.Time.After(now) {
		return r2.Time, nil
	}
	return time.Time{}, fmt.Errorf("%w: %s", domain.ErrPastTime, r.Time.Format(DisplayLayout))
}

// Valid reports whether text resolves to a future moment.
func (p *Parser) Valid(text string, now time.Time) bool {
	_, err := p.Future(text, now)
	return err == nil
}

// Unix returns the resolved moment as unix seconds, the wire format of the
// schedule endpoint.
func (p *Parser) Unix(text string, now time.Time) (string, error) {
	t, err := p.Future(text, now)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(t.Unix(), 10), nil
}

func parseAbsolute(text string, loc *time.Location) (time.Time, bool) {
	if isDigits(text) && len(text) >= 9 {
		secs, err := strconv.ParseInt(text, 10, 64)
		if err == nil {
			return time.Unix(secs, 0).In(loc), true
		}
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
