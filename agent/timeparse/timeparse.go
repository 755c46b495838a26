// Package timeparse converts natural-language time phrases into absolute,
// zone-aware instants.
package timeparse

import (
	"regexp"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Parser resolves phrases like "tomorrow at 5pm", "next friday", or
// "in 2 hours" against a reference instant. Safe for concurrent use.
type Parser struct {
	w *when.Parser
}

func New() *Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Parser{w: w}
}

// clockOnlyPattern matches phrases that name a clock time and nothing else,
// like "5pm", "at 17:30", or "noon". Only these are ambiguous about which
// day is meant.
var clockOnlyPattern = regexp.MustCompile(`^(at\s+)?(noon|midday|midnight|\d{1,2}([:.]\d{2})?\s*(am|pm|o'clock)?)$`)

// Normalize resolves text against now in the given location. The result is
// always stamped with loc, never left ambiguous. A clock-only phrase that
// resolves into the past (say "5am" spoken at 9am) names no day, so it is
// biased toward the next future occurrence by rolling forward one day. A
// phrase that does name a day and still lands in the past was explicitly
// past and fails instead of being rewritten. Underlying parser faults are
// converted to a plain no-match outcome; this function never panics outward.
func (p *Parser) Normalize(text string, now time.Time, loc *time.Location) (result time.Time, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			result, ok = time.Time{}, false
		}
	}()

	text = strings.TrimSpace(text)
	if text == "" || loc == nil || now.IsZero() {
		return time.Time{}, false
	}

	base := now.In(loc)
	res, err := p.w.Parse(text, base)
	if err != nil || res == nil {
		return time.Time{}, false
	}

	out := res.Time.In(loc)
	if !out.After(base) {
		if !clockOnly(res.Text) {
			return time.Time{}, false
		}
		out = out.Add(24 * time.Hour)
	}
	if !out.After(base) {
		return time.Time{}, false
	}

	return out, true
}

func clockOnly(matched string) bool {
	return clockOnlyPattern.MatchString(strings.ToLower(strings.TrimSpace(matched)))
}
