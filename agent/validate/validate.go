// Package validate holds the pure slot validators. Each validator takes a raw
// candidate and reports a normalized value or rejection; none of them panic.
package validate

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	nameMinLen  = 2
	nameMaxLen  = 50
	titleMinLen = 3
	titleMaxLen = 100

	// Furthest-out meeting the assistant will book.
	datetimeHorizon = 365 * 24 * time.Hour
)

var namePattern = regexp.MustCompile(`^[A-Za-z\s\-']+$`)

// nameDenylist stops short affirmation/negation replies from being
// misclassified as a name.
var nameDenylist = map[string]struct{}{
	"yes":  {},
	"yeah": {},
	"yep":  {},
	"ok":   {},
	"okay": {},
	"no":   {},
	"nope": {},
	"sure": {},
}

// titleInjectionMarkers reject titles that try to masquerade as system or
// assistant instructions. Matched as case-insensitive substrings.
var titleInjectionMarkers = []string{
	"ignore previous",
	"system message",
	"assistant:",
	"user:",
}

// Name validates a candidate person name: trimmed, length within [2,50],
// characters limited to letters, spaces, hyphens, and apostrophes, and not a
// bare yes/no-style token.
func Name(raw string) (string, bool) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", false
	}

	n := utf8.RuneCountInString(name)
	if n < nameMinLen || n > nameMaxLen {
		return "", false
	}

	if !namePattern.MatchString(name) {
		return "", false
	}

	if _, denied := nameDenylist[strings.ToLower(name)]; denied {
		return "", false
	}

	return name, true
}

// MeetingTitle validates a candidate meeting title: trimmed, length within
// [3,100], and free of prompt-injection marker phrases.
func MeetingTitle(raw string) (string, bool) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", false
	}

	n := utf8.RuneCountInString(title)
	if n < titleMinLen || n > titleMaxLen {
		return "", false
	}

	lowered := strings.ToLower(title)
	for _, marker := range titleInjectionMarkers {
		if strings.Contains(lowered, marker) {
			return "", false
		}
	}

	return title, true
}

// MeetingDatetime validates a candidate meeting instant against the reference
// now: both must be real instants (the zero value, Go's stand-in for a naive
// or absent time, is rejected), the candidate must be strictly in the future,
// and no more than 365 days ahead.
func MeetingDatetime(candidate, now time.Time) (time.Time, bool) {
	if candidate.IsZero() || now.IsZero() {
		return time.Time{}, false
	}

	if !candidate.After(now) {
		return time.Time{}, false
	}

	if candidate.After(now.Add(datetimeHorizon)) {
		return time.Time{}, false
	}

	return candidate, true
}
