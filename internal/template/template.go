// Package template renders the outbound SMS text from a contact's stored
// message template and a concrete meeting date and time.
package template

import (
	"regexp"
	"strings"
	"time"

	"meetremind/internal/domain"
)

// Branch reports which substitution strategy applied.
type Branch int

const (
	// NoMatch means the template carried no recognizable placeholder and
	// was returned unchanged. This is not an error.
	NoMatch Branch = iota
	// MatchedPattern means date- and time-shaped text was replaced.
	MatchedPattern
	// MatchedLiteral means the literal dd.MM.yyyy / HH:mm tokens were
	// replaced.
	MatchedLiteral
)

var (
	datePattern = regexp.MustCompile(`(0[1-9]|[12][0-9]|3[01])\.(0[1-9]|1[0-2])\.(\d{4})`)
	timePattern = regexp.MustCompile(`(0[0-9]|1[0-9]|2[0-3]):(0[0-9]|[1-5][0-9])`)
)

const (
	literalDateToken = "dd.MM.yyyy"
	literalTimeToken = "HH:mm"
)

// Render substitutes date (yyyy-MM-dd, rendered as dd.MM.yyyy) and time
// (HH:mm) into the template. Pure function; malformed input degrades to
// the unchanged template.
func Render(tmpl, date, tm string) string {
	out, _ := RenderWithBranch(tmpl, date, tm)
	return out
}

// RenderWithBranch is Render plus the strategy that was taken. Strategies
// are attempted in order, first match wins:
//
//  1. the template contains both date-shaped and time-shaped text: every
//     such occurrence is replaced,
//  2. the template contains both literal placeholder tokens: those are
//     replaced,
//  3. otherwise the template passes through unchanged.
//
// A template holding an unrelated number that happens to look like a date
// or time is altered too; that is an accepted trait of pattern-based
// substitution.
func RenderWithBranch(tmpl, date, tm string) (string, Branch) {
	parsed, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		return tmpl, NoMatch
	}
	display := parsed.Format(domain.DisplayDateLayout)

	switch {
	case datePattern.MatchString(tmpl) && timePattern.MatchString(tmpl):
		out := datePattern.ReplaceAllString(tmpl, display)
		out = timePattern.ReplaceAllString(out, tm)
		return out, MatchedPattern
	case strings.Contains(tmpl, literalDateToken) && strings.Contains(tmpl, literalTimeToken):
		out := strings.ReplaceAll(tmpl, literalDateToken, display)
		out = strings.ReplaceAll(out, literalTimeToken, tm)
		return out, MatchedLiteral
	default:
		return tmpl, NoMatch
	}
}
