package temporal

import (
	"regexp"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules"
	"github.com/olebedev/when/rules/en"

	"github.com/asaidimu/go-sieve/core/interval"
)

var phraseSeparator = regexp.MustCompile(`(?i)\s+(?:to|until|till)\s+`)

// naturalParser resolves free-text expressions relative to a reference
// instant. A phrase may name an explicit end ("last week to yesterday"); when
// it does not, the range ends exactly at the reference instant, even if the
// start lies in the future.
type naturalParser struct {
	w *when.Parser
}

// relativeRules recognise expressions anchored at the reference instant.
// Absolute forms such as "03/04/2020" or "March 3" are left to the fallback
// parser, which expands them by their precision.
var relativeRules = []rules.Rule{
	en.Weekday(rules.Override),
	en.CasualDate(rules.Override),
	en.CasualTime(rules.Override),
	en.Deadline(rules.Override),
	en.PastTime(rules.Override),
}

func newNaturalParser() *naturalParser {
	w := when.New(nil)
	w.Add(relativeRules...)
	return &naturalParser{w: w}
}

func (n *naturalParser) parse(token string, now time.Time) (interval.Range[time.Time], bool) {
	startPhrase, endPhrase := token, ""
	if loc := phraseSeparator.FindStringIndex(token); loc != nil {
		startPhrase, endPhrase = token[:loc[0]], token[loc[1]:]
	}

	start, ok := n.resolve(startPhrase, now)
	if !ok {
		return interval.Range[time.Time]{}, false
	}
	if strings.TrimSpace(endPhrase) == "" {
		return interval.New(start, now), true
	}
	end, ok := n.resolve(endPhrase, now)
	if !ok {
		return interval.Range[time.Time]{}, false
	}
	return interval.New(start, end), true
}

// resolve requires the recognised expression to cover the whole phrase so
// that partially understood input falls through to the next strategy.
func (n *naturalParser) resolve(phrase string, now time.Time) (time.Time, bool) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return time.Time{}, false
	}
	r, err := n.w.Parse(phrase, now)
	if err != nil || r == nil {
		return time.Time{}, false
	}
	if strings.TrimSpace(phrase[:r.Index]) != "" {
		return time.Time{}, false
	}
	if rest := r.Index + len(r.Text); rest < len(phrase) && strings.TrimSpace(phrase[rest:]) != "" {
		return time.Time{}, false
	}
	return r.Time, true
}
