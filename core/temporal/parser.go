// Package temporal converts a textual date/time token into a closed-open time
// range. Four strategies are attempted in a fixed order and the first one to
// succeed wins:
//
//  1. explicit ranges such as "2020-06-15_2020-06-20",
//  2. partial ISO-8601 values such as "2020", "2020-06" or "2020-06-15T10:30Z",
//     expanded to their enclosing period,
//  3. natural-language expressions such as "5 days ago" or "yesterday to today",
//     resolved relative to the parser's reference instant,
//  4. a locale-aware generic parse of the whole token, expanded by the
//     precision of the parsed value.
package temporal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/asaidimu/go-sieve/core/interval"
)

// ErrUnparseable is returned when no strategy can interpret a token.
var ErrUnparseable = errors.New("unparseable date/time expression")

// RangeSeparator separates the two sides of an explicit range.
const RangeSeparator = "_"

// Parser resolves date/time tokens. The zero value is not usable; create one
// with NewParser.
type Parser struct {
	now      func() time.Time
	location *time.Location
	culture  language.Tag
	natural  *naturalParser
}

// NewParser creates a parser. A nil now defaults to time.Now and a nil
// location defaults to time.Local. The culture decides the day/month order
// of ambiguous numeric dates in the fallback step.
func NewParser(now func() time.Time, location *time.Location, culture language.Tag) *Parser {
	if now == nil {
		now = time.Now
	}
	if location == nil {
		location = time.Local
	}
	return &Parser{
		now:      now,
		location: location,
		culture:  culture,
		natural:  newNaturalParser(),
	}
}

// Parse converts token into a range. The reference instant is sampled once
// per call.
func (p *Parser) Parse(token string) (interval.Range[time.Time], error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return interval.Range[time.Time]{}, fmt.Errorf("empty token: %w", ErrUnparseable)
	}
	now := p.now().In(p.location)

	if r, ok := p.parseExplicitRange(token, now); ok {
		return r, nil
	}
	if r, ok := p.parseSingle(token, now); ok {
		return r, nil
	}
	return interval.Range[time.Time]{}, fmt.Errorf("%q: %w", token, ErrUnparseable)
}

// parseSingle runs strategies 2 to 4 on a token that is not an explicit range.
func (p *Parser) parseSingle(token string, now time.Time) (interval.Range[time.Time], bool) {
	if r, ok := parseISO(token, p.location); ok {
		return r, true
	}
	if r, ok := p.natural.parse(token, now); ok {
		return r, true
	}
	if r, ok := parseFallback(token, p.location, p.culture); ok {
		return r, true
	}
	return interval.Range[time.Time]{}, false
}

// parseExplicitRange handles "<start>_<end>". Both sides must parse; the
// result spans from the start of the first to the end of the second.
func (p *Parser) parseExplicitRange(token string, now time.Time) (interval.Range[time.Time], bool) {
	parts := strings.Split(token, RangeSeparator)
	if len(parts) != 2 {
		return interval.Range[time.Time]{}, false
	}
	start, ok := p.parseSingle(strings.TrimSpace(parts[0]), now)
	if !ok || start.Start == nil {
		return interval.Range[time.Time]{}, false
	}
	end, ok := p.parseSingle(strings.TrimSpace(parts[1]), now)
	if !ok || end.End == nil {
		return interval.Range[time.Time]{}, false
	}
	return interval.Range[time.Time]{Start: start.Start, End: end.End}, true
}
