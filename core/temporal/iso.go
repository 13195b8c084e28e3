package temporal

import (
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/asaidimu/go-sieve/core/interval"
)

var isoPattern = regexp.MustCompile(`^(\d{4})` +
	`(?:-(\d{1,2})` +
	`(?:-(\d{1,2})` +
	`(?:[T ](\d{1,2})` +
	`(?::(\d{2})` +
	`(?::(\d{2})` +
	`(?:[.,](\d{1,9}))?)?)?)?)?)?` +
	`\s*(Z|[+-]\d{2}(?::?\d{2})?)?$`)

// parseISO parses a possibly truncated ISO-8601 value and expands it to the
// full period described by its least significant component.
func parseISO(token string, location *time.Location) (interval.Range[time.Time], bool) {
	m := isoPattern.FindStringSubmatch(token)
	if m == nil {
		return interval.Range[time.Time]{}, false
	}

	loc := location
	if m[8] != "" {
		zone, ok := parseOffset(m[8])
		if !ok {
			return interval.Range[time.Time]{}, false
		}
		loc = zone
	}

	year, _ := strconv.Atoi(m[1])
	month, day, hour, minute, second, nanos := 1, 1, 0, 0, 0, 0
	precision := 0
	for i, target := range []*int{&month, &day, &hour, &minute, &second} {
		if m[i+2] == "" {
			break
		}
		*target, _ = strconv.Atoi(m[i+2])
		precision = i + 1
	}
	var fraction time.Duration
	if m[7] != "" {
		digits := len(m[7])
		n, _ := strconv.Atoi(m[7])
		unit := int(math.Pow10(9 - digits))
		nanos = n * unit
		fraction = time.Duration(unit)
		precision = 6
	}

	start := time.Date(year, time.Month(month), day, hour, minute, second, nanos, loc)
	if start.Month() != time.Month(month) || start.Day() != day || start.Hour() != hour ||
		start.Minute() != minute || start.Second() != second {
		return interval.Range[time.Time]{}, false
	}

	var end time.Time
	switch precision {
	case 0:
		end = start.AddDate(1, 0, 0)
	case 1:
		end = start.AddDate(0, 1, 0)
	case 2:
		end = start.AddDate(0, 0, 1)
	case 3:
		end = start.Add(time.Hour)
	case 4:
		end = start.Add(time.Minute)
	case 5:
		end = start.Add(time.Second)
	default:
		end = start.Add(fraction)
	}
	return interval.New(start, end), true
}

func parseOffset(s string) (*time.Location, bool) {
	if s == "Z" {
		return time.UTC, true
	}
	sign := 1
	if s[0] == '-' {
		sign = -1
	}
	digits := make([]byte, 0, 4)
	for i := 1; i < len(s); i++ {
		if s[i] != ':' {
			digits = append(digits, s[i])
		}
	}
	hours, err := strconv.Atoi(string(digits[:2]))
	if err != nil || hours > 23 {
		return nil, false
	}
	minutes := 0
	if len(digits) == 4 {
		if minutes, err = strconv.Atoi(string(digits[2:])); err != nil || minutes > 59 {
			return nil, false
		}
	}
	offset := sign * (hours*3600 + minutes*60)
	if offset == 0 {
		return time.UTC, true
	}
	return time.FixedZone("", offset), true
}
