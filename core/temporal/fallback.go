package temporal

import (
	"regexp"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/text/language"

	"github.com/asaidimu/go-sieve/core/interval"
)

// dottedDate matches the numeric day.month.year form used by day-first
// cultures, e.g. "15.06.2020".
var dottedDate = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{2,4})\b`)

// monthFirstRegions write numeric dates month first.
var monthFirstRegions = map[string]bool{
	"US": true, "PH": true, "FM": true, "MH": true, "PW": true,
	"GU": true, "AS": true, "MP": true, "VI": true, "PR": true, "UM": true,
}

// monthFirst reports whether culture reads "03/04/2020" as March 4. The
// undetermined culture follows dateparse's month-first default.
func monthFirst(culture language.Tag) bool {
	if culture == language.Und {
		return true
	}
	region, _ := culture.Region()
	return monthFirstRegions[region.String()]
}

// parseFallback accepts any format dateparse understands and infers the
// precision of the value from its trailing components. Ambiguous numeric
// dates are read in the culture's day/month order.
func parseFallback(token string, location *time.Location, culture language.Tag) (interval.Range[time.Time], bool) {
	preferMonthFirst := monthFirst(culture)
	if !preferMonthFirst {
		// dateparse reads dotted dates month first regardless of preference.
		token = dottedDate.ReplaceAllString(token, "$1/$2/$3")
	}
	start, err := dateparse.ParseIn(token, location, dateparse.PreferMonthFirst(preferMonthFirst))
	if err != nil {
		return interval.Range[time.Time]{}, false
	}
	return interval.New(start, expand(start)), true
}

func expand(t time.Time) time.Time {
	switch {
	case t.Second() != 0:
		return t.Add(time.Second)
	case t.Minute() != 0:
		return t.Add(time.Minute)
	case t.Hour() != 0:
		return t.Add(time.Hour)
	case t.Day() != 1:
		return t.AddDate(0, 0, 1)
	case t.Month() != time.January:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(1, 0, 0)
	}
}
