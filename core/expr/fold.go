package expr

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Fold normalizes s to NFC and upper-cases it using the rules of tag. Both
// sides of a case-insensitive Text match are folded this way.
func Fold(s string, tag language.Tag) string {
	return cases.Upper(tag).String(norm.NFC.String(s))
}
