package expr

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
)

// Format renders a predicate as a compact, deterministic string, e.g.
//
//	(Name CONTAINS^ "JO" OR Age >= 30)
//
// A caret after a text operator marks a case-folded match.
func Format(p Predicate) string {
	var b strings.Builder
	format(&b, p)
	return b.String()
}

func format(b *strings.Builder, p Predicate) {
	switch n := p.(type) {
	case nil:
		b.WriteString("<nil>")
	case Const:
		b.WriteString(strings.ToUpper(strconv.FormatBool(n.Value)))
	case And:
		formatList(b, n.Predicates, " AND ", "TRUE")
	case Or:
		formatList(b, n.Predicates, " OR ", "FALSE")
	case Not:
		b.WriteString("NOT ")
		format(b, n.Predicate)
	case IsNull:
		fmt.Fprintf(b, "%s IS NULL", n.Field.Name)
	case Compare:
		fmt.Fprintf(b, "%s %s %s", n.Field.Name, n.Op, FormatValue(n.Value))
	case Text:
		op := string(n.Op)
		if n.Fold {
			op += "^"
		}
		fmt.Fprintf(b, "%s %s %q", n.Field.Name, op, n.Value)
	case Nested:
		fmt.Fprintf(b, "%s{", n.Field.Name)
		format(b, n.Predicate)
		b.WriteString("}")
	case Any:
		fmt.Fprintf(b, "ANY %s{", n.Field.Name)
		format(b, n.Predicate)
		b.WriteString("}")
	default:
		fmt.Fprintf(b, "<%T>", p)
	}
}

func formatList(b *strings.Builder, ps []Predicate, sep, empty string) {
	if len(ps) == 0 {
		b.WriteString(empty)
		return
	}
	b.WriteString("(")
	for i, p := range ps {
		if i > 0 {
			b.WriteString(sep)
		}
		format(b, p)
	}
	b.WriteString(")")
}

// FormatValue renders a literal.
func FormatValue(v any) string {
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case *apd.Decimal:
		return x.Text('f')
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case uuid.UUID:
		return x.String()
	case EnumValue:
		return fmt.Sprintf("%s(%d)", x.Name, x.Code)
	default:
		return fmt.Sprint(x)
	}
}
