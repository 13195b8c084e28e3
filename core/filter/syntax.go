package filter

import (
	"strings"
)

const (
	valueSeparator = ','
	escapeChar     = '\\'
)

// ParseSyntax splits filter syntax into value filters.
//
// The syntax is a comma-separated list of parts. A part that begins with an
// operator token starts a new ValueFilter; any other part adds a value to
// the current one, or starts a Default filter when there is none yet. So
// ">=2000,<2001" yields two value filters and "~Joe,Eva" yields one with two
// values. Inside a part "\," is a literal comma, "\\" a literal backslash,
// and a leading backslash keeps the part from being read as an operator.
func ParseSyntax(syntax string, cfg *Configuration) []ValueFilter {
	if cfg == nil {
		cfg = CurrentDefaultConfiguration()
	}
	table := cfg.tokenTable()

	var result []ValueFilter
	for _, part := range splitParts(syntax) {
		if part.raw == "" {
			continue
		}
		if !part.escaped {
			if token, op, ok := table.match(part.raw); ok {
				vf := ValueFilter{Operator: op}
				rest := unescape(part.raw[len(token):])
				switch {
				case op.IsNullCheck():
				case rest == "":
					// An operator without a value constrains nothing.
					continue
				default:
					vf.Values = []string{rest}
				}
				result = append(result, vf)
				continue
			}
		}
		value := unescape(part.raw)
		if len(result) == 0 {
			result = append(result, ValueFilter{Operator: table.lookupDefault()})
		}
		last := &result[len(result)-1]
		if last.Operator.IsNullCheck() {
			continue
		}
		last.Values = append(last.Values, value)
	}
	return result
}

type syntaxPart struct {
	raw     string // still escaped
	escaped bool   // begins with an escape
}

func splitParts(syntax string) []syntaxPart {
	var parts []syntaxPart
	start := 0
	for i := 0; i < len(syntax); i++ {
		switch syntax[i] {
		case escapeChar:
			i++
		case valueSeparator:
			parts = append(parts, newPart(syntax[start:i]))
			start = i + 1
		}
	}
	if start <= len(syntax) {
		parts = append(parts, newPart(syntax[start:]))
	}
	return parts
}

func newPart(raw string) syntaxPart {
	return syntaxPart{raw: raw, escaped: strings.HasPrefix(raw, string(escapeChar))}
}

func unescape(s string) string {
	if !strings.ContainsRune(s, escapeChar) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == escapeChar && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func escape(s string) string {
	if !strings.ContainsAny(s, `\,`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == escapeChar || s[i] == valueSeparator {
			b.WriteByte(escapeChar)
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// FormatSyntax renders a value filter so that ParseSyntax returns it
// unchanged.
func FormatSyntax(vf ValueFilter, cfg *Configuration) string {
	if cfg == nil {
		cfg = CurrentDefaultConfiguration()
	}
	table := cfg.tokenTable()

	token, _ := table.token(vf.Operator)
	if vf.Operator.IsNullCheck() {
		return token
	}
	var b strings.Builder
	b.WriteString(token)
	for i, v := range vf.Values {
		if i > 0 {
			b.WriteByte(valueSeparator)
		}
		escaped := escape(v)
		if i == 0 && token != "" {
			// The value must not extend the token into a longer one.
			if matched, _, _ := table.match(token + escaped); matched != token {
				b.WriteByte(escapeChar)
			}
			b.WriteString(escaped)
			continue
		}
		if _, _, ok := table.match(escaped); ok {
			b.WriteByte(escapeChar)
		}
		b.WriteString(escaped)
	}
	return b.String()
}
