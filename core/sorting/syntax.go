package sorting

import (
	"strings"

	"github.com/asaidimu/go-sieve/core/errs"
)

// TokenSeparator separates sort tokens in a list.
const TokenSeparator = ","

// ParseToken splits a sort token into its property path and direction.
//
// A token is "[prefix]path[postfix]". Modifiers match case-insensitively.
// Postfixes are tried first and win over prefixes; only one modifier is
// applied. A token without modifiers sorts ascending.
func ParseToken(token string, cfg *Configuration) (string, Direction, error) {
	if cfg == nil {
		cfg = CurrentDefaultConfiguration()
	}
	raw := token
	token = strings.TrimSpace(token)

	path, dir := token, Ascending
	if p, ok := trimModifier(token, cfg.AscendingPostfixes, cfg.DescendingPostfixes, true); ok {
		path, dir = p.path, p.dir
	} else if p, ok := trimModifier(token, cfg.AscendingPrefixes, cfg.DescendingPrefixes, false); ok {
		path, dir = p.path, p.dir
	}

	path = strings.TrimSpace(path)
	if path == "" {
		return "", Ascending, errs.Syntax("", raw, "sort token has no property path")
	}
	return path, dir, nil
}

type modified struct {
	path string
	dir  Direction
}

// trimModifier strips the longest matching modifier from the end of token
// when suffix is set, otherwise from its start. Modifiers are compared with
// the token's own bytes under case folding.
func trimModifier(token string, asc, desc []string, suffix bool) (modified, bool) {
	best, found := modified{}, false
	bestLen := -1
	try := func(modifiers []string, dir Direction) {
		for _, m := range modifiers {
			if m == "" || len(m) > len(token) || len(m) <= bestLen {
				continue
			}
			part, rest := token[:len(m)], token[len(m):]
			if suffix {
				part, rest = token[len(token)-len(m):], token[:len(token)-len(m)]
			}
			if strings.EqualFold(part, m) {
				best, found, bestLen = modified{path: rest, dir: dir}, true, len(m)
			}
		}
	}
	try(asc, Ascending)
	try(desc, Descending)
	return best, found
}

// FormatToken renders a path and direction as a token that ParseToken
// reads back.
func FormatToken(path string, dir Direction, cfg *Configuration) string {
	if cfg == nil {
		cfg = CurrentDefaultConfiguration()
	}
	if dir == Descending && len(cfg.DescendingPostfixes) > 0 {
		return path + cfg.DescendingPostfixes[0]
	}
	if dir == Descending && len(cfg.DescendingPrefixes) > 0 {
		return cfg.DescendingPrefixes[0] + path
	}
	return path
}
