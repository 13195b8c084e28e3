package sorting

import (
	"regexp"
	"slices"
	"strings"

	"github.com/asaidimu/go-sieve/core/schema"
)

// maxPatternDepth bounds how far Pattern follows nested objects.
const maxPatternDepth = 4

// Pattern returns a regular expression matching every well-formed sort list
// for d under cfg. It is meant for request validation and API schemas.
func Pattern(d *schema.Descriptor, cfg *Configuration) string {
	if cfg == nil {
		cfg = CurrentDefaultConfiguration()
	}
	paths := SortablePaths(d)
	slices.SortFunc(paths, func(a, b string) int { return len(b) - len(a) })

	token := optional(alternation(append(slices.Clone(cfg.AscendingPrefixes), cfg.DescendingPrefixes...))) +
		alternationOf(paths, cfg.CaseInsensitivePropertyMatching) +
		optional(alternation(append(slices.Clone(cfg.AscendingPostfixes), cfg.DescendingPostfixes...)))
	sep := `\s*` + regexp.QuoteMeta(TokenSeparator) + `\s*`
	return `^\s*` + token + `(?:` + sep + token + `)*\s*$`
}

// SortablePaths lists the dotted paths that Compile accepts for d, following
// nested objects a bounded number of levels.
func SortablePaths(d *schema.Descriptor) []string {
	var paths []string
	collectPaths(d, "", 0, &paths)
	return paths
}

func collectPaths(d *schema.Descriptor, prefix string, depth int, paths *[]string) {
	if d == nil || depth > maxPatternDepth {
		return
	}
	for _, p := range d.Properties() {
		switch {
		case p.Kind.IsScalar() && p.Sortable:
			*paths = append(*paths, prefix+p.Name)
		case p.Kind == schema.KindObject:
			collectPaths(p.Nested(), prefix+p.Name+PathSeparator, depth+1, paths)
		}
	}
}

func optional(group string) string {
	if group == "" {
		return ""
	}
	return group + "?"
}

func alternation(modifiers []string) string {
	var quoted []string
	for _, m := range modifiers {
		if m != "" {
			quoted = append(quoted, regexp.QuoteMeta(m))
		}
	}
	if len(quoted) == 0 {
		return ""
	}
	slices.SortStableFunc(quoted, func(a, b string) int { return len(b) - len(a) })
	return `(?i:` + strings.Join(quoted, "|") + `)`
}

func alternationOf(paths []string, caseInsensitive bool) string {
	quoted := make([]string, len(paths))
	for i, p := range paths {
		quoted[i] = regexp.QuoteMeta(p)
	}
	flags := "(?:"
	if caseInsensitive {
		flags = "(?i:"
	}
	return flags + strings.Join(quoted, "|") + ")"
}
