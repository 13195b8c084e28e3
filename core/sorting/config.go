package sorting

import (
	"slices"
	"sync/atomic"

	"go.uber.org/zap"
)

// ConditionalAccess controls whether compiled sort keys ask the evaluator to
// treat null navigations along a path as null keys.
type ConditionalAccess int

const (
	// ConditionalAccessIfNeeded inserts null-safe navigation only for backends
	// that cannot short-circuit null navigation themselves.
	ConditionalAccessIfNeeded ConditionalAccess = iota
	ConditionalAccessNever
	ConditionalAccessAlways
)

func (c ConditionalAccess) String() string {
	switch c {
	case ConditionalAccessNever:
		return "never"
	case ConditionalAccessAlways:
		return "always"
	default:
		return "ifNeeded"
	}
}

// ParseConditionalAccess parses the names returned by String.
func ParseConditionalAccess(s string) (ConditionalAccess, bool) {
	switch s {
	case "never":
		return ConditionalAccessNever, true
	case "always":
		return ConditionalAccessAlways, true
	case "ifNeeded", "":
		return ConditionalAccessIfNeeded, true
	}
	return ConditionalAccessIfNeeded, false
}

// Configuration controls sort token parsing and compilation. Treat it as
// immutable once attached or installed as the process default.
type Configuration struct {
	AscendingPrefixes   []string
	AscendingPostfixes  []string
	DescendingPrefixes  []string
	DescendingPostfixes []string
	// IgnoreParseExceptions degrades unresolvable sort keys to constants
	// instead of failing.
	IgnoreParseExceptions           bool
	CaseInsensitivePropertyMatching bool
	ConditionalAccess               ConditionalAccess
	Logger                          *zap.Logger
}

// DefaultConfiguration returns a new built-in configuration.
func DefaultConfiguration() *Configuration {
	return &Configuration{
		AscendingPrefixes:   []string{"asc-", "asc ", "+"},
		AscendingPostfixes:  []string{"-asc", " asc", "+"},
		DescendingPrefixes:  []string{"desc-", "desc ", "dsc-", "dsc ", "-", "~"},
		DescendingPostfixes: []string{"-desc", " desc", "-dsc", " dsc", "-", "~"},
		ConditionalAccess:   ConditionalAccessIfNeeded,
		Logger:              zap.NewNop(),
	}
}

// Clone returns a copy that can be modified independently.
func (c *Configuration) Clone() *Configuration {
	clone := *c
	clone.AscendingPrefixes = slices.Clone(c.AscendingPrefixes)
	clone.AscendingPostfixes = slices.Clone(c.AscendingPostfixes)
	clone.DescendingPrefixes = slices.Clone(c.DescendingPrefixes)
	clone.DescendingPostfixes = slices.Clone(c.DescendingPostfixes)
	return &clone
}

func (c *Configuration) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

var (
	defaultConfiguration atomic.Pointer[Configuration]
	builtinConfiguration = DefaultConfiguration()
)

// SetDefaultConfiguration installs the process-wide default configuration.
func SetDefaultConfiguration(c *Configuration) {
	defaultConfiguration.Store(c)
}

// ResetDefaultConfiguration restores the built-in default.
func ResetDefaultConfiguration() {
	defaultConfiguration.Store(nil)
}

// CurrentDefaultConfiguration returns the process-wide default, or the
// built-in configuration when none is installed.
func CurrentDefaultConfiguration() *Configuration {
	if c := defaultConfiguration.Load(); c != nil {
		return c
	}
	return builtinConfiguration
}

func resolveConfiguration(attached, injected *Configuration) *Configuration {
	switch {
	case attached != nil:
		return attached
	case injected != nil:
		return injected
	default:
		return CurrentDefaultConfiguration()
	}
}
