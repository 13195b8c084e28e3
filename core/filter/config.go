package filter

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/asaidimu/go-sieve/core/temporal"
)

// Configuration controls how filter syntax is parsed and compiled. Treat a
// configuration as immutable once it is attached to a filter or installed as
// the process default; use Clone to derive a modified copy.
type Configuration struct {
	// Culture drives numeric separators and case folding.
	Culture language.Tag
	// BoolTrueStrings and BoolFalseStrings are accepted, case-insensitively,
	// when a value is not a native boolean literal.
	BoolTrueStrings  []string
	BoolFalseStrings []string
	// Operators maps syntax tokens to operators.
	Operators map[string]Operator
	// IgnoreParseExceptions drops a property's filter instead of failing when
	// its syntax or values cannot be parsed.
	IgnoreParseExceptions           bool
	CaseInsensitivePropertyMatching bool
	// Now is the reference instant for relative dates.
	Now func() time.Time
	// Location interprets dates without an explicit offset.
	Location *time.Location
	Logger   *zap.Logger

	tokensOnce sync.Once
	tokens     *tokenTable
}

// DefaultConfiguration returns a new built-in configuration.
func DefaultConfiguration() *Configuration {
	return &Configuration{
		Culture:          language.Und,
		BoolTrueStrings:  []string{"YES", "1"},
		BoolFalseStrings: []string{"NO", "0"},
		Operators:        DefaultOperatorTokens(),
		Now:              time.Now,
		Location:         time.Local,
		Logger:           zap.NewNop(),
	}
}

// Clone returns a copy that can be modified independently.
func (c *Configuration) Clone() *Configuration {
	clone := &Configuration{
		Culture:                         c.Culture,
		BoolTrueStrings:                 slices.Clone(c.BoolTrueStrings),
		BoolFalseStrings:                slices.Clone(c.BoolFalseStrings),
		IgnoreParseExceptions:           c.IgnoreParseExceptions,
		CaseInsensitivePropertyMatching: c.CaseInsensitivePropertyMatching,
		Now:                             c.Now,
		Location:                        c.Location,
		Logger:                          c.Logger,
	}
	if c.Operators != nil {
		clone.Operators = make(map[string]Operator, len(c.Operators))
		for k, v := range c.Operators {
			clone.Operators[k] = v
		}
	}
	return clone
}

func (c *Configuration) tokenTable() *tokenTable {
	c.tokensOnce.Do(func() {
		c.tokens = newTokenTable(c.Operators)
	})
	return c.tokens
}

func (c *Configuration) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c *Configuration) parser() *temporal.Parser {
	return temporal.NewParser(c.Now, c.Location, c.Culture)
}

var (
	defaultConfiguration atomic.Pointer[Configuration]
	builtinConfiguration = DefaultConfiguration()
)

// SetDefaultConfiguration installs the process-wide default configuration.
// Compilations already in flight may observe either value.
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

// resolveConfiguration applies the precedence attached, injected, process
// default, built-in.
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
