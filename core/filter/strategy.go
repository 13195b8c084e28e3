package filter

import (
	"sync"

	"github.com/asaidimu/go-sieve/core/expr"
	"github.com/asaidimu/go-sieve/core/schema"
	"github.com/asaidimu/go-sieve/core/temporal"
)

// Strategy converts raw values into predicate fragments for one category of
// property. Null checks are handled by the engine for every strategy that
// declares support for them.
type Strategy interface {
	// Supports reports whether the strategy accepts op.
	Supports(op Operator) bool
	// Build returns the fragment for one value. A nil fragment contributes
	// nothing.
	Build(ctx *BuildContext, op Operator, value string) (expr.Predicate, error)
}

// BuildContext describes the property a fragment is built for.
type BuildContext struct {
	Property *schema.Property
	Field    expr.Field
	// Path is the dotted path of the property from the root filter.
	Path          string
	Configuration *Configuration

	dates *temporal.Parser
}

// Dates returns the temporal parser of the current compilation.
func (c *BuildContext) Dates() *temporal.Parser {
	if c.dates == nil {
		c.dates = c.Configuration.parser()
	}
	return c.dates
}

type operatorSet map[Operator]bool

func newOperatorSet(ops ...Operator) operatorSet {
	set := make(operatorSet, len(ops))
	for _, op := range ops {
		set[op] = true
	}
	return set
}

func (s operatorSet) Supports(op Operator) bool {
	return s[op]
}

var registry = struct {
	sync.RWMutex
	byKind map[schema.Kind]Strategy
}{
	byKind: map[schema.Kind]Strategy{
		schema.KindString:     stringStrategy{},
		schema.KindNumber:     numericStrategy{},
		schema.KindBoolean:    booleanStrategy{},
		schema.KindUUID:       guidStrategy{},
		schema.KindEnum:       enumStrategy{},
		schema.KindTime:       temporalStrategy{},
		schema.KindObject:     navigationStrategy{},
		schema.KindCollection: navigationStrategy{},
	},
}

// RegisterStrategy replaces the strategy used for a property kind.
func RegisterStrategy(kind schema.Kind, s Strategy) {
	registry.Lock()
	defer registry.Unlock()
	registry.byKind[kind] = s
}

func lookupStrategy(kind schema.Kind) (Strategy, bool) {
	registry.RLock()
	defer registry.RUnlock()
	s, ok := registry.byKind[kind]
	return s, ok
}

// navigationStrategy lets object and collection properties be tested for
// null without a nested filter.
type navigationStrategy struct{}

func (navigationStrategy) Supports(op Operator) bool {
	return op.IsNullCheck()
}

func (navigationStrategy) Build(*BuildContext, Operator, string) (expr.Predicate, error) {
	return nil, nil
}
