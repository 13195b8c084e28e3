package filter

import (
	"sync/atomic"

	"github.com/asaidimu/go-sieve/core/expr"
)

// Interceptor overrides how a property filter compiles. It is consulted
// before the built-in strategy for every property. Returning ok=false means
// "no opinion" and the built-in strategy runs; returning ok=true uses the
// predicate verbatim, where a nil predicate drops the property.
type Interceptor interface {
	Intercept(ctx *BuildContext, pf PropertyFilter) (pred expr.Predicate, ok bool, err error)
}

// InterceptorFunc adapts a function to the Interceptor interface.
type InterceptorFunc func(ctx *BuildContext, pf PropertyFilter) (expr.Predicate, bool, error)

// Intercept calls fn.
func (fn InterceptorFunc) Intercept(ctx *BuildContext, pf PropertyFilter) (expr.Predicate, bool, error) {
	return fn(ctx, pf)
}

var defaultInterceptor atomic.Pointer[Interceptor]

// SetDefaultInterceptor installs the process-wide interceptor used by filters
// without an attached one.
func SetDefaultInterceptor(i Interceptor) {
	if i == nil {
		defaultInterceptor.Store(nil)
		return
	}
	defaultInterceptor.Store(&i)
}

// ResetDefaultInterceptor removes the process-wide interceptor.
func ResetDefaultInterceptor() {
	defaultInterceptor.Store(nil)
}

func currentDefaultInterceptor() Interceptor {
	if i := defaultInterceptor.Load(); i != nil {
		return *i
	}
	return nil
}
