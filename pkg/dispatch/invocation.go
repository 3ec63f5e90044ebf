package dispatch

import (
	"context"
	"errors"
)

// Interceptor wraps an action invocation. It may short-circuit by returning
// without calling inv.Proceed, or post-process the value Proceed returns.
type Interceptor func(inv *Invocation) (any, error)

// InterceptorStack is a named, ordered list of interceptors resolved once at
// registration. Names that did not resolve were dropped at build time.
type InterceptorStack struct {
	name  string
	chain []chainedInterceptor
}

// Name returns the stack name.
func (s *InterceptorStack) Name() string { return s.name }

// InterceptorNames returns the resolved interceptor names in order.
func (s *InterceptorStack) InterceptorNames() []string {
	names := make([]string, len(s.chain))
	for i, ci := range s.chain {
		names[i] = ci.name
	}
	return names
}

// errInvoked guards against an interceptor calling Proceed after the action
// has already run.
var errInvoked = errors.New("dispatch: action already invoked")

// Invocation is the per-dispatch context threaded through the interceptor
// chain, the action, and the result types.
type Invocation struct {
	ctx    context.Context
	id     string
	router *Router
	action *Action
	fn     Func

	path       string
	args       []any
	pathParams map[string]string

	next int

	result    Result
	hasResult bool
}

// Context returns the dispatch context.
func (inv *Invocation) Context() context.Context { return inv.ctx }

// ID returns the unique invocation identifier.
func (inv *Invocation) ID() string { return inv.id }

// Path returns the dispatched path after suffix stripping.
func (inv *Invocation) Path() string { return inv.path }

// Args returns the caller-supplied dispatch arguments.
func (inv *Invocation) Args() []any { return inv.args }

// PathParams returns the wildcard captures for this dispatch. The map is
// shared with the cache entry and must not be modified.
func (inv *Invocation) PathParams() map[string]string { return inv.pathParams }

// Action returns the matched action.
func (inv *Invocation) Action() *Action { return inv.action }

// Router returns the owning router.
func (inv *Invocation) Router() *Router { return inv.router }

// Result returns the result currently being processed by a result type and
// whether one has been set.
func (inv *Invocation) Result() (Result, bool) { return inv.result, inv.hasResult }

func (inv *Invocation) setResult(res Result) {
	inv.result = res
	inv.hasResult = true
}

// Proceed advances the chain: it runs the next interceptor, or the action
// itself once all interceptors have run. Calling Proceed again after the
// action ran is an error.
func (inv *Invocation) Proceed() (any, error) {
	i := inv.next
	inv.next++
	switch {
	case i < len(inv.action.chain):
		return inv.action.chain[i].fn(inv)
	case i == len(inv.action.chain):
		return inv.fn(inv)
	default:
		return nil, errInvoked
	}
}
