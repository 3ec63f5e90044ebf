package dispatch

// Scope controls how an action's callable is obtained per dispatch.
type Scope int

const (
	// ScopeSingleton shares one callable across all dispatches. The callable
	// must not keep per-dispatch mutable state.
	ScopeSingleton Scope = iota

	// ScopePrototype obtains a fresh callable from the definition's New
	// factory on every dispatch.
	ScopePrototype
)

// String returns the scope name.
func (s Scope) String() string {
	switch s {
	case ScopeSingleton:
		return "singleton"
	case ScopePrototype:
		return "prototype"
	default:
		return "unknown"
	}
}

// MatchAny is the reserved result name matching any otherwise-unmatched
// string outcome. It is the same token as the path wildcard.
const MatchAny = "*"

// Result is a named outcome declared on an action or globally. Type selects
// the registered result type that handles it; an empty Type falls back to
// the router's default result type. Location is opaque to the core and
// passed through to the result type.
type Result struct {
	Name     string
	Type     string
	Location string
}

// Func is the callable unit of an action, interceptor target, or global
// result. The returned value feeds the result cascade; returned errors are
// surfaced to the dispatch caller unchanged.
type Func func(inv *Invocation) (any, error)

// Namespace groups actions registered under a common path prefix and may
// declare interceptor defaults that apply when an action declares none.
type Namespace struct {
	// Name is the path prefix, with or without a leading separator.
	Name string

	// InterceptorStack names a registered stack applied to member actions
	// that declare no interceptors of their own.
	InterceptorStack string

	// Interceptors names registered interceptors appended after the stack.
	Interceptors []string
}

// ActionDef is the registration-time description of an action. It is plain
// data: discovery of definitions from source metadata happens outside the
// core and feeds Register.
type ActionDef struct {
	// Name is the action path. A name starting with the path separator is
	// absolute; otherwise it is joined under the namespace prefix.
	Name string

	// Namespace is the enclosing namespace, optional.
	Namespace *Namespace

	// Scope selects singleton or per-dispatch instantiation.
	Scope Scope

	// InterceptorStack and Interceptors declare the action's own chain.
	// See Router.Register for the resolution order.
	InterceptorStack string
	Interceptors     []string

	// Results are the action's named outcomes.
	Results []Result

	// Parameters is a static name -> values map readable from the
	// invocation.
	Parameters map[string][]string

	// Func is the action's callable. Required.
	Func Func

	// New produces a fresh callable for ScopePrototype actions. Required
	// when Scope is ScopePrototype, ignored otherwise.
	New func() Func
}

// Action is a registered action: the normalized path, the resolved
// interceptor chain, and the outcome map. Immutable after registration.
type Action struct {
	path    string
	scope   Scope
	fn      Func
	factory func() Func
	results map[string]Result
	params  map[string][]string
	chain   []chainedInterceptor
}

// chainedInterceptor pairs a registered interceptor with its name for
// logging and introspection.
type chainedInterceptor struct {
	name string
	fn   Interceptor
}

// Path returns the normalized registration path.
func (a *Action) Path() string { return a.path }

// Scope returns the action's scope.
func (a *Action) Scope() Scope { return a.scope }

// Results returns the action's result map keyed by result name.
// The returned map is shared and must not be modified.
func (a *Action) Results() map[string]Result { return a.results }

// Parameters returns the action's static parameter map.
// The returned map is shared and must not be modified.
func (a *Action) Parameters() map[string][]string { return a.params }

// InterceptorNames returns the resolved chain's interceptor names in order.
func (a *Action) InterceptorNames() []string {
	names := make([]string, len(a.chain))
	for i, ci := range a.chain {
		names[i] = ci.name
	}
	return names
}

// instance returns the callable for one dispatch: the shared callable for
// singletons, a fresh one from the factory for prototypes.
func (a *Action) instance() Func {
	if a.scope == ScopePrototype {
		return a.factory()
	}
	return a.fn
}
