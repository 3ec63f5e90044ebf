package dispatch

import (
	"fmt"
	"strings"
)

// ResultType is a registered post-processing unit selected by a result's
// Type. Its return value, when non-nil, replaces the dispatch result.
type ResultType func(inv *Invocation, res Result) (any, error)

// globalResult is a process-wide result: a callable invoked directly when an
// action's string outcome names it, plus its declared Result definition.
type globalResult struct {
	result Result
	fn     Func
}

// AddInterceptor registers a named interceptor. Registration happens during
// the single-threaded initialization phase; duplicates are a fatal conflict.
func (r *Router) AddInterceptor(name string, fn Interceptor) error {
	if strings.TrimSpace(name) == "" {
		return errBlankName("interceptor")
	}
	if _, ok := r.interceptors[name]; ok {
		return &DuplicateError{Kind: "interceptor", Name: name}
	}
	r.interceptors[name] = fn
	r.log.Info("add interceptor", "name", name)
	return nil
}

// AddInterceptorStack registers a named stack, resolving its interceptor
// names immediately. Unresolvable names are logged and dropped, not fatal.
func (r *Router) AddInterceptorStack(name string, interceptorNames ...string) error {
	if strings.TrimSpace(name) == "" {
		return errBlankName("interceptor stack")
	}
	if _, ok := r.stacks[name]; ok {
		return &DuplicateError{Kind: "interceptor stack", Name: name}
	}
	chain := make([]chainedInterceptor, 0, len(interceptorNames))
	for _, n := range interceptorNames {
		fn, ok := r.interceptors[n]
		if !ok {
			r.log.Warn("no such interceptor for stack", "interceptor", n, "stack", name)
			continue
		}
		chain = append(chain, chainedInterceptor{name: n, fn: fn})
	}
	r.stacks[name] = &InterceptorStack{name: name, chain: chain}
	r.log.Info("add interceptor stack", "name", name, "interceptors", len(chain))
	return nil
}

// AddResultType registers a named result type; duplicates are fatal.
func (r *Router) AddResultType(name string, fn ResultType) error {
	if strings.TrimSpace(name) == "" {
		return errBlankName("result type")
	}
	if _, ok := r.resultTypes[name]; ok {
		return &DuplicateError{Kind: "result type", Name: name}
	}
	r.resultTypes[name] = fn
	r.log.Info("add result type", "name", name)
	return nil
}

// AddResult registers a process-wide result under res.Name; duplicates are
// fatal. The callable runs when an action's string outcome equals the name;
// when res.Type is non-empty the named result type runs afterwards.
func (r *Router) AddResult(res Result, fn Func) error {
	if strings.TrimSpace(res.Name) == "" {
		return errBlankName("result")
	}
	if _, ok := r.results[res.Name]; ok {
		return &DuplicateError{Kind: "result", Name: res.Name}
	}
	r.results[res.Name] = &globalResult{result: res, fn: fn}
	r.log.Info("add result", "name", res.Name, "type", res.Type)
	return nil
}

// Actions returns the registered actions keyed by normalized path.
// The returned map is live and must be treated as read-only.
func (r *Router) Actions() map[string]*Action { return r.actions }

// InterceptorStacks returns the registered stacks keyed by name.
// The returned map is live and must be treated as read-only.
func (r *Router) InterceptorStacks() map[string]*InterceptorStack { return r.stacks }

// InterceptorNames returns the names of all registered interceptors.
func (r *Router) InterceptorNames() []string {
	names := make([]string, 0, len(r.interceptors))
	for n := range r.interceptors {
		names = append(names, n)
	}
	return names
}

// ResultTypeNames returns the names of all registered result types.
func (r *Router) ResultTypeNames() []string {
	names := make([]string, 0, len(r.resultTypes))
	for n := range r.resultTypes {
		names = append(names, n)
	}
	return names
}

// Results returns the declared definitions of the global results, keyed by
// name.
func (r *Router) Results() map[string]Result {
	out := make(map[string]Result, len(r.results))
	for n, gr := range r.results {
		out[n] = gr.result
	}
	return out
}

func errBlankName(kind string) error {
	return fmt.Errorf("dispatch: blank %s name", kind)
}
