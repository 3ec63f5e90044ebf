// Package dispatchkit is the top-level entry point for the path dispatch
// engine. It re-exports the core types from pkg/dispatch so applications
// can depend on a single import:
//
//	r := dispatchkit.New(dispatchkit.DefaultConfig())
//	r.Register(dispatchkit.ActionDef{
//		Name: "/user/*id",
//		Func: func(inv *dispatchkit.Invocation) (any, error) {
//			return inv.PathParams()["id"], nil
//		},
//	})
//	res, err := r.Dispatch(ctx, "/user/42")
//
// Paths are registered in a segment trie where a "*name" segment captures
// one request segment. Matched paths are cached in a two-tier cache, every
// dispatch runs the action's interceptor chain, and string outcomes are
// resolved through the action's result map, the global result registry,
// and the configured result types. See pkg/dispatch for the full API and
// pkg/middleware, pkg/resulttype, and pkg/web for batteries.
package dispatchkit

import "github.com/dispatchkit/dispatchkit/pkg/dispatch"

// Core types, re-exported.
type (
	Router           = dispatch.Router
	Config           = dispatch.Config
	ActionDef        = dispatch.ActionDef
	Action           = dispatch.Action
	Namespace        = dispatch.Namespace
	Result           = dispatch.Result
	Func             = dispatch.Func
	Invocation       = dispatch.Invocation
	Interceptor      = dispatch.Interceptor
	InterceptorStack = dispatch.InterceptorStack
	ResultType       = dispatch.ResultType
	Scope            = dispatch.Scope
	CacheEntry       = dispatch.CacheEntry
	NotFoundError    = dispatch.NotFoundError
	DuplicateError   = dispatch.DuplicateError
)

const (
	ScopeSingleton = dispatch.ScopeSingleton
	ScopePrototype = dispatch.ScopePrototype

	// MatchAny is the result name that matches any outcome string.
	MatchAny = dispatch.MatchAny
)

var (
	ErrNotFound  = dispatch.ErrNotFound
	ErrDuplicate = dispatch.ErrDuplicate
)

// New creates a router with the given configuration.
func New(cfg Config) *Router { return dispatch.New(cfg) }

// DefaultConfig returns the default router configuration: '/' separator,
// "." suffix, and a 10000-entry matched-path cache.
func DefaultConfig() Config { return dispatch.DefaultConfig() }
