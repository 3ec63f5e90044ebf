// Package dispatch routes string-keyed paths to registered actions, wraps
// invocation in an interceptor chain, and resolves the raw return value
// through a chain of named result types.
//
// Registration is a single-threaded initialization phase; once it completes,
// all registries and the path tree are read-only and safe for unsynchronized
// concurrent dispatch. The path cache is the only structure mutated during
// steady-state request handling.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/google/uuid"

	"github.com/dispatchkit/dispatchkit/pkg/pathtree"
)

// Router owns the action tree, the registries, and the dispatch cache.
type Router struct {
	cfg Config
	log *slog.Logger

	tree    *pathtree.Tree[*Action]
	actions map[string]*Action
	cache   *actionCache

	interceptors map[string]Interceptor
	stacks       map[string]*InterceptorStack
	resultTypes  map[string]ResultType
	results      map[string]*globalResult

	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64
}

// New creates a router from cfg. See DefaultConfig for the standard options.
func New(cfg Config) *Router {
	if cfg.Separator == 0 {
		cfg.Separator = '/'
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Router{
		cfg:          cfg,
		log:          log,
		tree:         pathtree.New[*Action](cfg.Separator),
		actions:      make(map[string]*Action),
		cache:        newActionCache(cfg.CacheCapacity),
		interceptors: make(map[string]Interceptor),
		stacks:       make(map[string]*InterceptorStack),
		resultTypes:  make(map[string]ResultType),
		results:      make(map[string]*globalResult),
	}
}

// Separator returns the configured path separator.
func (r *Router) Separator() rune { return r.cfg.Separator }

// Suffix returns the configured path suffix marker.
func (r *Router) Suffix() string { return r.cfg.Suffix }

// Register adds an action. The path is built from the definition's name and
// namespace, normalized to a canonical leading-separator form. Registering a
// path exactly equal to an existing one is a fatal conflict; a path that
// only overlaps an existing wildcard match is permitted and logged.
func (r *Router) Register(def ActionDef) error {
	if def.Func == nil {
		return fmt.Errorf("dispatch: nil func for action [%s]", def.Name)
	}
	if def.Scope == ScopePrototype && def.New == nil {
		return fmt.Errorf("dispatch: prototype action [%s] requires a New factory", def.Name)
	}
	if strings.TrimSpace(def.Name) == "" && def.Namespace == nil {
		return fmt.Errorf("dispatch: blank path for action")
	}
	path := r.buildPath(def.Namespace, def.Name)

	if _, ok := r.actions[path]; ok {
		return &DuplicateError{Kind: "action", Name: path}
	}

	results := make(map[string]Result, len(def.Results))
	for _, res := range def.Results {
		results[res.Name] = res
	}

	action := &Action{
		path:    path,
		scope:   def.Scope,
		fn:      def.Func,
		factory: def.New,
		results: results,
		params:  def.Parameters,
		chain:   r.resolveChain(&def, path),
	}

	if exist, ok := r.tree.Match(path, nil); ok {
		// Overlaps an existing wildcard registration, not an exact
		// duplicate. Both coexist; the more specific branch wins a match.
		r.log.Warn("exist matched path", "existing", exist.path, "adding", path)
	} else {
		r.log.Info("add action", "path", path, "scope", def.Scope.String(), "interceptors", len(action.chain))
	}
	r.tree.Insert(path, action)
	r.actions[path] = action
	return nil
}

// Dispatch routes path to its action: the suffix is stripped, the cache is
// consulted (the tree on a miss), the interceptor chain wraps the action
// call, and the raw return value flows through the result cascade. Errors
// from the action or an interceptor are returned to the caller unchanged.
func (r *Router) Dispatch(ctx context.Context, path string, args ...any) (any, error) {
	r.log.Debug("start dispatch", "path", path)
	path = r.stripSuffix(path)

	entry, err := r.lookup(path)
	if err != nil {
		return nil, err
	}

	inv := &Invocation{
		ctx:        ctx,
		id:         uuid.NewString(),
		router:     r,
		action:     entry.Action,
		fn:         entry.Action.instance(),
		path:       path,
		args:       args,
		pathParams: entry.Params,
	}

	raw, err := inv.Proceed()
	if err != nil {
		return nil, err
	}

	final, err := r.resolveResult(inv, raw)
	if err != nil {
		return nil, err
	}
	r.log.Debug("finish dispatch", "path", path, "action", entry.Action.path)
	return final, nil
}

// lookup resolves path to a cache entry, walking the tree on a miss.
// Failed matches are never cached.
func (r *Router) lookup(path string) (*CacheEntry, error) {
	caching := r.cfg.CacheCapacity > 0
	if caching {
		if entry := r.cache.get(path); entry != nil {
			r.cacheHits.Add(1)
			return entry, nil
		}
		r.cacheMisses.Add(1)
	}

	params := make(map[string]string, 2)
	action, ok := r.tree.Match(path, params)
	if !ok {
		return nil, &NotFoundError{Kind: "action", Name: path}
	}
	entry := &CacheEntry{Action: action, Params: params}
	if caching {
		if len(params) == 0 {
			r.cache.putFull(path, entry)
		} else {
			r.cache.putMatched(path, entry)
		}
	}
	return entry, nil
}

// stripSuffix removes the configured suffix marker. A single
// non-alphanumeric marker truncates at its last occurrence; a longer marker
// is stripped when the path ends with it, together with the preceding
// character when that character is not alphanumeric.
func (r *Router) stripSuffix(path string) string {
	ext := r.cfg.Suffix
	if ext == "" {
		return path
	}
	if len(ext) == 1 && !isAlnum(rune(ext[0])) {
		if idx := strings.LastIndexByte(path, ext[0]); idx != -1 {
			return path[:idx]
		}
		return path
	}
	if len(path) > len(ext) && strings.HasSuffix(path, ext) {
		cut := len(ext)
		if !isAlnum(rune(path[len(path)-cut-1])) {
			cut++
		}
		return path[:len(path)-cut]
	}
	return path
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// buildPath joins a namespace prefix and an action name into the normalized
// path: leading separator, no trailing separator, whitespace trimmed. A name
// that already starts with the separator is absolute and ignores the
// namespace; a name that trims to nothing maps to the namespace path itself.
func (r *Router) buildPath(ns *Namespace, name string) string {
	sep := string(r.cfg.Separator)
	nsPath := sep
	if ns != nil {
		if inner := strings.Trim(strings.TrimSpace(ns.Name), sep); inner != "" {
			nsPath = sep + inner
		}
	}
	name = strings.TrimSpace(name)
	inner := strings.Trim(name, sep)
	switch {
	case inner == "":
		return nsPath
	case strings.HasPrefix(name, sep):
		return sep + inner
	case nsPath == sep:
		return sep + inner
	default:
		return nsPath + sep + inner
	}
}

// ClearCache empties both cache tiers.
func (r *Router) ClearCache() {
	r.cache.clear()
}

// ClearAll clears the cache, the action tree, and every registry. It is
// meant for full reinitialization and must not run concurrently with
// in-flight dispatches.
func (r *Router) ClearAll() {
	r.log.Info("clearing router")
	r.cache.clear()
	r.tree.Clear()
	r.actions = make(map[string]*Action)
	r.interceptors = make(map[string]Interceptor)
	r.stacks = make(map[string]*InterceptorStack)
	r.resultTypes = make(map[string]ResultType)
	r.results = make(map[string]*globalResult)
}

// CacheSnapshot returns a read-only merged view of the cache, exact entries
// taking precedence over wildcard entries on key collision.
func (r *Router) CacheSnapshot() map[string]CacheEntry {
	return r.cache.snapshot()
}

// CacheStats returns the cumulative cache hit and miss counts.
func (r *Router) CacheStats() (hits, misses uint64) {
	return r.cacheHits.Load(), r.cacheMisses.Load()
}
