package dispatch

import (
	"context"
	"errors"
	"testing"
)

func echoPathParams(inv *Invocation) (any, error) {
	return inv.PathParams(), nil
}

func TestDispatchExactPath(t *testing.T) {
	r := New(testConfig())
	called := 0
	if err := r.Register(ActionDef{Name: "/users/list", Func: func(inv *Invocation) (any, error) {
		called++
		return 1, nil
	}}); err != nil {
		t.Fatal(err)
	}

	if _, err := r.Dispatch(context.Background(), "/users/list"); err != nil {
		t.Fatal(err)
	}
	if called != 1 {
		t.Errorf("called = %d, want 1", called)
	}
}

func TestDispatchNotFound(t *testing.T) {
	r := New(testConfig())
	_, err := r.Dispatch(context.Background(), "/missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Kind != "action" {
		t.Errorf("error = %#v, want action not-found", err)
	}
}

func TestDispatchCacheIdempotence(t *testing.T) {
	r := New(testConfig())
	var seen []*Action
	if err := r.Register(ActionDef{Name: "/p", Func: func(inv *Invocation) (any, error) {
		seen = append(seen, inv.Action())
		return nil, nil
	}}); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if _, err := r.Dispatch(context.Background(), "/p"); err != nil {
			t.Fatal(err)
		}
		r.ClearCache()
	}
	if _, err := r.Dispatch(context.Background(), "/p"); err != nil {
		t.Fatal(err)
	}

	for i := 1; i < len(seen); i++ {
		if seen[i] != seen[0] {
			t.Fatalf("dispatch %d resolved a different action identity", i)
		}
	}
}

func TestDispatchWildcardWithSuffix(t *testing.T) {
	r := New(testConfig()) // suffix "."
	if err := r.Register(ActionDef{Name: "/user/*id", Func: echoPathParams}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		id   string
	}{
		{"/user/42.", "42"},
		{"/user/42.do", "42"}, // single-char marker truncates at last '.'
		{"/user/42", "42"},
	}
	for _, tt := range tests {
		got, err := r.Dispatch(context.Background(), tt.path)
		if err != nil {
			t.Fatalf("Dispatch(%q): %v", tt.path, err)
		}
		params := got.(map[string]string)
		if params["id"] != tt.id {
			t.Errorf("Dispatch(%q) captured id=%q, want %q", tt.path, params["id"], tt.id)
		}
	}
}

func TestStripSuffix(t *testing.T) {
	tests := []struct {
		suffix string
		path   string
		want   string
	}{
		{".", "/user/42.", "/user/42"},
		{".", "/user/42.do", "/user/42"},
		{".", "/user/42", "/user/42"},
		{"", "/user/42.do", "/user/42.do"},
		{".do", "/a/b.do", "/a/b"},
		{".do", "/a/b.doc", "/a/b.doc"},
		{"action", "/a/b_action", "/a/b"},
		{"action", "/a/baction", "/a/b"},
	}
	for _, tt := range tests {
		cfg := testConfig()
		cfg.Suffix = tt.suffix
		r := New(cfg)
		if got := r.stripSuffix(tt.path); got != tt.want {
			t.Errorf("stripSuffix(%q) with suffix %q = %q, want %q", tt.path, tt.suffix, got, tt.want)
		}
	}
}

func TestRegisterDuplicateExactPath(t *testing.T) {
	r := New(testConfig())
	def := ActionDef{Name: "/dup", Func: stringAction("x")}
	if err := r.Register(def); err != nil {
		t.Fatal(err)
	}
	err := r.Register(def)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second Register = %v, want ErrDuplicate", err)
	}
}

func TestRegisterAmbiguousWildcardAllowed(t *testing.T) {
	r := New(testConfig())
	if err := r.Register(ActionDef{Name: "/a/*x", Func: stringAction("wild")}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(ActionDef{Name: "/a/b", Func: stringAction("lit")}); err != nil {
		t.Fatalf("ambiguous registration rejected: %v", err)
	}

	// The literal branch wins the overlapping path.
	got, err := r.Dispatch(context.Background(), "/a/b")
	if err != nil {
		t.Fatal(err)
	}
	if got != "lit" {
		t.Errorf("Dispatch(/a/b) = %v, want the literal action", got)
	}
}

func TestLRUEvictionThroughDispatch(t *testing.T) {
	cfg := testConfig()
	cfg.CacheCapacity = 2
	r := New(cfg)
	if err := r.Register(ActionDef{Name: "/u/*id", Func: echoPathParams}); err != nil {
		t.Fatal(err)
	}

	for _, p := range []string{"/u/1", "/u/2", "/u/3"} {
		if _, err := r.Dispatch(context.Background(), p); err != nil {
			t.Fatal(err)
		}
	}

	snap := r.CacheSnapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot size = %d, want 2", len(snap))
	}
	if _, ok := snap["/u/1"]; ok {
		t.Error("expected /u/1 evicted as least recently used")
	}
	for _, p := range []string{"/u/2", "/u/3"} {
		if _, ok := snap[p]; !ok {
			t.Errorf("expected %s retained", p)
		}
	}
}

func TestCacheDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.CacheCapacity = 0
	r := New(cfg)
	if err := r.Register(ActionDef{Name: "/u/*id", Func: echoPathParams}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Dispatch(context.Background(), "/u/1"); err != nil {
		t.Fatal(err)
	}
	if snap := r.CacheSnapshot(); len(snap) != 0 {
		t.Errorf("snapshot size = %d with caching disabled, want 0", len(snap))
	}
}

func TestInterceptorChainOrder(t *testing.T) {
	r := New(testConfig())
	var order []string
	tag := func(name string) Interceptor {
		return func(inv *Invocation) (any, error) {
			order = append(order, name)
			return inv.Proceed()
		}
	}
	for _, n := range []string{"auth", "log", "timer"} {
		if err := r.AddInterceptor(n, tag(n)); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.AddInterceptorStack("base", "auth", "log"); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(ActionDef{
		Name:             "/x",
		InterceptorStack: "base",
		Interceptors:     []string{"timer"},
		Func: func(inv *Invocation) (any, error) {
			order = append(order, "action")
			return nil, nil
		},
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := r.Dispatch(context.Background(), "/x"); err != nil {
		t.Fatal(err)
	}
	want := []string{"auth", "log", "timer", "action"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestNamespaceInterceptorDefaults(t *testing.T) {
	r := New(testConfig())
	called := false
	if err := r.AddInterceptor("nsint", func(inv *Invocation) (any, error) {
		called = true
		return inv.Proceed()
	}); err != nil {
		t.Fatal(err)
	}
	ns := &Namespace{Name: "admin", Interceptors: []string{"nsint"}}
	if err := r.Register(ActionDef{Name: "list", Namespace: ns, Func: stringAction("x")}); err != nil {
		t.Fatal(err)
	}

	if _, err := r.Dispatch(context.Background(), "/admin/list"); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("namespace interceptor not applied")
	}
}

func TestDefaultInterceptorStack(t *testing.T) {
	cfg := testConfig()
	cfg.DefaultInterceptorStack = "base"
	r := New(cfg)
	called := false
	if err := r.AddInterceptor("def", func(inv *Invocation) (any, error) {
		called = true
		return inv.Proceed()
	}); err != nil {
		t.Fatal(err)
	}
	if err := r.AddInterceptorStack("base", "def"); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(ActionDef{Name: "/y", Func: stringAction("x")}); err != nil {
		t.Fatal(err)
	}

	if _, err := r.Dispatch(context.Background(), "/y"); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("default stack interceptor not applied")
	}
}

func TestUnresolvableInterceptorSkipped(t *testing.T) {
	r := New(testConfig())
	if err := r.Register(ActionDef{
		Name:         "/z",
		Interceptors: []string{"ghost"},
		Func:         stringAction("x"),
	}); err != nil {
		t.Fatalf("registration aborted on unresolvable interceptor: %v", err)
	}
	if n := len(r.actions["/z"].chain); n != 0 {
		t.Errorf("chain length = %d, want 0", n)
	}
	if _, err := r.Dispatch(context.Background(), "/z"); err != nil {
		t.Fatal(err)
	}
}

func TestInterceptorShortCircuit(t *testing.T) {
	r := New(testConfig())
	invoked := false
	if err := r.AddInterceptor("deny", func(inv *Invocation) (any, error) {
		return "denied", nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(ActionDef{
		Name:         "/secure",
		Interceptors: []string{"deny"},
		Func: func(inv *Invocation) (any, error) {
			invoked = true
			return "secret", nil
		},
	}); err != nil {
		t.Fatal(err)
	}

	got, err := r.Dispatch(context.Background(), "/secure")
	if err != nil {
		t.Fatal(err)
	}
	if invoked {
		t.Error("action ran despite short-circuiting interceptor")
	}
	if got != "denied" {
		t.Errorf("Dispatch(/secure) = %v, want denied", got)
	}
}

func TestInvocationErrorPassthrough(t *testing.T) {
	r := New(testConfig())
	boom := errors.New("boom")
	if err := r.Register(ActionDef{Name: "/err", Func: func(inv *Invocation) (any, error) {
		return nil, boom
	}}); err != nil {
		t.Fatal(err)
	}

	_, err := r.Dispatch(context.Background(), "/err")
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want the original cause", err)
	}
}

func TestPrototypeScope(t *testing.T) {
	r := New(testConfig())
	instances := 0
	def := ActionDef{
		Name:  "/proto",
		Scope: ScopePrototype,
		Func:  stringAction("unused"),
		New: func() Func {
			instances++
			n := 0
			return func(inv *Invocation) (any, error) {
				n++
				return n, nil
			}
		},
	}
	if err := r.Register(def); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		got, err := r.Dispatch(context.Background(), "/proto")
		if err != nil {
			t.Fatal(err)
		}
		// A fresh callable per dispatch never accumulates state.
		if got != 1 {
			t.Errorf("dispatch %d = %v, want 1", i, got)
		}
	}
	if instances != 3 {
		t.Errorf("factory instantiated %d times, want 3", instances)
	}
}

func TestPrototypeRequiresFactory(t *testing.T) {
	r := New(testConfig())
	err := r.Register(ActionDef{Name: "/p2", Scope: ScopePrototype, Func: stringAction("x")})
	if err == nil {
		t.Fatal("expected registration error for prototype without factory")
	}
}

func TestBuildPath(t *testing.T) {
	r := New(testConfig())
	admin := &Namespace{Name: "admin"}
	tests := []struct {
		ns   *Namespace
		name string
		want string
	}{
		{nil, "list", "/list"},
		{nil, "/list", "/list"},
		{nil, " list ", "/list"},
		{admin, "list", "/admin/list"},
		{admin, "/list", "/list"},
		{admin, "", "/admin"},
		{&Namespace{Name: "/a/b/"}, "c", "/a/b/c"},
	}
	for _, tt := range tests {
		if got := r.buildPath(tt.ns, tt.name); got != tt.want {
			t.Errorf("buildPath(%v, %q) = %q, want %q", tt.ns, tt.name, got, tt.want)
		}
	}
}

func TestDuplicateRegistryEntries(t *testing.T) {
	r := New(testConfig())
	noop := func(inv *Invocation) (any, error) { return inv.Proceed() }
	if err := r.AddInterceptor("a", noop); err != nil {
		t.Fatal(err)
	}
	if err := r.AddInterceptor("a", noop); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate interceptor = %v, want ErrDuplicate", err)
	}
	if err := r.AddInterceptorStack("s"); err != nil {
		t.Fatal(err)
	}
	if err := r.AddInterceptorStack("s"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate stack = %v, want ErrDuplicate", err)
	}
	rt := func(inv *Invocation, res Result) (any, error) { return nil, nil }
	if err := r.AddResultType("t", rt); err != nil {
		t.Fatal(err)
	}
	if err := r.AddResultType("t", rt); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate result type = %v, want ErrDuplicate", err)
	}
	if err := r.AddResult(Result{Name: "r"}, stringAction("x")); err != nil {
		t.Fatal(err)
	}
	if err := r.AddResult(Result{Name: "r"}, stringAction("x")); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate result = %v, want ErrDuplicate", err)
	}
}

func TestClearAll(t *testing.T) {
	r := New(testConfig())
	if err := r.Register(ActionDef{Name: "/a", Func: stringAction("x")}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Dispatch(context.Background(), "/a"); err != nil {
		t.Fatal(err)
	}
	r.ClearAll()
	if _, err := r.Dispatch(context.Background(), "/a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Dispatch after ClearAll = %v, want ErrNotFound", err)
	}
	if len(r.Actions()) != 0 {
		t.Error("actions registry not cleared")
	}
}

func TestCacheStats(t *testing.T) {
	r := New(testConfig())
	if err := r.Register(ActionDef{Name: "/s", Func: stringAction("x")}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := r.Dispatch(context.Background(), "/s"); err != nil {
			t.Fatal(err)
		}
	}
	hits, misses := r.CacheStats()
	if misses != 1 || hits != 2 {
		t.Errorf("CacheStats() = (%d hits, %d misses), want (2, 1)", hits, misses)
	}
}

func TestActionParameters(t *testing.T) {
	r := New(testConfig())
	if err := r.Register(ActionDef{
		Name:       "/params",
		Parameters: map[string][]string{"role": {"admin", "ops"}},
		Func: func(inv *Invocation) (any, error) {
			return inv.Action().Parameters()["role"], nil
		},
	}); err != nil {
		t.Fatal(err)
	}
	got, err := r.Dispatch(context.Background(), "/params")
	if err != nil {
		t.Fatal(err)
	}
	roles := got.([]string)
	if len(roles) != 2 || roles[0] != "admin" {
		t.Errorf("parameters = %v", roles)
	}
}

func TestConcurrentDispatch(t *testing.T) {
	r := New(testConfig())
	if err := r.Register(ActionDef{Name: "/c/*id", Func: echoPathParams}); err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 16)
	for i := 0; i < 16; i++ {
		go func(i int) {
			_, err := r.Dispatch(context.Background(), "/c/7")
			done <- err
		}(i)
	}
	for i := 0; i < 16; i++ {
		if err := <-done; err != nil {
			t.Fatal(err)
		}
	}
}
