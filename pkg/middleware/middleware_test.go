package middleware

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dispatchkit/dispatchkit/pkg/dispatch"
)

func newRouter(t *testing.T) *dispatch.Router {
	t.Helper()
	cfg := dispatch.DefaultConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return dispatch.New(cfg)
}

func TestPrometheusInterceptorPassthrough(t *testing.T) {
	r := newRouter(t)
	if err := r.AddInterceptor("metrics", Prometheus(
		WithRegistry(prometheus.NewRegistry()),
	)); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(dispatch.ActionDef{
		Name:         "/m",
		Interceptors: []string{"metrics"},
		Func:         func(inv *dispatch.Invocation) (any, error) { return 1, nil },
	}); err != nil {
		t.Fatal(err)
	}

	got, err := r.Dispatch(context.Background(), "/m")
	if err != nil {
		t.Fatal(err)
	}
	if got != 1 {
		t.Errorf("Dispatch(/m) = %v, want 1", got)
	}
}

func TestOpenTelemetryInterceptorPassthrough(t *testing.T) {
	// The global provider defaults to a no-op tracer; the interceptor must
	// still forward value and error untouched.
	r := newRouter(t)
	if err := r.AddInterceptor("trace", OpenTelemetry(
		WithTracerName("test"),
		WithIncludeParams(true),
	)); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(dispatch.ActionDef{
		Name:         "/t/*id",
		Interceptors: []string{"trace"},
		Func: func(inv *dispatch.Invocation) (any, error) {
			return inv.PathParams()["id"], nil
		},
	}); err != nil {
		t.Fatal(err)
	}

	got, err := r.Dispatch(context.Background(), "/t/9")
	if err != nil {
		t.Fatal(err)
	}
	if got != "9" {
		t.Errorf("Dispatch(/t/9) = %v, want 9", got)
	}
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&dispatch.NotFoundError{Kind: "action", Name: "/x"}, "not_found"},
		{&dispatch.DuplicateError{Kind: "action", Name: "/x"}, "conflict"},
		{io.EOF, "internal"},
	}
	for _, tt := range tests {
		if got := categorizeError(tt.err); got != tt.want {
			t.Errorf("categorizeError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
