// Package web mounts a dispatch router behind HTTP and WebSocket
// transports. The HTTP handler forwards request paths straight into
// Router.Dispatch and renders the outcome; the WebSocket endpoint
// multiplexes dispatches over a single connection.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dispatchkit/dispatchkit/pkg/dispatch"
)

type contextKey int

const (
	requestKey contextKey = iota
	responseWriterKey
)

// RequestFrom returns the originating *http.Request when the invocation
// entered through the HTTP or WebSocket handler, or nil otherwise.
func RequestFrom(inv *dispatch.Invocation) *http.Request {
	req, _ := inv.Context().Value(requestKey).(*http.Request)
	return req
}

// ResponseWriterFrom returns the http.ResponseWriter for invocations that
// entered through the HTTP handler, or nil otherwise. Actions that write
// to it directly should return NoContent to suppress the default
// rendering.
func ResponseWriterFrom(inv *dispatch.Invocation) http.ResponseWriter {
	w, _ := inv.Context().Value(responseWriterKey).(http.ResponseWriter)
	return w
}

// NoContent is returned by actions (or result types) that have already
// written their response through ResponseWriterFrom.
type NoContent struct{}

// redirection is produced by the Redirect result type and interpreted by
// the HTTP handler.
type redirection struct {
	location string
	code     int
}

// Redirect creates a result type that sends an HTTP redirect to the
// result's location with the given status code. Outside an HTTP request
// the location string is returned as-is.
func Redirect(code int) dispatch.ResultType {
	return func(inv *dispatch.Invocation, res dispatch.Result) (any, error) {
		if RequestFrom(inv) == nil {
			return res.Location, nil
		}
		return redirection{location: res.Location, code: code}, nil
	}
}

// Forward creates a result type that re-dispatches to the action at the
// result's location on the same context, so the forwarded action still
// sees the original request and response writer.
func Forward() dispatch.ResultType {
	return func(inv *dispatch.Invocation, res dispatch.Result) (any, error) {
		return inv.Router().Dispatch(inv.Context(), res.Location, inv.Args()...)
	}
}

// HandlerConfig configures the HTTP handler.
type HandlerConfig struct {
	// MetricsPath mounts the Prometheus scrape endpoint when non-empty,
	// e.g. "/metrics".
	MetricsPath string

	// WebSocketPath mounts the WebSocket dispatch endpoint when
	// non-empty, e.g. "/ws".
	WebSocketPath string

	// Middleware is applied to the chi mux in order.
	Middleware []func(http.Handler) http.Handler
}

// HandlerOption configures the HTTP handler.
type HandlerOption func(*HandlerConfig)

// WithMetricsPath mounts promhttp at the given path.
func WithMetricsPath(path string) HandlerOption {
	return func(c *HandlerConfig) { c.MetricsPath = path }
}

// WithWebSocketPath mounts the WebSocket endpoint at the given path.
func WithWebSocketPath(path string) HandlerOption {
	return func(c *HandlerConfig) { c.WebSocketPath = path }
}

// WithMiddleware appends HTTP middleware applied before dispatch.
func WithMiddleware(mw ...func(http.Handler) http.Handler) HandlerOption {
	return func(c *HandlerConfig) { c.Middleware = append(c.Middleware, mw...) }
}

// Handler returns an http.Handler that dispatches every request path
// through the router and renders the result:
//
//   - string and []byte are written as-is
//   - NoContent writes nothing (the action handled the response)
//   - a Redirect result sends the HTTP redirect
//   - anything else is JSON encoded
//
// A dispatch failing with ErrNotFound becomes a 404; other errors become
// a 500. The request and response writer are reachable from interceptors
// and actions via RequestFrom and ResponseWriterFrom.
func Handler(r *dispatch.Router, opts ...HandlerOption) http.Handler {
	var config HandlerConfig
	for _, opt := range opts {
		opt(&config)
	}

	mux := chi.NewRouter()
	for _, mw := range config.Middleware {
		mux.Use(mw)
	}
	if config.MetricsPath != "" {
		mux.Handle(config.MetricsPath, promhttp.Handler())
	}
	if config.WebSocketPath != "" {
		mux.Handle(config.WebSocketPath, WebSocket(r))
	}
	mux.NotFound(func(w http.ResponseWriter, req *http.Request) {
		serveDispatch(r, w, req)
	})
	return mux
}

func serveDispatch(r *dispatch.Router, w http.ResponseWriter, req *http.Request) {
	ctx := context.WithValue(req.Context(), requestKey, req)
	ctx = context.WithValue(ctx, responseWriterKey, w)

	res, err := r.Dispatch(ctx, req.URL.Path, argsFromQuery(req)...)
	if err != nil {
		if errors.Is(err, dispatch.ErrNotFound) {
			http.NotFound(w, req)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeResult(w, req, res)
}

// argsFromQuery passes the raw query string as the single dispatch
// argument when present. Actions that need parsed values read the
// request via RequestFrom.
func argsFromQuery(req *http.Request) []any {
	if req.URL.RawQuery == "" {
		return nil
	}
	return []any{req.URL.RawQuery}
}

func writeResult(w http.ResponseWriter, req *http.Request, res any) {
	switch v := res.(type) {
	case nil, NoContent:
	case redirection:
		http.Redirect(w, req, v.location, v.code)
	case string:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(v))
	case []byte:
		w.Write(v)
	default:
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(v); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
