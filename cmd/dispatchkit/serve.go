package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dispatchkit/dispatchkit/pkg/dispatch"
	"github.com/dispatchkit/dispatchkit/pkg/middleware"
	"github.com/dispatchkit/dispatchkit/pkg/resulttype"
	"github.com/dispatchkit/dispatchkit/pkg/web"
)

// routesFile is the on-disk route table loaded by serve. Each route maps a
// path pattern to a static response or to a result reference.
type routesFile struct {
	Suffix string  `json:"suffix,omitempty"`
	Routes []route `json:"routes"`
}

type route struct {
	// Path is the registered pattern, e.g. "/user/*id".
	Path string `json:"path"`

	// Response is a template for the reply. Occurrences of {name} are
	// replaced with the wildcard capture of that name.
	Response string `json:"response,omitempty"`

	// Result is a "type:location" result string returned instead of
	// Response when set.
	Result string `json:"result,omitempty"`

	// Interceptors are interceptor names applied to this route.
	Interceptors []string `json:"interceptors,omitempty"`
}

func serveCmd() *cobra.Command {
	var (
		addr        string
		routesPath  string
		cacheSize   int
		suffix      string
		metricsPath string
		wsPath      string
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a routes file over HTTP and WebSocket",
		Long: `Load a JSON routes file, register its routes, and serve the
router over HTTP.

Example routes file:

  {
    "routes": [
      {"path": "/ping", "response": "pong"},
      {"path": "/user/*id", "response": "user {id}"},
      {"path": "/old", "result": "redirect:/ping"}
    ]
  }

Examples:
  dispatchkit serve --routes routes.json
  dispatchkit serve --routes routes.json --addr :9090 --metrics /metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, routesPath, cacheSize, suffix, metricsPath, wsPath, verbose)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "Address to listen on")
	cmd.Flags().StringVarP(&routesPath, "routes", "r", "routes.json", "Path to the routes file")
	cmd.Flags().IntVar(&cacheSize, "cache-size", 10000, "Matched-path cache capacity (0 disables caching)")
	cmd.Flags().StringVar(&suffix, "suffix", ".", "Path suffix stripped before matching")
	cmd.Flags().StringVar(&metricsPath, "metrics", "/metrics", "Prometheus scrape path (empty disables)")
	cmd.Flags().StringVar(&wsPath, "ws", "/ws", "WebSocket dispatch path (empty disables)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

func runServe(addr, routesPath string, cacheSize int, suffix, metricsPath, wsPath string, verbose bool) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	rf, err := loadRoutes(routesPath)
	if err != nil {
		return fmt.Errorf("load routes: %w", err)
	}

	cfg := dispatch.DefaultConfig()
	cfg.CacheCapacity = cacheSize
	cfg.Suffix = suffix
	if rf.Suffix != "" {
		cfg.Suffix = rf.Suffix
	}
	cfg.Logger = logger
	cfg.DefaultResultType = "text"

	r := dispatch.New(cfg)
	if err := registerBuiltins(r, metricsPath != ""); err != nil {
		return err
	}
	for _, rt := range rf.Routes {
		if err := registerRoute(r, rt, metricsPath != ""); err != nil {
			return fmt.Errorf("route %q: %w", rt.Path, err)
		}
	}
	logger.Info("routes loaded", "file", routesPath, "count", len(rf.Routes))

	var opts []web.HandlerOption
	if metricsPath != "" {
		opts = append(opts, web.WithMetricsPath(metricsPath))
	}
	if wsPath != "" {
		opts = append(opts, web.WithWebSocketPath(wsPath))
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           web.Handler(r, opts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func loadRoutes(path string) (*routesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rf routesFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return nil, err
	}
	return &rf, nil
}

func registerBuiltins(r *dispatch.Router, metrics bool) error {
	if err := r.AddResultType("text", resulttype.Text()); err != nil {
		return err
	}
	if err := r.AddResultType("json", resulttype.JSON()); err != nil {
		return err
	}
	if err := r.AddResultType("chain", resulttype.Chain()); err != nil {
		return err
	}
	if err := r.AddResultType("redirect", web.Redirect(http.StatusFound)); err != nil {
		return err
	}
	if err := r.AddResultType("forward", web.Forward()); err != nil {
		return err
	}
	if metrics {
		if err := r.AddInterceptor("metrics", middleware.Prometheus()); err != nil {
			return err
		}
	}
	return r.AddInterceptor("trace", middleware.OpenTelemetry())
}

func registerRoute(r *dispatch.Router, rt route, metrics bool) error {
	interceptors := rt.Interceptors
	if interceptors == nil && metrics {
		interceptors = []string{"metrics"}
	}
	return r.Register(dispatch.ActionDef{
		Name:         rt.Path,
		Interceptors: interceptors,
		Func: func(inv *dispatch.Invocation) (any, error) {
			if rt.Result != "" {
				return rt.Result, nil
			}
			return expand(rt.Response, inv.PathParams()), nil
		},
	})
}

// expand replaces {name} placeholders with wildcard captures.
func expand(tmpl string, params map[string]string) string {
	out := tmpl
	for name, value := range params {
		out = strings.ReplaceAll(out, "{"+name+"}", value)
	}
	return out
}
