package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/dispatchkit/dispatchkit/pkg/dispatch"
)

// wsRequest is one dispatch request on the wire. ID correlates the reply;
// the client picks it.
type wsRequest struct {
	ID   string            `json:"id"`
	Path string            `json:"path"`
	Args []json.RawMessage `json:"args,omitempty"`
}

// wsResponse carries the dispatch outcome back to the client. Exactly one
// of Result and Error is set.
type wsResponse struct {
	ID     string `json:"id"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// WSConfig configures the WebSocket endpoint.
type WSConfig struct {
	// Upgrader performs the HTTP upgrade. The zero value uses default
	// buffer sizes and the same-origin check.
	Upgrader websocket.Upgrader

	// Logger logs upgrade and read failures. Defaults to slog.Default().
	Logger *slog.Logger
}

// WSOption configures the WebSocket endpoint.
type WSOption func(*WSConfig)

// WithUpgrader sets the websocket upgrader.
func WithUpgrader(u websocket.Upgrader) WSOption {
	return func(c *WSConfig) { c.Upgrader = u }
}

// WithWSLogger sets the logger.
func WithWSLogger(l *slog.Logger) WSOption {
	return func(c *WSConfig) { c.Logger = l }
}

// WebSocket returns an http.Handler that upgrades the connection and then
// serves dispatch requests over it. Each JSON frame {"id", "path", "args"}
// is dispatched concurrently; replies are written as {"id", "result"} or
// {"id", "error"} and may arrive out of order.
func WebSocket(r *dispatch.Router, opts ...WSOption) http.Handler {
	var config WSConfig
	for _, opt := range opts {
		opt(&config)
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		conn, err := config.Upgrader.Upgrade(w, req, nil)
		if err != nil {
			config.Logger.Error("websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		ctx := context.WithValue(req.Context(), requestKey, req)

		var writeMu sync.Mutex
		var wg sync.WaitGroup
		defer wg.Wait()

		for {
			var msg wsRequest
			if err := conn.ReadJSON(&msg); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					config.Logger.Debug("websocket read ended", "error", err)
				}
				return
			}

			wg.Add(1)
			go func(msg wsRequest) {
				defer wg.Done()
				resp := serveWSDispatch(ctx, r, msg)
				writeMu.Lock()
				defer writeMu.Unlock()
				if err := conn.WriteJSON(resp); err != nil {
					config.Logger.Debug("websocket write failed", "id", msg.ID, "error", err)
				}
			}(msg)
		}
	})
}

func serveWSDispatch(ctx context.Context, r *dispatch.Router, msg wsRequest) wsResponse {
	args := make([]any, len(msg.Args))
	for i, raw := range msg.Args {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return wsResponse{ID: msg.ID, Error: "bad argument: " + err.Error()}
		}
		args[i] = v
	}

	res, err := r.Dispatch(ctx, msg.Path, args...)
	if err != nil {
		return wsResponse{ID: msg.ID, Error: err.Error()}
	}
	if b, ok := res.([]byte); ok {
		res = string(b)
	}
	return wsResponse{ID: msg.ID, Result: res}
}
