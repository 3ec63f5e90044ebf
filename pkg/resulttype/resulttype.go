// Package resulttype provides built-in result types for the dispatch
// router: plain text, JSON, action chaining, and S3-backed content.
package resulttype

import (
	"encoding/json"

	"github.com/dispatchkit/dispatchkit/pkg/dispatch"
)

// Text returns the result's location string unchanged. Useful as a default
// result type when outcomes are plain strings.
func Text() dispatch.ResultType {
	return func(inv *dispatch.Invocation, res dispatch.Result) (any, error) {
		return res.Location, nil
	}
}

// JSON marshals the dispatch outcome: the action path, the wildcard
// captures, and the result's location. The rendered bytes become the final
// result.
func JSON() dispatch.ResultType {
	return func(inv *dispatch.Invocation, res dispatch.Result) (any, error) {
		payload := struct {
			Action   string            `json:"action"`
			Params   map[string]string `json:"params,omitempty"`
			Location string            `json:"location,omitempty"`
		}{
			Action:   inv.Action().Path(),
			Params:   inv.PathParams(),
			Location: res.Location,
		}
		return json.Marshal(payload)
	}
}

// Chain re-dispatches to the action at the result's location, carrying the
// current invocation's arguments. The chained dispatch runs its own
// interceptors and result cascade; its outcome becomes the final result.
func Chain() dispatch.ResultType {
	return func(inv *dispatch.Invocation, res dispatch.Result) (any, error) {
		return inv.Router().Dispatch(inv.Context(), res.Location, inv.Args()...)
	}
}
