package http

import (
	"fmt"

	"github.com/gorilla/mux"
)

// ImplementsServer verifies that a given `*mux.Router` has handlers for
// all routes specified in `NewAPIRouter()`.
//
// Returns an error if router doesn't fully implement `NewAPIRouter()`,
// nil otherwise.
func ImplementsServer(router *mux.Router) error {
	apiRouter := NewAPIRouter()
	return apiRouter.Walk(makeWalkFunc(router))
}

// makeWalkFunc creates a function which verifies that the route passed
// to it both exists in the router under test and has a handler attached.
func makeWalkFunc(router *mux.Router) mux.WalkFunc {
	return mux.WalkFunc(func(r *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		route := router.Get(r.GetName())
		if route == nil {
			return fmt.Errorf("no route by name %q in router", r.GetName())
		}
		if route.GetHandler() == nil {
			return fmt.Errorf("no handler for route %q in router", r.GetName())
		}
		return nil
	})
}
