package middleware

import "net/http"

// RouteMiddleware wraps a single route handler, e.g. a session guard.
type RouteMiddleware func(next http.HandlerFunc) http.HandlerFunc

// SetChain wraps h with the given middlewares, the first one being the outermost.
func SetChain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}

	return h
}

// SetRouteChain wraps a route handler, the first middleware being the outermost.
func SetRouteChain(h http.HandlerFunc, middlewares ...RouteMiddleware) http.HandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}

	return h
}
