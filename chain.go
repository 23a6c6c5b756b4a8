package relay

import (
	"context"
	"net/http"
)

// HTTPMiddleware is the classic net/http middleware signature
type HTTPMiddleware func(http.Handler) http.Handler

// Chain chains HTTPMiddleware to form a single HTTPMiddleware.
// The first middleware given is the outermost one.
func Chain(mwares ...HTTPMiddleware) HTTPMiddleware {
	return func(inner http.Handler) http.Handler {
		for i := len(mwares) - 1; i >= 0; i-- {
			inner = mwares[i](inner)
		}
		return inner
	}
}

// FromHTTP adapts an HTTPMiddleware into a chain middleware. The rest of
// the chain runs when mw calls its inner handler, with the context of the
// request mw passed on. Replacing the request or the writer otherwise has no
// effect on the rest of the chain.
func FromHTTP(mw HTTPMiddleware) Middleware[*http.Request, *ResponseWriter] {
	return func(ctx context.Context, r *http.Request, w *ResponseWriter, next Next) error {
		var err error
		inner := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			err = next(r.Context())
		})
		mw(inner).ServeHTTP(w, r.WithContext(ctx))
		return err
	}
}
