// Package relay runs request/response middlewares one after another.
//
// A chain is an ordered list of middlewares. Each middleware receives the
// request, the response and a [Next] continuation; it proceeds by calling
// next, or stops the chain by returning without calling it. Before every
// middleware the runner asks the response whether it was already committed
// and stops if so.
//
//	handler := relay.Use(auth, loadUser, render)
//	err := handler(ctx, req, res)
//
// [WithErrorHandler] installs a single error boundary around the whole
// chain. Errors returned (or panics raised) anywhere in the chain reach the
// error handler exactly once:
//
//	handler := relay.WithErrorHandler(relay.Options[*http.Request, *relay.ResponseWriter]{
//		ErrorHandler: writeError,
//		Middlewares:  []relay.Middleware[*http.Request, *relay.ResponseWriter]{auth, render},
//	})
//	http.Handle("/", relay.HTTPHandler(handler, nil))
package relay
