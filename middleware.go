package relay

import "context"

// Committer is the single capability the runner needs from a response:
// whether sending it has already begun.
type Committer interface {
	Committed() bool
}

// Next runs the remainder of the chain, starting at the middleware after
// the one it was handed to.
type Next func(ctx context.Context) error

// Middleware defines function signature of a middleware in a chain.
// It either calls next to continue, or returns without calling it to stop.
type Middleware[Req any, Res Committer] func(ctx context.Context, req Req, res Res, next Next) error

// ErrorHandler receives any error escaping a guarded chain
type ErrorHandler[Res Committer] func(ctx context.Context, res Res, err error) error

// Handler is a composed chain, ready to be invoked once per request
type Handler[Req any, Res Committer] func(ctx context.Context, req Req, res Res) error
