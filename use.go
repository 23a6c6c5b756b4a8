package relay

import (
	"context"

	"github.com/go-kit/kit/log"
)

// Options configures a composed chain
type Options[Req any, Res Committer] struct {
	// ErrorHandler receives any error escaping the chain. If nil, errors
	// propagate to the caller of the handler.
	ErrorHandler ErrorHandler[Res]

	// Middlewares in execution order.
	Middlewares []Middleware[Req, Res]

	// Logger receives debug diagnostics of the runner. Defaults to a nop
	// logger.
	Logger log.Logger
}

// Use composes middlewares into a single handler that runs them in order,
// starting from the first. Errors propagate to the handler's caller.
func Use[Req any, Res Committer](middlewares ...Middleware[Req, Res]) Handler[Req, Res] {
	c := newChain(middlewares, nil, nil)
	return func(ctx context.Context, req Req, res Res) error {
		return c.run(ctx, req, res, 0)
	}
}

// WithErrorHandler composes opts.Middlewares like Use, but routes any error
// raised anywhere in the chain to opts.ErrorHandler.
func WithErrorHandler[Req any, Res Committer](opts Options[Req, Res]) Handler[Req, Res] {
	c := newChain(opts.Middlewares, opts.ErrorHandler, opts.Logger)
	if c.errorHandler == nil {
		return func(ctx context.Context, req Req, res Res) error {
			return c.run(ctx, req, res, 0)
		}
	}
	return func(ctx context.Context, req Req, res Res) error {
		return c.guarded(ctx, req, res, 0)
	}
}
