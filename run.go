package relay

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

type chain[Req any, Res Committer] struct {
	middlewares  []Middleware[Req, Res]
	errorHandler ErrorHandler[Res]
	logger       log.Logger
}

// run dispatches middlewares[index]. Recursive calls made through next
// never install a guard of their own.
func (c *chain[Req, Res]) run(ctx context.Context, req Req, res Res, index int) error {
	if index < 0 || index >= len(c.middlewares) {
		return nil
	}

	// a previous middleware may have committed the response
	if res.Committed() {
		level.Debug(c.logger).Log("msg", "response committed, chain stopped", "index", index)
		return nil
	}

	next := func(ctx context.Context) error {
		nextIndex := index + 1
		if nextIndex >= len(c.middlewares) {
			return nil
		}
		return c.run(ctx, req, res, nextIndex)
	}
	return c.middlewares[index](ctx, req, res, next)
}

// guarded runs the chain from index and funnels whatever escapes it,
// returned or panicked, into the error handler exactly once.
func (c *chain[Req, Res]) guarded(ctx context.Context, req Req, res Res, index int) error {
	err := c.protect(ctx, req, res, index)
	if err == nil {
		return nil
	}
	level.Debug(c.logger).Log("msg", "chain error intercepted", "err", err)
	return c.errorHandler(ctx, res, err)
}

func (c *chain[Req, Res]) protect(ctx context.Context, req Req, res Res, index int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok && errors.Is(e, http.ErrAbortHandler) {
				panic(r)
			}
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return c.run(ctx, req, res, index)
}

func newChain[Req any, Res Committer](middlewares []Middleware[Req, Res], errorHandler ErrorHandler[Res], logger log.Logger) *chain[Req, Res] {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	mws := make([]Middleware[Req, Res], len(middlewares))
	copy(mws, middlewares)
	return &chain[Req, Res]{
		middlewares:  mws,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// Run executes middlewares[index:] against req and res. Errors returned by
// any middleware propagate to the caller untouched.
func Run[Req any, Res Committer](ctx context.Context, req Req, res Res, middlewares []Middleware[Req, Res], index int) error {
	return newChain(middlewares, nil, nil).run(ctx, req, res, index)
}

// RunWithErrorHandler is Run with a single error boundary around the whole
// execution. A nil errorHandler makes it identical to Run.
func RunWithErrorHandler[Req any, Res Committer](ctx context.Context, req Req, res Res, middlewares []Middleware[Req, Res], index int, errorHandler ErrorHandler[Res]) error {
	c := newChain(middlewares, errorHandler, nil)
	if errorHandler == nil {
		return c.run(ctx, req, res, index)
	}
	return c.guarded(ctx, req, res, index)
}
