package logcontext

import (
	"context"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/go-midway/relay"
)

// ProvideLoggers provides info and error loggers to the rest of the chain
func ProvideLoggers[Req any, Res relay.Committer](info, err kitlog.Logger) relay.Middleware[Req, Res] {
	return func(ctx context.Context, req Req, res Res, next relay.Next) error {
		return next(WithLoggers(ctx, info, err))
	}
}

// LogErrors logs every error reaching the error handler, then hands it to
// inner. With a nil inner the error is only logged.
//
// The error handler runs outside the chain and never sees a context built
// by ProvideLoggers, so pass the same error logger here. A nil errLogger
// falls back to the error logger of the context the chain was invoked with.
func LogErrors[Res relay.Committer](errLogger kitlog.Logger, inner relay.ErrorHandler[Res]) relay.ErrorHandler[Res] {
	return func(ctx context.Context, res Res, err error) error {
		logger := errLogger
		if logger == nil {
			logger = GetErrLogger(ctx)
		}
		level.Error(logger).Log(
			"msg", "middleware chain failed",
			"committed", res.Committed(),
			"err", err,
		)
		if inner == nil {
			return nil
		}
		return inner(ctx, res, err)
	}
}
