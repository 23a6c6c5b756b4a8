package logcontext

import (
	"context"
	"io"
	"os"

	kitlog "github.com/go-kit/kit/log"
)

type contextKey int

const (
	infoKey contextKey = iota
	errKey
)

// fallback destinations when a context carries no logger
var fallbackWriters = map[contextKey]io.Writer{
	infoKey: os.Stdout,
	errKey:  os.Stderr,
}

func lookup(ctx context.Context, key contextKey) kitlog.Logger {
	if logger, ok := ctx.Value(key).(kitlog.Logger); ok && logger != nil {
		return logger
	}
	return kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(fallbackWriters[key]))
}

// WithLoggers returns a context carrying both the info and the error logger.
// A nil logger leaves the corresponding one of parent in place.
func WithLoggers(parent context.Context, info, err kitlog.Logger) context.Context {
	ctx := parent
	if info != nil {
		ctx = context.WithValue(ctx, infoKey, info)
	}
	if err != nil {
		ctx = context.WithValue(ctx, errKey, err)
	}
	return ctx
}

// WithLogger stores the info logger in a context
func WithLogger(parent context.Context, logger kitlog.Logger) context.Context {
	return WithLoggers(parent, logger, nil)
}

// GetLogger returns the info logger of ctx, logfmt on stdout if none
func GetLogger(ctx context.Context) kitlog.Logger {
	return lookup(ctx, infoKey)
}

// WithErrLogger stores the error logger in a context
func WithErrLogger(parent context.Context, logger kitlog.Logger) context.Context {
	return WithLoggers(parent, nil, logger)
}

// GetErrLogger returns the error logger of ctx, logfmt on stderr if none
func GetErrLogger(ctx context.Context) kitlog.Logger {
	return lookup(ctx, errKey)
}
