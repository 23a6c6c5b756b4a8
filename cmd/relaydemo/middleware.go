package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/go-midway/relay"
	"github.com/go-midway/relay/logcontext"
	"github.com/google/uuid"
)

type middleware = relay.Middleware[*http.Request, *relay.ResponseWriter]

const maxNameLength = 64

// statusError carries the status code the error handler responds with
type statusError struct {
	status int
	msg    string
}

func (err *statusError) Error() string {
	return err.msg
}

// requestID applies X-Request-ID to the request header if it is not set,
// and echoes it on the response
func requestID(ctx context.Context, r *http.Request, w *relay.ResponseWriter, next relay.Next) error {
	id := r.Header.Get("X-Request-ID")
	if id == "" {
		id = uuid.NewString()
		r.Header.Set("X-Request-ID", id)
	}
	w.Header().Set("X-Request-ID", id)
	return next(ctx)
}

// accessLog logs every request once the rest of the chain has finished,
// and provides the request scoped logger to it
func accessLog(ctx context.Context, r *http.Request, w *relay.ResponseWriter, next relay.Next) error {
	logger := kitlog.With(logcontext.GetLogger(ctx), "request_id", r.Header.Get("X-Request-ID"))
	start := time.Now()

	err := next(logcontext.WithLogger(ctx, logger))

	level.Info(logger).Log(
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
		"status", w.Status(),
		"size", w.Size(),
		"took", time.Since(start),
	)
	return err
}

func noSniff(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		inner.ServeHTTP(w, r)
	})
}

// tokenGate stops the chain with 401 unless X-Demo-Token matches token.
// An empty token disables the check.
func tokenGate(token string) middleware {
	return func(ctx context.Context, r *http.Request, w *relay.ResponseWriter, next relay.Next) error {
		if token != "" && r.Header.Get("X-Demo-Token") != token {
			return writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		}
		return next(ctx)
	}
}

func greet(greeting string) middleware {
	return func(ctx context.Context, r *http.Request, w *relay.ResponseWriter, next relay.Next) error {
		name := r.URL.Query().Get("name")
		if name == "" {
			name = "world"
		}
		if len(name) > maxNameLength {
			return &statusError{
				status: http.StatusBadRequest,
				msg:    fmt.Sprintf("name longer than %d bytes", maxNameLength),
			}
		}
		return writeJSON(w, http.StatusOK, map[string]string{
			"message":    fmt.Sprintf("%s, %s!", greeting, name),
			"request_id": r.Header.Get("X-Request-ID"),
		})
	}
}

// writeError answers with the status of a *statusError, 500 otherwise.
// A response already on its way is left alone.
func writeError(ctx context.Context, w *relay.ResponseWriter, err error) error {
	if w.Committed() {
		return nil
	}
	status, msg := http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	var serr *statusError
	if errors.As(err, &serr) {
		status, msg = serr.status, serr.msg
	}
	return writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func newHandler(cfg Config, logger kitlog.Logger) http.Handler {
	chain := relay.WithErrorHandler(relay.Options[*http.Request, *relay.ResponseWriter]{
		ErrorHandler: logcontext.LogErrors(logger, writeError),
		Middlewares: []middleware{
			requestID,
			logcontext.ProvideLoggers[*http.Request, *relay.ResponseWriter](logger, logger),
			accessLog,
			relay.FromHTTP(noSniff),
			tokenGate(cfg.Token),
			greet(cfg.Greeting),
		},
		Logger: logger,
	})
	return relay.HTTPHandler(chain, nil)
}
