package relay_test

import (
	"context"
	"strings"

	"github.com/go-midway/relay"
)

type request struct {
	path string
}

type response struct {
	committed bool
	body      string
}

func (res *response) Committed() bool {
	return res.committed
}

func (res *response) send(body string) {
	res.body = body
	res.committed = true
}

// recorder appends the name of every middleware invoked to a trace
type recorder struct {
	trace []string
}

func (rec *recorder) pass(name string) relay.Middleware[*request, *response] {
	return func(ctx context.Context, req *request, res *response, next relay.Next) error {
		rec.trace = append(rec.trace, name)
		return next(ctx)
	}
}

func (rec *recorder) stop(name string) relay.Middleware[*request, *response] {
	return func(ctx context.Context, req *request, res *response, next relay.Next) error {
		rec.trace = append(rec.trace, name)
		return nil
	}
}

func (rec *recorder) write(name, body string) relay.Middleware[*request, *response] {
	return func(ctx context.Context, req *request, res *response, next relay.Next) error {
		rec.trace = append(rec.trace, name)
		res.send(body)
		return nil
	}
}

func (rec *recorder) fail(name string, err error) relay.Middleware[*request, *response] {
	return func(ctx context.Context, req *request, res *response, next relay.Next) error {
		rec.trace = append(rec.trace, name)
		return err
	}
}

func (rec *recorder) String() string {
	return strings.Join(rec.trace, ",")
}
