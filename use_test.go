package relay_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-midway/relay"
)

func TestUse_empty(t *testing.T) {
	res := &response{}
	handler := relay.Use[*request, *response]()
	if err := handler(context.Background(), &request{}, res); err != nil {
		t.Errorf("unexpected error: %s", err.Error())
	}
	if res.committed {
		t.Errorf("expected response to be untouched")
	}
}

func TestUse_writeStopsChain(t *testing.T) {
	rec := &recorder{}
	res := &response{}
	c := func(ctx context.Context, req *request, res *response, next relay.Next) error {
		return errors.New("c must not run")
	}
	handler := relay.Use(rec.pass("a"), rec.write("b", "done"), c)

	if err := handler(context.Background(), &request{}, res); err != nil {
		t.Errorf("unexpected error: %s", err.Error())
	}
	if want, have := "a,b", rec.String(); want != have {
		t.Errorf("expected %#v, got %#v", want, have)
	}
	if want, have := "done", res.body; want != have {
		t.Errorf("expected %#v, got %#v", want, have)
	}
}

func TestUse_reusable(t *testing.T) {
	i, pm1, pm2 := 0, 0, 0
	m1 := func(ctx context.Context, req *request, res *response, next relay.Next) error {
		i++
		pm1 = i
		return next(ctx)
	}
	m2 := func(ctx context.Context, req *request, res *response, next relay.Next) error {
		i++
		pm2 = i
		return next(ctx)
	}
	handler := relay.Use(m1, m2)

	handler(context.Background(), &request{}, &response{})
	if want, have := 1, pm1; want != have {
		t.Errorf("expected %#v, got %#v", want, have)
	}
	if want, have := 2, pm2; want != have {
		t.Errorf("expected %#v, got %#v", want, have)
	}

	handler(context.Background(), &request{}, &response{})
	if want, have := 3, pm1; want != have {
		t.Errorf("expected %#v, got %#v", want, have)
	}
	if want, have := 4, pm2; want != have {
		t.Errorf("expected %#v, got %#v", want, have)
	}
}

func TestUse_listFixedAtComposition(t *testing.T) {
	rec := &recorder{}
	list := mws{rec.pass("a"), rec.pass("b")}
	handler := relay.Use(list...)
	list[1] = rec.pass("replaced")

	handler(context.Background(), &request{}, &response{})
	if want, have := "a,b", rec.String(); want != have {
		t.Errorf("expected %#v, got %#v", want, have)
	}
}

func TestUse_errorPropagates(t *testing.T) {
	rec := &recorder{}
	errBoom := errors.New("boom")
	handler := relay.Use(rec.pass("a"), rec.fail("b", errBoom), rec.pass("c"))

	err := handler(context.Background(), &request{}, &response{})
	if want, have := errBoom, err; want != have {
		t.Errorf("expected %#v, got %#v", want, have)
	}
	if want, have := "a,b", rec.String(); want != have {
		t.Errorf("expected %#v, got %#v", want, have)
	}
}

func TestWithErrorHandler_delivery(t *testing.T) {
	rec := &recorder{}
	errBoom := errors.New("boom")
	res := &response{}

	var calls int
	var gotRes *response
	var gotErr error
	handler := relay.WithErrorHandler(relay.Options[*request, *response]{
		ErrorHandler: func(ctx context.Context, res *response, err error) error {
			calls++
			gotRes, gotErr = res, err
			return nil
		},
		Middlewares: mws{rec.pass("a"), rec.fail("b", errBoom)},
	})

	if err := handler(context.Background(), &request{}, res); err != nil {
		t.Errorf("unexpected error: %s", err.Error())
	}
	if want, have := 1, calls; want != have {
		t.Errorf("expected %#v, got %#v", want, have)
	}
	if want, have := res, gotRes; want != have {
		t.Errorf("expected %#v, got %#v", want, have)
	}
	if want, have := errBoom, gotErr; want != have {
		t.Errorf("expected %#v, got %#v", want, have)
	}
	if want, have := "a,b", rec.String(); want != have {
		t.Errorf("expected %#v, got %#v", want, have)
	}
}

func TestWithErrorHandler_deepErrorDeliveredOnce(t *testing.T) {
	rec := &recorder{}
	errBoom := errors.New("boom")

	calls := 0
	handler := relay.WithErrorHandler(relay.Options[*request, *response]{
		ErrorHandler: func(ctx context.Context, res *response, err error) error {
			calls++
			return nil
		},
		Middlewares: mws{
			rec.pass("a"), rec.pass("b"), rec.pass("c"), rec.pass("d"),
			rec.fail("e", errBoom), rec.pass("f"),
		},
	})

	handler(context.Background(), &request{}, &response{})
	if want, have := 1, calls; want != have {
		t.Errorf("expected %#v, got %#v", want, have)
	}
	if want, have := "a,b,c,d,e", rec.String(); want != have {
		t.Errorf("expected %#v, got %#v", want, have)
	}
}

func TestWithErrorHandler_noError(t *testing.T) {
	rec := &recorder{}
	handler := relay.WithErrorHandler(relay.Options[*request, *response]{
		ErrorHandler: func(ctx context.Context, res *response, err error) error {
			t.Errorf("unexpected error handler call: %s", err.Error())
			return nil
		},
		Middlewares: mws{rec.pass("a"), rec.write("b", "ok")},
	})

	if err := handler(context.Background(), &request{}, &response{}); err != nil {
		t.Errorf("unexpected error: %s", err.Error())
	}
	if want, have := "a,b", rec.String(); want != have {
		t.Errorf("expected %#v, got %#v", want, have)
	}
}

func TestWithErrorHandler_handlerFailure(t *testing.T) {
	errBoom := errors.New("boom")
	errHandler := errors.New("handler failed")
	rec := &recorder{}

	handler := relay.WithErrorHandler(relay.Options[*request, *response]{
		ErrorHandler: func(ctx context.Context, res *response, err error) error {
			return errHandler
		},
		Middlewares: mws{rec.fail("a", errBoom)},
	})

	if want, have := errHandler, handler(context.Background(), &request{}, &response{}); want != have {
		t.Errorf("expected %#v, got %#v", want, have)
	}
}

func TestWithErrorHandler_panic(t *testing.T) {
	var gotErr error
	handler := relay.WithErrorHandler(relay.Options[*request, *response]{
		ErrorHandler: func(ctx context.Context, res *response, err error) error {
			gotErr = err
			return nil
		},
		Middlewares: mws{
			(&recorder{}).pass("a"),
			func(ctx context.Context, req *request, res *response, next relay.Next) error {
				panic("boom")
			},
		},
	})

	if err := handler(context.Background(), &request{}, &response{}); err != nil {
		t.Errorf("unexpected error: %s", err.Error())
	}
	var perr *relay.PanicError
	if !errors.As(gotErr, &perr) {
		t.Fatalf("expected *relay.PanicError, got %#v", gotErr)
	}
	if want, have := "boom", perr.Value; want != have {
		t.Errorf("expected %#v, got %#v", want, have)
	}
	if want, have := "middleware panic: boom", perr.Error(); want != have {
		t.Errorf("expected %#v, got %#v", want, have)
	}
	if len(perr.Stack) == 0 {
		t.Errorf("expected a stack trace")
	}
}

func TestWithErrorHandler_panicWithError(t *testing.T) {
	errBoom := errors.New("boom")
	var gotErr error
	handler := relay.WithErrorHandler(relay.Options[*request, *response]{
		ErrorHandler: func(ctx context.Context, res *response, err error) error {
			gotErr = err
			return nil
		},
		Middlewares: mws{func(ctx context.Context, req *request, res *response, next relay.Next) error {
			panic(errBoom)
		}},
	})

	handler(context.Background(), &request{}, &response{})
	if !errors.Is(gotErr, errBoom) {
		t.Errorf("expected error to wrap %#v, got %#v", errBoom, gotErr)
	}
}

func TestWithErrorHandler_abortHandlerRepanics(t *testing.T) {
	handler := relay.WithErrorHandler(relay.Options[*request, *response]{
		ErrorHandler: func(ctx context.Context, res *response, err error) error {
			t.Errorf("unexpected error handler call: %s", err.Error())
			return nil
		},
		Middlewares: mws{func(ctx context.Context, req *request, res *response, next relay.Next) error {
			panic(http.ErrAbortHandler)
		}},
	})

	defer func() {
		if want, have := http.ErrAbortHandler, recover(); want != have {
			t.Errorf("expected %#v, got %#v", want, have)
		}
	}()
	handler(context.Background(), &request{}, &response{})
	t.Errorf("expected panic")
}

func TestWithErrorHandler_nilHandler(t *testing.T) {
	errBoom := errors.New("boom")
	handler := relay.WithErrorHandler(relay.Options[*request, *response]{
		Middlewares: mws{(&recorder{}).fail("a", errBoom)},
	})

	if want, have := errBoom, handler(context.Background(), &request{}, &response{}); want != have {
		t.Errorf("expected %#v, got %#v", want, have)
	}
}

func TestWithErrorHandler_logger(t *testing.T) {
	buf := &bytes.Buffer{}
	errBoom := errors.New("boom")
	rec := &recorder{}
	handler := relay.WithErrorHandler(relay.Options[*request, *response]{
		ErrorHandler: func(ctx context.Context, res *response, err error) error {
			return nil
		},
		Middlewares: mws{rec.write("a", "x"), rec.pass("b")},
		Logger:      kitlog.NewLogfmtLogger(buf),
	})

	// a writes but does not call next: nothing to log
	handler(context.Background(), &request{}, &response{})
	if want, have := "", buf.String(); want != have {
		t.Errorf("expected %#v, got %#v", want, have)
	}

	// the response was committed before the chain started
	handler(context.Background(), &request{}, &response{committed: true})
	if want, have := "level=debug msg=\"response committed, chain stopped\" index=0\n", buf.String(); want != have {
		t.Errorf("expected %#v, got %#v", want, have)
	}

	buf.Reset()
	handler = relay.WithErrorHandler(relay.Options[*request, *response]{
		ErrorHandler: func(ctx context.Context, res *response, err error) error {
			return nil
		},
		Middlewares: mws{rec.fail("a", errBoom)},
		Logger:      kitlog.NewLogfmtLogger(buf),
	})
	handler(context.Background(), &request{}, &response{})
	if want, have := "level=debug msg=\"chain error intercepted\" err=boom\n", buf.String(); want != have {
		t.Errorf("expected %#v, got %#v", want, have)
	}
}

func TestWithErrorHandler_errorAfterSuspension(t *testing.T) {
	rec := &recorder{}
	errBoom := errors.New("boom")
	slowFail := func(ctx context.Context, req *request, res *response, next relay.Next) error {
		result := make(chan error)
		go func() {
			time.Sleep(10 * time.Millisecond)
			result <- errBoom
		}()
		rec.trace = append(rec.trace, "slow")
		return <-result
	}

	calls := 0
	var gotErr error
	handler := relay.WithErrorHandler(relay.Options[*request, *response]{
		ErrorHandler: func(ctx context.Context, res *response, err error) error {
			calls++
			gotErr = err
			return nil
		},
		Middlewares: mws{rec.pass("a"), slowFail, rec.pass("c"), rec.pass("d")},
	})

	if err := handler(context.Background(), &request{}, &response{}); err != nil {
		t.Errorf("unexpected error: %s", err.Error())
	}
	if want, have := 1, calls; want != have {
		t.Errorf("expected %#v, got %#v", want, have)
	}
	if want, have := errBoom, gotErr; want != have {
		t.Errorf("expected %#v, got %#v", want, have)
	}
	if want, have := "a,slow", rec.String(); want != have {
		t.Errorf("expected %#v, got %#v", want, have)
	}
}
