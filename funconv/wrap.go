package funconv

import (
	"context"
	"fmt"
	"reflect"

	"github.com/go-midway/relay"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	nextType    = reflect.TypeOf(relay.Next(nil))
	thunkType   = reflect.TypeOf((func() error)(nil))
)

// Converter converts one reflect.Value into another
type Converter func(reflect.Value) (reflect.Value, error)

// Convert the src to dest, according to the reflect.Value conversion
func (conv Converter) Convert(src interface{}) (interface{}, error) {
	destValue, err := conv(reflect.ValueOf(src))
	if err != nil {
		return nil, err
	}
	return destValue.Interface(), nil
}

func directMap(src reflect.Value) (reflect.Value, error) {
	return src, nil
}

func convertToType(typ reflect.Type) Converter {
	return func(src reflect.Value) (reflect.Value, error) {
		return src.Convert(typ), nil
	}
}

func reverseConvertToItfType(typ reflect.Type) Converter {
	return func(src reflect.Value) (dest reflect.Value, err error) {

		srcInner := src
		if src.Kind() == reflect.Interface {
			srcInner = src.Elem()
		}
		if !srcInner.IsValid() {
			err = fmt.Errorf("nil cannot be converted to %s", typ.String())
			return
		}

		if srcInner.Type() == typ {
			dest = srcInner
			return
		}
		if srcInner.Type().AssignableTo(typ) {
			dest = srcInner.Convert(typ)
			return
		}

		err = fmt.Errorf("%s cannot be converted to %s",
			srcInner.Type().String(), typ.String())
		return
	}
}

// MapConverter finds the converter that passes a value of type from as
// a parameter of type to. When from is an interface, the dynamic type of
// each value is only checked at conversion time.
func MapConverter(from, to reflect.Type) (Converter, error) {
	switch {
	case from == to:
		return directMap, nil
	case from.AssignableTo(to):
		return convertToType(to), nil
	case from.Kind() == reflect.Interface && to.Implements(from):
		return reverseConvertToItfType(to), nil
	}
	return nil, &mapConverterError{from: from, to: to}
}

// Middleware takes a function value and wraps it as a relay.Middleware.
//
// The function needs the shape
//
//	func([ctx context.Context,] req R, res S, next N) [error]
//
// where R and S are Req and Res, types they convert to, or concrete types
// implementing them. N is relay.Next, func(context.Context) error or
// func() error.
func Middleware[Req any, Res relay.Committer](fn interface{}) (relay.Middleware[Req, Res], error) {

	//
	// validate function type
	//

	if fn == nil {
		return nil, fmt.Errorf("fn cannot be nil")
	}
	fnType := reflect.TypeOf(fn)
	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("fn needs to be a function, got %T", fn)
	}
	if fnType.IsVariadic() {
		return nil, fmt.Errorf("fn cannot be a variadic function")
	}

	numIn, numOut := fnType.NumIn(), fnType.NumOut()
	if numIn != 3 && numIn != 4 {
		return nil, fmt.Errorf("argument mismatch, fn(%d) != middleware(3 or 4)", numIn)
	}
	if numOut > 1 {
		return nil, fmt.Errorf("return mismatch, fn(%d) != middleware(0 or 1)", numOut)
	}
	if numOut == 1 && fnType.Out(0) != errorType {
		return nil, fmt.Errorf("return variable 1, %s is not error", fnType.Out(0).String())
	}

	offset := 0
	if numIn == 4 {
		if fnType.In(0) != contextType {
			return nil, fmt.Errorf("argument 1, %s is not context.Context", fnType.In(0).String())
		}
		offset = 1
	}

	//
	// map converters for request, response and next
	//

	reqConv, err := MapConverter(reflect.TypeOf((*Req)(nil)).Elem(), fnType.In(offset))
	if err != nil {
		return nil, argumentMismatch(offset, err)
	}
	resConv, err := MapConverter(reflect.TypeOf((*Res)(nil)).Elem(), fnType.In(offset+1))
	if err != nil {
		return nil, argumentMismatch(offset+1, err)
	}

	var makeNext func(ctx context.Context, next relay.Next) reflect.Value
	if nextParam := fnType.In(offset + 2); nextParam == thunkType {
		makeNext = func(ctx context.Context, next relay.Next) reflect.Value {
			return reflect.ValueOf(func() error { return next(ctx) })
		}
	} else {
		nextConv, err := MapConverter(nextType, nextParam)
		if err != nil {
			return nil, argumentMismatch(offset+2, err)
		}
		// relay.Next is a func type, never an interface, so only directMap
		// or convertToType can serve here and neither fails
		makeNext = func(ctx context.Context, next relay.Next) reflect.Value {
			v, _ := nextConv(reflect.ValueOf(next))
			return v
		}
	}

	//
	// compose the wrapped middleware
	//

	fnVal := reflect.ValueOf(fn)
	return func(ctx context.Context, req Req, res Res, next relay.Next) error {
		in := make([]reflect.Value, 0, numIn)
		if offset == 1 {
			in = append(in, reflect.ValueOf(&ctx).Elem())
		}

		reqVal, err := reqConv(reflect.ValueOf(&req).Elem())
		if err != nil {
			return &ArgumentError{Pos: offset, Err: err}
		}
		resVal, err := resConv(reflect.ValueOf(&res).Elem())
		if err != nil {
			return &ArgumentError{Pos: offset + 1, Err: err}
		}
		in = append(in, reqVal, resVal, makeNext(ctx, next))

		out := fnVal.Call(in)
		if numOut == 0 || out[0].IsNil() {
			return nil
		}
		return out[0].Interface().(error)
	}, nil
}

// MustMiddleware is like Middleware but panics if fn cannot be adapted
func MustMiddleware[Req any, Res relay.Committer](fn interface{}) relay.Middleware[Req, Res] {
	mw, err := Middleware[Req, Res](fn)
	if err != nil {
		panic(err)
	}
	return mw
}

// Middlewares adapts every fn in order
func Middlewares[Req any, Res relay.Committer](fns ...interface{}) ([]relay.Middleware[Req, Res], error) {
	mws := make([]relay.Middleware[Req, Res], len(fns))
	for i, fn := range fns {
		mw, err := Middleware[Req, Res](fn)
		if err != nil {
			return nil, fmt.Errorf("middleware %d: %w", i, err)
		}
		mws[i] = mw
	}
	return mws, nil
}
