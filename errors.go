package relay

import "fmt"

// PanicError is delivered to the error handler of a guarded chain when a
// middleware panics instead of returning an error.
type PanicError struct {
	Value any
	Stack []byte
}

func (err *PanicError) Error() string {
	return fmt.Sprintf("middleware panic: %v", err.Value)
}

// Unwrap exposes the panic value when it is itself an error
func (err *PanicError) Unwrap() error {
	if e, ok := err.Value.(error); ok {
		return e
	}
	return nil
}
