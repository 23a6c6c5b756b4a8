package funconv

import (
	"fmt"
	"reflect"
)

// ArgumentError is the runtime error in converting the chain's arguments
// to the parameters of the wrapped function
type ArgumentError struct {
	Pos int
	Err error
}

func (err *ArgumentError) Error() string {
	return fmt.Sprintf("argument %d, %s", err.Pos+1, err.Err.Error())
}

func (err *ArgumentError) Unwrap() error {
	return err.Err
}

type mapConverterError struct {
	from reflect.Type
	to   reflect.Type
}

func (err *mapConverterError) Error() string {
	return fmt.Sprintf("%s cannot be converted to %s",
		err.from.String(), err.to.String())
}

func argumentMismatch(pos int, err error) error {
	innerErr := err.(*mapConverterError)
	return fmt.Errorf(
		"argument %d, %s cannot be converted %s",
		pos+1, innerErr.from.String(), innerErr.to.String())
}
