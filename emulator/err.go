package emulator

import (
	"errors"
	"strconv"

	"github.com/ezrec/pippin/translate"
)

var f = translate.From

var (
	ErrNotLoaded = errors.New(f("no program loaded"))
	ErrTickLimit = errors.New(f("tick limit exceeded"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	LineNo int
	Pc     int
	Err    error
}

func (err *ErrRuntime) Error() string {
	return f("Error on line %v: %v", strconv.Itoa(err.LineNo), err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}

// ErrWatchExpression is an invalid watch expression.
type ErrWatchExpression string

func (err ErrWatchExpression) Error() string {
	return f("%v is not a valid watch expression", string(err))
}

// ErrWatch reports a watch expression that evaluated true.
type ErrWatch struct {
	Expr   string
	LineNo int
	Pc     int
}

func (err *ErrWatch) Error() string {
	return f("watch '%v' triggered on line %v", err.Expr, strconv.Itoa(err.LineNo))
}
