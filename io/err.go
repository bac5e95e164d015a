package io

import (
	"errors"
	"strconv"

	"github.com/ezrec/pippin/translate"
)

var f = translate.From

var (
	// Image errors
	ErrPexeSyntax  = errors.New(f("expected two hex fields"))
	ErrPexeWord    = errors.New(f("instruction word is not a hex byte"))
	ErrPexeArg     = errors.New(f("argument is not a hex number"))
	ErrPexeAddress = errors.New(f("data address is not a hex number"))
	ErrPexeValue   = errors.New(f("data value is not a hex number"))
)

// ErrPexe indicates the location of an image syntax error.
type ErrPexe struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrPexe) Error() string {
	return f("line %v '%v' %v", strconv.Itoa(err.LineNo), err.Line, err.Err)
}

func (err *ErrPexe) Unwrap() error {
	return err.Err
}
