package cpu

import (
	"errors"
	"strconv"

	"github.com/ezrec/pippin/translate"
)

var f = translate.From

var (
	// Execution faults
	ErrCodeAccess         = errors.New(f("illegal access to code"))
	ErrDataAccess         = errors.New(f("data index out of bounds"))
	ErrParity             = errors.New(f("parity check failed"))
	ErrIllegalInstruction = errors.New(f("illegal instruction"))
	ErrDivideByZero       = errors.New(f("divide by zero"))
	ErrIllegalArgument    = errors.New(f("illegal argument"))

	// Instruction decode errors
	ErrOpcodeInvalid = errors.New(f("opcode invalid"))
	ErrModeInvalid   = errors.New(f("addressing mode invalid"))

	// Assembler errors
	ErrAssembly = errors.New(f("assembly failed"))
)

// ErrFault is an execution fault at a program counter.
type ErrFault struct {
	Pc   int
	Word uint8
	Err  error
}

func (err *ErrFault) Error() string {
	return f("pc %v word 0x%02x: %v", strconv.Itoa(err.Pc), err.Word, err.Err)
}

func (err *ErrFault) Unwrap() error {
	return err.Err
}

// ErrDataIndex reports a data store index out of bounds.
type ErrDataIndex int

func (err ErrDataIndex) Error() string {
	return f("data index %v out of bounds", strconv.Itoa(int(err)))
}

func (err ErrDataIndex) Is(target error) bool {
	return target == ErrDataAccess
}

// ErrCodeIndex reports a code store index out of bounds.
type ErrCodeIndex int

func (err ErrCodeIndex) Error() string {
	return f("code index %v out of program", strconv.Itoa(int(err)))
}

func (err ErrCodeIndex) Is(target error) bool {
	return target == ErrCodeAccess
}
