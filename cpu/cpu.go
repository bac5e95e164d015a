package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
)

// State is the execution state of the machine.
type State int

//go:generate go tool stringer -linecomment -type=State
const (
	STATE_NOT_LOADED = State(0) // not-loaded
	STATE_RUNNING    = State(1) // running
	STATE_HALTED     = State(2) // halted
)

// Cpu is the simulation context for the Pippin machine.
//
// A Cpu is not safe for concurrent use; at most one Step may run at a time.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Memory *Memory // Code and data store.

	Pc  int   // Index of the next instruction to fetch.
	Acc int32 // Accumulator.

	Ticks int // Instructions executed since load.

	state State
}

// NewCpu creates a new machine with cleared memory.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{
		Memory: NewMemory(),
	}

	return
}

// State returns the execution state.
func (cpu *Cpu) State() State {
	return cpu.state
}

// Halted returns true once a HALT instruction has executed.
func (cpu *Cpu) Halted() bool {
	return cpu.state == STATE_HALTED
}

// ChangedDataIndex returns the last data index written by execution, or -1.
func (cpu *Cpu) ChangedDataIndex() int {
	return cpu.Memory.ChangedDataIndex()
}

// Clear empties memory and returns to the not-loaded state.
func (cpu *Cpu) Clear() {
	if cpu.Verbose {
		log.Printf("cpu: clear")
	}

	cpu.Memory.Clear()
	cpu.Pc = 0
	cpu.Acc = 0
	cpu.Ticks = 0
	cpu.state = STATE_NOT_LOADED
}

// Load replaces memory with an assembled image and starts at address 0.
// Memory is fully cleared before the image is copied in.
func (cpu *Cpu) Load(image *Memory) (err error) {
	if image == nil {
		err = ErrIllegalArgument
		return
	}

	// image may alias cpu.Memory.
	snapshot := *image

	cpu.Clear()
	*cpu.Memory = snapshot
	cpu.Memory.ClearChanged()
	cpu.state = STATE_RUNNING

	if cpu.Verbose {
		log.Printf("cpu: load %d instructions", cpu.Memory.ProgramSize()+1)
	}

	return
}

// Registers iterates the observable machine registers.
func (cpu *Cpu) Registers() iter.Seq2[string, int] {
	return func(yield func(name string, value int) bool) {
		_ = yield("pc", cpu.Pc) &&
			yield("acc", int(cpu.Acc)) &&
			yield("ticks", cpu.Ticks) &&
			yield("changed", cpu.ChangedDataIndex())
	}
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	text = fmt.Sprintf("% 7s: %v\n", "state", cpu.state)
	for reg, val := range cpu.Registers() {
		var strval string
		switch reg {
		case "acc":
			strval = fmt.Sprintf("%04X_%04X", uint32(val)>>16, uint32(val)&0xffff)
		default:
			strval = fmt.Sprintf("%d", val)
		}
		text += fmt.Sprintf("% 7s: %v\n", reg, strval)
	}

	return
}

// FetchCode fetches the instruction at the program counter.
func (cpu *Cpu) FetchCode() (code Instruction, err error) {
	code, err = cpu.Memory.Code(cpu.Pc)
	if err != nil {
		return
	}

	if !code.Parity() {
		err = ErrParity
		return
	}

	return
}

// Step executes a single instruction. It is a no-op unless running.
//
// A faulted step leaves memory, the accumulator and the program counter
// unchanged.
func (cpu *Cpu) Step() (err error) {
	if cpu.state != STATE_RUNNING {
		return
	}

	pc := cpu.Pc
	var code Instruction
	defer func() {
		if err != nil {
			err = &ErrFault{Pc: pc, Word: code.Word, Err: err}
		}
	}()

	code, err = cpu.FetchCode()
	if err != nil {
		return
	}

	err = cpu.Execute(code)

	return
}

// Execute executes a single decoded instruction.
func (cpu *Cpu) Execute(code Instruction) (err error) {
	if cpu.Verbose {
		log.Printf("%03x: %v", cpu.Pc, code)
	}

	entry, ok := LookupOp(code.Op())
	if !ok {
		err = errors.Join(ErrIllegalInstruction, ErrOpcodeInvalid)
		return
	}

	mode := code.Mode()
	if !entry.Allows(mode) {
		err = errors.Join(ErrIllegalInstruction, ErrModeInvalid)
		return
	}

	next_pc := cpu.Pc + 1
	acc := cpu.Acc
	halt := false

	var val int32
	switch entry.Op {
	case OP_NOP:
		// pass
	case OP_LOD:
		acc, err = cpu.getValue(mode, code.Arg)
	case OP_STO:
		var addr int
		addr, err = cpu.getAddress(mode, code.Arg)
		if err != nil {
			return
		}
		// Last fallible action, so a failed store changes nothing.
		err = cpu.Memory.SetData(addr, acc)
	case OP_ADD, OP_SUB, OP_MUL, OP_DIV:
		val, err = cpu.getValue(mode, code.Arg)
		if err != nil {
			return
		}
		acc, err = doAlu(entry.Op, acc, val)
	case OP_AND:
		val, err = cpu.getValue(mode, code.Arg)
		acc = boolValue(acc != 0 && val != 0)
	case OP_NOT:
		acc = boolValue(acc == 0)
	case OP_CMPL:
		val, err = cpu.getValue(mode, code.Arg)
		acc = boolValue(val < 0)
	case OP_CMPZ:
		val, err = cpu.getValue(mode, code.Arg)
		acc = boolValue(val == 0)
	case OP_JUMP:
		next_pc, err = cpu.getTarget(mode, code.Arg)
	case OP_JMPZ:
		if acc == 0 {
			next_pc, err = cpu.getTarget(mode, code.Arg)
		}
	case OP_HALT:
		halt = true
	default:
		err = ErrIllegalInstruction
	}

	if err != nil {
		return
	}

	cpu.Acc = acc
	cpu.Pc = next_pc
	cpu.Ticks++

	if halt {
		cpu.state = STATE_HALTED
		if cpu.Verbose {
			log.Printf("cpu: halted after %d ticks", cpu.Ticks)
		}
	}

	return
}

// getValue resolves an operand value.
func (cpu *Cpu) getValue(mode Mode, arg int32) (value int32, err error) {
	switch mode {
	case MODE_IMMEDIATE:
		value = arg
	case MODE_BARE, MODE_DIRECT:
		value, err = cpu.Memory.Data(int(arg))
	case MODE_INDIRECT:
		var addr int32
		addr, err = cpu.Memory.Data(int(arg))
		if err != nil {
			return
		}
		value, err = cpu.Memory.Data(int(addr))
	default:
		err = ErrModeInvalid
	}

	return
}

// getAddress resolves a store destination.
func (cpu *Cpu) getAddress(mode Mode, arg int32) (addr int, err error) {
	switch mode {
	case MODE_BARE, MODE_DIRECT:
		addr = int(arg)
	case MODE_INDIRECT:
		var value int32
		value, err = cpu.Memory.Data(int(arg))
		addr = int(value)
	default:
		err = errors.Join(ErrIllegalInstruction, ErrModeInvalid)
	}

	return
}

// getTarget resolves a jump destination. Bare and immediate targets are
// relative to the current instruction.
func (cpu *Cpu) getTarget(mode Mode, arg int32) (pc int, err error) {
	switch mode {
	case MODE_BARE, MODE_IMMEDIATE:
		pc = cpu.Pc + int(arg)
	case MODE_DIRECT:
		pc = int(arg)
	case MODE_INDIRECT:
		var value int32
		value, err = cpu.Memory.Data(int(arg))
		pc = int(value)
	default:
		err = ErrModeInvalid
	}

	return
}

// doAlu performs an arithmetic operation with 32-bit wrap-around.
func doAlu(op CodeOp, input, value int32) (output int32, err error) {
	switch op {
	case OP_ADD:
		output = input + value
	case OP_SUB:
		output = input - value
	case OP_MUL:
		output = input * value
	case OP_DIV:
		if value == 0 {
			err = ErrDivideByZero
			return
		}
		output = input / value
	default:
		err = ErrIllegalInstruction
	}

	return
}

func boolValue(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
