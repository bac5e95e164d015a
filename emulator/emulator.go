// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"iter"
	"log"

	"github.com/ezrec/pippin/cpu"
	"github.com/ezrec/pippin/internal"
)

const (
	MAX_TICKS = 100000 // Default run length limit.
)

// Emulator drives a machine through an assembled program, mapping faults
// back to source lines.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently loaded program listing.

	MaxTicks int      // Run stops with ErrTickLimit after this many ticks; MAX_TICKS if <= 0.
	Watches  []*Watch // Run stops when any watch fires.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:      cpu.NewCpu(),
		MaxTicks: MAX_TICKS,
	}

	return
}

// Load loads a program and prepares it to run from address 0.
func (emu *Emulator) Load(prog *cpu.Program) (err error) {
	if prog == nil || prog.Memory == nil {
		err = cpu.ErrIllegalArgument
		return
	}

	emu.Program = prog

	err = emu.Reset()

	return
}

// Reset reloads the current program, discarding any execution state.
func (emu *Emulator) Reset() (err error) {
	if emu.Program == nil {
		err = ErrNotLoaded
		return
	}

	emu.Cpu.Verbose = emu.Verbose

	err = emu.Cpu.Load(emu.Program.Memory)
	if err != nil {
		return
	}

	if emu.Verbose {
		log.Printf("emulator: reset")
	}

	return
}

// Clear unloads the program and clears the machine.
func (emu *Emulator) Clear() {
	emu.Program = nil
	emu.Cpu.Clear()
}

// AddWatch compiles and adds a watch expression.
func (emu *Emulator) AddWatch(expr string) (err error) {
	watch, err := NewWatch(expr)
	if err != nil {
		return
	}

	emu.Watches = append(emu.Watches, watch)

	return
}

// LineNo returns the source line number of the next instruction, or 0.
func (emu *Emulator) LineNo() int {
	if emu.Program == nil {
		return 0
	}

	return emu.Program.LineNo(emu.Cpu.Pc)
}

// Line returns the listing line of the next instruction, or nil.
func (emu *Emulator) Line() *cpu.Line {
	if emu.Program == nil {
		return nil
	}

	return emu.Program.Debug(emu.Cpu.Pc)
}

// Values iterates the machine registers and the current source line.
func (emu *Emulator) Values() iter.Seq2[string, int] {
	var line iter.Seq2[string, int] = func(yield func(string, int) bool) {
		yield("line", emu.LineNo())
	}

	return internal.IterSeq2Concat(emu.Cpu.Registers(), line)
}

// Tick performs a single step of the program.
// done is set once the program has halted.
func (emu *Emulator) Tick() (done bool, err error) {
	switch emu.Cpu.State() {
	case cpu.STATE_NOT_LOADED:
		err = ErrNotLoaded
		return
	case cpu.STATE_HALTED:
		done = true
		return
	}

	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	lineno := emu.LineNo()
	pc := emu.Cpu.Pc
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Pc: pc, Err: err}
		}
	}()

	err = emu.Cpu.Step()
	if err != nil {
		return
	}

	done = emu.Cpu.Halted()

	return
}

// Run steps the program until it halts.
//
// A runtime fault is passed to policy; the run continues only if policy
// returns true. A faulted step does not advance, so a policy that continues
// should repair the machine state. Every attempted tick counts against
// MaxTicks, so Run always returns.
func (emu *Emulator) Run(policy func(err error) bool) (err error) {
	limit := emu.MaxTicks
	if limit <= 0 {
		limit = MAX_TICKS
	}

	for ticks := 0; ; ticks++ {
		if ticks >= limit {
			err = ErrTickLimit
			return
		}

		var done bool
		done, err = emu.Tick()
		if err != nil {
			if policy == nil || !policy(err) {
				return
			}
			err = nil
		}

		err = emu.checkWatches()
		if err != nil {
			return
		}

		if done {
			return
		}
	}
}

// checkWatches returns an *ErrWatch for the first watch that fires.
func (emu *Emulator) checkWatches() (err error) {
	for _, watch := range emu.Watches {
		var fired bool
		fired, err = watch.Eval(emu)
		if err != nil {
			return
		}
		if fired {
			if emu.Verbose {
				log.Printf("emulator: watch %v", watch.Expr)
			}
			err = &ErrWatch{Expr: watch.Expr, LineNo: emu.LineNo(), Pc: emu.Cpu.Pc}
			return
		}
	}

	return
}
