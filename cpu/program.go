package cpu

import (
	"iter"
)

// Line is a single translated source line.
type Line struct {
	LineNo      int      // Source line number.
	Addr        int      // Code address.
	Words       []string // Source words.
	Instruction Instruction
}

// Program is an assembled memory image with its source listing.
type Program struct {
	Memory *Memory
	Lines  []Line
}

// Debug returns the listing line for a code address, or nil.
func (prog *Program) Debug(pc int) (line *Line) {
	for n := range prog.Lines {
		if prog.Lines[n].Addr == pc {
			line = &prog.Lines[n]
			break
		}
	}

	return
}

// LineNo returns the source line for a code address, or 0.
func (prog *Program) LineNo(pc int) int {
	line := prog.Debug(pc)
	if line == nil {
		return 0
	}
	return line.LineNo
}

// Codes iterates the instructions of the program image.
func (prog *Program) Codes() iter.Seq2[int, Instruction] {
	return func(yield func(addr int, instr Instruction) bool) {
		if prog.Memory == nil {
			return
		}
		for addr := 0; addr <= prog.Memory.ProgramSize(); addr++ {
			instr, err := prog.Memory.Code(addr)
			if err != nil {
				return
			}
			if !yield(addr, instr) {
				return
			}
		}
	}
}
