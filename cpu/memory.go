package cpu

const (
	DATA_SIZE = 512 // Data store cells.
	CODE_SIZE = 256 // Code store instruction slots.
)

// Memory is the code and data store of the machine.
type Memory struct {
	data        [DATA_SIZE]int32
	code        [CODE_SIZE]Instruction
	present     [CODE_SIZE]bool
	changed     int
	programSize int
}

// NewMemory creates a cleared memory.
func NewMemory() (mem *Memory) {
	mem = &Memory{}
	mem.Clear()
	return
}

// Clear resets both the code and data stores.
func (mem *Memory) Clear() {
	mem.ClearData()
	mem.ClearCode()
}

// ClearData zeros the data store and the changed cursor.
func (mem *Memory) ClearData() {
	clear(mem.data[:])
	mem.changed = -1
}

// ClearCode empties the code store. The program size becomes -1, so an
// empty program is distinct from a one instruction program.
func (mem *Memory) ClearCode() {
	clear(mem.code[:])
	clear(mem.present[:])
	mem.programSize = -1
}

// Data reads a data cell.
func (mem *Memory) Data(index int) (value int32, err error) {
	if index < 0 || index >= DATA_SIZE {
		err = ErrDataIndex(index)
		return
	}
	value = mem.data[index]
	return
}

// SetData writes a data cell, and records it as the most recently changed.
func (mem *Memory) SetData(index int, value int32) (err error) {
	if index < 0 || index >= DATA_SIZE {
		err = ErrDataIndex(index)
		return
	}
	mem.data[index] = value
	mem.changed = index
	return
}

// ChangedDataIndex returns the index of the last data write, or -1.
func (mem *Memory) ChangedDataIndex() int {
	return mem.changed
}

// ClearChanged forgets the last data write.
func (mem *Memory) ClearChanged() {
	mem.changed = -1
}

// DataRange returns a copy of the data cells in [lo, hi).
func (mem *Memory) DataRange(lo, hi int) (values []int32, err error) {
	if lo < 0 || hi > DATA_SIZE || lo > hi {
		err = ErrIllegalArgument
		return
	}
	values = make([]int32, hi-lo)
	copy(values, mem.data[lo:hi])
	return
}

// ProgramSize returns the highest code index written, or -1 if empty.
func (mem *Memory) ProgramSize() int {
	return mem.programSize
}

// Code reads an instruction. Indexes outside [0, ProgramSize()] fail.
func (mem *Memory) Code(index int) (instr Instruction, err error) {
	if index < 0 || index > mem.programSize || index >= CODE_SIZE || !mem.present[index] {
		err = ErrCodeIndex(index)
		return
	}
	instr = mem.code[index]
	return
}

// SetCode writes an instruction, extending the program size if needed.
func (mem *Memory) SetCode(index int, instr Instruction) (err error) {
	if index < 0 || index >= CODE_SIZE {
		err = ErrCodeIndex(index)
		return
	}
	mem.code[index] = instr
	mem.present[index] = true
	mem.programSize = max(mem.programSize, index)
	return
}

// CodeRange returns a copy of the instructions in [lo, hi).
// Empty slots are returned as the zero Instruction.
func (mem *Memory) CodeRange(lo, hi int) (instrs []Instruction, err error) {
	if lo < 0 || hi > CODE_SIZE || lo > hi {
		err = ErrIllegalArgument
		return
	}
	instrs = make([]Instruction, hi-lo)
	copy(instrs, mem.code[lo:hi])
	return
}

// Corrupt flips the parity bit of a code word, for fault injection.
func (mem *Memory) Corrupt(index int) (err error) {
	if index < 0 || index >= CODE_SIZE || !mem.present[index] {
		err = ErrCodeIndex(index)
		return
	}
	mem.code[index].Word ^= 1
	return
}

// Clone returns an independent copy of the memory.
func (mem *Memory) Clone() *Memory {
	dup := *mem
	return &dup
}
