package cpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func loadSource(t *testing.T, source []string) (cpu *Cpu) {
	asm := &Assembler{}
	prog, diags, outcome := asm.Assemble(source)
	if outcome != 0 {
		t.Fatal(diags)
	}

	cpu = NewCpu()
	err := cpu.Load(prog.Memory)
	if err != nil {
		t.Fatal(err)
	}

	return
}

func runToHalt(t *testing.T, cpu *Cpu, limit int) (steps int) {
	for !cpu.Halted() {
		if steps == limit {
			t.Fatalf("not halted after %d steps", limit)
		}
		err := cpu.Step()
		if err != nil {
			t.Log(cpu.String())
			t.Fatal(err)
		}
		steps++
	}
	return
}

func dataAt(cpu *Cpu, index int) int32 {
	value, _ := cpu.Memory.Data(index)
	return value
}

func TestCpu(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	assert.Equal(STATE_NOT_LOADED, cpu.State())
	assert.False(cpu.Halted())

	// Stepping an unloaded machine does nothing.
	err := cpu.Step()
	assert.NoError(err)
	assert.Equal(0, cpu.Pc)
	assert.Equal(0, cpu.Ticks)

	err = cpu.Load(nil)
	assert.Equal(ErrIllegalArgument, err)
	assert.Equal(STATE_NOT_LOADED, cpu.State())
}

func TestCpuFactorial(t *testing.T) {
	assert := assert.New(t)

	cpu := loadSource(t, []string{
		"LOD 0",
		"JMPZ 8",
		"LOD 1",
		"MUL 0",
		"STO 1",
		"LOD 0",
		"SUB #1",
		"STO 0",
		"JUMP -8",
		"HALT",
		"DATA",
		"0 5",
		"1 1",
	})

	// Loading does not count as a data change.
	assert.Equal(-1, cpu.ChangedDataIndex())

	steps := runToHalt(t, cpu, 1000)
	assert.Equal(48, steps)
	assert.Equal(48, cpu.Ticks)
	assert.Equal(int32(120), dataAt(cpu, 1))
	assert.Equal(int32(0), dataAt(cpu, 0))
	assert.Equal(0, cpu.ChangedDataIndex())
	assert.Equal(STATE_HALTED, cpu.State())
}

func TestCpuHaltSteps(t *testing.T) {
	assert := assert.New(t)

	table := [][]string{
		{"HALT"},
		{"NOP", "HALT"},
		{"LOD #1", "ADD #2", "STO 0", "NOT", "HALT"},
		{"LOD #3", "STO 1", "CMPZ 1", "CMPL 1", "AND #1", "NOP", "HALT", "DATA", "1 1"},
	}

	for _, source := range table {
		cpu := loadSource(t, source)
		size := cpu.Memory.ProgramSize()

		steps := runToHalt(t, cpu, 100)
		assert.Equal(size+1, steps, "%v", source)

		// Halted machines never change.
		snapshot := *cpu.Memory
		pc := cpu.Pc
		for range 3 {
			err := cpu.Step()
			assert.NoError(err)
		}
		assert.Equal(snapshot, *cpu.Memory)
		assert.Equal(pc, cpu.Pc)
		assert.Equal(steps, cpu.Ticks)
	}
}

func TestCpuOperations(t *testing.T) {
	assert := assert.New(t)

	data := []string{
		"DATA",
		"0 5",
		"5 2A",
		"6 -3",
	}

	table := [](struct {
		name string
		code []string
		acc  int32
	}){
		{"lod immediate", []string{"LOD #7"}, 7},
		{"lod bare", []string{"LOD 5"}, 0x2a},
		{"lod direct", []string{"LOD &5"}, 0x2a},
		{"lod indirect", []string{"LOD @0"}, 0x2a},
		{"add", []string{"LOD #1", "ADD 5"}, 0x2b},
		{"sub", []string{"LOD #1", "SUB #2"}, -1},
		{"mul", []string{"LOD #4", "MUL 6"}, -12},
		{"div", []string{"LOD #-7", "DIV #2"}, -3},
		{"div indirect", []string{"LOD 5", "DIV @0"}, 1},
		{"add wrap", []string{"LOD #7FFFFFFF", "ADD #1"}, -0x80000000},
		{"div wrap", []string{"LOD #-80000000", "DIV #-1"}, -0x80000000},
		{"and true", []string{"LOD #2", "AND #3"}, 1},
		{"and false", []string{"LOD #2", "AND #0"}, 0},
		{"and direct", []string{"LOD #0", "AND &5"}, 0},
		{"not zero", []string{"LOD #0", "NOT"}, 1},
		{"not one", []string{"LOD #9", "NOT"}, 0},
		{"cmpl negative", []string{"CMPL 6"}, 1},
		{"cmpl positive", []string{"CMPL 5"}, 0},
		{"cmpz zero", []string{"CMPZ 1"}, 1},
		{"cmpz indirect", []string{"CMPZ @0"}, 0},
		{"nop", []string{"LOD #3", "NOP"}, 3},
	}

	for _, entry := range table {
		source := append(append([]string{}, entry.code...), "HALT")
		source = append(source, data...)
		cpu := loadSource(t, source)
		runToHalt(t, cpu, 100)
		assert.Equal(entry.acc, cpu.Acc, entry.name)
	}
}

func TestCpuStore(t *testing.T) {
	assert := assert.New(t)

	cpu := loadSource(t, []string{
		"LOD #11",
		"STO 2",
		"LOD #22",
		"STO &3",
		"LOD #33",
		"STO @0",
		"HALT",
		"DATA",
		"0 10",
	})

	runToHalt(t, cpu, 100)
	assert.Equal(int32(0x11), dataAt(cpu, 2))
	assert.Equal(int32(0x22), dataAt(cpu, 3))
	assert.Equal(int32(0x33), dataAt(cpu, 0x10))
	assert.Equal(0x10, cpu.ChangedDataIndex())
}

func TestCpuJumps(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name   string
		source []string
		acc    int32
	}){
		{"relative", []string{"JUMP 2", "LOD #1", "HALT"}, 0},
		{"immediate", []string{"JUMP #2", "LOD #1", "HALT"}, 0},
		{"absolute", []string{"NOP", "JUMP &3", "LOD #1", "HALT"}, 0},
		{"indirect", []string{"NOP", "JUMP @0", "LOD #1", "HALT", "DATA", "0 3"}, 0},
		{"backward", []string{"JUMP 3", "LOD #5", "HALT", "JUMP -2"}, 5},
		{"jmpz taken", []string{"LOD #0", "JMPZ 2", "LOD #1", "HALT"}, 0},
		{"jmpz not taken", []string{"LOD #4", "JMPZ 2", "ADD #1", "HALT"}, 5},
		{"jmpz absolute", []string{"JMPZ &3", "LOD #1", "HALT", "LOD #2", "HALT"}, 2},
	}

	for _, entry := range table {
		cpu := loadSource(t, entry.source)
		runToHalt(t, cpu, 100)
		assert.Equal(entry.acc, cpu.Acc, entry.name)
	}
}

func TestCpuFaults(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name   string
		source []string
		steps  int // Successful steps before the fault.
		fault  error
	}){
		{"divide by zero", []string{"LOD #6", "DIV #0", "HALT"}, 1, ErrDivideByZero},
		{"divide by zero cell", []string{"LOD #6", "DIV 4", "HALT"}, 1, ErrDivideByZero},
		{"load bounds", []string{"LOD 200", "HALT"}, 0, ErrDataAccess},
		{"load negative", []string{"LOD -1", "HALT"}, 0, ErrDataAccess},
		{"load indirect bounds", []string{"LOD @0", "HALT", "DATA", "0 1000"}, 0, ErrDataAccess},
		{"store bounds", []string{"LOD #1", "STO 200", "HALT"}, 1, ErrDataAccess},
		{"store indirect bounds", []string{"LOD #1", "STO @0", "HALT", "DATA", "0 -5"}, 1, ErrDataAccess},
		{"store immediate", []string{"STO #1", "HALT"}, 0, ErrIllegalInstruction},
		{"cmpz immediate", []string{"CMPZ #1", "HALT"}, 0, ErrIllegalInstruction},
		{"and indirect", []string{"AND @1", "HALT"}, 0, ErrIllegalInstruction},
		{"jump out", []string{"JUMP &40", "HALT"}, 1, ErrCodeAccess},
		{"jump before", []string{"JUMP -1", "HALT"}, 1, ErrCodeAccess},
		{"run off end", []string{"NOP"}, 1, ErrCodeAccess},
		{"jump indirect bounds", []string{"JUMP @300", "HALT"}, 0, ErrDataAccess},
	}

	for _, entry := range table {
		cpu := loadSource(t, entry.source)

		for range entry.steps {
			err := cpu.Step()
			assert.NoError(err, entry.name)
		}

		data, _ := cpu.Memory.DataRange(0, DATA_SIZE)
		pc := cpu.Pc
		acc := cpu.Acc
		changed := cpu.ChangedDataIndex()

		err := cpu.Step()
		assert.True(errors.Is(err, entry.fault), "%v: %v", entry.name, err)

		var fault *ErrFault
		if assert.True(errors.As(err, &fault), entry.name) {
			assert.Equal(pc, fault.Pc, entry.name)
		}

		// Faulted steps change nothing.
		after, _ := cpu.Memory.DataRange(0, DATA_SIZE)
		assert.Equal(data, after, entry.name)
		assert.Equal(pc, cpu.Pc, entry.name)
		assert.Equal(acc, cpu.Acc, entry.name)
		assert.Equal(changed, cpu.ChangedDataIndex(), entry.name)
		assert.Equal(STATE_RUNNING, cpu.State(), entry.name)
		assert.Equal(entry.steps, cpu.Ticks, entry.name)
	}
}

func TestCpuParity(t *testing.T) {
	assert := assert.New(t)

	cpu := loadSource(t, []string{"LOD #1", "ADD #1", "HALT"})

	err := cpu.Memory.Corrupt(1)
	assert.NoError(err)

	err = cpu.Step()
	assert.NoError(err)

	err = cpu.Step()
	assert.True(errors.Is(err, ErrParity))
	assert.Equal(int32(1), cpu.Acc)
	assert.Equal(1, cpu.Pc)

	// Faults are the caller's problem; stepping again faults again.
	err = cpu.Step()
	assert.True(errors.Is(err, ErrParity))
}

func TestCpuIllegalOpcode(t *testing.T) {
	assert := assert.New(t)

	mem := NewMemory()
	mem.SetCode(0, MakeInstruction(CodeOp(0x1f), MODE_BARE, 0))

	cpu := NewCpu()
	err := cpu.Load(mem)
	assert.NoError(err)

	err = cpu.Step()
	assert.True(errors.Is(err, ErrIllegalInstruction))
	assert.True(errors.Is(err, ErrOpcodeInvalid))

	// A mode on a no-operand opcode is equally illegal.
	mem.Clear()
	mem.SetCode(0, MakeInstruction(OP_HALT, MODE_IMMEDIATE, 0))
	err = cpu.Load(mem)
	assert.NoError(err)

	err = cpu.Step()
	assert.True(errors.Is(err, ErrIllegalInstruction))
	assert.True(errors.Is(err, ErrModeInvalid))
	assert.False(cpu.Halted())
}

func TestCpuEmptyProgram(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	err := cpu.Load(NewMemory())
	assert.NoError(err)
	assert.Equal(STATE_RUNNING, cpu.State())

	err = cpu.Step()
	assert.True(errors.Is(err, ErrCodeAccess))
}

func TestCpuLoad(t *testing.T) {
	assert := assert.New(t)

	cpu := loadSource(t, []string{"LOD #5", "STO 1", "HALT"})
	runToHalt(t, cpu, 10)
	assert.Equal(int32(5), dataAt(cpu, 1))

	asm := &Assembler{}
	prog, _, _ := asm.Assemble([]string{"LOD #9", "HALT", "DATA", "2 3"})

	err := cpu.Load(prog.Memory)
	assert.NoError(err)

	// No stale state from the previous program.
	assert.Equal(int32(0), dataAt(cpu, 1))
	assert.Equal(int32(3), dataAt(cpu, 2))
	assert.Equal(0, cpu.Pc)
	assert.Equal(int32(0), cpu.Acc)
	assert.Equal(0, cpu.Ticks)
	assert.Equal(1, cpu.Memory.ProgramSize())
	assert.Equal(STATE_RUNNING, cpu.State())

	// The image is copied, not shared.
	runToHalt(t, cpu, 10)
	prog.Memory.SetData(2, 7)
	assert.Equal(int32(3), dataAt(cpu, 2))

	// Reloading from the machine's own memory works.
	err = cpu.Load(cpu.Memory)
	assert.NoError(err)
	assert.Equal(int32(3), dataAt(cpu, 2))
	assert.Equal(1, cpu.Memory.ProgramSize())

	cpu.Clear()
	assert.Equal(STATE_NOT_LOADED, cpu.State())
	assert.Equal(-1, cpu.Memory.ProgramSize())
}

func TestCpuString(t *testing.T) {
	assert := assert.New(t)

	cpu := loadSource(t, []string{"LOD #-1", "HALT"})
	cpu.Step()

	regs := map[string]int{}
	for name, value := range cpu.Registers() {
		regs[name] = value
	}
	assert.Equal(map[string]int{"pc": 1, "acc": -1, "ticks": 1, "changed": -1}, regs)

	text := cpu.String()
	assert.Contains(text, "  state: running\n")
	assert.Contains(text, "    acc: FFFF_FFFF\n")
	assert.Contains(text, "     pc: 1\n")
}
