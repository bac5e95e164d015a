package cpu

import (
	"fmt"
	"math/bits"
	"strings"
)

// CodeOp is an instruction opcode.
type CodeOp int

//go:generate go tool stringer -linecomment -type=CodeOp
const (
	OP_NOP  = CodeOp(0x0) // NOP
	OP_LOD  = CodeOp(0x1) // LOD
	OP_STO  = CodeOp(0x2) // STO
	OP_ADD  = CodeOp(0x3) // ADD
	OP_SUB  = CodeOp(0x4) // SUB
	OP_MUL  = CodeOp(0x5) // MUL
	OP_DIV  = CodeOp(0x6) // DIV
	OP_AND  = CodeOp(0x7) // AND
	OP_NOT  = CodeOp(0x8) // NOT
	OP_CMPL = CodeOp(0x9) // CMPL
	OP_CMPZ = CodeOp(0xa) // CMPZ
	OP_JUMP = CodeOp(0xb) // JUMP
	OP_JMPZ = CodeOp(0xc) // JMPZ
	OP_HALT = CodeOp(0xd) // HALT
)

// Mode is an operand addressing mode.
type Mode int

//go:generate go tool stringer -type=Mode
const (
	MODE_BARE      = Mode(0) // No prefix.
	MODE_IMMEDIATE = Mode(1) // '#' prefix.
	MODE_INDIRECT  = Mode(2) // '@' prefix.
	MODE_DIRECT    = Mode(3) // '&' prefix.
)

// modePrefix maps operand prefix characters to addressing modes.
var modePrefix = map[byte]Mode{
	'#': MODE_IMMEDIATE,
	'@': MODE_INDIRECT,
	'&': MODE_DIRECT,
}

// Prefix returns the source prefix for the mode.
func (mode Mode) Prefix() string {
	switch mode {
	case MODE_IMMEDIATE:
		return "#"
	case MODE_INDIRECT:
		return "@"
	case MODE_DIRECT:
		return "&"
	}
	return ""
}

// SplitOperand strips an optional addressing mode prefix from an operand.
func SplitOperand(word string) (mode Mode, literal string) {
	literal = word
	if len(word) > 0 {
		var ok bool
		mode, ok = modePrefix[word[0]]
		if ok {
			literal = word[1:]
		}
	}
	return
}

// Arity is the operand count class of a mnemonic.
type Arity int

const (
	ARITY_NONE = Arity(0) // Operand forbidden.
	ARITY_ONE  = Arity(1) // Exactly one operand required.
)

// Entry is a single row of the instruction set table.
type Entry struct {
	Mnemonic string
	Op       CodeOp
	Arity    Arity
	Modes    []Mode // Addressing modes legal at execution time.
}

// Allows returns true if the mode is legal for the entry.
func (entry *Entry) Allows(mode Mode) bool {
	for _, m := range entry.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

var (
	modesNone    = []Mode{MODE_BARE}
	modesAll     = []Mode{MODE_BARE, MODE_IMMEDIATE, MODE_INDIRECT, MODE_DIRECT}
	modesAddress = []Mode{MODE_BARE, MODE_INDIRECT, MODE_DIRECT}
	modesLogic   = []Mode{MODE_BARE, MODE_IMMEDIATE, MODE_DIRECT}
)

// opTable is the instruction set, indexed by opcode.
var opTable = []Entry{
	{"NOP", OP_NOP, ARITY_NONE, modesNone},
	{"LOD", OP_LOD, ARITY_ONE, modesAll},
	{"STO", OP_STO, ARITY_ONE, modesAddress},
	{"ADD", OP_ADD, ARITY_ONE, modesAll},
	{"SUB", OP_SUB, ARITY_ONE, modesAll},
	{"MUL", OP_MUL, ARITY_ONE, modesAll},
	{"DIV", OP_DIV, ARITY_ONE, modesAll},
	{"AND", OP_AND, ARITY_ONE, modesLogic},
	{"NOT", OP_NOT, ARITY_NONE, modesNone},
	{"CMPL", OP_CMPL, ARITY_ONE, modesAddress},
	{"CMPZ", OP_CMPZ, ARITY_ONE, modesAddress},
	{"JUMP", OP_JUMP, ARITY_ONE, modesAll},
	{"JMPZ", OP_JMPZ, ARITY_ONE, modesAll},
	{"HALT", OP_HALT, ARITY_NONE, modesNone},
}

// mnemonicMap maps upper case mnemonics to table entries.
var mnemonicMap = func() map[string]*Entry {
	m := make(map[string]*Entry, len(opTable))
	for n := range opTable {
		m[opTable[n].Mnemonic] = &opTable[n]
	}
	return m
}()

// Lookup finds the table entry for a mnemonic, ignoring case.
// exact is false when the mnemonic matched only after case folding.
func Lookup(mnemonic string) (entry *Entry, exact bool) {
	entry, ok := mnemonicMap[strings.ToUpper(mnemonic)]
	if !ok {
		return
	}
	exact = mnemonic == entry.Mnemonic
	return
}

// LookupOp finds the table entry for an opcode.
func LookupOp(op CodeOp) (entry *Entry, ok bool) {
	if op < 0 || int(op) >= len(opTable) {
		return
	}
	return &opTable[op], true
}

// Instruction is a single assembled instruction.
//
// Word packs the opcode in bits 7..3, the addressing mode in bits 2..1 and an
// even parity bit in bit 0.
type Instruction struct {
	Word uint8
	Arg  int32
}

// MakeInstruction packs an opcode, mode and argument, setting parity.
func MakeInstruction(op CodeOp, mode Mode, arg int32) Instruction {
	word := (uint8(op) << 3) | ((uint8(mode) & 3) << 1)
	if bits.OnesCount8(word)%2 != 0 {
		word |= 1
	}
	return Instruction{Word: word, Arg: arg}
}

// Op returns the opcode field.
func (instr Instruction) Op() CodeOp {
	return CodeOp(instr.Word >> 3)
}

// Mode returns the addressing mode field.
func (instr Instruction) Mode() Mode {
	return Mode((instr.Word >> 1) & 3)
}

// Parity returns true if the word has even parity.
func (instr Instruction) Parity() bool {
	return bits.OnesCount8(instr.Word)%2 == 0
}

// String returns the assembly language representation of this instruction.
func (instr Instruction) String() string {
	entry, ok := LookupOp(instr.Op())
	if !ok {
		return fmt.Sprintf("?%02x %X", instr.Word, instr.Arg)
	}
	if entry.Arity == ARITY_NONE {
		return entry.Mnemonic
	}
	return fmt.Sprintf("%v %v%X", entry.Mnemonic, instr.Mode().Prefix(), instr.Arg)
}
