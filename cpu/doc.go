// Package cpu implements the machine and assembler for the Pippin teaching
// computer.
//
// The machine has a single 32-bit accumulator, a program counter indexing a
// code store of CODE_SIZE instruction slots, and a separate data store of
// DATA_SIZE 32-bit cells. Each instruction word carries an even parity bit
// which is verified on every fetch.
//
// The assembler validates a whole source file before translating it, so a
// single run reports every problem in the file.
package cpu
