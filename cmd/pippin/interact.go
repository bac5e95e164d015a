package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/ezrec/pippin/emulator"
)

const stepHelp = "[space] step  [r] run  [z] reset  [q] quit"

// interact single steps the emulator from the keyboard.
// When stdin is a terminal it is put in raw mode for the session.
func interact(emu *emulator.Emulator) (err error) {
	fd := int(os.Stdin.Fd())
	newline := "\n"

	if term.IsTerminal(fd) {
		var state *term.State
		state, err = term.MakeRaw(fd)
		if err != nil {
			return
		}
		defer func() {
			_ = term.Restore(fd, state)
		}()
		// Raw mode does not translate line feeds.
		newline = "\r\n"
	}

	return stepper(emu, os.Stdin, os.Stdout, newline)
}

// stepper reads single key commands from in until the program halts or the
// user quits.
func stepper(emu *emulator.Emulator, in io.Reader, out io.Writer, newline string) (err error) {
	keys := bufio.NewReader(in)

	show := func() {
		text := fmt.Sprintf("line %d: ", emu.LineNo())
		line := emu.Line()
		if line != nil {
			text += line.Instruction.String()
		} else {
			code, err := emu.Memory.Code(emu.Pc)
			if err == nil {
				text += code.String()
			}
		}
		fmt.Fprint(out, text+newline)
	}

	fmt.Fprint(out, stepHelp+newline)
	show()

	for {
		var key byte
		key, err = keys.ReadByte()
		if err == io.EOF {
			err = nil
			return
		}
		if err != nil {
			return
		}

		switch key {
		case ' ', '\r', '\n', 's':
			var done bool
			done, err = emu.Tick()
			if err != nil {
				fmt.Fprint(out, err.Error()+newline)
				err = nil
			}
			if done {
				fmt.Fprint(out, "halted"+newline)
				return
			}
		case 'r':
			err = emu.Run(nil)
			if err != nil {
				fmt.Fprint(out, err.Error()+newline)
				err = nil
			}
			if emu.Halted() {
				fmt.Fprint(out, "halted"+newline)
				return
			}
		case 'z':
			err = emu.Reset()
			if err != nil {
				return
			}
		case 'q', 0x03, 0x04:
			return
		default:
			fmt.Fprint(out, stepHelp+newline)
			continue
		}

		fmt.Fprint(out, strings.ReplaceAll(emu.Cpu.String(), "\n", newline))
		show()
	}
}
