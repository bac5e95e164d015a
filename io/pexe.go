package io

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ezrec/pippin/cpu"
)

// PEXE_SEPARATOR divides the code words from the data cells of an image.
const PEXE_SEPARATOR = "-1"

// WritePexe writes a memory image in the text .pexe format.
//
// Each code word up to the program size is written as `WW ARG`, followed by
// the separator line, then `ADDR VALUE` for every non-zero data cell.
// Code slots below the program size that were never written are saved as
// NOP words, and read back as NOP instructions.
func WritePexe(w io.Writer, mem *cpu.Memory) (err error) {
	out := bufio.NewWriter(w)

	codes, err := mem.CodeRange(0, mem.ProgramSize()+1)
	if err != nil {
		return
	}

	for _, code := range codes {
		_, err = fmt.Fprintf(out, "%02X %X\n", code.Word, code.Arg)
		if err != nil {
			return
		}
	}

	_, err = fmt.Fprintln(out, PEXE_SEPARATOR)
	if err != nil {
		return
	}

	values, err := mem.DataRange(0, cpu.DATA_SIZE)
	if err != nil {
		return
	}

	for addr, value := range values {
		if value == 0 {
			continue
		}
		_, err = fmt.Fprintf(out, "%X %X\n", addr, value)
		if err != nil {
			return
		}
	}

	err = out.Flush()

	return
}

// ReadPexe reads a memory image in the text .pexe format.
// Parity is not checked; a corrupt word faults when it is fetched.
func ReadPexe(r io.Reader) (mem *cpu.Memory, err error) {
	mem = cpu.NewMemory()

	in_data := false
	addr := 0
	lineno := 0

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}

		fail := func(err error) error {
			return &ErrPexe{LineNo: lineno, Line: line, Err: err}
		}

		if !in_data && line == PEXE_SEPARATOR {
			in_data = true
			continue
		}

		words := strings.Fields(line)
		if len(words) != 2 {
			err = fail(ErrPexeSyntax)
			mem = nil
			return
		}

		if in_data {
			var index, value int64
			index, err = strconv.ParseInt(words[0], 16, 32)
			if err != nil {
				err = fail(ErrPexeAddress)
				mem = nil
				return
			}
			value, err = strconv.ParseInt(words[1], 16, 32)
			if err != nil {
				err = fail(ErrPexeValue)
				mem = nil
				return
			}
			err = mem.SetData(int(index), int32(value))
			if err != nil {
				err = fail(err)
				mem = nil
				return
			}
			continue
		}

		var word uint64
		var arg int64
		word, err = strconv.ParseUint(words[0], 16, 8)
		if err != nil {
			err = fail(ErrPexeWord)
			mem = nil
			return
		}
		arg, err = strconv.ParseInt(words[1], 16, 32)
		if err != nil {
			err = fail(ErrPexeArg)
			mem = nil
			return
		}
		err = mem.SetCode(addr, cpu.Instruction{Word: uint8(word), Arg: int32(arg)})
		if err != nil {
			err = fail(err)
			mem = nil
			return
		}
		addr++
	}

	err = scanner.Err()
	if err != nil {
		mem = nil
		return
	}

	// Data writes from loading are not execution changes.
	mem.ClearChanged()

	return
}
