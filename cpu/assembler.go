// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"io"
	"log"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Source is a line of source text with its 1-indexed line number.
type Source struct {
	LineNo int
	Text   string
}

// Diagnostic is a single line-numbered validation failure.
type Diagnostic struct {
	LineNo  int
	Message string
}

func (diag Diagnostic) String() string {
	return f("Error on line %v: %v", strconv.Itoa(diag.LineNo), diag.Message)
}

// Diagnostics is a list of diagnostics in ascending line order, at most one
// per line.
type Diagnostics []Diagnostic

// First returns the line number of the earliest diagnostic, or 0 if none.
func (diags Diagnostics) First() int {
	if len(diags) == 0 {
		return 0
	}
	return diags[0].LineNo
}

// Error joins all diagnostics, one per line.
func (diags Diagnostics) Error() string {
	var text strings.Builder
	for _, diag := range diags {
		text.WriteString(diag.String())
		text.WriteString("\n")
	}
	return text.String()
}

func (diags Diagnostics) Is(err error) bool {
	return err == ErrAssembly
}

// diagMap keeps the first diagnostic flagged on each line.
type diagMap map[int]string

func (dm diagMap) flag(lineno int, message string) {
	_, ok := dm[lineno]
	if !ok {
		dm[lineno] = message
	}
}

func (dm diagMap) sorted() (diags Diagnostics) {
	for _, lineno := range slices.Sorted(maps.Keys(dm)) {
		diags = append(diags, Diagnostic{LineNo: lineno, Message: dm[lineno]})
	}
	return
}

// trim removes leading and trailing control characters and spaces.
func trim(text string) string {
	return strings.TrimFunc(text, func(r rune) bool { return r <= ' ' })
}

// fields splits text on ASCII white space only.
func fields(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', '\v', '\f', '\r':
			return true
		}
		return false
	})
}

// parseHex parses a signed base-16 literal.
func parseHex(word string) (value int32, err error) {
	v64, err := strconv.ParseInt(word, 16, 32)
	if err != nil {
		return
	}
	value = int32(v64)
	return
}

// Assembler is a validating two pass assembler for Pippin source.
type Assembler struct {
	Verbose bool // If set, verbosely logs the assembler actions.
}

// Validate checks the whole source and partitions it into code and data
// segments. The segments are only meaningful when diags is empty.
func (asm *Assembler) Validate(source []string) (diags Diagnostics, code, data []Source) {
	dm := diagMap{}

	last := -1
	for n, text := range source {
		if len(trim(text)) > 0 {
			last = n
		}
	}

	boundary := -1
	for n, text := range source {
		lineno := n + 1
		line := trim(text)

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		// Blank lines may only trail the file.
		if len(line) == 0 && n < last {
			dm.flag(lineno, f("Illegal blank line in the source file"))
		}

		if len(line) > 0 && (text[0] == ' ' || text[0] == '\t') {
			dm.flag(lineno, f("Line starts with illegal white space"))
		}

		upper := strings.ToUpper(line)
		if !strings.Contains(upper, "DATA") {
			continue
		}

		if boundary >= 0 {
			// Already flagged as a repetition.
			continue
		}

		boundary = n
		for m := n + 1; m < len(source); m++ {
			if strings.Contains(strings.ToUpper(trim(source[m])), "DATA") {
				dm.flag(m+1, f("Illegal repetition of DATA"))
			}
		}

		switch {
		case upper != "DATA":
			dm.flag(lineno, f("DATA line should only contain \"DATA\""))
		case line != "DATA":
			dm.flag(lineno, f("DATA not in upper case"))
		}
	}

	if boundary >= 0 {
		for n := 0; n < boundary; n++ {
			code = append(code, Source{LineNo: n + 1, Text: trim(source[n])})
		}
		for n := boundary + 1; n < len(source); n++ {
			line := trim(source[n])
			if len(line) > 0 {
				data = append(data, Source{LineNo: n + 1, Text: line})
			}
		}
	} else {
		for n, text := range source {
			line := trim(text)
			if len(line) > 0 {
				code = append(code, Source{LineNo: n + 1, Text: line})
			}
		}
	}

	for _, src := range code {
		if len(src.Text) == 0 {
			continue
		}
		asm.validateCode(dm, src)
	}

	for _, src := range data {
		asm.validateData(dm, src)
	}

	diags = dm.sorted()

	return
}

// validateCode checks a single code segment line.
func (asm *Assembler) validateCode(dm diagMap, src Source) {
	words := fields(src.Text)
	if len(words) == 0 {
		return
	}

	entry, exact := Lookup(words[0])
	if entry == nil {
		dm.flag(src.LineNo, f("illegal mnemonic %v", words[0]))
		return
	}

	if !exact {
		dm.flag(src.LineNo, f("mnemonic %v is not in upper case", words[0]))
	}

	if entry.Arity == ARITY_NONE {
		if len(words) > 1 {
			dm.flag(src.LineNo, f("illegal argument for mnemonic %v", words[0]))
		}
		return
	}

	switch {
	case len(words) == 1:
		dm.flag(src.LineNo, f("%v requires an argument", words[0]))
	case len(words) > 2:
		dm.flag(src.LineNo, f("%v has too many arguments (should be one)", words[0]))
	default:
		_, literal := SplitOperand(words[1])
		_, err := parseHex(literal)
		if err != nil {
			dm.flag(src.LineNo, f("argument is not a hex number"))
		}
	}
}

// validateData checks a single data segment line.
func (asm *Assembler) validateData(dm diagMap, src Source) {
	words := fields(src.Text)

	if len(words) != 2 {
		dm.flag(src.LineNo, f("invalid data pair"))
		return
	}

	_, err := parseHex(words[0])
	if err != nil {
		dm.flag(src.LineNo, f("data address is not a hex number"))
	}

	_, err = parseHex(words[1])
	if err != nil {
		dm.flag(src.LineNo, f("data value is not a hex number"))
	}
}

// Translate builds a program from validated code and data segments.
// Only capacity problems are diagnosed; syntax is trusted.
func (asm *Assembler) Translate(code, data []Source) (prog *Program, diags Diagnostics) {
	dm := diagMap{}

	prog = &Program{
		Memory: NewMemory(),
	}

	addr := 0
	for _, src := range code {
		if len(src.Text) == 0 {
			continue
		}

		words := fields(src.Text)
		if len(words) == 0 {
			continue
		}
		entry, _ := Lookup(words[0])
		if entry == nil {
			dm.flag(src.LineNo, f("illegal mnemonic %v", words[0]))
			continue
		}

		var mode Mode
		var arg int32
		if len(words) > 1 {
			var literal string
			mode, literal = SplitOperand(words[1])
			arg, _ = parseHex(literal)
		}

		instr := MakeInstruction(entry.Op, mode, arg)
		err := prog.Memory.SetCode(addr, instr)
		if err != nil {
			dm.flag(src.LineNo, f("program exceeds %v instructions", strconv.Itoa(CODE_SIZE)))
			break
		}

		if asm.Verbose {
			log.Printf("%03x: %v", addr, instr)
		}

		prog.Lines = append(prog.Lines, Line{
			LineNo:      src.LineNo,
			Addr:        addr,
			Words:       words,
			Instruction: instr,
		})
		addr++
	}

	for _, src := range data {
		words := fields(src.Text)
		if len(words) != 2 {
			dm.flag(src.LineNo, f("invalid data pair"))
			continue
		}
		address, _ := parseHex(words[0])
		value, _ := parseHex(words[1])
		err := prog.Memory.SetData(int(address), value)
		if err != nil {
			dm.flag(src.LineNo, f("data address %X is out of range", address))
		}
	}

	diags = dm.sorted()

	return
}

// Assemble validates and translates source lines.
//
// outcome is 0 on success. Otherwise it is the first failing line number,
// prog is nil and diags holds every detected problem.
func (asm *Assembler) Assemble(source []string) (prog *Program, diags Diagnostics, outcome int) {
	diags, code, data := asm.Validate(source)
	if len(diags) == 0 {
		prog, diags = asm.Translate(code, data)
	}

	if len(diags) != 0 {
		prog = nil
		outcome = diags.First()
	}

	return
}

// Parse reads source text from input and assembles it.
// A failed assembly returns its Diagnostics as the error.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	var source []string

	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		source = append(source, scanner.Text())
	}
	err = scanner.Err()
	if err != nil {
		return
	}

	prog, diags, _ := asm.Assemble(source)
	if len(diags) != 0 {
		err = diags
	}

	return
}
