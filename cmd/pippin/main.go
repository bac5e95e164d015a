// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/ezrec/pippin/cpu"
	"github.com/ezrec/pippin/emulator"
	pio "github.com/ezrec/pippin/io"
	"github.com/ezrec/pippin/translate"
)

const (
	EXIT_OK    = 0   // Success.
	EXIT_ERROR = 1   // Usage, file or runtime error.
	EXIT_MAX   = 255 // Largest portable exit status.
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// exitStatus maps an assembly outcome or failure count to a process exit
// status. Zero stays zero; any failure stays non-zero after the operating
// system truncates the status to 8 bits.
func exitStatus(outcome int) int {
	if outcome <= 0 {
		return EXIT_OK
	}

	return min(outcome, EXIT_MAX)
}

// run executes the command line in args, and returns the exit status.
func run(args []string, stdout io.Writer, stderr io.Writer) int {
	var compile string
	var batch string
	var load string
	var output string
	var save bool
	var verbose bool
	var keep bool
	var interactive bool
	var ticks int
	var lang string
	var watches []string

	logger := log.New(stderr, "", 0)

	flags := flag.NewFlagSet(args[0], flag.ContinueOnError)
	flags.SetOutput(stderr)

	flags.StringVar(&compile, "c", "", ".pasm file to assemble")
	flags.StringVar(&batch, "b", "", "Directory of .pasm files to assemble")
	flags.StringVar(&load, "l", "", ".pexe file to load")
	flags.StringVar(&output, "o", "", ".pexe file to write")
	flags.BoolVar(&save, "s", false, "Assemble only, do not execute")
	flags.BoolVar(&verbose, "v", false, "Verbose mode")
	flags.BoolVar(&keep, "k", false, "Skip faulting instructions and keep running")
	flags.BoolVar(&interactive, "i", false, "Interactive single step")
	flags.IntVar(&ticks, "t", emulator.MAX_TICKS, "Maximum ticks to run")
	flags.StringVar(&lang, "lang", "", "Message language")
	flags.Func("w", "Watch expression (may be repeated)", func(expr string) error {
		watches = append(watches, expr)
		return nil
	})

	err := flags.Parse(args[1:])
	if err != nil {
		return EXIT_ERROR
	}

	if flags.NArg() != 0 {
		logger.Printf("%v: Unknown arguments: %v", args[0], flags.Args())
		return EXIT_ERROR
	}

	if len(lang) != 0 {
		err = translate.SetLanguage(lang)
		if err != nil {
			logger.Printf("%v: %v", lang, err)
			return EXIT_ERROR
		}
	}

	asm := &cpu.Assembler{Verbose: verbose}

	// Batch assemble a directory.
	if len(batch) != 0 {
		failed, err := assembleAll(asm, batch, stdout, stderr)
		if err != nil {
			logger.Printf("%v: %v", batch, err)
			return EXIT_ERROR
		}
		return exitStatus(failed)
	}

	var prog *cpu.Program

	switch {
	case len(compile) != 0:
		inf, err := os.Open(compile)
		if err != nil {
			logger.Printf("%v: %v", compile, err)
			return EXIT_ERROR
		}
		source, err := pio.ReadLines(inf)
		inf.Close()
		if err != nil {
			logger.Printf("%v: %v", compile, err)
			return EXIT_ERROR
		}

		var diags cpu.Diagnostics
		var outcome int
		prog, diags, outcome = asm.Assemble(source)
		if outcome != 0 {
			fmt.Fprint(stderr, diags.Error())
			return exitStatus(outcome)
		}
	case len(load) != 0:
		inf, err := os.Open(load)
		if err != nil {
			logger.Printf("%v: %v", load, err)
			return EXIT_ERROR
		}
		mem, err := pio.ReadPexe(inf)
		inf.Close()
		if err != nil {
			logger.Printf("%v: %v", load, err)
			return EXIT_ERROR
		}
		prog = &cpu.Program{Memory: mem}
	default:
		logger.Printf("%v: one of -c, -l or -b is required", args[0])
		return EXIT_ERROR
	}

	if len(output) != 0 {
		err = writePexe(output, prog.Memory)
		if err != nil {
			logger.Printf("%v: %v", output, err)
			return EXIT_ERROR
		}
	}

	if save {
		return EXIT_OK
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose
	emu.MaxTicks = ticks

	for _, expr := range watches {
		err = emu.AddWatch(expr)
		if err != nil {
			logger.Printf("-w: %v", err)
			return EXIT_ERROR
		}
	}

	err = emu.Load(prog)
	if err != nil {
		logger.Print(err)
		return EXIT_ERROR
	}

	if interactive {
		err = interact(emu)
	} else {
		var policy func(error) bool
		if keep {
			policy = func(err error) bool {
				return skipFault(emu, err)
			}
		}
		err = emu.Run(policy)
	}

	fmt.Fprint(stdout, emu.Cpu.String())
	printData(stdout, emu.Cpu.Memory)

	if err != nil {
		logger.Print(err)
		return EXIT_ERROR
	}

	return EXIT_OK
}

// skipFault reports a runtime fault and steps past it.
func skipFault(emu *emulator.Emulator, err error) bool {
	var err_rt *emulator.ErrRuntime
	if !errors.As(err, &err_rt) {
		return false
	}

	log.Print(err)
	emu.Cpu.Pc = err_rt.Pc + 1

	return true
}

// assembleAll assembles every source in a directory, and returns the
// number of failed sources.
func assembleAll(asm *cpu.Assembler, dir string, stdout io.Writer, stderr io.Writer) (failed int, err error) {
	results, err := pio.AssembleAll(asm, os.DirFS(dir), pio.DirFS(dir))
	if err != nil {
		return
	}

	for _, result := range results {
		if result.Outcome == 0 {
			fmt.Fprintf(stdout, "%v: %v\n", result.Name, result.Output)
			continue
		}
		failed++
		for _, diag := range result.Diagnostics {
			fmt.Fprintf(stderr, "%v: %v\n", result.Name, diag)
		}
	}

	return
}

func writePexe(name string, mem *cpu.Memory) (err error) {
	ouf, err := os.Create(name)
	if err != nil {
		return
	}

	err = pio.WritePexe(ouf, mem)
	err_close := ouf.Close()
	if err == nil {
		err = err_close
	}

	return
}

// printData prints the non-zero data cells, eight per row.
func printData(out io.Writer, mem *cpu.Memory) {
	values, err := mem.DataRange(0, cpu.DATA_SIZE)
	if err != nil {
		return
	}

	for base := 0; base < len(values); base += 8 {
		row := values[base : base+8]
		zero := true
		for _, value := range row {
			if value != 0 {
				zero = false
				break
			}
		}
		if zero {
			continue
		}

		cells := make([]string, len(row))
		for n, value := range row {
			cells[n] = fmt.Sprintf("%8X", value)
		}
		fmt.Fprintf(out, "%03X: %v\n", base, strings.Join(cells, " "))
	}
}
