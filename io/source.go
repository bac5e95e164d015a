package io

import (
	"bufio"
	"io"
	"io/fs"
	"iter"
	"log"
	"path"
	"regexp"
	"strings"

	"github.com/ezrec/pippin/cpu"
)

var sourcePattern = regexp.MustCompile(`(?i)\.pasm$`)

// SourceFile is a named source text, split into lines.
type SourceFile struct {
	Name  string
	Lines []string
}

// ReadLines splits text into lines, accepting `\n` and `\r\n` endings.
func ReadLines(r io.Reader) (lines []string, err error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	err = scanner.Err()
	return
}

// Sources iterates every .pasm file at the top of a file system, in
// lexical order.
func Sources(fsys fs.FS) iter.Seq2[*SourceFile, error] {
	return func(yield func(src *SourceFile, err error) bool) {
		err := fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err_in error) (err error) {
			if err_in != nil {
				return err_in
			}
			if d.IsDir() {
				if name != "." {
					err = fs.SkipDir
				}
				return
			}
			if !sourcePattern.MatchString(name) {
				return
			}

			file, err := fsys.Open(name)
			if err != nil {
				return
			}
			defer file.Close()

			lines, err := ReadLines(file)
			if err != nil {
				return
			}

			if !yield(&SourceFile{Name: name, Lines: lines}, nil) {
				err = fs.SkipAll
			}

			return
		})
		if err != nil {
			yield(nil, err)
		}
	}
}

// Result is the outcome of assembling one source file.
type Result struct {
	Name        string          // Source file name.
	Output      string          // Image file name, if one was written.
	Outcome     int             // 0, or the first failing line.
	Diagnostics cpu.Diagnostics // Every detected problem.
}

// PexeName returns the image file name for a source file name.
func PexeName(name string) string {
	return strings.TrimSuffix(name, path.Ext(name)) + ".pexe"
}

// AssembleAll assembles every source in fsys, writing an image to out for
// each one that succeeds.
func AssembleAll(asm *cpu.Assembler, fsys fs.FS, out CreateFS) (results []Result, err error) {
	for src, err_src := range Sources(fsys) {
		if err_src != nil {
			err = err_src
			return
		}

		prog, diags, outcome := asm.Assemble(src.Lines)
		result := Result{
			Name:        src.Name,
			Outcome:     outcome,
			Diagnostics: diags,
		}

		if outcome == 0 {
			result.Output = PexeName(src.Name)
			err = writePexeFile(out, result.Output, prog.Memory)
			if err != nil {
				return
			}
		}

		if asm.Verbose {
			log.Printf("%v: outcome %d", src.Name, outcome)
		}

		results = append(results, result)
	}

	return
}

func writePexeFile(out CreateFS, name string, mem *cpu.Memory) (err error) {
	file, err := out.Create(name)
	if err != nil {
		return
	}

	err = WritePexe(file, mem)
	err_close := file.Close()
	if err == nil {
		err = err_close
	}

	return
}
