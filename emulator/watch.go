package emulator

import (
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Watch is a compiled Starlark expression evaluated after each tick.
//
// Expressions may refer to pc, acc, ticks, changed, line and halted, and
// read data cells with data(i).
type Watch struct {
	Expr string

	prog *starlark.Program
}

// watchNames are the predeclared identifiers of a watch expression.
var watchNames = map[string]bool{
	"pc":      true,
	"acc":     true,
	"ticks":   true,
	"changed": true,
	"line":    true,
	"halted":  true,
	"data":    true,
}

// NewWatch compiles a watch expression.
func NewWatch(expr string) (watch *Watch, err error) {
	opts := syntax.FileOptions{}
	src := "rc=" + expr + "\n"
	_, prog, err := starlark.SourceProgramOptions(&opts, "watch", src, func(name string) bool {
		return watchNames[name]
	})
	if err != nil {
		err = ErrWatchExpression(expr)
		return
	}

	watch = &Watch{
		Expr: expr,
		prog: prog,
	}

	return
}

// Eval evaluates the watch against the emulator state.
func (watch *Watch) Eval(emu *Emulator) (fired bool, err error) {
	thread := starlark.Thread{Name: "watch"}

	pred := starlark.StringDict{}
	for name, value := range emu.Values() {
		pred[name] = starlark.MakeInt(value)
	}
	pred["halted"] = starlark.Bool(emu.Halted())
	pred["data"] = starlark.NewBuiltin("data", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
		var index int
		err = starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &index)
		if err != nil {
			return
		}
		cell, err := emu.Memory.Data(index)
		if err != nil {
			return
		}
		value = starlark.MakeInt(int(cell))
		return
	})

	dict, err := watch.prog.Init(&thread, pred)
	if err != nil {
		return
	}

	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrWatchExpression(watch.Expr)
		return
	}

	fired = bool(st_rc.Truth())

	return
}
