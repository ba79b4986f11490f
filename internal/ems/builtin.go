package ems

import (
	"fmt"
	"io"
	"log"
	"strings"
)

type Builtin int

const (
	BuiltinPrint Builtin = iota + 1
)

type builtinSpec struct {
	name string
	fn   func(ctx *Ctx, pos Pos, args []Object)
}

var builtinSpecs = map[Builtin]builtinSpec{
	BuiltinPrint: {name: "print", fn: corePrint},
}

var builtinNames = func() map[string]Builtin {
	out := make(map[string]Builtin, len(builtinSpecs))
	for b, spec := range builtinSpecs {
		out[spec.name] = b
	}
	return out
}()

func (b Builtin) String() string {
	if spec, ok := builtinSpecs[b]; ok {
		return spec.name
	}
	return fmt.Sprintf("builtin(%d)", int(b))
}

// LookupBuiltin resolves a callee name to its built-in tag.
func LookupBuiltin(name string) (Builtin, bool) {
	b, ok := builtinNames[name]
	return b, ok
}

// BuiltinNames lists the registered built-in names.
func BuiltinNames() []string {
	out := make([]string, 0, len(builtinNames))
	for name := range builtinNames {
		out = append(out, name)
	}
	return out
}

func (b Builtin) call(ctx *Ctx, pos Pos, args []Object) {
	spec, ok := builtinSpecs[b]
	if !ok || spec.fn == nil {
		return
	}
	spec.fn(ctx, pos, args)
}

func corePrint(ctx *Ctx, pos Pos, args []Object) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	var w io.Writer = io.Discard
	if ctx != nil && ctx.Out != nil {
		w = ctx.Out
	}
	if _, err := fmt.Fprintln(w, strings.Join(parts, " ")); err != nil {
		log.Printf("print at %s: %v", pos, err)
	}
}
