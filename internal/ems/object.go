package ems

import (
	"fmt"
	"strconv"
	"strings"
)

type OKind int

const (
	ONone OKind = iota
	ONum
	OBool
	OReturn
	OError
	OUnmetIf
	OBuiltin
)

// Object is a runtime value. Return, Error and UnmetIf are control
// signals; the others are data.
type Object struct {
	K OKind

	N    float64
	B    bool
	Ret  *Object
	Msg  string
	Fn   Builtin
	Args []Object
}

func None() Object           { return Object{K: ONone} }
func Num(v float64) Object   { return Object{K: ONum, N: v} }
func Bool(v bool) Object     { return Object{K: OBool, B: v} }
func UnmetIf() Object        { return Object{K: OUnmetIf} }
func Return(v Object) Object { return Object{K: OReturn, Ret: &v} }

func Errorf(format string, args ...any) Object {
	return Object{K: OError, Msg: fmt.Sprintf(format, args...)}
}

func BuiltinCall(fn Builtin, args []Object) Object {
	return Object{K: OBuiltin, Fn: fn, Args: args}
}

// signal reports whether o must short-circuit the surrounding evaluation.
func (o Object) signal() bool {
	return o.K == OReturn || o.K == OError
}

func (o Object) IsError() bool { return o.K == OError }

func (o Object) TypeName() string {
	switch o.K {
	case ONone:
		return "none"
	case ONum:
		return "number"
	case OBool:
		return "bool"
	case OReturn:
		return "return"
	case OError:
		return "error"
	case OUnmetIf:
		return "unmet-if"
	case OBuiltin:
		return "builtin"
	default:
		return "unknown"
	}
}

func (o Object) String() string {
	switch o.K {
	case ONone:
		return "none"
	case ONum:
		return strconv.FormatFloat(o.N, 'g', -1, 64)
	case OBool:
		if o.B {
			return "true"
		}
		return "false"
	case OReturn:
		if o.Ret == nil {
			return "return"
		}
		return "return " + o.Ret.String()
	case OError:
		return "<error: " + o.Msg + ">"
	case OUnmetIf:
		return "<unmet-if>"
	case OBuiltin:
		parts := make([]string, len(o.Args))
		for i, a := range o.Args {
			parts[i] = a.String()
		}
		return fmt.Sprintf("%s(%s)", o.Fn, strings.Join(parts, ", "))
	default:
		return "?"
	}
}

// Equal compares variant and payload. Numbers use IEEE-754 equality, so
// NaN is never equal to itself, and no variant converts to another.
func (o Object) Equal(x Object) bool {
	if o.K != x.K {
		return false
	}
	switch o.K {
	case ONone, OUnmetIf:
		return true
	case ONum:
		return o.N == x.N
	case OBool:
		return o.B == x.B
	case OError:
		return o.Msg == x.Msg
	case OReturn:
		if o.Ret == nil || x.Ret == nil {
			return o.Ret == x.Ret
		}
		return o.Ret.Equal(*x.Ret)
	case OBuiltin:
		if o.Fn != x.Fn || len(o.Args) != len(x.Args) {
			return false
		}
		for i := range o.Args {
			if !o.Args[i].Equal(x.Args[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
