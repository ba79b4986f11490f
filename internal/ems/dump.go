package ems

import (
	"fmt"
	"strconv"
	"strings"
)

// Dump renders prog one statement per line in prefix notation.
func Dump(prog *Program) string {
	if prog == nil {
		return ""
	}
	var b strings.Builder
	for _, st := range prog.Stmts {
		b.WriteString(FormatStmt(st))
		b.WriteByte('\n')
	}
	return b.String()
}

func FormatStmt(st Stmt) string {
	switch s := st.(type) {
	case *VarStmt:
		return "(var " + s.Name + ")"
	case *ConstStmt:
		return "(const " + s.Name + ")"
	case *LocalStmt:
		return "(local " + s.Name + ")"
	case *ReturnStmt:
		if s.Val == nil {
			return "(return)"
		}
		return "(return " + FormatExpr(s.Val) + ")"
	case *ExprStmt:
		return FormatExpr(s.Exp)
	case *BlockStmt:
		return formatBlock(s.Body)
	default:
		return fmt.Sprintf("(%T)", st)
	}
}

func formatBlock(b *Block) string {
	if b == nil || len(b.Stmts) == 0 {
		return "{}"
	}
	parts := make([]string, len(b.Stmts))
	for i, st := range b.Stmts {
		parts[i] = FormatStmt(st)
	}
	return "{" + strings.Join(parts, " ") + "}"
}

func formatExprs(xs []Expr) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = FormatExpr(x)
	}
	return strings.Join(parts, " ")
}

// FormatExpr renders e fully parenthesised, so grouping is explicit.
func FormatExpr(e Expr) string {
	switch x := e.(type) {
	case *Ident:
		return x.Name
	case *NumberLit:
		return strconv.FormatFloat(x.N, 'g', -1, 64)
	case *StringLit:
		return strconv.Quote(x.S)
	case *BoolLit:
		return strconv.FormatBool(x.B)
	case *NoneLit:
		return "none"
	case *Prefix:
		return "(" + x.Op.String() + FormatExpr(x.X) + ")"
	case *Infix:
		return "(" + x.Op.String() + " " + FormatExpr(x.L) + " " + FormatExpr(x.R) + ")"
	case *IfExpr:
		return formatIf(x)
	case *WhileExpr:
		return "(while " + FormatExpr(x.Cond) + " " + formatBlock(x.Body) + ")"
	case *ForExpr:
		return "(for " + x.Var + " " + FormatExpr(x.Iter) + " " + formatBlock(x.Body) + ")"
	case *FuncLit:
		return "(func (" + strings.Join(x.Params, " ") + ") " + formatBlock(x.Body) + ")"
	case *Call:
		if len(x.Args) == 0 {
			return "(call " + FormatExpr(x.Fn) + ")"
		}
		return "(call " + FormatExpr(x.Fn) + " " + formatExprs(x.Args) + ")"
	case *ListLit:
		return "[" + formatExprs(x.Elems) + "]"
	case *IndexExpr:
		return "(index " + FormatExpr(x.X) + " " + FormatExpr(x.Idx) + ")"
	case *Annotation:
		return "@" + x.Name
	case nil:
		return "<nil>"
	default:
		return fmt.Sprintf("(%T)", e)
	}
}

func formatIf(ie *IfExpr) string {
	var b strings.Builder
	b.WriteString("(if")
	for link := ie; link != nil; link = link.Alt {
		switch link.Kind {
		case IfElse:
			b.WriteString(" else ")
		case IfElseIf:
			b.WriteString(" elseif " + FormatExpr(link.Cond) + " ")
		default:
			b.WriteString(" " + FormatExpr(link.Cond) + " ")
		}
		b.WriteString(formatBlock(link.Body))
	}
	b.WriteString(")")
	return b.String()
}
