package ems

import (
	"context"
	"fmt"
)

type evaluator struct {
	ctx *Ctx
}

// Eval runs prog and returns the program's result. Eval takes ownership of
// prog. Language-level failures come back as Error objects; the error
// return is reserved for runs aborted by ctx.
func Eval(ctx *Ctx, prog *Program) (Object, error) {
	if prog == nil {
		return None(), fmt.Errorf("nil program")
	}
	if ctx == nil {
		ctx = NewCtx(context.Background(), Limits{})
	}
	ev := &evaluator{ctx: ctx}
	return ev.program(prog)
}

func (ev *evaluator) program(prog *Program) (Object, error) {
	res := None()
	have := true
	for _, st := range prog.Stmts {
		o, err := ev.stmt(st)
		if err != nil {
			return None(), err
		}
		switch o.K {
		case OReturn:
			return unwrapReturn(o), nil
		case OError:
			return o, nil
		case OUnmetIf:
			have = false
		default:
			res, have = o, true
		}
	}
	if !have {
		return None(), nil
	}
	return res, nil
}

func unwrapReturn(o Object) Object {
	if o.Ret == nil || o.Ret.K == OUnmetIf {
		return None()
	}
	return *o.Ret
}

func (ev *evaluator) stmt(st Stmt) (Object, error) {
	if err := ev.ctx.tick(st.Pos()); err != nil {
		return None(), err
	}
	switch s := st.(type) {
	case *VarStmt, *ConstStmt, *LocalStmt:
		return None(), nil
	case *ReturnStmt:
		if s.Val == nil {
			return Return(None()), nil
		}
		v, err := ev.expr(s.Val)
		if err != nil {
			return None(), err
		}
		if v.signal() {
			return v, nil
		}
		return Return(v), nil
	case *ExprStmt:
		return ev.expr(s.Exp)
	case *BlockStmt:
		return ev.block(s.Body)
	default:
		return Errorf("cannot evaluate statement %T", st), nil
	}
}

// block stops at the first Return or Error and hands it back still wrapped.
func (ev *evaluator) block(b *Block) (Object, error) {
	if err := ev.ctx.enter(b.P); err != nil {
		return None(), err
	}
	defer ev.ctx.leave()

	res := None()
	for _, st := range b.Stmts {
		o, err := ev.stmt(st)
		if err != nil {
			return None(), err
		}
		if o.signal() {
			return o, nil
		}
		res = o
	}
	return res, nil
}

func (ev *evaluator) expr(e Expr) (Object, error) {
	if err := ev.ctx.tick(e.Pos()); err != nil {
		return None(), err
	}

	switch x := e.(type) {
	case *NumberLit:
		return Num(x.N), nil
	case *StringLit:
		return None(), nil
	case *BoolLit:
		return Bool(x.B), nil
	case *NoneLit:
		return None(), nil
	case *Prefix:
		return ev.prefix(x)
	case *Infix:
		return ev.infix(x)
	case *IfExpr:
		return ev.ifChain(x)
	case *Call:
		return ev.call(x)
	case *Ident:
		return Errorf("identifier not found: %s", x.Name), nil
	case *WhileExpr:
		return unsupported("while loops"), nil
	case *ForExpr:
		return unsupported("for loops"), nil
	case *FuncLit:
		return unsupported("function literals"), nil
	case *ListLit:
		return unsupported("lists"), nil
	case *IndexExpr:
		return unsupported("index expressions"), nil
	case *Annotation:
		return unsupported("annotations"), nil
	default:
		return Errorf("cannot evaluate expression %T", e), nil
	}
}

func unsupported(form string) Object {
	return Errorf("%s are not supported", form)
}

func (ev *evaluator) prefix(x *Prefix) (Object, error) {
	r, err := ev.expr(x.X)
	if err != nil {
		return None(), err
	}
	if r.signal() {
		return r, nil
	}

	switch x.Op {
	case PreNot:
		return evalNot(r), nil
	case PrePlus:
		return r, nil
	case PreMinus:
		if r.K == ONum {
			return Num(-r.N), nil
		}
		return r, nil
	default:
		return Errorf("Illegal prefix operation: %s", x.Op), nil
	}
}

func evalNot(r Object) Object {
	switch r.K {
	case OBool:
		return Bool(!r.B)
	case ONone:
		return r
	default:
		return Errorf("Illegal prefix operation: !%s", r)
	}
}

func (ev *evaluator) infix(x *Infix) (Object, error) {
	l, err := ev.expr(x.L)
	if err != nil {
		return None(), err
	}
	if l.signal() {
		return l, nil
	}
	r, err := ev.expr(x.R)
	if err != nil {
		return None(), err
	}
	if r.signal() {
		return r, nil
	}

	if l.K == ONum && r.K == ONum {
		return numInfix(x.Op, l.N, r.N), nil
	}
	switch x.Op {
	case OpEq:
		return Bool(l.Equal(r)), nil
	case OpNe:
		return Bool(!l.Equal(r)), nil
	}
	return Errorf("Unknown operation: left: %s, right: %s, operator: %s", l, r, x.Op), nil
}

// numInfix follows IEEE-754 throughout; division by zero yields ±Inf or NaN.
func numInfix(op InfixOp, a, b float64) Object {
	switch op {
	case OpAdd:
		return Num(a + b)
	case OpSub:
		return Num(a - b)
	case OpMul:
		return Num(a * b)
	case OpDiv:
		return Num(a / b)
	case OpLt:
		return Bool(a < b)
	case OpLe:
		return Bool(a <= b)
	case OpGt:
		return Bool(a > b)
	case OpGe:
		return Bool(a >= b)
	case OpEq:
		return Bool(a == b)
	case OpNe:
		return Bool(a != b)
	default:
		return Errorf("Unknown operation: left: %s, right: %s, operator: %s", Num(a), Num(b), op)
	}
}

// ifChain walks the Alt links: the first link whose condition holds wins,
// an else link always wins, and a chain with no winner yields UnmetIf.
func (ev *evaluator) ifChain(ie *IfExpr) (Object, error) {
	for link := ie; link != nil; link = link.Alt {
		if link.Kind == IfElse {
			return ev.block(link.Body)
		}

		cond := None()
		if link.Cond != nil {
			c, err := ev.expr(link.Cond)
			if err != nil {
				return None(), err
			}
			cond = c
		}
		if cond.signal() {
			return cond, nil
		}

		ok, valid := truthy(cond)
		if !valid {
			return Errorf("Invalid condition: %s", cond), nil
		}
		if ok {
			return ev.block(link.Body)
		}
	}
	return UnmetIf(), nil
}

// truthy accepts only Bool and None as conditions.
func truthy(o Object) (ok bool, valid bool) {
	switch o.K {
	case OBool:
		return o.B, true
	case ONone:
		return false, true
	default:
		return false, false
	}
}

func (ev *evaluator) call(c *Call) (Object, error) {
	id, ok := c.Fn.(*Ident)
	if !ok {
		return Errorf("call target is not a function"), nil
	}
	fn, ok := LookupBuiltin(id.Name)
	if !ok {
		return Errorf("unknown function: %s", id.Name), nil
	}

	args := make([]Object, 0, len(c.Args))
	for _, a := range c.Args {
		v, err := ev.expr(a)
		if err != nil {
			return None(), err
		}
		if v.signal() {
			return v, nil
		}
		args = append(args, v)
	}
	fn.call(ev.ctx, c.P, args)
	return BuiltinCall(fn, args), nil
}
