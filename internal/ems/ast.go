package ems

// Program is the parser's output. Eval takes ownership of it.
type Program struct {
	Path  string
	Stmts []Stmt
}

type Stmt interface {
	stmtNode()
	Pos() Pos
}

type Expr interface {
	exprNode()
	Pos() Pos
}

// VarStmt, ConstStmt and LocalStmt carry only the declared name.
type VarStmt struct {
	P    Pos
	Name string
}

func (*VarStmt) stmtNode()  {}
func (s *VarStmt) Pos() Pos { return s.P }

type ConstStmt struct {
	P    Pos
	Name string
}

func (*ConstStmt) stmtNode()  {}
func (s *ConstStmt) Pos() Pos { return s.P }

type LocalStmt struct {
	P    Pos
	Name string
}

func (*LocalStmt) stmtNode()  {}
func (s *LocalStmt) Pos() Pos { return s.P }

type ReturnStmt struct {
	P   Pos
	Val Expr
}

func (*ReturnStmt) stmtNode()  {}
func (s *ReturnStmt) Pos() Pos { return s.P }

type ExprStmt struct {
	P   Pos
	Exp Expr
}

func (*ExprStmt) stmtNode()  {}
func (s *ExprStmt) Pos() Pos { return s.P }

type Block struct {
	P     Pos
	Stmts []Stmt
}

type BlockStmt struct {
	Body *Block
}

func (*BlockStmt) stmtNode()  {}
func (s *BlockStmt) Pos() Pos { return s.Body.P }

type Ident struct {
	P    Pos
	Name string
}

func (*Ident) exprNode()  {}
func (e *Ident) Pos() Pos { return e.P }

type NumberLit struct {
	P Pos
	N float64
}

func (*NumberLit) exprNode()  {}
func (e *NumberLit) Pos() Pos { return e.P }

type StringLit struct {
	P Pos
	S string
}

func (*StringLit) exprNode()  {}
func (e *StringLit) Pos() Pos { return e.P }

type BoolLit struct {
	P Pos
	B bool
}

func (*BoolLit) exprNode()  {}
func (e *BoolLit) Pos() Pos { return e.P }

type NoneLit struct {
	P Pos
}

func (*NoneLit) exprNode()  {}
func (e *NoneLit) Pos() Pos { return e.P }

type PrefixOp int

const (
	PreNot PrefixOp = iota
	PrePlus
	PreMinus
)

func (op PrefixOp) String() string {
	switch op {
	case PreNot:
		return "!"
	case PrePlus:
		return "+"
	case PreMinus:
		return "-"
	default:
		return "?"
	}
}

type Prefix struct {
	P  Pos
	Op PrefixOp
	X  Expr
}

func (*Prefix) exprNode()  {}
func (e *Prefix) Pos() Pos { return e.P }

type InfixOp int

const (
	OpAdd InfixOp = iota
	OpSub
	OpMul
	OpDiv
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

func (op InfixOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	default:
		return "?"
	}
}

type Infix struct {
	P  Pos
	Op InfixOp
	L  Expr
	R  Expr
}

func (*Infix) exprNode()  {}
func (e *Infix) Pos() Pos { return e.P }

type IfKind int

const (
	IfPlain IfKind = iota
	IfElseIf
	IfElse
)

// IfExpr is one link of an if/elseif/else chain. Alt points at the next
// link; an IfElse link has no Cond and ends the chain.
type IfExpr struct {
	P    Pos
	Kind IfKind
	Cond Expr
	Body *Block
	Alt  *IfExpr
}

func (*IfExpr) exprNode()  {}
func (e *IfExpr) Pos() Pos { return e.P }

type WhileExpr struct {
	P    Pos
	Cond Expr
	Body *Block
}

func (*WhileExpr) exprNode()  {}
func (e *WhileExpr) Pos() Pos { return e.P }

type ForExpr struct {
	P    Pos
	Var  string
	Iter Expr
	Body *Block
}

func (*ForExpr) exprNode()  {}
func (e *ForExpr) Pos() Pos { return e.P }

type FuncLit struct {
	P      Pos
	Params []string
	Body   *Block
}

func (*FuncLit) exprNode()  {}
func (e *FuncLit) Pos() Pos { return e.P }

type Call struct {
	P    Pos
	Fn   Expr
	Args []Expr
}

func (*Call) exprNode()  {}
func (e *Call) Pos() Pos { return e.P }

type ListLit struct {
	P     Pos
	Elems []Expr
}

func (*ListLit) exprNode()  {}
func (e *ListLit) Pos() Pos { return e.P }

type IndexExpr struct {
	P   Pos
	X   Expr
	Idx Expr
}

func (*IndexExpr) exprNode()  {}
func (e *IndexExpr) Pos() Pos { return e.P }

type Annotation struct {
	P    Pos
	Name string
}

func (*Annotation) exprNode()  {}
func (e *Annotation) Pos() Pos { return e.P }
