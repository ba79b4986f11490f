package ems

import (
	"fmt"
	"strconv"
)

type (
	prefixFn func() Expr
	infixFn  func(Expr) Expr
)

const (
	precLowest = iota + 1
	precEquals
	precLessGreater
	precLessGreaterEqual
	precSum
	precProduct
	precPrefix
	precCall
)

const maxDepth = 256

var precedences = map[Kind]int{
	EQ:     precEquals,
	NE:     precEquals,
	LT:     precLessGreater,
	GT:     precLessGreater,
	LE:     precLessGreaterEqual,
	GE:     precLessGreaterEqual,
	PLUS:   precSum,
	MINUS:  precSum,
	STAR:   precProduct,
	SLASH:  precProduct,
	LPAREN: precCall,
	LBRACK: precCall,
}

var infixOps = map[Kind]InfixOp{
	PLUS:  OpAdd,
	MINUS: OpSub,
	STAR:  OpMul,
	SLASH: OpDiv,
	EQ:    OpEq,
	NE:    OpNe,
	LT:    OpLt,
	LE:    OpLe,
	GT:    OpGt,
	GE:    OpGe,
}

type Parser struct {
	lx    *Lexer
	path  string
	cur   Tok
	peek  Tok
	ahead []Tok
	line  int
	depth int
	errs  []*ParseError
	bad   *IllegalTokenError
	pre   map[Kind]prefixFn
	in    map[Kind]infixFn
}

func NewParser(path string, src []byte) *Parser {
	return NewParserAt(path, src, Pos{Line: 1, Col: 1})
}

func NewParserAt(path string, src []byte, pos Pos) *Parser {
	lx := NewLexerAt(path, src, pos)
	p := &Parser{lx: lx, path: path, line: lx.line}
	p.pre = map[Kind]prefixFn{
		IDENT:    p.parseIdent,
		NUMBER:   p.parseNumber,
		STRING:   p.parseString,
		KW_TRUE:  p.parseBool,
		KW_FALSE: p.parseBool,
		KW_NONE:  p.parseNone,
		BANG:     p.parsePrefix,
		MINUS:    p.parsePrefix,
		PLUS:     p.parsePrefix,
		LPAREN:   p.parseGrouped,
		LBRACK:   p.parseList,
		KW_IF:    p.parseIf,
		KW_WHILE: p.parseWhile,
		KW_FOR:   p.parseFor,
		KW_FUNC:  p.parseFunc,
		AT:       p.parseAnnotation,
	}
	p.in = map[Kind]infixFn{
		PLUS:   p.parseInfix,
		MINUS:  p.parseInfix,
		STAR:   p.parseInfix,
		SLASH:  p.parseInfix,
		EQ:     p.parseInfix,
		NE:     p.parseInfix,
		LT:     p.parseInfix,
		LE:     p.parseInfix,
		GT:     p.parseInfix,
		GE:     p.parseInfix,
		LPAREN: p.parseCall,
		LBRACK: p.parseIndex,
	}

	p.cur = lx.Next()
	p.peek = lx.Next()
	p.countLine()
	if p.cur.K == ILLEGAL {
		p.illegal(p.cur)
	}
	return p
}

// Parse parses src in one go. A non-nil error means the input held an
// illegal token and the program must not be evaluated; diags are the
// recoverable diagnostics collected along the way.
func Parse(path string, src []byte) (*Program, []*ParseError, error) {
	p := NewParser(path, src)
	prog, err := p.ParseProgram()
	return prog, p.Errors(), err
}

// Errors returns the diagnostics recorded so far.
func (p *Parser) Errors() []*ParseError {
	return append([]*ParseError(nil), p.errs...)
}

func (p *Parser) ParseProgram() (*Program, error) {
	prog := &Program{Path: p.path}
	for p.cur.K != EOF && p.bad == nil {
		n := len(p.errs)
		st := p.parseStmt()
		if st != nil {
			prog.Stmts = append(prog.Stmts, st)
		} else if len(p.errs) > n && p.bad == nil {
			p.sync(false)
			if p.cur.K == EOF {
				continue
			}
		}
		p.next()
	}
	if p.bad != nil {
		p.bad.Diags = p.Errors()
		return nil, p.bad
	}
	return prog, nil
}

func (p *Parser) next() {
	p.cur = p.peek
	if len(p.ahead) > 0 {
		p.peek = p.ahead[0]
		p.ahead = p.ahead[1:]
	} else {
		p.peek = p.lx.Next()
	}
	p.countLine()
	if p.cur.K == ILLEGAL {
		p.illegal(p.cur)
	}
}

// countLine moves the line counter onto the line that follows a newline
// as soon as that newline becomes the current token.
func (p *Parser) countLine() {
	if p.cur.K == EOL && p.cur.Lit != ";" {
		p.line++
	}
}

// peekPastEOL returns the kind of the first non-EOL token from peek on,
// without consuming anything.
func (p *Parser) peekPastEOL() Kind {
	if p.peek.K != EOL {
		return p.peek.K
	}
	for i := 0; ; i++ {
		if i >= len(p.ahead) {
			p.ahead = append(p.ahead, p.lx.Next())
		}
		if p.ahead[i].K != EOL {
			return p.ahead[i].K
		}
	}
}

func (p *Parser) skipPeekEOL() {
	for p.peek.K == EOL {
		p.next()
	}
}

// sync skips the rest of a failed statement.
func (p *Parser) sync(inBlock bool) {
	for p.cur.K != EOL && p.cur.K != EOF && p.bad == nil {
		if inBlock && p.cur.K == RBRACE {
			return
		}
		p.next()
	}
}

func (p *Parser) at(t Tok) Pos {
	return Pos{Path: p.path, Line: p.line, Col: t.P.Col}
}

func (p *Parser) errorf(pos Pos, format string, args ...any) {
	p.errs = append(p.errs, &ParseError{Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

func (p *Parser) peekError(k Kind) {
	p.errorf(
		p.at(p.peek),
		"expected next token to be %s, found %s instead",
		k,
		p.peek.K,
	)
}

func (p *Parser) noPrefixError(t Tok) {
	p.errorf(p.at(t), "no prefix parse function for %s found", t.K)
}

func (p *Parser) illegal(t Tok) {
	if p.bad != nil {
		return
	}
	p.errorf(p.at(t), "illegal token: '%s' is not a valid token", t.Lit)
	p.bad = &IllegalTokenError{Tok: t}
}

func (p *Parser) expectPeek(k Kind) bool {
	if p.peek.K == k {
		p.next()
		return true
	}
	if p.peek.K == ILLEGAL {
		p.next()
		return false
	}
	p.peekError(k)
	return false
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peek.K]; ok {
		return pr
	}
	return precLowest
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.cur.K]; ok {
		return pr
	}
	return precLowest
}

func (p *Parser) parseStmt() Stmt {
	switch p.cur.K {
	case KW_VAR, KW_CONST, KW_LOCAL:
		return p.parseDecl()
	case KW_RETURN:
		return p.parseReturn()
	case EOL:
		return nil
	case LBRACE:
		p.depth++
		defer func() { p.depth-- }()
		if p.depth > maxDepth {
			p.errorf(p.at(p.cur), "maximum nesting depth exceeded")
			return nil
		}
		b := p.parseBlock()
		if b == nil {
			return nil
		}
		return &BlockStmt{Body: b}
	default:
		return p.parseExprStmt()
	}
}

// parseDecl reads `var|const|local NAME =` and skips the value up to the
// end of the line or the brace closing the enclosing block.
func (p *Parser) parseDecl() Stmt {
	tok := p.cur
	if !p.expectPeek(IDENT) {
		return nil
	}
	name := p.cur.Lit
	if !p.expectPeek(ASSIGN) {
		return nil
	}

	depth := 0
	for p.peek.K != EOL && p.peek.K != EOF && p.bad == nil {
		if p.peek.K == RBRACE {
			if depth == 0 {
				break
			}
			depth--
		}
		if p.peek.K == LBRACE {
			depth++
		}
		p.next()
	}
	if p.bad != nil {
		return nil
	}

	switch tok.K {
	case KW_CONST:
		return &ConstStmt{P: tok.P, Name: name}
	case KW_LOCAL:
		return &LocalStmt{P: tok.P, Name: name}
	default:
		return &VarStmt{P: tok.P, Name: name}
	}
}

func (p *Parser) parseReturn() Stmt {
	pos := p.cur.P
	switch p.peek.K {
	case EOL, EOF, RBRACE:
		return &ReturnStmt{P: pos}
	}
	p.next()
	val := p.parseExpression(precLowest)
	if val == nil {
		return nil
	}
	return &ReturnStmt{P: pos, Val: val}
}

func (p *Parser) parseExprStmt() Stmt {
	pos := p.cur.P
	ex := p.parseExpression(precLowest)
	if ex == nil {
		return nil
	}
	return &ExprStmt{P: pos, Exp: ex}
}

// parseBlock expects cur on '{' and leaves cur on the matching '}'.
func (p *Parser) parseBlock() *Block {
	b := &Block{P: p.cur.P}
	p.next()
	for p.cur.K != RBRACE {
		if p.bad != nil {
			return nil
		}
		if p.cur.K == EOF {
			p.errorf(p.at(p.cur), "expected next token to be %s, found %s instead", RBRACE, EOF)
			return nil
		}
		n := len(p.errs)
		st := p.parseStmt()
		if st != nil {
			b.Stmts = append(b.Stmts, st)
		} else if len(p.errs) > n {
			p.sync(true)
			if p.cur.K == RBRACE || p.cur.K == EOF {
				continue
			}
		}
		p.next()
	}
	return b
}

func (p *Parser) parseExpression(prec int) Expr {
	if p.bad != nil {
		return nil
	}
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxDepth {
		p.errorf(p.at(p.cur), "maximum nesting depth exceeded")
		return nil
	}

	pre := p.pre[p.cur.K]
	if pre == nil {
		if p.cur.K != ILLEGAL {
			p.noPrefixError(p.cur)
		}
		return nil
	}
	left := pre()
	if left == nil {
		return nil
	}

	for prec < p.peekPrecedence() {
		in := p.in[p.peek.K]
		if in == nil {
			return left
		}
		p.next()
		left = in(left)
		if left == nil {
			return nil
		}
	}
	return left
}

func (p *Parser) parseIdent() Expr {
	return &Ident{P: p.cur.P, Name: p.cur.Lit}
}

func (p *Parser) parseNumber() Expr {
	n, err := strconv.ParseFloat(p.cur.Lit, 64)
	if err != nil {
		p.errorf(p.at(p.cur), "could not parse %q as number", p.cur.Lit)
		return nil
	}
	return &NumberLit{P: p.cur.P, N: n}
}

func (p *Parser) parseString() Expr {
	return &StringLit{P: p.cur.P, S: p.cur.Lit}
}

func (p *Parser) parseBool() Expr {
	return &BoolLit{P: p.cur.P, B: p.cur.K == KW_TRUE}
}

func (p *Parser) parseNone() Expr {
	return &NoneLit{P: p.cur.P}
}

func (p *Parser) parsePrefix() Expr {
	pos := p.cur.P
	var op PrefixOp
	switch p.cur.K {
	case BANG:
		op = PreNot
	case PLUS:
		op = PrePlus
	default:
		op = PreMinus
	}
	p.next()
	x := p.parseExpression(precPrefix)
	if x == nil {
		return nil
	}
	return &Prefix{P: pos, Op: op, X: x}
}

func (p *Parser) parseInfix(left Expr) Expr {
	pos := p.cur.P
	op := infixOps[p.cur.K]
	prec := p.curPrecedence()
	p.next()
	for p.cur.K == EOL {
		p.next()
	}
	right := p.parseExpression(prec)
	if right == nil {
		return nil
	}
	return &Infix{P: pos, Op: op, L: left, R: right}
}

func (p *Parser) parseGrouped() Expr {
	p.skipPeekEOL()
	p.next()
	ex := p.parseExpression(precLowest)
	if ex == nil {
		return nil
	}
	p.skipPeekEOL()
	if !p.expectPeek(RPAREN) {
		return nil
	}
	return ex
}

func (p *Parser) parseList() Expr {
	pos := p.cur.P
	elems, ok := p.parseExprList(RBRACK)
	if !ok {
		return nil
	}
	return &ListLit{P: pos, Elems: elems}
}

func (p *Parser) parseCall(fn Expr) Expr {
	pos := p.cur.P
	args, ok := p.parseExprList(RPAREN)
	if !ok {
		return nil
	}
	return &Call{P: pos, Fn: fn, Args: args}
}

func (p *Parser) parseIndex(x Expr) Expr {
	pos := p.cur.P
	p.next()
	idx := p.parseExpression(precLowest)
	if idx == nil {
		return nil
	}
	if !p.expectPeek(RBRACK) {
		return nil
	}
	return &IndexExpr{P: pos, X: x, Idx: idx}
}

// parseExprList expects cur on the opening delimiter and leaves cur on end.
// Line breaks are allowed around elements and a trailing comma is accepted.
func (p *Parser) parseExprList(end Kind) ([]Expr, bool) {
	var out []Expr
	p.skipPeekEOL()
	if p.peek.K == end {
		p.next()
		return out, true
	}

	p.next()
	ex := p.parseExpression(precLowest)
	if ex == nil {
		return nil, false
	}
	out = append(out, ex)

	for {
		p.skipPeekEOL()
		if p.peek.K != COMMA {
			break
		}
		p.next()
		p.skipPeekEOL()
		if p.peek.K == end {
			break
		}
		p.next()
		ex := p.parseExpression(precLowest)
		if ex == nil {
			return nil, false
		}
		out = append(out, ex)
	}

	if !p.expectPeek(end) {
		return nil, false
	}
	return out, true
}

func (p *Parser) parseIf() Expr {
	ie := p.parseIfLink(IfPlain)
	if ie == nil {
		return nil
	}
	return ie
}

// parseIfLink parses one link of a conditional chain and, recursively, the
// links that follow it. Line breaks between '}' and elseif/else are allowed.
func (p *Parser) parseIfLink(kind IfKind) *IfExpr {
	link := &IfExpr{P: p.cur.P, Kind: kind}
	if kind != IfElse {
		p.next()
		link.Cond = p.parseExpression(precLowest)
		if link.Cond == nil {
			return nil
		}
	}
	if !p.expectPeek(LBRACE) {
		return nil
	}
	link.Body = p.parseBlock()
	if link.Body == nil {
		return nil
	}
	if kind == IfElse {
		return link
	}

	var next IfKind
	switch p.peekPastEOL() {
	case KW_ELSEIF:
		next = IfElseIf
	case KW_ELSE:
		next = IfElse
	default:
		return link
	}
	p.skipPeekEOL()
	p.next()
	link.Alt = p.parseIfLink(next)
	if link.Alt == nil {
		return nil
	}
	return link
}

func (p *Parser) parseWhile() Expr {
	pos := p.cur.P
	p.next()
	cond := p.parseExpression(precLowest)
	if cond == nil {
		return nil
	}
	if !p.expectPeek(LBRACE) {
		return nil
	}
	body := p.parseBlock()
	if body == nil {
		return nil
	}
	return &WhileExpr{P: pos, Cond: cond, Body: body}
}

func (p *Parser) parseFor() Expr {
	pos := p.cur.P
	if !p.expectPeek(IDENT) {
		return nil
	}
	name := p.cur.Lit
	if !p.expectPeek(KW_IN) {
		return nil
	}
	p.next()
	iter := p.parseExpression(precLowest)
	if iter == nil {
		return nil
	}
	if !p.expectPeek(LBRACE) {
		return nil
	}
	body := p.parseBlock()
	if body == nil {
		return nil
	}
	return &ForExpr{P: pos, Var: name, Iter: iter, Body: body}
}

func (p *Parser) parseFunc() Expr {
	pos := p.cur.P
	if !p.expectPeek(LPAREN) {
		return nil
	}
	var params []string
	if p.peek.K == RPAREN {
		p.next()
	} else {
		for {
			if !p.expectPeek(IDENT) {
				return nil
			}
			params = append(params, p.cur.Lit)
			if p.peek.K != COMMA {
				break
			}
			p.next()
		}
		if !p.expectPeek(RPAREN) {
			return nil
		}
	}
	if !p.expectPeek(LBRACE) {
		return nil
	}
	body := p.parseBlock()
	if body == nil {
		return nil
	}
	return &FuncLit{P: pos, Params: params, Body: body}
}

func (p *Parser) parseAnnotation() Expr {
	pos := p.cur.P
	if !p.expectPeek(IDENT) {
		return nil
	}
	return &Annotation{P: pos, Name: p.cur.Lit}
}
