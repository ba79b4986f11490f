package ems

type Lexer struct {
	src  []byte
	path string
	i    int
	line int
	col  int
	off  int
	eof  bool
}

func NewLexer(path string, src []byte) *Lexer {
	return NewLexerAt(path, src, Pos{Line: 1, Col: 1})
}

func NewLexerAt(path string, src []byte, pos Pos) *Lexer {
	ln := pos.Line
	if ln <= 0 {
		ln = 1
	}

	cl := pos.Col
	if cl <= 0 {
		cl = 1
	}
	return &Lexer{src: src, path: path, line: ln, col: cl}
}

// Lex returns every token of src, ending with EOF.
func Lex(path string, src []byte) []Tok {
	lx := NewLexer(path, src)
	var out []Tok
	for {
		t := lx.Next()
		out = append(out, t)
		if t.K == EOF {
			return out
		}
	}
}

func (l *Lexer) Next() Tok {
	for {
		if l.eof {
			return Tok{K: EOF, P: l.pos(), Off: len(l.src), End: len(l.src)}
		}

		if l.atEnd() {
			l.eof = true
			continue
		}
		ch := l.peek()

		if isSpace(ch) {
			l.read()
			continue
		}

		if ch == '#' {
			l.skipComment()
			continue
		}

		p := l.pos()
		l.off = l.i

		if ch == '\n' || ch == '\r' || ch == ';' {
			l.read()
			return l.emit(EOL, string(l.src[l.off:l.i]), p)
		}

		switch ch {
		case '(':
			l.read()
			return l.emit(LPAREN, "(", p)
		case ')':
			l.read()
			return l.emit(RPAREN, ")", p)
		case '[':
			l.read()
			return l.emit(LBRACK, "[", p)
		case ']':
			l.read()
			return l.emit(RBRACK, "]", p)
		case '{':
			l.read()
			return l.emit(LBRACE, "{", p)
		case '}':
			l.read()
			return l.emit(RBRACE, "}", p)
		case ',':
			l.read()
			return l.emit(COMMA, ",", p)
		case '@':
			l.read()
			return l.emit(AT, "@", p)
		case '+':
			l.read()
			return l.emit(PLUS, "+", p)
		case '-':
			l.read()
			return l.emit(MINUS, "-", p)
		case '*':
			l.read()
			return l.emit(STAR, "*", p)
		case '/':
			l.read()
			return l.emit(SLASH, "/", p)
		case '=':
			l.read()
			if l.peek() == '=' {
				l.read()
				return l.emit(EQ, "==", p)
			}
			return l.emit(ASSIGN, "=", p)
		case '!':
			l.read()
			if l.peek() == '=' {
				l.read()
				return l.emit(NE, "!=", p)
			}
			return l.emit(BANG, "!", p)
		case '<':
			l.read()
			if l.peek() == '=' {
				l.read()
				return l.emit(LE, "<=", p)
			}
			return l.emit(LT, "<", p)
		case '>':
			l.read()
			if l.peek() == '=' {
				l.read()
				return l.emit(GE, ">=", p)
			}
			return l.emit(GT, ">", p)
		case '"', '\'':
			str, ok := l.scanString()
			if !ok {
				return l.illegal(p)
			}
			return l.emit(STRING, str, p)
		}

		if isIdentStart(ch) {
			name := l.scanIdent()
			if k, ok := kw[name]; ok {
				return l.emit(k, name, p)
			}
			return l.emit(IDENT, name, p)
		}

		if isDigit(ch) {
			num := l.scanNumber()
			return l.emit(NUMBER, num, p)
		}

		l.readRune()
		return l.illegal(p)
	}
}

func (l *Lexer) pos() Pos {
	return Pos{Path: l.path, Line: l.line, Col: l.col}
}

func (l *Lexer) emit(k Kind, lit string, p Pos) Tok {
	return Tok{K: k, Lit: lit, P: p, Off: l.off, End: l.i}
}

// illegal reports the raw text consumed since the token start.
func (l *Lexer) illegal(p Pos) Tok {
	return Tok{K: ILLEGAL, Lit: string(l.src[l.off:l.i]), P: p, Off: l.off, End: l.i}
}

func (l *Lexer) atEnd() bool {
	return l.i >= len(l.src)
}

// peek returns 0 at the end of input; callers that must tell a NUL byte
// apart from the end check atEnd.
func (l *Lexer) peek() byte {
	if l.i >= len(l.src) {
		return 0
	}
	return l.src[l.i]
}

func (l *Lexer) read() byte {
	if l.i >= len(l.src) {
		return 0
	}
	b := l.src[l.i]
	l.i++
	if b == '\r' {
		if l.i < len(l.src) && l.src[l.i] == '\n' {
			l.i++
		}
		l.line++
		l.col = 1
		return '\n'
	}
	if b == '\n' {
		l.line++
		l.col = 1
		return '\n'
	}
	l.col++
	return b
}

// readRune consumes one UTF-8 sequence as a single column.
func (l *Lexer) readRune() {
	l.read()
	for l.i < len(l.src) && l.src[l.i]&0xC0 == 0x80 {
		l.i++
	}
}

func (l *Lexer) skipComment() {
	for {
		ch := l.peek()
		if l.atEnd() || ch == '\n' || ch == '\r' {
			return
		}
		l.read()
	}
}

func (l *Lexer) scanIdent() string {
	start := l.i
	l.read()
	for isIdent(l.peek()) {
		l.read()
	}
	return string(l.src[start:l.i])
}

func (l *Lexer) scanNumber() string {
	start := l.i
	l.read()
	for isDigit(l.peek()) {
		l.read()
	}
	if l.peek() == '.' {
		next := byte(0)
		if l.i+1 < len(l.src) {
			next = l.src[l.i+1]
		}
		if isDigit(next) {
			l.read()
			for isDigit(l.peek()) {
				l.read()
			}
		}
	}
	return string(l.src[start:l.i])
}

func (l *Lexer) scanString() (string, bool) {
	q := l.read()
	start := l.i
	var out []byte
	for {
		ch := l.peek()
		if l.atEnd() || ch == '\n' || ch == '\r' {
			return "", false
		}
		if ch == q {
			l.read()
			break
		}
		if ch == '\\' {
			out = append(out, l.src[start:l.i]...)
			l.read()
			esc := l.read()
			switch esc {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case '\\':
				out = append(out, '\\')
			case '\'':
				out = append(out, '\'')
			case '"':
				out = append(out, '"')
			default:
				out = append(out, esc)
			}
			start = l.i
			continue
		}
		l.read()
	}
	if out == nil {
		return string(l.src[start : l.i-1]), true
	}
	out = append(out, l.src[start:l.i-1]...)
	return string(out), true
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdent(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
