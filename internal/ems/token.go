package ems

type Kind int

const (
	EOF Kind = iota
	ILLEGAL
	EOL

	IDENT
	NUMBER
	STRING

	KW_VAR
	KW_CONST
	KW_LOCAL
	KW_RETURN
	KW_IF
	KW_ELSEIF
	KW_ELSE
	KW_WHILE
	KW_FOR
	KW_IN
	KW_FUNC
	KW_TRUE
	KW_FALSE
	KW_NONE

	ASSIGN
	EQ
	NE
	LT
	LE
	GT
	GE
	PLUS
	MINUS
	STAR
	SLASH
	BANG

	LPAREN
	RPAREN
	LBRACK
	RBRACK
	LBRACE
	RBRACE
	COMMA
	AT
)

type KeywordClass int

const (
	KeywordNone KeywordClass = iota
	KeywordDecl
	KeywordControl
	KeywordLiteral
)

// Tok is a lexical token. Off and End are byte offsets of the raw text.
type Tok struct {
	K   Kind
	Lit string
	P   Pos
	Off int
	End int
}

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case ILLEGAL:
		return "ILLEGAL"
	case EOL:
		return "EOL"
	case IDENT:
		return "IDENT"
	case NUMBER:
		return "NUMBER"
	case STRING:
		return "STRING"
	case KW_VAR:
		return "var"
	case KW_CONST:
		return "const"
	case KW_LOCAL:
		return "local"
	case KW_RETURN:
		return "return"
	case KW_IF:
		return "if"
	case KW_ELSEIF:
		return "elseif"
	case KW_ELSE:
		return "else"
	case KW_WHILE:
		return "while"
	case KW_FOR:
		return "for"
	case KW_IN:
		return "in"
	case KW_FUNC:
		return "func"
	case KW_TRUE:
		return "true"
	case KW_FALSE:
		return "false"
	case KW_NONE:
		return "none"
	case ASSIGN:
		return "="
	case EQ:
		return "=="
	case NE:
		return "!="
	case LT:
		return "<"
	case LE:
		return "<="
	case GT:
		return ">"
	case GE:
		return ">="
	case PLUS:
		return "+"
	case MINUS:
		return "-"
	case STAR:
		return "*"
	case SLASH:
		return "/"
	case BANG:
		return "!"
	case LPAREN:
		return "("
	case RPAREN:
		return ")"
	case LBRACK:
		return "["
	case RBRACK:
		return "]"
	case LBRACE:
		return "{"
	case RBRACE:
		return "}"
	case COMMA:
		return ","
	case AT:
		return "@"
	default:
		return "?"
	}
}

var kw = map[string]Kind{
	"var":    KW_VAR,
	"const":  KW_CONST,
	"local":  KW_LOCAL,
	"return": KW_RETURN,
	"if":     KW_IF,
	"elseif": KW_ELSEIF,
	"else":   KW_ELSE,
	"while":  KW_WHILE,
	"for":    KW_FOR,
	"in":     KW_IN,
	"func":   KW_FUNC,
	"true":   KW_TRUE,
	"false":  KW_FALSE,
	"none":   KW_NONE,
}

// IsKeyword reports whether name is an ember keyword.
func IsKeyword(name string) bool {
	_, ok := kw[name]
	return ok
}

// KeywordClassOf returns the keyword class for name, or KeywordNone.
func KeywordClassOf(name string) KeywordClass {
	k, ok := kw[name]
	if !ok {
		return KeywordNone
	}
	return keywordClassForKind(k)
}

func keywordClassForKind(k Kind) KeywordClass {
	switch k {
	case KW_VAR, KW_CONST, KW_LOCAL, KW_FUNC:
		return KeywordDecl
	case KW_TRUE, KW_FALSE, KW_NONE:
		return KeywordLiteral
	default:
		return KeywordControl
	}
}
