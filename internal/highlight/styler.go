package highlight

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/unkn0wn-root/ember/internal/theme"
)

func styleFor(th theme.Theme, c Class) (lipgloss.Style, bool) {
	switch c {
	case Keyword:
		return th.Keyword, true
	case KeywordDecl:
		return th.KeywordDecl, true
	case KeywordControl:
		return th.KeywordControl, true
	case KeywordLiteral:
		return th.KeywordLiteral, true
	case Ident:
		return th.Ident, true
	case Number:
		return th.Number, true
	case String:
		return th.String, true
	case Comment:
		return th.Comment, true
	case Operator:
		return th.Operator, true
	case Punct:
		return th.Punct, true
	case Annotation:
		return th.Annotation, true
	case Illegal:
		return th.Illegal, true
	default:
		return lipgloss.Style{}, false
	}
}
