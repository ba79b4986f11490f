package theme

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type Metadata struct {
	Name        string   `json:"name"        toml:"name"        yaml:"name"`
	Description string   `json:"description" toml:"description" yaml:"description"`
	Author      string   `json:"author"      toml:"author"      yaml:"author"`
	Version     string   `json:"version"     toml:"version"     yaml:"version"`
	Tags        []string `json:"tags"        toml:"tags"        yaml:"tags"`
}

// ThemeSpec is one theme file. Extends names the catalog key the styles are
// layered on; blank means the default theme.
type ThemeSpec struct {
	Extends  string     `json:"extends"  toml:"extends"  yaml:"extends"`
	Metadata *Metadata  `json:"metadata" toml:"metadata" yaml:"metadata"`
	Styles   StylesSpec `json:"styles"   toml:"styles"   yaml:"styles"`
}

type StylesSpec struct {
	Keyword        *StyleSpec `json:"keyword"         toml:"keyword"         yaml:"keyword"`
	KeywordDecl    *StyleSpec `json:"keyword_decl"    toml:"keyword_decl"    yaml:"keyword_decl"`
	KeywordControl *StyleSpec `json:"keyword_control" toml:"keyword_control" yaml:"keyword_control"`
	KeywordLiteral *StyleSpec `json:"keyword_literal" toml:"keyword_literal" yaml:"keyword_literal"`
	Ident          *StyleSpec `json:"ident"           toml:"ident"           yaml:"ident"`
	Number         *StyleSpec `json:"number"          toml:"number"          yaml:"number"`
	String         *StyleSpec `json:"string"          toml:"string"          yaml:"string"`
	Comment        *StyleSpec `json:"comment"         toml:"comment"         yaml:"comment"`
	Operator       *StyleSpec `json:"operator"        toml:"operator"        yaml:"operator"`
	Punct          *StyleSpec `json:"punct"           toml:"punct"           yaml:"punct"`
	Annotation     *StyleSpec `json:"annotation"      toml:"annotation"      yaml:"annotation"`
	Illegal        *StyleSpec `json:"illegal"         toml:"illegal"         yaml:"illegal"`
	Value          *StyleSpec `json:"value"           toml:"value"           yaml:"value"`
	Error          *StyleSpec `json:"error"           toml:"error"           yaml:"error"`
	Success        *StyleSpec `json:"success"         toml:"success"         yaml:"success"`
	Dim            *StyleSpec `json:"dim"             toml:"dim"             yaml:"dim"`
	Caret          *StyleSpec `json:"caret"           toml:"caret"           yaml:"caret"`
	Location       *StyleSpec `json:"location"        toml:"location"        yaml:"location"`
	Output         *StyleSpec `json:"output"          toml:"output"          yaml:"output"`
	Prompt         *StyleSpec `json:"prompt"          toml:"prompt"          yaml:"prompt"`
	Frame          *StyleSpec `json:"frame"           toml:"frame"           yaml:"frame"`
	StatusBar      *StyleSpec `json:"status_bar"      toml:"status_bar"      yaml:"status_bar"`
}

type StyleSpec struct {
	Foreground  *string `json:"foreground"   toml:"foreground"   yaml:"foreground"`
	Background  *string `json:"background"   toml:"background"   yaml:"background"`
	BorderColor *string `json:"border_color" toml:"border_color" yaml:"border_color"`
	BorderStyle *string `json:"border_style" toml:"border_style" yaml:"border_style"`
	Bold        *bool   `json:"bold"         toml:"bold"         yaml:"bold"`
	Italic      *bool   `json:"italic"       toml:"italic"       yaml:"italic"`
	Underline   *bool   `json:"underline"    toml:"underline"    yaml:"underline"`
	Faint       *bool   `json:"faint"        toml:"faint"        yaml:"faint"`
}

func ApplySpec(base Theme, spec ThemeSpec) (Theme, error) {
	out := base

	targets := []struct {
		name     string
		target   *lipgloss.Style
		override *StyleSpec
	}{
		{"keyword", &out.Keyword, spec.Styles.Keyword},
		{"keyword_decl", &out.KeywordDecl, spec.Styles.KeywordDecl},
		{"keyword_control", &out.KeywordControl, spec.Styles.KeywordControl},
		{"keyword_literal", &out.KeywordLiteral, spec.Styles.KeywordLiteral},
		{"ident", &out.Ident, spec.Styles.Ident},
		{"number", &out.Number, spec.Styles.Number},
		{"string", &out.String, spec.Styles.String},
		{"comment", &out.Comment, spec.Styles.Comment},
		{"operator", &out.Operator, spec.Styles.Operator},
		{"punct", &out.Punct, spec.Styles.Punct},
		{"annotation", &out.Annotation, spec.Styles.Annotation},
		{"illegal", &out.Illegal, spec.Styles.Illegal},
		{"value", &out.Value, spec.Styles.Value},
		{"error", &out.Error, spec.Styles.Error},
		{"success", &out.Success, spec.Styles.Success},
		{"dim", &out.Dim, spec.Styles.Dim},
		{"caret", &out.Caret, spec.Styles.Caret},
		{"location", &out.Location, spec.Styles.Location},
		{"output", &out.Output, spec.Styles.Output},
		{"prompt", &out.Prompt, spec.Styles.Prompt},
		{"frame", &out.Frame, spec.Styles.Frame},
		{"status_bar", &out.StatusBar, spec.Styles.StatusBar},
	}
	for _, t := range targets {
		if t.override == nil {
			continue
		}
		next, err := t.override.apply(*t.target)
		if err != nil {
			return Theme{}, fmt.Errorf("styles.%s: %w", t.name, err)
		}
		*t.target = next
	}
	return out, nil
}

func (s *StyleSpec) apply(base lipgloss.Style) (lipgloss.Style, error) {
	if s == nil {
		return base, nil
	}
	current := base
	if s.Foreground != nil {
		color, err := toColor("foreground", *s.Foreground)
		if err != nil {
			return lipgloss.Style{}, err
		}
		current = current.Foreground(color)
	}
	if s.Background != nil {
		color, err := toColor("background", *s.Background)
		if err != nil {
			return lipgloss.Style{}, err
		}
		current = current.Background(color)
	}
	if s.BorderColor != nil {
		color, err := toColor("border_color", *s.BorderColor)
		if err != nil {
			return lipgloss.Style{}, err
		}
		current = current.BorderForeground(color)
	}
	if s.BorderStyle != nil {
		border, err := parseBorderStyle(strings.ToLower(strings.TrimSpace(*s.BorderStyle)))
		if err != nil {
			return lipgloss.Style{}, err
		}
		current = current.BorderStyle(border)
	}
	if s.Bold != nil {
		current = current.Bold(*s.Bold)
	}
	if s.Italic != nil {
		current = current.Italic(*s.Italic)
	}
	if s.Underline != nil {
		current = current.Underline(*s.Underline)
	}
	if s.Faint != nil {
		current = current.Faint(*s.Faint)
	}
	return current, nil
}

func toColor(field string, value string) (lipgloss.Color, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("%s: colour value may not be empty", field)
	}
	return lipgloss.Color(trimmed), nil
}

func parseBorderStyle(value string) (lipgloss.Border, error) {
	switch value {
	case "":
		return lipgloss.Border{}, fmt.Errorf("border_style: value may not be empty")
	case "none", "hidden", "off":
		return lipgloss.Border{}, nil
	case "normal", "single":
		return lipgloss.NormalBorder(), nil
	case "rounded":
		return lipgloss.RoundedBorder(), nil
	case "thick", "heavy":
		return lipgloss.ThickBorder(), nil
	case "double":
		return lipgloss.DoubleBorder(), nil
	default:
		return lipgloss.Border{}, fmt.Errorf("border_style: unknown border style %q", value)
	}
}
