package theme

import "github.com/charmbracelet/lipgloss"

// Theme holds every style used to render sources, results and the REPL.
type Theme struct {
	Keyword        lipgloss.Style
	KeywordDecl    lipgloss.Style
	KeywordControl lipgloss.Style
	KeywordLiteral lipgloss.Style
	Ident          lipgloss.Style
	Number         lipgloss.Style
	String         lipgloss.Style
	Comment        lipgloss.Style
	Operator       lipgloss.Style
	Punct          lipgloss.Style
	Annotation     lipgloss.Style
	Illegal        lipgloss.Style

	Value    lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Dim      lipgloss.Style
	Caret    lipgloss.Style
	Location lipgloss.Style
	Output   lipgloss.Style

	Prompt    lipgloss.Style
	Frame     lipgloss.Style
	StatusBar lipgloss.Style
}

func DefaultTheme() Theme {
	accent := lipgloss.Color("#7D56F4")
	base := lipgloss.NewStyle().Foreground(lipgloss.Color("#dcd7ff"))

	return Theme{
		Keyword:        lipgloss.NewStyle().Foreground(lipgloss.Color("#56A9DD")).Bold(true),
		KeywordDecl:    lipgloss.NewStyle().Foreground(lipgloss.Color("#C792EA")).Bold(true),
		KeywordControl: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8B39")).Bold(true),
		KeywordLiteral: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD46A")),
		Ident:          base,
		Number:         lipgloss.NewStyle().Foreground(lipgloss.Color("#F78C6C")),
		String:         lipgloss.NewStyle().Foreground(lipgloss.Color("#C3E88D")),
		Comment:        lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6A86")).Italic(true),
		Operator:       lipgloss.NewStyle().Foreground(lipgloss.Color("#89DDFF")),
		Punct:          lipgloss.NewStyle().Foreground(lipgloss.Color("#A6A1BB")),
		Annotation:     lipgloss.NewStyle().Foreground(lipgloss.Color("#5FB3B3")),
		Illegal: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1A1020")).
			Background(lipgloss.Color("#FF6E6E")),

		Value:    lipgloss.NewStyle().Foreground(lipgloss.Color("#E6E1FF")).Bold(true),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6E6E")),
		Success:  lipgloss.NewStyle().Foreground(lipgloss.Color("#6EF17E")),
		Dim:      lipgloss.NewStyle().Foreground(lipgloss.Color("#5E5A72")),
		Caret:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6E6E")).Bold(true),
		Location: lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA")),
		Output:   lipgloss.NewStyle().Foreground(lipgloss.Color("#D1CFF6")),

		Prompt: lipgloss.NewStyle().Foreground(accent).Bold(true),
		Frame: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#403B59")).
			Padding(0, 1),
		StatusBar: lipgloss.NewStyle().Foreground(lipgloss.Color("#A6A1BB")),
	}
}

// Plain returns a theme without colours, for non-terminal output.
func Plain() Theme {
	s := lipgloss.NewStyle()
	return Theme{
		Keyword:        s,
		KeywordDecl:    s,
		KeywordControl: s,
		KeywordLiteral: s,
		Ident:          s,
		Number:         s,
		String:         s,
		Comment:        s,
		Operator:       s,
		Punct:          s,
		Annotation:     s,
		Illegal:        s,
		Value:          s,
		Error:          s,
		Success:        s,
		Dim:            s,
		Caret:          s,
		Location:       s,
		Output:         s,
		Prompt:         s,
		Frame:          s,
		StatusBar:      s,
	}
}
