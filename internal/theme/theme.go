// Package theme provides a centralized styling system for prismo's terminal
// output. Every visual element references a lipgloss.Style held in a Theme
// struct so that the whole look can be swapped from the config file.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme holds lipgloss.Style values for every element prismo renders.
type Theme struct {
	Name string

	// Command output
	Title   lipgloss.Style
	Step    lipgloss.Style
	Success lipgloss.Style
	Info    lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Code    lipgloss.Style

	// Model listings
	ModelName     lipgloss.Style
	FieldName     lipgloss.Style
	FieldType     lipgloss.Style
	FieldRelation lipgloss.Style
	Attribute     lipgloss.Style

	// Schema syntax highlighting
	SchemaKeyword     lipgloss.Style
	SchemaString      lipgloss.Style
	SchemaNumber      lipgloss.Style
	SchemaComment     lipgloss.Style
	SchemaType        lipgloss.Style
	SchemaAttribute   lipgloss.Style
	SchemaPunctuation lipgloss.Style

	// Browser
	BrowserBorder   lipgloss.Style
	BrowserTitle    lipgloss.Style
	BrowserSelected lipgloss.Style
	BrowserDetail   lipgloss.Style
}

// palette lists the colours a theme is built from.
type palette struct {
	name       string
	accent     string
	text       string
	muted      string
	success    string
	warning    string
	errorColor string
	model      string
	field      string
	typ        string
	relation   string
	attribute  string
	str        string
	number     string
	comment    string
	selectedFg string
	selectedBg string
	border     string
}

func build(p palette) *Theme {
	fg := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
	return &Theme{
		Name: p.name,

		Title:   fg(p.accent).Bold(true),
		Step:    fg(p.accent),
		Success: fg(p.success),
		Info:    fg(p.text),
		Warning: fg(p.warning),
		Error:   fg(p.errorColor).Bold(true),
		Muted:   fg(p.muted),
		Code:    fg(p.str),

		ModelName:     fg(p.model).Bold(true),
		FieldName:     fg(p.field),
		FieldType:     fg(p.typ).Italic(true),
		FieldRelation: fg(p.relation),
		Attribute:     fg(p.attribute),

		SchemaKeyword:     fg(p.accent).Bold(true),
		SchemaString:      fg(p.str),
		SchemaNumber:      fg(p.number),
		SchemaComment:     fg(p.comment).Italic(true),
		SchemaType:        fg(p.typ),
		SchemaAttribute:   fg(p.attribute),
		SchemaPunctuation: fg(p.text),

		BrowserBorder: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(p.border)),
		BrowserTitle: fg(p.accent).Bold(true).PaddingLeft(1),
		BrowserSelected: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(p.selectedFg)).
			Background(lipgloss.Color(p.selectedBg)),
		BrowserDetail: fg(p.muted).PaddingLeft(1),
	}
}

// newDefaultTheme builds the Default dark theme.
func newDefaultTheme() *Theme {
	return build(palette{
		name:       "default",
		accent:     "#569CD6",
		text:       "#D4D4D4",
		muted:      "#808080",
		success:    "#6A9955",
		warning:    "#CCA700",
		errorColor: "#F44747",
		model:      "#4EC9B0",
		field:      "#9CDCFE",
		typ:        "#4EC9B0",
		relation:   "#C586C0",
		attribute:  "#DCDCAA",
		str:        "#CE9178",
		number:     "#B5CEA8",
		comment:    "#6A9955",
		selectedFg: "#FFFFFF",
		selectedBg: "#264F78",
		border:     "#3C3C3C",
	})
}

// newLightTheme builds the Light theme suitable for light terminal backgrounds.
func newLightTheme() *Theme {
	return build(palette{
		name:       "light",
		accent:     "#0451A5",
		text:       "#1E1E1E",
		muted:      "#A0A0A0",
		success:    "#16825D",
		warning:    "#BF8803",
		errorColor: "#E51400",
		model:      "#267F99",
		field:      "#001080",
		typ:        "#267F99",
		relation:   "#AF00DB",
		attribute:  "#795E26",
		str:        "#A31515",
		number:     "#098658",
		comment:    "#008000",
		selectedFg: "#FFFFFF",
		selectedBg: "#0060C0",
		border:     "#D4D4D4",
	})
}

// newMonokaiTheme builds a Monokai-inspired dark theme.
func newMonokaiTheme() *Theme {
	return build(palette{
		name:       "monokai",
		accent:     "#F92672",
		text:       "#F8F8F2",
		muted:      "#75715E",
		success:    "#A6E22E",
		warning:    "#E6DB74",
		errorColor: "#F92672",
		model:      "#A6E22E",
		field:      "#F8F8F2",
		typ:        "#66D9EF",
		relation:   "#AE81FF",
		attribute:  "#E6DB74",
		str:        "#E6DB74",
		number:     "#AE81FF",
		comment:    "#75715E",
		selectedFg: "#F8F8F2",
		selectedBg: "#49483E",
		border:     "#49483E",
	})
}

// Themes maps theme names to their Theme definitions.
var Themes = map[string]*Theme{
	"default": newDefaultTheme(),
	"light":   newLightTheme(),
	"monokai": newMonokaiTheme(),
}

// Current is the currently active theme. It is initialized to Default.
var Current = Themes["default"]

// Default returns the default dark theme.
func Default() *Theme {
	return Themes["default"]
}

// Get returns the theme identified by name. If no theme with that name exists
// it falls back to the default theme.
func Get(name string) *Theme {
	if t, ok := Themes[name]; ok {
		return t
	}
	return Default()
}

// Names returns the registered theme names in a stable order.
func Names() []string {
	return []string{"default", "light", "monokai"}
}
