package calcdoc

// ThemeDefault is used for empty and unknown theme names.
const ThemeDefault = "default"

// Palette is the accent/background color pair of a theme.
type Palette struct {
	Accent     string
	Background string
}

var themes = map[string]Palette{
	ThemeDefault: {Accent: "#3b82f6", Background: "#eff6ff"},
	"blue":       {Accent: "#3b82f6", Background: "#eff6ff"},
	"amber":      {Accent: "#f59e0b", Background: "#fffbeb"},
	"green":      {Accent: "#22c55e", Background: "#f0fdf4"},
	"rose":       {Accent: "#f43f5e", Background: "#fff1f2"},
	"slate":      {Accent: "#64748b", Background: "#f8fafc"},
}

// ThemePalette returns the palette for name, falling back to the default theme.
func ThemePalette(name string) Palette {
	if p, ok := themes[name]; ok {
		return p
	}
	return themes[ThemeDefault]
}
