package status

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Style is the visual treatment for one status kind.
type Style struct {
	Kind  Kind           `json:"kind"`
	Label string         `json:"label"`
	Color colorful.Color `json:"-"`
	Fill  colorful.Color `json:"-"`
	Text  colorful.Color `json:"-"`
}

// Hex returns the primary color as "#rrggbb".
func (s Style) Hex() string { return s.Color.Hex() }

// FillHex returns the tinted fill color as "#rrggbb".
func (s Style) FillHex() string { return s.Fill.Hex() }

// TextHex returns the color used for text drawn on top of Color.
func (s Style) TextHex() string { return s.Text.Hex() }

// StyleJSON is the serialisable form of a Style.
type StyleJSON struct {
	Kind     Kind   `json:"kind"`
	Label    string `json:"label"`
	Severity int    `json:"severity"`
	Flagged  bool   `json:"flagged"`
	Color    string `json:"color"`
	Fill     string `json:"fill"`
	Text     string `json:"text"`
}

// JSON converts s for tool output.
func (s Style) JSON() StyleJSON {
	return StyleJSON{
		Kind:     s.Kind,
		Label:    s.Label,
		Severity: s.Kind.Severity(),
		Flagged:  s.Kind.Flagged(),
		Color:    s.Hex(),
		Fill:     s.FillHex(),
		Text:     s.TextHex(),
	}
}

var (
	white = colorful.Color{R: 1, G: 1, B: 1}
	ink   = colorful.Color{R: 0.07, G: 0.09, B: 0.15}
)

var styles = map[Kind]Style{
	Pass:      newStyle(Pass, "PASS", "#22c55e"),
	Fail:      newStyle(Fail, "FAIL", "#ef4444"),
	Warning:   newStyle(Warning, "WARNING", "#f97316"),
	Deviation: newStyle(Deviation, "DEVIATION", "#3b82f6"),
	Missing:   newStyle(Missing, "MISSING", "#a855f7"),
	NotFound:  newStyle(NotFound, "NOT FOUND", "#6b7280"),
	Pending:   newStyle(Pending, "PENDING", "#94a3b8"),
}

func newStyle(k Kind, label, hex string) Style {
	c, err := colorful.Hex(hex)
	if err != nil {
		panic(fmt.Sprintf("status: bad color literal %q for %s: %v", hex, k, err))
	}
	text := white
	if l, _, _ := c.Lab(); l > 0.75 {
		text = ink
	}
	return Style{
		Kind:  k,
		Label: label,
		Color: c,
		Fill:  c.BlendLab(white, 0.82).Clamped(),
		Text:  text,
	}
}

// StyleOf returns the style for k. Unknown kinds get the pending colors and
// their own upper-cased name as label.
func StyleOf(k Kind) Style {
	if s, ok := styles[k]; ok {
		return s
	}
	s := styles[Pending]
	s.Kind = k
	s.Label = strings.ToUpper(strings.ReplaceAll(string(k), "_", " "))
	if s.Label == "" {
		s.Label = styles[Pending].Label
	}
	return s
}

// HighlightStyle returns the palette used for highlight regions. Only fail,
// warning, deviation and missing have dedicated palettes; every other kind
// falls back to fail.
func HighlightStyle(k Kind) Style {
	switch k {
	case Fail, Warning, Deviation, Missing:
		return styles[k]
	}
	s := styles[Fail]
	s.Kind = k
	return s
}

// Styles returns every known style ordered by severity.
func Styles() []Style {
	out := make([]Style, 0, len(All))
	for _, k := range All {
		out = append(out, styles[k])
	}
	return out
}
