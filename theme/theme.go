package theme

import (
	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Fretboard grid
	String rune // ─ empty cell
	Fret   rune // │ fret wire
	Nut    rune // ‖ nut after the open strings
	Marker rune // · inlay position in the header

	// Note dots when labels are hidden
	Dot     rune // ● note
	Root    rune // ◉ root note
	Ghost   rune // ○ footprint note
	Playing rune // ▶ transport playing
	Paused  rune // ‖ transport paused
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			String: '─',
			Fret:   '│',
			Nut:    '‖',
			Marker: '·',

			Dot:     '●',
			Root:    '◉',
			Ghost:   '○',
			Playing: '▶',
			Paused:  '‖',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG       = 0.0
	RoleSurface  = 0.1
	RoleMuted    = 0.2
	RoleFretWire = 0.3
	RoleFG       = 0.4
	RoleScale    = 0.5
	RoleChord    = 0.6
	RoleAccent   = 0.7
	RoleActive   = 0.8
	RoleWarning  = 0.9
	RoleBright   = 1.0
)

// Style helpers

func (t *Theme) BG() lipgloss.Color      { return t.Color(RoleBG) }
func (t *Theme) FG() lipgloss.Color      { return t.Color(RoleFG) }
func (t *Theme) Muted() lipgloss.Color   { return t.Color(RoleMuted) }
func (t *Theme) Accent() lipgloss.Color  { return t.Color(RoleAccent) }
func (t *Theme) Active() lipgloss.Color  { return t.Color(RoleActive) }
func (t *Theme) Warning() lipgloss.Color { return t.Color(RoleWarning) }
func (t *Theme) Wire() lipgloss.Color    { return t.Color(RoleFretWire) }

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return lipgloss.Color(t.Palette.Lookup(norm).Hex())
}

// Hex returns the #rrggbb string for a role
func (t *Theme) Hex(norm float64) string {
	return t.Palette.Lookup(norm).Hex()
}

// LayerColors are the default fills for each overlay layer
type LayerColors struct {
	Footprint string `json:"footprint"`
	Scale     string `json:"scale"`
	Chord     string `json:"chord"`
	Active    string `json:"active"`
	Text      string `json:"text"`
}

// Layers derives layer fills from the palette
func (t *Theme) Layers() LayerColors {
	return LayerColors{
		Footprint: t.Hex(RoleMuted),
		Scale:     t.Hex(RoleScale),
		Chord:     t.Hex(RoleChord),
		Active:    t.Hex(RoleActive),
		Text:      t.Hex(RoleAccent),
	}
}
