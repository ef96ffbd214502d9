package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-fretboard/fretboard"
	"go-fretboard/overlay"
	"go-fretboard/theme"
	"go-fretboard/theory"
)

// CellWidth is the width of one fret column, wide enough for "b13" plus
// an articulation mark
const CellWidth = 5

// inlays are the frets marked in the header
var inlays = map[int]bool{3: true, 5: true, 7: true, 9: true, 12: true, 15: true, 17: true, 19: true, 21: true, 24: true}

// Board renders composited frames as a text fretboard
type Board struct {
	Theme      *theme.Theme
	Tuning     fretboard.Tuning
	Window     fretboard.Window
	Convention theory.Convention
	// Fingering shows left-hand fingering on played notes when present
	Fingering bool
}

// Render draws the header, one row per string (highest first) and the
// overlay names on the side the frame asks for
func (b Board) Render(f overlay.Frame) string {
	th := b.Theme
	if th == nil {
		th = theme.New(theme.Default())
	}
	w := b.Window.Clamp()
	n := b.Tuning.StringCount()
	names := b.Tuning.Names(b.Convention)

	lines := []string{b.header(th, w), b.markers(th, w)}
	for row := 0; row < n; row++ {
		sn := fretboard.StringNumber(row, n)
		var line strings.Builder
		line.WriteString(lipgloss.NewStyle().Foreground(th.Muted()).Render(fmt.Sprintf("%-3s", names[row])))
		for fret := w.Start; fret <= w.End; fret++ {
			if fret == w.Start && fret > 0 {
				line.WriteString(wire(th, th.Symbols.Fret))
			}
			line.WriteString(b.cell(th, f, sn, fret))
			if fret == 0 {
				line.WriteString(wire(th, th.Symbols.Nut))
			} else {
				line.WriteString(wire(th, th.Symbols.Fret))
			}
		}
		lines = append(lines, line.String())
	}
	board := strings.Join(lines, "\n")

	left, right := b.names(th, f.Names)
	parts := []string{}
	if left != "" {
		parts = append(parts, left, " ")
	}
	parts = append(parts, board)
	if right != "" {
		parts = append(parts, " ", right)
	}
	if len(parts) == 1 {
		return board
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (b Board) header(th *theme.Theme, w fretboard.Window) string {
	var line strings.Builder
	line.WriteString("   ")
	style := lipgloss.NewStyle().Foreground(th.Muted()).Width(CellWidth).Align(lipgloss.Center)
	for fret := w.Start; fret <= w.End; fret++ {
		if fret == w.Start && fret > 0 {
			line.WriteString(" ")
		}
		line.WriteString(style.Render(fmt.Sprint(fret)))
		line.WriteString(" ")
	}
	return line.String()
}

func (b Board) markers(th *theme.Theme, w fretboard.Window) string {
	var line strings.Builder
	line.WriteString("   ")
	style := lipgloss.NewStyle().Foreground(th.Accent()).Width(CellWidth).Align(lipgloss.Center)
	for fret := w.Start; fret <= w.End; fret++ {
		if fret == w.Start && fret > 0 {
			line.WriteString(" ")
		}
		mark := ""
		switch {
		case fret == 12 || fret == 24:
			mark = strings.Repeat(string(th.Symbols.Marker), 2)
		case inlays[fret]:
			mark = string(th.Symbols.Marker)
		}
		line.WriteString(style.Render(mark))
		line.WriteString(" ")
	}
	return line.String()
}

func (b Board) cell(th *theme.Theme, f overlay.Frame, sn, fret int) string {
	d, ok := f.Top(sn, fret)
	if !ok {
		return wire(th, th.Symbols.String, CellWidth)
	}
	style := lipgloss.NewStyle().
		Width(CellWidth).
		Align(lipgloss.Center).
		Background(lipgloss.Color(d.Fill)).
		Foreground(lipgloss.Color(d.Text)).
		Bold(d.Root).
		Underline(d.Outline != "")
	return style.Render(DotText(d, b.Fingering, th.Symbols))
}

// DotText is the text drawn inside a dot: the label (or a symbol when
// labels are off) followed by an articulation mark
func DotText(d overlay.Dot, fingering bool, sym theme.Symbols) string {
	text := d.Label
	if fingering && d.Fingering != "" && (d.Layer == overlay.LayerActive || d.Layer == overlay.LayerFootprint) {
		text = d.Fingering
	}
	if text == "" {
		switch {
		case d.Layer == overlay.LayerFootprint:
			text = string(sym.Ghost)
		case d.Root:
			text = string(sym.Root)
		default:
			text = string(sym.Dot)
		}
	}
	if d.Layer == overlay.LayerText {
		return truncate(text, CellWidth)
	}
	text = truncate(text, CellWidth-1)
	return text + Articulation(d)
}

// Articulation is a one-character mark for bends, slides and legato
func Articulation(d overlay.Dot) string {
	switch {
	case d.Bend != nil && d.Bend.Release:
		return "v"
	case d.Bend != nil:
		return "^"
	case d.Slide == overlay.SlideIn:
		return "/"
	case d.Slide == overlay.SlideOut:
		return "\\"
	case d.Slide == overlay.SlideShift:
		return "~"
	case d.Legato == overlay.LegatoHammer:
		return "h"
	case d.Legato == overlay.LegatoPull:
		return "p"
	}
	return ""
}

func (b Board) names(th *theme.Theme, placements []overlay.NamePlacement) (string, string) {
	colors := th.Layers()
	var left, right []string
	for _, p := range placements {
		fill := colors.Scale
		if p.Layer == overlay.LayerChord {
			fill = colors.Chord
		}
		s := lipgloss.NewStyle().Foreground(lipgloss.Color(fill)).Render(p.Name)
		if p.Side == overlay.SideLeft {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	// two header lines sit above the first string
	pad := func(list []string) string {
		if len(list) == 0 {
			return ""
		}
		return strings.Join(append([]string{"", ""}, list...), "\n")
	}
	return pad(left), pad(right)
}

func wire(th *theme.Theme, r rune, n ...int) string {
	count := 1
	if len(n) > 0 {
		count = n[0]
	}
	return lipgloss.NewStyle().Foreground(th.Wire()).Render(strings.Repeat(string(r), count))
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
