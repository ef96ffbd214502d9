package overlay

import (
	"go-fretboard/fretboard"
	"go-fretboard/theme"
	"go-fretboard/theory"
)

// LabelMode chooses what text a dot carries
type LabelMode int

const (
	LabelNotes LabelMode = iota
	LabelIntervals
	LabelBlank
)

var labelModeNames = []string{"notes", "intervals", "blank"}

func (m LabelMode) String() string {
	if m < 0 || int(m) >= len(labelModeNames) {
		return "notes"
	}
	return labelModeNames[m]
}

// ParseLabelMode maps "notes", "intervals" or "blank" to a LabelMode
func ParseLabelMode(s string) LabelMode {
	for i, n := range labelModeNames {
		if n == s {
			return LabelMode(i)
		}
	}
	return LabelNotes
}

// Next cycles notes -> intervals -> blank
func (m LabelMode) Next() LabelMode {
	return (m + 1) % LabelMode(len(labelModeNames))
}

// Layer orders dots bottom to top
type Layer int

const (
	LayerFootprint Layer = iota
	LayerScale
	LayerChord
	LayerActive
	LayerText
)

// Target selects which layers a color rule recolors
type Target string

const (
	TargetActive  Target = "active"
	TargetOverlay Target = "overlay"
	TargetBoth    Target = "both"
)

func (t Target) matches(l Layer) bool {
	switch t {
	case TargetActive:
		return l == LayerActive || l == LayerFootprint
	case TargetOverlay:
		return l == LayerScale || l == LayerChord
	case TargetBoth:
		return l != LayerText
	}
	return false
}

// BarRange is an inclusive range of 0-based bar indices
type BarRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Contains treats a nil range as covering every bar
func (r *BarRange) Contains(bar int) bool {
	return r == nil || (bar >= r.From && bar <= r.To)
}

// ScaleOverlay highlights every cell of a scale
type ScaleOverlay struct {
	Name   string           `json:"name"`
	Root   string           `json:"root"`
	Type   theory.ScaleType `json:"type"`
	Bars   *BarRange        `json:"bars,omitempty"`
	Labels LabelMode        `json:"labels"`
	Color  string           `json:"color,omitempty"`
}

// ChordOverlay highlights chord tones, given as note names or a symbol
type ChordOverlay struct {
	Name   string    `json:"name"`
	Symbol string    `json:"symbol,omitempty"`
	Notes  []string  `json:"notes,omitempty"`
	Root   string    `json:"root,omitempty"`
	Bars   *BarRange `json:"bars,omitempty"`
	Labels LabelMode `json:"labels"`
	Color  string    `json:"color,omitempty"`
}

// TextOverlay pins free text to one cell
type TextOverlay struct {
	Bars   *BarRange `json:"bars,omitempty"`
	String int       `json:"string"`
	Fret   int       `json:"fret"`
	Text   string    `json:"text"`
	Color  string    `json:"color,omitempty"`
}

// ColorRule recolors matching notes within a bar range
type ColorRule struct {
	Bars   *BarRange `json:"bars,omitempty"`
	Notes  []string  `json:"notes"`
	Color  string    `json:"color"`
	Target Target    `json:"target"`
}

// Slide is the slide articulation on a note
type Slide int

const (
	SlideNone Slide = iota
	SlideIn
	SlideOut
	SlideShift
)

// Legato marks hammer-ons and pull-offs
type Legato int

const (
	LegatoNone Legato = iota
	LegatoHammer
	LegatoPull
)

// Bend describes a bent note
type Bend struct {
	Semitones float64 `json:"semitones"`
	Prebend   bool    `json:"prebend,omitempty"`
	Release   bool    `json:"release,omitempty"`
}

// Note is a fretted note from playback or live input
type Note struct {
	String    int    `json:"string"`
	Fret      int    `json:"fret"`
	Fingering string `json:"fingering,omitempty"`
	Bend      *Bend  `json:"bend,omitempty"`
	Slide     Slide  `json:"slide,omitempty"`
	Legato    Legato `json:"legato,omitempty"`
}

// Position is the playback cursor
type Position struct {
	Bar  int   `json:"bar"`
	Beat int   `json:"beat"`
	Tick int64 `json:"tick"`
}

// Options are the user display preferences
type Options struct {
	Labels         LabelMode
	AlternateBar   bool
	IntervalColors bool
	Extensions     bool
	// HideFootprint stops drawing the bar's footprint; it still anchors
	// extension labels
	HideFootprint bool
	KeyPreference theory.Convention
	Colors        theme.LayerColors
}

// Input is everything Compose needs for one frame
type Input struct {
	Tuning      fretboard.Tuning
	StringCount int
	Window      fretboard.Window
	Position    Position
	Root        RootInfo
	Active      []Note
	Footprint   []Note
	Scales      []ScaleOverlay
	Chords      []ChordOverlay
	Texts       []TextOverlay
	Rules       []ColorRule
	Options     Options
}

// Dot is one rendered note marker
type Dot struct {
	Layer      Layer             `json:"layer"`
	String     int               `json:"string"`
	Fret       int               `json:"fret"`
	PitchClass theory.PitchClass `json:"pitchClass"`
	Label      string            `json:"label"`
	Interval   string            `json:"interval,omitempty"`
	Root       bool              `json:"root,omitempty"`
	Fill       string            `json:"fill"`
	Outline    string            `json:"outline,omitempty"`
	Text       string            `json:"text"`
	Fingering  string            `json:"fingering,omitempty"`
	Bend       *Bend             `json:"bend,omitempty"`
	Slide      Slide             `json:"slide,omitempty"`
	Legato     Legato            `json:"legato,omitempty"`
}

// Side is where an overlay name is drawn relative to the board
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// NamePlacement positions an overlay's name
type NamePlacement struct {
	Name  string `json:"name"`
	Layer Layer  `json:"layer"`
	Side  Side   `json:"side"`
}

// Frame is the composited result, dots in z-order bottom first
type Frame struct {
	Bar   int             `json:"bar"`
	Root  RootInfo        `json:"root"`
	Dots  []Dot           `json:"dots"`
	Names []NamePlacement `json:"names,omitempty"`
}

// Top returns the highest dot at a cell
func (f Frame) Top(stringNumber, fret int) (Dot, bool) {
	for i := len(f.Dots) - 1; i >= 0; i-- {
		d := f.Dots[i]
		if d.String == stringNumber && d.Fret == fret {
			return d, true
		}
	}
	return Dot{}, false
}

// Layer returns the dots belonging to one layer
func (f Frame) Layer(l Layer) []Dot {
	var out []Dot
	for _, d := range f.Dots {
		if d.Layer == l {
			out = append(out, d)
		}
	}
	return out
}
