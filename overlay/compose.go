package overlay

import (
	"go-fretboard/fretboard"
	"go-fretboard/theme"
	"go-fretboard/theory"
)

// namesLeftFrom is the first window start fret that moves overlay names
// to the left of the board
const namesLeftFrom = 9

var defaultColors = theme.New(theme.Default()).Layers()

// Compose layers footprint, scale, chord, active and text dots for one
// frame. It is pure: the same Input always yields the same Frame.
func Compose(in Input) Frame {
	c := newComposer(in)
	frame := Frame{Bar: in.Position.Bar, Root: in.Root}

	if !in.Options.HideFootprint {
		frame.Dots = append(frame.Dots, c.notes(in.Footprint, LayerFootprint)...)
	}

	side := SideRight
	if in.Window.Start >= namesLeftFrom {
		side = SideLeft
	}
	for _, so := range scopedScales(in.Scales, in.Position.Bar) {
		frame.Dots = append(frame.Dots, c.scale(so)...)
		frame.Names = append(frame.Names, NamePlacement{Name: so.Name, Layer: LayerScale, Side: side})
	}
	for _, co := range scopedChords(in.Chords, in.Position.Bar) {
		frame.Dots = append(frame.Dots, c.chord(co)...)
		frame.Names = append(frame.Names, NamePlacement{Name: co.Name, Layer: LayerChord, Side: side})
	}

	frame.Dots = append(frame.Dots, c.notes(in.Active, LayerActive)...)

	for _, t := range in.Texts {
		if !t.Bars.Contains(in.Position.Bar) {
			continue
		}
		frame.Dots = append(frame.Dots, c.text(t))
	}

	for i := range frame.Dots {
		c.paint(&frame.Dots[i])
	}
	return frame
}

type composer struct {
	in       Input
	strings  int
	colors   theme.LayerColors
	labels   LabelMode
	rootPC   theory.PitchClass
	hasRoot  bool
	baseRoot int
	hasBase  bool
}

func newComposer(in Input) *composer {
	c := &composer{in: in, strings: in.StringCount, colors: in.Options.Colors}
	if c.strings == 0 {
		c.strings = in.Tuning.StringCount()
	}
	if c.colors == (theme.LayerColors{}) {
		c.colors = defaultColors
	}

	c.labels = in.Options.Labels
	if in.Options.AlternateBar {
		c.labels = LabelNotes
		if in.Position.Bar%2 == 1 {
			c.labels = LabelIntervals
		}
	}

	if in.Root.Valid() && theory.IsValidNote(in.Root.Root) {
		c.rootPC = theory.NoteToPitchClass(in.Root.Root)
		c.hasRoot = true
		c.baseRoot, c.hasBase = c.lowestRoot()
	}
	return c
}

// lowestRoot finds the pitch of the root note lowest on the neck among
// the bar's footprint and active notes, ranking by string then fret.
func (c *composer) lowestRoot() (int, bool) {
	best, bestKey, found := 0, 0, false
	for _, group := range [][]Note{c.in.Footprint, c.in.Active} {
		for _, n := range group {
			pc, ok := fretboard.CellPitchClass(c.in.Tuning, n.String, n.Fret, c.strings)
			if !ok || pc != c.rootPC {
				continue
			}
			key := (n.String-1)*100 + n.Fret
			if found && key >= bestKey {
				continue
			}
			if p, ok := fretboard.AbsolutePitch(c.in.Tuning, n.String, n.Fret); ok {
				best, bestKey, found = p, key, true
			}
		}
	}
	return best, found
}

func (c *composer) notes(notes []Note, layer Layer) []Dot {
	out := make([]Dot, 0, len(notes))
	for _, n := range notes {
		pc, ok := fretboard.CellPitchClass(c.in.Tuning, n.String, n.Fret, c.strings)
		if !ok {
			continue
		}
		d := Dot{
			Layer:      layer,
			String:     n.String,
			Fret:       n.Fret,
			PitchClass: pc,
			Fingering:  n.Fingering,
			Bend:       n.Bend,
			Slide:      n.Slide,
			Legato:     n.Legato,
		}
		name := theory.PitchClassToName(pc, c.in.Options.KeyPreference)
		if c.hasRoot {
			d.Interval = theory.IntervalLabel(int(pc) - int(c.rootPC))
			d.Root = pc == c.rootPC
		}

		switch {
		case c.labels == LabelBlank:
		case c.labels == LabelIntervals && c.hasRoot:
			d.Label = c.extend(d.Interval, n)
		default:
			d.Label = name
		}
		out = append(out, d)
	}
	return out
}

// extend relabels notes an octave or more above the bar's lowest root as
// compound intervals when the option is on.
func (c *composer) extend(label string, n Note) string {
	if !c.in.Options.Extensions || !c.hasBase {
		return label
	}
	p, ok := fretboard.AbsolutePitch(c.in.Tuning, n.String, n.Fret)
	if !ok || p-c.baseRoot < 12 {
		return label
	}
	return theory.ExtensionLabel(label)
}

func (c *composer) scale(so ScaleOverlay) []Dot {
	s := theory.ResolveScaleType(so.Root, so.Type)
	if s.Empty() {
		return nil
	}
	rootPC := theory.NoteToPitchClass(s.Root)
	var out []Dot
	for _, cell := range fretboard.Cells(c.in.Tuning, c.in.Window) {
		name, ok := s.NameFor(cell.PitchClass)
		if !ok {
			continue
		}
		interval := theory.IntervalLabel(int(cell.PitchClass) - int(rootPC))
		out = append(out, Dot{
			Layer:      LayerScale,
			String:     cell.String,
			Fret:       cell.Fret,
			PitchClass: cell.PitchClass,
			Label:      pick(so.Labels, name, interval),
			Interval:   interval,
			Root:       cell.PitchClass == rootPC,
			Fill:       so.Color,
		})
	}
	return out
}

func (c *composer) chord(co ChordOverlay) []Dot {
	names, root := chordTones(co, c.in.Options.KeyPreference)
	if len(names) == 0 {
		return nil
	}
	rootPC := theory.NoteToPitchClass(root)
	var out []Dot
	for _, cell := range fretboard.Cells(c.in.Tuning, c.in.Window) {
		name, ok := names[cell.PitchClass]
		if !ok {
			continue
		}
		interval := theory.IntervalLabel(int(cell.PitchClass) - int(rootPC))
		out = append(out, Dot{
			Layer:      LayerChord,
			String:     cell.String,
			Fret:       cell.Fret,
			PitchClass: cell.PitchClass,
			Label:      pick(co.Labels, name, interval),
			Interval:   interval,
			Root:       cell.PitchClass == rootPC,
			Fill:       co.Color,
		})
	}
	return out
}

// chordTones maps each chord pitch class to its spelling. Explicit notes
// win over a symbol.
func chordTones(co ChordOverlay, conv theory.Convention) (map[theory.PitchClass]string, string) {
	names := map[theory.PitchClass]string{}
	root := co.Root
	if len(co.Notes) > 0 {
		for _, n := range co.Notes {
			if theory.IsValidNote(n) {
				names[theory.NoteToPitchClass(n)] = theory.NormalizeName(n)
			}
		}
		if root == "" {
			root = co.Notes[0]
		}
		return names, root
	}
	sym, ok := theory.ParseChordSymbol(co.Symbol)
	if !ok {
		return nil, ""
	}
	for _, pc := range sym.PitchClasses() {
		names[pc] = theory.PitchClassToName(pc, conv)
	}
	names[theory.NoteToPitchClass(sym.Root)] = sym.Root
	return names, sym.Root
}

func (c *composer) text(t TextOverlay) Dot {
	pc, _ := fretboard.CellPitchClass(c.in.Tuning, t.String, t.Fret, c.strings)
	return Dot{
		Layer:      LayerText,
		String:     t.String,
		Fret:       t.Fret,
		PitchClass: pc,
		Label:      t.Text,
		Fill:       t.Color,
	}
}

func pick(mode LabelMode, name, interval string) string {
	switch mode {
	case LabelIntervals:
		return interval
	case LabelBlank:
		return ""
	}
	return name
}

// paint fills in colors: layer default, then interval palette, then any
// matching color rule, and finally a readable text color.
func (c *composer) paint(d *Dot) {
	if d.Fill == "" {
		d.Fill = c.layerColor(d.Layer)
	}
	if c.in.Options.IntervalColors && d.Layer != LayerText && d.Interval != "" {
		if ic, ok := theme.IntervalColorFor(d.Interval); ok {
			d.Fill, d.Outline = ic.Fill, ic.Outline
		}
	}
	for _, r := range c.in.Rules {
		if r.Bars.Contains(c.in.Position.Bar) && r.Target.matches(d.Layer) && matchesNotes(r.Notes, d.PitchClass) {
			d.Fill = r.Color
		}
	}
	d.Text = theme.ContrastText(d.Fill)
}

func (c *composer) layerColor(l Layer) string {
	switch l {
	case LayerFootprint:
		return c.colors.Footprint
	case LayerScale:
		return c.colors.Scale
	case LayerChord:
		return c.colors.Chord
	case LayerActive:
		return c.colors.Active
	}
	return c.colors.Text
}

func matchesNotes(notes []string, pc theory.PitchClass) bool {
	for _, n := range notes {
		if theory.IsValidNote(n) && theory.NoteToPitchClass(n) == pc {
			return true
		}
	}
	return false
}

// scopedScales returns the bar-scoped overlays covering bar, or the global
// ones when none are scoped there.
func scopedScales(all []ScaleOverlay, bar int) []ScaleOverlay {
	var scoped, global []ScaleOverlay
	for _, o := range all {
		switch {
		case o.Bars == nil:
			global = append(global, o)
		case o.Bars.Contains(bar):
			scoped = append(scoped, o)
		}
	}
	if len(scoped) > 0 {
		return scoped
	}
	return global
}

func scopedChords(all []ChordOverlay, bar int) []ChordOverlay {
	var scoped, global []ChordOverlay
	for _, o := range all {
		switch {
		case o.Bars == nil:
			global = append(global, o)
		case o.Bars.Contains(bar):
			scoped = append(scoped, o)
		}
	}
	if len(scoped) > 0 {
		return scoped
	}
	return global
}
