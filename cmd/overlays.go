package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"go-fretboard/fretboard"
	"go-fretboard/overlay"
	"go-fretboard/theme"
	"go-fretboard/theory"
)

// boardFlags are the display flags shared by commands that draw a board
type boardFlags struct {
	tuning    string
	start     int
	end       int
	labels    string
	intervals bool
	extend    bool
	scales    []string
	chords    []string
}

func (f *boardFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.tuning, "tuning", "", `tuning name or notes high to low, e.g. "guitar7" or "E,B,G,D,A,D"`)
	flags.IntVar(&f.start, "start", -1, "first fret shown")
	flags.IntVar(&f.end, "end", -1, "last fret shown")
	flags.StringVar(&f.labels, "labels", "", "dot labels: notes, intervals or blank")
	flags.BoolVar(&f.intervals, "interval-colors", false, "color dots by interval")
	flags.BoolVar(&f.extend, "extensions", false, "label notes an octave above the root as 9, 11, 13")
	flags.StringArrayVar(&f.scales, "scale", nil, `scale overlay "root:type[@from-to]", e.g. "A:dorian@0-3" (repeatable)`)
	flags.StringArrayVar(&f.chords, "chord", nil, `chord overlay "symbol[@from-to]", e.g. "Am7@4-7" (repeatable)`)
}

// input merges config defaults with the flags
func (f *boardFlags) input(th *theme.Theme) (overlay.Input, error) {
	in := overlay.Input{
		Tuning: fretboard.Guitar6,
		Window: cfg.Window(),
		Options: overlay.Options{
			Labels:         overlay.ParseLabelMode(cfg.ActiveLabel),
			AlternateBar:   cfg.AlternateBar,
			IntervalColors: cfg.IntervalColors || f.intervals,
			Extensions:     cfg.Extensions || f.extend,
			HideFootprint:  !cfg.Footprint,
			Colors:         th.Layers(),
		},
	}

	name := f.tuning
	if name == "" {
		name = cfg.Tuning
	}
	if name != "" {
		t, err := fretboard.ParseTuning(name)
		if err != nil {
			return in, err
		}
		in.Tuning = t
	}
	in.StringCount = in.Tuning.StringCount()

	if f.start >= 0 {
		in.Window.Start = f.start
	}
	if f.end >= 0 {
		in.Window.End = f.end
	}
	in.Window = in.Window.Clamp()

	if f.labels != "" {
		in.Options.Labels = overlay.ParseLabelMode(f.labels)
	}

	for _, s := range f.scales {
		so, err := parseScaleOverlay(s, in.Options.Labels)
		if err != nil {
			return in, err
		}
		in.Scales = append(in.Scales, so)
	}
	for _, s := range f.chords {
		co, err := parseChordOverlay(s, in.Options.Labels)
		if err != nil {
			return in, err
		}
		in.Chords = append(in.Chords, co)
	}

	// the first overlay sets the root and spelling until playback says otherwise
	switch {
	case len(in.Chords) > 0:
		sym, _ := theory.ParseChordSymbol(in.Chords[0].Symbol)
		in.Root = overlay.FromSymbol(sym, overlay.SourceBar)
		in.Options.KeyPreference = theory.DefaultConvention(sym.Root, theory.ScaleMajor)
	case len(in.Scales) > 0:
		in.Root = overlay.RootInfo{Root: in.Scales[0].Root, Source: overlay.SourceBar}
	}
	if len(in.Scales) > 0 {
		so := in.Scales[0]
		in.Options.KeyPreference = theory.DefaultConvention(so.Root, so.Type)
	}
	return in, nil
}

// splitBars cuts an "@from-to" suffix (1-based, inclusive) off s
func splitBars(s string) (string, *overlay.BarRange, error) {
	body, bars, found := strings.Cut(s, "@")
	if !found {
		return s, nil, nil
	}
	var from, to int
	if n, _ := fmt.Sscanf(bars, "%d-%d", &from, &to); n != 2 {
		if n, _ := fmt.Sscanf(bars, "%d", &from); n != 1 {
			return "", nil, fmt.Errorf("bad bar range %q", bars)
		}
		to = from
	}
	if from < 1 || to < from {
		return "", nil, fmt.Errorf("bad bar range %q", bars)
	}
	return body, &overlay.BarRange{From: from - 1, To: to - 1}, nil
}

func parseScaleOverlay(s string, labels overlay.LabelMode) (overlay.ScaleOverlay, error) {
	body, bars, err := splitBars(s)
	if err != nil {
		return overlay.ScaleOverlay{}, err
	}
	root, typ, found := strings.Cut(body, ":")
	if !found {
		root, typ, found = strings.Cut(body, " ")
	}
	root = strings.TrimSpace(root)
	if !found || !theory.IsValidNote(root) {
		return overlay.ScaleOverlay{}, fmt.Errorf("scale %q: want root:type", s)
	}
	def, ok := theory.Lookup(theory.ScaleType(strings.TrimSpace(typ)))
	if !ok {
		return overlay.ScaleOverlay{}, fmt.Errorf("scale %q: unknown type %q", s, typ)
	}
	root = theory.NormalizeName(root)
	return overlay.ScaleOverlay{
		Name:   root + " " + def.Name,
		Root:   root,
		Type:   def.Type,
		Bars:   bars,
		Labels: labels,
	}, nil
}

func parseChordOverlay(s string, labels overlay.LabelMode) (overlay.ChordOverlay, error) {
	body, bars, err := splitBars(s)
	if err != nil {
		return overlay.ChordOverlay{}, err
	}
	sym, ok := theory.ParseChordSymbol(body)
	if !ok {
		return overlay.ChordOverlay{}, fmt.Errorf("chord %q: not a chord symbol", s)
	}
	return overlay.ChordOverlay{Name: sym.Text, Symbol: sym.Text, Bars: bars, Labels: labels}, nil
}
