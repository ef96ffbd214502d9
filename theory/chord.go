package theory

import (
	"strings"
)

// Chord is a chord built by stacking scale degrees
type Chord struct {
	Degree      int      `json:"degree"`
	Roman       string   `json:"roman"`
	Root        string   `json:"root"`
	Notes       []string `json:"notes"`
	Intervals   []string `json:"intervals"`
	Quality     string   `json:"quality"`
	Symbol      string   `json:"symbol"`
	NonStandard bool     `json:"nonStandard,omitempty"`
}

// ChordSet holds every chord family built from one scale
type ChordSet struct {
	Triads      []Chord `json:"triads"`
	Sevenths    []Chord `json:"sevenths"`
	Sixths      []Chord `json:"sixths,omitempty"`
	Sus2        []Chord `json:"sus2,omitempty"`
	Sus4        []Chord `json:"sus4,omitempty"`
	SevenSus4   []Chord `json:"sevenSus4,omitempty"`
	Ninths      []Chord `json:"ninths,omitempty"`
	Elevenths   []Chord `json:"elevenths,omitempty"`
	Thirteenths []Chord `json:"thirteenths,omitempty"`
}

type shape [3]int

var triadQualities = map[shape]string{
	{4, 7}: "",
	{3, 7}: "m",
	{3, 6}: "dim",
	{4, 8}: "aug",
}

var seventhQualities = map[shape]string{
	{4, 7, 11}: "maj7",
	{4, 7, 10}: "7",
	{3, 7, 10}: "m7",
	{3, 6, 10}: "m7b5",
	{3, 6, 9}:  "dim7",
	{3, 7, 11}: "mMaj7",
	{4, 8, 11}: "maj7#5",
	{4, 8, 10}: "7#5",
	{4, 6, 10}: "7b5",
}

var sixthQualities = map[shape]string{
	{4, 7, 9}: "6",
	{3, 7, 9}: "m6",
}

var susQualities = map[shape]string{
	{2, 7}:     "sus2",
	{5, 7}:     "sus4",
	{5, 7, 10}: "7sus4",
	{5, 7, 11}: "maj7sus4",
}

// BuildChords stacks thirds on every degree of a seven-note scale. Extended
// families (sixths, sus, 9/11/13) are only built for major-category scales.
func BuildChords(scale Scale, scaleType ScaleType, category Category) ChordSet {
	var set ChordSet
	n := len(scale.Notes)
	if n == 0 {
		return set
	}
	if category == "" {
		if def, ok := Lookup(scaleType); ok {
			category = def.Category
		}
	}

	for i := 0; i < n; i++ {
		triad := scale.stack(i, 0, 2, 4)
		set.Triads = append(set.Triads, makeChord(i, triad, triadQualities))
		seventh := scale.stack(i, 0, 2, 4, 6)
		set.Sevenths = append(set.Sevenths, makeChord(i, seventh, seventhQualities))
	}
	if category != CategoryMajor {
		return set
	}

	for i := 0; i < n; i++ {
		set.Sixths = append(set.Sixths, makeChord(i, scale.stack(i, 0, 2, 4, 5), sixthQualities))
		set.Sus2 = append(set.Sus2, makeChord(i, scale.stack(i, 0, 1, 4), susQualities))
		set.Sus4 = append(set.Sus4, makeChord(i, scale.stack(i, 0, 3, 4), susQualities))
		set.SevenSus4 = append(set.SevenSus4, makeChord(i, scale.stack(i, 0, 3, 4, 6), susQualities))

		base := set.Sevenths[i]
		set.Ninths = append(set.Ninths, extend(base, scale.stack(i, 0, 2, 4, 6, 1), 9))
		set.Elevenths = append(set.Elevenths, extend(base, scale.stack(i, 0, 2, 4, 6, 3), 11))
		set.Thirteenths = append(set.Thirteenths, extend(base, scale.stack(i, 0, 2, 4, 6, 5), 13))
	}
	return set
}

// stack picks notes at degree offsets from degree i, wrapping the scale
func (s Scale) stack(i int, steps ...int) []string {
	out := make([]string, len(steps))
	for k, st := range steps {
		out[k] = s.Notes[(i+st)%len(s.Notes)]
	}
	return out
}

func makeChord(i int, notes []string, qualities map[shape]string) Chord {
	root := notes[0]
	var sh shape
	labels := []string{"1"}
	for k, n := range notes[1:] {
		st := Semitones(root, n)
		if k < len(sh) {
			sh[k] = st
		}
		labels = append(labels, chordLabel(st))
	}

	c := Chord{
		Degree:    i + 1,
		Root:      root,
		Notes:     notes,
		Intervals: labels,
	}
	if q, ok := qualities[sh]; ok {
		c.Quality = q
	} else {
		c.NonStandard = true
		c.Quality = "(" + strings.Join(labels[1:], " ") + ")"
	}
	c.Symbol = root + c.Quality
	c.Roman = RomanNumeral(c.Degree, c.Quality)
	return c
}

// chordLabel names a chord tone; unlike scale labels the tritone is a b5
// and the augmented fifth a #5.
func chordLabel(st int) string {
	switch Mod12(st) {
	case 6:
		return "b5"
	case 8:
		return "#5"
	}
	return IntervalLabel(st)
}

var extensionNames = map[int]map[int]string{
	9:  {1: "b9", 2: "9", 3: "#9"},
	11: {4: "b11", 5: "11", 6: "#11"},
	13: {8: "b13", 9: "13", 10: "#13"},
}

// extend adds a 9th, 11th or 13th to a seventh chord. Natural extensions
// replace the 7 in the symbol (maj7 -> maj9); altered ones are appended.
func extend(base Chord, notes []string, degree int) Chord {
	st := int(Mod12(Semitones(base.Root, notes[len(notes)-1])))
	label, natural := extensionNames[degree][st], st == naturalExtension(degree)
	if label == "" {
		label = IntervalLabel(st)
	}

	c := base
	c.Notes = notes
	c.Intervals = append(append([]string(nil), base.Intervals...), label)
	switch {
	case base.NonStandard:
		c.Quality = strings.TrimSuffix(base.Quality, ")") + " " + label + ")"
		c.NonStandard = true
	case natural:
		c.Quality = strings.Replace(base.Quality, "7", label, 1)
	default:
		c.Quality = base.Quality + "(" + label + ")"
	}
	c.Symbol = c.Root + c.Quality
	return c
}

func naturalExtension(degree int) int {
	switch degree {
	case 9:
		return 2
	case 11:
		return 5
	}
	return 9
}
