package theory

import (
	"regexp"
	"strings"
)

// ChordSymbol is a parsed chord name like "F#m7b5/C"
type ChordSymbol struct {
	Text    string
	Root    string
	Quality string
	Bass    string
	// Tones are semitone offsets from the root
	Tones []int
}

// PitchClasses returns every chord tone plus the bass note
func (c ChordSymbol) PitchClasses() []PitchClass {
	root := NoteToPitchClass(c.Root)
	out := make([]PitchClass, 0, len(c.Tones)+1)
	for _, t := range c.Tones {
		out = append(out, Transpose(root, t))
	}
	if c.Bass != "" {
		out = append(out, NoteToPitchClass(c.Bass))
	}
	return out
}

var chordSymbolRe = regexp.MustCompile(`^([A-Ga-g](?:##|bb|#|b|♯|♭)?)([^/]*)(?:/([A-Ga-g](?:#|b|♯|♭)?))?$`)

// qualityAliases folds common spellings onto one canonical quality
var qualityAliases = map[string]string{
	"": "", "maj": "", "M": "", "major": "",
	"m": "m", "min": "m", "-": "m", "minor": "m",
	"dim": "dim", "°": "dim", "o": "dim",
	"aug": "aug", "+": "aug",
	"7": "7", "dom7": "7",
	"maj7": "maj7", "M7": "maj7", "Δ": "maj7", "Δ7": "maj7", "ma7": "maj7",
	"m7": "m7", "min7": "m7", "-7": "m7",
	"m7b5": "m7b5", "ø": "m7b5", "ø7": "m7b5", "-7b5": "m7b5",
	"dim7": "dim7", "°7": "dim7", "o7": "dim7",
	"mMaj7": "mMaj7", "mM7": "mMaj7", "m(maj7)": "mMaj7",
	"7#5": "7#5", "+7": "7#5", "aug7": "7#5",
	"7b5": "7b5",
	"7b9": "7b9",
	"6":   "6", "m6": "m6",
	"sus2": "sus2", "sus4": "sus4", "sus": "sus4", "7sus4": "7sus4", "7sus": "7sus4",
	"add9": "add9", "9": "9", "maj9": "maj9", "m9": "m9",
	"11": "11", "m11": "m11", "13": "13", "maj13": "maj13", "m13": "m13",
	"5": "5",
}

var qualityTones = map[string][]int{
	"":      {0, 4, 7},
	"m":     {0, 3, 7},
	"dim":   {0, 3, 6},
	"aug":   {0, 4, 8},
	"7":     {0, 4, 7, 10},
	"maj7":  {0, 4, 7, 11},
	"m7":    {0, 3, 7, 10},
	"m7b5":  {0, 3, 6, 10},
	"dim7":  {0, 3, 6, 9},
	"mMaj7": {0, 3, 7, 11},
	"7#5":   {0, 4, 8, 10},
	"7b5":   {0, 4, 6, 10},
	"7b9":   {0, 4, 7, 10, 13},
	"6":     {0, 4, 7, 9},
	"m6":    {0, 3, 7, 9},
	"sus2":  {0, 2, 7},
	"sus4":  {0, 5, 7},
	"7sus4": {0, 5, 7, 10},
	"add9":  {0, 4, 7, 14},
	"9":     {0, 4, 7, 10, 14},
	"maj9":  {0, 4, 7, 11, 14},
	"m9":    {0, 3, 7, 10, 14},
	"11":    {0, 4, 7, 10, 14, 17},
	"m11":   {0, 3, 7, 10, 14, 17},
	"13":    {0, 4, 7, 10, 14, 21},
	"maj13": {0, 4, 7, 11, 14, 21},
	"m13":   {0, 3, 7, 10, 14, 21},
	"5":     {0, 7},
}

// ParseChordSymbol reads a chord name. Text that is not a recognisable
// chord (section names, lyrics) returns ok=false.
func ParseChordSymbol(text string) (ChordSymbol, bool) {
	s := strings.TrimSpace(text)
	m := chordSymbolRe.FindStringSubmatch(s)
	if m == nil {
		return ChordSymbol{}, false
	}
	q, ok := qualityAliases[strings.TrimSpace(m[2])]
	if !ok {
		return ChordSymbol{}, false
	}
	root := NormalizeName(m[1])
	if !IsValidNote(root) {
		return ChordSymbol{}, false
	}
	c := ChordSymbol{
		Text:    s,
		Root:    root,
		Quality: q,
		Tones:   qualityTones[q],
	}
	if m[3] != "" {
		c.Bass = NormalizeName(m[3])
	}
	return c, true
}
