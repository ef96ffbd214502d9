package theory

import (
	"strings"

	"go-fretboard/debug"
)

// PitchClass is one of the 12 equal-tempered positions in an octave (0 = C).
type PitchClass int

// Convention decides how a pitch class with several valid names gets spelled
type Convention int

const (
	Sharp Convention = iota
	Flat
	MixedMinor
	DoubleSharp
	DoubleFlat
)

var conventionNames = []string{"sharp", "flat", "mixed-minor", "double-sharp", "double-flat"}

func (c Convention) String() string {
	if c < 0 || int(c) >= len(conventionNames) {
		return "sharp"
	}
	return conventionNames[c]
}

// ParseConvention maps a name back to a Convention, defaulting to Sharp
func ParseConvention(s string) Convention {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range conventionNames {
		if name == s {
			return Convention(i)
		}
	}
	return Sharp
}

// PrefersFlat reports whether ties break toward flats
func (c Convention) PrefersFlat() bool {
	return c == Flat || c == MixedMinor || c == DoubleFlat
}

// Opposite flips between the sharp and flat sides of a convention
func (c Convention) Opposite() Convention {
	if c.PrefersFlat() {
		return Sharp
	}
	return Flat
}

var (
	sharpNames       = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	flatNames        = [12]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}
	doubleSharpNames = map[string]PitchClass{
		"C##": 2, "D##": 4, "E##": 6, "F##": 7, "G##": 9, "A##": 11, "B##": 1,
	}
	doubleFlatNames = map[string]PitchClass{
		"Cbb": 10, "Dbb": 0, "Ebb": 2, "Fbb": 3, "Gbb": 5, "Abb": 7, "Bbb": 9,
	}
	enharmonicNaturals = map[string]PitchClass{
		"B#": 0, "Cb": 11, "E#": 5, "Fb": 4,
	}
)

// letters in chromatic order and their natural pitch classes
var (
	letters       = [7]byte{'C', 'D', 'E', 'F', 'G', 'A', 'B'}
	naturalPitch  = [7]PitchClass{0, 2, 4, 5, 7, 9, 11}
	pitchClassMap = buildPitchClassMap()
)

func buildPitchClassMap() map[string]PitchClass {
	m := make(map[string]PitchClass, 48)
	for pc := 0; pc < 12; pc++ {
		m[sharpNames[pc]] = PitchClass(pc)
		m[flatNames[pc]] = PitchClass(pc)
	}
	for name, pc := range doubleSharpNames {
		m[name] = pc
	}
	for name, pc := range doubleFlatNames {
		m[name] = pc
	}
	for name, pc := range enharmonicNaturals {
		m[name] = pc
	}
	return m
}

// NormalizeName canonicalises accidentals (♯ ♭ x 𝄪 𝄫) and strips any octave suffix.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	r := strings.NewReplacer("♯", "#", "♭", "b", "𝄪", "##", "𝄫", "bb")
	name = r.Replace(name)
	name = strings.ToUpper(name[:1]) + name[1:]
	if len(name) > 1 && name[1] == 'x' {
		name = name[:1] + "##" + name[2:]
	}
	return strings.TrimRight(name, "-0123456789")
}

// Transpose adds semitones to a pitch class, always mod 12
func Transpose(pc PitchClass, semitones int) PitchClass {
	return PitchClass(((int(pc)+semitones)%12 + 12) % 12)
}

// Mod12 folds any integer into a pitch class
func Mod12(n int) PitchClass {
	return Transpose(0, n)
}

// IsValidNote reports whether name is a recognised note spelling
func IsValidNote(name string) bool {
	_, ok := pitchClassMap[NormalizeName(name)]
	return ok
}

// NoteToPitchClass looks a note name up across all spelling tables.
// Unknown names map to C (0); callers validate upstream with IsValidNote.
func NoteToPitchClass(name string) PitchClass {
	if pc, ok := pitchClassMap[NormalizeName(name)]; ok {
		return pc
	}
	debug.Log("theory", "unknown note name %q, defaulting to C", name)
	return 0
}

// PitchClassToName spells a pitch class from the sharp or flat table.
// MixedMinor prefers flats but falls back to the sharp name for double flats.
func PitchClassToName(pc PitchClass, conv Convention) string {
	pc = Transpose(pc, 0)
	switch conv {
	case Flat, DoubleFlat:
		return flatNames[pc]
	case MixedMinor:
		name := flatNames[pc]
		if accidentalCount(name) >= 2 {
			return sharpNames[pc]
		}
		return name
	default:
		return sharpNames[pc]
	}
}

// AreEnharmonicEquivalents is true when both names sound the same pitch class
func AreEnharmonicEquivalents(a, b string) bool {
	return NoteToPitchClass(a) == NoteToPitchClass(b)
}

// Letter returns the letter index (0 = C ... 6 = B) of a note name, or -1
func Letter(name string) int {
	name = NormalizeName(name)
	if name == "" {
		return -1
	}
	for i, l := range letters {
		if name[0] == l {
			return i
		}
	}
	return -1
}

// Alteration returns the accidental offset of a spelled note (-2..2)
func Alteration(name string) int {
	name = NormalizeName(name)
	if len(name) < 2 {
		return 0
	}
	alt := 0
	for _, c := range name[1:] {
		switch c {
		case '#':
			alt++
		case 'b':
			alt--
		}
	}
	return alt
}

func accidentalCount(name string) int {
	a := Alteration(name)
	if a < 0 {
		return -a
	}
	return a
}

func accidentalString(alt int) string {
	switch {
	case alt > 0:
		return strings.Repeat("#", alt)
	case alt < 0:
		return strings.Repeat("b", -alt)
	}
	return ""
}

// spellOnLetter names target using the given letter, returning the
// alteration needed in the range -6..5.
func spellOnLetter(letter int, target PitchClass) (string, int) {
	letter = ((letter % 7) + 7) % 7
	diff := int(Transpose(target, -int(naturalPitch[letter])))
	if diff > 5 {
		diff -= 12
	}
	return string(letters[letter]) + accidentalString(diff), diff
}
