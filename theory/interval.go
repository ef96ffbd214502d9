package theory

import (
	"strconv"
	"strings"
)

// intervalLabels is indexed by semitone distance from the root. Labels
// depend only on distance, never on how the note is spelled.
var intervalLabels = [12]string{"1", "b2", "2", "b3", "3", "4", "#4", "5", "b6", "6", "b7", "7"}

// IntervalLabel names a semitone distance (any integer, folded mod 12)
func IntervalLabel(semitones int) string {
	return intervalLabels[Mod12(semitones)]
}

// Semitones is the upward distance from one note to another, 0..11
func Semitones(from, to string) int {
	return int(Transpose(NoteToPitchClass(to), -int(NoteToPitchClass(from))))
}

// IntervalsFor labels each note relative to root
func IntervalsFor(notes []string, root string) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = IntervalLabel(Semitones(root, n))
	}
	return out
}

// labelDegree returns the numeric degree of a label such as "b3" or "#11"
func labelDegree(label string) int {
	n, err := strconv.Atoi(strings.TrimLeft(label, "#b"))
	if err != nil {
		return 1
	}
	return n
}

// SplitLabel separates a label's accidental prefix from its degree
func SplitLabel(label string) (string, int) {
	digits := strings.TrimLeft(label, "#b")
	return label[:len(label)-len(digits)], labelDegree(label)
}

// extensionDegrees maps simple degrees to their compound names above the octave
var extensionDegrees = map[int]int{1: 8, 2: 9, 4: 11, 6: 13}

// ExtensionLabel rewrites a simple interval label as its compound form
// (2 to 9, 4 to 11, 6 to 13, 1 to 8), keeping accidentals. Other labels
// pass through unchanged.
func ExtensionLabel(label string) string {
	prefix, deg := SplitLabel(label)
	if ext, ok := extensionDegrees[deg]; ok {
		return prefix + strconv.Itoa(ext)
	}
	return label
}

var romanDegrees = [7]string{"I", "II", "III", "IV", "V", "VI", "VII"}

// RomanNumeral renders a 1-based degree with case and symbol for the quality
func RomanNumeral(degree int, quality string) string {
	if degree < 1 || degree > 7 {
		return "?"
	}
	r := romanDegrees[degree-1]
	switch quality {
	case "m", "m7", "m6", "mMaj7", "m9", "m11", "m13":
		return strings.ToLower(r)
	case "dim", "dim7":
		return strings.ToLower(r) + "°"
	case "m7b5":
		return strings.ToLower(r) + "ø"
	case "aug", "maj7#5", "7#5":
		return r + "+"
	}
	return r
}
