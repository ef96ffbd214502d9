package fretboard

import (
	"sort"

	"go-fretboard/debug"
	"go-fretboard/theory"
)

// Strings are numbered the way scores number them: string 1 is the lowest.
// Display rows run the other way, row 0 being the highest string.

// DisplayIndex converts a string number (1 = lowest) to a display row
// (0 = highest). It returns -1 when the string does not exist.
func DisplayIndex(stringNumber, stringCount int) int {
	if stringNumber < 1 || stringNumber > stringCount {
		return -1
	}
	return stringCount - stringNumber
}

// StringNumber is the inverse of DisplayIndex
func StringNumber(displayIndex, stringCount int) int {
	return stringCount - displayIndex
}

// OpenStringPitchClass is the pitch class of a string counted from the top
func OpenStringPitchClass(t Tuning, indexFromHigh int) theory.PitchClass {
	if indexFromHigh < 0 || indexFromHigh >= len(t.Open) {
		return 0
	}
	return theory.Mod12(t.Open[indexFromHigh])
}

// AbsolutePitch is the MIDI pitch sounding at a string and fret
func AbsolutePitch(t Tuning, stringNumber, fret int) (int, bool) {
	idx := DisplayIndex(stringNumber, len(t.Open))
	if idx < 0 || fret < 0 {
		return 0, false
	}
	return t.Open[idx] + fret, true
}

// CellPitchClass maps an engine string/fret to a pitch class. stringCount
// is what the score reports, which can differ from the tuning when the
// tuning was only guessed.
func CellPitchClass(t Tuning, stringNumber, fret, stringCount int) (theory.PitchClass, bool) {
	idx := DisplayIndex(stringNumber, stringCount)
	if idx < 0 || idx >= len(t.Open) || fret < 0 {
		return 0, false
	}
	return theory.Mod12(t.Open[idx] + fret), true
}

// IsRoot reports whether the cell sounds the given root note
func IsRoot(t Tuning, stringNumber, fret int, root string) bool {
	if root == "" {
		return false
	}
	pc, ok := CellPitchClass(t, stringNumber, fret, len(t.Open))
	return ok && pc == theory.NoteToPitchClass(root)
}

// Window is the visible fret range, inclusive
type Window struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// DefaultWindow shows the open strings through the 12th fret
var DefaultWindow = Window{Start: 0, End: 12}

// Contains reports whether a fret is visible
func (w Window) Contains(fret int) bool {
	return fret >= w.Start && fret <= w.End
}

// Clamp keeps the window inside 0..MaxFret with Start <= End
func (w Window) Clamp() Window {
	if w.Start < 0 {
		w.Start = 0
	}
	if w.End > MaxFret {
		w.End = MaxFret
	}
	if w.End < w.Start {
		w.Start, w.End = w.End, w.Start
	}
	return w
}

// Cell is one string/fret position on the board
type Cell struct {
	String     int               `json:"string"`
	Fret       int               `json:"fret"`
	Pitch      int               `json:"pitch"`
	PitchClass theory.PitchClass `json:"pitchClass"`
}

// Cells enumerates every position in the window, highest string first
func Cells(t Tuning, w Window) []Cell {
	n := len(t.Open)
	out := make([]Cell, 0, n*(w.End-w.Start+1))
	for idx := 0; idx < n; idx++ {
		for fret := w.Start; fret <= w.End; fret++ {
			p := t.Open[idx] + fret
			out = append(out, Cell{
				String:     StringNumber(idx, n),
				Fret:       fret,
				Pitch:      p,
				PitchClass: theory.Mod12(p),
			})
		}
	}
	return out
}

// Position is a fretted note
type Position struct {
	String int `json:"string"`
	Fret   int `json:"fret"`
}

// Assign places each MIDI pitch on its own string, preferring the lowest
// fret and then the lowest string. Pitches that fit on no free string are
// returned separately.
func Assign(t Tuning, pitches []int) (map[int]Position, []int) {
	sorted := append([]int(nil), pitches...)
	sort.Ints(sorted)

	claimed := map[int]bool{}
	out := make(map[int]Position, len(sorted))
	var dropped []int
	n := len(t.Open)

	for i, pitch := range sorted {
		if i > 0 && pitch == sorted[i-1] {
			continue
		}
		var options []Position
		for s := 1; s <= n; s++ {
			fret := pitch - t.Open[DisplayIndex(s, n)]
			if fret >= 0 && fret <= MaxFret && !claimed[s] {
				options = append(options, Position{String: s, Fret: fret})
			}
		}
		if len(options) == 0 {
			debug.Log("fretboard", "pitch %d unassignable (no free string in range)", pitch)
			dropped = append(dropped, pitch)
			continue
		}
		sort.Slice(options, func(i, j int) bool {
			if options[i].Fret != options[j].Fret {
				return options[i].Fret < options[j].Fret
			}
			return options[i].String < options[j].String
		})
		best := options[0]
		claimed[best.String] = true
		out[pitch] = best
	}
	return out, dropped
}
