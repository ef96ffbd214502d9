package fretboard

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go-fretboard/debug"
	"go-fretboard/theory"
)

// Tuning lists open-string MIDI pitches from the highest string to the lowest
type Tuning struct {
	Name string `json:"name"`
	Open []int  `json:"open"`
}

// StringCount is the number of strings in the tuning
func (t Tuning) StringCount() int { return len(t.Open) }

// Names spells each open string, highest first
func (t Tuning) Names(conv theory.Convention) []string {
	out := make([]string, len(t.Open))
	for i, p := range t.Open {
		out[i] = theory.PitchClassToName(theory.Mod12(p), conv)
	}
	return out
}

func (t Tuning) String() string {
	return fmt.Sprintf("%s (%s)", t.Name, strings.Join(t.Names(theory.Sharp), " "))
}

// Standard tunings, high string first
var (
	Guitar6 = Tuning{Name: "guitar6", Open: []int{64, 59, 55, 50, 45, 40}}
	Guitar7 = Tuning{Name: "guitar7", Open: []int{64, 59, 55, 50, 45, 40, 35}}
	Guitar8 = Tuning{Name: "guitar8", Open: []int{64, 59, 55, 50, 45, 40, 35, 30}}
	Bass4   = Tuning{Name: "bass4", Open: []int{43, 38, 33, 28}}
	Bass5   = Tuning{Name: "bass5", Open: []int{43, 38, 33, 28, 23}}
	Bass6   = Tuning{Name: "bass6", Open: []int{48, 43, 38, 33, 28, 23}}
)

var standardTunings = map[string]Tuning{
	Guitar6.Name: Guitar6,
	Guitar7.Name: Guitar7,
	Guitar8.Name: Guitar8,
	Bass4.Name:   Bass4,
	Bass5.Name:   Bass5,
	Bass6.Name:   Bass6,
}

// LookupTuning finds a named standard tuning ("guitar6", "bass4", ...)
func LookupTuning(name string) (Tuning, bool) {
	t, ok := standardTunings[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// ParseTuning accepts a standard tuning name or a comma-separated list of
// note names, highest string first ("E,B,G,D,A,E").
func ParseTuning(s string) (Tuning, error) {
	if t, ok := LookupTuning(s); ok {
		return t, nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	if len(parts) < MinStrings || len(parts) > MaxStrings {
		return Tuning{}, fmt.Errorf("tuning %q: need %d-%d strings, got %d", s, MinStrings, MaxStrings, len(parts))
	}
	for _, p := range parts {
		if !theory.IsValidNote(p) {
			return Tuning{}, fmt.Errorf("tuning %q: unknown note %q", s, p)
		}
	}
	return TuningFromNames(parts), nil
}

// TuningFromNames assigns octaves so each string sits above the next lower
// one. The lowest string lands nearest the lowest string of the standard
// tuning with the same count (E1 for four strings, B0 for five, E2 for six).
func TuningFromNames(names []string) Tuning {
	open := make([]int, len(names))
	prev := -1
	for i := len(names) - 1; i >= 0; i-- {
		pc := int(theory.NoteToPitchClass(names[i]))
		var p int
		if prev < 0 {
			p = nearestPitch(lowestOpen(len(names)), pc)
		} else {
			p = prev + 1 + int(theory.Mod12(pc-prev-1))
		}
		open[i] = p
		prev = p
	}
	return Tuning{Name: "custom", Open: open}
}

// lowestOpen is the lowest open pitch of the standard tuning with n strings
func lowestOpen(n int) int {
	var t Tuning
	switch {
	case n <= 4:
		t = Bass4
	case n == 5:
		t = Bass5
	case n == 6:
		t = Guitar6
	case n == 7:
		t = Guitar7
	default:
		t = Guitar8
	}
	return t.Open[len(t.Open)-1]
}

// nearestPitch is the pitch with class pc closest to ref, ties going down
func nearestPitch(ref, pc int) int {
	return ref + int(theory.Mod12(pc-ref+6)) - 6
}

const (
	MinStrings = 4
	MaxStrings = 8
	MaxFret    = 24
)

// TuningSource records where a derived tuning came from
type TuningSource string

const (
	SourceExplicit TuningSource = "explicit"
	SourceName     TuningSource = "track-name"
	SourceDefault  TuningSource = "default"
)

// TuningInfo is a derived tuning plus its provenance
type TuningInfo struct {
	Tuning Tuning       `json:"tuning"`
	Source TuningSource `json:"source"`
}

var stringCountRe = regexp.MustCompile(`\b(\d+)[\s-]*(?:string|str\b)`)

// DeriveTuning prefers explicit per-string pitches and otherwise reads
// hints like "7 string" or "bass" from the track name.
func DeriveTuning(trackName string, explicit []int) TuningInfo {
	if validExplicit(explicit) {
		t := Tuning{Name: "track", Open: append([]int(nil), explicit...)}
		if std := matchStandard(explicit); std != "" {
			t.Name = std
		}
		return TuningInfo{Tuning: t, Source: SourceExplicit}
	}
	if len(explicit) > 0 {
		debug.Log("fretboard", "ignoring invalid explicit tuning %v", explicit)
	}

	name := strings.ToLower(trackName)
	bass := strings.Contains(name, "bass")
	count := 0
	if m := stringCountRe.FindStringSubmatch(name); m != nil {
		count, _ = strconv.Atoi(m[1])
	}

	var t Tuning
	switch {
	case bass && count >= 4 && count <= 6:
		t = standardTunings["bass"+strconv.Itoa(count)]
	case bass:
		t = Bass4
	case count >= 6 && count <= 8:
		t = standardTunings["guitar"+strconv.Itoa(count)]
	case count == 4 || count == 5:
		t = standardTunings["bass"+strconv.Itoa(count)]
	default:
		return TuningInfo{Tuning: Guitar6, Source: SourceDefault}
	}
	return TuningInfo{Tuning: t, Source: SourceName}
}

func validExplicit(open []int) bool {
	if len(open) < MinStrings || len(open) > MaxStrings {
		return false
	}
	for _, p := range open {
		if p < 0 || p > 127 {
			return false
		}
	}
	return true
}

func matchStandard(open []int) string {
	for name, t := range standardTunings {
		if equalInts(t.Open, open) {
			return name
		}
	}
	return ""
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TuningLock pins the tuning for a track so later hints cannot change it
// mid-song. Selecting a different track derives again.
type TuningLock struct {
	track  string
	info   TuningInfo
	locked bool
}

// Resolve returns the locked tuning for trackKey, deriving it on first use
func (l *TuningLock) Resolve(trackKey, trackName string, explicit []int) TuningInfo {
	if l.locked && l.track == trackKey {
		return l.info
	}
	l.track = trackKey
	l.info = DeriveTuning(trackName, explicit)
	l.locked = true
	debug.Log("fretboard", "tuning locked for %q: %s via %s", trackKey, l.info.Tuning, l.info.Source)
	return l.info
}

// Reset forgets the locked tuning
func (l *TuningLock) Reset() {
	*l = TuningLock{}
}
