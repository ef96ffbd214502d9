package theory

import (
	"go-fretboard/debug"
)

// Scale is an ordered, spelled set of notes built from a root and formula
type Scale struct {
	Root       string
	Type       ScaleType
	Category   Category
	Convention Convention
	Notes      []string
	Intervals  []string
}

// Empty reports whether the scale could not be resolved
func (s Scale) Empty() bool { return len(s.Notes) == 0 }

// PitchClasses returns the pitch class of every note in order
func (s Scale) PitchClasses() []PitchClass {
	out := make([]PitchClass, len(s.Notes))
	for i, n := range s.Notes {
		out[i] = NoteToPitchClass(n)
	}
	return out
}

// Contains reports whether the pitch class belongs to the scale
func (s Scale) Contains(pc PitchClass) bool {
	_, ok := s.NameFor(pc)
	return ok
}

// NameFor returns the scale's own spelling of a pitch class
func (s Scale) NameFor(pc PitchClass) (string, bool) {
	pc = Transpose(pc, 0)
	for _, n := range s.Notes {
		if NoteToPitchClass(n) == pc {
			return n, true
		}
	}
	return "", false
}

type spellRequest struct {
	root       string
	rootPC     PitchClass
	rootLetter int
	offsets    []int
	def        ScaleDef
	conv       Convention
}

func (r spellRequest) target(i int) PitchClass {
	return Transpose(r.rootPC, r.offsets[i])
}

type speller func(spellRequest) []string

// spellers dispatches on scale family
var spellers = map[Family]speller{
	FamilyDiatonic:     spellDiatonic,
	FamilyMelodicMinor: spellDiatonic,
	FamilyAltered:      spellAltered,
	FamilyDiminished:   spellDiminished,
	FamilySymmetric:    spellSymmetric,
	FamilyGapped:       spellGapped,
	FamilyChromatic:    spellChromatic,
}

// ResolveScale spells root plus formula (semitone steps) into named notes.
// Malformed input yields an empty Scale rather than an error.
func ResolveScale(root string, formula []int, scaleType ScaleType, conv Convention, category Category) Scale {
	out := Scale{Root: root, Type: scaleType, Category: category, Convention: conv}
	if !validFormula(formula) {
		debug.Log("theory", "malformed formula %v for %s %s", formula, root, scaleType)
		return out
	}
	if !IsValidNote(root) {
		debug.Log("theory", "unknown root %q for %s", root, scaleType)
		return out
	}

	def, known := Lookup(scaleType)
	if category == "" {
		out.Category = def.Category
	}
	def.Family = familyFor(def, known, len(formula))
	conv = ResolveConvention(root, scaleType, conv)
	out.Convention = conv

	root = NormalizeName(root)
	out.Root = root
	req := spellRequest{
		root:       root,
		rootPC:     NoteToPitchClass(root),
		rootLetter: Letter(root),
		offsets:    offsets(formula),
		def:        def,
		conv:       conv,
	}
	out.Notes = spellers[def.Family](req)
	out.Intervals = IntervalsFor(out.Notes, root)
	return out
}

// ResolveScaleType looks up the catalog formula and spells it with the
// scale's default convention.
func ResolveScaleType(root string, scaleType ScaleType) Scale {
	def, ok := Lookup(scaleType)
	if !ok {
		debug.Log("theory", "unknown scale type %q", scaleType)
		return Scale{Root: root, Type: scaleType}
	}
	return ResolveScale(root, def.Steps, def.Type, DefaultConvention(root, def.Type), def.Category)
}

func validFormula(formula []int) bool {
	if len(formula) == 0 || len(formula) > 12 {
		return false
	}
	for _, s := range formula {
		if s <= 0 {
			return false
		}
	}
	return true
}

func familyFor(def ScaleDef, known bool, n int) Family {
	if known {
		if def.Family == FamilyDiminished && n != 8 {
			return FamilyDiatonic
		}
		return def.Family
	}
	switch {
	case n == 12:
		return FamilyChromatic
	case n == 7:
		return FamilyDiatonic
	default:
		return FamilyGapped
	}
}

// ResolveConvention applies family overrides to a requested convention.
// The melodic minor family spells with flats except from F#; explicit
// double conventions are always honoured.
func ResolveConvention(root string, scaleType ScaleType, requested Convention) Convention {
	def, ok := Lookup(scaleType)
	if !ok || def.Family != FamilyMelodicMinor {
		return requested
	}
	if requested == DoubleSharp || requested == DoubleFlat {
		return requested
	}
	if NormalizeName(root) == "F#" {
		return Sharp
	}
	return Flat
}

// flatMajorKeys are parent major keys written with flats (F Bb Eb Ab Db Gb)
var flatMajorKeys = map[PitchClass]bool{5: true, 10: true, 3: true, 8: true, 1: true, 6: true}

// DefaultConvention picks sharps or flats for a root and scale type. An
// accidental on the root decides; otherwise the parent major key does.
func DefaultConvention(root string, scaleType ScaleType) Convention {
	def, ok := Lookup(scaleType)
	if ok && def.Family == FamilyMelodicMinor {
		return ResolveConvention(root, scaleType, Flat)
	}
	switch alt := Alteration(root); {
	case alt > 0:
		return Sharp
	case alt < 0:
		return Flat
	}
	parent := Transpose(NoteToPitchClass(root), -def.Offset)
	if flatMajorKeys[parent] {
		return Flat
	}
	return Sharp
}

func spellDiatonic(req spellRequest) []string {
	primary := make([]int, len(req.offsets))
	for i := range primary {
		primary[i] = req.rootLetter + i
	}
	return spellByLetters(req, primary)
}

// spellGapped takes each note's letter from its interval degree, so a
// minor pentatonic skips letters the way it is written on paper.
func spellGapped(req spellRequest) []string {
	primary := make([]int, len(req.offsets))
	for i, off := range req.offsets {
		primary[i] = req.rootLetter + labelDegree(IntervalLabel(off)) - 1
	}
	return spellByLetters(req, primary)
}

// spellByLetters spells each note on its expected letter, using the
// convention to break ties and never reusing a letter another note needs.
func spellByLetters(req spellRequest, primary []int) []string {
	notes := make([]string, len(req.offsets))
	used := map[int]bool{}
	notes[0] = req.root
	used[mod7(req.rootLetter)] = true

	for i := 1; i < len(req.offsets); i++ {
		reserved := map[int]bool{}
		for _, l := range primary[i+1:] {
			reserved[mod7(l)] = true
		}
		cands := letterCandidates(primary[i], req.target(i), req.conv)
		notes[i] = pickCandidate(cands, mod7(primary[i]), used, reserved)
		used[Letter(notes[i])] = true
	}
	return notes
}

func pickCandidate(cands []string, primary int, used, reserved map[int]bool) string {
	for _, c := range cands {
		l := Letter(c)
		if !used[l] && !reserved[l] {
			return c
		}
	}
	for _, c := range cands {
		if Letter(c) == primary {
			return c
		}
	}
	return cands[0]
}

// letterCandidates lists spellings of target in preference order when the
// expected letter is letter. A one-semitone mismatch is resolved by the
// convention; wider mismatches fall back to the chromatic tables unless a
// double convention was requested.
func letterCandidates(letter int, target PitchClass, conv Convention) []string {
	name, diff := spellOnLetter(letter, target)
	chromatic := PitchClassToName(target, conv)
	other := PitchClassToName(target, conv.Opposite())

	var cands []string
	switch diff {
	case 0:
		return []string{name}
	case 1, -1:
		neighbour, _ := spellOnLetter(letter+diff, target)
		if (diff == 1) != conv.PrefersFlat() {
			cands = []string{name, neighbour}
		} else {
			cands = []string{neighbour, name}
		}
	case 2, -2:
		if (diff == 2 && conv == DoubleSharp) || (diff == -2 && conv == DoubleFlat) {
			cands = []string{name, chromatic, other}
		} else {
			cands = []string{chromatic, other, name}
		}
	default:
		cands = []string{chromatic, other}
	}
	return dedupe(cands)
}

// spellSymmetric uses the chromatic tables, flipping a note to the other
// side when its letter is already taken.
func spellSymmetric(req spellRequest) []string {
	notes := make([]string, len(req.offsets))
	used := map[int]bool{}
	notes[0] = req.root
	used[req.rootLetter] = true
	for i := 1; i < len(req.offsets); i++ {
		name := PitchClassToName(req.target(i), req.conv)
		if used[Letter(name)] {
			if alt := PitchClassToName(req.target(i), req.conv.Opposite()); !used[Letter(alt)] {
				name = alt
			}
		}
		notes[i] = name
		used[Letter(name)] = true
	}
	return notes
}

func spellChromatic(req spellRequest) []string {
	notes := make([]string, len(req.offsets))
	notes[0] = req.root
	for i := 1; i < len(req.offsets); i++ {
		notes[i] = PitchClassToName(req.target(i), req.conv)
	}
	return notes
}

// spellAltered keeps the #9 and major third on the same letter (Eb E from
// C) and writes the remaining altered tones as flats.
func spellAltered(req spellRequest) []string {
	notes := make([]string, len(req.offsets))
	notes[0] = req.root
	third := req.rootLetter + 2
	for i := 1; i < len(req.offsets); i++ {
		t := req.target(i)
		switch IntervalLabel(req.offsets[i]) {
		case "b3", "3":
			name, diff := spellOnLetter(third, t)
			if diff < -2 || diff > 2 {
				name = PitchClassToName(t, Flat)
			}
			notes[i] = name
		default:
			notes[i] = PitchClassToName(t, Flat)
		}
	}
	return notes
}

// Diminished spellings follow three interlocking families. Roots a whole
// step apart in the same family share letters, rotated by two places.
var diminishedFamilies = [3][]string{
	{"C", "Db", "Eb", "Fb", "Gb", "G", "A", "Bb"},
	{"Db", "D", "E", "F", "G", "Ab", "Bb", "B"},
	{"D", "Eb", "F", "Gb", "Ab", "A", "B", "C"},
}

var diminishedTable = buildDiminishedTable()

func buildDiminishedTable() map[string][]string {
	table := map[string][]string{}
	for _, fam := range diminishedFamilies {
		for r := 0; r < len(fam); r += 2 {
			table[fam[r]] = rotateNames(fam, r)
		}
	}
	return table
}

// diminishedRedirects maps roots to the table entry that spells them
var diminishedRedirects = map[string]string{"F#": "Gb"}

// dimLetterDegrees places eight notes over seven letters, sharing the fifth
var dimLetterDegrees = [8]int{0, 1, 2, 3, 4, 4, 5, 6}

func spellDiminished(req spellRequest) []string {
	key := req.root
	if r, ok := diminishedRedirects[key]; ok {
		key = r
	}
	if entry, ok := diminishedTable[key]; ok {
		if req.def.Type == ScaleDimHalfWhole {
			return rotateNames(entry, 1)
		}
		return append([]string(nil), entry...)
	}

	notes := make([]string, len(req.offsets))
	notes[0] = req.root
	for i := 1; i < len(req.offsets); i++ {
		t := req.target(i)
		name, diff := spellOnLetter(req.rootLetter+dimLetterDegrees[i%8], t)
		if diff < -2 || diff > 2 {
			name = PitchClassToName(t, req.conv)
		}
		notes[i] = name
	}
	return notes
}

func rotateNames(names []string, n int) []string {
	n = ((n % len(names)) + len(names)) % len(names)
	out := make([]string, 0, len(names))
	out = append(out, names[n:]...)
	return append(out, names[:n]...)
}

func dedupe(in []string) []string {
	seen := map[string]bool{}
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func mod7(n int) int { return ((n % 7) + 7) % 7 }
