package theory

import (
	"sort"
	"strings"
)

// ScaleType names a scale formula in the catalog
type ScaleType string

const (
	ScaleMajor           ScaleType = "major"
	ScaleDorian          ScaleType = "dorian"
	ScalePhrygian        ScaleType = "phrygian"
	ScaleLydian          ScaleType = "lydian"
	ScaleMixolydian      ScaleType = "mixolydian"
	ScaleMinor           ScaleType = "minor"
	ScaleLocrian         ScaleType = "locrian"
	ScaleMelodicMinor    ScaleType = "melodic-minor"
	ScaleDorianFlat2     ScaleType = "dorian-b2"
	ScaleLydianAugmented ScaleType = "lydian-augmented"
	ScaleLydianDominant  ScaleType = "lydian-dominant"
	ScaleMixolydianFlat6 ScaleType = "mixolydian-b6"
	ScaleLocrianNatural2 ScaleType = "locrian-natural-2"
	ScaleAltered         ScaleType = "altered"
	ScaleHarmonicMinor   ScaleType = "harmonic-minor"
	ScaleLocrianNatural6 ScaleType = "locrian-natural-6"
	ScaleIonianAugmented ScaleType = "ionian-augmented"
	ScaleDorianSharp4    ScaleType = "dorian-sharp-4"
	ScalePhrygianDom     ScaleType = "phrygian-dominant"
	ScaleLydianSharp2    ScaleType = "lydian-sharp-2"
	ScaleSuperLocrianBb7 ScaleType = "super-locrian-bb7"
	ScaleHungarianMinor  ScaleType = "hungarian-minor"
	ScaleDoubleHarmonic  ScaleType = "double-harmonic"
	ScaleMajorPentatonic ScaleType = "major-pentatonic"
	ScaleMinorPentatonic ScaleType = "minor-pentatonic"
	ScaleBlues           ScaleType = "blues"
	ScaleHirajoshi       ScaleType = "hirajoshi"
	ScaleInSen           ScaleType = "in-sen"
	ScaleWholeTone       ScaleType = "whole-tone"
	ScaleAugmented       ScaleType = "augmented"
	ScaleDimWholeHalf    ScaleType = "diminished-whole-half"
	ScaleDimHalfWhole    ScaleType = "diminished-half-whole"
	ScaleChromatic       ScaleType = "chromatic"
)

// Family picks the spelling strategy for a scale
type Family int

const (
	FamilyDiatonic Family = iota
	FamilyMelodicMinor
	FamilyAltered
	FamilyDiminished
	FamilySymmetric
	FamilyGapped
	FamilyChromatic
)

// Category groups scales for chord display and mode lookups
type Category string

const (
	CategoryMajor         Category = "major"
	CategoryMelodicMinor  Category = "melodic-minor"
	CategoryHarmonicMinor Category = "harmonic-minor"
	CategoryPentatonic    Category = "pentatonic"
	CategoryBlues         Category = "blues"
	CategorySymmetric     Category = "symmetric"
	CategoryChromatic     Category = "chromatic"
	CategoryExotic        Category = "exotic"
)

// ScaleDef is a catalog entry. Steps are semitone steps between
// consecutive degrees and sum to 12.
type ScaleDef struct {
	Type     ScaleType
	Name     string
	Steps    []int
	Family   Family
	Category Category
	// Mode is the 1-based mode number within Category, 0 when not a mode
	Mode int
	// Offset is the semitone distance from the parent scale root
	Offset int
}

// Intervals returns the semitone offset of each degree from the root
func (d ScaleDef) Intervals() []int {
	return offsets(d.Steps)
}

// offsets turns a step formula into one semitone offset per degree.
// The final step only closes the octave.
func offsets(steps []int) []int {
	out := make([]int, 0, len(steps))
	acc := 0
	for _, s := range steps {
		out = append(out, acc)
		acc += s
	}
	return out
}

var (
	majorSteps         = []int{2, 2, 1, 2, 2, 2, 1}
	melodicMinorSteps  = []int{2, 1, 2, 2, 2, 2, 1}
	harmonicMinorSteps = []int{2, 1, 2, 2, 1, 3, 1}
)

var catalog = map[ScaleType]ScaleDef{}

func init() {
	modeSet(CategoryMajor, FamilyDiatonic, majorSteps, []ScaleType{
		ScaleMajor, ScaleDorian, ScalePhrygian, ScaleLydian, ScaleMixolydian, ScaleMinor, ScaleLocrian,
	}, []string{"Major (Ionian)", "Dorian", "Phrygian", "Lydian", "Mixolydian", "Natural Minor (Aeolian)", "Locrian"})

	modeSet(CategoryMelodicMinor, FamilyMelodicMinor, melodicMinorSteps, []ScaleType{
		ScaleMelodicMinor, ScaleDorianFlat2, ScaleLydianAugmented, ScaleLydianDominant,
		ScaleMixolydianFlat6, ScaleLocrianNatural2, ScaleAltered,
	}, []string{"Melodic Minor", "Dorian b2", "Lydian Augmented", "Lydian Dominant", "Mixolydian b6", "Locrian #2", "Altered"})

	modeSet(CategoryHarmonicMinor, FamilyDiatonic, harmonicMinorSteps, []ScaleType{
		ScaleHarmonicMinor, ScaleLocrianNatural6, ScaleIonianAugmented, ScaleDorianSharp4,
		ScalePhrygianDom, ScaleLydianSharp2, ScaleSuperLocrianBb7,
	}, []string{"Harmonic Minor", "Locrian #6", "Ionian #5", "Dorian #4", "Phrygian Dominant", "Lydian #2", "Super Locrian bb7"})

	// the altered scale has its own speller
	alt := catalog[ScaleAltered]
	alt.Family = FamilyAltered
	catalog[ScaleAltered] = alt

	for _, d := range []ScaleDef{
		{Type: ScaleHungarianMinor, Name: "Hungarian Minor", Steps: []int{2, 1, 3, 1, 1, 3, 1}, Family: FamilyDiatonic, Category: CategoryExotic},
		{Type: ScaleDoubleHarmonic, Name: "Double Harmonic", Steps: []int{1, 3, 1, 2, 1, 3, 1}, Family: FamilyDiatonic, Category: CategoryExotic},
		{Type: ScaleMajorPentatonic, Name: "Major Pentatonic", Steps: []int{2, 2, 3, 2, 3}, Family: FamilyGapped, Category: CategoryPentatonic, Mode: 1},
		{Type: ScaleMinorPentatonic, Name: "Minor Pentatonic", Steps: []int{3, 2, 2, 3, 2}, Family: FamilyGapped, Category: CategoryPentatonic, Mode: 5, Offset: 9},
		{Type: ScaleBlues, Name: "Blues", Steps: []int{3, 2, 1, 1, 3, 2}, Family: FamilyGapped, Category: CategoryBlues, Offset: 9},
		{Type: ScaleHirajoshi, Name: "Hirajoshi", Steps: []int{2, 1, 4, 1, 4}, Family: FamilyGapped, Category: CategoryExotic},
		{Type: ScaleInSen, Name: "In Sen", Steps: []int{1, 4, 2, 3, 2}, Family: FamilyGapped, Category: CategoryExotic},
		{Type: ScaleWholeTone, Name: "Whole Tone", Steps: []int{2, 2, 2, 2, 2, 2}, Family: FamilySymmetric, Category: CategorySymmetric},
		{Type: ScaleAugmented, Name: "Augmented", Steps: []int{3, 1, 3, 1, 3, 1}, Family: FamilySymmetric, Category: CategorySymmetric},
		{Type: ScaleDimWholeHalf, Name: "Diminished (Whole-Half)", Steps: []int{2, 1, 2, 1, 2, 1, 2, 1}, Family: FamilyDiminished, Category: CategorySymmetric},
		{Type: ScaleDimHalfWhole, Name: "Diminished (Half-Whole)", Steps: []int{1, 2, 1, 2, 1, 2, 1, 2}, Family: FamilyDiminished, Category: CategorySymmetric},
		{Type: ScaleChromatic, Name: "Chromatic", Steps: []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}, Family: FamilyChromatic, Category: CategoryChromatic},
	} {
		catalog[d.Type] = d
	}
}

func modeSet(cat Category, fam Family, steps []int, types []ScaleType, names []string) {
	offset := 0
	for i, t := range types {
		catalog[t] = ScaleDef{
			Type:     t,
			Name:     names[i],
			Steps:    Rotate(steps, i),
			Family:   fam,
			Category: cat,
			Mode:     i + 1,
			Offset:   offset,
		}
		offset += steps[i]
	}
}

// Rotate returns the step formula starting n degrees later
func Rotate(steps []int, n int) []int {
	if len(steps) == 0 {
		return nil
	}
	n = ((n % len(steps)) + len(steps)) % len(steps)
	out := make([]int, 0, len(steps))
	out = append(out, steps[n:]...)
	return append(out, steps[:n]...)
}

// Lookup finds a scale definition by type, accepting a few common aliases
func Lookup(t ScaleType) (ScaleDef, bool) {
	key := ScaleType(strings.ToLower(strings.TrimSpace(string(t))))
	if alias, ok := scaleAliases[key]; ok {
		key = alias
	}
	d, ok := catalog[key]
	return d, ok
}

var scaleAliases = map[ScaleType]ScaleType{
	"ionian":           ScaleMajor,
	"aeolian":          ScaleMinor,
	"natural-minor":    ScaleMinor,
	"super-locrian":    ScaleAltered,
	"pentatonic":       ScaleMajorPentatonic,
	"half-whole":       ScaleDimHalfWhole,
	"whole-half":       ScaleDimWholeHalf,
	"diminished":       ScaleDimWholeHalf,
	"jazz-minor":       ScaleMelodicMinor,
	"lydian-b7":        ScaleLydianDominant,
	"spanish-phrygian": ScalePhrygianDom,
}

// Catalog lists every known scale sorted by category then mode
func Catalog() []ScaleDef {
	out := make([]ScaleDef, 0, len(catalog))
	for _, d := range catalog {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		if out[i].Mode != out[j].Mode {
			return out[i].Mode < out[j].Mode
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// ModesOf returns the modes sharing a category, in mode order
func ModesOf(cat Category) []ScaleDef {
	var out []ScaleDef
	for _, d := range Catalog() {
		if d.Category == cat && d.Mode > 0 {
			out = append(out, d)
		}
	}
	return out
}
