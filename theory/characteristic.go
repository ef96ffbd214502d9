package theory

// ChordGroup is a titled list of chord symbols that suit a scale
type ChordGroup struct {
	Title  string   `json:"title"`
	Chords []string `json:"chords"`
}

// characteristicEntry roots a suffix on the scale notes carrying the given
// interval labels. Nil labels means every note.
type characteristicEntry struct {
	title  string
	suffix string
	labels []string
}

var characteristicTables = map[ScaleType][]characteristicEntry{
	ScaleWholeTone: {
		{"Augmented triads", "+", nil},
		{"Dominant 7#5", "7#5", nil},
		{"Dominant 9#5", "9#5", nil},
		{"Dominant 7b5", "7b5", nil},
	},
	ScaleAugmented: {
		{"Major triads", "", []string{"1", "3", "b6"}},
		{"Minor triads", "m", []string{"1", "3", "b6"}},
		{"Major sevenths", "maj7", []string{"1", "3", "b6"}},
		{"Augmented triads", "+", []string{"1", "b3"}},
	},
	ScaleDimWholeHalf: {
		{"Diminished sevenths", "dim7", []string{"1", "b3", "#4", "6"}},
		{"Dominant 7b9", "7b9", []string{"b2", "3", "5", "b7"}},
	},
	ScaleDimHalfWhole: {
		{"Dominant 7b9", "7b9", []string{"1", "b3", "#4", "6"}},
		{"Dominant 13b9", "13b9", []string{"1", "b3", "#4", "6"}},
		{"Diminished sevenths", "dim7", []string{"b2", "3", "5", "b7"}},
	},
	ScaleBlues: {
		{"Dominant sevenths", "7", []string{"1", "4", "5"}},
		{"Dominant ninths", "9", []string{"1", "4", "5"}},
		{"Minor sevenths", "m7", []string{"1"}},
	},
	ScaleMajorPentatonic: {
		{"Major triads", "", []string{"1"}},
		{"Sixth chords", "6", []string{"1"}},
		{"Add nine", "add9", []string{"1"}},
		{"Sus2", "sus2", []string{"1", "2", "5"}},
		{"Power chords", "5", []string{"1", "2", "5", "6"}},
		{"Relative minor", "m7", []string{"6"}},
	},
	ScaleMinorPentatonic: {
		{"Minor sevenths", "m7", []string{"1"}},
		{"Minor elevenths", "m11", []string{"1"}},
		{"Sus4", "sus4", []string{"1", "4", "5", "b7"}},
		{"Power chords", "5", []string{"1", "4", "5", "b7"}},
		{"Relative major", "6", []string{"b3"}},
	},
	ScaleChromatic: {
		{"Any quality", "", []string{"1"}},
		{"Any quality", "m", []string{"1"}},
		{"Any quality", "7", []string{"1"}},
		{"Any quality", "maj7", []string{"1"}},
		{"Any quality", "m7", []string{"1"}},
		{"Any quality", "dim7", []string{"1"}},
		{"Any quality", "+", []string{"1"}},
	},
}

// CharacteristicChords returns curated chord groups for scales whose chords
// are not meaningfully built by stacking thirds. Diatonic scales get nil.
func CharacteristicChords(scale Scale, scaleType ScaleType) []ChordGroup {
	def, _ := Lookup(scaleType)
	entries, ok := characteristicTables[def.Type]
	if !ok || scale.Empty() {
		return nil
	}

	var groups []ChordGroup
	index := map[string]int{}
	for _, e := range entries {
		var chords []string
		for i, n := range scale.Notes {
			if e.labels == nil || containsLabel(e.labels, scale.Intervals[i]) {
				chords = append(chords, n+e.suffix)
			}
		}
		if len(chords) == 0 {
			continue
		}
		if at, seen := index[e.title]; seen {
			groups[at].Chords = append(groups[at].Chords, chords...)
			continue
		}
		index[e.title] = len(groups)
		groups = append(groups, ChordGroup{Title: e.title, Chords: chords})
	}
	return groups
}

func containsLabel(labels []string, l string) bool {
	for _, x := range labels {
		if x == l {
			return true
		}
	}
	return false
}

// chordDisplay says whether stacked-third chord tables make sense per family
var chordDisplay = map[Family]bool{
	FamilyDiatonic:     true,
	FamilyMelodicMinor: true,
	FamilyAltered:      true,
	FamilyDiminished:   false,
	FamilySymmetric:    false,
	FamilyGapped:       false,
	FamilyChromatic:    false,
}

var hiddenCategories = map[Category]bool{
	CategorySymmetric:  true,
	CategoryPentatonic: true,
	CategoryBlues:      true,
	CategoryChromatic:  true,
}

// ShouldDisplayChords is a pure rule: only seven-note, non-symmetric scales
// show diatonic chord tables.
func ShouldDisplayChords(scaleType ScaleType, length int, category Category) bool {
	if length != 7 || hiddenCategories[category] {
		return false
	}
	def, ok := Lookup(scaleType)
	if !ok {
		return true
	}
	return chordDisplay[def.Family] && !hiddenCategories[def.Category]
}
