package theory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCMajorSharp(t *testing.T) {
	s := ResolveScale("C", majorSteps, ScaleMajor, Sharp, CategoryMajor)

	assert := assert.New(t)
	assert.Equal([]string{"C", "D", "E", "F", "G", "A", "B"}, s.Notes)
	assert.Equal([]string{"1", "2", "3", "4", "5", "6", "7"}, s.Intervals)
}

func TestResolveScaleSpellings(t *testing.T) {
	tests := []struct {
		name  string
		root  string
		scale ScaleType
		want  []string
	}{
		{"F major uses Bb", "F", ScaleMajor, []string{"F", "G", "A", "Bb", "C", "D", "E"}},
		{"G# major keeps letters with F##", "G#", ScaleMajor, []string{"G#", "A#", "B#", "C#", "D#", "E#", "F##"}},
		{"C melodic minor", "C", ScaleMelodicMinor, []string{"C", "D", "Eb", "F", "G", "A", "B"}},
		{"F# melodic minor", "F#", ScaleMelodicMinor, []string{"F#", "G#", "A", "B", "C#", "D#", "E#"}},
		{"C altered", "C", ScaleAltered, []string{"C", "Db", "Eb", "E", "Gb", "Ab", "Bb"}},
		{"F# altered shares the third letter", "F#", ScaleAltered, []string{"F#", "G", "A", "A#", "C", "D", "E"}},
		{"A minor pentatonic", "A", ScaleMinorPentatonic, []string{"A", "C", "D", "E", "G"}},
		{"C blues", "C", ScaleBlues, []string{"C", "Eb", "F", "F#", "G", "Bb"}},
		{"C whole tone", "C", ScaleWholeTone, []string{"C", "D", "E", "F#", "G#", "A#"}},
		{"C augmented flips a colliding letter", "C", ScaleAugmented, []string{"C", "D#", "E", "G", "Ab", "B"}},
		{"C diminished whole-half", "C", ScaleDimWholeHalf, []string{"C", "Db", "Eb", "Fb", "Gb", "G", "A", "Bb"}},
		{"C diminished half-whole rotates", "C", ScaleDimHalfWhole, []string{"Db", "Eb", "Fb", "Gb", "G", "A", "Bb", "C"}},
		{"Eb diminished rotates its family", "Eb", ScaleDimWholeHalf, []string{"Eb", "Fb", "Gb", "G", "A", "Bb", "C", "Db"}},
		{"F# diminished redirects to Gb", "F#", ScaleDimWholeHalf, []string{"Gb", "G", "A", "Bb", "C", "Db", "Eb", "Fb"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ResolveScaleType(tt.root, tt.scale)
			assert.Equal(t, tt.want, s.Notes)
		})
	}
}

func TestMelodicMinorConvention(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(Sharp, ResolveConvention("F#", ScaleMelodicMinor, Flat))
	assert.Equal(Flat, ResolveConvention("C", ScaleMelodicMinor, Sharp))
	assert.Equal(DoubleSharp, ResolveConvention("C", ScaleMelodicMinor, DoubleSharp))
	assert.Equal(Sharp, ResolveConvention("C", ScaleMajor, Sharp))

	s := ResolveScale("F#", melodicMinorSteps, ScaleMelodicMinor, Flat, CategoryMelodicMinor)
	assert.Equal(Sharp, s.Convention)
}

func TestDiatonicLettersNeverRepeat(t *testing.T) {
	roots := []string{"C", "C#", "Db", "D", "Eb", "E", "F", "F#", "Gb", "G", "Ab", "A", "Bb", "B"}
	for _, d := range Catalog() {
		// the altered scale writes #9 and 3 on one letter
		if len(d.Steps) != 7 || d.Family == FamilyAltered {
			continue
		}
		for _, root := range roots {
			s := ResolveScaleType(root, d.Type)
			seen := map[int]bool{}
			for _, n := range s.Notes {
				l := Letter(n)
				assert.False(t, seen[l], "%s %s repeats a letter: %v", root, d.Type, s.Notes)
				seen[l] = true
			}
		}
	}
}

func TestScalePitchClassesMatchFormula(t *testing.T) {
	for _, d := range Catalog() {
		if d.Family == FamilyDiminished {
			continue
		}
		s := ResolveScaleType("D", d.Type)
		assert.Len(t, s.Notes, len(d.Steps), d.Type)
		for i, off := range d.Intervals() {
			assert.Equal(t, Transpose(2, off), NoteToPitchClass(s.Notes[i]), "%s degree %d", d.Type, i+1)
		}
	}
}

func TestMalformedInputYieldsEmptyScale(t *testing.T) {
	assert := assert.New(t)
	assert.True(ResolveScale("C", nil, ScaleMajor, Sharp, "").Empty())
	assert.True(ResolveScale("C", []int{2, 0, 2}, ScaleMajor, Sharp, "").Empty())
	assert.True(ResolveScale("H", majorSteps, ScaleMajor, Sharp, "").Empty())
	assert.True(ResolveScaleType("C", "no-such-scale").Empty())
}

func TestDefaultConvention(t *testing.T) {
	tests := []struct {
		root  string
		scale ScaleType
		want  Convention
	}{
		{"C", ScaleMajor, Sharp},
		{"F", ScaleMajor, Flat},
		{"Bb", ScaleMajor, Flat},
		{"F#", ScaleMajor, Sharp},
		{"C", ScaleMinor, Flat},
		{"A", ScaleMinor, Sharp},
		{"D", ScaleDorian, Sharp},
		{"E", ScalePhrygian, Sharp},
		{"G", ScaleMixolydian, Sharp},
		{"F", ScaleLocrian, Flat},
		{"G", ScaleMelodicMinor, Flat},
	}
	for _, tt := range tests {
		t.Run(tt.root+" "+string(tt.scale), func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultConvention(tt.root, tt.scale))
		})
	}
}

func TestCatalog(t *testing.T) {
	assert := assert.New(t)
	assert.Equal([]int{2, 1, 2, 2, 2, 1, 2}, Rotate(majorSteps, 1))
	assert.Equal([]int{1, 2, 2, 1, 2, 2, 2}, Rotate(majorSteps, -1))

	d, ok := Lookup("Aeolian")
	assert.True(ok)
	assert.Equal(ScaleMinor, d.Type)
	assert.Equal(9, d.Offset)

	modes := ModesOf(CategoryMajor)
	assert.Len(modes, 7)
	assert.Equal(ScaleMajor, modes[0].Type)
	assert.Equal(ScaleLocrian, modes[6].Type)

	for _, d := range Catalog() {
		sum := 0
		for _, s := range d.Steps {
			sum += s
		}
		assert.Equal(12, sum, d.Type)
	}
}
