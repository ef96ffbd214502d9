package theory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoteToPitchClass(t *testing.T) {
	tests := map[string]PitchClass{
		"C":   0,
		"c":   0,
		"C#":  1,
		"Db":  1,
		"C♯":  1,
		"B♭":  10,
		"bb":  10,
		"B#":  0,
		"Cb":  11,
		"E#":  5,
		"Fb":  4,
		"Fx":  7,
		"F##": 7,
		"Dbb": 0,
		"E4":  4,
		"H":   0,
		"":    0,
	}
	for name, want := range tests {
		assert.Equal(t, want, NoteToPitchClass(name), name)
	}
}

func TestPitchClassRoundTrip(t *testing.T) {
	for _, conv := range []Convention{Sharp, Flat, MixedMinor, DoubleSharp, DoubleFlat} {
		for pc := PitchClass(0); pc < 12; pc++ {
			name := PitchClassToName(pc, conv)
			assert.Equal(t, pc, NoteToPitchClass(name), "%d as %s", pc, conv)
		}
	}
}

func TestPitchClassToName(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("A#", PitchClassToName(10, Sharp))
	assert.Equal("Bb", PitchClassToName(10, Flat))
	assert.Equal("Bb", PitchClassToName(10, MixedMinor))
	assert.Equal("C#", PitchClassToName(13, Sharp))
	assert.Equal("B", PitchClassToName(-1, Flat))
}

func TestEnharmonicEquivalents(t *testing.T) {
	assert := assert.New(t)
	assert.True(AreEnharmonicEquivalents("C#", "Db"))
	assert.True(AreEnharmonicEquivalents("B#", "C"))
	assert.True(AreEnharmonicEquivalents("Fb", "E"))
	assert.True(AreEnharmonicEquivalents("Cbb", "Bb"))
	assert.False(AreEnharmonicEquivalents("C", "C#"))
}

func TestTranspose(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(PitchClass(2), Transpose(11, 3))
	assert.Equal(PitchClass(9), Transpose(0, -3))
	assert.Equal(PitchClass(0), Transpose(0, 24))
}

func TestParseConvention(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(Flat, ParseConvention("Flat"))
	assert.Equal(MixedMinor, ParseConvention("mixed-minor"))
	assert.Equal(Sharp, ParseConvention("nonsense"))
	assert.Equal("double-flat", DoubleFlat.String())
}

func TestKeyNames(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("Eb", KeyName(-3, false))
	assert.Equal("D", KeyName(2, false))
	assert.Equal("Am", KeyName(0, true))
	assert.Equal("Dm", KeyName(-1, true))
	assert.Equal("Cb", KeyName(-7, false))

	assert.Equal(Flat, KeyPreference(-2))
	assert.Equal(Sharp, KeyPreference(0))

	assert.Equal(Flat, PreferenceFromKeyName("Bb major"))
	assert.Equal(Sharp, PreferenceFromKeyName("F#m"))
	assert.Equal(Flat, PreferenceFromKeyName("D minor"))
	assert.Equal(Sharp, PreferenceFromKeyName("G"))
	assert.Equal(Sharp, PreferenceFromKeyName(""))

	root, minor, ok := ParseKeyName("c minor")
	assert.True(ok)
	assert.True(minor)
	assert.Equal("C", root)
}
