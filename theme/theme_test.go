package theme

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseGPL(t *testing.T) {
	src := `GIMP Palette
Name: test
Columns: 2
# comment
  0   0   0	Black
255 255 255	White
300 0 0	out of range
`
	p, err := ParseGPL(strings.NewReader(src), "test.gpl")
	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal("test", p.Name)
	assert.Len(p.Colors, 2)

	assert.Equal(RGB{0, 0, 0}, p.Lookup(-1))
	assert.Equal(RGB{255, 255, 255}, p.Lookup(2))
	assert.Equal(RGB{255, 255, 255}, p.Index(9))
	assert.Equal("#ffffff", p.Index(1).Hex())

	_, err = ParseGPL(strings.NewReader("GIMP Palette\n"), "empty.gpl")
	assert.Error(err)
}

func TestDefaultPalette(t *testing.T) {
	p := Default()
	assert.Equal(t, "fretboard", p.Name)
	assert.Len(t, p.Colors, 11)

	th := New(p)
	layers := th.Layers()
	assert.Equal(t, p.Index(8).Hex(), layers.Active)
	assert.Equal(t, p.Index(5).Hex(), layers.Scale)
}

func TestLoadOrDefault(t *testing.T) {
	p, err := LoadOrDefault("")
	assert.NoError(t, err)
	assert.Equal(t, "fretboard", p.Name)

	p, err = LoadOrDefault("/does/not/exist.gpl")
	assert.Error(t, err)
	assert.NotNil(t, p)
}

func TestIntervalColors(t *testing.T) {
	assert := assert.New(t)

	root, ok := IntervalColorFor("1")
	assert.True(ok)
	assert.Equal("#000000", root.Outline)

	nine, ok := IntervalColorFor("9")
	assert.True(ok)
	two, _ := IntervalColorFor("2")
	assert.Equal(two, nine)

	sharp11, ok := IntervalColorFor("#11")
	assert.True(ok)
	assert.Equal(TensionStrong, sharp11.Tension)

	_, ok = IntervalColorFor("x")
	assert.False(ok)
}

func TestContrastText(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("#000000", ContrastText("#ffffff"))
	assert.Equal("#000000", ContrastText("#f2c14e"))
	assert.Equal("#ffffff", ContrastText("#000000"))
	assert.Equal("#ffffff", ContrastText("#240046"))
	assert.Equal("#ffffff", ContrastText("not a color"))
}
