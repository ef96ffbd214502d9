package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	scaleList = false
	scaleConvention = ""

	dir := t.TempDir()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(dir, "config.json")}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestScaleCommand(t *testing.T) {
	assert := assert.New(t)

	out, err := run(t, "scale", "A", "dorian")
	require.NoError(t, err)
	assert.Contains(out, "A Dorian")
	assert.Contains(out, "F#")
	assert.Contains(out, "Bm")
	assert.Contains(out, "modes: 1 Major (Ionian)")

	out, err = run(t, "scale", "--list")
	require.NoError(t, err)
	assert.Contains(out, "melodic-minor")
	assert.Contains(out, "hirajoshi")

	_, err = run(t, "scale", "A", "nope")
	assert.ErrorContains(err, "unknown scale type")

	_, err = run(t, "scale", "H", "major")
	assert.ErrorContains(err, "unknown root")

	_, err = run(t, "scale", "A")
	assert.Error(err)
}

func TestChordsCommand(t *testing.T) {
	assert := assert.New(t)

	out, err := run(t, "chords", "Am7", "Bb")
	require.NoError(t, err)
	assert.Contains(out, "[A C E G]")
	assert.Contains(out, "[1 b3 5 b7]")
	assert.Contains(out, "[Bb D F]")

	_, err = run(t, "chords", "Q7")
	assert.ErrorContains(err, "not a chord symbol")
}

func TestFretboardCommand(t *testing.T) {
	out, err := run(t, "fretboard", "--tuning", "bass4", "--start", "0", "--end", "5", "--legend")
	require.NoError(t, err)
	assert.Contains(t, out, "G")

	_, err = run(t, "fretboard", "--tuning", "banjo-ish")
	assert.Error(t, err)
}

func TestConfigFileApplies(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"fret_end": 99}`), 0644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"--config", path, "chords", "C"})
	assert.ErrorContains(t, rootCmd.Execute(), "invalid config")
}
