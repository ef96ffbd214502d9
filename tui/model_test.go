package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-fretboard/fretboard"
	"go-fretboard/overlay"
	"go-fretboard/playback"
	"go-fretboard/theory"
)

// stubEngine reports a fixed score on Load and records transport calls
type stubEngine struct {
	h      playback.Handler
	score  *playback.Score
	calls  []string
	speed  float64
	seeked []int64
}

func (e *stubEngine) SetHandler(h playback.Handler)     { e.h = h }
func (e *stubEngine) Init(playback.EngineOptions) error { return nil }
func (e *stubEngine) Load([]byte) error {
	e.h.ScoreLoaded(e.score)
	e.h.PlayerReady()
	return nil
}
func (e *stubEngine) Play() error {
	e.calls = append(e.calls, "play")
	e.h.PlayerStateChanged(playback.PlayerPlaying)
	return nil
}
func (e *stubEngine) Pause() {
	e.calls = append(e.calls, "pause")
	e.h.PlayerStateChanged(playback.PlayerPaused)
}
func (e *stubEngine) Stop() {
	e.calls = append(e.calls, "stop")
	e.h.PlayerStateChanged(playback.PlayerStopped)
}
func (e *stubEngine) SeekTick(tick int64) {
	e.seeked = append(e.seeked, tick)
	e.h.PositionChanged(playback.PositionEvent{Tick: tick})
}
func (e *stubEngine) SetSpeed(r float64) { e.speed = r }
func (e *stubEngine) SetVolume(float64)  {}
func (e *stubEngine) Close() error       { return nil }

func song() *playback.Score {
	return &playback.Score{
		Title:           "Etude",
		TicksPerQuarter: 480,
		MasterBars: []playback.MasterBar{
			{Start: 0, Duration: 1920, Numerator: 4, Denominator: 4},
			{Start: 1920, Duration: 1920, Numerator: 4, Denominator: 4},
			{Start: 3840, Duration: 1920, Numerator: 4, Denominator: 4},
		},
		Tracks: []playback.Track{{
			Name: "Lead",
			Beats: []playback.Beat{
				{Tick: 0, Duration: 480, Notes: []overlay.Note{{String: 5, Fret: 0}}, Text: "Am"},
				{Tick: 1920, Duration: 480, Notes: []overlay.Note{{String: 4, Fret: 3}}},
			},
		}},
	}
}

func newTestModel(t *testing.T) (Model, *stubEngine) {
	t.Helper()
	eng := &stubEngine{score: song()}
	ctrl := playback.NewController(eng, playback.Options{})
	require.NoError(t, ctrl.Init())
	require.NoError(t, ctrl.Load(nil))

	base := overlay.Input{
		Tuning: fretboard.Guitar6,
		Scales: []overlay.ScaleOverlay{{Name: "A minor", Root: "A", Type: theory.ScaleMinor}},
	}
	return NewModel(ctrl, base, nil), eng
}

func press(m Model, k string) Model {
	var msg tea.KeyMsg
	switch k {
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestTransportKeys(t *testing.T) {
	assert := assert.New(t)
	m, eng := newTestModel(t)

	m = press(m, " ")
	assert.Equal(playback.StatePlaying, m.snap.State)
	m = press(m, " ")
	assert.Equal(playback.StatePaused, m.snap.State)
	m = press(m, "s")
	assert.Equal([]string{"play", "pause", "stop"}, eng.calls)

	m = press(m, "+")
	assert.Equal(1.25, eng.speed)
	for i := 0; i < 10; i++ {
		m = press(m, "-")
	}
	assert.Equal(0.25, m.speed)
}

func TestOptionKeys(t *testing.T) {
	assert := assert.New(t)
	m, _ := newTestModel(t)

	assert.Equal(overlay.LabelNotes, m.base.Options.Labels)
	m = press(m, "m")
	assert.Equal(overlay.LabelIntervals, m.base.Options.Labels)
	m = press(m, "c")
	assert.True(m.base.Options.IntervalColors)
	m = press(m, "x")
	assert.True(m.base.Options.Extensions)
	m = press(m, "a")
	assert.True(m.base.Options.AlternateBar)
	m = press(m, "f")
	assert.True(m.fingering)
	m = press(m, "o")
	assert.True(m.base.Options.HideFootprint)
	assert.True(m.input().Options.HideFootprint)

	m = press(m, ">")
	assert.Equal(fretboard.Window{Start: 1, End: 13}, m.base.Window)
	m = press(m, "<")
	m = press(m, "<")
	assert.Equal(fretboard.Window{Start: 0, End: 12}, m.base.Window)
}

func TestStepKeys(t *testing.T) {
	assert := assert.New(t)
	m, eng := newTestModel(t)

	m = press(m, "l")
	m = press(m, "l")
	assert.Equal(1, m.snap.Step)
	assert.Equal([]int64{0, 1920}, eng.seeked)
	m = press(m, "h")
	assert.Equal(0, m.snap.Step)
}

func TestSeekTarget(t *testing.T) {
	assert := assert.New(t)
	m, _ := newTestModel(t)

	m = press(m, "]")
	m = press(m, "]")
	m = press(m, "]")
	assert.Equal(2, m.target)
	assert.Contains(m.header(), "-> 3")

	m = press(m, "[")
	assert.Equal(1, m.target)
}

func TestView(t *testing.T) {
	assert := assert.New(t)
	m, _ := newTestModel(t)

	view := m.View()
	assert.Contains(view, "Etude")
	assert.Contains(view, "bar 1/3")
	assert.Contains(view, "track Lead")
	assert.Contains(view, "A minor")
	assert.GreaterOrEqual(strings.Count(view, "\n"), 10)

	frame := m.Frame()
	assert.NotEmpty(frame.Layer(overlay.LayerScale))

	m = press(m, "q")
	assert.True(m.quitting)
	assert.Equal("", m.View())
}
