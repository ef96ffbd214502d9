package playback

import (
	"time"

	"go-fretboard/overlay"
)

// fakeEngine records calls and answers them the way a real engine would,
// calling back into the handler synchronously.
type fakeEngine struct {
	h        Handler
	inits    []EngineOptions
	initErrs []error
	loadErr  error
	score    *Score
	calls    []string
	seeks    []int64
	playErr  error
}

func (e *fakeEngine) SetHandler(h Handler) { e.h = h }

func (e *fakeEngine) Init(opts EngineOptions) error {
	e.inits = append(e.inits, opts)
	if len(e.initErrs) > 0 {
		err := e.initErrs[0]
		e.initErrs = e.initErrs[1:]
		return err
	}
	return nil
}

func (e *fakeEngine) Load(data []byte) error {
	e.calls = append(e.calls, "load")
	if e.loadErr != nil {
		return e.loadErr
	}
	if e.score != nil {
		e.h.ScoreLoaded(e.score)
		e.h.RenderFinished()
		e.h.PlayerReady()
	}
	return nil
}

func (e *fakeEngine) Play() error {
	e.calls = append(e.calls, "play")
	if e.playErr != nil {
		return e.playErr
	}
	e.h.PlayerStateChanged(PlayerPlaying)
	return nil
}

func (e *fakeEngine) Pause() {
	e.calls = append(e.calls, "pause")
	e.h.PlayerStateChanged(PlayerPaused)
}

func (e *fakeEngine) Stop() {
	e.calls = append(e.calls, "stop")
	e.h.PlayerStateChanged(PlayerStopped)
}

func (e *fakeEngine) SeekTick(tick int64) {
	e.calls = append(e.calls, "seek")
	e.seeks = append(e.seeks, tick)
}

func (e *fakeEngine) SetSpeed(float64)  {}
func (e *fakeEngine) SetVolume(float64) {}
func (e *fakeEngine) Close() error {
	e.calls = append(e.calls, "close")
	return nil
}

// manualClock collects scheduled funcs so tests decide when they fire
type manualClock struct {
	pending []*timer
}

type timer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) func() bool {
	t := &timer{d: d, f: f}
	c.pending = append(c.pending, t)
	return func() bool {
		was := !t.stopped
		t.stopped = true
		return was
	}
}

// fireAll runs every timer, including stopped ones, to prove stale
// callbacks are ignored
func (c *manualClock) fireAll() {
	p := c.pending
	c.pending = nil
	for _, t := range p {
		t.f()
	}
}

// testScore is two 4/4 bars at 480 ticks per quarter on one 6-string track.
// Bar 0 has an Am chord annotation, bar 1 a key change to one flat.
func testScore() *Score {
	return &Score{
		Title:           "Etude",
		TicksPerQuarter: 480,
		MasterBars: []MasterBar{
			{Start: 0, Duration: 1920, Numerator: 4, Denominator: 4},
			{Start: 1920, Duration: 1920, Numerator: 4, Denominator: 4, KeySharps: -1, HasKey: true},
		},
		Tracks: []Track{
			{Name: "Drums"},
			{
				Name: "Lead 7-string",
				Beats: []Beat{
					{Tick: 0, Duration: 480, Notes: []overlay.Note{{String: 2, Fret: 0}}, Text: "Am"},
					{Tick: 480, Duration: 480, Notes: []overlay.Note{{String: 3, Fret: 2}}},
					{Tick: 960, Duration: 960},
					{Tick: 1920, Duration: 480, Notes: []overlay.Note{{String: 4, Fret: 3}}, Text: "F"},
				},
			},
		},
	}
}
