package midi

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"go-fretboard/fretboard"
	"go-fretboard/overlay"
	"go-fretboard/playback"
)

type at struct {
	tick uint32
	msg  []byte
}

func meta(typ uint8, data ...byte) []byte {
	return append([]byte{0xFF, typ, byte(len(data))}, data...)
}

func text(typ uint8, s string) []byte {
	return meta(typ, []byte(s)...)
}

func track(events ...at) smf.Track {
	sort.SliceStable(events, func(i, j int) bool { return events[i].tick < events[j].tick })
	var tr smf.Track
	var last uint32
	for _, ev := range events {
		tr.Add(ev.tick-last, ev.msg)
		last = ev.tick
	}
	tr.Close(0)
	return tr
}

// fixture is two bars of 4/4 at 480 ppq: a conductor track, a guitar
// track and a drum track
func fixture(t *testing.T) []byte {
	t.Helper()
	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(480)

	conductor := track(
		at{0, text(MetaTrackName, "Etude")},
		at{0, smf.MetaMeter(4, 4)},
		at{0, smf.MetaTempo(120)},
		at{0, text(MetaMarker, "Am")},
		at{1920, meta(MetaKeySig, 0xFF, 0x00)},
	)
	lead := track(
		at{0, text(MetaTrackName, "Lead")},
		at{0, gomidi.NoteOn(0, 45, 100)},
		at{0, gomidi.NoteOn(0, 50, 100)},
		at{480, gomidi.NoteOff(0, 45)},
		at{480, gomidi.NoteOn(0, 52, 90)},
		at{720, gomidi.NoteOff(0, 50)},
		at{960, gomidi.NoteOff(0, 52)},
		at{1920, text(MetaText, "F")},
		at{1920, gomidi.NoteOn(0, 57, 100)},
		at{2040, []byte{0xE0, 0x00, 0x60}},
		at{2400, gomidi.NoteOff(0, 57)},
		at{2400, []byte{0xE0, 0x00, 0x40}},
	)
	drums := track(
		at{0, gomidi.NoteOn(DrumChannel, 36, 100)},
		at{240, gomidi.NoteOff(DrumChannel, 36)},
	)
	for _, tr := range []smf.Track{conductor, lead, drums} {
		require.NoError(t, sm.Add(tr))
	}

	var buf bytes.Buffer
	_, err := sm.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParse(t *testing.T) {
	song, err := Parse(fixture(t), "fallback")
	require.NoError(t, err)
	s := song.Score

	assert := assert.New(t)
	assert.Equal("Etude", s.Title)
	assert.Equal(480, s.TicksPerQuarter)
	require.Len(t, s.MasterBars, 2)
	assert.False(s.MasterBars[0].HasKey)
	assert.True(s.MasterBars[1].HasKey)
	assert.Equal(-1, s.MasterBars[1].KeySharps)
	assert.Equal(4, s.MasterBars[1].Numerator)

	require.Len(t, s.Tracks, 1)
	beats := s.Tracks[0].Beats
	assert.Equal("Lead", s.Tracks[0].Name)
	require.Len(t, beats, 3)

	assert.Equal([]overlay.Note{{String: 2, Fret: 0}, {String: 3, Fret: 0}}, beats[0].Notes)
	assert.Equal("Am", beats[0].Text)
	assert.Equal(int64(720), beats[0].Duration)

	assert.Equal([]overlay.Note{{String: 3, Fret: 2, Legato: overlay.LegatoHammer}}, beats[1].Notes)

	require.Len(t, beats[2].Notes, 1)
	n := beats[2].Notes[0]
	assert.Equal(4, n.String)
	assert.Equal(2, n.Fret)
	assert.Equal(&overlay.Bend{Semitones: 1}, n.Bend)
	assert.Equal("F", beats[2].Text)

	// drums still sound
	assert.Len(song.notes, 5)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse([]byte("definitely not a midi file"), "")
	assert.ErrorIs(t, err, ErrNotSMF)
}

func TestScoreFromParseValidates(t *testing.T) {
	song, err := Parse(fixture(t), "")
	require.NoError(t, err)
	problems, err := song.Score.Validate()
	assert.NoError(t, err)
	assert.Empty(t, problems)
}

func TestNoteBend(t *testing.T) {
	n := rawNote{channel: 0, on: 100, off: 500}
	tests := []struct {
		name  string
		bends []bendEvent
		want  *overlay.Bend
	}{
		{"none", nil, nil},
		{"other channel", []bendEvent{{tick: 200, channel: 3, value: 4096}}, nil},
		{"after note", []bendEvent{{tick: 600, value: 4096}}, nil},
		{"bend up", []bendEvent{{tick: 200, value: 8191}}, &overlay.Bend{Semitones: 2}},
		{"bend and release", []bendEvent{{tick: 200, value: 4096}, {tick: 300, value: 0}}, &overlay.Bend{Semitones: 1, Release: true}},
		{"prebend", []bendEvent{{tick: 50, value: 4096}}, &overlay.Bend{Semitones: 1, Prebend: true}},
		{"prebend release", []bendEvent{{tick: 100, value: 4096}, {tick: 300, value: 0}}, &overlay.Bend{Semitones: 1, Prebend: true, Release: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, noteBend(tt.bends, n))
		})
	}
}

func TestMetaDecoding(t *testing.T) {
	assert := assert.New(t)

	typ, data, ok := parseMeta(text(MetaMarker, "Verse"))
	assert.True(ok)
	assert.Equal(MetaMarker, typ)
	assert.Equal("Verse", string(data))
	_, _, ok = parseMeta([]byte{0x90, 40, 100})
	assert.False(ok)
	_, _, ok = parseMeta([]byte{0xFF, 0x01, 0x05, 'a'})
	assert.False(ok)

	ch, v, ok := parsePitchBend([]byte{0xE3, 0x00, 0x40})
	assert.True(ok)
	assert.Equal(uint8(3), ch)
	assert.Equal(0, v)

	us, ok := tempoMicros([]byte{0x07, 0xA1, 0x20})
	assert.True(ok)
	assert.Equal(500000, us)

	num, den, ok := timeSig([]byte{6, 3, 24, 8})
	assert.True(ok)
	assert.Equal(6, num)
	assert.Equal(8, den)

	sharps, minor, ok := keySig([]byte{0xFD, 1})
	assert.True(ok)
	assert.Equal(-3, sharps)
	assert.True(minor)
	_, _, ok = keySig([]byte{9, 0})
	assert.False(ok)
}

func TestTempoMap(t *testing.T) {
	m := newTempoMap(480, []tempoChange{{tick: 1920, micros: 250000}})

	assert := assert.New(t)
	assert.Equal(500*time.Millisecond, m.Time(480))
	assert.Equal(2*time.Second, m.Time(1920))
	assert.Equal(2250*time.Millisecond, m.Time(2400))
	assert.Equal(int64(2400), m.Tick(2250*time.Millisecond))
	assert.Equal(int64(960), m.Tick(time.Second))
	assert.Equal(120.0, m.BPM(0))
	assert.Equal(240.0, m.BPM(2000))
}

func TestBuildBarsFollowsMeter(t *testing.T) {
	bars := buildBars(480, []sigChange{{tick: 1920, num: 3, den: 4}}, nil, 1920+1440*2)

	assert.Len(t, bars, 3)
	assert.Equal(t, int64(1440), bars[1].Duration)
	assert.Equal(t, 3, bars[2].Numerator)
	assert.Equal(t, int64(3360), bars[2].Start)

	assert.Len(t, buildBars(480, nil, nil, 0), 1)
}

type recorder struct {
	mu     sync.Mutex
	events []string
	beats  []playback.BeatEvent
	active []playback.ActiveBeatsEvent
	ticks  []int64
	states []playback.PlayerState
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	r.events = append(r.events, s)
	r.mu.Unlock()
}

func (r *recorder) ScoreLoaded(*playback.Score) { r.add("loaded") }
func (r *recorder) RenderFinished()             { r.add("rendered") }
func (r *recorder) PlayerReady()                { r.add("ready") }
func (r *recorder) PlayerStateChanged(s playback.PlayerState) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}
func (r *recorder) PositionChanged(ev playback.PositionEvent) {
	r.mu.Lock()
	r.ticks = append(r.ticks, ev.Tick)
	r.mu.Unlock()
}
func (r *recorder) PlayedBeatChanged(ev playback.BeatEvent) {
	r.mu.Lock()
	r.beats = append(r.beats, ev)
	r.mu.Unlock()
}
func (r *recorder) ActiveBeatsChanged(ev playback.ActiveBeatsEvent) {
	r.mu.Lock()
	r.active = append(r.active, ev)
	r.mu.Unlock()
}
func (r *recorder) Error(err error) { r.add("error: " + err.Error()) }

func loadedEngine(t *testing.T) (*Engine, *recorder) {
	t.Helper()
	e := NewEngine()
	rec := &recorder{}
	e.SetHandler(rec)
	require.NoError(t, e.Init(playback.EngineOptions{}))
	require.NoError(t, e.Load(fixture(t)))
	return e, rec
}

func TestEngineLoadReports(t *testing.T) {
	_, rec := loadedEngine(t)
	assert.Equal(t, []string{"loaded", "rendered", "ready"}, rec.events)
}

func TestEngineAdvance(t *testing.T) {
	e, rec := loadedEngine(t)
	assert := assert.New(t)

	assert.False(e.advanceTo(481))
	require.Len(t, rec.beats, 2)
	assert.Equal(int64(0), rec.beats[0].Beat.Tick)
	assert.Equal(int64(480), rec.beats[1].Beat.Tick)
	require.Len(t, rec.active, 1)
	assert.Len(rec.active[0].Beats, 2)

	// nothing new in the gap
	assert.False(e.advanceTo(1000))
	assert.Len(rec.beats, 2)

	assert.True(e.advanceTo(9999))
	assert.Len(rec.beats, 3)
	assert.Equal([]int64{481, 1000, 3840}, rec.ticks)
	assert.Equal([]playback.PlayerState{playback.PlayerStopped}, rec.states)
	// finishing rewinds for the next play
	assert.Equal(int64(0), e.tick)
}

func TestEngineSeekSkipsEarlierBeats(t *testing.T) {
	e, rec := loadedEngine(t)

	e.SeekTick(1000)
	e.advanceTo(2000)
	require.Len(t, rec.beats, 1)
	assert.Equal(t, int64(1920), rec.beats[0].Beat.Tick)

	e.SeekTick(-50)
	assert.Equal(t, int64(0), e.tick)
	assert.Equal(t, []int64{1000, 2000, 0}, rec.ticks)
}

func TestEngineTransport(t *testing.T) {
	e, rec := loadedEngine(t)

	require.NoError(t, e.Play())
	require.NoError(t, e.Play())
	e.Pause()
	e.Stop()
	require.NoError(t, e.Close())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []playback.PlayerState{
		playback.PlayerPlaying,
		playback.PlayerPaused,
		playback.PlayerStopped,
	}, rec.states)
}

func TestEnginePlayWithoutScore(t *testing.T) {
	assert.ErrorIs(t, NewEngine().Play(), playback.ErrNoScore)
}

func TestEngineWithController(t *testing.T) {
	e := NewEngine()
	c := playback.NewController(e, playback.Options{Track: -1})
	require.NoError(t, c.Init())
	require.NoError(t, c.Load(fixture(t)))

	s := c.Snapshot()
	assert.Equal(t, playback.StateReady, s.State)
	assert.Equal(t, "Etude", s.Title)
	assert.Equal(t, "A", s.Root.Root)
	assert.Equal(t, fretboard.SourceDefault, s.Tuning.Source)

	e.advanceTo(2000)
	s = c.Snapshot()
	assert.Equal(t, 1, s.Position.Bar)
	assert.Equal(t, "F", s.KeyName)
	assert.Equal(t, []overlay.Note{{String: 4, Fret: 2, Bend: &overlay.Bend{Semitones: 1}}}, s.Active)
	require.NoError(t, c.Close())
}

func TestLiveInput(t *testing.T) {
	var got [][]overlay.Note
	li := newLiveInput(fretboard.Guitar6, func(n []overlay.Note) { got = append(got, n) })

	li.handle(gomidi.NoteOn(0, 40, 100))
	li.handle(gomidi.NoteOn(0, 45, 100))
	li.handle(gomidi.ControlChange(0, 7, 100))
	li.handle(gomidi.NoteOff(0, 40))
	li.handle(gomidi.NoteOn(0, 45, 0))

	require.Len(t, got, 4)
	assert.Equal(t, []overlay.Note{{String: 1, Fret: 0}}, got[0])
	assert.Equal(t, []overlay.Note{{String: 1, Fret: 0}, {String: 2, Fret: 0}}, got[1])
	assert.Equal(t, []overlay.Note{{String: 2, Fret: 0}}, got[2])
	assert.Empty(t, got[3])
	assert.NoError(t, li.Close())
}

type fakeInput struct{ closed bool }

func (f *fakeInput) Close() error {
	f.closed = true
	return nil
}

func TestInputWatcher(t *testing.T) {
	var notes [][]overlay.Note
	w := NewInputWatcher("keystation", fretboard.Guitar6, func(n []overlay.Note) { notes = append(notes, n) })

	ports := []string{"IAC Bus 1"}
	opened := map[string]*fakeInput{}
	w.list = func() ([]string, error) { return ports, nil }
	w.open = func(port string) (io.Closer, error) {
		in := &fakeInput{}
		opened[port] = in
		return in, nil
	}

	w.scan()
	assert.Empty(t, w.Port())

	ports = []string{"IAC Bus 1", "Keystation 49 MK3"}
	w.scan()
	assert.Equal(t, "Keystation 49 MK3", w.Port())
	assert.Equal(t, DeviceEvent{Type: DeviceConnected, ID: "Keystation 49 MK3"}, <-w.Events())

	// steady state emits nothing
	w.scan()
	assert.Len(t, w.Events(), 0)

	w.list = func() ([]string, error) { return nil, ErrPortScanTimeout }
	w.scan()
	assert.Equal(t, "Keystation 49 MK3", w.Port(), "a failed scan keeps the connection")

	w.list = func() ([]string, error) { return []string{"IAC Bus 1"}, nil }
	w.scan()
	assert.Empty(t, w.Port())
	assert.True(t, opened["Keystation 49 MK3"].closed)
	assert.Equal(t, DeviceEvent{Type: DeviceDisconnected, ID: "Keystation 49 MK3"}, <-w.Events())
	require.Len(t, notes, 1)
	assert.Nil(t, notes[0])
}

func TestInputWatcherRunClosesEvents(t *testing.T) {
	w := NewInputWatcher("x", fretboard.Guitar6, nil)
	w.list = func() ([]string, error) { return nil, nil }
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	cancel()
	<-done
	_, ok := <-w.Events()
	assert.False(t, ok)
}
