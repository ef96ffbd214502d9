package midi

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-fretboard/debug"
	"go-fretboard/playback"
)

// recentBeats bounds how far back ActiveBeatsChanged looks for beats that
// are still ringing
const recentBeats = 16

// Engine plays standard MIDI files on a wall clock, optionally sounding
// them on a MIDI output, and reports progress to a playback.Handler.
type Engine struct {
	// Title names scores whose file carries no title
	Title string

	interval time.Duration

	mu       sync.Mutex
	h        playback.Handler
	out      drivers.Out
	send     func(msg gomidi.Message) error
	volume   float64
	speed    float64
	song     *Song
	state    playback.PlayerState
	tick     int64
	at       time.Duration
	cursor   []int
	noteCur  int
	sounding []rawNote
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewEngine() *Engine {
	return &Engine{
		interval: 10 * time.Millisecond,
		h:        nopHandler{},
		volume:   1,
		speed:    1,
	}
}

func (e *Engine) SetHandler(h playback.Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if h == nil {
		h = nopHandler{}
	}
	e.h = h
}

func (e *Engine) handler() playback.Handler {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.h
}

// Init opens the synth output named in opts. An empty name plays silently.
func (e *Engine) Init(opts playback.EngineOptions) error {
	e.mu.Lock()
	e.closeOutLocked()
	if opts.Volume > 0 {
		e.volume = min(opts.Volume, 1)
	}
	if opts.Speed > 0 {
		e.speed = clampSpeed(opts.Speed)
	}
	e.mu.Unlock()

	if opts.Synth == "" {
		debug.Log("midi", "engine silent")
		return nil
	}
	out, err := FindOut(opts.Synth, portTimeout)
	if err != nil {
		return fmt.Errorf("%w: %v", playback.ErrSynthUnavailable, err)
	}
	send, err := gomidi.SendTo(out)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", playback.ErrSynthUnavailable, out, err)
	}

	e.mu.Lock()
	e.out, e.send = out, send
	e.mu.Unlock()
	debug.Log("midi", "engine output %s", out)
	return nil
}

// Load parses a standard MIDI file and reports it to the handler
func (e *Engine) Load(data []byte) error {
	e.halt()

	e.mu.Lock()
	song, err := Parse(data, e.Title)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	offs := e.silenceLocked()
	e.song = song
	e.state = playback.PlayerStopped
	e.cursor = make([]int, len(song.Score.Tracks))
	e.seekLocked(0)
	h := e.h
	e.mu.Unlock()

	e.transmit(offs)
	h.ScoreLoaded(song.Score)
	h.RenderFinished()
	h.PlayerReady()
	return nil
}

// Play starts the clock from the current tick, rewinding if at the end
func (e *Engine) Play() error {
	e.mu.Lock()
	if e.song == nil {
		e.mu.Unlock()
		return playback.ErrNoScore
	}
	if e.state == playback.PlayerPlaying {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	// reap a clock that stopped itself at the end
	e.halt()

	e.mu.Lock()
	if e.tick >= e.song.Score.EndTick() {
		e.seekLocked(0)
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel, e.done = cancel, make(chan struct{})
	e.state = playback.PlayerPlaying
	done, h := e.done, e.h
	e.mu.Unlock()

	go e.run(ctx, done)
	h.PlayerStateChanged(playback.PlayerPlaying)
	return nil
}

func (e *Engine) Pause() {
	e.halt()

	e.mu.Lock()
	if e.state != playback.PlayerPlaying {
		e.mu.Unlock()
		return
	}
	e.state = playback.PlayerPaused
	offs := e.silenceLocked()
	h := e.h
	e.mu.Unlock()

	e.transmit(offs)
	h.PlayerStateChanged(playback.PlayerPaused)
}

func (e *Engine) Stop() {
	e.halt()

	e.mu.Lock()
	if e.song == nil {
		e.mu.Unlock()
		return
	}
	e.state = playback.PlayerStopped
	offs := e.silenceLocked()
	e.seekLocked(0)
	end, h := e.song.Score.EndTick(), e.h
	e.mu.Unlock()

	e.transmit(offs)
	h.PlayerStateChanged(playback.PlayerStopped)
	h.PositionChanged(playback.PositionEvent{Tick: 0, EndTick: end})
}

func (e *Engine) SeekTick(tick int64) {
	e.mu.Lock()
	if e.song == nil {
		e.mu.Unlock()
		return
	}
	end := e.song.Score.EndTick()
	tick = max(0, min(tick, end))
	offs := e.silenceLocked()
	e.seekLocked(tick)
	h := e.h
	e.mu.Unlock()

	e.transmit(offs)
	h.PositionChanged(playback.PositionEvent{Tick: tick, EndTick: end})
}

func (e *Engine) SetSpeed(ratio float64) {
	e.mu.Lock()
	e.speed = clampSpeed(ratio)
	e.mu.Unlock()
}

func (e *Engine) SetVolume(v float64) {
	e.mu.Lock()
	e.volume = max(0, min(v, 1))
	e.mu.Unlock()
}

func (e *Engine) Close() error {
	e.halt()
	e.mu.Lock()
	offs := e.silenceLocked()
	e.mu.Unlock()
	e.transmit(offs)

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closeOutLocked()
}

// BPM is the tempo at the current position
func (e *Engine) BPM() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.song == nil {
		return 120
	}
	return e.song.tempo.BPM(e.tick)
}

func clampSpeed(r float64) float64 {
	return max(0.25, min(r, 2))
}

func (e *Engine) closeOutLocked() error {
	if e.out == nil {
		return nil
	}
	err := e.out.Close()
	e.out, e.send = nil, nil
	return err
}

// halt stops the clock goroutine and waits for it. Must not hold mu.
func (e *Engine) halt() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}

func (e *Engine) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now
			if e.advance(elapsed) {
				return
			}
		}
	}
}

// advance moves the cursor by elapsed wall time scaled by speed
func (e *Engine) advance(elapsed time.Duration) bool {
	e.mu.Lock()
	if e.song == nil || e.state != playback.PlayerPlaying {
		e.mu.Unlock()
		return true
	}
	// wall position is kept separately so sub-tick progress is not lost
	e.at += time.Duration(float64(elapsed) * e.speed)
	to := e.song.tempo.Tick(e.at)
	e.mu.Unlock()
	return e.advanceTo(to)
}

// advanceTo fires every beat and note event in [tick, to) and reports
// whether the end of the score was reached.
func (e *Engine) advanceTo(to int64) bool {
	e.mu.Lock()
	if e.song == nil {
		e.mu.Unlock()
		return true
	}
	score := e.song.Score
	end := score.EndTick()
	finished := to >= end
	to = min(to, end)

	var played []playback.BeatEvent
	var active []playback.ActiveBeatsEvent
	for ti, tr := range score.Tracks {
		if ti >= len(e.cursor) {
			break
		}
		i, started := e.cursor[ti], false
		for ; i < len(tr.Beats) && tr.Beats[i].Tick < to; i++ {
			if len(tr.Beats[i].Notes) > 0 {
				played = append(played, playback.BeatEvent{Track: ti, Beat: tr.Beats[i]})
				started = true
			}
		}
		e.cursor[ti] = i
		if started {
			active = append(active, playback.ActiveBeatsEvent{Track: ti, Beats: ringingBeats(tr.Beats[:i], to)})
		}
	}

	msgs := e.sweepLocked(to)
	e.tick = to
	e.at = max(e.at, e.song.tempo.Time(to))
	h := e.h
	if finished {
		e.state = playback.PlayerStopped
		msgs = append(msgs, e.silenceLocked()...)
		e.seekLocked(0)
	}
	e.mu.Unlock()

	e.transmit(msgs)
	for _, ev := range played {
		h.PlayedBeatChanged(ev)
	}
	for _, ev := range active {
		h.ActiveBeatsChanged(ev)
	}
	h.PositionChanged(playback.PositionEvent{Tick: to, EndTick: end})
	if finished {
		debug.Log("midi", "end of score")
		h.PlayerStateChanged(playback.PlayerStopped)
	}
	return finished
}

// ringingBeats returns the recent beats still sounding at tick, oldest first
func ringingBeats(beats []playback.Beat, tick int64) []playback.Beat {
	var out []playback.Beat
	for i := len(beats) - 1; i >= 0 && i >= len(beats)-recentBeats; i-- {
		b := beats[i]
		if len(b.Notes) > 0 && (i == len(beats)-1 || b.Tick+b.Duration >= tick) {
			out = append(out, b)
		}
	}
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}

// sweepLocked collects note offs and ons between the cursor and to
func (e *Engine) sweepLocked(to int64) []gomidi.Message {
	var msgs []gomidi.Message
	still := e.sounding[:0]
	for _, n := range e.sounding {
		if n.off < to {
			msgs = append(msgs, gomidi.NoteOff(n.channel, n.key))
			continue
		}
		still = append(still, n)
	}
	e.sounding = still

	notes := e.song.notes
	for ; e.noteCur < len(notes) && notes[e.noteCur].on < to; e.noteCur++ {
		n := notes[e.noteCur]
		vel := uint8(max(1, min(127, int(float64(n.velocity)*e.volume))))
		msgs = append(msgs, gomidi.NoteOn(n.channel, n.key, vel))
		e.sounding = append(e.sounding, n)
	}
	return msgs
}

func (e *Engine) silenceLocked() []gomidi.Message {
	var msgs []gomidi.Message
	for _, n := range e.sounding {
		msgs = append(msgs, gomidi.NoteOff(n.channel, n.key))
	}
	e.sounding = nil
	return msgs
}

func (e *Engine) seekLocked(tick int64) {
	e.tick = tick
	e.at = e.song.tempo.Time(tick)
	for ti, tr := range e.song.Score.Tracks {
		if ti < len(e.cursor) {
			beats := tr.Beats
			e.cursor[ti] = sort.Search(len(beats), func(i int) bool { return beats[i].Tick >= tick })
		}
	}
	notes := e.song.notes
	e.noteCur = sort.Search(len(notes), func(i int) bool { return notes[i].on >= tick })
}

func (e *Engine) transmit(msgs []gomidi.Message) {
	if len(msgs) == 0 {
		return
	}
	e.mu.Lock()
	send := e.send
	e.mu.Unlock()
	if send == nil {
		return
	}
	for _, m := range msgs {
		if err := send(m); err != nil {
			debug.Log("midi", "send %s: %v", m, err)
			e.handler().Error(fmt.Errorf("%w: %v", playback.ErrSynthUnavailable, err))
			return
		}
	}
}

type nopHandler struct{}

func (nopHandler) ScoreLoaded(*playback.Score)                  {}
func (nopHandler) RenderFinished()                              {}
func (nopHandler) PlayerReady()                                 {}
func (nopHandler) PlayerStateChanged(playback.PlayerState)      {}
func (nopHandler) PositionChanged(playback.PositionEvent)       {}
func (nopHandler) PlayedBeatChanged(playback.BeatEvent)         {}
func (nopHandler) ActiveBeatsChanged(playback.ActiveBeatsEvent) {}
func (nopHandler) Error(error)                                  {}
