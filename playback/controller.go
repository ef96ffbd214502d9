package playback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-fretboard/debug"
	"go-fretboard/fretboard"
	"go-fretboard/overlay"
	"go-fretboard/theory"
)

// State is the controller lifecycle
type State int

const (
	StateUninitialized State = iota
	StateScoreLoading
	StateScoreLoaded
	StateReady
	StatePlaying
	StatePaused
	StateStopped
)

var stateNames = []string{"uninitialized", "loading", "loaded", "ready", "playing", "paused", "stopped"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// canPlay reports whether the engine can start from this state
func (s State) canPlay() bool {
	return s == StateReady || s == StatePaused || s == StateStopped
}

// DefaultDecay is how long played notes stay lit after their beat
const DefaultDecay = 140 * time.Millisecond

// AfterFunc runs f after d and returns a func that cancels it.
// time.AfterFunc in production, a manual clock in tests.
type AfterFunc func(d time.Duration, f func()) (stop func() bool)

func realAfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Options configure a Controller
type Options struct {
	SyncID    string
	Bus       *Bus
	Engine    EngineOptions
	Decay     time.Duration
	Track     int
	AfterFunc AfterFunc
	Fetcher   *Fetcher
	// explicit roots, taking part in root resolution alongside the chord track
	BeatRoots map[overlay.BarBeat]overlay.RootInfo
	BarRoots  map[int]overlay.RootInfo
}

// Snapshot is a copy of everything a view needs to draw
type Snapshot struct {
	ID            string               `json:"id"`
	State         State                `json:"state"`
	Status        string               `json:"status"`
	Title         string               `json:"title"`
	Position      overlay.Position     `json:"position"`
	BarCount      int                  `json:"barCount"`
	EndTick       int64                `json:"endTick"`
	Root          overlay.RootInfo     `json:"root"`
	KeyPreference theory.Convention    `json:"keyPreference"`
	KeyName       string               `json:"keyName,omitempty"`
	Track         int                  `json:"track"`
	TrackName     string               `json:"trackName,omitempty"`
	Tuning        fretboard.TuningInfo `json:"tuning"`
	StringCount   int                  `json:"stringCount"`
	Active        []overlay.Note       `json:"active,omitempty"`
	Footprint     []overlay.Note       `json:"footprint,omitempty"`
	Chords        []string             `json:"chords,omitempty"`
	Step          int                  `json:"step"`
	Steps         int                  `json:"steps"`
}

// Input copies the playback-derived fields into an overlay input
func (s Snapshot) Input(base overlay.Input) overlay.Input {
	base.Tuning = s.Tuning.Tuning
	base.StringCount = s.StringCount
	base.Position = s.Position
	base.Root = s.Root
	base.Active = s.Active
	base.Footprint = s.Footprint
	base.Options.KeyPreference = s.KeyPreference
	return base
}

// Controller wraps a score engine, tracks what is sounding and keeps
// synchronized players in step through a Bus.
type Controller struct {
	id         string
	engine     Engine
	opts       Options
	afterFunc  AfterFunc
	fetcher    *Fetcher
	cancelSync func()
	updates    chan struct{}

	mu           sync.Mutex
	state        State
	status       string
	score        *Score
	track        int
	tuningLock   fretboard.TuningLock
	tuning       fretboard.TuningInfo
	roots        overlay.RootResolver
	pos          overlay.Position
	root         overlay.RootInfo
	keyPref      theory.Convention
	keyName      string
	active       []overlay.Note
	footprint    []overlay.Note
	footprintBar int
	decayGen     uint64
	stopDecay    func() bool
	steps        []StepPos
	step         int
	pendingPlay  bool
	pendingSeek  *SeekCmd
}

func NewController(engine Engine, opts Options) *Controller {
	if opts.Decay <= 0 {
		opts.Decay = DefaultDecay
	}
	c := &Controller{
		id:        uuid.NewString(),
		engine:    engine,
		opts:      opts,
		afterFunc: opts.AfterFunc,
		fetcher:   opts.Fetcher,
		updates:   make(chan struct{}, 1),
		tuning:    fretboard.TuningInfo{Tuning: fretboard.Guitar6, Source: fretboard.SourceDefault},
		step:      -1,
	}
	if c.afterFunc == nil {
		c.afterFunc = realAfterFunc
	}
	if c.fetcher == nil {
		c.fetcher = NewFetcher()
	}
	engine.SetHandler(c)
	if opts.Bus != nil && opts.SyncID != "" {
		c.cancelSync = opts.Bus.Subscribe(opts.SyncID, c.onSync)
	}
	return c
}

// ID identifies this controller on the sync bus
func (c *Controller) ID() string { return c.id }

// Updates signals (without blocking) whenever the snapshot changes
func (c *Controller) Updates() <-chan struct{} { return c.updates }

func (c *Controller) notify() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}

func (c *Controller) setStatus(format string, args ...any) {
	c.mu.Lock()
	c.status = fmt.Sprintf(format, args...)
	c.mu.Unlock()
	c.notify()
}

// Notice replaces the status line with a message from outside playback
func (c *Controller) Notice(format string, args ...any) {
	c.setStatus(format, args...)
}

// Status is the last human-readable status line
func (c *Controller) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// State is the current lifecycle state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Init starts the engine. If the synth cannot be opened the engine is
// initialised again without one so visuals keep working.
func (c *Controller) Init() error {
	err := c.engine.Init(c.opts.Engine)
	if errors.Is(err, ErrSynthUnavailable) {
		debug.Log("playback", "synth %q unavailable, retrying silent: %v", c.opts.Engine.Synth, err)
		silent := c.opts.Engine
		silent.Synth = ""
		if err = c.engine.Init(silent); err == nil {
			c.setStatus("synth unavailable, playing silently")
		}
	}
	if err != nil {
		c.setStatus("engine init failed: %v", err)
		return fmt.Errorf("init engine: %w", err)
	}
	return nil
}

// Load hands raw score bytes to the engine
func (c *Controller) Load(data []byte) error {
	c.mu.Lock()
	prev := c.state
	c.state = StateScoreLoading
	c.status = "loading score"
	c.mu.Unlock()
	c.notify()

	if err := c.engine.Load(data); err != nil {
		c.mu.Lock()
		c.state = prev
		c.pendingSeek = nil
		c.status = fmt.Sprintf("load failed: %v", err)
		c.mu.Unlock()
		c.notify()
		return fmt.Errorf("load score: %w", err)
	}
	return nil
}

// LoadURL fetches a score then loads it
func (c *Controller) LoadURL(ctx context.Context, src string) error {
	c.setStatus("fetching %s", src)
	data, err := c.fetcher.Fetch(ctx, src)
	if err != nil {
		c.setStatus("fetch failed: %v", err)
		return err
	}
	return c.Load(data)
}

// SetSpeed changes the playback rate of this player only
func (c *Controller) SetSpeed(ratio float64) {
	c.engine.SetSpeed(ratio)
	c.setStatus("speed %.0f%%", ratio*100)
}

// SetVolume changes the synth volume of this player only
func (c *Controller) SetVolume(v float64) {
	c.engine.SetVolume(v)
}

// Close leaves the sync group and shuts the engine down
func (c *Controller) Close() error {
	if c.cancelSync != nil {
		c.cancelSync()
	}
	c.mu.Lock()
	if c.stopDecay != nil {
		c.stopDecay()
	}
	c.mu.Unlock()
	return c.engine.Close()
}

// Handler callbacks

func (c *Controller) ScoreLoaded(s *Score) {
	problems, err := s.Validate()
	for _, p := range problems {
		debug.Log("playback", "score: %s", p)
	}
	if err != nil {
		c.mu.Lock()
		c.state = StateUninitialized
		c.status = err.Error()
		c.mu.Unlock()
		c.notify()
		return
	}

	c.mu.Lock()
	c.score = s
	c.state = StateScoreLoaded
	c.roots = overlay.RootResolver{
		Beats: c.opts.BeatRoots,
		Track: overlay.BuildChordTrack(s.Annotations()),
		Bars:  c.opts.BarRoots,
	}
	c.tuningLock.Reset()
	c.selectTrackLocked(c.opts.Track)
	c.moveToLocked(0)
	c.status = fmt.Sprintf("loaded %q: %d bars, %d chord changes", s.Title, s.BarCount(), c.roots.Track.Len())
	c.mu.Unlock()

	debug.Log("playback", "score loaded: %q tracks=%d bars=%d", s.Title, len(s.Tracks), s.BarCount())
	c.notify()
}

func (c *Controller) RenderFinished() {
	debug.Log("playback", "render finished")
}

func (c *Controller) PlayerReady() {
	c.mu.Lock()
	if c.state == StateScoreLoaded || c.state == StateScoreLoading {
		c.state = StateReady
	}
	play := c.pendingPlay && c.state.canPlay()
	c.pendingPlay = false
	seek := c.pendingSeek
	c.pendingSeek = nil
	c.mu.Unlock()
	c.notify()

	if seek != nil {
		play = play || seek.Autoplay
		queued := *seek
		queued.Autoplay = false
		c.apply(queued)
	}
	if play {
		c.startPlayback()
	}
}

func (c *Controller) PlayerStateChanged(ps PlayerState) {
	c.mu.Lock()
	switch ps {
	case PlayerPlaying:
		c.state = StatePlaying
	case PlayerPaused:
		c.state = StatePaused
	case PlayerStopped:
		c.state = StateStopped
		c.active = nil
		c.footprint = nil
		if c.score != nil {
			c.moveToLocked(0)
		}
	}
	c.status = ps.String()
	c.mu.Unlock()

	debug.Log("playback", "player %s", ps)
	c.notify()
}

func (c *Controller) PositionChanged(ev PositionEvent) {
	c.mu.Lock()
	if c.score == nil {
		c.mu.Unlock()
		return
	}
	c.moveToLocked(ev.Tick)
	debug.LogEvery(100, "playback", "position tick=%d bar=%d beat=%d", ev.Tick, c.pos.Bar, c.pos.Beat)
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) PlayedBeatChanged(ev BeatEvent) {
	c.mu.Lock()
	if c.score == nil || ev.Track != c.track {
		c.mu.Unlock()
		return
	}
	c.showBeatLocked(ev.Beat.Bar, ev.Beat.Notes)
	c.scheduleDecayLocked()
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) ActiveBeatsChanged(ev ActiveBeatsEvent) {
	c.mu.Lock()
	if c.score == nil || ev.Track != c.track || len(ev.Beats) == 0 {
		c.mu.Unlock()
		return
	}
	c.active = nil
	for _, b := range ev.Beats {
		c.active = append(c.active, b.Notes...)
		// notes held over from an earlier bar ring but do not mark this one
		if b.Bar == c.footprintBar {
			c.addFootprintLocked(b.Notes)
		}
	}
	c.scheduleDecayLocked()
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) Error(err error) {
	debug.Log("playback", "engine error: %v", err)
	c.setStatus("error: %v", err)
}

// Transport. With a bus these go to every player in the sync group,
// including this one; without a bus they apply locally.

func (c *Controller) Play()  { c.dispatch(TransportCmd{Playing: true}) }
func (c *Controller) Pause() { c.dispatch(TransportCmd{Playing: false}) }
func (c *Controller) Stop()  { c.dispatch(StopCmd{}) }

// TogglePlay pauses when playing and plays otherwise
func (c *Controller) TogglePlay() {
	c.dispatch(TransportCmd{Playing: c.State() != StatePlaying})
}

func (c *Controller) SeekBar(bar int, autoplay bool) { c.dispatch(SeekBar(bar, autoplay)) }
func (c *Controller) SeekTick(tick int64, autoplay bool) {
	c.dispatch(SeekTick(tick, autoplay))
}
func (c *Controller) SeekPercent(p float64, autoplay bool) {
	c.dispatch(SeekPercent(p, autoplay))
}

func (c *Controller) dispatch(cmd Command) {
	if c.opts.Bus != nil && c.opts.SyncID != "" {
		c.opts.Bus.Publish(Message{SyncID: c.opts.SyncID, Origin: c.id, Command: cmd})
		return
	}
	c.apply(cmd)
}

func (c *Controller) onSync(msg Message) {
	c.apply(msg.Command)
}

// apply never holds the lock while calling the engine, which may call
// back into the handler synchronously.
func (c *Controller) apply(cmd Command) {
	switch cmd := cmd.(type) {
	case TransportCmd:
		if cmd.Playing {
			c.startPlayback()
		} else {
			c.engine.Pause()
		}
	case StopCmd:
		c.engine.Stop()
	case SeekCmd:
		tick, ok := c.resolveSeek(cmd)
		if !ok {
			if c.queueSeek(cmd) {
				c.setStatus("seek queued until the score is ready")
				return
			}
			c.setStatus("seek ignored: %v", ErrNoScore)
			return
		}
		c.engine.SeekTick(tick)
		c.mu.Lock()
		c.moveToLocked(tick)
		c.mu.Unlock()
		c.notify()
		if cmd.Autoplay {
			c.startPlayback()
		}
	default:
		debug.Log("playback", "unknown command %T", cmd)
	}
}

func (c *Controller) startPlayback() {
	c.mu.Lock()
	state := c.state
	switch {
	case state.canPlay():
	case state == StateScoreLoading || state == StateScoreLoaded:
		c.pendingPlay = true
		c.mu.Unlock()
		return
	case state == StatePlaying:
		c.mu.Unlock()
		return
	default:
		c.status = "nothing to play: " + ErrNoScore.Error()
		c.mu.Unlock()
		c.notify()
		return
	}
	c.mu.Unlock()

	if err := c.engine.Play(); err != nil {
		c.setStatus("play failed: %v", err)
	}
}

// queueSeek holds a seek that arrives while a score is still loading;
// the latest one wins.
func (c *Controller) queueSeek(cmd SeekCmd) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateScoreLoading && c.state != StateScoreLoaded {
		return false
	}
	if cmd.Bar == nil && cmd.Tick == nil && cmd.Percent == nil {
		return false
	}
	c.pendingSeek = &cmd
	return true
}

func (c *Controller) resolveSeek(cmd SeekCmd) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.score == nil {
		return 0, false
	}
	end := c.score.EndTick()
	switch {
	case cmd.Bar != nil:
		return c.score.BarStart(*cmd.Bar), true
	case cmd.Tick != nil:
		return max(0, min(*cmd.Tick, end)), true
	case cmd.Percent != nil:
		p := max(0, min(*cmd.Percent, 1))
		return int64(p * float64(end)), true
	}
	return 0, false
}

// Step mode walks the selected track beat by beat and leaves each beat's
// notes lit until the next step.

func (c *Controller) StepNext() { c.stepBy(1) }
func (c *Controller) StepPrev() { c.stepBy(-1) }

// StepGoto jumps to step i, clamped to the available steps
func (c *Controller) StepGoto(i int) {
	c.mu.Lock()
	if len(c.steps) == 0 {
		c.mu.Unlock()
		return
	}
	c.step = max(0, min(i, len(c.steps)-1))
	st := c.steps[c.step]
	c.mu.Unlock()
	c.gotoStep(st)
}

func (c *Controller) stepBy(delta int) {
	c.mu.Lock()
	if len(c.steps) == 0 {
		c.mu.Unlock()
		return
	}
	c.step = max(0, min(c.step+delta, len(c.steps)-1))
	st := c.steps[c.step]
	c.mu.Unlock()
	c.gotoStep(st)
}

func (c *Controller) gotoStep(st StepPos) {
	c.engine.SeekTick(st.Tick)

	c.mu.Lock()
	c.cancelDecayLocked()
	c.moveToLocked(st.Tick)
	if beat, ok := c.score.BeatAt(c.track, st.Tick); ok {
		c.showBeatLocked(beat.Bar, beat.Notes)
	}
	c.mu.Unlock()
	c.notify()
}

// SelectTrack switches the displayed track and re-derives its tuning
func (c *Controller) SelectTrack(i int) error {
	c.mu.Lock()
	if c.score == nil {
		c.mu.Unlock()
		return ErrNoScore
	}
	if i < 0 || i >= len(c.score.Tracks) {
		c.mu.Unlock()
		return fmt.Errorf("track %d out of range (have %d)", i, len(c.score.Tracks))
	}
	c.selectTrackLocked(i)
	c.mu.Unlock()
	c.notify()
	return nil
}

// SetLiveNotes shows notes from a live instrument. They stay lit until
// replaced, so no decay is scheduled.
func (c *Controller) SetLiveNotes(notes []overlay.Note) {
	c.mu.Lock()
	c.cancelDecayLocked()
	c.active = append([]overlay.Note(nil), notes...)
	c.mu.Unlock()
	c.notify()
}

// Snapshot copies the current view state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		ID:            c.id,
		State:         c.state,
		Status:        c.status,
		Position:      c.pos,
		Root:          c.root,
		KeyPreference: c.keyPref,
		KeyName:       c.keyName,
		Track:         c.track,
		Tuning:        c.tuning,
		StringCount:   c.tuning.Tuning.StringCount(),
		Active:        append([]overlay.Note(nil), c.active...),
		Footprint:     append([]overlay.Note(nil), c.footprint...),
		Chords:        c.roots.Track.Symbols(),
		Step:          c.step,
		Steps:         len(c.steps),
	}
	if c.score != nil {
		s.Title = c.score.Title
		s.BarCount = c.score.BarCount()
		s.EndTick = c.score.EndTick()
		if c.track < len(c.score.Tracks) {
			s.TrackName = c.score.Tracks[c.track].Name
		}
	}
	return s
}

// Helpers below must be called with c.mu held.

func (c *Controller) selectTrackLocked(i int) {
	if i < 0 || i >= len(c.score.Tracks) {
		i = firstTrackWithNotes(c.score)
	}
	c.track = i
	tr := c.score.Tracks[i]
	c.tuning = c.tuningLock.Resolve(fmt.Sprintf("%d:%s", i, tr.Name), tr.Name, tr.Tuning)
	c.steps = c.score.Steps(i)
	c.step = -1
	c.active = nil
	c.footprint = nil
}

func firstTrackWithNotes(s *Score) int {
	for i, tr := range s.Tracks {
		for _, b := range tr.Beats {
			if len(b.Notes) > 0 {
				return i
			}
		}
	}
	return 0
}

func (c *Controller) moveToLocked(tick int64) {
	bar := c.score.BarAt(tick)
	beat := 0
	if b, ok := c.score.BeatAt(c.track, tick); ok && b.Bar == bar {
		beat = b.Index
	}
	if bar != c.footprintBar {
		c.footprint = nil
		c.footprintBar = bar
	}
	c.pos = overlay.Position{Bar: bar, Beat: beat, Tick: tick}
	c.root = c.roots.Resolve(bar, beat)

	if sharps, minor, ok := c.score.KeyAt(bar); ok {
		c.keyPref = theory.KeyPreference(sharps)
		c.keyName = theory.KeyName(sharps, minor)
	} else if c.root.Valid() {
		c.keyPref = theory.DefaultConvention(c.root.Root, rootScale(c.root.Quality))
		c.keyName = ""
	}
}

// rootScale guesses major or minor from a chord quality
func rootScale(quality string) theory.ScaleType {
	if strings.HasPrefix(quality, "m") && !strings.HasPrefix(quality, "maj") {
		return theory.ScaleMinor
	}
	return theory.ScaleMajor
}

func (c *Controller) showBeatLocked(bar int, notes []overlay.Note) {
	if bar != c.footprintBar {
		c.footprint = nil
		c.footprintBar = bar
	}
	c.active = append([]overlay.Note(nil), notes...)
	c.addFootprintLocked(notes)
}

func (c *Controller) addFootprintLocked(notes []overlay.Note) {
	for _, n := range notes {
		if !containsNote(c.footprint, n) {
			c.footprint = append(c.footprint, n)
		}
	}
}

func containsNote(notes []overlay.Note, n overlay.Note) bool {
	for _, x := range notes {
		if x.String == n.String && x.Fret == n.Fret {
			return true
		}
	}
	return false
}

// scheduleDecayLocked clears the active notes after the decay window
// unless a newer beat arrives first.
func (c *Controller) scheduleDecayLocked() {
	c.cancelDecayLocked()
	gen := c.decayGen
	c.stopDecay = c.afterFunc(c.opts.Decay, func() { c.decay(gen) })
}

func (c *Controller) cancelDecayLocked() {
	c.decayGen++
	if c.stopDecay != nil {
		c.stopDecay()
		c.stopDecay = nil
	}
}

func (c *Controller) decay(gen uint64) {
	c.mu.Lock()
	if gen != c.decayGen {
		c.mu.Unlock()
		return
	}
	c.active = nil
	c.stopDecay = nil
	c.mu.Unlock()
	c.notify()
}
