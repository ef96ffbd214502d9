package playback

import (
	"errors"
)

var (
	// ErrSynthUnavailable means the engine could not open its synth; the
	// controller retries without one.
	ErrSynthUnavailable = errors.New("synth unavailable")
	// ErrFetchFailed means every URL encoding strategy failed
	ErrFetchFailed = errors.New("score fetch failed")
	// ErrNoScore means there is nothing loaded to act on
	ErrNoScore = errors.New("no score loaded")
)

// PlayerState is the engine's transport state
type PlayerState int

const (
	PlayerStopped PlayerState = iota
	PlayerPlaying
	PlayerPaused
)

func (s PlayerState) String() string {
	switch s {
	case PlayerPlaying:
		return "playing"
	case PlayerPaused:
		return "paused"
	}
	return "stopped"
}

// EngineOptions configure an engine at init
type EngineOptions struct {
	// Synth names the output device; empty means silent
	Synth  string
	Volume float64
	Speed  float64
}

// PositionEvent reports the playback cursor
type PositionEvent struct {
	Tick    int64
	EndTick int64
}

// BeatEvent reports that a beat of one track has just sounded
type BeatEvent struct {
	Track int
	Beat  Beat
}

// ActiveBeatsEvent reports every beat currently sounding
type ActiveBeatsEvent struct {
	Track int
	Beats []Beat
}

// Handler receives engine callbacks. Engines may call it from any
// goroutine and must not hold their own locks while doing so, since a
// handler may call straight back into the engine.
type Handler interface {
	ScoreLoaded(s *Score)
	RenderFinished()
	PlayerReady()
	PlayerStateChanged(state PlayerState)
	PositionChanged(ev PositionEvent)
	PlayedBeatChanged(ev BeatEvent)
	ActiveBeatsChanged(ev ActiveBeatsEvent)
	Error(err error)
}

// Engine is a score player. Implementations must not call the handler
// while the caller is inside one of these methods and holding its locks;
// callbacks from Play/Stop etc. may arrive synchronously.
type Engine interface {
	SetHandler(h Handler)
	Init(opts EngineOptions) error
	Load(data []byte) error
	Play() error
	Pause()
	Stop()
	SeekTick(tick int64)
	SetSpeed(ratio float64)
	SetVolume(v float64)
	Close() error
}
