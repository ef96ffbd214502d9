package playback

import (
	"sync"

	"go-fretboard/debug"
)

// Command is a transport instruction shared between synchronized players
type Command interface {
	Kind() string
}

// TransportCmd starts or pauses playback
type TransportCmd struct {
	Playing bool `json:"playing"`
}

// StopCmd stops playback and rewinds
type StopCmd struct{}

// SeekCmd moves the cursor. Exactly one target should be set; Bar wins
// over Tick, Tick over Percent.
type SeekCmd struct {
	Bar      *int     `json:"bar,omitempty"`
	Tick     *int64   `json:"tick,omitempty"`
	Percent  *float64 `json:"percent,omitempty"`
	Autoplay bool     `json:"autoplay,omitempty"`
}

func (TransportCmd) Kind() string { return "transport" }
func (StopCmd) Kind() string      { return "stop" }
func (SeekCmd) Kind() string      { return "seek" }

// SeekBar builds a seek to the start of a bar
func SeekBar(bar int, autoplay bool) SeekCmd {
	return SeekCmd{Bar: &bar, Autoplay: autoplay}
}

// SeekTick builds a seek to an absolute tick
func SeekTick(tick int64, autoplay bool) SeekCmd {
	return SeekCmd{Tick: &tick, Autoplay: autoplay}
}

// SeekPercent builds a seek to a fraction (0-1) of the score
func SeekPercent(p float64, autoplay bool) SeekCmd {
	return SeekCmd{Percent: &p, Autoplay: autoplay}
}

// Message is a command addressed to a sync group
type Message struct {
	SyncID  string
	Origin  string
	Command Command
}

type subscriber struct {
	id int
	fn func(Message)
}

// Bus fans transport commands out to every player sharing a sync ID.
// Delivery is synchronous, in subscription order, and includes the
// publisher itself.
type Bus struct {
	mu     sync.RWMutex
	groups map[string][]subscriber
	nextID int
}

func NewBus() *Bus {
	return &Bus{groups: make(map[string][]subscriber)}
}

// Subscribe registers fn for a sync group and returns its cancel func
func (b *Bus) Subscribe(syncID string, fn func(Message)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.groups[syncID] = append(b.groups[syncID], subscriber{id: id, fn: fn})
	debug.Log("sync", "subscribe %d to %q (%d members)", id, syncID, len(b.groups[syncID]))

	return func() { b.unsubscribe(syncID, id) }
}

func (b *Bus) unsubscribe(syncID string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.groups[syncID]
	for i, s := range subs {
		if s.id == id {
			b.groups[syncID] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.groups[syncID]) == 0 {
		delete(b.groups, syncID)
	}
}

// Publish delivers msg to every subscriber of its group
func (b *Bus) Publish(msg Message) {
	b.mu.RLock()
	subs := append([]subscriber(nil), b.groups[msg.SyncID]...)
	b.mu.RUnlock()

	debug.Log("sync", "%s from %s to %d in %q", msg.Command.Kind(), msg.Origin, len(subs), msg.SyncID)
	for _, s := range subs {
		s.fn(msg)
	}
}

// Members counts subscribers in a group
func (b *Bus) Members(syncID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.groups[syncID])
}
