package midi

import (
	"context"
	"io"
	"sync"
	"time"

	"go-fretboard/debug"
	"go-fretboard/fretboard"
	"go-fretboard/overlay"
)

// DeviceEvent is emitted when the watched input connects or disconnects
type DeviceEvent struct {
	Type DeviceEventType
	ID   string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

func (t DeviceEventType) String() string {
	if t == DeviceConnected {
		return "connected"
	}
	return "disconnected"
}

// InputWatcher keeps a LiveInput attached to the first input port
// matching a name, reopening it when the device is plugged back in.
type InputWatcher struct {
	name    string
	tuning  fretboard.Tuning
	onNotes func([]overlay.Note)

	pollRate time.Duration
	list     func() ([]string, error)
	open     func(port string) (io.Closer, error)

	mu     sync.Mutex
	port   string
	input  io.Closer
	events chan DeviceEvent
}

// NewInputWatcher watches for an input port containing name
func NewInputWatcher(name string, t fretboard.Tuning, onNotes func([]overlay.Note)) *InputWatcher {
	w := &InputWatcher{
		name:     name,
		tuning:   t,
		onNotes:  onNotes,
		pollRate: time.Second,
		events:   make(chan DeviceEvent, 16),
	}
	w.list = func() ([]string, error) {
		ins, _, err := Ports(portTimeout)
		return ins, err
	}
	w.open = func(port string) (io.Closer, error) {
		in, err := FindIn(port, portTimeout)
		if err != nil {
			return nil, err
		}
		return NewLiveInput(in, w.tuning, w.onNotes)
	}
	return w
}

// Events reports connects and disconnects; closed when Run returns
func (w *InputWatcher) Events() <-chan DeviceEvent {
	return w.events
}

// Port is the connected port name, empty when none
func (w *InputWatcher) Port() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.port
}

// Run polls until ctx is done (blocking - run in goroutine)
func (w *InputWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollRate)
	defer ticker.Stop()

	w.scan()
	for {
		select {
		case <-ctx.Done():
			w.close()
			close(w.events)
			return
		case <-ticker.C:
			w.scan()
		}
	}
}

func (w *InputWatcher) scan() {
	ports, err := w.list()
	if err != nil {
		// a hung scan keeps the current connection
		return
	}

	var match string
	for _, p := range ports {
		if matchPort(p, w.name) {
			match = p
			break
		}
	}

	w.mu.Lock()
	current := w.port
	w.mu.Unlock()

	switch {
	case current != "" && match != current:
		w.close()
		// drop whatever was held when the cable came out
		if w.onNotes != nil {
			w.onNotes(nil)
		}
		w.emit(DeviceEvent{Type: DeviceDisconnected, ID: current})
		if match != "" {
			w.connect(match)
		}
	case current == "" && match != "":
		w.connect(match)
	}
}

func (w *InputWatcher) connect(port string) {
	in, err := w.open(port)
	if err != nil {
		debug.Log("midi", "open input %q: %v", port, err)
		return
	}
	w.mu.Lock()
	w.port = port
	w.input = in
	w.mu.Unlock()
	debug.Log("midi", "input %q connected", port)
	w.emit(DeviceEvent{Type: DeviceConnected, ID: port})
}

func (w *InputWatcher) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.input != nil {
		w.input.Close()
	}
	w.input = nil
	w.port = ""
}

func (w *InputWatcher) emit(ev DeviceEvent) {
	select {
	case w.events <- ev:
	default:
		debug.Log("midi", "device event dropped: %s %s", ev.Type, ev.ID)
	}
}
