package midi

import (
	"fmt"
	"sort"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-fretboard/fretboard"
	"go-fretboard/overlay"
)

// LiveInput turns notes held on a MIDI instrument into fretted notes
type LiveInput struct {
	tuning   fretboard.Tuning
	onNotes  func([]overlay.Note)
	stopFunc func()

	mu   sync.Mutex
	held map[int]bool
}

func newLiveInput(t fretboard.Tuning, onNotes func([]overlay.Note)) *LiveInput {
	return &LiveInput{tuning: t, onNotes: onNotes, held: make(map[int]bool)}
}

// NewLiveInput listens on inPort and calls onNotes whenever the set of
// held notes changes
func NewLiveInput(inPort drivers.In, t fretboard.Tuning, onNotes func([]overlay.Note)) (*LiveInput, error) {
	li := newLiveInput(t, onNotes)
	stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
		li.handle(msg)
	})
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	li.stopFunc = stop
	return li, nil
}

func (li *LiveInput) handle(msg gomidi.Message) {
	var channel, key, velocity uint8
	li.mu.Lock()
	switch {
	case msg.GetNoteOn(&channel, &key, &velocity) && velocity > 0:
		li.held[int(key)] = true
	case msg.GetNoteOn(&channel, &key, &velocity), msg.GetNoteOff(&channel, &key, &velocity):
		delete(li.held, int(key))
	default:
		li.mu.Unlock()
		return
	}
	notes := li.notesLocked()
	li.mu.Unlock()

	if li.onNotes != nil {
		li.onNotes(notes)
	}
}

func (li *LiveInput) notesLocked() []overlay.Note {
	pitches := make([]int, 0, len(li.held))
	for p := range li.held {
		pitches = append(pitches, p)
	}
	positions, _ := fretboard.Assign(li.tuning, pitches)

	notes := make([]overlay.Note, 0, len(positions))
	for _, pos := range positions {
		notes = append(notes, overlay.Note{String: pos.String, Fret: pos.Fret})
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].String < notes[j].String })
	return notes
}

func (li *LiveInput) Close() error {
	if li.stopFunc != nil {
		li.stopFunc()
	}
	return nil
}
