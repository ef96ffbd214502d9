package midi

import (
	"sort"
	"time"
)

// defaultTempo is 120 bpm
const defaultTempo = 500000

type tempoChange struct {
	tick   int64
	micros int // per quarter note
	at     time.Duration
}

// tempoMap converts between ticks and wall time across tempo changes
type tempoMap struct {
	ppq     int
	changes []tempoChange
}

func newTempoMap(ppq int, changes []tempoChange) *tempoMap {
	sort.SliceStable(changes, func(i, j int) bool { return changes[i].tick < changes[j].tick })
	if len(changes) == 0 || changes[0].tick > 0 {
		changes = append([]tempoChange{{tick: 0, micros: defaultTempo}}, changes...)
	}
	// later changes at the same tick win
	merged := changes[:0]
	for _, c := range changes {
		if n := len(merged); n > 0 && merged[n-1].tick == c.tick {
			merged[n-1] = c
			continue
		}
		merged = append(merged, c)
	}
	m := &tempoMap{ppq: ppq, changes: merged}
	for i := 1; i < len(m.changes); i++ {
		prev := m.changes[i-1]
		m.changes[i].at = prev.at + m.span(m.changes[i].tick-prev.tick, prev.micros)
	}
	return m
}

func (m *tempoMap) span(ticks int64, micros int) time.Duration {
	return time.Duration(ticks * int64(micros) * int64(time.Microsecond) / int64(m.ppq))
}

// Time is the wall time at tick
func (m *tempoMap) Time(tick int64) time.Duration {
	i := sort.Search(len(m.changes), func(i int) bool { return m.changes[i].tick > tick }) - 1
	c := m.changes[max(i, 0)]
	return c.at + m.span(tick-c.tick, c.micros)
}

// Tick is the tick at wall time d
func (m *tempoMap) Tick(d time.Duration) int64 {
	i := sort.Search(len(m.changes), func(i int) bool { return m.changes[i].at > d }) - 1
	c := m.changes[max(i, 0)]
	return c.tick + int64(d-c.at)*int64(m.ppq)/(int64(c.micros)*int64(time.Microsecond))
}

// BPM is the tempo in force at tick
func (m *tempoMap) BPM(tick int64) float64 {
	i := sort.Search(len(m.changes), func(i int) bool { return m.changes[i].tick > tick }) - 1
	return 60e6 / float64(m.changes[max(i, 0)].micros)
}
