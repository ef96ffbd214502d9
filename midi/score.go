package midi

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gitlab.com/gomidi/midi/v2/smf"

	"go-fretboard/debug"
	"go-fretboard/fretboard"
	"go-fretboard/overlay"
	"go-fretboard/playback"
)

// ErrNotSMF means the bytes are not a standard MIDI file
var ErrNotSMF = errors.New("not a standard midi file")

// maxBars stops a corrupt end-of-track from generating millions of bars
const maxBars = 10000

// rawNote is a sounding note as it appears in the file
type rawNote struct {
	track    int
	channel  uint8
	key      uint8
	velocity uint8
	on, off  int64
}

type bendEvent struct {
	tick    int64
	channel uint8
	value   int
}

type textEvent struct {
	tick int64
	text string
}

type sigChange struct {
	tick     int64
	num, den int
}

type keyChange struct {
	tick   int64
	sharps int
	minor  bool
}

type parsedTrack struct {
	name  string
	notes []rawNote
	bends []bendEvent
	texts []textEvent
}

// Song is a parsed standard MIDI file: the score the controller sees plus
// the timing and raw notes the engine plays back.
type Song struct {
	Score *playback.Score
	tempo *tempoMap
	notes []rawNote
}

// Parse reads a standard MIDI file into a Song. Title is used when the
// file does not name itself.
func Parse(data []byte, title string) (song *Song, err error) {
	// the smf reader can panic on truncated input
	defer func() {
		if r := recover(); r != nil {
			song, err = nil, fmt.Errorf("%w: %v", ErrNotSMF, r)
		}
	}()

	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotSMF, err)
	}

	ppq := 480
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok && mt > 0 {
		ppq = int(mt)
	} else {
		debug.Log("midi", "time format %v is not metric, assuming %d ppq", s.TimeFormat, ppq)
	}

	var (
		tracks []parsedTrack
		tempos []tempoChange
		sigs   []sigChange
		keys   []keyChange
		end    int64
	)
	for ti, tr := range s.Tracks {
		pt := parsedTrack{}
		open := map[[2]uint8][]int{}
		var tick int64

		for _, ev := range tr {
			tick += int64(ev.Delta)
			end = max(end, tick)
			raw := []byte(ev.Message)

			var ch, key, vel uint8
			switch {
			case ev.Message.GetNoteOn(&ch, &key, &vel) && vel > 0:
				id := [2]uint8{ch, key}
				open[id] = append(open[id], len(pt.notes))
				pt.notes = append(pt.notes, rawNote{track: ti, channel: ch, key: key, velocity: vel, on: tick, off: -1})
			case ev.Message.GetNoteOn(&ch, &key, &vel), ev.Message.GetNoteOff(&ch, &key, &vel):
				id := [2]uint8{ch, key}
				if q := open[id]; len(q) > 0 {
					pt.notes[q[0]].off = tick
					open[id] = q[1:]
				}
			default:
				if ch, v, ok := parsePitchBend(raw); ok {
					pt.bends = append(pt.bends, bendEvent{tick: tick, channel: ch, value: v})
					continue
				}
				typ, payload, ok := parseMeta(raw)
				if !ok {
					continue
				}
				switch typ {
				case MetaTrackName:
					pt.name = strings.TrimSpace(string(payload))
				case MetaText, MetaMarker:
					if t := strings.TrimSpace(string(payload)); t != "" {
						pt.texts = append(pt.texts, textEvent{tick: tick, text: t})
					}
				case MetaTempo:
					if us, ok := tempoMicros(payload); ok && us > 0 {
						tempos = append(tempos, tempoChange{tick: tick, micros: us})
					}
				case MetaTimeSig:
					if num, den, ok := timeSig(payload); ok {
						sigs = append(sigs, sigChange{tick: tick, num: num, den: den})
					}
				case MetaKeySig:
					if sharps, minor, ok := keySig(payload); ok {
						keys = append(keys, keyChange{tick: tick, sharps: sharps, minor: minor})
					}
				}
			}
		}
		for i := range pt.notes {
			if pt.notes[i].off < 0 {
				pt.notes[i].off = tick
			}
		}
		tracks = append(tracks, pt)
	}

	song = &Song{tempo: newTempoMap(ppq, tempos)}
	for _, pt := range tracks {
		song.notes = append(song.notes, pt.notes...)
	}
	sort.SliceStable(song.notes, func(i, j int) bool { return song.notes[i].on < song.notes[j].on })

	score := &playback.Score{
		Title:           title,
		TicksPerQuarter: ppq,
		MasterBars:      buildBars(ppq, sigs, keys, end),
	}
	if len(tracks) > 0 && !hasPitched(tracks[0]) && tracks[0].name != "" {
		score.Title = tracks[0].name
	}

	// text on tracks without notes (usually the conductor) goes to the
	// first fretted track
	var orphanTexts []textEvent
	for _, pt := range tracks {
		if !hasPitched(pt) {
			orphanTexts = append(orphanTexts, pt.texts...)
		}
	}
	for _, pt := range tracks {
		if !hasPitched(pt) {
			continue
		}
		texts := pt.texts
		if len(score.Tracks) == 0 {
			texts = append(texts, orphanTexts...)
		}
		score.Tracks = append(score.Tracks, buildTrack(pt, texts))
	}
	song.Score = score

	debug.Log("midi", "parsed %q: ppq=%d tracks=%d bars=%d notes=%d", score.Title, ppq, len(score.Tracks), len(score.MasterBars), len(song.notes))
	return song, nil
}

func hasPitched(pt parsedTrack) bool {
	for _, n := range pt.notes {
		if n.channel != DrumChannel {
			return true
		}
	}
	return false
}

func buildBars(ppq int, sigs []sigChange, keys []keyChange, end int64) []playback.MasterBar {
	sort.SliceStable(sigs, func(i, j int) bool { return sigs[i].tick < sigs[j].tick })
	sort.SliceStable(keys, func(i, j int) bool { return keys[i].tick < keys[j].tick })

	var bars []playback.MasterBar
	num, den := 4, 4
	var key keyChange
	hasKey := false
	si, ki := 0, 0
	for start := int64(0); (start < end || len(bars) == 0) && len(bars) < maxBars; {
		for ; si < len(sigs) && sigs[si].tick <= start; si++ {
			num, den = sigs[si].num, sigs[si].den
		}
		for ; ki < len(keys) && keys[ki].tick <= start; ki++ {
			key, hasKey = keys[ki], true
		}
		dur := max(int64(ppq*4*num/den), 1)
		bars = append(bars, playback.MasterBar{
			Index:       len(bars),
			Start:       start,
			Duration:    dur,
			Numerator:   num,
			Denominator: den,
			KeySharps:   key.sharps,
			KeyMinor:    key.minor,
			HasKey:      hasKey,
		})
		start += dur
	}
	return bars
}

// buildTrack groups a track's pitched notes into beats and fingers them
func buildTrack(pt parsedTrack, texts []textEvent) playback.Track {
	tuning := fretboard.DeriveTuning(pt.name, nil).Tuning
	tr := playback.Track{Name: pt.name}

	byTick := map[int64][]rawNote{}
	var ticks []int64
	for _, n := range pt.notes {
		if n.channel == DrumChannel {
			continue
		}
		if _, ok := byTick[n.on]; !ok {
			ticks = append(ticks, n.on)
		}
		byTick[n.on] = append(byTick[n.on], n)
	}
	textAt := map[int64][]string{}
	for _, t := range texts {
		if _, ok := byTick[t.tick]; !ok {
			if _, seen := textAt[t.tick]; !seen {
				ticks = append(ticks, t.tick)
			}
		}
		textAt[t.tick] = append(textAt[t.tick], t.text)
	}
	sort.Slice(ticks, func(i, j int) bool { return ticks[i] < ticks[j] })

	type ringing struct {
		pitch int
		off   int64
	}
	lastOnString := map[int]ringing{}
	dropped := 0

	for _, tick := range ticks {
		group := byTick[tick]
		beat := playback.Beat{Tick: tick, Text: strings.Join(textAt[tick], " ")}

		pitches := make([]int, len(group))
		for i, n := range group {
			pitches[i] = int(n.key)
			beat.Duration = max(beat.Duration, n.off-n.on)
		}
		positions, lost := fretboard.Assign(tuning, pitches)
		dropped += len(lost)

		seen := map[int]bool{}
		for _, n := range group {
			pitch := int(n.key)
			pos, ok := positions[pitch]
			if !ok || seen[pitch] {
				continue
			}
			seen[pitch] = true
			note := overlay.Note{String: pos.String, Fret: pos.Fret, Bend: noteBend(pt.bends, n)}
			if prev, ok := lastOnString[pos.String]; ok && prev.off > tick && prev.pitch != pitch {
				note.Legato = overlay.LegatoPull
				if pitch > prev.pitch {
					note.Legato = overlay.LegatoHammer
				}
			}
			lastOnString[pos.String] = ringing{pitch: pitch, off: n.off}
			beat.Notes = append(beat.Notes, note)
		}
		sort.Slice(beat.Notes, func(i, j int) bool { return beat.Notes[i].String < beat.Notes[j].String })
		tr.Beats = append(tr.Beats, beat)
	}
	if dropped > 0 {
		debug.Log("midi", "track %q: %d notes outside %s", pt.name, dropped, tuning)
	}
	return tr
}

// noteBend summarises the pitch bends on a note's channel while it sounds
func noteBend(bends []bendEvent, n rawNote) *overlay.Bend {
	at, peak, last := 0, 0, 0
	moved := false
	for _, b := range bends {
		if b.channel != n.channel || b.tick >= n.off {
			continue
		}
		if b.tick <= n.on {
			at = b.value
			continue
		}
		moved = true
		last = b.value
		if abs(b.value) > abs(peak) {
			peak = b.value
		}
	}
	if !moved {
		last = at
	}
	if abs(at) > abs(peak) {
		peak = at
	}
	if peak == 0 {
		return nil
	}
	return &overlay.Bend{
		Semitones: math.Round(bendSemitones(peak)*4) / 4,
		Prebend:   at != 0,
		Release:   abs(last) < abs(peak),
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
