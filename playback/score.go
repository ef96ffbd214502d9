package playback

import (
	"fmt"
	"sort"

	"go-fretboard/overlay"
)

// Score is the narrow, validated view of a loaded score the controller
// works from. Engines build one from whatever they parse.
type Score struct {
	Title           string      `json:"title"`
	TicksPerQuarter int         `json:"ticksPerQuarter"`
	MasterBars      []MasterBar `json:"masterBars"`
	Tracks          []Track     `json:"tracks"`
}

// MasterBar is bar-level metadata shared by all tracks
type MasterBar struct {
	Index       int   `json:"index"`
	Start       int64 `json:"start"`
	Duration    int64 `json:"duration"`
	Numerator   int   `json:"numerator"`
	Denominator int   `json:"denominator"`
	// KeySharps is the key signature, negative for flats
	KeySharps int  `json:"keySharps"`
	KeyMinor  bool `json:"keyMinor,omitempty"`
	HasKey    bool `json:"hasKey,omitempty"`
}

// End is the first tick after the bar
func (b MasterBar) End() int64 { return b.Start + b.Duration }

// Track is one instrument
type Track struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	// Tuning is open-string MIDI pitches, high to low, when the score has them
	Tuning []int  `json:"tuning,omitempty"`
	Beats  []Beat `json:"beats"`
}

// Beat is a group of notes struck together
type Beat struct {
	Bar      int            `json:"bar"`
	Index    int            `json:"index"`
	Tick     int64          `json:"tick"`
	Duration int64          `json:"duration"`
	Notes    []overlay.Note `json:"notes,omitempty"`
	Text     string         `json:"text,omitempty"`
}

// StepPos is one stop for step-through practice
type StepPos struct {
	Bar  int   `json:"bar"`
	Beat int   `json:"beat"`
	Tick int64 `json:"tick"`
}

// Validate drops malformed pieces and reports what it dropped. It returns
// an error only when nothing usable is left.
func (s *Score) Validate() ([]string, error) {
	var problems []string
	if s == nil {
		return nil, fmt.Errorf("%w: nil score", ErrNoScore)
	}
	if s.TicksPerQuarter <= 0 {
		problems = append(problems, fmt.Sprintf("ticks per quarter %d, using 960", s.TicksPerQuarter))
		s.TicksPerQuarter = 960
	}

	bars := s.MasterBars[:0]
	for _, b := range s.MasterBars {
		if b.Duration <= 0 || b.Numerator <= 0 || b.Denominator <= 0 {
			problems = append(problems, fmt.Sprintf("bar %d has no length", b.Index))
			continue
		}
		bars = append(bars, b)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Start < bars[j].Start })
	for i := range bars {
		bars[i].Index = i
	}
	s.MasterBars = bars
	if len(s.MasterBars) == 0 {
		return problems, fmt.Errorf("%w: no bars", ErrNoScore)
	}

	for ti := range s.Tracks {
		tr := &s.Tracks[ti]
		tr.Index = ti
		for bi := range tr.Beats {
			b := &tr.Beats[bi]
			b.Bar = s.BarAt(b.Tick)
			notes := b.Notes[:0]
			for _, n := range b.Notes {
				if n.String < 1 || n.Fret < 0 {
					problems = append(problems, fmt.Sprintf("track %d tick %d: bad note string %d fret %d", ti, b.Tick, n.String, n.Fret))
					continue
				}
				notes = append(notes, n)
			}
			b.Notes = notes
		}
		sort.SliceStable(tr.Beats, func(i, j int) bool { return tr.Beats[i].Tick < tr.Beats[j].Tick })
		indexBeats(tr.Beats)
	}
	if len(s.Tracks) == 0 {
		return problems, fmt.Errorf("%w: no tracks", ErrNoScore)
	}
	return problems, nil
}

// indexBeats numbers beats within each bar
func indexBeats(beats []Beat) {
	bar, n := -1, 0
	for i := range beats {
		if beats[i].Bar != bar {
			bar, n = beats[i].Bar, 0
		}
		beats[i].Index = n
		n++
	}
}

// BarCount is the number of bars
func (s *Score) BarCount() int { return len(s.MasterBars) }

// EndTick is the tick just after the last bar
func (s *Score) EndTick() int64 {
	if len(s.MasterBars) == 0 {
		return 0
	}
	return s.MasterBars[len(s.MasterBars)-1].End()
}

// BarAt finds the bar containing tick, clamped to the score
func (s *Score) BarAt(tick int64) int {
	n := len(s.MasterBars)
	if n == 0 {
		return 0
	}
	i := sort.Search(n, func(i int) bool { return s.MasterBars[i].Start > tick })
	if i == 0 {
		return 0
	}
	return i - 1
}

// BarStart is the first tick of a bar, clamped to the score
func (s *Score) BarStart(bar int) int64 {
	if len(s.MasterBars) == 0 {
		return 0
	}
	bar = max(0, min(bar, len(s.MasterBars)-1))
	return s.MasterBars[bar].Start
}

// BeatAt returns the last beat of a track starting at or before tick
func (s *Score) BeatAt(track int, tick int64) (Beat, bool) {
	if track < 0 || track >= len(s.Tracks) {
		return Beat{}, false
	}
	beats := s.Tracks[track].Beats
	i := sort.Search(len(beats), func(i int) bool { return beats[i].Tick > tick })
	if i == 0 {
		return Beat{}, false
	}
	return beats[i-1], true
}

// KeyAt returns the key signature in force at a bar
func (s *Score) KeyAt(bar int) (sharps int, minor bool, ok bool) {
	for i := min(bar, len(s.MasterBars)-1); i >= 0; i-- {
		if b := s.MasterBars[i]; b.HasKey {
			return b.KeySharps, b.KeyMinor, true
		}
	}
	return 0, false, false
}

// Annotations collects beat text across every track
func (s *Score) Annotations() []overlay.Annotation {
	var out []overlay.Annotation
	for _, tr := range s.Tracks {
		for _, b := range tr.Beats {
			if b.Text != "" {
				out = append(out, overlay.Annotation{Bar: b.Bar, Beat: b.Index, Tick: b.Tick, Text: b.Text})
			}
		}
	}
	return out
}

// BarNotes returns every note a track plays in one bar
func (s *Score) BarNotes(track, bar int) []overlay.Note {
	if track < 0 || track >= len(s.Tracks) {
		return nil
	}
	var out []overlay.Note
	for _, b := range s.Tracks[track].Beats {
		if b.Bar == bar {
			out = append(out, b.Notes...)
		}
	}
	return out
}

// Steps lists the beats of a track that carry notes, for step mode
func (s *Score) Steps(track int) []StepPos {
	if track < 0 || track >= len(s.Tracks) {
		return nil
	}
	var out []StepPos
	for _, b := range s.Tracks[track].Beats {
		if len(b.Notes) > 0 {
			out = append(out, StepPos{Bar: b.Bar, Beat: b.Index, Tick: b.Tick})
		}
	}
	return out
}
