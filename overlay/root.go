package overlay

import (
	"sort"

	"go-fretboard/theory"
)

// RootSource says which rule produced the current root
type RootSource string

const (
	SourceNone       RootSource = ""
	SourceBeat       RootSource = "beat"
	SourceChordTrack RootSource = "chord-track"
	SourceBar        RootSource = "bar"
	SourceSticky     RootSource = "sticky"
)

// RootInfo is the harmonic root in force at a position
type RootInfo struct {
	Root    string     `json:"root"`
	Quality string     `json:"quality"`
	Chord   string     `json:"chord,omitempty"`
	Source  RootSource `json:"source,omitempty"`
}

// Valid reports whether a root is known
func (r RootInfo) Valid() bool { return r.Root != "" }

// FromSymbol builds a RootInfo from a parsed chord symbol
func FromSymbol(c theory.ChordSymbol, src RootSource) RootInfo {
	return RootInfo{Root: c.Root, Quality: c.Quality, Chord: c.Text, Source: src}
}

// BarBeat addresses one beat
type BarBeat struct {
	Bar  int
	Beat int
}

func (a BarBeat) before(b BarBeat) bool {
	if a.Bar != b.Bar {
		return a.Bar < b.Bar
	}
	return a.Beat < b.Beat
}

// Annotation is a text event attached to a beat in the score
type Annotation struct {
	Bar  int    `json:"bar"`
	Beat int    `json:"beat"`
	Tick int64  `json:"tick"`
	Text string `json:"text"`
}

type chordEntry struct {
	at   BarBeat
	info RootInfo
}

// ChordTrack is the chord annotations of a score, forward-filled so a
// chord stays in force until the next one.
type ChordTrack struct {
	entries []chordEntry
}

// BuildChordTrack keeps annotations that parse as chord symbols
func BuildChordTrack(anns []Annotation) *ChordTrack {
	ct := &ChordTrack{}
	for _, a := range anns {
		sym, ok := theory.ParseChordSymbol(a.Text)
		if !ok {
			continue
		}
		ct.entries = append(ct.entries, chordEntry{
			at:   BarBeat{Bar: a.Bar, Beat: a.Beat},
			info: FromSymbol(sym, SourceChordTrack),
		})
	}
	sort.SliceStable(ct.entries, func(i, j int) bool {
		return ct.entries[i].at.before(ct.entries[j].at)
	})
	return ct
}

// Len is the number of chord changes
func (c *ChordTrack) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// At returns the last chord at or before the position
func (c *ChordTrack) At(bar, beat int) (RootInfo, bool) {
	if c.Len() == 0 {
		return RootInfo{}, false
	}
	pos := BarBeat{Bar: bar, Beat: beat}
	i := sort.Search(len(c.entries), func(i int) bool {
		return pos.before(c.entries[i].at)
	})
	if i == 0 {
		return RootInfo{}, false
	}
	return c.entries[i-1].info, true
}

// Symbols lists the chord changes in order
func (c *ChordTrack) Symbols() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.info.Chord
	}
	return out
}

// RootResolver picks the current root. Priority: explicit per-beat roots,
// then the chord track, then explicit per-bar roots, then the last root seen.
type RootResolver struct {
	Beats map[BarBeat]RootInfo
	Track *ChordTrack
	Bars  map[int]RootInfo

	last RootInfo
}

// Resolve returns the root in force at bar/beat and remembers it
func (r *RootResolver) Resolve(bar, beat int) RootInfo {
	if info, ok := r.Beats[BarBeat{Bar: bar, Beat: beat}]; ok && info.Valid() {
		info.Source = SourceBeat
		return r.remember(info)
	}
	if info, ok := r.Track.At(bar, beat); ok {
		return r.remember(info)
	}
	if info, ok := r.Bars[bar]; ok && info.Valid() {
		info.Source = SourceBar
		return r.remember(info)
	}
	if r.last.Valid() {
		info := r.last
		info.Source = SourceSticky
		return info
	}
	return RootInfo{}
}

func (r *RootResolver) remember(info RootInfo) RootInfo {
	r.last = info
	return info
}

// Reset forgets the sticky root
func (r *RootResolver) Reset() {
	r.last = RootInfo{}
}
