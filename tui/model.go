package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/bep/debounce"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-fretboard/fretboard"
	"go-fretboard/overlay"
	"go-fretboard/playback"
	"go-fretboard/theme"
	"go-fretboard/widgets"
)

// seekDelay collapses a burst of bar seeks into one engine seek
const seekDelay = 150 * time.Millisecond

const (
	minSpeed = 0.25
	maxSpeed = 2.0
)

// Model is the bubbletea view of one playback controller
type Model struct {
	Ctrl  *playback.Controller
	Theme *theme.Theme

	base      overlay.Input
	fingering bool
	speed     float64
	keys      keyMap
	help      help.Model
	snap      playback.Snapshot
	seek      func(func())
	target    int
	quitting  bool
}

type UpdateMsg struct{}

// NewModel draws base (overlays, options, window) with the controller's
// playback state on top
func NewModel(ctrl *playback.Controller, base overlay.Input, th *theme.Theme) Model {
	if th == nil {
		th = theme.New(theme.Default())
	}
	if base.Options.Colors == (theme.LayerColors{}) {
		base.Options.Colors = th.Layers()
	}
	if base.Window == (fretboard.Window{}) {
		base.Window = fretboard.DefaultWindow
	}
	return Model{
		Ctrl:   ctrl,
		Theme:  th,
		base:   base,
		speed:  1,
		keys:   defaultKeys(),
		help:   help.New(),
		snap:   ctrl.Snapshot(),
		seek:   debounce.New(seekDelay),
		target: -1,
	}
}

// ListenForUpdates waits for the controller to change
func ListenForUpdates(ctrl *playback.Controller) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ctrl.Updates(); !ok {
			return nil
		}
		return UpdateMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return ListenForUpdates(m.Ctrl)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case UpdateMsg:
		m.snap = m.Ctrl.Snapshot()
		if m.target == m.snap.Position.Bar {
			m.target = -1
		}
		return m, ListenForUpdates(m.Ctrl)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.Ctrl.Stop()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Play):
		m.Ctrl.TogglePlay()

	case key.Matches(msg, m.keys.Stop):
		m.Ctrl.Stop()
		m.target = -1

	case key.Matches(msg, m.keys.PrevBar):
		m.seekBy(-1)

	case key.Matches(msg, m.keys.NextBar):
		m.seekBy(1)

	case key.Matches(msg, m.keys.PrevStep):
		m.Ctrl.StepPrev()

	case key.Matches(msg, m.keys.NextStep):
		m.Ctrl.StepNext()

	case key.Matches(msg, m.keys.Track):
		if err := m.Ctrl.SelectTrack(m.snap.Track + 1); err != nil {
			_ = m.Ctrl.SelectTrack(0)
		}

	case key.Matches(msg, m.keys.Labels):
		m.base.Options.Labels = m.base.Options.Labels.Next()

	case key.Matches(msg, m.keys.Intervals):
		m.base.Options.IntervalColors = !m.base.Options.IntervalColors

	case key.Matches(msg, m.keys.Extend):
		m.base.Options.Extensions = !m.base.Options.Extensions

	case key.Matches(msg, m.keys.Alternate):
		m.base.Options.AlternateBar = !m.base.Options.AlternateBar

	case key.Matches(msg, m.keys.Fingering):
		m.fingering = !m.fingering

	case key.Matches(msg, m.keys.Footprint):
		m.base.Options.HideFootprint = !m.base.Options.HideFootprint

	case key.Matches(msg, m.keys.Left):
		m.shiftWindow(-1)

	case key.Matches(msg, m.keys.Right):
		m.shiftWindow(1)

	case key.Matches(msg, m.keys.Slower):
		m.setSpeed(m.speed - 0.25)

	case key.Matches(msg, m.keys.Faster):
		m.setSpeed(m.speed + 0.25)

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	m.snap = m.Ctrl.Snapshot()
	return m, nil
}

// seekBy moves the pending seek target and lets the debouncer fire the
// actual seek once keys stop repeating
func (m *Model) seekBy(delta int) {
	if m.snap.BarCount == 0 {
		return
	}
	from := m.target
	if from < 0 {
		from = m.snap.Position.Bar
	}
	bar := min(max(from+delta, 0), m.snap.BarCount-1)
	m.target = bar
	ctrl := m.Ctrl
	m.seek(func() { ctrl.SeekBar(bar, false) })
}

func (m *Model) shiftWindow(delta int) {
	w := m.base.Window
	span := w.End - w.Start
	start := min(max(w.Start+delta, 0), fretboard.MaxFret-span)
	m.base.Window = fretboard.Window{Start: start, End: start + span}
}

func (m *Model) setSpeed(s float64) {
	s = min(max(s, minSpeed), maxSpeed)
	if s == m.speed {
		return
	}
	m.speed = s
	m.Ctrl.SetSpeed(s)
}

// Frame composes what the board currently shows
func (m Model) Frame() overlay.Frame {
	return overlay.Compose(m.input())
}

func (m Model) input() overlay.Input {
	in := m.snap.Input(m.base)
	if m.snap.BarCount == 0 && len(m.base.Tuning.Open) > 0 {
		in.Tuning = m.base.Tuning
		in.StringCount = m.base.Tuning.StringCount()
	}
	return in
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	warnStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	in := m.input()
	board := widgets.Board{
		Theme:      m.Theme,
		Tuning:     in.Tuning,
		Window:     in.Window,
		Convention: in.Options.KeyPreference,
		Fingering:  m.fingering,
	}

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(headerStyle.Render(m.header()))
	out.WriteString("\n")
	out.WriteString(dimStyle.Render(m.details()))
	out.WriteString("\n\n")
	out.WriteString(board.Render(overlay.Compose(in)))
	out.WriteString("\n\n")
	if in.Options.IntervalColors {
		out.WriteString(widgets.RenderIntervalLegend())
	} else {
		out.WriteString(widgets.RenderLayerLegend(m.Theme))
	}
	out.WriteString("\n")
	if m.snap.Status != "" {
		out.WriteString(warnStyle.Render(m.snap.Status))
		out.WriteString("\n")
	}
	out.WriteString(m.help.View(m.keys))
	return out.String()
}

func (m Model) header() string {
	sym := m.Theme.Symbols
	icon := string(sym.Paused)
	if m.snap.State == playback.StatePlaying {
		icon = string(sym.Playing)
	}
	title := m.snap.Title
	if title == "" {
		title = "go-fretboard"
	}
	if m.snap.BarCount == 0 {
		return fmt.Sprintf("%s  %s  %s", title, icon, m.snap.State)
	}
	bar := fmt.Sprintf("bar %d/%d", m.snap.Position.Bar+1, m.snap.BarCount)
	if m.target >= 0 && m.target != m.snap.Position.Bar {
		bar += fmt.Sprintf(" -> %d", m.target+1)
	}
	return fmt.Sprintf("%s  %s  %s  beat %d  %.0f%%", title, icon, bar, m.snap.Position.Beat+1, m.speed*100)
}

func (m Model) details() string {
	var parts []string
	if m.snap.KeyName != "" {
		parts = append(parts, "key "+m.snap.KeyName)
	}
	if r := m.snap.Root; r.Valid() {
		root := r.Root + r.Quality
		if r.Chord != "" {
			root = r.Chord
		}
		parts = append(parts, fmt.Sprintf("root %s (%s)", root, r.Source))
	}
	if m.snap.TrackName != "" {
		parts = append(parts, fmt.Sprintf("track %s [%s, %s]", m.snap.TrackName, m.snap.Tuning.Tuning.Name, m.snap.Tuning.Source))
	}
	if m.snap.Steps > 0 {
		parts = append(parts, fmt.Sprintf("step %d/%d", m.snap.Step+1, m.snap.Steps))
	}
	parts = append(parts, "labels "+m.base.Options.Labels.String())
	return strings.Join(parts, "  ")
}
