package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Play      key.Binding
	Stop      key.Binding
	PrevBar   key.Binding
	NextBar   key.Binding
	PrevStep  key.Binding
	NextStep  key.Binding
	Track     key.Binding
	Labels    key.Binding
	Intervals key.Binding
	Extend    key.Binding
	Alternate key.Binding
	Fingering key.Binding
	Footprint key.Binding
	Left      key.Binding
	Right     key.Binding
	Slower    key.Binding
	Faster    key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Play:      key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "play/pause")),
		Stop:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		PrevBar:   key.NewBinding(key.WithKeys("[", "pgup"), key.WithHelp("[", "prev bar")),
		NextBar:   key.NewBinding(key.WithKeys("]", "pgdown"), key.WithHelp("]", "next bar")),
		PrevStep:  key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h", "prev beat")),
		NextStep:  key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l", "next beat")),
		Track:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "next track")),
		Labels:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "labels")),
		Intervals: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "interval colors")),
		Extend:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "extensions")),
		Alternate: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "alternate bars")),
		Fingering: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fingering")),
		Footprint: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "bar footprint")),
		Left:      key.NewBinding(key.WithKeys("<", ","), key.WithHelp("<", "window down")),
		Right:     key.NewBinding(key.WithKeys(">", "."), key.WithHelp(">", "window up")),
		Slower:    key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "slower")),
		Faster:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "faster")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Stop, k.PrevBar, k.NextBar, k.Labels, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Play, k.Stop, k.PrevBar, k.NextBar, k.Slower, k.Faster},
		{k.PrevStep, k.NextStep, k.Track},
		{k.Labels, k.Intervals, k.Extend, k.Alternate, k.Fingering, k.Footprint},
		{k.Left, k.Right, k.Help, k.Quit},
	}
}
