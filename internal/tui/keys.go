package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all dashboard key bindings with built-in help text.
type KeyMap struct {
	// Global
	Quit      key.Binding
	ForceQuit key.Binding
	Help      key.Binding
	NextPage  key.Binding

	// Playback
	PlayPause key.Binding
	StepBack  key.Binding
	StepFwd   key.Binding
	Reset     key.Binding
	Faster    key.Binding
	Slower    key.Binding
	SeekTenth key.Binding
	Start     key.Binding
	End       key.Binding

	// Milestones
	Up   key.Binding
	Down key.Binding
	Jump key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "force quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch page"),
		),

		PlayPause: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "play/pause"),
		),
		StepBack: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "prev milestone"),
		),
		StepFwd: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next milestone"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset"),
		),
		Faster: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "faster"),
		),
		Slower: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "slower"),
		),
		SeekTenth: key.NewBinding(
			key.WithKeys("0", "1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("0-9", "seek to n×10%"),
		),
		Start: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("home", "seek to start"),
		),
		End: key.NewBinding(
			key.WithKeys("end"),
			key.WithHelp("end", "seek to end"),
		),

		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "select prev"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "select next"),
		),
		Jump: key.NewBinding(
			key.WithKeys("g", "enter"),
			key.WithHelp("g/enter", "jump to selected"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PlayPause, k.StepBack, k.StepFwd, k.Reset, k.NextPage, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PlayPause, k.Reset, k.Faster, k.Slower},
		{k.StepBack, k.StepFwd, k.SeekTenth, k.Start, k.End},
		{k.Up, k.Down, k.Jump},
		{k.NextPage, k.Help, k.Quit, k.ForceQuit},
	}
}
