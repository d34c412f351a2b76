package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the browse bindings. It satisfies help.KeyMap.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Search   key.Binding
	Category key.Binding
	Pricing  key.Binding
	Platform key.Binding
	Sort     key.Binding
	Clear    key.Binding
	Prev     key.Binding
	Next     key.Binding
	First    key.Binding
	Last     key.Binding
	Back     key.Binding
	Forward  key.Binding
	Retry    key.Binding
	Debug    key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Category: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "category")),
	Pricing:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pricing")),
	Platform: key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "platform")),
	Sort:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
	Clear:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear filters")),
	Prev:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev page")),
	Next:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next page")),
	First:    key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first page")),
	Last:     key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "last page")),
	Back:     key.NewBinding(key.WithKeys("<", "backspace"), key.WithHelp("<", "back")),
	Forward:  key.NewBinding(key.WithKeys(">"), key.WithHelp(">", "forward")),
	Retry:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
	Debug:    key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "debug")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Category, k.Pricing, k.Clear, k.Prev, k.Next, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Search},
		{k.Category, k.Pricing, k.Platform, k.Sort, k.Clear},
		{k.Prev, k.Next, k.First, k.Last},
		{k.Back, k.Forward, k.Retry, k.Debug, k.Quit},
	}
}
