package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Tab1      key.Binding
	Tab2      key.Binding
	Tab3      key.Binding
	Tab4      key.Binding
	Tab5      key.Binding
	Tab       key.Binding
	PrevTab   key.Binding
	Reload    key.Binding
	Search    key.Binding
	Toggle    key.Binding
	Approve   key.Binding
	Reject    key.Binding
	Clear     key.Binding
	Note      key.Binding
	Process   key.Binding
	Export    key.Binding
	NewClient key.Binding
	NewFleet  key.Binding
	Edit      key.Binding
	Submit    key.Binding
	PrevMonth key.Binding
	NextMonth key.Binding
	Logout    key.Binding
	Help      key.Binding
	Enter     key.Binding
	Back      key.Binding
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	Quit      key.Binding
}

var keys = keyMap{
	Tab1: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1-5", "aba"),
	),
	Tab2: key.NewBinding(key.WithKeys("2")),
	Tab3: key.NewBinding(key.WithKeys("3")),
	Tab4: key.NewBinding(key.WithKeys("4")),
	Tab5: key.NewBinding(key.WithKeys("5")),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "próxima aba"),
	),
	PrevTab: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "aba anterior"),
	),
	Reload: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "atualizar"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "buscar"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "selecionar"),
	),
	Approve: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "aprovar"),
	),
	Reject: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reprovar"),
	),
	Clear: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "limpar decisão"),
	),
	Note: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "observação"),
	),
	Process: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "processar"),
	),
	Export: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "exportar"),
	),
	NewClient: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "novo cliente"),
	),
	NewFleet: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "nova frota"),
	),
	Edit: key.NewBinding(
		key.WithKeys("i", "enter"),
		key.WithHelp("i", "editar"),
	),
	Submit: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "enviar"),
	),
	PrevMonth: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "mês anterior"),
	),
	NextMonth: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "próximo mês"),
	),
	Logout: key.NewBinding(
		key.WithKeys("L"),
		key.WithHelp("L", "sair"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "ajuda"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "confirmar"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "voltar"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "subir"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "descer"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "esquerda"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "direita"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "fechar"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Reload, k.Help, k.Logout, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab1, k.Tab, k.PrevTab, k.Reload},
		{k.Toggle, k.Approve, k.Reject, k.Clear, k.Note, k.Process},
		{k.Search, k.Export, k.NewClient, k.NewFleet, k.PrevMonth, k.NextMonth},
		{k.Up, k.Down, k.Enter, k.Back, k.Logout, k.Quit},
	}
}
