package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/fretes/internal/freight"
	"github.com/sadopc/fretes/internal/rpc"
)

type registryDataMsg struct {
	reply
	data freight.InitData
	err  error
}

type registrySavedMsg struct {
	reply
	kind string
	err  error
}

const (
	registerClient = "cliente"
	registerFleet  = "frota"
)

// registryModel is the manager's Cadastros tab: new clients, new fleets and
// the read-only user list.
type registryModel struct {
	state  *appState
	sc     scope
	width  int
	height int

	users  []freight.User
	cursor int

	form     *huh.Form
	formType string
	value    *string

	busy    bool
	loading bool
	message string
	isError bool
}

func newRegistryModel(st *appState) *registryModel {
	v := ""
	return &registryModel{state: st, sc: background(), value: &v}
}

func (r *registryModel) title() string { return "Cadastros" }

func (r *registryModel) mount(sc scope) (tab, tea.Cmd) {
	r.sc = sc
	r.form = nil
	r.busy = false
	return r, r.load()
}

func (r *registryModel) resize(w, h int) tab {
	r.width = w
	r.height = h
	return r
}

func (r *registryModel) capturing() bool { return r.form != nil }

// load refreshes the lookups, including the user list.
func (r *registryModel) load() tea.Cmd {
	r.loading = true
	api, sc := r.state.api, r.sc
	return func() tea.Msg {
		res, err := api.Init(sc.ctx, nil)
		return registryDataMsg{reply: sc.reply(), data: res.InitData, err: err}
	}
}

func (r *registryModel) update(msg tea.Msg) (tab, tea.Cmd) {
	switch msg := msg.(type) {
	case registryDataMsg:
		r.loading = false
		if msg.err != nil {
			r.message, r.isError = rpc.Message(msg.err), true
			return r, nil
		}
		r.state.lookups = msg.data
		r.users = msg.data.Users
		if r.cursor >= len(r.users) {
			r.cursor = max(0, len(r.users)-1)
		}
		return r, nil

	case registrySavedMsg:
		r.busy = false
		if msg.err != nil {
			r.message, r.isError = rpc.Message(msg.err), true
			return r, nil
		}
		if msg.kind == registerClient {
			r.message = "Cliente adicionado."
		} else {
			r.message = "Frota adicionada."
		}
		r.isError = false
		return r, r.load()

	case tea.KeyMsg:
		if r.form != nil {
			return r.updateForm(msg)
		}
		switch {
		case key.Matches(msg, keys.Up):
			if r.cursor > 0 {
				r.cursor--
			}
		case key.Matches(msg, keys.Down):
			if r.cursor < len(r.users)-1 {
				r.cursor++
			}
		case key.Matches(msg, keys.NewClient):
			if !r.busy {
				return r, r.openForm(registerClient)
			}
		case key.Matches(msg, keys.NewFleet):
			if !r.busy {
				return r, r.openForm(registerFleet)
			}
		case key.Matches(msg, keys.Reload):
			if !r.loading {
				return r, r.load()
			}
		}
		return r, nil
	}

	if r.form != nil {
		return r.updateForm(msg)
	}
	return r, nil
}

func (r *registryModel) openForm(kind string) tea.Cmd {
	*r.value = ""
	r.formType = kind
	r.message = ""

	title := "Nome do cliente"
	if kind == registerFleet {
		title = "Número da frota"
	}
	r.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title(title).Value(r.value),
		),
	)
	return r.form.Init()
}

func (r *registryModel) updateForm(msg tea.Msg) (tab, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		r.form = nil
		return r, nil
	}

	form, cmd := r.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		r.form = f
	}
	if r.form.State == huh.StateCompleted {
		r.form = nil
		return r, r.save()
	}
	return r, cmd
}

func (r *registryModel) save() tea.Cmd {
	v := strings.TrimSpace(*r.value)
	kind := r.formType
	if v == "" {
		r.isError = true
		if kind == registerClient {
			r.message = "Informe o nome do cliente."
		} else {
			r.message = "Informe a frota."
		}
		return nil
	}

	r.busy = true
	api, sc := r.state.api, r.sc
	return func() tea.Msg {
		var err error
		if kind == registerClient {
			err = api.AddClient(sc.ctx, v)
		} else {
			err = api.AddFleet(sc.ctx, v)
		}
		return registrySavedMsg{reply: sc.reply(), kind: kind, err: err}
	}
}

func (r *registryModel) view() string {
	w := r.width - 4

	if r.form != nil {
		title := "Novo cliente"
		if r.formType == registerFleet {
			title = "Nova frota"
		}
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", r.form.View())
		return panelStyle.Width(w).Render(content)
	}

	lk := r.state.lookups
	summary := mutedStyle.Render("  ") +
		highlightStyle.Render(strconv.Itoa(len(lk.Clients))) + mutedStyle.Render(" clientes  ") +
		highlightStyle.Render(strconv.Itoa(len(lk.Fleets))) + mutedStyle.Render(" frotas  ") +
		highlightStyle.Render(strconv.Itoa(len(r.users))) + mutedStyle.Render(" usuários")

	parts := []string{titleStyle.Render("Cadastros"), summary, ""}
	switch {
	case r.loading && len(r.users) == 0:
		parts = append(parts, mutedStyle.Render("  Carregando..."))
	case len(r.users) == 0:
		parts = append(parts, mutedStyle.Render("  Nenhum usuário cadastrado."))
	default:
		parts = append(parts, r.renderUsers(w))
	}

	parts = append(parts, "", mutedStyle.Render("  n: novo cliente  f: nova frota  u: atualizar"))
	if m := renderMessage(r.message, r.isError); m != "" {
		parts = append(parts, m)
	}
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (r *registryModel) renderUsers(w int) string {
	header := mutedStyle.Render("  " + cell("Nome", 24) + " " + cell("Email", 30) + " " +
		cell("Perfil", 10) + " " + cell("Ativo", 5) + " " + cell("Frota padrão", 12))
	out := []string{header, mutedStyle.Render("  " + strings.Repeat("─", max(0, min(w-6, 85))))}

	start, end := window(len(r.users), r.cursor, max(3, r.height-12))
	for i := start; i < end; i++ {
		u := r.users[i]
		active := "Sim"
		if !u.IsActive() {
			active = "Não"
		}
		cursor := "  "
		style := normalItemStyle
		if i == r.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		out = append(out, style.Render(cursor+cell(u.Name, 24)+" "+cell(u.Email, 30)+" "+
			cell(string(u.Role()), 10)+" "+cell(active, 5)+" "+cell(u.DefaultFleet, 12)))
	}
	return strings.Join(out, "\n")
}
