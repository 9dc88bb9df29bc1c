package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

type loginModel struct {
	state  *appState
	width  int
	height int

	form  *huh.Form
	email *string
	pin   *string

	busy    bool
	message string
}

func newLoginModel(st *appState) loginModel {
	email, pin := "", ""
	l := loginModel{state: st, email: &email, pin: &pin}
	l.buildForm()
	return l
}

func (l loginModel) resize(w, h int) loginModel {
	l.width = w
	l.height = h
	return l
}

func (l loginModel) start() tea.Cmd {
	return l.form.Init()
}

func (l *loginModel) buildForm() {
	*l.pin = ""
	l.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("E-mail").Placeholder("nome@empresa.com").Value(l.email),
			huh.NewInput().Title("PIN (matrícula)").EchoMode(huh.EchoModePassword).Value(l.pin),
		),
	).WithShowHelp(false)
}

func (l loginModel) update(msg tea.Msg) (loginModel, tea.Cmd) {
	if l.busy {
		return l, nil
	}
	form, cmd := l.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		l.form = f
	}
	if l.form.State == huh.StateCompleted {
		return l.submit()
	}
	return l, cmd
}

func (l loginModel) submit() (loginModel, tea.Cmd) {
	email := strings.TrimSpace(*l.email)
	pin := strings.TrimSpace(*l.pin)
	switch {
	case email == "":
		return l.failed("Informe o e-mail.")
	case pin == "":
		return l.failed("Informe o PIN (matrícula).")
	}

	l.busy = true
	l.message = ""
	api := l.state.api
	return l, func() tea.Msg {
		res, err := api.Login(context.Background(), email, pin)
		return loginDoneMsg{result: res, err: err}
	}
}

// failed shows text and reopens the form with the PIN cleared.
func (l loginModel) failed(text string) (loginModel, tea.Cmd) {
	l.busy = false
	l.message = text
	l.buildForm()
	return l, l.form.Init()
}

func (l loginModel) view() string {
	w := l.width - 4
	if w > 60 {
		w = 60
	}

	var body string
	switch {
	case l.busy:
		body = mutedStyle.Render("Entrando...")
	default:
		body = l.form.View()
	}

	var msg string
	if l.message != "" {
		msg = errorStyle.Render(l.message)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Entrar"),
		subtitleStyle.Render("Acesso de gestores e motoristas"),
		"",
		body,
		"",
		msg,
	)
	return activePanelStyle.Width(w).Render(content)
}
