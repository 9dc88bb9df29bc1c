package tui

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/fretes/internal/freight"
	"github.com/sadopc/fretes/internal/rpc"
	"github.com/sadopc/fretes/internal/store"
)

// Backend is the set of remote actions the views use. *rpc.Client
// implements it.
type Backend interface {
	Login(ctx context.Context, email, pin string) (rpc.LoginResult, error)
	Init(ctx context.Context, auth *rpc.Auth) (rpc.InitResult, error)
	PendingEntries(ctx context.Context) ([]freight.Entry, error)
	ProcessPending(ctx context.Context, decisions []freight.Decision) (int, error)
	ManagerHistory(ctx context.Context) (rpc.History, error)
	ManagerReport(ctx context.Context) (freight.ManagerReport, error)
	AddClient(ctx context.Context, name string) error
	AddFleet(ctx context.Context, number string) error
	SaveDriverEntry(ctx context.Context, sub freight.Submission) (string, error)
	DriverEntries(ctx context.Context) (freight.Partitions, error)
}

// appState is shared by the App and every view. Only the App's login,
// logout and restore paths write the session.
type appState struct {
	api      Backend
	sessions *store.SessionStore
	user     freight.User
	lookups  freight.InitData
	now      func() time.Time
}

var errNoSession = errors.New("no stored session")

type phase int

const (
	phaseBooting phase = iota
	phaseLogin
	phaseWorkspace
)

type loginDoneMsg struct {
	result rpc.LoginResult
	err    error
}

type restoredMsg struct {
	token  string
	result rpc.InitResult
	err    error
}

// App is the root Bubble Tea model.
type App struct {
	state  *appState
	width  int
	height int

	phase     phase
	login     loginModel
	workspace workspace
	active    int

	scope    scope
	cancel   context.CancelFunc
	scopeSeq int

	spinner  spinner.Model
	help     help.Model
	showHelp bool
	status   string
	isError  bool
	notice   int
}

func NewApp(api Backend, sessions *store.SessionStore) App {
	h := help.New()
	h.ShowAll = false

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = highlightStyle

	st := &appState{api: api, sessions: sessions, now: time.Now}
	return App{
		state:   st,
		phase:   phaseBooting,
		login:   newLoginModel(st),
		scope:   background(),
		spinner: sp,
		help:    h,
	}
}

func (a App) Init() tea.Cmd {
	return a.restore()
}

// restore revalidates a stored session with the backend.
func (a App) restore() tea.Cmd {
	sess := a.state.sessions.Load()
	if sess == nil || sess.Token == "" {
		return func() tea.Msg { return restoredMsg{err: errNoSession} }
	}
	api := a.state.api
	auth := rpc.Auth{Token: sess.Token, Email: sess.User.Email}
	return tea.Batch(a.spinner.Tick, func() tea.Msg {
		res, err := api.Init(context.Background(), &auth)
		return restoredMsg{token: auth.Token, result: res, err: err}
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.login = a.login.resize(a.width, contentHeight)
		for i, t := range a.workspace.tabs {
			a.workspace.tabs[i] = t.resize(a.width, contentHeight)
		}
		return a, nil

	case statusMsg:
		a.status = msg.text
		a.isError = msg.isError
		a.notice++
		seq := a.notice
		return a, tea.Tick(noticeTTL, func(time.Time) tea.Msg { return clearStatusMsg{seq: seq} })

	case clearStatusMsg:
		if msg.seq == a.notice {
			a.status = ""
			a.isError = false
		}
		return a, nil

	case restoredMsg:
		return a.handleRestored(msg)

	case loginDoneMsg:
		return a.handleLogin(msg)

	case spinner.TickMsg:
		if a.phase != phaseBooting {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case scoped:
		if a.phase != phaseWorkspace || msg.scopeID() != a.scope.id {
			return a, nil
		}
		return a.updateActiveView(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		switch a.phase {
		case phaseBooting:
			if key.Matches(msg, keys.Quit) {
				return a, tea.Quit
			}
			return a, nil
		case phaseLogin:
			var cmd tea.Cmd
			a.login, cmd = a.login.update(msg)
			return a, cmd
		}

		// A view capturing input (text entry, form) gets every key.
		if a.isCapturing() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Logout):
			return a.logout()
		case key.Matches(msg, keys.Tab):
			return a.switchTab((a.active + 1) % len(a.workspace.tabs))
		case key.Matches(msg, keys.PrevTab):
			n := len(a.workspace.tabs)
			return a.switchTab((a.active + n - 1) % n)
		}
		for i, b := range []key.Binding{keys.Tab1, keys.Tab2, keys.Tab3, keys.Tab4, keys.Tab5} {
			if key.Matches(msg, b) && i < len(a.workspace.tabs) {
				return a.switchTab(i)
			}
		}
	}

	if a.phase == phaseLogin {
		var cmd tea.Cmd
		a.login, cmd = a.login.update(msg)
		return a, cmd
	}
	return a.updateActiveView(msg)
}

func (a App) handleRestored(msg restoredMsg) (tea.Model, tea.Cmd) {
	if a.phase != phaseBooting {
		return a, nil
	}
	if msg.err != nil {
		// A stale or rejected session falls back to the login view silently.
		if !errors.Is(msg.err, errNoSession) {
			log.Printf("session restore failed: %v", msg.err)
			if err := a.state.sessions.Clear(); err != nil {
				log.Printf("clear session: %v", err)
			}
		}
		a.phase = phaseLogin
		return a, a.login.start()
	}
	if err := a.state.sessions.Save(store.Session{Token: msg.token, User: msg.result.User}); err != nil {
		log.Printf("save session: %v", err)
	}
	a.state.user = msg.result.User
	a.state.lookups = msg.result.InitData
	return a.enterWorkspace()
}

func (a App) handleLogin(msg loginDoneMsg) (tea.Model, tea.Cmd) {
	if a.phase != phaseLogin {
		return a, nil
	}
	if msg.err != nil {
		var cmd tea.Cmd
		a.login, cmd = a.login.failed(rpc.Message(msg.err))
		return a, cmd
	}
	sess := store.Session{Token: msg.result.Token, User: msg.result.User}
	if err := a.state.sessions.Save(sess); err != nil {
		var cmd tea.Cmd
		a.login, cmd = a.login.failed("Não foi possível salvar a sessão: " + err.Error())
		return a, cmd
	}
	a.state.user = msg.result.User
	a.state.lookups = msg.result.InitData
	return a.enterWorkspace()
}

func (a App) enterWorkspace() (tea.Model, tea.Cmd) {
	a.phase = phaseWorkspace
	a.status = ""
	a.workspace = newWorkspace(a.state)
	contentHeight := a.height - 4
	for i, t := range a.workspace.tabs {
		a.workspace.tabs[i] = t.resize(a.width, contentHeight)
	}
	return a.switchTab(0)
}

// switchTab unmounts the current tab and mounts tab i under a new scope.
func (a App) switchTab(i int) (tea.Model, tea.Cmd) {
	if a.cancel != nil {
		a.cancel()
	}
	a.scopeSeq++
	ctx, cancel := context.WithCancel(context.Background())
	a.scope = scope{ctx: ctx, id: a.scopeSeq}
	a.cancel = cancel
	a.active = i

	var cmd tea.Cmd
	a.workspace.tabs[i], cmd = a.workspace.tabs[i].mount(a.scope)
	return a, cmd
}

func (a App) logout() (tea.Model, tea.Cmd) {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.scopeSeq++
	a.scope = background()
	if err := a.state.sessions.Clear(); err != nil {
		a.status = "Erro ao sair: " + err.Error()
		a.isError = true
		return a, nil
	}
	a.state.user = freight.User{}
	a.state.lookups = freight.InitData{}
	a.workspace = workspace{}
	a.active = 0
	a.phase = phaseLogin
	a.status = "Saiu do sistema."
	a.isError = false
	a.login = newLoginModel(a.state).resize(a.width, a.height-4)
	return a, a.login.start()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.phase != phaseWorkspace || len(a.workspace.tabs) == 0 {
		return a, nil
	}
	var cmd tea.Cmd
	a.workspace.tabs[a.active], cmd = a.workspace.tabs[a.active].update(msg)
	return a, cmd
}

func (a App) isCapturing() bool {
	if a.phase != phaseWorkspace || len(a.workspace.tabs) == 0 {
		return false
	}
	return a.workspace.tabs[a.active].capturing()
}

func (a App) View() string {
	if a.width == 0 {
		return "Carregando..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.phase {
	case phaseBooting:
		content = panelStyle.Width(a.width - 4).Render(a.spinner.View() + " Restaurando sessão...")
	case phaseLogin:
		content = a.login.view()
	default:
		content = a.workspace.tabs[a.active].view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	if a.phase == phaseWorkspace {
		for i, name := range a.workspace.titles() {
			if i == a.active {
				tabs = append(tabs, activeTabStyle.Render(name))
			} else {
				tabs = append(tabs, inactiveTabStyle.Render(name))
			}
		}
	}
	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("Ziran Fretes")
	if a.phase == phaseWorkspace && a.state.user.Name != "" {
		title += mutedStyle.Render("  " + a.state.user.Name)
	}
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	left := ""
	if a.phase == phaseWorkspace {
		left = footerStyle.Render(a.help.View(keys))
	}

	status := ""
	if a.status != "" {
		if a.isError {
			status = errorStyle.Render(" " + a.status)
		} else {
			status = mutedStyle.Render(" " + a.status)
		}
	}

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(status) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, status)
}
