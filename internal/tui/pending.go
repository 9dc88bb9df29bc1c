package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/fretes/internal/freight"
	"github.com/sadopc/fretes/internal/money"
	"github.com/sadopc/fretes/internal/rpc"
)

type pendingDataMsg struct {
	reply
	entries []freight.Entry
	err     error
}

type processedMsg struct {
	reply
	count int
	err   error
}

// pendingModel is the manager approval queue.
type pendingModel struct {
	state  *appState
	sc     scope
	width  int
	height int

	sheet  *freight.ApprovalSheet
	cursor int

	search    textinput.Model
	searching bool
	note      textinput.Model
	noting    bool

	loading bool
	busy    bool
	message string
	isError bool
}

func newPendingModel(st *appState) *pendingModel {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "buscar por motorista, cliente, frota, tipo..."

	note := textinput.New()
	note.Prompt = "Obs.: "
	note.CharLimit = freight.NoteLimit

	return &pendingModel{
		state:  st,
		sc:     background(),
		sheet:  freight.NewApprovalSheet(nil),
		search: search,
		note:   note,
	}
}

func (p *pendingModel) title() string { return "Pendentes" }

func (p *pendingModel) mount(sc scope) (tab, tea.Cmd) {
	p.sc = sc
	p.busy = false
	return p, p.load()
}

func (p *pendingModel) resize(w, h int) tab {
	p.width = w
	p.height = h
	p.search.Width = max(10, w-12)
	p.note.Width = max(10, w-14)
	return p
}

func (p *pendingModel) capturing() bool { return p.searching || p.noting }

func (p *pendingModel) load() tea.Cmd {
	p.loading = true
	api, sc := p.state.api, p.sc
	return func() tea.Msg {
		entries, err := api.PendingEntries(sc.ctx)
		return pendingDataMsg{reply: sc.reply(), entries: entries, err: err}
	}
}

func (p *pendingModel) visible() []freight.Entry {
	return p.sheet.Visible()
}

// current returns the entry under the cursor.
func (p *pendingModel) current() (freight.Entry, bool) {
	rows := p.visible()
	if p.cursor < 0 || p.cursor >= len(rows) {
		return freight.Entry{}, false
	}
	return rows[p.cursor], true
}

func (p *pendingModel) clampCursor() {
	n := len(p.visible())
	if p.cursor >= n {
		p.cursor = n - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

func (p *pendingModel) update(msg tea.Msg) (tab, tea.Cmd) {
	switch msg := msg.(type) {
	case pendingDataMsg:
		p.loading = false
		if msg.err != nil {
			p.message, p.isError = rpc.Message(msg.err), true
			return p, nil
		}
		p.sheet = freight.NewApprovalSheet(msg.entries)
		p.sheet.SetQuery(p.search.Value())
		p.clampCursor()
		return p, nil

	case processedMsg:
		p.busy = false
		if msg.err != nil {
			p.message, p.isError = rpc.Message(msg.err), true
			return p, nil
		}
		p.message, p.isError = fmt.Sprintf("Processados: %d", msg.count), false
		return p, p.load()

	case tea.KeyMsg:
		switch {
		case p.searching:
			return p.updateSearch(msg)
		case p.noting:
			return p.updateNote(msg)
		}
		return p.handleKey(msg)
	}
	return p, nil
}

func (p *pendingModel) updateSearch(msg tea.KeyMsg) (tab, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter":
		p.searching = false
		p.search.Blur()
		return p, nil
	}
	var cmd tea.Cmd
	p.search, cmd = p.search.Update(msg)
	p.sheet.SetQuery(p.search.Value())
	p.clampCursor()
	return p, cmd
}

func (p *pendingModel) updateNote(msg tea.KeyMsg) (tab, tea.Cmd) {
	switch msg.String() {
	case "esc":
		p.noting = false
		p.note.Blur()
		return p, nil
	case "enter":
		if e, ok := p.current(); ok {
			p.sheet.SetObservation(e.Row, p.note.Value())
		}
		p.noting = false
		p.note.Blur()
		return p, nil
	}
	var cmd tea.Cmd
	p.note, cmd = p.note.Update(msg)
	return p, cmd
}

func (p *pendingModel) handleKey(msg tea.KeyMsg) (tab, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(msg, keys.Down):
		if p.cursor < len(p.visible())-1 {
			p.cursor++
		}
	case key.Matches(msg, keys.Toggle):
		if e, ok := p.current(); ok {
			p.sheet.Toggle(e.Row)
		}
	case key.Matches(msg, keys.Approve):
		if e, ok := p.current(); ok {
			p.sheet.SetDecision(e.Row, freight.StatusApproved)
		}
	case key.Matches(msg, keys.Reject):
		if e, ok := p.current(); ok {
			p.sheet.SetDecision(e.Row, freight.StatusRejected)
		}
	case key.Matches(msg, keys.Clear):
		if e, ok := p.current(); ok {
			p.sheet.SetDecision(e.Row, "")
		}
	case key.Matches(msg, keys.Note):
		if e, ok := p.current(); ok {
			p.note.SetValue(p.sheet.Observation(e.Row))
			p.noting = true
			return p, p.note.Focus()
		}
	case key.Matches(msg, keys.Search):
		p.searching = true
		return p, p.search.Focus()
	case key.Matches(msg, keys.Back):
		if p.search.Value() != "" {
			p.search.SetValue("")
			p.sheet.SetQuery("")
			p.clampCursor()
		}
	case key.Matches(msg, keys.Process):
		return p.process()
	case key.Matches(msg, keys.Reload):
		if !p.loading {
			p.message = ""
			return p, p.load()
		}
	}
	return p, nil
}

// process sends the decided rows of the visible selection.
func (p *pendingModel) process() (tab, tea.Cmd) {
	if p.busy {
		return p, nil
	}
	batch, err := p.sheet.Batch()
	if err != nil {
		p.message, p.isError = rpc.Message(err), true
		return p, nil
	}
	p.busy = true
	p.message, p.isError = "Processando...", false
	api, sc := p.state.api, p.sc
	return p, func() tea.Msg {
		n, err := api.ProcessPending(sc.ctx, batch)
		return processedMsg{reply: sc.reply(), count: n, err: err}
	}
}

func (p *pendingModel) view() string {
	w := p.width - 4
	rows := p.visible()

	title := titleStyle.Render("Pendentes de aprovação")
	count := mutedStyle.Render(fmt.Sprintf("  %d de %d", len(rows), p.sheet.Len()))
	parts := []string{lipgloss.JoinHorizontal(lipgloss.Bottom, title, count), ""}

	if p.searching || p.search.Value() != "" {
		parts = append(parts, p.search.View(), "")
	}

	switch {
	case p.loading && p.sheet.Len() == 0:
		parts = append(parts, mutedStyle.Render("  Carregando..."))
	case len(rows) == 0:
		parts = append(parts, mutedStyle.Render("  Nenhum pendente."))
	default:
		parts = append(parts, p.renderTable(rows, w))
	}

	if n := p.sheet.Undecided(); n > 0 {
		parts = append(parts, "", warningStyle.Render(fmt.Sprintf("  %d selecionado(s) sem decisão", n)))
	}
	if p.noting {
		parts = append(parts, "", p.note.View())
	}
	parts = append(parts, "",
		mutedStyle.Render("  space: selecionar  a/r: aprovar/reprovar  x: limpar  o: obs.  p: processar  /: buscar  u: atualizar"),
	)
	if m := renderMessage(p.message, p.isError); m != "" {
		parts = append(parts, m)
	}

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (p *pendingModel) renderTable(rows []freight.Entry, w int) string {
	obsW := max(8, w-4-3-11-17-17-9-13-14-11-8)
	header := mutedStyle.Render("  " + cell("", 3) + " " +
		cell("Data", 10) + " " + cell("Motorista", 16) + " " + cell("Cliente", 16) + " " +
		cell("Frota", 8) + " " + cell("Tipo", 12) + " " + rightCell("Valor", 13) + " " +
		cell("Decisão", 10) + " " + cell("Obs.", obsW))

	out := []string{header, mutedStyle.Render("  " + strings.Repeat("─", max(0, min(w-6, 120))))}

	start, end := window(len(rows), p.cursor, max(3, p.height-12))
	for i := start; i < end; i++ {
		e := rows[i]
		check := "[ ]"
		if p.sheet.IsSelected(e.Row) {
			check = "[x]"
		}
		decision := mutedStyle.Render(cell("—", 10))
		switch p.sheet.Decision(e.Row) {
		case freight.StatusApproved:
			decision = approvedBadgeStyle.Render(cell("APROVAR", 10))
		case freight.StatusRejected:
			decision = rejectedBadgeStyle.Render(cell("REPROVAR", 10))
		}
		obs := p.sheet.Observation(e.Row)
		if obs == "" {
			obs = e.Note
		}

		cursor := "  "
		style := normalItemStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		line := style.Render(cursor+check+" "+
			cell(money.FormatDate(e.Date), 10)+" "+cell(e.Driver, 16)+" "+cell(e.Client, 16)+" "+
			cell(e.Fleet, 8)+" "+cell(e.Type, 12)+" "+rightCell(money.FormatMoney(e.Value.Decimal), 13)+" ") +
			decision + style.Render(" "+cell(obs, obsW))
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
