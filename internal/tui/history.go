package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/sadopc/fretes/internal/export"
	"github.com/sadopc/fretes/internal/freight"
	"github.com/sadopc/fretes/internal/money"
	"github.com/sadopc/fretes/internal/rpc"
)

type historyDataMsg struct {
	reply
	history rpc.History
	err     error
}

type exportDoneMsg struct {
	reply
	path string
	err  error
}

// historyModel lists approved or rejected entries for a manager.
type historyModel struct {
	state  *appState
	sc     scope
	kind   export.Kind
	width  int
	height int

	entries []freight.Entry
	cursor  int

	search    textinput.Model
	searching bool

	form   *huh.Form
	format *string

	loading bool
	message string
	isError bool
}

func newHistoryModel(st *appState, kind export.Kind) *historyModel {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "buscar..."
	format := string(export.FormatCSV)
	return &historyModel{
		state:  st,
		sc:     background(),
		kind:   kind,
		search: search,
		format: &format,
	}
}

func (h *historyModel) title() string {
	if h.kind == export.KindRejected {
		return "Reprovados"
	}
	return "Aprovados"
}

func (h *historyModel) mount(sc scope) (tab, tea.Cmd) {
	h.sc = sc
	h.form = nil
	return h, h.load()
}

func (h *historyModel) resize(w, hh int) tab {
	h.width = w
	h.height = hh
	h.search.Width = max(10, w-12)
	return h
}

func (h *historyModel) capturing() bool { return h.searching || h.form != nil }

func (h *historyModel) load() tea.Cmd {
	h.loading = true
	api, sc := h.state.api, h.sc
	return func() tea.Msg {
		hist, err := api.ManagerHistory(sc.ctx)
		return historyDataMsg{reply: sc.reply(), history: hist, err: err}
	}
}

func (h *historyModel) visible() []freight.Entry {
	return freight.FilterEntries(h.entries, h.search.Value())
}

func (h *historyModel) noteOf(e freight.Entry) string {
	if h.kind == export.KindRejected {
		return e.Justification
	}
	if e.ManagerNote != "" {
		return e.ManagerNote
	}
	return e.Note
}

func (h *historyModel) update(msg tea.Msg) (tab, tea.Cmd) {
	switch msg := msg.(type) {
	case historyDataMsg:
		h.loading = false
		if msg.err != nil {
			h.message, h.isError = rpc.Message(msg.err), true
			return h, nil
		}
		if h.kind == export.KindRejected {
			h.entries = msg.history.Rejected
		} else {
			h.entries = msg.history.Approved
		}
		h.cursor = min(h.cursor, max(0, len(h.visible())-1))
		return h, nil

	case exportDoneMsg:
		if msg.err != nil {
			return h, notify("Falha ao exportar: "+msg.err.Error(), true)
		}
		return h, notify("Exportado para "+msg.path, false)

	case tea.KeyMsg:
		if h.form != nil {
			return h.updateForm(msg)
		}
		if h.searching {
			switch msg.String() {
			case "esc", "enter":
				h.searching = false
				h.search.Blur()
				return h, nil
			}
			var cmd tea.Cmd
			h.search, cmd = h.search.Update(msg)
			h.cursor = 0
			return h, cmd
		}
		return h.handleKey(msg)
	}

	if h.form != nil {
		return h.updateForm(msg)
	}
	return h, nil
}

func (h *historyModel) handleKey(msg tea.KeyMsg) (tab, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if h.cursor > 0 {
			h.cursor--
		}
	case key.Matches(msg, keys.Down):
		if h.cursor < len(h.visible())-1 {
			h.cursor++
		}
	case key.Matches(msg, keys.Search):
		h.searching = true
		return h, h.search.Focus()
	case key.Matches(msg, keys.Back):
		h.search.SetValue("")
		h.cursor = 0
	case key.Matches(msg, keys.Export):
		if len(h.visible()) == 0 {
			h.message, h.isError = "Nada para exportar.", true
			return h, nil
		}
		return h, h.openExport()
	case key.Matches(msg, keys.Reload):
		if !h.loading {
			h.message = ""
			return h, h.load()
		}
	}
	return h, nil
}

func (h *historyModel) openExport() tea.Cmd {
	opts := make([]huh.Option[string], len(export.Formats))
	for i, f := range export.Formats {
		opts[i] = huh.NewOption(strings.ToUpper(string(f)), string(f))
	}
	h.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Formato").Options(opts...).Value(h.format),
		),
	)
	return h.form.Init()
}

func (h *historyModel) updateForm(msg tea.Msg) (tab, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		h.form = nil
		return h, nil
	}

	form, cmd := h.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		h.form = f
	}
	if h.form.State == huh.StateCompleted {
		h.form = nil
		return h, h.export(export.Format(*h.format))
	}
	return h, cmd
}

// export writes the currently visible rows.
func (h *historyModel) export(format export.Format) tea.Cmd {
	rows := h.visible()
	kind, sc, now := h.kind, h.sc, h.state.now()
	return func() tea.Msg {
		path, err := export.DefaultPath(kind, format, now)
		if err == nil {
			err = export.Write(format, kind, rows, path)
		}
		return exportDoneMsg{reply: sc.reply(), path: path, err: err}
	}
}

func (h *historyModel) total(rows []freight.Entry) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range rows {
		sum = sum.Add(e.Value.Decimal)
	}
	return sum
}

func (h *historyModel) view() string {
	w := h.width - 4

	if h.form != nil {
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Exportar "+strings.ToLower(h.title())), "", h.form.View(),
		)
		return panelStyle.Width(w).Render(content)
	}

	rows := h.visible()
	parts := []string{titleStyle.Render("Histórico: " + h.title()), ""}
	if h.searching || h.search.Value() != "" {
		parts = append(parts, h.search.View(), "")
	}

	switch {
	case h.loading && len(h.entries) == 0:
		parts = append(parts, mutedStyle.Render("  Carregando..."))
	case len(rows) == 0:
		parts = append(parts, mutedStyle.Render("  "+emptyEntries))
	default:
		parts = append(parts, h.renderTable(rows, w), "",
			titleStyle.Render(fmt.Sprintf("  Total: %s", money.FormatMoney(h.total(rows))))+
				mutedStyle.Render(fmt.Sprintf("  (%d lançamentos)", len(rows))),
		)
	}

	parts = append(parts, "", mutedStyle.Render("  /: buscar  e: exportar  u: atualizar  esc: limpar busca"))
	if m := renderMessage(h.message, h.isError); m != "" {
		parts = append(parts, m)
	}
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (h *historyModel) renderTable(rows []freight.Entry, w int) string {
	noteTitle := "Obs."
	if h.kind == export.KindRejected {
		noteTitle = "Justificativa"
	}
	noteW := max(8, w-6-11-8-19-19-15-14-10)
	fallback := freight.StatusApproved
	if h.kind == export.KindRejected {
		fallback = freight.StatusRejected
	}

	header := mutedStyle.Render("  " + cell("Data", 10) + " " + cell("AnoMes", 7) + " " +
		cell("Motorista", 18) + " " + cell("Cliente", 18) + " " + cell("Tipo", 14) + " " +
		rightCell("Valor", 13) + " " + cell("Status", 9) + " " + cell(noteTitle, noteW))
	out := []string{header, mutedStyle.Render("  " + strings.Repeat("─", max(0, min(w-6, 110))))}

	start, end := window(len(rows), h.cursor, max(3, h.height-12))
	for i := start; i < end; i++ {
		e := rows[i]
		cursor := "  "
		style := normalItemStyle
		if i == h.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		out = append(out, style.Render(cursor+
			cell(money.FormatDate(e.Date), 10)+" "+cell(e.PeriodKey(), 7)+" "+
			cell(e.Driver, 18)+" "+cell(e.Client, 18)+" "+cell(e.Type, 14)+" "+
			rightCell(money.FormatMoney(e.Value.Decimal), 13)+" ")+
			cell(statusBadge(entryStatus(e, fallback)), 9)+style.Render(" "+cell(h.noteOf(e), noteW)))
	}
	return strings.Join(out, "\n")
}
