package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/fretes/internal/freight"
	"github.com/sadopc/fretes/internal/money"
	"github.com/sadopc/fretes/internal/rpc"
)

type myEntriesDataMsg struct {
	reply
	parts freight.Partitions
	err   error
}

var subTabs = []freight.Status{freight.StatusPending, freight.StatusApproved, freight.StatusRejected}

// myEntriesModel is the driver's Meus lançamentos tab.
type myEntriesModel struct {
	state  *appState
	sc     scope
	width  int
	height int

	parts   freight.Partitions
	totals  freight.MonthlyTotals
	sub     int
	period  string
	cursor  int
	loaded  bool
	loading bool
	message string

	chart barchart.Model
}

func newMyEntriesModel(st *appState) *myEntriesModel {
	return &myEntriesModel{
		state: st,
		sc:    background(),
		chart: barchart.New(60, 10),
	}
}

func (m *myEntriesModel) title() string { return "Meus lançamentos" }

func (m *myEntriesModel) mount(sc scope) (tab, tea.Cmd) {
	m.sc = sc
	return m, m.load()
}

func (m *myEntriesModel) resize(w, h int) tab {
	m.width = w
	m.height = h
	if m.loaded {
		m.buildChart()
	}
	return m
}

func (m *myEntriesModel) capturing() bool { return false }

func (m *myEntriesModel) load() tea.Cmd {
	m.loading = true
	api, sc := m.state.api, m.sc
	return func() tea.Msg {
		parts, err := api.DriverEntries(sc.ctx)
		return myEntriesDataMsg{reply: sc.reply(), parts: parts, err: err}
	}
}

func (m *myEntriesModel) status() freight.Status { return subTabs[m.sub] }

func (m *myEntriesModel) rows() []freight.Entry { return m.parts.Of(m.status()) }

func (m *myEntriesModel) update(msg tea.Msg) (tab, tea.Cmd) {
	switch msg := msg.(type) {
	case myEntriesDataMsg:
		m.loading = false
		if msg.err != nil {
			m.message = rpc.Message(msg.err)
			return m, nil
		}
		m.message = ""
		m.parts = msg.parts
		m.totals = freight.SummarizeMonthly(msg.parts.Approved)
		m.period = m.totals.Latest(m.state.now())
		m.loaded = true
		m.cursor = 0
		m.buildChart()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			m.sub = (m.sub + len(subTabs) - 1) % len(subTabs)
			m.cursor = 0
		case key.Matches(msg, keys.Right):
			m.sub = (m.sub + 1) % len(subTabs)
			m.cursor = 0
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.rows())-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.PrevMonth):
			m.shiftPeriod(-1)
		case key.Matches(msg, keys.NextMonth):
			m.shiftPeriod(1)
		case key.Matches(msg, keys.Reload):
			if !m.loading {
				return m, m.load()
			}
		}
	}
	return m, nil
}

// shiftPeriod moves the selected month among the periods with data.
func (m *myEntriesModel) shiftPeriod(delta int) {
	periods := m.totals.Periods()
	if len(periods) == 0 {
		return
	}
	idx := len(periods) - 1
	for i, p := range periods {
		if p == m.period {
			idx = i
			break
		}
	}
	idx += delta
	if idx < 0 || idx >= len(periods) {
		return
	}
	m.period = periods[idx]
	m.buildChart()
}

func (m *myEntriesModel) buildChart() {
	w := m.width - 8
	if w < 20 {
		w = 20
	}
	m.chart = barchart.New(w, 10)

	var bars []barchart.BarData
	for _, pt := range m.totals.Recent(m.period, freight.RecentPeriods) {
		style := barAltStyle
		if pt.Period == m.period {
			style = barStyle
		}
		bars = append(bars, barchart.BarData{
			Label: shortPeriod(pt.Period),
			Values: []barchart.BarValue{{
				Name:  pt.Period,
				Value: pt.Total.InexactFloat64(),
				Style: style,
			}},
		})
	}
	m.chart.PushAll(bars)
	m.chart.Draw()
}

func (m *myEntriesModel) view() string {
	w := m.width - 4

	var tabs []string
	for i, s := range subTabs {
		label := fmt.Sprintf("%s (%d)", subTabLabel(s), len(m.parts.Of(s)))
		if i == m.sub {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}
	parts := []string{
		lipgloss.JoinHorizontal(lipgloss.Bottom, titleStyle.Render("Meus lançamentos"), "  ",
			lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)),
		"",
	}

	switch {
	case !m.loaded && m.message == "":
		parts = append(parts, mutedStyle.Render("  Carregando..."))
	case !m.loaded:
	default:
		if m.status() == freight.StatusApproved {
			parts = append(parts, m.renderSummary(), "")
		}
		rows := m.rows()
		if len(rows) == 0 {
			parts = append(parts, mutedStyle.Render("  "+emptyEntries))
		} else {
			parts = append(parts, m.renderTable(rows, w))
		}
	}

	hint := "  ←/→: status  u: atualizar"
	if m.status() == freight.StatusApproved {
		hint = "  ←/→: status  [/]: mês  u: atualizar"
	}
	parts = append(parts, "", mutedStyle.Render(hint))
	if m.message != "" {
		parts = append(parts, errorStyle.Render("  "+m.message))
	}
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func subTabLabel(s freight.Status) string {
	switch s {
	case freight.StatusApproved:
		return "Aprovados"
	case freight.StatusRejected:
		return "Reprovados"
	}
	return "Pendentes"
}

func (m *myEntriesModel) renderSummary() string {
	k := m.totals.KPI(m.period)
	varStyle := successStyle
	if k.Variance < 0 {
		varStyle = errorStyle
	}
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		kpiCard("Aprovado (mês)", money.FormatMoney(k.Current), shortPeriod(k.Period)),
		kpiCard("Mês anterior", money.FormatMoney(k.Previous), shortPeriod(k.PreviousPeriod)),
		kpiStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			mutedStyle.Render("Variação"),
			varStyle.Bold(true).Render(k.VarianceLabel),
			subtitleStyle.Render("vs. mês anterior"),
		)),
	)
	if len(m.totals.Periods()) == 0 {
		return cards
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards, "", m.chart.View())
}

func (m *myEntriesModel) renderTable(rows []freight.Entry, w int) string {
	noteTitle := "Obs."
	if m.status() == freight.StatusRejected {
		noteTitle = "Justificativa"
	}
	noteW := max(8, w-6-11-17-9-15-14-24-10)

	header := mutedStyle.Render("  " + cell("Data", 10) + " " + cell("Cliente", 16) + " " +
		cell("Frota", 8) + " " + cell("Tipo", 14) + " " + rightCell("Valor", 13) + " " +
		cell("Status", 9) + " " + cell("Containers", 23) + " " + cell(noteTitle, noteW))
	out := []string{header, mutedStyle.Render("  " + strings.Repeat("─", max(0, min(w-6, 110))))}

	start, end := window(len(rows), m.cursor, max(3, m.height-24))
	for i := start; i < end; i++ {
		e := rows[i]
		note := e.Note
		switch {
		case m.status() == freight.StatusRejected:
			note = e.Justification
		case e.ManagerNote != "":
			note = e.ManagerNote
		}
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		out = append(out, style.Render(cursor+
			cell(money.FormatDate(e.Date), 10)+" "+cell(e.Client, 16)+" "+cell(e.Fleet, 8)+" "+
			cell(e.Type, 14)+" "+rightCell(money.FormatMoney(e.Value.Decimal), 13)+" ")+
			cell(statusBadge(entryStatus(e, m.status())), 9)+
			style.Render(" "+cell(strings.Join(e.Containers(), " "), 23)+" "+cell(note, noteW)))
	}
	return strings.Join(out, "\n")
}
