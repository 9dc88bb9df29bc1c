package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/fretes/internal/freight"
	"github.com/sadopc/fretes/internal/money"
	"github.com/sadopc/fretes/internal/rpc"
)

type reportDataMsg struct {
	reply
	report freight.ManagerReport
	err    error
}

// reportModel is the manager's Relatórios tab.
type reportModel struct {
	state  *appState
	sc     scope
	width  int
	height int

	report  freight.ManagerReport
	loaded  bool
	loading bool
	message string

	monthChart  barchart.Model
	driverChart barchart.Model
}

func newReportModel(st *appState) *reportModel {
	return &reportModel{
		state:       st,
		sc:          background(),
		monthChart:  barchart.New(60, 10),
		driverChart: barchart.New(60, 10),
	}
}

func (r *reportModel) title() string { return "Relatórios" }

func (r *reportModel) mount(sc scope) (tab, tea.Cmd) {
	r.sc = sc
	return r, r.load()
}

func (r *reportModel) resize(w, h int) tab {
	r.width = w
	r.height = h
	if r.loaded {
		r.buildCharts()
	}
	return r
}

func (r *reportModel) capturing() bool { return false }

func (r *reportModel) load() tea.Cmd {
	r.loading = true
	api, sc := r.state.api, r.sc
	return func() tea.Msg {
		rep, err := api.ManagerReport(sc.ctx)
		return reportDataMsg{reply: sc.reply(), report: rep, err: err}
	}
}

func (r *reportModel) update(msg tea.Msg) (tab, tea.Cmd) {
	switch msg := msg.(type) {
	case reportDataMsg:
		r.loading = false
		if msg.err != nil {
			r.message = rpc.Message(msg.err)
			return r, nil
		}
		r.message = ""
		r.report = msg.report
		r.loaded = true
		r.buildCharts()
		return r, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Reload) && !r.loading {
			return r, r.load()
		}
	}
	return r, nil
}

// months returns the per-month rows ordered by period.
func (r *reportModel) months() []freight.MonthValue {
	out := make([]freight.MonthValue, len(r.report.ByMonth))
	copy(out, r.report.ByMonth)
	sort.SliceStable(out, func(i, j int) bool {
		return money.ComparePeriods(money.PeriodKey(out[i].Month), money.PeriodKey(out[j].Month)) < 0
	})
	return out
}

func (r *reportModel) chartWidth() int {
	w := r.width - 8
	if w < 20 {
		w = 20
	}
	return w
}

func (r *reportModel) buildCharts() {
	w := r.chartWidth()
	h := 10
	if r.height > 40 {
		h = 14
	}

	r.monthChart = barchart.New(w, h)
	var bars []barchart.BarData
	for _, m := range r.months() {
		label := shortPeriod(money.PeriodKey(m.Month))
		if label == "" {
			label = m.Month
		}
		bars = append(bars, barchart.BarData{
			Label: label,
			Values: []barchart.BarValue{{
				Name:  m.Month,
				Value: m.Value.InexactFloat64(),
				Style: barStyle,
			}},
		})
	}
	r.monthChart.PushAll(bars)
	r.monthChart.Draw()

	r.driverChart = barchart.New(w, h)
	bars = nil
	for _, d := range freight.TopDrivers(r.report.ByDriver, freight.TopDriversN) {
		bars = append(bars, barchart.BarData{
			Label: firstName(d.Driver),
			Values: []barchart.BarValue{{
				Name:  d.Driver,
				Value: d.Value.InexactFloat64(),
				Style: barAltStyle,
			}},
		})
	}
	r.driverChart.PushAll(bars)
	r.driverChart.Draw()
}

// firstName shortens a driver's name for chart labels.
func firstName(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return s
}

func (r *reportModel) view() string {
	w := r.width - 4
	title := titleStyle.Render("Relatórios")

	if !r.loaded {
		body := mutedStyle.Render("  Carregando...")
		if r.message != "" {
			body = errorStyle.Render("  " + r.message)
		}
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body))
	}

	rep := r.report
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		kpiCard("Fretes aprovados", fmt.Sprintf("%d", rep.ApprovedCount), "total"),
		kpiCard("Fretes reprovados", fmt.Sprintf("%d", rep.RejectedCount), "total"),
		kpiCard("Valor aprovado", money.FormatMoney(rep.ApprovedValue.Decimal), "soma"),
	)

	monthView := mutedStyle.Render("  Sem dados por mês.")
	if len(rep.ByMonth) > 0 {
		monthView = r.monthChart.View()
	}
	driverView := mutedStyle.Render("  Sem dados por motorista.")
	if len(rep.ByDriver) > 0 {
		driverView = r.driverChart.View() + "\n" + r.renderDriverTable()
	}

	parts := []string{
		title, "", cards, "",
		subtitleStyle.Render("Valor aprovado por mês"), monthView, "",
		subtitleStyle.Render(fmt.Sprintf("Top %d motoristas", freight.TopDriversN)), driverView, "",
		mutedStyle.Render("  u: atualizar"),
	}
	if r.message != "" {
		parts = append(parts, errorStyle.Render("  "+r.message))
	}
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (r *reportModel) renderDriverTable() string {
	var rows []string
	for i, d := range freight.TopDrivers(r.report.ByDriver, freight.TopDriversN) {
		rows = append(rows, fmt.Sprintf("  %2d. %s %s", i+1, cell(d.Driver, 28), rightCell(money.FormatMoney(d.Value.Decimal), 16)))
	}
	return strings.Join(rows, "\n")
}
