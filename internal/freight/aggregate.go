package freight

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sadopc/fretes/internal/money"
)

const (
	RecentPeriods = 6
	TopDriversN   = 10
)

type PeriodTotal struct {
	Period string
	Total  decimal.Decimal
}

// MonthlyTotals is approved value summed per "YYYY-MM" period.
type MonthlyTotals struct {
	totals  map[string]decimal.Decimal
	periods []string
}

// SummarizeMonthly groups entries by period and sums their values. Entries
// without a usable period, or whose value is not positive, are skipped.
func SummarizeMonthly(entries []Entry) MonthlyTotals {
	m := MonthlyTotals{totals: make(map[string]decimal.Decimal)}
	for _, e := range entries {
		key := e.PeriodKey()
		if key == "" || !e.Value.IsPositive() {
			continue
		}
		if _, ok := m.totals[key]; !ok {
			m.periods = append(m.periods, key)
		}
		m.totals[key] = m.totals[key].Add(e.Value.Decimal)
	}
	sort.Slice(m.periods, func(i, j int) bool {
		return money.ComparePeriods(m.periods[i], m.periods[j]) < 0
	})
	return m
}

// Periods returns the periods present, ascending.
func (m MonthlyTotals) Periods() []string {
	return m.periods
}

func (m MonthlyTotals) Total(period string) decimal.Decimal {
	return m.totals[period]
}

// Latest is the greatest period present, or the calendar period of now
// when there is no data.
func (m MonthlyTotals) Latest(now time.Time) string {
	if len(m.periods) == 0 {
		return money.CurrentPeriod(now)
	}
	return m.periods[len(m.periods)-1]
}

// KPI holds the three headline figures for one period.
type KPI struct {
	Period         string
	PreviousPeriod string
	Current        decimal.Decimal
	Previous       decimal.Decimal
	Variance       float64
	VarianceLabel  string
}

func (m MonthlyTotals) KPI(period string) KPI {
	prev := money.PreviousPeriod(period)
	k := KPI{
		Period:         period,
		PreviousPeriod: prev,
		Current:        m.Total(period),
		Previous:       m.Total(prev),
	}
	k.Variance, k.VarianceLabel = Variance(k.Current, k.Previous)
	return k
}

// Recent returns up to n periods ending at period (inclusive), ascending.
// An unknown period falls back to the most recent ones.
func (m MonthlyTotals) Recent(period string, n int) []PeriodTotal {
	end := len(m.periods)
	for i, p := range m.periods {
		if p == period {
			end = i + 1
			break
		}
	}
	start := end - n
	if start < 0 {
		start = 0
	}
	out := make([]PeriodTotal, 0, end-start)
	for _, p := range m.periods[start:end] {
		out = append(out, PeriodTotal{Period: p, Total: m.totals[p]})
	}
	return out
}

// Variance is the month-over-month change in percent. A zero previous total
// reports +100% when there is current value and 0% otherwise.
func Variance(current, previous decimal.Decimal) (float64, string) {
	if previous.IsPositive() {
		pct := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).InexactFloat64()
		rounded := math.Round(pct)
		if rounded == 0 {
			rounded = 0 // drop negative zero
		}
		sign := ""
		if pct >= 0 {
			sign = "+"
		}
		return pct, fmt.Sprintf("%s%.0f%%", sign, rounded)
	}
	if current.IsPositive() {
		return 100, "+100%"
	}
	return 0, "0%"
}

// DriverTotal is approved value attributed to one driver.
type DriverTotal struct {
	Driver string       `json:"motorista"`
	Value  money.Amount `json:"valor"`
}

// RankDrivers sums approved value per driver, highest first.
func RankDrivers(entries []Entry) []DriverTotal {
	sums := make(map[string]decimal.Decimal)
	var order []string
	for _, e := range entries {
		if !e.Value.IsPositive() {
			continue
		}
		if _, ok := sums[e.Driver]; !ok {
			order = append(order, e.Driver)
		}
		sums[e.Driver] = sums[e.Driver].Add(e.Value.Decimal)
	}
	out := make([]DriverTotal, 0, len(order))
	for _, d := range order {
		out = append(out, DriverTotal{Driver: d, Value: money.NewAmount(sums[d])})
	}
	return TopDrivers(out, len(out))
}

// TopDrivers returns the n largest totals, descending. The input is not modified.
func TopDrivers(totals []DriverTotal, n int) []DriverTotal {
	out := make([]DriverTotal, len(totals))
	copy(out, totals)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value.GreaterThan(out[j].Value.Decimal)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// MonthValue is one row of the manager's per-month report.
type MonthValue struct {
	Month string       `json:"mes"`
	Value money.Amount `json:"valor"`
}

// ManagerReport is the backend's aggregate for the Relatórios tab.
type ManagerReport struct {
	ApprovedCount int           `json:"totalFretesAprov"`
	RejectedCount int           `json:"totalFretesReprov"`
	ApprovedValue money.Amount  `json:"totalValorAprov"`
	ByMonth       []MonthValue  `json:"porMes"`
	ByDriver      []DriverTotal `json:"porMotoristaArr"`
}
