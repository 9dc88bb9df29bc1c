package freight

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sadopc/fretes/internal/money"
)

func amount(s string) money.Amount {
	return money.NewAmount(decimal.RequireFromString(s))
}

func approved(period, value string) Entry {
	return Entry{Period: period, Value: amount(value), Status: StatusApproved}
}

// ============================================================
// Model
// ============================================================

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"Gestor", RoleManager},
		{" gestor ", RoleManager},
		{"GESTOR", RoleManager},
		{"Motorista", RoleDriver},
		{"", RoleDriver},
	}
	for _, tt := range tests {
		if got := ParseRole(tt.in); got != tt.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUserIsActive(t *testing.T) {
	tests := []struct {
		active any
		want   bool
	}{
		{nil, true},
		{true, true},
		{false, false},
		{"SIM", true},
		{"não", false},
		{"", true},
		{float64(0), false},
	}
	for _, tt := range tests {
		u := User{Active: tt.active}
		if got := u.IsActive(); got != tt.want {
			t.Errorf("IsActive(%#v) = %v, want %v", tt.active, got, tt.want)
		}
	}
}

func TestEntryDecode(t *testing.T) {
	raw := `{"_row": 7, "Data": "2024-03-10", "AnoMes": "2024-03", "Motorista": "Ana",
		"Cliente": "ACME", "Frota": "101", "Tipo": "Cheio", "Valor": "1.500,50",
		"Container1": "ABCD1234567", "Justificativa": "duplicado"}`
	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatal(err)
	}
	if e.Row != 7 || e.Driver != "Ana" || e.Client != "ACME" || e.Justification != "duplicado" {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if !e.Value.Equal(decimal.RequireFromString("1500.50")) {
		t.Fatalf("value = %s", e.Value)
	}
	if got := e.Containers(); len(got) != 1 || got[0] != "ABCD1234567" {
		t.Fatalf("containers = %v", got)
	}
}

func TestEntryDecodeNumericCells(t *testing.T) {
	raw := `{"_row": "7", "Data": "2024-03-10", "AnoMes": 202403, "Cliente": 42,
		"Frota": 101, "Tipo": "Cheio", "Valor": 900, "Container1": 1234567, "Obs": false}`
	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatal(err)
	}
	if e.Row != 7 {
		t.Errorf("row = %d", e.Row)
	}
	if e.Fleet != "101" || e.Client != "42" || e.Container1 != "1234567" || e.Period != "202403" {
		t.Errorf("unexpected entry: %+v", e)
	}
	if e.Note != "false" || e.Type != "Cheio" {
		t.Errorf("note/type = %q %q", e.Note, e.Type)
	}
	if !e.Value.Equal(decimal.NewFromInt(900)) {
		t.Errorf("value = %s", e.Value)
	}
}

func TestUserDecodeNumericDefaultFleet(t *testing.T) {
	raw := `{"Nome": "João", "Email": "joao@ziran.com", "Perfil": "motorista", "Ativo": true, "FrotaPadrao": 101}`
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		t.Fatal(err)
	}
	if u.DefaultFleet != "101" || u.Name != "João" || u.Role() != RoleDriver || !u.IsActive() {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestInitDataDecodeNumericLookups(t *testing.T) {
	raw := `{"clientes": [{"Cliente": "ACME"}, {"Cliente": 300}],
		"frotas": [{"Frota": 101, "Modelo": "Scania"}, {"Frota": "F02"}],
		"usuarios": [{"Nome": "Ana", "Perfil": "gestor", "FrotaPadrao": 7}]}`
	var d InitData
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatal(err)
	}
	if len(d.Clients) != 2 || d.Clients[1].Name != "300" {
		t.Errorf("clients = %+v", d.Clients)
	}
	if len(d.Fleets) != 2 || d.Fleets[0].Label() != "101 — Scania" || d.Fleets[1].Number != "F02" {
		t.Errorf("fleets = %+v", d.Fleets)
	}
	if len(d.Users) != 1 || d.Users[0].DefaultFleet != "7" {
		t.Errorf("users = %+v", d.Users)
	}
}

func TestEntryPeriodKeyFallsBackToDate(t *testing.T) {
	e := Entry{Date: "2024-05-20"}
	if got := e.PeriodKey(); got != "2024-05" {
		t.Fatalf("got %q", got)
	}
	e.Period = "2024-04"
	if got := e.PeriodKey(); got != "2024-04" {
		t.Fatalf("AnoMes should win, got %q", got)
	}
}

func TestFleetLabel(t *testing.T) {
	if got := (Fleet{Number: "101"}).Label(); got != "101" {
		t.Errorf("got %q", got)
	}
	if got := (Fleet{Number: "101", Model: "Scania"}).Label(); got != "101 — Scania" {
		t.Errorf("got %q", got)
	}
}

// ============================================================
// Approval sheet
// ============================================================

func pendingRows() []Entry {
	return []Entry{
		{Row: 2, Driver: "Ana", Client: "ACME", Fleet: "101", Type: "Cheio", Value: amount("100")},
		{Row: 3, Driver: "Bruno", Client: "Globex", Fleet: "102", Type: "Vazio", Value: amount("200")},
		{Row: 4, Driver: "Carla", Client: "Initech", Fleet: "103", Type: "Redex", Value: amount("300")},
	}
}

func TestBatchOnlyDecidedSelections(t *testing.T) {
	s := NewApprovalSheet(pendingRows())
	s.Toggle(2)
	s.Toggle(3)
	s.SetDecision(3, StatusRejected)
	s.SetObservation(3, "  sem comprovante ")

	batch, err := s.Batch()
	if err != nil {
		t.Fatal(err)
	}
	if len(batch) != 1 {
		t.Fatalf("expected 1 decision, got %d", len(batch))
	}
	want := Decision{Row: 3, Status: StatusRejected, Observation: "sem comprovante"}
	if batch[0] != want {
		t.Fatalf("got %+v, want %+v", batch[0], want)
	}
}

func TestUndecidedCountsVisibleSelections(t *testing.T) {
	s := NewApprovalSheet(pendingRows())
	s.Toggle(2)
	s.Toggle(3)
	s.SetDecision(3, StatusRejected)
	if got := s.Undecided(); got != 1 {
		t.Fatalf("undecided = %d, want 1", got)
	}
	s.SetQuery("bruno")
	if got := s.Undecided(); got != 0 {
		t.Fatalf("undecided with query = %d, want 0", got)
	}
}

func TestBatchNothingSelected(t *testing.T) {
	s := NewApprovalSheet(pendingRows())
	s.SetDecision(2, StatusApproved)
	if _, err := s.Batch(); !errors.Is(err, ErrNothingSelected) {
		t.Fatalf("expected ErrNothingSelected, got %v", err)
	}
}

func TestBatchSelectedWithoutDecision(t *testing.T) {
	s := NewApprovalSheet(pendingRows())
	s.Toggle(2)
	s.Toggle(4)
	if _, err := s.Batch(); !errors.Is(err, ErrNoDecision) {
		t.Fatalf("expected ErrNoDecision, got %v", err)
	}
}

func TestToggleAndClearDecision(t *testing.T) {
	s := NewApprovalSheet(pendingRows())
	s.Toggle(2)
	if !s.IsSelected(2) {
		t.Fatal("row should be selected")
	}
	s.Toggle(2)
	if s.IsSelected(2) {
		t.Fatal("row should be unselected")
	}
	s.SetDecision(2, StatusApproved)
	s.SetDecision(2, "")
	if s.Decision(2) != "" {
		t.Fatal("decision should be cleared")
	}
	s.SetObservation(2, "x")
	s.SetObservation(2, "   ")
	if s.Observation(2) != "" {
		t.Fatal("blank observation should clear")
	}
}

func TestBatchIgnoresHiddenRows(t *testing.T) {
	s := NewApprovalSheet(pendingRows())
	s.Toggle(2)
	s.SetDecision(2, StatusApproved)
	s.Toggle(3)
	s.SetDecision(3, StatusApproved)

	s.SetQuery("globex")
	batch, err := s.Batch()
	if err != nil {
		t.Fatal(err)
	}
	if len(batch) != 1 || batch[0].Row != 3 {
		t.Fatalf("expected only row 3, got %+v", batch)
	}

	s.SetQuery("")
	batch, _ = s.Batch()
	if len(batch) != 2 {
		t.Fatalf("clearing the query should restore both, got %d", len(batch))
	}
}

func TestFilterEntries(t *testing.T) {
	rows := pendingRows()
	tests := []struct {
		q    string
		want int
	}{
		{"", 3},
		{"   ", 3},
		{"ACME", 1},
		{"acme", 1},
		{"10", 3}, // fleets 101..103
		{"vazio", 1},
		{"R$ 300,00", 1},
		{"nobody", 0},
	}
	for _, tt := range tests {
		if got := len(FilterEntries(rows, tt.q)); got != tt.want {
			t.Errorf("FilterEntries(%q) = %d rows, want %d", tt.q, got, tt.want)
		}
	}
	if len(rows) != 3 {
		t.Fatal("filter must not modify the input")
	}
}

// ============================================================
// Submission
// ============================================================

func validDraft() Draft {
	return Draft{
		Date:   "2024-03-10",
		Fleet:  "101",
		Client: "ACME",
		Type:   "Cheio",
		Value:  "350,00",
	}
}

func TestValidateOK(t *testing.T) {
	d := validDraft()
	d.Containers = [4]string{"abcd 123-4567", "", "", ""}
	sub, err := d.Validate()
	if err != nil {
		t.Fatal(err)
	}
	if !sub.Value.Equal(decimal.NewFromInt(350)) {
		t.Fatalf("value = %s", sub.Value)
	}
	if sub.Containers[0] != "ABCD1234567" {
		t.Fatalf("container = %q", sub.Containers[0])
	}
}

func TestValidateMissingFields(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Draft)
		field string
	}{
		{"date", func(d *Draft) { d.Date = "" }, "data"},
		{"fleet", func(d *Draft) { d.Fleet = " " }, "frota"},
		{"client", func(d *Draft) { d.Client = "" }, "cliente"},
		{"type", func(d *Draft) { d.Type = "" }, "tipo"},
		{"other type blank", func(d *Draft) { d.Type = OtherType; d.OtherType = "  " }, "tipo"},
		{"value garbage", func(d *Draft) { d.Value = "abc" }, "valor"},
		{"value zero", func(d *Draft) { d.Value = "0,00" }, "valor"},
		{"value negative", func(d *Draft) { d.Value = "-5" }, "valor"},
		{"client before value", func(d *Draft) { d.Client = ""; d.Value = "abc" }, "cliente"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.edit(&d)
			_, err := d.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Fatalf("field = %q, want %q", verr.Field, tt.field)
			}
			if verr.Error() == "" {
				t.Fatal("empty message")
			}
		})
	}
}

func TestValidateOtherType(t *testing.T) {
	d := validDraft()
	d.Type = OtherType
	d.OtherType = " Munck "
	sub, err := d.Validate()
	if err != nil {
		t.Fatal(err)
	}
	if sub.Type != "Munck" {
		t.Fatalf("type = %q", sub.Type)
	}
}

func TestSanitizeContainer(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"abcd1234567", "ABCD1234567"},
		{" ab cd-12.34/567 ", "ABCD1234567"},
		{"ABCD12345678999", "ABCD1234567"},
		{"çãé#1", "1"},
		{"msku 000111-2", "MSKU0001112"},
	}
	for _, tt := range tests {
		if got := SanitizeContainer(tt.in); got != tt.want {
			t.Errorf("SanitizeContainer(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeContainerIdempotent(t *testing.T) {
	for _, in := range []string{"abc 123", "MSKU0001112", "x-y-z-1-2-3-4-5-6-7-8-9"} {
		once := SanitizeContainer(in)
		if SanitizeContainer(once) != once {
			t.Errorf("not idempotent for %q", in)
		}
	}
}

func TestNewDraft(t *testing.T) {
	now := time.Date(2024, time.February, 3, 9, 0, 0, 0, time.UTC)
	d := NewDraft(now, "205")
	if d.Date != "2024-02-03" || d.Fleet != "205" || d.Value != "" {
		t.Fatalf("unexpected draft: %+v", d)
	}
}

func TestFormatValueField(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"350", "350,00"},
		{"1234,5", "1.234,50"},
		{"abc", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := FormatValueField(tt.in); got != tt.want {
			t.Errorf("FormatValueField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// ============================================================
// Aggregation
// ============================================================

func TestMonthOverMonth(t *testing.T) {
	m := SummarizeMonthly([]Entry{approved("2024-01", "100"), approved("2024-02", "50")})
	now := time.Date(2030, time.June, 1, 0, 0, 0, 0, time.UTC)

	cur := m.Latest(now)
	if cur != "2024-02" {
		t.Fatalf("current = %q", cur)
	}
	k := m.KPI(cur)
	if k.PreviousPeriod != "2024-01" {
		t.Fatalf("previous = %q", k.PreviousPeriod)
	}
	if !k.Current.Equal(decimal.NewFromInt(50)) || !k.Previous.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("totals = %s / %s", k.Current, k.Previous)
	}
	if k.Variance != -50 || k.VarianceLabel != "-50%" {
		t.Fatalf("variance = %v %q", k.Variance, k.VarianceLabel)
	}
}

func TestZeroPreviousIsFullIncrease(t *testing.T) {
	m := SummarizeMonthly([]Entry{approved("2024-02", "75")})
	k := m.KPI(m.Latest(time.Now()))
	if !k.Previous.IsZero() {
		t.Fatalf("previous = %s", k.Previous)
	}
	if k.VarianceLabel != "+100%" {
		t.Fatalf("label = %q", k.VarianceLabel)
	}
}

func TestVariance(t *testing.T) {
	tests := []struct {
		cur, prev string
		label     string
	}{
		{"0", "0", "0%"},
		{"10", "0", "+100%"},
		{"150", "100", "+50%"},
		{"100", "100", "+0%"},
		{"0", "100", "-100%"},
		{"99.6", "100", "0%"},
		{"102.5", "100", "+3%"},
	}
	for _, tt := range tests {
		_, label := Variance(decimal.RequireFromString(tt.cur), decimal.RequireFromString(tt.prev))
		if label != tt.label {
			t.Errorf("Variance(%s, %s) = %q, want %q", tt.cur, tt.prev, label, tt.label)
		}
	}
}

func TestSummarizeSkipsUnaggregatable(t *testing.T) {
	m := SummarizeMonthly([]Entry{
		approved("", "100"),
		{Date: "sem data", Value: amount("40")},
		approved("2024-03", "10"),
		approved("2024-03", "15.5"),
		approved("2024-03", "-8"),
	})
	if got := m.Periods(); len(got) != 1 || got[0] != "2024-03" {
		t.Fatalf("periods = %v", got)
	}
	if !m.Total("2024-03").Equal(decimal.RequireFromString("25.5")) {
		t.Fatalf("total = %s", m.Total("2024-03"))
	}
}

func TestLatestWithoutData(t *testing.T) {
	now := time.Date(2025, time.November, 20, 0, 0, 0, 0, time.UTC)
	m := SummarizeMonthly(nil)
	if got := m.Latest(now); got != "2025-11" {
		t.Fatalf("got %q", got)
	}
	if k := m.KPI("2025-11"); k.VarianceLabel != "0%" {
		t.Fatalf("label = %q", k.VarianceLabel)
	}
}

func TestRecentSeries(t *testing.T) {
	var entries []Entry
	for _, p := range []string{"2023-09", "2023-10", "2023-11", "2023-12", "2024-01", "2024-02", "2024-03", "2024-04"} {
		entries = append(entries, approved(p, "10"))
	}
	m := SummarizeMonthly(entries)

	got := m.Recent(m.Latest(time.Now()), RecentPeriods)
	if len(got) != 6 || got[0].Period != "2023-11" || got[5].Period != "2024-04" {
		t.Fatalf("recent = %+v", got)
	}

	got = m.Recent("2023-12", RecentPeriods)
	if len(got) != 4 || got[0].Period != "2023-09" || got[3].Period != "2023-12" {
		t.Fatalf("recent up to 2023-12 = %+v", got)
	}

	got = m.Recent("1999-01", RecentPeriods)
	if len(got) != 6 || got[5].Period != "2024-04" {
		t.Fatalf("unknown period should fall back to latest: %+v", got)
	}
}

func TestRankAndTopDrivers(t *testing.T) {
	entries := []Entry{
		{Driver: "Ana", Value: amount("100")},
		{Driver: "Bruno", Value: amount("300")},
		{Driver: "Ana", Value: amount("250")},
		{Driver: "Carla", Value: amount("0")},
	}
	ranked := RankDrivers(entries)
	if len(ranked) != 2 {
		t.Fatalf("ranked = %+v", ranked)
	}
	if ranked[0].Driver != "Ana" || !ranked[0].Value.Equal(decimal.NewFromInt(350)) {
		t.Fatalf("first = %+v", ranked[0])
	}

	var many []DriverTotal
	for i := 0; i < 15; i++ {
		many = append(many, DriverTotal{Driver: string(rune('A' + i)), Value: amount(decimal.NewFromInt(int64(i)).String())})
	}
	top := TopDrivers(many, TopDriversN)
	if len(top) != 10 {
		t.Fatalf("top len = %d", len(top))
	}
	if top[0].Driver != "O" || top[9].Driver != "F" {
		t.Fatalf("top order: first %q last %q", top[0].Driver, top[9].Driver)
	}
	if many[0].Driver != "A" {
		t.Fatal("input must not be reordered")
	}
}

func TestManagerReportDecode(t *testing.T) {
	raw := `{"totalFretesAprov": 4, "totalFretesReprov": 1, "totalValorAprov": 1250.5,
		"porMes": [{"mes": "2024-01", "valor": 1000}],
		"porMotoristaArr": [{"motorista": "Ana", "valor": "250,50"}]}`
	var r ManagerReport
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		t.Fatal(err)
	}
	if r.ApprovedCount != 4 || r.RejectedCount != 1 || len(r.ByMonth) != 1 || len(r.ByDriver) != 1 {
		t.Fatalf("unexpected report: %+v", r)
	}
	if !r.ByDriver[0].Value.Equal(decimal.RequireFromString("250.5")) {
		t.Fatalf("driver value = %s", r.ByDriver[0].Value)
	}
}
