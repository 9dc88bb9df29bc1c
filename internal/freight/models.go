package freight

import (
	"encoding/json"
	"strings"

	"github.com/sadopc/fretes/internal/money"
)

// Status is the approval state of an entry.
type Status string

const (
	StatusPending  Status = "PENDENTE"
	StatusApproved Status = "APROVADO"
	StatusRejected Status = "REPROVADO"
)

// Role of an authenticated user.
type Role string

const (
	RoleManager Role = "gestor"
	RoleDriver  Role = "motorista"
)

// ParseRole maps the backend "Perfil" column to a Role. Anything that is not
// a manager is treated as a driver.
func ParseRole(perfil string) Role {
	if strings.EqualFold(strings.TrimSpace(perfil), string(RoleManager)) {
		return RoleManager
	}
	return RoleDriver
}

// Entry types offered by the submission form. OtherType switches to free text.
var EntryTypes = []string{"Rodoviário", "Cheio", "Vazio", "Redex", "Bônus OP.RODO", "Diária"}

const OtherType = "Outro..."

// Entry is a freight record as the backend spreadsheet returns it.
type Entry struct {
	Row           int          `json:"_row,omitempty"`
	Date          string       `json:"Data"`
	Period        string       `json:"AnoMes,omitempty"`
	Driver        string       `json:"Motorista,omitempty"`
	Email         string       `json:"Email,omitempty"`
	Client        string       `json:"Cliente"`
	Fleet         string       `json:"Frota"`
	Type          string       `json:"Tipo"`
	Value         money.Amount `json:"Valor"`
	Container1    string       `json:"Container1,omitempty"`
	Container2    string       `json:"Container2,omitempty"`
	Container3    string       `json:"Container3,omitempty"`
	Container4    string       `json:"Container4,omitempty"`
	Note          string       `json:"Obs,omitempty"`
	ManagerNote   string       `json:"Observação Gestor,omitempty"`
	Justification string       `json:"Justificativa,omitempty"`
	Status        Status       `json:"Status,omitempty"`
}

// UnmarshalJSON reads every text column leniently: spreadsheet cells such as
// Frota or Container come back as JSON numbers when they hold digits only.
func (e *Entry) UnmarshalJSON(b []byte) error {
	type entry Entry
	var cells struct {
		*entry
		Row           money.Index `json:"_row"`
		Date          money.Text  `json:"Data"`
		Period        money.Text  `json:"AnoMes"`
		Driver        money.Text  `json:"Motorista"`
		Email         money.Text  `json:"Email"`
		Client        money.Text  `json:"Cliente"`
		Fleet         money.Text  `json:"Frota"`
		Type          money.Text  `json:"Tipo"`
		Container1    money.Text  `json:"Container1"`
		Container2    money.Text  `json:"Container2"`
		Container3    money.Text  `json:"Container3"`
		Container4    money.Text  `json:"Container4"`
		Note          money.Text  `json:"Obs"`
		ManagerNote   money.Text  `json:"Observação Gestor"`
		Justification money.Text  `json:"Justificativa"`
	}
	cells.entry = (*entry)(e)
	if err := json.Unmarshal(b, &cells); err != nil {
		return err
	}
	e.Row = int(cells.Row)
	e.Date = string(cells.Date)
	e.Period = string(cells.Period)
	e.Driver = string(cells.Driver)
	e.Email = string(cells.Email)
	e.Client = string(cells.Client)
	e.Fleet = string(cells.Fleet)
	e.Type = string(cells.Type)
	e.Container1 = string(cells.Container1)
	e.Container2 = string(cells.Container2)
	e.Container3 = string(cells.Container3)
	e.Container4 = string(cells.Container4)
	e.Note = string(cells.Note)
	e.ManagerNote = string(cells.ManagerNote)
	e.Justification = string(cells.Justification)
	return nil
}

// PeriodKey is the aggregation period of the entry. The backend AnoMes
// column wins; the entry date is the fallback.
func (e Entry) PeriodKey() string {
	if k := money.PeriodKey(e.Period); k != "" {
		return k
	}
	return money.PeriodKey(e.Date)
}

// Containers returns the non-empty container codes.
func (e Entry) Containers() []string {
	var out []string
	for _, c := range []string{e.Container1, e.Container2, e.Container3, e.Container4} {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// searchText is the concatenation of every displayed field, lower-cased.
func (e Entry) searchText() string {
	fields := []string{
		e.Date, e.Period, e.Driver, e.Client, e.Fleet, e.Type,
		money.FormatMoney(e.Value.Decimal), e.Value.StringFixed(2),
		e.Container1, e.Container2, e.Container3, e.Container4, e.Note,
	}
	return strings.ToLower(strings.Join(fields, " "))
}

// Decision is a manager verdict on one pending entry.
type Decision struct {
	Row         int    `json:"row"`
	Status      Status `json:"status"`
	Observation string `json:"observacao"`
}

// User is the authenticated profile returned by login/init.
type User struct {
	Name         string `json:"Nome"`
	Email        string `json:"Email"`
	Profile      string `json:"Perfil"`
	Active       any    `json:"Ativo,omitempty"`
	DefaultFleet string `json:"FrotaPadrao,omitempty"`
}

func (u *User) UnmarshalJSON(b []byte) error {
	type user User
	var cells struct {
		*user
		Name         money.Text `json:"Nome"`
		Email        money.Text `json:"Email"`
		Profile      money.Text `json:"Perfil"`
		DefaultFleet money.Text `json:"FrotaPadrao"`
	}
	cells.user = (*user)(u)
	if err := json.Unmarshal(b, &cells); err != nil {
		return err
	}
	u.Name = string(cells.Name)
	u.Email = string(cells.Email)
	u.Profile = string(cells.Profile)
	u.DefaultFleet = string(cells.DefaultFleet)
	return nil
}

func (u User) Role() Role {
	return ParseRole(u.Profile)
}

// IsActive interprets the spreadsheet "Ativo" column, which may hold a
// boolean or a text flag.
func (u User) IsActive() bool {
	switch v := u.Active.(type) {
	case bool:
		return v
	case string:
		switch strings.ToUpper(strings.TrimSpace(v)) {
		case "", "SIM", "S", "TRUE", "1", "ATIVO":
			return true
		}
		return false
	case float64:
		return v != 0
	}
	return true
}

type Client struct {
	Name string `json:"Cliente"`
}

func (c *Client) UnmarshalJSON(b []byte) error {
	var cells struct {
		Name money.Text `json:"Cliente"`
	}
	if err := json.Unmarshal(b, &cells); err != nil {
		return err
	}
	c.Name = string(cells.Name)
	return nil
}

type Fleet struct {
	Number string `json:"Frota"`
	Model  string `json:"Modelo,omitempty"`
}

func (f *Fleet) UnmarshalJSON(b []byte) error {
	var cells struct {
		Number money.Text `json:"Frota"`
		Model  money.Text `json:"Modelo"`
	}
	if err := json.Unmarshal(b, &cells); err != nil {
		return err
	}
	f.Number = string(cells.Number)
	f.Model = string(cells.Model)
	return nil
}

// Label is the text shown in fleet pickers.
func (f Fleet) Label() string {
	if f.Model != "" {
		return f.Number + " — " + f.Model
	}
	return f.Number
}

// InitData holds the lookup lists fetched after authentication.
type InitData struct {
	Clients []Client `json:"clientes"`
	Fleets  []Fleet  `json:"frotas"`
	Users   []User   `json:"usuarios"`
}

// Partitions is a driver's entry set split by status.
type Partitions struct {
	Pending  []Entry
	Approved []Entry
	Rejected []Entry
}

// Of returns the partition for status.
func (p Partitions) Of(s Status) []Entry {
	switch s {
	case StatusApproved:
		return p.Approved
	case StatusRejected:
		return p.Rejected
	}
	return p.Pending
}
