package freight

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/sadopc/fretes/internal/money"
)

const (
	ContainerLength = 11
	NoteLimit       = 120
)

// ValidationError is a local, pre-network rejection tied to one form field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Draft is the raw state of the submission form.
type Draft struct {
	Date       string
	Fleet      string
	Client     string
	Type       string
	OtherType  string
	Value      string
	Containers [4]string
	Note       string
}

// NewDraft returns a blank draft dated today, with the driver's default fleet.
func NewDraft(now time.Time, defaultFleet string) Draft {
	return Draft{
		Date:  now.Format("2006-01-02"),
		Fleet: defaultFleet,
	}
}

// ResolvedType is the selected type, or the free-text override when the
// "Outro..." sentinel is chosen.
func (d Draft) ResolvedType() string {
	if d.Type == OtherType {
		return strings.TrimSpace(d.OtherType)
	}
	return strings.TrimSpace(d.Type)
}

// Submission is a validated entry ready to send.
type Submission struct {
	Date       string
	Fleet      string
	Client     string
	Type       string
	Value      decimal.Decimal
	Containers [4]string
	Note       string
}

// Validate checks required fields in order, then the value, stopping at the
// first failure.
func (d Draft) Validate() (Submission, error) {
	sub := Submission{
		Date:   strings.TrimSpace(d.Date),
		Fleet:  strings.TrimSpace(d.Fleet),
		Client: strings.TrimSpace(d.Client),
		Type:   d.ResolvedType(),
		Value:  money.ParseMoney(d.Value),
		Note:   strings.TrimSpace(d.Note),
	}
	for i, c := range d.Containers {
		sub.Containers[i] = SanitizeContainer(c)
	}

	required := []struct {
		field, value, msg string
	}{
		{"data", sub.Date, "Informe a data."},
		{"frota", sub.Fleet, "Selecione a frota."},
		{"cliente", sub.Client, "Selecione o cliente."},
		{"tipo", sub.Type, "Informe o tipo."},
	}
	for _, r := range required {
		if r.value == "" {
			return Submission{}, &ValidationError{Field: r.field, Message: r.msg}
		}
	}
	if !sub.Value.IsPositive() {
		return Submission{}, &ValidationError{Field: "valor", Message: "Informe um valor válido (maior que zero)."}
	}
	if len([]rune(sub.Note)) > NoteLimit {
		return Submission{}, &ValidationError{Field: "obs", Message: fmt.Sprintf("A observação aceita até %d caracteres.", NoteLimit)}
	}
	return sub, nil
}

// SanitizeContainer upper-cases a container code, drops anything that is not
// [A-Z0-9] and truncates to 11 characters.
func SanitizeContainer(s string) string {
	var b strings.Builder
	n := 0
	for _, r := range strings.ToUpper(s) {
		if n == ContainerLength {
			break
		}
		if r > unicode.MaxASCII || !(unicode.IsUpper(r) || unicode.IsDigit(r)) {
			continue
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}

// FormatValueField reformats the value field the way it is shown after the
// input loses focus: "1.234,56", or empty when it does not parse.
func FormatValueField(s string) string {
	v := money.ParseMoney(s)
	if v.IsZero() {
		return ""
	}
	return money.FormatAmount(v)
}
