package money

import (
	"encoding/json"
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

const currencyMarker = "R$"

// ParseMoney converts user or backend input into a decimal amount. It accepts
// numbers and pt-BR formatted strings ("R$ 1.234,56"). Anything that does not
// parse to a finite number yields zero.
func ParseMoney(v any) decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return x
	case Amount:
		return x.Decimal
	case float64:
		return fromFloat(x)
	case float32:
		return fromFloat(float64(x))
	case int:
		return decimal.NewFromInt(int64(x))
	case int64:
		return decimal.NewFromInt(x)
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	case string:
		return parseString(x)
	}
	return decimal.Zero
}

func fromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

func parseString(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	s = strings.ReplaceAll(s, currencyMarker, "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.Replace(s, ",", ".", 1)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatMoney renders an amount as pt-BR currency, e.g. "R$ 1.234,56".
func FormatMoney(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + currencyMarker + " " + FormatAmount(d.Neg())
	}
	return currencyMarker + " " + FormatAmount(d)
}

// FormatAmount renders an amount with two fractional digits and pt-BR
// separators but without the currency marker, e.g. "1.234,56".
func FormatAmount(d decimal.Decimal) string {
	fixed := d.StringFixed(2)
	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart, frac, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}

// Amount is a monetary field that accepts either a JSON number or a
// locale-formatted JSON string. Undecodable input becomes zero.
type Amount struct {
	decimal.Decimal
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	var v any
	dec := json.NewDecoder(strings.NewReader(string(b)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		a.Decimal = decimal.Zero
		return nil
	}
	a.Decimal = ParseMoney(v)
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.StringFixed(2)), nil
}
