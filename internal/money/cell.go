package money

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Text is a spreadsheet cell read as text. Numeric and boolean cells arrive
// as JSON numbers and booleans; they keep their literal spelling. Null and
// composite values become empty.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	v, err := decodeCell(b)
	if err != nil {
		*t = ""
		return nil
	}
	switch x := v.(type) {
	case string:
		*t = Text(x)
	case json.Number:
		*t = Text(x.String())
	case bool:
		*t = Text(strconv.FormatBool(x))
	default:
		*t = ""
	}
	return nil
}

// Index is a spreadsheet row number that may arrive as a JSON number or a
// numeric string. Anything else becomes zero.
type Index int

func (i *Index) UnmarshalJSON(b []byte) error {
	v, err := decodeCell(b)
	if err != nil {
		*i = 0
		return nil
	}
	var s string
	switch x := v.(type) {
	case json.Number:
		s = x.String()
	case string:
		s = strings.TrimSpace(x)
	default:
		*i = 0
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		*i = Index(n)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		*i = 0
		return nil
	}
	*i = Index(f)
	return nil
}

func decodeCell(b []byte) (any, error) {
	var v any
	dec := json.NewDecoder(strings.NewReader(string(b)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
