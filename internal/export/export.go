package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sadopc/fretes/internal/freight"
	"github.com/sadopc/fretes/internal/money"
)

// Kind names which history is exported.
type Kind string

const (
	KindApproved Kind = "aprovados"
	KindRejected Kind = "reprovados"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// Formats in picker order.
var Formats = []Format{FormatCSV, FormatJSON, FormatXLSX}

// FileName is "fretes-<kind>-<date>.<ext>".
func FileName(kind Kind, format Format, now time.Time) string {
	return fmt.Sprintf("fretes-%s-%s.%s", kind, now.Format("2006-01-02"), format)
}

// DefaultPath places the export in the user's home directory.
func DefaultPath(kind Kind, format Format, now time.Time) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home directory: %w", err)
	}
	return filepath.Join(home, FileName(kind, format, now)), nil
}

// Write dispatches to the writer for format.
func Write(format Format, kind Kind, entries []freight.Entry, path string) error {
	switch format {
	case FormatCSV:
		return ToCSV(entries, kind, path)
	case FormatJSON:
		return ToJSON(entries, kind, path)
	case FormatXLSX:
		return ToXLSX(entries, kind, path)
	}
	return fmt.Errorf("unknown export format %q", format)
}

// noteHeader is the last column: the manager's note for approvals, the
// justification for rejections.
func noteHeader(kind Kind) string {
	if kind == KindRejected {
		return "Justificativa"
	}
	return "Obs."
}

func note(e freight.Entry, kind Kind) string {
	if kind == KindRejected {
		return e.Justification
	}
	return e.ManagerNote
}

func header(kind Kind) []string {
	return []string{"Linha", "Data", "AnoMes", "Motorista", "Cliente", "Frota", "Tipo", "Valor", "Containers", noteHeader(kind)}
}

// record is one entry as text cells, in header order.
func record(e freight.Entry, kind Kind) []string {
	return []string{
		fmt.Sprintf("%d", e.Row),
		money.FormatDate(e.Date),
		e.PeriodKey(),
		e.Driver,
		e.Client,
		e.Fleet,
		e.Type,
		money.FormatAmount(e.Value.Decimal),
		strings.Join(e.Containers(), " "),
		note(e, kind),
	}
}
