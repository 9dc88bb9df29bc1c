package export

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/sadopc/fretes/internal/freight"
)

func ToCSV(entries []freight.Entry, kind Kind, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = ';'
	defer w.Flush()

	if err := w.Write(header(kind)); err != nil {
		return err
	}
	for _, e := range entries {
		if err := w.Write(record(e, kind)); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
