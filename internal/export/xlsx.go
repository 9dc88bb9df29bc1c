package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/sadopc/fretes/internal/freight"
)

// valueColumn is the 1-based column holding Valor, written as a number.
const valueColumn = 8

// Built-in number format "#,##0.00".
const moneyNumFmt = 4

func ToXLSX(entries []freight.Entry, kind Kind, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := string(kind)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	head := header(kind)
	cells := make([]any, len(head))
	for i, h := range head {
		cells[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &cells); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, e := range entries {
		rec := record(e, kind)
		row := make([]any, len(rec))
		for j, v := range rec {
			row[j] = v
		}
		row[0] = e.Row
		row[valueColumn-1] = e.Value.InexactFloat64()

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(head))
	if err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", bold); err != nil {
		return err
	}
	if len(entries) > 0 {
		numeric, err := f.NewStyle(&excelize.Style{NumFmt: moneyNumFmt})
		if err != nil {
			return err
		}
		valCol, _ := excelize.ColumnNumberToName(valueColumn)
		top := fmt.Sprintf("%s2", valCol)
		bottom := fmt.Sprintf("%s%d", valCol, len(entries)+1)
		if err := f.SetCellStyle(sheet, top, bottom, numeric); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "B", lastCol, 16); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("write xlsx file: %w", err)
	}
	return nil
}
