package export

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"
)

// XLSX writes one worksheet per table. Sheet names come from Table.Name
// (default "Sheet<n>"). NaN cells are left empty and infinities are
// written as the text "inf" or "-inf".
func XLSX(path string, tables ...Table) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f := excelize.NewFile()
	defer f.Close()

	for n, t := range tables {
		sheet := t.Name
		if sheet == "" {
			sheet = fmt.Sprintf("Sheet%d", n+1)
		}
		if len(sheet) > 31 {
			sheet = sheet[:31]
		}
		if n == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("xlsx sheet %s: %w", sheet, err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("xlsx sheet %s: %w", sheet, err)
		}

		for c, h := range t.Header {
			if err := setCell(f, sheet, c, 0, h); err != nil {
				return err
			}
		}
		for r, row := range t.Rows {
			for c, v := range row {
				if err := setCell(f, sheet, c, r+1, v); err != nil {
					return err
				}
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(x) {
			return nil
		}
		if math.IsInf(x, 0) {
			return f.SetCellValue(sheet, cell, FormatCell(x))
		}
		return f.SetCellFloat(sheet, cell, x, -1, 64)
	case string, int, int64:
		return f.SetCellValue(sheet, cell, x)
	default:
		return f.SetCellValue(sheet, cell, FormatCell(x))
	}
}
