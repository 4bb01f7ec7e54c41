package exporters

import (
	"github.com/xuri/excelize/v2"

	"github.com/darzi-app/darzi/app/models"
)

// renderExcel writes one sheet per table.
func renderExcel(r models.Report, shop string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	for i, t := range tables(r) {
		sheet := t.title
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}

		row := 1
		if shop != "" && i == 0 {
			if err := f.SetCellValue(sheet, "A1", shop); err != nil {
				return nil, err
			}
			if err := f.SetCellStyle(sheet, "A1", "A1", bold); err != nil {
				return nil, err
			}
			row = 3
		}

		if err := writeRow(f, sheet, row, t.header); err != nil {
			return nil, err
		}
		first, _ := excelize.CoordinatesToCellName(1, row)
		last, _ := excelize.CoordinatesToCellName(len(t.header), row)
		if err := f.SetCellStyle(sheet, first, last, bold); err != nil {
			return nil, err
		}
		for _, cells := range t.rows {
			row++
			if err := writeRow(f, sheet, row, cells); err != nil {
				return nil, err
			}
		}
		if err := f.SetColWidth(sheet, "A", "A", 28); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	return f.SetSheetRow(sheet, cell, &values)
}
