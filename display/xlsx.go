package display

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const maxSheetName = 31

// XLSX collects every table into its own sheet; Save writes the workbook.
type XLSX struct {
	file   *excelize.File
	sheets int
}

func NewXLSX() *XLSX {
	return &XLSX{file: excelize.NewFile()}
}

func (x *XLSX) Table(title string, header []string, rows [][]string) error {
	sheet := title
	if len(sheet) > maxSheetName {
		sheet = sheet[:maxSheetName]
	}
	if x.sheets == 0 {
		if err := x.file.SetSheetName("Sheet1", sheet); err != nil {
			return err
		}
	} else if _, err := x.file.NewSheet(sheet); err != nil {
		return err
	}
	x.sheets++

	if err := x.setRow(sheet, 1, header); err != nil {
		return err
	}
	for i, row := range rows {
		if err := x.setRow(sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func (x *XLSX) setRow(sheet string, row int, values []string) error {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return x.file.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &cells)
}

func (x *XLSX) Save(path string) error {
	if err := x.file.SaveAs(path); err != nil {
		return err
	}
	return x.file.Close()
}
