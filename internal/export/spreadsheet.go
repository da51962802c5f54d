package export

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/espe-ciber/sentinel-console/internal/models"
)

const (
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"

	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
)

// ToSpreadsheet writes the table as a single xlsx sheet. A table with no
// columns yields a valid workbook with an empty sheet. Failures, panics
// included, are returned as *models.ExportError.
func ToSpreadsheet(sheet string, table Table) ([]byte, error) {
	return render(FormatXLSX, func() ([]byte, error) {
		return writeSpreadsheet(sheet, table)
	})
}

// render runs fn and converts an error or a panic into *models.ExportError
func render(format string, fn func() ([]byte, error)) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = &models.ExportError{Format: format, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	data, err = fn()
	if err != nil {
		var exportErr *models.ExportError
		if errors.As(err, &exportErr) {
			return nil, err
		}
		return nil, &models.ExportError{Format: format, Err: err}
	}
	return data, nil
}

func writeSpreadsheet(sheet string, table Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Sheet1"
	}
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return nil, fmt.Errorf("rename sheet: %w", err)
		}
	}

	if len(table.Columns) > 0 {
		header := make([]any, len(table.Columns))
		for i, col := range table.Columns {
			header[i] = col
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}

		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return nil, fmt.Errorf("create header style: %w", err)
		}
		if err := f.SetRowStyle(sheet, 1, 1, style); err != nil {
			return nil, fmt.Errorf("style header: %w", err)
		}
	}

	for i, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
