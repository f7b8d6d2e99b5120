package handler

import (
	"fmt"
	"io"

	"github.com/maxviazov/config-grid-service/internal/model"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// writeXLSX renders rows into a single-sheet workbook: a header row of column
// names followed by one row per record, in the given column order.
func writeXLSX(w io.Writer, sheet string, columns []string, rows []model.Record) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	vals := make([]any, len(columns))
	for i, r := range rows {
		for j, c := range columns {
			vals[j] = r[c]
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if len(columns) > 0 {
		if err := f.AutoFilter(sheet, fmt.Sprintf("A1:%s", lastHeaderCell(len(columns))), nil); err != nil {
			return fmt.Errorf("auto filter: %w", err)
		}
	}
	_, err := f.WriteTo(w)
	return err
}

func lastHeaderCell(n int) string {
	cell, _ := excelize.CoordinatesToCellName(n, 1)
	return cell
}
