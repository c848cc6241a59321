package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"airbnb-cleaner/models"
)

const reportSheet = "Missing data"

var reportHeader = []any{"Table", "Column", "Kind", "Type", "Rows before", "Missing before", "Rows after", "Missing after", "Status"}

// WriteMissingReport saves the missing-data report as an XLSX workbook.
func WriteMissingReport(path string, report *models.MissingReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("xlsx: create output dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return fmt.Errorf("xlsx: rename sheet: %w", err)
	}
	if err := f.SetSheetRow(reportSheet, "A1", &reportHeader); err != nil {
		return fmt.Errorf("xlsx: write header: %w", err)
	}
	for i, e := range report.Entries {
		row := []any{e.Table, e.Column, e.Kind, e.Type, e.RowsBefore, e.MissingBefore, e.RowsAfter, e.MissingAfter, e.Status}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(reportSheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx: write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx: save %q: %w", path, err)
	}
	return nil
}
