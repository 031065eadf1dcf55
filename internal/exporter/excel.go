// Package exporter writes the current filtered view and plot settings
// as an xlsx workbook.
package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"datalens/internal/charts"
	"datalens/internal/dataset"
)

const (
	dataSheet     = "Data"
	settingsSheet = "Plot Settings"
)

// WriteXLSX streams a two-sheet workbook: the view's rows on "Data" and
// the current plot specification on "Plot Settings".
func WriteXLSX(w io.Writer, view *dataset.Table, settings charts.Settings) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		return fmt.Errorf("failed to rename data sheet: %w", err)
	}

	names := view.ColumnNames()
	for c, name := range names {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return fmt.Errorf("failed to compute header cell: %w", err)
		}
		if err := f.SetCellValue(dataSheet, cell, name); err != nil {
			return fmt.Errorf("failed to write header %q: %w", name, err)
		}
	}

	cols := view.Columns()
	for r := 0; r < view.NumRows(); r++ {
		for c := range cols {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return fmt.Errorf("failed to compute cell: %w", err)
			}
			if err := f.SetCellValue(dataSheet, cell, cols[c].CellValue(r)); err != nil {
				return fmt.Errorf("failed to write row %d: %w", r, err)
			}
		}
	}

	if _, err := f.NewSheet(settingsSheet); err != nil {
		return fmt.Errorf("failed to create settings sheet: %w", err)
	}

	rows := [][2]interface{}{
		{"x_column", settings.X},
		{"y_column", settings.Y},
		{"size_column", settings.Size},
		{"color_column", settings.Color},
		{"min_size", settings.MinSize},
		{"max_size", settings.MaxSize},
		{"gamma_size", settings.Gamma},
		{"color_palette", settings.Palette},
	}
	for i, kv := range rows {
		if err := f.SetCellValue(settingsSheet, fmt.Sprintf("A%d", i+1), kv[0]); err != nil {
			return fmt.Errorf("failed to write setting name: %w", err)
		}
		if err := f.SetCellValue(settingsSheet, fmt.Sprintf("B%d", i+1), kv[1]); err != nil {
			return fmt.Errorf("failed to write setting value: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
