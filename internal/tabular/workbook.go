package tabular

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// WriteWorkbook writes the combined workbook with the enriched and
// unmatched tables as separate sheets.
func WriteWorkbook(path string, enriched, unmatched [][]string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := writeSheet(f, "Enriched", enriched); err != nil {
		return err
	}
	if err := writeSheet(f, "Unmatched", unmatched); err != nil {
		return err
	}

	// Replace the default sheet with ours.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, name string, table [][]string) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	for i, row := range table {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+1, err)
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			return fmt.Errorf("failed to write sheet %s row %d: %w", name, i+1, err)
		}
	}
	return nil
}
