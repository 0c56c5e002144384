package importer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	templateSheet     = "Catalog"
	instructionsSheet = "Instructions"
)

// WriteTemplate writes an empty import workbook: a styled header row on the
// first sheet and an instructions sheet describing every column.
func WriteTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", templateSheet); err != nil {
		return fmt.Errorf("importer: naming template sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("importer: creating header style: %w", err)
	}
	stickyStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("importer: creating sticky header style: %w", err)
	}

	for i, col := range Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(templateSheet, cell, col.Label); err != nil {
			return fmt.Errorf("importer: writing header %q: %w", col.Label, err)
		}
		style := headerStyle
		if col.Sticky {
			style = stickyStyle
		}
		if err := f.SetCellStyle(templateSheet, cell, cell, style); err != nil {
			return fmt.Errorf("importer: styling header %q: %w", col.Label, err)
		}
		colName, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(templateSheet, colName, colName, 22); err != nil {
			return fmt.Errorf("importer: sizing column %s: %w", colName, err)
		}
	}

	if _, err := f.NewSheet(instructionsSheet); err != nil {
		return fmt.Errorf("importer: creating instructions sheet: %w", err)
	}
	lines := []string{
		"Catalog Import Instructions",
		"",
		"Orange columns are sticky: a value applies to every following row until the column gets a new value.",
		"Leave sticky cells blank on continuation rows instead of repeating them.",
		"Rows without a Description are skipped. Rows without any category are rejected.",
		"Only the first worksheet is read.",
	}
	for i, line := range lines {
		if err := f.SetCellValue(instructionsSheet, fmt.Sprintf("A%d", i+1), line); err != nil {
			return fmt.Errorf("importer: writing instructions: %w", err)
		}
	}

	tableStart := len(lines) + 2
	for i, heading := range []string{"Column", "Description", "Sticky", "Example"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableStart)
		if err := f.SetCellValue(instructionsSheet, cell, heading); err != nil {
			return fmt.Errorf("importer: writing instructions table: %w", err)
		}
	}
	for i, col := range Columns {
		row := tableStart + 1 + i
		sticky := "No"
		if col.Sticky {
			sticky = "Yes"
		}
		for j, value := range []string{col.Label, col.Description, sticky, col.Example} {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			if err := f.SetCellValue(instructionsSheet, cell, value); err != nil {
				return fmt.Errorf("importer: writing instructions table: %w", err)
			}
		}
	}
	_ = f.SetColWidth(instructionsSheet, "A", "A", 24)
	_ = f.SetColWidth(instructionsSheet, "B", "B", 70)
	_ = f.SetColWidth(instructionsSheet, "C", "C", 10)
	_ = f.SetColWidth(instructionsSheet, "D", "D", 30)

	idx, err := f.GetSheetIndex(templateSheet)
	if err != nil {
		return fmt.Errorf("importer: locating template sheet: %w", err)
	}
	f.SetActiveSheet(idx)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("importer: writing template: %w", err)
	}
	return nil
}
