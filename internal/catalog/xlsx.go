package catalog

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the exported catalog
const SheetName = "catalog"

var xlsxHeader = []interface{}{
	"code", "code_formatted", "name", "marking_status", "requires_marking", "is_experimental",
}

// WriteXLSX exports the index as a spreadsheet with the snapshot columns
func WriteXLSX(idx *Index, path string) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("create stream writer: %w", err)
	}
	if err := sw.SetColWidth(3, 3, 80); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := sw.SetRow("A1", xlsxHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, e := range idx.entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			e.Code,
			e.FormattedCode,
			e.Description,
			string(e.Status),
			e.RequiresMarking(),
			e.IsExperimental(),
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
