package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/felipevm/vendasbot/records"
)

const sheetName = "Relatório"

// Spreadsheet exports the matched records as an XLSX workbook: one sheet,
// a header row with the category's field names, one record per row.
func (s *Summary) Spreadsheet() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("report: sheet: %w", err)
	}

	header := append([]string{"criado_em"}, records.EditableFields(s.Category)...)
	for col, name := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("report: header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return nil, fmt.Errorf("report: header cell: %w", err)
		}
	}

	for row, rec := range s.Matched {
		values := append([]any{rec.CreatedAt.Format(records.DisplayDateTimeLayout)}, fieldValues(rec)...)
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, fmt.Errorf("report: cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("report: cell: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("report: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func fieldValues(rec records.Record) []any {
	names := records.EditableFields(rec.Category)
	values := make([]any, len(names))
	for i, name := range names {
		v := rec.Fields[name]
		if s, ok := v.(string); ok {
			// Stored dates read better in their display form.
			if t, err := records.ParseStorageDate(s); err == nil {
				v = t.Format(records.DisplayDateLayout)
			} else if t, err := records.ParseStorageDateTime(s); err == nil {
				v = t.Format(records.DisplayDateTimeLayout)
			}
		}
		values[i] = v
	}
	return values
}
