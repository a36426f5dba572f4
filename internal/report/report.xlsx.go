package report

import (
	"bytes"
	"fmt"

	"github.com/itsatony/envmon/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	readingsSheet = "Readings"
	summarySheet  = "Summary"
)

// RenderXLSX renders a report as a workbook with a readings sheet and a
// summary sheet holding the statistics and alerts.
func RenderXLSX(rep *models.Report) ([]byte, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(readingsSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range reportHeader {
		if err := setCellValue(f, readingsSheet, col+1, 1, header); err != nil {
			f.Close()
			return nil, err
		}
	}
	if err := f.SetCellStyle(readingsSheet, "A1", "B1", headerStyle); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}
	f.SetColWidth(readingsSheet, "A", "A", 32)

	for i, r := range rep.Readings {
		row := i + 2
		if err := setCellValue(f, readingsSheet, 1, row, FormatTimestamp(r.Timestamp)); err != nil {
			f.Close()
			return nil, err
		}
		if err := setCellValue(f, readingsSheet, 2, row, r.Value); err != nil {
			f.Close()
			return nil, err
		}
	}

	summary := [][]interface{}{
		{"count", rep.Stats.Count},
		{"avg", optional(rep.Stats.Avg)},
		{"min", optional(rep.Stats.Min)},
		{"max", optional(rep.Stats.Max)},
		{"stddev", optional(rep.Stats.StdDev)},
	}
	for _, alert := range rep.Exceed {
		summary = append(summary, []interface{}{"exceed " + alert.DeviceID, alert.MaxValue})
	}
	for i, line := range summary {
		for col, v := range line {
			if err := setCellValue(f, summarySheet, col+1, i+1, v); err != nil {
				f.Close()
				return nil, err
			}
		}
	}
	f.SetColWidth(summarySheet, "A", "A", 20)

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

// optional leaves absent statistics as empty cells
func optional(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func setCellValue(f *excelize.File, sheet string, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("failed to set cell %s: %w", cell, err)
	}
	return nil
}
