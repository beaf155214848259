package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"rangemult-go/internal/breakout"
)

var exportHeader = []string{
	"date", "session_start", "session_end",
	"range_high", "range_low", "range_size",
	"max_range_mult", "direction",
}

func exportRow(r breakout.Result) []string {
	return []string{
		r.Date.Format("2006-01-02"),
		r.SessionStart.Format("2006-01-02 15:04:05"),
		r.SessionEnd.Format("2006-01-02 15:04:05"),
		strconv.FormatFloat(r.RangeHigh, 'f', -1, 64),
		strconv.FormatFloat(r.RangeLow, 'f', -1, 64),
		strconv.FormatFloat(r.RangeSize, 'f', -1, 64),
		strconv.FormatFloat(r.MaxRangeMult, 'f', -1, 64),
		string(r.Direction),
	}
}

// WriteCSV exports one row per session record.
func WriteCSV(path string, results []breakout.Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range results {
		if err := w.Write(exportRow(r)); err != nil {
			return fmt.Errorf("write record for %s: %w", r.Date.Format("2006-01-02"), err)
		}
	}
	w.Flush()
	return w.Error()
}

// WriteXLSX exports session records as a spreadsheet for hand analysis.
func WriteXLSX(path string, results []breakout.Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sessions"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for col, h := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("write header cell: %w", err)
		}
	}
	for rowIdx, r := range results {
		values := []interface{}{
			r.Date.Format("2006-01-02"),
			r.SessionStart.Format("2006-01-02 15:04:05"),
			r.SessionEnd.Format("2006-01-02 15:04:05"),
			r.RangeHigh, r.RangeLow, r.RangeSize,
			r.MaxRangeMult, string(r.Direction),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("write cell: %w", err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}
