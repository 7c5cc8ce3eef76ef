package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"tiku/internal"
)

var datasetHeaders = []string{"content", "answer", "A", "B", "C", "D", "E", "F"}

// WriteDataset saves records to outputPath in insertion order. The workbook is
// written to a temporary file first and renamed into place.
func WriteDataset(records []internal.QuestionRecord, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, h := range datasetHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellStr(sheet, cell, h); err != nil {
			return err
		}
	}

	for i, rec := range records {
		r := i + 2
		set := func(col int, value string) error {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			return f.SetCellStr(sheet, cell, value)
		}

		if err := set(1, rec.Content); err != nil {
			return err
		}
		if err := set(2, rec.Answer); err != nil {
			return err
		}
		for j, opt := range rec.Options {
			if err := set(3+j, opt); err != nil {
				return err
			}
		}
	}

	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tiku-*.xlsx")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := f.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), outputPath)
}
