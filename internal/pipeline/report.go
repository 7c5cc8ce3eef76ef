package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tiku/internal"
)

const wholeFilePlaceholder = "whole file"

func ReportFileName(at time.Time) string {
	return fmt.Sprintf("process_log_%s.txt", at.Format("200601021504"))
}

func FormatErrorEntry(e internal.ErrorEntry) string {
	row := wholeFilePlaceholder
	if !e.FileLevel() {
		row = fmt.Sprintf("%d", e.RowNo)
	}
	return fmt.Sprintf("[%s] row %s error: %s | original value: %s", e.File, row, e.Reason, e.Raw)
}

func WriteReport(w io.Writer, res internal.RunResult) error {
	lines := []string{
		fmt.Sprintf("run time: %s", res.StartedAt.Format("2006-01-02 15:04:05")),
		fmt.Sprintf("files seen: %d", res.FilesSeen),
		fmt.Sprintf("records accepted: %d", len(res.Records)),
		fmt.Sprintf("errors: %d", len(res.Errors)),
		"",
		"error details:",
	}
	for _, e := range res.Errors {
		lines = append(lines, FormatErrorEntry(e))
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

// SaveReport writes the error report into logDir and returns its path.
func SaveReport(res internal.RunResult, logDir string) (string, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(logDir, ReportFileName(res.StartedAt))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := WriteReport(f, res); err != nil {
		_ = f.Close()
		return "", err
	}
	return path, f.Close()
}
