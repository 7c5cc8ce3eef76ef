package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"tiku/internal"
)

const maxNameWidth = 40

// printFileTable aligns columns by display width so CJK file names line up.
func printFileTable(w io.Writer, files []internal.FileResult) {
	nameWidth := runewidth.StringWidth("file")
	for _, f := range files {
		if n := runewidth.StringWidth(f.Name); n > nameWidth {
			nameWidth = n
		}
	}
	if nameWidth > maxNameWidth {
		nameWidth = maxNameWidth
	}

	fmt.Fprintf(w, "%s  %6s  %8s  %8s  %8s  %s\n", runewidth.FillRight("file", nameWidth), "rows", "accepted", "filtered", "rejected", "status")
	for _, f := range files {
		status := "ok"
		if f.Err != nil {
			status = f.Err.Error()
		}
		name := runewidth.FillRight(runewidth.Truncate(f.Name, nameWidth, "…"), nameWidth)
		fmt.Fprintf(w, "%s  %6d  %8d  %8d  %8d  %s\n", name, f.Rows, f.Accepted, f.Filtered, f.Rejected, status)
	}
}

func printRunTable(w io.Writer, runs []internal.RunRow) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded")
		return
	}
	for _, r := range runs {
		report := r.ReportPath
		if strings.TrimSpace(report) == "" {
			report = "-"
		}
		fmt.Fprintf(w, "%s  %s  files=%d accepted=%d filtered=%d errors=%d  source=%s  report=%s\n",
			r.ID, r.StartedAt, r.FilesSeen, r.Accepted, r.Filtered, r.ErrorCount, runewidth.Truncate(r.SourceDir, maxNameWidth, "…"), report)
	}
}
