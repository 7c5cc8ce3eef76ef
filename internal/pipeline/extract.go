package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"tiku/internal"
)

var (
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	zipMagic = []byte("PK\x03\x04")

	errLegacyWorkbook = errors.New("unreadable binary .xls workbook")
	errNoSheet        = errors.New("workbook has no sheets")
	errNoHeader       = errors.New("sheet has no header row")
	errNoTable        = errors.New("html export contains no table")
)

// Sheet is the first worksheet of a source file as untyped text.
type Sheet struct {
	Header []string
	Rows   [][]string
}

// LoadSheet reads the first sheet of path. Every cell is text; missing cells are "".
func LoadSheet(path string) (Sheet, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return Sheet{}, err
	}

	var rows [][]string
	switch {
	case bytes.HasPrefix(blob, oleMagic):
		rows, err = parseLegacyWorkbook(blob)
	case bytes.HasPrefix(blob, zipMagic):
		rows, err = parseWorkbook(blob)
	case looksLikeHTML(blob):
		rows, err = parseHTMLTable(blob)
	default:
		rows, err = parseWorkbook(blob)
	}
	if err != nil {
		return Sheet{}, err
	}
	return toSheet(rows)
}

func parseWorkbook(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errNoSheet
	}
	return f.GetRows(sheet)
}

// parseLegacyWorkbook reads the first sheet of a BIFF (.xls) workbook.
// Panics from corrupt streams are returned as errors.
func parseLegacyWorkbook(content []byte) (rows [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("%w: %v", errLegacyWorkbook, r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(content), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errLegacyWorkbook, err)
	}
	if wb == nil {
		return nil, errLegacyWorkbook
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errNoSheet
	}
	if sheet.Row(0) == nil {
		return nil, nil
	}

	rows = [][]string{}
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := []string{}
		for j := 0; j <= row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		rows = append(rows, trimTrailingEmpty(cells))
	}
	return rows, nil
}

func trimTrailingEmpty(cells []string) []string {
	n := len(cells)
	for n > 0 && strings.TrimSpace(cells[n-1]) == "" {
		n--
	}
	return cells[:n]
}

func parseHTMLTable(content []byte) ([][]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, errNoTable
	}

	rows := [][]string{}
	ownRows := table.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
		return tr.Closest("table").IsSelection(table)
	})
	ownRows.Each(func(_ int, tr *goquery.Selection) {
		cells := []string{}
		tr.ChildrenFiltered("th,td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		rows = append(rows, cells)
	})
	return rows, nil
}

func looksLikeHTML(blob []byte) bool {
	head := blob
	if len(head) > 512 {
		head = head[:512]
	}
	lower := bytes.ToLower(bytes.TrimSpace(head))
	return bytes.HasPrefix(lower, []byte("<!doctype html")) ||
		bytes.HasPrefix(lower, []byte("<html")) ||
		bytes.Contains(lower, []byte("<table"))
}

func toSheet(rows [][]string) (Sheet, error) {
	if len(rows) == 0 || isEmptyRow(rows[0]) {
		return Sheet{}, errNoHeader
	}

	header := NormalizeHeader(rows[0])
	out := Sheet{Header: header, Rows: make([][]string, 0, len(rows)-1)}
	for _, row := range rows[1:] {
		padded := make([]string, len(header))
		copy(padded, row)
		out.Rows = append(out.Rows, padded)
	}
	return out, nil
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// SourceRows pairs each data row with its provenance. Row numbers are physical:
// the header is row 1, so the first data row is row 2.
func (s Sheet) SourceRows(file string) []internal.SourceRow {
	out := make([]internal.SourceRow, 0, len(s.Rows))
	for i, row := range s.Rows {
		values := make(map[string]string, len(s.Header))
		for col, name := range s.Header {
			if name == "" {
				continue
			}
			if _, seen := values[name]; seen {
				continue
			}
			values[name] = row[col]
		}
		out = append(out, internal.SourceRow{File: file, RowNo: i + 2, Values: values})
	}
	return out
}
