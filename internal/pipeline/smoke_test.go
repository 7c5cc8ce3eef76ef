package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"tiku/internal"
	"tiku/internal/config"
)

type fakeLedger struct {
	runs []internal.RunResult
	err  error
}

func (f *fakeLedger) RecordRun(res internal.RunResult, _ string) error {
	f.runs = append(f.runs, res)
	return f.err
}

func testConfig(tmp string) config.Config {
	return config.Config{
		OutputPath:       filepath.Join(tmp, "out", "questions.xlsx"),
		LogDir:           filepath.Join(tmp, "logs"),
		SourceExtensions: []string{".xls", ".xlsx"},
		MinContentLength: DefaultMinContentLength,
	}
}

func newTestProcessor(cfg config.Config, ledger Ledger) *Processor {
	p := NewProcessor(cfg, nil, ledger)
	p.now = func() time.Time { return time.Date(2026, 10, 16, 9, 30, 0, 0, time.Local) }
	return p
}

func readOutput(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestSmokeDirectoryToXLSX(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "source")
	if err := os.MkdirAll(filepath.Join(src, "nested.xlsx"), 0o755); err != nil {
		t.Fatal(err)
	}

	writeFile(t, filepath.Join(src, "01_single.xlsx"), mkXLSX([][]any{
		{"题目", "正确选项", "题型", "A", "B", "C", "D"},
		{"下列哪个是安全色？", "b", "单选题", "黄", "红", "蓝", "绿"},
		{"短", "A", "单选题"},
		{"以下说法正确的是哪一项", "xyz", "单选题", "甲", "乙"},
		{"下列属于个人防护用品的是", "a、c", "多选题", "安全帽", "扳手", "手套", "电钻"},
	}))
	writeFile(t, filepath.Join(src, "02_judge.XLSX"), mkXLSX([][]any{
		{"题干", "答案", "题型", "A", "B"},
		{"高处作业必须系安全带", "对", "判断题", "x", "y"},
		{"这是一个判断题目", "也许", "判断题"},
	}))
	writeFile(t, filepath.Join(src, "03_broken.xls"), append(append([]byte{}, oleMagic...), make([]byte, 32)...))
	writeFile(t, filepath.Join(src, "04_schema.xlsx"), mkXLSX([][]any{
		{"问题", "答案"},
		{"没有题型列的题目", "A"},
	}))
	writeFile(t, filepath.Join(src, "notes.txt"), []byte("ignored"))

	cfg := testConfig(tmp)
	ledger := &fakeLedger{}
	res, err := newTestProcessor(cfg, ledger).Run(src)
	if err != nil {
		t.Fatal(err)
	}

	if res.FilesSeen != 4 {
		t.Fatalf("filesSeen=%d", res.FilesSeen)
	}
	if len(res.Records) != 3 {
		t.Fatalf("records=%d", len(res.Records))
	}
	wantAnswers := []string{"B", "AC", "A"}
	for i, want := range wantAnswers {
		if res.Records[i].Answer != want {
			t.Fatalf("record %d answer=%q want %q", i, res.Records[i].Answer, want)
		}
	}
	if res.Records[2].Options != [6]string{"正确", "错误", "", "", "", ""} {
		t.Fatalf("boolean options=%q", res.Records[2].Options)
	}

	if len(res.Errors) != 4 {
		t.Fatalf("errors=%+v", res.Errors)
	}
	wantErrors := []internal.ErrorEntry{
		{File: "01_single.xlsx", RowNo: 4, Kind: internal.KindAnswerResolution, Raw: "xyz"},
		{File: "02_judge.XLSX", RowNo: 3, Kind: internal.KindAnswerResolution, Raw: "也许"},
		{File: "03_broken.xls", RowNo: 0, Kind: internal.KindFileAccess},
		{File: "04_schema.xlsx", RowNo: 0, Kind: internal.KindSchema},
	}
	for i, want := range wantErrors {
		got := res.Errors[i]
		if got.File != want.File || got.RowNo != want.RowNo || got.Kind != want.Kind || got.Raw != want.Raw {
			t.Fatalf("error %d=%+v want %+v", i, got, want)
		}
	}
	if !strings.Contains(res.Errors[3].Reason, "type") {
		t.Fatalf("schema reason=%q", res.Errors[3].Reason)
	}

	rowErrors := 0
	for _, e := range res.Errors {
		if !e.FileLevel() {
			rowErrors++
		}
	}
	totalRows, filtered := 0, 0
	for _, f := range res.Files {
		if f.Accepted+f.Rejected+f.Filtered != f.Rows {
			t.Fatalf("file %s does not add up: %+v", f.Name, f)
		}
		totalRows += f.Rows
		filtered += f.Filtered
	}
	if len(res.Records)+rowErrors+filtered != totalRows {
		t.Fatalf("accounting: records=%d rowErrors=%d filtered=%d rows=%d", len(res.Records), rowErrors, filtered, totalRows)
	}

	out := readOutput(t, cfg.OutputPath)
	if len(out) != 4 {
		t.Fatalf("output rows=%d", len(out))
	}
	if strings.Join(out[0], ",") != "content,answer,A,B,C,D,E,F" {
		t.Fatalf("header=%q", out[0])
	}
	if out[1][0] != "下列哪个是安全色？" || out[1][1] != "B" || out[1][2] != "黄" {
		t.Fatalf("row1=%q", out[1])
	}

	if res.ReportPath != filepath.Join(cfg.LogDir, "process_log_202610160930.txt") {
		t.Fatalf("report=%s", res.ReportPath)
	}
	report, err := os.ReadFile(res.ReportPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(report), "[03_broken.xls] row whole file error: file read failed") {
		t.Fatalf("report=%s", report)
	}

	if len(ledger.runs) != 1 || ledger.runs[0].RunID != res.RunID {
		t.Fatalf("ledger runs=%d", len(ledger.runs))
	}
}

func TestRunWithoutErrorsWritesNoReport(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "source")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(src, "bank.xlsx"), mkXLSX([][]any{
		{"question", "correct answer", "question type", "option a", "option b"},
		{"Which sign means stop?", "a", "single", "red octagon", "green circle"},
	}))

	cfg := testConfig(tmp)
	ledger := &fakeLedger{err: errors.New("ledger down")}
	res, err := newTestProcessor(cfg, ledger).Run(src)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Records) != 1 || res.Records[0].Options[0] != "red octagon" {
		t.Fatalf("records=%+v", res.Records)
	}
	if res.ReportPath != "" {
		t.Fatalf("report=%s", res.ReportPath)
	}
	if _, err := os.Stat(cfg.LogDir); !os.IsNotExist(err) {
		t.Fatalf("log dir should not exist, stat err=%v", err)
	}
	if _, err := os.Stat(cfg.OutputPath); err != nil {
		t.Fatal(err)
	}
}

func TestRunEmptyDirectoryWritesHeaderOnly(t *testing.T) {
	tmp := t.TempDir()
	cfg := testConfig(tmp)
	res, err := newTestProcessor(cfg, nil).Run(tmp)
	if err != nil {
		t.Fatal(err)
	}
	if res.FilesSeen != 0 || len(res.Records) != 0 || len(res.Errors) != 0 {
		t.Fatalf("res=%+v", res)
	}
	if out := readOutput(t, cfg.OutputPath); len(out) != 1 {
		t.Fatalf("output rows=%d", len(out))
	}
}

func TestRunFailsWhenOutputUnwritable(t *testing.T) {
	tmp := t.TempDir()
	blocker := filepath.Join(tmp, "blocker")
	writeFile(t, blocker, []byte("file, not dir"))

	cfg := testConfig(tmp)
	cfg.OutputPath = filepath.Join(blocker, "questions.xlsx")
	if _, err := newTestProcessor(cfg, nil).Run(tmp); err == nil {
		t.Fatal("expected write error")
	}
}

func TestRunMissingSourceDir(t *testing.T) {
	tmp := t.TempDir()
	if _, err := newTestProcessor(testConfig(tmp), nil).Run(filepath.Join(tmp, "absent")); err == nil {
		t.Fatal("expected error for missing source dir")
	}
}

func TestRunZeroConfigKeepsContentThreshold(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "source")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(src, "bank.xlsx"), mkXLSX([][]any{
		{"题目", "答案", "题型"},
		{"abc", "A", "单选题"},
		{"abcd", "A", "单选题"},
	}))

	cfg := config.Config{
		OutputPath:       filepath.Join(tmp, "out", "questions.xlsx"),
		LogDir:           filepath.Join(tmp, "logs"),
		SourceExtensions: []string{".xlsx"},
	}
	res, err := newTestProcessor(cfg, nil).Run(src)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Files) != 1 || res.Files[0].Filtered != 1 || res.Files[0].Accepted != 1 {
		t.Fatalf("files=%+v", res.Files)
	}
	if len(res.Records) != 1 || res.Records[0].Content != "abcd" {
		t.Fatalf("records=%+v", res.Records)
	}
}

func TestBuildRecordBoolean(t *testing.T) {
	row := internal.SourceRow{File: "j.xlsx", RowNo: 2, Values: map[string]string{
		"content": " 高处作业必须系安全带 ", "answer": "对", "type": "判断题", "A": "foo", "B": "bar", "C": "baz",
	}}
	rec, err := BuildRecord(row, DefaultMinContentLength)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Content != "高处作业必须系安全带" || rec.Answer != "A" || rec.Type != internal.BooleanType {
		t.Fatalf("rec=%+v", rec)
	}
	if rec.Options != [6]string{"正确", "错误", "", "", "", ""} {
		t.Fatalf("options=%q", rec.Options)
	}
}

func TestBuildRecordRejects(t *testing.T) {
	row := internal.SourceRow{Values: map[string]string{"content": "以下说法正确的是", "answer": "xyz", "type": "单选题"}}
	if _, err := BuildRecord(row, DefaultMinContentLength); !errors.Is(err, ErrAnswerResolution) {
		t.Fatalf("err=%v", err)
	}
}
