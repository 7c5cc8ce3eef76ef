package internal

import "time"

const (
	ColumnContent = "content"
	ColumnAnswer  = "answer"
	ColumnType    = "type"

	BooleanType = "判断题"
)

var OptionSlots = [6]string{"A", "B", "C", "D", "E", "F"}

type QuestionRecord struct {
	Content string
	Answer  string
	Options [6]string
	Type    string
}

type SourceRow struct {
	File   string
	RowNo  int
	Values map[string]string
}

func (r SourceRow) Get(column string) string {
	return r.Values[column]
}

type ErrorKind string

const (
	KindFileAccess        ErrorKind = "file_access"
	KindSchema            ErrorKind = "schema"
	KindAnswerResolution  ErrorKind = "answer_resolution"
	KindContentValidation ErrorKind = "content_validation"
)

// ErrorEntry with RowNo 0 refers to the whole file.
type ErrorEntry struct {
	File   string
	RowNo  int
	Kind   ErrorKind
	Reason string
	Raw    string
}

func (e ErrorEntry) FileLevel() bool {
	return e.RowNo == 0
}

type FileResult struct {
	Name     string
	Rows     int
	Filtered int
	Accepted int
	Rejected int
	Err      error
}

type RunResult struct {
	RunID      string
	StartedAt  time.Time
	FilesSeen  int
	Files      []FileResult
	Records    []QuestionRecord
	Errors     []ErrorEntry
	OutputPath string
	ReportPath string
}

type RunRow struct {
	ID         string
	StartedAt  string
	SourceDir  string
	FilesSeen  int
	Accepted   int
	Filtered   int
	ErrorCount int
	OutputPath string
	ReportPath string
}
