package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"tiku/internal"
	"tiku/internal/config"
	"tiku/internal/logger"
	"tiku/internal/util"
)

// Ledger persists a summary of finished runs.
type Ledger interface {
	RecordRun(res internal.RunResult, sourceDir string) error
}

type Processor struct {
	cfg    config.Config
	log    *logger.Logger
	ledger Ledger
	now    func() time.Time
}

// NewProcessor builds a driver; log and ledger may be nil.
func NewProcessor(cfg config.Config, log *logger.Logger, ledger Ledger) *Processor {
	if log == nil {
		log = logger.Discard()
	}
	// The threshold can be raised but never lowered below the default.
	cfg.MinContentLength = max(cfg.MinContentLength, DefaultMinContentLength)
	return &Processor{cfg: cfg, log: log, ledger: ledger, now: time.Now}
}

// Run processes every source file in sourceDir and writes the dataset and, when
// any error was collected, the error report. File and row failures are collected,
// never returned; only environment faults (listing the directory, writing
// artifacts) end the run with an error.
func (p *Processor) Run(sourceDir string) (internal.RunResult, error) {
	res := internal.RunResult{
		RunID:      uuid.NewString(),
		StartedAt:  p.now(),
		OutputPath: p.cfg.OutputPath,
	}

	files, err := ListSources(sourceDir, p.cfg.SourceExtensions)
	if err != nil {
		return res, fmt.Errorf("list sources: %w", err)
	}
	res.FilesSeen = len(files)

	collector := NewCollector()
	records := []internal.QuestionRecord{}
	for _, path := range files {
		fr, accepted := p.processFile(path, collector)
		res.Files = append(res.Files, fr)
		records = append(records, accepted...)
	}
	res.Records = records
	res.Errors = collector.Entries()

	if err := WriteDataset(res.Records, p.cfg.OutputPath); err != nil {
		return res, fmt.Errorf("write dataset: %w", err)
	}
	if collector.Len() > 0 {
		path, err := SaveReport(res, p.cfg.LogDir)
		if err != nil {
			return res, fmt.Errorf("write report: %w", err)
		}
		res.ReportPath = path
	}

	if p.ledger != nil {
		if err := p.ledger.RecordRun(res, sourceDir); err != nil {
			p.log.Warn("run not recorded", "run", res.RunID, "err", err)
		}
	}

	p.log.Info("run finished", "run", res.RunID, "files", res.FilesSeen, "records", len(res.Records), "errors", len(res.Errors))
	return res, nil
}

func (p *Processor) processFile(path string, collector *Collector) (internal.FileResult, []internal.QuestionRecord) {
	name := filepath.Base(path)
	fr := internal.FileResult{Name: name}

	sheet, err := LoadSheet(path)
	if err != nil {
		fr.Err = fileAccessError(err)
		collector.RecordFile(name, fr.Err)
		p.log.Warn("file skipped", "file", name, "err", fr.Err)
		return fr, nil
	}
	if missing := missingColumns(sheet.Header); len(missing) > 0 {
		fr.Err = fmt.Errorf("%w: %s", ErrSchema, strings.Join(missing, ", "))
		collector.RecordFile(name, fr.Err)
		p.log.Warn("file skipped", "file", name, "err", fr.Err)
		return fr, nil
	}

	rows := sheet.SourceRows(name)
	fr.Rows = len(rows)

	out := []internal.QuestionRecord{}
	for _, row := range rows {
		if util.TrimmedLen(row.Get(internal.ColumnContent)) <= p.cfg.MinContentLength {
			fr.Filtered++
			continue
		}
		rec, err := BuildRecord(row, p.cfg.MinContentLength)
		if err != nil {
			collector.RecordRow(name, row.RowNo, err, row.Get(internal.ColumnAnswer))
			fr.Rejected++
			continue
		}
		out = append(out, rec)
		fr.Accepted++
	}

	p.log.Info("file processed", "file", name, "rows", fr.Rows, "accepted", fr.Accepted, "filtered", fr.Filtered, "rejected", fr.Rejected)
	return fr, out
}

// BuildRecord cleans and validates a single source row.
func BuildRecord(row internal.SourceRow, minContentLength int) (internal.QuestionRecord, error) {
	qType := NormalizeType(row.Get(internal.ColumnType))
	content := strings.TrimSpace(row.Get(internal.ColumnContent))
	answer := CleanAnswer(row.Get(internal.ColumnAnswer), qType)

	if err := ValidateRow(content, answer, minContentLength); err != nil {
		return internal.QuestionRecord{}, err
	}
	return internal.QuestionRecord{
		Content: content,
		Answer:  answer,
		Options: BuildOptions(row, qType),
		Type:    qType,
	}, nil
}
