package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"tiku/internal/config"
	"tiku/internal/logger"
	"tiku/internal/pipeline"
	"tiku/internal/storage"
	"tiku/internal/util"
)

func main() {
	cfg, err := config.Load()
	must(err)
	log := logger.New(cfg.LogLevel)

	cmd := "run"
	args := []string{}
	if len(os.Args) >= 2 {
		cmd = os.Args[1]
		args = os.Args[2:]
	}
	if strings.HasPrefix(cmd, "-") {
		cmd = "run"
		args = os.Args[1:]
	}

	switch cmd {
	case "run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		source := fs.String("source", "", "directory with question bank spreadsheets")
		output := fs.String("output", "", "output xlsx path")
		_ = fs.Parse(args)

		cfg.OutputPath = util.FirstNonEmpty(*output, cfg.OutputPath)
		sourceDir := util.FirstNonEmpty(*source, cfg.SourceDir)
		must(cfg.Require("OUTPUT_PATH", cfg.OutputPath))
		must(cfg.Require("SOURCE_DIR", sourceDir))

		var ledger pipeline.Ledger
		if cfg.LedgerEnabled() {
			db, err := storage.Open(cfg.DBPath)
			must(err)
			defer db.Close()
			ledger = db
		}

		res, err := pipeline.NewProcessor(cfg, log, ledger).Run(sourceDir)
		must(err)

		printFileTable(os.Stdout, res.Files)
		if len(res.Errors) > 0 {
			fmt.Printf("done with %d problems, records=%d output=%s report=%s\n", len(res.Errors), len(res.Records), res.OutputPath, res.ReportPath)
			return
		}
		fmt.Printf("done, converted %d questions, output=%s\n", len(res.Records), res.OutputPath)
	case "runs:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 20, "max runs")
		_ = fs.Parse(args)

		db := openLedger(cfg)
		defer db.Close()
		runs, err := db.ListRuns(*limit)
		must(err)
		printRunTable(os.Stdout, runs)
	case "runs:errors":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		id := fs.String("id", "", "run id (default: last run)")
		_ = fs.Parse(args)

		db := openLedger(cfg)
		defer db.Close()
		runID := strings.TrimSpace(*id)
		if runID == "" {
			runID, err = db.LastRunID()
			must(err)
			if runID == "" {
				must(fmt.Errorf("no runs recorded in %s", cfg.DBPath))
			}
		}
		entries, err := db.ListRunErrors(runID)
		must(err)
		fmt.Printf("run %s: %d errors\n", runID, len(entries))
		for _, e := range entries {
			fmt.Println(pipeline.FormatErrorEntry(e))
		}
	default:
		usage()
		os.Exit(1)
	}
}

func openLedger(cfg config.Config) *storage.DB {
	if !cfg.LedgerEnabled() {
		must(fmt.Errorf("run ledger disabled: DB_PATH is empty"))
	}
	db, err := storage.Open(cfg.DBPath)
	must(err)
	return db
}

func usage() {
	fmt.Println("usage: tiku [command]")
	fmt.Println("commands:")
	fmt.Println("  run [--source=DIR] [--output=FILE.xlsx]   (default)")
	fmt.Println("  runs:list [--limit=20]")
	fmt.Println("  runs:errors [--id=RUN_ID]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
