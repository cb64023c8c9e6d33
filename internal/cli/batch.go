package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ppiankov/estatescout/internal/export"
	"github.com/ppiankov/estatescout/internal/metrics"
	"github.com/ppiankov/estatescout/internal/model"
	"github.com/ppiankov/estatescout/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	batchXLSX    string
	batchMetrics string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <list-file|directory>",
	Short: "Process many saved pages or URLs concurrently",
	Long: `Batch processes every source in a list file (one path or URL per line,
# for comments) or every .html file of a directory, using a worker pool.

Each report is written as JSON to the output directory. Optionally all
results are collected into an .xlsx workbook and the run's metrics are
written in Prometheus text format.

Example:
  estatescout batch pages.txt --concurrency 8 --output-dir reports/
  estatescout batch snapshots/ --xlsx estates.xlsx --metrics batch.prom`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "number of concurrent workers (default: concurrency.workers)")
	batchCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "./reports", "output directory for JSON reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "overall batch timeout")
	batchCmd.Flags().StringVar(&batchXLSX, "xlsx", "", "write an .xlsx workbook of all results")
	batchCmd.Flags().StringVar(&batchMetrics, "metrics", "", "write Prometheus text-format metrics to this file")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	input := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	cfg := *appConfig
	cfg.Cache.Enabled = cfg.Cache.Enabled && !noCache
	workers := concurrency
	if workers <= 0 {
		workers = cfg.Concurrency.Workers
	}

	sources, err := worker.ReadSources(input)
	if err != nil {
		return fmt.Errorf("read sources: %w", err)
	}
	if len(sources) == 0 {
		return fmt.Errorf("no sources in %s", input)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	logger.Info("batch started", "sources", len(sources), "workers", workers, "output", outputDir)

	recorder := metrics.NewRecorder()
	var (
		entries  []export.Entry
		failures int
	)
	processor := worker.NewBatchProcessor(newPipeline(&cfg), workers,
		worker.WithObserver(func(r *worker.ScanResult) {
			recorder.ObservePage(r.Report, r.Duration, r.Error)
			entries = append(entries, export.Entry{Source: r.Source, Report: r.Report, Err: r.Error})

			if r.Error != nil {
				failures++
				logger.Warn("source failed", "source", r.Source, "err", r.Error)
				return
			}
			path := filepath.Join(outputDir, reportFileName(r.Source, r.Report)+".json")
			if err := writeJSON(path, r.Report); err != nil {
				failures++
				logger.Error("write report", "source", r.Source, "err", err)
				return
			}
			logger.Info("source processed", "source", r.Source, "kind", r.Report.Kind, "duration", r.Duration.Round(time.Millisecond))
		}))

	results := processor.Process(ctx, sources)

	if batchXLSX != "" {
		if err := writeWorkbook(batchXLSX, entries); err != nil {
			return err
		}
		logger.Info("workbook written", "path", batchXLSX)
	}
	if batchMetrics != "" {
		if err := recorder.WriteToTextfile(batchMetrics); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	printBatchSummary(results, failures)
	if failures == len(results) {
		return fmt.Errorf("all %d sources failed", failures)
	}
	return nil
}

func writeWorkbook(path string, entries []export.Entry) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create workbook: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close workbook: %w", closeErr)
		}
	}()
	if err := export.WriteWorkbook(f, entries); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func printBatchSummary(results []*worker.ScanResult, failures int) {
	kinds := map[model.PageKind]int{}
	qualified, review := 0, 0
	for _, r := range results {
		if r.Report == nil {
			continue
		}
		kinds[r.Report.Kind]++
		qualified += len(r.Report.Cases)
		if r.Report.Assessment != nil && r.Report.Assessment.NeedsReview {
			review++
		}
	}

	t := newTable(os.Stdout)
	t.AppendHeader(table.Row{"Batch", "Count"})
	t.AppendRows([]table.Row{
		{"Sources", len(results)},
		{"Listings", kinds[model.PageListing]},
		{"Case details", kinds[model.PageDetail]},
		{"Unknown pages", kinds[model.PageUnknown]},
		{"Qualified cases", qualified},
		{"Needs review", review},
		{"Failures", failures},
	})
	t.Render()
}

// reportFileName names a report after its case number, falling back to the
// source's base name
func reportFileName(source string, report *model.Report) string {
	name := ""
	if report != nil && report.Record != nil {
		name = report.Record.CaseNumber
	}
	if name == "" {
		base := filepath.Base(source)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		case ' ':
			return '-'
		default:
			return r
		}
	}, name)

	// Limit length
	if len(name) > 100 {
		name = name[:100]
	}
	if name == "" || name == "." {
		name = "report"
	}
	return name
}
