package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/estatescout/internal/sink"
	"github.com/ppiankov/estatescout/internal/validate"
)

var (
	extractTimeout time.Duration
	extractJSON    string
	extractSink    string
	checkDocs      bool
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <file|url|->",
	Short: "Extract a case record from a detail page",
	Long: `Extract treats the page as a case detail page regardless of how it
classifies, prints the record as JSON and optionally delivers it to a sink.

Example:
  estatescout extract case.html
  estatescout extract case.html --json out/22E001713.json
  estatescout extract case.html --sink directory`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().DurationVar(&extractTimeout, "timeout", 2*time.Minute, "overall timeout")
	extractCmd.Flags().StringVar(&extractJSON, "json", "", "write the record to this path instead of stdout")
	extractCmd.Flags().StringVar(&extractSink, "sink", "", "deliver the record to a sink (directory, native, upload, nats)")
	extractCmd.Flags().BoolVar(&checkDocs, "check-docs", false, "probe every document link and report the dead ones")
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), extractTimeout)
	defer cancel()

	rec, assessment, err := newPipeline(appConfig).Extract(ctx, args[0])
	if err != nil {
		return fmt.Errorf("extract failed: %w", err)
	}
	logger.Info("case extracted",
		"case", rec.CaseNumber,
		"quality", assessment.Quality,
		"confidence", assessment.Confidence,
		"needs_review", assessment.NeedsReview)

	var checks []validate.DocumentCheck
	if checkDocs {
		checks = validate.NewChecker(appConfig.HTTP, appConfig.Concurrency.Workers).Check(ctx, rec.Documents)
		accessible, dead := validate.Summary(checks)
		logger.Info("documents checked", "case", rec.CaseNumber, "documents", len(checks), "accessible", accessible, "dead", dead)
		for _, c := range checks {
			if !c.Accessible {
				logger.Warn("document unavailable", "name", c.Name, "url", c.URL, "status", c.StatusCode, "err", c.Error)
			}
		}
	}

	if extractJSON != "" {
		if err := writeJSON(extractJSON, rec); err != nil {
			return err
		}
	} else if extractSink != sink.KindNative {
		// The native sink owns stdout
		out := struct {
			Record     any                      `json:"record"`
			Assessment any                      `json:"assessment"`
			Documents  []validate.DocumentCheck `json:"documentChecks,omitempty"`
		}{rec, assessment, checks}
		if err := printJSON(cmd.OutOrStdout(), out); err != nil {
			return err
		}
	}

	if extractSink == "" {
		return nil
	}
	cfg := appConfig.Sink
	cfg.Kind = extractSink
	s, err := sink.New(cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if err := s.Send(ctx, sink.NewMessage(sink.ActionSaveCase, *rec)); err != nil {
		return fmt.Errorf("deliver %s: %w", rec.CaseNumber, err)
	}
	logger.Info("case delivered", "case", rec.CaseNumber, "sink", extractSink)
	return nil
}
