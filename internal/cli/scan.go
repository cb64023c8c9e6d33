package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ppiankov/estatescout/internal/model"
)

var (
	scanTimeout time.Duration
	scanJSON    string
	scanExplain bool
	noCache     bool
)

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify <file|url|->",
	Short: "Report whether a page is a search listing or a case detail page",
	Args:  cobra.ExactArgs(1),
	RunE:  runClassify,
}

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <file|url|->",
	Short: "Classify a page and process it",
	Long: `Scan loads one page and processes it according to its kind:
- a search listing yields the estate cases that qualify for extraction
- a case detail page yields the extracted record and its quality assessment

Example:
  estatescout scan results.html
  estatescout scan results.html --explain
  estatescout scan https://portal.example.gov/case/22E001713 --json case.json`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(scanCmd)

	for _, cmd := range []*cobra.Command{classifyCmd, scanCmd} {
		cmd.Flags().DurationVar(&scanTimeout, "timeout", 2*time.Minute, "overall timeout")
		cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch)")
	}
	scanCmd.Flags().StringVar(&scanJSON, "json", "", "write the full report as JSON to this path")
	scanCmd.Flags().BoolVar(&scanExplain, "explain", false, "list every case found on a listing with its verdict")
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), scanTimeout)
	defer cancel()

	cfg := *appConfig
	cfg.Cache.Enabled = cfg.Cache.Enabled && !noCache

	p := newPipeline(&cfg)
	src, err := p.Load(ctx, args[0])
	if err != nil {
		return fmt.Errorf("load %s: %w", args[0], err)
	}
	report := p.Process(src.Page)
	fmt.Fprintln(cmd.OutOrStdout(), report.Kind)
	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), scanTimeout)
	defer cancel()

	cfg := *appConfig
	cfg.Cache.Enabled = cfg.Cache.Enabled && !noCache

	report, err := newPipeline(&cfg).Scan(ctx, args[0])
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	switch report.Kind {
	case model.PageListing:
		printListing(report, scanExplain)
	case model.PageDetail:
		printDetail(report)
	default:
		fmt.Fprintf(os.Stderr, "%s: not a listing or case detail page\n", args[0])
	}

	if scanJSON != "" {
		if err := writeJSON(scanJSON, report); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", scanJSON)
	}
	return nil
}

func printListing(report *model.Report, explain bool) {
	t := newTable(os.Stdout)
	if explain {
		t.AppendHeader(table.Row{"Case", "Age", "Qualified", "Reason"})
		for _, v := range report.Verdicts {
			t.AppendRow(table.Row{v.CaseNumber, v.AgeYears, v.Qualified, v.Reason})
		}
	} else {
		t.AppendHeader(table.Row{"Case", "Decedent", "Link"})
		for _, c := range report.Cases {
			t.AppendRow(table.Row{c.CaseNumber, c.DecedentName, c.Target.Href})
		}
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d qualified of %d", len(report.Cases), len(report.Verdicts))})
	t.Render()
}

func printDetail(report *model.Report) {
	rec := report.Record
	t := newTable(os.Stdout)
	t.AppendRows([]table.Row{
		{"Case", rec.CaseNumber},
		{"Type", rec.CaseType},
		{"Status", rec.CaseStatus},
		{"Filed", rec.FilingDate},
		{"County", rec.County},
		{"Decedent", rec.Parties.Decedent.Name},
		{"Executor", rec.Parties.Executor.Name},
		{"Beneficiaries", len(rec.Parties.Beneficiaries)},
		{"Documents", len(rec.Documents)},
		{"Events", len(rec.Events)},
	})
	if a := report.Assessment; a != nil {
		t.AppendFooter(table.Row{"Quality", fmt.Sprintf("%d (%s) %s", a.Quality, a.Confidence, reviewMark(a))})
	}
	t.Render()

	if verbose && report.Assessment != nil {
		for _, s := range report.Assessment.Signals {
			fmt.Fprintf(os.Stderr, "  [%s] %s\n", s.Severity, s.Description)
		}
	}
}
