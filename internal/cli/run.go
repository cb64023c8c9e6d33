package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ppiankov/estatescout/internal/driver"
	"github.com/ppiankov/estatescout/internal/metrics"
	"github.com/ppiankov/estatescout/internal/model"
	"github.com/ppiankov/estatescout/internal/pacing"
	"github.com/ppiankov/estatescout/internal/pipeline"
	"github.com/ppiankov/estatescout/internal/session"
	"github.com/ppiankov/estatescout/internal/sink"
)

var (
	sessionPath string
	resume      bool
	runSink     string
	noPacing    bool
	maxCases    int
	runMetrics  string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [listing]",
	Short: "Open and extract every qualified case of a search listing",
	Long: `Run scans a search listing for qualified estate cases, then opens each
case in turn with human-like pauses, extracts it and delivers the record
to the configured sink.

Progress is saved to the session file after every case. An interrupted run
continues where it stopped with --resume.

Example:
  estatescout run results.html --sink directory
  estatescout run https://portal.example.gov/search?q=estate --sink nats
  estatescout run --resume`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSession,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&sessionPath, "session", "estatescout-session.json", "session file for progress and resume")
	runCmd.Flags().BoolVar(&resume, "resume", false, "continue the session saved in --session")
	runCmd.Flags().StringVar(&runSink, "sink", "", "sink kind, overrides sink.kind (directory, native, upload, nats)")
	runCmd.Flags().BoolVar(&noPacing, "no-pacing", false, "disable the pauses between actions")
	runCmd.Flags().IntVar(&maxCases, "max-cases", 0, "limit the session to this many cases from the cursor (0 for all)")
	runCmd.Flags().StringVar(&runMetrics, "metrics", "", "write Prometheus text-format metrics to this file")
}

func runSession(cmd *cobra.Command, args []string) error {
	if !resume && len(args) == 0 {
		return errors.New("a listing is required unless --resume is set")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := *appConfig
	if runSink != "" {
		cfg.Sink.Kind = runSink
	}
	if noPacing {
		cfg.Pacing.Enabled = false
	}

	p := newPipeline(&cfg)

	state, err := startState(ctx, p, args)
	if err != nil {
		return err
	}
	if maxCases > 0 && state.Index+maxCases < len(state.Cases) {
		state.Cases = state.Cases[:state.Index+maxCases]
	}
	if state.Done() {
		logger.Info("nothing to do", "source", state.Source, "cases", len(state.Cases))
		return nil
	}

	out, err := sink.New(cfg.Sink, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			logger.Warn("close sink", "err", err)
		}
	}()

	recorder := metrics.NewRecorder()
	runner := driver.NewRunner(driver.NewFetchNavigator(p.Fetcher()), p, out,
		driver.WithPacer(pacing.New(cfg.Pacing, pacing.WithLogger(logger.With("stage", "pacing")))),
		driver.WithRecorder(recorder),
		driver.WithLogger(logger.With("stage", "driver")),
		driver.WithCheckpoint(func(s session.State) error {
			return session.Save(sessionPath, s)
		}))

	final, runErr := runner.Run(ctx, state)
	if err := session.Save(sessionPath, final); err != nil {
		logger.Error("save session", "path", sessionPath, "err", err)
	}
	if runMetrics != "" {
		if err := recorder.WriteToTextfile(runMetrics); err != nil {
			logger.Error("write metrics", "path", runMetrics, "err", err)
		}
	}

	// The native sink owns stdout
	tableOut := io.Writer(os.Stdout)
	if cfg.Sink.Kind == sink.KindNative {
		tableOut = os.Stderr
	}
	printOutcomes(tableOut, final)

	if errors.Is(runErr, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Interrupted at case %d of %d; continue with: estatescout run --resume --session %s\n",
			final.Index+1, len(final.Cases), sessionPath)
		return nil
	}
	return runErr
}

// startState loads the saved session or scans the listing for a new one
func startState(ctx context.Context, p *pipeline.Pipeline, args []string) (session.State, error) {
	if resume {
		state, err := session.Load(sessionPath)
		if err != nil {
			return session.State{}, fmt.Errorf("resume: %w", err)
		}
		logger.Info("resuming session", "source", state.Source, "next", state.Index, "remaining", state.Remaining())
		return state, nil
	}

	report, err := p.Scan(ctx, args[0])
	if err != nil {
		return session.State{}, fmt.Errorf("scan listing: %w", err)
	}
	if report.Kind != model.PageListing {
		return session.State{}, fmt.Errorf("%s is a %s page, not a search listing", args[0], report.Kind)
	}
	logger.Info("listing scanned", "source", args[0], "entries", len(report.Verdicts), "qualified", len(report.Cases))
	return session.New(args[0], report.Cases), nil
}

func printOutcomes(w io.Writer, s session.State) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Case", "Status", "Quality", "Name Match", "Error"})
	for _, o := range s.Outcomes {
		match := ""
		if o.NameMatch > 0 {
			match = fmt.Sprintf("%.2f", o.NameMatch)
		}
		t.AppendRow(table.Row{o.CaseNumber, o.Status, o.Quality, match, o.Error})
	}
	t.AppendFooter(table.Row{
		fmt.Sprintf("%d/%d", s.Index, len(s.Cases)),
		fmt.Sprintf("%d extracted", s.Count(session.StatusExtracted)),
		"",
		"",
		fmt.Sprintf("%d skipped, %d failed", s.Count(session.StatusSkipped), s.Count(session.StatusFailed)),
	})
	t.Render()
}
