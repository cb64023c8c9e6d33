package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ppiankov/estatescout/internal/cache"
	"github.com/ppiankov/estatescout/internal/model"
	"github.com/ppiankov/estatescout/internal/pipeline"
	"github.com/ppiankov/estatescout/internal/worker"
)

// newPipeline wires a pipeline whose fetcher shares one page cache and one
// per-host limiter
func newPipeline(cfg *model.Config) *pipeline.Pipeline {
	return pipeline.NewPipeline(cfg,
		pipeline.WithLogger(logger),
		pipeline.WithFetcher(newFetcher(cfg)))
}

func newFetcher(cfg *model.Config) *pipeline.Fetcher {
	return pipeline.NewFetcherFromConfig(cfg.HTTP,
		pipeline.WithPageCache(cache.New(cfg.Cache)),
		pipeline.WithLimiter(worker.NewLimiterFromConfig(cfg.RateLimiting)),
		pipeline.WithFetchLogger(logger.With("stage", "fetch")))
}

// newTable returns a rounded table writing to w
func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// writeJSON writes v indented to path, creating parent directories
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// printJSON writes v indented to w
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// reviewMark renders the review flag of an assessment
func reviewMark(a *model.Assessment) string {
	if a != nil && a.NeedsReview {
		return "review"
	}
	return ""
}
