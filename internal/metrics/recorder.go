// Package metrics counts what a batch or driver run did, for export to a
// node_exporter textfile
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ppiankov/estatescout/internal/model"
)

// Recorder holds the run's collectors on a private registry
type Recorder struct {
	registry *prometheus.Registry

	pagesTotal     *prometheus.CounterVec
	pageDuration   *prometheus.HistogramVec
	quality        prometheus.Histogram
	qualifiedTotal prometheus.Counter
	reviewTotal    prometheus.Counter
	sinkTotal      *prometheus.CounterVec
}

// NewRecorder creates a recorder with fresh collectors
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()

	pagesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "estatescout",
			Name:      "pages_total",
			Help:      "Processed pages by kind and status.",
		},
		[]string{"kind", "status"},
	)
	pageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "estatescout",
			Name:      "page_duration_seconds",
			Help:      "Time to load and process one page.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"status"},
	)
	quality := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "estatescout",
			Name:      "extraction_quality",
			Help:      "Extraction quality score of detail pages.",
			Buckets:   []float64{0, 15, 30, 50, 65, 80, 100, 125},
		},
	)
	qualifiedTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "estatescout",
			Name:      "qualified_cases_total",
			Help:      "Listing entries that passed every eligibility gate.",
		},
	)
	reviewTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "estatescout",
			Name:      "needs_review_total",
			Help:      "Extractions scored below the review threshold.",
		},
	)
	sinkTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "estatescout",
			Name:      "sink_messages_total",
			Help:      "Case messages handed to the sink by status.",
		},
		[]string{"status"},
	)

	registry.MustRegister(pagesTotal, pageDuration, quality, qualifiedTotal, reviewTotal, sinkTotal)

	return &Recorder{
		registry:       registry,
		pagesTotal:     pagesTotal,
		pageDuration:   pageDuration,
		quality:        quality,
		qualifiedTotal: qualifiedTotal,
		reviewTotal:    reviewTotal,
		sinkTotal:      sinkTotal,
	}
}

// ObservePage records one processed page. A nil report with an error counts
// as a failed load.
func (r *Recorder) ObservePage(report *model.Report, duration time.Duration, err error) {
	status := statusOf(err)
	kind := string(model.PageUnknown)
	if report != nil {
		kind = string(report.Kind)
	}

	r.pagesTotal.WithLabelValues(kind, status).Inc()
	r.pageDuration.WithLabelValues(status).Observe(duration.Seconds())

	if err != nil || report == nil {
		return
	}
	r.qualifiedTotal.Add(float64(len(report.Cases)))
	if report.Record != nil {
		r.quality.Observe(float64(report.Record.ExtractionQuality))
	}
	if report.Assessment != nil && report.Assessment.NeedsReview {
		r.reviewTotal.Inc()
	}
}

// ObserveSink records one sink delivery
func (r *Recorder) ObserveSink(err error) {
	r.sinkTotal.WithLabelValues(statusOf(err)).Inc()
}

// Gatherer exposes the registry
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteToTextfile writes the metrics in the text exposition format,
// replacing path atomically
func (r *Recorder) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
