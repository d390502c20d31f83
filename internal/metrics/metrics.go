// Package metrics records per-run Prometheus metrics for the batch job and
// writes them in the node-exporter textfile format.
package metrics

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Phase names used as the phase label.
const (
	PhaseFetch     = "fetch"
	PhaseExtract   = "extract"
	PhaseTransform = "transform"
	PhaseLoad      = "load"
	PhaseQuery     = "query"
)

// Recorder owns a private registry so each run exports only its own samples.
type Recorder struct {
	registry      *prometheus.Registry
	records       *prometheus.GaugeVec
	phaseDuration *prometheus.HistogramVec
	lastSuccess   prometheus.Gauge
	lastRun       prometheus.Gauge
}

// NewRecorder registers the run collectors on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "banketl_records_extracted",
				Help: "Number of records extracted from the source table, labeled by source host.",
			},
			[]string{"source"},
		),
		phaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "banketl_phase_duration_seconds",
				Help:    "Duration of each ETL phase.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"phase"},
		),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "banketl_last_run_success",
			Help: "1 if the last run completed, 0 otherwise.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "banketl_last_run_timestamp_seconds",
			Help: "Unix time the last run finished.",
		}),
	}
	r.registry.MustRegister(r.records, r.phaseDuration, r.lastSuccess, r.lastRun)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveRecords sets the extracted record count for the source URL's host.
func (r *Recorder) ObserveRecords(sourceURL string, n int) {
	r.records.WithLabelValues(SanitizeSite(sourceURL)).Set(float64(n))
}

// ObservePhase records how long a phase took.
func (r *Recorder) ObservePhase(phase string, d time.Duration) {
	r.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// MarkResult records the run outcome and finish time.
func (r *Recorder) MarkResult(success bool, finishedAt time.Time) {
	if success {
		r.lastSuccess.Set(1)
	} else {
		r.lastSuccess.Set(0)
	}
	r.lastRun.Set(float64(finishedAt.Unix()))
}

// WriteTextfile writes the registry to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("metrics textfile path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create metrics dir: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// SanitizeSite extracts a lowercase hostname from a URL.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}
