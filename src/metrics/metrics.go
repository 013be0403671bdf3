// Package metrics records extraction statistics of a run in a private Prometheus registry.
// A one-shot CLI has nothing to scrape, so the registry is written out in the node_exporter
// textfile format instead.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/iafilius/HPAScaleGraphs/src/hpalog"
)

const namespace = "hpagraph"

// Recorder owns the collectors for one invocation.
type Recorder struct {
	reg        *prometheus.Registry
	lines      *prometheus.CounterVec
	marked     *prometheus.CounterVec
	records    *prometheus.CounterVec
	dropped    *prometheus.CounterVec
	lastRender prometheus.Gauge
}

// NewRecorder registers all collectors on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "lines_total", Help: "Lines read from an autoscaler log.",
		}, []string{"source"}),
		marked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "marker_lines_total", Help: "Lines containing the workload marker.",
		}, []string{"source"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "records_total", Help: "Records extracted (utilization and replicas both parsed).",
		}, []string{"source"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "dropped_lines_total", Help: "Marker lines discarded as malformed.",
		}, []string{"source"}),
		lastRender: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "last_render_timestamp_seconds", Help: "Unix time of the last written figure.",
		}),
	}
	r.reg.MustRegister(r.lines, r.marked, r.records, r.dropped, r.lastRender)
	return r
}

// Observe adds the scan statistics of one source.
func (r *Recorder) Observe(source string, s hpalog.ScanStats) {
	r.lines.WithLabelValues(source).Add(float64(s.Lines))
	r.marked.WithLabelValues(source).Add(float64(s.Marked))
	r.records.WithLabelValues(source).Add(float64(s.Extracted))
	r.dropped.WithLabelValues(source).Add(float64(s.Dropped))
}

// MarkRender records when a figure was written.
func (r *Recorder) MarkRender(t time.Time) {
	r.lastRender.Set(float64(t.Unix()))
}

// Gatherer exposes the registry, mainly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer { return r.reg }

// WriteTextfile writes all metrics to path in text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
