// Package series turns extracted autoscaler records into time-indexed series and keeps
// them in a small in-memory store keyed by source label.
package series

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/iafilius/HPAScaleGraphs/src/hpalog"
)

// DefaultInterval is the sampling period of the watch loop used in the experiments (seconds).
const DefaultInterval = 30

// ErrUnknownLabel is returned by Store.Ordered for a label that was never stored.
var ErrUnknownLabel = errors.New("unknown series label")

// Point is a record placed on the synthetic time axis.
type Point struct {
	Timestamp   int `json:"t_seconds"`
	Utilization int `json:"cpu_utilization_pct"`
	Replicas    int `json:"replicas"`
}

// Series is an ordered, immutable sequence of points from one source.
type Series struct {
	Label    string
	Interval int
	points   []Point
}

// Build assigns timestamp i*interval to the i-th record. Records keep their input order;
// dropped lines never appear as gaps. interval <= 0 falls back to DefaultInterval.
func Build(label string, records []hpalog.Record, interval int) Series {
	if interval <= 0 {
		interval = DefaultInterval
	}
	pts := make([]Point, len(records))
	for i, r := range records {
		pts[i] = Point{Timestamp: i * interval, Utilization: r.Utilization, Replicas: r.Replicas}
	}
	return Series{Label: label, Interval: interval, points: pts}
}

// Len returns the number of points.
func (s Series) Len() int { return len(s.points) }

// Points returns a copy of the points.
func (s Series) Points() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// At returns the i-th point; it panics when out of range like a slice index.
func (s Series) At(i int) Point { return s.points[i] }

// Duration is the timestamp of the last point, 0 for an empty series.
func (s Series) Duration() int {
	if len(s.points) == 0 {
		return 0
	}
	return s.points[len(s.points)-1].Timestamp
}

// Columns returns x (seconds), utilization and replica values as float slices for plotting.
func (s Series) Columns() (xs, util, replicas []float64) {
	n := len(s.points)
	xs = make([]float64, n)
	util = make([]float64, n)
	replicas = make([]float64, n)
	for i, p := range s.points {
		xs[i] = float64(p.Timestamp)
		util[i] = float64(p.Utilization)
		replicas[i] = float64(p.Replicas)
	}
	return xs, util, replicas
}

// Summary holds simple extents of a series.
type Summary struct {
	Points                   int
	MinUtil, MaxUtil         int
	MinReplicas, MaxReplicas int
	DurationSeconds          int
}

// Summarize reports extents; all zero for an empty series.
func (s Series) Summarize() Summary {
	sum := Summary{Points: len(s.points), DurationSeconds: s.Duration()}
	for i, p := range s.points {
		if i == 0 {
			sum.MinUtil, sum.MaxUtil = p.Utilization, p.Utilization
			sum.MinReplicas, sum.MaxReplicas = p.Replicas, p.Replicas
			continue
		}
		sum.MinUtil = min(sum.MinUtil, p.Utilization)
		sum.MaxUtil = max(sum.MaxUtil, p.Utilization)
		sum.MinReplicas = min(sum.MinReplicas, p.Replicas)
		sum.MaxReplicas = max(sum.MaxReplicas, p.Replicas)
	}
	return sum
}

// LabelFromPath derives a series label from a log file path (base name without extension).
func LabelFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load scans a log file and builds its series, labeled after the file name.
func Load(path string, f hpalog.Filter, interval int) (Series, hpalog.ScanStats, error) {
	recs, stats, err := hpalog.ScanFile(path, f)
	if err != nil {
		return Series{}, stats, err
	}
	return Build(LabelFromPath(path), recs, interval), stats, nil
}

// Store maps source labels to series. Putting a series under an existing label replaces it.
type Store struct {
	byLabel map[string]Series
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{byLabel: make(map[string]Series)}
}

// Put stores s under s.Label. The zero Store is ready to use.
func (st *Store) Put(s Series) {
	if st.byLabel == nil {
		st.byLabel = make(map[string]Series)
	}
	st.byLabel[s.Label] = s
}

// Get looks up a series by label.
func (st *Store) Get(label string) (Series, bool) {
	s, ok := st.byLabel[label]
	return s, ok
}

// Len returns the number of stored series.
func (st *Store) Len() int { return len(st.byLabel) }

// Labels returns all labels sorted.
func (st *Store) Labels() []string {
	out := make([]string, 0, len(st.byLabel))
	for l := range st.byLabel {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Ordered returns the series for labels in exactly the given order.
func (st *Store) Ordered(labels ...string) ([]Series, error) {
	out := make([]Series, 0, len(labels))
	for _, l := range labels {
		s, ok := st.byLabel[l]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLabel, l)
		}
		out = append(out, s)
	}
	return out, nil
}
