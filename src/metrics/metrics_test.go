package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iafilius/HPAScaleGraphs/src/hpalog"
)

func TestRecorder_ObserveAndGather(t *testing.T) {
	r := NewRecorder()
	r.Observe("run1", hpalog.ScanStats{Lines: 10, Marked: 6, Extracted: 4, Dropped: 2})
	r.Observe("run1", hpalog.ScanStats{Lines: 1, Marked: 1, Extracted: 1})
	r.Observe("run2", hpalog.ScanStats{Lines: 3})

	mfs, err := r.Gatherer().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	got := map[string]float64{}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, lp := range m.GetLabel() {
				key += "/" + lp.GetValue()
			}
			if c := m.GetCounter(); c != nil {
				got[key] = c.GetValue()
			}
		}
	}
	want := map[string]float64{
		"hpagraph_lines_total/run1":         11,
		"hpagraph_records_total/run1":       5,
		"hpagraph_dropped_lines_total/run1": 2,
		"hpagraph_lines_total/run2":         3,
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("%s = %v want %v (all=%v)", k, got[k], v, got)
		}
	}
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.Observe("estudo_do_retorno_1", hpalog.ScanStats{Lines: 5, Marked: 4, Extracted: 4})
	r.MarkRender(time.Unix(1700000000, 0))
	p := filepath.Join(t.TempDir(), "hpagraph.prom")
	if err := r.WriteTextfile(p); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	out := string(b)
	for _, want := range []string{
		`hpagraph_records_total{source="estudo_do_retorno_1"} 4`,
		"hpagraph_last_render_timestamp_seconds 1.7e+09",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("textfile missing %q:\n%s", want, out)
		}
	}
}

func TestRecorder_WriteTextfileBadDir(t *testing.T) {
	r := NewRecorder()
	if err := r.WriteTextfile(filepath.Join(t.TempDir(), "nope", "x.prom")); err == nil {
		t.Fatalf("expected error")
	}
}
