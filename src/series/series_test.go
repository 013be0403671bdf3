package series

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/iafilius/HPAScaleGraphs/src/hpalog"
)

func TestBuild_TimestampsContiguous(t *testing.T) {
	recs := []hpalog.Record{{Utilization: 90, Replicas: 1}, {Utilization: 10, Replicas: 7}, {Utilization: 30, Replicas: 2}, {Utilization: 20, Replicas: 5}}
	s := Build("run1", recs, 30)
	if s.Len() != len(recs) {
		t.Fatalf("len %d want %d", s.Len(), len(recs))
	}
	for i, p := range s.Points() {
		if p.Timestamp != 30*i {
			t.Fatalf("point %d timestamp %d want %d", i, p.Timestamp, 30*i)
		}
		if p.Utilization != recs[i].Utilization || p.Replicas != recs[i].Replicas {
			t.Fatalf("point %d = %+v does not follow record order %+v", i, p, recs[i])
		}
	}
	if s.Duration() != 90 {
		t.Fatalf("duration %d want 90", s.Duration())
	}
}

func TestBuild_EmptyAndDefaultInterval(t *testing.T) {
	s := Build("empty", nil, 0)
	if s.Len() != 0 || s.Duration() != 0 {
		t.Fatalf("expected empty series, got len=%d dur=%d", s.Len(), s.Duration())
	}
	if s.Interval != DefaultInterval {
		t.Fatalf("interval %d want default %d", s.Interval, DefaultInterval)
	}
	s = Build("one-minute", []hpalog.Record{{Utilization: 1, Replicas: 1}, {Utilization: 2, Replicas: 2}}, 60)
	if s.At(1).Timestamp != 60 {
		t.Fatalf("custom interval not applied: %+v", s.At(1))
	}
}

func TestSeries_PointsIsCopy(t *testing.T) {
	s := Build("run", []hpalog.Record{{Utilization: 42, Replicas: 3}}, 30)
	pts := s.Points()
	pts[0].Utilization = 99
	if s.At(0).Utilization != 42 {
		t.Fatalf("series mutated through Points() copy")
	}
}

func TestSeries_ColumnsAndSummary(t *testing.T) {
	s := Build("run", []hpalog.Record{{Utilization: 42, Replicas: 3}, {Utilization: 7, Replicas: 5}, {Utilization: 60, Replicas: 1}}, 30)
	xs, util, reps := s.Columns()
	if len(xs) != 3 || xs[2] != 60 || util[1] != 7 || reps[0] != 3 {
		t.Fatalf("unexpected columns xs=%v util=%v reps=%v", xs, util, reps)
	}
	sum := s.Summarize()
	want := Summary{Points: 3, MinUtil: 7, MaxUtil: 60, MinReplicas: 1, MaxReplicas: 5, DurationSeconds: 60}
	if sum != want {
		t.Fatalf("summary %+v want %+v", sum, want)
	}
	if (Build("e", nil, 30).Summarize() != Summary{}) {
		t.Fatalf("empty summary should be zero")
	}
}

// The two-line round trip: extraction plus time indexing.
func TestLoad_RoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "estudo_do_retorno_1.txt")
	body := "NAME REFERENCE TARGETS MINPODS MAXPODS REPLICAS AGE\n" +
		"php-apache Deployment/php-apache cpu: 42%/50% 1 10 3 1m\n" +
		"php-apache Deployment/php-apache cpu: <unknown>/50% 1 10 3 1m\n" +
		"php-apache Deployment/php-apache cpu: 7%/50% 1 10 5 2m\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, stats, err := Load(p, hpalog.NewFilter(""), 30)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Label != "estudo_do_retorno_1" {
		t.Fatalf("label %q", s.Label)
	}
	want := []Point{{0, 42, 3}, {30, 7, 5}}
	got := s.Points()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %+v want %+v", got, want)
	}
	if stats.Dropped != 1 {
		t.Fatalf("expected one dropped line, got %+v", stats)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, _, err := Load(filepath.Join(t.TempDir(), "missing.txt"), hpalog.NewFilter(""), 30); err == nil {
		t.Fatalf("expected error")
	}
}

func TestStore(t *testing.T) {
	st := NewStore()
	a := Build("a", []hpalog.Record{{Utilization: 1, Replicas: 1}}, 30)
	b := Build("b", []hpalog.Record{{Utilization: 2, Replicas: 2}, {Utilization: 3, Replicas: 3}}, 30)
	st.Put(b)
	st.Put(a)
	if st.Len() != 2 {
		t.Fatalf("len %d", st.Len())
	}
	if got := st.Labels(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("labels %v", got)
	}
	// caller order wins over storage order
	ordered, err := st.Ordered("b", "a")
	if err != nil {
		t.Fatalf("ordered: %v", err)
	}
	if ordered[0].Label != "b" || ordered[1].Label != "a" {
		t.Fatalf("order not preserved: %s,%s", ordered[0].Label, ordered[1].Label)
	}
	// replacing shadows the earlier value
	st.Put(Build("a", []hpalog.Record{{Utilization: 9, Replicas: 9}, {Utilization: 8, Replicas: 8}, {Utilization: 7, Replicas: 7}}, 30))
	if s, _ := st.Get("a"); s.Len() != 3 {
		t.Fatalf("replacement not visible: len=%d", s.Len())
	}
	if st.Len() != 2 {
		t.Fatalf("replacement should not add entries")
	}
	if _, err := st.Ordered("a", "zzz"); !errors.Is(err, ErrUnknownLabel) {
		t.Fatalf("expected ErrUnknownLabel, got %v", err)
	}
}

func TestStore_ZeroValue(t *testing.T) {
	var st Store
	if _, ok := st.Get("a"); ok || st.Len() != 0 {
		t.Fatalf("zero store not empty")
	}
	st.Put(Build("a", []hpalog.Record{{Utilization: 1, Replicas: 1}}, 30))
	if s, ok := st.Get("a"); !ok || s.Len() != 1 {
		t.Fatalf("put on zero store lost the series")
	}
}
