package sizing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"
)

var fixedNow = time.Date(2024, 6, 3, 14, 5, 9, 0, time.FixedZone("CEST", 2*3600))

func TestCompute(t *testing.T) {
	cases := []struct {
		users   int
		vms     int
		storage float64
		summary string
	}{
		{25, 2, 12.5, "2 VMs, 12.5 GB Storage"},
		{0, 0, 0, "0 VMs, 0 GB Storage"},
		{9, 0, 4.5, "0 VMs, 4.5 GB Storage"},
		{20, 2, 10, "2 VMs, 10 GB Storage"},
		{1001, 100, 500.5, "100 VMs, 500.5 GB Storage"},
	}
	for _, c := range cases {
		e := Compute(c.users)
		if e.VMCount != c.vms || e.StorageGB != c.storage {
			t.Fatalf("Compute(%d) = %+v", c.users, e)
		}
		if e.Summary() != c.summary {
			t.Fatalf("Summary(%d) = %q want %q", c.users, e.Summary(), c.summary)
		}
	}
}

func TestHandle_StoresUnderUsersKey(t *testing.T) {
	store := NewMemoryStore()
	h := NewHandler(store, FixedClock{T: fixedNow})
	resp, err := h.Handle(context.Background(), Request{Users: "25"})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		t.Fatalf("body not JSON: %v (%s)", err, resp.Body)
	}
	if body["resources"] != "2 VMs, 12.5 GB Storage" {
		t.Fatalf("body %v", body)
	}
	rec, ok, err := store.Get(context.Background(), "25")
	if err != nil || !ok {
		t.Fatalf("record not stored under \"25\": ok=%v err=%v", ok, err)
	}
	want := Record{ID: "25", VMCount: 2, StorageGB: 12.5, Timestamp: "Mon, 03 Jun 2024 12:05:09 +0000"}
	if rec != want {
		t.Fatalf("record %+v want %+v", rec, want)
	}
}

func TestHandle_RequestFromJSON(t *testing.T) {
	for _, raw := range []string{`{"users": 25}`, `{"users": "25"}`} {
		var req Request
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			t.Fatalf("unmarshal %s: %v", raw, err)
		}
		if n, err := ParseUsers(req); err != nil || n != 25 {
			t.Fatalf("ParseUsers(%s) = %d,%v", raw, n, err)
		}
	}
}

func TestHandle_InvalidUsers(t *testing.T) {
	store := NewMemoryStore()
	h := NewHandler(store, FixedClock{T: fixedNow})
	for _, u := range []string{"", "-3", "12.5", "lots"} {
		resp, err := h.Handle(context.Background(), Request{Users: json.Number(u)})
		if !errors.Is(err, ErrInvalidUsers) {
			t.Fatalf("users=%q: expected ErrInvalidUsers, got %v", u, err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("users=%q: status %d", u, resp.StatusCode)
		}
	}
	if store.Len() != 0 {
		t.Fatalf("invalid requests must not be stored")
	}
}

type failingStore struct{}

func (failingStore) Put(context.Context, Record) error { return errors.New("table unavailable") }
func (failingStore) Get(context.Context, string) (Record, bool, error) {
	return Record{}, false, nil
}

func TestHandle_StoreFailure(t *testing.T) {
	h := NewHandler(failingStore{}, FixedClock{T: fixedNow})
	resp, err := h.Handle(context.Background(), Request{Users: "5"})
	if err == nil || resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 and error, got %d %v", resp.StatusCode, err)
	}
}

func TestSQLStore_SQLiteUpsert(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "resources.db")
	st, err := OpenSQLStore(ctx, SQLConfig{Driver: "sqlite", DSN: dsn})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()

	h := NewHandler(st, FixedClock{T: fixedNow})
	if _, err := h.Handle(ctx, Request{Users: "25"}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	later := NewHandler(st, FixedClock{T: fixedNow.Add(time.Hour)})
	if _, err := later.Handle(ctx, Request{Users: "25"}); err != nil {
		t.Fatalf("handle again: %v", err)
	}
	rec, ok, err := st.Get(ctx, "25")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if rec.VMCount != 2 || rec.StorageGB != 12.5 || rec.Timestamp != "Mon, 03 Jun 2024 13:05:09 +0000" {
		t.Fatalf("upsert did not replace: %+v", rec)
	}
	if _, ok, _ := st.Get(ctx, "26"); ok {
		t.Fatalf("unexpected record for 26")
	}

	// reopening keeps data and tolerates the existing table
	st.Close()
	st2, err := OpenSQLStore(ctx, SQLConfig{Driver: "sqlite3", DSN: dsn})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st2.Close()
	if _, ok, _ := st2.Get(ctx, "25"); !ok {
		t.Fatalf("record lost after reopen")
	}
}

func TestOpenSQLStore_Validation(t *testing.T) {
	ctx := context.Background()
	if _, err := OpenSQLStore(ctx, SQLConfig{Driver: "oracle", DSN: "x"}); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
	if _, err := OpenSQLStore(ctx, SQLConfig{Driver: "sqlite"}); err == nil {
		t.Fatalf("expected empty dsn error")
	}
	if _, err := OpenSQLStore(ctx, SQLConfig{Driver: "sqlite", DSN: ":memory:", Table: "x; DROP TABLE y"}); err == nil {
		t.Fatalf("expected invalid table error")
	}
}
