package sizing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu   sync.Mutex
	recs map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[string]Record)}
}

func (m *MemoryStore) Put(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[rec.ID] = rec
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recs[id]
	return r, ok, nil
}

// Len returns the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recs)
}

// SQLConfig selects a database/sql backend. Driver is "sqlite" (modernc.org/sqlite, DSN is a
// file path or ":memory:") or "postgres" (lib/pq URL or key=value DSN).
type SQLConfig struct {
	Driver         string
	DSN            string
	Table          string
	ConnectTimeout time.Duration
}

const defaultTable = "cloud_resources"

// SQLStore keeps records in a single table with put-replace semantics.
type SQLStore struct {
	db     *sql.DB
	driver string
	table  string
}

// OpenSQLStore opens the database, pings it, and creates the table when missing.
func OpenSQLStore(ctx context.Context, cfg SQLConfig) (*SQLStore, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "sqlite", "sqlite3":
		driver = "sqlite"
	case "postgres", "postgresql", "pq":
		driver = "postgres"
	default:
		return nil, fmt.Errorf("unsupported db driver %q (expected sqlite|postgres)", cfg.Driver)
	}
	if cfg.DSN == "" {
		return nil, errors.New("db dsn is empty")
	}
	table := cfg.Table
	if table == "" {
		table = defaultTable
	}
	if !validIdent(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sql.Open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// SQLite allows one writer at a time
		db.SetMaxOpenConns(1)
	}
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	s := &SQLStore{db: db, driver: driver, table: table}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	q := `CREATE TABLE IF NOT EXISTS ` + s.table + ` (
		id         TEXT PRIMARY KEY,
		vm_count   INTEGER NOT NULL,
		storage_gb DOUBLE PRECISION NOT NULL,
		ts         TEXT NOT NULL
	)`
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// Put upserts rec. SQLite (>= 3.24) and PostgreSQL share the ON CONFLICT ... DO UPDATE form.
func (s *SQLStore) Put(ctx context.Context, rec Record) error {
	q := `INSERT INTO ` + s.table + ` (id, vm_count, storage_gb, ts) VALUES (` +
		s.ph(1) + `, ` + s.ph(2) + `, ` + s.ph(3) + `, ` + s.ph(4) + `)
		ON CONFLICT (id) DO UPDATE SET vm_count = excluded.vm_count, storage_gb = excluded.storage_gb, ts = excluded.ts`
	if _, err := s.db.ExecContext(ctx, q, rec.ID, rec.VMCount, rec.StorageGB, rec.Timestamp); err != nil {
		return fmt.Errorf("upsert %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Record, bool, error) {
	q := `SELECT id, vm_count, storage_gb, ts FROM ` + s.table + ` WHERE id = ` + s.ph(1)
	var r Record
	err := s.db.QueryRowContext(ctx, q, id).Scan(&r.ID, &r.VMCount, &r.StorageGB, &r.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("select %s: %w", id, err)
	}
	return r, true, nil
}

// ph returns the n-th (1-based) bind placeholder for the driver.
func (s *SQLStore) ph(n int) string {
	if s.driver == "postgres" {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Close releases the connection pool.
func (s *SQLStore) Close() error { return s.db.Close() }

func validIdent(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return s != ""
}
