// Package sqlite provides a SQLite-backed persistent store. Transactions run
// against the in-memory store; committed state is snapshotted to a single
// state table as JSON and projected into an examinations table.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"vetclinic/internal/infra/persistence/memory"
	"vetclinic/internal/schema/sqlbundle"
	"vetclinic/pkg/domain"
)

var _ domain.PersistentStore = (*Store)(nil)

const (
	defaultPath        = "vetclinic.db"
	bucketExaminations = "examinations"
)

// Store persists the in-memory state to SQLite after every successful transaction.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore constructs a snapshotting SQLite-backed persistent store.
func NewStore(ctx context.Context, path string, engine *domain.RulesEngine) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc serialises writers per connection; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	for _, stmt := range sqlbundle.SplitStatements(sqlbundle.SQLite()) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("execute ddl: %w", err)
		}
	}
	s := &Store{Store: memory.NewStore(engine), db: db, path: path}
	if err := s.load(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var snapshot memory.Snapshot
	found := false
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		if bucket != bucketExaminations {
			continue
		}
		if err := json.Unmarshal(payload, &snapshot.Examinations); err != nil {
			return fmt.Errorf("decode %s: %w", bucket, err)
		}
		found = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if found {
		s.ImportState(snapshot)
	}
	return nil
}

func (s *Store) persist(ctx context.Context) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	data, err := json.Marshal(snapshot.Examinations)
	if err != nil {
		return fmt.Errorf("encode %s: %w", bucketExaminations, err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucketExaminations, data); err != nil {
		return fmt.Errorf("upsert %s: %w", bucketExaminations, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM examinations`); err != nil {
		return fmt.Errorf("clear examinations: %w", err)
	}
	ids := make([]string, 0, len(snapshot.Examinations))
	for id := range snapshot.Examinations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		e := snapshot.Examinations[id]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO examinations(id,pet_name,owner_name,species,visit_date,revision,created_at,updated_at) VALUES(?,?,?,?,?,?,?,?)`,
			e.ID, e.PetName, e.OwnerName, e.Species, e.VisitDate, e.Revision,
			e.CreatedAt.Format(time.RFC3339Nano), e.UpdatedAt.Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("project examination %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// RunInTransaction applies the provided function within a transaction, then snapshots state to SQLite if successful.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if pErr := s.persist(ctx); pErr != nil {
		return res, pErr
	}
	return res, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
