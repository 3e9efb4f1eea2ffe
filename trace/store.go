// ════════════════════════════════════════════════════════════════════════════════════════════════
// Replay Store
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: SQLite persistence for replay results
//
// Description:
//   One row per run, one row per step. Step digests let two runs (or two
//   points of one run) be compared without re-executing them.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package trace

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store persists replay results.
type Store struct {
	db *sql.DB
}

// RunInfo summarizes a stored run.
type RunInfo struct {
	ID      int64
	Name    string
	Levels  int
	Threads int
	Order   string
	Steps   int
	Failed  bool
	Digest  string
	Created time.Time
}

// OpenStore opens (creating if needed) the trace database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := configureDatabase(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func configureDatabase(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("failed to execute %s: %w", p, err)
		}
	}
	return nil
}

func initializeSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		name         TEXT NOT NULL,
		levels       INTEGER NOT NULL,
		threads      INTEGER NOT NULL,
		sched_order  TEXT NOT NULL,
		steps        INTEGER NOT NULL,
		failed       INTEGER NOT NULL,
		final_digest TEXT NOT NULL,
		created_at   INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS steps (
		run_id   INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		idx      INTEGER NOT NULL,
		op       TEXT NOT NULL,
		thread   INTEGER NOT NULL,
		level    INTEGER NOT NULL,
		result   INTEGER NOT NULL,
		head     INTEGER NOT NULL,
		queued   INTEGER NOT NULL,
		bitmap   TEXT NOT NULL,
		digest   TEXT NOT NULL,
		err      TEXT NOT NULL,
		PRIMARY KEY (run_id, idx)
	) WITHOUT ROWID;

	CREATE INDEX IF NOT EXISTS idx_steps_digest ON steps(digest);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Record stores res in one transaction and returns the run id.
func (s *Store) Record(res *Result) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	r, err := tx.Exec(`INSERT INTO runs
		(name, levels, threads, sched_order, steps, failed, final_digest, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		res.Name, res.Config.Levels, res.Config.Threads, res.Config.Order.String(),
		len(res.Steps), res.Failed(), res.Final.DigestHex(), time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := r.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`INSERT INTO steps
		(run_id, idx, op, thread, level, result, head, queued, bitmap, digest, err)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, st := range res.Steps {
		if _, err := stmt.Exec(id, st.Index, st.Op, st.Thread, st.Level, st.Result,
			st.Head, st.Queued, st.Bitmap, st.Digest, st.Err); err != nil {
			return 0, fmt.Errorf("insert step %d: %w", st.Index, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// Steps loads the steps of run id in order.
func (s *Store) Steps(id int64) ([]Step, error) {
	rows, err := s.db.Query(`SELECT idx, op, thread, level, result, head, queued, bitmap, digest, err
		FROM steps WHERE run_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Step
	for rows.Next() {
		var st Step
		if err := rows.Scan(&st.Index, &st.Op, &st.Thread, &st.Level, &st.Result,
			&st.Head, &st.Queued, &st.Bitmap, &st.Digest, &st.Err); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Runs lists stored runs, newest first.
func (s *Store) Runs() ([]RunInfo, error) {
	rows, err := s.db.Query(`SELECT id, name, levels, threads, sched_order, steps, failed, final_digest, created_at
		FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		var (
			ri      RunInfo
			created int64
		)
		if err := rows.Scan(&ri.ID, &ri.Name, &ri.Levels, &ri.Threads, &ri.Order,
			&ri.Steps, &ri.Failed, &ri.Digest, &created); err != nil {
			return nil, err
		}
		ri.Created = time.Unix(created, 0)
		out = append(out, ri)
	}
	return out, rows.Err()
}

// RunsReaching lists the ids of runs with any step whose state digest is
// digest.
func (s *Store) RunsReaching(digest string) ([]int64, error) {
	rows, err := s.db.Query(`SELECT DISTINCT run_id FROM steps WHERE digest = ? ORDER BY run_id`, digest)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}
