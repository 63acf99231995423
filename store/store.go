// Package store persists batch outcomes in a sqlite database so runs of the
// same puzzle can be compared over time.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/domino14/rushhour/batch"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	puzzle        TEXT NOT NULL,
	fingerprint   TEXT NOT NULL,
	heuristic     TEXT NOT NULL,
	found         INTEGER NOT NULL,
	depth         INTEGER NOT NULL,
	generated     INTEGER NOT NULL,
	expanded      INTEGER NOT NULL,
	reopened      INTEGER NOT NULL,
	branching     REAL NOT NULL,
	duration_ms   INTEGER NOT NULL,
	error         TEXT NOT NULL,
	created_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_fingerprint ON runs (fingerprint);
`

// Run is one stored outcome.
type Run struct {
	ID              int64
	Puzzle          string
	Fingerprint     uint64
	Heuristic       string
	Found           bool
	Depth           int
	Generated       int
	Expanded        int
	Reopened        int
	BranchingFactor float64
	Duration        time.Duration
	Error           string
	CreatedAt       time.Time
}

type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; a single connection avoids busy errors.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema in %s: %w", path, err)
	}
	log.Debug().Str("path", path).Msg("opened-results-db")
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func fingerprintKey(fp uint64) string {
	return fmt.Sprintf("%016x", fp)
}

const saveAttempts = 5

// isBusy is true for errors caused by another process holding the database.
func isBusy(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	code := serr.Code() & 0xff
	return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
}

// SaveOutcomes stores outcomes in one transaction, all with the same
// timestamp. The transaction is retried while another process has the
// database locked.
func (s *Store) SaveOutcomes(ctx context.Context, outcomes []*batch.Outcome) error {
	return retry.Do(
		func() error {
			return s.saveOutcomes(ctx, outcomes)
		},
		retry.Context(ctx),
		retry.Attempts(saveAttempts),
		retry.RetryIf(isBusy),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			log.Err(err).Uint("n", n).Msg("results-db-busy-try-again")
			return retry.BackOffDelay(n, err, config)
		}),
	)
}

func (s *Store) saveOutcomes(ctx context.Context, outcomes []*batch.Outcome) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO runs
		(puzzle, fingerprint, heuristic, found, depth, generated, expanded,
		 reopened, branching, duration_ms, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, o := range outcomes {
		errString := ""
		if o.Err != nil {
			errString = o.Err.Error()
		}
		_, err := stmt.ExecContext(ctx, o.Puzzle, fingerprintKey(o.Fingerprint), o.Heuristic,
			o.Found, o.Depth, o.Generated, o.Expanded, o.Reopened, o.BranchingFactor,
			o.Duration.Milliseconds(), errString, now)
		if err != nil {
			return fmt.Errorf("saving %s/%s: %w", o.Puzzle, o.Heuristic, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	log.Info().Int("outcomes", len(outcomes)).Msg("saved-outcomes")
	return nil
}

// Runs returns every stored run of the puzzle with the given fingerprint,
// oldest first.
func (s *Store) Runs(ctx context.Context, fingerprint uint64) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, puzzle, fingerprint, heuristic,
		found, depth, generated, expanded, reopened, branching, duration_ms,
		error, created_at FROM runs WHERE fingerprint = ? ORDER BY id`,
		fingerprintKey(fingerprint))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		var fp, created string
		var durationMs int64
		if err := rows.Scan(&r.ID, &r.Puzzle, &fp, &r.Heuristic, &r.Found, &r.Depth,
			&r.Generated, &r.Expanded, &r.Reopened, &r.BranchingFactor, &durationMs,
			&r.Error, &created); err != nil {
			return nil, err
		}
		if r.Fingerprint, err = strconv.ParseUint(fp, 16, 64); err != nil {
			return nil, err
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, err
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}
