// Package history persists audit runs and their per-security results.
// The scoring engine itself is stateless; this layer exists so a user can
// review past runs, and its absence or failure never blocks scoring.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/mkamal/stockaudit/internal/database"
	"github.com/mkamal/stockaudit/internal/domain"
)

const runsSchema = `
CREATE TABLE IF NOT EXISTS audit_runs (
	id           TEXT PRIMARY KEY,
	created_at   TIMESTAMP NOT NULL,
	source       TEXT NOT NULL,
	profile      TEXT NOT NULL,
	record_count INTEGER NOT NULL,
	summary      BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_results (
	run_id   TEXT NOT NULL REFERENCES audit_runs(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	ticker   TEXT NOT NULL,
	score    INTEGER NOT NULL,
	verdict  TEXT NOT NULL,
	payload  BLOB NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_audit_runs_created_at ON audit_runs(created_at);
`

// Run is one persisted audit run.
type Run struct {
	ID          string                  `json:"id"`
	CreatedAt   time.Time               `json:"created_at"`
	Source      string                  `json:"source"` // "text" or "document"
	Profile     string                  `json:"profile"`
	RecordCount int                     `json:"record_count"`
	Summary     domain.BatchSummary     `json:"summary"`
	Results     []domain.AnalysisResult `json:"results,omitempty"`
}

// Repository stores audit runs in the history database.
type Repository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewRepository creates the repository and applies the schema.
func NewRepository(db *database.DB, log zerolog.Logger) (*Repository, error) {
	if _, err := db.Exec(runsSchema); err != nil {
		return nil, fmt.Errorf("applying history schema: %w", err)
	}
	return &Repository{
		db:  db,
		log: log.With().Str("component", "history").Logger(),
	}, nil
}

// SaveRun persists a run and its results in one transaction and returns
// the generated run ID.
func (r *Repository) SaveRun(source, profile string, results []domain.AnalysisResult, summary domain.BatchSummary) (string, error) {
	runID := uuid.New().String()
	createdAt := time.Now().UTC()

	summaryBlob, err := msgpack.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("encoding summary: %w", err)
	}

	err = database.WithTransaction(r.db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`INSERT INTO audit_runs (id, created_at, source, profile, record_count, summary) VALUES (?, ?, ?, ?, ?, ?)`,
			runID, createdAt, source, profile, len(results), summaryBlob,
		); err != nil {
			return err
		}

		for i, result := range results {
			payload, err := msgpack.Marshal(result)
			if err != nil {
				return fmt.Errorf("encoding result %s: %w", result.Record.Ticker, err)
			}
			if _, err := tx.Exec(
				`INSERT INTO audit_results (run_id, position, ticker, score, verdict, payload) VALUES (?, ?, ?, ?, ?, ?)`,
				runID, i, result.Record.Ticker, result.Score, string(result.Verdict), payload,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	r.log.Debug().Str("run_id", runID).Int("results", len(results)).Msg("Audit run saved")
	return runID, nil
}

// ListRuns returns run metadata (no results), newest first.
func (r *Repository) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(
		`SELECT id, created_at, source, profile, record_count, summary FROM audit_runs ORDER BY created_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns one run including its results in stored (sorted) order.
// A missing run returns sql.ErrNoRows.
func (r *Repository) GetRun(id string) (*Run, error) {
	row := r.db.QueryRow(
		`SELECT id, created_at, source, profile, record_count, summary FROM audit_runs WHERE id = ?`, id,
	)
	run, err := scanRun(row)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(
		`SELECT payload FROM audit_results WHERE run_id = ? ORDER BY position`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("loading results for run %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var result domain.AnalysisResult
		if err := msgpack.Unmarshal(payload, &result); err != nil {
			return nil, fmt.Errorf("decoding result payload for run %s: %w", id, err)
		}
		run.Results = append(run.Results, result)
	}
	return &run, rows.Err()
}

// DeleteRun removes one run; cascading removes its results.
func (r *Repository) DeleteRun(id string) error {
	result, err := r.db.Exec(`DELETE FROM audit_runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting run %s: %w", id, err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteOlderThan removes runs created before the cutoff and returns the
// number removed. Used by the retention cleanup job.
func (r *Repository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM audit_runs WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("deleting expired runs: %w", err)
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var summaryBlob []byte
	if err := row.Scan(&run.ID, &run.CreatedAt, &run.Source, &run.Profile, &run.RecordCount, &summaryBlob); err != nil {
		return Run{}, err
	}
	if err := msgpack.Unmarshal(summaryBlob, &run.Summary); err != nil {
		return Run{}, fmt.Errorf("decoding summary for run %s: %w", run.ID, err)
	}
	return run, nil
}
