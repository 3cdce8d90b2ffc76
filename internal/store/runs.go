package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/sensitivity/internal/sensitivity"
)

// ErrNotFound is returned when a run ID does not exist.
var ErrNotFound = errors.New("run not found")

// Run is the metadata of a stored evaluation.
type Run struct {
	ID          string          `json:"run_id"`
	Title       string          `json:"title"`
	Model       string          `json:"model"`
	ResultName  string          `json:"result_name"`
	AggFunc     string          `json:"agg_func"`
	Inputs      []string        `json:"inputs"`
	RowCount    int             `json:"row_count"`
	Duration    time.Duration   `json:"duration"`
	Settings    json.RawMessage `json:"settings,omitempty"`
	Fingerprint string          `json:"fingerprint"`
	CreatedAt   time.Time       `json:"created_at"`
}

// DecodeSettings unmarshals the run's settings into v. A run stored without
// settings leaves v untouched.
func (r *Run) DecodeSettings(v any) error {
	if len(r.Settings) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Settings, v); err != nil {
		return fmt.Errorf("decode settings of run %s: %w", r.ID, err)
	}
	return nil
}

// SaveRun stores table under run. Empty ID and zero CreatedAt are filled
// in; ResultName, Inputs and RowCount are taken from the table. AggFunc
// defaults to the default aggregator.
func (s *Store) SaveRun(ctx context.Context, run *Run, table *sensitivity.Table) error {
	if table == nil {
		return fmt.Errorf("save run: nil table")
	}
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.clock.Now()
	}
	if run.AggFunc == "" {
		run.AggFunc = sensitivity.DefaultAggregator
	}
	run.ResultName = table.ResultName()
	run.Inputs = table.InputColumns()
	run.RowCount = table.Len()
	fp, err := Fingerprint(table)
	if err != nil {
		return err
	}
	run.Fingerprint = fp

	inputsJSON, err := json.Marshal(run.Inputs)
	if err != nil {
		return fmt.Errorf("encode inputs: %w", err)
	}
	var settings interface{}
	if len(run.Settings) > 0 {
		settings = string(run.Settings)
	}

	encoded := make([]string, table.Len())
	for i, row := range table.Rows() {
		if encoded[i], err = encodeRow(row.Inputs); err != nil {
			return fmt.Errorf("encode row %d: %w", i, err)
		}
	}

	return retryOnBusy(func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		_, err = tx.ExecContext(ctx, `
			INSERT INTO runs (
				run_id, title, model, result_name, agg_func, inputs_json,
				row_count, duration_ms, settings_json, fingerprint, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, run.Title, run.Model, run.ResultName, run.AggFunc, string(inputsJSON),
			run.RowCount, run.Duration.Milliseconds(), settings, run.Fingerprint, run.CreatedAt.UnixNano(),
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO run_rows (run_id, row_index, values_json, result) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare row insert: %w", err)
		}
		defer stmt.Close()

		for i, row := range table.Rows() {
			// SQLite has no NaN; NULL stands in for it.
			var result interface{}
			if !math.IsNaN(row.Result) {
				result = row.Result
			}
			if _, err := stmt.ExecContext(ctx, run.ID, i, encoded[i], result); err != nil {
				return fmt.Errorf("insert row %d: %w", i, err)
			}
		}
		return tx.Commit()
	})
}

const runColumns = `run_id, title, model, result_name, agg_func, inputs_json,
	row_count, duration_ms, settings_json, fingerprint, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var r Run
	var inputsJSON string
	var settings sql.NullString
	var durationMs, createdAt int64
	if err := sc.Scan(&r.ID, &r.Title, &r.Model, &r.ResultName, &r.AggFunc, &inputsJSON,
		&r.RowCount, &durationMs, &settings, &r.Fingerprint, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(inputsJSON), &r.Inputs); err != nil {
		return nil, fmt.Errorf("decode inputs of run %s: %w", r.ID, err)
	}
	if settings.Valid {
		r.Settings = json.RawMessage(settings.String)
	}
	r.Duration = time.Duration(durationMs) * time.Millisecond
	r.CreatedAt = time.Unix(0, createdAt)
	return &r, nil
}

// ListRuns returns stored runs, newest first. limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// FindByFingerprint returns the runs whose table has fingerprint fp, newest
// first.
func (s *Store) FindByFingerprint(ctx context.Context, fp string) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE fingerprint = ? ORDER BY created_at DESC, run_id`, fp)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

func scanRuns(rows *sql.Rows) ([]*Run, error) {
	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns the metadata of one run.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, id)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return r, nil
}

// LoadRun returns a run and its result table, rows in evaluation order.
func (s *Store) LoadRun(ctx context.Context, id string) (*Run, *sensitivity.Table, error) {
	run, err := s.GetRun(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT values_json, result FROM run_rows WHERE run_id = ? ORDER BY row_index`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	out := make([]sensitivity.Row, 0, run.RowCount)
	for rows.Next() {
		var valuesJSON string
		var result sql.NullFloat64
		if err := rows.Scan(&valuesJSON, &result); err != nil {
			return nil, nil, fmt.Errorf("scan row: %w", err)
		}
		values, err := decodeRow(valuesJSON)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", len(out), err)
		}
		r := sensitivity.Row{Inputs: values, Result: math.NaN()}
		if result.Valid {
			r.Result = result.Float64
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	if len(out) != run.RowCount {
		return nil, nil, fmt.Errorf("run %s: expected %d rows, found %d", id, run.RowCount, len(out))
	}

	table, err := sensitivity.NewTable(run.Inputs, run.ResultName, out)
	if err != nil {
		return nil, nil, fmt.Errorf("rebuild table: %w", err)
	}
	return run, table, nil
}

// DeleteRun removes a run and its rows.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	return retryOnBusy(func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.ExecContext(ctx, `DELETE FROM run_rows WHERE run_id = ?`, id); err != nil {
			return fmt.Errorf("delete rows: %w", err)
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("run %s: %w", id, ErrNotFound)
		}
		return tx.Commit()
	})
}
