package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/termpremium/internal/contracts"
)

// ErrRunNotFound is returned by GetRun for an unknown run id
var ErrRunNotFound = errors.New("backtest run not found")

// RunSummary is one row of the run listing
type RunSummary struct {
	RunID           string           `json:"run_id"`
	ConfigHash      string           `json:"config_hash"`
	Params          contracts.Params `json:"params"`
	CreatedAt       time.Time        `json:"created_at"`
	Years           int              `json:"years"`
	FinalIndex      float64          `json:"final_index"`
	StrategySharpe  *float64         `json:"strategy_sharpe"`
	BenchmarkSharpe *float64         `json:"benchmark_sharpe"`
}

// Repository handles backtest run persistence
// ⭐ SSOT: Audit 데이터 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new audit repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the audit tables when they do not exist
func (r *Repository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE SCHEMA IF NOT EXISTS audit;
		CREATE TABLE IF NOT EXISTS audit.backtest_runs (
			run_id           UUID PRIMARY KEY,
			config_hash      TEXT NOT NULL DEFAULT '',
			params           JSONB NOT NULL,
			years            INTEGER NOT NULL,
			final_index      DOUBLE PRECISION NOT NULL,
			strategy_sharpe  DOUBLE PRECISION,
			benchmark_sharpe DOUBLE PRECISION,
			report           JSONB NOT NULL,
			created_at       TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS audit.backtest_rows (
			run_id             UUID NOT NULL REFERENCES audit.backtest_runs(run_id) ON DELETE CASCADE,
			year               INTEGER NOT NULL,
			strategy_return    DOUBLE PRECISION NOT NULL,
			strategy_index     DOUBLE PRECISION NOT NULL,
			selected_countries TEXT[] NOT NULL,
			benchmark_return   DOUBLE PRECISION NOT NULL,
			benchmark_index    DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (run_id, year)
		);
		CREATE INDEX IF NOT EXISTS idx_backtest_runs_created ON audit.backtest_runs (created_at DESC)
	`

	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create audit schema: %w", err)
	}
	return nil
}

// SaveRun stores a report and its combined rows in one transaction
func (r *Repository) SaveRun(ctx context.Context, report *contracts.Report) error {
	paramsJSON, err := json.Marshal(report.Params)
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO audit.backtest_runs (
			run_id, config_hash, params, years, final_index,
			strategy_sharpe, benchmark_sharpe, report, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = tx.Exec(ctx, query,
		report.RunID, report.ConfigHash, paramsJSON, len(report.Strategy), report.FinalIndex(),
		sharpeOf(report.Summary), sharpeOf(report.BenchSum), reportJSON, report.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	rowQuery := `
		INSERT INTO audit.backtest_rows (
			run_id, year, strategy_return, strategy_index, selected_countries,
			benchmark_return, benchmark_index
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, row := range report.Combined {
		_, err := tx.Exec(ctx, rowQuery,
			report.RunID, row.Year, row.StrategyReturn, row.StrategyIndex, row.SelectedCountries,
			row.BenchmarkReturn, row.BenchmarkIndex,
		)
		if err != nil {
			return fmt.Errorf("failed to save row %d: %w", row.Year, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetRun loads the full report of a run
func (r *Repository) GetRun(ctx context.Context, runID string) (*contracts.Report, error) {
	query := `SELECT report FROM audit.backtest_runs WHERE run_id = $1`

	var reportJSON []byte
	err := r.pool.QueryRow(ctx, query, runID).Scan(&reportJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var report contracts.Report
	if err := json.Unmarshal(reportJSON, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}

// ListRuns returns the most recent runs first
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT run_id::text, config_hash, params, created_at, years, final_index,
		       strategy_sharpe, benchmark_sharpe
		FROM audit.backtest_runs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunSummary, 0)
	for rows.Next() {
		var s RunSummary
		var paramsJSON []byte
		if err := rows.Scan(
			&s.RunID, &s.ConfigHash, &paramsJSON, &s.CreatedAt, &s.Years, &s.FinalIndex,
			&s.StrategySharpe, &s.BenchmarkSharpe,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if err := json.Unmarshal(paramsJSON, &s.Params); err != nil {
			return nil, fmt.Errorf("failed to unmarshal params: %w", err)
		}
		runs = append(runs, s)
	}

	return runs, rows.Err()
}

func sharpeOf(s *contracts.PerformanceSummary) *float64 {
	if s == nil {
		return nil
	}
	return contracts.Float(s.Sharpe)
}
