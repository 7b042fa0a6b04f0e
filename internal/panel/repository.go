package panel

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/termpremium/internal/contracts"
)

// Repository stores the cleaned panel in PostgreSQL (data.panel_records)
// ⭐ SSOT: 패널 DB 저장소는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new panel repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the panel table when it does not exist
func (r *Repository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE SCHEMA IF NOT EXISTS data;
		CREATE TABLE IF NOT EXISTS data.panel_records (
			country      TEXT NOT NULL,
			year         INTEGER NOT NULL,
			term_premium DOUBLE PRECISION,
			bond_tr      DOUBLE PRECISION,
			bond_rate    DOUBLE PRECISION,
			bill_rate    DOUBLE PRECISION,
			fx_return    DOUBLE PRECISION,
			eq_tr        DOUBLE PRECISION,
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (country, year)
		)
	`

	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create panel schema: %w", err)
	}
	return nil
}

// Load implements contracts.PanelSource
func (r *Repository) Load(ctx context.Context) ([]contracts.PanelRecord, error) {
	query := `
		SELECT year, country, term_premium, bond_tr, bond_rate, bill_rate, fx_return, eq_tr
		FROM data.panel_records
		ORDER BY country ASC, year ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query panel: %w", err)
	}
	defer rows.Close()

	var records []contracts.PanelRecord
	for rows.Next() {
		var rec contracts.PanelRecord
		if err := rows.Scan(
			&rec.Year, &rec.Country,
			&rec.TermPremium, &rec.BondTR, &rec.BondRate, &rec.BillRate, &rec.FXReturn, &rec.EqTR,
		); err != nil {
			return nil, fmt.Errorf("scan panel record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// ORDER BY uses the database collation; re-sort to match file input
	Sort(records)
	return records, nil
}

// SaveBatch upserts records in a single batch
func (r *Repository) SaveBatch(ctx context.Context, records []contracts.PanelRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	if err := CheckUnique(records); err != nil {
		return 0, err
	}

	query := `
		INSERT INTO data.panel_records
			(country, year, term_premium, bond_tr, bond_rate, bill_rate, fx_return, eq_tr, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (country, year) DO UPDATE SET
			term_premium = EXCLUDED.term_premium,
			bond_tr = EXCLUDED.bond_tr,
			bond_rate = EXCLUDED.bond_rate,
			bill_rate = EXCLUDED.bill_rate,
			fx_return = EXCLUDED.fx_return,
			eq_tr = EXCLUDED.eq_tr,
			updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(query,
			rec.Country, rec.Year,
			nullable(rec.TermPremium), nullable(rec.BondTR), nullable(rec.BondRate),
			nullable(rec.BillRate), nullable(rec.FXReturn), nullable(rec.EqTR),
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range records {
		if _, err := br.Exec(); err != nil {
			return i, fmt.Errorf("upsert %s %d: %w", records[i].Country, records[i].Year, err)
		}
	}

	return len(records), nil
}

// Count returns the number of stored records
func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM data.panel_records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count panel records: %w", err)
	}
	return count, nil
}

// nullable stores NaN as NULL
func nullable(v *float64) *float64 {
	if !contracts.Present(v) {
		return nil
	}
	return v
}
