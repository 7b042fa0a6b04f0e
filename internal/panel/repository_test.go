package panel

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/termpremium/internal/contracts"
	"github.com/wonny/termpremium/pkg/config"
	"github.com/wonny/termpremium/pkg/database"
)

func TestRepository_SaveAndLoad(t *testing.T) {
	// Skip if DATABASE_URL is not set
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	db, err := database.New(cfg)
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo := NewRepository(db.Pool)
	require.NoError(t, repo.EnsureSchema(ctx))

	records := []contracts.PanelRecord{
		{Year: 1800, Country: "ZZTEST", BondTR: contracts.Float(0.05), BillRate: contracts.Float(0.02)},
		{Year: 1801, Country: "ZZTEST"},
	}
	n, err := repo.SaveBatch(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	defer func() {
		_, _ = db.Pool.Exec(context.Background(), `DELETE FROM data.panel_records WHERE country = 'ZZTEST'`)
	}()

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)

	var found []contracts.PanelRecord
	for _, rec := range loaded {
		if rec.Country == "ZZTEST" {
			found = append(found, rec)
		}
	}
	require.Len(t, found, 2)
	assert.Equal(t, 1800, found[0].Year)
	require.NotNil(t, found[0].BondTR)
	assert.Equal(t, 0.05, *found[0].BondTR)
	assert.Nil(t, found[1].BondTR)
}

func TestRepository_SaveBatchEmpty(t *testing.T) {
	repo := NewRepository(nil)
	n, err := repo.SaveBatch(context.Background(), nil)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
}
