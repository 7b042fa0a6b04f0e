package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/termpremium/internal/audit"
	"github.com/wonny/termpremium/internal/panel"
	"github.com/wonny/termpremium/pkg/database"
	"github.com/wonny/termpremium/pkg/redis"
)

// testDBCmd represents the test-db command
var testDBCmd = &cobra.Command{
	Use:   "test-db",
	Short: "PostgreSQL 연결 테스트",
	Long: `데이터베이스 연결을 테스트하고 풀 통계를 표시합니다.

이 명령어는:
- config에서 DATABASE_URL 로드
- Ping / Health Check 실행
- REDIS_ENABLED 시 Redis Ping
- --migrate 시 data.panel_records, audit.backtest_runs 스키마 생성

Example:
  go run ./cmd/quant test-db
  go run ./cmd/quant test-db --migrate`,
	RunE: runTestDB,
}

var testDBMigrate bool

func init() {
	rootCmd.AddCommand(testDBCmd)
	testDBCmd.Flags().BoolVar(&testDBMigrate, "migrate", false, "스키마 생성")
}

func runTestDB(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	PrintHeader(out, "Database Connection Test")

	// Load configuration
	cfg, _, err := loadRuntime()
	if err != nil {
		return err
	}
	PrintKeyValue(out, "Env", cfg.Env, 12)
	PrintKeyValue(out, "Database", maskPassword(cfg.Database.URL), 12)

	// Create database connection
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("❌ Failed to connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Get health status
	status, err := db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("❌ Health check failed: %w", err)
	}

	PrintSeparator(out)
	PrintKeyValue(out, "Healthy", fmt.Sprintf("%v", status.Healthy), 12)
	PrintKeyValue(out, "Response", status.ResponseTime.String(), 12)
	PrintKeyValue(out, "Max Conns", fmt.Sprintf("%d", status.Stats.MaxConns), 12)
	PrintKeyValue(out, "Total Conns", fmt.Sprintf("%d", status.Stats.TotalConns), 12)
	PrintKeyValue(out, "Idle Conns", fmt.Sprintf("%d", status.Stats.IdleConns), 12)

	if cfg.Redis.Enabled {
		rc, err := redis.New(ctx, cfg)
		if err != nil {
			return fmt.Errorf("❌ Redis check failed: %w", err)
		}
		rc.Close()
		PrintKeyValue(out, "Redis", "ok", 12)
	}

	if testDBMigrate {
		panelRepo := panel.NewRepository(db.Pool)
		if err := db.Migrate(ctx, panelRepo, audit.NewRepository(db.Pool)); err != nil {
			return fmt.Errorf("❌ Migration failed: %w", err)
		}
		n, err := panelRepo.Count(ctx)
		if err != nil {
			return err
		}
		PrintKeyValue(out, "Panel rows", fmt.Sprintf("%d", n), 12)
		PrintSuccess(out, "Schema ready")
	}

	PrintSuccess(out, "All checks passed")
	return nil
}
