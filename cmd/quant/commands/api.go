package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/termpremium/internal/api"
	"github.com/wonny/termpremium/internal/api/handlers"
	"github.com/wonny/termpremium/internal/audit"
	"github.com/wonny/termpremium/internal/backtest"
	"github.com/wonny/termpremium/pkg/metrics"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                  - Health check
  GET  /metrics                 - Prometheus metrics (METRICS_ENABLED)
  POST /api/backtest/run        - 백테스트 실행 (?format=csv)
  GET  /api/backtest/runs       - 저장된 실행 목록 (DATABASE_URL)
  GET  /api/backtest/runs/{id}  - 저장된 실행 조회
  GET  /api/panel/quality       - 패널 품질 리포트

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort     string
	apiStrategy string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
	apiCmd.Flags().StringVar(&apiStrategy, "config", "", "기본 파라미터로 쓸 전략 YAML 경로")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	sc, _, err := loadStrategy(cfg, apiStrategy)
	if err != nil {
		return err
	}
	defaults := sc.Params()
	if err := defaults.Validate(); err != nil {
		return err
	}

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 2. Optional infrastructure
	var reg *metrics.Registry
	if cfg.MetricsEnabled {
		reg = metrics.New()
	}

	rc := openRedis(cfg, log)
	defer rc.Close()

	var runs handlers.RunStore
	db, err := openDatabase(cfg, log)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()

		repo := audit.NewRepository(db.Pool)
		if err := db.Migrate(context.Background(), repo); err != nil {
			return err
		}
		runs = repo
		log.Info("Connected to database")
	}

	// 3. Handlers
	source := panelSource(cfg, "", false)
	runner := backtest.NewRunner(source, reg, log)

	router := api.NewRouter(api.Handlers{
		Backtest: handlers.NewBacktestHandler(handlers.BacktestDeps{
			Source:   source,
			Runner:   runner,
			Runs:     runs,
			Redis:    rc,
			Defaults: defaults,
			Metrics:  reg,
		}, log),
		Panel: handlers.NewPanelHandler(source, rc, defaults, reg, log),
	}, reg, log)

	// 4. Create server
	server := api.New(cfg, log, router)

	// 5. Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
