package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/termpremium/internal/audit"
	"github.com/wonny/termpremium/internal/backtest"
	"github.com/wonny/termpremium/internal/panel"
	"github.com/wonny/termpremium/internal/scheduler"
	"github.com/wonny/termpremium/internal/scheduler/jobs"
	"github.com/wonny/termpremium/internal/strategyconfig"
	"github.com/wonny/termpremium/pkg/httputil"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행 (완료까지 대기)

Example:
  go run ./cmd/quant scheduler start
  go run ./cmd/quant scheduler list
  go run ./cmd/quant scheduler run backtest`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- backtest: BACKTEST_SCHEDULE (기본 매일 06:00, 리포트 CSV 재생성)
- panel_refresh: 매주 월요일 05:00 (DATASET_URL 설정 시)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

var schedulerStrategy string

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)

	schedulerCmd.PersistentFlags().StringVar(&schedulerStrategy, "config", "", "전략 YAML 경로")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	// Initialize dependencies
	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	// Start scheduler
	sched.Start()

	PrintSuccess(out, "Scheduler started")
	printJobs(out, sched)
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Fprintln(out, "\nShutting down scheduler...")
	sched.Stop()
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	printJobs(cmd.OutOrStdout(), sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]
	out := cmd.OutOrStdout()

	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(out, "Running job: %s\n", jobName)
	result, err := sched.RunJobSync(ctx, jobName)
	if err != nil {
		if result.Attempts > 0 {
			return fmt.Errorf("%w (%d attempt(s))", err, result.Attempts)
		}
		return err
	}

	PrintSuccess(out, fmt.Sprintf("Job %s completed in %s (%d attempt(s))",
		jobName, result.Duration.Round(time.Millisecond), result.Attempts))
	return nil
}

func printJobs(w io.Writer, sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()

	fmt.Fprintln(w, "Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Fprintf(w, "  - %s (%s)\n", jobName, stats[jobName].Schedule)
	}
}

// initScheduler wires the jobs. The returned cleanup closes the database.
func initScheduler() (*scheduler.Scheduler, func(), error) {
	// 1. Load config
	cfg, log, err := loadRuntime()
	if err != nil {
		return nil, nil, err
	}

	sc, _, err := loadStrategy(cfg, schedulerStrategy)
	if err != nil {
		return nil, nil, err
	}
	if err := strategyconfig.Validate(sc); err != nil {
		return nil, nil, err
	}
	hash, err := strategyconfig.Hash(sc)
	if err != nil {
		return nil, nil, err
	}

	// 2. Optional database
	db, err := openDatabase(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {}
	var runs jobs.RunSaver
	var store jobs.PanelStore
	if db != nil {
		cleanup = db.Close
		auditRepo := audit.NewRepository(db.Pool)
		panelRepo := panel.NewRepository(db.Pool)
		if err := db.Migrate(context.Background(), panelRepo, auditRepo); err != nil {
			db.Close()
			return nil, nil, err
		}
		if sc.Output.SaveRun {
			runs = auditRepo
		}
		store = panelRepo
	}

	// 3. Create scheduler
	sched := scheduler.New(log)

	// 4. Register jobs
	runner := backtest.NewRunner(panelSource(cfg, "", false), nil, log)
	btJob := jobs.NewBacktestJob(runner, jobs.BacktestJobConfig{
		Params:     sc.Params(),
		ConfigHash: hash,
		ReportDir:  cfg.Backtest.ReportDir,
		Schedule:   cfg.Backtest.Schedule,
	}, runs, log)
	if err := sched.AddJob(btJob); err != nil {
		cleanup()
		return nil, nil, err
	}

	if cfg.Dataset.URL != "" && !cfg.Backtest.RawPanel {
		fetcher := panel.NewFetcher(httputil.New(cfg, log), cfg.Dataset.URL, log)
		if err := sched.AddJob(jobs.NewPanelRefreshJob(fetcher, cfg.Backtest.PanelPath, "", store, log)); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	return sched, cleanup, nil
}
