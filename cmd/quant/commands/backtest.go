package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/termpremium/internal/audit"
	"github.com/wonny/termpremium/internal/backtest"
	"github.com/wonny/termpremium/internal/contracts"
	"github.com/wonny/termpremium/internal/report"
	"github.com/wonny/termpremium/internal/strategyconfig"
	"github.com/wonny/termpremium/pkg/config"
	"github.com/wonny/termpremium/pkg/logger"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "기간 프리미엄 전략 백테스트",
	Long: `기간 프리미엄 상위 N개국 전략을 실행하고 결과를 조회합니다.

Subcommands:
  run   - 백테스트 실행 후 CSV 저장 및 요약 출력
  list  - 저장된 실행 기록 조회 (DATABASE_URL 필요)

Example:
  go run ./cmd/quant backtest run
  go run ./cmd/quant backtest run --config config/strategy/term_premium.yaml --top-n 5
  go run ./cmd/quant backtest list --limit 10`,
}

var (
	backtestRunCmd = &cobra.Command{
		Use:   "run",
		Short: "백테스트 실행",
		Long: `패널을 읽어 전략/벤치마크 수익률을 계산하고 리포트 CSV를 저장합니다.

플래그는 전략 YAML 값을 덮어씁니다. 리포트 파일은 임시 파일에 쓴 뒤
rename 하므로 실패한 실행은 이전 리포트를 남겨둡니다.`,
		RunE: runBacktest,
	}

	backtestListCmd = &cobra.Command{
		Use:   "list",
		Short: "저장된 실행 기록 조회",
		RunE:  listBacktestRuns,
	}
)

var (
	btConfigPath       string
	btPanelPath        string
	btRawPanel         bool
	btInitYear         int
	btEndYear          int
	btTopN             int
	btReference        string
	btBenchmarkMissing string
	btOutput           string
	btSave             bool
	btQuiet            bool
	btListLimit        int
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd)
	backtestCmd.AddCommand(backtestListCmd)

	f := backtestRunCmd.Flags()
	f.StringVar(&btConfigPath, "config", "", "전략 YAML 경로 (기본: STRATEGY_CONFIG 또는 내장 기본값)")
	f.StringVar(&btPanelPath, "panel", "", "패널 CSV 경로 (기본: PANEL_PATH)")
	f.BoolVar(&btRawPanel, "raw", false, "패널 파일이 원천 데이터셋이면 파생 후 사용")
	f.IntVar(&btInitYear, "init-year", 0, "시작 연도")
	f.IntVar(&btEndYear, "end-year", 0, "종료 연도")
	f.IntVar(&btTopN, "top-n", 0, "선택 국가 수")
	f.StringVar(&btReference, "reference", "", "기준 국가 (벤치마크/무위험)")
	f.StringVar(&btBenchmarkMissing, "benchmark-missing", "", "벤치마크 결측 정책 (zero_fill|exclude)")
	f.StringVarP(&btOutput, "output", "o", "", "리포트 CSV 경로")
	f.BoolVar(&btSave, "save", false, "실행 기록을 DB에 저장")
	f.BoolVarP(&btQuiet, "quiet", "q", false, "요약 출력 생략")

	backtestListCmd.Flags().IntVar(&btListLimit, "limit", 20, "조회 개수")
}

// applyBacktestFlags copies explicitly set flags over the strategy config
func applyBacktestFlags(cmd *cobra.Command, sc *strategyconfig.Config) {
	flags := cmd.Flags()
	if flags.Changed("init-year") {
		sc.Backtest.InitYear = btInitYear
	}
	if flags.Changed("end-year") {
		sc.Backtest.EndYear = btEndYear
	}
	if flags.Changed("top-n") {
		sc.Backtest.TopN = btTopN
	}
	if flags.Changed("reference") {
		sc.Backtest.ReferenceCountry = btReference
	}
	if flags.Changed("benchmark-missing") {
		sc.Missing.Benchmark = btBenchmarkMissing
	}
	if flags.Changed("output") {
		sc.Output.ReportPath = btOutput
	}
	if flags.Changed("save") {
		sc.Output.SaveRun = btSave
	}
}

func runBacktest(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}

	// 1. Strategy config + flag overrides
	sc, _, err := loadStrategy(cfg, btConfigPath)
	if err != nil {
		return err
	}
	applyBacktestFlags(cmd, sc)

	if err := strategyconfig.Validate(sc); err != nil {
		return err
	}
	PrintWarnings(cmd.ErrOrStderr(), strategyconfig.CheckWarnings(sc))

	hash, err := strategyconfig.Hash(sc)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Run
	source := panelSource(cfg, btPanelPath, btRawPanel)
	// A report with an undefined summary is still written; runErr is
	// returned after the CSV and summary are out.
	rep, runErr := backtest.NewRunner(source, nil, log).Run(ctx, sc.Params(), backtest.Options{
		Trigger:    backtest.TriggerCLI,
		ConfigHash: hash,
	})
	if rep == nil {
		return runErr
	}

	// 3. Report CSV
	reportPath := sc.Output.ReportPath
	if reportPath == "" {
		reportPath = filepath.Join(cfg.Backtest.ReportDir, report.DefaultFileName)
	}
	if err := report.SaveCSV(reportPath, rep); err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	// 4. Audit (optional)
	if sc.Output.SaveRun {
		if err := saveRun(ctx, cmd, cfg, log, rep); err != nil {
			return err
		}
	}

	if !btQuiet {
		if err := report.WriteSummary(out, rep); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
	PrintSuccess(out, fmt.Sprintf("Report written to %s", reportPath))

	return runErr
}

func saveRun(ctx context.Context, cmd *cobra.Command, cfg *config.Config, log *logger.Logger, rep *contracts.Report) error {
	db, err := openDatabase(cfg, log)
	if err != nil {
		return err
	}
	if db == nil {
		return fmt.Errorf("save requested but DATABASE_URL is not set")
	}
	defer db.Close()

	repo := audit.NewRepository(db.Pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := repo.SaveRun(ctx, rep); err != nil {
		return err
	}

	PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Run %s saved", rep.RunID))
	return nil
}

func listBacktestRuns(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg, log)
	if err != nil {
		return err
	}
	if db == nil {
		return fmt.Errorf("DATABASE_URL is not set")
	}
	defer db.Close()

	runs, err := audit.NewRepository(db.Pool).ListRuns(cmd.Context(), btListLimit)
	if err != nil {
		return err
	}

	PrintHeader(out, fmt.Sprintf("Backtest runs (%d)", len(runs)))
	widths := []int{36, 16, 10, 6, 12, 8}
	PrintTableHeader(out, []string{"RUN ID", "CREATED", "PERIOD", "TOP N", "FINAL INDEX", "SHARPE"}, widths)
	for _, r := range runs {
		sharpe := "-"
		if r.StrategySharpe != nil {
			sharpe = strconv.FormatFloat(*r.StrategySharpe, 'f', 3, 64)
		}
		PrintTableRow(out, []string{
			r.RunID,
			r.CreatedAt.Format("2006-01-02 15:04"),
			fmt.Sprintf("%d-%d", r.Params.InitYear, r.Params.EndYear),
			strconv.Itoa(r.Params.TopN),
			strconv.FormatFloat(r.FinalIndex, 'f', 4, 64),
			sharpe,
		}, widths)
	}

	return nil
}
