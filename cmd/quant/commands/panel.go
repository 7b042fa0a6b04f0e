package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/termpremium/internal/backtest"
	"github.com/wonny/termpremium/internal/contracts"
	"github.com/wonny/termpremium/internal/panel"
	"github.com/wonny/termpremium/internal/panel/quality"
	"github.com/wonny/termpremium/internal/report"
	"github.com/wonny/termpremium/pkg/config"
	"github.com/wonny/termpremium/pkg/httputil"
	"github.com/wonny/termpremium/pkg/logger"
)

// panelCmd represents the panel command
var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "국가-연도 패널 관리",
	Long: `백테스트 입력 패널을 점검/생성/적재합니다.

Subcommands:
  check    - 연도별 적격 국가 수와 기준국 존재 여부 점검
  derive   - 원천 데이터셋 CSV에서 fx_return / term_premium 파생
  fetch    - DATASET_URL에서 원천 데이터셋 다운로드 후 파생
  import   - 패널 CSV를 data.panel_records 테이블에 적재
  indices  - 국가별 초과수익 누적 지수 CSV 생성

Example:
  go run ./cmd/quant panel check --top-n 3
  go run ./cmd/quant panel derive --in data/JSTdatasetR6.csv --out data/panel.csv
  go run ./cmd/quant panel fetch --out data/panel.csv --import`,
}

var (
	panelCheckCmd = &cobra.Command{
		Use:   "check",
		Short: "패널 품질 점검",
		RunE:  runPanelCheck,
	}

	panelDeriveCmd = &cobra.Command{
		Use:   "derive",
		Short: "원천 데이터셋에서 패널 파생",
		RunE:  runPanelDerive,
	}

	panelFetchCmd = &cobra.Command{
		Use:   "fetch",
		Short: "원천 데이터셋 다운로드",
		RunE:  runPanelFetch,
	}

	panelImportCmd = &cobra.Command{
		Use:   "import",
		Short: "패널을 DB에 적재",
		RunE:  runPanelImport,
	}

	panelIndicesCmd = &cobra.Command{
		Use:   "indices",
		Short: "국가별 누적 지수 CSV 생성",
		RunE:  runPanelIndices,
	}
)

var (
	panelPath     string
	panelRaw      bool
	panelIn       string
	panelOut      string
	panelStrategy string
	panelImport   bool
	panelShowAll  bool
)

func init() {
	rootCmd.AddCommand(panelCmd)
	panelCmd.AddCommand(panelCheckCmd, panelDeriveCmd, panelFetchCmd, panelImportCmd, panelIndicesCmd)

	for _, c := range []*cobra.Command{panelCheckCmd, panelImportCmd, panelIndicesCmd} {
		c.Flags().StringVar(&panelPath, "panel", "", "패널 CSV 경로 (기본: PANEL_PATH)")
		c.Flags().BoolVar(&panelRaw, "raw", false, "패널 파일이 원천 데이터셋이면 파생 후 사용")
	}

	panelCheckCmd.Flags().StringVar(&panelStrategy, "config", "", "전략 YAML 경로")
	panelCheckCmd.Flags().BoolVar(&panelShowAll, "all", false, "통과한 연도도 출력")

	panelDeriveCmd.Flags().StringVar(&panelIn, "in", "", "원천 데이터셋 CSV 경로")
	panelDeriveCmd.MarkFlagRequired("in")
	panelDeriveCmd.Flags().StringVar(&panelOut, "out", "", "패널 CSV 출력 경로 (기본: PANEL_PATH)")

	panelFetchCmd.Flags().StringVar(&panelOut, "out", "", "패널 CSV 출력 경로 (기본: PANEL_PATH)")
	panelFetchCmd.Flags().BoolVar(&panelImport, "import", false, "다운로드 후 DB에도 적재")

	panelIndicesCmd.Flags().StringVarP(&panelOut, "out", "o", "", "지수 CSV 출력 경로 (기본: REPORT_DIR/country_indices.csv)")
}

func runPanelCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	sc, _, err := loadStrategy(cfg, panelStrategy)
	if err != nil {
		return err
	}
	params := sc.Params()
	if err := params.Validate(); err != nil {
		return err
	}

	records, err := panelSource(cfg, panelPath, panelRaw).Load(cmd.Context())
	if err != nil {
		return err
	}

	q := quality.NewGate(params, log).Check(records)

	PrintHeader(out, "Panel quality")
	PrintParams(out, params)
	PrintKeyValue(out, "Countries", strconv.Itoa(q.Countries), 10)
	PrintKeyValue(out, "Accepted", fmt.Sprintf("%d / %d years", q.AcceptedYears, len(q.Years)), 10)
	PrintKeyValue(out, "Coverage", fmt.Sprintf("%.1f%%", q.CoverageRate()*100), 10)
	PrintKeyValue(out, "Panel", panel.Fingerprint(records)[:16], 10)
	PrintSeparator(out)

	widths := []int{6, 8, 9, 10, 8, 30}
	PrintTableHeader(out, []string{"YEAR", "RECORDS", "ELIGIBLE", "REFERENCE", "STATUS", "MISSING"}, widths)
	for _, y := range q.Years {
		if y.Accepted && !panelShowAll {
			continue
		}
		status := "skip"
		if y.Accepted {
			status = "ok"
		}
		PrintTableRow(out, []string{
			strconv.Itoa(y.Year),
			strconv.Itoa(y.TotalRecords),
			strconv.Itoa(y.EligibleRecords),
			strconv.FormatBool(y.ReferencePresent),
			status,
			strings.Join(y.MissingCountries, ","),
		}, widths)
	}

	return nil
}

func runPanelDerive(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}

	records, err := panel.NewRawFileSource(panelIn).Load(cmd.Context())
	if err != nil {
		return err
	}

	out := panelOut
	if out == "" {
		out = cfg.Backtest.PanelPath
	}
	if err := panel.SaveCSV(out, records); err != nil {
		return err
	}

	log.WithFields(map[string]interface{}{
		"in":      panelIn,
		"out":     out,
		"records": len(records),
	}).Info("Panel derived")
	PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("%d records written to %s", len(records), out))
	return nil
}

func runPanelFetch(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := panelOut
	if out == "" {
		out = cfg.Backtest.PanelPath
	}

	fetcher := panel.NewFetcher(httputil.New(cfg, log), cfg.Dataset.URL, log)
	records, err := fetcher.Refresh(ctx, out)
	if err != nil {
		return err
	}
	PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("%d records written to %s", len(records), out))

	if panelImport {
		return importRecords(ctx, cmd, cfg, log, records)
	}
	return nil
}

func runPanelImport(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}

	records, err := panelSource(cfg, panelPath, panelRaw).Load(cmd.Context())
	if err != nil {
		return err
	}
	return importRecords(cmd.Context(), cmd, cfg, log, records)
}

func importRecords(ctx context.Context, cmd *cobra.Command, cfg *config.Config, log *logger.Logger, records []contracts.PanelRecord) error {
	db, err := openDatabase(cfg, log)
	if err != nil {
		return err
	}
	if db == nil {
		return fmt.Errorf("DATABASE_URL is not set")
	}
	defer db.Close()

	repo := panel.NewRepository(db.Pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	n, err := repo.SaveBatch(ctx, records)
	if err != nil {
		return err
	}

	PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("%d records upserted into data.panel_records", n))
	return nil
}

func runPanelIndices(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}

	records, err := panelSource(cfg, panelPath, panelRaw).Load(cmd.Context())
	if err != nil {
		return err
	}

	out := panelOut
	if out == "" {
		out = filepath.Join(cfg.Backtest.ReportDir, "country_indices.csv")
	}

	points := backtest.CountryIndices(records)
	if err := report.SaveCountryIndicesCSV(out, points); err != nil {
		return err
	}

	log.WithFields(map[string]interface{}{
		"out":    out,
		"points": len(points),
	}).Debug("Country indices written")
	PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("%d country-years written to %s", len(points), out))
	return nil
}
