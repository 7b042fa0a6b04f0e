package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "Term premium - 국가별 국채 기간 프리미엄 백테스트",
	Long: `Term Premium Unified CLI

매년 기간 프리미엄(장기금리 - 단기금리) 상위 N개국 국채를 동일가중으로 보유하고
USD 기준 초과수익에 기준국 단기금리를 더한 전략을 기준국 국채 보유와 비교합니다.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant backtest run --config config/strategy/term_premium.yaml
  go run ./cmd/quant panel check
  go run ./cmd/quant panel fetch
  go run ./cmd/quant api
  go run ./cmd/quant test-db --migrate`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "env-file", "", "env file loaded before the environment (default .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
