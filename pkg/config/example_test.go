package config_test

import (
	"fmt"

	"github.com/wonny/termpremium/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	fmt.Printf("Environment: %s\n", cfg.Env)
	fmt.Printf("Panel: %s (raw=%v)\n", cfg.Backtest.PanelPath, cfg.Backtest.RawPanel)
	fmt.Printf("Reports: %s\n", cfg.Backtest.ReportDir)
	fmt.Printf("Database enabled: %v\n", cfg.Database.Enabled())
}
