package commands

import (
	"context"
	"fmt"
	"net/url"

	"github.com/joho/godotenv"

	"github.com/wonny/termpremium/internal/contracts"
	"github.com/wonny/termpremium/internal/panel"
	"github.com/wonny/termpremium/internal/strategyconfig"
	"github.com/wonny/termpremium/pkg/config"
	"github.com/wonny/termpremium/pkg/database"
	"github.com/wonny/termpremium/pkg/logger"
	"github.com/wonny/termpremium/pkg/redis"
)

// loadRuntime loads process config and the logger, honoring the global flags
func loadRuntime() (*config.Config, *logger.Logger, error) {
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			return nil, nil, fmt.Errorf("load env file %s: %w", configFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	return cfg, logger.New(cfg), nil
}

// loadStrategy reads the strategy YAML (flag path, then STRATEGY_CONFIG) or falls back to defaults.
// The returned hash is empty for the built-in defaults.
func loadStrategy(cfg *config.Config, path string) (*strategyconfig.Config, string, error) {
	if path == "" {
		path = cfg.Backtest.StrategyConfig
	}
	if path == "" {
		return strategyconfig.Default(), "", nil
	}

	sc, _, err := strategyconfig.Load(path)
	if err != nil {
		return nil, "", err
	}
	hash, err := strategyconfig.Hash(sc)
	if err != nil {
		return nil, "", err
	}
	return sc, hash, nil
}

// panelSource builds the panel source from a path override or PANEL_PATH
func panelSource(cfg *config.Config, path string, raw bool) contracts.PanelSource {
	if path == "" {
		path = cfg.Backtest.PanelPath
		raw = raw || cfg.Backtest.RawPanel
	}
	return panel.NewSource(path, raw)
}

// openDatabase returns nil when DATABASE_URL is not set
func openDatabase(cfg *config.Config, log *logger.Logger) (*database.DB, error) {
	if !cfg.Database.Enabled() {
		log.Debug("DATABASE_URL not set, run persistence disabled")
		return nil, nil
	}
	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

// openRedis falls back to a disabled client when Redis is unreachable
func openRedis(cfg *config.Config, log *logger.Logger) *redis.Client {
	rc, err := redis.New(context.Background(), cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, cache and rate limit disabled")
		return redis.Disabled()
	}
	return rc
}

// maskPassword masks the password in the database URL for display
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	return u.Redacted()
}
