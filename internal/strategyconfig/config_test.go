package strategyconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/termpremium/internal/contracts"
)

func TestLoad(t *testing.T) {
	// 저장소 기본 설정
	path := "../../config/strategy/term_premium.yaml"

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	cfg, yamlData, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, yamlData)

	assert.Equal(t, "term_premium_top_n", cfg.Meta.StrategyID)
	assert.Equal(t, contracts.DefaultParams(), cfg.Params())

	// 해시 생성
	hash, err := Hash(cfg)
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	// 동일 설정 → 동일 해시
	hash2, _ := Hash(cfg)
	assert.Equal(t, hash, hash2)

	defHash, _ := Hash(Default())
	assert.NotEqual(t, hash, defHash, "description differs from Default()")
}

func TestParse_DefaultsApplied(t *testing.T) {
	cfg, err := Parse([]byte(`
meta:
  strategy_id: test
backtest:
  init_year: 1960
  end_year: 1970
  top_n: 2
`))
	require.NoError(t, err)

	assert.Equal(t, "USA", cfg.Backtest.ReferenceCountry)
	assert.Equal(t, "exclude", cfg.Missing.Strategy)
	assert.Equal(t, "zero_fill", cfg.Missing.Benchmark)
	assert.Equal(t, contracts.Params{
		InitYear: 1960, EndYear: 1970, TopN: 2, ReferenceCountry: "USA", BenchmarkMissing: contracts.PolicyZeroFill,
	}, cfg.Params())
}

func TestParse_UnknownFieldFails(t *testing.T) {
	_, err := Parse([]byte(`
meta:
  strategy_id: test
backtest:
  init_year: 1960
  end_year: 1970
  topn: 2
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "topn")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"default ok", func(c *Config) {}, ""},
		{"no strategy id", func(c *Config) { c.Meta.StrategyID = "" }, "meta.strategy_id"},
		{"zero top_n", func(c *Config) { c.Backtest.TopN = 0 }, "backtest.top_n"},
		{"negative top_n", func(c *Config) { c.Backtest.TopN = -3 }, "backtest.top_n"},
		{"inverted years", func(c *Config) { c.Backtest.InitYear = 2020 }, "backtest.init_year"},
		{"empty reference", func(c *Config) { c.Backtest.ReferenceCountry = "" }, "backtest.reference_country"},
		{"strategy zero fill", func(c *Config) { c.Missing.Strategy = "zero_fill" }, "missing.strategy"},
		{"unknown benchmark policy", func(c *Config) { c.Missing.Benchmark = "ffill" }, "missing.benchmark"},
		{"benchmark exclude ok", func(c *Config) { c.Missing.Benchmark = "exclude" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var ce *contracts.ConfigurationError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.wantField, ce.Field)
		})
	}
}

func TestHash_IgnoresOutput(t *testing.T) {
	a := Default()
	b := Default()
	b.Output.ReportPath = "elsewhere.csv"
	b.Output.SaveRun = true

	ha, err := Hash(a)
	require.NoError(t, err)
	hb, err := Hash(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)

	b.Backtest.TopN = 4
	hc, _ := Hash(b)
	assert.NotEqual(t, ha, hc)
}

func TestCheckWarnings(t *testing.T) {
	assert.Empty(t, CheckWarnings(Default()))

	cfg := Default()
	cfg.Backtest.InitYear = 2000
	cfg.Backtest.EndYear = 2000
	cfg.Backtest.TopN = 12
	cfg.Missing.Benchmark = "exclude"
	cfg.Output.ReportPath = ""

	codes := make([]string, 0)
	for _, w := range CheckWarnings(cfg) {
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []string{"W001", "W002", "W003", "W004"}, codes)
}

func TestLoad_Errors(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("meta:\n  strategy_id: x\nbacktest:\n  top_n: 0\n"), 0o644))
	_, data, err := Load(path)
	assert.True(t, contracts.IsConfigurationError(err))
	assert.NotEmpty(t, data)
}
