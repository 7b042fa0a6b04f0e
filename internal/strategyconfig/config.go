package strategyconfig

import "github.com/wonny/termpremium/internal/contracts"

// Config는 기간구조 프리미엄 전략의 전체 설정
type Config struct {
	Meta     Meta     `yaml:"meta" json:"meta"`
	Backtest Backtest `yaml:"backtest" json:"backtest"`
	Missing  Missing  `yaml:"missing" json:"missing"`
	Output   Output   `yaml:"output" json:"output"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID  string `yaml:"strategy_id" json:"strategy_id"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description" json:"description"`
}

// Backtest 백테스트 파라미터
type Backtest struct {
	InitYear         int    `yaml:"init_year" json:"init_year"`
	EndYear          int    `yaml:"end_year" json:"end_year"`
	TopN             int    `yaml:"top_n" json:"top_n"`
	ReferenceCountry string `yaml:"reference_country" json:"reference_country"` // 기본: USA
}

// Missing 결측치 정책 (컴포넌트별)
type Missing struct {
	Strategy  string `yaml:"strategy" json:"strategy"`   // exclude only
	Benchmark string `yaml:"benchmark" json:"benchmark"` // zero_fill | exclude
}

// Output 출력 설정
type Output struct {
	ReportPath string `yaml:"report_path" json:"report_path"`
	SaveRun    bool   `yaml:"save_run" json:"save_run"` // audit.backtest_runs 저장
}

// Default returns the configuration of the reference study: 1950..2015, top 3, USA
func Default() *Config {
	p := contracts.DefaultParams()
	return &Config{
		Meta: Meta{
			StrategyID: "term_premium_top_n",
			Version:    "1",
		},
		Backtest: Backtest{
			InitYear:         p.InitYear,
			EndYear:          p.EndYear,
			TopN:             p.TopN,
			ReferenceCountry: p.ReferenceCountry,
		},
		Missing: Missing{
			Strategy:  string(contracts.PolicyExclude),
			Benchmark: string(contracts.PolicyZeroFill),
		},
		Output: Output{
			ReportPath: "results/term_premium_strategy_returns.csv",
		},
	}
}

// ApplyDefaults fills optional fields left empty in YAML
func (c *Config) ApplyDefaults() {
	if c.Backtest.ReferenceCountry == "" {
		c.Backtest.ReferenceCountry = contracts.ReferenceCountry
	}
	if c.Missing.Strategy == "" {
		c.Missing.Strategy = string(contracts.PolicyExclude)
	}
	if c.Missing.Benchmark == "" {
		c.Missing.Benchmark = string(contracts.PolicyZeroFill)
	}
}

// Params converts the configuration into engine parameters
// ⭐ SSOT: YAML → contracts.Params 변환은 여기서만
func (c *Config) Params() contracts.Params {
	return contracts.Params{
		InitYear:         c.Backtest.InitYear,
		EndYear:          c.Backtest.EndYear,
		TopN:             c.Backtest.TopN,
		ReferenceCountry: c.Backtest.ReferenceCountry,
		BenchmarkMissing: contracts.MissingPolicy(c.Missing.Benchmark),
	}
}
