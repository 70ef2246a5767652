package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/vine/analytics"
	"github.com/rustyeddy/vine/ledger"
	"github.com/rustyeddy/vine/market"
	"github.com/rustyeddy/vine/portfolio"
	"github.com/rustyeddy/vine/risk"
)

// Config is the complete service configuration
type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	Log       LogConfig       `json:"log" yaml:"log"`
	Ledger    LedgerConfig    `json:"ledger" yaml:"ledger"`
	Portfolio PortfolioConfig `json:"portfolio" yaml:"portfolio"`
	Risk      RiskConfig      `json:"risk" yaml:"risk"`
	Rates     RatesConfig     `json:"rates" yaml:"rates"`
}

type ServerConfig struct {
	Addr        string   `json:"addr" yaml:"addr"`
	CORSOrigins []string `json:"cors_origins,omitempty" yaml:"cors_origins,omitempty"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Pretty bool   `json:"pretty" yaml:"pretty"`
}

// LedgerConfig selects where accounts and trades are read from
type LedgerConfig struct {
	Type         string `json:"type" yaml:"type"` // "csv" or "sqlite"
	DBPath       string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	AccountsFile string `json:"accounts_file,omitempty" yaml:"accounts_file,omitempty"`
	TradesFile   string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
}

type PortfolioConfig struct {
	PrimaryCurrency string `json:"primary_currency,omitempty" yaml:"primary_currency,omitempty"`
	TopN            int    `json:"top_n" yaml:"top_n"`
	Drawdown        string `json:"drawdown" yaml:"drawdown"` // "accounts" or "curve"
}

// RiskConfig holds per-model risk percentages keyed by trading model name
type RiskConfig struct {
	DefaultRisk map[string]float64 `json:"default_risk,omitempty" yaml:"default_risk,omitempty"`
	Ceiling     map[string]float64 `json:"ceiling,omitempty" yaml:"ceiling,omitempty"`
	Window      WindowConfig       `json:"window" yaml:"window"`
}

type WindowConfig struct {
	LastN    int `json:"last_n" yaml:"last_n"`
	LastDays int `json:"last_days" yaml:"last_days"`
}

// RatesConfig is a static rate table, quote units per base unit
type RatesConfig struct {
	Pivot string             `json:"pivot" yaml:"pivot"`
	Pairs map[string]float64 `json:"pairs,omitempty" yaml:"pairs,omitempty"`
}

// LoadFromFile loads configuration from a YAML or JSON file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// rates.pairs replaces the built-in table rather than merging into it;
	// the defaults apply only when the file has no pairs section.
	fresh := func() *Config {
		c := Default()
		c.Rates.Pairs = nil
		return c
	}
	cfg := fresh()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = fresh()
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}
	if cfg.Rates.Pairs == nil {
		cfg.Rates.Pairs = Default().Rates.Pairs
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile saves configuration as YAML for .yaml/.yml paths, JSON otherwise
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides settings from the environment, falling back to the
// given .env files. Missing files are ignored.
func (c *Config) ApplyEnv(envFiles ...string) error {
	dotenv := map[string]string{}
	for _, f := range envFiles {
		vals, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		for k, v := range vals {
			if _, ok := dotenv[k]; !ok {
				dotenv[k] = v
			}
		}
	}
	get := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}

	if v := get("VINE_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := get("VINE_DB"); v != "" {
		c.Ledger.Type = "sqlite"
		c.Ledger.DBPath = v
	}
	if v := get("VINE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := get("VINE_LOG_PRETTY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("VINE_LOG_PRETTY: %w", err)
		}
		c.Log.Pretty = b
	}
	if v := get("VINE_PRIMARY_CURRENCY"); v != "" {
		c.Portfolio.PrimaryCurrency = market.NormalizeCurrency(v)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	switch c.Ledger.Type {
	case "sqlite":
		if c.Ledger.DBPath == "" {
			return fmt.Errorf("ledger db_path required for SQLite type")
		}
	case "csv":
		if c.Ledger.AccountsFile == "" || c.Ledger.TradesFile == "" {
			return fmt.Errorf("ledger accounts_file and trades_file required for CSV type")
		}
	default:
		return fmt.Errorf("ledger.type must be 'csv' or 'sqlite'")
	}
	if p := c.Portfolio.PrimaryCurrency; p != "" && !market.IsCurrencyCode(market.NormalizeCurrency(p)) {
		return fmt.Errorf("portfolio.primary_currency %q is not a currency code", p)
	}
	if c.Portfolio.TopN < 0 {
		return fmt.Errorf("portfolio.top_n must not be negative")
	}
	if d := c.Portfolio.Drawdown; d != "" && d != portfolio.DrawdownAccounts && d != portfolio.DrawdownCurve {
		return fmt.Errorf("portfolio.drawdown must be 'accounts' or 'curve'")
	}
	if c.Risk.Window.LastN < 0 || c.Risk.Window.LastDays < 0 {
		return fmt.Errorf("risk.window values must not be negative")
	}
	if _, err := c.Policy(); err != nil {
		return err
	}
	if _, err := c.RateTable(); err != nil {
		return fmt.Errorf("rates: %w", err)
	}
	return nil
}

// Policy merges the configured risk percentages over risk.DefaultPolicy.
func (c *Config) Policy() (*risk.Policy, error) {
	p := risk.DefaultPolicy()
	merge := func(section string, src map[string]float64, dst map[ledger.TradingModel]float64) error {
		for name, v := range src {
			m, ok := ledger.ParseTradingModel(name)
			if !ok {
				return fmt.Errorf("risk.%s: unknown trading model %q", section, name)
			}
			if v <= 0 || v > 100 {
				return fmt.Errorf("risk.%s.%s must be in (0, 100]", section, name)
			}
			dst[m] = v
		}
		return nil
	}
	if err := merge("default_risk", c.Risk.DefaultRisk, p.DefaultRisk); err != nil {
		return nil, err
	}
	if err := merge("ceiling", c.Risk.Ceiling, p.Ceiling); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Config) RateTable() (*market.RateTable, error) {
	return market.NewRateTable(c.Rates.Pivot, c.Rates.Pairs)
}

// Analytics returns the analytics settings; the policy must have passed
// Validate.
func (c *Config) Analytics() analytics.Config {
	policy, _ := c.Policy()
	return analytics.Config{
		PrimaryCurrency: c.Portfolio.PrimaryCurrency,
		TopN:            c.Portfolio.TopN,
		Drawdown:        c.Portfolio.Drawdown,
		Window:          risk.Window{LastN: c.Risk.Window.LastN, LastDays: c.Risk.Window.LastDays},
		Policy:          policy,
	}
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":8080",
			CORSOrigins: []string{"*"},
		},
		Log: LogConfig{
			Level: "info",
		},
		Ledger: LedgerConfig{
			Type:   "sqlite",
			DBPath: "./vine.db",
		},
		Portfolio: PortfolioConfig{
			TopN:     portfolio.DefaultTopN,
			Drawdown: portfolio.DrawdownAccounts,
		},
		Risk: RiskConfig{
			Window: WindowConfig{LastN: 20},
		},
		Rates: RatesConfig{
			Pivot: "USD",
			Pairs: map[string]float64{
				"EUR_USD": 1.08,
				"GBP_USD": 1.27,
				"USD_JPY": 150,
				"USD_CHF": 0.88,
				"AUD_USD": 0.66,
				"USD_CAD": 1.36,
				"NZD_USD": 0.61,
			},
		},
	}
}
