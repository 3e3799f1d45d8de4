package config

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v2"
)

// Params is the process-wide fee/profit/slippage configuration. A run
// captures one Params value at start and never re-reads shared state, so
// every hop of a run observes the same snapshot.
type Params struct {
	// FeePercent is the execution fee in whole percent [0,100].
	FeePercent uint64

	// MinProfitThreshold is an absolute profit floor added on top of the
	// fee-adjusted input; nil means fee-only.
	MinProfitThreshold *big.Int

	// MaxGasBudget caps the gas a run may spend.
	MaxGasBudget uint64

	// MaxSlippagePercent is the global ceiling on per-hop tolerance.
	MaxSlippagePercent uint64
}

// Validate checks the percentage fields are within [0,100].
func (p Params) Validate() error {
	if p.FeePercent > 100 {
		return fmt.Errorf("fee percent %d above 100", p.FeePercent)
	}
	if p.MaxSlippagePercent > 100 {
		return fmt.Errorf("max slippage percent %d above 100", p.MaxSlippagePercent)
	}
	return nil
}

// Clone returns a deep copy of the parameters.
func (p Params) Clone() Params {
	out := p
	if p.MinProfitThreshold != nil {
		out.MinProfitThreshold = new(big.Int).Set(p.MinProfitThreshold)
	}
	return out
}

// VenueConfig describes one registered venue.
type VenueConfig struct {
	ID                 string `json:"id" yaml:"id"`
	Kind               string `json:"kind" yaml:"kind"` // "pair_reserve" or "single_liquidity"
	MaxSlippagePercent uint64 `json:"max_slippage_percent" yaml:"max_slippage_percent"`
}

// Config is the file-level configuration.
type Config struct {
	FeePercent         uint64 `json:"fee_percent" yaml:"fee_percent"`
	MinProfitThreshold string `json:"min_profit_threshold" yaml:"min_profit_threshold"`
	MaxGasBudget       uint64 `json:"max_gas_budget" yaml:"max_gas_budget"`
	MaxSlippagePercent uint64 `json:"max_slippage_percent" yaml:"max_slippage_percent"`

	Admin            string `json:"admin" yaml:"admin"`
	DestinationChain string `json:"destination_chain" yaml:"destination_chain"`

	// Settlement dispatch throttle; zero rate disables throttling.
	SettlementPerSecond float64 `json:"settlement_per_second" yaml:"settlement_per_second"`
	SettlementBurst     int     `json:"settlement_burst" yaml:"settlement_burst"`

	Venues []VenueConfig `json:"venues" yaml:"venues"`

	Logger *zap.Logger `json:"-" yaml:"-"`
}

// DefaultConfig returns a configuration with conservative defaults.
func DefaultConfig() *Config {
	return &Config{
		FeePercent:          0,
		MinProfitThreshold:  "0",
		MaxGasBudget:        3_000_000,
		MaxSlippagePercent:  5,
		SettlementPerSecond: 1,
		SettlementBurst:     1,
	}
}

// LoadConfig reads a configuration file, selecting the decoder by extension
// (.yaml/.yml or .json). An empty path falls back to the environment, then
// to defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the file-level configuration.
func (c *Config) Validate() error {
	if _, err := c.EngineParams(); err != nil {
		return err
	}
	if c.Admin != "" && !common.IsHexAddress(c.Admin) {
		return fmt.Errorf("invalid admin address %q", c.Admin)
	}
	if c.SettlementPerSecond < 0 {
		return fmt.Errorf("settlement rate must not be negative")
	}
	seen := make(map[string]bool)
	for _, v := range c.Venues {
		if v.ID == "" {
			return fmt.Errorf("venue with empty id")
		}
		if seen[v.ID] {
			return fmt.Errorf("duplicate venue id %s", v.ID)
		}
		seen[v.ID] = true
		if v.Kind != "pair_reserve" && v.Kind != "single_liquidity" {
			return fmt.Errorf("venue %s: unknown kind %q", v.ID, v.Kind)
		}
		if v.MaxSlippagePercent > 100 {
			return fmt.Errorf("venue %s: slippage ceiling %d above 100", v.ID, v.MaxSlippagePercent)
		}
	}
	return nil
}

// EngineParams converts the file-level fields into an engine Params value.
func (c *Config) EngineParams() (Params, error) {
	p := Params{
		FeePercent:         c.FeePercent,
		MaxGasBudget:       c.MaxGasBudget,
		MaxSlippagePercent: c.MaxSlippagePercent,
	}
	if s := strings.TrimSpace(c.MinProfitThreshold); s != "" && s != "0" {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok || v.Sign() < 0 {
			return Params{}, fmt.Errorf("invalid min profit threshold %q", c.MinProfitThreshold)
		}
		p.MinProfitThreshold = v
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// AdminAddress returns the configured administrator, falling back to the
// environment.
func (c *Config) AdminAddress() common.Address {
	if c.Admin != "" {
		return common.HexToAddress(c.Admin)
	}
	return common.HexToAddress(os.Getenv(EnvAdminAddress))
}
