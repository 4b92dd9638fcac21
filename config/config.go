package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"patronchain/core/types"
	"patronchain/native/patronage"
)

// Config captures the runtime configuration for patrond. Fee parameters and
// genesis allocations apply only on first boot against an empty database;
// afterwards the persisted params record is authoritative and fee changes go
// through the admin operations.
type Config struct {
	ListenAddress      string            `toml:"ListenAddress"`
	DataDir            string            `toml:"DataDir"`
	Environment        string            `toml:"Environment"`
	Authority          string            `toml:"Authority"`
	FeeCollector       string            `toml:"FeeCollector"`
	FeeRateBps         uint32            `toml:"FeeRateBps"`
	MinPatronageAmount string            `toml:"MinPatronageAmount"`
	GenesisAlloc       map[string]string `toml:"GenesisAlloc"`
}

// Load loads the configuration from the given path, writing a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = ":8645"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./patrond-data"
	}
	if strings.TrimSpace(cfg.MinPatronageAmount) == "" {
		cfg.MinPatronageAmount = "0"
	}
	if cfg.GenesisAlloc == nil {
		cfg.GenesisAlloc = map[string]string{}
	}
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		ListenAddress:      ":8645",
		DataDir:            "./patrond-data",
		Environment:        "local",
		Authority:          types.FormatAddress([20]byte{}),
		FeeCollector:       types.FormatAddress([20]byte{}),
		FeeRateBps:         250,
		MinPatronageAmount: "0",
		GenesisAlloc:       map[string]string{},
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(cfg)
}

// Validate checks address formats, amount formats and the fee-rate bound.
func (c *Config) Validate() error {
	if _, err := types.ParseAddress(c.Authority); err != nil {
		return fmt.Errorf("Authority: %w", err)
	}
	if _, err := types.ParseAddress(c.FeeCollector); err != nil {
		return fmt.Errorf("FeeCollector: %w", err)
	}
	if c.FeeRateBps > patronage.FeeRateCapBps {
		return fmt.Errorf("FeeRateBps %d above cap %d", c.FeeRateBps, patronage.FeeRateCapBps)
	}
	if _, err := parseAmount(c.MinPatronageAmount); err != nil {
		return fmt.Errorf("MinPatronageAmount: %w", err)
	}
	for addr, amount := range c.GenesisAlloc {
		if _, err := types.ParseAddress(addr); err != nil {
			return fmt.Errorf("GenesisAlloc %q: %w", addr, err)
		}
		if _, err := parseAmount(amount); err != nil {
			return fmt.Errorf("GenesisAlloc %q: %w", addr, err)
		}
	}
	return nil
}

// GenesisParams converts the configured fee settings into the params record
// seeded on first boot. The clock and id counter start at zero.
func (c *Config) GenesisParams() (*patronage.Params, error) {
	authority, err := types.ParseAddress(c.Authority)
	if err != nil {
		return nil, fmt.Errorf("Authority: %w", err)
	}
	collector, err := types.ParseAddress(c.FeeCollector)
	if err != nil {
		return nil, fmt.Errorf("FeeCollector: %w", err)
	}
	minAmount, err := parseAmount(c.MinPatronageAmount)
	if err != nil {
		return nil, fmt.Errorf("MinPatronageAmount: %w", err)
	}
	return &patronage.Params{
		Authority:          authority,
		FeeCollector:       collector,
		FeeRateBps:         c.FeeRateBps,
		MinPatronageAmount: minAmount,
	}, nil
}

// GenesisBalances converts the configured allocations into parsed addresses
// and amounts.
func (c *Config) GenesisBalances() (map[[20]byte]*big.Int, error) {
	balances := make(map[[20]byte]*big.Int, len(c.GenesisAlloc))
	for raw, amount := range c.GenesisAlloc {
		addr, err := types.ParseAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("GenesisAlloc %q: %w", raw, err)
		}
		value, err := parseAmount(amount)
		if err != nil {
			return nil, fmt.Errorf("GenesisAlloc %q: %w", raw, err)
		}
		balances[addr] = value
	}
	return balances, nil
}

func parseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("amount %q must not be negative", raw)
	}
	return value, nil
}
