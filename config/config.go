package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"peerlend/native/lending"
)

// Config is the daemon configuration, read from a TOML file. A missing file is
// created with defaults on first run.
type Config struct {
	RPCAddress  string `toml:"RPCAddress"`
	DataDir     string `toml:"DataDir"`
	NetworkName string `toml:"NetworkName"`
	Environment string `toml:"Environment"`

	Lending LendingConfig `toml:"lending"`
	Pauses  PausesConfig  `toml:"pauses"`
}

// LendingConfig carries the protocol parameters for the lending subsystem.
// Zero values fall back to the protocol defaults.
type LendingConfig struct {
	MinCollateralRatioBps uint64 `toml:"MinCollateralRatioBps"`
	InterestRateBps       uint32 `toml:"InterestRateBps"`
	LoanDurationSeconds   int64  `toml:"LoanDurationSeconds"`
	// CollateralPriceBps values locked collateral for liquidation checks
	// (10000 = face value). Zero leaves the node without an oracle, so only
	// overdue loans can be liquidated.
	CollateralPriceBps uint64 `toml:"CollateralPriceBps"`
}

// PausesConfig flips individual subsystems into read-only mode.
type PausesConfig struct {
	Lending       bool `toml:"Lending"`
	UserRegistry  bool `toml:"UserRegistry"`
	AssetRegistry bool `toml:"AssetRegistry"`
}

// Load reads the configuration at path, creating a default file when none
// exists.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := &Config{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s has unknown field %s", path, undecoded[0])
	}

	cfg.applyDefaults()
	return cfg, nil
}

// LendingParams maps the lending section onto engine parameters.
func (c *Config) LendingParams() lending.Params {
	return lending.Params{
		MinCollateralRatioBps: c.Lending.MinCollateralRatioBps,
		InterestRateBps:       c.Lending.InterestRateBps,
		LoanDurationSeconds:   c.Lending.LoanDurationSeconds,
	}
}

// PauseMap renders the pause flags as the module map the engines consume.
func (c *Config) PauseMap() map[string]bool {
	return map[string]bool{
		"lending":  c.Pauses.Lending,
		"userreg":  c.Pauses.UserRegistry,
		"assetreg": c.Pauses.AssetRegistry,
	}
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.RPCAddress) == "" {
		c.RPCAddress = ":8545"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./peerlend-data"
	}
	if strings.TrimSpace(c.NetworkName) == "" {
		c.NetworkName = "peerlend-local"
	}
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		RPCAddress:  ":8545",
		DataDir:     "./peerlend-data",
		NetworkName: "peerlend-local",
		Lending: LendingConfig{
			MinCollateralRatioBps: lending.DefaultMinCollateralRatioBps,
			InterestRateBps:       lending.DefaultInterestRateBps,
			LoanDurationSeconds:   lending.DefaultLoanDuration,
			CollateralPriceBps:    10_000,
		},
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(cfg)
}
