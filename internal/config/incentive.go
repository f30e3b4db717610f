package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// IncentiveConfig holds the incentive engine tunables. Values come from
// incentive.yml when present, otherwise from defaults, with INCENTRA_*
// environment overrides.
type IncentiveConfig struct {
	// RiskAmountThreshold is the deal amount above which a deal with no
	// explicit risk level is treated as HIGH risk.
	RiskAmountThreshold float64 `mapstructure:"riskAmountThreshold"`
	// SettlementLockTTLSeconds bounds how long a settlement run may hold
	// the distributed run lock.
	SettlementLockTTLSeconds int `mapstructure:"settlementLockTTLSeconds"`
	// DefaultMonthlyTarget seeds a sales target when none exists yet.
	DefaultMonthlyTarget float64 `mapstructure:"defaultMonthlyTarget"`
}

func DefaultIncentiveConfig() IncentiveConfig {
	return IncentiveConfig{
		RiskAmountThreshold:      50_000,
		SettlementLockTTLSeconds: 30,
		DefaultMonthlyTarget:     100_000,
	}
}

// LoadIncentiveConfig reads incentive.yml if one is present; a missing file
// falls back to defaults.
func LoadIncentiveConfig() IncentiveConfig {
	cfg, err := readIncentiveConfig()
	if err != nil {
		return DefaultIncentiveConfig()
	}
	return cfg
}

func readIncentiveConfig() (IncentiveConfig, error) {
	v := viper.New()

	v.SetConfigName("incentive")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/incentra/config")
	v.AddConfigPath("/etc/incentra")
	v.AddConfigPath(".")

	v.SetEnvPrefix("INCENTRA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultIncentiveConfig()
	v.SetDefault("incentive.riskAmountThreshold", defaults.RiskAmountThreshold)
	v.SetDefault("incentive.settlementLockTTLSeconds", defaults.SettlementLockTTLSeconds)
	v.SetDefault("incentive.defaultMonthlyTarget", defaults.DefaultMonthlyTarget)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return IncentiveConfig{}, err
		}
	}

	var cfg IncentiveConfig
	if err := v.UnmarshalKey("incentive", &cfg); err != nil {
		return IncentiveConfig{}, err
	}
	if err := validateIncentiveConfig(cfg); err != nil {
		return IncentiveConfig{}, err
	}
	return cfg, nil
}

func validateIncentiveConfig(cfg IncentiveConfig) error {
	if cfg.RiskAmountThreshold < 0 {
		return errors.New("incentive.riskAmountThreshold cannot be negative")
	}
	if cfg.SettlementLockTTLSeconds <= 0 {
		return errors.New("incentive.settlementLockTTLSeconds must be positive")
	}
	return nil
}
