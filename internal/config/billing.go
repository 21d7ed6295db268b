package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/fx"
)

// BillingModule provides the billing knobs.
var BillingModule = fx.Provide(NewBillingConfig)

// BillingConfig carries the tunable billing parameters. They live in an
// optional billing.yml so operators can adjust them without a rebuild.
type BillingConfig struct {
	// TaxPercent is the flat tax rate applied to every charge line.
	TaxPercent int `mapstructure:"taxPercent"`
	// DefaultPeriodMonths is the billing cadence assigned to new vendors.
	DefaultPeriodMonths int `mapstructure:"defaultPeriodMonths"`
	// SchedulerIntervalSeconds is how often the due-billing sweep runs.
	SchedulerIntervalSeconds int `mapstructure:"schedulerIntervalSeconds"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		TaxPercent:               21,
		DefaultPeriodMonths:      3,
		SchedulerIntervalSeconds: 3600,
	}
}

var validPeriods = map[int]bool{1: true, 3: true, 6: true, 12: true}

// NewBillingConfig reads billing.yml if present and falls back to defaults.
func NewBillingConfig() (BillingConfig, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/marketfee")
	v.AddConfigPath(".")

	v.SetEnvPrefix("MARKETFEE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingConfig()
	v.SetDefault("billing.taxPercent", defaults.TaxPercent)
	v.SetDefault("billing.defaultPeriodMonths", defaults.DefaultPeriodMonths)
	v.SetDefault("billing.schedulerIntervalSeconds", defaults.SchedulerIntervalSeconds)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return BillingConfig{}, err
		}
	}

	var cfg BillingConfig
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return BillingConfig{}, err
	}
	if err := validateBillingConfig(cfg); err != nil {
		return BillingConfig{}, err
	}
	return cfg, nil
}

func validateBillingConfig(cfg BillingConfig) error {
	if cfg.TaxPercent < 0 || cfg.TaxPercent > 100 {
		return errors.New("billing.taxPercent must be within [0,100]")
	}
	if !validPeriods[cfg.DefaultPeriodMonths] {
		return errors.New("billing.defaultPeriodMonths must be one of 1, 3, 6, 12")
	}
	if cfg.SchedulerIntervalSeconds <= 0 {
		return errors.New("billing.schedulerIntervalSeconds must be positive")
	}
	return nil
}
