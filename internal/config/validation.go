package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ValidationConfig holds the tunables of the charge validation rules.
type ValidationConfig struct {
	DataHubGLN            string          `mapstructure:"dataHubGln"`
	StartDate             StartDateWindow `mapstructure:"startDate"`
	PriceMaxIntegerDigits int32           `mapstructure:"priceMaxIntegerDigits"`
	PriceMaxDecimals      int32           `mapstructure:"priceMaxDecimals"`
	NameMaxLength         int             `mapstructure:"nameMaxLength"`
	DescriptionMaxLength  int             `mapstructure:"descriptionMaxLength"`
	ChargeIDMaxLength     int             `mapstructure:"chargeIdMaxLength"`
}

type StartDateWindow struct {
	MaxDaysInPast   int `mapstructure:"maxDaysInPast"`
	MaxDaysInFuture int `mapstructure:"maxDaysInFuture"`
}

func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		DataHubGLN: "5790001330583",
		StartDate: StartDateWindow{
			MaxDaysInPast:   31,
			MaxDaysInFuture: 1000,
		},
		PriceMaxIntegerDigits: 8,
		PriceMaxDecimals:      6,
		NameMaxLength:         132,
		DescriptionMaxLength:  2048,
		ChargeIDMaxLength:     10,
	}
}

type ValidationConfigHolder struct {
	current atomic.Value // holds ValidationConfig
}

// NewStaticValidationConfigHolder returns a holder that never reloads.
func NewStaticValidationConfigHolder(cfg ValidationConfig) *ValidationConfigHolder {
	holder := &ValidationConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewValidationConfigHolder() (*ValidationConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("validation")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/chargeflow")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CHARGEFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultValidationConfig()
	v.SetDefault("validation.dataHubGln", defaults.DataHubGLN)
	v.SetDefault("validation.startDate.maxDaysInPast", defaults.StartDate.MaxDaysInPast)
	v.SetDefault("validation.startDate.maxDaysInFuture", defaults.StartDate.MaxDaysInFuture)
	v.SetDefault("validation.priceMaxIntegerDigits", defaults.PriceMaxIntegerDigits)
	v.SetDefault("validation.priceMaxDecimals", defaults.PriceMaxDecimals)
	v.SetDefault("validation.nameMaxLength", defaults.NameMaxLength)
	v.SetDefault("validation.descriptionMaxLength", defaults.DescriptionMaxLength)
	v.SetDefault("validation.chargeIdMaxLength", defaults.ChargeIDMaxLength)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	cfg, err := unmarshalValidation(v)
	if err != nil {
		return nil, err
	}
	if err := validateValidationConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticValidationConfigHolder(cfg)
	if !fileFound {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := unmarshalValidation(v)
		if err != nil {
			log.Printf("[validation-config] reload failed: %v", err)
			return
		}
		if err := validateValidationConfig(updated); err != nil {
			log.Printf("[validation-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[validation-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// unmarshalValidation decodes the merged settings so file values and defaults combine per key.
func unmarshalValidation(v *viper.Viper) (ValidationConfig, error) {
	var wrapper struct {
		Validation ValidationConfig `mapstructure:"validation"`
	}
	if err := v.Unmarshal(&wrapper); err != nil {
		return ValidationConfig{}, err
	}
	return wrapper.Validation, nil
}

func (h *ValidationConfigHolder) Get() ValidationConfig {
	return h.current.Load().(ValidationConfig)
}

func validateValidationConfig(cfg ValidationConfig) error {
	if strings.TrimSpace(cfg.DataHubGLN) == "" {
		return errors.New("validation.dataHubGln cannot be empty")
	}
	if cfg.StartDate.MaxDaysInPast < 0 || cfg.StartDate.MaxDaysInFuture < 0 {
		return errors.New("validation.startDate window cannot be negative")
	}
	if cfg.PriceMaxIntegerDigits <= 0 || cfg.PriceMaxDecimals < 0 {
		return errors.New("validation price precision is invalid")
	}
	if cfg.NameMaxLength <= 0 || cfg.DescriptionMaxLength <= 0 || cfg.ChargeIDMaxLength <= 0 {
		return errors.New("validation length limits must be positive")
	}
	return nil
}
