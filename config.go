package main

import (
	"fmt"
	"strconv"

	"github.com/caarlos0/env/v11"
)

// Config is the environment configuration of a run. Window sizes use the
// "<n><unit>" duration syntax (s, m, h, d or "all").
type Config struct {
	Token                string `env:"SLACK_BOT_TOKEN,required,notEmpty"`
	HistoryLimit         int    `env:"HISTORY_LIMIT" envDefault:"1000"`
	TopN                 int    `env:"TOP_N" envDefault:"3"`
	DefaultDuration      string `env:"DEFAULT_DURATION" envDefault:"7d"`
	NewActivityWindow    string `env:"NEW_ACTIVITY_WINDOW" envDefault:"1d"`
	RecentActivityWindow string `env:"RECENT_ACTIVITY_WINDOW" envDefault:"3d"`
	ActivityBinPeriod    string `env:"ACTIVITY_BIN_PERIOD" envDefault:"3d"`
	OutputDir            string `env:"OUTPUT_DIR" envDefault:"metrics"`
}

// loadConfig parses the configuration from environment variables and
// validates it, so a typo in a window surfaces at startup rather than as
// silently empty metrics.
func loadConfig() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.TopN < 1 {
		return fmt.Errorf("TOP_N must be at least 1, got %d", c.TopN)
	}
	durations := []struct{ name, spec string }{
		{"DEFAULT_DURATION", c.DefaultDuration},
		{"NEW_ACTIVITY_WINDOW", c.NewActivityWindow},
		{"RECENT_ACTIVITY_WINDOW", c.RecentActivityWindow},
	}
	for _, d := range durations {
		if err := validateDuration(d.name, d.spec); err != nil {
			return err
		}
	}
	return validateBinPeriod("ACTIVITY_BIN_PERIOD", c.ActivityBinPeriod)
}

// validateDuration checks a window specifier against the duration syntax
// durationToSeconds accepts.
func validateDuration(name, spec string) error {
	if spec == "all" {
		return nil
	}
	if len(spec) < 2 || !isNumeric(spec[:len(spec)-1]) {
		return fmt.Errorf("%s: %q is not a duration like 30s, 5m, 2h, 7d or \"all\"", name, spec)
	}
	if n, _ := strconv.Atoi(spec[:len(spec)-1]); n == 0 {
		return fmt.Errorf("%s: %q has a zero magnitude", name, spec)
	}
	switch spec[len(spec)-1] {
	case 's', 'm', 'h', 'd':
		return nil
	}
	return fmt.Errorf("%s: %q must end in s, m, h or d", name, spec)
}

// validateBinPeriod checks a bin period against the units timeBins accepts.
// A non-numeric magnitude is allowed; it is the documented single-bin case.
func validateBinPeriod(name, period string) error {
	if period == "" {
		return fmt.Errorf("%s must not be empty", name)
	}
	unit := period[len(period)-1]
	switch unit {
	case 'h', 'd', 'm', 'y', 'l':
	default:
		return fmt.Errorf("%s: %q must end in h, d, m, y or l", name, period)
	}
	magnitude := period[:len(period)-1]
	if unit != 'l' && isNumeric(magnitude) {
		if n, _ := strconv.Atoi(magnitude); n == 0 {
			return fmt.Errorf("%s: %q has a zero magnitude", name, period)
		}
	}
	return nil
}
