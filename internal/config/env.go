package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ApplyEnvOverrides reads configuration values from environment variables and
// overrides fields in the provided Config. Returns an error if parsing fails.
//
// Environment variables supported:
// - EVENTCRAFT_TICK_INTERVAL (duration, e.g. "1m")
// - EVENTCRAFT_REMINDER_LEAD (duration, e.g. "24h")
// - EVENTCRAFT_MAX_CONCURRENT_SENDS (int)
// - EVENTCRAFT_STATE_DIR (string)
// - EVENTCRAFT_LISTEN_ADDR (string, e.g. ":4000")
// - EVENTCRAFT_EVENTS_API_URL / _TOKEN (string)
// - SENDGRID_API_KEY, FROM_EMAIL, FROM_NAME (string)
// - TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN, TWILIO_PHONE_NUMBER (string)
// - EVENTCRAFT_HISTORY_SIZE (int)
// - EVENTCRAFT_REDIS_ADDR / _PASSWORD / _DB
// - EVENTCRAFT_METRICS_ENABLED (bool), EVENTCRAFT_METRICS_PORT (int)
// - EVENTCRAFT_INFLUX_URL / _TOKEN / _ORG / _BUCKET / _INTERVAL
//
// The provider variables keep the names the original backend read from .env.
func ApplyEnvOverrides(cfg *Config) error {
	if err := applySchedulerEnv(cfg); err != nil {
		return err
	}
	if err := applyProviderEnv(cfg); err != nil {
		return err
	}
	if err := applyHistoryEnv(cfg); err != nil {
		return err
	}
	if err := applyMetricsEnv(cfg); err != nil {
		return err
	}
	return applyInfluxEnv(cfg)
}

func applySchedulerEnv(cfg *Config) error {
	if err := setDurationEnv("EVENTCRAFT_TICK_INTERVAL", &cfg.TickInterval); err != nil {
		return err
	}
	if err := setDurationEnv("EVENTCRAFT_REMINDER_LEAD", &cfg.ReminderLead); err != nil {
		return err
	}
	if err := setIntEnv("EVENTCRAFT_MAX_CONCURRENT_SENDS", &cfg.MaxConcurrentSends); err != nil {
		return err
	}
	if v := os.Getenv("EVENTCRAFT_STATE_DIR"); v != "" {
		cfg.StateDir = v
	}
	if v := os.Getenv("EVENTCRAFT_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("EVENTCRAFT_EVENTS_API_URL"); v != "" {
		cfg.EventsAPIURL = v
	}
	if v := os.Getenv("EVENTCRAFT_EVENTS_API_TOKEN"); v != "" {
		cfg.EventsAPIToken = v
	}
	return nil
}

func applyProviderEnv(cfg *Config) error {
	if v := os.Getenv("SENDGRID_API_KEY"); v != "" {
		cfg.SendGridAPIKey = v
	}
	if v := os.Getenv("FROM_EMAIL"); v != "" {
		cfg.FromEmail = v
	}
	if v := os.Getenv("FROM_NAME"); v != "" {
		cfg.FromName = v
	}
	if v := os.Getenv("TWILIO_ACCOUNT_SID"); v != "" {
		cfg.TwilioAccountSID = v
	}
	if v := os.Getenv("TWILIO_AUTH_TOKEN"); v != "" {
		cfg.TwilioAuthToken = v
	}
	if v := os.Getenv("TWILIO_PHONE_NUMBER"); v != "" {
		cfg.TwilioFromNumber = v
	}
	return nil
}

func applyHistoryEnv(cfg *Config) error {
	if err := setIntEnv("EVENTCRAFT_HISTORY_SIZE", &cfg.HistorySize); err != nil {
		return err
	}
	if v := os.Getenv("EVENTCRAFT_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("EVENTCRAFT_REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	return setIntEnv("EVENTCRAFT_REDIS_DB", &cfg.RedisDB)
}

func applyMetricsEnv(cfg *Config) error {
	if err := setBoolEnv("EVENTCRAFT_METRICS_ENABLED", func(b bool) { cfg.MetricsEnabled = b }); err != nil {
		return err
	}
	return setIntEnv("EVENTCRAFT_METRICS_PORT", &cfg.MetricsPort)
}

func applyInfluxEnv(cfg *Config) error {
	if v := os.Getenv("EVENTCRAFT_INFLUX_URL"); v != "" {
		cfg.InfluxURL = v
	}
	if v := os.Getenv("EVENTCRAFT_INFLUX_TOKEN"); v != "" {
		cfg.InfluxToken = v
	}
	if v := os.Getenv("EVENTCRAFT_INFLUX_ORG"); v != "" {
		cfg.InfluxOrg = v
	}
	if v := os.Getenv("EVENTCRAFT_INFLUX_BUCKET"); v != "" {
		cfg.InfluxBucket = v
	}
	return setDurationEnv("EVENTCRAFT_INFLUX_INTERVAL", &cfg.InfluxInterval)
}

// setBoolEnv parses a boolean environment variable into a setter.
func setBoolEnv(env string, setter func(bool)) error {
	if v := os.Getenv(env); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", env, err)
		}
		setter(b)
	}
	return nil
}

func setIntEnv(env string, dst *int) error {
	if v := os.Getenv(env); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", env, err)
		}
		*dst = n
	}
	return nil
}

func setDurationEnv(env string, dst *time.Duration) error {
	if v := os.Getenv(env); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", env, err)
		}
		*dst = d
	}
	return nil
}
