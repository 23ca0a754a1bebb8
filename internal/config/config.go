package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for notifyd.
type Config struct {
	// Scheduler
	TickInterval time.Duration `json:"tick_interval" yaml:"tick_interval"`
	ReminderLead time.Duration `json:"reminder_lead" yaml:"reminder_lead"`
	// MaxConcurrentSends bounds in-flight provider calls across all dispatches
	// to respect provider rate limits.
	MaxConcurrentSends int `json:"max_concurrent_sends" yaml:"max_concurrent_sends"`
	// StateDir is where the fired-window journal lives. Empty disables the
	// journal (windows are tracked in memory only).
	StateDir string `json:"state_dir" yaml:"state_dir"`

	// HTTP / WebSocket surface
	ListenAddr string `json:"listen_addr" yaml:"listen_addr"`

	// Event/attendee source (the EventCraft core API)
	EventsAPIURL   string `json:"events_api_url" yaml:"events_api_url"`
	EventsAPIToken string `json:"events_api_token" yaml:"events_api_token"`

	// Email provider (SendGrid)
	SendGridAPIKey string `json:"sendgrid_api_key" yaml:"sendgrid_api_key"`
	FromEmail      string `json:"from_email" yaml:"from_email"`
	FromName       string `json:"from_name" yaml:"from_name"`

	// SMS provider (Twilio)
	TwilioAccountSID string `json:"twilio_account_sid" yaml:"twilio_account_sid"`
	TwilioAuthToken  string `json:"twilio_auth_token" yaml:"twilio_auth_token"`
	TwilioFromNumber string `json:"twilio_from_number" yaml:"twilio_from_number"`

	// Delivery history
	HistorySize   int    `json:"history_size" yaml:"history_size"`
	RedisAddr     string `json:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `json:"redis_password" yaml:"redis_password"`
	RedisDB       int    `json:"redis_db" yaml:"redis_db"`

	// Metrics
	MetricsEnabled bool `json:"metrics_enabled" yaml:"metrics_enabled"`
	MetricsPort    int  `json:"metrics_port" yaml:"metrics_port"`

	// InfluxDB (push)
	InfluxURL      string        `json:"influx_url" yaml:"influx_url"`
	InfluxToken    string        `json:"influx_token" yaml:"influx_token"`
	InfluxOrg      string        `json:"influx_org" yaml:"influx_org"`
	InfluxBucket   string        `json:"influx_bucket" yaml:"influx_bucket"`
	InfluxInterval time.Duration `json:"influx_interval" yaml:"influx_interval"`
}

// DefaultConfig returns a sane default configuration.
func DefaultConfig() *Config {
	return &Config{
		TickInterval:       time.Minute,
		ReminderLead:       24 * time.Hour,
		MaxConcurrentSends: 8,
		ListenAddr:         ":4000",

		// EventCraft core API default location
		EventsAPIURL: "http://localhost:5000",

		HistorySize: 100,

		// Metrics defaults (opt-in)
		MetricsEnabled: false,
		MetricsPort:    9090,

		InfluxInterval: time.Minute,
	}
}

// EmailConfigured reports whether the email channel has complete credentials.
func (c *Config) EmailConfigured() bool {
	return c.SendGridAPIKey != "" && c.FromEmail != ""
}

// SMSConfigured reports whether the SMS channel has complete credentials.
func (c *Config) SMSConfigured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromNumber != ""
}

// CredentialsError returns an error for partially-configured provider
// credentials. These are the only configuration failures fatal at startup:
// a channel is either fully configured or fully absent.
func (c *Config) CredentialsError() error {
	if c.SendGridAPIKey != "" && c.FromEmail == "" {
		return fmt.Errorf("sendgrid api key set but from_email is missing")
	}
	if c.FromEmail != "" && c.SendGridAPIKey == "" {
		return fmt.Errorf("from_email set but sendgrid api key is missing")
	}
	twilioSet := 0
	for _, v := range []string{c.TwilioAccountSID, c.TwilioAuthToken, c.TwilioFromNumber} {
		if v != "" {
			twilioSet++
		}
	}
	if twilioSet > 0 && twilioSet < 3 {
		return fmt.Errorf("twilio credentials incomplete: account sid, auth token, and from number are all required")
	}
	return nil
}

// Validate returns a list of non-fatal configuration warnings.
func (c *Config) Validate() []string {
	var warnings []string
	checks := []struct {
		cond bool
		msg  string
	}{
		{!c.EmailConfigured() && !c.SMSConfigured(), "no delivery channel configured; every dispatch will be skipped on both channels"},
		{c.InfluxURL != "" && c.InfluxBucket == "", "influx URL provided but bucket is missing"},
		{c.TickInterval < time.Second, "tick interval below one second; scans may overlap heavily"},
		{c.ReminderLead <= 0, "reminder lead is not positive; no reminder will ever fire"},
		{c.EventsAPIURL == "", "events API URL is empty; reminder scanning and calendar queries are disabled"},
	}
	for _, ch := range checks {
		if ch.cond {
			warnings = append(warnings, ch.msg)
		}
	}
	return warnings
}

// LoadConfigFromFile loads config from a YAML/JSON file on top of defaults.
func LoadConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
