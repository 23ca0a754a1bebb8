package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.TickInterval != time.Minute {
		t.Fatalf("unexpected tick interval: %v", cfg.TickInterval)
	}
	if cfg.ReminderLead != 24*time.Hour {
		t.Fatalf("unexpected reminder lead: %v", cfg.ReminderLead)
	}
	if cfg.MaxConcurrentSends <= 0 {
		t.Fatalf("expected positive send concurrency, got %d", cfg.MaxConcurrentSends)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notifyd.yaml")
	body := "tick_interval: 30s\nreminder_lead: 48h\nsendgrid_api_key: sg\nfrom_email: noreply@x.io\nlisten_addr: \":4100\"\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfigFromFile(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.TickInterval != 30*time.Second || cfg.ReminderLead != 48*time.Hour {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.ListenAddr != ":4100" {
		t.Fatalf("unexpected listen addr: %q", cfg.ListenAddr)
	}
	// untouched fields keep their defaults
	if cfg.HistorySize != 100 {
		t.Fatalf("default not preserved: %d", cfg.HistorySize)
	}
}

func TestCredentialsError(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.CredentialsError(); err != nil {
		t.Fatalf("empty credentials should not be fatal: %v", err)
	}

	cfg.SendGridAPIKey = "sg"
	if err := cfg.CredentialsError(); err == nil || !strings.Contains(err.Error(), "from_email") {
		t.Fatalf("expected from_email error, got %v", err)
	}
	cfg.FromEmail = "noreply@x.io"
	if err := cfg.CredentialsError(); err != nil {
		t.Fatalf("complete email credentials should pass: %v", err)
	}

	cfg.TwilioAccountSID = "AC1"
	if err := cfg.CredentialsError(); err == nil || !strings.Contains(err.Error(), "twilio") {
		t.Fatalf("expected twilio error, got %v", err)
	}
	cfg.TwilioAuthToken = "tok"
	cfg.TwilioFromNumber = "+15550000000"
	if err := cfg.CredentialsError(); err != nil {
		t.Fatalf("complete twilio credentials should pass: %v", err)
	}
}

func TestValidateWarnsWhenNoChannelConfigured(t *testing.T) {
	cfg := DefaultConfig()
	warnings := cfg.Validate()
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "no delivery channel") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected no-channel warning, got %v", warnings)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("EVENTCRAFT_TICK_INTERVAL", "15s")
	t.Setenv("EVENTCRAFT_REMINDER_LEAD", "12h")
	t.Setenv("SENDGRID_API_KEY", "sg-env")
	t.Setenv("FROM_EMAIL", "noreply@eventcraft.io")
	t.Setenv("TWILIO_ACCOUNT_SID", "AC9")
	t.Setenv("TWILIO_AUTH_TOKEN", "tok")
	t.Setenv("TWILIO_PHONE_NUMBER", "+15551112222")
	t.Setenv("EVENTCRAFT_METRICS_ENABLED", "true")
	t.Setenv("EVENTCRAFT_REDIS_ADDR", "localhost:6379")

	cfg := DefaultConfig()
	if err := ApplyEnvOverrides(cfg); err != nil {
		t.Fatalf("apply env failed: %v", err)
	}
	if cfg.TickInterval != 15*time.Second || cfg.ReminderLead != 12*time.Hour {
		t.Fatalf("durations not applied: %+v", cfg)
	}
	if !cfg.EmailConfigured() || !cfg.SMSConfigured() {
		t.Fatalf("providers not applied: %+v", cfg)
	}
	if !cfg.MetricsEnabled || cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("metrics/redis not applied: %+v", cfg)
	}
}

func TestApplyEnvOverridesRejectsBadValues(t *testing.T) {
	t.Setenv("EVENTCRAFT_TICK_INTERVAL", "soon")
	cfg := DefaultConfig()
	if err := ApplyEnvOverrides(cfg); err == nil {
		t.Fatal("expected parse error for bad duration")
	}

	t.Setenv("EVENTCRAFT_TICK_INTERVAL", "")
	t.Setenv("EVENTCRAFT_METRICS_PORT", "ninety")
	if err := ApplyEnvOverrides(DefaultConfig()); err == nil {
		t.Fatal("expected parse error for bad port")
	}
}
