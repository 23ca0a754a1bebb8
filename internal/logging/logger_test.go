package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestInitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "notifyd.log")
	cleanup, err := Init(path, "debug")
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	Get().Info().Str("component", "test").Msg("hello from test")
	cleanup()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(b), "hello from test") {
		t.Fatalf("log file missing entry: %s", b)
	}
}

func TestInitLevelParsing(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"warn":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"bogus":   zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
		"ERROR":   zerolog.ErrorLevel,
		" info  ": zerolog.InfoLevel,
	}
	for in, want := range cases {
		cleanup, err := Init("", strings.TrimSpace(in))
		if err != nil {
			t.Fatalf("init(%q) failed: %v", in, err)
		}
		cleanup()
		if got := zerolog.GlobalLevel(); got != want {
			t.Fatalf("level for %q: got %v want %v", in, got, want)
		}
	}
}
