package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BLOCKDOC_API_KEY", "k")
	cfg := Load()
	if cfg.Port != "8090" {
		t.Errorf("expected port 8090, got %q", cfg.Port)
	}
	if cfg.CharacterLimit != 10000 || cfg.HistoryDepth != 100 {
		t.Errorf("unexpected editor defaults %d/%d", cfg.CharacterLimit, cfg.HistoryDepth)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Errorf("expected 2h session ttl, got %v", cfg.SessionTTL)
	}
	if cfg.GenerationEnabled() || cfg.PersistenceEnabled() {
		t.Error("expected optional integrations disabled without keys")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestLoad_ClampsNonPositive(t *testing.T) {
	t.Setenv("WORKER_COUNT", "0")
	t.Setenv("SESSION_TTL", "-1s")
	t.Setenv("HISTORY_DEPTH", "nope")
	cfg := Load()
	if cfg.WorkerCount != 2 {
		t.Errorf("expected 2 workers, got %d", cfg.WorkerCount)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Errorf("expected clamped ttl, got %v", cfg.SessionTTL)
	}
	if cfg.HistoryDepth != 100 {
		t.Errorf("expected default depth, got %d", cfg.HistoryDepth)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"missing key", Config{TextBlockContent: "paragraph+"}, false},
		{"loose content", Config{APIKey: "k", TextBlockContent: "block+"}, true},
		{"bad content", Config{APIKey: "k", TextBlockContent: "inline*"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err == nil) != tt.ok {
				t.Errorf("expected ok=%v, got %v", tt.ok, err)
			}
		})
	}
}
