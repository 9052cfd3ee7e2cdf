package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setRequiredKeys(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "test-gemini-key")
	t.Setenv("GOOGLE_GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_AI_API_KEY", "")
	t.Setenv("SERPAPI_API_KEY", "test-serpapi-key")
	t.Setenv("SERPAPI_KEY", "")
	t.Setenv("BREVO_API_KEY", "")
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("SCHEDULE_TIMEZONE", "")
	t.Setenv("SENDER_EMAIL", "")
}

func TestLoadDefaults(t *testing.T) {
	Reset()
	defer Reset()
	setRequiredKeys(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.Search.Provider != "serpapi" {
		t.Errorf("Expected default provider serpapi, got %s", cfg.Search.Provider)
	}
	if cfg.Search.ResultCount != 10 {
		t.Errorf("Expected default result count 10, got %d", cfg.Search.ResultCount)
	}
	if cfg.Search.Window != "week" {
		t.Errorf("Expected default window week, got %s", cfg.Search.Window)
	}
	if cfg.Pipeline.MaxTokens != 50000 {
		t.Errorf("Expected default max tokens 50000, got %d", cfg.Pipeline.MaxTokens)
	}
	if cfg.Pipeline.MaxConcurrentExtractions != 5 {
		t.Errorf("Expected default extraction concurrency 5, got %d", cfg.Pipeline.MaxConcurrentExtractions)
	}
	if cfg.Schedule.Weekday != "Sunday" || cfg.Schedule.Hour != 7 {
		t.Errorf("Expected Sunday 07:00 default schedule, got %s %02d:%02d", cfg.Schedule.Weekday, cfg.Schedule.Hour, cfg.Schedule.Minute)
	}
	if cfg.Email.Enabled {
		t.Error("Expected email delivery disabled by default")
	}
	if cfg.Gemini.APIKey != "test-gemini-key" {
		t.Errorf("Expected bound Gemini key, got %q", cfg.Gemini.APIKey)
	}

	if got := Get(); got != cfg {
		t.Error("Expected Get to return the loaded config")
	}
	if d := GetExtractTimeout(); d != 10*time.Second {
		t.Errorf("Expected 10s extract timeout, got %v", d)
	}
}

func TestLoadMissingGeminiKey(t *testing.T) {
	Reset()
	defer Reset()
	setRequiredKeys(t)
	t.Setenv("GEMINI_API_KEY", "")

	_, err := Load("")
	if err == nil {
		t.Fatal("Expected error for missing Gemini API key")
	}
	if !strings.Contains(err.Error(), "Gemini API key") {
		t.Errorf("Expected Gemini key error, got: %v", err)
	}
}

func TestLoadMissingSerpAPIKey(t *testing.T) {
	Reset()
	defer Reset()
	setRequiredKeys(t)
	t.Setenv("SERPAPI_API_KEY", "")

	_, err := Load("")
	if err == nil {
		t.Fatal("Expected error for missing SerpAPI key")
	}
	if !strings.Contains(err.Error(), "SerpAPI") {
		t.Errorf("Expected SerpAPI error, got: %v", err)
	}
}

func TestFirstFoundEnvKeyWins(t *testing.T) {
	Reset()
	defer Reset()
	setRequiredKeys(t)
	t.Setenv("GEMINI_API_KEY", "primary-key")
	t.Setenv("GOOGLE_GEMINI_API_KEY", "fallback-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg.Gemini.APIKey != "primary-key" {
		t.Errorf("Expected first env var to win, got %q", cfg.Gemini.APIKey)
	}
}

func TestLoadFromFile(t *testing.T) {
	Reset()
	defer Reset()
	setRequiredKeys(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "newsbrief.yaml")
	content := []byte("search:\n  window: day\npipeline:\n  max_tokens: 4500\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg.Search.Window != "day" {
		t.Errorf("Expected window day from file, got %s", cfg.Search.Window)
	}
	if cfg.Pipeline.MaxTokens != 4500 {
		t.Errorf("Expected max tokens 4500 from file, got %d", cfg.Pipeline.MaxTokens)
	}
}

func TestLoadRejectsUnknownWindow(t *testing.T) {
	Reset()
	defer Reset()
	setRequiredKeys(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "newsbrief.yaml")
	if err := os.WriteFile(path, []byte("search:\n  window: fortnight\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("Expected error for unknown window")
	}
	if !strings.Contains(err.Error(), "window") {
		t.Errorf("Expected window error, got: %v", err)
	}
}

func TestEmailRequiresCredentialsWhenEnabled(t *testing.T) {
	Reset()
	defer Reset()
	setRequiredKeys(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "newsbrief.yaml")
	if err := os.WriteFile(path, []byte("email:\n  enabled: true\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("Expected error for enabled email without credentials")
	}
	if !strings.Contains(err.Error(), "Email delivery") {
		t.Errorf("Expected email credential error, got: %v", err)
	}
}

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		name    string
		want    time.Weekday
		wantErr bool
	}{
		{"Sunday", time.Sunday, false},
		{"sunday", time.Sunday, false},
		{" Friday ", time.Friday, false},
		{"noday", time.Sunday, true},
		{"", time.Sunday, true},
	}

	for _, tt := range tests {
		got, err := ParseWeekday(tt.name)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseWeekday(%q) expected error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseWeekday(%q) unexpected error: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("ParseWeekday(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
