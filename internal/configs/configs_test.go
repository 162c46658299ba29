package configs

import (
	"slices"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Environment != "development" {
		t.Errorf("Environment = %q, want development", cfg.Environment)
	}
	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want 3000", cfg.Port)
	}
	if cfg.SendQueueSize != 256 {
		t.Errorf("SendQueueSize = %d, want 256", cfg.SendQueueSize)
	}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment() = false, want true")
	}
}

func TestLoadConfigTrimsLists(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("BLOCKED_WORDS", "darn, heck ")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if want := []string{"https://a.example", "https://b.example"}; !slices.Equal(cfg.AllowedOrigins, want) {
		t.Errorf("AllowedOrigins = %q, want %q", cfg.AllowedOrigins, want)
	}
	if want := []string{"darn", "heck"}; !slices.Equal(cfg.BlockedWords, want) {
		t.Errorf("BlockedWords = %q, want %q", cfg.BlockedWords, want)
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "privileged port", env: map[string]string{"PORT": "80"}},
		{name: "non numeric port", env: map[string]string{"PORT": "abc"}},
		{name: "production without origins", env: map[string]string{"ENVIRONMENT": "production"}},
		{name: "zero message rate", env: map[string]string{"MESSAGE_RATE": "0"}},
		{name: "negative connect burst", env: map[string]string{"CONNECT_BURST": "-1"}},
		{name: "zero send queue", env: map[string]string{"SEND_QUEUE_SIZE": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			if _, err := LoadConfig(); err == nil {
				t.Fatal("LoadConfig() error = nil, want error")
			}
		})
	}
}
