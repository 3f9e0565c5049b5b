package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	chdir(t, t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "8081" {
		t.Errorf("Port = %q, want 8081", cfg.Port)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %s, want 24h", cfg.TokenTTL)
	}
	if cfg.LogoutOnAuthExpired {
		t.Error("LogoutOnAuthExpired should default to false")
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	file := filepath.Join(dir, "tracker.yaml")
	content := "port: \"9000\"\nlog_level: debug\ntoken_ttl: 2h\n"
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env.local"), []byte("LOG_LEVEL=warn\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	// Register LOG_LEVEL for restoration, then clear it so .env.local applies.
	t.Setenv("LOG_LEVEL", "")
	os.Unsetenv("LOG_LEVEL")

	t.Setenv("CONFIG_FILE", file)
	t.Setenv("PORT", "9100")
	t.Setenv("LOGOUT_ON_AUTH_EXPIRED", "true")
	t.Setenv("REMOTE_TIMEOUT", "3s")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Port != "9100" {
		t.Errorf("Port = %q, env should win over file", cfg.Port)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, .env.local should win over file", cfg.LogLevel)
	}
	if cfg.TokenTTL != 2*time.Hour {
		t.Errorf("TokenTTL = %s, want 2h from file", cfg.TokenTTL)
	}
	if !cfg.LogoutOnAuthExpired {
		t.Error("LogoutOnAuthExpired should be true")
	}
	if cfg.RemoteTimeout != 3*time.Second {
		t.Errorf("RemoteTimeout = %s, want 3s", cfg.RemoteTimeout)
	}
}

func TestLoadConfigBadDuration(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("TOKEN_TTL", "forever")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for unparseable TOKEN_TTL")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"default secret in production", func(c *Config) { c.Env = "production" }, true},
		{"zero ttl", func(c *Config) { c.TokenTTL = 0 }, true},
		{"negative timeout", func(c *Config) { c.RemoteTimeout = -time.Second }, true},
		{"no timeout", func(c *Config) { c.RemoteTimeout = 0 }, false},
		{"unknown store", func(c *Config) { c.Store = "sqlite" }, true},
		{"memory store needs no database", func(c *Config) { c.Store = StoreMemory; c.DatabaseURL = ""; c.RedisURL = "" }, false},
		{"postgres store needs database", func(c *Config) { c.DatabaseURL = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
