package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Env:      EnvLocal,
		LogLevel: "info",
		BaseURL:  "https://www.automationexercise.com",
		Timeouts: DefaultTimeouts(),
		Browser:  BrowserConfig{Engine: "chromium"},
		Policies: PolicyConfig{Fill: "swallow", Check: "swallow", Overlay: "swallow"},
		Runner:   RunnerConfig{Workers: 1},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BaseURL != "https://www.automationexercise.com" {
		t.Errorf("BaseURL = %v, want https://www.automationexercise.com", cfg.BaseURL)
	}
	if cfg.Timeouts != DefaultTimeouts() {
		t.Errorf("Timeouts = %+v, want %+v", cfg.Timeouts, DefaultTimeouts())
	}
	if cfg.Overlay.Grace != 800*time.Millisecond {
		t.Errorf("Overlay.Grace = %v, want 800ms", cfg.Overlay.Grace)
	}
	if len(cfg.Browser.BlockPatterns) != 2 {
		t.Errorf("BlockPatterns len = %d, want 2", len(cfg.Browser.BlockPatterns))
	}
	if cfg.Policies.Fill != "swallow" || cfg.Policies.Check != "swallow" {
		t.Errorf("Policies = %+v, want swallow defaults", cfg.Policies)
	}
	if cfg.Artifacts.LinkExpiry != 7*24*time.Hour {
		t.Errorf("Artifacts.LinkExpiry = %v, want 168h", cfg.Artifacts.LinkExpiry)
	}
	if cfg.Artifacts.S3Region != "us-east-1" {
		t.Errorf("Artifacts.S3Region = %q, want us-east-1", cfg.Artifacts.S3Region)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BASE_URL", "http://localhost:8080")
	t.Setenv("ELEMENT_TIMEOUT", "2s")
	t.Setenv("POLICY_FILL", "propagate")
	t.Setenv("RUNNER_WORKERS", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BaseURL != "http://localhost:8080" {
		t.Errorf("BaseURL = %v, want http://localhost:8080", cfg.BaseURL)
	}
	if cfg.Timeouts.Element != 2*time.Second {
		t.Errorf("Timeouts.Element = %v, want 2s", cfg.Timeouts.Element)
	}
	if cfg.Policies.Fill != "propagate" {
		t.Errorf("Policies.Fill = %v, want propagate", cfg.Policies.Fill)
	}
	if cfg.Runner.Workers != 4 {
		t.Errorf("Runner.Workers = %d, want 4", cfg.Runner.Workers)
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("BROWSER", "netscape")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for unknown browser engine")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "suite.env")
	if err := os.WriteFile(path, []byte("TEST_EMAIL=dotenv@example.com\n"), 0o600); err != nil {
		t.Fatalf("writing env file: %v", err)
	}
	// godotenv does not override variables that are already set
	os.Unsetenv("TEST_EMAIL")
	t.Cleanup(func() { os.Unsetenv("TEST_EMAIL") })

	cfg, err := LoadDotEnv(path, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if cfg.User.Email != "dotenv@example.com" {
		t.Errorf("User.Email = %v, want dotenv@example.com", cfg.User.Email)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "relative base url",
			mutate:  func(c *Config) { c.BaseURL = "/shop" },
			wantErr: "BASE_URL",
		},
		{
			name:    "zero element timeout",
			mutate:  func(c *Config) { c.Timeouts.Element = 0 },
			wantErr: "ELEMENT_TIMEOUT",
		},
		{
			name:    "unknown policy",
			mutate:  func(c *Config) { c.Policies.Check = "ignore" },
			wantErr: "POLICY_CHECK",
		},
		{
			name:    "no workers",
			mutate:  func(c *Config) { c.Runner.Workers = 0 },
			wantErr: "RUNNER_WORKERS",
		},
		{
			name: "upload without bucket",
			mutate: func(c *Config) {
				c.Artifacts.Upload = true
				c.Artifacts.S3Bucket = ""
			},
			wantErr: "S3_BUCKET",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestRunnerConfig_EffectiveRetries(t *testing.T) {
	tests := []struct {
		name     string
		retries  int
		ci       bool
		expected int
	}{
		{name: "unset locally", retries: -1, ci: false, expected: 0},
		{name: "unset on CI", retries: -1, ci: true, expected: 2},
		{name: "explicit overrides CI", retries: 1, ci: true, expected: 1},
		{name: "explicit zero", retries: 0, ci: true, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := RunnerConfig{Retries: tt.retries}
			if got := cfg.EffectiveRetries(tt.ci); got != tt.expected {
				t.Errorf("EffectiveRetries() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestConfig_GetLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		debug    bool
		logLevel string
		expected string
	}{
		{
			name:     "debug mode overrides",
			debug:    true,
			logLevel: "info",
			expected: "debug",
		},
		{
			name:     "normal mode uses log level",
			debug:    false,
			logLevel: "warn",
			expected: "warn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Debug: tt.debug, LogLevel: tt.logLevel}
			if got := cfg.GetLogLevel(); got != tt.expected {
				t.Errorf("GetLogLevel() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestConfig_IsCI(t *testing.T) {
	if (&Config{Env: EnvLocal}).IsCI() {
		t.Error("local config should not report CI")
	}
	if !(&Config{Env: EnvCI}).IsCI() {
		t.Error("ENV=ci should report CI")
	}
	if !(&Config{Env: EnvLocal, CI: true}).IsCI() {
		t.Error("CI=true should report CI")
	}
}

func TestConfig_URL(t *testing.T) {
	cfg := &Config{BaseURL: "https://shop.example.com/"}

	tests := []struct {
		path     string
		expected string
	}{
		{path: "", expected: "https://shop.example.com/"},
		{path: "/login", expected: "https://shop.example.com/login"},
		{path: "products", expected: "https://shop.example.com/products"},
		{path: "https://other.example.com/x", expected: "https://other.example.com/x"},
	}

	for _, tt := range tests {
		if got := cfg.URL(tt.path); got != tt.expected {
			t.Errorf("URL(%q) = %v, want %v", tt.path, got, tt.expected)
		}
	}
}
