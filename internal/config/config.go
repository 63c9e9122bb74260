package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Environment represents where the suite is running
type Environment string

const (
	EnvLocal Environment = "local"
	EnvCI    Environment = "ci"
)

// Config holds all suite configuration. It is built once at process start and
// passed by value to the components that need it.
type Config struct {
	// Environment
	Env      Environment `envconfig:"ENV" default:"local"`
	LogLevel string      `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool        `envconfig:"DEBUG" default:"false"`
	CI       bool        `envconfig:"CI" default:"false"`

	// Site under test
	BaseURL string `envconfig:"BASE_URL" default:"https://www.automationexercise.com"`

	Timeouts  Timeouts
	Browser   BrowserConfig
	Policies  PolicyConfig
	Overlay   OverlayConfig
	Runner    RunnerConfig
	Artifacts ArtifactsConfig
	Metrics   MetricsConfig
	User      TestUserConfig
}

// Timeouts parameterizes default waits across the wait and action layers
type Timeouts struct {
	Global     time.Duration `envconfig:"GLOBAL_TIMEOUT" default:"60s"`
	Action     time.Duration `envconfig:"ACTION_TIMEOUT" default:"15s"`
	Navigation time.Duration `envconfig:"NAVIGATION_TIMEOUT" default:"30s"`
	Element    time.Duration `envconfig:"ELEMENT_TIMEOUT" default:"10s"`
	Assertion  time.Duration `envconfig:"ASSERTION_TIMEOUT" default:"30s"`
}

// DefaultTimeouts returns the timeouts used when nothing is configured
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Global:     60 * time.Second,
		Action:     15 * time.Second,
		Navigation: 30 * time.Second,
		Element:    10 * time.Second,
		Assertion:  30 * time.Second,
	}
}

// BrowserConfig holds browser launch settings
type BrowserConfig struct {
	Engine        string        `envconfig:"BROWSER" default:"chromium"`
	Headless      bool          `envconfig:"HEADLESS" default:"true"`
	SlowMo        time.Duration `envconfig:"SLOW_MO" default:"0s"`
	Install       bool          `envconfig:"PLAYWRIGHT_INSTALL" default:"false"`
	BlockPatterns []string      `envconfig:"BLOCK_PATTERNS" default:"**/*googlesyndication.com/**,**/*doubleclick.net/**"`
	AcceptDialogs bool          `envconfig:"ACCEPT_DIALOGS" default:"true"`
}

// PolicyConfig selects the error policy of the forgiving actions.
// Accepted values: "swallow", "propagate".
type PolicyConfig struct {
	Fill    string `envconfig:"POLICY_FILL" default:"swallow"`
	Check   string `envconfig:"POLICY_CHECK" default:"swallow"`
	Overlay string `envconfig:"POLICY_OVERLAY" default:"swallow"`
}

// OverlayConfig holds the ad overlay heuristic bounds
type OverlayConfig struct {
	Enabled        bool          `envconfig:"OVERLAY_ENABLED" default:"true"`
	Grace          time.Duration `envconfig:"OVERLAY_GRACE" default:"800ms"`
	Timeout        time.Duration `envconfig:"OVERLAY_TIMEOUT" default:"6s"`
	ConfirmTimeout time.Duration `envconfig:"OVERLAY_CONFIRM_TIMEOUT" default:"2s"`
}

// RunnerConfig holds scenario scheduling settings
type RunnerConfig struct {
	Workers          int           `envconfig:"RUNNER_WORKERS" default:"1"`
	Retries          int           `envconfig:"RUNNER_RETRIES" default:"-1"`
	StartsPerSecond  float64       `envconfig:"RUNNER_STARTS_PER_SECOND" default:"1"`
	ScenarioTimeout  time.Duration `envconfig:"RUNNER_SCENARIO_TIMEOUT" default:"5m"`
	BreakerThreshold int           `envconfig:"RUNNER_BREAKER_THRESHOLD" default:"3"`
	BreakerCooldown  time.Duration `envconfig:"RUNNER_BREAKER_COOLDOWN" default:"30s"`
}

// EffectiveRetries resolves the retry count; -1 means 2 on CI and 0 locally
func (c RunnerConfig) EffectiveRetries(ci bool) int {
	if c.Retries >= 0 {
		return c.Retries
	}
	if ci {
		return 2
	}
	return 0
}

// ArtifactsConfig controls failure screenshots and their upload. LinkExpiry
// bounds presigned links to uploaded artifacts; zero disables them.
type ArtifactsConfig struct {
	Dir            string        `envconfig:"ARTIFACTS_DIR" default:"artifacts"`
	Screenshots    bool          `envconfig:"ARTIFACTS_SCREENSHOTS" default:"true"`
	Upload         bool          `envconfig:"ARTIFACTS_UPLOAD" default:"false"`
	S3Endpoint     string        `envconfig:"S3_ENDPOINT" default:"localhost:9000"`
	S3AccessKeyID  string        `envconfig:"S3_ACCESS_KEY_ID" default:"minioadmin"`
	S3SecretKey    string        `envconfig:"S3_SECRET_ACCESS_KEY" default:"minioadmin"`
	S3Bucket       string        `envconfig:"S3_BUCKET" default:"shopsuite"`
	S3UseSSL       bool          `envconfig:"S3_USE_SSL" default:"false"`
	S3Region       string        `envconfig:"S3_REGION" default:"us-east-1"`
	ScreenshotPath string        `envconfig:"ARTIFACTS_SCREENSHOT_PATH" default:"screenshots"`
	LinkExpiry     time.Duration `envconfig:"ARTIFACTS_LINK_EXPIRY" default:"168h"`
}

// MetricsConfig controls where run metrics are exported
type MetricsConfig struct {
	Namespace      string `envconfig:"METRICS_NAMESPACE" default:"shopsuite"`
	TextfilePath   string `envconfig:"METRICS_TEXTFILE" default:""`
	PushgatewayURL string `envconfig:"METRICS_PUSHGATEWAY_URL" default:""`
	PushJob        string `envconfig:"METRICS_PUSH_JOB" default:"shopsuite"`
	ListenAddr     string `envconfig:"METRICS_ADDR" default:""`
}

// TestUserConfig is the pre-provisioned account of the login journeys
type TestUserConfig struct {
	Name     string `envconfig:"TEST_NAME" default:"Test User"`
	Email    string `envconfig:"TEST_EMAIL" default:"test@example.com"`
	Password string `envconfig:"TEST_PASSWORD" default:"Test@12345"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("processing config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// LoadDotEnv loads the given .env files (default ".env") into the process
// environment and then loads the configuration. Missing files are ignored.
func LoadDotEnv(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return nil, fmt.Errorf("loading %s: %w", strings.Join(existing, ", "), err)
		}
	}
	return Load()
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errors []string

	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, fmt.Sprintf("BASE_URL must be an absolute URL, got %q", c.BaseURL))
	}

	for name, d := range map[string]time.Duration{
		"GLOBAL_TIMEOUT":     c.Timeouts.Global,
		"ACTION_TIMEOUT":     c.Timeouts.Action,
		"NAVIGATION_TIMEOUT": c.Timeouts.Navigation,
		"ELEMENT_TIMEOUT":    c.Timeouts.Element,
		"ASSERTION_TIMEOUT":  c.Timeouts.Assertion,
	} {
		if d <= 0 {
			errors = append(errors, name+" must be positive")
		}
	}

	switch c.Browser.Engine {
	case "chromium", "firefox", "webkit":
	default:
		errors = append(errors, fmt.Sprintf("BROWSER must be chromium, firefox or webkit, got %q", c.Browser.Engine))
	}

	for name, p := range map[string]string{
		"POLICY_FILL":    c.Policies.Fill,
		"POLICY_CHECK":   c.Policies.Check,
		"POLICY_OVERLAY": c.Policies.Overlay,
	} {
		if p != "swallow" && p != "propagate" {
			errors = append(errors, fmt.Sprintf("%s must be swallow or propagate, got %q", name, p))
		}
	}

	if c.Runner.Workers < 1 {
		errors = append(errors, "RUNNER_WORKERS must be at least 1")
	}

	if c.Artifacts.Upload && c.Artifacts.S3Bucket == "" {
		errors = append(errors, "S3_BUCKET is required when ARTIFACTS_UPLOAD is enabled")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// IsCI returns true when running on a CI system
func (c *Config) IsCI() bool {
	return c.CI || c.Env == EnvCI
}

// GetLogLevel returns the appropriate zap log level
func (c *Config) GetLogLevel() string {
	if c.Debug {
		return "debug"
	}
	return c.LogLevel
}

// URL resolves path against the base URL
func (c *Config) URL(path string) string {
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		if path == "" {
			return c.BaseURL
		}
		return path
	}
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}
