package action

import (
	"fmt"

	"github.com/testforge/shopsuite/internal/config"
)

// ErrorPolicy decides what happens to the error of a forgiving operation
type ErrorPolicy int

const (
	// Propagate returns the error to the caller
	Propagate ErrorPolicy = iota
	// SwallowAndLog logs the error at warn level and reports success
	SwallowAndLog
)

// String returns the string representation of the policy
func (p ErrorPolicy) String() string {
	switch p {
	case Propagate:
		return "propagate"
	case SwallowAndLog:
		return "swallow"
	default:
		return "unknown"
	}
}

// ParsePolicy parses the configuration form of a policy
func ParsePolicy(s string) (ErrorPolicy, error) {
	switch s {
	case "propagate":
		return Propagate, nil
	case "swallow", "":
		return SwallowAndLog, nil
	default:
		return Propagate, fmt.Errorf("unknown error policy %q", s)
	}
}

// Policies holds the error policy of each forgiving operation
type Policies struct {
	Fill  ErrorPolicy
	Check ErrorPolicy
}

// DefaultPolicies keeps fill and check forgiving
func DefaultPolicies() Policies {
	return Policies{Fill: SwallowAndLog, Check: SwallowAndLog}
}

// Config parameterizes an Actions instance
type Config struct {
	Timeouts config.Timeouts
	Policies Policies
}

// DefaultConfig returns the default timeouts and policies
func DefaultConfig() Config {
	return Config{Timeouts: config.DefaultTimeouts(), Policies: DefaultPolicies()}
}

// ConfigFrom derives the action configuration from the suite configuration
func ConfigFrom(cfg *config.Config) (Config, error) {
	fill, err := ParsePolicy(cfg.Policies.Fill)
	if err != nil {
		return Config{}, fmt.Errorf("fill policy: %w", err)
	}
	check, err := ParsePolicy(cfg.Policies.Check)
	if err != nil {
		return Config{}, fmt.Errorf("check policy: %w", err)
	}
	return Config{
		Timeouts: cfg.Timeouts,
		Policies: Policies{Fill: fill, Check: check},
	}, nil
}
