package config

import (
	"errors"
	"fmt"
)

// ErrConfigNil indicates a nil Config was passed to Validate.
var ErrConfigNil = errors.New("config: config is nil")

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first validation failure found.
func Validate(cfg *Config) error {
	if cfg == nil {
		return ErrConfigNil
	}

	if err := validateDCL(&cfg.DCL); err != nil {
		return fmt.Errorf("validate dcl config: %w", err)
	}
	if err := validateLock(&cfg.Lock); err != nil {
		return fmt.Errorf("validate lock config: %w", err)
	}
	if err := validateIntegrity(&cfg.Integrity); err != nil {
		return fmt.Errorf("validate integrity config: %w", err)
	}
	if err := validateAgentRegistry(&cfg.AgentRegistry); err != nil {
		return fmt.Errorf("validate agent_registry config: %w", err)
	}
	if err := validateHTTP(&cfg.HTTP); err != nil {
		return fmt.Errorf("validate http config: %w", err)
	}

	return nil
}

func validateDCL(cfg *DCLConfig) error {
	if cfg.HashAlgorithm == "" {
		return fmt.Errorf("dcl.hash_algorithm must not be empty")
	}
	if cfg.CanonicalizationVersion == "" {
		return fmt.Errorf("dcl.canonicalization_version must not be empty")
	}
	if cfg.StateSchemaVersion == "" {
		return fmt.Errorf("dcl.state_schema_version must not be empty")
	}
	return nil
}

func validateLock(cfg *LockConfig) error {
	if cfg.Timeout <= 0 {
		return fmt.Errorf("lock.timeout must be positive, got %s", cfg.Timeout)
	}
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("lock.poll_interval must be positive, got %s", cfg.PollInterval)
	}
	return nil
}

func validateIntegrity(cfg *IntegrityConfig) error {
	switch cfg.Mode {
	case "fast", "full":
	default:
		return fmt.Errorf("integrity.mode must be \"fast\" or \"full\", got %q", cfg.Mode)
	}
	return nil
}

func validateAgentRegistry(cfg *AgentRegistryConfig) error {
	if cfg.Path == "" {
		return fmt.Errorf("agent_registry.path must not be empty")
	}
	switch cfg.EnforcementMode {
	case "disabled", "advisory", "strict":
	default:
		return fmt.Errorf("agent_registry.enforcement_mode must be \"disabled\", \"advisory\", or \"strict\", got %q", cfg.EnforcementMode)
	}
	return nil
}

func validateHTTP(cfg *HTTPConfig) error {
	if cfg.BindAddr == "" {
		return fmt.Errorf("http.bind_addr must not be empty")
	}
	return nil
}
