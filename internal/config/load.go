package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Load reads configuration from all available sources with proper precedence.
// Configuration is loaded in the following order (highest precedence first):
//  1. Environment variables (KERNEL_* prefix)
//  2. Project config (.packetgov.yaml)
//  3. Global config (~/.packetgov/config.yaml)
//  4. Built-in defaults
//
// For CLI flag overrides, use LoadWithOverrides instead.
//
// The function returns an error only for actual configuration problems,
// not for missing config files, which are expected in many scenarios.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("KERNEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := loadGlobalConfig(v); err != nil {
		return nil, err
	}
	if err := loadProjectConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadGlobalConfig attempts to load the global config file
// (~/.packetgov/config.yaml). Returns nil if the file doesn't exist or the
// home directory cannot be determined.
func loadGlobalConfig(v *viper.Viper) error {
	globalConfigPath, ok := getGlobalConfigPathIfExists()
	if !ok {
		return nil
	}

	v.SetConfigFile(globalConfigPath)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) {
			return fmt.Errorf("config: read global config: %w", err)
		}
	}
	return nil
}

func getGlobalConfigPathIfExists() (string, bool) {
	globalConfigPath, err := GlobalConfigPath()
	if err != nil {
		return "", false
	}
	if _, err := os.Stat(globalConfigPath); err != nil {
		return "", false
	}
	return globalConfigPath, true
}

// loadProjectConfig attempts to load the project config file
// (.packetgov.yaml). Returns nil if the file doesn't exist.
func loadProjectConfig(v *viper.Viper) error {
	projectConfigPath := ProjectConfigPath()
	if !fileExists(projectConfigPath) {
		return nil
	}

	v.SetConfigFile(projectConfigPath)
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) {
			return fmt.Errorf("config: read project config: %w", err)
		}
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadWithOverrides loads configuration and applies CLI flag overrides.
// Only non-zero values in overrides are applied, so callers can supply a
// partially-populated Config built from cobra flags.
func LoadWithOverrides(overrides *Config) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if overrides != nil {
		applyOverrides(cfg, overrides)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: invalid configuration after overrides: %w", err)
	}

	return cfg, nil
}

// setDefaults configures all default values on the Viper instance. Keys
// must match the yaml tag names exactly for proper mapping.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("dcl.mode", d.DCL.Mode)
	v.SetDefault("dcl.hash_algorithm", d.DCL.HashAlgorithm)
	v.SetDefault("dcl.canonicalization_version", d.DCL.CanonicalizationVersion)
	v.SetDefault("dcl.dcl_version", d.DCL.DCLVersion)
	v.SetDefault("dcl.state_schema_version", d.DCL.StateSchemaVersion)

	v.SetDefault("lock.timeout", d.Lock.Timeout)
	v.SetDefault("lock.stale_after", d.Lock.StaleAfter)
	v.SetDefault("lock.poll_interval", d.Lock.PollInterval)

	v.SetDefault("integrity.mode", d.Integrity.Mode)
	v.SetDefault("integrity.strict_on_startup", d.Integrity.StrictOnStartup)

	v.SetDefault("agent_registry.path", d.AgentRegistry.Path)
	v.SetDefault("agent_registry.enforcement_mode", d.AgentRegistry.EnforcementMode)

	v.SetDefault("audit_mirror.enabled", d.AuditMirror.Enabled)
	v.SetDefault("audit_mirror.work_dir", d.AuditMirror.WorkDir)
	v.SetDefault("audit_mirror.timeout", d.AuditMirror.Timeout)

	v.SetDefault("read_cache.enabled", d.ReadCache.Enabled)
	v.SetDefault("read_cache.addr", d.ReadCache.Addr)
	v.SetDefault("read_cache.ttl", d.ReadCache.TTL)

	v.SetDefault("http.bind_addr", d.HTTP.BindAddr)
	v.SetDefault("http.read_timeout", d.HTTP.ReadTimeout)
	v.SetDefault("http.write_timeout", d.HTTP.WriteTimeout)
}

// applyOverrides merges non-zero override values into cfg.
//
// Boolean fields cannot be overridden to false through this path, since
// Go's zero value for bool is false: CLI code should set those fields
// directly on cfg when a flag is explicitly provided, via cmd.Flags().Changed.
func applyOverrides(cfg, overrides *Config) {
	if overrides.Integrity.Mode != "" {
		cfg.Integrity.Mode = overrides.Integrity.Mode
	}
	if overrides.AgentRegistry.Path != "" {
		cfg.AgentRegistry.Path = overrides.AgentRegistry.Path
	}
	if overrides.AgentRegistry.EnforcementMode != "" {
		cfg.AgentRegistry.EnforcementMode = overrides.AgentRegistry.EnforcementMode
	}
	if overrides.AuditMirror.WorkDir != "" {
		cfg.AuditMirror.WorkDir = overrides.AuditMirror.WorkDir
	}
	if overrides.ReadCache.Addr != "" {
		cfg.ReadCache.Addr = overrides.ReadCache.Addr
	}
	if overrides.ReadCache.TTL != 0 {
		cfg.ReadCache.TTL = overrides.ReadCache.TTL
	}
	if overrides.HTTP.BindAddr != "" {
		cfg.HTTP.BindAddr = overrides.HTTP.BindAddr
	}
	if overrides.Lock.Timeout != 0 {
		cfg.Lock.Timeout = overrides.Lock.Timeout
	}
}

// viperDecoderOption configures mapstructure to decode time.Duration from
// strings such as "5s" in YAML.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	)
}
