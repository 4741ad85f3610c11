// Package config provides configuration management for the kernel with
// layered precedence.
//
// Configuration sources are loaded in the following order (highest
// precedence first):
//  1. CLI flags (passed via LoadWithOverrides)
//  2. Environment variables (KERNEL_* prefix)
//  3. Project config (.packetgov.yaml)
//  4. Global config (~/.packetgov/config.yaml)
//  5. Built-in defaults
//
// Each higher level completely overrides the lower level for the same key.
//
// IMPORTANT: This package may import internal/constants and internal/errors,
// but MUST NOT import internal/domain or other internal packages.
package config

import "time"

// Config is the root configuration structure for the kernel.
type Config struct {
	// DCL carries the deterministic commit ledger's configuration-lock
	// fields, pinning the canonicalization/hash/schema contract a given
	// installation was created under.
	DCL DCLConfig `yaml:"dcl" mapstructure:"dcl"`

	// Lock contains timeouts for the cross-process advisory file lock.
	Lock LockConfig `yaml:"lock" mapstructure:"lock"`

	// Integrity contains the default verification mode and strictness.
	Integrity IntegrityConfig `yaml:"integrity" mapstructure:"integrity"`

	// AgentRegistry points at the capability/enforcement policy document.
	AgentRegistry AgentRegistryConfig `yaml:"agent_registry" mapstructure:"agent_registry"`

	// AuditMirror contains settings for the optional git audit-mirror observer.
	AuditMirror AuditMirrorConfig `yaml:"audit_mirror" mapstructure:"audit_mirror"`

	// ReadCache contains settings for the optional Redis-backed read cache.
	ReadCache ReadCacheConfig `yaml:"read_cache" mapstructure:"read_cache"`

	// HTTP contains settings for the HTTP adapter.
	HTTP HTTPConfig `yaml:"http" mapstructure:"http"`
}

// DCLConfig mirrors the on-disk configuration lock's fields so the
// kernel's own expectations can be compared against what is persisted.
type DCLConfig struct {
	// Mode is the DCL operating mode, always "dcl" for this kernel.
	Mode string `yaml:"mode" mapstructure:"mode"`

	// HashAlgorithm names the hash function used for commit chaining.
	HashAlgorithm string `yaml:"hash_algorithm" mapstructure:"hash_algorithm"`

	// CanonicalizationVersion pins the canonical-JSON byte-exactness rules.
	CanonicalizationVersion string `yaml:"canonicalization_version" mapstructure:"canonicalization_version"`

	// DCLVersion is the ledger's own schema/protocol version.
	DCLVersion string `yaml:"dcl_version" mapstructure:"dcl_version"`

	// StateSchemaVersion is the runtime state schema version this
	// installation expects.
	StateSchemaVersion string `yaml:"state_schema_version" mapstructure:"state_schema_version"`
}

// LockConfig contains timeouts for the cross-process advisory file lock.
type LockConfig struct {
	// Timeout bounds how long a caller waits to acquire a lock.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// StaleAfter is the age after which a lockfile is considered
	// abandoned by a crashed holder and may be reclaimed.
	StaleAfter time.Duration `yaml:"stale_after" mapstructure:"stale_after"`

	// PollInterval is the interval between lock acquisition retries.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
}

// IntegrityConfig controls the default verification behavior.
type IntegrityConfig struct {
	// Mode is the default verification depth, "fast" or "full".
	Mode string `yaml:"mode" mapstructure:"mode"`

	// StrictOnStartup, when true, refuses to serve the HTTP adapter if
	// a startup integrity check fails.
	StrictOnStartup bool `yaml:"strict_on_startup" mapstructure:"strict_on_startup"`
}

// AgentRegistryConfig points at the capability/enforcement policy document.
type AgentRegistryConfig struct {
	// Path is the location of the agent registry file, relative to the
	// kernel's project root unless absolute.
	Path string `yaml:"path" mapstructure:"path"`

	// EnforcementMode is validated on load ("disabled", "advisory", or
	// "strict") but does not select the supervisor's enforcement: the CLI
	// bootstrap uses the enforcement_mode of the registry file at Path.
	EnforcementMode string `yaml:"enforcement_mode" mapstructure:"enforcement_mode"`
}

// AuditMirrorConfig contains settings for the optional git audit-mirror observer.
type AuditMirrorConfig struct {
	// Enabled turns the audit mirror on. When false, commits are never
	// mirrored to a git repository.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// WorkDir is the git repository the mirror commits into.
	WorkDir string `yaml:"work_dir" mapstructure:"work_dir"`

	// Timeout bounds each git invocation the mirror makes.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ReadCacheConfig contains settings for the optional Redis-backed read cache.
type ReadCacheConfig struct {
	// Enabled turns the read cache on. When false, reads always go
	// directly to the state store.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Addr is the Redis address (host:port) the cache dials.
	Addr string `yaml:"addr" mapstructure:"addr"`

	// TTL bounds how long a cached read stays fresh before a direct
	// read is required again.
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// HTTPConfig contains settings for the HTTP adapter.
type HTTPConfig struct {
	// BindAddr is the address the HTTP server listens on.
	BindAddr string `yaml:"bind_addr" mapstructure:"bind_addr"`

	// ReadTimeout bounds how long the server waits to read a request.
	ReadTimeout time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`

	// WriteTimeout bounds how long the server takes to write a response.
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}
