package config

import (
	"github.com/packetgov/kernel/internal/constants"
)

// DefaultConfig returns a new Config with sensible default values.
// These defaults are used as the base layer that can be overridden by
// config files, environment variables, and CLI flags.
func DefaultConfig() *Config {
	return &Config{
		DCL: DCLConfig{
			Mode:                    "dcl",
			HashAlgorithm:           constants.HashAlgorithm,
			CanonicalizationVersion: constants.CanonicalizationVersion,
			DCLVersion:              constants.DCLSchemaVersion,
			StateSchemaVersion:      constants.StateSchemaVersion,
		},
		Lock: LockConfig{
			Timeout:      constants.DefaultLockTimeout,
			StaleAfter:   constants.DefaultStaleLockAfter,
			PollInterval: constants.LockPollInterval,
		},
		Integrity: IntegrityConfig{
			// Mode: "fast" keeps startup checks cheap; operators opt into
			// "full" for release gates or scheduled audits.
			Mode:            "fast",
			StrictOnStartup: true,
		},
		AgentRegistry: AgentRegistryConfig{
			Path:            constants.AgentRegistryFileName,
			EnforcementMode: "advisory",
		},
		AuditMirror: AuditMirrorConfig{
			Enabled: false,
			WorkDir: ".",
			Timeout: constants.DefaultLockTimeout,
		},
		ReadCache: ReadCacheConfig{
			Enabled: false,
			Addr:    "127.0.0.1:6379",
			TTL:     0,
		},
		HTTP: HTTPConfig{
			BindAddr:     "127.0.0.1:8085",
			ReadTimeout:  constants.DefaultLockTimeout,
			WriteTimeout: constants.DefaultLockTimeout,
		},
	}
}
