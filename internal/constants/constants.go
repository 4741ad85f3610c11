// Package constants provides centralized constant values used throughout the
// kernel. This package is the single source of truth for shared constants and
// MUST NOT import any other internal packages.
package constants

import "time"

// File and directory names used for kernel persistence.
const (
	// KernelHome is the hidden directory name where the kernel stores its
	// operational data (logs, caches) in the user's home directory.
	KernelHome = ".packetgov"

	// WBSFileName is the declarative work-breakdown-structure definition file.
	WBSFileName = "wbs.json"

	// StateFileName is the mutable runtime state file.
	StateFileName = "wbs-state.json"

	// DCLDirName is the root directory for the deterministic commit ledger.
	DCLDirName = "dcl"

	// PacketsDirName holds one subdirectory per packet under the DCL root.
	PacketsDirName = "packets"

	// CommitsDirName holds sequential immutable commit files for a packet.
	CommitsDirName = "commits"

	// HeadFileName is the latest committed {seq, commit_hash} marker for a packet.
	HeadFileName = "HEAD"

	// JournalFileName is the transient two-phase commit marker.
	JournalFileName = "journal.json"

	// CheckpointsDirName holds project-wide checkpoints.
	CheckpointsDirName = "project-checkpoints"

	// ConstitutionFileName is the externally-provided governing policy document.
	ConstitutionFileName = "constitution.md"

	// DCLConfigFileName pins the kernel's canonicalization/hash/schema lock.
	DCLConfigFileName = "dcl-config.json"

	// AgentRegistryFileName is the capability/enforcement policy document.
	AgentRegistryFileName = "agents.json"

	// LogsDirName is where rotating operational logs are written.
	LogsDirName = "logs"

	// CLILogFileName is the global CLI log file.
	CLILogFileName = "kernel.log"

	// GlobalConfigName is the global configuration file name.
	GlobalConfigName = "config.yaml"

	// ProjectConfigName is the project-local configuration file name.
	ProjectConfigName = ".packetgov.yaml"
)

// Log rotation settings for the CLI/HTTP adapters' file sink.
const (
	// LogMaxSizeMB is the maximum size in megabytes of the log file before rotation.
	LogMaxSizeMB = 10

	// LogMaxBackups is the maximum number of rotated log files to retain.
	LogMaxBackups = 5

	// LogMaxAgeDays is the maximum number of days to retain rotated log files.
	LogMaxAgeDays = 30

	// LogCompress indicates whether rotated log files are gzip-compressed.
	LogCompress = true
)

// Timeouts and durations.
const (
	// DefaultLockTimeout bounds how long a caller waits to acquire a file lock.
	DefaultLockTimeout = 5 * time.Second

	// DefaultStaleLockAfter is the age after which a lockfile is considered
	// abandoned by a crashed holder and may be reclaimed.
	DefaultStaleLockAfter = 5 * time.Minute

	// LockPollInterval is the interval between lock acquisition retries.
	LockPollInterval = 50 * time.Millisecond
)

// Schema and protocol versions.
const (
	// StateSchemaVersion is the current runtime state schema version.
	StateSchemaVersion = "1.1"

	// CanonicalizationVersion pins the canonical-JSON byte-exactness rules.
	CanonicalizationVersion = "1.0"

	// DCLSchemaVersion is the ledger's own schema/protocol version.
	DCLSchemaVersion = "1.0"

	// HashAlgorithm is the hash algorithm name recorded in the config lock.
	HashAlgorithm = "sha256"
)

// Default limits for read operations.
const (
	// DefaultMaxEvents bounds history entries returned by a context bundle.
	DefaultMaxEvents = 40

	// DefaultMaxHandovers bounds handover records returned by a context bundle.
	DefaultMaxHandovers = 40

	// DefaultMaxNotesBytes bounds the byte length of any single notes field.
	DefaultMaxNotesBytes = 4000

	// DefaultRecentEvents bounds the activity log tail returned by a briefing.
	DefaultRecentEvents = 10

	// MaxProofBundleHashBytes caps how many bytes of the constitution
	// document the proof-bundle exporter copies into the bundle; a larger
	// document is truncated to this size. The exporter hashes nothing.
	MaxProofBundleHashBytes = 10 * 1024 * 1024
)

// Directory and file permission modes.
const (
	DirPerm  = 0o750
	FilePerm = 0o600
)
