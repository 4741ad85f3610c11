package domain

// PacketStatus is the canonical lowercase runtime status of a packet.
type PacketStatus string

// Canonical packet statuses. Historical variants (PascalCase schema form,
// legacy synonyms) are normalized to these via NormalizePacketStatus before
// any comparison or mutation.
const (
	StatusPending    PacketStatus = "pending"
	StatusInProgress PacketStatus = "in_progress"
	StatusDone       PacketStatus = "done"
	StatusFailed     PacketStatus = "failed"
	StatusBlocked    PacketStatus = "blocked"
)

// IsValid reports whether s is one of the canonical packet statuses.
func (s PacketStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDone, StatusFailed, StatusBlocked:
		return true
	}
	return false
}

// IsTerminal reports whether the status is done, the one status with no
// outgoing transitions.
func (s PacketStatus) IsTerminal() bool {
	return s == StatusDone
}

// legacyAliases maps historical/PascalCase status spellings onto the
// canonical lowercase set. Unknown spellings pass through unchanged so
// callers can surface them as a schema error rather than silently coercing.
var legacyAliases = map[string]PacketStatus{
	"Pending":     StatusPending,
	"InProgress":  StatusInProgress,
	"In_Progress": StatusInProgress,
	"Done":        StatusDone,
	"Completed":   StatusDone,
	"completed":   StatusDone,
	"Failed":      StatusFailed,
	"Blocked":     StatusBlocked,
	"not_started": StatusPending,
	"NotStarted":  StatusPending,
}

// NormalizePacketStatus maps any historical or canonical spelling of a
// packet status to the canonical lowercase form. If raw is already
// canonical, or unrecognized, it is returned unchanged.
func NormalizePacketStatus(raw string) PacketStatus {
	if PacketStatus(raw).IsValid() {
		return PacketStatus(raw)
	}
	if canon, ok := legacyAliases[raw]; ok {
		return canon
	}
	return PacketStatus(raw)
}

// LogIntegrityMode selects whether the activity log is hash-chained.
type LogIntegrityMode string

// Supported activity-log integrity modes.
const (
	LogModePlain     LogIntegrityMode = "plain"
	LogModeHashChain LogIntegrityMode = "hash_chain"
)

// modeAliases maps historical spellings of the log integrity mode onto the
// canonical set.
var modeAliases = map[string]LogIntegrityMode{
	"plain":          LogModePlain,
	"Plain":          LogModePlain,
	"off":            LogModePlain,
	"disabled":       LogModePlain,
	"none":           LogModePlain,
	"hash":           LogModeHashChain,
	"hash_chain":     LogModeHashChain,
	"HashChain":      LogModeHashChain,
	"hash-chain":     LogModeHashChain,
	"chained":        LogModeHashChain,
	"tamper_evident": LogModeHashChain,
	"tamper-evident": LogModeHashChain,
}

// NormalizeLogIntegrityMode maps any historical spelling of the log
// integrity mode to its canonical form, defaulting unknown or empty values
// to LogModePlain.
func NormalizeLogIntegrityMode(raw string) LogIntegrityMode {
	if canon, ok := modeAliases[raw]; ok {
		return canon
	}
	return LogModePlain
}
