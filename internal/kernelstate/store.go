// Package kernelstate implements the kernel's version-aware runtime state
// store: load-with-migration, save, and the normalization passes (packet
// status, log integrity mode) that every load applies before the state is
// handed to the engine.
package kernelstate

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/packetgov/kernel/internal/clock"
	"github.com/packetgov/kernel/internal/constants"
	"github.com/packetgov/kernel/internal/domain"
	"github.com/packetgov/kernel/internal/lock"
)

// CurrentSchemaVersion is the schema_version a freshly loaded or migrated
// state document always carries.
const CurrentSchemaVersion = constants.StateSchemaVersion

// Store loads and persists the kernel's runtime state file.
type Store struct {
	path string
	opts lock.Options
	clk  clock.Clock
}

// New returns a Store rooted at path, using opts for lock timing and clk for
// timestamping. Pass clock.RealClock{} in production.
func New(path string, opts lock.Options, clk clock.Clock) *Store {
	return &Store{path: path, opts: opts, clk: clk}
}

// Default returns the kernel's freshly initialized runtime state for a
// project that has never been instantiated.
func Default(clk clock.Clock) *domain.State {
	return domain.NewState(CurrentSchemaVersion, clock.NowUTC(clk))
}

// Load reads the state file, migrates it to CurrentSchemaVersion if needed,
// normalizes its status map and log integrity mode, and returns it. If a
// migration ran, the migrated document is persisted before being returned,
// so the migration is observed atomically by every subsequent reader.
//
// Load does not itself take the state lock: callers that intend to mutate
// must wrap Load+mutate+Save in lock.WithLock over the same path.
func (s *Store) Load() (*domain.State, error) {
	raw, err := os.ReadFile(s.path) //nolint:gosec // path is kernel-configured, not user input
	if os.IsNotExist(err) {
		return Default(s.clk), nil
	}
	if err != nil {
		return nil, fmt.Errorf("kernelstate: read %s: %w", s.path, err)
	}

	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("kernelstate: parse %s: %w", s.path, err)
	}

	now := clock.NowUTC(s.clk)
	events, err := migrate(generic, now)
	if err != nil {
		return nil, err
	}

	reencoded, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("kernelstate: re-encode migrated state: %w", err)
	}
	var state domain.State
	if err := json.Unmarshal(reencoded, &state); err != nil {
		return nil, fmt.Errorf("kernelstate: decode migrated state: %w", err)
	}

	normalize(&state)

	if len(events) > 0 {
		state.SchemaVersion = CurrentSchemaVersion
		state.Log = append(state.Log, events...)
		state.UpdatedAt = now
		if err := lock.WriteJSONFileUnlocked(s.path, &state); err != nil {
			return nil, fmt.Errorf("kernelstate: persist migration: %w", err)
		}
	}

	return &state, nil
}

// normalize rewrites every packet's status and the log integrity mode to
// their canonical forms, so downstream comparisons never have to consider
// legacy spellings.
func normalize(state *domain.State) {
	for id, p := range state.Packets {
		if p == nil {
			continue
		}
		p.Status = domain.NormalizePacketStatus(string(p.Status))
		state.Packets[id] = p
	}
	state.LogIntegrityMode = domain.NormalizeLogIntegrityMode(string(state.LogIntegrityMode))
	if state.Packets == nil {
		state.Packets = make(map[string]*domain.PacketRuntime)
	}
	if state.AreaCloseouts == nil {
		state.AreaCloseouts = make(map[string]*domain.AreaCloseout)
	}
	if state.ExpandedDependencies == nil {
		state.ExpandedDependencies = make(map[string][]string)
	}
}

// Save persists state atomically, acquiring the state file's lock itself.
// state.Version/UpdatedAt are stamped before writing.
func (s *Store) Save(state *domain.State) error {
	state.Version = CurrentSchemaVersion
	state.SchemaVersion = CurrentSchemaVersion
	state.UpdatedAt = clock.NowUTC(s.clk)
	return lock.WriteJSONAtomic(s.path, state, s.opts)
}

// SaveWithoutLock persists state via tmp-write-then-rename without
// acquiring the lock, for callers (the lifecycle engine) that already hold
// it for the duration of their read-modify-write cycle.
func (s *Store) SaveWithoutLock(state *domain.State) error {
	state.Version = CurrentSchemaVersion
	state.SchemaVersion = CurrentSchemaVersion
	state.UpdatedAt = clock.NowUTC(s.clk)
	return lock.WriteJSONFileUnlocked(s.path, state)
}

// Path returns the state file's path, used by callers that need to acquire
// its lock directly (e.g. the lifecycle engine's transition envelope).
func (s *Store) Path() string {
	return s.path
}

// LockOptions returns the lock timing this store was configured with.
func (s *Store) LockOptions() lock.Options {
	return s.opts
}
