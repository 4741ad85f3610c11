package kernelstate

import (
	"fmt"

	"github.com/packetgov/kernel/internal/domain"
)

// migrationFunc mutates a raw, partially-decoded state document in place to
// bring it from one schema_version to the next, returning any activity
// events the migration must append (per the state_migrated event contract).
type migrationFunc func(raw map[string]any, nowUTC string) []domain.ActivityEvent

// migration is one registered step in the migration chain.
type migration struct {
	from string
	to   string
	name string
	fn   migrationFunc
}

// chain lists every registered migration, applied in order starting from
// whichever version a loaded document declares (or "" for unversioned
// legacy documents). Each step must land on the next step's "from".
var chain = []migration{
	{
		from: "",
		to:   "1.0",
		name: "v0_to_v1",
		fn: func(raw map[string]any, now string) []domain.ActivityEvent {
			setDefault(raw, "version", "1.0")
			setDefault(raw, "created_at", now)
			setDefault(raw, "updated_at", now)
			setDefault(raw, "packets", map[string]any{})
			setDefault(raw, "log", []any{})
			setDefault(raw, "area_closeouts", map[string]any{})
			raw["version"] = "1.0"
			return []domain.ActivityEvent{
				migratedEvent("", "1.0", "v0_to_v1", now),
			}
		},
	},
	{
		from: "1.0",
		to:   "1.1",
		name: "v1_to_v1_1_expanded_dependencies",
		fn: func(raw map[string]any, now string) []domain.ActivityEvent {
			setDefault(raw, "expanded_dependencies", map[string]any{})
			setDefault(raw, "log_integrity_mode", "plain")
			raw["version"] = "1.1"
			return []domain.ActivityEvent{
				migratedEvent("1.0", "1.1", "v1_to_v1_1_expanded_dependencies", now),
			}
		},
	},
}

func setDefault(raw map[string]any, key string, value any) {
	if _, ok := raw[key]; !ok {
		raw[key] = value
	}
}

func migratedEvent(from, to, name, now string) domain.ActivityEvent {
	return domain.ActivityEvent{
		PacketID:  "SYSTEM",
		Event:     "state_migrated",
		Agent:     "system",
		Timestamp: now,
		Notes:     fmt.Sprintf("automatic migration %s: %s -> %s", name, displayVersion(from), to),
	}
}

func displayVersion(v string) string {
	if v == "" {
		return "unversioned"
	}
	return v
}

// migrate walks raw through the registered chain until it reaches
// CurrentSchemaVersion, returning the accumulated state_migrated events. An
// unknown version with no matching chain step fails fast rather than
// guessing at a compatible shape.
func migrate(raw map[string]any, nowUTC string) ([]domain.ActivityEvent, error) {
	var events []domain.ActivityEvent
	version, _ := raw["version"].(string)

	for version != CurrentSchemaVersion {
		step, ok := findStep(version)
		if !ok {
			return nil, fmt.Errorf("kernelstate: unsupported state version %q", displayVersion(version))
		}
		events = append(events, step.fn(raw, nowUTC)...)
		version, _ = raw["version"].(string)
	}
	return events, nil
}

func findStep(from string) (migration, bool) {
	for _, m := range chain {
		if m.from == from {
			return m, true
		}
	}
	return migration{}, false
}
