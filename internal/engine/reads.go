package engine

import (
	"sort"
	"strings"

	"github.com/packetgov/kernel/internal/constants"
	"github.com/packetgov/kernel/internal/domain"
)

// Status returns the current normalized runtime state. Reads never
// require the write lock.
func (e *Engine) Status() (*domain.State, error) {
	return e.loadSynced()
}

// Ready returns the ids of every packet with status=pending whose
// dependencies are all done, sorted for deterministic output.
func (e *Engine) Ready() ([]string, error) {
	state, err := e.loadSynced()
	if err != nil {
		return nil, err
	}

	var ready []string
	for id, p := range state.Packets {
		if p == nil || p.Status != domain.StatusPending {
			continue
		}
		if e.allDepsDone(state, id) {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)
	return ready, nil
}

func (e *Engine) allDepsDone(state *domain.State, packetID string) bool {
	for _, dep := range state.ExpandedDependencies[packetID] {
		p, ok := state.Packets[dep]
		if !ok || p == nil || p.Status != domain.StatusDone {
			return false
		}
	}
	return true
}

// BundleLimits bounds how much history/handover/notes content
// ContextBundle includes.
type BundleLimits struct {
	MaxEvents     int
	MaxHandovers  int
	MaxNotesBytes int
}

// DefaultBundleLimits returns the kernel's standard context bundle limits.
func DefaultBundleLimits() BundleLimits {
	return BundleLimits{
		MaxEvents:     constants.DefaultMaxEvents,
		MaxHandovers:  constants.DefaultMaxHandovers,
		MaxNotesBytes: constants.DefaultMaxNotesBytes,
	}
}

// ContextBundle assembles a packet's definition, runtime state, upstream
// and downstream dependency ids, a truncated reversed activity history,
// truncated handovers, and a file manifest.
type ContextBundle struct {
	Definition domain.PacketDefinition
	Runtime    domain.PacketRuntime
	Upstream   []string
	Downstream []string
	History    []domain.ActivityEvent
	Handovers  []domain.Handover
	Manifest   FileManifest
	Truncated  bool
	Dropped    DroppedCounts
}

// DroppedCounts reports how many items were truncated from a context
// bundle's history/handovers/notes, so callers can surface that a fuller
// picture exists.
type DroppedCounts struct {
	Events       int
	Handovers    int
	NotesBytes   int
}

// ContextBundle builds a ContextBundle for packetID under limits.
func (e *Engine) ContextBundle(packetID string, limits BundleLimits) (*ContextBundle, error) {
	def, err := e.packetDef(packetID)
	if err != nil {
		return nil, notFound(err)
	}
	state, err := e.loadSynced()
	if err != nil {
		return nil, err
	}
	rt, err := packet(state, packetID)
	if err != nil {
		return nil, err
	}

	bundle := &ContextBundle{
		Definition: def,
		Runtime:    *rt,
		Upstream:   append([]string{}, state.ExpandedDependencies[packetID]...),
		Downstream: downstreamOf(state.ExpandedDependencies, packetID),
	}

	history := eventsFor(state.Log, packetID)
	reverse(history)
	if len(history) > limits.MaxEvents {
		bundle.Dropped.Events = len(history) - limits.MaxEvents
		history = history[:limits.MaxEvents]
		bundle.Truncated = true
	}
	bundle.History = history

	handovers := append([]domain.Handover{}, rt.Handovers...)
	if len(handovers) > limits.MaxHandovers {
		bundle.Dropped.Handovers = len(handovers) - limits.MaxHandovers
		handovers = handovers[len(handovers)-limits.MaxHandovers:]
		bundle.Truncated = true
	}
	bundle.Handovers = handovers

	notes, droppedBytes := truncateBytes(rt.Notes, limits.MaxNotesBytes)
	bundle.Runtime.Notes = notes
	if droppedBytes > 0 {
		bundle.Dropped.NotesBytes = droppedBytes
		bundle.Truncated = true
	}

	bundle.Manifest = extractFileManifest(rt, history)

	return bundle, nil
}

func downstreamOf(expanded map[string][]string, packetID string) []string {
	forward := reverseDeps(expanded)
	out := append([]string{}, forward[packetID]...)
	sort.Strings(out)
	return out
}

func eventsFor(log []domain.ActivityEvent, packetID string) []domain.ActivityEvent {
	var out []domain.ActivityEvent
	for _, e := range log {
		if e.PacketID == packetID {
			out = append(out, e)
		}
	}
	return out
}

func reverse(events []domain.ActivityEvent) {
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
}

func truncateBytes(s string, limit int) (string, int) {
	if limit <= 0 || len(s) <= limit {
		return s, 0
	}
	return s[:limit], len(s) - limit
}

// Briefing summarizes overall project status: counts per status, ready and
// blocked packet lists, active assignments, and the tail of the activity
// log. When compact is true, history is omitted from the result entirely.
type Briefing struct {
	CountsByStatus map[domain.PacketStatus]int
	Ready          []string
	Blocked        []string
	Assignments    map[string]string
	RecentEvents   []domain.ActivityEvent
}

// Briefing computes a project-wide summary, trimming the activity log
// tail to recentEvents entries (or omitting it if compact is true).
func (e *Engine) Briefing(recentEvents int, compact bool) (*Briefing, error) {
	state, err := e.loadSynced()
	if err != nil {
		return nil, err
	}

	b := &Briefing{
		CountsByStatus: make(map[domain.PacketStatus]int),
		Assignments:    make(map[string]string),
	}

	ids := make([]string, 0, len(state.Packets))
	for id := range state.Packets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		p := state.Packets[id]
		if p == nil {
			continue
		}
		b.CountsByStatus[p.Status]++
		switch p.Status {
		case domain.StatusPending:
			if e.allDepsDone(state, id) {
				b.Ready = append(b.Ready, id)
			}
		case domain.StatusBlocked:
			b.Blocked = append(b.Blocked, id)
		}
		if p.AssignedTo != "" {
			b.Assignments[id] = p.AssignedTo
		}
	}

	if !compact {
		if recentEvents <= 0 {
			recentEvents = constants.DefaultRecentEvents
		}
		log := state.Log
		if len(log) > recentEvents {
			log = log[len(log)-recentEvents:]
		}
		b.RecentEvents = log
	}

	return b, nil
}

// FileManifest reports which filesystem-looking tokens referenced in a
// packet's notes and handover text currently exist on disk.
type FileManifest struct {
	Referenced []string
	Existing   []string
}

// fileTokenPrefixes are path-like substrings worth checking; a crude but
// effective filter before touching the filesystem for every note word.
var fileTokenPrefixes = []string{"/", "./", "internal/", "cmd/", "pkg/"}

func extractFileManifest(rt *domain.PacketRuntime, history []domain.ActivityEvent) FileManifest {
	seen := make(map[string]struct{})
	var referenced []string
	collect := func(text string) {
		for _, field := range strings.Fields(text) {
			field = strings.Trim(field, ".,;:()[]\"'")
			if !looksLikeFilePath(field) {
				continue
			}
			if _, dup := seen[field]; dup {
				continue
			}
			seen[field] = struct{}{}
			referenced = append(referenced, field)
		}
	}

	collect(rt.Notes)
	for _, h := range rt.Handovers {
		collect(h.ProgressNotes)
		referenced = append(referenced, h.FilesModified...)
	}
	for _, e := range history {
		collect(e.Notes)
	}

	var existing []string
	for _, f := range referenced {
		if fileExists(f) {
			existing = append(existing, f)
		}
	}

	return FileManifest{Referenced: referenced, Existing: existing}
}

func looksLikeFilePath(s string) bool {
	if strings.Contains(s, "/") && strings.Contains(s, ".") {
		return true
	}
	for _, prefix := range fileTokenPrefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
