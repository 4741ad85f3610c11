// Package depgraph implements the kernel's dependency resolver: tag-to-packet
// expansion over the declarative WBS and cycle detection over the resulting
// packet DAG. Expansion is a load-time operation; the expanded graph is
// cached on domain.State.ExpandedDependencies by the caller.
package depgraph

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/packetgov/kernel/internal/domain"
	kernelerrors "github.com/packetgov/kernel/internal/errors"
)

// tagReferencePattern matches the required "tag:<name>" syntax, where name
// is lowercase alphanumeric segments joined by single hyphens.
var tagReferencePattern = regexp.MustCompile(`^tag:[a-z0-9]+(-[a-z0-9]+)*$`)

const tagPrefix = "tag:"

// Index maps each tag to the packet ids that carry it, built once from a
// WBS definition and reused across every dependency expansion.
type Index struct {
	tagToPackets map[string][]string
	packetIDs    map[string]struct{}
}

// BuildIndex scans wbs's packets and returns a tag index plus the set of
// declared packet ids, used to validate that dependency edges reference
// known packets.
func BuildIndex(wbs *domain.WBSDefinition) *Index {
	idx := &Index{
		tagToPackets: make(map[string][]string),
		packetIDs:    make(map[string]struct{}, len(wbs.Packets)),
	}
	for _, p := range wbs.Packets {
		idx.packetIDs[p.ID] = struct{}{}
		for _, tag := range p.Tags {
			idx.tagToPackets[tag] = append(idx.tagToPackets[tag], p.ID)
		}
	}
	return idx
}

// HasPacket reports whether id is a declared packet.
func (idx *Index) HasPacket(id string) bool {
	_, ok := idx.packetIDs[id]
	return ok
}

// IsTagReference reports whether ref has the "tag:<name>" syntax.
func IsTagReference(ref string) bool {
	return strings.HasPrefix(ref, tagPrefix)
}

// expandOne resolves a single dependency reference (a packet id or a
// "tag:<name>" reference) into the packet ids it denotes.
func (idx *Index) expandOne(ref string) ([]string, error) {
	if !IsTagReference(ref) {
		if !idx.HasPacket(ref) {
			return nil, fmt.Errorf("depgraph: dependency %q: %w", ref, kernelerrors.ErrUnknownDependency)
		}
		return []string{ref}, nil
	}

	if !tagReferencePattern.MatchString(ref) {
		return nil, fmt.Errorf("depgraph: %q: %w", ref, kernelerrors.ErrInvalidTagReference)
	}
	name := strings.TrimPrefix(ref, tagPrefix)
	members, ok := idx.tagToPackets[name]
	if !ok || len(members) == 0 {
		return nil, fmt.Errorf("depgraph: tag %q: %w", name, kernelerrors.ErrTagNotFound)
	}
	// Return a copy: callers may mutate/sort slices obtained from Expand.
	out := make([]string, len(members))
	copy(out, members)
	return out, nil
}

// Expand resolves every reference in wbs.Dependencies to a set of concrete
// packet ids, deduplicating while preserving first-seen order across the
// whole reference list for a given packet (idempotent, order-preserving).
func (idx *Index) Expand(wbs *domain.WBSDefinition) (map[string][]string, error) {
	expanded := make(map[string][]string, len(wbs.Dependencies))
	for packetID, refs := range wbs.Dependencies {
		if !idx.HasPacket(packetID) {
			return nil, fmt.Errorf("depgraph: dependency source %q: %w", packetID, kernelerrors.ErrUnknownDependency)
		}
		seen := make(map[string]struct{})
		var ordered []string
		for _, ref := range refs {
			ids, err := idx.expandOne(ref)
			if err != nil {
				return nil, err
			}
			for _, id := range ids {
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				ordered = append(ordered, id)
			}
		}
		expanded[packetID] = ordered
	}
	return expanded, nil
}

// CycleError reports a dependency cycle as the path from the first
// revisited node back to itself.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("depgraph: dependency cycle: %s", strings.Join(e.Path, " -> "))
}

// Unwrap lets errors.Is(err, kernelerrors.ErrCycleDetected) match.
func (e *CycleError) Unwrap() error {
	return kernelerrors.ErrCycleDetected
}

// visitState tracks a node's position in the depth-first search: unvisited
// nodes are absent, onStack nodes are mid-traversal, done nodes are fully
// explored with no cycle beneath them.
type visitState int

const (
	visitOnStack visitState = iota
	visitDone
)

// DetectCycle runs depth-first search over expanded (a packet_id -> deps
// adjacency map) and returns a CycleError naming the offending path, or nil
// if the graph is acyclic. Node visitation order is sorted for determinism.
func DetectCycle(expanded map[string][]string) error {
	state := make(map[string]visitState, len(expanded))
	var stack []string

	var visit func(node string) error
	visit = func(node string) error {
		if st, ok := state[node]; ok {
			if st == visitOnStack {
				// Found the cycle: path from the first occurrence of node
				// on the stack back to itself.
				start := indexOf(stack, node)
				path := append(append([]string{}, stack[start:]...), node)
				return &CycleError{Path: path}
			}
			return nil
		}
		state[node] = visitOnStack
		stack = append(stack, node)

		deps := append([]string{}, expanded[node]...)
		sort.Strings(deps)
		for _, dep := range deps {
			if err := visit(dep); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		state[node] = visitDone
		return nil
	}

	nodes := make([]string, 0, len(expanded))
	for node := range expanded {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)

	for _, node := range nodes {
		if _, ok := state[node]; ok {
			continue
		}
		if err := visit(node); err != nil {
			return err
		}
	}
	return nil
}

func indexOf(haystack []string, needle string) int {
	for i, v := range haystack {
		if v == needle {
			return i
		}
	}
	return -1
}

// ValidateWBS checks that packet/area ids are unique and that every dependency
// edge references a declared packet; the graph is acyclic), returning the
// expanded dependency map on success.
func ValidateWBS(wbs *domain.WBSDefinition) (map[string][]string, error) {
	seenPackets := make(map[string]struct{}, len(wbs.Packets))
	for _, p := range wbs.Packets {
		if _, dup := seenPackets[p.ID]; dup {
			return nil, fmt.Errorf("depgraph: packet id %q: %w", p.ID, kernelerrors.ErrDuplicatePacketID)
		}
		seenPackets[p.ID] = struct{}{}
	}

	seenAreas := make(map[string]struct{}, len(wbs.WorkAreas))
	for _, a := range wbs.WorkAreas {
		if _, dup := seenAreas[a.ID]; dup {
			return nil, fmt.Errorf("depgraph: area id %q: %w", a.ID, kernelerrors.ErrDuplicateAreaID)
		}
		seenAreas[a.ID] = struct{}{}
	}

	idx := BuildIndex(wbs)

	// depends_on declared directly on a packet is merged with the
	// dependencies map before expansion, both being valid sources.
	merged := &domain.WBSDefinition{Dependencies: make(map[string][]string, len(wbs.Dependencies))}
	for k, v := range wbs.Dependencies {
		merged.Dependencies[k] = append(merged.Dependencies[k], v...)
	}
	for _, p := range wbs.Packets {
		if len(p.DependsOn) == 0 {
			continue
		}
		merged.Dependencies[p.ID] = append(merged.Dependencies[p.ID], p.DependsOn...)
	}

	expanded, err := idx.Expand(merged)
	if err != nil {
		return nil, err
	}
	if err := DetectCycle(expanded); err != nil {
		return nil, err
	}
	return expanded, nil
}
