// Package supervisor implements the kernel's pluggable authorization
// filter: a pure function of a proposed transition and an agent registry
// snapshot, consulted by the lifecycle engine before every mutation.
package supervisor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/packetgov/kernel/internal/domain"
)

// Policy authorizes or denies a proposed transition. Implementations must
// be deterministic: the same (request, registry) pair always yields the
// same decision.
type Policy interface {
	Approve(req domain.TransitionRequest) (allowed bool, reason string)
}

// Noop approves every request unconditionally. Used in tests and in
// degraded/offline modes where capability enforcement is not desired.
type Noop struct{}

// Approve always allows, per Noop's contract.
func (Noop) Approve(domain.TransitionRequest) (bool, string) {
	return true, ""
}

// mutatingActions is the set of actions that require a non-empty agent
// identity. Read operations never reach the supervisor.
var mutatingActions = map[string]struct{}{
	"claim": {}, "done": {}, "note": {}, "fail": {}, "reset": {},
	"handover": {}, "resume": {}, "closeout_l2": {},
}

// Deterministic is the kernel's default policy: it enforces a non-empty
// agent on every mutating transition, non-empty notes on done, and
// capability satisfaction on claim per the registry's enforcement mode.
type Deterministic struct {
	Registry domain.AgentRegistry
}

// New constructs a Deterministic policy over the given registry snapshot.
func New(registry domain.AgentRegistry) *Deterministic {
	return &Deterministic{Registry: registry}
}

// Approve implements Policy.
func (d *Deterministic) Approve(req domain.TransitionRequest) (bool, string) {
	if _, mutating := mutatingActions[req.Action]; mutating && strings.TrimSpace(req.Agent) == "" {
		return false, "agent identity is required for this transition"
	}

	if req.Action == "done" && strings.TrimSpace(req.Notes) == "" {
		return false, "notes are required to mark a packet done"
	}

	if req.Action == "claim" {
		return d.checkCapabilities(req)
	}

	return true, ""
}

// checkCapabilities enforces the agent registry's capability taxonomy
// against a claim request, per the registry's enforcement mode:
// disabled skips the check entirely, advisory allows through with a
// warning reason, strict denies on any missing capability or unknown
// agent. The reason string distinguishes three distinct issues: an agent
// not registered at all, a registered agent missing specific capabilities,
// and a required capability absent from the taxonomy altogether.
func (d *Deterministic) checkCapabilities(req domain.TransitionRequest) (bool, string) {
	mode := d.Registry.EnforcementMode
	if !mode.IsValid() {
		mode = domain.EnforcementDisabled
	}
	if mode == domain.EnforcementDisabled || len(req.RequiredCapabilities) == 0 {
		return true, ""
	}

	var issues []string
	for _, cap := range req.RequiredCapabilities {
		if !d.inTaxonomy(cap) {
			issues = append(issues, fmt.Sprintf("capability %q is not in the taxonomy", cap))
		}
	}

	profile, found := d.findAgent(req.Agent)
	if !found {
		issues = append(issues, fmt.Sprintf("agent %q is not registered", req.Agent))
	} else {
		missing := missingCapabilities(profile.Capabilities, req.RequiredCapabilities)
		if len(missing) > 0 {
			sort.Strings(missing)
			issues = append(issues, fmt.Sprintf("agent %q is missing capabilities: %s", req.Agent, strings.Join(missing, ", ")))
		}
	}

	if len(issues) == 0 {
		return true, ""
	}

	reason := strings.Join(issues, "; ")
	if mode == domain.EnforcementStrict {
		return false, reason
	}
	// advisory: allow through, but surface the same reason as a warning.
	return true, reason
}

func (d *Deterministic) inTaxonomy(capability string) bool {
	for _, t := range d.Registry.CapabilityTaxonomy {
		if t == capability {
			return true
		}
	}
	return false
}

func (d *Deterministic) findAgent(id string) (domain.AgentProfile, bool) {
	for _, a := range d.Registry.Agents {
		if a.ID == id {
			return a, true
		}
	}
	return domain.AgentProfile{}, false
}

func missingCapabilities(has, required []string) []string {
	haveSet := make(map[string]struct{}, len(has))
	for _, c := range has {
		haveSet[c] = struct{}{}
	}
	var missing []string
	for _, c := range required {
		if _, ok := haveSet[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}
