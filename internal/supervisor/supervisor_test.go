package supervisor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/packetgov/kernel/internal/domain"
	"github.com/packetgov/kernel/internal/supervisor"
)

func registry(mode domain.EnforcementMode) domain.AgentRegistry {
	return domain.AgentRegistry{
		EnforcementMode:    mode,
		CapabilityTaxonomy: []string{"go", "review"},
		Agents: []domain.AgentProfile{
			{ID: "alice", Capabilities: []string{"go", "review"}},
			{ID: "bob", Capabilities: []string{"go"}},
		},
	}
}

func TestApprove_RequiresAgentForMutatingAction(t *testing.T) {
	t.Parallel()
	p := supervisor.New(registry(domain.EnforcementDisabled))
	allowed, reason := p.Approve(domain.TransitionRequest{Action: "claim", PacketID: "A"})
	assert.False(t, allowed)
	assert.Contains(t, reason, "agent identity")
}

func TestApprove_DoneRequiresNotes(t *testing.T) {
	t.Parallel()
	p := supervisor.New(registry(domain.EnforcementDisabled))
	allowed, reason := p.Approve(domain.TransitionRequest{Action: "done", Agent: "alice"})
	assert.False(t, allowed)
	assert.Contains(t, reason, "notes")
}

func TestApprove_ClaimDisabledModeSkipsCapabilityCheck(t *testing.T) {
	t.Parallel()
	p := supervisor.New(registry(domain.EnforcementDisabled))
	allowed, reason := p.Approve(domain.TransitionRequest{
		Action: "claim", Agent: "bob", RequiredCapabilities: []string{"review"},
	})
	assert.True(t, allowed)
	assert.Empty(t, reason)
}

func TestApprove_ClaimAdvisoryAllowsWithWarning(t *testing.T) {
	t.Parallel()
	p := supervisor.New(registry(domain.EnforcementAdvisory))
	allowed, reason := p.Approve(domain.TransitionRequest{
		Action: "claim", Agent: "bob", RequiredCapabilities: []string{"review"},
	})
	assert.True(t, allowed)
	assert.Contains(t, reason, "missing capabilities")
}

func TestApprove_ClaimStrictDeniesMissingCapability(t *testing.T) {
	t.Parallel()
	p := supervisor.New(registry(domain.EnforcementStrict))
	allowed, reason := p.Approve(domain.TransitionRequest{
		Action: "claim", Agent: "bob", RequiredCapabilities: []string{"review"},
	})
	assert.False(t, allowed)
	assert.Contains(t, reason, "missing capabilities")
}

func TestApprove_ClaimStrictDeniesUnregisteredAgent(t *testing.T) {
	t.Parallel()
	p := supervisor.New(registry(domain.EnforcementStrict))
	allowed, reason := p.Approve(domain.TransitionRequest{
		Action: "claim", Agent: "carol", RequiredCapabilities: []string{"go"},
	})
	assert.False(t, allowed)
	assert.Contains(t, reason, "is not registered")
}

func TestApprove_ClaimStrictDeniesCapabilityOutsideTaxonomy(t *testing.T) {
	t.Parallel()
	p := supervisor.New(registry(domain.EnforcementStrict))
	allowed, reason := p.Approve(domain.TransitionRequest{
		Action: "claim", Agent: "alice", RequiredCapabilities: []string{"rust"},
	})
	assert.False(t, allowed)
	assert.Contains(t, reason, "not in the taxonomy")
}

func TestApprove_ClaimStrictAllowsSatisfiedCapabilities(t *testing.T) {
	t.Parallel()
	p := supervisor.New(registry(domain.EnforcementStrict))
	allowed, reason := p.Approve(domain.TransitionRequest{
		Action: "claim", Agent: "alice", RequiredCapabilities: []string{"go", "review"},
	})
	assert.True(t, allowed)
	assert.Empty(t, reason)
}

func TestNoop_AlwaysApproves(t *testing.T) {
	t.Parallel()
	allowed, reason := (supervisor.Noop{}).Approve(domain.TransitionRequest{})
	assert.True(t, allowed)
	assert.Empty(t, reason)
}
