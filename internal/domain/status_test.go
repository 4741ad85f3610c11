package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePacketStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want PacketStatus
	}{
		{"already canonical", "pending", StatusPending},
		{"pascal case", "InProgress", StatusInProgress},
		{"legacy completed", "Completed", StatusDone},
		{"legacy completed lowercase", "completed", StatusDone},
		{"legacy not_started", "not_started", StatusPending},
		{"unknown passes through", "weird_status", PacketStatus("weird_status")},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizePacketStatus(tt.raw))
		})
	}
}

func TestPacketStatusIsValid(t *testing.T) {
	t.Parallel()

	assert.True(t, StatusPending.IsValid())
	assert.True(t, StatusBlocked.IsValid())
	assert.False(t, PacketStatus("InProgress").IsValid())
}

func TestPacketStatusIsTerminal(t *testing.T) {
	t.Parallel()

	assert.True(t, StatusDone.IsTerminal())
	assert.False(t, StatusFailed.IsTerminal())
	assert.False(t, StatusBlocked.IsTerminal())
}

func TestNormalizeLogIntegrityMode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, LogModeHashChain, NormalizeLogIntegrityMode("hash_chain"))
	assert.Equal(t, LogModeHashChain, NormalizeLogIntegrityMode("chained"))
	assert.Equal(t, LogModePlain, NormalizeLogIntegrityMode(""))
}

func TestPacketRuntimeActiveHandover(t *testing.T) {
	t.Parallel()

	p := &PacketRuntime{
		Handovers: []Handover{
			{HandoverID: "h1", Active: false},
			{HandoverID: "h2", Active: true},
		},
	}
	active := p.ActiveHandover()
	assert.NotNil(t, active)
	assert.Equal(t, "h2", active.HandoverID)

	p2 := &PacketRuntime{Handovers: []Handover{{HandoverID: "h1", Active: false}}}
	assert.Nil(t, p2.ActiveHandover())
}

func TestPacketRuntimeCloneIsIndependent(t *testing.T) {
	t.Parallel()

	p := &PacketRuntime{Status: StatusInProgress, Handovers: []Handover{{HandoverID: "h1"}}}
	clone := p.Clone()
	clone.Handovers[0].HandoverID = "mutated"

	assert.Equal(t, "h1", p.Handovers[0].HandoverID)
	assert.Equal(t, "mutated", clone.Handovers[0].HandoverID)
}

func TestActivityEventPartialChainFields(t *testing.T) {
	t.Parallel()

	full := ActivityEvent{EventID: "evt-00000001", Hash: "abc", PrevHash: "GENESIS"}
	assert.False(t, full.HasPartialChainFields())
	assert.True(t, full.IsHashed())

	partial := ActivityEvent{EventID: "evt-00000001"}
	assert.True(t, partial.HasPartialChainFields())

	none := ActivityEvent{}
	assert.False(t, none.HasPartialChainFields())
	assert.False(t, none.IsHashed())
}
