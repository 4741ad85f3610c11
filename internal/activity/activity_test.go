package activity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetgov/kernel/internal/activity"
	"github.com/packetgov/kernel/internal/domain"
)

func TestAppend_PlainMode(t *testing.T) {
	t.Parallel()
	entry, err := activity.Append(nil, domain.LogModePlain, "P1", "claimed", "alice", "", "2026-01-01T00:00:00.000000Z")
	require.NoError(t, err)
	assert.Empty(t, entry.EventID)
	assert.Empty(t, entry.Hash)
}

func TestAppend_HashChainBuildsLinkedSequence(t *testing.T) {
	t.Parallel()
	var log []domain.ActivityEvent

	e1, err := activity.Append(log, domain.LogModeHashChain, "P1", "claimed", "alice", "", "2026-01-01T00:00:00.000000Z")
	require.NoError(t, err)
	assert.Equal(t, "evt-00000001", e1.EventID)
	assert.Empty(t, e1.PrevHash)
	log = append(log, e1)

	e2, err := activity.Append(log, domain.LogModeHashChain, "P1", "done", "alice", "finished", "2026-01-01T00:05:00.000000Z")
	require.NoError(t, err)
	assert.Equal(t, "evt-00000002", e2.EventID)
	assert.Equal(t, e1.Hash, e2.PrevHash)
	log = append(log, e2)

	assert.Empty(t, activity.Verify(log))
}

func TestVerify_DetectsTamperedHash(t *testing.T) {
	t.Parallel()
	var log []domain.ActivityEvent
	e1, err := activity.Append(log, domain.LogModeHashChain, "P1", "claimed", "alice", "", "2026-01-01T00:00:00.000000Z")
	require.NoError(t, err)
	e1.Notes = "tampered"
	log = append(log, e1)

	issues := activity.Verify(log)
	require.NotEmpty(t, issues)
}

func TestVerify_SkipsLeadingPlainEntries(t *testing.T) {
	t.Parallel()
	plain, err := activity.Append(nil, domain.LogModePlain, "P1", "note", "alice", "fyi", "2026-01-01T00:00:00.000000Z")
	require.NoError(t, err)
	log := []domain.ActivityEvent{plain}

	hashed, err := activity.Append(log, domain.LogModeHashChain, "P1", "claimed", "alice", "", "2026-01-01T00:01:00.000000Z")
	require.NoError(t, err)
	log = append(log, hashed)

	assert.Empty(t, activity.Verify(log))
}

func TestVerify_DetectsBrokenSequence(t *testing.T) {
	t.Parallel()
	entry := domain.ActivityEvent{PacketID: "P1", Event: "claimed", EventID: "evt-00000002", Hash: "deadbeef"}
	issues := activity.Verify([]domain.ActivityEvent{entry})
	require.NotEmpty(t, issues)
}

func TestVerify_DetectsPartialChainFields(t *testing.T) {
	t.Parallel()
	entry := domain.ActivityEvent{PacketID: "P1", Event: "claimed", EventID: "evt-00000001"}
	issues := activity.Verify([]domain.ActivityEvent{entry})
	require.NotEmpty(t, issues)
	assert.Contains(t, issues[0].Message, "partial")
}
