package engine_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetgov/kernel/internal/clock"
	"github.com/packetgov/kernel/internal/dcl"
	"github.com/packetgov/kernel/internal/domain"
	"github.com/packetgov/kernel/internal/engine"
	"github.com/packetgov/kernel/internal/kernelstate"
	"github.com/packetgov/kernel/internal/lock"
)

func lockOpts() lock.Options {
	return lock.Options{Timeout: 2 * time.Second, PollInterval: time.Millisecond}
}

func newEngine(t *testing.T, wbs *domain.WBSDefinition) *engine.Engine {
	t.Helper()
	root := t.TempDir()
	store := kernelstate.New(filepath.Join(root, "wbs-state.json"), lockOpts(), clock.RealClock{})
	ledger := dcl.New(filepath.Join(root, "dcl"), lockOpts(), clock.RealClock{}, "")
	e, err := engine.New(engine.Options{WBS: wbs, Store: store, Ledger: ledger, Clock: clock.RealClock{}, LockOpts: lockOpts()})
	require.NoError(t, err)
	return e
}

func linearWBS() *domain.WBSDefinition {
	return &domain.WBSDefinition{
		Packets: []domain.PacketDefinition{
			{ID: "A"},
			{ID: "B", DependsOn: []string{"A"}},
		},
	}
}

func TestScenario1_LinearHappyPath(t *testing.T) {
	t.Parallel()
	e := newEngine(t, linearWBS())

	ready, err := e.Ready()
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, ready)

	res, err := e.Claim("A", "alice")
	require.NoError(t, err)
	assert.True(t, res.OK)

	state, err := e.Status()
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, state.Packets["A"].Status)

	_, err = e.Done("A", "alice", "done")
	require.NoError(t, err)

	ready, err = e.Ready()
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, ready)

	_, err = e.Claim("B", "bob")
	require.NoError(t, err)
	_, err = e.Done("B", "bob", "done")
	require.NoError(t, err)

	state, err = e.Status()
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, state.Packets["A"].Status)
	assert.Equal(t, domain.StatusDone, state.Packets["B"].Status)
}

func cascadeWBS() *domain.WBSDefinition {
	return &domain.WBSDefinition{
		Packets: []domain.PacketDefinition{
			{ID: "A"},
			{ID: "B", DependsOn: []string{"A"}},
			{ID: "C", DependsOn: []string{"B"}},
			{ID: "D"},
		},
	}
}

func TestScenario2_CascadeFail(t *testing.T) {
	t.Parallel()
	e := newEngine(t, cascadeWBS())

	_, err := e.Claim("A", "alice")
	require.NoError(t, err)
	_, err = e.Fail("A", "alice", "broken")
	require.NoError(t, err)

	state, err := e.Status()
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, state.Packets["A"].Status)
	assert.Equal(t, domain.StatusBlocked, state.Packets["B"].Status)
	assert.Equal(t, domain.StatusBlocked, state.Packets["C"].Status)
	assert.Equal(t, domain.StatusPending, state.Packets["D"].Status)

	failedCount, blockedCount := 0, 0
	for _, ev := range state.Log {
		switch ev.Event {
		case "failed":
			failedCount++
		case "blocked":
			blockedCount++
			assert.Contains(t, ev.Notes, "A")
		}
	}
	assert.Equal(t, 1, failedCount)
	assert.Equal(t, 2, blockedCount)
}

func TestScenario3_HandoverResume(t *testing.T) {
	t.Parallel()
	e := newEngine(t, &domain.WBSDefinition{Packets: []domain.PacketDefinition{{ID: "X"}}})

	_, err := e.Claim("X", "alice")
	require.NoError(t, err)
	_, err = e.Handover("X", "alice", engine.HandoverInput{Reason: "ooo", ToAgent: "bob"})
	require.NoError(t, err)

	_, err = e.Done("X", "alice", "n")
	require.Error(t, err)

	_, err = e.Resume("X", "bob")
	require.NoError(t, err)

	_, err = e.Done("X", "bob", "fixed")
	require.NoError(t, err)

	state, err := e.Status()
	require.NoError(t, err)
	x := state.Packets["X"]
	require.Len(t, x.Handovers, 1)
	assert.False(t, x.Handovers[0].Active)
	assert.Equal(t, "bob", x.Handovers[0].ResumedBy)
	assert.Equal(t, domain.StatusDone, x.Status)
}

func TestClaim_DeniedWhenDependencyNotDone(t *testing.T) {
	t.Parallel()
	e := newEngine(t, linearWBS())
	_, err := e.Claim("B", "bob")
	require.Error(t, err)
}

func TestClaim_DeniedWhenAlreadyClaimed(t *testing.T) {
	t.Parallel()
	e := newEngine(t, &domain.WBSDefinition{Packets: []domain.PacketDefinition{{ID: "A"}}})
	_, err := e.Claim("A", "alice")
	require.NoError(t, err)
	_, err = e.Claim("A", "bob")
	require.Error(t, err)
}

func TestNote_RequiresNonTerminalStatus(t *testing.T) {
	t.Parallel()
	e := newEngine(t, &domain.WBSDefinition{Packets: []domain.PacketDefinition{{ID: "A"}}})
	_, err := e.Claim("A", "alice")
	require.NoError(t, err)
	_, err = e.Done("A", "alice", "done")
	require.NoError(t, err)
	_, err = e.Note("A", "alice", "too late")
	require.Error(t, err)
}

func TestNote_DeniedForNonOwningAgent(t *testing.T) {
	t.Parallel()
	e := newEngine(t, &domain.WBSDefinition{Packets: []domain.PacketDefinition{{ID: "A"}}})
	_, err := e.Claim("A", "alice")
	require.NoError(t, err)

	_, err = e.Note("A", "mallory", "not mine to touch")
	require.Error(t, err)

	state, err := e.Status()
	require.NoError(t, err)
	assert.Empty(t, state.Packets["A"].Notes)
}

func TestFail_DeniedForNonOwningAgent(t *testing.T) {
	t.Parallel()
	e := newEngine(t, &domain.WBSDefinition{Packets: []domain.PacketDefinition{{ID: "A"}}})
	_, err := e.Claim("A", "alice")
	require.NoError(t, err)

	_, err = e.Fail("A", "mallory", "not mine to fail")
	require.Error(t, err)

	state, err := e.Status()
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, state.Packets["A"].Status)
}

func TestReset_DoesNotUnblockDownstream(t *testing.T) {
	t.Parallel()
	e := newEngine(t, cascadeWBS())
	_, err := e.Claim("A", "alice")
	require.NoError(t, err)
	_, err = e.Fail("A", "alice", "broken")
	require.NoError(t, err)

	// A is now failed and the cascade has blocked B.
	state, err := e.Status()
	require.NoError(t, err)
	assert.Equal(t, domain.StatusBlocked, state.Packets["B"].Status)

	// Reset only applies to an in_progress packet, so it refuses the
	// failed A and leaves the cascade untouched.
	_, err = e.Reset("A", "alice")
	require.Error(t, err)

	// B remains blocked; this is the documented open-question behavior.
	state, err = e.Status()
	require.NoError(t, err)
	assert.Equal(t, domain.StatusBlocked, state.Packets["B"].Status)
}

func TestCloseoutL2_RequiresAllPacketsDoneAndAssessmentSections(t *testing.T) {
	t.Parallel()
	wbs := &domain.WBSDefinition{
		WorkAreas: []domain.WorkArea{{ID: "area1"}},
		Packets: []domain.PacketDefinition{
			{ID: "A", AreaID: "area1"},
		},
	}
	e := newEngine(t, wbs)

	assessment := filepath.Join(t.TempDir(), "assessment.md")
	body := "## Scope Reviewed\ntext\n## Expected vs Delivered\ntext\n## Drift Assessment\ntext\n## Evidence Reviewed\ntext\n## Residual Risks\ntext\n## Immediate Next Actions\ntext\n"
	require.NoError(t, os.WriteFile(assessment, []byte(body), 0o600))

	_, err := e.CloseoutL2("area1", "alice", assessment, "incomplete")
	require.Error(t, err, "should fail before A is done")

	_, err = e.Claim("A", "alice")
	require.NoError(t, err)
	_, err = e.Done("A", "alice", "done")
	require.NoError(t, err)

	res, err := e.CloseoutL2("area1", "alice", assessment, "looks good")
	require.NoError(t, err)
	assert.True(t, res.OK)

	state, err := e.Status()
	require.NoError(t, err)
	require.Contains(t, state.AreaCloseouts, "area1")
	assert.NotEmpty(t, state.AreaCloseouts["area1"].CommitHash)
}

func TestCloseoutL2_MissingSectionRejected(t *testing.T) {
	t.Parallel()
	wbs := &domain.WBSDefinition{
		WorkAreas: []domain.WorkArea{{ID: "area1"}},
		Packets:   []domain.PacketDefinition{{ID: "A", AreaID: "area1"}},
	}
	e := newEngine(t, wbs)
	_, err := e.Claim("A", "alice")
	require.NoError(t, err)
	_, err = e.Done("A", "alice", "done")
	require.NoError(t, err)

	assessment := filepath.Join(t.TempDir(), "assessment.md")
	require.NoError(t, os.WriteFile(assessment, []byte("## Scope Reviewed\nonly one section\n"), 0o600))

	_, err = e.CloseoutL2("area1", "alice", assessment, "n")
	require.Error(t, err)
}
