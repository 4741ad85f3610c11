package dcl_test

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
	"github.com/packetgov/kernel/internal/lock"
)

// advancingClock returns a strictly increasing time on every call, so a
// caller that reads the clock more than once for what should be a single
// logical timestamp produces visibly different values.
type advancingClock struct {
	next time.Time
}

func (c *advancingClock) Now() time.Time {
	c.next = c.next.Add(time.Microsecond)
	return c.next
}

func newLedger(t *testing.T) *dcl.Ledger {
	t.Helper()
	root := t.TempDir()
	opts := lock.Options{Timeout: time.Second, PollInterval: time.Millisecond}
	return dcl.New(root, opts, clock.RealClock{}, "")
}

func TestCommit_GenesisAndChain(t *testing.T) {
	t.Parallel()
	l := newLedger(t)

	c1, err := l.Commit(dcl.CommitInput{
		PacketID: "P1", Action: "claim", Actor: "alice",
		PreState:  map[string]string{"status": "pending"},
		PostState: map[string]string{"status": "in_progress"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, c1.Seq)
	assert.Equal(t, domain.GenesisSentinel, c1.PrevCommitHash)

	c2, err := l.Commit(dcl.CommitInput{
		PacketID: "P1", Action: "done", Actor: "alice",
		PreState:  map[string]string{"status": "in_progress"},
		PostState: map[string]string{"status": "done"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, c2.Seq)
	assert.Equal(t, c1.CommitHash, c2.PrevCommitHash)

	head, err := l.LoadHead("P1")
	require.NoError(t, err)
	assert.Equal(t, 2, head.Seq)
	assert.Equal(t, c2.CommitHash, head.CommitHash)
}

func TestVerifyPacket_CleanChainPasses(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	for i := 0; i < 3; i++ {
		_, err := l.Commit(dcl.CommitInput{PacketID: "P1", Action: "note", Actor: "alice", PreState: i, PostState: i + 1})
		require.NoError(t, err)
	}
	result, err := l.VerifyPacket("P1", dcl.ModeFast, nil)
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, 3, result.CommitsChecked)
	assert.Empty(t, result.Issues)
}

func TestCommit_ActionHashSurvivesAdvancingClock(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	opts := lock.Options{Timeout: time.Second, PollInterval: time.Millisecond}
	l := dcl.New(root, opts, &advancingClock{next: time.Now()}, "")

	commit, err := l.Commit(dcl.CommitInput{PacketID: "P1", Action: "claim", Actor: "alice", PreState: 0, PostState: 1})
	require.NoError(t, err)

	result, err := l.VerifyPacket("P1", dcl.ModeFast, nil)
	require.NoError(t, err)
	assert.True(t, result.OK, "legitimate commit must verify clean even when the clock advances between reads: %+v", result.Issues)
	assert.Equal(t, commit.CreatedAt, commit.ActionEnvelope.Timestamp, "the stored envelope's timestamp must be the same read used for created_at")
}

func TestVerifyPacket_DetectsTamperedCommit(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	opts := lock.Options{Timeout: time.Second, PollInterval: time.Millisecond}
	l := dcl.New(root, opts, clock.RealClock{}, "")

	_, err := l.Commit(dcl.CommitInput{PacketID: "P1", Action: "claim", Actor: "alice", PreState: 0, PostState: 1})
	require.NoError(t, err)
	_, err = l.Commit(dcl.CommitInput{PacketID: "P1", Action: "done", Actor: "alice", PreState: 1, PostState: 2})
	require.NoError(t, err)

	commitFile := filepath.Join(root, "packets", "P1", "commits", "000002.json")
	data, readErr := os.ReadFile(commitFile) //nolint:gosec // test fixture path
	require.NoError(t, readErr)

	tampered := []byte(string(data))
	for i, b := range tampered {
		if b == '2' {
			tampered[i] = '9'
			break
		}
	}
	require.NoError(t, os.WriteFile(commitFile, tampered, 0o600))

	result, err := l.VerifyPacket("P1", dcl.ModeFast, nil)
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.NotEmpty(t, result.Issues)
}

func TestRecoverJournals_AdvancesLaggingHead(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	opts := lock.Options{Timeout: time.Second, PollInterval: time.Millisecond}
	l := dcl.New(root, opts, clock.RealClock{}, "")

	commit, err := l.Commit(dcl.CommitInput{PacketID: "P1", Action: "claim", Actor: "alice", PreState: 0, PostState: 1})
	require.NoError(t, err)

	// Simulate a crash between commit-file write and HEAD write: roll HEAD
	// back and leave a "prepare" journal as if step 8 never ran.
	headPath := filepath.Join(root, "packets", "P1", "HEAD")
	require.NoError(t, os.Remove(headPath))
	journalPath := filepath.Join(root, "packets", "P1", "journal.json")
	require.NoError(t, lock.WriteJSONFileUnlocked(journalPath, &domain.Journal{
		Stage: domain.JournalStagePrepare, Seq: commit.Seq, CommitHash: commit.CommitHash,
	}))

	results, err := l.RecoverJournals([]string{"P1"})
	require.NoError(t, err)
	assert.Equal(t, "advanced_head", results["P1"].Action)

	head, err := l.LoadHead("P1")
	require.NoError(t, err)
	assert.Equal(t, commit.Seq, head.Seq)
}

func TestRecoverJournals_BlocksOnMissingCommit(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	opts := lock.Options{Timeout: time.Second, PollInterval: time.Millisecond}
	l := dcl.New(root, opts, clock.RealClock{}, "")

	journalPath := filepath.Join(root, "packets", "P1", "journal.json")
	require.NoError(t, lock.WriteJSONFileUnlocked(journalPath, &domain.Journal{
		Stage: domain.JournalStagePrepare, Seq: 1, CommitHash: "deadbeef",
	}))

	results, err := l.RecoverJournals([]string{"P1"})
	require.NoError(t, err)
	assert.Equal(t, "blocked", results["P1"].Action)
	assert.NotEmpty(t, results["P1"].Issue)
}

func TestCheckpoint_MerkleRootMatchesCanonicalHash(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	heads := map[string]string{"P1": "h1", "P2": "h2"}
	cp, err := l.Checkpoint("M1", heads)
	require.NoError(t, err)

	ok, err := dcl.VerifyCheckpoint(*cp)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExportProofBundle_RoundTrip(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	_, err := l.Commit(dcl.CommitInput{PacketID: "P1", Action: "claim", Actor: "alice", PreState: 0, PostState: 1})
	require.NoError(t, err)
	_, err = l.Commit(dcl.CommitInput{PacketID: "P1", Action: "done", Actor: "alice", PreState: 1, PostState: 2})
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "proof.zip")
	require.NoError(t, l.ExportProofBundle("P1", out))

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
