package dcl

import (
	"fmt"
	"os"

	"github.com/packetgov/kernel/internal/canon"
	"github.com/packetgov/kernel/internal/domain"
	"github.com/packetgov/kernel/internal/lock"
)

// Mode selects how deep per-packet verification goes: Fast stops at HEAD
// linkage; Full additionally checks runtime-state coherence.
type Mode string

// Verification modes.
const (
	ModeFast Mode = "fast"
	ModeFull Mode = "full"
)

// VerificationIssue names one specific inconsistency found while
// verifying a packet's ledger, with the issue code adapters
// be able to distinguish.
type VerificationIssue struct {
	Code    string
	Seq     int
	Message string
}

// PacketVerification is the result of verifying one packet's DCL chain.
type PacketVerification struct {
	PacketID       string
	OK             bool
	CommitsChecked int
	Issues         []VerificationIssue
}

// RuntimeStateHasher returns the canonical-JSON SHA-256 hash of a packet's
// current runtime state, for the full-mode coherence check.
type RuntimeStateHasher func(packetID string) (string, error)

// VerifyPacket recomputes, for every commit in packetID's ledger: its
// ordinal position, SHA-256(canon(envelope)) == action_hash,
// SHA-256(canon(commit without commit_hash)) == commit_hash, the chain
// link to the previous commit, and the final commit's match to HEAD. In
// ModeFull it additionally compares the last commit's post_state_hash to
// the packet's current runtime state hash.
func (l *Ledger) VerifyPacket(packetID string, mode Mode, hasher RuntimeStateHasher) (*PacketVerification, error) {
	head, err := l.LoadHead(packetID)
	if err != nil {
		return nil, err
	}

	result := &PacketVerification{PacketID: packetID, OK: true}
	if head.Seq == 0 {
		return result, nil
	}

	prevHash := domain.GenesisSentinel
	var last domain.Commit

	for seq := 1; seq <= head.Seq; seq++ {
		var commit domain.Commit
		if err := lock.ReadJSON(l.layout.commitPath(packetID, seq), &commit); err != nil {
			result.OK = false
			result.Issues = append(result.Issues, VerificationIssue{Code: "commit_missing", Seq: seq, Message: err.Error()})
			continue
		}
		result.CommitsChecked++

		if commit.Seq != seq {
			result.OK = false
			result.Issues = append(result.Issues, VerificationIssue{Code: "sequence_mismatch", Seq: seq, Message: fmt.Sprintf("file at ordinal %d declares seq %d", seq, commit.Seq)})
		}

		actionHash, hashErr := canon.Hash(commit.ActionEnvelope)
		if hashErr != nil || actionHash != commit.ActionHash {
			result.OK = false
			result.Issues = append(result.Issues, VerificationIssue{Code: "action_hash_mismatch", Seq: seq, Message: fmt.Sprintf("action_hash mismatch at %s#%d", packetID, seq)})
		}

		commitHash, hashErr := canon.Hash(hashInputOf(commit))
		if hashErr != nil || commitHash != commit.CommitHash {
			result.OK = false
			result.Issues = append(result.Issues, VerificationIssue{Code: "commit_hash_mismatch", Seq: seq, Message: fmt.Sprintf("commit_hash mismatch at %s#%d", packetID, seq)})
		}

		if commit.PrevCommitHash != prevHash {
			result.OK = false
			result.Issues = append(result.Issues, VerificationIssue{Code: "chain_link_broken", Seq: seq, Message: fmt.Sprintf("prev_commit_hash mismatch at %s#%d", packetID, seq)})
		}

		prevHash = commit.CommitHash
		last = commit
	}

	if last.CommitHash != head.CommitHash || last.Seq != head.Seq {
		result.OK = false
		result.Issues = append(result.Issues, VerificationIssue{Code: "head_mismatch", Seq: head.Seq, Message: "HEAD does not match the last commit"})
	}

	if mode == ModeFull && hasher != nil && last.Seq > 0 {
		currentHash, err := hasher(packetID)
		if err != nil {
			result.OK = false
			result.Issues = append(result.Issues, VerificationIssue{Code: "runtime_coherence_error", Seq: last.Seq, Message: err.Error()})
		} else if currentHash != last.PostStateHash {
			result.OK = false
			result.Issues = append(result.Issues, VerificationIssue{Code: "runtime_coherence_mismatch", Seq: last.Seq, Message: "current runtime state hash does not match last commit's post_state_hash"})
		}
	}

	return result, nil
}

// PacketIDsOnDisk returns every packet id that has a ledger directory under
// root, by listing the packets/ directory. Used by the integrity service
// and journal recovery to enumerate what to check without depending on the
// WBS definition being loaded.
func (l *Ledger) PacketIDsOnDisk() ([]string, error) {
	entries, err := os.ReadDir(l.layout.packetsRoot())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dcl: list packets directory: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}
