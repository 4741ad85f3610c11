// Package dcl implements the Deterministic Commit Ledger: a per-packet
// hash-chained commit log over canonical JSON, with crash-safe two-phase
// journaling, recovery, project checkpoints, and proof-bundle export.
package dcl

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/packetgov/kernel/internal/canon"
	"github.com/packetgov/kernel/internal/clock"
	"github.com/packetgov/kernel/internal/domain"
	kernelerrors "github.com/packetgov/kernel/internal/errors"
	"github.com/packetgov/kernel/internal/lock"
)

// Ledger manages the on-disk DCL rooted at a directory, independent of the
// kernel's global state lock: the engine holds the state lock for the
// whole transition envelope and additionally acquires this ledger's
// per-packet lock only while writing a commit (state -> DCL
// ordering precludes deadlock).
type Ledger struct {
	layout           layout
	opts             lock.Options
	clk              clock.Clock
	constitutionPath string
}

// New returns a Ledger rooted at root. constitutionPath, if non-empty, is
// hashed into every commit's constitution_hash; a missing or empty path
// yields "" rather than an error.
func New(root string, opts lock.Options, clk clock.Clock, constitutionPath string) *Ledger {
	return &Ledger{layout: layout{root: root}, opts: opts, clk: clk, constitutionPath: constitutionPath}
}

// commitHashInput is every Commit field except CommitHash itself, the
// exact payload that gets hashed to produce commit_hash.
type commitHashInput struct {
	CommitID         string                `json:"commit_id"`
	PacketID         string                `json:"packet_id"`
	Seq              int                   `json:"seq"`
	PrevCommitHash   string                `json:"prev_commit_hash"`
	ActionHash       string                `json:"action_hash"`
	PreStateHash     string                `json:"pre_state_hash"`
	PostStateHash    string                `json:"post_state_hash"`
	ConstitutionHash string                `json:"constitution_hash"`
	Diff             map[string]any        `json:"diff,omitempty"`
	CreatedAt        string                `json:"created_at"`
	ActionEnvelope   domain.ActionEnvelope `json:"action_envelope"`
}

func hashInputOf(c domain.Commit) commitHashInput {
	return commitHashInput{
		CommitID:         c.CommitID,
		PacketID:         c.PacketID,
		Seq:              c.Seq,
		PrevCommitHash:   c.PrevCommitHash,
		ActionHash:       c.ActionHash,
		PreStateHash:     c.PreStateHash,
		PostStateHash:    c.PostStateHash,
		ConstitutionHash: c.ConstitutionHash,
		Diff:             c.Diff,
		CreatedAt:        c.CreatedAt,
		ActionEnvelope:   c.ActionEnvelope,
	}
}

// ConstitutionHash returns the SHA-256 hex digest of the constitution
// document's bytes, or "" if no path is configured or the file is absent.
func (l *Ledger) ConstitutionHash() (string, error) {
	if l.constitutionPath == "" {
		return "", nil
	}
	data, err := os.ReadFile(l.constitutionPath) //nolint:gosec // path is kernel-configured
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("dcl: read constitution: %w", err)
	}
	return canon.HashBytes(data), nil
}

// ConfigLockPath returns the on-disk location of this ledger's
// configuration lock document.
func (l *Ledger) ConfigLockPath() string {
	return l.layout.configLockPath()
}

// LoadHead returns packetID's current HEAD, or the zero HEAD ({Seq: 0,
// CommitHash: ""}) if the packet has no commits yet.
func (l *Ledger) LoadHead(packetID string) (domain.Head, error) {
	var head domain.Head
	err := lock.ReadJSON(l.layout.headPath(packetID), &head)
	if os.IsNotExist(err) {
		return domain.Head{}, nil
	}
	if err != nil {
		return domain.Head{}, fmt.Errorf("dcl: load head for %s: %w", packetID, err)
	}
	return head, nil
}

// CommitInput describes the transition a caller wants recorded.
type CommitInput struct {
	PacketID  string
	Action    string
	Actor     string
	Reason    string
	Inputs    map[string]any
	PreState  any
	PostState any
	Diff      map[string]any
}

// Commit appends a new commit to packetID's ledger under the write
// protocol: load HEAD, build and hash the action envelope and
// commit, journal-prepare, write the commit file, advance HEAD, then
// journal-done and clean up. It acquires packetID's own lock for the
// duration, independent of any lock the caller already holds.
func (l *Ledger) Commit(in CommitInput) (*domain.Commit, error) {
	var result *domain.Commit
	err := lock.WithLock(l.layout.headPath(in.PacketID), l.opts, func() error {
		head, err := l.LoadHead(in.PacketID)
		if err != nil {
			return err
		}

		now := clock.NowUTC(l.clk)
		actionEnvelope := domain.ActionEnvelope{
			Type: "transition", Name: in.Action,
			Actor:     domain.Actor{Kind: "agent", ID: in.Actor},
			Reason:    in.Reason,
			Inputs:    in.Inputs,
			Timestamp: now,
		}

		actionHash, err := canon.Hash(actionEnvelope)
		if err != nil {
			return fmt.Errorf("dcl: hash action envelope: %w", err)
		}

		preHash, err := canon.Hash(in.PreState)
		if err != nil {
			return fmt.Errorf("dcl: hash pre_state: %w", err)
		}
		postHash, err := canon.Hash(in.PostState)
		if err != nil {
			return fmt.Errorf("dcl: hash post_state: %w", err)
		}
		constitutionHash, err := l.ConstitutionHash()
		if err != nil {
			return err
		}

		prevHash := head.CommitHash
		if head.Seq == 0 {
			prevHash = domain.GenesisSentinel
		}

		commit := domain.Commit{
			CommitID:         uuid.NewString(),
			PacketID:         in.PacketID,
			Seq:              head.Seq + 1,
			PrevCommitHash:   prevHash,
			ActionHash:       actionHash,
			PreStateHash:     preHash,
			PostStateHash:    postHash,
			ConstitutionHash: constitutionHash,
			Diff:             in.Diff,
			CreatedAt:        now,
			ActionEnvelope:   actionEnvelope,
		}
		commitHash, err := canon.Hash(hashInputOf(commit))
		if err != nil {
			return fmt.Errorf("dcl: hash commit: %w", err)
		}
		commit.CommitHash = commitHash

		journalPath := l.layout.journalPath(in.PacketID)
		journal := domain.Journal{Stage: domain.JournalStagePrepare, Seq: commit.Seq, CommitHash: commit.CommitHash}
		if err := lock.WriteJSONFileUnlocked(journalPath, &journal); err != nil {
			return fmt.Errorf("dcl: write journal: %w", err)
		}

		if err := lock.WriteJSONFileUnlocked(l.layout.commitPath(in.PacketID, commit.Seq), &commit); err != nil {
			return fmt.Errorf("dcl: write commit: %w", err)
		}

		newHead := domain.Head{Seq: commit.Seq, CommitHash: commit.CommitHash}
		if err := lock.WriteJSONFileUnlocked(l.layout.headPath(in.PacketID), &newHead); err != nil {
			return fmt.Errorf("dcl: write head: %w", err)
		}

		journal.Stage = domain.JournalStageDone
		if err := lock.WriteJSONFileUnlocked(journalPath, &journal); err != nil {
			return fmt.Errorf("dcl: write journal done marker: %w", err)
		}
		if err := os.Remove(journalPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("dcl: remove journal: %w", err)
		}

		result = &commit
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ErrJournalBlocked is returned by RecoverJournals for a packet whose
// journal cannot be reconciled with its commit file and HEAD.
var ErrJournalBlocked = kernelerrors.ErrJournalRecoveryBlocked
