// Package activity implements the kernel's append-only activity log: entry
// construction in plain or hash-chained mode, and chain verification.
package activity

import (
	"fmt"

	"github.com/packetgov/kernel/internal/canon"
	"github.com/packetgov/kernel/internal/domain"
)

// hashPayload is the exact field set hashed for a chained entry, per
// hash = SHA-256(canon({packet_id, event, agent, timestamp,
// notes, event_id, prev_hash})).
type hashPayload struct {
	PacketID  string `json:"packet_id"`
	Event     string `json:"event"`
	Agent     string `json:"agent"`
	Timestamp string `json:"timestamp"`
	Notes     string `json:"notes"`
	EventID   string `json:"event_id"`
	PrevHash  string `json:"prev_hash"`
}

// entryHash computes the canonical-JSON SHA-256 digest of an entry's hash
// payload, using the same canon.Hash primitive the DCL ledger and
// checkpoints hash with.
func entryHash(p hashPayload) (string, error) {
	hash, err := canon.Hash(p)
	if err != nil {
		return "", fmt.Errorf("activity: hash entry: %w", err)
	}
	return hash, nil
}

// Append constructs a new activity event for (packetID, event, agent,
// notes) at the given timestamp, chaining it to the log's current tail when
// mode is hash_chain. It returns the entry to append; callers are
// responsible for appending it to state.Log and persisting the mutation in
// the same write as any accompanying state change.
func Append(log []domain.ActivityEvent, mode domain.LogIntegrityMode, packetID, event, agent, notes, timestamp string) (domain.ActivityEvent, error) {
	entry := domain.ActivityEvent{
		PacketID:  packetID,
		Event:     event,
		Agent:     agent,
		Notes:     notes,
		Timestamp: timestamp,
	}

	if mode != domain.LogModeHashChain {
		return entry, nil
	}

	prevHash, index := lastHashedTail(log)
	entry.EventID = formatEventID(index + 1)
	entry.PrevHash = prevHash

	hash, err := entryHash(hashPayload{
		PacketID:  entry.PacketID,
		Event:     entry.Event,
		Agent:     entry.Agent,
		Timestamp: entry.Timestamp,
		Notes:     entry.Notes,
		EventID:   entry.EventID,
		PrevHash:  entry.PrevHash,
	})
	if err != nil {
		return domain.ActivityEvent{}, err
	}
	entry.Hash = hash
	return entry, nil
}

// lastHashedTail scans log for the number of hashed entries so far and the
// hash of the most recent one, or ("", 0) if the log has no hashed entries
// yet. Plain entries preceding the first hashed entry don't count.
func lastHashedTail(log []domain.ActivityEvent) (hash string, count int) {
	for _, entry := range log {
		if entry.IsHashed() {
			count++
			hash = entry.Hash
		}
	}
	return hash, count
}

func formatEventID(index int) string {
	return fmt.Sprintf("evt-%08d", index)
}

// Issue describes one fatal inconsistency found by Verify, anchored to the
// offending entry's position in the log.
type Issue struct {
	Index   int
	EventID string
	Message string
}

// Verify scans log in order, skipping plain entries until the first hashed
// entry, then checking every hashed entry's event_id sequencing, prev_hash
// chain link, and recomputed hash. A partial set of chain fields on
// any entry is itself a fatal inconsistency. It returns every issue found;
// an empty slice means the chain verifies cleanly.
func Verify(log []domain.ActivityEvent) []Issue {
	var issues []Issue
	prevHash := ""
	count := 0

	for i, entry := range log {
		if entry.HasPartialChainFields() {
			issues = append(issues, Issue{Index: i, EventID: entry.EventID, Message: "entry has a partial set of hash-chain fields"})
			continue
		}
		if !entry.IsHashed() {
			continue
		}
		count++

		wantID := formatEventID(count)
		if entry.EventID != wantID {
			issues = append(issues, Issue{Index: i, EventID: entry.EventID, Message: fmt.Sprintf("expected event_id %s, got %s", wantID, entry.EventID)})
		}
		if entry.PrevHash != prevHash {
			issues = append(issues, Issue{Index: i, EventID: entry.EventID, Message: "prev_hash does not match the previous hashed entry"})
		}

		recomputed, err := entryHash(hashPayload{
			PacketID:  entry.PacketID,
			Event:     entry.Event,
			Agent:     entry.Agent,
			Timestamp: entry.Timestamp,
			Notes:     entry.Notes,
			EventID:   entry.EventID,
			PrevHash:  entry.PrevHash,
		})
		if err != nil || recomputed != entry.Hash {
			issues = append(issues, Issue{Index: i, EventID: entry.EventID, Message: "hash does not match recomputed digest"})
		}

		prevHash = entry.Hash
	}

	return issues
}
