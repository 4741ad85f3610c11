package dcl

import (
	"fmt"
	"os"

	"github.com/packetgov/kernel/internal/domain"
	"github.com/packetgov/kernel/internal/lock"
)

// RecoveryOutcome describes what RecoverJournals did for one packet.
type RecoveryOutcome struct {
	PacketID string
	Action   string // "none", "deleted_stale_journal", "advanced_head", "blocked"
	Issue    string
}

// RecoverJournals reconciles every packetID's transient journal with its
// commit file and HEAD, following these crash recovery rules:
//
//   - no journal: nothing to do.
//   - commit file and HEAD both match the journal's {seq, commit_hash}:
//     the commit was already durable; delete the journal.
//   - the commit file exists but HEAD lags: the write crashed after step 7
//     but before step 8; advance HEAD and delete the journal.
//   - any other shape (missing commit file, hash mismatch): the crash left
//     an unrecoverable gap; the packet is declared blocked.
func (l *Ledger) RecoverJournals(packetIDs []string) (map[string]RecoveryOutcome, error) {
	results := make(map[string]RecoveryOutcome, len(packetIDs))
	for _, id := range packetIDs {
		outcome, err := l.recoverOne(id)
		if err != nil {
			return nil, err
		}
		results[id] = outcome
	}
	return results, nil
}

func (l *Ledger) recoverOne(packetID string) (RecoveryOutcome, error) {
	journalPath := l.layout.journalPath(packetID)
	var journal domain.Journal
	err := lock.ReadJSON(journalPath, &journal)
	if os.IsNotExist(err) {
		return RecoveryOutcome{PacketID: packetID, Action: "none"}, nil
	}
	if err != nil {
		return RecoveryOutcome{}, fmt.Errorf("dcl: read journal for %s: %w", packetID, err)
	}

	var commit domain.Commit
	commitErr := lock.ReadJSON(l.layout.commitPath(packetID, journal.Seq), &commit)
	commitExists := commitErr == nil
	commitMatches := commitExists && commit.CommitHash == journal.CommitHash

	head, headErr := l.LoadHead(packetID)
	if headErr != nil {
		return RecoveryOutcome{}, headErr
	}

	switch {
	case commitMatches && head.Seq == journal.Seq && head.CommitHash == journal.CommitHash:
		if err := os.Remove(journalPath); err != nil && !os.IsNotExist(err) {
			return RecoveryOutcome{}, fmt.Errorf("dcl: remove reconciled journal: %w", err)
		}
		return RecoveryOutcome{PacketID: packetID, Action: "deleted_stale_journal"}, nil

	case commitMatches && head.Seq < journal.Seq:
		newHead := domain.Head{Seq: journal.Seq, CommitHash: journal.CommitHash}
		if err := lock.WriteJSONFileUnlocked(l.layout.headPath(packetID), &newHead); err != nil {
			return RecoveryOutcome{}, fmt.Errorf("dcl: advance head during recovery: %w", err)
		}
		if err := os.Remove(journalPath); err != nil && !os.IsNotExist(err) {
			return RecoveryOutcome{}, fmt.Errorf("dcl: remove journal after advancing head: %w", err)
		}
		return RecoveryOutcome{PacketID: packetID, Action: "advanced_head"}, nil

	default:
		issue := fmt.Sprintf("journal for seq %d has no durable matching commit", journal.Seq)
		return RecoveryOutcome{PacketID: packetID, Action: "blocked", Issue: issue}, nil
	}
}
