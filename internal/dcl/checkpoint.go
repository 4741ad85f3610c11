package dcl

import (
	"fmt"
	"os"
	"sort"

	"github.com/google/uuid"

	"github.com/packetgov/kernel/internal/canon"
	"github.com/packetgov/kernel/internal/clock"
	"github.com/packetgov/kernel/internal/domain"
	"github.com/packetgov/kernel/internal/lock"
)

// checkpointHashInput is every Checkpoint field except CheckpointHash, the
// payload hashed to produce it.
type checkpointHashInput struct {
	CheckpointID string            `json:"checkpoint_id"`
	Phase        string            `json:"phase"`
	PacketHeads  map[string]string `json:"packet_heads"`
	MerkleRoot   string            `json:"merkle_root"`
	CreatedAt    string            `json:"created_at"`
}

// Checkpoint writes a new project-wide checkpoint attesting packetHeads at
// this point in time. merkle_root is the canonical hash of packetHeads;
// checkpoints are append-only and numbered sequentially.
func (l *Ledger) Checkpoint(phase string, packetHeads map[string]string) (*domain.Checkpoint, error) {
	merkleRoot, err := canon.Hash(packetHeads)
	if err != nil {
		return nil, fmt.Errorf("dcl: hash packet heads: %w", err)
	}

	seq, err := l.nextCheckpointSeq()
	if err != nil {
		return nil, err
	}

	cp := domain.Checkpoint{
		CheckpointID: uuid.NewString(),
		Phase:        phase,
		PacketHeads:  packetHeads,
		MerkleRoot:   merkleRoot,
		CreatedAt:    clock.NowUTC(l.clk),
	}
	hash, err := canon.Hash(checkpointHashInput{
		CheckpointID: cp.CheckpointID,
		Phase:        cp.Phase,
		PacketHeads:  cp.PacketHeads,
		MerkleRoot:   cp.MerkleRoot,
		CreatedAt:    cp.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("dcl: hash checkpoint: %w", err)
	}
	cp.CheckpointHash = hash

	if err := lock.WriteJSONFileUnlocked(l.layout.checkpointPath(seq), &cp); err != nil {
		return nil, fmt.Errorf("dcl: write checkpoint: %w", err)
	}
	return &cp, nil
}

func (l *Ledger) nextCheckpointSeq() (int, error) {
	entries, err := os.ReadDir(l.layout.checkpointsDir())
	if os.IsNotExist(err) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("dcl: list checkpoints: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return len(names) + 1, nil
}

// VerifyCheckpoint recomputes a checkpoint's merkle_root and
// checkpoint_hash, reporting whether either has been tampered with.
func VerifyCheckpoint(cp domain.Checkpoint) (bool, error) {
	merkleRoot, err := canon.Hash(cp.PacketHeads)
	if err != nil {
		return false, err
	}
	if merkleRoot != cp.MerkleRoot {
		return false, nil
	}
	hash, err := canon.Hash(checkpointHashInput{
		CheckpointID: cp.CheckpointID,
		Phase:        cp.Phase,
		PacketHeads:  cp.PacketHeads,
		MerkleRoot:   cp.MerkleRoot,
		CreatedAt:    cp.CreatedAt,
	})
	if err != nil {
		return false, err
	}
	return hash == cp.CheckpointHash, nil
}
