// Package auditmirror implements an optional post-commit observer that
// mirrors each Deterministic Commit Ledger commit into a git repository:
// it stages the runtime state file and creates a commit whose trailers
// encode the DCL commit's identity, for a human-auditable side channel.
// A mirror failure never affects the kernel's own correctness — the
// engine calls Observe best-effort, after its own write has already
// succeeded and been persisted.
package auditmirror

import (
	"context"
	"fmt"
	"time"

	"github.com/packetgov/kernel/internal/ctxutil"
	"github.com/packetgov/kernel/internal/domain"
	kernelerrors "github.com/packetgov/kernel/internal/errors"
)

// ProtocolVersion is recorded in every mirror commit's trailers, so a
// downstream reader can tell which trailer shape it is parsing.
const ProtocolVersion = "1.0"

// Runner is the subset of git operations the mirror needs: stage a path
// and commit with trailers. Implemented by CLIRunner for production use
// and fakeable in tests.
type Runner interface {
	Add(ctx context.Context, paths []string) error
	Commit(ctx context.Context, message string, trailers map[string]string) error
}

// Mirror observes DCL commits and reflects them into a git repository.
type Mirror struct {
	runner    Runner
	statePath string
	timeout   time.Duration
}

// New returns a Mirror that stages statePath and commits through runner.
func New(runner Runner, statePath string, timeout time.Duration) *Mirror {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Mirror{runner: runner, statePath: statePath, timeout: timeout}
}

// Observe stages the state file and creates a commit describing commit,
// tagged with the standard audit-mirror trailers. It implements
// engine.AuditMirror.
func (m *Mirror) Observe(commit domain.Commit, _ *domain.State) error {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	if err := m.runner.Add(ctx, []string{m.statePath}); err != nil {
		return fmt.Errorf("auditmirror: stage state file: %w: %w", err, kernelerrors.ErrAuditMirrorFailed)
	}
	if err := ctxutil.Canceled(ctx); err != nil {
		return fmt.Errorf("auditmirror: %w: %w", err, kernelerrors.ErrAuditMirrorFailed)
	}

	subject := fmt.Sprintf("kernel: %s %s", commit.ActionEnvelope.Name, commit.PacketID)
	trailers := map[string]string{
		"Protocol-Version": ProtocolVersion,
		"Event-Id":         commit.CommitID,
		"Packet":           commit.PacketID,
		"Action":           commit.ActionEnvelope.Name,
		"Actor":            commit.ActionEnvelope.Actor.ID,
		"Timestamp":        commit.CreatedAt,
	}

	if err := m.runner.Commit(ctx, subject, trailers); err != nil {
		return fmt.Errorf("auditmirror: commit: %w: %w", err, kernelerrors.ErrAuditMirrorFailed)
	}
	return nil
}
