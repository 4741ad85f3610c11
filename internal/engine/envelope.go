package engine

import (
	"fmt"

	"github.com/packetgov/kernel/internal/activity"
	"github.com/packetgov/kernel/internal/dcl"
	"github.com/packetgov/kernel/internal/domain"
	kernelerrors "github.com/packetgov/kernel/internal/errors"
)

// packetDelta records one packet's runtime mutation within a single
// transition, for DCL commit purposes: pre/post state hashes are over the
// runtime packet snapshot, not the whole document.
type packetDelta struct {
	PacketID string
	Pre      *domain.PacketRuntime
	Post     *domain.PacketRuntime
}

// areaDelta is the equivalent of packetDelta for the synthetic
// AREA-<area_id> packet id closeout_l2 commits against.
type areaDelta struct {
	AreaID string
	Pre    any
	Post   *domain.AreaCloseout
}

// txn accumulates the side effects a mutation produces before they are
// committed: activity events, packet-level deltas for the DCL, and
// warnings surfaced from best-effort cascades.
type txn struct {
	events   []domain.ActivityEvent
	deltas   []packetDelta
	areas    []areaDelta
	warnings []string
}

func (t *txn) appendEvent(log []domain.ActivityEvent, mode domain.LogIntegrityMode, packetID, event, agent, notes, ts string) error {
	e, err := activity.Append(log, mode, packetID, event, agent, notes, ts)
	if err != nil {
		return err
	}
	t.events = append(t.events, e)
	return nil
}

// mutationFunc applies one transition's logic against state, recording
// its side effects into t. It returns a DomainError-classified error on
// any precondition failure.
type mutationFunc func(state *domain.State, t *txn) error

// runMutation executes the nine-step write envelope for a single
// transition: lock, load, approve, mutate, append activity, commit to
// the DCL, persist, unlock, mirror.
func (e *Engine) runMutation(req domain.TransitionRequest, action string, inputs map[string]any, fn mutationFunc) (*Result, error) {
	var result *Result
	err := withStateLock(e, func() error {
		state, err := e.loadSynced()
		if err != nil {
			return err
		}

		allowed, reason := e.policy.Approve(req)
		if !allowed {
			return kernelerrors.NewDomainError(kernelerrors.KindPolicyDenied, fmt.Errorf("%s: %w", reason, kernelerrors.ErrPolicyDenied))
		}

		t := &txn{}
		if reason != "" {
			t.warnings = append(t.warnings, reason)
		}

		if err := fn(state, t); err != nil {
			return err
		}

		for _, ev := range t.events {
			state.Log = append(state.Log, ev)
		}

		for _, d := range t.deltas {
			commit, commitErr := e.ledger.Commit(dcl.CommitInput{
				PacketID: d.PacketID, Action: action, Actor: req.Agent, Reason: req.Notes,
				Inputs: inputs, PreState: d.Pre, PostState: d.Post,
			})
			if commitErr != nil {
				return kernelerrors.NewDomainError(kernelerrors.KindIOError, fmt.Errorf("commit for %s: %w", d.PacketID, commitErr))
			}
			_ = e.mirror.Observe(*commit, state)
		}
		for _, a := range t.areas {
			commit, commitErr := e.ledger.Commit(dcl.CommitInput{
				PacketID: "AREA-" + a.AreaID, Action: action, Actor: req.Agent, Reason: req.Notes,
				Inputs: inputs, PreState: a.Pre, PostState: a.Post,
			})
			if commitErr != nil {
				return kernelerrors.NewDomainError(kernelerrors.KindIOError, fmt.Errorf("commit for area %s: %w", a.AreaID, commitErr))
			}
			if a.Post != nil {
				a.Post.CommitHash = commit.CommitHash
			}
			_ = e.mirror.Observe(*commit, state)
		}

		if err := e.store.SaveWithoutLock(state); err != nil {
			return kernelerrors.NewDomainError(kernelerrors.KindIOError, err)
		}

		result = &Result{OK: true, Action: action, PacketID: req.PacketID, Warnings: t.warnings}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// withStateLock acquires the state file's lock for the duration of fn,
// which is expected to load, mutate, and persist state exactly once.
func withStateLock(e *Engine, fn func() error) error {
	return acquireAndRun(e.store.Path(), e.lockOpts, fn)
}
