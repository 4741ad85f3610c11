package engine

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/packetgov/kernel/internal/domain"
	kernelerrors "github.com/packetgov/kernel/internal/errors"
)

func notFound(err error) error {
	return kernelerrors.NewDomainError(kernelerrors.KindNotFound, err)
}

func precondition(err error) error {
	return kernelerrors.NewDomainError(kernelerrors.KindPreconditionFailed, err)
}

func blocked(err error) error {
	return kernelerrors.NewDomainError(kernelerrors.KindBlockedByDeps, err)
}

// packet fetches a packet's runtime record or fails with NotFound.
func packet(state *domain.State, id string) (*domain.PacketRuntime, error) {
	p, ok := state.Packets[id]
	if !ok || p == nil {
		return nil, notFound(fmt.Errorf("engine: packet %q: %w", id, kernelerrors.ErrPacketNotFound))
	}
	return p, nil
}

// Claim implements claim(packet_id, agent): pending + all deps done ->
// in_progress, assigned, started_at set.
func (e *Engine) Claim(packetID, agent string) (*Result, error) {
	def, err := e.packetDef(packetID)
	if err != nil {
		return nil, notFound(err)
	}

	req := domain.TransitionRequest{Action: "claim", PacketID: packetID, Agent: agent, RequiredCapabilities: def.RequiredCapabilities}

	return e.runMutation(req, "claim", map[string]any{"agent": agent}, func(state *domain.State, t *txn) error {
		p, err := packet(state, packetID)
		if err != nil {
			return err
		}
		if p.Status != domain.StatusPending {
			return precondition(fmt.Errorf("engine: packet %q is %s, not pending: %w", packetID, p.Status, kernelerrors.ErrWrongStatus))
		}
		for _, dep := range state.ExpandedDependencies[packetID] {
			depPacket, err := packet(state, dep)
			if err != nil {
				return err
			}
			if depPacket.Status != domain.StatusDone {
				return blocked(fmt.Errorf("engine: packet %q depends on %q (status=%s): %w", packetID, dep, depPacket.Status, kernelerrors.ErrBlockedByDeps))
			}
		}

		pre := p.Clone()
		p.Status = domain.StatusInProgress
		p.AssignedTo = agent
		p.StartedAt = e.now()

		if err := t.appendEvent(state.Log, state.LogIntegrityMode, packetID, "claimed", agent, "", e.now()); err != nil {
			return err
		}
		t.deltas = append(t.deltas, packetDelta{PacketID: packetID, Pre: pre, Post: p.Clone()})
		return nil
	})
}

// Done implements done(packet_id, agent, notes): in_progress, no active
// handover, non-empty notes -> done, completed_at set.
func (e *Engine) Done(packetID, agent, notes string) (*Result, error) {
	req := domain.TransitionRequest{Action: "done", PacketID: packetID, Agent: agent, Notes: notes}
	return e.runMutation(req, "done", map[string]any{"agent": agent, "notes": notes}, func(state *domain.State, t *txn) error {
		p, err := packet(state, packetID)
		if err != nil {
			return err
		}
		if err := requireOwnership(p, agent, packetID); err != nil {
			return err
		}
		if p.Status != domain.StatusInProgress {
			return precondition(fmt.Errorf("engine: packet %q is %s, not in_progress: %w", packetID, p.Status, kernelerrors.ErrWrongStatus))
		}
		if p.ActiveHandover() != nil {
			return precondition(fmt.Errorf("engine: packet %q has an active handover: %w", packetID, kernelerrors.ErrActiveHandover))
		}

		pre := p.Clone()
		p.Status = domain.StatusDone
		p.CompletedAt = e.now()
		p.Notes = notes

		if err := t.appendEvent(state.Log, state.LogIntegrityMode, packetID, "done", agent, notes, e.now()); err != nil {
			return err
		}
		t.deltas = append(t.deltas, packetDelta{PacketID: packetID, Pre: pre, Post: p.Clone()})
		return nil
	})
}

// Note implements note(packet_id, agent, notes): the packet's current
// assignee may replace its notes as long as the status is non-terminal.
func (e *Engine) Note(packetID, agent, notes string) (*Result, error) {
	req := domain.TransitionRequest{Action: "note", PacketID: packetID, Agent: agent, Notes: notes}
	return e.runMutation(req, "note", map[string]any{"agent": agent, "notes": notes}, func(state *domain.State, t *txn) error {
		p, err := packet(state, packetID)
		if err != nil {
			return err
		}
		if err := requireOwnership(p, agent, packetID); err != nil {
			return err
		}
		if p.Status.IsTerminal() {
			return precondition(fmt.Errorf("engine: packet %q is done: %w", packetID, kernelerrors.ErrWrongStatus))
		}

		pre := p.Clone()
		p.Notes = notes

		if err := t.appendEvent(state.Log, state.LogIntegrityMode, packetID, "note", agent, notes, e.now()); err != nil {
			return err
		}
		t.deltas = append(t.deltas, packetDelta{PacketID: packetID, Pre: pre, Post: p.Clone()})
		return nil
	})
}

// Fail implements fail(packet_id, agent, reason): caller owns the packet,
// pending/in_progress, no active handover -> failed, cascading to block
// every transitively dependent packet currently pending/in_progress. The
// cascade is best-effort: an anomalous dependent that cannot be
// transitioned doesn't abort the fail, it's surfaced as a warning.
func (e *Engine) Fail(packetID, agent, reason string) (*Result, error) {
	req := domain.TransitionRequest{Action: "fail", PacketID: packetID, Agent: agent, Notes: reason}
	return e.runMutation(req, "fail", map[string]any{"agent": agent, "reason": reason}, func(state *domain.State, t *txn) error {
		p, err := packet(state, packetID)
		if err != nil {
			return err
		}
		if err := requireOwnership(p, agent, packetID); err != nil {
			return err
		}
		if p.Status != domain.StatusPending && p.Status != domain.StatusInProgress {
			return precondition(fmt.Errorf("engine: packet %q is %s: %w", packetID, p.Status, kernelerrors.ErrWrongStatus))
		}
		if p.ActiveHandover() != nil {
			return precondition(fmt.Errorf("engine: packet %q has an active handover: %w", packetID, kernelerrors.ErrActiveHandover))
		}

		pre := p.Clone()
		p.Status = domain.StatusFailed
		if err := t.appendEvent(state.Log, state.LogIntegrityMode, packetID, "failed", agent, reason, e.now()); err != nil {
			return err
		}
		t.deltas = append(t.deltas, packetDelta{PacketID: packetID, Pre: pre, Post: p.Clone()})

		cascadeBlocked(e, state, t, packetID)
		return nil
	})
}

// cascadeBlocked performs a breadth-first walk of the forward dependency
// edges from origin, blocking every reached packet currently pending or
// in_progress, and generating a blocked event for each.
func cascadeBlocked(e *Engine, state *domain.State, t *txn, origin string) {
	forward := reverseDeps(state.ExpandedDependencies)
	queue := append([]string{}, forward[origin]...)
	seen := map[string]struct{}{}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		p, ok := state.Packets[id]
		if !ok || p == nil {
			t.warnings = append(t.warnings, fmt.Sprintf("cascade: dependent %q has no runtime record", id))
			continue
		}
		if p.Status == domain.StatusPending || p.Status == domain.StatusInProgress {
			pre := p.Clone()
			p.Status = domain.StatusBlocked
			if err := t.appendEvent(state.Log, state.LogIntegrityMode, id, "blocked", "system", "blocked by failure of "+origin, e.now()); err != nil {
				t.warnings = append(t.warnings, fmt.Sprintf("cascade: %q: %v", id, err))
				continue
			}
			t.deltas = append(t.deltas, packetDelta{PacketID: id, Pre: pre, Post: p.Clone()})
		}
		queue = append(queue, forward[id]...)
	}
}

// reverseDeps inverts an expanded dependency map (packet -> deps it
// depends on) into a forward map (packet -> packets that depend on it).
func reverseDeps(expanded map[string][]string) map[string][]string {
	forward := make(map[string][]string)
	for dependent, deps := range expanded {
		for _, dep := range deps {
			forward[dep] = append(forward[dep], dependent)
		}
	}
	return forward
}

// Reset implements reset(packet_id): in_progress -> pending, clearing
// assignment. By design, downstream packets blocked by
// an earlier fail are deliberately NOT un-blocked by reset.
func (e *Engine) Reset(packetID, agent string) (*Result, error) {
	req := domain.TransitionRequest{Action: "reset", PacketID: packetID, Agent: agent}
	return e.runMutation(req, "reset", map[string]any{}, func(state *domain.State, t *txn) error {
		p, err := packet(state, packetID)
		if err != nil {
			return err
		}
		if p.Status != domain.StatusInProgress {
			return precondition(fmt.Errorf("engine: packet %q is %s, not in_progress: %w", packetID, p.Status, kernelerrors.ErrWrongStatus))
		}

		pre := p.Clone()
		p.Status = domain.StatusPending
		p.AssignedTo = ""
		p.StartedAt = ""

		if err := t.appendEvent(state.Log, state.LogIntegrityMode, packetID, "reset", agent, "", e.now()); err != nil {
			return err
		}
		t.deltas = append(t.deltas, packetDelta{PacketID: packetID, Pre: pre, Post: p.Clone()})
		return nil
	})
}

// HandoverInput carries the fields handover(...) accepts beyond packet id
// and agent.
type HandoverInput struct {
	Reason        string
	ProgressNotes string
	FilesModified []string
	RemainingWork []string
	ToAgent       string
}

// Handover implements handover(...): in_progress, caller owns the packet,
// no active handover exists -> appends a new active handover, clears
// assignment.
func (e *Engine) Handover(packetID, agent string, in HandoverInput) (*Result, error) {
	req := domain.TransitionRequest{Action: "handover", PacketID: packetID, Agent: agent, Notes: in.Reason}
	return e.runMutation(req, "handover", map[string]any{"reason": in.Reason, "to_agent": in.ToAgent}, func(state *domain.State, t *txn) error {
		p, err := packet(state, packetID)
		if err != nil {
			return err
		}
		if err := requireOwnership(p, agent, packetID); err != nil {
			return err
		}
		if p.Status != domain.StatusInProgress {
			return precondition(fmt.Errorf("engine: packet %q is %s, not in_progress: %w", packetID, p.Status, kernelerrors.ErrWrongStatus))
		}
		if p.ActiveHandover() != nil {
			return precondition(fmt.Errorf("engine: packet %q already has an active handover: %w", packetID, kernelerrors.ErrActiveHandover))
		}

		pre := p.Clone()
		p.Handovers = append(p.Handovers, domain.Handover{
			HandoverID:    uuid.NewString(),
			FromAgent:     agent,
			ToAgent:       in.ToAgent,
			Timestamp:     e.now(),
			Reason:        in.Reason,
			ProgressNotes: in.ProgressNotes,
			FilesModified: in.FilesModified,
			RemainingWork: in.RemainingWork,
			Active:        true,
		})
		p.AssignedTo = ""
		if in.ProgressNotes != "" {
			p.Notes = in.ProgressNotes
		}

		if err := t.appendEvent(state.Log, state.LogIntegrityMode, packetID, "handover", agent, in.Reason, e.now()); err != nil {
			return err
		}
		t.deltas = append(t.deltas, packetDelta{PacketID: packetID, Pre: pre, Post: p.Clone()})
		return nil
	})
}

// Resume implements resume(packet_id, agent): in_progress with an active
// handover whose to_agent is empty or equals agent -> deactivates the
// handover, reassigns to agent.
func (e *Engine) Resume(packetID, agent string) (*Result, error) {
	req := domain.TransitionRequest{Action: "resume", PacketID: packetID, Agent: agent}
	return e.runMutation(req, "resume", map[string]any{"agent": agent}, func(state *domain.State, t *txn) error {
		p, err := packet(state, packetID)
		if err != nil {
			return err
		}
		if p.Status != domain.StatusInProgress {
			return precondition(fmt.Errorf("engine: packet %q is %s, not in_progress: %w", packetID, p.Status, kernelerrors.ErrWrongStatus))
		}
		active := p.ActiveHandover()
		if active == nil {
			return precondition(fmt.Errorf("engine: packet %q: %w", packetID, kernelerrors.ErrNoActiveHandover))
		}
		if active.ToAgent != "" && active.ToAgent != agent {
			return precondition(fmt.Errorf("engine: packet %q: handover targets %q, not %q: %w", packetID, active.ToAgent, agent, kernelerrors.ErrHandoverTargetMismatch))
		}

		pre := p.Clone()
		for i := range p.Handovers {
			if p.Handovers[i].Active {
				p.Handovers[i].Active = false
				p.Handovers[i].ResumedBy = agent
				p.Handovers[i].ResumedAt = e.now()
			}
		}
		p.AssignedTo = agent
		if p.StartedAt == "" {
			p.StartedAt = e.now()
		}

		if err := t.appendEvent(state.Log, state.LogIntegrityMode, packetID, "resumed", agent, "", e.now()); err != nil {
			return err
		}
		t.deltas = append(t.deltas, packetDelta{PacketID: packetID, Pre: pre, Post: p.Clone()})
		return nil
	})
}

// requireOwnership ensures only a packet's current assigned_to (or an
// empty assignment, for reclaim) may mutate it.
func requireOwnership(p *domain.PacketRuntime, agent, packetID string) error {
	if p.AssignedTo != "" && p.AssignedTo != agent {
		return precondition(fmt.Errorf("engine: packet %q is assigned to %q, not %q: %w", packetID, p.AssignedTo, agent, kernelerrors.ErrOwnershipMismatch))
	}
	return nil
}
