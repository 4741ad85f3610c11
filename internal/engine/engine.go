// Package engine implements the Lifecycle Engine: the sole mutator of
// runtime state. Every mutating call follows the same nine-step
// envelope — acquire the state lock, load pre_state, consult the
// supervisor, validate invariants, compute post_state, append an
// activity event, write DCL commits, persist atomically, release the
// lock — and returns a structured Result rather than throwing across its
// boundary.
package engine

import (
	"fmt"

	"github.com/packetgov/kernel/internal/clock"
	"github.com/packetgov/kernel/internal/dcl"
	"github.com/packetgov/kernel/internal/depgraph"
	"github.com/packetgov/kernel/internal/domain"
	kernelerrors "github.com/packetgov/kernel/internal/errors"
	"github.com/packetgov/kernel/internal/kernelstate"
	"github.com/packetgov/kernel/internal/lock"
	"github.com/packetgov/kernel/internal/supervisor"
)

// AuditMirror is an optional post-commit observer. The engine calls it
// best-effort after a successful write; a failing or absent mirror never
// affects the kernel's own correctness.
type AuditMirror interface {
	Observe(commit domain.Commit, state *domain.State) error
}

// noopMirror is used when no mirror is configured.
type noopMirror struct{}

func (noopMirror) Observe(domain.Commit, *domain.State) error { return nil }

// Engine is the Lifecycle Engine over one project's WBS, runtime state,
// and DCL ledger. It holds a one-way handle to its state store and
// ledger; neither calls back into the engine.
type Engine struct {
	wbs          *domain.WBSDefinition
	expandedDeps map[string][]string
	store        *kernelstate.Store
	ledger       *dcl.Ledger
	policy       supervisor.Policy
	clk          clock.Clock
	mirror       AuditMirror
	lockOpts     lock.Options
}

// Options configures a new Engine.
type Options struct {
	WBS      *domain.WBSDefinition
	Store    *kernelstate.Store
	Ledger   *dcl.Ledger
	Policy   supervisor.Policy
	Clock    clock.Clock
	Mirror   AuditMirror
	LockOpts lock.Options
}

// New validates wbs and returns an Engine ready to serve
// transitions and reads.
func New(opts Options) (*Engine, error) {
	expanded, err := depgraph.ValidateWBS(opts.WBS)
	if err != nil {
		return nil, err
	}
	mirror := opts.Mirror
	if mirror == nil {
		mirror = noopMirror{}
	}
	policy := opts.Policy
	if policy == nil {
		policy = supervisor.Noop{}
	}
	return &Engine{
		wbs:          opts.WBS,
		expandedDeps: expanded,
		store:        opts.Store,
		ledger:       opts.Ledger,
		policy:       policy,
		clk:          opts.Clock,
		mirror:       mirror,
		lockOpts:     opts.LockOpts,
	}, nil
}

// Result is returned by every mutating transition that succeeds; a
// refused or failed transition returns a nil Result and a classified
// *DomainError instead. Callers (CLI/HTTP adapters) translate these into
// exit codes / status codes.
type Result struct {
	OK       bool
	Action   string
	PacketID string
	Message  string
	Warnings []string
}

// packetDef looks up a packet's declarative definition, returning
// ErrPacketNotFound if unknown.
func (e *Engine) packetDef(id string) (domain.PacketDefinition, error) {
	for _, p := range e.wbs.Packets {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.PacketDefinition{}, fmt.Errorf("engine: packet %q: %w", id, kernelerrors.ErrPacketNotFound)
}

// areaDef looks up a work area's declarative definition.
func (e *Engine) areaDef(id string) (domain.WorkArea, error) {
	for _, a := range e.wbs.WorkAreas {
		if a.ID == id {
			return a, nil
		}
	}
	return domain.WorkArea{}, fmt.Errorf("engine: area %q: %w", id, kernelerrors.ErrAreaNotFound)
}

// syncPackets ensures every packet declared in the WBS has a runtime
// record, auto-instantiating pending packets on first load.
func (e *Engine) syncPackets(state *domain.State) bool {
	changed := false
	if state.Packets == nil {
		state.Packets = make(map[string]*domain.PacketRuntime)
	}
	for _, p := range e.wbs.Packets {
		if _, ok := state.Packets[p.ID]; !ok {
			state.Packets[p.ID] = &domain.PacketRuntime{Status: domain.StatusPending}
			changed = true
		}
	}
	if !mapsEqualStringSlice(state.ExpandedDependencies, e.expandedDeps) {
		state.ExpandedDependencies = e.expandedDeps
		changed = true
	}
	return changed
}

func mapsEqualStringSlice(a, b map[string][]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
	}
	return true
}

// loadSynced loads the current runtime state and ensures every declared
// packet has a runtime record, without persisting the sync itself —
// callers inside a write envelope persist the synced state as part of
// their own post_state write; read-only callers may simply discard the
// sync since it is idempotent and reproduced on every load.
func (e *Engine) loadSynced() (*domain.State, error) {
	state, err := e.store.Load()
	if err != nil {
		return nil, err
	}
	e.syncPackets(state)
	return state, nil
}

// now returns the current UTC timestamp via the engine's clock.
func (e *Engine) now() string {
	return clock.NowUTC(e.clk)
}
