package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/packetgov/kernel/internal/auditmirror"
	"github.com/packetgov/kernel/internal/clock"
	"github.com/packetgov/kernel/internal/config"
	"github.com/packetgov/kernel/internal/constants"
	"github.com/packetgov/kernel/internal/dcl"
	"github.com/packetgov/kernel/internal/domain"
	"github.com/packetgov/kernel/internal/engine"
	"github.com/packetgov/kernel/internal/kernelstate"
	"github.com/packetgov/kernel/internal/lock"
	"github.com/packetgov/kernel/internal/readcache"
	"github.com/packetgov/kernel/internal/supervisor"
)

// kernel bundles everything a subcommand needs: the live engine plus the
// raw pieces (ledger, store, config) that integrity/checkpoint commands
// reach past the engine for.
type kernel struct {
	Engine *engine.Engine
	Store  *kernelstate.Store
	Ledger *dcl.Ledger
	Config *config.Config

	// StatusReader serves Status(), optionally fronted by a read cache.
	// It is always at least k.Engine.
	StatusReader readcache.StatusReader
	cache        *readcache.Cache
}

// Close releases resources opened during bootstrap (currently only the
// read cache connection pool, if one was configured).
func (k *kernel) Close() error {
	if k.cache != nil {
		return k.cache.Close()
	}
	return nil
}

// loadWBS reads the declarative work-breakdown structure from path.
func loadWBS(path string) (*domain.WBSDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cli: read wbs definition %s: %w", path, err)
	}
	var wbs domain.WBSDefinition
	if err := json.Unmarshal(data, &wbs); err != nil {
		return nil, fmt.Errorf("cli: parse wbs definition %s: %w", path, err)
	}
	return &wbs, nil
}

// loadAgentRegistry reads the capability/enforcement policy document from
// path. A missing file is not an error: the engine falls back to a
// disabled-enforcement registry, matching EnforcementDisabled semantics.
func loadAgentRegistry(path string) (domain.AgentRegistry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return domain.AgentRegistry{EnforcementMode: domain.EnforcementDisabled}, nil
	}
	if err != nil {
		return domain.AgentRegistry{}, fmt.Errorf("cli: read agent registry %s: %w", path, err)
	}
	var registry domain.AgentRegistry
	if err := json.Unmarshal(data, &registry); err != nil {
		return domain.AgentRegistry{}, fmt.Errorf("cli: parse agent registry %s: %w", path, err)
	}
	return registry, nil
}

// bootstrap loads configuration, the WBS, the agent registry, and wires a
// ready-to-use kernel for the current working directory. Every subcommand
// calls this once in its RunE.
func bootstrap() (*kernel, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("cli: load config: %w", err)
	}

	wbs, err := loadWBS(constants.WBSFileName)
	if err != nil {
		return nil, err
	}

	registry, err := loadAgentRegistry(cfg.AgentRegistry.Path)
	if err != nil {
		return nil, err
	}

	clk := clock.RealClock{}
	lockOpts := lock.Options{
		Timeout:      cfg.Lock.Timeout,
		StaleAfter:   cfg.Lock.StaleAfter,
		PollInterval: cfg.Lock.PollInterval,
	}

	store := kernelstate.New(constants.StateFileName, lockOpts, clk)
	ledger := dcl.New(".", lockOpts, clk, constants.ConstitutionFileName)

	var policy supervisor.Policy
	switch registry.EnforcementMode {
	case domain.EnforcementDisabled:
		policy = supervisor.Noop{}
	default:
		policy = supervisor.New(registry)
	}

	var mirror engine.AuditMirror
	if cfg.AuditMirror.Enabled {
		runner, runnerErr := auditmirror.NewCLIRunner(context.Background(), cfg.AuditMirror.WorkDir)
		if runnerErr != nil {
			return nil, fmt.Errorf("cli: init audit mirror: %w", runnerErr)
		}
		mirror = auditmirror.New(runner, constants.StateFileName, cfg.AuditMirror.Timeout)
	}

	eng, err := engine.New(engine.Options{
		WBS:      wbs,
		Store:    store,
		Ledger:   ledger,
		Policy:   policy,
		Clock:    clk,
		Mirror:   mirror,
		LockOpts: lockOpts,
	})
	if err != nil {
		return nil, fmt.Errorf("cli: build engine: %w", err)
	}

	k := &kernel{Engine: eng, Store: store, Ledger: ledger, Config: cfg, StatusReader: eng}
	if cfg.ReadCache.Enabled {
		cache := readcache.New(cfg.ReadCache.Addr, cfg.ReadCache.TTL)
		k.cache = cache
		k.StatusReader = &readcache.CachedStatusReader{Cache: cache, Next: eng}
	}

	return k, nil
}
