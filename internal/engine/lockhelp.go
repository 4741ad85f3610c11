package engine

import (
	"errors"
	"fmt"

	kernelerrors "github.com/packetgov/kernel/internal/errors"
	"github.com/packetgov/kernel/internal/lock"
)

// acquireAndRun acquires target's lock, runs fn, and releases it, wrapping
// a timed-out acquisition in a KindLockTimeout DomainError so callers
// never have to special-case the raw lock package error.
func acquireAndRun(target string, opts lock.Options, fn func() error) error {
	err := lock.WithLock(target, opts, fn)
	if err != nil && errors.Is(err, kernelerrors.ErrLockTimeout) {
		return kernelerrors.NewDomainError(kernelerrors.KindLockTimeout, fmt.Errorf("acquire lock for %s: %w", target, err))
	}
	return err
}
