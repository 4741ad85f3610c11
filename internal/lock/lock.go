// Package lock implements cross-process advisory file locking and an
// atomic JSON writer on top of it.
//
// Locking is done via atomic creation of a sidecar lockfile next to the
// target path, not via flock(2): this keeps behavior identical across
// filesystems that don't support kernel-level advisory locks (network
// mounts, some container overlay filesystems), matching the portability
// goal of the reference governance layer this package is modeled on.
package lock

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/packetgov/kernel/internal/constants"
	kernelerrors "github.com/packetgov/kernel/internal/errors"
)

// payload is the JSON body written into a lockfile, recording who holds it
// and when, so a stale lock can be diagnosed and safely reclaimed.
type payload struct {
	PID       int    `json:"pid"`
	CreatedAt int64  `json:"created_at"`
	Target    string `json:"target"`
}

// Options configures a lock acquisition.
type Options struct {
	// Timeout bounds how long Acquire will poll before giving up.
	Timeout time.Duration
	// StaleAfter is the age after which a lockfile is considered abandoned
	// by a crashed holder and may be reclaimed. Zero disables reclaim.
	StaleAfter time.Duration
	// PollInterval is the wait between acquisition retries.
	PollInterval time.Duration
}

// DefaultOptions returns the kernel's standard lock timing.
func DefaultOptions() Options {
	return Options{
		Timeout:      constants.DefaultLockTimeout,
		StaleAfter:   constants.DefaultStaleLockAfter,
		PollInterval: constants.LockPollInterval,
	}
}

// Handle represents a held lock. Release must be called exactly once.
type Handle struct {
	path string
}

func lockPathFor(target string) string {
	return target + ".lock"
}

// Acquire blocks until the lock for target is held or opts.Timeout elapses,
// returning ErrLockTimeout in the latter case. A lockfile older than
// opts.StaleAfter is reclaimed on sight rather than waited out.
func Acquire(target string, opts Options) (*Handle, error) {
	lockPath := lockPathFor(target)
	if err := os.MkdirAll(filepath.Dir(lockPath), constants.DirPerm); err != nil {
		return nil, fmt.Errorf("lock: create lock directory: %w", err)
	}

	deadline := time.Now().Add(opts.Timeout)
	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, constants.FilePerm)
		if err == nil {
			body := payload{PID: os.Getpid(), CreatedAt: time.Now().Unix(), Target: target}
			enc, marshalErr := json.Marshal(body)
			if marshalErr == nil {
				_, _ = f.Write(append(enc, '\n'))
			}
			_ = f.Close()
			return &Handle{path: lockPath}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("lock: create lockfile: %w", err)
		}

		if opts.StaleAfter > 0 {
			if info, statErr := os.Stat(lockPath); statErr == nil {
				if time.Since(info.ModTime()) > opts.StaleAfter {
					_ = os.Remove(lockPath)
					continue
				}
			} else if os.IsNotExist(statErr) {
				continue
			}
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("lock: %s: %w", target, kernelerrors.ErrLockTimeout)
		}
		time.Sleep(opts.PollInterval)
	}
}

// Release deletes the lockfile, making the lock available to other waiters.
// It is safe to call on a nil handle.
func (h *Handle) Release() error {
	if h == nil {
		return nil
	}
	if err := os.Remove(h.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("lock: release: %w", err)
	}
	return nil
}

// WithLock acquires the lock for target, runs fn, and releases the lock
// regardless of fn's outcome.
func WithLock(target string, opts Options, fn func() error) error {
	h, err := Acquire(target, opts)
	if err != nil {
		return err
	}
	defer func() { _ = h.Release() }()
	return fn()
}
