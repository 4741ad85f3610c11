package readcache

import (
	"encoding/json"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/packetgov/kernel/internal/domain"
)

// StatusKey is the cache key status snapshots are stored under.
const StatusKey = "kernel:status"

// StatusReader is the subset of the Lifecycle Engine's read surface this
// cache fronts.
type StatusReader interface {
	Status() (*domain.State, error)
}

// CachedStatusReader serves Status from cache when possible, falling back
// to the underlying reader on a miss or any cache error, and repopulating
// the cache on a successful fallback read. Concurrent cache misses for the
// same key collapse into a single underlying read via group.
type CachedStatusReader struct {
	Cache *Cache
	Next  StatusReader

	group singleflight.Group
}

// Status returns the current runtime state, preferring a fresh cache
// entry over a direct store read.
func (r *CachedStatusReader) Status() (*domain.State, error) {
	if r.Cache != nil {
		if data, ok, err := r.Cache.Get(StatusKey); err == nil && ok {
			var state domain.State
			if err := json.Unmarshal(data, &state); err == nil {
				return &state, nil
			}
		}
	}

	result, err, _ := r.group.Do(StatusKey, func() (interface{}, error) {
		state, err := r.Next.Status()
		if err != nil {
			return nil, err
		}
		if r.Cache != nil {
			if data, err := json.Marshal(state); err == nil {
				_ = r.Cache.Set(StatusKey, data)
			}
		}
		return state, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.State), nil
}

// Invalidate drops the cached status snapshot; callers invoke this after
// any mutating transition commits.
func (r *CachedStatusReader) Invalidate() error {
	if r.Cache == nil {
		return nil
	}
	if err := r.Cache.Invalidate(StatusKey); err != nil {
		return fmt.Errorf("readcache: invalidate status: %w", err)
	}
	return nil
}
