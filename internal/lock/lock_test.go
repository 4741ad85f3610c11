package lock

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kernelerrors "github.com/packetgov/kernel/internal/errors"
)

func TestAcquireAndReleaseRoundTrip(t *testing.T) {
	t.Parallel()

	target := filepath.Join(t.TempDir(), "state.json")
	opts := Options{Timeout: time.Second, StaleAfter: time.Minute, PollInterval: time.Millisecond}

	h, err := Acquire(target, opts)
	require.NoError(t, err)
	assert.FileExists(t, target+".lock")

	require.NoError(t, h.Release())
	assert.NoFileExists(t, target+".lock")
}

func TestAcquireTimesOutWhenHeld(t *testing.T) {
	t.Parallel()

	target := filepath.Join(t.TempDir(), "state.json")
	opts := Options{Timeout: 50 * time.Millisecond, StaleAfter: time.Hour, PollInterval: 5 * time.Millisecond}

	h, err := Acquire(target, opts)
	require.NoError(t, err)
	defer func() { _ = h.Release() }()

	_, err = Acquire(target, opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, kernelerrors.ErrLockTimeout)
}

func TestAcquireReclaimsStaleLock(t *testing.T) {
	t.Parallel()

	target := filepath.Join(t.TempDir(), "state.json")
	lockPath := lockPathFor(target)

	require.NoError(t, os.MkdirAll(filepath.Dir(lockPath), 0o750))
	require.NoError(t, os.WriteFile(lockPath, []byte(`{"pid":999999,"created_at":0,"target":""}`), 0o600))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(lockPath, old, old))

	opts := Options{Timeout: time.Second, StaleAfter: time.Minute, PollInterval: time.Millisecond}
	h, err := Acquire(target, opts)
	require.NoError(t, err)
	require.NoError(t, h.Release())
}

func TestWriteJSONAtomicThenReadJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "state.json")
	type doc struct {
		Name string `json:"name"`
	}

	opts := DefaultOptions()
	require.NoError(t, WriteJSONAtomic(path, doc{Name: "first"}, opts))

	var got doc
	require.NoError(t, ReadJSON(path, &got))
	assert.Equal(t, "first", got.Name)

	require.NoError(t, WriteJSONAtomic(path, doc{Name: "second"}, opts))
	require.NoError(t, ReadJSON(path, &got))
	assert.Equal(t, "second", got.Name)
}

func TestConcurrentWritersSerializeOnLock(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "counter.json")
	type doc struct {
		Count int `json:"count"`
	}
	require.NoError(t, WriteJSONAtomic(path, doc{Count: 0}, DefaultOptions()))

	const writers = 8
	var wg sync.WaitGroup
	var failures int64
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			err := WithLock(path, DefaultOptions(), func() error {
				var cur doc
				if err := ReadJSON(path, &cur); err != nil {
					return err
				}
				cur.Count++
				return WriteJSONFileUnlocked(path, cur)
			})
			if err != nil {
				atomic.AddInt64(&failures, 1)
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, failures)

	var final doc
	require.NoError(t, ReadJSON(path, &final))
	assert.Equal(t, writers, final.Count)
}
