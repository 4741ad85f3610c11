package lock

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/packetgov/kernel/internal/constants"
)

// WriteJSONAtomic acquires the lock for path, marshals payload with
// indentation (matching on-disk files meant to be human-read during
// debugging), writes it to "path.tmp", and renames it over path. Readers
// that don't take the lock may observe either the previous or the new file
// but never a torn write, since rename is atomic on POSIX filesystems.
func WriteJSONAtomic(path string, payload any, opts Options) error {
	return WithLock(path, opts, func() error {
		return writeJSONFile(path, payload)
	})
}

// writeJSONFile performs the tmp-write-then-rename without acquiring a
// lock; callers that already hold the target's lock (e.g. the DCL writer,
// which locks per-packet rather than per-file) use this directly.
func writeJSONFile(path string, payload any) error {
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPerm); err != nil {
		return fmt.Errorf("lock: create directory for %s: %w", path, err)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("lock: marshal payload for %s: %w", path, err)
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.FilePerm)
	if err != nil {
		return fmt.Errorf("lock: open temp file for %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("lock: write temp file for %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("lock: sync temp file for %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("lock: close temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("lock: rename temp file for %s: %w", path, err)
	}
	return nil
}

// WriteJSONFileUnlocked performs the tmp-write-then-rename without
// acquiring a lock. Exported for callers (such as internal/dcl) that manage
// their own, more granular locking.
func WriteJSONFileUnlocked(path string, payload any) error {
	return writeJSONFile(path, payload)
}

// ReadJSON reads and unmarshals the JSON file at path into out. Readers
// never need the lock: a rename-based writer guarantees they see either the
// complete prior file or the complete new one.
func ReadJSON(path string, out any) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is constructed from validated kernel-internal identifiers
	if err != nil {
		return fmt.Errorf("lock: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("lock: parse %s: %w", path, err)
	}
	return nil
}
