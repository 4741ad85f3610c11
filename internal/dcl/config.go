package dcl

import (
	"fmt"
	"os"

	"github.com/packetgov/kernel/internal/canon"
	"github.com/packetgov/kernel/internal/constants"
	"github.com/packetgov/kernel/internal/domain"
	kernelerrors "github.com/packetgov/kernel/internal/errors"
	"github.com/packetgov/kernel/internal/lock"
)

// BuiltinConfigLock returns the kernel's built-in expectations for the DCL
// configuration lock, parameterized by the runtime state's current schema
// version (the one field that legitimately varies across installations).
func BuiltinConfigLock(stateSchemaVersion string) domain.ConfigLock {
	return domain.ConfigLock{
		Mode:                    "dcl",
		HashAlgorithm:           canon.HashAlgorithm,
		CanonicalizationVersion: canon.Version,
		DCLVersion:              constants.DCLSchemaVersion,
		StateSchemaVersion:      stateSchemaVersion,
	}
}

// LoadConfigLock reads the on-disk dcl-config.json at path. A missing file
// is not an error: callers should fall back to writing BuiltinConfigLock
// on first run.
func LoadConfigLock(path string) (domain.ConfigLock, bool, error) {
	var cl domain.ConfigLock
	err := lock.ReadJSON(path, &cl)
	if os.IsNotExist(err) {
		return domain.ConfigLock{}, false, nil
	}
	if err != nil {
		return domain.ConfigLock{}, false, fmt.Errorf("dcl: load config lock: %w", err)
	}
	return cl, true, nil
}

// WriteConfigLock persists cl to path, used when initializing a new DCL
// installation.
func WriteConfigLock(path string, cl domain.ConfigLock) error {
	return lock.WriteJSONFileUnlocked(path, &cl)
}

// ValidateConfigLock compares the on-disk config lock against the kernel's
// built-in expectations for the given state schema version. Any field
// mismatch fails integrity verification outright.
func ValidateConfigLock(onDisk domain.ConfigLock, stateSchemaVersion string) error {
	want := BuiltinConfigLock(stateSchemaVersion)
	if onDisk != want {
		return fmt.Errorf("dcl: config lock %+v does not match expected %+v: %w", onDisk, want, kernelerrors.ErrConfigLockMismatch)
	}
	return nil
}
