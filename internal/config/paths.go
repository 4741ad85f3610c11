package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/packetgov/kernel/internal/constants"
)

// GlobalConfigDir returns the path to the global kernel configuration
// directory. This is typically ~/.packetgov on Unix systems.
//
// Returns an error if the home directory cannot be determined.
func GlobalConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: home directory: %w", err)
	}
	return filepath.Join(home, constants.KernelHome), nil
}

// ProjectConfigDir returns the relative path to the project configuration
// directory, .packetgov relative to the project root.
func ProjectConfigDir() string {
	return constants.KernelHome
}

// GlobalConfigPath returns the full path to the global configuration file.
func GlobalConfigPath() (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: global config path: %w", err)
	}
	return filepath.Join(dir, constants.GlobalConfigName), nil
}

// ProjectConfigPath returns the relative path to the project-local
// configuration file, a dotfile at the project root alongside wbs.json.
func ProjectConfigPath() string {
	return constants.ProjectConfigName
}
