package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/packetgov/kernel/internal/constants"
)

// WriteDefault marshals DefaultConfig() to YAML and writes it to path,
// refusing to overwrite an existing file. Used by `kernelctl config init`
// to scaffold a project's .packetgov.yaml.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config: %s already exists", path)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("config: marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, constants.FilePerm); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
