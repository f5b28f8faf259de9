// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package cli

import (
	"errors"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rigzba21/si/internal/dal/datastore"
	"github.com/rigzba21/si/internal/logging"
	"github.com/rigzba21/si/internal/util"
)

const DefaultConfigPath = "~/.si/config.yaml"

// Config is the on-disk CLI configuration.
type Config struct {
	WorkspaceID string           `yaml:"workspace-id"`
	Datastore   datastore.Config `yaml:"datastore"`
	Logging     logging.Config   `yaml:"logging"`
}

// LoadConfig reads the config file, tolerating a missing file so that
// flags alone can drive a run.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}
	path = util.ExpandHomePath(path)

	var cfg Config
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	cfg.Datastore.FilePath = util.ExpandHomePath(cfg.Datastore.FilePath)
	if cfg.Logging.FilePath != "" {
		cfg.Logging.FilePath = util.ExpandHomePath(cfg.Logging.FilePath)
	}
	return &cfg, nil
}
