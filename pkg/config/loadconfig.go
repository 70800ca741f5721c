// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vlitzdev/vlitz/pkg/utilfn"
	"gopkg.in/yaml.v3"
)

// file names searched for, in order, in each directory
var ConfigFileNames = []string{"vlitz.json", "vlitz.yaml", "vlitz.yml"}

// LoadConfig returns the defaults merged with the first configuration found:
// inline JSON from VLITZ_CONFIGJSON, the file named by VLITZ_CONFIGFILE, or a
// vlitz.json/vlitz.yaml in the working directory or one of its parents.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()
	found, err := findConfig()
	if err != nil {
		return nil, err
	}
	cfg.Merge(found)
	return cfg, nil
}

func findConfig() (*Config, error) {
	// 1. Check explicit JSON env var first
	if configJson := os.Getenv(ConfigJsonEnvName); configJson != "" {
		var cfg Config
		if err := json.Unmarshal([]byte(configJson), &cfg); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", ConfigJsonEnvName, err)
		}
		cfg.Source = ConfigJsonEnvName
		return &cfg, nil
	}

	// 2. Check explicit config file env var
	if configFile := os.Getenv(ConfigFileEnvName); configFile != "" {
		return LoadConfigFile(configFile)
	}

	// 3. Walk up directories looking for project root (includes current dir)
	return findConfigInParents()
}

// LoadConfigFile reads an explicit config file; a missing file is an error.
func LoadConfigFile(path string) (*Config, error) {
	cfg, err := tryLoadConfig(utilfn.ExpandHomeDir(path))
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config file %s: %w", path, os.ErrNotExist)
	}
	return cfg, nil
}

func findConfigInParents() (*Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return findConfigFrom(dir, utilfn.GetHomeDir())
}

func findConfigFrom(dir string, homeDir string) (*Config, error) {
	for {
		for _, name := range ConfigFileNames {
			cfg, err := tryLoadConfig(filepath.Join(dir, name))
			if err != nil {
				return nil, err
			}
			if cfg != nil {
				return cfg, nil
			}
		}

		// Stop at project root markers
		if hasProjectRoot(dir) {
			break
		}

		// Stop at home directory
		if homeDir != "" && dir == homeDir {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir || parent == "/" {
			break
		}
		dir = parent
	}
	return nil, nil
}

func hasProjectRoot(dir string) bool {
	markers := []string{".git", "go.mod"}
	for _, marker := range markers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// tryLoadConfig returns nil, nil when path does not exist. Parse errors are
// always reported.
func tryLoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.Source = path
	return &cfg, nil
}
