// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config holds the vlitz console settings and their defaults.
package config

import (
	"path/filepath"

	"github.com/vlitzdev/vlitz/pkg/utilfn"
)

const (
	ConfigJsonEnvName = "VLITZ_CONFIGJSON"
	ConfigFileEnvName = "VLITZ_CONFIGFILE"
)

const (
	DefaultHome        = "~/.config/vlitz"
	DefaultPageSize    = 20
	DefaultHistorySize = 500
	DefaultListenAddr  = "127.0.0.1:5105"
	DefaultPrompt      = "vlitz"
	DefaultLogLevel    = "info"

	HistoryFileName = "history.db"
	LogFileName     = "vlitz.log"
)

const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

type Config struct {
	PageSize    int    `json:"pagesize,omitempty" yaml:"pagesize,omitempty"`
	Home        string `json:"home,omitempty" yaml:"home,omitempty"`
	HistorySize int    `json:"historysize,omitempty" yaml:"historysize,omitempty"`
	HistoryFile string `json:"historyfile,omitempty" yaml:"historyfile,omitempty"`
	LogLevel    string `json:"loglevel,omitempty" yaml:"loglevel,omitempty"`
	LogFile     string `json:"logfile,omitempty" yaml:"logfile,omitempty"`
	Color       string `json:"color,omitempty" yaml:"color,omitempty"`
	ListenAddr  string `json:"listenaddr,omitempty" yaml:"listenaddr,omitempty"`
	Prompt      string `json:"prompt,omitempty" yaml:"prompt,omitempty"`

	// set by the loader, not read from the file
	Source string `json:"-" yaml:"-"`
}

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() *Config {
	return &Config{
		PageSize:    DefaultPageSize,
		Home:        DefaultHome,
		HistorySize: DefaultHistorySize,
		LogLevel:    DefaultLogLevel,
		Color:       ColorAuto,
		ListenAddr:  DefaultListenAddr,
		Prompt:      DefaultPrompt,
	}
}

// Merge overlays the non-zero fields of other onto c.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.PageSize > 0 {
		c.PageSize = other.PageSize
	}
	if other.Home != "" {
		c.Home = other.Home
	}
	if other.HistorySize > 0 {
		c.HistorySize = other.HistorySize
	}
	if other.HistoryFile != "" {
		c.HistoryFile = other.HistoryFile
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFile != "" {
		c.LogFile = other.LogFile
	}
	if other.Color != "" {
		c.Color = other.Color
	}
	if other.ListenAddr != "" {
		c.ListenAddr = other.ListenAddr
	}
	if other.Prompt != "" {
		c.Prompt = other.Prompt
	}
	if other.Source != "" {
		c.Source = other.Source
	}
}

// HomeDir is the expanded vlitz home directory.
func (c *Config) HomeDir() string {
	return utilfn.ExpandHomeDir(c.Home)
}

// HistoryPath defaults to history.db inside the home directory.
func (c *Config) HistoryPath() string {
	if c.HistoryFile != "" {
		return utilfn.ExpandHomeDir(c.HistoryFile)
	}
	return filepath.Join(c.HomeDir(), HistoryFileName)
}

func (c *Config) LogPath() string {
	if c.LogFile != "" {
		return utilfn.ExpandHomeDir(c.LogFile)
	}
	return filepath.Join(c.HomeDir(), LogFileName)
}

// UseColor resolves the color setting against whether output is a terminal.
func (c *Config) UseColor(isTerminal bool) bool {
	switch c.Color {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	return isTerminal
}
