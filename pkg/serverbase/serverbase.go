// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package serverbase holds process-wide build info and the lock that keeps
// two "vlitz serve" instances from sharing one home directory.
package serverbase

import (
	"os"
	"path/filepath"

	"github.com/vlitzdev/vlitz/pkg/utilfn"
)

// VlitzVersion is set from main-vlitz.go during initialization
var VlitzVersion = "v0.0.0"

// VlitzBuildTime is set from main-vlitz.go during initialization
var VlitzBuildTime = ""

const VlitzLockFile = "vlitz.lock"
const VlitzDevEnvName = "VLITZ_DEV"

type FDLock interface {
	Close() error
}

// IsDev returns true if vlitz is running in development mode
func IsDev() bool {
	return os.Getenv(VlitzDevEnvName) == "1"
}

func EnsureHomeDir(home string) error {
	return os.MkdirAll(utilfn.ExpandHomeDir(home), 0755)
}

func lockFilePath(home string) string {
	return filepath.Join(utilfn.ExpandHomeDir(home), VlitzLockFile)
}
