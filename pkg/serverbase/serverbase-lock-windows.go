// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

//go:build windows

package serverbase

import (
	"github.com/alexflint/go-filemutex"
	"github.com/vlitzdev/vlitz/pkg/vzlog"
)

func AcquireServerLock(home string) (FDLock, error) {
	lockFileName := lockFilePath(home)
	vzlog.Logger("base").Infof("acquiring lock on %s", lockFileName)
	m, err := filemutex.New(lockFileName)
	if err != nil {
		return nil, err
	}
	if err := m.TryLock(); err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}
