// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

//go:build !windows

package serverbase

import (
	"os"

	"github.com/vlitzdev/vlitz/pkg/vzlog"
	"golang.org/x/sys/unix"
)

// AcquireServerLock takes an exclusive, non-blocking flock on the lock file
// in home. Close the returned lock to release it.
func AcquireServerLock(home string) (FDLock, error) {
	lockFileName := lockFilePath(home)
	vzlog.Logger("base").Infof("acquiring lock on %s", lockFileName)
	fd, err := os.OpenFile(lockFileName, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, err
	}
	err = unix.Flock(int(fd.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err != nil {
		fd.Close()
		return nil, err
	}
	return fd, nil
}
