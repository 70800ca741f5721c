// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package procengine

import (
	"fmt"
	"os"

	"github.com/vlitzdev/vlitz/pkg/engine"
	"github.com/vlitzdev/vlitz/pkg/vzerr"
	"golang.org/x/sys/unix"
)

func readMaps(pid int32) ([]engine.RangeRecord, error) {
	fd, err := os.Open(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		return nil, vzerr.Errorf(vzerr.KindIO, "reading memory map of %d: %v", pid, err)
	}
	defer fd.Close()
	return parseMaps(fd)
}

func readProcessMemory(pid int32, address uint64, size int) ([]byte, error) {
	if size <= 0 {
		return nil, nil
	}
	buf := make([]byte, size)
	local := []unix.Iovec{{Base: &buf[0]}}
	local[0].SetLen(size)
	remote := []unix.RemoteIovec{{Base: uintptr(address), Len: size}}
	n, err := unix.ProcessVMReadv(int(pid), local, remote, 0)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func writeProcessMemory(pid int32, address uint64, raw []byte) error {
	if len(raw) == 0 {
		return nil
	}
	local := []unix.Iovec{{Base: &raw[0]}}
	local[0].SetLen(len(raw))
	remote := []unix.RemoteIovec{{Base: uintptr(address), Len: len(raw)}}
	n, err := unix.ProcessVMWritev(int(pid), local, remote, 0)
	if err != nil {
		return err
	}
	if n != len(raw) {
		return fmt.Errorf("short write: %d of %d bytes", n, len(raw))
	}
	return nil
}
