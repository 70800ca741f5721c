// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package procengine

import (
	"runtime"

	"github.com/vlitzdev/vlitz/pkg/engine"
	"github.com/vlitzdev/vlitz/pkg/vzerr"
)

func readMaps(pid int32) ([]engine.RangeRecord, error) {
	return nil, vzerr.With(vzerr.ErrUnsupported, "memory maps on %s", runtime.GOOS)
}

func readProcessMemory(pid int32, address uint64, size int) ([]byte, error) {
	return nil, vzerr.With(vzerr.ErrUnsupported, "memory access on %s", runtime.GOOS)
}

func writeProcessMemory(pid int32, address uint64, raw []byte) error {
	return vzerr.With(vzerr.ErrUnsupported, "memory access on %s", runtime.GOOS)
}
