// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package procengine is the local backend. Process listing and control go
// through gopsutil on every platform; attaching (ranges, modules and memory
// access) is only available where the OS exposes another process's memory
// (linux).
package procengine

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/vlitzdev/vlitz/pkg/engine"
	"github.com/vlitzdev/vlitz/pkg/memory"
	"github.com/vlitzdev/vlitz/pkg/vzerr"
	"github.com/vlitzdev/vlitz/pkg/vzlog"
)

const EngineName = "local"

const LocalDeviceId = "local"

// Manager implements engine.ProcessManager for the local machine.
type Manager struct{}

func MakeManager() *Manager {
	return &Manager{}
}

func (m *Manager) EnumerateDevices(ctx context.Context) ([]engine.DeviceInfo, error) {
	name := "Local System"
	if info, err := host.InfoWithContext(ctx); err == nil && info.Hostname != "" {
		name = fmt.Sprintf("Local System (%s, %s)", info.Hostname, info.Platform)
	}
	return []engine.DeviceInfo{{Id: LocalDeviceId, Name: name, Type: "local"}}, nil
}

// EnumerateProcesses lists the processes visible to the current user, sorted
// by pid. Processes that exit while being listed are skipped.
func (m *Manager) EnumerateProcesses(ctx context.Context) ([]engine.ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, vzerr.Wrap(err, "listing processes")
	}
	rtn := make([]engine.ProcessInfo, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		info := engine.ProcessInfo{Pid: p.Pid, Name: name}
		info.User, _ = p.UsernameWithContext(ctx)
		info.Cmdline, _ = p.CmdlineWithContext(ctx)
		rtn = append(rtn, info)
	}
	sort.Slice(rtn, func(i, j int) bool { return rtn[i].Pid < rtn[j].Pid })
	return rtn, nil
}

// FindProcessByName returns the first process (lowest pid) whose name
// contains name. An exact match wins over a substring match.
func (m *Manager) FindProcessByName(ctx context.Context, name string) (engine.ProcessInfo, error) {
	procs, err := m.EnumerateProcesses(ctx)
	if err != nil {
		return engine.ProcessInfo{}, err
	}
	return matchProcess(procs, name)
}

func matchProcess(procs []engine.ProcessInfo, name string) (engine.ProcessInfo, error) {
	for _, p := range procs {
		if p.Name == name {
			return p, nil
		}
	}
	for _, p := range procs {
		if strings.Contains(p.Name, name) {
			return p, nil
		}
	}
	return engine.ProcessInfo{}, vzerr.Errorf(vzerr.KindEngine, "process %q not found", name)
}

func (m *Manager) KillProcess(ctx context.Context, pid int32) error {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return vzerr.Errorf(vzerr.KindEngine, "process %d not found: %v", pid, err)
	}
	if err := p.KillWithContext(ctx); err != nil {
		return vzerr.Errorf(vzerr.KindEngine, "killing process %d: %v", pid, err)
	}
	return nil
}

// ResolveTarget turns a pid or process name into a running process.
func (m *Manager) ResolveTarget(ctx context.Context, target string) (engine.ProcessInfo, error) {
	if pid, err := strconv.ParseInt(target, 10, 32); err == nil {
		p, err := process.NewProcessWithContext(ctx, int32(pid))
		if err != nil {
			return engine.ProcessInfo{}, vzerr.Errorf(vzerr.KindEngine, "process %d not found", pid)
		}
		name, _ := p.NameWithContext(ctx)
		return engine.ProcessInfo{Pid: p.Pid, Name: name}, nil
	}
	return m.FindProcessByName(ctx, target)
}

// Engine is attached to a single local process.
type Engine struct {
	proc engine.ProcessInfo
}

// Attach checks that the process exists and returns an engine bound to it.
func Attach(ctx context.Context, proc engine.ProcessInfo) (*Engine, error) {
	exists, err := process.PidExistsWithContext(ctx, proc.Pid)
	if err != nil || !exists {
		return nil, vzerr.Errorf(vzerr.KindEngine, "process %d is not running", proc.Pid)
	}
	if proc.Pid == int32(os.Getpid()) {
		vzlog.Logger("engine").Warnf("attaching to own process %d", proc.Pid)
	}
	vzlog.Logger("engine").Infof("attached to %s (pid %d) on %s", proc.Name, proc.Pid, runtime.GOOS)
	return &Engine{proc: proc}, nil
}

func (e *Engine) Name() string   { return EngineName }
func (e *Engine) Attached() bool { return true }
func (e *Engine) Close() error   { return nil }

func (e *Engine) Target() string {
	return fmt.Sprintf("%s[%d]", e.proc.Name, e.proc.Pid)
}

func (e *Engine) Pid() int32 {
	return e.proc.Pid
}

func (e *Engine) EnumerateRanges(ctx context.Context, protection string) ([]engine.RangeRecord, error) {
	maps, err := readMaps(e.proc.Pid)
	if err != nil {
		return nil, err
	}
	var rtn []engine.RangeRecord
	for _, m := range maps {
		if protectionCovers(m.Protection, protection) {
			rtn = append(rtn, m)
		}
	}
	return rtn, nil
}

// EnumerateModules groups file-backed mappings by path; a module spans from
// its lowest to its highest mapping.
func (e *Engine) EnumerateModules(ctx context.Context) ([]engine.ModuleRecord, error) {
	maps, err := readMaps(e.proc.Pid)
	if err != nil {
		return nil, err
	}
	return modulesFromRanges(maps), nil
}

func modulesFromRanges(maps []engine.RangeRecord) []engine.ModuleRecord {
	var rtn []engine.ModuleRecord
	byPath := make(map[string]int)
	for _, m := range maps {
		if m.File == nil || !strings.HasPrefix(*m.File, "/") {
			continue
		}
		path := *m.File
		idx, found := byPath[path]
		if !found {
			byPath[path] = len(rtn)
			rtn = append(rtn, engine.ModuleRecord{Name: baseName(path), Base: m.Base, Size: m.Size, Path: path})
			continue
		}
		mod := &rtn[idx]
		end := max(mod.Base+uint64(mod.Size), m.Base+uint64(m.Size))
		mod.Base = min(mod.Base, m.Base)
		mod.Size = int(end - mod.Base)
	}
	return rtn
}

func baseName(path string) string {
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

func protectionCovers(have string, want string) bool {
	for i := 0; i < len(want) && i < 3; i++ {
		if want[i] != '-' && (i >= len(have) || have[i] != want[i]) {
			return false
		}
	}
	return true
}

func (e *Engine) EnumerateExports(ctx context.Context, module string) ([]engine.ExportRecord, error) {
	return nil, engine.Unsupported(e, "list exports")
}

func (e *Engine) EnumerateClasses(ctx context.Context) ([]string, error) {
	return nil, engine.Unsupported(e, "list class")
}

func (e *Engine) EnumerateMethods(ctx context.Context, className string) ([]engine.MethodRecord, error) {
	return nil, engine.Unsupported(e, "list method")
}

func (e *Engine) ReadMemory(ctx context.Context, address uint64, size int, mtype memory.MemoryType) (memory.Value, error) {
	n := memory.ReadSize(mtype, size)
	raw, err := readProcessMemory(e.proc.Pid, address, n)
	if err != nil {
		return memory.Value{}, vzerr.Errorf(vzerr.KindMemoryAccess, "reading %d bytes at 0x%x: %v", n, address, err)
	}
	return memory.Decode(mtype, raw)
}

func (e *Engine) WriteMemory(ctx context.Context, address uint64, value memory.Value) error {
	raw, err := memory.Encode(value)
	if err != nil {
		return err
	}
	if err := writeProcessMemory(e.proc.Pid, address, raw); err != nil {
		return vzerr.Errorf(vzerr.KindMemoryAccess, "writing %d bytes at 0x%x: %v", len(raw), address, err)
	}
	return nil
}
