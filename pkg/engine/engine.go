// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package engine defines the narrow surface vlitz needs from an
// instrumentation backend: enumeration of target objects, typed memory
// access and (optionally) watch/lock/trace hooks. Records returned by an
// engine are converted into inspection items by the helpers in records.go.
package engine

import (
	"context"
	"fmt"

	"github.com/vlitzdev/vlitz/pkg/memory"
	"github.com/vlitzdev/vlitz/pkg/vzerr"
)

const DetachedName = "detached"

type ProcessInfo struct {
	Pid     int32  `json:"pid"`
	Name    string `json:"name"`
	User    string `json:"user,omitempty"`
	Cmdline string `json:"cmdline,omitempty"`
}

type DeviceInfo struct {
	Id   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type ModuleRecord struct {
	Name string `json:"name"`
	Base uint64 `json:"base"`
	Size int    `json:"size"`
	Path string `json:"path,omitempty"`
}

const (
	ExportFunction = "function"
	ExportVariable = "variable"
)

type ExportRecord struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Address uint64 `json:"address"`
}

type RangeRecord struct {
	Base       uint64  `json:"base"`
	Size       int     `json:"size"`
	Protection string  `json:"protection"`
	File       *string `json:"file,omitempty"`
}

type MethodRecord struct {
	Name          string   `json:"name"`
	ReturnType    string   `json:"returnType"`
	ArgumentTypes []string `json:"argumentTypes"`
}

// Engine is implemented by every instrumentation backend. All methods may
// block on target I/O and honor ctx cancellation where the backend can.
type Engine interface {
	Name() string
	Attached() bool
	Target() string

	EnumerateModules(ctx context.Context) ([]ModuleRecord, error)
	EnumerateExports(ctx context.Context, module string) ([]ExportRecord, error)
	EnumerateRanges(ctx context.Context, protection string) ([]RangeRecord, error)
	EnumerateClasses(ctx context.Context) ([]string, error)
	EnumerateMethods(ctx context.Context, className string) ([]MethodRecord, error)

	// size is only used for variable width types (String, Bytes)
	ReadMemory(ctx context.Context, address uint64, size int, mtype memory.MemoryType) (memory.Value, error)
	WriteMemory(ctx context.Context, address uint64, value memory.Value) error

	Close() error
}

// Tracer is implemented by engines that can keep long-lived hooks in the target.
type Tracer interface {
	Watch(ctx context.Context, address uint64, mtype memory.MemoryType) error
	Unwatch(ctx context.Context, address uint64) error
	Lock(ctx context.Context, address uint64, value memory.Value) error
	Unlock(ctx context.Context, address uint64) error
	Trace(ctx context.Context, address uint64) error
	Untrace(ctx context.Context, address uint64) error
	Hooks() []Hook
}

const (
	HookWatch = "watch"
	HookLock  = "lock"
	HookTrace = "trace"
)

type Hook struct {
	Kind    string            `json:"kind"`
	Address uint64            `json:"address"`
	Type    memory.MemoryType `json:"type"`
	Value   string            `json:"value,omitempty"`
}

// ProcessManager enumerates and controls processes on a device. It is used
// by the CLI (ps, kill, target lookup) and is independent of any attachment.
type ProcessManager interface {
	EnumerateDevices(ctx context.Context) ([]DeviceInfo, error)
	EnumerateProcesses(ctx context.Context) ([]ProcessInfo, error)
	FindProcessByName(ctx context.Context, name string) (ProcessInfo, error)
	KillProcess(ctx context.Context, pid int32) error
}

// Detached is the engine used before any process is attached. Every target
// operation fails with ErrNotAttached.
type Detached struct{}

func MakeDetached() *Detached {
	return &Detached{}
}

func (*Detached) Name() string   { return DetachedName }
func (*Detached) Attached() bool { return false }
func (*Detached) Target() string { return "" }
func (*Detached) Close() error   { return nil }

func (*Detached) EnumerateModules(ctx context.Context) ([]ModuleRecord, error) {
	return nil, vzerr.ErrNotAttached
}

func (*Detached) EnumerateExports(ctx context.Context, module string) ([]ExportRecord, error) {
	return nil, vzerr.ErrNotAttached
}

func (*Detached) EnumerateRanges(ctx context.Context, protection string) ([]RangeRecord, error) {
	return nil, vzerr.ErrNotAttached
}

func (*Detached) EnumerateClasses(ctx context.Context) ([]string, error) {
	return nil, vzerr.ErrNotAttached
}

func (*Detached) EnumerateMethods(ctx context.Context, className string) ([]MethodRecord, error) {
	return nil, vzerr.ErrNotAttached
}

func (*Detached) ReadMemory(ctx context.Context, address uint64, size int, mtype memory.MemoryType) (memory.Value, error) {
	return memory.Value{}, vzerr.ErrNotAttached
}

func (*Detached) WriteMemory(ctx context.Context, address uint64, value memory.Value) error {
	return vzerr.ErrNotAttached
}

// Unsupported builds the error returned when an engine lacks an operation.
// It matches vzerr.ErrUnsupported under errors.Is.
func Unsupported(e Engine, op string) *vzerr.Error {
	return &vzerr.Error{
		Kind: vzerr.KindEngine,
		Msg:  fmt.Sprintf("%s is not supported by the %s engine", op, e.Name()),
		Err:  vzerr.ErrUnsupported,
	}
}
