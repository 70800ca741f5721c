// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package memengine is an in-process simulated target. It backs the demo
// session and the executor tests with real byte-addressed memory, modules,
// exports and classes, without attaching to anything.
package memengine

import (
	"context"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vlitzdev/vlitz/pkg/engine"
	"github.com/vlitzdev/vlitz/pkg/memory"
	"github.com/vlitzdev/vlitz/pkg/vzerr"
)

const EngineName = "memory"

type Region struct {
	Base       uint64
	Protection string
	File       *string
	Data       []byte
}

func (r *Region) contains(addr uint64, size int) bool {
	return addr >= r.Base && addr-r.Base+uint64(size) <= uint64(len(r.Data))
}

type Module struct {
	engine.ModuleRecord
	Exports []engine.ExportRecord
}

// Engine guards all of its state with lock.
type Engine struct {
	lock    *sync.Mutex
	target  string
	regions []*Region
	modules []Module
	classes map[string][]engine.MethodRecord
	hooks   map[string]engine.Hook
	closed  bool
}

func MakeEngine(target string) *Engine {
	return &Engine{
		lock:    &sync.Mutex{},
		target:  target,
		classes: make(map[string][]engine.MethodRecord),
		hooks:   make(map[string]engine.Hook),
	}
}

// AddRegion maps size zeroed bytes at base.
func (e *Engine) AddRegion(base uint64, size int, protection string, file *string) *Region {
	e.lock.Lock()
	defer e.lock.Unlock()
	r := &Region{Base: base, Protection: protection, File: file, Data: make([]byte, size)}
	e.regions = append(e.regions, r)
	sort.Slice(e.regions, func(i, j int) bool { return e.regions[i].Base < e.regions[j].Base })
	return r
}

func (e *Engine) AddModule(mod Module) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.modules = append(e.modules, mod)
}

func (e *Engine) AddClass(name string, methods ...engine.MethodRecord) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.classes[name] = append(e.classes[name], methods...)
}

func (e *Engine) Name() string { return EngineName }

func (e *Engine) Attached() bool {
	e.lock.Lock()
	defer e.lock.Unlock()
	return !e.closed
}

func (e *Engine) Target() string { return e.target }

func (e *Engine) Close() error {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.closed = true
	return nil
}

func (e *Engine) checkAttached() error {
	if e.closed {
		return vzerr.ErrNotAttached
	}
	return nil
}

func (e *Engine) EnumerateModules(ctx context.Context) ([]engine.ModuleRecord, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if err := e.checkAttached(); err != nil {
		return nil, err
	}
	rtn := make([]engine.ModuleRecord, 0, len(e.modules))
	for _, mod := range e.modules {
		rtn = append(rtn, mod.ModuleRecord)
	}
	return rtn, nil
}

func (e *Engine) EnumerateExports(ctx context.Context, module string) ([]engine.ExportRecord, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if err := e.checkAttached(); err != nil {
		return nil, err
	}
	for _, mod := range e.modules {
		if mod.Name == module {
			return append([]engine.ExportRecord{}, mod.Exports...), nil
		}
	}
	return nil, vzerr.Errorf(vzerr.KindEngine, "module %q not found", module)
}

// EnumerateRanges returns regions whose protection covers every flag set in
// protection ("r-x" matches "rwx" but not "rw-").
func (e *Engine) EnumerateRanges(ctx context.Context, protection string) ([]engine.RangeRecord, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if err := e.checkAttached(); err != nil {
		return nil, err
	}
	var rtn []engine.RangeRecord
	for _, r := range e.regions {
		if !ProtectionCovers(r.Protection, protection) {
			continue
		}
		rtn = append(rtn, engine.RangeRecord{Base: r.Base, Size: len(r.Data), Protection: r.Protection, File: r.File})
	}
	return rtn, nil
}

// ProtectionCovers reports whether have grants every permission in want.
// '-' in want means "don't care".
func ProtectionCovers(have string, want string) bool {
	for i := 0; i < len(want) && i < 3; i++ {
		if want[i] == '-' {
			continue
		}
		if i >= len(have) || have[i] != want[i] {
			return false
		}
	}
	return true
}

func (e *Engine) EnumerateClasses(ctx context.Context) ([]string, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if err := e.checkAttached(); err != nil {
		return nil, err
	}
	rtn := make([]string, 0, len(e.classes))
	for name := range e.classes {
		rtn = append(rtn, name)
	}
	sort.Strings(rtn)
	return rtn, nil
}

func (e *Engine) EnumerateMethods(ctx context.Context, className string) ([]engine.MethodRecord, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if err := e.checkAttached(); err != nil {
		return nil, err
	}
	methods, ok := e.classes[className]
	if !ok {
		return nil, vzerr.Errorf(vzerr.KindEngine, "class %q not found", className)
	}
	return append([]engine.MethodRecord{}, methods...), nil
}

func (e *Engine) findRegion(addr uint64, size int) (*Region, error) {
	for _, r := range e.regions {
		if r.contains(addr, size) {
			return r, nil
		}
	}
	return nil, vzerr.Errorf(vzerr.KindMemoryAccess, "access violation at 0x%x (%d bytes)", addr, size)
}

func (e *Engine) ReadMemory(ctx context.Context, address uint64, size int, mtype memory.MemoryType) (memory.Value, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if err := e.checkAttached(); err != nil {
		return memory.Value{}, err
	}
	n := memory.ReadSize(mtype, size)
	r, err := e.findRegion(address, 1)
	if err != nil {
		return memory.Value{}, err
	}
	if !strings.HasPrefix(r.Protection, "r") {
		return memory.Value{}, vzerr.Errorf(vzerr.KindMemoryAccess, "region at 0x%x is not readable", r.Base)
	}
	// strings may run off the end of the region
	off := address - r.Base
	end := min(off+uint64(n), uint64(len(r.Data)))
	if mtype != memory.String && end-off < uint64(n) {
		return memory.Value{}, vzerr.Errorf(vzerr.KindMemoryAccess, "access violation at 0x%x (%d bytes)", address, n)
	}
	return memory.Decode(mtype, r.Data[off:end])
}

func (e *Engine) WriteMemory(ctx context.Context, address uint64, value memory.Value) error {
	e.lock.Lock()
	defer e.lock.Unlock()
	if err := e.checkAttached(); err != nil {
		return err
	}
	return e.writeLocked(address, value)
}

func (e *Engine) writeLocked(address uint64, value memory.Value) error {
	raw, err := memory.Encode(value)
	if err != nil {
		return err
	}
	r, err := e.findRegion(address, len(raw))
	if err != nil {
		return err
	}
	if len(r.Protection) < 2 || r.Protection[1] != 'w' {
		return vzerr.Errorf(vzerr.KindMemoryAccess, "region at 0x%x is not writable", r.Base)
	}
	copy(r.Data[address-r.Base:], raw)
	return nil
}

// Poke writes raw bytes regardless of protection. It stands in for the
// target program mutating its own memory.
func (e *Engine) Poke(address uint64, raw []byte) error {
	e.lock.Lock()
	defer e.lock.Unlock()
	r, err := e.findRegion(address, len(raw))
	if err != nil {
		return err
	}
	copy(r.Data[address-r.Base:], raw)
	e.reapplyLocksLocked()
	return nil
}

func hookKey(kind string, address uint64) string {
	return fmt.Sprintf("%s:%x", kind, address)
}

func (e *Engine) addHook(hook engine.Hook) error {
	key := hookKey(hook.Kind, hook.Address)
	if _, found := e.hooks[key]; found {
		return vzerr.Errorf(vzerr.KindEngine, "%s already active at 0x%x", hook.Kind, hook.Address)
	}
	e.hooks[key] = hook
	return nil
}

func (e *Engine) removeHook(kind string, address uint64) error {
	key := hookKey(kind, address)
	if _, found := e.hooks[key]; !found {
		return vzerr.Errorf(vzerr.KindEngine, "no %s active at 0x%x", kind, address)
	}
	delete(e.hooks, key)
	return nil
}

// locked values win over any Poke, the same way a lock agent keeps
// rewriting its value
func (e *Engine) reapplyLocksLocked() {
	for _, hook := range e.hooks {
		if hook.Kind != engine.HookLock {
			continue
		}
		value, err := memory.ParseValue(hook.Value, hook.Type)
		if err != nil {
			continue
		}
		e.writeLocked(hook.Address, value)
	}
}

func (e *Engine) Watch(ctx context.Context, address uint64, mtype memory.MemoryType) error {
	e.lock.Lock()
	defer e.lock.Unlock()
	if _, err := e.findRegion(address, max(mtype.Size(), 1)); err != nil {
		return err
	}
	return e.addHook(engine.Hook{Kind: engine.HookWatch, Address: address, Type: mtype})
}

func (e *Engine) Unwatch(ctx context.Context, address uint64) error {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.removeHook(engine.HookWatch, address)
}

func (e *Engine) Lock(ctx context.Context, address uint64, value memory.Value) error {
	e.lock.Lock()
	defer e.lock.Unlock()
	if err := e.writeLocked(address, value); err != nil {
		return err
	}
	return e.addHook(engine.Hook{Kind: engine.HookLock, Address: address, Type: value.Type, Value: rawValueText(value)})
}

func (e *Engine) Unlock(ctx context.Context, address uint64) error {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.removeHook(engine.HookLock, address)
}

func (e *Engine) Trace(ctx context.Context, address uint64) error {
	e.lock.Lock()
	defer e.lock.Unlock()
	if _, err := e.findRegion(address, 1); err != nil {
		return err
	}
	return e.addHook(engine.Hook{Kind: engine.HookTrace, Address: address})
}

func (e *Engine) Untrace(ctx context.Context, address uint64) error {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.removeHook(engine.HookTrace, address)
}

func (e *Engine) Hooks() []engine.Hook {
	e.lock.Lock()
	defer e.lock.Unlock()
	rtn := make([]engine.Hook, 0, len(e.hooks))
	for _, hook := range e.hooks {
		rtn = append(rtn, hook)
	}
	sort.Slice(rtn, func(i, j int) bool {
		if rtn[i].Address != rtn[j].Address {
			return rtn[i].Address < rtn[j].Address
		}
		return rtn[i].Kind < rtn[j].Kind
	})
	return rtn
}

// rawValueText is the ParseValue-compatible spelling of v.
func rawValueText(v memory.Value) string {
	switch v.Type {
	case memory.String:
		return v.Str
	case memory.Bytes:
		return "0x" + hex.EncodeToString(v.Raw)
	}
	return v.String()
}
