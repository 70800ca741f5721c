// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package memengine

import (
	"context"
	"errors"
	"testing"

	"github.com/vlitzdev/vlitz/pkg/engine"
	"github.com/vlitzdev/vlitz/pkg/memory"
	"github.com/vlitzdev/vlitz/pkg/vzerr"
)

var (
	_ engine.Engine = (*Engine)(nil)
	_ engine.Tracer = (*Engine)(nil)
)

func TestDemoRead(t *testing.T) {
	e := MakeDemo()
	ctx := context.Background()
	tests := []struct {
		addr  uint64
		mtype memory.MemoryType
		want  string
	}{
		{DemoGoldAddr, memory.UInt, "250"},
		{DemoHealthAddr, memory.Int, "100"},
		{DemoSpeedAddr, memory.Float, "1.5"},
		{DemoTickAddr, memory.ULong, "4711"},
		{DemoNameAddr, memory.String, `"farmer"`},
	}
	for _, tt := range tests {
		v, err := e.ReadMemory(ctx, tt.addr, 0, tt.mtype)
		if err != nil {
			t.Fatalf("ReadMemory(0x%x): %v", tt.addr, err)
		}
		if v.String() != tt.want {
			t.Errorf("ReadMemory(0x%x, %v) = %s, want %s", tt.addr, tt.mtype, v.String(), tt.want)
		}
	}
}

func TestReadWriteErrors(t *testing.T) {
	e := MakeDemo()
	ctx := context.Background()
	if _, err := e.ReadMemory(ctx, 0x10, 0, memory.Int); vzerr.KindOf(err) != vzerr.KindMemoryAccess {
		t.Errorf("unmapped read error = %v", err)
	}
	// last 2 bytes of the data region cannot hold an int
	if _, err := e.ReadMemory(ctx, DemoDataBase+DemoDataSize-2, 0, memory.Int); err == nil {
		t.Errorf("read across region end should fail")
	}
	if err := e.WriteMemory(ctx, DemoTextBase, memory.Value{Type: memory.Int, Int: 1}); err == nil {
		t.Errorf("write to r-x region should fail")
	}
	e.Close()
	if _, err := e.EnumerateModules(ctx); !errors.Is(err, vzerr.ErrNotAttached) {
		t.Errorf("closed engine error = %v", err)
	}
}

func TestEnumerate(t *testing.T) {
	e := MakeDemo()
	ctx := context.Background()
	mods, _ := e.EnumerateModules(ctx)
	if len(mods) != 2 || mods[0].Name != "acres" {
		t.Errorf("modules = %+v", mods)
	}
	exports, err := e.EnumerateExports(ctx, "libc.so.6")
	if err != nil || len(exports) != 6 {
		t.Errorf("libc exports = %d, %v", len(exports), err)
	}
	if _, err := e.EnumerateExports(ctx, "nope"); err == nil {
		t.Errorf("unknown module should fail")
	}
	ranges, _ := e.EnumerateRanges(ctx, "r-x")
	if len(ranges) != 2 {
		t.Errorf("r-x ranges = %d, want 2", len(ranges))
	}
	ranges, _ = e.EnumerateRanges(ctx, "")
	if len(ranges) != 4 {
		t.Errorf("all ranges = %d, want 4", len(ranges))
	}
	classes, _ := e.EnumerateClasses(ctx)
	if len(classes) != 3 || classes[0] != "com.acres.Farm" {
		t.Errorf("classes = %v", classes)
	}
	methods, _ := e.EnumerateMethods(ctx, "com.acres.Player")
	if len(methods) != 3 {
		t.Errorf("methods = %v", methods)
	}
}

func TestProtectionCovers(t *testing.T) {
	tests := []struct {
		have, want string
		ok         bool
	}{
		{"rwx", "r-x", true},
		{"rw-", "r-x", false},
		{"r--", "---", true},
		{"r--", "", true},
		{"---", "r", false},
	}
	for _, tt := range tests {
		if got := ProtectionCovers(tt.have, tt.want); got != tt.ok {
			t.Errorf("ProtectionCovers(%q, %q) = %v", tt.have, tt.want, got)
		}
	}
}

func TestLockSurvivesPoke(t *testing.T) {
	e := MakeDemo()
	ctx := context.Background()
	if err := e.Lock(ctx, DemoGoldAddr, memory.Value{Type: memory.UInt, Uint: 9999}); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	e.Tick()
	v, _ := e.ReadMemory(ctx, DemoGoldAddr, 0, memory.UInt)
	if v.Uint != 9999 {
		t.Errorf("locked gold = %d, want 9999", v.Uint)
	}
	if err := e.Lock(ctx, DemoGoldAddr, memory.Value{Type: memory.UInt, Uint: 1}); err == nil {
		t.Errorf("double lock should fail")
	}
	if err := e.Unlock(ctx, DemoGoldAddr); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	e.Tick()
	v, _ = e.ReadMemory(ctx, DemoGoldAddr, 0, memory.UInt)
	if v.Uint != 10000 {
		t.Errorf("gold after unlock+tick = %d, want 10000", v.Uint)
	}
}

func TestHooks(t *testing.T) {
	e := MakeDemo()
	ctx := context.Background()
	if err := e.Watch(ctx, DemoHealthAddr, memory.Int); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if err := e.Trace(ctx, DemoTextBase+0x200); err != nil {
		t.Fatalf("Trace: %v", err)
	}
	if err := e.Trace(ctx, 0x10); err == nil {
		t.Errorf("trace of unmapped address should fail")
	}
	hooks := e.Hooks()
	if len(hooks) != 2 || hooks[0].Kind != engine.HookTrace || hooks[1].Kind != engine.HookWatch {
		t.Errorf("hooks = %+v", hooks)
	}
	if err := e.Untrace(ctx, DemoTextBase+0x200); err != nil {
		t.Errorf("Untrace: %v", err)
	}
	if err := e.Unwatch(ctx, DemoTextBase); err == nil {
		t.Errorf("unwatch of unknown address should fail")
	}
}
