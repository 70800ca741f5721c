// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package memengine

import (
	"context"

	"github.com/vlitzdev/vlitz/pkg/engine"
	"github.com/vlitzdev/vlitz/pkg/memory"
)

const DemoTarget = "acres"

// Demo layout: a small farming game with its state in the .data section of
// the main module.
const (
	DemoTextBase = 0x400000
	DemoTextSize = 0x2000
	DemoDataBase = 0x600000
	DemoDataSize = 0x1000
	DemoHeapBase = 0x7f0000000000
	DemoHeapSize = 0x4000
	DemoLibcBase = 0x7f1000000000
	DemoLibcSize = 0x1000

	DemoGoldAddr   = DemoDataBase + 0x10 // uint
	DemoHealthAddr = DemoDataBase + 0x14 // int
	DemoSpeedAddr  = DemoDataBase + 0x18 // float
	DemoTickAddr   = DemoDataBase + 0x20 // ulong
	DemoNameAddr   = DemoDataBase + 0x40 // string
)

// MakeDemo returns an engine preloaded with the demo target.
func MakeDemo() *Engine {
	e := MakeEngine(DemoTarget)
	binPath := "/usr/local/bin/acres"
	libcPath := "/usr/lib/libc.so.6"
	e.AddRegion(DemoTextBase, DemoTextSize, "r-x", &binPath)
	e.AddRegion(DemoDataBase, DemoDataSize, "rw-", &binPath)
	e.AddRegion(DemoHeapBase, DemoHeapSize, "rw-", nil)
	e.AddRegion(DemoLibcBase, DemoLibcSize, "r-x", &libcPath)

	e.AddModule(Module{
		ModuleRecord: engine.ModuleRecord{Name: "acres", Base: DemoTextBase, Size: DemoTextSize, Path: binPath},
		Exports: []engine.ExportRecord{
			{Type: engine.ExportFunction, Name: "main", Address: DemoTextBase + 0x100},
			{Type: engine.ExportFunction, Name: "game_tick", Address: DemoTextBase + 0x200},
			{Type: engine.ExportFunction, Name: "plant_crop", Address: DemoTextBase + 0x300},
			{Type: engine.ExportFunction, Name: "harvest", Address: DemoTextBase + 0x380},
			{Type: engine.ExportVariable, Name: "player_gold", Address: DemoGoldAddr},
			{Type: engine.ExportVariable, Name: "player_health", Address: DemoHealthAddr},
			{Type: engine.ExportVariable, Name: "player_name", Address: DemoNameAddr},
		},
	})
	e.AddModule(Module{
		ModuleRecord: engine.ModuleRecord{Name: "libc.so.6", Base: DemoLibcBase, Size: DemoLibcSize, Path: libcPath},
		Exports: []engine.ExportRecord{
			{Type: engine.ExportFunction, Name: "open", Address: DemoLibcBase + 0x10},
			{Type: engine.ExportFunction, Name: "openat", Address: DemoLibcBase + 0x20},
			{Type: engine.ExportFunction, Name: "read", Address: DemoLibcBase + 0x30},
			{Type: engine.ExportFunction, Name: "write", Address: DemoLibcBase + 0x40},
			{Type: engine.ExportFunction, Name: "malloc", Address: DemoLibcBase + 0x50},
			{Type: engine.ExportVariable, Name: "errno", Address: DemoLibcBase + 0x800},
		},
	})

	e.AddClass("com.acres.Farm",
		engine.MethodRecord{Name: "plant", ReturnType: "boolean", ArgumentTypes: []string{"int", "int", "java.lang.String"}},
		engine.MethodRecord{Name: "harvest", ReturnType: "int", ArgumentTypes: []string{"int", "int"}},
		engine.MethodRecord{Name: "getTick", ReturnType: "long"},
	)
	e.AddClass("com.acres.Player",
		engine.MethodRecord{Name: "getGold", ReturnType: "int"},
		engine.MethodRecord{Name: "setGold", ReturnType: "void", ArgumentTypes: []string{"int"}},
		engine.MethodRecord{Name: "getName", ReturnType: "java.lang.String"},
	)
	e.AddClass("com.acres.MainActivity",
		engine.MethodRecord{Name: "onCreate", ReturnType: "void", ArgumentTypes: []string{"android.os.Bundle"}},
	)

	pokeValue(e, DemoGoldAddr, memory.Value{Type: memory.UInt, Uint: 250})
	pokeValue(e, DemoHealthAddr, memory.Value{Type: memory.Int, Int: 100})
	pokeValue(e, DemoSpeedAddr, memory.Value{Type: memory.Float, Float: 1.5})
	pokeValue(e, DemoTickAddr, memory.Value{Type: memory.ULong, Uint: 4711})
	pokeValue(e, DemoNameAddr, memory.Value{Type: memory.String, Str: "farmer"})
	return e
}

func pokeValue(e *Engine, addr uint64, v memory.Value) {
	raw, err := memory.Encode(v)
	if err != nil {
		panic(err)
	}
	if err := e.Poke(addr, raw); err != nil {
		panic(err)
	}
}

// Tick advances the demo game by one step: the tick counter increments and
// the player earns one gold piece.
func (e *Engine) Tick() {
	ctx := context.Background()
	tick, err := e.ReadMemory(ctx, DemoTickAddr, 0, memory.ULong)
	if err != nil {
		return
	}
	gold, err := e.ReadMemory(ctx, DemoGoldAddr, 0, memory.UInt)
	if err != nil {
		return
	}
	pokeValue(e, DemoTickAddr, memory.Value{Type: memory.ULong, Uint: tick.Uint + 1})
	pokeValue(e, DemoGoldAddr, memory.Value{Type: memory.UInt, Uint: gold.Uint + 1})
}
