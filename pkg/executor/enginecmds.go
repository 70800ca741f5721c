// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/vlitzdev/vlitz/pkg/command"
	"github.com/vlitzdev/vlitz/pkg/engine"
	"github.com/vlitzdev/vlitz/pkg/filter"
	"github.com/vlitzdev/vlitz/pkg/memory"
	"github.com/vlitzdev/vlitz/pkg/navigator"
	"github.com/vlitzdev/vlitz/pkg/utilfn"
	"github.com/vlitzdev/vlitz/pkg/vzdata"
	"github.com/vlitzdev/vlitz/pkg/vzerr"
)

const DefaultDumpSize = 64

// largest region "mem dump" reads in one go
const MaxDumpSize = 4096

var protectionRe = regexp.MustCompile(`^[r-][w-][x-]$`)

// appendToLog narrows items by the optional filter args, adds the rest to the
// log and returns them with their global indices.
func (e *Executor) appendToLog(ctx context.Context, what string, items []*vzdata.Item, filterArgs []command.Arg) Result {
	total := len(items)
	if len(filterArgs) > 0 {
		cond, err := filter.Parse(joinArgs(filterArgs))
		if err != nil {
			return Error("Invalid filter: %v", err)
		}
		fctx := e.filterContext(ctx)
		kept := items[:0]
		for _, item := range items {
			if cond.Match(fctx, item) {
				kept = append(kept, item)
			}
		}
		items = kept
	}
	if len(items) == 0 {
		return Success("No %s found (%d filtered out)", what, total)
	}
	start := e.store.AddMultipleToLog(items) + e.store.LibLen()
	rtn := make([]vzdata.IndexedItem, len(items))
	for i, item := range items {
		rtn[i] = vzdata.IndexedItem{Index: start + i, Item: item}
	}
	return DataList(fmt.Sprintf("Added %d %s to log", len(items), what), rtn)
}

func (e *Executor) listClass(ctx context.Context, args []command.Arg) Result {
	classes, err := e.engine.EnumerateClasses(ctx)
	if err != nil {
		return errResult(err)
	}
	return e.appendToLog(ctx, "classes", engine.ClassItems(classes), args)
}

// listMethod enumerates the methods of the selected class, or of the class
// named by the first argument.
func (e *Executor) listMethod(ctx context.Context, args []command.Arg) Result {
	var className string
	if len(args) > 0 {
		if s, ok := args[0].(command.StringArg); ok {
			className = s.Value
			args = args[1:]
		}
	}
	if className == "" {
		sel := e.nav.Selected()
		if sel != nil && sel.Type == vzdata.TypeClass {
			className, _ = sel.Name()
		}
	}
	if className == "" {
		return Error("Select a class or name one")
	}
	methods, err := e.engine.EnumerateMethods(ctx, className)
	if err != nil {
		return errResult(err)
	}
	return e.appendToLog(ctx, "methods", engine.MethodItems(className, methods), args)
}

func (e *Executor) listModule(ctx context.Context, args []command.Arg) Result {
	mods, err := e.engine.EnumerateModules(ctx)
	if err != nil {
		return errResult(err)
	}
	return e.appendToLog(ctx, "modules", engine.ModuleItems(mods), args)
}

func (e *Executor) listExports(ctx context.Context, args []command.Arg) Result {
	var module string
	if len(args) > 0 {
		if s, ok := args[0].(command.StringArg); ok {
			module = s.Value
			args = args[1:]
		}
	}
	if module == "" {
		if mod, ok := e.selectedModule(); ok {
			module = mod.Name
		}
	}
	if module == "" {
		return Error("Select a module or name one")
	}
	exports, err := e.engine.EnumerateExports(ctx, module)
	if err != nil {
		return errResult(err)
	}
	return e.appendToLog(ctx, "exports", engine.ExportItems(exports), args)
}

func (e *Executor) selectedModule() (*vzdata.Module, bool) {
	sel := e.nav.Selected()
	if sel == nil {
		return nil, false
	}
	return sel.AsModule()
}

func (e *Executor) listRange(ctx context.Context, args []command.Arg) Result {
	protection := "---"
	if len(args) > 0 && protectionRe.MatchString(args[0].String()) {
		protection = args[0].String()
		args = args[1:]
	}
	ranges, err := e.engine.EnumerateRanges(ctx, protection)
	if err != nil {
		return errResult(err)
	}
	return e.appendToLog(ctx, "ranges", engine.RangeItems(ranges), args)
}

// memTarget is an address with the memory type it is read as.
type memTarget struct {
	addr  uint64
	mtype memory.MemoryType
	size  int
}

func targetOf(item *vzdata.Item) (memTarget, error) {
	if ptr, ok := item.AsPointer(); ok {
		return memTarget{addr: ptr.Address, mtype: ptr.MemoryType, size: ptr.Size}, nil
	}
	addr, ok := item.Address()
	if !ok {
		return memTarget{}, vzerr.With(vzerr.ErrNoAddressField, "%s", item.Type)
	}
	return memTarget{addr: addr, mtype: navigator.DefaultPointerType}, nil
}

func isTargetArg(arg command.Arg) bool {
	switch arg.(type) {
	case command.AddressArg, command.SelectorArg, command.NumberArg:
		return true
	}
	return false
}

// resolveTarget takes the target from the first argument when consume is
// set and it looks like an address or selector, and from the navigator
// selection otherwise. It returns the arguments left over.
func (e *Executor) resolveTarget(args []command.Arg, consume bool) (memTarget, []command.Arg, error) {
	if consume && len(args) > 0 && isTargetArg(args[0]) {
		if addr, ok := args[0].(command.AddressArg); ok {
			return memTarget{addr: addr.Value, mtype: navigator.DefaultPointerType}, args[1:], nil
		}
		item, err := e.singleItem(args[0])
		if err != nil {
			return memTarget{}, nil, err
		}
		t, err := targetOf(item)
		return t, args[1:], err
	}
	sel := e.nav.Selected()
	if sel == nil {
		return memTarget{}, nil, vzerr.ErrNoSelection
	}
	t, err := targetOf(sel)
	return t, args, err
}

// typeArg looks for an explicit memory type among args.
func typeArg(args []command.Arg) (memory.MemoryType, bool, error) {
	for _, arg := range args {
		s, ok := arg.(command.StringArg)
		if !ok {
			continue
		}
		mtype, ok := memory.ParseType(s.Value)
		if !ok {
			return 0, false, vzerr.Errorf(vzerr.KindTypeConversion, "unknown memory type %q", s.Value)
		}
		return mtype, true, nil
	}
	return 0, false, nil
}

func (e *Executor) memRead(ctx context.Context, args []command.Arg) Result {
	target, rest, err := e.resolveTarget(args, true)
	if err != nil {
		return Error("Failed to read memory: %v", err)
	}
	mtype, found, err := typeArg(rest)
	if err != nil {
		return errResult(err)
	}
	size := target.size
	if found && mtype != target.mtype {
		target.mtype = mtype
		size = 0
	}
	value, err := e.engine.ReadMemory(ctx, target.addr, size, target.mtype)
	if err != nil {
		return Error("Failed to read memory: %v", err)
	}
	return Success("0x%x [%s] = %s", target.addr, target.mtype, value)
}

func (e *Executor) memWrite(ctx context.Context, args []command.Arg) Result {
	if len(args) == 0 {
		return Error("Value argument required")
	}
	target, rest, err := e.resolveTarget(args, len(args) >= 2 && !isTypeName(args[1]))
	if err != nil {
		return Error("Failed to write memory: %v", err)
	}
	if len(rest) == 0 {
		return Error("Value argument required")
	}
	mtype, found, err := typeArg(rest[1:])
	if err != nil {
		return errResult(err)
	}
	if found {
		target.mtype = mtype
	}
	value, err := memory.ParseValue(rest[0].String(), target.mtype)
	if err != nil {
		return errResult(err)
	}
	if err := e.engine.WriteMemory(ctx, target.addr, value); err != nil {
		return Error("Failed to write memory: %v", err)
	}
	return Success("Wrote %s to 0x%x", value, target.addr)
}

func isTypeName(arg command.Arg) bool {
	s, ok := arg.(command.StringArg)
	return ok && memory.IsTypeKeyword(s.Value)
}

func (e *Executor) memDump(ctx context.Context, args []command.Arg) Result {
	target, rest, err := e.resolveTarget(args, true)
	if err != nil {
		return Error("Failed to dump memory: %v", err)
	}
	size := DefaultDumpSize
	if len(rest) > 0 {
		n, err := command.AsNumber(rest[0])
		if err != nil || n <= 0 {
			return Error("Invalid size argument")
		}
		size = int(min(n, MaxDumpSize))
	}
	value, err := e.engine.ReadMemory(ctx, target.addr, size, memory.Bytes)
	if err != nil {
		return Error("Failed to dump memory: %v", err)
	}
	return Success("%s", strings.TrimRight(utilfn.HexDump(target.addr, value.Raw), "\n"))
}

// memList shows the selected item, with its current value for pointers.
func (e *Executor) memList(ctx context.Context, args []command.Arg) Result {
	sel := e.nav.Selected()
	if sel == nil {
		return Success("No item selected")
	}
	ptr, ok := sel.AsPointer()
	if !ok || !e.engine.Attached() {
		return Success("%s", sel.String())
	}
	value, err := e.engine.ReadMemory(ctx, ptr.Address, ptr.Size, ptr.MemoryType)
	if err != nil {
		return Success("%s = <%v>", sel.String(), err)
	}
	return Success("%s = %s", sel.String(), value)
}

func (e *Executor) memType(ctx context.Context, args []command.Arg) Result {
	if len(args) == 0 {
		return Error("Memory type argument required")
	}
	mtype, ok := memory.ParseType(args[0].String())
	if !ok {
		return Error("Unknown memory type %q", args[0].String())
	}
	if err := e.nav.Retype(mtype); err != nil {
		return Error("Failed to change type: %v", err)
	}
	return Success("Memory type set to %s", mtype)
}

// tracer returns the engine's Tracer side, or an unsupported error naming op.
func (e *Executor) tracer(op string) (engine.Tracer, error) {
	if !e.engine.Attached() {
		return nil, vzerr.ErrNotAttached
	}
	t, ok := e.engine.(engine.Tracer)
	if !ok {
		return nil, engine.Unsupported(e.engine, op)
	}
	return t, nil
}

func (e *Executor) memWatch(ctx context.Context, args []command.Arg) Result {
	t, err := e.tracer("mem watch")
	if err != nil {
		return errResult(err)
	}
	target, rest, err := e.resolveTarget(args, true)
	if err != nil {
		return errResult(err)
	}
	if mtype, found, err := typeArg(rest); err != nil {
		return errResult(err)
	} else if found {
		target.mtype = mtype
	}
	if err := t.Watch(ctx, target.addr, target.mtype); err != nil {
		return errResult(err)
	}
	return Success("Watching 0x%x as %s", target.addr, target.mtype)
}

func (e *Executor) memLock(ctx context.Context, args []command.Arg) Result {
	t, err := e.tracer("mem lock")
	if err != nil {
		return errResult(err)
	}
	target, rest, err := e.resolveTarget(args, len(args) >= 2 && !isTypeName(args[1]))
	if err != nil {
		return errResult(err)
	}
	if len(rest) == 0 {
		return Error("Value argument required")
	}
	if mtype, found, err := typeArg(rest[1:]); err != nil {
		return errResult(err)
	} else if found {
		target.mtype = mtype
	}
	value, err := memory.ParseValue(rest[0].String(), target.mtype)
	if err != nil {
		return errResult(err)
	}
	if err := t.Lock(ctx, target.addr, value); err != nil {
		return errResult(err)
	}
	return Success("Locked 0x%x to %s", target.addr, value)
}

func (e *Executor) memTrace(ctx context.Context, args []command.Arg) Result {
	t, err := e.tracer("mem trace")
	if err != nil {
		return errResult(err)
	}
	target, _, err := e.resolveTarget(args, true)
	if err != nil {
		return errResult(err)
	}
	if err := t.Trace(ctx, target.addr); err != nil {
		return errResult(err)
	}
	return Success("Tracing 0x%x", target.addr)
}

// untrack runs one of the Unwatch/Unlock/Untrace calls against the target.
func (e *Executor) untrack(ctx context.Context, args []command.Arg, op string, verb string, fn func(engine.Tracer, context.Context, uint64) error) Result {
	t, err := e.tracer(op)
	if err != nil {
		return errResult(err)
	}
	target, _, err := e.resolveTarget(args, true)
	if err != nil {
		return errResult(err)
	}
	if err := fn(t, ctx, target.addr); err != nil {
		return errResult(err)
	}
	return Success("%s 0x%x", verb, target.addr)
}

func (e *Executor) memUnwatch(ctx context.Context, args []command.Arg) Result {
	return e.untrack(ctx, args, "mem unwatch", "Stopped watching", engine.Tracer.Unwatch)
}

func (e *Executor) memUnlock(ctx context.Context, args []command.Arg) Result {
	return e.untrack(ctx, args, "mem unlock", "Unlocked", engine.Tracer.Unlock)
}

func (e *Executor) memUntrace(ctx context.Context, args []command.Arg) Result {
	return e.untrack(ctx, args, "mem untrace", "Stopped tracing", engine.Tracer.Untrace)
}

func (e *Executor) attachList(ctx context.Context, args []command.Arg) Result {
	t, err := e.tracer("attach list")
	if err != nil {
		return errResult(err)
	}
	hooks := t.Hooks()
	if len(hooks) == 0 {
		return Success("No active hooks")
	}
	lines := make([]string, len(hooks))
	for i, h := range hooks {
		line := fmt.Sprintf("%-5s 0x%x", h.Kind, h.Address)
		switch h.Kind {
		case engine.HookWatch:
			line += " " + h.Type.String()
		case engine.HookLock:
			line += fmt.Sprintf(" %s = %s", h.Type, h.Value)
		}
		lines[i] = line
	}
	return Success("%s", strings.Join(lines, "\n"))
}
