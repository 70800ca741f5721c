// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"context"

	"github.com/vlitzdev/vlitz/pkg/command"
	"github.com/vlitzdev/vlitz/pkg/vzdata"
	"github.com/vlitzdev/vlitz/pkg/vzerr"
)

func (e *Executor) navSelect(ctx context.Context, args []command.Arg) Result {
	if len(args) == 0 {
		return Error("Selector argument required")
	}
	sel, err := command.AsSelector(args[0])
	if err != nil {
		return Error("Invalid selector argument")
	}
	items, err := e.store.SelectIndexed(sel)
	if err != nil {
		return Error("Selection error: %v", err)
	}
	if len(items) > 1 {
		return Error("Only one item can be selected")
	}
	e.nav.Select(items[0].Item)
	return Success("Selected: %s", items[0].String())
}

func (e *Executor) navUnselect(ctx context.Context, args []command.Arg) Result {
	e.nav.Unselect()
	return Success("Selection cleared")
}

func offsetArg(args []command.Arg) (uint64, Result, bool) {
	if len(args) == 0 {
		return 0, Error("Offset argument required"), false
	}
	offset, err := command.AsAddress(args[0])
	if err != nil {
		return 0, Error("Invalid offset argument"), false
	}
	return offset, Result{}, true
}

func (e *Executor) navAdd(ctx context.Context, args []command.Arg) Result {
	offset, res, ok := offsetArg(args)
	if !ok {
		return res
	}
	if err := e.nav.AddOffset(offset); err != nil {
		return Error("Failed to add offset: %v", err)
	}
	return Success("Address advanced by %d", offset)
}

func (e *Executor) navSub(ctx context.Context, args []command.Arg) Result {
	offset, res, ok := offsetArg(args)
	if !ok {
		return res
	}
	if err := e.nav.SubOffset(offset); err != nil {
		return Error("Failed to subtract offset: %v", err)
	}
	return Success("Address decreased by %d", offset)
}

// navGoto accepts an address, a selector (or bare index) naming one item
// with an address, or address text.
func (e *Executor) navGoto(ctx context.Context, args []command.Arg) Result {
	if len(args) == 0 {
		return Error("Address or selector argument required")
	}
	switch arg := args[0].(type) {
	case command.AddressArg:
		e.nav.GotoAddress(arg.Value)
	case command.SelectorArg, command.NumberArg:
		item, err := e.singleItem(arg)
		if err != nil {
			return Error("Failed to navigate: %v", err)
		}
		addr, ok := item.Address()
		if !ok {
			return Error("Failed to navigate: %v", vzerr.With(vzerr.ErrNoAddressField, "%s", item.Type))
		}
		e.nav.GotoAddress(addr)
	case command.StringArg:
		if err := e.nav.Goto(arg.Value); err != nil {
			return Error("Failed to navigate: %v", err)
		}
	default:
		return Error("Invalid address argument")
	}
	addr, _ := e.nav.Selected().Address()
	return Success("Navigated to 0x%x", addr)
}

// singleItem resolves arg to exactly one stored item.
func (e *Executor) singleItem(arg command.Arg) (*vzdata.Item, error) {
	sel, err := command.AsSelector(arg)
	if err != nil {
		return nil, err
	}
	items, err := e.store.SelectData(sel)
	if err != nil {
		return nil, err
	}
	if len(items) > 1 {
		return nil, vzerr.Errorf(vzerr.KindSelector, "selector %s matches %d items, expected one", sel, len(items))
	}
	return items[0], nil
}
