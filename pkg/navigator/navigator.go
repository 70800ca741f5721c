// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package navigator tracks the single "current" item of a console session.
package navigator

import (
	"fmt"

	"github.com/vlitzdev/vlitz/pkg/memory"
	"github.com/vlitzdev/vlitz/pkg/vzdata"
	"github.com/vlitzdev/vlitz/pkg/vzerr"
)

const (
	DefaultPromptName = "vlitz"
	PromptDelimiter   = ">"
)

// defaults for pointers produced by offset arithmetic and goto
const (
	DefaultPointerType = memory.UInt
	DefaultPointerSize = 4
)

// Navigator owns its selection. Every navigation replaces the selected item
// with a new value; it is never mutated in place.
type Navigator struct {
	promptName string
	selected   *vzdata.Item
}

func MakeNavigator() *Navigator {
	return &Navigator{promptName: DefaultPromptName}
}

// SetPromptName changes the prompt prefix ("vlitz" by default).
func (n *Navigator) SetPromptName(name string) {
	if name == "" {
		name = DefaultPromptName
	}
	n.promptName = name
}

// Select stores a clone of item so later store mutations cannot reach it.
func (n *Navigator) Select(item *vzdata.Item) {
	n.selected = item.Clone()
}

func (n *Navigator) Unselect() {
	n.selected = nil
}

// Selected returns the current item, or nil.
func (n *Navigator) Selected() *vzdata.Item {
	return n.selected
}

func (n *Navigator) selectedAddress() (uint64, error) {
	if n.selected == nil {
		return 0, vzerr.ErrNoSelection
	}
	addr, ok := n.selected.Address()
	if !ok {
		return 0, vzerr.With(vzerr.ErrNoAddressField, "%s", n.selected.Type)
	}
	return addr, nil
}

func (n *Navigator) AddOffset(offset uint64) error {
	addr, err := n.selectedAddress()
	if err != nil {
		return err
	}
	newAddr := addr + offset
	if newAddr < addr {
		return vzerr.With(vzerr.ErrAddressOverflow, "0x%x + 0x%x", addr, offset)
	}
	n.selected = vzdata.NewPointer(newAddr, DefaultPointerType, DefaultPointerSize)
	return nil
}

func (n *Navigator) SubOffset(offset uint64) error {
	addr, err := n.selectedAddress()
	if err != nil {
		return err
	}
	if offset > addr {
		return vzerr.With(vzerr.ErrAddressUnderflow, "0x%x - 0x%x", addr, offset)
	}
	n.selected = vzdata.NewPointer(addr-offset, DefaultPointerType, DefaultPointerSize)
	return nil
}

// Goto parses text as a 0x-prefixed hex or decimal address and selects a new
// pointer there. Selector targets must be resolved by the caller.
func (n *Navigator) Goto(text string) error {
	addr, err := memory.ParseAddress(text)
	if err != nil {
		return vzerr.Errorf(vzerr.KindTypeConversion, "cannot goto %q: %v", text, err)
	}
	n.GotoAddress(addr)
	return nil
}

func (n *Navigator) GotoAddress(addr uint64) {
	n.selected = vzdata.NewPointer(addr, DefaultPointerType, DefaultPointerSize)
}

// Retype replaces a selected pointer with one of a different memory type.
// The size follows the type width, or is kept for variable-width types.
func (n *Navigator) Retype(mtype memory.MemoryType) error {
	if n.selected == nil {
		return vzerr.ErrNoSelection
	}
	ptr, ok := n.selected.AsPointer()
	if !ok {
		return vzerr.Errorf(vzerr.KindGeneral, "cannot change memory type of a %s", n.selected.Type)
	}
	size := mtype.Size()
	if size == 0 {
		size = ptr.Size
	}
	rtn := n.selected.Clone()
	rtn.Content = &vzdata.Pointer{Address: ptr.Address, MemoryType: mtype, Size: size}
	n.selected = rtn
	return nil
}

// Prompt renders e.g. "vlitz:Pointer:0x1000>" or "vlitz>" when empty.
func (n *Navigator) Prompt() string {
	if n.selected == nil {
		return n.promptName + PromptDelimiter
	}
	var desc string
	switch c := n.selected.Content.(type) {
	case *vzdata.Pointer:
		desc = fmt.Sprintf("Pointer:0x%x", c.Address)
	case *vzdata.Function:
		desc = "Function:" + c.Name
	case *vzdata.Method:
		desc = fmt.Sprintf("Method:%s::%s", c.ClassName, c.Name)
	case *vzdata.Class:
		desc = "Class:" + c.Name
	case *vzdata.Module:
		desc = "Module:" + c.Name
	case *vzdata.Range:
		desc = fmt.Sprintf("Range:0x%x", c.Address)
	case *vzdata.Variable:
		desc = "Variable:" + c.Name
	}
	return n.promptName + ":" + desc + PromptDelimiter
}
