// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package filter implements the boolean filter language used to query
// inspection data ("name:open & address>=0x1000", "label=", "float<30.5").
package filter

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/vlitzdev/vlitz/pkg/memory"
	"github.com/vlitzdev/vlitz/pkg/vzdata"
	"github.com/vlitzdev/vlitz/pkg/vzlog"
)

const (
	FieldType       = "type"
	FieldLabel      = "label"
	FieldTags       = "tags"
	FieldName       = "name"
	FieldAddress    = "address"
	FieldClassName  = "class_name"
	FieldSize       = "size"
	FieldProtection = "protection"
)

// Fields lists every field name understood by Field conditions.
var Fields = []string{FieldType, FieldLabel, FieldTags, FieldName, FieldAddress, FieldClassName, FieldSize, FieldProtection}

const (
	CondTypeField  = "field"
	CondTypeMemory = "memory"
	CondTypeAnd    = "and"
	CondTypeOr     = "or"
)

// MemoryReader supplies live memory values for MemoryData conditions.
type MemoryReader interface {
	ReadMemory(ctx context.Context, address uint64, size int, mtype memory.MemoryType) (memory.Value, error)
}

// FilterContext carries runtime collaborators for evaluation. A nil context
// (or one without a Reader) is valid; MemoryData conditions then never match.
type FilterContext struct {
	Ctx    context.Context
	Reader MemoryReader
}

type Condition interface {
	// Match evaluates the condition against a single item
	Match(fctx *FilterContext, item *vzdata.Item) bool

	// GetType returns the condition type identifier
	GetType() string
}

type Field struct {
	Name  string
	Op    Operator
	Value string
}

// MemoryData compares the value stored at a Pointer's address, read as Type.
type MemoryData struct {
	Type  memory.MemoryType
	Op    Operator
	Value string
}

type And struct {
	Left  Condition
	Right Condition
}

type Or struct {
	Left  Condition
	Right Condition
}

// Apply evaluates cond against item using static data only.
func Apply(cond Condition, item *vzdata.Item) bool {
	return cond.Match(nil, item)
}

func (c *Field) GetType() string      { return CondTypeField }
func (c *MemoryData) GetType() string { return CondTypeMemory }
func (c *And) GetType() string        { return CondTypeAnd }
func (c *Or) GetType() string         { return CondTypeOr }

// both sides are always evaluated
func (c *And) Match(fctx *FilterContext, item *vzdata.Item) bool {
	left := c.Left.Match(fctx, item)
	right := c.Right.Match(fctx, item)
	return left && right
}

func (c *Or) Match(fctx *FilterContext, item *vzdata.Item) bool {
	left := c.Left.Match(fctx, item)
	right := c.Right.Match(fctx, item)
	return left || right
}

func (c *Field) Match(fctx *FilterContext, item *vzdata.Item) bool {
	switch c.Name {
	case FieldType:
		return compareString(strings.ToLower(item.Type.String()), c.Op, strings.ToLower(c.Value))
	case FieldLabel:
		if item.Label == nil {
			return c.Op == NotEqual || (c.Op == Equal && c.Value == "")
		}
		return compareString(*item.Label, c.Op, c.Value)
	case FieldTags:
		switch c.Op {
		case Contains:
			for _, tag := range item.TagList() {
				if strings.Contains(tag, c.Value) {
					return true
				}
			}
			return false
		case Equal:
			return item.HasTag(c.Value)
		case NotEqual:
			return !item.HasTag(c.Value)
		default:
			return false
		}
	case FieldName:
		name, ok := item.Name()
		if !ok {
			return false
		}
		return compareString(name, c.Op, c.Value)
	case FieldAddress:
		addr, ok := item.Address()
		if !ok {
			return false
		}
		return compareNumber(addr, c.Op, parseNumberOrZero(c.Value))
	case FieldClassName:
		method, ok := item.AsMethod()
		if !ok {
			return false
		}
		return compareString(method.ClassName, c.Op, c.Value)
	case FieldSize:
		size, ok := item.Size()
		if !ok {
			return false
		}
		return compareNumber(uint64(size), c.Op, parseNumberOrZero(c.Value))
	case FieldProtection:
		rng, ok := item.AsRange()
		if !ok {
			return false
		}
		return compareString(rng.Protection, c.Op, c.Value)
	default:
		return false
	}
}

// Match reads the pointed-to memory through the context's reader. Without a
// reader, or for non-Pointer items, it is always false.
func (c *MemoryData) Match(fctx *FilterContext, item *vzdata.Item) bool {
	ptr, ok := item.AsPointer()
	if !ok {
		return false
	}
	if fctx == nil || fctx.Reader == nil {
		vzlog.LogfOnce("filter", "filter-memory-noreader", "memory filter %s evaluated without an attached engine, treating as no match", PrettyPrint(c))
		return false
	}
	want, err := memory.ParseValue(c.Value, c.Type)
	if err != nil {
		return false
	}
	size := memory.ReadSize(c.Type, len(want.Raw))
	ctx := fctx.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	got, err := fctx.Reader.ReadMemory(ctx, ptr.Address, size, c.Type)
	if err != nil {
		vzlog.Logger("filter").Debugf("memory read at 0x%x failed: %v", ptr.Address, err)
		return false
	}
	if c.Op == Contains {
		switch c.Type {
		case memory.String:
			return strings.Contains(got.Str, want.Str)
		case memory.Bytes:
			return bytes.Contains(got.Raw, want.Raw)
		default:
			return false
		}
	}
	cmp, ok := got.Compare(want)
	if !ok {
		return false
	}
	return c.Op.holds(cmp)
}

func compareString(a string, op Operator, b string) bool {
	if op == Contains {
		return strings.Contains(a, b)
	}
	return op.holds(strings.Compare(a, b))
}

func compareNumber(a uint64, op Operator, b uint64) bool {
	switch {
	case op == Contains:
		return false
	case a < b:
		return op.holds(-1)
	case a > b:
		return op.holds(1)
	default:
		return op.holds(0)
	}
}

// parseNumberOrZero accepts 0x-prefixed hex or decimal, 0 on failure.
func parseNumberOrZero(s string) uint64 {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		v, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return 0
		}
		return v
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
