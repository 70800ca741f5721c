// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package vzdata holds the inspection data items that flow through the store,
// the navigator and the filters.
package vzdata

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/vlitzdev/vlitz/pkg/memory"
)

type DataType int

const (
	TypePointer DataType = iota
	TypeFunction
	TypeMethod
	TypeModule
	TypeClass
	TypeRange
	TypeVariable
)

var dataTypeNames = map[DataType]string{
	TypePointer:  "Pointer",
	TypeFunction: "Function",
	TypeMethod:   "Method",
	TypeModule:   "Module",
	TypeClass:    "Class",
	TypeRange:    "Range",
	TypeVariable: "Variable",
}

func (dt DataType) String() string {
	if name, ok := dataTypeNames[dt]; ok {
		return name
	}
	return fmt.Sprintf("DataType(%d)", int(dt))
}

func ParseDataType(s string) (DataType, bool) {
	for dt, name := range dataTypeNames {
		if strings.EqualFold(name, s) {
			return dt, true
		}
	}
	return 0, false
}

// Content is the variant payload of an Item. The set of implementations is
// closed to this package.
type Content interface {
	DataType() DataType
	isContent()
}

type Pointer struct {
	Address    uint64            `json:"address"`
	MemoryType memory.MemoryType `json:"memorytype"`
	Size       int               `json:"size"`
}

type Function struct {
	Name    string `json:"name"`
	Address uint64 `json:"address"`
}

type Method struct {
	ClassName string   `json:"classname"`
	Name      string   `json:"name"`
	Args      []string `json:"args"`
	Ret       string   `json:"ret"`
}

type Class struct {
	Name string `json:"name"`
}

type Module struct {
	Name    string `json:"name"`
	Address uint64 `json:"address"`
	Size    int    `json:"size"`
}

type Range struct {
	Address    uint64  `json:"address"`
	Size       int     `json:"size"`
	Protection string  `json:"protection"`
	File       *string `json:"file,omitempty"`
}

type Variable struct {
	Name    string `json:"name"`
	Address uint64 `json:"address"`
}

func (*Pointer) DataType() DataType  { return TypePointer }
func (*Function) DataType() DataType { return TypeFunction }
func (*Method) DataType() DataType   { return TypeMethod }
func (*Class) DataType() DataType    { return TypeClass }
func (*Module) DataType() DataType   { return TypeModule }
func (*Range) DataType() DataType    { return TypeRange }
func (*Variable) DataType() DataType { return TypeVariable }

func (*Pointer) isContent()  {}
func (*Function) isContent() {}
func (*Method) isContent()   {}
func (*Class) isContent()    {}
func (*Module) isContent()   {}
func (*Range) isContent()    {}
func (*Variable) isContent() {}

// Item is a single piece of inspection data. Type always mirrors Content.DataType().
// Items are only built through New (or the typed constructors) and are copied
// with Clone whenever they cross from one owner to another.
type Item struct {
	Label   *string
	Tags    *treeset.Set
	Type    DataType
	Content Content
}

func New(content Content) *Item {
	return &Item{
		Tags:    treeset.NewWithStringComparator(),
		Type:    content.DataType(),
		Content: content,
	}
}

func NewPointer(address uint64, mtype memory.MemoryType, size int) *Item {
	return New(&Pointer{Address: address, MemoryType: mtype, Size: size})
}

func NewFunction(name string, address uint64) *Item {
	return New(&Function{Name: name, Address: address})
}

func NewMethod(className string, name string, args []string, ret string) *Item {
	return New(&Method{ClassName: className, Name: name, Args: args, Ret: ret})
}

func NewClass(name string) *Item {
	return New(&Class{Name: name})
}

func NewModule(name string, address uint64, size int) *Item {
	return New(&Module{Name: name, Address: address, Size: size})
}

func NewRange(address uint64, size int, protection string, file *string) *Item {
	return New(&Range{Address: address, Size: size, Protection: protection, File: file})
}

func NewVariable(name string, address uint64) *Item {
	return New(&Variable{Name: name, Address: address})
}

func (item *Item) SetLabel(label string) {
	item.Label = &label
}

func (item *Item) AddTag(tag string) {
	item.Tags.Add(tag)
}

// RemoveTag returns false if the tag was not present.
func (item *Item) RemoveTag(tag string) bool {
	if !item.Tags.Contains(tag) {
		return false
	}
	item.Tags.Remove(tag)
	return true
}

func (item *Item) HasTag(tag string) bool {
	return item.Tags.Contains(tag)
}

// TagList returns the tags in sorted order.
func (item *Item) TagList() []string {
	vals := item.Tags.Values()
	rtn := make([]string, 0, len(vals))
	for _, v := range vals {
		rtn = append(rtn, v.(string))
	}
	return rtn
}

// Clone returns a deep copy that shares no mutable state with item.
func (item *Item) Clone() *Item {
	rtn := &Item{
		Tags: treeset.NewWithStringComparator(item.Tags.Values()...),
		Type: item.Type,
	}
	if item.Label != nil {
		label := *item.Label
		rtn.Label = &label
	}
	switch c := item.Content.(type) {
	case *Pointer:
		cp := *c
		rtn.Content = &cp
	case *Function:
		cp := *c
		rtn.Content = &cp
	case *Method:
		cp := *c
		cp.Args = append([]string(nil), c.Args...)
		rtn.Content = &cp
	case *Class:
		cp := *c
		rtn.Content = &cp
	case *Module:
		cp := *c
		rtn.Content = &cp
	case *Range:
		cp := *c
		if c.File != nil {
			file := *c.File
			cp.File = &file
		}
		rtn.Content = &cp
	case *Variable:
		cp := *c
		rtn.Content = &cp
	}
	return rtn
}

func (item *Item) AsPointer() (*Pointer, bool) {
	p, ok := item.Content.(*Pointer)
	return p, ok
}

func (item *Item) AsMethod() (*Method, bool) {
	m, ok := item.Content.(*Method)
	return m, ok
}

func (item *Item) AsModule() (*Module, bool) {
	m, ok := item.Content.(*Module)
	return m, ok
}

func (item *Item) AsRange() (*Range, bool) {
	r, ok := item.Content.(*Range)
	return r, ok
}

// Address returns the address of variants that have one (everything but
// Class and Method).
func (item *Item) Address() (uint64, bool) {
	switch c := item.Content.(type) {
	case *Pointer:
		return c.Address, true
	case *Function:
		return c.Address, true
	case *Module:
		return c.Address, true
	case *Range:
		return c.Address, true
	case *Variable:
		return c.Address, true
	}
	return 0, false
}

func (item *Item) Name() (string, bool) {
	switch c := item.Content.(type) {
	case *Function:
		return c.Name, true
	case *Method:
		return c.Name, true
	case *Class:
		return c.Name, true
	case *Module:
		return c.Name, true
	case *Variable:
		return c.Name, true
	}
	return "", false
}

// Size is defined for Pointer, Module and Range.
func (item *Item) Size() (int, bool) {
	switch c := item.Content.(type) {
	case *Pointer:
		return c.Size, true
	case *Module:
		return c.Size, true
	case *Range:
		return c.Size, true
	}
	return 0, false
}

func (item *Item) DisplayName() string {
	switch c := item.Content.(type) {
	case *Pointer:
		return fmt.Sprintf("0x%x", c.Address)
	case *Function:
		return fmt.Sprintf("%s @ 0x%x", c.Name, c.Address)
	case *Method:
		return fmt.Sprintf("%s::%s(%s) -> %s", c.ClassName, c.Name, strings.Join(c.Args, ", "), c.Ret)
	case *Class:
		return c.Name
	case *Module:
		return fmt.Sprintf("%s @ 0x%x", c.Name, c.Address)
	case *Range:
		return fmt.Sprintf("0x%x (%d bytes) [%s]", c.Address, c.Size, c.Protection)
	case *Variable:
		return fmt.Sprintf("%s @ 0x%x", c.Name, c.Address)
	}
	return ""
}

// String renders "[Type] display (label) [tag, tag]".
func (item *Item) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(item.Type.String())
	sb.WriteString("] ")
	sb.WriteString(item.DisplayName())
	if item.Label != nil {
		sb.WriteString(" (")
		sb.WriteString(*item.Label)
		sb.WriteString(")")
	}
	if !item.Tags.Empty() {
		sb.WriteString(" [")
		sb.WriteString(strings.Join(item.TagList(), ", "))
		sb.WriteString("]")
	}
	return sb.String()
}

// IndexedItem pairs an item with its global index in the store.
type IndexedItem struct {
	Index int   `json:"index"`
	Item  *Item `json:"item"`
}

func (ii IndexedItem) String() string {
	return fmt.Sprintf("[%d] %s", ii.Index, ii.Item.String())
}

type itemJson struct {
	Label   *string         `json:"label,omitempty"`
	Tags    []string        `json:"tags"`
	Type    string          `json:"type"`
	Display string          `json:"display,omitempty"`
	Content json.RawMessage `json:"content"`
}

func (item *Item) MarshalJSON() ([]byte, error) {
	content, err := json.Marshal(item.Content)
	if err != nil {
		return nil, err
	}
	return json.Marshal(itemJson{
		Label:   item.Label,
		Tags:    item.TagList(),
		Type:    item.Type.String(),
		Display: item.DisplayName(),
		Content: content,
	})
}

func (item *Item) UnmarshalJSON(data []byte) error {
	var ij itemJson
	if err := json.Unmarshal(data, &ij); err != nil {
		return err
	}
	dt, ok := ParseDataType(ij.Type)
	if !ok {
		return fmt.Errorf("unknown data type %q", ij.Type)
	}
	var content Content
	switch dt {
	case TypePointer:
		content = &Pointer{}
	case TypeFunction:
		content = &Function{}
	case TypeMethod:
		content = &Method{}
	case TypeClass:
		content = &Class{}
	case TypeModule:
		content = &Module{}
	case TypeRange:
		content = &Range{}
	case TypeVariable:
		content = &Variable{}
	}
	if err := json.Unmarshal(ij.Content, content); err != nil {
		return fmt.Errorf("error decoding %s content: %w", dt, err)
	}
	*item = *New(content)
	item.Label = ij.Label
	for _, tag := range ij.Tags {
		item.Tags.Add(tag)
	}
	return nil
}
