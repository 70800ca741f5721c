// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package vzdata

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/vlitzdev/vlitz/pkg/memory"
)

func TestTypeMatchesContent(t *testing.T) {
	items := []*Item{
		NewPointer(0x1000, memory.UInt, 4),
		NewFunction("open", 0x2000),
		NewMethod("java.io.File", "exists", nil, "boolean"),
		NewClass("java.io.File"),
		NewModule("libc.so", 0x3000, 4096),
		NewRange(0x4000, 8192, "rw-", nil),
		NewVariable("errno", 0x5000),
	}
	for _, item := range items {
		if item.Type != item.Content.DataType() {
			t.Errorf("Type %v does not match content %T", item.Type, item.Content)
		}
	}
}

func TestDisplay(t *testing.T) {
	file := "/system/lib/libc.so"
	tests := []struct {
		name string
		item *Item
		want string
	}{
		{"pointer", NewPointer(0x7ff0, memory.Float, 4), "[Pointer] 0x7ff0"},
		{"function", NewFunction("open", 0x10), "[Function] open @ 0x10"},
		{"method", NewMethod("Foo", "bar", []string{"int", "java.lang.String"}, "void"), "[Method] Foo::bar(int, java.lang.String) -> void"},
		{"class", NewClass("Foo"), "[Class] Foo"},
		{"module", NewModule("libc.so", 0xabc, 10), "[Module] libc.so @ 0xabc"},
		{"range", NewRange(0x1000, 4096, "r-x", &file), "[Range] 0x1000 (4096 bytes) [r-x]"},
		{"variable", NewVariable("g", 0x20), "[Variable] g @ 0x20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDisplayLabelAndTags(t *testing.T) {
	item := NewFunction("open", 0x10)
	item.SetLabel("entry")
	item.AddTag("io")
	item.AddTag("hot")
	item.AddTag("io")
	want := "[Function] open @ 0x10 (entry) [hot, io]"
	if got := item.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := (IndexedItem{Index: 3, Item: item}).String(); got != "[3] "+want {
		t.Errorf("IndexedItem.String() = %q", got)
	}
}

func TestRemoveTag(t *testing.T) {
	item := NewClass("Foo")
	item.AddTag("a")
	if !item.RemoveTag("a") {
		t.Errorf("RemoveTag of present tag should return true")
	}
	if item.RemoveTag("a") {
		t.Errorf("RemoveTag of missing tag should return false")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	orig := NewMethod("Foo", "bar", []string{"int"}, "void")
	orig.SetLabel("x")
	orig.AddTag("t1")

	cp := orig.Clone()
	cp.SetLabel("y")
	cp.AddTag("t2")
	cp.Content.(*Method).Args[0] = "long"

	if *orig.Label != "x" {
		t.Errorf("label aliased: %q", *orig.Label)
	}
	if orig.HasTag("t2") {
		t.Errorf("tags aliased")
	}
	if orig.Content.(*Method).Args[0] != "int" {
		t.Errorf("args aliased")
	}
	if !cp.HasTag("t1") {
		t.Errorf("clone lost tag t1")
	}
}

func TestAccessors(t *testing.T) {
	if _, ok := NewClass("Foo").Address(); ok {
		t.Errorf("Class should have no address")
	}
	if _, ok := NewMethod("A", "b", nil, "v").Address(); ok {
		t.Errorf("Method should have no address")
	}
	if addr, ok := NewVariable("v", 0x44).Address(); !ok || addr != 0x44 {
		t.Errorf("Variable address = %#x, %v", addr, ok)
	}
	if _, ok := NewPointer(1, memory.Int, 4).Name(); ok {
		t.Errorf("Pointer should have no name")
	}
	if size, ok := NewRange(0, 16, "rw-", nil).Size(); !ok || size != 16 {
		t.Errorf("Range size = %d, %v", size, ok)
	}
}

func TestJSON(t *testing.T) {
	item := NewPointer(0x1234, memory.Double, 8)
	item.SetLabel("speed")
	item.AddTag("player")

	data, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Item
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.String() != item.String() {
		t.Errorf("decoded = %q, want %q", decoded.String(), item.String())
	}
	if !reflect.DeepEqual(decoded.Content, item.Content) {
		t.Errorf("content = %#v, want %#v", decoded.Content, item.Content)
	}

	if err := json.Unmarshal([]byte(`{"type":"Widget","content":{}}`), &decoded); err == nil {
		t.Errorf("expected error for unknown type")
	}
}
