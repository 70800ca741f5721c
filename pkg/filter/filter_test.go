// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/vlitzdev/vlitz/pkg/memory"
	"github.com/vlitzdev/vlitz/pkg/vzdata"
	"github.com/vlitzdev/vlitz/pkg/vzerr"
)

func TestParseStructure(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"name=open", `Field{name = "open"}`},
		{"name : open", `Field{name : "open"}`},
		{`label="hello world"`, `Field{label = "hello world"}`},
		{"label='x'", `Field{label = "x"}`},
		{"label=", `Field{label = ""}`},
		{"address>=0x1000", `Field{address >= "0x1000"}`},
		{"size<=16", `Field{size <= "16"}`},
		{"tags!=hot", `Field{tags != "hot"}`},
		{"float<30.5", `MemoryData{float < "30.5"}`},
		{"INT32=7", `MemoryData{int = "7"}`},
		{"utf8:abc", `MemoryData{string : "abc"}`},
		{"a=1&b=2", `And{Field{a = "1"}, Field{b = "2"}}`},
		{"a=1 | b=2", `Or{Field{a = "1"}, Field{b = "2"}}`},
		// & binds last: it splits before |
		{"a=1|b=2&c=3", `And{Or{Field{a = "1"}, Field{b = "2"}}, Field{c = "3"}}`},
		{"a=1&b=2&c=3", `And{Field{a = "1"}, And{Field{b = "2"}, Field{c = "3"}}}`},
		{"(a=1|b=2)", `Or{Field{a = "1"}, Field{b = "2"}}`},
		{`name="a&b"`, `Field{name = "a&b"}`},
		{`name=a\&b`, `Field{name = "a\\&b"}`},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			cond, err := Parse(tt.expr)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.expr, err)
			}
			if got := PrettyPrint(cond); got != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.expr, got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, expr := range []string{"", "   ", "label", "=5", "a==5", "a!5", "1abc=3", "a=1&", "|b=2"} {
		t.Run(expr, func(t *testing.T) {
			_, err := Parse(expr)
			if err == nil {
				t.Fatalf("Parse(%q) should fail", expr)
			}
			if vzerr.KindOf(err) != vzerr.KindFilterExpr {
				t.Errorf("Parse(%q) kind = %v", expr, vzerr.KindOf(err))
			}
		})
	}
}

func labeled(item *vzdata.Item, label string) *vzdata.Item {
	item.SetLabel(label)
	return item
}

func tagged(item *vzdata.Item, tags ...string) *vzdata.Item {
	for _, tag := range tags {
		item.AddTag(tag)
	}
	return item
}

func TestApply(t *testing.T) {
	tests := []struct {
		name string
		expr string
		item *vzdata.Item
		want bool
	}{
		{"empty label matches absent", "label=", vzdata.NewClass("A"), true},
		{"empty label vs present", "label=", labeled(vzdata.NewClass("A"), "x"), false},
		{"absent label not equal", "label!=foo", vzdata.NewClass("A"), true},
		{"absent label equal", "label=foo", vzdata.NewClass("A"), false},
		{"absent label contains", "label:foo", vzdata.NewClass("A"), false},
		{"label equal", "label=x", labeled(vzdata.NewClass("A"), "x"), true},
		{"type", "type=Function", vzdata.NewFunction("f", 1), true},
		{"type lowercase", "type=function", vzdata.NewFunction("f", 1), true},
		{"type mismatch", "type=Module", vzdata.NewFunction("f", 1), false},
		{"name contains", "name:ope", vzdata.NewFunction("open", 1), true},
		{"name lexicographic", "name<b", vzdata.NewFunction("abc", 1), true},
		{"name missing", "name=x", vzdata.NewPointer(1, memory.Int, 4), false},
		{"address hex", "address=0x10", vzdata.NewFunction("f", 16), true},
		{"address decimal", "address>15", vzdata.NewFunction("f", 16), true},
		{"address bad value is zero", "address>zz", vzdata.NewFunction("f", 16), true},
		{"address contains never", "address:1", vzdata.NewFunction("f", 1), false},
		{"address on class", "address>=0", vzdata.NewClass("A"), false},
		{"size hex", "size=0x1000", vzdata.NewModule("m", 0, 4096), true},
		{"size pointer", "size<8", vzdata.NewPointer(1, memory.Int, 4), true},
		{"size function", "size>=0", vzdata.NewFunction("f", 1), false},
		{"class_name", "class_name:File", vzdata.NewMethod("java.io.File", "exists", nil, "boolean"), true},
		{"class_name on class", "class_name=A", vzdata.NewClass("A"), false},
		{"protection", "protection=r-x", vzdata.NewRange(0, 16, "r-x", nil), true},
		{"tags equal", "tags=hot", tagged(vzdata.NewClass("A"), "hot", "cold"), true},
		{"tags equal partial", "tags=ho", tagged(vzdata.NewClass("A"), "hot"), false},
		{"tags contains", "tags:ho", tagged(vzdata.NewClass("A"), "hot"), true},
		{"tags not equal", "tags!=hot", tagged(vzdata.NewClass("A"), "cold"), true},
		{"tags ordering", "tags<z", tagged(vzdata.NewClass("A"), "a"), false},
		{"unknown field", "color=red", vzdata.NewClass("A"), false},
		{"unknown field not equal", "color!=red", vzdata.NewClass("A"), false},
		{"and", "name:op & address<0x100", vzdata.NewFunction("open", 0x10), true},
		{"and fails", "name:op & address>0x100", vzdata.NewFunction("open", 0x10), false},
		{"or", "name=close | address=0x10", vzdata.NewFunction("open", 0x10), true},
		{"memory without reader", "int=5", vzdata.NewPointer(0x10, memory.Int, 4), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond, err := Parse(tt.expr)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.expr, err)
			}
			if got := Apply(cond, tt.item); got != tt.want {
				t.Errorf("Apply(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestBooleanLaws(t *testing.T) {
	items := []*vzdata.Item{
		vzdata.NewFunction("open", 0x10),
		vzdata.NewClass("A"),
		labeled(vzdata.NewModule("libc", 0x1000, 64), "main"),
	}
	atoms := []string{"name:o", "address<0x100", "label=main", "type=Class"}
	for _, item := range items {
		for _, a := range atoms {
			for _, b := range atoms {
				ca, _ := Parse(a)
				cb, _ := Parse(b)
				and, _ := Parse(a + "&" + b)
				or, _ := Parse(a + "|" + b)
				if Apply(and, item) != (Apply(ca, item) && Apply(cb, item)) {
					t.Errorf("%s & %s on %s", a, b, item)
				}
				if Apply(or, item) != (Apply(ca, item) || Apply(cb, item)) {
					t.Errorf("%s | %s on %s", a, b, item)
				}
			}
		}
	}
}

type fakeReader struct {
	values map[uint64]memory.Value
	reads  int
}

func (r *fakeReader) ReadMemory(ctx context.Context, address uint64, size int, mtype memory.MemoryType) (memory.Value, error) {
	r.reads++
	v, ok := r.values[address]
	if !ok {
		return memory.Value{}, errors.New("access violation")
	}
	return v, nil
}

func TestMemoryDataWithReader(t *testing.T) {
	reader := &fakeReader{values: map[uint64]memory.Value{
		0x100: {Type: memory.Float, Float: 25.0},
		0x200: {Type: memory.String, Str: "player_one"},
		0x300: {Type: memory.Int, Int: -3},
	}}
	fctx := &FilterContext{Ctx: context.Background(), Reader: reader}
	tests := []struct {
		name string
		expr string
		item *vzdata.Item
		want bool
	}{
		{"float less", "float<30.5", vzdata.NewPointer(0x100, memory.Float, 4), true},
		{"float greater", "float>30.5", vzdata.NewPointer(0x100, memory.Float, 4), false},
		{"string contains", "string:player", vzdata.NewPointer(0x200, memory.String, 0), true},
		{"string equal", `string="player_one"`, vzdata.NewPointer(0x200, memory.String, 0), true},
		{"int negative", "int=-3", vzdata.NewPointer(0x300, memory.Int, 4), true},
		{"bad value", "int=abc", vzdata.NewPointer(0x300, memory.Int, 4), false},
		{"read error", "int=0", vzdata.NewPointer(0x999, memory.Int, 4), false},
		{"not a pointer", "int=0", vzdata.NewFunction("f", 0x300), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond, err := Parse(tt.expr)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.expr, err)
			}
			if got := cond.Match(fctx, tt.item); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestAndEvaluatesBothSides(t *testing.T) {
	reader := &fakeReader{values: map[uint64]memory.Value{0x10: {Type: memory.Int, Int: 1}}}
	fctx := &FilterContext{Reader: reader}
	cond, err := Parse("name=nothing & int=1")
	if err != nil {
		t.Fatal(err)
	}
	cond.Match(fctx, vzdata.NewPointer(0x10, memory.Int, 4))
	if reader.reads != 1 {
		t.Errorf("expected right side to be evaluated, reads = %d", reader.reads)
	}
}
