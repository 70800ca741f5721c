// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/vlitzdev/vlitz/pkg/filter"
	"github.com/vlitzdev/vlitz/pkg/memory"
	"github.com/vlitzdev/vlitz/pkg/selector"
	"github.com/vlitzdev/vlitz/pkg/vzdata"
	"github.com/vlitzdev/vlitz/pkg/vzerr"
)

func mustSel(t *testing.T, text string) selector.Selector {
	t.Helper()
	sel, err := selector.Parse(text)
	if err != nil {
		t.Fatalf("selector.Parse(%q): %v", text, err)
	}
	return sel
}

func makeFuncs(names ...string) []*vzdata.Item {
	rtn := make([]*vzdata.Item, len(names))
	for i, name := range names {
		rtn[i] = vzdata.NewFunction(name, uint64(0x1000+i*0x10))
	}
	return rtn
}

func names(items []*vzdata.Item) []string {
	rtn := make([]string, len(items))
	for i, item := range items {
		rtn[i], _ = item.Name()
	}
	return rtn
}

func indices(items []vzdata.IndexedItem) []int {
	rtn := make([]int, len(items))
	for i, ii := range items {
		rtn[i] = ii.Index
	}
	return rtn
}

func TestLogPaging(t *testing.T) {
	ds := MakeDataStore(2)
	ds.AddMultipleToLog(makeFuncs("a", "b", "c", "d", "e"))

	if got := indices(ds.CurrentLogPage()); !reflect.DeepEqual(got, []int{0, 1}) {
		t.Errorf("first page = %v", got)
	}
	page, err := ds.NextLogPage(1)
	if err != nil || page != 1 {
		t.Fatalf("NextLogPage(1) = %d, %v", page, err)
	}
	if got := indices(ds.CurrentLogPage()); !reflect.DeepEqual(got, []int{2, 3}) {
		t.Errorf("second page = %v, want [2 3]", got)
	}
	page, _ = ds.NextLogPage(10)
	if page != 2 {
		t.Errorf("NextLogPage(10) clamped to %d, want 2", page)
	}
	if got := indices(ds.CurrentLogPage()); !reflect.DeepEqual(got, []int{4}) {
		t.Errorf("last page = %v", got)
	}
	if page := ds.PrevLogPage(1); page != 1 {
		t.Errorf("PrevLogPage(1) = %d", page)
	}
	if page := ds.PrevLogPage(5); page != 0 {
		t.Errorf("PrevLogPage(5) = %d, want 0", page)
	}
	if page := ds.PrevLogPage(-10); page != 2 {
		t.Errorf("PrevLogPage(-10) = %d, want last page 2", page)
	}
}

func TestLogPageEmpty(t *testing.T) {
	ds := MakeDataStore(3)
	if _, err := ds.NextLogPage(1); !errors.Is(err, vzerr.ErrEmptyLog) {
		t.Errorf("NextLogPage on empty log = %v, want ErrEmptyLog", err)
	}
	if page := ds.PrevLogPage(1); page != 0 {
		t.Errorf("PrevLogPage on empty log = %d", page)
	}
	if got := ds.CurrentLogPage(); len(got) != 0 {
		t.Errorf("CurrentLogPage on empty log = %v", got)
	}
}

func TestLibPageBeyondRange(t *testing.T) {
	ds := MakeDataStore(2)
	ds.AddMultipleToLog(makeFuncs("a", "b", "c", "d", "e"))
	ds.SaveToLib(mustSel(t, "0"))
	ds.NextLogPage(2)
	if got := ds.CurrentLibPage(); len(got) != 0 {
		t.Errorf("lib page beyond range = %v, want empty", got)
	}
}

func TestLogPageUsesGlobalIndices(t *testing.T) {
	ds := MakeDataStore(10)
	ds.AddMultipleToLog(makeFuncs("a", "b"))
	ds.SaveToLib(mustSel(t, "0"))
	if got := indices(ds.CurrentLogPage()); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("log page indices = %v, want [1 2]", got)
	}
}

func TestSelectData(t *testing.T) {
	ds := MakeDataStore(10)
	ds.AddMultipleToLog(makeFuncs("l0", "l1", "l2"))
	ds.ReplaceLib(makeFuncs("b0", "b1"))

	tests := []struct {
		sel     string
		want    []string
		wantErr bool
	}{
		{"0", []string{"b0"}, false},
		{"2", []string{"l0"}, false},
		{"1-3", []string{"b1", "l0", "l1"}, false},
		{"4", []string{"l2"}, false},
		{"5", nil, true},
		{"3,9,0", []string{"l1", "b0"}, false},
		{"lib:0-9", []string{"b0", "b1"}, false},
		// log: limits indices to logLen, they are still global
		{"log:0-9", []string{"b0", "b1", "l0"}, false},
		// all keeps its 0-based log half
		{"all", []string{"b0", "b1", "b0", "b1", "l0"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.sel, func(t *testing.T) {
			items, err := ds.SelectData(mustSel(t, tt.sel))
			if (err != nil) != tt.wantErr {
				t.Fatalf("SelectData(%s) error = %v", tt.sel, err)
			}
			if err != nil {
				if !errors.Is(err, vzerr.ErrNoDataFound) {
					t.Errorf("error = %v, want ErrNoDataFound", err)
				}
				return
			}
			if got := names(items); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SelectData(%s) = %v, want %v", tt.sel, got, tt.want)
			}
		})
	}
}

func TestSaveToLib(t *testing.T) {
	ds := MakeDataStore(10)
	ds.AddMultipleToLog(makeFuncs("a", "b", "c"))

	start, err := ds.SaveToLib(mustSel(t, "0-1"))
	if err != nil || start != 0 {
		t.Fatalf("SaveToLib = %d, %v", start, err)
	}
	// log items now start at global index 2
	start, err = ds.SaveToLib(mustSel(t, "4"))
	if err != nil || start != 2 {
		t.Fatalf("SaveToLib = %d, %v", start, err)
	}
	if got := names(ds.Lib()); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("lib = %v", got)
	}

	// saved copies do not alias the log
	ds.Lib()[0].SetLabel("changed")
	if ds.Log()[0].Label != nil {
		t.Errorf("library item aliases log item")
	}

	if _, err := ds.SaveToLib(mustSel(t, "99")); !errors.Is(err, vzerr.ErrNoDataFound) {
		t.Errorf("SaveToLib(99) = %v", err)
	}
}

func TestMoveInLib(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     []string
		wantErr  bool
	}{
		{"forward", 0, 2, []string{"b", "c", "a", "d"}, false},
		{"backward", 3, 1, []string{"a", "d", "b", "c"}, false},
		{"same", 1, 1, []string{"a", "b", "c", "d"}, false},
		{"clamped", 0, 100, []string{"b", "c", "d", "a"}, false},
		{"bad source", 4, 0, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := MakeDataStore(10)
			ds.ReplaceLib(makeFuncs("a", "b", "c", "d"))
			err := ds.MoveInLib(tt.from, tt.to)
			if (err != nil) != tt.wantErr {
				t.Fatalf("MoveInLib error = %v", err)
			}
			if err == nil && !reflect.DeepEqual(names(ds.Lib()), tt.want) {
				t.Errorf("lib = %v, want %v", names(ds.Lib()), tt.want)
			}
		})
	}
}

func TestRemoveFromLib(t *testing.T) {
	tests := []struct {
		name    string
		sel     string
		removed int
		want    []string
		wantErr bool
	}{
		{"single", "1", 1, []string{"a", "c", "d"}, false},
		{"list", "3,0", 2, []string{"b", "c"}, false},
		{"range", "1-2", 2, []string{"a", "d"}, false},
		{"duplicates", "1,1,1", 1, []string{"a", "c", "d"}, false},
		{"partly beyond lib", "2-8", 2, []string{"a", "b"}, false},
		{"only log indices", "4-5", 0, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := MakeDataStore(10)
			ds.ReplaceLib(makeFuncs("a", "b", "c", "d"))
			ds.AddMultipleToLog(makeFuncs("x", "y"))
			removed, err := ds.RemoveFromLib(mustSel(t, tt.sel))
			if (err != nil) != tt.wantErr {
				t.Fatalf("RemoveFromLib error = %v", err)
			}
			if err != nil {
				if !errors.Is(err, vzerr.ErrNoDataFound) {
					t.Errorf("error = %v", err)
				}
				return
			}
			if removed != tt.removed {
				t.Errorf("removed = %d, want %d", removed, tt.removed)
			}
			if got := names(ds.Lib()); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("lib = %v, want %v", got, tt.want)
			}
			if ds.LogLen() != 2 {
				t.Errorf("log changed: %d", ds.LogLen())
			}
		})
	}
}

func TestLibLengthInvariant(t *testing.T) {
	ds := MakeDataStore(10)
	ds.AddMultipleToLog(makeFuncs("a", "b", "c", "d", "e"))
	expected := 0
	ops := []func(){
		func() { n, _ := ds.SaveToLib(mustSel(t, "all")); expected += ds.LibLen() - n },
		func() { n, _ := ds.RemoveFromLib(mustSel(t, "0,2")); expected -= n },
		func() { ds.MoveInLib(0, 3) },
		func() {
			before := ds.LibLen()
			ds.SaveToLib(mustSel(t, "lib:0-1"))
			expected += ds.LibLen() - before
		},
		func() { n, _ := ds.RemoveFromLib(mustSel(t, "lib:all")); expected -= n },
	}
	for i, op := range ops {
		op()
		if ds.LibLen() != expected {
			t.Fatalf("after op %d lib len = %d, want %d", i, ds.LibLen(), expected)
		}
		seen := make(map[*vzdata.Item]bool)
		for _, item := range ds.Lib() {
			if seen[item] {
				t.Fatalf("after op %d lib has aliased items", i)
			}
			seen[item] = true
		}
	}
}

func TestClearLib(t *testing.T) {
	ds := MakeDataStore(10)
	lib := makeFuncs("open", "close", "openat")
	lib[1].SetLabel("keep")
	ds.ReplaceLib(lib)

	removed, err := ds.ClearLib(nil, "name:open")
	if err != nil || removed != 2 {
		t.Fatalf("ClearLib(name:open) = %d, %v", removed, err)
	}
	if got := names(ds.Lib()); !reflect.DeepEqual(got, []string{"close"}) {
		t.Errorf("lib = %v", got)
	}
	if _, err := ds.ClearLib(nil, "name=="); vzerr.KindOf(err) != vzerr.KindFilterExpr {
		t.Errorf("bad filter error = %v", err)
	}
	removed, err = ds.ClearLib(nil, "")
	if err != nil || removed != 1 || ds.LibLen() != 0 {
		t.Errorf("ClearLib() = %d, %v, len %d", removed, err, ds.LibLen())
	}
}

func TestFilterData(t *testing.T) {
	ds := MakeDataStore(10)
	ds.ReplaceLib([]*vzdata.Item{vzdata.NewClass("Foo")})
	ds.AddMultipleToLog([]*vzdata.Item{
		vzdata.NewClass("Bar"),
		vzdata.NewPointer(0x10, memory.Int, 4),
		vzdata.NewClass("FooBar"),
	})
	cond, err := filter.Parse("type=Class & name:Foo")
	if err != nil {
		t.Fatal(err)
	}
	if got := indices(ds.FilterData(nil, cond)); !reflect.DeepEqual(got, []int{0, 3}) {
		t.Errorf("FilterData = %v, want [0 3]", got)
	}
}

func TestSortLog(t *testing.T) {
	mk := func() *DataStore {
		ds := MakeDataStore(10)
		ds.AddMultipleToLog([]*vzdata.Item{
			vzdata.NewFunction("zeta", 0x30),
			vzdata.NewPointer(0x05, memory.Int, 4),
			vzdata.NewClass("alpha"),
			vzdata.NewFunction("beta", 0x10),
			vzdata.NewPointer(0x01, memory.Int, 4),
		})
		return ds
	}
	display := func(ds *DataStore) []string {
		var rtn []string
		for _, item := range ds.Log() {
			rtn = append(rtn, item.DisplayName())
		}
		return rtn
	}
	tests := []struct {
		field string
		want  []string
	}{
		// unnamed pointers sort as "" and keep their relative order
		{SortByName, []string{"0x5", "0x1", "alpha", "beta @ 0x10", "zeta @ 0x30"}},
		// the class has no address and sorts as 0
		{SortByAddress, []string{"alpha", "0x1", "0x5", "beta @ 0x10", "zeta @ 0x30"}},
		{SortByType, []string{"alpha", "zeta @ 0x30", "beta @ 0x10", "0x5", "0x1"}},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			ds := mk()
			if err := ds.SortLog(tt.field); err != nil {
				t.Fatalf("SortLog: %v", err)
			}
			if got := display(ds); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SortLog(%s) = %v, want %v", tt.field, got, tt.want)
			}
		})
	}
	if err := mk().SortLog("size"); !errors.Is(err, vzerr.ErrUnknownSortField) {
		t.Errorf("SortLog(size) = %v", err)
	}
}

func TestGetDataMutDedup(t *testing.T) {
	ds := MakeDataStore(10)
	ds.ReplaceLib(makeFuncs("a", "b"))
	ds.AddMultipleToLog(makeFuncs("c"))

	items, err := ds.GetDataMut(mustSel(t, "1,0,1,2,0"))
	if err != nil {
		t.Fatal(err)
	}
	if got := names(items); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("GetDataMut = %v", got)
	}
	for _, item := range items {
		item.AddTag("seen")
	}
	if !ds.Log()[0].HasTag("seen") {
		t.Errorf("mutation did not reach the stored log item")
	}
	if _, err := ds.GetDataMut(mustSel(t, "7")); !errors.Is(err, vzerr.ErrNoDataFound) {
		t.Errorf("GetDataMut(7) = %v", err)
	}
}

func TestFuzzyFind(t *testing.T) {
	ds := MakeDataStore(10)
	ds.ReplaceLib([]*vzdata.Item{vzdata.NewFunction("recvfrom", 0x10)})
	ds.AddMultipleToLog([]*vzdata.Item{
		vzdata.NewFunction("open", 0x20),
		vzdata.NewClass("java.lang.Object"),
		vzdata.NewFunction("openat", 0x30),
	})
	matches := ds.FuzzyFind("open")
	var got []int
	for _, m := range matches {
		got = append(got, m.Index)
		if m.Score <= 0 {
			t.Errorf("non-positive score for %d", m.Index)
		}
	}
	want := map[int]bool{1: true, 3: true}
	if len(got) != 2 || !want[got[0]] || !want[got[1]] {
		t.Errorf("FuzzyFind(open) = %v, want indices 1 and 3", got)
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Errorf("results not ordered by score: %v", fmt.Sprint(matches))
		}
	}
	if got := ds.FuzzyFind("   "); got != nil {
		t.Errorf("blank pattern = %v", got)
	}
}
