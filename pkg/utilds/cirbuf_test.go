// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package utilds

import (
	"reflect"
	"sync"
	"testing"
)

func TestCirBufBasicOperations(t *testing.T) {
	cb := MakeCirBuf[int](5)
	if !cb.IsEmpty() || cb.IsFull() || cb.Size() != 0 {
		t.Fatalf("new buffer: empty=%v full=%v size=%d", cb.IsEmpty(), cb.IsFull(), cb.Size())
	}
	cb.Write(10)
	cb.Write(20)
	cb.Write(30)
	if cb.Size() != 3 {
		t.Errorf("Expected size 3, got %d", cb.Size())
	}
	if v, ok := cb.Read(); !ok || v != 10 {
		t.Errorf("Read() = %d, %v, want 10", v, ok)
	}
	if got := cb.GetAll(); !reflect.DeepEqual(got, []int{20, 30}) {
		t.Errorf("GetAll() = %v", got)
	}
	cb.Read()
	cb.Read()
	if _, ok := cb.Read(); ok {
		t.Errorf("Read() on empty buffer should fail")
	}
}

func TestCirBufOverflow(t *testing.T) {
	cb := MakeCirBuf[int](3)
	for i := 1; i <= 3; i++ {
		if _, evicted := cb.Write(i); evicted {
			t.Fatalf("Write(%d) evicted before full", i)
		}
	}
	if !cb.IsFull() {
		t.Errorf("buffer should be full")
	}
	old, evicted := cb.Write(4)
	if !evicted || old != 1 {
		t.Errorf("Write(4) evicted %d, %v, want 1", old, evicted)
	}
	cb.Write(5)
	if got := cb.GetAll(); !reflect.DeepEqual(got, []int{3, 4, 5}) {
		t.Errorf("GetAll() = %v, want [3 4 5]", got)
	}
}

func TestCirBufLast(t *testing.T) {
	cb := MakeCirBuf[string](4)
	for _, s := range []string{"a", "b", "c", "d", "e", "f"} {
		cb.Write(s)
	}
	tests := []struct {
		n    int
		want []string
	}{
		{0, []string{}},
		{2, []string{"e", "f"}},
		{4, []string{"c", "d", "e", "f"}},
		{10, []string{"c", "d", "e", "f"}},
		{-1, []string{"c", "d", "e", "f"}},
	}
	for _, tt := range tests {
		if got := cb.Last(tt.n); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Last(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
	cb.Clear()
	if !cb.IsEmpty() {
		t.Errorf("Clear() left %d elements", cb.Size())
	}
}

func TestCirBufGrowAfterWrap(t *testing.T) {
	cb := MakeCirBuf[int](100)
	for i := 0; i < 6; i++ {
		cb.Write(i)
	}
	// wrap inside the initial storage, then force a grow
	cb.Read()
	cb.Read()
	for i := 6; i < 20; i++ {
		cb.Write(i)
	}
	want := make([]int, 0, 18)
	for i := 2; i < 20; i++ {
		want = append(want, i)
	}
	if got := cb.GetAll(); !reflect.DeepEqual(got, want) {
		t.Errorf("GetAll() = %v, want %v", got, want)
	}
}

func TestCirBufConcurrentWrites(t *testing.T) {
	cb := MakeCirBuf[int](50)
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				cb.Write(i)
			}
		}()
	}
	wg.Wait()
	if cb.Size() != 50 {
		t.Errorf("Size() = %d, want 50", cb.Size())
	}
}
