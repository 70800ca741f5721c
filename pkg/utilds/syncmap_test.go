// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package utilds

import (
	"sort"
	"testing"
)

func TestSyncMap(t *testing.T) {
	sm := MakeSyncMap[string, int]()
	sm.Set("a", 1)
	sm.Set("b", 2)
	if sm.Get("a") != 1 || sm.Len() != 2 {
		t.Errorf("Get(a) = %d, Len() = %d", sm.Get("a"), sm.Len())
	}
	if _, ok := sm.GetEx("zz"); ok {
		t.Errorf("GetEx(zz) should miss")
	}
	keys := sm.Keys()
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("Keys() = %v", keys)
	}
	if !sm.Delete("a") || sm.Delete("a") {
		t.Errorf("Delete should report presence once")
	}
}

func TestSyncMapForEachReentrant(t *testing.T) {
	sm := MakeSyncMap[int, string]()
	for i := 0; i < 5; i++ {
		sm.Set(i, "x")
	}
	sm.ForEach(func(k int, v string) {
		sm.Delete(k)
	})
	if sm.Len() != 0 {
		t.Errorf("Len() = %d after deleting in ForEach", sm.Len())
	}
}
