// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package utilds

import "sync"

// SyncMap is a map guarded by a RWMutex. ForEach iterates over a snapshot,
// so fn may call back into the map.
type SyncMap[K comparable, T any] struct {
	lock *sync.RWMutex
	m    map[K]T
}

func MakeSyncMap[K comparable, T any]() *SyncMap[K, T] {
	return &SyncMap[K, T]{
		lock: &sync.RWMutex{},
		m:    make(map[K]T),
	}
}

func (sm *SyncMap[K, T]) Set(key K, value T) {
	sm.lock.Lock()
	defer sm.lock.Unlock()
	sm.m[key] = value
}

func (sm *SyncMap[K, T]) Get(key K) T {
	v, _ := sm.GetEx(key)
	return v
}

func (sm *SyncMap[K, T]) GetEx(key K) (T, bool) {
	sm.lock.RLock()
	defer sm.lock.RUnlock()
	v, ok := sm.m[key]
	return v, ok
}

// Delete removes key and reports whether it was present.
func (sm *SyncMap[K, T]) Delete(key K) bool {
	sm.lock.Lock()
	defer sm.lock.Unlock()
	_, ok := sm.m[key]
	delete(sm.m, key)
	return ok
}

func (sm *SyncMap[K, T]) Len() int {
	sm.lock.RLock()
	defer sm.lock.RUnlock()
	return len(sm.m)
}

func (sm *SyncMap[K, T]) Keys() []K {
	sm.lock.RLock()
	defer sm.lock.RUnlock()
	keys := make([]K, 0, len(sm.m))
	for k := range sm.m {
		keys = append(keys, k)
	}
	return keys
}

func (sm *SyncMap[K, T]) ForEach(fn func(K, T)) {
	sm.lock.RLock()
	snapshot := make(map[K]T, len(sm.m))
	for k, v := range sm.m {
		snapshot[k] = v
	}
	sm.lock.RUnlock()
	for k, v := range snapshot {
		fn(k, v)
	}
}
