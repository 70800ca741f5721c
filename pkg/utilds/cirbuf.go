// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package utilds

import "sync"

// CirBuf is a thread-safe ring of at most MaxSize elements. Writing to a
// full ring evicts the oldest element. Storage grows on demand, so a large
// MaxSize costs nothing until it is used.
type CirBuf[T any] struct {
	Lock    *sync.Mutex
	MaxSize int
	buf     []T
	start   int
	count   int
}

func MakeCirBuf[T any](maxSize int) *CirBuf[T] {
	return &CirBuf[T]{
		Lock:    &sync.Mutex{},
		MaxSize: max(maxSize, 1),
	}
}

// Write appends element and returns the evicted element, if any.
func (cb *CirBuf[T]) Write(element T) (T, bool) {
	cb.Lock.Lock()
	defer cb.Lock.Unlock()
	var evicted T
	if cb.count == cb.MaxSize {
		evicted = cb.buf[cb.start]
		cb.buf[cb.start] = element
		cb.start = (cb.start + 1) % len(cb.buf)
		return evicted, true
	}
	if cb.count == len(cb.buf) {
		cb.grow_nolock()
	}
	cb.buf[(cb.start+cb.count)%len(cb.buf)] = element
	cb.count++
	return evicted, false
}

// grow_nolock doubles capacity (bounded by MaxSize) and unrolls the ring so
// that start is 0 again.
func (cb *CirBuf[T]) grow_nolock() {
	newBuf := make([]T, min(max(len(cb.buf)*2, 8), cb.MaxSize))
	for i := 0; i < cb.count; i++ {
		newBuf[i] = cb.buf[(cb.start+i)%len(cb.buf)]
	}
	cb.buf = newBuf
	cb.start = 0
}

// Read removes and returns the oldest element.
func (cb *CirBuf[T]) Read() (T, bool) {
	cb.Lock.Lock()
	defer cb.Lock.Unlock()
	var zero T
	if cb.count == 0 {
		return zero, false
	}
	elem := cb.buf[cb.start]
	cb.buf[cb.start] = zero
	cb.start = (cb.start + 1) % len(cb.buf)
	cb.count--
	if cb.count == 0 {
		cb.buf = nil
		cb.start = 0
	}
	return elem, true
}

// GetAll returns every element, oldest first, without removing them.
func (cb *CirBuf[T]) GetAll() []T {
	return cb.Last(-1)
}

// Last returns the newest n elements, oldest first. n < 0 means all.
func (cb *CirBuf[T]) Last(n int) []T {
	cb.Lock.Lock()
	defer cb.Lock.Unlock()
	if n < 0 || n > cb.count {
		n = cb.count
	}
	rtn := make([]T, 0, n)
	for i := cb.count - n; i < cb.count; i++ {
		rtn = append(rtn, cb.buf[(cb.start+i)%len(cb.buf)])
	}
	return rtn
}

func (cb *CirBuf[T]) Clear() {
	cb.Lock.Lock()
	defer cb.Lock.Unlock()
	cb.buf = nil
	cb.start = 0
	cb.count = 0
}

func (cb *CirBuf[T]) Size() int {
	cb.Lock.Lock()
	defer cb.Lock.Unlock()
	return cb.count
}

func (cb *CirBuf[T]) IsEmpty() bool {
	return cb.Size() == 0
}

func (cb *CirBuf[T]) IsFull() bool {
	cb.Lock.Lock()
	defer cb.Lock.Unlock()
	return cb.count == cb.MaxSize
}
