// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package selector parses index selectors ("3", "1-4", "2,5,7", "all",
// "lib:0-2", "log:all") and resolves them into global store indices.
package selector

import (
	"strconv"
	"strings"

	"github.com/vlitzdev/vlitz/pkg/vzerr"
)

const (
	LibPrefix  = "lib:"
	LogPrefix  = "log:"
	AllKeyword = "all"
	ListSep    = ","
	RangeSep   = "-"

	// MaxSpan bounds how many indices a parsed range or list may expand to.
	MaxSpan = 1 << 20
)

// Selector is pure syntax. Resolve maps it onto a store with the given
// library and log lengths.
type Selector interface {
	Resolve(libLen int, logLen int) []int
	String() string
	isSelector()
}

type Single struct {
	Index int
}

type Multiple struct {
	Indices []int
}

// Range is inclusive on both ends. Start may be greater than End, in which
// case it resolves in descending order.
type Range struct {
	Start int
	End   int
}

type All struct{}

type Lib struct {
	Inner Selector
}

type Log struct {
	Inner Selector
}

func (Single) isSelector()   {}
func (Multiple) isSelector() {}
func (Range) isSelector()    {}
func (All) isSelector()      {}
func (Lib) isSelector()      {}
func (Log) isSelector()      {}

func (s Single) Resolve(libLen int, logLen int) []int {
	return []int{s.Index}
}

func (s Multiple) Resolve(libLen int, logLen int) []int {
	rtn := make([]int, len(s.Indices))
	copy(rtn, s.Indices)
	return rtn
}

func (s Range) Resolve(libLen int, logLen int) []int {
	if s.Start <= s.End {
		rtn := make([]int, 0, rangeCap(uint(s.End)-uint(s.Start)))
		for i := s.Start; ; i++ {
			rtn = append(rtn, i)
			if i == s.End {
				return rtn
			}
		}
	}
	rtn := make([]int, 0, rangeCap(uint(s.Start)-uint(s.End)))
	for i := s.Start; ; i-- {
		rtn = append(rtn, i)
		if i == s.End {
			return rtn
		}
	}
}

// rangeCap is the preallocation for a range spanning span+1 indices. span
// is computed in uint so it cannot overflow.
func rangeCap(span uint) int {
	return int(min(span, MaxSpan)) + 1
}

// Resolve for All yields [0, libLen) followed by [0, logLen). The log half is
// not offset by libLen, unlike every other global index.
func (s All) Resolve(libLen int, logLen int) []int {
	rtn := make([]int, 0, libLen+logLen)
	for i := 0; i < libLen; i++ {
		rtn = append(rtn, i)
	}
	for i := 0; i < logLen; i++ {
		rtn = append(rtn, i)
	}
	return rtn
}

func (s Lib) Resolve(libLen int, logLen int) []int {
	return keepBelow(s.Inner.Resolve(libLen, logLen), libLen)
}

func (s Log) Resolve(libLen int, logLen int) []int {
	return keepBelow(s.Inner.Resolve(libLen, logLen), logLen)
}

func keepBelow(indices []int, limit int) []int {
	rtn := make([]int, 0, len(indices))
	for _, idx := range indices {
		if idx < limit {
			rtn = append(rtn, idx)
		}
	}
	return rtn
}

func (s Single) String() string {
	return strconv.Itoa(s.Index)
}

func (s Multiple) String() string {
	parts := make([]string, len(s.Indices))
	for i, idx := range s.Indices {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ListSep)
}

func (s Range) String() string {
	return strconv.Itoa(s.Start) + RangeSep + strconv.Itoa(s.End)
}

func (s All) String() string {
	return AllKeyword
}

func (s Lib) String() string {
	return LibPrefix + s.Inner.String()
}

func (s Log) String() string {
	return LogPrefix + s.Inner.String()
}

// Parse recognizes, in order: lib:/log: wrappers, "all", comma lists,
// "a-b" ranges and bare non-negative integers.
func Parse(text string) (Selector, error) {
	if text == "" {
		return nil, vzerr.New(vzerr.KindSelector, "empty selector")
	}
	if strings.HasPrefix(text, LibPrefix) {
		inner, err := Parse(text[len(LibPrefix):])
		if err != nil {
			return nil, err
		}
		return Lib{Inner: inner}, nil
	}
	if strings.HasPrefix(text, LogPrefix) {
		inner, err := Parse(text[len(LogPrefix):])
		if err != nil {
			return nil, err
		}
		return Log{Inner: inner}, nil
	}
	if strings.EqualFold(text, AllKeyword) {
		return All{}, nil
	}
	if strings.Contains(text, ListSep) {
		return parseList(text)
	}
	if strings.Contains(text, RangeSep) {
		return parseRange(text)
	}
	idx, ok := parseIndex(text)
	if !ok {
		return nil, vzerr.Errorf(vzerr.KindSelector, "invalid selector: %s", text)
	}
	return Single{Index: idx}, nil
}

// parseList expands every part eagerly; lib:, log: and all may not appear
// inside a list.
func parseList(text string) (Selector, error) {
	var indices []int
	for _, part := range strings.Split(text, ListSep) {
		sel, err := Parse(part)
		if err != nil {
			return nil, err
		}
		switch s := sel.(type) {
		case Single:
			indices = append(indices, s.Index)
		case Range:
			indices = append(indices, s.Resolve(0, 0)...)
		case Multiple:
			indices = append(indices, s.Indices...)
		default:
			return nil, vzerr.Errorf(vzerr.KindSelector, "invalid selector part: %s", part)
		}
		if len(indices) > MaxSpan {
			return nil, vzerr.Errorf(vzerr.KindSelector, "selector expands to more than %d indices: %s", MaxSpan, text)
		}
	}
	return Multiple{Indices: indices}, nil
}

func parseRange(text string) (Selector, error) {
	parts := strings.Split(text, RangeSep)
	if len(parts) != 2 {
		return nil, vzerr.Errorf(vzerr.KindSelector, "invalid range selector: %s", text)
	}
	start, ok := parseIndex(parts[0])
	if !ok {
		return nil, vzerr.Errorf(vzerr.KindSelector, "invalid range start: %s", parts[0])
	}
	end, ok := parseIndex(parts[1])
	if !ok {
		return nil, vzerr.Errorf(vzerr.KindSelector, "invalid range end: %s", parts[1])
	}
	lo, hi := min(start, end), max(start, end)
	if uint(hi)-uint(lo) >= MaxSpan {
		return nil, vzerr.Errorf(vzerr.KindSelector, "range selector spans more than %d indices: %s", MaxSpan, text)
	}
	return Range{Start: start, End: end}, nil
}

func parseIndex(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return 0, false
		}
	}
	idx, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return idx, true
}
