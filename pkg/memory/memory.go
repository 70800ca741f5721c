// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MemoryType is the interpretation applied to a span of target memory.
type MemoryType int

const (
	Byte MemoryType = iota
	UByte
	Short
	UShort
	Int
	UInt
	Long
	ULong
	Float
	Double
	Bool
	Pointer
	String
	Bytes
)

var typeNames = [...]string{
	Byte:    "Byte",
	UByte:   "UByte",
	Short:   "Short",
	UShort:  "UShort",
	Int:     "Int",
	UInt:    "UInt",
	Long:    "Long",
	ULong:   "ULong",
	Float:   "Float",
	Double:  "Double",
	Bool:    "Bool",
	Pointer: "Pointer",
	String:  "String",
	Bytes:   "Bytes",
}

// keywords accepted by ParseType, lowercase
var typeKeywords = map[string]MemoryType{
	"byte":      Byte,
	"int8":      Byte,
	"ubyte":     UByte,
	"uint8":     UByte,
	"short":     Short,
	"int16":     Short,
	"ushort":    UShort,
	"uint16":    UShort,
	"int":       Int,
	"int32":     Int,
	"uint":      UInt,
	"uint32":    UInt,
	"long":      Long,
	"int64":     Long,
	"ulong":     ULong,
	"uint64":    ULong,
	"float":     Float,
	"double":    Double,
	"bool":      Bool,
	"pointer":   Pointer,
	"string":    String,
	"utf8":      String,
	"ascii":     String,
	"bytes":     Bytes,
	"bytearray": Bytes,
}

func (t MemoryType) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("MemoryType(%d)", int(t))
	}
	return typeNames[t]
}

// Keyword returns the lowercase name used by engine scripts ("uint", "float", ...).
func (t MemoryType) Keyword() string {
	return strings.ToLower(t.String())
}

// Size returns the byte width of the type, 0 for variable-width types.
func (t MemoryType) Size() int {
	switch t {
	case Byte, UByte, Bool:
		return 1
	case Short, UShort:
		return 2
	case Int, UInt, Float:
		return 4
	case Long, ULong, Double, Pointer:
		return 8
	default:
		return 0
	}
}

func (t MemoryType) IsInteger() bool {
	switch t {
	case Byte, UByte, Short, UShort, Int, UInt, Long, ULong:
		return true
	}
	return false
}

func (t MemoryType) IsFloat() bool {
	return t == Float || t == Double
}

func (t MemoryType) IsNumeric() bool {
	return t.IsInteger() || t.IsFloat()
}

func (t MemoryType) isSigned() bool {
	switch t {
	case Byte, Short, Int, Long:
		return true
	}
	return false
}

// ParseType resolves a (case-insensitive) memory type keyword.
func ParseType(s string) (MemoryType, bool) {
	t, ok := typeKeywords[strings.ToLower(s)]
	return t, ok
}

// IsTypeKeyword reports whether s names a memory type.
func IsTypeKeyword(s string) bool {
	_, ok := ParseType(s)
	return ok
}

// Keywords returns every accepted type keyword grouped by type, in type order.
func Keywords() [][]string {
	rtn := make([][]string, len(typeNames))
	for kw, t := range typeKeywords {
		rtn[t] = append(rtn[t], kw)
	}
	return rtn
}

// Value is a typed value read from (or to be written to) target memory.
// Integers are kept in Int (signed types) or Uint (unsigned types, Pointer),
// floats in Float, strings in Str and raw bytes in Raw.
type Value struct {
	Type  MemoryType
	Int   int64
	Uint  uint64
	Float float64
	Bool  bool
	Str   string
	Raw   []byte
}

// ParseValue converts user text into a Value of the given type.
func ParseValue(text string, t MemoryType) (Value, error) {
	rtn := Value{Type: t}
	switch {
	case t.IsInteger() && t.isSigned():
		v, err := strconv.ParseInt(text, 0, t.Size()*8)
		if err != nil {
			return rtn, fmt.Errorf("failed to parse %s from %q: %w", t.Keyword(), text, err)
		}
		rtn.Int = v
	case t.IsInteger():
		v, err := strconv.ParseUint(text, 0, t.Size()*8)
		if err != nil {
			return rtn, fmt.Errorf("failed to parse %s from %q: %w", t.Keyword(), text, err)
		}
		rtn.Uint = v
	case t.IsFloat():
		v, err := strconv.ParseFloat(text, t.Size()*8)
		if err != nil {
			return rtn, fmt.Errorf("failed to parse %s from %q: %w", t.Keyword(), text, err)
		}
		rtn.Float = v
	case t == Bool:
		switch strings.ToLower(text) {
		case "true", "1":
			rtn.Bool = true
		case "false", "0":
			rtn.Bool = false
		default:
			return rtn, fmt.Errorf("failed to parse bool from %q", text)
		}
	case t == Pointer:
		v, err := ParseAddress(text)
		if err != nil {
			return rtn, err
		}
		rtn.Uint = v
	case t == String:
		rtn.Str = text
	case t == Bytes:
		if !hasHexPrefix(text) {
			return rtn, fmt.Errorf("cannot parse %q as bytes, use 0x prefix for hex", text)
		}
		raw, err := hex.DecodeString(text[2:])
		if err != nil {
			return rtn, fmt.Errorf("failed to parse hex bytes %q: %w", text, err)
		}
		rtn.Raw = raw
	default:
		return rtn, fmt.Errorf("unknown memory type %v", t)
	}
	return rtn, nil
}

// Compare orders v against other. Both must be of comparable kinds: numeric
// with numeric, bool with bool, string with string, bytes with bytes.
func (v Value) Compare(other Value) (int, bool) {
	switch {
	case v.Type.IsNumeric() || v.Type == Pointer:
		if !(other.Type.IsNumeric() || other.Type == Pointer) {
			return 0, false
		}
		if v.Type.IsFloat() || other.Type.IsFloat() {
			return cmpFloat(v.asFloat(), other.asFloat()), true
		}
		if v.Type.isSigned() || other.Type.isSigned() {
			return cmpInt(v.asInt(), other.asInt()), true
		}
		return cmpUint(v.Uint, other.Uint), true
	case v.Type == Bool:
		if other.Type != Bool {
			return 0, false
		}
		return cmpInt(boolInt(v.Bool), boolInt(other.Bool)), true
	case v.Type == String:
		if other.Type != String {
			return 0, false
		}
		return strings.Compare(v.Str, other.Str), true
	case v.Type == Bytes:
		if other.Type != Bytes {
			return 0, false
		}
		return strings.Compare(string(v.Raw), string(other.Raw)), true
	}
	return 0, false
}

func (v Value) asFloat() float64 {
	switch {
	case v.Type.IsFloat():
		return v.Float
	case v.Type.isSigned():
		return float64(v.Int)
	default:
		return float64(v.Uint)
	}
}

func (v Value) asInt() int64 {
	if v.Type.isSigned() {
		return v.Int
	}
	if v.Uint > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v.Uint)
}

func (v Value) String() string {
	switch {
	case v.Type == Pointer:
		return fmt.Sprintf("0x%x", v.Uint)
	case v.Type.IsInteger() && v.Type.isSigned():
		return strconv.FormatInt(v.Int, 10)
	case v.Type.IsInteger():
		return strconv.FormatUint(v.Uint, 10)
	case v.Type.IsFloat():
		return strconv.FormatFloat(v.Float, 'g', -1, v.Type.Size()*8)
	case v.Type == Bool:
		return strconv.FormatBool(v.Bool)
	case v.Type == String:
		return strconv.Quote(v.Str)
	case v.Type == Bytes:
		if len(v.Raw) > 16 {
			return fmt.Sprintf("0x%s ... (%d bytes)", hex.EncodeToString(v.Raw[:8]), len(v.Raw))
		}
		return "0x" + hex.EncodeToString(v.Raw)
	}
	return "?"
}

// ParseAddress parses "0x"-prefixed hex or plain decimal into an address.
func ParseAddress(text string) (uint64, error) {
	if hasHexPrefix(text) {
		v, err := strconv.ParseUint(text[2:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid hex address: %s", text)
		}
		return v, nil
	}
	v, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address: %s", text)
	}
	return v, nil
}

func hasHexPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (t MemoryType) MarshalText() ([]byte, error) {
	return []byte(t.Keyword()), nil
}

func (t *MemoryType) UnmarshalText(text []byte) error {
	mt, ok := ParseType(string(text))
	if !ok {
		return fmt.Errorf("unknown memory type %q", string(text))
	}
	*t = mt
	return nil
}
