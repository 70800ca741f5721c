// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// MaxStringRead bounds how many bytes are fetched when reading a String value.
const MaxStringRead = 256

// ReadSize returns how many bytes must be fetched to decode a value of type t.
// size is only consulted for the variable-width types.
func ReadSize(t MemoryType, size int) int {
	if w := t.Size(); w > 0 {
		return w
	}
	if t == String && size <= 0 {
		return MaxStringRead
	}
	return size
}

// Decode interprets raw little-endian target memory as a value of type t.
// Strings stop at the first NUL byte.
func Decode(t MemoryType, raw []byte) (Value, error) {
	rtn := Value{Type: t}
	if w := t.Size(); w > 0 && len(raw) < w {
		return rtn, fmt.Errorf("short read for %s: have %d bytes, need %d", t.Keyword(), len(raw), w)
	}
	le := binary.LittleEndian
	switch t {
	case Byte:
		rtn.Int = int64(int8(raw[0]))
	case UByte:
		rtn.Uint = uint64(raw[0])
	case Short:
		rtn.Int = int64(int16(le.Uint16(raw)))
	case UShort:
		rtn.Uint = uint64(le.Uint16(raw))
	case Int:
		rtn.Int = int64(int32(le.Uint32(raw)))
	case UInt:
		rtn.Uint = uint64(le.Uint32(raw))
	case Long:
		rtn.Int = int64(le.Uint64(raw))
	case ULong, Pointer:
		rtn.Uint = le.Uint64(raw)
	case Float:
		rtn.Float = float64(math.Float32frombits(le.Uint32(raw)))
	case Double:
		rtn.Float = math.Float64frombits(le.Uint64(raw))
	case Bool:
		rtn.Bool = raw[0] != 0
	case String:
		if idx := bytes.IndexByte(raw, 0); idx >= 0 {
			raw = raw[:idx]
		}
		rtn.Str = string(raw)
	case Bytes:
		rtn.Raw = bytes.Clone(raw)
	default:
		return rtn, fmt.Errorf("unknown memory type %v", t)
	}
	return rtn, nil
}

// Encode is the inverse of Decode. Strings are written with a trailing NUL.
func Encode(v Value) ([]byte, error) {
	le := binary.LittleEndian
	switch v.Type {
	case Byte:
		return []byte{byte(int8(v.Int))}, nil
	case UByte:
		return []byte{byte(v.Uint)}, nil
	case Short:
		return le.AppendUint16(nil, uint16(int16(v.Int))), nil
	case UShort:
		return le.AppendUint16(nil, uint16(v.Uint)), nil
	case Int:
		return le.AppendUint32(nil, uint32(int32(v.Int))), nil
	case UInt:
		return le.AppendUint32(nil, uint32(v.Uint)), nil
	case Long:
		return le.AppendUint64(nil, uint64(v.Int)), nil
	case ULong, Pointer:
		return le.AppendUint64(nil, v.Uint), nil
	case Float:
		return le.AppendUint32(nil, math.Float32bits(float32(v.Float))), nil
	case Double:
		return le.AppendUint64(nil, math.Float64bits(v.Float)), nil
	case Bool:
		if v.Bool {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case String:
		return append([]byte(v.Str), 0), nil
	case Bytes:
		return bytes.Clone(v.Raw), nil
	}
	return nil, fmt.Errorf("unknown memory type %v", v.Type)
}
