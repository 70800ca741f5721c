// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"strconv"
	"strings"

	"github.com/vlitzdev/vlitz/pkg/selector"
	"github.com/vlitzdev/vlitz/pkg/vzerr"
)

// Arg is one typed command argument. The variants are closed to this package.
type Arg interface {
	String() string
	isArg()
}

type StringArg struct {
	Value string
}

type SelectorArg struct {
	Selector selector.Selector
}

// FilterArg holds an unvalidated filter expression; it is parsed where used.
type FilterArg struct {
	Expr string
}

type AddressArg struct {
	Value uint64
}

type NumberArg struct {
	Value int64
}

type FloatArg struct {
	Value float64
}

func (StringArg) isArg()   {}
func (SelectorArg) isArg() {}
func (FilterArg) isArg()   {}
func (AddressArg) isArg()  {}
func (NumberArg) isArg()   {}
func (FloatArg) isArg()    {}

func (a StringArg) String() string   { return a.Value }
func (a SelectorArg) String() string { return a.Selector.String() }
func (a FilterArg) String() string   { return a.Expr }
func (a AddressArg) String() string  { return "0x" + strconv.FormatUint(a.Value, 16) }
func (a NumberArg) String() string   { return strconv.FormatInt(a.Value, 10) }
func (a FloatArg) String() string    { return strconv.FormatFloat(a.Value, 'g', -1, 64) }

// filter expressions are recognized by any of these characters
const filterChars = "=<>:"

// ParseArg classifies a single token. First match wins: hex address,
// signed integer, float, selector, filter expression, plain string.
func ParseArg(token string) Arg {
	if hasHexPrefix(token) {
		if addr, err := strconv.ParseUint(token[2:], 16, 64); err == nil {
			return AddressArg{Value: addr}
		}
	}
	if num, err := strconv.ParseInt(token, 10, 64); err == nil {
		return NumberArg{Value: num}
	}
	if !hasHexPrefix(token) {
		if f, err := strconv.ParseFloat(token, 64); err == nil {
			return FloatArg{Value: f}
		}
	}
	if sel, err := selector.Parse(token); err == nil {
		return SelectorArg{Selector: sel}
	}
	if strings.ContainsAny(token, filterChars) {
		return FilterArg{Expr: token}
	}
	return StringArg{Value: token}
}

func ParseArgs(tokens []string) []Arg {
	args := make([]Arg, 0, len(tokens))
	for _, tok := range tokens {
		args = append(args, ParseArg(tok))
	}
	return args
}

func hasHexPrefix(s string) bool {
	return strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")
}

func conversionError(want string, arg Arg) error {
	return vzerr.Errorf(vzerr.KindTypeConversion, "expected %s argument, got %q", want, arg.String())
}

func AsString(arg Arg) (string, error) {
	if a, ok := arg.(StringArg); ok {
		return a.Value, nil
	}
	return "", conversionError("string", arg)
}

// AsSelector also accepts a non-negative number as a single index, since the
// arg typer classifies bare integers as numbers before selectors.
func AsSelector(arg Arg) (selector.Selector, error) {
	switch a := arg.(type) {
	case SelectorArg:
		return a.Selector, nil
	case NumberArg:
		if a.Value >= 0 {
			return selector.Single{Index: int(a.Value)}, nil
		}
	}
	return nil, conversionError("selector", arg)
}

func AsFilterExpr(arg Arg) (string, error) {
	if a, ok := arg.(FilterArg); ok {
		return a.Expr, nil
	}
	return "", conversionError("filter expression", arg)
}

func AsAddress(arg Arg) (uint64, error) {
	switch a := arg.(type) {
	case AddressArg:
		return a.Value, nil
	case NumberArg:
		if a.Value >= 0 {
			return uint64(a.Value), nil
		}
	}
	return 0, conversionError("address", arg)
}

func AsNumber(arg Arg) (int64, error) {
	switch a := arg.(type) {
	case NumberArg:
		return a.Value, nil
	case AddressArg:
		return int64(a.Value), nil
	}
	return 0, conversionError("number", arg)
}

func AsFloat(arg Arg) (float64, error) {
	switch a := arg.(type) {
	case FloatArg:
		return a.Value, nil
	case NumberArg:
		return float64(a.Value), nil
	}
	return 0, conversionError("float", arg)
}
