// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package vzerr defines the closed set of error kinds returned by the vlitz core.
package vzerr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindGeneral Kind = iota
	KindCommandParse
	KindSelector
	KindFilterExpr
	KindTypeConversion
	KindMemoryAccess
	KindEngine
	KindScriptExec
	KindIO
)

var kindLabels = map[Kind]string{
	KindGeneral:        "general error",
	KindCommandParse:   "command parse error",
	KindSelector:       "selector error",
	KindFilterExpr:     "filter expression error",
	KindTypeConversion: "type conversion error",
	KindMemoryAccess:   "memory access error",
	KindEngine:         "engine error",
	KindScriptExec:     "script execution error",
	KindIO:             "i/o error",
}

func (k Kind) String() string {
	if label, ok := kindLabels[k]; ok {
		return label
	}
	return fmt.Sprintf("error(%d)", int(k))
}

// Error is the single error type produced by the core packages.
// Err, when set, is the wrapped cause (usually one of the sentinels below).
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a message to a cause while keeping the cause's kind when it
// is already a *Error.
func Wrap(err error, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	kind := KindGeneral
	var verr *Error
	if errors.As(err, &verr) {
		kind = verr.Kind
	}
	msg := fmt.Sprintf(format, args...)
	return &Error{Kind: kind, Msg: msg + ": " + err.Error(), Err: err}
}

// KindOf returns the kind of err, or KindGeneral for foreign errors.
func KindOf(err error) Kind {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Kind
	}
	return KindGeneral
}

var (
	ErrEmptyCommand     = New(KindCommandParse, "empty command")
	ErrNoDataFound      = New(KindSelector, "no data found for selector")
	ErrEmptyLog         = New(KindGeneral, "log is empty")
	ErrUnknownSortField = New(KindGeneral, "unknown sort field")
	ErrAddressOverflow  = New(KindGeneral, "address overflow")
	ErrAddressUnderflow = New(KindGeneral, "address underflow")
	ErrNoAddressField   = New(KindGeneral, "selected data has no address field")
	ErrNoSelection      = New(KindGeneral, "no data selected")
	ErrNotAttached      = New(KindEngine, "no process attached")
	ErrUnsupported      = New(KindEngine, "operation not supported by engine")
)

// With returns a new error of the sentinel's kind that wraps the sentinel and
// carries additional detail.
func With(sentinel *Error, format string, args ...any) *Error {
	return &Error{
		Kind: sentinel.Kind,
		Msg:  sentinel.Msg + ": " + fmt.Sprintf(format, args...),
		Err:  sentinel,
	}
}
