// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package panichandler turns a recovered panic into an error and logs the
// stack, so front ends can report it and keep running.
package panichandler

import (
	"fmt"
	"runtime/debug"

	"github.com/vlitzdev/vlitz/pkg/vzlog"
)

// PanicHandler is meant to be called with recover() inside a deferred func.
// It returns nil when there was no panic.
func PanicHandler(debugStr string, recoverVal any) error {
	if recoverVal == nil {
		return nil
	}
	log := vzlog.Logger("panic")
	log.Errorf("[panic] in %s: %v", debugStr, recoverVal)
	log.Errorf("[panic] stack trace:\n%s", string(debug.Stack()))
	if err, ok := recoverVal.(error); ok {
		return fmt.Errorf("panic in %s: %w", debugStr, err)
	}
	return fmt.Errorf("panic in %s: %v", debugStr, recoverVal)
}
