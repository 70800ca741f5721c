// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package panichandler

import (
	"errors"
	"io"
	"testing"
)

func TestPanicHandler(t *testing.T) {
	if err := PanicHandler("noop", nil); err != nil {
		t.Errorf("nil recover value = %v", err)
	}
	err := func() (rtn error) {
		defer func() {
			rtn = PanicHandler("reader", recover())
		}()
		panic(io.ErrUnexpectedEOF)
	}()
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("error %v should wrap the panic value", err)
	}
	err = func() (rtn error) {
		defer func() {
			rtn = PanicHandler("cmd", recover())
		}()
		panic("boom")
	}()
	if err == nil || err.Error() != "panic in cmd: boom" {
		t.Errorf("string panic = %v", err)
	}
}
