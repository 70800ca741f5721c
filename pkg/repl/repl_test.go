// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package repl

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/vlitzdev/vlitz/pkg/engine/memengine"
	"github.com/vlitzdev/vlitz/pkg/executor"
	"github.com/vlitzdev/vlitz/pkg/vzdata"
)

func TestRunLines(t *testing.T) {
	exec := executor.MakeExecutor(executor.Opts{Engine: memengine.MakeDemo()})
	var out bytes.Buffer
	r := MakeRepl(exec, Opts{In: strings.NewReader("list module\n\nbogus\nexit\nlist class\n"), Out: &out})
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"Added 2 modules to log\n",
		"[0] [Module] acres @ 0x400000\n",
		"[1] [Module] libc.so.6 @ 0x7f1000000000\n",
		"Error: ",
		"Exiting...\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "classes") {
		t.Errorf("commands after exit were executed:\n%s", got)
	}
	if got := exec.RecentLines(10); len(got) != 3 {
		t.Errorf("recorded lines = %v", got)
	}
}

func TestFormatResult(t *testing.T) {
	label := "hp"
	item := vzdata.NewFunction("main", 0x400100)
	item.Label = &label
	tests := []struct {
		name  string
		res   executor.Result
		color bool
		want  []string
	}{
		{"empty success", executor.Success(""), false, nil},
		{"multiline", executor.Success("a\nb"), false, []string{"a", "b"}},
		{"error", executor.Error("boom"), false, []string{"Error: boom"}},
		{"error color", executor.Error("boom"), true, []string{colorRed + "Error" + colorReset + ": boom"}},
		{"exit", executor.Result{Kind: executor.ResultExit}, false, []string{"Exiting..."}},
		{
			"datalist",
			executor.DataList("hdr", []vzdata.IndexedItem{{Index: 4, Item: item}}),
			false,
			[]string{"hdr", "[4] [Function] main @ 0x400100 (hp)"},
		},
		{
			"datalist color",
			executor.DataList("", []vzdata.IndexedItem{{Index: 4, Item: item}}),
			true,
			[]string{"[4] [" + colorCyan + "Function" + colorReset + "] main @ 0x400100 (hp)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatResult(tt.res, tt.color)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Errorf("FormatResult = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStartupExit(t *testing.T) {
	exec := executor.MakeExecutor(executor.Opts{Engine: memengine.MakeDemo()})
	var out bytes.Buffer
	r := MakeRepl(exec, Opts{
		In:      strings.NewReader("list module\n"),
		Out:     &out,
		Startup: []string{"nav goto 0x600010", "quit"},
	})
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := "Navigated to 0x600010\nExiting...\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}
