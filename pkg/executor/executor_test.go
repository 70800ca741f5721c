// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/vlitzdev/vlitz/pkg/engine/memengine"
	"github.com/vlitzdev/vlitz/pkg/histdb"
)

type step struct {
	line string
	kind ResultKind
	msg  string // exact message, or a substring when prefixed with "~"
}

func runSteps(t *testing.T, e *Executor, steps []step) {
	t.Helper()
	ctx := context.Background()
	for _, s := range steps {
		res := e.ExecuteLine(ctx, s.line)
		if res.Kind != s.kind {
			t.Fatalf("%q: kind = %s (%q), want %s", s.line, res.Kind, res.Message, s.kind)
		}
		if s.msg == "" {
			continue
		}
		if sub, ok := strings.CutPrefix(s.msg, "~"); ok {
			if !strings.Contains(res.Message, sub) {
				t.Errorf("%q: message %q does not contain %q", s.line, res.Message, sub)
			}
		} else if res.Message != s.msg {
			t.Errorf("%q: message = %q, want %q", s.line, res.Message, s.msg)
		}
	}
}

func indices(res Result) []int {
	rtn := make([]int, len(res.Items))
	for i, ii := range res.Items {
		rtn[i] = ii.Index
	}
	return rtn
}

func makeDemoExecutor(opts Opts) (*Executor, *memengine.Engine) {
	demo := memengine.MakeDemo()
	opts.Engine = demo
	return MakeExecutor(opts), demo
}

func TestNavigation(t *testing.T) {
	e, _ := makeDemoExecutor(Opts{})
	runSteps(t, e, []step{
		{"list module", ResultDataList, "Added 2 modules to log"},
		{"sav 0-1", ResultSuccess, "Saved 2 items to library"},
		{"sel 0", ResultSuccess, "Selected: [0] [Module] acres @ 0x400000"},
		{"+ 0x10", ResultSuccess, "Address advanced by 16"},
		{"nav sub 32", ResultSuccess, "Address decreased by 32"},
		{"sel 0-1", ResultError, "Only one item can be selected"},
		{"sel 99", ResultError, "~Selection error"},
		{"nav goto 1", ResultSuccess, "Navigated to 0x7f1000000000"},
		{"nav goto 0x600010", ResultSuccess, "Navigated to 0x600010"},
		{"unsel", ResultSuccess, "Selection cleared"},
		{"+ 1", ResultError, "~no data selected"},
	})
	if got := e.Prompt(); got != "vlitz>" {
		t.Errorf("Prompt() = %q", got)
	}
	runSteps(t, e, []step{{"sel 1", ResultSuccess, ""}})
	if got := e.Prompt(); got != "vlitz:Module:libc.so.6>" {
		t.Errorf("Prompt() = %q", got)
	}
}

func TestGotoWithoutAddress(t *testing.T) {
	e, _ := makeDemoExecutor(Opts{})
	runSteps(t, e, []step{
		{"list class", ResultDataList, "Added 3 classes to log"},
		{"nav goto 0", ResultError, "~selected data has no address field"},
	})
}

func TestMemoryCommands(t *testing.T) {
	e, demo := makeDemoExecutor(Opts{})
	runSteps(t, e, []step{
		{"nav goto 0x600010", ResultSuccess, ""},
		{"r", ResultSuccess, "0x600010 [UInt] = 250"},
		{"w 300", ResultSuccess, "Wrote 300 to 0x600010"},
		{"mem read", ResultSuccess, "0x600010 [UInt] = 300"},
		{"r 0x600018 float", ResultSuccess, "0x600018 [Float] = 1.5"},
		{"w 0x600014 -5 int", ResultSuccess, "Wrote -5 to 0x600014"},
		{"r 0x600014 int", ResultSuccess, "0x600014 [Int] = -5"},
		{"r 0x600014 quux", ResultError, "~unknown memory type"},
		{"w 0x400000 1", ResultError, "~not writable"},
		{"mem type ulong", ResultSuccess, "Memory type set to ULong"},
		{"lm", ResultSuccess, "~[Pointer] 0x600010 = "},
		{"mem dump 0x600040 8", ResultSuccess, "~|farmer..|"},
	})
	demo.Tick()
	runSteps(t, e, []step{{"mem type uint", ResultSuccess, ""}, {"r", ResultSuccess, "0x600010 [UInt] = 301"}})
}

func TestTracerCommands(t *testing.T) {
	e, demo := makeDemoExecutor(Opts{})
	runSteps(t, e, []step{
		{"nav goto 0x600010", ResultSuccess, ""},
		{"mem lock 9999", ResultSuccess, "Locked 0x600010 to 9999"},
		{"mem watch 0x600014 int", ResultSuccess, "Watching 0x600014 as Int"},
		{"la", ResultSuccess, "lock  0x600010 UInt = 9999\nwatch 0x600014 Int"},
	})
	demo.Tick()
	runSteps(t, e, []step{
		{"r", ResultSuccess, "0x600010 [UInt] = 9999"},
		{"mem unlock", ResultSuccess, "Unlocked 0x600010"},
		{"mem unwatch 0x600014", ResultSuccess, "Stopped watching 0x600014"},
		{"mem untrace", ResultError, "~no trace active"},
		{"attach list", ResultSuccess, "No active hooks"},
	})
}

func TestUnsupportedAndDetached(t *testing.T) {
	e, _ := makeDemoExecutor(Opts{})
	runSteps(t, e, []step{
		{"scan search 47.3 float", ResultError, "engine error: scan search is not supported by the memory engine"},
		{"mem disas 0x400000", ResultError, "~mem disas is not supported"},
		{"attach hook 0", ResultError, "~attach hook is not supported"},
	})
	detached := MakeExecutor(Opts{})
	runSteps(t, detached, []step{
		{"list module", ResultError, "~no process attached"},
		{"mem watch 0x10", ResultError, "~no process attached"},
		{"r 0x10", ResultError, "~no process attached"},
		{"scan exact 1", ResultError, "~not supported by the detached engine"},
	})
}

func TestLogPaging(t *testing.T) {
	e, _ := makeDemoExecutor(Opts{ItemsPerPage: 2})
	runSteps(t, e, []step{{"lg", ResultSuccess, "Log is empty"}})
	res := e.ExecuteLine(context.Background(), "list exports libc.so.6")
	if !reflect.DeepEqual(indices(res), []int{0, 1, 2, 3, 4, 5}) {
		t.Fatalf("exports indices = %v", indices(res))
	}
	runSteps(t, e, []step{
		{"lg", ResultDataList, "Log page 1/3 (6 items)"},
		{"nxt", ResultSuccess, "Moved to log page 2"},
		{"nxt 5", ResultSuccess, "Moved to log page 3"},
		{"prv", ResultSuccess, "Moved to log page 2"},
	})
	res = e.ExecuteLine(context.Background(), "lg")
	if !reflect.DeepEqual(indices(res), []int{2, 3}) {
		t.Errorf("page 2 indices = %v", indices(res))
	}
	runSteps(t, e, []step{
		{"log sort name", ResultSuccess, "Sorted log by name"},
		{"log sort size", ResultError, "~unknown sort field"},
		{"lg 1", ResultDataList, ""},
	})
	res = e.ExecuteLine(context.Background(), "lg")
	if len(res.Items) != 2 || !strings.Contains(res.Items[0].Item.String(), "errno") {
		t.Errorf("sorted first page = %s", res.String())
	}
	res = e.ExecuteLine(context.Background(), "find mlc")
	if res.Kind != ResultDataList || !strings.Contains(res.Items[0].Item.String(), "malloc") {
		t.Errorf("find mlc = %s", res.String())
	}
}

func TestMetaCommands(t *testing.T) {
	e, _ := makeDemoExecutor(Opts{})
	runSteps(t, e, []step{
		{"list module", ResultDataList, ""},
		{"sav 0-1", ResultSuccess, ""},
		{"meta label 0 farm", ResultSuccess, "Applied label 'farm' to 1 items"},
		{"meta tag 0-1 hot", ResultSuccess, "Added tag 'hot' to 2 items"},
		{"meta tags 0,2", ResultSuccess, "Item 0: [hot]\nItem 2: []"},
		{"meta untag 0-3 hot", ResultSuccess, "Removed tag 'hot' from 2 items"},
		{"meta tag 7 hot", ResultError, "~no data found"},
		{"meta label 0", ResultError, "Selector and label arguments required"},
	})
	if got := e.Store().Lib()[0].String(); got != "[Module] acres @ 0x400000 (farm)" {
		t.Errorf("labeled item = %q", got)
	}
}

func TestLibraryCommands(t *testing.T) {
	e, _ := makeDemoExecutor(Opts{})
	runSteps(t, e, []step{
		{"ls", ResultSuccess, "Library is empty"},
		{"list module", ResultDataList, ""},
		{"list range r-x", ResultDataList, "Added 2 ranges to log"},
		{"sav 0,1,2", ResultSuccess, "Saved 3 items to library"},
		{"mv 0 2", ResultSuccess, "Moved item from 0 to 2"},
		{"ls type=Module", ResultDataList, "Library (2 of 3 items)"},
		{"rm 0", ResultSuccess, "Removed 1 items from library"},
		{"clr abc", ResultError, "Invalid filter argument"},
		{"clr type=Range", ResultSuccess, "Cleared 1 items from library"},
		{"clr", ResultSuccess, "Cleared 1 items from library"},
		{"lib store snap", ResultError, "~history store is not available"},
	})
	res := e.ExecuteLine(context.Background(), "filter name:libc")
	if !reflect.DeepEqual(indices(res), []int{1}) {
		t.Errorf("filter name:libc = %v", indices(res))
	}
}

func TestListWithFilter(t *testing.T) {
	e, _ := makeDemoExecutor(Opts{})
	res := e.ExecuteLine(context.Background(), "exports acres type=Variable")
	if res.Kind != ResultDataList || len(res.Items) != 3 {
		t.Fatalf("exports acres type=Variable = %s", res.String())
	}
	runSteps(t, e, []step{
		{"list method com.acres.Player name:Gold", ResultDataList, "Added 2 methods to log"},
		{"list method", ResultError, "Select a class or name one"},
		{"list exports nope", ResultError, "~module \"nope\" not found"},
		{"list module name:nope", ResultSuccess, "No modules found (2 filtered out)"},
	})
	if e.Store().LogLen() != 5 {
		t.Errorf("LogLen() = %d, want 5", e.Store().LogLen())
	}
}

func TestMiscCommands(t *testing.T) {
	e, _ := makeDemoExecutor(Opts{})
	runSteps(t, e, []step{
		{"", ResultSuccess, ""},
		{"bogus cmd", ResultError, "Unknown command: bogus cmd"},
		{"help", ResultSuccess, "~mem read|r (r) <address|selector> [type]"},
		{"fields", ResultSuccess, "~class_name"},
		{"q", ResultExit, ""},
	})
	res := e.ExecuteLine(context.Background(), "mem list")
	if res.Message != "No item selected" {
		t.Errorf("mem list = %q", res.Message)
	}
}

func writeScript(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunScript(t *testing.T) {
	dir := t.TempDir()
	e, _ := makeDemoExecutor(Opts{})
	good := writeScript(t, dir, "good.vzs", "list module\n\n# save the main module\nsav 0\nmeta tag 0 main\n")
	bad := writeScript(t, dir, "bad.vzs", "list class\nbogus cmd\nsav 0\n")
	loop := writeScript(t, dir, "loop.vzs", "run "+filepath.Join(dir, "loop.vzs")+"\n")
	runSteps(t, e, []step{
		{"run " + good, ResultSuccess, "Ran 3 commands from " + good},
		{"run " + bad, ResultError, bad + ": line 2: Unknown command: bogus cmd"},
		{"run " + loop, ResultError, "~nested too deeply"},
		{"run " + filepath.Join(dir, "missing.vzs"), ResultError, "~cannot open script"},
	})
	if e.Store().LibLen() != 1 || !e.Store().Lib()[0].HasTag("main") {
		t.Errorf("library after script = %v", e.Store().Lib())
	}
	// script lines are not recorded
	if got := e.RecentLines(10); len(got) != 4 {
		t.Errorf("RecentLines() = %v", got)
	}
}

func TestHistoryAndSnapshots(t *testing.T) {
	db, err := histdb.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	e, _ := makeDemoExecutor(Opts{History: db})
	runSteps(t, e, []step{
		{"list module", ResultDataList, ""},
		{"sav all", ResultSuccess, "Saved 2 items to library"},
		{"meta label 0 main", ResultSuccess, ""},
		{"lib store snap", ResultSuccess, `Stored 2 library items as "snap"`},
		{"clr", ResultSuccess, "Cleared 2 items from library"},
		{"lib load snap", ResultSuccess, `Loaded 2 library items from "snap"`},
		{"lib load", ResultSuccess, "Stored libraries: snap"},
		{"lib load other", ResultError, "~no library snapshot"},
		{"history 2", ResultSuccess, "   1  lib load other\n   2  history 2"},
	})
	if got := e.Store().Lib()[0].String(); got != "[Module] acres @ 0x400000 (main)" {
		t.Errorf("restored item = %q", got)
	}
	cmds, _ := db.RecentCmds(100)
	if len(cmds) != 9 {
		t.Errorf("stored %d commands, want 9", len(cmds))
	}
	again, _ := makeDemoExecutor(Opts{History: db, HistorySize: 3})
	if got := again.RecentLines(10); !reflect.DeepEqual(got, []string{"lib load", "lib load other", "history 2"}) {
		t.Errorf("preloaded history = %v", got)
	}
}
