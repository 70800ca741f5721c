// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package executor runs parsed commands against a session's data store,
// navigator and instrumentation engine.
package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vlitzdev/vlitz/pkg/command"
	"github.com/vlitzdev/vlitz/pkg/engine"
	"github.com/vlitzdev/vlitz/pkg/filter"
	"github.com/vlitzdev/vlitz/pkg/histdb"
	"github.com/vlitzdev/vlitz/pkg/navigator"
	"github.com/vlitzdev/vlitz/pkg/store"
	"github.com/vlitzdev/vlitz/pkg/utilds"
	"github.com/vlitzdev/vlitz/pkg/vzdata"
	"github.com/vlitzdev/vlitz/pkg/vzerr"
	"github.com/vlitzdev/vlitz/pkg/vzlog"
)

const DefaultHistorySize = 500

// nested "run" commands deeper than this are rejected
const MaxScriptDepth = 8

type ResultKind string

const (
	ResultSuccess  ResultKind = "success"
	ResultError    ResultKind = "error"
	ResultDataList ResultKind = "datalist"
	ResultExit     ResultKind = "exit"
)

// Result is what a front end renders after each command. Items is only set
// for DataList results; Message is an optional header for them.
type Result struct {
	Kind    ResultKind           `json:"kind"`
	Message string               `json:"message,omitempty"`
	Items   []vzdata.IndexedItem `json:"items,omitempty"`
}

func Success(format string, args ...any) Result {
	return Result{Kind: ResultSuccess, Message: fmt.Sprintf(format, args...)}
}

func Error(format string, args ...any) Result {
	return Result{Kind: ResultError, Message: fmt.Sprintf(format, args...)}
}

func DataList(header string, items []vzdata.IndexedItem) Result {
	return Result{Kind: ResultDataList, Message: header, Items: items}
}

func (r Result) IsError() bool {
	return r.Kind == ResultError
}

// String renders the result as plain text, one item per line.
func (r Result) String() string {
	if r.Kind != ResultDataList {
		return r.Message
	}
	var lines []string
	if r.Message != "" {
		lines = append(lines, r.Message)
	}
	for _, ii := range r.Items {
		lines = append(lines, ii.String())
	}
	return strings.Join(lines, "\n")
}

// HistoryStore persists console lines and library snapshots. *histdb.DB
// implements it.
type HistoryStore interface {
	AddCmd(text string) (int, error)
	RecentCmds(n int) ([]histdb.Cmd, error)
	StoreLib(name string, data []byte) error
	LoadLib(name string) ([]byte, error)
	LibNames() ([]string, error)
}

type Opts struct {
	ItemsPerPage int
	Engine       engine.Engine // nil means detached
	History      HistoryStore  // optional
	HistorySize  int
	PromptName   string
}

// Executor is owned by a single command loop and is not safe for concurrent
// use. Front ends that serve several clients serialize calls themselves.
type Executor struct {
	store     *store.DataStore
	nav       *navigator.Navigator
	engine    engine.Engine
	history   HistoryStore
	recent    *utilds.CirBuf[string]
	sessionId string
	depth     int
	log       *logrus.Entry
}

func MakeExecutor(opts Opts) *Executor {
	if opts.Engine == nil {
		opts.Engine = engine.MakeDetached()
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = DefaultHistorySize
	}
	sessionId := uuid.New().String()
	e := &Executor{
		store:     store.MakeDataStore(opts.ItemsPerPage),
		nav:       navigator.MakeNavigator(),
		engine:    opts.Engine,
		history:   opts.History,
		recent:    utilds.MakeCirBuf[string](opts.HistorySize),
		sessionId: sessionId,
		log:       vzlog.Logger("executor").WithField("session", sessionId[:8]),
	}
	e.nav.SetPromptName(opts.PromptName)
	if opts.History != nil {
		e.preloadHistory(opts.HistorySize)
	}
	return e
}

func (e *Executor) preloadHistory(n int) {
	cmds, err := e.history.RecentCmds(n)
	if err != nil {
		e.log.Warnf("cannot load history: %v", err)
		return
	}
	for _, c := range cmds {
		e.recent.Write(c.Text)
	}
}

func (e *Executor) Store() *store.DataStore {
	return e.store
}

func (e *Executor) Navigator() *navigator.Navigator {
	return e.nav
}

func (e *Executor) Engine() engine.Engine {
	return e.engine
}

func (e *Executor) SessionId() string {
	return e.sessionId
}

// SetEngine swaps the active engine. The previous engine is not closed.
func (e *Executor) SetEngine(eng engine.Engine) {
	if eng == nil {
		eng = engine.MakeDetached()
	}
	e.engine = eng
	e.log.WithField("engine", eng.Name()).Infof("engine set, target %q", eng.Target())
}

func (e *Executor) Prompt() string {
	return e.nav.Prompt()
}

// RecentLines returns up to n of the most recent console lines, oldest
// first.
func (e *Executor) RecentLines(n int) []string {
	return e.recent.Last(n)
}

// ExecuteLine parses and runs one console line. Blank lines are a no-op;
// every line that parses is recorded in the history.
func (e *Executor) ExecuteLine(ctx context.Context, line string) Result {
	return e.executeLine(ctx, line, true)
}

func (e *Executor) executeLine(ctx context.Context, line string, record bool) Result {
	line = strings.TrimSpace(line)
	if line == "" {
		return Result{Kind: ResultSuccess}
	}
	cmd, err := command.Parse(line)
	if err != nil {
		return errResult(err)
	}
	if record {
		e.record(line)
	}
	return e.Execute(ctx, cmd)
}

func (e *Executor) record(line string) {
	e.recent.Write(line)
	if e.history == nil {
		return
	}
	if _, err := e.history.AddCmd(line); err != nil {
		vzlog.LogfOnce("executor", "history-write", "cannot write history: %v", err)
	}
}

type handlerFn func(e *Executor, ctx context.Context, args []command.Arg) Result

var handlers map[command.CommandType]handlerFn

func init() {
	handlers = map[command.CommandType]handlerFn{
		command.NavSelect:   (*Executor).navSelect,
		command.NavUnselect: (*Executor).navUnselect,
		command.NavAdd:      (*Executor).navAdd,
		command.NavSub:      (*Executor).navSub,
		command.NavGoto:     (*Executor).navGoto,

		command.LogList: (*Executor).logList,
		command.LogNext: (*Executor).logNext,
		command.LogPrev: (*Executor).logPrev,
		command.LogSort: (*Executor).logSort,
		command.LogFind: (*Executor).logFind,

		command.LibList:   (*Executor).libList,
		command.LibSave:   (*Executor).libSave,
		command.LibMove:   (*Executor).libMove,
		command.LibRemove: (*Executor).libRemove,
		command.LibClear:  (*Executor).libClear,
		command.LibStore:  (*Executor).libStore,
		command.LibLoad:   (*Executor).libLoad,

		command.MetaLabel: (*Executor).metaLabel,
		command.MetaTag:   (*Executor).metaTag,
		command.MetaUntag: (*Executor).metaUntag,
		command.MetaTags:  (*Executor).metaTags,

		command.ListClass:   (*Executor).listClass,
		command.ListMethod:  (*Executor).listMethod,
		command.ListModule:  (*Executor).listModule,
		command.ListExports: (*Executor).listExports,
		command.ListRange:   (*Executor).listRange,

		command.MemDump:    (*Executor).memDump,
		command.MemRead:    (*Executor).memRead,
		command.MemWrite:   (*Executor).memWrite,
		command.MemList:    (*Executor).memList,
		command.MemType:    (*Executor).memType,
		command.MemWatch:   (*Executor).memWatch,
		command.MemUnwatch: (*Executor).memUnwatch,
		command.MemLock:    (*Executor).memLock,
		command.MemUnlock:  (*Executor).memUnlock,
		command.MemTrace:   (*Executor).memTrace,
		command.MemUntrace: (*Executor).memUntrace,

		command.AttachList: (*Executor).attachList,

		command.Filter:  (*Executor).filterCmd,
		command.Fields:  (*Executor).fields,
		command.Help:    (*Executor).help,
		command.Run:     (*Executor).run,
		command.History: (*Executor).historyCmd,
		command.Exit:    (*Executor).exit,
	}
}

// engine features with no generic implementation; they report as
// unsupported by whatever engine is active
var unsupportedOps = map[command.CommandType]string{
	command.MemDisas:     "mem disas",
	command.AttachHook:   "attach hook",
	command.AttachUnhook: "attach unhook",
	command.AttachCall:   "attach call",
	command.ScanSearch:   "scan search",
	command.ScanExact:    "scan exact",
	command.ScanMin:      "scan min",
	command.ScanMax:      "scan max",
	command.ScanInc:      "scan inc",
	command.ScanDec:      "scan dec",
	command.ScanCh:       "scan ch",
	command.ScanUnch:     "scan unch",
}

// Execute runs cmd. Every failure is reported as an Error result.
func (e *Executor) Execute(ctx context.Context, cmd *command.Command) Result {
	ct := cmd.Type()
	if op, ok := unsupportedOps[ct]; ok {
		return errResult(engine.Unsupported(e.engine, op))
	}
	fn, ok := handlers[ct]
	if !ok {
		return Error("Unknown command: %s", cmd.String())
	}
	rtn := fn(e, ctx, cmd.Operands())
	entry := e.log.WithFields(logrus.Fields{"cmd": cmd.Name, "type": ct.String()})
	if rtn.IsError() {
		entry.Warn(rtn.Message)
	} else {
		entry.WithField("count", len(rtn.Items)).Debug("command done")
	}
	return rtn
}

func errResult(err error) Result {
	return Result{Kind: ResultError, Message: err.Error()}
}

// filterContext hands the engine to memory conditions when one is attached.
func (e *Executor) filterContext(ctx context.Context) *filter.FilterContext {
	fctx := &filter.FilterContext{Ctx: ctx}
	if e.engine.Attached() {
		fctx.Reader = e.engine
	}
	return fctx
}

// joinArgs rebuilds the text of args, e.g. a filter expression that the
// tokenizer split on whitespace.
func joinArgs(args []command.Arg) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = arg.String()
	}
	return strings.Join(parts, " ")
}

func (e *Executor) exit(ctx context.Context, args []command.Arg) Result {
	return Result{Kind: ResultExit, Message: "Goodbye"}
}

// ErrHistoryUnavailable is returned by commands that need a history store
// when the session runs without one.
var ErrHistoryUnavailable = vzerr.New(vzerr.KindIO, "history store is not available")
