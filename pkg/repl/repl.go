// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package repl is the interactive console. On a terminal it edits lines in
// raw mode with history; otherwise it reads one command per input line.
package repl

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/vlitzdev/vlitz/pkg/executor"
	"github.com/vlitzdev/vlitz/pkg/panichandler"
	"github.com/vlitzdev/vlitz/pkg/vzlog"
	"golang.org/x/term"
)

const DefaultHistoryLines = 200

type Opts struct {
	In           io.Reader // defaults to os.Stdin
	Out          io.Writer // defaults to os.Stdout
	Color        bool
	Banner       bool
	HistoryLines int
	Startup      []string // run before the first prompt, e.g. "run init.vzs"
}

type Repl struct {
	exec         *executor.Executor
	in           io.Reader
	out          io.Writer
	color        bool
	banner       bool
	historyLines int
	startup      []string
	newline      string
	log          *logrus.Entry
}

func MakeRepl(exec *executor.Executor, opts Opts) *Repl {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.HistoryLines <= 0 {
		opts.HistoryLines = DefaultHistoryLines
	}
	return &Repl{
		exec:         exec,
		in:           opts.In,
		out:          opts.Out,
		color:        opts.Color,
		banner:       opts.Banner,
		historyLines: opts.HistoryLines,
		startup:      opts.Startup,
		newline:      "\n",
		log:          vzlog.Logger("repl"),
	}
}

// IsTerminal reports whether f is attached to a terminal. Cygwin and MSYS
// ptys count, so color works there too; raw line editing still needs a
// real console.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Run reads and executes lines until exit, end of input or ctx is canceled.
func (r *Repl) Run(ctx context.Context) error {
	if f, ok := r.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return r.runTerminal(ctx, f)
	}
	return r.runLines(ctx)
}

func (r *Repl) runTerminal(ctx context.Context, f *os.File) error {
	fd := int(f.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		r.log.Warnf("cannot enter raw mode, falling back to line input: %v", err)
		return r.runLines(ctx)
	}
	defer term.Restore(fd, oldState)
	r.newline = "\r\n"
	defer func() { r.newline = "\n" }()

	r.printBanner()
	if r.runStartup(ctx) {
		return nil
	}
	editor := MakeLineEditor(f, r.out, r.exec.RecentLines(r.historyLines), r.historyLines)
	for ctx.Err() == nil {
		line, err := editor.ReadLine(r.exec.Prompt() + " ")
		if errors.Is(err, ErrInterrupted) {
			r.println("Ctrl-C")
			return nil
		}
		if err == io.EOF {
			r.println("Ctrl-D")
			return nil
		}
		if err != nil {
			return err
		}
		editor.AddHistory(line)
		if r.runLine(ctx, line) {
			return nil
		}
	}
	return ctx.Err()
}

// runLines is used for pipes and files. No prompt is printed so output can
// be consumed by other tools.
func (r *Repl) runLines(ctx context.Context) error {
	if r.runStartup(ctx) {
		return nil
	}
	scanner := bufio.NewScanner(r.in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if r.runLine(ctx, scanner.Text()) {
			return nil
		}
	}
	return scanner.Err()
}

// runLine executes one line and prints the result. It returns true when the
// session should end.
func (r *Repl) runLine(ctx context.Context, line string) (exit bool) {
	if strings.TrimSpace(line) == "" {
		return false
	}
	defer func() {
		if err := panichandler.PanicHandler("repl command", recover()); err != nil {
			r.println(paint("Error", colorRed, r.color) + ": internal error: " + err.Error())
			exit = false
		}
	}()
	res := r.exec.ExecuteLine(ctx, line)
	for _, out := range FormatResult(res, r.color) {
		r.println(out)
	}
	return res.Kind == executor.ResultExit
}

func (r *Repl) runStartup(ctx context.Context) bool {
	for _, line := range r.startup {
		if r.runLine(ctx, line) {
			return true
		}
	}
	return false
}

func (r *Repl) printBanner() {
	if !r.banner {
		return
	}
	r.println(paint("VLITZ - dynamic instrumentation console", colorBoldGreen, r.color))
	r.println("Type " + paint("help", colorCyan, r.color) + " for help")
}

func (r *Repl) println(s string) {
	io.WriteString(r.out, s+r.newline)
}
