// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/vlitzdev/vlitz/pkg/command"
	"github.com/vlitzdev/vlitz/pkg/filter"
	"github.com/vlitzdev/vlitz/pkg/memory"
	"github.com/vlitzdev/vlitz/pkg/script"
	"golang.org/x/exp/slices"
)

const defaultHistoryCount = 20

func (e *Executor) fields(ctx context.Context, args []command.Arg) Result {
	var sb strings.Builder
	sb.WriteString("Filter fields: ")
	sb.WriteString(strings.Join(filter.Fields, ", "))
	sb.WriteString("\nMemory types (as filter fields or type arguments):")
	for _, kws := range memory.Keywords() {
		sb.WriteString("\n  ")
		sb.WriteString(strings.Join(sortedKeywords(kws), ", "))
	}
	return Success("%s", sb.String())
}

// sortedKeywords puts the shortest spelling first.
func sortedKeywords(kws []string) []string {
	rtn := slices.Clone(kws)
	slices.SortFunc(rtn, func(a, b string) int {
		if len(a) != len(b) {
			return len(a) - len(b)
		}
		return strings.Compare(a, b)
	})
	return rtn
}

func (e *Executor) help(ctx context.Context, args []command.Arg) Result {
	var lines []string
	group := "-"
	for _, def := range command.CommandDefs {
		if def.Group != group {
			group = def.Group
			title := group
			if title == "" {
				title = "general"
			}
			lines = append(lines, "", title+":")
		}
		spelling := strings.Join(def.Aliases, ", ")
		if def.Group != "" {
			spelling = def.Group + " " + strings.Join(def.Subs, "|")
			if len(def.Aliases) > 0 {
				spelling += " (" + strings.Join(def.Aliases, ", ") + ")"
			}
		}
		usage := spelling
		if def.Usage != "" {
			usage += " " + def.Usage
		}
		lines = append(lines, fmt.Sprintf("  %-44s %s", usage, def.Summary))
	}
	return Success("%s", strings.TrimPrefix(strings.Join(lines, "\n"), "\n"))
}

func (e *Executor) historyCmd(ctx context.Context, args []command.Arg) Result {
	n := defaultHistoryCount
	if len(args) > 0 {
		count, err := command.AsNumber(args[0])
		if err != nil || count <= 0 {
			return Error("Invalid count argument")
		}
		n = int(count)
	}
	lines := e.recent.Last(n)
	if len(lines) == 0 {
		return Success("History is empty")
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = fmt.Sprintf("%4d  %s", i+1, line)
	}
	return Success("%s", strings.Join(out, "\n"))
}

// run executes a script file line by line. It stops at the first error or
// exit; an exit inside a script ends the session.
func (e *Executor) run(ctx context.Context, args []command.Arg) Result {
	if len(args) == 0 {
		return Error("Script path required")
	}
	if e.depth >= MaxScriptDepth {
		return Error("Scripts nested too deeply (max %d)", MaxScriptDepth)
	}
	s, err := script.Load(joinArgs(args))
	if err != nil {
		return errResult(err)
	}
	e.depth++
	defer func() { e.depth-- }()
	e.log.WithField("script", s.Path).Infof("running %d lines", len(s.Lines))
	for _, line := range s.Lines {
		if err := ctx.Err(); err != nil {
			return Error("%s: line %d: %v", s.Path, line.No, err)
		}
		res := e.executeLine(ctx, line.Text, false)
		switch res.Kind {
		case ResultError:
			return Error("%s: line %d: %s", s.Path, line.No, res.Message)
		case ResultExit:
			return res
		}
	}
	return Success("Ran %d commands from %s", len(s.Lines), s.Path)
}
