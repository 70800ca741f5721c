// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package command turns a raw console line into a typed Command.
package command

import (
	"strings"

	"github.com/vlitzdev/vlitz/pkg/vzerr"
)

// Command is immutable once parsed. Subcommand is "" when the line has a
// single token; it is never type-inferred.
type Command struct {
	Name       string
	Subcommand string
	Args       []Arg
}

func Parse(input string) (*Command, error) {
	tokens := Tokenize(strings.TrimSpace(input))
	if len(tokens) == 0 {
		return nil, vzerr.ErrEmptyCommand
	}
	cmd := &Command{Name: tokens[0]}
	if len(tokens) > 1 {
		cmd.Subcommand = tokens[1]
	}
	if len(tokens) > 2 {
		cmd.Args = ParseArgs(tokens[2:])
	} else {
		cmd.Args = []Arg{}
	}
	return cmd, nil
}

func (c *Command) HasArgs() bool {
	return len(c.Args) > 0
}

func (c *Command) Arg(idx int) (Arg, bool) {
	if idx < 0 || idx >= len(c.Args) {
		return nil, false
	}
	return c.Args[idx], true
}

// Type resolves (name, subcommand) through the alias table.
func (c *Command) Type() CommandType {
	ct, _ := c.resolve()
	return ct
}

func (c *Command) resolve() (CommandType, bool) {
	if subs, ok := groupTable[c.Name]; ok {
		if ct, ok := subs[c.Subcommand]; ok {
			return ct, false
		}
		return Unknown, false
	}
	if ct, ok := aliasTable[c.Name]; ok {
		return ct, true
	}
	return Unknown, false
}

// Operands returns the arguments a handler should consume. For commands
// resolved from the name alone ("sel 1", "rm 0-2") the token parsed as the
// subcommand is really the first operand, and is re-typed and prepended.
func (c *Command) Operands() []Arg {
	_, viaAlias := c.resolve()
	if !viaAlias || c.Subcommand == "" {
		return c.Args
	}
	rtn := make([]Arg, 0, len(c.Args)+1)
	rtn = append(rtn, ParseArg(c.Subcommand))
	return append(rtn, c.Args...)
}

// String reassembles the command, quoting tokens that contain spaces.
func (c *Command) String() string {
	parts := []string{c.Name}
	if c.Subcommand != "" {
		parts = append(parts, c.Subcommand)
	}
	for _, arg := range c.Args {
		parts = append(parts, arg.String())
	}
	for i, p := range parts {
		if strings.ContainsAny(p, " \t") {
			parts[i] = `"` + strings.ReplaceAll(p, `"`, `\"`) + `"`
		}
	}
	return strings.Join(parts, " ")
}
