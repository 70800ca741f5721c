// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package script reads .vzs files: one console command per line, with blank
// lines and '#' comments ignored.
package script

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/vlitzdev/vlitz/pkg/utilfn"
	"github.com/vlitzdev/vlitz/pkg/vzerr"
)

const FileExt = ".vzs"

// longest accepted line
const maxLineLength = 64 * 1024

// Line is a command together with its 1-based line number in the source.
type Line struct {
	No   int
	Text string
}

type Script struct {
	Path  string
	Lines []Line
}

func Parse(r io.Reader) ([]Line, error) {
	var rtn []Line
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		rtn = append(rtn, Line{No: lineNo, Text: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, vzerr.Errorf(vzerr.KindScriptExec, "line %d: %v", lineNo+1, err)
	}
	return rtn, nil
}

func ParseString(content string) ([]Line, error) {
	return Parse(strings.NewReader(content))
}

// Load reads and parses the script at path ("~" is expanded).
func Load(path string) (*Script, error) {
	path = utilfn.ExpandHomeDir(path)
	fd, err := os.Open(path)
	if err != nil {
		return nil, vzerr.Errorf(vzerr.KindIO, "cannot open script: %v", err)
	}
	defer fd.Close()
	lines, err := Parse(fd)
	if err != nil {
		return nil, err
	}
	return &Script{Path: path, Lines: lines}, nil
}
