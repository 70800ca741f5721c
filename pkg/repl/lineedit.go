// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInterrupted is returned by ReadLine when the user presses Ctrl-C.
var ErrInterrupted = errors.New("interrupted")

const (
	keyCtrlA     = 1
	keyCtrlB     = 2
	keyCtrlC     = 3
	keyCtrlD     = 4
	keyCtrlE     = 5
	keyCtrlF     = 6
	keyBackspace = 8
	keyCtrlK     = 11
	keyCtrlL     = 12
	keyCtrlN     = 14
	keyCtrlP     = 16
	keyCtrlU     = 21
	keyCtrlW     = 23
	keyEscape    = 27
	keyDelete    = 127
)

// LineEditor reads lines from a terminal in raw mode. It handles cursor
// movement, kill commands and history browsing; every rune is assumed to
// occupy one column.
type LineEditor struct {
	in         *bufio.Reader
	out        io.Writer
	history    []string
	maxHistory int

	line    []rune
	cursor  int
	histPos int
	saved   []rune
}

func MakeLineEditor(in io.Reader, out io.Writer, history []string, maxHistory int) *LineEditor {
	le := &LineEditor{
		in:         bufio.NewReader(in),
		out:        out,
		maxHistory: maxHistory,
	}
	for _, line := range history {
		le.AddHistory(line)
	}
	return le
}

// AddHistory appends line unless it is blank or repeats the previous entry.
func (le *LineEditor) AddHistory(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if n := len(le.history); n > 0 && le.history[n-1] == line {
		return
	}
	le.history = append(le.history, line)
	if le.maxHistory > 0 && len(le.history) > le.maxHistory {
		le.history = le.history[len(le.history)-le.maxHistory:]
	}
}

func (le *LineEditor) History() []string {
	return append([]string{}, le.history...)
}

// ReadLine shows prompt and returns the edited line without its newline.
// Ctrl-D on an empty line returns io.EOF.
func (le *LineEditor) ReadLine(prompt string) (string, error) {
	le.line = le.line[:0]
	le.cursor = 0
	le.histPos = len(le.history)
	le.saved = nil
	le.refresh(prompt)
	for {
		r, _, err := le.in.ReadRune()
		if err != nil {
			if err == io.EOF && len(le.line) > 0 {
				le.write("\r\n")
				return string(le.line), nil
			}
			return "", err
		}
		switch r {
		case '\r', '\n':
			le.write("\r\n")
			return string(le.line), nil
		case keyCtrlC:
			le.write("^C\r\n")
			return "", ErrInterrupted
		case keyCtrlD:
			if len(le.line) == 0 {
				le.write("\r\n")
				return "", io.EOF
			}
			le.deleteAt(le.cursor)
		case keyBackspace, keyDelete:
			if le.cursor > 0 {
				le.cursor--
				le.deleteAt(le.cursor)
			}
		case keyCtrlA:
			le.cursor = 0
		case keyCtrlE:
			le.cursor = len(le.line)
		case keyCtrlB:
			le.moveCursor(-1)
		case keyCtrlF:
			le.moveCursor(1)
		case keyCtrlK:
			le.line = le.line[:le.cursor]
		case keyCtrlU:
			le.line = append(le.line[:0], le.line[le.cursor:]...)
			le.cursor = 0
		case keyCtrlW:
			le.deleteWord()
		case keyCtrlL:
			le.write("\x1b[H\x1b[2J")
		case keyCtrlP:
			le.historyStep(-1)
		case keyCtrlN:
			le.historyStep(1)
		case keyEscape:
			if err := le.readEscape(); err != nil {
				return "", err
			}
		default:
			if r >= ' ' {
				le.insert(r)
			}
		}
		le.refresh(prompt)
	}
}

// readEscape handles CSI and SS3 sequences for the arrow, home, end and
// delete keys. Unknown sequences are dropped.
func (le *LineEditor) readEscape() error {
	r, _, err := le.in.ReadRune()
	if err != nil {
		return err
	}
	if r != '[' && r != 'O' {
		return nil
	}
	var param []rune
	for {
		r, _, err = le.in.ReadRune()
		if err != nil {
			return err
		}
		if r < '0' || r > '9' {
			if r != ';' {
				break
			}
		}
		param = append(param, r)
	}
	switch r {
	case 'A':
		le.historyStep(-1)
	case 'B':
		le.historyStep(1)
	case 'C':
		le.moveCursor(1)
	case 'D':
		le.moveCursor(-1)
	case 'H':
		le.cursor = 0
	case 'F':
		le.cursor = len(le.line)
	case '~':
		switch string(param) {
		case "1", "7":
			le.cursor = 0
		case "4", "8":
			le.cursor = len(le.line)
		case "3":
			le.deleteAt(le.cursor)
		}
	}
	return nil
}

func (le *LineEditor) insert(r rune) {
	le.line = append(le.line, 0)
	copy(le.line[le.cursor+1:], le.line[le.cursor:])
	le.line[le.cursor] = r
	le.cursor++
}

func (le *LineEditor) deleteAt(pos int) {
	if pos < 0 || pos >= len(le.line) {
		return
	}
	le.line = append(le.line[:pos], le.line[pos+1:]...)
}

func (le *LineEditor) deleteWord() {
	end := le.cursor
	start := end
	for start > 0 && le.line[start-1] == ' ' {
		start--
	}
	for start > 0 && le.line[start-1] != ' ' {
		start--
	}
	le.line = append(le.line[:start], le.line[end:]...)
	le.cursor = start
}

func (le *LineEditor) moveCursor(delta int) {
	le.cursor = max(0, min(len(le.line), le.cursor+delta))
}

// historyStep moves through history; stepping past the newest entry
// restores the line that was being typed.
func (le *LineEditor) historyStep(delta int) {
	pos := le.histPos + delta
	if pos < 0 || pos > len(le.history) {
		return
	}
	if le.histPos == len(le.history) {
		le.saved = append([]rune{}, le.line...)
	}
	le.histPos = pos
	if pos == len(le.history) {
		le.line = append(le.line[:0], le.saved...)
	} else {
		le.line = []rune(le.history[pos])
	}
	le.cursor = len(le.line)
}

func (le *LineEditor) refresh(prompt string) {
	var sb strings.Builder
	sb.WriteString("\r\x1b[K")
	sb.WriteString(prompt)
	sb.WriteString(string(le.line))
	if back := len(le.line) - le.cursor; back > 0 {
		fmt.Fprintf(&sb, "\x1b[%dD", back)
	}
	le.write(sb.String())
}

func (le *LineEditor) write(s string) {
	io.WriteString(le.out, s)
}
