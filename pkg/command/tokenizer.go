// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenizer splits a command line on whitespace. Double quotes group words
// and are dropped; a backslash takes the next character literally, inside
// quotes too. An unterminated quote runs to the end of the input.
type Tokenizer struct {
	input        string // Input string
	position     int    // Current position in input (points to current char)
	readPosition int    // Current reading position in input (after current char)
	ch           rune   // Current character, 0 at EOF
}

func NewTokenizer(input string) *Tokenizer {
	t := &Tokenizer{input: input}
	t.readChar()
	return t
}

func (t *Tokenizer) readChar() {
	t.position = t.readPosition
	if t.readPosition >= len(t.input) {
		t.ch = 0
		return
	}
	r, width := utf8.DecodeRuneInString(t.input[t.readPosition:])
	t.ch = r
	t.readPosition += width
}

func (t *Tokenizer) atEOF() bool {
	return t.position >= len(t.input)
}

func (t *Tokenizer) skipWhitespace() {
	for !t.atEOF() && unicode.IsSpace(t.ch) {
		t.readChar()
	}
}

// NextToken returns the next token and false once the input is exhausted.
func (t *Tokenizer) NextToken() (string, bool) {
	for {
		t.skipWhitespace()
		if t.atEOF() {
			return "", false
		}
		token := t.readWord()
		// a token made only of quotes ("") is empty and is skipped
		if token != "" {
			return token, true
		}
	}
}

func (t *Tokenizer) readWord() string {
	var sb strings.Builder
	inQuotes := false
	for !t.atEOF() {
		switch {
		case t.ch == '\\':
			t.readChar()
			if t.atEOF() {
				return sb.String()
			}
			sb.WriteRune(t.ch)
		case t.ch == '"':
			inQuotes = !inQuotes
		case unicode.IsSpace(t.ch) && !inQuotes:
			return sb.String()
		default:
			sb.WriteRune(t.ch)
		}
		t.readChar()
	}
	return sb.String()
}

// Tokenize returns every token of input.
func Tokenize(input string) []string {
	t := NewTokenizer(input)
	var tokens []string
	for {
		tok, ok := t.NextToken()
		if !ok {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}
