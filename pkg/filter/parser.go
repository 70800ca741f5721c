// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package filter

import (
	"regexp"
	"strings"

	"github.com/vlitzdev/vlitz/pkg/memory"
	"github.com/vlitzdev/vlitz/pkg/vzerr"
)

type Operator int

const (
	Equal Operator = iota
	NotEqual
	LessThan
	GreaterThan
	LessOrEqual
	GreaterOrEqual
	Contains
)

var operatorText = map[Operator]string{
	Equal:          "=",
	NotEqual:       "!=",
	LessThan:       "<",
	GreaterThan:    ">",
	LessOrEqual:    "<=",
	GreaterOrEqual: ">=",
	Contains:       ":",
}

func (op Operator) String() string {
	return operatorText[op]
}

func ParseOperator(s string) (Operator, error) {
	for op, text := range operatorText {
		if text == s {
			return op, nil
		}
	}
	return 0, vzerr.Errorf(vzerr.KindFilterExpr, "unknown operator: %s", s)
}

// holds reports whether a three-way comparison result satisfies op.
// Contains is not an ordering and never holds.
func (op Operator) holds(cmp int) bool {
	switch op {
	case Equal:
		return cmp == 0
	case NotEqual:
		return cmp != 0
	case LessThan:
		return cmp < 0
	case GreaterThan:
		return cmp > 0
	case LessOrEqual:
		return cmp <= 0
	case GreaterOrEqual:
		return cmp >= 0
	}
	return false
}

var comparisonRe = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z0-9_]*)\s*([=!<>:][=]?)\s*(.*)$`)

// Parse builds a condition tree. The first top-level '&' splits an And, then
// the first top-level '|' splits an Or, otherwise the expression must be a
// single comparison. A fully parenthesized expression is parsed as its inside.
func Parse(expr string) (Condition, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, vzerr.New(vzerr.KindFilterExpr, "empty filter expression")
	}
	if pos := findTopLevel(expr, '&'); pos >= 0 {
		return parseBinary(expr, pos, func(l, r Condition) Condition { return &And{Left: l, Right: r} })
	}
	if pos := findTopLevel(expr, '|'); pos >= 0 {
		return parseBinary(expr, pos, func(l, r Condition) Condition { return &Or{Left: l, Right: r} })
	}
	if inner, ok := stripParens(expr); ok {
		return Parse(inner)
	}
	return parseComparison(expr)
}

func parseBinary(expr string, pos int, mk func(Condition, Condition) Condition) (Condition, error) {
	left, err := Parse(expr[:pos])
	if err != nil {
		return nil, err
	}
	right, err := Parse(expr[pos+1:])
	if err != nil {
		return nil, err
	}
	return mk(left, right), nil
}

func parseComparison(expr string) (Condition, error) {
	m := comparisonRe.FindStringSubmatch(expr)
	if m == nil {
		return nil, vzerr.Errorf(vzerr.KindFilterExpr, "failed to parse filter expression: %s", expr)
	}
	op, err := ParseOperator(m[2])
	if err != nil {
		return nil, err
	}
	value := unquote(strings.TrimSpace(m[3]))
	if mtype, ok := memory.ParseType(m[1]); ok {
		return &MemoryData{Type: mtype, Op: op, Value: value}, nil
	}
	return &Field{Name: m[1], Op: op, Value: value}, nil
}

func unquote(value string) string {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return value[1 : len(value)-1]
		}
	}
	return value
}

// findTopLevel returns the byte offset of the first op outside of double
// quotes and parentheses that is not escaped, or -1.
func findTopLevel(expr string, op byte) int {
	depth := 0
	inQuote := false
	escapeNext := false
	for i := 0; i < len(expr); i++ {
		ch := expr[i]
		if escapeNext {
			escapeNext = false
			continue
		}
		switch {
		case ch == '\\':
			escapeNext = true
		case ch == '"':
			inQuote = !inQuote
		case inQuote:
		case ch == '(':
			depth++
		case ch == ')':
			depth--
		case depth == 0 && ch == op:
			return i
		}
	}
	return -1
}

// stripParens removes one pair of parentheses when the opening paren at the
// start matches the closing paren at the end.
func stripParens(expr string) (string, bool) {
	if len(expr) < 2 || expr[0] != '(' || expr[len(expr)-1] != ')' {
		return "", false
	}
	depth := 0
	inQuote := false
	escapeNext := false
	for i := 0; i < len(expr); i++ {
		ch := expr[i]
		if escapeNext {
			escapeNext = false
			continue
		}
		switch {
		case ch == '\\':
			escapeNext = true
		case ch == '"':
			inQuote = !inQuote
		case inQuote:
		case ch == '(':
			depth++
		case ch == ')':
			depth--
			if depth == 0 && i != len(expr)-1 {
				return "", false
			}
		}
	}
	return expr[1 : len(expr)-1], true
}
