// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package repl

import (
	"fmt"
	"strings"

	"github.com/vlitzdev/vlitz/pkg/executor"
	"github.com/vlitzdev/vlitz/pkg/vzdata"
)

const (
	colorRed       = "\x1b[91m"
	colorCyan      = "\x1b[36m"
	colorBoldGreen = "\x1b[1;32m"
	colorReset     = "\x1b[0m"
)

func paint(s string, color string, enabled bool) string {
	if !enabled {
		return s
	}
	return color + s + colorReset
}

// FormatResult renders a command result as console lines.
func FormatResult(res executor.Result, color bool) []string {
	switch res.Kind {
	case executor.ResultError:
		return []string{paint("Error", colorRed, color) + ": " + res.Message}
	case executor.ResultExit:
		return []string{"Exiting..."}
	case executor.ResultDataList:
		var lines []string
		if res.Message != "" {
			lines = append(lines, res.Message)
		}
		for _, ii := range res.Items {
			lines = append(lines, formatItem(ii, color))
		}
		return lines
	}
	if res.Message == "" {
		return nil
	}
	return strings.Split(res.Message, "\n")
}

// formatItem colors the type column of "[idx] [Type] display".
func formatItem(ii vzdata.IndexedItem, color bool) string {
	if !color {
		return ii.String()
	}
	typeCol := "[" + ii.Item.Type.String() + "]"
	rest := strings.TrimPrefix(ii.Item.String(), typeCol)
	return fmt.Sprintf("[%d]", ii.Index) + " [" + paint(ii.Item.Type.String(), colorCyan, true) + "]" + rest
}
