// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package filter

import (
	"fmt"
)

// PrettyPrint returns a human-readable string representation of a condition
func PrettyPrint(c Condition) string {
	if c == nil {
		return "<nil>"
	}

	switch cond := c.(type) {
	case *Field:
		return fmt.Sprintf("Field{%s %s %q}", cond.Name, cond.Op, cond.Value)

	case *MemoryData:
		return fmt.Sprintf("MemoryData{%s %s %q}", cond.Type.Keyword(), cond.Op, cond.Value)

	case *And:
		return fmt.Sprintf("And{%s, %s}", PrettyPrint(cond.Left), PrettyPrint(cond.Right))

	case *Or:
		return fmt.Sprintf("Or{%s, %s}", PrettyPrint(cond.Left), PrettyPrint(cond.Right))

	default:
		return fmt.Sprintf("UnknownCondition{type: %s}", c.GetType())
	}
}
