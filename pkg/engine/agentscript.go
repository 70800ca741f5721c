// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/vlitzdev/vlitz/pkg/memory"
)

const (
	AgentBase  = "base"
	AgentWatch = "watch"
	AgentLock  = "lock"
	AgentTrace = "trace"
)

const (
	watchIntervalMs   = 100
	lockIntervalMs    = 50
	traceHistoryLimit = 100
	hookArgCount      = 8
)

//go:embed agent/*.js.tmpl
var agentFS embed.FS

var agentTemplates = template.Must(template.ParseFS(agentFS, "agent/*.js.tmpl"))

// AgentKinds lists the script kinds accepted by RenderAgent.
var AgentKinds = []string{AgentBase, AgentWatch, AgentLock, AgentTrace}

type AgentParams struct {
	Address uint64
	Type    memory.MemoryType
	Value   memory.Value
}

type agentType struct {
	Keyword string
	Reader  string
	Writer  string
}

type agentData struct {
	Types             []agentType
	DefaultProtection string
	HookArgCount      int
	HistoryLimit      int
	IntervalMs        int
	Address           string
	Type              string
	Size              int
	Reader            string
	Writer            string
	Value             string
}

func readerExpr(recv string, t memory.MemoryType) string {
	switch t {
	case memory.Byte:
		return recv + ".readS8()"
	case memory.UByte:
		return recv + ".readU8()"
	case memory.Short:
		return recv + ".readS16()"
	case memory.UShort:
		return recv + ".readU16()"
	case memory.Int:
		return recv + ".readS32()"
	case memory.UInt:
		return recv + ".readU32()"
	case memory.Long:
		return recv + ".readS64()"
	case memory.ULong:
		return recv + ".readU64()"
	case memory.Float:
		return recv + ".readFloat()"
	case memory.Double:
		return recv + ".readDouble()"
	case memory.Bool:
		return recv + ".readU8() !== 0"
	case memory.Pointer:
		return recv + ".readPointer().toString()"
	case memory.String:
		return recv + ".readUtf8String()"
	case memory.Bytes:
		return recv + ".readByteArray(size)"
	}
	return ""
}

// writerExpr returns "" for types the agent cannot write (Bytes).
func writerExpr(recv string, t memory.MemoryType, value string) string {
	switch t {
	case memory.Byte:
		return fmt.Sprintf("%s.writeS8(%s)", recv, value)
	case memory.UByte:
		return fmt.Sprintf("%s.writeU8(%s)", recv, value)
	case memory.Short:
		return fmt.Sprintf("%s.writeS16(%s)", recv, value)
	case memory.UShort:
		return fmt.Sprintf("%s.writeU16(%s)", recv, value)
	case memory.Int:
		return fmt.Sprintf("%s.writeS32(%s)", recv, value)
	case memory.UInt:
		return fmt.Sprintf("%s.writeU32(%s)", recv, value)
	case memory.Long:
		return fmt.Sprintf("%s.writeS64(%s)", recv, value)
	case memory.ULong:
		return fmt.Sprintf("%s.writeU64(%s)", recv, value)
	case memory.Float:
		return fmt.Sprintf("%s.writeFloat(%s)", recv, value)
	case memory.Double:
		return fmt.Sprintf("%s.writeDouble(%s)", recv, value)
	case memory.Bool:
		return fmt.Sprintf("%s.writeU8(%s ? 1 : 0)", recv, value)
	case memory.Pointer:
		return fmt.Sprintf("%s.writePointer(ptr(%s))", recv, value)
	case memory.String:
		return fmt.Sprintf("%s.writeUtf8String(%s)", recv, value)
	}
	return ""
}

// jsLiteral renders v as a JavaScript expression. 64-bit values go through
// int64()/uint64() so the agent never loses precision.
func jsLiteral(v memory.Value) string {
	switch {
	case v.Type == memory.Long:
		return fmt.Sprintf("int64(%q)", v.String())
	case v.Type == memory.ULong:
		return fmt.Sprintf("uint64(%q)", v.String())
	case v.Type == memory.Pointer:
		return fmt.Sprintf("%q", v.String())
	case v.Type == memory.String:
		barr, _ := json.Marshal(v.Str)
		return string(barr)
	}
	return v.String()
}

func allAgentTypes() []agentType {
	var rtn []agentType
	for t := memory.Byte; t <= memory.Bytes; t++ {
		rtn = append(rtn, agentType{
			Keyword: t.Keyword(),
			Reader:  readerExpr("p", t),
			Writer:  writerExpr("p", t, "value"),
		})
	}
	return rtn
}

// RenderAgent produces the JavaScript payload an instrumentation backend
// injects for the given kind.
func RenderAgent(kind string, params AgentParams) (string, error) {
	data := agentData{
		DefaultProtection: "---",
		HookArgCount:      hookArgCount,
		HistoryLimit:      traceHistoryLimit,
		Address:           fmt.Sprintf("0x%x", params.Address),
		Type:              params.Type.Keyword(),
		Size:              max(params.Type.Size(), 1),
	}
	switch kind {
	case AgentBase:
		data.Types = allAgentTypes()
	case AgentWatch:
		if params.Type == memory.Bytes {
			return "", fmt.Errorf("cannot watch memory of type %s", params.Type.Keyword())
		}
		data.IntervalMs = watchIntervalMs
		data.Reader = readerExpr("address", params.Type)
	case AgentLock:
		writer := writerExpr("address", params.Value.Type, "value")
		if writer == "" {
			return "", fmt.Errorf("cannot lock memory of type %s", params.Value.Type.Keyword())
		}
		data.IntervalMs = lockIntervalMs
		data.Type = params.Value.Type.Keyword()
		data.Writer = writer
		data.Value = jsLiteral(params.Value)
	case AgentTrace:
	default:
		return "", fmt.Errorf("unknown agent script %q (want one of %s)", kind, strings.Join(AgentKinds, ", "))
	}
	var sb strings.Builder
	if err := agentTemplates.ExecuteTemplate(&sb, kind+".js.tmpl", data); err != nil {
		return "", fmt.Errorf("rendering %s agent: %w", kind, err)
	}
	return sb.String(), nil
}
