// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package command

type CommandType int

const (
	Unknown CommandType = iota

	NavSelect
	NavUnselect
	NavAdd
	NavSub
	NavGoto

	LogList
	LogNext
	LogPrev
	LogSort
	LogFind

	LibList
	LibSave
	LibMove
	LibRemove
	LibClear
	LibStore
	LibLoad

	MetaLabel
	MetaTag
	MetaUntag
	MetaTags

	ListClass
	ListMethod
	ListModule
	ListExports
	ListRange

	MemDump
	MemRead
	MemWrite
	MemList
	MemWatch
	MemLock
	MemTrace
	MemUnwatch
	MemUnlock
	MemUntrace
	MemType
	MemDisas

	AttachHook
	AttachUnhook
	AttachCall
	AttachList

	ScanSearch
	ScanExact
	ScanMin
	ScanMax
	ScanInc
	ScanDec
	ScanCh
	ScanUnch

	Filter
	Fields
	Help
	Run
	History
	Exit
)

// CommandDef describes one command type: the group it belongs to, the
// subcommand spellings accepted after the group name and the standalone
// aliases accepted in place of "group sub".
type CommandDef struct {
	Type    CommandType
	Name    string
	Group   string
	Subs    []string
	Aliases []string
	Usage   string
	Summary string
}

var groupNames = map[string][]string{
	"nav":    {"nav", "navigator"},
	"log":    {"log"},
	"lib":    {"lib"},
	"meta":   {"meta"},
	"list":   {"list"},
	"mem":    {"mem"},
	"attach": {"attach"},
	"scan":   {"scan"},
}

var CommandDefs = []CommandDef{
	{NavSelect, "NavSelect", "nav", []string{"select", "sel"}, []string{"sel"}, "<selector>", "select a single item"},
	{NavUnselect, "NavUnselect", "nav", []string{"unselect", "unsel"}, []string{"unsel"}, "", "clear the selection"},
	{NavAdd, "NavAdd", "nav", []string{"add", "+"}, []string{"+"}, "<offset>", "move the selection forward by offset bytes"},
	{NavSub, "NavSub", "nav", []string{"sub", "-"}, []string{"-"}, "<offset>", "move the selection back by offset bytes"},
	{NavGoto, "NavGoto", "nav", []string{"goto", ":"}, []string{":"}, "<address|selector>", "select a pointer at an address"},

	{LogList, "LogList", "log", []string{"list", "lg"}, []string{"lg"}, "[page]", "show the current log page"},
	{LogNext, "LogNext", "log", []string{"next", "nxt"}, []string{"nxt"}, "[count]", "advance the log page"},
	{LogPrev, "LogPrev", "log", []string{"prev", "prv"}, []string{"prv"}, "[count]", "go back in the log"},
	{LogSort, "LogSort", "log", []string{"sort"}, nil, "<name|address|type>", "sort the log"},
	{LogFind, "LogFind", "log", []string{"find"}, []string{"find"}, "<pattern>", "fuzzy search library and log"},

	{LibList, "LibList", "lib", []string{"list", "ls"}, []string{"ls"}, "[filter]", "show the library"},
	{LibSave, "LibSave", "lib", []string{"save", "sav"}, []string{"sav"}, "<selector>", "copy items into the library"},
	{LibMove, "LibMove", "lib", []string{"move", "mv"}, []string{"mv"}, "<from> <to>", "reorder a library item"},
	{LibRemove, "LibRemove", "lib", []string{"remove", "rm"}, []string{"rm"}, "<selector>", "remove library items"},
	{LibClear, "LibClear", "lib", []string{"clear", "clr"}, []string{"clr"}, "[filter]", "remove all (or matching) library items"},
	{LibStore, "LibStore", "lib", []string{"store"}, nil, "<name>", "persist the library under a name"},
	{LibLoad, "LibLoad", "lib", []string{"load"}, nil, "<name>", "replace the library with a stored one"},

	{MetaLabel, "MetaLabel", "meta", []string{"label"}, nil, "<selector> <label>", "set the label of items"},
	{MetaTag, "MetaTag", "meta", []string{"tag"}, nil, "<selector> <tag>", "add a tag to items"},
	{MetaUntag, "MetaUntag", "meta", []string{"untag"}, nil, "<selector> <tag>", "remove a tag from items"},
	{MetaTags, "MetaTags", "meta", []string{"tags"}, nil, "<selector>", "show the tags of items"},

	{ListClass, "ListClass", "list", []string{"class"}, []string{"class"}, "[filter]", "enumerate classes"},
	{ListMethod, "ListMethod", "list", []string{"method"}, []string{"method"}, "[filter]", "enumerate methods of the selected class"},
	{ListModule, "ListModule", "list", []string{"module"}, []string{"module"}, "[filter]", "enumerate loaded modules"},
	{ListExports, "ListExports", "list", []string{"exports"}, []string{"exports"}, "[filter]", "enumerate exports of the selected module"},
	{ListRange, "ListRange", "list", []string{"range"}, []string{"range"}, "[protection] [filter]", "enumerate memory ranges"},

	{MemDump, "MemDump", "mem", []string{"dump", "d"}, []string{"d"}, "<address> [size]", "hex dump memory"},
	{MemRead, "MemRead", "mem", []string{"read", "r"}, []string{"r"}, "<address|selector> [type]", "read a typed value"},
	{MemWrite, "MemWrite", "mem", []string{"write", "w"}, []string{"w"}, "<address|selector> <value> [type]", "write a typed value"},
	{MemList, "MemList", "mem", []string{"list", "lm"}, []string{"lm"}, "", "show the selected item"},
	{MemWatch, "MemWatch", "mem", []string{"watch"}, nil, "<selector>", "watch accesses to memory"},
	{MemLock, "MemLock", "mem", []string{"lock"}, nil, "<selector> <value>", "keep writing a value"},
	{MemTrace, "MemTrace", "mem", []string{"trace"}, nil, "<selector>", "trace execution"},
	{MemUnwatch, "MemUnwatch", "mem", []string{"unwatch"}, nil, "<selector>", "stop watching"},
	{MemUnlock, "MemUnlock", "mem", []string{"unlock"}, nil, "<selector>", "stop locking"},
	{MemUntrace, "MemUntrace", "mem", []string{"untrace"}, nil, "<selector>", "stop tracing"},
	{MemType, "MemType", "mem", []string{"type"}, nil, "<type>", "change the memory type of the selected pointer"},
	{MemDisas, "MemDisas", "mem", []string{"disas"}, nil, "<address> [count]", "disassemble instructions"},

	{AttachHook, "AttachHook", "attach", []string{"hook"}, nil, "<selector>", "hook a function"},
	{AttachUnhook, "AttachUnhook", "attach", []string{"unhook"}, nil, "<selector>", "remove a hook"},
	{AttachCall, "AttachCall", "attach", []string{"call"}, nil, "<selector> [args]", "call a function"},
	{AttachList, "AttachList", "attach", []string{"list", "la"}, []string{"la"}, "", "list hooks"},

	{ScanSearch, "ScanSearch", "scan", []string{"search"}, []string{"search"}, "<value> [type]", "start a memory scan"},
	{ScanExact, "ScanExact", "scan", []string{"exact"}, []string{"exact"}, "<value>", "narrow to an exact value"},
	{ScanMin, "ScanMin", "scan", []string{"min"}, []string{"min"}, "<value>", "narrow to values above"},
	{ScanMax, "ScanMax", "scan", []string{"max"}, []string{"max"}, "<value>", "narrow to values below"},
	{ScanInc, "ScanInc", "scan", []string{"inc"}, []string{"inc"}, "", "narrow to increased values"},
	{ScanDec, "ScanDec", "scan", []string{"dec"}, []string{"dec"}, "", "narrow to decreased values"},
	{ScanCh, "ScanCh", "scan", []string{"ch"}, []string{"ch"}, "", "narrow to changed values"},
	{ScanUnch, "ScanUnch", "scan", []string{"unch"}, []string{"unch"}, "", "narrow to unchanged values"},

	{Filter, "Filter", "", nil, []string{"filter"}, "<filter>", "show library and log items matching a filter"},
	{Fields, "Fields", "", nil, []string{"fields"}, "", "list filter fields and memory types"},
	{Help, "Help", "", nil, []string{"help"}, "", "show this help"},
	{Run, "Run", "", nil, []string{"run"}, "<file.vzs>", "run a script file"},
	{History, "History", "", nil, []string{"history", "hist"}, "[count]", "show recent commands"},
	{Exit, "Exit", "", nil, []string{"exit", "quit", "q"}, "", "leave vlitz"},
}

var (
	groupTable = make(map[string]map[string]CommandType)
	aliasTable = make(map[string]CommandType)
	typeNames  = make(map[CommandType]string)
)

func init() {
	for _, def := range CommandDefs {
		typeNames[def.Type] = def.Name
		for _, alias := range def.Aliases {
			aliasTable[alias] = def.Type
		}
		if def.Group == "" {
			continue
		}
		for _, groupName := range groupNames[def.Group] {
			subs := groupTable[groupName]
			if subs == nil {
				subs = make(map[string]CommandType)
				groupTable[groupName] = subs
			}
			for _, sub := range def.Subs {
				subs[sub] = def.Type
			}
		}
	}
}

func (ct CommandType) String() string {
	if name, ok := typeNames[ct]; ok {
		return name
	}
	return "Unknown"
}

// GetDef returns the table entry for ct.
func GetDef(ct CommandType) (CommandDef, bool) {
	for _, def := range CommandDefs {
		if def.Type == ct {
			return def, true
		}
	}
	return CommandDef{}, false
}
