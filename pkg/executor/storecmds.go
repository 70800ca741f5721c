// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vlitzdev/vlitz/pkg/command"
	"github.com/vlitzdev/vlitz/pkg/filter"
	"github.com/vlitzdev/vlitz/pkg/selector"
	"github.com/vlitzdev/vlitz/pkg/store"
	"github.com/vlitzdev/vlitz/pkg/vzdata"
)

// pageCountArg reads an optional positive count, defaulting to 1.
func pageCountArg(args []command.Arg) int {
	if len(args) == 0 {
		return 1
	}
	if n, err := command.AsNumber(args[0]); err == nil && n > 0 {
		return int(n)
	}
	return 1
}

func (e *Executor) logList(ctx context.Context, args []command.Arg) Result {
	if e.store.LogLen() == 0 {
		return Success("Log is empty")
	}
	if len(args) > 0 {
		n, err := command.AsNumber(args[0])
		if err != nil || n < 1 {
			return Error("Invalid page argument")
		}
		e.store.SetLogPage(int(n) - 1)
	}
	return DataList(e.logPageHeader(), e.store.CurrentLogPage())
}

func (e *Executor) logPageHeader() string {
	return fmt.Sprintf("Log page %d/%d (%d items)", e.store.CurrentPage()+1, e.store.LogPageCount(), e.store.LogLen())
}

func (e *Executor) logNext(ctx context.Context, args []command.Arg) Result {
	page, err := e.store.NextLogPage(pageCountArg(args))
	if err != nil {
		return Error("Failed to move to next page: %v", err)
	}
	return Success("Moved to log page %d", page+1)
}

func (e *Executor) logPrev(ctx context.Context, args []command.Arg) Result {
	page := e.store.PrevLogPage(pageCountArg(args))
	return Success("Moved to log page %d", page+1)
}

func (e *Executor) logSort(ctx context.Context, args []command.Arg) Result {
	field := store.SortByName
	if len(args) > 0 {
		if s, err := command.AsString(args[0]); err == nil {
			field = strings.ToLower(s)
		}
	}
	if err := e.store.SortLog(field); err != nil {
		return Error("Failed to sort log: %v", err)
	}
	return Success("Sorted log by %s", field)
}

func (e *Executor) logFind(ctx context.Context, args []command.Arg) Result {
	if len(args) == 0 {
		return Error("Search pattern required")
	}
	pattern := joinArgs(args)
	matches := e.store.FuzzyFind(pattern)
	if len(matches) == 0 {
		return Success("No matches for %q", pattern)
	}
	items := make([]vzdata.IndexedItem, len(matches))
	for i, m := range matches {
		items[i] = m.IndexedItem
	}
	return DataList(fmt.Sprintf("%d matches for %q", len(items), pattern), items)
}

func (e *Executor) libList(ctx context.Context, args []command.Arg) Result {
	if e.store.LibLen() == 0 {
		return Success("Library is empty")
	}
	if len(args) == 0 {
		items := e.store.CurrentLibPage()
		if len(items) == 0 {
			return Success("Library is empty")
		}
		return DataList(fmt.Sprintf("Library (%d items)", e.store.LibLen()), items)
	}
	cond, err := filter.Parse(joinArgs(args))
	if err != nil {
		return Error("Invalid filter: %v", err)
	}
	fctx := e.filterContext(ctx)
	var items []vzdata.IndexedItem
	for idx, item := range e.store.Lib() {
		if cond.Match(fctx, item) {
			items = append(items, vzdata.IndexedItem{Index: idx, Item: item})
		}
	}
	if len(items) == 0 {
		return Success("No library items match %s", filter.PrettyPrint(cond))
	}
	return DataList(fmt.Sprintf("Library (%d of %d items)", len(items), e.store.LibLen()), items)
}

func (e *Executor) libSave(ctx context.Context, args []command.Arg) Result {
	if len(args) == 0 {
		return Error("Selector argument required")
	}
	sel, err := command.AsSelector(args[0])
	if err != nil {
		return Error("Invalid selector argument")
	}
	start, err := e.store.SaveToLib(sel)
	if err != nil {
		return Error("Failed to save to library: %v", err)
	}
	return Success("Saved %d items to library", e.store.LibLen()-start)
}

func (e *Executor) libMove(ctx context.Context, args []command.Arg) Result {
	if len(args) < 2 {
		return Error("Two index arguments required")
	}
	from, err := command.AsNumber(args[0])
	if err != nil || from < 0 {
		return Error("Invalid from index")
	}
	to, err := command.AsNumber(args[1])
	if err != nil || to < 0 {
		return Error("Invalid to index")
	}
	if err := e.store.MoveInLib(int(from), int(to)); err != nil {
		return Error("Failed to move item: %v", err)
	}
	return Success("Moved item from %d to %d", from, to)
}

func (e *Executor) libRemove(ctx context.Context, args []command.Arg) Result {
	if len(args) == 0 {
		return Error("Selector argument required")
	}
	sel, err := command.AsSelector(args[0])
	if err != nil {
		return Error("Invalid selector argument")
	}
	count, err := e.store.RemoveFromLib(sel)
	if err != nil {
		return Error("Failed to remove from library: %v", err)
	}
	return Success("Removed %d items from library", count)
}

func (e *Executor) libClear(ctx context.Context, args []command.Arg) Result {
	var expr string
	if len(args) > 0 {
		if _, ok := args[0].(command.FilterArg); !ok {
			return Error("Invalid filter argument")
		}
		expr = joinArgs(args)
	}
	count, err := e.store.ClearLib(e.filterContext(ctx), expr)
	if err != nil {
		return Error("Failed to clear library: %v", err)
	}
	return Success("Cleared %d items from library", count)
}

func nameArg(args []command.Arg) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	name := args[0].String()
	return name, name != ""
}

func (e *Executor) libStore(ctx context.Context, args []command.Arg) Result {
	name, ok := nameArg(args)
	if !ok {
		return Error("Snapshot name required")
	}
	if e.history == nil {
		return errResult(ErrHistoryUnavailable)
	}
	data, err := json.Marshal(e.store.Lib())
	if err != nil {
		return Error("Failed to encode library: %v", err)
	}
	if err := e.history.StoreLib(name, data); err != nil {
		return Error("Failed to store library: %v", err)
	}
	return Success("Stored %d library items as %q", e.store.LibLen(), name)
}

// libLoad replaces the library with a stored snapshot; without a name it
// lists the stored snapshots.
func (e *Executor) libLoad(ctx context.Context, args []command.Arg) Result {
	if e.history == nil {
		return errResult(ErrHistoryUnavailable)
	}
	name, ok := nameArg(args)
	if !ok {
		names, err := e.history.LibNames()
		if err != nil {
			return Error("Failed to list snapshots: %v", err)
		}
		if len(names) == 0 {
			return Success("No stored libraries")
		}
		return Success("Stored libraries: %s", strings.Join(names, ", "))
	}
	data, err := e.history.LoadLib(name)
	if err != nil {
		return Error("Failed to load library: %v", err)
	}
	var items []*vzdata.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return Error("Failed to decode library %q: %v", name, err)
	}
	e.store.ReplaceLib(items)
	return Success("Loaded %d library items from %q", len(items), name)
}

// metaArgs checks the "<selector> <value>" shape shared by label, tag and
// untag.
func metaArgs(args []command.Arg, what string) (selector.Selector, string, Result, bool) {
	if len(args) < 2 {
		return nil, "", Error("Selector and %s arguments required", what), false
	}
	sel, err := command.AsSelector(args[0])
	if err != nil {
		return nil, "", Error("Invalid selector argument"), false
	}
	value := args[1].String()
	if value == "" {
		return nil, "", Error("Invalid %s argument", what), false
	}
	return sel, value, Result{}, true
}

func (e *Executor) metaLabel(ctx context.Context, args []command.Arg) Result {
	sel, label, res, ok := metaArgs(args, "label")
	if !ok {
		return res
	}
	items, err := e.store.GetDataMut(sel)
	if err != nil {
		return Error("Failed to label items: %v", err)
	}
	for _, item := range items {
		item.SetLabel(label)
	}
	return Success("Applied label '%s' to %d items", label, len(items))
}

func (e *Executor) metaTag(ctx context.Context, args []command.Arg) Result {
	sel, tag, res, ok := metaArgs(args, "tag")
	if !ok {
		return res
	}
	items, err := e.store.GetDataMut(sel)
	if err != nil {
		return Error("Failed to tag items: %v", err)
	}
	for _, item := range items {
		item.AddTag(tag)
	}
	return Success("Added tag '%s' to %d items", tag, len(items))
}

func (e *Executor) metaUntag(ctx context.Context, args []command.Arg) Result {
	sel, tag, res, ok := metaArgs(args, "tag")
	if !ok {
		return res
	}
	items, err := e.store.GetDataMut(sel)
	if err != nil {
		return Error("Failed to untag items: %v", err)
	}
	removed := 0
	for _, item := range items {
		if item.RemoveTag(tag) {
			removed++
		}
	}
	return Success("Removed tag '%s' from %d items", tag, removed)
}

func (e *Executor) metaTags(ctx context.Context, args []command.Arg) Result {
	if len(args) == 0 {
		return Error("Selector argument required")
	}
	sel, err := command.AsSelector(args[0])
	if err != nil {
		return Error("Invalid selector argument")
	}
	items, err := e.store.SelectIndexed(sel)
	if err != nil {
		return Error("Failed to get tags: %v", err)
	}
	lines := make([]string, 0, len(items))
	for _, ii := range items {
		lines = append(lines, fmt.Sprintf("Item %d: [%s]", ii.Index, strings.Join(ii.Item.TagList(), ", ")))
	}
	return Success("%s", strings.Join(lines, "\n"))
}

// filterCmd searches library and log together.
func (e *Executor) filterCmd(ctx context.Context, args []command.Arg) Result {
	if len(args) == 0 {
		return Error("Filter expression required")
	}
	cond, err := filter.Parse(joinArgs(args))
	if err != nil {
		return Error("Invalid filter: %v", err)
	}
	items := e.store.FilterData(e.filterContext(ctx), cond)
	if len(items) == 0 {
		return Success("No items match %s", filter.PrettyPrint(cond))
	}
	return DataList(fmt.Sprintf("%d items match %s", len(items), filter.PrettyPrint(cond)), items)
}
