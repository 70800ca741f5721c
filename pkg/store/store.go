// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package store owns the library (curated items) and the log (capture
// history). Global index i addresses the library when i < len(library) and
// the log at i-len(library) otherwise.
package store

import (
	"strings"

	"github.com/vlitzdev/vlitz/pkg/filter"
	"github.com/vlitzdev/vlitz/pkg/selector"
	"github.com/vlitzdev/vlitz/pkg/vzdata"
	"github.com/vlitzdev/vlitz/pkg/vzerr"
	"golang.org/x/exp/slices"
)

const DefaultItemsPerPage = 20

const (
	SortByName    = "name"
	SortByAddress = "address"
	SortByType    = "type"
)

// DataStore is owned by a single command loop and is not safe for
// concurrent use.
type DataStore struct {
	lib          []*vzdata.Item
	log          []*vzdata.Item
	currentPage  int
	itemsPerPage int
}

func MakeDataStore(itemsPerPage int) *DataStore {
	if itemsPerPage <= 0 {
		itemsPerPage = DefaultItemsPerPage
	}
	return &DataStore{
		itemsPerPage: itemsPerPage,
	}
}

func (ds *DataStore) LibLen() int {
	return len(ds.lib)
}

func (ds *DataStore) LogLen() int {
	return len(ds.log)
}

func (ds *DataStore) ItemsPerPage() int {
	return ds.itemsPerPage
}

func (ds *DataStore) CurrentPage() int {
	return ds.currentPage
}

// AddToLog appends item and returns its log index.
func (ds *DataStore) AddToLog(item *vzdata.Item) int {
	ds.log = append(ds.log, item)
	return len(ds.log) - 1
}

// AddMultipleToLog appends items and returns the log index of the first one.
func (ds *DataStore) AddMultipleToLog(items []*vzdata.Item) int {
	start := len(ds.log)
	ds.log = append(ds.log, items...)
	return start
}

// lookup maps a global index to its item, or nil when out of range.
func (ds *DataStore) lookup(idx int) *vzdata.Item {
	if idx < 0 {
		return nil
	}
	if idx < len(ds.lib) {
		return ds.lib[idx]
	}
	if idx-len(ds.lib) < len(ds.log) {
		return ds.log[idx-len(ds.lib)]
	}
	return nil
}

// SelectIndexed resolves sel against the current lengths and pairs every
// found item with the index that selected it. Indices that fall outside both
// collections are skipped.
func (ds *DataStore) SelectIndexed(sel selector.Selector) ([]vzdata.IndexedItem, error) {
	var rtn []vzdata.IndexedItem
	for _, idx := range sel.Resolve(len(ds.lib), len(ds.log)) {
		if item := ds.lookup(idx); item != nil {
			rtn = append(rtn, vzdata.IndexedItem{Index: idx, Item: item})
		}
	}
	if len(rtn) == 0 {
		return nil, vzerr.With(vzerr.ErrNoDataFound, "%s", sel.String())
	}
	return rtn, nil
}

// SelectData returns the stored items themselves. Callers that keep an item
// beyond the current command must Clone it.
func (ds *DataStore) SelectData(sel selector.Selector) ([]*vzdata.Item, error) {
	indexed, err := ds.SelectIndexed(sel)
	if err != nil {
		return nil, err
	}
	rtn := make([]*vzdata.Item, len(indexed))
	for i, ii := range indexed {
		rtn[i] = ii.Item
	}
	return rtn, nil
}

// GetDataMut is SelectData with duplicate indices removed, so each item is
// returned at most once and a mutation is applied once per item.
func (ds *DataStore) GetDataMut(sel selector.Selector) ([]*vzdata.Item, error) {
	indices := sel.Resolve(len(ds.lib), len(ds.log))
	slices.Sort(indices)
	indices = slices.Compact(indices)
	var rtn []*vzdata.Item
	for _, idx := range indices {
		if item := ds.lookup(idx); item != nil {
			rtn = append(rtn, item)
		}
	}
	if len(rtn) == 0 {
		return nil, vzerr.With(vzerr.ErrNoDataFound, "%s", sel.String())
	}
	return rtn, nil
}

// SaveToLib appends clones of the selected items to the library and returns
// the library length before the append.
func (ds *DataStore) SaveToLib(sel selector.Selector) (int, error) {
	items, err := ds.SelectData(sel)
	if err != nil {
		return 0, err
	}
	start := len(ds.lib)
	for _, item := range items {
		ds.lib = append(ds.lib, item.Clone())
	}
	return start, nil
}

// MoveInLib removes the item at from and reinserts it at to (clamped to the
// end of the shortened library).
func (ds *DataStore) MoveInLib(from int, to int) error {
	if from < 0 || from >= len(ds.lib) {
		return vzerr.Errorf(vzerr.KindSelector, "source index %d out of bounds", from)
	}
	if to < 0 {
		return vzerr.Errorf(vzerr.KindSelector, "destination index %d out of bounds", to)
	}
	item := ds.lib[from]
	ds.lib = slices.Delete(ds.lib, from, from+1)
	if to > len(ds.lib) {
		to = len(ds.lib)
	}
	ds.lib = slices.Insert(ds.lib, to, item)
	return nil
}

// RemoveFromLib removes the selected library items (indices beyond the
// library are ignored) and returns how many were removed.
func (ds *DataStore) RemoveFromLib(sel selector.Selector) (int, error) {
	var indices []int
	for _, idx := range sel.Resolve(len(ds.lib), len(ds.log)) {
		if idx >= 0 && idx < len(ds.lib) {
			indices = append(indices, idx)
		}
	}
	// highest first so earlier removals never shift later ones
	slices.Sort(indices)
	indices = slices.Compact(indices)
	removed := 0
	for i := len(indices) - 1; i >= 0; i-- {
		ds.lib = slices.Delete(ds.lib, indices[i], indices[i]+1)
		removed++
	}
	if removed == 0 {
		return 0, vzerr.With(vzerr.ErrNoDataFound, "%s", sel.String())
	}
	return removed, nil
}

// ClearLib empties the library, or with a non-empty filter expression removes
// only the matching items. It returns the number of removed items.
func (ds *DataStore) ClearLib(fctx *filter.FilterContext, filterExpr string) (int, error) {
	before := len(ds.lib)
	if strings.TrimSpace(filterExpr) == "" {
		ds.lib = nil
		return before, nil
	}
	cond, err := filter.Parse(filterExpr)
	if err != nil {
		return 0, err
	}
	kept := make([]*vzdata.Item, 0, len(ds.lib))
	for _, item := range ds.lib {
		if !cond.Match(fctx, item) {
			kept = append(kept, item)
		}
	}
	ds.lib = kept
	return before - len(ds.lib), nil
}

// FilterData returns every library and log item matching cond, with global
// indices.
func (ds *DataStore) FilterData(fctx *filter.FilterContext, cond filter.Condition) []vzdata.IndexedItem {
	var rtn []vzdata.IndexedItem
	for idx, item := range ds.lib {
		if cond.Match(fctx, item) {
			rtn = append(rtn, vzdata.IndexedItem{Index: idx, Item: item})
		}
	}
	for idx, item := range ds.log {
		if cond.Match(fctx, item) {
			rtn = append(rtn, vzdata.IndexedItem{Index: idx + len(ds.lib), Item: item})
		}
	}
	return rtn
}

func (ds *DataStore) page(items []*vzdata.Item, offset int) []vzdata.IndexedItem {
	start := ds.currentPage * ds.itemsPerPage
	if start >= len(items) {
		return []vzdata.IndexedItem{}
	}
	end := min(start+ds.itemsPerPage, len(items))
	rtn := make([]vzdata.IndexedItem, 0, end-start)
	for i := start; i < end; i++ {
		rtn = append(rtn, vzdata.IndexedItem{Index: offset + i, Item: items[i]})
	}
	return rtn
}

// CurrentLogPage returns the log slice of the current page, with global
// indices (offset by the library length).
func (ds *DataStore) CurrentLogPage() []vzdata.IndexedItem {
	return ds.page(ds.log, len(ds.lib))
}

// CurrentLibPage returns the library slice of the current page.
func (ds *DataStore) CurrentLibPage() []vzdata.IndexedItem {
	return ds.page(ds.lib, 0)
}

func (ds *DataStore) LogPageCount() int {
	return (len(ds.log) + ds.itemsPerPage - 1) / ds.itemsPerPage
}

// NextLogPage advances by count pages, stopping at the last page.
func (ds *DataStore) NextLogPage(count int) (int, error) {
	pageCount := ds.LogPageCount()
	if pageCount == 0 {
		return 0, vzerr.ErrEmptyLog
	}
	ds.currentPage = min(max(ds.currentPage+count, 0), pageCount-1)
	return ds.currentPage, nil
}

// PrevLogPage goes back by count pages, stopping at page 0. A negative count
// never moves past the last page.
func (ds *DataStore) PrevLogPage(count int) int {
	ds.currentPage = min(max(ds.currentPage-count, 0), max(ds.LogPageCount()-1, 0))
	return ds.currentPage
}

// SetLogPage jumps to page, clamped to the available pages.
func (ds *DataStore) SetLogPage(page int) (int, error) {
	pageCount := ds.LogPageCount()
	if pageCount == 0 {
		return 0, vzerr.ErrEmptyLog
	}
	ds.currentPage = min(max(page, 0), pageCount-1)
	return ds.currentPage, nil
}

// SortLog stably sorts the log by name, address or type.
func (ds *DataStore) SortLog(field string) error {
	switch field {
	case SortByName:
		slices.SortStableFunc(ds.log, func(a, b *vzdata.Item) int {
			aName, _ := a.Name()
			bName, _ := b.Name()
			return strings.Compare(aName, bName)
		})
	case SortByAddress:
		slices.SortStableFunc(ds.log, func(a, b *vzdata.Item) int {
			aAddr, _ := a.Address()
			bAddr, _ := b.Address()
			switch {
			case aAddr < bAddr:
				return -1
			case aAddr > bAddr:
				return 1
			}
			return 0
		})
	case SortByType:
		slices.SortStableFunc(ds.log, func(a, b *vzdata.Item) int {
			return strings.Compare(a.Type.String(), b.Type.String())
		})
	default:
		return vzerr.With(vzerr.ErrUnknownSortField, "%s", field)
	}
	return nil
}

// Lib returns a snapshot of the library slice. The items are shared.
func (ds *DataStore) Lib() []*vzdata.Item {
	return slices.Clone(ds.lib)
}

func (ds *DataStore) Log() []*vzdata.Item {
	return slices.Clone(ds.log)
}

// ReplaceLib swaps in a new library, e.g. one loaded from a snapshot.
func (ds *DataStore) ReplaceLib(items []*vzdata.Item) {
	ds.lib = items
}
