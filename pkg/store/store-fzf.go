// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"strings"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
	"github.com/vlitzdev/vlitz/pkg/vzdata"
	"golang.org/x/exp/slices"
)

// FuzzyMatch is a single fuzzy-find hit.
type FuzzyMatch struct {
	vzdata.IndexedItem
	Score int
}

// FuzzyFind matches pattern against the display string of every library and
// log item using the fzf v2 algorithm. Results are ordered best score first,
// ties by global index.
func (ds *DataStore) FuzzyFind(pattern string) []FuzzyMatch {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil
	}
	runes := []rune(strings.ToLower(pattern))
	slab := util.MakeSlab(64, 4096)

	var rtn []FuzzyMatch
	check := func(idx int, item *vzdata.Item) {
		text := strings.ToLower(item.String())
		chars := util.ToChars([]byte(text))
		result, _ := algo.FuzzyMatchV2(false, true, true, &chars, runes, false, slab)
		if result.Score > 0 {
			rtn = append(rtn, FuzzyMatch{
				IndexedItem: vzdata.IndexedItem{Index: idx, Item: item},
				Score:       result.Score,
			})
		}
	}
	for idx, item := range ds.lib {
		check(idx, item)
	}
	for idx, item := range ds.log {
		check(idx+len(ds.lib), item)
	}
	slices.SortStableFunc(rtn, func(a, b FuzzyMatch) int {
		return b.Score - a.Score
	})
	return rtn
}
