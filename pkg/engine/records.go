// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"github.com/vlitzdev/vlitz/pkg/vzdata"
)

func ModuleItems(recs []ModuleRecord) []*vzdata.Item {
	rtn := make([]*vzdata.Item, 0, len(recs))
	for _, rec := range recs {
		rtn = append(rtn, vzdata.NewModule(rec.Name, rec.Base, rec.Size))
	}
	return rtn
}

// ExportItems maps function exports to Function items and everything else
// (data exports) to Variable items.
func ExportItems(recs []ExportRecord) []*vzdata.Item {
	rtn := make([]*vzdata.Item, 0, len(recs))
	for _, rec := range recs {
		if rec.Type == ExportFunction {
			rtn = append(rtn, vzdata.NewFunction(rec.Name, rec.Address))
		} else {
			rtn = append(rtn, vzdata.NewVariable(rec.Name, rec.Address))
		}
	}
	return rtn
}

func RangeItems(recs []RangeRecord) []*vzdata.Item {
	rtn := make([]*vzdata.Item, 0, len(recs))
	for _, rec := range recs {
		var file *string
		if rec.File != nil {
			f := *rec.File
			file = &f
		}
		rtn = append(rtn, vzdata.NewRange(rec.Base, rec.Size, rec.Protection, file))
	}
	return rtn
}

func ClassItems(names []string) []*vzdata.Item {
	rtn := make([]*vzdata.Item, 0, len(names))
	for _, name := range names {
		rtn = append(rtn, vzdata.NewClass(name))
	}
	return rtn
}

func MethodItems(className string, recs []MethodRecord) []*vzdata.Item {
	rtn := make([]*vzdata.Item, 0, len(recs))
	for _, rec := range recs {
		args := append([]string{}, rec.ArgumentTypes...)
		rtn = append(rtn, vzdata.NewMethod(className, rec.Name, args, rec.ReturnType))
	}
	return rtn
}
