// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package procengine

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vlitzdev/vlitz/pkg/engine"
)

// parseMaps reads the /proc/<pid>/maps format:
//
//	7f2c4a000000-7f2c4a021000 r-xp 00000000 08:01 1234   /usr/lib/libc.so.6
//
// Protection is reduced to its rwx part. Anonymous mappings have no File,
// pseudo mappings ("[heap]", "[stack]") keep their bracketed name.
func parseMaps(r io.Reader) ([]engine.RangeRecord, error) {
	var rtn []engine.RangeRecord
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 5 {
			return nil, fmt.Errorf("maps line %d: expected at least 5 fields, got %d", lineNo, len(fields))
		}
		startStr, endStr, ok := strings.Cut(fields[0], "-")
		if !ok {
			return nil, fmt.Errorf("maps line %d: bad address range %q", lineNo, fields[0])
		}
		start, err := strconv.ParseUint(startStr, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("maps line %d: %w", lineNo, err)
		}
		end, err := strconv.ParseUint(endStr, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("maps line %d: %w", lineNo, err)
		}
		perms := fields[1]
		if len(perms) > 3 {
			perms = perms[:3]
		}
		rec := engine.RangeRecord{Base: start, Size: int(end - start), Protection: perms}
		if len(fields) > 5 {
			// paths may contain spaces
			path := strings.Join(fields[5:], " ")
			rec.File = &path
		}
		rtn = append(rtn, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rtn, nil
}
