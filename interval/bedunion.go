// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package interval

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/klauspost/compress/gzip"
)

// BEDUnion is a per-contig union of intervals.  Each contig maps to a
// length-2N sequence: the (0-based) start of interval #k is in element [2k]
// and its end in element [2k+1], in increasing order.  A position is covered
// iff the number of endpoints <= pos is odd.
type BEDUnion struct {
	nameMap map[string][]PosType
}

// ContainsByName checks whether the (0-based) interval [pos, pos+1) is
// contained within the BEDUnion.
func (u *BEDUnion) ContainsByName(refName string, pos PosType) bool {
	endpoints := u.nameMap[refName]
	if endpoints == nil {
		return false
	}
	idx := sort.Search(len(endpoints), func(i int) bool { return endpoints[i] > pos })
	return idx&1 == 1
}

// NewBEDUnion loads the intervals from a BED, merging touching/overlapping
// intervals and eliminating empty ones.  Intervals must be sorted by start
// within each contig.  Header ("track", "browser") and '#' lines are skipped.
func NewBEDUnion(reader io.Reader) (u BEDUnion, err error) {
	u.nameMap = make(map[string][]PosType)
	scanner := bufio.NewScanner(reader)
	lineIdx := 0
	for scanner.Scan() {
		lineIdx++
		line := scanner.Text()
		if line == "" || line[0] == '#' || strings.HasPrefix(line, "track") || strings.HasPrefix(line, "browser") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return u, fmt.Errorf("interval.NewBEDUnion: line %d has fewer than 3 fields", lineIdx)
		}
		var start, end int
		if start, err = strconv.Atoi(fields[1]); err != nil {
			return
		}
		if end, err = strconv.Atoi(fields[2]); err != nil {
			return
		}
		if start < 0 || end >= PosTypeMax {
			return u, fmt.Errorf("interval.NewBEDUnion: line %d: interval out of range", lineIdx)
		}
		if end <= start {
			continue
		}
		endpoints := u.nameMap[fields[0]]
		n := len(endpoints)
		if n > 0 && PosType(start) < endpoints[n-2] {
			return u, fmt.Errorf("interval.NewBEDUnion: line %d: unsorted interval %s:%d", lineIdx, fields[0], start)
		}
		if n > 0 && PosType(start) <= endpoints[n-1] {
			if PosType(end) > endpoints[n-1] {
				endpoints[n-1] = PosType(end)
			}
			continue
		}
		u.nameMap[fields[0]] = append(endpoints, PosType(start), PosType(end))
	}
	err = scanner.Err()
	return
}

// NewBEDUnionFromPath is a wrapper for NewBEDUnion that takes a path instead
// of an io.Reader.  Gzipped BEDs are decompressed transparently.
func NewBEDUnionFromPath(ctx context.Context, path string) (u BEDUnion, err error) {
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return
	}
	defer func() {
		if cerr := infile.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	reader := io.Reader(infile.Reader(ctx))
	if fileio.DetermineType(path) == fileio.Gzip {
		var gz *gzip.Reader
		if gz, err = gzip.NewReader(reader); err != nil {
			return
		}
		defer gz.Close()
		reader = gz
	}
	return NewBEDUnion(reader)
}
