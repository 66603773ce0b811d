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
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PosType is the coordinate type of this package.
type PosType int32

// PosTypeMax is the maximum value that can be represented by a PosType.
const PosTypeMax = math.MaxInt32

// Entry represents a single interval, with 0-based coordinates.
type Entry struct {
	RefName string
	Start0  PosType
	End     PosType
}

// Contains checks whether the (0-based) position pos on refName is inside the
// interval.
func (e Entry) Contains(refName string, pos PosType) bool {
	return refName == e.RefName && pos >= e.Start0 && pos < e.End
}

// Overlaps checks whether [start0, end) on refName intersects the interval.
func (e Entry) Overlaps(refName string, start0, end PosType) bool {
	return refName == e.RefName && start0 < e.End && end > e.Start0
}

// String renders the interval in the format accepted by ParseRegionString.
func (e Entry) String() string {
	if e.Start0 == 0 && e.End == PosTypeMax-1 {
		return e.RefName
	}
	return fmt.Sprintf("%s:%d-%d", e.RefName, e.Start0+1, e.End)
}

// ParseRegionString parses a region string of one of the forms
//   [contig ID]:[1-based first pos]-[last pos]
//   [contig ID]:[1-based pos]
//   [contig ID]
// returning a contig ID and 0-based interval boundaries.  The interval
// [0, PosTypeMax - 1) is returned if there is no positional restriction.
func ParseRegionString(region string) (result Entry, err error) {
	if len(region) == 0 {
		err = fmt.Errorf("interval.ParseRegionString: empty region string")
		return
	}
	colonPos := strings.LastIndexByte(region, ':')
	if colonPos == -1 {
		result.RefName = region
		result.End = PosTypeMax - 1
		return
	}
	if colonPos == 0 {
		err = fmt.Errorf("interval.ParseRegionString: empty contig ID")
		return
	}
	result.RefName = region[:colonPos]
	rangeStr := strings.Replace(region[colonPos+1:], ",", "", -1)
	dashPos := strings.IndexByte(rangeStr, '-')
	if dashPos == -1 {
		var pos1 int64
		if pos1, err = strconv.ParseInt(rangeStr, 10, 32); err != nil {
			return
		}
		if pos1 <= 0 {
			err = fmt.Errorf("interval.ParseRegionString: position %v in region string out of range", rangeStr)
			return
		}
		result.Start0 = PosType(pos1 - 1)
		result.End = PosType(pos1)
		return
	}
	var start1, end int
	if start1, err = strconv.Atoi(rangeStr[:dashPos]); err != nil {
		return
	}
	if start1 <= 0 {
		err = fmt.Errorf("interval.ParseRegionString: position %v in region string out of range", rangeStr[:dashPos])
		return
	}
	if end, err = strconv.Atoi(rangeStr[dashPos+1:]); err != nil {
		return
	}
	// end == PosTypeMax is reserved for "no restriction".
	if end < start1 || end >= PosTypeMax {
		err = fmt.Errorf("interval.ParseRegionString: invalid range string %v", rangeStr)
		return
	}
	result.Start0 = PosType(start1 - 1)
	result.End = PosType(end)
	return
}
