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
package pileup

import (
	"github.com/grailbio/phase/interval"
)

// Common pileup components.

// PosType is the integer type used to represent genomic positions.
type PosType = interval.PosType

// These constants are the natural values for A/C/G/T in a packed 2-bit
// representation.  The phasing code relies on BaseA < BaseC < BaseG < BaseT
// when ranking alleles of equal support.

const (
	// BaseA represents an A base.
	BaseA byte = iota
	// BaseC represents an C base.
	BaseC
	// BaseG represents an G base.
	BaseG
	// BaseT represents an T base.
	BaseT
	// BaseX is a catch-all.
	BaseX
)

// NBase is the number of regular base types.
const NBase = 4

// Seq8ToEnumTable is the .bam seq nibble -> A/C/G/T/X enum mapping.
var Seq8ToEnumTable = [...]byte{BaseX, BaseA, BaseC, BaseX, BaseG, BaseX, BaseX, BaseX, BaseT, BaseX, BaseX, BaseX, BaseX, BaseX, BaseX, BaseX}

// EnumToASCIITable is the A/C/G/T/X -> ASCII mapping, with X rendered as 'N'.
var EnumToASCIITable = [...]byte{'A', 'C', 'G', 'T', 'N'}

// ASCIIToEnum maps an ASCII base (either case) to the A/C/G/T/X enum.
func ASCIIToEnum(b byte) byte {
	switch b {
	case 'A', 'a':
		return BaseA
	case 'C', 'c':
		return BaseC
	case 'G', 'g':
		return BaseG
	case 'T', 't':
		return BaseT
	}
	return BaseX
}

// Entry is one read's contribution to a pileup column.
type Entry struct {
	// Name is the read name.  Both ends of a read-pair share it.
	Name string
	// Base is an A/C/G/T/X enum value.
	Base byte
	// Qual is the base quality.  Missing qualities (0xff) are reported as 0.
	Qual byte
	// MapQ is the mapping quality of the read.
	MapQ byte
	// Start and End are the 0-based [start, end) reference span of the
	// alignment.
	Start, End PosType
}

// Column is the set of reads overlapping one reference position.
type Column struct {
	RefID   int
	RefName string
	// Pos is 0-based.
	Pos     PosType
	Entries []Entry
}
