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
package phase

import (
	"github.com/grailbio/phase/pileup"
)

// PosType is the integer type used to represent genomic positions.
type PosType = pileup.PosType

// Site is a heterozygous variant site.
type Site struct {
	// Pos is 0-based.
	Pos PosType
	// Alleles are the leading and second allele, as pileup.BaseA..BaseT enum
	// values.
	Alleles [2]byte
	// Support holds the quality sums of the two alleles, saturated at 2^14-1.
	Support [2]uint16
}

// call classifies base against the site's alleles: 1 for the leading allele, 2
// for the second allele, and 0 for anything else.
func (s *Site) call(base byte) byte {
	switch base {
	case pileup.BaseX:
		return 0
	case s.Alleles[0]:
		return 1
	case s.Alleles[1]:
		return 2
	}
	return 0
}

// detectSite tallies the quality-weighted support of each base in col, and
// returns the resulting site if it is heterozygous.
//
// Alleles are ranked by support; equal supports are ranked by base enum, with
// T ahead of G ahead of C ahead of A.  This makes the ranking independent of
// the order of col.Entries.
func detectSite(col *pileup.Column, minMapQ, minVarQ int) (Site, bool) {
	var support [pileup.NBase]int
	for i := range col.Entries {
		e := &col.Entries[i]
		if int(e.MapQ) < minMapQ || e.Base >= pileup.NBase {
			continue
		}
		support[e.Base] += int(e.Qual)
	}
	// Pack (support, base) into one sortable key.
	var keys [pileup.NBase]int
	for b, s := range support {
		if s > maxSupport {
			s = maxSupport
		}
		keys[b] = s<<2 | b
	}
	for i := 1; i < pileup.NBase; i++ {
		for j := i; j > 0 && keys[j] > keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	if keys[1]>>2 <= minVarQ {
		return Site{}, false
	}
	return Site{
		Pos:     col.Pos,
		Alleles: [2]byte{byte(keys[0] & 3), byte(keys[1] & 3)},
		Support: [2]uint16{uint16(keys[0] >> 2), uint16(keys[1] >> 2)},
	}, true
}
