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
	"sort"

	"github.com/grailbio/phase/pileup"
)

// Call values.
const (
	callNone   byte = 0
	callFirst  byte = 1
	callSecond byte = 2
)

// Fragment is the projection of one read (or read-pair) onto the variant
// sites it overlaps.
type Fragment struct {
	Name string
	// Start and End are the alignment span of the first record seen.
	Start, End PosType
	// VPos is the block-local index of the first site covered.
	VPos int
	// Calls[i] is the call at site VPos+i: 0 (neither allele, or no call), 1
	// (leading allele) or 2 (second allele).
	Calls []byte
	// Phase is the haplotype the fragment was assigned to.
	Phase byte
}

func (f *Fragment) clone() *Fragment {
	c := *f
	c.Calls = append([]byte(nil), f.Calls...)
	return &c
}

// fragmentStore tracks the fragments of the current block, keyed by read
// name.
type fragmentStore struct {
	maxVars int
	frags   map[string]*Fragment
	// nTruncated counts the calls dropped due to maxVars since the last
	// takeTruncated call.
	nTruncated int
}

func newFragmentStore(maxVars int) *fragmentStore {
	return &fragmentStore{
		maxVars: maxVars,
		frags:   make(map[string]*Fragment),
	}
}

// add records e's call at site vpos.  It returns true iff the fragment carries
// no call from a site before vpos, i.e. it was created at this site, possibly
// by the other mate of the pair.  Mates disagreeing at a site leave no call
// there.
func (s *fragmentStore) add(e *pileup.Entry, vpos int, call byte) bool {
	f, ok := s.frags[e.Name]
	if !ok {
		s.frags[e.Name] = &Fragment{
			Name:  e.Name,
			Start: e.Start,
			End:   e.End,
			VPos:  vpos,
			Calls: []byte{call},
		}
		return true
	}
	vlen := vpos - f.VPos + 1
	if vlen > s.maxVars {
		s.nTruncated++
		return false
	}
	if len(f.Calls) >= vlen {
		// Overlapping mate.
		if f.Calls[vlen-1] != call {
			f.Calls[vlen-1] = callNone
		}
		return f.VPos == vpos
	}
	for len(f.Calls) < vlen {
		f.Calls = append(f.Calls, callNone)
	}
	f.Calls[vlen-1] = call
	return false
}

// takeTruncated returns and clears the truncation count.
func (s *fragmentStore) takeTruncated() int {
	n := s.nTruncated
	s.nTruncated = 0
	return n
}

// blockFragments returns the fragments starting before site nSite, ordered by
// alignment start, then name.
func (s *fragmentStore) blockFragments(nSite int) []*Fragment {
	var frags []*Fragment
	for _, f := range s.frags {
		if f.VPos < nSite {
			frags = append(frags, f)
		}
	}
	sortFragments(frags)
	return frags
}

// rebase discards the fragments starting before site origin, and shifts the
// site indices of the rest so that origin becomes site 0.
func (s *fragmentStore) rebase(origin int) {
	for name, f := range s.frags {
		if f.VPos < origin {
			delete(s.frags, name)
		} else {
			f.VPos -= origin
		}
	}
}

// reset discards every fragment.
func (s *fragmentStore) reset() {
	s.frags = make(map[string]*Fragment)
}

func sortFragments(frags []*Fragment) {
	sort.Slice(frags, func(i, j int) bool {
		if frags[i].Start != frags[j].Start {
			return frags[i].Start < frags[j].Start
		}
		return frags[i].Name < frags[j].Name
	})
}
