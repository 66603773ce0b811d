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

// keptSites returns the indices of the sites whose incorrect support does not
// exceed the correct support in either phase.
func keptSites(counts []PhaseCounts) []int {
	var keep []int
	for i, pc := range counts {
		if pc.Phase0Incorrect > pc.Phase0Correct || pc.Phase1Incorrect > pc.Phase1Correct {
			continue
		}
		keep = append(keep, i)
	}
	return keep
}

// restrictSites projects sites and frags onto the sites listed in keep (sorted
// indices).  The returned fragments are new objects; fragments whose span
// covers no kept site are dropped.
func restrictSites(sites []Site, frags []*Fragment, keep []int) ([]Site, []*Fragment) {
	newIdx := make([]int, len(sites))
	for i := range newIdx {
		newIdx[i] = -1
	}
	restricted := make([]Site, len(keep))
	for i, k := range keep {
		newIdx[k] = i
		restricted[i] = sites[k]
	}
	var keptFrags []*Fragment
	for _, f := range frags {
		var calls []byte
		vpos := -1
		for i, c := range f.Calls {
			j := newIdx[f.VPos+i]
			if j < 0 {
				continue
			}
			if vpos < 0 {
				vpos = j
			}
			calls = append(calls, c)
		}
		if vpos < 0 {
			continue
		}
		g := *f
		g.VPos = vpos
		g.Calls = calls
		keptFrags = append(keptFrags, &g)
	}
	return restricted, keptFrags
}
