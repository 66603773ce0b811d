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

// countWindow adds the l-call window win to hist.  The oldest call is the
// most significant bit of the bucket index.  Windows whose newest call is
// unresolved, or with fewer than two resolved calls, are ignored; otherwise
// each completion of the unresolved calls is counted once.
func countWindow(win []byte, hist []int) {
	l := len(win)
	if win[l-1] == callNone {
		return
	}
	nAmbig := 0
	for _, c := range win {
		if c == callNone {
			nAmbig++
		}
	}
	if l-nAmbig <= 1 {
		return
	}
	for x := uint32(0); x < 1<<uint(nAmbig); x++ {
		var z uint32
		j := uint(0)
		for _, c := range win {
			var bit uint32
			if c != callNone {
				bit = uint32(c - 1)
			} else {
				bit = x >> j & 1
				j++
			}
			z = z<<1 | bit
		}
		hist[z]++
	}
}

// countWindows builds, for each of the nSite sites of a block, the histogram
// of the l-site local haplotypes ending at that site.  Fragments spanning a
// single site carry no linkage and are skipped.
func countWindows(l, nSite int, frags []*Fragment) [][]int {
	hist := make([][]int, nSite)
	for i := range hist {
		hist[i] = make([]int, 1<<uint(l))
	}
	win := make([]byte, l)
	for _, f := range frags {
		if len(f.Calls) < 2 || f.VPos >= nSite {
			continue
		}
		for j := 1; j < len(f.Calls) && f.VPos+j < nSite; j++ {
			for i := 0; i < l; i++ {
				if k := j - (l - 1 - i); k >= 0 {
					win[i] = f.Calls[k]
				} else {
					win[i] = callNone
				}
			}
			countWindow(win, hist[f.VPos+j])
		}
	}
	return hist
}
