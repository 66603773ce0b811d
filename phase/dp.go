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

// solvePath returns the phase path maximizing the window support in hist:
// path[i] is the rank (0 or 1) of the allele of site i on haplotype 0.
//
// Since the haplotype labels are interchangeable, a local haplotype x and its
// complement ~x are the same state; the DP only tracks the l-bit windows whose
// top bit is clear.  Both x and ~x score hist[x] + hist[~x].  The predecessor
// of x is either x>>1 (same labeling) or ~x>>1 (labeling flipped), and the
// backtrack bit records which.
func solvePath(l int, hist [][]int) []byte {
	nSite := len(hist)
	if nSite == 0 {
		return nil
	}
	nState := uint32(1) << uint(l-1)
	mask := uint32(1)<<uint(l) - 1
	prev := make([]int, nState)
	curr := make([]int, nState)
	back := make([][]bool, nSite)
	for i, h := range hist {
		bi := make([]bool, nState)
		for x := uint32(0); x < nState; x++ {
			xc := ^x & mask
			w := h[x] + h[xc]
			c0 := prev[x>>1] + w
			c1 := prev[xc>>1] + w
			if c0 > c1 {
				curr[x] = c0
			} else {
				curr[x] = c1
				bi[x] = true
			}
		}
		back[i] = bi
		prev, curr = curr, prev
	}

	maxX := uint32(0)
	for x := uint32(1); x < nState; x++ {
		if prev[x] > prev[maxX] {
			maxX = x
		}
	}
	path := make([]byte, nSite)
	flipped := false
	x := maxX
	for i := nSite - 1; i >= 0; i-- {
		bit := byte(x & 1)
		if flipped {
			bit ^= 1
		}
		path[i] = bit
		if back[i][x] {
			flipped = !flipped
			x = (^x & mask) >> 1
		} else {
			x >>= 1
		}
	}
	return path
}
