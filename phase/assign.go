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

const (
	// chimeraMinCount is the number of calls a fragment must have on each
	// side of the phase vote before a split is considered.
	chimeraMinCount = 3
	// chimeraMinGain is the minimum improvement of a split over both sides of
	// the vote.
	chimeraMinGain = 3
)

// PhaseCounts are the per-site support counters.  A call of a fragment
// assigned to phase p is "correct" if it agrees with the phase path under p.
type PhaseCounts struct {
	Phase0Correct   int
	Phase0Incorrect int
	Phase1Correct   int
	Phase1Incorrect int
}

type assignStats struct {
	chimeric  int
	corrected int
}

// agrees reports whether call c of a phase-p fragment agrees with path bit b.
// c must be resolved.
func agrees(c, p, b byte) bool {
	bit := c - 1
	if p == 1 {
		bit ^= 1
	}
	return bit == b
}

// assignPhases sets the phase of every fragment from a majority vote against
// path (ties go to phase 1), corrects chimeric fragments in place, and returns
// the per-site support counters.  Fragments spanning a single site get a phase
// but are excluded from chimera correction and from the counters.
func assignPhases(path []byte, frags []*Fragment) ([]PhaseCounts, assignStats) {
	var stats assignStats
	counts := make([]PhaseCounts, len(path))
	for _, f := range frags {
		var agree [2]int
		for i, c := range f.Calls {
			if c == callNone {
				continue
			}
			if agrees(c, 0, path[f.VPos+i]) {
				agree[0]++
			} else {
				agree[1]++
			}
		}
		f.Phase = 1
		if agree[0] > agree[1] {
			f.Phase = 0
		}
		if len(f.Calls) < 2 {
			continue
		}
		if agree[0] >= chimeraMinCount && agree[1] >= chimeraMinCount {
			stats.chimeric++
			if correctChimera(f, path, agree) {
				stats.corrected++
			}
		}
		for i, c := range f.Calls {
			if c == callNone {
				continue
			}
			pc := &counts[f.VPos+i]
			ok := agrees(c, f.Phase, path[f.VPos+i])
			switch {
			case f.Phase == 0 && ok:
				pc.Phase0Correct++
			case f.Phase == 0:
				pc.Phase0Incorrect++
			case ok:
				pc.Phase1Correct++
			default:
				pc.Phase1Incorrect++
			}
		}
	}
	return counts, stats
}

// correctChimera looks for the split point of f which best explains it as the
// junction of two haplotypes.  If the split beats both sides of the phase vote
// by chimeraMinGain calls, the calls on the minority side of the split are
// swapped between alleles.  It returns true iff f was modified.
func correctChimera(f *Fragment, path []byte, agree [2]int) bool {
	n := len(f.Calls)
	// left[i] and right[i] count the (agreeing, disagreeing) calls in
	// [0, i] and [i, n) respectively.
	left := make([][2]int, n)
	right := make([][2]int, n)
	var sum [2]int
	for i := 0; i < n; i++ {
		if c := f.Calls[i]; c != callNone {
			if agrees(c, f.Phase, path[f.VPos+i]) {
				sum[0]++
			} else {
				sum[1]++
			}
		}
		left[i] = sum
	}
	sum = [2]int{}
	for i := n - 1; i >= 0; i-- {
		if c := f.Calls[i]; c != callNone {
			if agrees(c, f.Phase, path[f.VPos+i]) {
				sum[0]++
			} else {
				sum[1]++
			}
		}
		right[i] = sum
	}

	best, bestIdx, flipHead := 0, -1, false
	for i := 0; i < n-1; i++ {
		// Keep the head and flip the tail, or vice versa.
		keepHead := left[i][0] + right[i+1][1]
		keepTail := left[i][1] + right[i+1][0]
		if keepHead > keepTail {
			if keepHead > best {
				best, bestIdx, flipHead = keepHead, i, false
			}
		} else if keepTail > best {
			best, bestIdx, flipHead = keepTail, i, true
		}
	}
	if bestIdx < 0 || best-agree[0] < chimeraMinGain || best-agree[1] < chimeraMinGain {
		return false
	}
	lo, hi := bestIdx+1, n
	if flipHead {
		lo, hi = 0, bestIdx+1
	}
	for i := lo; i < hi; i++ {
		switch f.Calls[i] {
		case callFirst:
			f.Calls[i] = callSecond
		case callSecond:
			f.Calls[i] = callFirst
		}
	}
	return true
}
