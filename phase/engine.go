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
	"github.com/grailbio/base/log"
	"github.com/grailbio/phase/interval"
	"github.com/grailbio/phase/pileup"
)

// refContext holds the per-reference reporting state.
type refContext struct {
	id   int
	name string
	// siteOffset is the number of sites already reported on this reference.
	siteOffset int
	nBlock     int
}

// Engine consumes pileup columns in coordinate order, and reports a phased
// block whenever a variant site shares no read with the previous sites, at
// each reference change, and at Close.
type Engine struct {
	opts     Opts
	reporter Reporter
	metrics  *Metrics
	// Targets, if non-nil, restricts variant sites to its intervals.
	Targets *interval.BEDUnion

	store *fragmentStore
	sites []Site
	ref   refContext
}

// NewEngine creates an Engine.  opts must be valid.  metrics may be nil.
func NewEngine(opts Opts, reporter Reporter, metrics *Metrics) *Engine {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Engine{
		opts:     opts,
		reporter: reporter,
		metrics:  metrics,
		store:    newFragmentStore(opts.MaxVars),
		ref:      refContext{id: -1},
	}
}

// Add processes one column.  Columns must be sorted by (RefID, Pos).  It only
// returns an error if a block could not be reported.
func (e *Engine) Add(col *pileup.Column) error {
	if col.RefID != e.ref.id {
		if err := e.endRef(); err != nil {
			return err
		}
		e.ref = refContext{id: col.RefID, name: col.RefName}
	}
	e.metrics.Columns.Inc()
	if e.Targets != nil && !e.Targets.ContainsByName(col.RefName, col.Pos) {
		return nil
	}
	site, ok := detectSite(col, e.opts.MinMapQ, e.opts.MinVarQ)
	if !ok {
		return nil
	}
	e.metrics.Sites.Inc()
	vpos := len(e.sites)
	e.sites = append(e.sites, site)
	allNew := true
	for i := range col.Entries {
		ent := &col.Entries[i]
		if int(ent.MapQ) < e.opts.MinMapQ {
			continue
		}
		if !e.store.add(ent, vpos, site.call(ent.Base)) {
			allNew = false
		}
	}
	if n := e.store.takeTruncated(); n > 0 {
		e.metrics.TruncatedCalls.Add(float64(n))
		if log.At(log.Debug) {
			log.Debug.Printf("phase: %d call(s) at %s:%d exceed the %d-site fragment cap", n, col.RefName, col.Pos+1, e.opts.MaxVars)
		}
	}
	if allNew && vpos > 0 {
		// No read links this site to the previous ones.
		if err := e.flush(vpos); err != nil {
			return err
		}
		e.store.rebase(vpos)
		e.sites = append(e.sites[:0], site)
	}
	return nil
}

// Close reports the last block.
func (e *Engine) Close() error {
	return e.endRef()
}

func (e *Engine) endRef() error {
	if err := e.flush(len(e.sites)); err != nil {
		return err
	}
	if e.ref.id >= 0 {
		log.Printf("phase: %s: %d site(s) in %d block(s)", e.ref.name, e.ref.siteOffset, e.ref.nBlock)
	}
	e.store.reset()
	e.sites = e.sites[:0]
	return nil
}

// flush phases and reports the block made of the first nSite sites.
func (e *Engine) flush(nSite int) error {
	if nSite == 0 {
		return nil
	}
	b := e.phaseBlock(e.sites[:nSite], e.store.blockFragments(nSite))
	if len(b.Sites) == 0 {
		return nil
	}
	b.RefName = e.ref.name
	b.SiteOffset = e.ref.siteOffset
	e.ref.siteOffset += len(b.Sites)
	e.ref.nBlock++
	e.metrics.Blocks.Inc()
	e.metrics.BlockSites.Observe(float64(len(b.Sites)))
	e.metrics.Fragments.Add(float64(len(b.Fragments)))
	if log.At(log.Debug) {
		log.Debug.Printf("phase: block %s:%d-%d, %d site(s), %d fragment(s)",
			b.RefName, b.Sites[0].Pos+1, b.Sites[len(b.Sites)-1].Pos+1, len(b.Sites), len(b.Fragments))
	}
	return e.reporter.WriteBlock(b)
}

// phaseBlock runs window counting, the DP and phase assignment on one block.
// frags are modified in place.  With FilterSites, the unreliable sites are
// dropped and the block is phased again from the uncorrected fragments; only
// the reported pass adds to the chimera counters.
func (e *Engine) phaseBlock(sites []Site, frags []*Fragment) *Block {
	var snapshot []*Fragment
	if e.opts.FilterSites {
		snapshot = make([]*Fragment, len(frags))
		for i, f := range frags {
			snapshot[i] = f.clone()
		}
	}
	b, stats := e.phaseFragments(sites, frags)
	if e.opts.FilterSites {
		if keep := keptSites(b.Counts); len(keep) < len(sites) {
			e.metrics.FilteredSites.Add(float64(len(sites) - len(keep)))
			sites, frags = restrictSites(sites, snapshot, keep)
			b, stats = e.phaseFragments(sites, frags)
		}
	}
	e.metrics.ChimericFragments.Add(float64(stats.chimeric))
	e.metrics.CorrectedFragments.Add(float64(stats.corrected))
	return b
}

func (e *Engine) phaseFragments(sites []Site, frags []*Fragment) (*Block, assignStats) {
	sites = append([]Site(nil), sites...)
	hist := countWindows(e.opts.WindowLen, len(sites), frags)
	path := solvePath(e.opts.WindowLen, hist)
	counts, stats := assignPhases(path, frags)
	return &Block{
		Sites:     sites,
		Path:      path,
		Counts:    counts,
		Fragments: frags,
	}, stats
}
