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
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters of one phasing run.  Each Metrics has its own
// registry, so concurrent runs in one process don't collide.
type Metrics struct {
	Registry *prometheus.Registry

	Columns            prometheus.Counter
	Sites              prometheus.Counter
	Blocks             prometheus.Counter
	Fragments          prometheus.Counter
	TruncatedCalls     prometheus.Counter
	ChimericFragments  prometheus.Counter
	CorrectedFragments prometheus.Counter
	FilteredSites      prometheus.Counter
	BlockSites         prometheus.Histogram
}

// NewMetrics creates and registers the run counters.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Columns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "phase_columns_total",
			Help: "Number of pileup columns examined.",
		}),
		Sites: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "phase_sites_total",
			Help: "Number of heterozygous sites detected.",
		}),
		Blocks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "phase_blocks_total",
			Help: "Number of phased blocks reported.",
		}),
		Fragments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "phase_fragments_total",
			Help: "Number of fragments reported.",
		}),
		TruncatedCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "phase_truncated_calls_total",
			Help: "Number of calls dropped because a fragment reached the max-vars cap.",
		}),
		ChimericFragments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "phase_chimeric_fragments_total",
			Help: "Number of fragments with substantial support for both phases.",
		}),
		CorrectedFragments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "phase_corrected_fragments_total",
			Help: "Number of chimeric fragments whose calls were flipped on one side of a split.",
		}),
		FilteredSites: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "phase_filtered_sites_total",
			Help: "Number of sites dropped by the site filter.",
		}),
		BlockSites: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "phase_block_sites",
			Help:    "Number of sites per reported block.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
	m.Registry.MustRegister(
		m.Columns,
		m.Sites,
		m.Blocks,
		m.Fragments,
		m.TruncatedCalls,
		m.ChimericFragments,
		m.CorrectedFragments,
		m.FilteredSites,
		m.BlockSites,
	)
	return m
}

// WriteToTextfile writes the counters to path in the Prometheus text format.
func (m *Metrics) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
