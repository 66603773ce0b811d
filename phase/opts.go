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
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"gopkg.in/yaml.v3"
)

// Opts defines the behavior of Run() and of the Engine.
type Opts struct {
	// MinMapQ: reads with MAPQ below this level do not contribute to allele
	// tallies or fragments.
	MinMapQ int `yaml:"min_mapq"`
	// MinVarQ: a column is a variant site iff the quality-weighted support of
	// its second allele is greater than this.
	MinVarQ int `yaml:"min_varq"`
	// WindowLen is the width, in sites, of the local haplotypes scored by the
	// DP, in [2, 10].  2^WindowLen histogram buckets are kept per site.
	WindowLen int `yaml:"window_len"`
	// MaxVars is the maximum number of sites a single fragment can span.
	// Calls past the cap are dropped and counted.
	MaxVars int `yaml:"max_vars"`
	// FilterSites enables the second phasing pass which drops sites whose
	// incorrect support exceeds their correct support in either phase.
	FilterSites bool `yaml:"filter_sites"`

	// Region, if nonempty, restricts phasing to one region.  Format as
	// <contig ID>:<1-based first pos>-<last pos>, <contig ID>:<1-based pos>, or
	// just <contig ID>.  Requires a BAM index.
	Region string `yaml:"region"`
	// BedPath, if nonempty, restricts variant sites to the intervals of a BED.
	BedPath string `yaml:"bed"`
	// BamIndexPath defaults to the BAM path + ".bai".
	BamIndexPath string `yaml:"index"`
	// FlagExclude: reads with a FLAG bit intersecting this value are skipped.
	FlagExclude int `yaml:"flag_exclude"`
	// MetricsPath, if nonempty, receives the run counters in the Prometheus
	// text format.
	MetricsPath string `yaml:"metrics"`
}

// DefaultOpts is the default configuration.
var DefaultOpts = Opts{
	MinMapQ:     10,
	MinVarQ:     40,
	WindowLen:   5,
	MaxVars:     256,
	FlagExclude: 0xf00,
}

const (
	minWindowLen = 2
	// maxWindowLen bounds the per-block histograms, nSite * 2^WindowLen ints.
	maxWindowLen = 10
	// maxSupport is the saturation point of per-allele quality sums.
	maxSupport = 1<<14 - 1
)

// Validate checks that the options are in range.
func (o *Opts) Validate() error {
	if o.MinMapQ < 0 || o.MinMapQ > 255 {
		return fmt.Errorf("phase.Opts: min-mapq must be in [0, 255], got %d", o.MinMapQ)
	}
	if o.MinVarQ < 0 {
		return fmt.Errorf("phase.Opts: min-varq must be nonnegative, got %d", o.MinVarQ)
	}
	if o.WindowLen < minWindowLen || o.WindowLen > maxWindowLen {
		return fmt.Errorf("phase.Opts: window length must be in [%d, %d], got %d", minWindowLen, maxWindowLen, o.WindowLen)
	}
	if o.MaxVars < 1 {
		return fmt.Errorf("phase.Opts: max-vars must be positive, got %d", o.MaxVars)
	}
	if o.Region != "" && o.BedPath != "" {
		return fmt.Errorf("phase.Opts: region and bed are mutually exclusive")
	}
	return nil
}

// DecodeOpts overlays the YAML document read from r onto opts.  Keys absent
// from the document keep their current values; unknown keys are an error.
func DecodeOpts(r io.Reader, opts *Opts) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(opts); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// LoadOpts overlays the YAML file at path onto opts.
func LoadOpts(ctx context.Context, path string, opts *Opts) (err error) {
	var in file.File
	if in, err = file.Open(ctx, path); err != nil {
		return errors.E(err, "couldn't open config file:", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	if err = DecodeOpts(in.Reader(ctx), opts); err != nil {
		return errors.E(err, "couldn't parse config file:", path)
	}
	return nil
}
