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
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/phase/phase"
)

var (
	configPath   = flag.String("config", "", "Optional YAML file of options; flags given explicitly take precedence")
	mapq         = flag.Int("mapq", phase.DefaultOpts.MinMapQ, "Reads with MAPQ below this level are ignored")
	varq         = flag.Int("varq", phase.DefaultOpts.MinVarQ, "A position is a variant site iff the summed base quality of its second allele exceeds this")
	window       = flag.Int("window", phase.DefaultOpts.WindowLen, "Width, in sites (2-10), of the local haplotypes scored by the phasing DP; each block allocates 2^window counters per site")
	maxVars      = flag.Int("max-vars", phase.DefaultOpts.MaxVars, "Maximum number of sites a single read(-pair) can span")
	filterSites  = flag.Bool("filter-sites", phase.DefaultOpts.FilterSites, "Drop sites with more incorrect than correct support and phase each block again")
	region       = flag.String("region", phase.DefaultOpts.Region, "Restrict phasing to the specified region. Format as <contig ID>:<1-based first pos>-<last pos>, <contig ID>:<1-based pos>, or just <contig ID>")
	bedPath      = flag.String("bed", phase.DefaultOpts.BedPath, "Restrict variant sites to the intervals of this BED; incompatible with -region")
	bamIndexPath = flag.String("index", phase.DefaultOpts.BamIndexPath, "Input BAM index path. Defaults to bampath + .bai")
	flagExclude  = flag.Int("flag-exclude", phase.DefaultOpts.FlagExclude, "Reads with a FLAG bit intersecting this value are skipped")
	metricsPath  = flag.String("metrics", phase.DefaultOpts.MetricsPath, "If nonempty, write run counters to this path in the Prometheus text format")
	outPath      = flag.String("out", "", "Output path; empty or '-' for stdout, a .gz suffix selects bgzf compression")
)

func bioPhaseUsage() {
	fmt.Printf("Usage: %s [OPTIONS] bampath\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

// setFlags overlays the flags given on the command line onto opts.
func setFlags(opts *phase.Opts) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mapq":
			opts.MinMapQ = *mapq
		case "varq":
			opts.MinVarQ = *varq
		case "window":
			opts.WindowLen = *window
		case "max-vars":
			opts.MaxVars = *maxVars
		case "filter-sites":
			opts.FilterSites = *filterSites
		case "region":
			opts.Region = *region
		case "bed":
			opts.BedPath = *bedPath
		case "index":
			opts.BamIndexPath = *bamIndexPath
		case "flag-exclude":
			opts.FlagExclude = *flagExclude
		case "metrics":
			opts.MetricsPath = *metricsPath
		}
	})
}

func main() {
	flag.Usage = bioPhaseUsage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 1 {
		log.Fatalf("Exactly one positional argument (bampath) expected; please check flag syntax: '%s'", strings.Join(flag.Args(), " "))
	}
	ctx := vcontext.Background()
	opts := phase.DefaultOpts
	if *configPath != "" {
		if err := phase.LoadOpts(ctx, *configPath, &opts); err != nil {
			log.Fatalf("%v", err)
		}
	}
	setFlags(&opts)
	if err := phase.Run(ctx, flag.Arg(0), *outPath, &opts); err != nil {
		log.Panicf("%v", err)
	}
	log.Debug.Printf("exiting")
}
