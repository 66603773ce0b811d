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
	"io"
	"os"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/bgzf"
	"github.com/grailbio/phase/encoding/bamprovider"
	"github.com/grailbio/phase/interval"
	"github.com/grailbio/phase/pileup"
)

// PhaseProvider phases the reads of provider, sending each block to reporter
// as soon as it is complete.
func PhaseProvider(ctx context.Context, provider bamprovider.Provider, reporter Reporter, opts *Opts, metrics *Metrics) (err error) {
	if err = opts.Validate(); err != nil {
		return
	}
	var region *interval.Entry
	if opts.Region != "" {
		var entry interval.Entry
		if entry, err = interval.ParseRegionString(opts.Region); err != nil {
			return
		}
		region = &entry
	}
	var targets *interval.BEDUnion
	if opts.BedPath != "" {
		var u interval.BEDUnion
		if u, err = interval.NewBEDUnionFromPath(ctx, opts.BedPath); err != nil {
			return errors.E(err, "couldn't load BED:", opts.BedPath)
		}
		targets = &u
	}

	iter := provider.NewIterator(region)
	defer func() {
		if e := iter.Close(); e != nil && err == nil {
			err = e
		}
	}()
	scannerOpts := pileup.DefaultScannerOpts
	scannerOpts.FlagExclude = opts.FlagExclude
	scannerOpts.Region = region
	scanner := pileup.NewScanner(iter, scannerOpts)
	engine := NewEngine(*opts, reporter, metrics)
	engine.Targets = targets
	for scanner.Scan() {
		if err = engine.Add(scanner.Column()); err != nil {
			return
		}
	}
	if err = scanner.Err(); err != nil {
		return
	}
	return engine.Close()
}

// Run phases the BAM at xampath, and writes the blocks to outPath.  An empty
// outPath or "-" selects stdout; a ".gz" suffix selects bgzf compression.
func Run(ctx context.Context, xampath, outPath string, opts *Opts) (err error) {
	if err = opts.Validate(); err != nil {
		return
	}
	log.Printf("phase: phasing %s (min-mapq %d, min-varq %d, window %d)", xampath, opts.MinMapQ, opts.MinVarQ, opts.WindowLen)
	provider := bamprovider.NewProvider(xampath, bamprovider.ProviderOpts{Index: opts.BamIndexPath})
	defer func() {
		if e := provider.Close(); e != nil && err == nil {
			err = errors.E(e, "couldn't read:", xampath)
		}
	}()
	if _, err = provider.GetHeader(); err != nil {
		return errors.E(err, "couldn't read header:", xampath)
	}

	var w io.Writer = os.Stdout
	if outPath != "" && outPath != "-" {
		var dst file.File
		if dst, err = file.Create(ctx, outPath); err != nil {
			return errors.E(err, "couldn't create output file:", outPath)
		}
		defer file.CloseAndReport(ctx, dst, &err)
		w = dst.Writer(ctx)
	}
	if strings.HasSuffix(outPath, ".gz") {
		bgzfWriter := bgzf.NewWriter(w, 1)
		defer func() {
			if e := bgzfWriter.Close(); e != nil && err == nil {
				err = e
			}
		}()
		w = bgzfWriter
	}

	metrics := NewMetrics()
	if err = PhaseProvider(ctx, provider, NewTSVReporter(w), opts, metrics); err != nil {
		return
	}
	if opts.MetricsPath != "" {
		if err = metrics.WriteToTextfile(opts.MetricsPath); err != nil {
			return errors.E(err, "couldn't write metrics file:", opts.MetricsPath)
		}
	}
	log.Printf("phase: done, results written to %s", outPathName(outPath))
	return nil
}

func outPathName(outPath string) string {
	if outPath == "" || outPath == "-" {
		return "stdout"
	}
	return outPath
}
