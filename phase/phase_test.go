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
package phase_test

import (
	"bytes"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/phase/encoding/bamprovider"
	"github.com/grailbio/phase/phase"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
)

var (
	chr1, _   = sam.NewReference("chr1", "", "", 1000, nil, nil)
	header, _ = sam.NewHeader(nil, []*sam.Reference{chr1})
)

// newRecord creates a 101-base read at chr1:101-201 reading first at
// position 100 and last at position 200, and A elsewhere.
func newRecord(name string, first, last byte) *sam.Record {
	const n = 101
	seq := make([]byte, n)
	qual := make([]byte, n)
	for i := range seq {
		seq[i] = 'A'
		qual[i] = 50
	}
	seq[0], seq[n-1] = first, last
	return &sam.Record{
		Name:    name,
		Ref:     chr1,
		Pos:     100,
		MapQ:    60,
		Cigar:   []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, n)},
		MatePos: -1,
		Seq:     sam.NewSeq(seq),
		Qual:    qual,
	}
}

func testRecords() []*sam.Record {
	return []*sam.Record{
		newRecord("read1", 'A', 'C'),
		newRecord("read2", 'A', 'C'),
		newRecord("read3", 'G', 'T'),
	}
}

// writeBAM writes recs to path, along with a .bai index.
func writeBAM(t *testing.T, path string, recs []*sam.Record) {
	ctx := vcontext.Background()
	out, err := file.Create(ctx, path)
	assert.NoError(t, err)
	w, err := bam.NewWriter(out.Writer(ctx), header, 1)
	assert.NoError(t, err)
	for _, r := range recs {
		assert.NoError(t, w.Write(r))
	}
	assert.NoError(t, w.Close())
	assert.NoError(t, out.Close(ctx))

	in, err := file.Open(ctx, path)
	assert.NoError(t, err)
	reader, err := bam.NewReader(in.Reader(ctx), 1)
	assert.NoError(t, err)
	var idx bam.Index
	for {
		r, err := reader.Read()
		if err == io.EOF {
			break
		}
		assert.NoError(t, err)
		assert.NoError(t, idx.Add(r, reader.LastChunk()))
	}
	assert.NoError(t, reader.Close())
	assert.NoError(t, in.Close(ctx))

	indexOut, err := file.Create(ctx, path+".bai")
	assert.NoError(t, err)
	assert.NoError(t, bam.WriteIndex(indexOut.Writer(ctx), &idx))
	assert.NoError(t, indexOut.Close(ctx))
}

func TestPhaseProvider(t *testing.T) {
	ctx := vcontext.Background()
	var buf bytes.Buffer
	provider := bamprovider.NewFakeProvider(header, testRecords())
	opts := phase.DefaultOpts
	assert.NoError(t, phase.PhaseProvider(ctx, provider, phase.NewTSVReporter(&buf), &opts, nil))
	assert.NoError(t, provider.Close())
	expect.EQ(t, buf.String(), threeReadsTSV)
}

func TestRun(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := vcontext.Background()
	bamPath := filepath.Join(tmpdir, "test.bam")
	writeBAM(t, bamPath, testRecords())

	outPath := filepath.Join(tmpdir, "test.phase")
	opts := phase.DefaultOpts
	opts.MetricsPath = filepath.Join(tmpdir, "metrics.prom")
	assert.NoError(t, phase.Run(ctx, bamPath, outPath, &opts))
	got, err := ioutil.ReadFile(outPath)
	assert.NoError(t, err)
	expect.EQ(t, string(got), threeReadsTSV)

	metrics, err := ioutil.ReadFile(opts.MetricsPath)
	assert.NoError(t, err)
	expect.HasSubstr(t, string(metrics), "phase_blocks_total 1")
	expect.HasSubstr(t, string(metrics), "phase_sites_total 2")
}

func TestRunCompressed(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := vcontext.Background()
	bamPath := filepath.Join(tmpdir, "test.bam")
	writeBAM(t, bamPath, testRecords())

	outPath := filepath.Join(tmpdir, "test.phase.gz")
	opts := phase.DefaultOpts
	assert.NoError(t, phase.Run(ctx, bamPath, outPath, &opts))
	f, err := os.Open(outPath)
	assert.NoError(t, err)
	defer f.Close() // nolint: errcheck
	gz, err := gzip.NewReader(f)
	assert.NoError(t, err)
	got, err := ioutil.ReadAll(gz)
	assert.NoError(t, err)
	expect.EQ(t, string(got), threeReadsTSV)
}

func TestRunRegion(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := vcontext.Background()
	bamPath := filepath.Join(tmpdir, "test.bam")
	writeBAM(t, bamPath, testRecords())

	outPath := filepath.Join(tmpdir, "test.phase")
	opts := phase.DefaultOpts
	opts.Region = "chr1:150-300"
	assert.NoError(t, phase.Run(ctx, bamPath, outPath, &opts))
	got, err := ioutil.ReadFile(outPath)
	assert.NoError(t, err)
	expect.EQ(t, string(got), "BL\tchr1\t201\t201\n"+
		"VL\t201\t1\tC\tT\t0\t0\t0\t0\n"+
		"EV\t0\tchr1\t1\t40\t1M\t*\t0\t0\tC\t*\n"+
		"EV\t0\tchr1\t1\t40\t1M\t*\t0\t0\tC\t*\n"+
		"EV\t0\tchr1\t1\t40\t1M\t*\t0\t0\tT\t*\n"+
		"//\n")
}

func TestRunErrors(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := vcontext.Background()
	outPath := filepath.Join(tmpdir, "test.phase")

	opts := phase.DefaultOpts
	expect.NotNil(t, phase.Run(ctx, filepath.Join(tmpdir, "missing.bam"), outPath, &opts))

	bamPath := filepath.Join(tmpdir, "test.bam")
	writeBAM(t, bamPath, testRecords())
	opts.WindowLen = 1
	expect.NotNil(t, phase.Run(ctx, bamPath, outPath, &opts))

	opts = phase.DefaultOpts
	opts.BedPath = filepath.Join(tmpdir, "missing.bed")
	expect.NotNil(t, phase.Run(ctx, bamPath, outPath, &opts))
}
