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
package pileup_test

import (
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/grailbio/phase/encoding/bamprovider"
	"github.com/grailbio/phase/interval"
	"github.com/grailbio/phase/pileup"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

var (
	chr1, _   = sam.NewReference("chr1", "", "", 1000, nil, nil)
	chr2, _   = sam.NewReference("chr2", "", "", 1000, nil, nil)
	header, _ = sam.NewHeader(nil, []*sam.Reference{chr1, chr2})
)

func scanAll(t *testing.T, recs []*sam.Record, opts pileup.ScannerOpts) ([]pileup.Column, error) {
	provider := bamprovider.NewFakeProvider(header, recs)
	iter := provider.NewIterator(nil)
	scanner := pileup.NewScanner(iter, opts)
	var cols []pileup.Column
	for scanner.Scan() {
		col := *scanner.Column()
		col.Entries = append([]pileup.Entry(nil), col.Entries...)
		cols = append(cols, col)
	}
	assert.NoError(t, iter.Close())
	return cols, scanner.Err()
}

func testReads() []*sam.Record {
	return []*sam.Record{
		{
			Name:  "r1",
			Ref:   chr1,
			Pos:   10,
			MapQ:  60,
			Cigar: []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 4)},
			Flags: sam.Paired | sam.Read1,
			Seq:   sam.NewSeq([]byte("ACGT")),
			Qual:  []byte{30, 31, 32, 33},
		},
		{
			Name:  "dup",
			Ref:   chr1,
			Pos:   11,
			MapQ:  60,
			Cigar: []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 2)},
			Flags: sam.Paired | sam.Read1 | sam.Duplicate,
			Seq:   sam.NewSeq([]byte("TT")),
			Qual:  []byte{30, 30},
		},
		{
			Name: "r2",
			Ref:  chr1,
			Pos:  12,
			MapQ: 20,
			Cigar: []sam.CigarOp{
				sam.NewCigarOp(sam.CigarSoftClipped, 1),
				sam.NewCigarOp(sam.CigarMatch, 2),
				sam.NewCigarOp(sam.CigarDeletion, 1),
				sam.NewCigarOp(sam.CigarMatch, 1),
			},
			Flags: sam.Paired | sam.Read2,
			Seq:   sam.NewSeq([]byte("TGAC")),
			Qual:  []byte{20, 21, 22, 0xff},
		},
		{
			Name:  "r3",
			Ref:   chr2,
			Pos:   0,
			MapQ:  60,
			Cigar: []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 1)},
			Seq:   sam.NewSeq([]byte("N")),
			Qual:  []byte{40},
		},
		{
			Name:  "unmapped",
			Flags: sam.Unmapped,
			Pos:   -1,
			Seq:   sam.NewSeq([]byte("A")),
			Qual:  []byte{40},
		},
	}
}

func TestScanner(t *testing.T) {
	cols, err := scanAll(t, testReads(), pileup.DefaultScannerOpts)
	assert.NoError(t, err)
	want := []pileup.Column{
		{RefID: 0, RefName: "chr1", Pos: 10, Entries: []pileup.Entry{
			{Name: "r1", Base: pileup.BaseA, Qual: 30, MapQ: 60, Start: 10, End: 14},
		}},
		{RefID: 0, RefName: "chr1", Pos: 11, Entries: []pileup.Entry{
			{Name: "r1", Base: pileup.BaseC, Qual: 31, MapQ: 60, Start: 10, End: 14},
		}},
		{RefID: 0, RefName: "chr1", Pos: 12, Entries: []pileup.Entry{
			{Name: "r1", Base: pileup.BaseG, Qual: 32, MapQ: 60, Start: 10, End: 14},
			{Name: "r2", Base: pileup.BaseG, Qual: 21, MapQ: 20, Start: 12, End: 16},
		}},
		{RefID: 0, RefName: "chr1", Pos: 13, Entries: []pileup.Entry{
			{Name: "r1", Base: pileup.BaseT, Qual: 33, MapQ: 60, Start: 10, End: 14},
			{Name: "r2", Base: pileup.BaseA, Qual: 22, MapQ: 20, Start: 12, End: 16},
		}},
		// Position 14 is a deletion in r2, and is not reported.
		{RefID: 0, RefName: "chr1", Pos: 15, Entries: []pileup.Entry{
			{Name: "r2", Base: pileup.BaseC, Qual: 0, MapQ: 20, Start: 12, End: 16},
		}},
		{RefID: 1, RefName: "chr2", Pos: 0, Entries: []pileup.Entry{
			{Name: "r3", Base: pileup.BaseX, Qual: 40, MapQ: 60, Start: 0, End: 1},
		}},
	}
	assert.EQ(t, len(cols), len(want))
	for i := range want {
		expect.EQ(t, cols[i], want[i])
	}
}

func TestScannerRegion(t *testing.T) {
	opts := pileup.DefaultScannerOpts
	opts.Region = &interval.Entry{RefName: "chr1", Start0: 12, End: 14}
	cols, err := scanAll(t, testReads(), opts)
	assert.NoError(t, err)
	assert.EQ(t, len(cols), 2)
	expect.EQ(t, cols[0].Pos, pileup.PosType(12))
	expect.EQ(t, cols[1].Pos, pileup.PosType(13))
}

func TestScannerFlagExclude(t *testing.T) {
	cols, err := scanAll(t, testReads(), pileup.ScannerOpts{})
	assert.NoError(t, err)
	// The duplicate now covers positions 11 and 12.
	expect.EQ(t, len(cols[1].Entries), 2)
	expect.EQ(t, len(cols[2].Entries), 3)
}

func TestScannerUnsorted(t *testing.T) {
	reads := testReads()
	reads[0], reads[2] = reads[2], reads[0]
	_, err := scanAll(t, reads, pileup.DefaultScannerOpts)
	expect.HasSubstr(t, err.Error(), "not coordinate-sorted")
}

func TestScannerBadCigar(t *testing.T) {
	reads := testReads()
	reads[0].Cigar = []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 3)}
	_, err := scanAll(t, reads, pileup.DefaultScannerOpts)
	expect.HasSubstr(t, err.Error(), "implies 3 bases")
}
