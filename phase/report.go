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
	"io"
	"strconv"

	"github.com/grailbio/base/tsv"
	"github.com/grailbio/phase/pileup"
)

// Block is one phased block.
type Block struct {
	RefName string
	// SiteOffset is the number of sites reported on this reference before the
	// block.
	SiteOffset int
	Sites      []Site
	// Path[i] is the rank of the allele of Sites[i] on haplotype 0.
	Path      []byte
	Counts    []PhaseCounts
	Fragments []*Fragment
}

// Haplotypes returns the alleles of site i on haplotype 0 and 1, as
// pileup.BaseA..BaseT enum values.
func (b *Block) Haplotypes(i int) (byte, byte) {
	p := b.Path[i]
	return b.Sites[i].Alleles[p], b.Sites[i].Alleles[1-p]
}

// Bases renders the calls of f as nucleotides, with 'N' for missing calls.
func (b *Block) Bases(f *Fragment) []byte {
	bases := make([]byte, len(f.Calls))
	for i, c := range f.Calls {
		switch c {
		case callFirst:
			bases[i] = pileup.EnumToASCIITable[b.Sites[f.VPos+i].Alleles[0]]
		case callSecond:
			bases[i] = pileup.EnumToASCIITable[b.Sites[f.VPos+i].Alleles[1]]
		default:
			bases[i] = 'N'
		}
	}
	return bases
}

// Reporter receives the phased blocks in order.
type Reporter interface {
	WriteBlock(b *Block) error
}

// TSVReporter writes blocks in the text format below, one tab-separated
// record per line, flushing after each block.
//
//   BL  <ref>  <1-based first site pos>  <1-based last site pos>
//   VL  <1-based pos>  <1-based site index>  <hap0 allele>  <hap1 allele>  <p0 correct>  <p0 incorrect>  <p1 correct>  <p1 incorrect>
//   EV  0  <ref>  <1-based site index of first call>  40  <n calls>M  *  0  0  <bases>  *
//   //
//
// Site indices count from the start of the reference.  EV lines are
// SAM-like, with site indices in place of positions.
type TSVReporter struct {
	w *tsv.Writer
}

// NewTSVReporter creates a TSVReporter writing to w.
func NewTSVReporter(w io.Writer) *TSVReporter {
	return &TSVReporter{w: tsv.NewWriter(w)}
}

// WriteBlock implements Reporter.
func (r *TSVReporter) WriteBlock(b *Block) error {
	w := r.w
	n := len(b.Sites)
	w.WriteString("BL")
	w.WriteString(b.RefName)
	w.WriteUint32(uint32(b.Sites[0].Pos + 1))
	w.WriteUint32(uint32(b.Sites[n-1].Pos + 1))
	if err := w.EndLine(); err != nil {
		return err
	}
	for i := range b.Sites {
		hap0, hap1 := b.Haplotypes(i)
		pc := b.Counts[i]
		w.WriteString("VL")
		w.WriteUint32(uint32(b.Sites[i].Pos + 1))
		w.WriteUint32(uint32(b.SiteOffset + i + 1))
		w.WriteByte(pileup.EnumToASCIITable[hap0])
		w.WriteByte(pileup.EnumToASCIITable[hap1])
		w.WriteUint32(uint32(pc.Phase0Correct))
		w.WriteUint32(uint32(pc.Phase0Incorrect))
		w.WriteUint32(uint32(pc.Phase1Correct))
		w.WriteUint32(uint32(pc.Phase1Incorrect))
		if err := w.EndLine(); err != nil {
			return err
		}
	}
	for _, f := range b.Fragments {
		w.WriteString("EV")
		w.WriteString("0")
		w.WriteString(b.RefName)
		w.WriteUint32(uint32(b.SiteOffset + f.VPos + 1))
		w.WriteString("40")
		w.WriteString(strconv.Itoa(len(f.Calls)) + "M")
		w.WriteString("*")
		w.WriteString("0")
		w.WriteString("0")
		w.WriteString(string(b.Bases(f)))
		w.WriteString("*")
		if err := w.EndLine(); err != nil {
			return err
		}
	}
	w.WriteString("//")
	if err := w.EndLine(); err != nil {
		return err
	}
	return w.Flush()
}
