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
package pileup

import (
	"github.com/biogo/store/llrb"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/phase/encoding/bamprovider"
	"github.com/grailbio/phase/interval"
	"github.com/pkg/errors"
)

// ScannerOpts defines behavior of a Scanner.
type ScannerOpts struct {
	// FlagExclude causes reads with a FLAG bit intersecting this value to be
	// skipped.  Unmapped reads are always skipped.
	FlagExclude int
	// Region, if non-nil, restricts the reported columns.  Reads are still
	// taken from the iterator as given.
	Region *interval.Entry
}

// DefaultScannerOpts skips secondary, QC-fail, duplicate and supplementary
// alignments.
var DefaultScannerOpts = ScannerOpts{
	FlagExclude: int(sam.Secondary | sam.QCFail | sam.Duplicate | sam.Supplementary),
}

// activeRead is an aligned read that may still overlap the next column.
type activeRead struct {
	seq   int
	name  string
	start PosType
	end   PosType
	mapq  byte
	// readOffsets[i] is the read offset aligned to reference position
	// start+i, or -1 for deletions and reference skips.
	readOffsets []int32
	bases       []byte
	quals       []byte
}

// Compare orders active reads by alignment end, for use in llrb.
func (r *activeRead) Compare(c llrb.Comparable) int {
	r1 := c.(*activeRead)
	if r.end != r1.end {
		if r.end < r1.end {
			return -1
		}
		return 1
	}
	return r.seq - r1.seq
}

// alignRead computes the reference -> read position mapping of samr.  It
// returns a nil activeRead if samr has no aligned bases, or no stored
// sequence.
func alignRead(samr *sam.Record, seq int) (*activeRead, error) {
	if samr.Seq.Length == 0 {
		return nil, nil
	}
	r := &activeRead{
		seq:   seq,
		name:  samr.Name,
		start: PosType(samr.Pos),
		mapq:  samr.MapQ,
	}
	posInRead := int32(0)
	nAligned := 0
	for _, co := range samr.Cigar {
		cLen := co.Len()
		switch co.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			for i := 0; i < cLen; i++ {
				r.readOffsets = append(r.readOffsets, posInRead)
				posInRead++
			}
			nAligned += cLen
		case sam.CigarInsertion, sam.CigarSoftClipped:
			posInRead += int32(cLen)
		case sam.CigarDeletion, sam.CigarSkipped:
			for i := 0; i < cLen; i++ {
				r.readOffsets = append(r.readOffsets, -1)
			}
		case sam.CigarHardClipped, sam.CigarPadded:
			// do nothing
		default:
			return nil, errors.Errorf("pileup.alignRead: unexpected CIGAR code %v in read %s", co, samr.Name)
		}
	}
	if int(posInRead) != samr.Seq.Length {
		return nil, errors.Errorf("pileup.alignRead: CIGAR of read %s implies %d bases, but sequence has %d", samr.Name, posInRead, samr.Seq.Length)
	}
	if nAligned == 0 {
		return nil, nil
	}
	r.end = r.start + PosType(len(r.readOffsets))
	r.bases = make([]byte, samr.Seq.Length)
	for i := range r.bases {
		nib := byte(samr.Seq.Seq[i>>1])
		if i&1 == 0 {
			nib >>= 4
		}
		r.bases[i] = Seq8ToEnumTable[nib&15]
	}
	r.quals = make([]byte, samr.Seq.Length)
	for i := range r.quals {
		if i < len(samr.Qual) && samr.Qual[i] != 0xff {
			r.quals[i] = samr.Qual[i]
		}
	}
	return r, nil
}

// Scanner turns a coordinate-sorted record stream into a sequence of pileup
// columns, one per covered reference position, in increasing position order.
// Positions where no read has an aligned base are skipped.
type Scanner struct {
	iter bamprovider.Iterator
	opts ScannerOpts

	active  llrb.Tree
	nextSeq int
	// next is the peeked, not-yet-activated record.
	next *sam.Record

	refID   int
	refName string
	cur     PosType
	lastRef int
	lastPos int

	col Column
	err error
}

// NewScanner creates a Scanner reading from iter.  The caller remains
// responsible for closing iter.
func NewScanner(iter bamprovider.Iterator, opts ScannerOpts) *Scanner {
	return &Scanner{
		iter:    iter,
		opts:    opts,
		refID:   -1,
		lastRef: -1,
	}
}

// peek makes s.next the next record passing the filters.  It returns false at
// the end of the stream or on error.
func (s *Scanner) peek() bool {
	if s.next != nil {
		return true
	}
	if s.err != nil {
		return false
	}
	for s.iter.Scan() {
		samr := s.iter.Record()
		if samr.Ref == nil || samr.Flags&sam.Unmapped != 0 || s.opts.FlagExclude&int(samr.Flags) != 0 || len(samr.Cigar) == 0 {
			continue
		}
		refID := samr.Ref.ID()
		if refID < s.lastRef || (refID == s.lastRef && samr.Pos < s.lastPos) {
			s.err = errors.Errorf("pileup.Scanner: input is not coordinate-sorted (read %s at %s:%d)", samr.Name, samr.Ref.Name(), samr.Pos+1)
			return false
		}
		s.lastRef, s.lastPos = refID, samr.Pos
		s.next = samr
		return true
	}
	s.err = s.iter.Err()
	return false
}

func (s *Scanner) activate(samr *sam.Record) error {
	r, err := alignRead(samr, s.nextSeq)
	if err != nil {
		return err
	}
	s.nextSeq++
	if r != nil {
		s.active.Insert(r)
	}
	return nil
}

// Scan advances to the next column.  It returns false at the end of the input
// or on error; see Err.
func (s *Scanner) Scan() bool {
	for {
		if s.active.Len() == 0 {
			if !s.peek() {
				return false
			}
			s.refID = s.next.Ref.ID()
			s.refName = s.next.Ref.Name()
			s.cur = PosType(s.next.Pos)
		}
		for s.peek() && s.next.Ref.ID() == s.refID && PosType(s.next.Pos) <= s.cur {
			if s.err = s.activate(s.next); s.err != nil {
				return false
			}
			s.next = nil
		}
		if s.err != nil {
			return false
		}
		for s.active.Len() > 0 && s.active.Min().(*activeRead).end <= s.cur {
			s.active.DeleteMin()
		}
		if s.active.Len() == 0 {
			continue
		}
		pos := s.cur
		s.cur++
		if s.opts.Region != nil && !s.opts.Region.Contains(s.refName, pos) {
			continue
		}
		if s.fillColumn(pos) {
			return true
		}
	}
}

func (s *Scanner) fillColumn(pos PosType) bool {
	s.col = Column{
		RefID:   s.refID,
		RefName: s.refName,
		Pos:     pos,
		Entries: s.col.Entries[:0],
	}
	s.active.Do(func(c llrb.Comparable) bool {
		r := c.(*activeRead)
		offset := r.readOffsets[pos-r.start]
		if offset < 0 {
			return false
		}
		s.col.Entries = append(s.col.Entries, Entry{
			Name:  r.name,
			Base:  r.bases[offset],
			Qual:  r.quals[offset],
			MapQ:  r.mapq,
			Start: r.start,
			End:   r.end,
		})
		return false
	})
	return len(s.col.Entries) > 0
}

// Column returns the current column.  The Entries slice is reused by the next
// call to Scan.
func (s *Scanner) Column() *Column {
	return &s.col
}

// Err returns the first error encountered, if any.
func (s *Scanner) Err() error {
	return s.err
}
