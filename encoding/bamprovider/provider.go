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
package bamprovider

import (
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/phase/interval"
)

// ProviderOpts defines options for NewProvider.
type ProviderOpts struct {
	// Index specifies the name of the BAM index file.  If Index=="", it
	// defaults to path + ".bai".  The index is only read when an iterator is
	// restricted to a region.
	Index string
}

// Provider allows reading a BAM file, either in full or one region at a time.
type Provider interface {
	// GetHeader returns the header for the provided BAM data.  The callee
	// must not modify the returned header object.
	//
	// REQUIRES: Close has not been called.
	GetHeader() (*sam.Header, error)

	// NewIterator returns an iterator over the records overlapping region, in
	// coordinate order.  A nil region yields every mapped record of the file
	// (unmapped records at the end of the file are yielded as well; callers
	// are expected to filter them).
	//
	// REQUIRES: Close has not been called.
	NewIterator(region *interval.Entry) Iterator

	// Close must be called exactly once. It returns any error encountered
	// by the provider, or any iterator created by the provider.
	//
	// REQUIRES: All the iterators created by NewIterator have been closed.
	Close() error
}

// Iterator iterates over sam.Records in a particular genomic range, in
// coordinate order. Thread compatible.
type Iterator interface {
	// Scan returns where there are any records remaining in the iterator,
	// and if so, advances the iterator to the next record. If the iterator
	// reaches the end of its range, Scan() returns false.  If an error
	// occurs, Scan() returns false and the error can be retrieved by
	// calling Err().
	//
	// REQUIRES: Close has not been called.
	Scan() bool

	// Record returns the current record in the iterator. This must be
	// called only after a call to Scan() returns true.
	//
	// REQUIRES: Close has not been called.
	Record() *sam.Record

	// Err returns the error encoutered during iteration, or nil if no error
	// occurred.  An io.EOF error will be translated to nil.
	Err() error

	// Close must be called exactly once. It returns the value of Err().
	Close() error
}

// NewProvider creates a Provider for the BAM file at "path".  Both the BAM and
// its index may be S3 URLs.
func NewProvider(path string, optList ...ProviderOpts) Provider {
	p := &BAMProvider{Path: path}
	for _, o := range optList {
		if o.Index != "" {
			p.Index = o.Index
		}
	}
	return p
}

// RefByName finds a sam.Reference with the given name. It returns nil if a
// reference is not found.
func RefByName(h *sam.Header, refName string) *sam.Reference {
	for _, ref := range h.Refs() {
		if ref.Name() == refName {
			return ref
		}
	}
	return nil
}

// overlaps checks whether r is aligned to region.  A nil region matches
// everything.
func overlaps(r *sam.Record, region *interval.Entry) bool {
	if region == nil {
		return true
	}
	if r.Ref == nil {
		return false
	}
	return region.Overlaps(r.Ref.Name(), interval.PosType(r.Pos), interval.PosType(r.End()))
}
