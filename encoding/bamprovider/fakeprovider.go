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
	"fmt"

	"github.com/grailbio/hts/sam"
	"github.com/grailbio/phase/interval"
)

// fakeProvider is only for unittests. It yields the given records.
type fakeProvider struct {
	header *sam.Header
	recs   []*sam.Record
}

type fakeIterator struct {
	recs   []*sam.Record
	rec    *sam.Record
	region *interval.Entry
}

// NewFakeProvider creates a provider that returns "header" in response to a
// GetHeader() call, and recs (which must be coordinate-sorted) by NewIterator
// calls.
func NewFakeProvider(header *sam.Header, recs []*sam.Record) Provider {
	return &fakeProvider{header, recs}
}

// GetHeader implements the Provider interface. It returns the header passed to
// the constructor.
func (b *fakeProvider) GetHeader() (*sam.Header, error) {
	return b.header, nil
}

// Close implements the Provider interface.
func (b *fakeProvider) Close() error {
	return nil
}

// NewIterator implements the Provider interface.
func (b *fakeProvider) NewIterator(region *interval.Entry) Iterator {
	if region != nil && RefByName(b.header, region.RefName) == nil {
		return NewErrorIterator(fmt.Errorf("bamprovider: reference %s not found", region.RefName))
	}
	return &fakeIterator{recs: b.recs, region: region}
}

// Err implements the Iterator interface.
func (i *fakeIterator) Err() error {
	return nil
}

// Close implements the Iterator interface.
func (i *fakeIterator) Close() error {
	return nil
}

func (i *fakeIterator) Scan() bool {
	for len(i.recs) > 0 {
		i.rec = i.recs[0]
		i.recs = i.recs[1:]
		if overlaps(i.rec, i.region) {
			return true
		}
	}
	return false
}

func (i *fakeIterator) Record() *sam.Record {
	// Return a copy so that the code under test cannot alter the
	// original test input data.
	copy := sam.GetFromFreePool()
	*copy = *i.rec
	return copy
}
