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
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/bgzf/index"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/phase/interval"
	"v.io/x/lib/vlog"
)

// BAMProvider implements Provider for BAM files.  Both BAM and the index
// filenames are allowed to be S3 URLs, in which case the data will be read from
// S3. Otherwise the data will be read from the local filesystem.
type BAMProvider struct {
	// Path of the *.bam file. Must be nonempty.
	Path string
	// Index is the pathname of *.bam.bai file. If "", Path + ".bai"
	Index string
	err   errors.Once

	mu      sync.Mutex
	nActive int
	header  *sam.Header
}

type bamIterator struct {
	provider *BAMProvider
	in       file.File
	reader   *bam.Reader
	// region is nil when the whole file is read.
	region *interval.Entry
	refID  int

	err  error
	next *sam.Record
}

func (b *BAMProvider) indexPath() string {
	if b.Index == "" {
		return b.Path + ".bai"
	}
	return b.Index
}

// GetHeader implements the Provider interface.
func (b *BAMProvider) GetHeader() (*sam.Header, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.header != nil {
		return b.header, nil
	}

	ctx := vcontext.Background()
	reader, err := file.Open(ctx, b.Path)
	if err != nil {
		b.err.Set(err)
		return nil, err
	}
	defer reader.Close(ctx)
	bamReader, err := bam.NewReader(reader.Reader(ctx), 1)
	if err != nil {
		b.err.Set(err)
		return nil, err
	}
	defer bamReader.Close()
	b.header = bamReader.Header()
	return b.header, nil
}

// Close implements the Provider interface.
func (b *BAMProvider) Close() error {
	b.mu.Lock()
	nActive := b.nActive
	b.mu.Unlock()
	if nActive > 0 {
		vlog.Fatalf("%d iterators still active for %+v", nActive, b.Path)
	}
	return b.err.Err()
}

// NewIterator implements the Provider interface.
func (b *BAMProvider) NewIterator(region *interval.Entry) Iterator {
	b.mu.Lock()
	b.nActive++
	b.mu.Unlock()

	iter := &bamIterator{
		provider: b,
		region:   region,
		refID:    -1,
	}
	ctx := vcontext.Background()
	if iter.in, iter.err = file.Open(ctx, b.Path); iter.err != nil {
		return iter
	}
	if iter.reader, iter.err = bam.NewReader(iter.in.Reader(ctx), 1); iter.err != nil {
		return iter
	}
	if region != nil {
		iter.err = iter.seek(ctx)
		vlog.VI(1).Infof("%v: iterating over %v", b.Path, region)
	}
	return iter
}

// seek positions the reader at the first index chunk overlapping the region.
// The seek is conservative; Scan() skips records before the region.
func (i *bamIterator) seek(ctx context.Context) error {
	ref := RefByName(i.reader.Header(), i.region.RefName)
	if ref == nil {
		return fmt.Errorf("bamprovider: reference %s not found in %s", i.region.RefName, i.provider.Path)
	}
	i.refID = ref.ID()
	start := int(i.region.Start0)
	end := int(i.region.End)
	if end > ref.Len() {
		end = ref.Len()
	}
	if start >= end {
		return io.EOF
	}

	indexIn, err := file.Open(ctx, i.provider.indexPath())
	if err != nil {
		return err
	}
	defer indexIn.Close(ctx) // nolint: errcheck
	idx, err := bam.ReadIndex(indexIn.Reader(ctx))
	if err != nil {
		return err
	}
	chunks, err := idx.Chunks(ref, start, end)
	if err == index.ErrInvalid || (err == nil && len(chunks) == 0) {
		// No reads for this interval.
		return io.EOF
	}
	if err != nil {
		return err
	}
	return i.reader.Seek(chunks[0].Begin)
}

// Scan implements the Iterator interface.
func (i *bamIterator) Scan() bool {
	if i.err != nil {
		return false
	}
	for {
		i.next, i.err = i.reader.Read()
		if i.err != nil {
			return false
		}
		if i.region == nil {
			return true
		}
		if i.next.Ref == nil || i.next.Ref.ID() > i.refID || i.next.Pos >= int(i.region.End) {
			i.err = io.EOF
			return false
		}
		if i.next.Ref.ID() == i.refID && overlaps(i.next, i.region) {
			return true
		}
	}
}

// Record implements the Iterator interface.
func (i *bamIterator) Record() *sam.Record {
	return i.next
}

// Err implements the Iterator interface.
func (i *bamIterator) Err() error {
	if i.err == io.EOF {
		return nil
	}
	return i.err
}

// Close implements the Iterator interface.
func (i *bamIterator) Close() error {
	if i.reader != nil {
		if err := i.reader.Close(); err != nil && i.Err() == nil {
			i.err = err
		}
		i.reader = nil
	}
	if i.in != nil {
		if err := i.in.Close(vcontext.Background()); err != nil && i.Err() == nil {
			i.err = err
		}
		i.in = nil
	}
	err := i.Err()
	i.provider.err.Set(err)
	i.provider.mu.Lock()
	i.provider.nActive--
	if i.provider.nActive < 0 {
		vlog.Fatalf("Negative active count for %+v", i.provider.Path)
	}
	i.provider.mu.Unlock()
	return err
}
