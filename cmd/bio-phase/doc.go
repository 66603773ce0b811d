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

/*
Given a coordinate-sorted BAM of a diploid sample, bio-phase detects
heterozygous single-nucleotide sites from the read pileup, and splits the
reads spanning them into two haplotypes.

Sites are grouped into blocks; a new block starts whenever a site shares no
read with the previous ones.  Within a block, the allele of each site on
haplotype 0 is chosen to best agree with the local haplotypes observed in
windows of -window consecutive sites, and each read is then assigned to the
haplotype it agrees with most.

Output is a text file with one BL line per block, one VL line per site, one EV
line per read and a // terminator; see phase.TSVReporter.

Sample usage:
bio-phase \
    --region chr6:29000000-34000000 \
    --filter-sites \
    --out sample.phase.gz \
    sample.bam
*/
package main
