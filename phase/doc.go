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

// Package phase splits the reads of a diploid sample into two haplotypes.
//
// Columns from pileup.Scanner are fed to an Engine, which detects
// heterozygous sites, collects the calls of each read(-pair) at those sites,
// and cuts the sites into blocks of reads that overlap.  Each block is phased
// by a dynamic program over windows of consecutive sites, and reported to a
// Reporter as soon as it is complete.
package phase
