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
package main

import (
	"flag"
	"testing"

	"github.com/grailbio/phase/phase"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestSetFlags(t *testing.T) {
	assert.NoError(t, flag.Set("varq", "60"))
	assert.NoError(t, flag.Set("filter-sites", "true"))
	opts := phase.DefaultOpts
	// As if loaded from -config.
	opts.MaxVars = 32
	opts.MinVarQ = 10
	setFlags(&opts)
	expect.EQ(t, opts.MinVarQ, 60)
	expect.True(t, opts.FilterSites)
	expect.EQ(t, opts.MaxVars, 32)
	expect.EQ(t, opts.WindowLen, phase.DefaultOpts.WindowLen)
}
