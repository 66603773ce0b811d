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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/phase/phase"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestOptsValidate(t *testing.T) {
	opts := phase.DefaultOpts
	expect.NoError(t, opts.Validate())

	for _, modify := range []func(o *phase.Opts){
		func(o *phase.Opts) { o.MinMapQ = -1 },
		func(o *phase.Opts) { o.MinMapQ = 256 },
		func(o *phase.Opts) { o.MinVarQ = -1 },
		func(o *phase.Opts) { o.WindowLen = 1 },
		func(o *phase.Opts) { o.WindowLen = 11 },
		func(o *phase.Opts) { o.MaxVars = 0 },
		func(o *phase.Opts) { o.Region, o.BedPath = "chr1", "x.bed" },
	} {
		o := phase.DefaultOpts
		modify(&o)
		expect.NotNil(t, o.Validate())
	}
}

func TestDecodeOpts(t *testing.T) {
	opts := phase.DefaultOpts
	assert.NoError(t, phase.DecodeOpts(strings.NewReader(`
min_varq: 60
window_len: 8
filter_sites: true
region: chr2:1-100
`), &opts))
	want := phase.DefaultOpts
	want.MinVarQ = 60
	want.WindowLen = 8
	want.FilterSites = true
	want.Region = "chr2:1-100"
	expect.EQ(t, opts, want)

	// Empty documents leave the options alone.
	opts = phase.DefaultOpts
	assert.NoError(t, phase.DecodeOpts(strings.NewReader(""), &opts))
	expect.EQ(t, opts, phase.DefaultOpts)

	expect.NotNil(t, phase.DecodeOpts(strings.NewReader("min_var_q: 3\n"), &opts))
}

func TestLoadOpts(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := vcontext.Background()
	path := filepath.Join(tmpdir, "phase.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("max_vars: 32\nmin_mapq: 20\n"), 0644))

	opts := phase.DefaultOpts
	assert.NoError(t, phase.LoadOpts(ctx, path, &opts))
	expect.EQ(t, opts.MaxVars, 32)
	expect.EQ(t, opts.MinMapQ, 20)
	expect.EQ(t, opts.MinVarQ, phase.DefaultOpts.MinVarQ)

	expect.NotNil(t, phase.LoadOpts(ctx, filepath.Join(tmpdir, "missing.yaml"), &opts))
}
