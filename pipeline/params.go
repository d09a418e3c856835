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

package pipeline

import (
	"context"
	"io/ioutil"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/paragraph/grm"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Params configures a run.
type Params struct {
	// Threads is the number of workers. Threads <= 0 means one per CPU; 1
	// forces single-threaded alignment.
	Threads int
	// MaxReads caps the number of reads extracted per target. <= 0 means no
	// limit.
	MaxReads int
	// MinReadLength and MinMeanQuality configure the read filter.
	MinReadLength  int
	MinMeanQuality float64
	// Opts configures the alignment cascade.
	Opts grm.Opts
}

// DefaultParams are the parameters used when nothing else is given.
var DefaultParams = Params{
	Threads:       0,
	MaxReads:      10000,
	MinReadLength: 20,
	Opts:          grm.DefaultOpts,
}

// Filter returns the read filter described by p.
func (p Params) Filter() grm.ReadFilter {
	return grm.NewQualityFilter(p.MinReadLength, p.MinMeanQuality)
}

// hclParams is the layout of a parameter file. Every attribute is optional;
// missing ones keep their default.
type hclParams struct {
	Threads        *int     `hcl:"threads,optional"`
	MaxReads       *int     `hcl:"max_reads,optional"`
	MinReadLength  *int     `hcl:"min_read_length,optional"`
	MinMeanQuality *float64 `hcl:"min_mean_quality,optional"`

	PathMatching   *bool `hcl:"path_matching,optional"`
	GraphMatching  *bool `hcl:"graph_matching,optional"`
	KlibMatching   *bool `hcl:"klib_matching,optional"`
	KmerMatching   *bool `hcl:"kmer_matching,optional"`
	KmerBeforeKlib *bool `hcl:"kmer_before_klib,optional"`
	GraphClipStart *bool `hcl:"graph_clip_start,optional"`
	GraphClipEnd   *bool `hcl:"graph_clip_end,optional"`

	KmerLength    *int `hcl:"kmer_length,optional"`
	MaxMismatches *int `hcl:"max_mismatches,optional"`
	KlibMaxEdits  *int `hcl:"klib_max_edits,optional"`
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setFlag(flags *grm.GraphFlags, flag grm.GraphFlags, v *bool) {
	switch {
	case v == nil:
	case *v:
		*flags |= flag
	default:
		*flags &^= flag
	}
}

func (h *hclParams) apply(p *Params) {
	setInt(&p.Threads, h.Threads)
	setInt(&p.MaxReads, h.MaxReads)
	setInt(&p.MinReadLength, h.MinReadLength)
	if h.MinMeanQuality != nil {
		p.MinMeanQuality = *h.MinMeanQuality
	}
	o := &p.Opts
	setBool(&o.PathMatching, h.PathMatching)
	setBool(&o.GraphMatching, h.GraphMatching)
	setBool(&o.KlibMatching, h.KlibMatching)
	setBool(&o.KmerMatching, h.KmerMatching)
	setBool(&o.KmerBeforeKlib, h.KmerBeforeKlib)
	setFlag(&o.GraphFlags, grm.ClipStart, h.GraphClipStart)
	setFlag(&o.GraphFlags, grm.ClipEnd, h.GraphClipEnd)
	setInt(&o.KmerLength, h.KmerLength)
	setInt(&o.MaxMismatches, h.MaxMismatches)
	setInt(&o.KlibMaxEdits, h.KlibMaxEdits)
}

// ParseParams parses an HCL parameter file on top of DefaultParams. filename
// is only used in error messages.
func ParseParams(data []byte, filename string) (Params, error) {
	p := DefaultParams
	f, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return p, errors.E(errors.Invalid, "parse", filename, diags)
	}
	var h hclParams
	if diags = gohcl.DecodeBody(f.Body, nil, &h); diags.HasErrors() {
		return p, errors.E(errors.Invalid, "decode", filename, diags)
	}
	h.apply(&p)
	return p, nil
}

// LoadParams reads an HCL parameter file from any path supported by
// grailbio/base/file.
func LoadParams(ctx context.Context, path string) (p Params, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return DefaultParams, errors.E(err, "open", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	data, err := ioutil.ReadAll(in.Reader(ctx))
	if err != nil {
		return DefaultParams, errors.E(err, "read", path)
	}
	return ParseParams(data, path)
}
