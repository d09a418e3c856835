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
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/paragraph/graph/graphtest"
	"github.com/grailbio/paragraph/grm"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	p, err := ParseParams([]byte(`
threads          = 4
max_reads        = 500
min_mean_quality = 12.5
klib_matching    = false
kmer_before_klib = true
graph_clip_end   = false
kmer_length      = 20
`), "test.hcl")
	require.NoError(t, err)
	expect.EQ(t, p.Threads, 4)
	expect.EQ(t, p.MaxReads, 500)
	expect.EQ(t, p.MinReadLength, DefaultParams.MinReadLength)
	expect.EQ(t, p.MinMeanQuality, 12.5)
	expect.False(t, p.Opts.KlibMatching)
	expect.True(t, p.Opts.PathMatching)
	expect.True(t, p.Opts.KmerBeforeKlib)
	expect.EQ(t, p.Opts.GraphFlags, grm.ClipStart)
	expect.EQ(t, p.Opts.KmerLength, 20)
	expect.EQ(t, p.Opts.MaxMismatches, grm.DefaultOpts.MaxMismatches)

	p, err = ParseParams(nil, "empty.hcl")
	require.NoError(t, err)
	expect.EQ(t, p, DefaultParams)

	_, err = ParseParams([]byte(`threads = "many"`), "bad.hcl")
	assert.Error(t, err)
	_, err = ParseParams([]byte(`unknown = 1`), "bad.hcl")
	assert.Error(t, err)
	_, err = ParseParams([]byte(`threads = `), "bad.hcl")
	assert.Error(t, err)
}

func TestLoadParams(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(tempDir, "params.hcl")
	require.NoError(t, os.WriteFile(path, []byte("path_matching = false\n"), 0644))
	p, err := LoadParams(context.Background(), path)
	require.NoError(t, err)
	expect.False(t, p.Opts.PathMatching)
	_, err = LoadParams(context.Background(), filepath.Join(tempDir, "missing.hcl"))
	assert.Error(t, err)
}

func hetInsTarget() *Target {
	g, paths := graphtest.HetIns()
	return &Target{Name: "het-ins", Graph: g, Paths: paths}
}

// testReads returns reads tiled along both haplotypes with some mutated and
// some junk reads mixed in.
func testReads() []*grm.Read {
	var reads []*grm.Read
	for i, seq := range []string{graphtest.RefSeq, graphtest.AltSeq} {
		for s := 0; s+40 <= len(seq); s += 3 {
			b := []byte(seq[s : s+40])
			if s%2 == 0 {
				b[20] = 'N'
			}
			r := &grm.Read{
				Name:  fmt.Sprintf("%d-%d", i, s),
				Bases: string(b),
				Quals: strings.Repeat("I", len(b)),
			}
			if s%5 == 0 {
				r.Strand = grm.Reverse
			}
			reads = append(reads, r)
		}
	}
	reads = append(reads,
		&grm.Read{Name: "junk", Bases: strings.Repeat("AC", 20)},
		&grm.Read{Name: "short", Bases: "ACGT"})
	return reads
}

func run(t *testing.T, threads int) ([]byte, *Result) {
	p := DefaultParams
	p.Threads = threads
	res, err := AlignAndDisambiguate(p, hetInsTarget(), testReads())
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, res.Counts.WriteJSON(&buf))
	return buf.Bytes(), res
}

func TestAlignAndDisambiguate(t *testing.T) {
	json1, res1 := run(t, 1)
	json1b, _ := run(t, 1)
	json4, res4 := run(t, 4)
	jsonAll, resAll := run(t, 0)
	expect.EQ(t, string(json1), string(json1b))
	expect.EQ(t, string(json1), string(json4))
	expect.EQ(t, string(json1), string(jsonAll))
	expect.EQ(t, res1.Stats, res4.Stats)
	expect.EQ(t, res1.Stats, resAll.Stats)

	f1, err := res1.Counts.Fingerprint()
	require.NoError(t, err)
	f4, err := res4.Counts.Fingerprint()
	require.NoError(t, err)
	expect.EQ(t, f1, f4)

	n := len(testReads())
	s := res1.Stats
	expect.EQ(t, s.Filtered, 1)
	expect.EQ(t, s.Filtered+s.Attempted, n)
	expect.True(t, s.Mapped() > 0)
	expect.True(t, s.Unmapped >= 1)
	expect.EQ(t, res1.Counts.Reads, s.Attempted)
	expect.EQ(t, res1.Counts.Filtered, s.Filtered)
	expect.True(t, res1.Counts.Sequence("REF").Total > 0)
	expect.True(t, res1.Counts.Sequence("ALT").Total > 0)
}

func TestAlignAndDisambiguateErrors(t *testing.T) {
	p := DefaultParams
	p.Opts = grm.Opts{MaxTies: 1}
	_, err := AlignAndDisambiguate(p, hetInsTarget(), testReads())
	assert.Error(t, err)

	res, err := AlignAndDisambiguate(DefaultParams, hetInsTarget(), nil)
	require.NoError(t, err)
	expect.EQ(t, res.Counts.Reads, 0)
}

const testSpec = `{
  "nodes": [
    {"name": "LF", "reference": "chr1:1-60"},
    {"name": "INS", "sequence": "CTTAAGGGTTAA"},
    {"name": "RF", "reference": "chr1:61-120"}
  ],
  "edges": [
    {"from": "LF", "to": "INS"}, {"from": "INS", "to": "RF"}, {"from": "LF", "to": "RF"}
  ],
  "paths": [
    {"path_id": "ref", "nodes": ["LF", "RF"], "sequence": "REF"},
    {"path_id": "alt", "nodes": ["LF", "INS", "RF"], "sequence": "ALT"}
  ],
  "target_regions": ["chr1:1-120"]
}`

func TestLoadTargetAndExtract(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := context.Background()
	specPath := filepath.Join(tempDir, "graph.json")
	refPath := filepath.Join(tempDir, "ref.fa")
	fastqPath := filepath.Join(tempDir, "reads.fastq")
	require.NoError(t, os.WriteFile(specPath, []byte(testSpec), 0644))
	require.NoError(t, os.WriteFile(refPath, []byte(">chr1\n"+graphtest.LF+"\n"+graphtest.RF+"\n"), 0644))

	var fq strings.Builder
	for s := 0; s+50 <= len(graphtest.AltSeq); s += 10 {
		fmt.Fprintf(&fq, "@alt%d\n%s\n+\n%s\n", s, graphtest.AltSeq[s:s+50], strings.Repeat("I", 50))
	}
	require.NoError(t, os.WriteFile(fastqPath, []byte(fq.String()), 0644))

	target, err := LoadTarget(ctx, specPath, refPath)
	require.NoError(t, err)
	expect.EQ(t, target.Graph.NumNodes(), 3)
	require.Len(t, target.Regions, 1)
	expect.EQ(t, target.Regions[0].String(), "chr1:1-120")

	_, err = LoadTarget(ctx, specPath, "")
	assert.Error(t, err)

	p := DefaultParams
	p.MaxReads = 5
	reads, err := ExtractReads(ctx, p, target, []string{fastqPath, fastqPath})
	require.NoError(t, err)
	expect.EQ(t, len(reads), 5)

	p.MaxReads = 0
	reads, err = ExtractReads(ctx, p, target, []string{fastqPath, fastqPath})
	require.NoError(t, err)
	expect.EQ(t, len(reads), 9)

	res, err := AlignAndDisambiguate(p, target, reads)
	require.NoError(t, err)
	expect.EQ(t, res.Counts.Sequence("ALT").Total, 6)
	expect.EQ(t, res.Counts.Sequence("REF").Total, 0)
}
