package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/paragraph/graph/graphtest"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

func testWriteFile(t *testing.T, path, data string) {
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
}

type testInputs struct {
	spec, ref, fastq string
}

func writeInputs(t *testing.T, dir string) testInputs {
	in := testInputs{
		spec:  filepath.Join(dir, "graph.json"),
		ref:   filepath.Join(dir, "ref.fa"),
		fastq: filepath.Join(dir, "reads.fastq"),
	}
	testWriteFile(t, in.spec, testSpec)
	testWriteFile(t, in.ref, ">chr1\n"+graphtest.LF+graphtest.RF+"\n")
	var fq strings.Builder
	for i, seq := range []string{graphtest.RefSeq, graphtest.AltSeq} {
		for s := 0; s+50 <= len(seq); s += 10 {
			fmt.Fprintf(&fq, "@r%d-%d\n%s\n+\n%s\n", i, s, seq[s:s+50], strings.Repeat("I", 50))
		}
	}
	testWriteFile(t, in.fastq, fq.String())
	return in
}

func TestCount(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()
	in := writeInputs(t, tempDir)

	flags := countFlags{
		reference: in.ref,
		out:       filepath.Join(tempDir, "counts.json.gz"),
		tsv:       filepath.Join(tempDir, "counts.tsv"),
		threads:   2,
		maxReads:  -1,
	}
	require.NoError(t, count(ctx, flags, in.spec, []string{in.fastq}))

	f, err := os.Open(flags.out)
	require.NoError(t, err)
	defer f.Close() // nolint: errcheck
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := ioutil.ReadAll(gz)
	require.NoError(t, err)
	var got struct {
		Reads    int                       `json:"reads"`
		ByNode   map[string]int            `json:"read_counts_by_node"`
		BySeq    map[string]map[string]int `json:"read_counts_by_sequence"`
		Filtered int                       `json:"filtered_reads"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	expect.EQ(t, got.Reads, 17)
	expect.EQ(t, got.ByNode["INS"], 6)
	expect.EQ(t, got.BySeq["REF"]["total"], 4)
	expect.EQ(t, got.BySeq["ALT"]["total"], 6)

	tsv, err := ioutil.ReadFile(flags.tsv)
	require.NoError(t, err)
	expect.True(t, strings.Contains(string(tsv), "sequence\tALT\t6\t6\t0\n"))

	flags.out = filepath.Join(tempDir, "counts.json")
	flags.tsv = ""
	flags.threads = -1
	flags.singleThread = true
	require.NoError(t, count(ctx, flags, in.spec, []string{in.fastq}))
	plain, err := ioutil.ReadFile(flags.out)
	require.NoError(t, err)
	expect.EQ(t, string(plain), string(data))

	flags.reference = ""
	assert.Error(t, count(ctx, flags, in.spec, []string{in.fastq}))
}

func TestLoadParamsFlags(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()
	path := filepath.Join(tempDir, "params.hcl")
	testWriteFile(t, path, "threads = 3\nmax_reads = 7\n")

	p, err := loadParams(ctx, countFlags{params: path, threads: -1, maxReads: -1})
	require.NoError(t, err)
	expect.EQ(t, p.Threads, 3)
	expect.EQ(t, p.MaxReads, 7)

	p, err = loadParams(ctx, countFlags{params: path, threads: 5, maxReads: 0, kmerOnly: true})
	require.NoError(t, err)
	expect.EQ(t, p.Threads, 5)
	expect.EQ(t, p.MaxReads, 0)
	expect.True(t, p.Opts.KmerMatching)
	expect.False(t, p.Opts.PathMatching || p.Opts.KlibMatching || p.Opts.GraphMatching)
}

func TestDescribe(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	in := writeInputs(t, tempDir)
	var buf bytes.Buffer
	flags := countFlags{reference: in.ref, threads: -1, maxReads: -1}
	require.NoError(t, describe(vcontext.Background(), &buf, flags, in.spec))
	out := buf.String()
	expect.True(t, strings.Contains(out, "node\tINS\t12\n"), out)
	expect.True(t, strings.Contains(out, "edge\tLF_RF\n"), out)
	expect.True(t, strings.Contains(out, "path\talt\tALT\tLF->INS->RF\n"), out)
	expect.True(t, strings.Contains(out, "region\tchr1:1-120\n"), out)
	expect.True(t, strings.Contains(out, "strategies\t[path klib kmer graph]\n"), out)
}
