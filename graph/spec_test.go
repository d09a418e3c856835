package graph_test

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/paragraph/graph"
	"github.com/grailbio/paragraph/graph/graphtest"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/expect"
	"github.com/grailbio/testutil/h"
	"github.com/stretchr/testify/require"
)

// chr1 is LF + RF of the het-ins graph wrapped in 10 bases of padding on
// each side, split over several lines.
var testFASTA = ">chr1 test contig\n" +
	"AAAAACCCCC" + graphtest.LF[:30] + "\n" +
	strings.ToLower(graphtest.LF[30:]) + graphtest.RF + "\n" +
	"GGGGGTTTTT\n" +
	">chr2\nACGT\n"

const testSpec = `{
  "nodes": [
    {"name": "LF", "reference": "chr1:11-70"},
    {"name": "INS", "sequence": "CTTAAGGGTTAA"},
    {"name": "RF", "reference": "chr1:71-130"}
  ],
  "edges": [
    {"from": "LF", "to": "INS"},
    {"from": "INS", "to": "RF"},
    {"from": "LF", "to": "RF"}
  ],
  "paths": [
    {"path_id": "ref", "nodes": ["LF", "RF"], "sequence": "REF"},
    {"path_id": "alt", "nodes": ["LF", "INS", "RF"], "sequences": ["ALT"]}
  ],
  "target_regions": ["chr1:1-140"]
}`

func testWriteFile(t *testing.T, path, data string) {
	require.NoError(t, ioutil.WriteFile(path, []byte(data), 0644))
}

func TestReadFASTA(t *testing.T) {
	ref, err := graph.ReadFASTA(strings.NewReader(testFASTA))
	require.NoError(t, err)
	s, err := ref.Get("chr1", 10, 70)
	require.NoError(t, err)
	expect.EQ(t, s, graphtest.LF)
	s, err = ref.Get("chr2", 1, 3)
	require.NoError(t, err)
	expect.EQ(t, s, "CG")
	_, err = ref.Get("chr3", 0, 1)
	expect.NotNil(t, err)
	_, err = ref.Get("chr2", 2, 10)
	expect.NotNil(t, err)

	_, err = graph.ReadFASTA(strings.NewReader("ACGT\n>chr1\nACGT\n"))
	expect.NotNil(t, err)
}

func TestLoadSpec(t *testing.T) {
	ctx := context.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	specPath := filepath.Join(tempDir, "graph.json")
	fastaPath := filepath.Join(tempDir, "ref.fa")
	testWriteFile(t, specPath, testSpec)
	testWriteFile(t, fastaPath, testFASTA)

	spec, err := graph.LoadSpec(ctx, specPath)
	require.NoError(t, err)
	ref, err := graph.LoadReference(ctx, fastaPath)
	require.NoError(t, err)
	g, paths, regions, err := spec.Build(ref)
	require.NoError(t, err)

	want, wantPaths := graphtest.HetIns()
	require.Equal(t, want.NumNodes(), g.NumNodes())
	for i := 0; i < g.NumNodes(); i++ {
		expect.EQ(t, g.Node(graph.NodeID(i)), want.Node(graph.NodeID(i)))
	}
	for i := 0; i < g.NumEdges(); i++ {
		expect.EQ(t, g.EdgeName(graph.EdgeID(i)), want.EdgeName(graph.EdgeID(i)))
	}
	expect.EQ(t, paths, wantPaths)
	expect.That(t, regions, h.ElementsAre(graph.Region{Chrom: "chr1", Start: 0, End: 140}))
}

func TestSpecErrors(t *testing.T) {
	_, err := graph.ParseSpec([]byte("{"))
	expect.NotNil(t, err)

	for _, s := range []string{
		// Unknown node in an edge.
		`{"nodes": [{"name": "A", "sequence": "AC"}], "edges": [{"from": "A", "to": "B"}]}`,
		// Path that skips an edge.
		`{"nodes": [{"name": "A", "sequence": "AC"}, {"name": "B", "sequence": "GT"}],
		  "paths": [{"path_id": "p", "nodes": ["A", "B"], "sequence": "REF"}]}`,
		// Reference node without a FASTA.
		`{"nodes": [{"name": "A", "reference": "chr1:1-2"}]}`,
		// Cycle.
		`{"nodes": [{"name": "A", "sequence": "AC"}, {"name": "B", "sequence": "GT"}],
		  "edges": [{"from": "A", "to": "B"}, {"from": "B", "to": "A"}]}`,
		// Bad target region.
		`{"nodes": [{"name": "A", "sequence": "AC"}], "target_regions": ["chr1:5-1"]}`,
	} {
		spec, err := graph.ParseSpec([]byte(s))
		require.NoError(t, err, s)
		_, _, _, err = spec.Build(nil)
		expect.NotNil(t, err, s)
	}
}
