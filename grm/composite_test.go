package grm

import (
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/paragraph/biosimd"
	"github.com/grailbio/paragraph/graph/graphtest"
	"github.com/grailbio/testutil/expect"
	"github.com/grailbio/testutil/h"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testReads returns reads over the het-ins graph that exercise every
// strategy of the default cascade.
func testReads() []*Read {
	return []*Read{
		newRead("path", graphtest.AltSeq[50:80]),
		newRead("anchored", "ACGTACGTAC"+graphtest.RefSeq[:40]),
		newRead("klib", graphtest.LF[:30]+graphtest.LF[31:]),
		newRead("graph", strings.Repeat("T", 10)+graphtest.RF[:40]),
		newRead("junk", strings.Repeat("AC", 20)),
		newRead("short", graphtest.RF[:10]),
	}
}

func TestNewCompositeAligner(t *testing.T) {
	_, err := NewCompositeAligner(Opts{MaxTies: 1})
	assert.Error(t, err)
	expect.True(t, errors.Is(errors.Invalid, err))

	opts := DefaultOpts
	opts.KmerLength = 40
	_, err = NewCompositeAligner(opts)
	assert.Error(t, err)

	a, err := NewCompositeAligner(DefaultOpts)
	require.NoError(t, err)
	expect.That(t, a.Strategies(), h.ElementsAre(StrategyPath, StrategyKlib, StrategyKmer, StrategyGraph))

	opts = DefaultOpts
	opts.KmerBeforeKlib = true
	opts.PathMatching = false
	a, err = NewCompositeAligner(opts)
	require.NoError(t, err)
	expect.That(t, a.Strategies(), h.ElementsAre(StrategyKmer, StrategyKlib, StrategyGraph))
}

func TestAlignBeforeSetGraph(t *testing.T) {
	a, err := NewCompositeAligner(DefaultOpts)
	require.NoError(t, err)
	assert.Panics(t, func() { a.AlignRead(newRead("r", "ACGT"), AcceptAll) })
}

func TestCascade(t *testing.T) {
	g, paths := graphtest.HetIns()
	a, err := NewCompositeAligner(DefaultOpts)
	require.NoError(t, err)
	a.SetGraph(g, paths)
	reads := testReads()
	filter := NewQualityFilter(20, 0)
	for _, r := range reads {
		a.AlignRead(r, filter)
	}
	want := map[string]Strategy{
		"path":     StrategyPath,
		"anchored": StrategyPath,
		"klib":     StrategyKlib,
		"graph":    StrategyGraph,
		"junk":     StrategyNone,
	}
	for _, r := range reads {
		if r.Name == "short" {
			expect.True(t, r.Alignment == nil)
			continue
		}
		require.NotNil(t, r.Alignment, r.Name)
		expect.EQ(t, r.Alignment.Strategy, want[r.Name], r.Name)
	}
	expect.True(t, reads[1].Alignment.Anchored)
	expect.False(t, reads[4].Alignment.Mapped())

	s := a.Stats()
	expect.EQ(t, s, Stats{
		Filtered:     1,
		Attempted:    5,
		MappedPath:   1,
		AnchoredPath: 1,
		MappedKlib:   1,
		MappedSw:     1,
		Unmapped:     1,
	})
	expect.NoError(t, s.Check())
	expect.EQ(t, s.Filtered+s.Attempted, len(reads))
}

// A read that both the klib and the graph strategy can place must be
// credited to klib, and the graph strategy must never run.
func TestCascadePrecedence(t *testing.T) {
	g, paths := graphtest.HetIns()
	opts := DefaultOpts
	opts.PathMatching = false
	opts.KmerMatching = false
	a, err := NewCompositeAligner(opts)
	require.NoError(t, err)
	a.SetGraph(g, paths)
	r := newRead("exact", graphtest.AltSeq[30:90])
	a.AlignRead(r, nil)
	expect.EQ(t, r.Alignment.Strategy, StrategyKlib)
	expect.EQ(t, a.Stats().MappedKlib, 1)
	expect.EQ(t, a.Stats().MappedSw, 0)
	// The graph aligner builds its layout on first use.
	expect.True(t, a.aligners[1].(*GraphAligner).layout == nil)
}

func TestReverseComplement(t *testing.T) {
	g, paths := graphtest.HetIns()
	a, err := NewCompositeAligner(DefaultOpts)
	require.NoError(t, err)
	a.SetGraph(g, paths)

	bases, _ := biosimd.ReverseComp8String(graphtest.AltSeq[30:90], nil)
	r := newRead("rc", bases)
	a.AlignRead(r, nil)
	require.True(t, r.Alignment.Mapped())
	expect.EQ(t, r.Alignment.Strategy, StrategyPath)
	expect.True(t, r.Alignment.Reverse)
	require.Len(t, r.Alignment.Candidates, 1)
	c := r.Alignment.Candidates[0]
	expect.That(t, c.Nodes, h.ElementsAre(graphtest.NodeLF, graphtest.NodeINS, graphtest.NodeRF))
	expect.EQ(t, c.Offset, 30)
	expect.EQ(t, r.AlignedStrand(), Reverse)
	expect.EQ(t, r.Bases, bases)

	r.Strand = Reverse
	expect.EQ(t, r.AlignedStrand(), Forward)

	fwd := newRead("fwd", graphtest.AltSeq[30:90])
	a.AlignRead(fwd, nil)
	expect.False(t, fwd.Alignment.Reverse)
	expect.EQ(t, fwd.AlignedStrand(), Forward)
	expect.That(t, fwd.Alignment.Candidates[0].Nodes, h.ElementsAre(graphtest.NodeLF, graphtest.NodeINS, graphtest.NodeRF))

	// Only the graph strategy: reverse placements go through the DP as well.
	opts := DefaultOpts
	opts.PathMatching, opts.KlibMatching, opts.KmerMatching = false, false, false
	sw, err := NewCompositeAligner(opts)
	require.NoError(t, err)
	sw.SetGraph(g, paths)
	r = newRead("rc-sw", bases)
	sw.AlignRead(r, nil)
	require.True(t, r.Alignment.Mapped())
	expect.EQ(t, r.Alignment.Strategy, StrategyGraph)
	expect.True(t, r.Alignment.Reverse)
	expect.That(t, r.Alignment.Candidates[0].Nodes, h.ElementsAre(graphtest.NodeLF, graphtest.NodeINS, graphtest.NodeRF))

	s := a.Stats()
	expect.EQ(t, s.MappedPath, 2)
	expect.EQ(t, s.Unmapped, 0)
	expect.NoError(t, s.Check())
}

func TestKmerOnly(t *testing.T) {
	g, paths := graphtest.HetIns()
	opts := DefaultOpts
	opts.PathMatching = false
	opts.KlibMatching = false
	opts.GraphMatching = false
	a, err := NewCompositeAligner(opts)
	require.NoError(t, err)
	a.SetGraph(g, paths)
	reads := testReads()
	for _, r := range reads {
		a.AlignRead(r, nil)
	}
	mapped := 0
	for _, r := range reads {
		require.NotNil(t, r.Alignment)
		if !r.Alignment.Mapped() {
			continue
		}
		mapped++
		expect.EQ(t, r.Alignment.Strategy, StrategyKmer, r.Name)
		for _, c := range r.Alignment.Candidates {
			expect.EQ(t, c.Strategy, StrategyKmer, r.Name)
		}
	}
	s := a.Stats()
	expect.EQ(t, mapped, 2)
	expect.True(t, reads[1].Alignment.Anchored)
	expect.EQ(t, s.MappedKmers, mapped)
	expect.EQ(t, s.MappedPath+s.AnchoredPath+s.MappedKlib+s.MappedSw, 0)
	expect.NoError(t, s.Check())
}

func TestStatsMerge(t *testing.T) {
	a := Stats{Filtered: 1, Attempted: 3, MappedPath: 2, Unmapped: 1}
	b := Stats{Attempted: 2, MappedKmers: 1, MappedSw: 1}
	expect.EQ(t, a.Merge(b), b.Merge(a))
	m := a.Merge(b)
	expect.EQ(t, m.Attempted, 5)
	expect.EQ(t, m.Mapped(), 4)
	expect.NoError(t, m.Check())
	m.Unmapped++
	expect.True(t, errors.Is(errors.Invalid, m.Check()))
}
