// Package grm aligns reads to sequence graphs.
//
// Reads go through a cascade of strategies, cheapest first: the path
// strategy looks for exact anchors on the linearized paths, the klib
// strategy fits the read into each path with a bounded edit distance, the
// kmer strategy votes with an index of path kmers, and the graph strategy
// runs Smith-Waterman against the whole graph. The first strategy that
// places a read decides its Result.
//
// A CompositeAligner is not thread-safe. Create one per goroutine and bind
// them all to the same graph; the graph itself is only read.
package grm

import (
	"github.com/antzucaro/matchr"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/paragraph/graph"
)

// Aligner is one alignment strategy.
type Aligner interface {
	// Strategy identifies the aligner.
	Strategy() Strategy
	// SetGraph binds the aligner to a graph and its paths and drops anything
	// cached for the previous graph.
	SetGraph(g *graph.Graph, paths []graph.Path)
	// Attempt returns the tied best placements of r, or nil if the strategy
	// cannot place it confidently. anchored is set when the placements hang
	// off the end of a path. Attempt does not modify r.
	Attempt(r *Read) (cands []Candidate, anchored bool)
}

// linearBinding holds the graph and the lazily linearized paths shared by
// the strategies that work on paths.
type linearBinding struct {
	g      *graph.Graph
	paths  []graph.Path
	linear []*graph.Linear
}

func (b *linearBinding) bind(g *graph.Graph, paths []graph.Path) {
	b.g, b.paths, b.linear = g, paths, nil
}

func (b *linearBinding) linearized() []*graph.Linear {
	if b.linear == nil && b.g != nil {
		b.linear = graph.Linearize(b.g, b.paths)
	}
	return b.linear
}

// ungapped is an ungapped placement of a read on a linearized path. The read
// starts at linear offset start, which may lie before the path start or let
// the read run past the path end; those bases are clipped.
type ungapped struct {
	start              int
	clipStart, clipEnd int
	mismatches         int
}

// placeUngapped computes the clipping and mismatches of read at start.
// It returns false when the read does not overlap the path.
func placeUngapped(l *graph.Linear, read string, start int) (ungapped, bool) {
	u := ungapped{start: start}
	if start < 0 {
		u.clipStart = -start
	}
	if e := start + len(read) - len(l.Seq); e > 0 {
		u.clipEnd = e
	}
	if u.clipStart+u.clipEnd >= len(read) {
		return u, false
	}
	ref := l.Seq[start+u.clipStart : start+len(read)-u.clipEnd]
	mm, err := matchr.Hamming(read[u.clipStart:len(read)-u.clipEnd], ref)
	if err != nil {
		panic(err)
	}
	u.mismatches = mm
	return u, true
}

func (u ungapped) overlap(readLen int) int { return readLen - u.clipStart - u.clipEnd }

func (u ungapped) clipped() bool { return u.clipStart > 0 || u.clipEnd > 0 }

// candidate converts u into a Candidate on path l.
func (u ungapped) candidate(l *graph.Linear, s Strategy, readLen int) Candidate {
	ov := u.overlap(readLen)
	nodes, off := l.Place(u.start+u.clipStart, u.start+readLen-u.clipEnd)
	var cigar sam.Cigar
	if u.clipStart > 0 {
		cigar = append(cigar, sam.NewCigarOp(sam.CigarSoftClipped, u.clipStart))
	}
	cigar = append(cigar, sam.NewCigarOp(sam.CigarMatch, ov))
	if u.clipEnd > 0 {
		cigar = append(cigar, sam.NewCigarOp(sam.CigarSoftClipped, u.clipEnd))
	}
	return Candidate{
		Strategy:   s,
		Path:       l.Index,
		Nodes:      nodes,
		Offset:     off,
		Score:      ov - u.mismatches,
		Mismatches: u.mismatches,
		Cigar:      cigar,
	}
}
