package grm

import (
	"fmt"

	"github.com/grailbio/hts/sam"
	"github.com/grailbio/paragraph/graph"
)

// Strategy identifies an alignment strategy.
type Strategy uint8

const (
	// StrategyNone tags unmapped results.
	StrategyNone Strategy = iota
	// StrategyPath is anchored ungapped matching against linearized paths.
	StrategyPath
	// StrategyKlib is exact or edit-distance matching against linearized paths.
	StrategyKlib
	// StrategyKmer is k-mer voting against an index of linearized paths.
	StrategyKmer
	// StrategyGraph is Smith-Waterman alignment against the whole graph.
	StrategyGraph
)

var strategyNames = [...]string{"none", "path", "klib", "kmer", "graph"}

func (s Strategy) String() string {
	if int(s) < len(strategyNames) {
		return strategyNames[s]
	}
	return fmt.Sprintf("strategy(%d)", s)
}

// Candidate is one placement of a read on the graph.
type Candidate struct {
	Strategy Strategy
	// Path is the index of the path the placement was found on, or -1 when it
	// was found on the graph as a whole.
	Path int
	// Nodes lists the nodes the aligned part of the read overlaps, in order.
	Nodes []graph.NodeID
	// Offset is the position of the first aligned base in Nodes[0].
	Offset int
	// Score is strategy specific; higher is better.
	Score int
	// Mismatches counts mismatching or edited bases.
	Mismatches int
	Cigar      sam.Cigar
}

// samePlacement checks if c and o put the read in the same place.
func (c *Candidate) samePlacement(o *Candidate) bool {
	if c.Offset != o.Offset || len(c.Nodes) != len(o.Nodes) {
		return false
	}
	for i := range c.Nodes {
		if c.Nodes[i] != o.Nodes[i] {
			return false
		}
	}
	return true
}

// String returns a compact description, for logging.
func (c Candidate) String() string {
	return fmt.Sprintf("%v:%v@%d:%v(score=%d,mm=%d)", c.Strategy, c.Nodes, c.Offset, c.Cigar, c.Score, c.Mismatches)
}

// addCandidate appends c to cands unless an existing candidate has the same
// placement.
func addCandidate(cands []Candidate, c Candidate) []Candidate {
	for i := range cands {
		if cands[i].samePlacement(&c) {
			return cands
		}
	}
	return append(cands, c)
}

// Result is the outcome of aligning one read.
type Result struct {
	// Strategy is the strategy that placed the read, or StrategyNone.
	Strategy Strategy
	// Anchored is set when the read hangs off the end of a path.
	Anchored bool
	// Reverse is set when the reverse complement of the read was placed.
	Reverse bool
	// Candidates lists the tied best placements. It is empty for unmapped
	// reads.
	Candidates []Candidate
}

// Mapped checks if the read was placed.
func (r *Result) Mapped() bool { return len(r.Candidates) > 0 }
