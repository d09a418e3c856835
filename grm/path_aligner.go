package grm

import (
	"strings"

	"github.com/grailbio/paragraph/graph"
)

// PathAligner places reads on linearized paths by exact seeds taken from
// both read ends, extended without gaps. Reads that fit inside a path are
// fully mapped; reads that run off a path end, with enough overlap, are
// anchored. Fully mapped placements always beat anchored ones.
type PathAligner struct {
	opts Opts
	linearBinding
}

// NewPathAligner creates a path strategy aligner.
func NewPathAligner(opts Opts) *PathAligner {
	return &PathAligner{opts: opts}
}

// Strategy implements Aligner.
func (a *PathAligner) Strategy() Strategy { return StrategyPath }

// SetGraph implements Aligner.
func (a *PathAligner) SetGraph(g *graph.Graph, paths []graph.Path) { a.bind(g, paths) }

// Attempt implements Aligner.
func (a *PathAligner) Attempt(r *Read) ([]Candidate, bool) {
	n, k := len(r.Bases), a.opts.PathAnchorLength
	if n < k {
		return nil, false
	}
	var full, anchored []Candidate
	fullMM, anchoredScore := a.opts.MaxMismatches+1, -1
	seeds := [2]string{r.Bases[:k], r.Bases[n-k:]}
	seedShifts := [2]int{0, n - k}
	var starts []int
	for _, l := range a.linearized() {
		starts = starts[:0]
		for si, seed := range seeds {
			for from := 0; from < len(l.Seq); {
				i := strings.Index(l.Seq[from:], seed)
				if i < 0 {
					break
				}
				pos := from + i
				from = pos + 1
				start := pos - seedShifts[si]
				if containsInt(starts, start) {
					continue
				}
				starts = append(starts, start)
				u, ok := placeUngapped(l, r.Bases, start)
				if !ok || u.mismatches > a.opts.MaxMismatches {
					continue
				}
				if !u.clipped() {
					if u.mismatches < fullMM {
						full, fullMM = full[:0], u.mismatches
					}
					if u.mismatches == fullMM {
						full = addCandidate(full, u.candidate(l, StrategyPath, n))
					}
					continue
				}
				if len(full) > 0 || u.overlap(n) < a.opts.PathMinOverlap {
					continue
				}
				c := u.candidate(l, StrategyPath, n)
				if c.Score > anchoredScore {
					anchored, anchoredScore = anchored[:0], c.Score
				}
				if c.Score == anchoredScore {
					anchored = addCandidate(anchored, c)
				}
			}
		}
	}
	if len(full) > 0 {
		return capTies(full, a.opts.MaxTies), false
	}
	if len(anchored) > 0 {
		return capTies(anchored, a.opts.MaxTies), true
	}
	return nil, false
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func capTies(cands []Candidate, max int) []Candidate {
	if len(cands) > max {
		return cands[:max]
	}
	return cands
}
