package grm

import (
	"strings"

	"github.com/grailbio/paragraph/graph"
	"github.com/grailbio/paragraph/util"
)

// KlibAligner places reads on linearized paths by exact substring search,
// falling back to a fitting edit-distance alignment. Only the leftmost best
// fit of each path is reported; exact hits are all reported.
type KlibAligner struct {
	opts Opts
	linearBinding
	fitter util.Fitter
}

// NewKlibAligner creates a klib strategy aligner.
func NewKlibAligner(opts Opts) *KlibAligner {
	return &KlibAligner{opts: opts}
}

// Strategy implements Aligner.
func (a *KlibAligner) Strategy() Strategy { return StrategyKlib }

// SetGraph implements Aligner.
func (a *KlibAligner) SetGraph(g *graph.Graph, paths []graph.Path) { a.bind(g, paths) }

// Attempt implements Aligner.
func (a *KlibAligner) Attempt(r *Read) ([]Candidate, bool) {
	n := len(r.Bases)
	if n == 0 {
		return nil, false
	}
	var cands []Candidate
	bestEdits := a.opts.KlibMaxEdits + 1
	add := func(c Candidate) {
		if c.Mismatches < bestEdits {
			cands, bestEdits = cands[:0], c.Mismatches
		}
		if c.Mismatches == bestEdits {
			cands = addCandidate(cands, c)
		}
	}
	for _, l := range a.linearized() {
		exact := false
		for from := 0; from+n <= len(l.Seq); {
			i := strings.Index(l.Seq[from:], r.Bases)
			if i < 0 {
				break
			}
			exact = true
			u := ungapped{start: from + i}
			add(u.candidate(l, StrategyKlib, n))
			from += i + 1
		}
		if exact || bestEdits == 0 {
			continue
		}
		fit, ok := a.fitter.Fit(r.Bases, l.Seq, bestEdits)
		if !ok || fit.End == fit.Start || fit.Edits > a.opts.KlibMaxEdits {
			continue
		}
		nodes, off := l.Place(fit.Start, fit.End)
		add(Candidate{
			Strategy:   StrategyKlib,
			Path:       l.Index,
			Nodes:      nodes,
			Offset:     off,
			Score:      n - fit.Edits,
			Mismatches: fit.Edits,
			Cigar:      fit.Cigar,
		})
	}
	if len(cands) == 0 {
		return nil, false
	}
	return capTies(cands, a.opts.MaxTies), false
}
