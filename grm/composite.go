package grm

import (
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/paragraph/biosimd"
	"github.com/grailbio/paragraph/graph"
)

// CompositeAligner runs the enabled strategies in cascade order and records
// the outcome of every read in its Stats.
//
// A CompositeAligner only borrows its graph: the graph must outlive the
// aligner's use of it and is never modified.
type CompositeAligner struct {
	opts     Opts
	aligners []Aligner
	g        *graph.Graph
	stats    Stats

	rc    Read // reverse complement of the read being aligned
	rcBuf []byte
}

// NewCompositeAligner creates an aligner with the strategies enabled in
// opts, ordered path, klib, kmer, graph (kmer before klib if
// opts.KmerBeforeKlib). It returns an error if no strategy is enabled.
func NewCompositeAligner(opts Opts) (*CompositeAligner, error) {
	if err := opts.validate(); err != nil {
		return nil, errors.E(errors.Invalid, "grm:", err)
	}
	a := &CompositeAligner{opts: opts}
	if opts.PathMatching {
		a.aligners = append(a.aligners, NewPathAligner(opts))
	}
	var klib, kmer Aligner
	if opts.KlibMatching {
		klib = NewKlibAligner(opts)
	}
	if opts.KmerMatching {
		kmer = NewKmerAligner(opts)
	}
	middle := []Aligner{klib, kmer}
	if opts.KmerBeforeKlib {
		middle[0], middle[1] = kmer, klib
	}
	for _, m := range middle {
		if m != nil {
			a.aligners = append(a.aligners, m)
		}
	}
	if opts.GraphMatching {
		a.aligners = append(a.aligners, NewGraphAligner(opts))
	}
	return a, nil
}

// Strategies lists the enabled strategies in the order they are tried.
func (a *CompositeAligner) Strategies() []Strategy {
	s := make([]Strategy, len(a.aligners))
	for i, al := range a.aligners {
		s[i] = al.Strategy()
	}
	return s
}

// SetGraph binds the aligner to g and paths. Caches built for a previous
// graph, such as the kmer index, are dropped and rebuilt on first use. Stats
// are kept.
func (a *CompositeAligner) SetGraph(g *graph.Graph, paths []graph.Path) {
	a.g = g
	for _, al := range a.aligners {
		al.SetGraph(g, paths)
	}
}

// AlignRead aligns one read. Reads rejected by filter are counted and left
// without an alignment. Every other read gets a Result, which is unmapped
// when no strategy could place it. A nil filter accepts every read.
// AlignRead panics if SetGraph has not been called.
//
// Each strategy tries the read as given and then its reverse complement
// before the next strategy runs; Result.Reverse records which one was placed.
func (a *CompositeAligner) AlignRead(r *Read, filter ReadFilter) {
	if a.g == nil {
		log.Panicf("grm: AlignRead(%s) called before SetGraph", r.Name)
	}
	if filter != nil && !filter(r) {
		a.stats.Filtered++
		r.Alignment = nil
		return
	}
	a.stats.Attempted++
	a.rc = Read{Name: r.Name, Strand: r.Strand}
	for _, al := range a.aligners {
		reverse := false
		cands, anchored := al.Attempt(r)
		if len(cands) == 0 {
			if a.rc.Bases == "" {
				a.rc.Bases, a.rcBuf = biosimd.ReverseComp8String(r.Bases, a.rcBuf)
			}
			cands, anchored = al.Attempt(&a.rc)
			reverse = true
		}
		if len(cands) == 0 {
			continue
		}
		s := al.Strategy()
		switch {
		case s == StrategyPath && anchored:
			a.stats.AnchoredPath++
		case s == StrategyPath:
			a.stats.MappedPath++
		case s == StrategyKlib:
			a.stats.MappedKlib++
		case s == StrategyKmer:
			a.stats.MappedKmers++
		case s == StrategyGraph:
			a.stats.MappedSw++
		}
		r.Alignment = &Result{Strategy: s, Anchored: anchored, Reverse: reverse, Candidates: cands}
		return
	}
	a.stats.Unmapped++
	r.Alignment = &Result{Strategy: StrategyNone}
}

// Stats returns the counters accumulated so far.
func (a *CompositeAligner) Stats() Stats { return a.stats }
