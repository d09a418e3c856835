package grm

import (
	"sort"

	farm "github.com/dgryski/go-farm"
	"github.com/grailbio/base/log"
	"github.com/grailbio/paragraph/graph"
)

// nKmerIndexShard is the number of shards of a kmerIndex. The lower bits of
// farmhash(kmer) pick the shard.
const nKmerIndexShard = 64

// kmerHit is one occurrence of a kmer in a linearized path.
type kmerHit struct {
	path int32
	pos  int32
}

// kmerIndex maps kmers of the linearized paths to their occurrences.
// It is logically a map[Kmer][]kmerHit.
type kmerIndex [nKmerIndexShard]map[Kmer][]kmerHit

func hashKmer(k Kmer) uint64 {
	return farm.Hash64WithSeed(nil, uint64(k))
}

func (idx *kmerIndex) shard(k Kmer) map[Kmer][]kmerHit {
	return idx[hashKmer(k)%nKmerIndexShard]
}

func (idx *kmerIndex) get(k Kmer) []kmerHit {
	return idx.shard(k)[k]
}

// newKmerIndex indexes every kmer of the linearized paths, dropping kmers
// with more than maxHits occurrences.
func newKmerIndex(linear []*graph.Linear, kmerLength, maxHits int) *kmerIndex {
	idx := &kmerIndex{}
	for i := range idx {
		idx[i] = map[Kmer][]kmerHit{}
	}
	kz := newKmerizer(kmerLength)
	n := 0
	for _, l := range linear {
		kz.Reset(l.Seq)
		for kz.Scan() {
			k, pos := kz.Get()
			s := idx.shard(k)
			s[k] = append(s[k], kmerHit{path: int32(l.Index), pos: int32(pos)})
			n++
		}
	}
	dropped := 0
	for _, s := range idx {
		for k, hits := range s {
			if len(hits) > maxHits {
				delete(s, k)
				dropped++
			}
		}
	}
	log.Debug.Printf("grm: indexed %d kmers (k=%d) of %d paths, dropped %d repetitive kmers",
		n, kmerLength, len(linear), dropped)
	return idx
}

// diagonal is a candidate read start on a path.
type diagonal struct {
	path, start int
}

// KmerAligner places reads by kmer voting. The index over the linearized
// paths is built on the first Attempt after SetGraph. Each read kmer votes
// for the read start its hits imply; the best supported starts are then
// checked without gaps.
type KmerAligner struct {
	opts Opts
	linearBinding
	index *kmerIndex
	kz    *kmerizer
	votes map[diagonal]int
}

// NewKmerAligner creates a kmer strategy aligner.
func NewKmerAligner(opts Opts) *KmerAligner {
	return &KmerAligner{
		opts:  opts,
		kz:    newKmerizer(opts.KmerLength),
		votes: map[diagonal]int{},
	}
}

// Strategy implements Aligner.
func (a *KmerAligner) Strategy() Strategy { return StrategyKmer }

// SetGraph implements Aligner.
func (a *KmerAligner) SetGraph(g *graph.Graph, paths []graph.Path) {
	a.bind(g, paths)
	a.index = nil
}

// Attempt implements Aligner.
func (a *KmerAligner) Attempt(r *Read) ([]Candidate, bool) {
	n := len(r.Bases)
	if n < a.opts.KmerLength {
		return nil, false
	}
	linear := a.linearized()
	if a.index == nil {
		a.index = newKmerIndex(linear, a.opts.KmerLength, a.opts.MaxKmerHits)
	}
	for d := range a.votes {
		delete(a.votes, d)
	}
	nKmers, top := 0, 0
	a.kz.Reset(r.Bases)
	for a.kz.Scan() {
		k, pos := a.kz.Get()
		nKmers++
		for _, h := range a.index.get(k) {
			d := diagonal{path: int(h.path), start: int(h.pos) - pos}
			a.votes[d]++
			if a.votes[d] > top {
				top = a.votes[d]
			}
		}
	}
	if top == 0 || float64(top) < a.opts.KmerMinVoteFraction*float64(nKmers) {
		return nil, false
	}
	var best []diagonal
	for d, v := range a.votes {
		if v == top {
			best = append(best, d)
		}
	}
	sort.Slice(best, func(i, j int) bool {
		if best[i].path != best[j].path {
			return best[i].path < best[j].path
		}
		return best[i].start < best[j].start
	})
	var cands []Candidate
	bestMM, anchored := a.opts.MaxMismatches+1, true
	for _, d := range best {
		l := linear[d.path]
		u, ok := placeUngapped(l, r.Bases, d.start)
		if !ok || u.mismatches > a.opts.MaxMismatches || u.overlap(n) < a.opts.KmerLength {
			continue
		}
		// Placements inside a path beat clipped ones, then fewer mismatches win.
		if anchored && !u.clipped() {
			cands, bestMM, anchored = cands[:0], a.opts.MaxMismatches+1, false
		} else if !anchored && u.clipped() {
			continue
		}
		if u.mismatches < bestMM {
			cands, bestMM = cands[:0], u.mismatches
		}
		if u.mismatches == bestMM {
			cands = addCandidate(cands, u.candidate(l, StrategyKmer, n))
		}
	}
	if len(cands) == 0 {
		return nil, false
	}
	return capTies(cands, a.opts.MaxTies), anchored
}
