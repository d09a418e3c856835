package grm

import (
	"math"

	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/paragraph/graph"
)

const negInf = math.MinInt32

// dagLayout numbers the bases of a graph so that every base comes after the
// bases that can precede it. Empty nodes own no bases; they are skipped when
// computing predecessors.
type dagLayout struct {
	base   []int // base[n] is the position of the first base of node n
	nodeOf []graph.NodeID
	offOf  []int
	seq    []byte
	// preds[n] lists the positions of the last bases of the non-empty nodes
	// that can immediately precede node n, looking through empty nodes.
	preds [][]int
}

func newDAGLayout(g *graph.Graph) *dagLayout {
	l := &dagLayout{
		base:  make([]int, g.NumNodes()),
		preds: make([][]int, g.NumNodes()),
	}
	for _, n := range g.TopoOrder() {
		seq := g.Node(n).Seq
		l.base[n] = len(l.seq)
		for i := 0; i < len(seq); i++ {
			l.nodeOf = append(l.nodeOf, n)
			l.offOf = append(l.offOf, i)
			l.seq = append(l.seq, seq[i])
		}
		var preds []int
		for _, p := range g.Predecessors(n) {
			if ps := g.Node(p).Seq; len(ps) > 0 {
				preds = appendUniqueInt(preds, l.base[p]+len(ps)-1)
				continue
			}
			for _, pp := range l.preds[p] {
				preds = appendUniqueInt(preds, pp)
			}
		}
		l.preds[n] = preds
	}
	return l
}

func appendUniqueInt(s []int, v int) []int {
	if containsInt(s, v) {
		return s
	}
	return append(s, v)
}

// predecessors returns the positions that can precede position p.
func (l *dagLayout) predecessors(p int, buf *[1]int) []int {
	if l.offOf[p] > 0 {
		buf[0] = p - 1
		return buf[:]
	}
	return l.preds[l.nodeOf[p]]
}

// Traceback directions.
const (
	opDiag uint8 = iota
	opDel
	opIns
)

// GraphAligner aligns reads to the whole graph with a Smith-Waterman style
// dynamic program over the DAG and linear gap penalties. The graph may be
// entered and left anywhere; GraphFlags decide whether the read ends may be
// soft-clipped. All end cells with the best score are reported as ties.
type GraphAligner struct {
	opts   Opts
	g      *graph.Graph
	layout *dagLayout

	// Dynamic programming state, reused across reads. Cell (p, i) is at
	// p*(len(read)+1)+i.
	h    []int
	back []uint8
	from []int
	ops  []sam.CigarOpType
	pos  []int
}

// NewGraphAligner creates a graph strategy aligner.
func NewGraphAligner(opts Opts) *GraphAligner {
	return &GraphAligner{opts: opts}
}

// Strategy implements Aligner.
func (a *GraphAligner) Strategy() Strategy { return StrategyGraph }

// SetGraph implements Aligner. Paths are not used.
func (a *GraphAligner) SetGraph(g *graph.Graph, _ []graph.Path) {
	a.g = g
	a.layout = nil
}

func (a *GraphAligner) score(x, y byte) int {
	if x == y && asciiToKmerMap[x] != invalidKmerBits {
		return a.opts.Match
	}
	return a.opts.Mismatch
}

// startScore is the score of entering the graph after consuming i read
// bases without aligning them.
func (a *GraphAligner) startScore(i int) int {
	if i == 0 || a.opts.GraphFlags&ClipStart != 0 {
		return 0
	}
	return i * a.opts.Gap
}

// Attempt implements Aligner.
func (a *GraphAligner) Attempt(r *Read) ([]Candidate, bool) {
	if a.layout == nil {
		a.layout = newDAGLayout(a.g)
		log.Debug.Printf("grm: graph aligner layout: %d bases", len(a.layout.seq))
	}
	l := a.layout
	read := r.Bases
	m, npos := len(read), len(l.seq)
	if m == 0 || npos == 0 {
		return nil, false
	}
	w := m + 1
	if n := npos * w; cap(a.h) < n {
		a.h = make([]int, n)
		a.back = make([]uint8, n)
		a.from = make([]int, n)
	} else {
		a.h, a.back, a.from = a.h[:n], a.back[:n], a.from[:n]
	}
	var buf [1]int
	for p := 0; p < npos; p++ {
		preds := l.predecessors(p, &buf)
		row := p * w
		a.h[row] = negInf
		for i := 1; i <= m; i++ {
			s := a.score(read[i-1], l.seq[p])
			best, op, from := a.startScore(i-1)+s, opDiag, -1
			for _, u := range preds {
				if hu := a.h[u*w+i-1]; hu != negInf && hu+s > best {
					best, op, from = hu+s, opDiag, u
				}
			}
			for _, u := range preds {
				if hu := a.h[u*w+i]; hu != negInf && hu+a.opts.Gap > best {
					best, op, from = hu+a.opts.Gap, opDel, u
				}
			}
			if hp := a.h[row+i-1]; hp != negInf && hp+a.opts.Gap > best {
				best, op, from = hp+a.opts.Gap, opIns, p
			}
			a.h[row+i], a.back[row+i], a.from[row+i] = best, op, from
		}
	}

	top := negInf
	var ends []int
	minI := m
	if a.opts.GraphFlags&ClipEnd != 0 {
		minI = 1
	}
	for p := 0; p < npos; p++ {
		for i := minI; i <= m; i++ {
			v := a.h[p*w+i]
			if v > top {
				top, ends = v, ends[:0]
			}
			if v == top {
				ends = append(ends, p*w+i)
			}
		}
	}
	minScore := int(math.Ceil(a.opts.GraphMinScoreFraction * float64(a.opts.Match*m)))
	if top <= 0 || top < minScore {
		return nil, false
	}
	var cands []Candidate
	for _, cell := range ends {
		c := a.traceback(read, cell/w, cell%w, w)
		c.Score = top
		cands = addCandidate(cands, c)
		if len(cands) >= a.opts.MaxTies {
			break
		}
	}
	return cands, false
}

// traceback rebuilds the alignment ending at cell (p, i).
func (a *GraphAligner) traceback(read string, p, i, w int) Candidate {
	l := a.layout
	a.ops, a.pos = a.ops[:0], a.pos[:0]
	for k := len(read); k > i; k-- {
		a.ops = append(a.ops, sam.CigarSoftClipped)
	}
	mismatches := 0
	for {
		cell := p*w + i
		switch a.back[cell] {
		case opDiag:
			a.ops = append(a.ops, sam.CigarMatch)
			a.pos = append(a.pos, p)
			if a.score(read[i-1], l.seq[p]) != a.opts.Match {
				mismatches++
			}
			i--
		case opDel:
			a.ops = append(a.ops, sam.CigarDeletion)
			a.pos = append(a.pos, p)
			mismatches++
		case opIns:
			a.ops = append(a.ops, sam.CigarInsertion)
			mismatches++
			i--
		}
		u := a.from[cell]
		if a.back[cell] == opDiag && u < 0 {
			break
		}
		p = u
	}
	lead := sam.CigarInsertion
	if a.opts.GraphFlags&ClipStart != 0 {
		lead = sam.CigarSoftClipped
	} else {
		mismatches += i
	}
	for ; i > 0; i-- {
		a.ops = append(a.ops, lead)
	}
	reverseOps(a.ops)
	reverseInts(a.pos)

	var nodes []graph.NodeID
	for _, q := range a.pos {
		n := l.nodeOf[q]
		if len(nodes) > 0 && nodes[len(nodes)-1] == n {
			continue
		}
		if len(nodes) > 0 {
			nodes = append(nodes, a.bridge(nodes[len(nodes)-1], n)...)
		}
		nodes = append(nodes, n)
	}
	return Candidate{
		Strategy:   StrategyGraph,
		Path:       -1,
		Nodes:      nodes,
		Offset:     l.offOf[a.pos[0]],
		Mismatches: mismatches,
		Cigar:      runLength(a.ops),
	}
}

// bridge returns the empty nodes that join from to to when there is no
// direct edge between them. The first chain found in successor order wins.
func (a *GraphAligner) bridge(from, to graph.NodeID) []graph.NodeID {
	if _, ok := a.g.EdgeBetween(from, to); ok {
		return nil
	}
	var walk func(n graph.NodeID) []graph.NodeID
	walk = func(n graph.NodeID) []graph.NodeID {
		for _, s := range a.g.Successors(n) {
			if len(a.g.Node(s).Seq) > 0 {
				continue
			}
			if _, ok := a.g.EdgeBetween(s, to); ok {
				return []graph.NodeID{s}
			}
			if rest := walk(s); rest != nil {
				return append([]graph.NodeID{s}, rest...)
			}
		}
		return nil
	}
	return walk(from)
}

func reverseOps(s []sam.CigarOpType) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func reverseInts(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func runLength(ops []sam.CigarOpType) sam.Cigar {
	var c sam.Cigar
	for i := 0; i < len(ops); {
		j := i
		for j < len(ops) && ops[j] == ops[i] {
			j++
		}
		c = append(c, sam.NewCigarOp(ops[i], j-i))
		i = j
	}
	return c
}
