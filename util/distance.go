package util

import (
	"github.com/grailbio/hts/sam"
)

// matrix represents a 2 dimensional matrix.
type matrix struct {
	nRow, nCol int
	data       []int // row-major nRow*nCol array.
}

// reset resizes m to n x k, reusing its storage when possible.
func (m *matrix) reset(n, k int) {
	m.nRow, m.nCol = n, k
	if cap(m.data) < n*k {
		m.data = make([]int, n*k)
	}
	m.data = m.data[:n*k]
}

func (m *matrix) at(i, j int) int     { return m.data[i*m.nCol+j] }
func (m *matrix) set(i, j int, v int) { m.data[i*m.nCol+j] = v }

// operation is a type that describes one of the three possible traversals in
// an edit distance matrix.
//
//   ___|___
//    1 | 3
//    2 | 4
//
// (1) diagonal (1 -> 4): query and text bases are paired
// (2) right (2 -> 4): a text base is skipped (deletion from the query)
// (3) down (3 -> 4): a query base is unpaired (insertion into the query)
type operation uint8

const (
	diagonal operation = iota
	right
	down
)

// cigarOp maps an operation to the CIGAR operation it produces.
func (o operation) cigarOp() sam.CigarOpType {
	switch o {
	case right:
		return sam.CigarDeletion
	case down:
		return sam.CigarInsertion
	}
	return sam.CigarMatch
}

// Fitting is the placement of a query inside a longer text.
type Fitting struct {
	// Start and End delimit the aligned text, [Start, End).
	Start, End int
	// Edits is the edit distance between the query and text[Start:End].
	Edits int
	// Cigar describes the alignment of the query to text[Start:End].
	Cigar sam.Cigar
}

// Fitter computes fitting (semi-global) alignments: the query must align
// end to end while the text may be entered and left anywhere. A Fitter
// reuses its working matrix across calls, so it is not thread-safe.
type Fitter struct {
	m   matrix
	ops []operation
}

// Fit aligns q inside text with the fewest edits. It returns false if every
// placement needs more than maxEdits edits. Among placements with equal edit
// counts the one ending leftmost in text wins.
func (f *Fitter) Fit(q, text string, maxEdits int) (Fitting, bool) {
	n, k := len(q), len(text)
	if n == 0 {
		return Fitting{}, false
	}
	m := &f.m
	m.reset(n+1, k+1)
	for j := 0; j <= k; j++ {
		m.set(0, j, 0)
	}
	for i := 1; i <= n; i++ {
		m.set(i, 0, i)
		rowMin := i
		for j := 1; j <= k; j++ {
			v := m.at(i-1, j-1)
			if q[i-1] != text[j-1] {
				v++
			}
			if d := m.at(i-1, j) + 1; d < v {
				v = d
			}
			if r := m.at(i, j-1) + 1; r < v {
				v = r
			}
			m.set(i, j, v)
			if v < rowMin {
				rowMin = v
			}
		}
		// Row minima never decrease, so the query can no longer fit.
		if rowMin > maxEdits {
			return Fitting{}, false
		}
	}
	end := 0
	for j := 1; j <= k; j++ {
		if m.at(n, j) < m.at(n, end) {
			end = j
		}
	}
	edits := m.at(n, end)
	if edits > maxEdits {
		return Fitting{}, false
	}
	start := f.traceback(q, text, end)
	return Fitting{Start: start, End: end, Edits: edits, Cigar: f.cigar()}, true
}

// traceback walks from (len(q), end) back to row 0, preferring diagonal
// moves, and records the operations in f.ops in query order. It returns the
// text column where the alignment starts.
func (f *Fitter) traceback(q, text string, end int) int {
	m := &f.m
	f.ops = f.ops[:0]
	i, j := len(q), end
	for i > 0 {
		v := m.at(i, j)
		switch {
		case j > 0 && q[i-1] == text[j-1] && m.at(i-1, j-1) == v,
			j > 0 && q[i-1] != text[j-1] && m.at(i-1, j-1)+1 == v:
			f.ops = append(f.ops, diagonal)
			i--
			j--
		case m.at(i-1, j)+1 == v:
			f.ops = append(f.ops, down)
			i--
		default:
			f.ops = append(f.ops, right)
			j--
		}
	}
	for a, b := 0, len(f.ops)-1; a < b; a, b = a+1, b-1 {
		f.ops[a], f.ops[b] = f.ops[b], f.ops[a]
	}
	return j
}

// cigar run-length encodes f.ops.
func (f *Fitter) cigar() sam.Cigar {
	var c sam.Cigar
	for i := 0; i < len(f.ops); {
		t := f.ops[i].cigarOp()
		n := 0
		for ; i < len(f.ops) && f.ops[i].cigarOp() == t; i++ {
			n++
		}
		c = append(c, sam.NewCigarOp(t, n))
	}
	return c
}
