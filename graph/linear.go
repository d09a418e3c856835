package graph

import (
	"strings"

	"github.com/biogo/store/llrb"
)

// span is the [start, end) range of one path position in a Linear sequence.
type span struct {
	start, end int
	pos        int // index into Path.Nodes
}

// Compare compares two spans by start, for use in llrb.
func (s span) Compare(c llrb.Comparable) int {
	return s.start - c.(span).start
}

// Linear is a path spelled out as one string. It maps offsets in Seq back to
// path positions and node offsets.
type Linear struct {
	// Index is the position of the path in the slice passed to Linearize.
	Index int
	Path  *Path
	Seq   string
	spans llrb.Tree
	start []int // start[i] is the offset of Path.Nodes[i] in Seq.
}

// NewLinear spells out p against g.
func NewLinear(g *Graph, index int, p *Path) *Linear {
	l := &Linear{Index: index, Path: p, start: make([]int, len(p.Nodes))}
	var b strings.Builder
	for i, n := range p.Nodes {
		seq := g.Node(n).Seq
		l.start[i] = b.Len()
		if len(seq) > 0 {
			// Empty nodes never own an offset.
			l.spans.Insert(span{start: b.Len(), end: b.Len() + len(seq), pos: i})
		}
		b.WriteString(seq)
	}
	l.Seq = b.String()
	return l
}

// Linearize spells out every path.
func Linearize(g *Graph, paths []Path) []*Linear {
	ls := make([]*Linear, len(paths))
	for i := range paths {
		ls[i] = NewLinear(g, i, &paths[i])
	}
	return ls
}

// Locate returns the path position holding offset off and the offset within
// that node. off must be in [0, len(l.Seq)).
func (l *Linear) Locate(off int) (pos, nodeOff int) {
	c := l.spans.Floor(span{start: off})
	if c == nil {
		return -1, -1
	}
	s := c.(span)
	return s.pos, off - s.start
}

// NodeStart returns the offset of path position pos in l.Seq.
func (l *Linear) NodeStart(pos int) int { return l.start[pos] }

// Place maps the range [start, end) of l.Seq to the nodes it overlaps and the
// offset of start within the first of them. The range must be non-empty and
// lie within l.Seq.
func (l *Linear) Place(start, end int) (nodes []NodeID, offset int) {
	first, offset := l.Locate(start)
	last, _ := l.Locate(end - 1)
	if first < 0 || last < 0 {
		return nil, 0
	}
	nodes = make([]NodeID, last-first+1)
	copy(nodes, l.Path.Nodes[first:last+1])
	return nodes, offset
}
