// Package graph implements the sequence graph that reads are aligned against.
//
// A Graph is a DAG of sequence nodes. Paths name traversals of the graph
// (alleles) and carry one or more sequence labels such as "REF" or "ALT".
// Graphs are immutable once built and may be shared by any number of
// goroutines.
package graph

import (
	"fmt"
	"sort"

	"github.com/grailbio/base/errors"
)

// NodeID is a dense node index, in [0, Graph.NumNodes()).
type NodeID int

// EdgeID is a dense edge index, in [0, Graph.NumEdges()).
type EdgeID int

// Node is a sequence node.
type Node struct {
	ID   NodeID
	Name string
	Seq  string
}

// Edge connects the end of From to the start of To.
type Edge struct {
	ID       EdgeID
	From, To NodeID
}

type nodePair struct{ from, to NodeID }

// Graph is an immutable sequence DAG.
type Graph struct {
	nodes  []Node
	edges  []Edge
	byName map[string]NodeID
	byPair map[nodePair]EdgeID
	succ   [][]NodeID
	pred   [][]NodeID
	order  []NodeID // topological order
}

// New creates a graph from the given nodes and edges. Node IDs are assigned
// from their position in nodes and edge IDs from their position in edges; any
// ID already stored in the arguments is ignored. Edge endpoints must refer to
// positions in nodes. New returns an error if names are duplicated, an edge
// is repeated or the edges form a cycle.
func New(nodes []Node, edges []Edge) (*Graph, error) {
	g := &Graph{
		nodes:  make([]Node, len(nodes)),
		edges:  make([]Edge, len(edges)),
		byName: make(map[string]NodeID, len(nodes)),
		byPair: make(map[nodePair]EdgeID, len(edges)),
		succ:   make([][]NodeID, len(nodes)),
		pred:   make([][]NodeID, len(nodes)),
	}
	for i, n := range nodes {
		n.ID = NodeID(i)
		if n.Name == "" {
			n.Name = fmt.Sprint(i)
		}
		if _, ok := g.byName[n.Name]; ok {
			return nil, errors.E(errors.Invalid, "graph: duplicate node name", n.Name)
		}
		g.byName[n.Name] = n.ID
		g.nodes[i] = n
	}
	for i, e := range edges {
		e.ID = EdgeID(i)
		if e.From < 0 || int(e.From) >= len(nodes) || e.To < 0 || int(e.To) >= len(nodes) {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("graph: edge %d refers to a missing node (%d->%d)", i, e.From, e.To))
		}
		k := nodePair{e.From, e.To}
		if _, ok := g.byPair[k]; ok {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("graph: duplicate edge %s", g.pairName(e.From, e.To)))
		}
		g.byPair[k] = e.ID
		g.edges[i] = e
		g.succ[e.From] = append(g.succ[e.From], e.To)
		g.pred[e.To] = append(g.pred[e.To], e.From)
	}
	for i := range g.succ {
		sort.Slice(g.succ[i], func(a, b int) bool { return g.succ[i][a] < g.succ[i][b] })
		sort.Slice(g.pred[i], func(a, b int) bool { return g.pred[i][a] < g.pred[i][b] })
	}
	if err := g.sortTopologically(); err != nil {
		return nil, err
	}
	return g, nil
}

// sortTopologically computes g.order with Kahn's algorithm, always picking the
// smallest ready node so the order is a function of the graph alone.
func (g *Graph) sortTopologically() error {
	indeg := make([]int, len(g.nodes))
	for _, e := range g.edges {
		indeg[e.To]++
	}
	var ready []NodeID
	for i, d := range indeg {
		if d == 0 {
			ready = append(ready, NodeID(i))
		}
	}
	g.order = make([]NodeID, 0, len(g.nodes))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		g.order = append(g.order, n)
		for _, s := range g.succ[n] {
			if indeg[s]--; indeg[s] == 0 {
				i := sort.Search(len(ready), func(i int) bool { return ready[i] > s })
				ready = append(ready, 0)
				copy(ready[i+1:], ready[i:])
				ready[i] = s
			}
		}
	}
	if len(g.order) != len(g.nodes) {
		return errors.E(errors.Invalid, "graph: edges form a cycle")
	}
	return nil
}

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumEdges returns the number of edges.
func (g *Graph) NumEdges() int { return len(g.edges) }

// Node returns the node with the given ID.
func (g *Graph) Node(id NodeID) Node { return g.nodes[id] }

// Edge returns the edge with the given ID.
func (g *Graph) Edge(id EdgeID) Edge { return g.edges[id] }

// NodeByName looks up a node by name.
func (g *Graph) NodeByName(name string) (NodeID, bool) {
	id, ok := g.byName[name]
	return id, ok
}

// EdgeBetween returns the edge from->to, if any.
func (g *Graph) EdgeBetween(from, to NodeID) (EdgeID, bool) {
	id, ok := g.byPair[nodePair{from, to}]
	return id, ok
}

// Successors returns the targets of the outgoing edges of n, sorted by ID.
// The caller must not modify the result.
func (g *Graph) Successors(n NodeID) []NodeID { return g.succ[n] }

// Predecessors returns the sources of the incoming edges of n, sorted by ID.
// The caller must not modify the result.
func (g *Graph) Predecessors(n NodeID) []NodeID { return g.pred[n] }

// TopoOrder returns the nodes in topological order. The caller must not
// modify the result.
func (g *Graph) TopoOrder() []NodeID { return g.order }

// EdgeName returns the name of the edge, "<from>_<to>".
func (g *Graph) EdgeName(id EdgeID) string {
	e := g.edges[id]
	return g.pairName(e.From, e.To)
}

func (g *Graph) pairName(from, to NodeID) string {
	return g.nodes[from].Name + "_" + g.nodes[to].Name
}

// String returns a short description of the graph, for logging.
func (g *Graph) String() string {
	n := 0
	for _, node := range g.nodes {
		n += len(node.Seq)
	}
	return fmt.Sprintf("graph{nodes:%d edges:%d bases:%d}", len(g.nodes), len(g.edges), n)
}
