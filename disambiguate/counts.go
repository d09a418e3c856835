// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package disambiguate folds read alignments into per-node, per-edge and
// per-sequence support counts.
//
// A read with several tied placements is only credited to what all of its
// placements agree on. Counts are split by the strand the read came from.
// A CountTable is not thread-safe; workers fill private tables which are then
// combined with Merge.
package disambiguate

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/paragraph/graph"
	"github.com/grailbio/paragraph/grm"
)

// StrandCount is a read count split by the strand the reads came from.
type StrandCount struct {
	Total int
	Fwd   int
	Rev   int
}

func (c *StrandCount) add(s grm.Strand) {
	c.Total++
	if s == grm.Reverse {
		c.Rev++
	} else {
		c.Fwd++
	}
}

func (c *StrandCount) merge(o StrandCount) {
	c.Total += o.Total
	c.Fwd += o.Fwd
	c.Rev += o.Rev
}

// CountTable accumulates the support of a graph's nodes, edges and sequence
// labels. Every node, edge and label has an entry from the start, so tables
// built from the same graph always have the same shape.
type CountTable struct {
	g          *graph.Graph
	paths      []graph.Path
	labels     []string
	labelIndex map[string]int

	// Nodes is indexed by graph.NodeID.
	Nodes []StrandCount
	// Edges is indexed by graph.EdgeID.
	Edges []StrandCount
	// Sequences runs parallel to Labels().
	Sequences []StrandCount

	// Reads counts the alignment results added, mapped or not.
	Reads int
	// Unmapped counts results without placements.
	Unmapped int
	// Ambiguous counts tied results whose placements share no node.
	Ambiguous int
	// Filtered counts reads added without an alignment result.
	Filtered int

	support []int // scratch space for labels
}

// NewCountTable creates an empty table for g and paths.
func NewCountTable(g *graph.Graph, paths []graph.Path) *CountTable {
	labels := graph.Labels(paths)
	t := &CountTable{
		g:          g,
		paths:      paths,
		labels:     labels,
		labelIndex: make(map[string]int, len(labels)),
		Nodes:      make([]StrandCount, g.NumNodes()),
		Edges:      make([]StrandCount, g.NumEdges()),
		Sequences:  make([]StrandCount, len(labels)),
		support:    make([]int, len(labels)),
	}
	for i, l := range labels {
		t.labelIndex[l] = i
	}
	return t
}

// Labels returns the sequence labels of the table, sorted.
func (t *CountTable) Labels() []string { return t.labels }

// Sequence returns the count of the given label.
func (t *CountTable) Sequence(label string) StrandCount {
	i, ok := t.labelIndex[label]
	if !ok {
		return StrandCount{}
	}
	return t.Sequences[i]
}

// Add folds the alignment of r into the table. Reads without an alignment
// result were filtered before alignment and only bump Filtered.
//
// A mapped read credits the nodes and edges common to all of its placements.
// If it has several placements and they share no node, it is counted as
// ambiguous and credits nothing. Its sequence labels are the labels that
// every placement is consistent with, a placement being consistent with the
// labels of the paths that contain it. They are credited unless they are
// empty or cover all labels of the graph, in which case the read does not
// tell the sequences apart.
//
// Counts go to the strand given by r.AlignedStrand.
func (t *CountTable) Add(r *grm.Read) {
	res := r.Alignment
	if res == nil {
		t.Filtered++
		return
	}
	t.Reads++
	if !res.Mapped() {
		t.Unmapped++
		return
	}
	cands := res.Candidates
	strand := r.AlignedStrand()
	nodes := commonNodes(cands)
	if len(cands) > 1 && len(nodes) == 0 {
		t.Ambiguous++
		return
	}
	for _, n := range nodes {
		t.Nodes[n].add(strand)
	}
	for _, e := range t.commonEdges(cands) {
		t.Edges[e].add(strand)
	}
	t.addLabels(cands, strand)
}

// AddAll calls Add for every read.
func (t *CountTable) AddAll(reads []*grm.Read) {
	for _, r := range reads {
		t.Add(r)
	}
}

func containsNode(nodes []graph.NodeID, n graph.NodeID) bool {
	for _, x := range nodes {
		if x == n {
			return true
		}
	}
	return false
}

// commonNodes returns the nodes of cands[0] that every candidate covers, in
// cands[0] order.
func commonNodes(cands []grm.Candidate) []graph.NodeID {
	var common []graph.NodeID
	for _, n := range cands[0].Nodes {
		if containsNode(common, n) {
			continue
		}
		all := true
		for _, c := range cands[1:] {
			if !containsNode(c.Nodes, n) {
				all = false
				break
			}
		}
		if all {
			common = append(common, n)
		}
	}
	return common
}

// edges returns the edges traversed by consecutive nodes of c.
func (t *CountTable) edges(c grm.Candidate) []graph.EdgeID {
	var edges []graph.EdgeID
	for i := 1; i < len(c.Nodes); i++ {
		if e, ok := t.g.EdgeBetween(c.Nodes[i-1], c.Nodes[i]); ok {
			edges = append(edges, e)
		}
	}
	return edges
}

func containsEdge(edges []graph.EdgeID, e graph.EdgeID) bool {
	for _, x := range edges {
		if x == e {
			return true
		}
	}
	return false
}

func (t *CountTable) commonEdges(cands []grm.Candidate) []graph.EdgeID {
	common := t.edges(cands[0])
	for _, c := range cands[1:] {
		if len(common) == 0 {
			break
		}
		other := t.edges(c)
		kept := common[:0]
		for _, e := range common {
			if containsEdge(other, e) {
				kept = append(kept, e)
			}
		}
		common = kept
	}
	return common
}

func (t *CountTable) addLabels(cands []grm.Candidate, s grm.Strand) {
	for i := range t.support {
		t.support[i] = 0
	}
	for ci, c := range cands {
		for _, p := range t.paths {
			if !p.Contains(c.Nodes) {
				continue
			}
			for _, l := range p.Labels {
				// Count each label at most once per candidate.
				if i := t.labelIndex[l]; t.support[i] == ci {
					t.support[i]++
				}
			}
		}
	}
	n := 0
	for _, v := range t.support {
		if v == len(cands) {
			n++
		}
	}
	if n == 0 || n == len(t.labels) {
		return
	}
	for i, v := range t.support {
		if v == len(cands) {
			t.Sequences[i].add(s)
		}
	}
}

// Merge adds the counts of o to t. Both tables must have been created for the
// same graph.
func (t *CountTable) Merge(o *CountTable) error {
	if t.g != o.g || len(t.labels) != len(o.labels) {
		return errors.E(errors.Invalid, "disambiguate: merging count tables of different graphs")
	}
	for i := range t.Nodes {
		t.Nodes[i].merge(o.Nodes[i])
	}
	for i := range t.Edges {
		t.Edges[i].merge(o.Edges[i])
	}
	for i := range t.Sequences {
		t.Sequences[i].merge(o.Sequences[i])
	}
	t.Reads += o.Reads
	t.Unmapped += o.Unmapped
	t.Ambiguous += o.Ambiguous
	t.Filtered += o.Filtered
	return nil
}

// Validate checks that the counts are consistent: strands add up to totals,
// and no element is supported by more reads than were placed.
func (t *CountTable) Validate() error {
	placed := t.Reads - t.Unmapped - t.Ambiguous
	if placed < 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("disambiguate: %d reads, %d unmapped, %d ambiguous", t.Reads, t.Unmapped, t.Ambiguous))
	}
	check := func(kind, name string, c StrandCount) error {
		if c.Fwd+c.Rev != c.Total {
			return errors.E(errors.Invalid, fmt.Sprintf("disambiguate: %s %s: fwd %d + rev %d != total %d", kind, name, c.Fwd, c.Rev, c.Total))
		}
		if c.Total < 0 || c.Total > placed {
			return errors.E(errors.Invalid, fmt.Sprintf("disambiguate: %s %s: count %d exceeds %d placed reads", kind, name, c.Total, placed))
		}
		return nil
	}
	for i, c := range t.Nodes {
		if err := check("node", t.g.Node(graph.NodeID(i)).Name, c); err != nil {
			return err
		}
	}
	for i, c := range t.Edges {
		if err := check("edge", t.g.EdgeName(graph.EdgeID(i)), c); err != nil {
			return err
		}
	}
	for i, c := range t.Sequences {
		if err := check("sequence", t.labels[i], c); err != nil {
			return err
		}
	}
	return nil
}
