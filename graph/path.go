package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/grailbio/base/errors"
)

// Path is a named traversal of a graph. Labels lists the sequences (alleles)
// the path represents, e.g. "REF".
type Path struct {
	Name   string
	Nodes  []NodeID
	Labels []string
}

// String returns the path in the form "name:[n0 n1 ...]".
func (p Path) String() string {
	parts := make([]string, len(p.Nodes))
	for i, n := range p.Nodes {
		parts[i] = fmt.Sprint(n)
	}
	return p.Name + ":[" + strings.Join(parts, " ") + "]"
}

// HasLabel checks if the path carries the given sequence label.
func (p Path) HasLabel(label string) bool {
	for _, l := range p.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Contains checks if nodes occurs as a contiguous run of p.Nodes.
func (p Path) Contains(nodes []NodeID) bool {
	if len(nodes) == 0 || len(nodes) > len(p.Nodes) {
		return false
	}
	for i := 0; i+len(nodes) <= len(p.Nodes); i++ {
		if p.Nodes[i] != nodes[0] {
			continue
		}
		match := true
		for j := 1; j < len(nodes); j++ {
			if p.Nodes[i+j] != nodes[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// ValidatePath checks that p is non-empty, carries at least one label, and
// that every pair of consecutive nodes is joined by an edge of g.
func (g *Graph) ValidatePath(p Path) error {
	if len(p.Nodes) == 0 {
		return errors.E(errors.Invalid, "graph: path has no nodes:", p.Name)
	}
	if len(p.Labels) == 0 {
		return errors.E(errors.Invalid, "graph: path has no sequence label:", p.Name)
	}
	for i, n := range p.Nodes {
		if n < 0 || int(n) >= len(g.nodes) {
			return errors.E(errors.Invalid, fmt.Sprintf("graph: path %s refers to missing node %d", p.Name, n))
		}
		if i == 0 {
			continue
		}
		if _, ok := g.EdgeBetween(p.Nodes[i-1], n); !ok {
			return errors.E(errors.Invalid, fmt.Sprintf("graph: path %s uses missing edge %s",
				p.Name, g.pairName(p.Nodes[i-1], n)))
		}
	}
	return nil
}

// Labels returns the sorted, deduplicated sequence labels of paths.
func Labels(paths []Path) []string {
	seen := map[string]bool{}
	var labels []string
	for _, p := range paths {
		for _, l := range p.Labels {
			if !seen[l] {
				seen[l] = true
				labels = append(labels, l)
			}
		}
	}
	sort.Strings(labels)
	return labels
}
