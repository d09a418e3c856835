package graph

import (
	"context"
	"encoding/json"
	"io/ioutil"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
)

// NodeSpec describes one node of a graph spec. Exactly one of Sequence and
// Reference is set; Reference is a region ("chr:start-end", 1-based inclusive)
// resolved against the reference FASTA.
type NodeSpec struct {
	Name      string `json:"name"`
	Sequence  string `json:"sequence,omitempty"`
	Reference string `json:"reference,omitempty"`
}

// EdgeSpec describes one edge of a graph spec by node names.
type EdgeSpec struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// PathSpec describes one path. Sequence is a single label; Sequences lists
// several. The two are merged.
type PathSpec struct {
	ID        string   `json:"path_id"`
	Nodes     []string `json:"nodes"`
	Sequence  string   `json:"sequence,omitempty"`
	Sequences []string `json:"sequences,omitempty"`
}

// Spec is the JSON graph description read by LoadSpec.
//
//   {
//     "nodes": [{"name": "LF", "reference": "chr1:1000-1150"},
//               {"name": "INS", "sequence": "TTGACA"}, ...],
//     "edges": [{"from": "LF", "to": "INS"}, ...],
//     "paths": [{"path_id": "ref", "nodes": ["LF", "RF"], "sequence": "REF"}, ...],
//     "target_regions": ["chr1:1000-1300"]
//   }
type Spec struct {
	Nodes         []NodeSpec `json:"nodes"`
	Edges         []EdgeSpec `json:"edges"`
	Paths         []PathSpec `json:"paths"`
	TargetRegions []string   `json:"target_regions,omitempty"`
}

// ParseSpec parses a JSON graph spec.
func ParseSpec(data []byte) (*Spec, error) {
	s := &Spec{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, errors.E(errors.Invalid, err, "graph: parse spec")
	}
	return s, nil
}

// LoadSpec reads a JSON graph spec from path.
func LoadSpec(ctx context.Context, path string) (spec *Spec, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "graph: open spec:", path)
	}
	defer func() {
		if e := in.Close(ctx); e != nil && err == nil {
			err = errors.E(e, "graph: close spec:", path)
		}
	}()
	data, err := ioutil.ReadAll(in.Reader(ctx))
	if err != nil {
		return nil, errors.E(err, "graph: read spec:", path)
	}
	if spec, err = ParseSpec(data); err != nil {
		return nil, errors.E(err, path)
	}
	return spec, nil
}

// Build creates the graph, its paths and its target regions. ref may be nil
// when no node refers to the reference.
func (s *Spec) Build(ref Reference) (*Graph, []Path, []Region, error) {
	nodes := make([]Node, len(s.Nodes))
	ids := make(map[string]NodeID, len(s.Nodes))
	for i, ns := range s.Nodes {
		n := Node{Name: ns.Name, Seq: ns.Sequence}
		if ns.Reference != "" {
			if ns.Sequence != "" {
				return nil, nil, nil, errors.E(errors.Invalid, "graph: node has both sequence and reference:", ns.Name)
			}
			if ref == nil {
				return nil, nil, nil, errors.E(errors.Invalid, "graph: node needs a reference FASTA:", ns.Name)
			}
			r, err := ParseRegion(ns.Reference)
			if err != nil {
				return nil, nil, nil, errors.E(err, "node", ns.Name)
			}
			if n.Seq, err = ref.Get(r.Chrom, r.Start, r.End); err != nil {
				return nil, nil, nil, errors.E(err, "graph: resolve node", ns.Name)
			}
		}
		nodes[i] = n
		ids[ns.Name] = NodeID(i)
	}
	lookup := func(name string) (NodeID, error) {
		id, ok := ids[name]
		if !ok {
			return 0, errors.E(errors.Invalid, "graph: unknown node:", name)
		}
		return id, nil
	}
	edges := make([]Edge, len(s.Edges))
	for i, es := range s.Edges {
		from, err := lookup(es.From)
		if err != nil {
			return nil, nil, nil, err
		}
		to, err := lookup(es.To)
		if err != nil {
			return nil, nil, nil, err
		}
		edges[i] = Edge{From: from, To: to}
	}
	g, err := New(nodes, edges)
	if err != nil {
		return nil, nil, nil, err
	}
	paths := make([]Path, len(s.Paths))
	for i, ps := range s.Paths {
		p := Path{Name: ps.ID, Labels: append([]string(nil), ps.Sequences...)}
		if ps.Sequence != "" && !p.HasLabel(ps.Sequence) {
			p.Labels = append(p.Labels, ps.Sequence)
		}
		for _, name := range ps.Nodes {
			id, err := lookup(name)
			if err != nil {
				return nil, nil, nil, errors.E(err, "path", ps.ID)
			}
			p.Nodes = append(p.Nodes, id)
		}
		if err := g.ValidatePath(p); err != nil {
			return nil, nil, nil, err
		}
		paths[i] = p
	}
	regions := make([]Region, len(s.TargetRegions))
	for i, rs := range s.TargetRegions {
		if regions[i], err = ParseRegion(rs); err != nil {
			return nil, nil, nil, err
		}
	}
	return g, paths, regions, nil
}
