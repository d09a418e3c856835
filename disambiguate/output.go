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

package disambiguate

import (
	"encoding/json"
	"io"

	"github.com/grailbio/base/tsv"
	"github.com/grailbio/paragraph/graph"
	"github.com/minio/highwayhash"
)

// Summary is the serialized form of a CountTable.
//
// Node and edge maps hold three keys per element: "<name>", "<name>:FWD" and
// "<name>:REV". Edges are named "<from>_<to>". Sequence entries hold "total",
// "total:FWD" and "total:REV".
type Summary struct {
	ReadCountsByNode     map[string]int            `json:"read_counts_by_node"`
	ReadCountsByEdge     map[string]int            `json:"read_counts_by_edge"`
	ReadCountsBySequence map[string]map[string]int `json:"read_counts_by_sequence"`
	Reads                int                       `json:"reads"`
	Unmapped             int                       `json:"unmapped_reads"`
	Ambiguous            int                       `json:"ambiguous_reads"`
	Filtered             int                       `json:"filtered_reads"`
}

func putStrandCount(m map[string]int, name string, c StrandCount) {
	m[name] = c.Total
	m[name+":FWD"] = c.Fwd
	m[name+":REV"] = c.Rev
}

// Summary converts t into its serialized form.
func (t *CountTable) Summary() Summary {
	s := Summary{
		ReadCountsByNode:     make(map[string]int, 3*len(t.Nodes)),
		ReadCountsByEdge:     make(map[string]int, 3*len(t.Edges)),
		ReadCountsBySequence: make(map[string]map[string]int, len(t.Sequences)),
		Reads:                t.Reads,
		Unmapped:             t.Unmapped,
		Ambiguous:            t.Ambiguous,
		Filtered:             t.Filtered,
	}
	for i, c := range t.Nodes {
		putStrandCount(s.ReadCountsByNode, t.g.Node(graph.NodeID(i)).Name, c)
	}
	for i, c := range t.Edges {
		putStrandCount(s.ReadCountsByEdge, t.g.EdgeName(graph.EdgeID(i)), c)
	}
	for i, c := range t.Sequences {
		m := make(map[string]int, 3)
		putStrandCount(m, "total", c)
		s.ReadCountsBySequence[t.labels[i]] = m
	}
	return s
}

// MarshalJSON returns the JSON encoding of t's Summary. Map keys are sorted,
// so equal tables encode to equal bytes.
func (t *CountTable) MarshalJSON() ([]byte, error) {
	return json.MarshalIndent(t.Summary(), "", "  ")
}

// WriteJSON writes the JSON encoding of t to w.
func (t *CountTable) WriteJSON(w io.Writer) error {
	data, err := t.MarshalJSON()
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// WriteTSV writes one row per node, edge and sequence label:
//
//   KIND  NAME  TOTAL  FWD  REV
func (t *CountTable) WriteTSV(w io.Writer) (err error) {
	out := tsv.NewWriter(w)
	out.WriteString("#KIND\tNAME\tTOTAL\tFWD\tREV")
	if err = out.EndLine(); err != nil {
		return
	}
	row := func(kind, name string, c StrandCount) error {
		out.WriteString(kind)
		out.WriteString(name)
		out.WriteUint32(uint32(c.Total))
		out.WriteUint32(uint32(c.Fwd))
		out.WriteUint32(uint32(c.Rev))
		return out.EndLine()
	}
	for i, c := range t.Nodes {
		if err = row("node", t.g.Node(graph.NodeID(i)).Name, c); err != nil {
			return
		}
	}
	for i, c := range t.Edges {
		if err = row("edge", t.g.EdgeName(graph.EdgeID(i)), c); err != nil {
			return
		}
	}
	for i, c := range t.Sequences {
		if err = row("sequence", t.labels[i], c); err != nil {
			return
		}
	}
	return out.Flush()
}

// Fingerprint is a hash of a CountTable's JSON encoding.
type Fingerprint = [highwayhash.Size]uint8

// Fingerprint hashes the JSON encoding of t. Tables with equal counts have
// equal fingerprints.
func (t *CountTable) Fingerprint() (Fingerprint, error) {
	var zeroSeed = Fingerprint{}
	data, err := t.MarshalJSON()
	if err != nil {
		return Fingerprint{}, err
	}
	return highwayhash.Sum(data, zeroSeed[:]), nil
}
