// Package graphtest provides small canned graphs for tests.
package graphtest

import (
	"github.com/grailbio/paragraph/graph"
)

// Sequences of the heterozygous insertion graph.
const (
	LF  = "GCTAAAGACAATTACATAACATACACGTCAGCACGAAACTTGTTGGCCCAGTGTGAATCG"
	INS = "CTTAAGGGTTAA"
	RF  = "GTAAGTGTGATGCATACGCCTTTACTTGCTGTGTCCACCCCATCGGACTGGCATTTTTAT"

	// RefSeq and AltSeq are the two alleles spelled out.
	RefSeq = LF + RF
	AltSeq = LF + INS + RF
)

// Node IDs of the heterozygous insertion graph.
const (
	NodeLF graph.NodeID = iota
	NodeINS
	NodeRF
)

// Edge IDs of the heterozygous insertion graph.
const (
	EdgeLFINS graph.EdgeID = iota
	EdgeINSRF
	EdgeLFRF
)

// HetIns returns the graph LF -> INS -> RF, LF -> RF with paths "ref"
// (LF, RF; label REF) and "alt" (LF, INS, RF; label ALT).
func HetIns() (*graph.Graph, []graph.Path) {
	g, err := graph.New(
		[]graph.Node{{Name: "LF", Seq: LF}, {Name: "INS", Seq: INS}, {Name: "RF", Seq: RF}},
		[]graph.Edge{{From: NodeLF, To: NodeINS}, {From: NodeINS, To: NodeRF}, {From: NodeLF, To: NodeRF}})
	if err != nil {
		panic(err)
	}
	return g, []graph.Path{
		{Name: "ref", Nodes: []graph.NodeID{NodeLF, NodeRF}, Labels: []string{"REF"}},
		{Name: "alt", Nodes: []graph.NodeID{NodeLF, NodeINS, NodeRF}, Labels: []string{"ALT"}},
	}
}

// Sequences of the tandem duplication graph.
const (
	L = "TACACTCAGAAACAGAACTCGGGTAATTTT"
	U = "GACAGGTCACGCAGAGGCGC"
	M = "GCCCTCCTGAAGTGCGTGGACACTCGCTAT"
	R = "GAATCTCTGATTTACCCACTCTGCCAAACT"
)

// Node IDs of the tandem duplication graph.
const (
	NodeL graph.NodeID = iota
	NodeU1
	NodeM
	NodeU2
	NodeR
)

// TandemDup returns a graph whose reference path carries two copies of U:
// L -> U1 -> M -> U2 -> R (label REF), and whose alternate path drops the
// second copy: L -> U1 -> R (label ALT). Reads inside U tie between U1 and U2.
func TandemDup() (*graph.Graph, []graph.Path) {
	g, err := graph.New(
		[]graph.Node{
			{Name: "L", Seq: L}, {Name: "U1", Seq: U}, {Name: "M", Seq: M},
			{Name: "U2", Seq: U}, {Name: "R", Seq: R},
		},
		[]graph.Edge{
			{From: NodeL, To: NodeU1}, {From: NodeU1, To: NodeM}, {From: NodeM, To: NodeU2},
			{From: NodeU2, To: NodeR}, {From: NodeU1, To: NodeR},
		})
	if err != nil {
		panic(err)
	}
	return g, []graph.Path{
		{Name: "ref", Nodes: []graph.NodeID{NodeL, NodeU1, NodeM, NodeU2, NodeR}, Labels: []string{"REF"}},
		{Name: "alt", Nodes: []graph.NodeID{NodeL, NodeU1, NodeR}, Labels: []string{"ALT"}},
	}
}
