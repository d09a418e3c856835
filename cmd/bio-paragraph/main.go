package main

/*
bio-paragraph aligns reads against small sequence graphs and counts how many
reads support each node, edge and allele of the graph.

  bio-paragraph count -reference ref.fa -out counts.json graph.json sample.bam
  bio-paragraph describe -reference ref.fa graph.json
*/

import (
	"github.com/grailbio/base/grail"
	"v.io/x/lib/cmdline"
)

func newCmdRoot() *cmdline.Command {
	return &cmdline.Command{
		Name:     "bio-paragraph",
		Short:    "Graph read alignment and read-support counting",
		LookPath: false,
		Children: []*cmdline.Command{
			newCmdCount(),
			newCmdDescribe(),
		},
	}
}

func main() {
	shutdown := grail.Init()
	defer shutdown()
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(newCmdRoot())
}
