package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/paragraph/graph"
	"github.com/grailbio/paragraph/grm"
	"github.com/grailbio/paragraph/pipeline"
	"v.io/x/lib/cmdline"
)

func newCmdDescribe() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "describe",
		Short:    "Print the nodes, edges, paths and alignment settings of a graph",
		ArgsName: "graph.json",
	}
	flags := countFlags{threads: -1, maxReads: -1}
	cmd.Flags.StringVar(&flags.reference, "reference", "", "Reference FASTA the graph nodes refer to")
	cmd.Flags.StringVar(&flags.params, "params", "", "HCL parameter file")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return env.UsageErrorf("describe takes one graph spec, but got %v", argv)
		}
		return describe(vcontext.Background(), env.Stdout, flags, argv[0])
	})
	return cmd
}

func describe(ctx context.Context, w io.Writer, flags countFlags, specPath string) error {
	p, err := loadParams(ctx, flags)
	if err != nil {
		return err
	}
	target, err := pipeline.LoadTarget(ctx, specPath, flags.reference)
	if err != nil {
		return err
	}
	aligner, err := grm.NewCompositeAligner(p.Opts)
	if err != nil {
		return err
	}
	g := target.Graph
	fmt.Fprintf(w, "graph %s: %v\n", target.Name, g)
	for _, id := range g.TopoOrder() {
		n := g.Node(id)
		fmt.Fprintf(w, "node\t%s\t%d\n", n.Name, len(n.Seq))
	}
	for i := 0; i < g.NumEdges(); i++ {
		fmt.Fprintf(w, "edge\t%s\n", g.EdgeName(graph.EdgeID(i)))
	}
	for _, path := range target.Paths {
		names := make([]string, len(path.Nodes))
		for i, id := range path.Nodes {
			names[i] = g.Node(id).Name
		}
		fmt.Fprintf(w, "path\t%s\t%s\t%s\n", path.Name, strings.Join(path.Labels, ","), strings.Join(names, "->"))
	}
	for _, r := range target.Regions {
		fmt.Fprintf(w, "region\t%s\n", r)
	}
	fmt.Fprintf(w, "strategies\t%v\n", aligner.Strategies())
	fmt.Fprintf(w, "graph flags\t%v\n", p.Opts.GraphFlags)
	_, err = fmt.Fprintf(w, "threads\t%d\tmax reads\t%d\n", p.Threads, p.MaxReads)
	return err
}
