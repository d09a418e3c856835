package main

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/paragraph/pipeline"
	"github.com/klauspost/compress/gzip"
	"v.io/x/lib/cmdline"
)

type countFlags struct {
	reference    string
	params       string
	out          string
	tsv          string
	threads      int
	maxReads     int
	kmerOnly     bool
	singleThread bool
}

func newCmdCount() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "count",
		Short: "Align reads to a graph and count the reads supporting each node, edge and allele",
		Long: `
count loads the graph described by the JSON spec, extracts reads from the
given BAM files (restricted to the graph's target regions) or FASTQ files,
aligns them and writes the read counts as JSON.`,
		ArgsName: "graph.json reads...",
	}
	var flags countFlags
	cmd.Flags.StringVar(&flags.reference, "reference", "", "Reference FASTA the graph nodes refer to")
	cmd.Flags.StringVar(&flags.params, "params", "", "HCL parameter file")
	cmd.Flags.StringVar(&flags.out, "out", "", "Output JSON path; gzipped if it ends in .gz. Defaults to stdout")
	cmd.Flags.StringVar(&flags.tsv, "tsv", "", "Optional output TSV path")
	cmd.Flags.IntVar(&flags.threads, "threads", -1, "Number of alignment workers; 0 = runtime.NumCPU(). Overrides the parameter file")
	cmd.Flags.IntVar(&flags.maxReads, "max-reads", -1, "Maximum number of reads to extract; 0 = no limit. Overrides the parameter file")
	cmd.Flags.BoolVar(&flags.kmerOnly, "kmer-only", false, "Only use the kmer alignment strategy")
	cmd.Flags.BoolVar(&flags.singleThread, "single-thread", false, "Align on a single thread; same as -threads=1")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) < 2 {
			return env.UsageErrorf("count takes a graph spec and at least one read file, but got %v", argv)
		}
		return count(vcontext.Background(), flags, argv[0], argv[1:])
	})
	return cmd
}

// loadParams reads the parameter file, if any, and applies the command line
// overrides.
func loadParams(ctx context.Context, flags countFlags) (pipeline.Params, error) {
	p := pipeline.DefaultParams
	if flags.params != "" {
		var err error
		if p, err = pipeline.LoadParams(ctx, flags.params); err != nil {
			return p, err
		}
	}
	if flags.threads >= 0 {
		p.Threads = flags.threads
	}
	if flags.singleThread {
		p.Threads = 1
	}
	if flags.maxReads >= 0 {
		p.MaxReads = flags.maxReads
	}
	if flags.kmerOnly {
		p.Opts.PathMatching = false
		p.Opts.KlibMatching = false
		p.Opts.GraphMatching = false
		p.Opts.KmerMatching = true
	}
	return p, nil
}

func count(ctx context.Context, flags countFlags, specPath string, readPaths []string) error {
	p, err := loadParams(ctx, flags)
	if err != nil {
		return err
	}
	target, err := pipeline.LoadTarget(ctx, specPath, flags.reference)
	if err != nil {
		return err
	}
	reads, err := pipeline.ExtractReads(ctx, p, target, readPaths)
	if err != nil {
		return err
	}
	res, err := pipeline.AlignAndDisambiguate(p, target, reads)
	if err != nil {
		return err
	}
	if err := writeOutput(ctx, flags.out, res.Counts.WriteJSON); err != nil {
		return err
	}
	if flags.tsv != "" {
		if err := writeOutput(ctx, flags.tsv, res.Counts.WriteTSV); err != nil {
			return err
		}
	}
	fp, err := res.Counts.Fingerprint()
	if err != nil {
		return err
	}
	log.Printf("%s: %d reads counted, fingerprint %x", target.Name, res.Counts.Reads, fp[:8])
	return nil
}

// writeOutput calls write with a writer for path, or stdout if path is empty.
// Paths ending in .gz are gzipped.
func writeOutput(ctx context.Context, path string, write func(io.Writer) error) (err error) {
	if path == "" {
		return write(os.Stdout)
	}
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create", path)
	}
	defer file.CloseAndReport(ctx, out, &err)
	w := out.Writer(ctx)
	if !strings.HasSuffix(path, ".gz") {
		return write(w)
	}
	gz := gzip.NewWriter(w)
	if err = write(gz); err != nil {
		return err
	}
	return gz.Close()
}
